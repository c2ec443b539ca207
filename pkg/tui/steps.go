package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ormasoftchile/flowlens/pkg/flow"
	"github.com/ormasoftchile/flowlens/pkg/query"
	"github.com/ormasoftchile/flowlens/pkg/run"
)

// stepsPanel renders the scrollable step list.
type stepsPanel struct {
	rows   []query.Row
	cursor int // highlighted step (for browsing)
	width  int
	height int
	offset int // scroll offset
}

func newStepsPanel() stepsPanel {
	return stepsPanel{}
}

// SetRows replaces the step rows, keeping the cursor on the same step
// name when it survives the refresh.
func (p *stepsPanel) SetRows(rows []query.Row) {
	selected := p.SelectedName()
	p.rows = rows
	if selected != "" {
		for i, row := range rows {
			if row.Name == selected {
				p.cursor = i
				return
			}
		}
	}
	if p.cursor >= len(rows) {
		p.cursor = len(rows) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

// CursorUp moves the browsing cursor up.
func (p *stepsPanel) CursorUp() {
	if p.cursor > 0 {
		p.cursor--
		p.ensureVisible()
	}
}

// CursorDown moves the browsing cursor down.
func (p *stepsPanel) CursorDown() {
	if p.cursor < len(p.rows)-1 {
		p.cursor++
		p.ensureVisible()
	}
}

// SelectedName returns the step name at the cursor position.
func (p *stepsPanel) SelectedName() string {
	if p.cursor >= 0 && p.cursor < len(p.rows) {
		return p.rows[p.cursor].Name
	}
	return ""
}

func (p *stepsPanel) ensureVisible() {
	visible := p.height - 2 // account for border/title
	if visible < 1 {
		visible = 1
	}
	if p.cursor < p.offset {
		p.offset = p.cursor
	}
	if p.cursor >= p.offset+visible {
		p.offset = p.cursor - visible + 1
	}
}

// View renders the step list panel.
func (p *stepsPanel) View() string {
	if len(p.rows) == 0 {
		return panelBorder.Width(p.width).Height(p.height).Render("  No steps")
	}

	visible := p.height - 2
	if visible < 1 {
		visible = 1
	}

	var lines []string
	end := p.offset + visible
	if end > len(p.rows) {
		end = len(p.rows)
	}

	for i := p.offset; i < end; i++ {
		row := p.rows[i]
		glyph, style := rowGlyph(row)
		indent := strings.Repeat("  ", row.Depth)

		title := row.DisplayName
		if title == "" {
			title = row.Name
		}
		if row.Type == string(flow.ActionLoop) {
			title = GlyphLoop + " " + title
		}

		maxTitle := p.width - 6 - len(indent)
		if maxTitle < 4 {
			maxTitle = 4
		}
		if len(title) > maxTitle {
			title = title[:maxTitle-1] + "…"
		}

		line := fmt.Sprintf(" %s %s%s", glyph, indent, title)
		if i == p.cursor {
			line = style.Reverse(true).Render(line)
		} else {
			line = style.Render(line)
		}
		lines = append(lines, line)
	}

	for len(lines) < visible {
		lines = append(lines, "")
	}

	title := panelTitle.Render("Steps")
	return panelBorder.Width(p.width).Height(p.height).Render(
		title + "\n" + strings.Join(lines, "\n"),
	)
}

// rowGlyph maps a row's severity to its glyph and style.
func rowGlyph(row query.Row) (string, lipgloss.Style) {
	if !row.Executed {
		return GlyphUnexecuted, stepUnexecuted
	}
	switch run.Severity(row.Severity) {
	case run.SeveritySuccess:
		return GlyphSuccess, stepSuccess
	case run.SeverityError:
		return GlyphFailure, stepFailure
	}
	return GlyphNeutral, stepNeutral
}

// Stats returns counts of executed rows by severity.
func (p *stepsPanel) Stats() (total, succeeded, failed int) {
	total = len(p.rows)
	for _, row := range p.rows {
		if !row.Executed {
			continue
		}
		switch run.Severity(row.Severity) {
		case run.SeveritySuccess:
			succeeded++
		case run.SeverityError:
			failed++
		}
	}
	return
}
