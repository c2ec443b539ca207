package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ormasoftchile/flowlens/pkg/run"
)

// outputPanel renders the resolved output of the selected step in a
// scrollable viewport.
type outputPanel struct {
	viewport viewport.Model

	title   string
	content string

	width  int
	height int
	ready  bool
}

func newOutputPanel() outputPanel {
	return outputPanel{title: "Output"}
}

// SetSize updates the viewport dimensions.
func (p *outputPanel) SetSize(width, height int) {
	p.width = width
	p.height = height

	contentW := width - 4  // border padding
	contentH := height - 3 // title + border
	if contentW < 1 {
		contentW = 1
	}
	if contentH < 1 {
		contentH = 1
	}

	if !p.ready {
		p.viewport = viewport.New(contentW, contentH)
		p.ready = true
	} else {
		p.viewport.Width = contentW
		p.viewport.Height = contentH
	}
	p.viewport.SetContent(p.content)
}

// ShowStep renders a resolved step record into the panel. A nil record
// means the step has not produced output under the current iteration
// selection.
func (p *outputPanel) ShowStep(name string, out *run.StepOutput) {
	p.title = name
	p.content = formatStepOutput(name, out)
	if p.ready {
		p.viewport.SetContent(p.content)
		p.viewport.GotoTop()
	}
}

// formatStepOutput builds the text body for a step record.
func formatStepOutput(name string, out *run.StepOutput) string {
	if out == nil {
		return keyDescStyle.Render("  (no output recorded for this step)")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "━━━ %s ━━━\n", name)
	fmt.Fprintf(&b, "  status: %s\n", out.Status)
	if out.DurationMS > 0 {
		fmt.Fprintf(&b, "  duration: %dms\n", out.DurationMS)
	}
	if out.ErrorMessage != "" {
		b.WriteString("\n" + errorStyle.Render("Error: "+out.ErrorMessage) + "\n")
	}

	if out.Loop != nil {
		fmt.Fprintf(&b, "\n%s %d iteration(s) recorded\n", GlyphLoop, len(out.Loop.Iterations))
	}

	if len(out.Output) > 0 && string(out.Output) != "null" {
		b.WriteString("\n")
		var pretty map[string]any
		if err := json.Unmarshal(out.Output, &pretty); err == nil {
			if formatted, err := json.MarshalIndent(pretty, "", "  "); err == nil {
				b.Write(formatted)
				b.WriteString("\n")
				return b.String()
			}
		}
		b.Write(out.Output)
		b.WriteString("\n")
	}
	return b.String()
}

// Update handles viewport-specific messages (mouse scroll, etc.).
func (p *outputPanel) Update(msg tea.Msg) {
	if p.ready {
		p.viewport, _ = p.viewport.Update(msg)
	}
}

// PageUp scrolls the viewport up.
func (p *outputPanel) PageUp() {
	if p.ready {
		p.viewport.HalfViewUp()
	}
}

// PageDown scrolls the viewport down.
func (p *outputPanel) PageDown() {
	if p.ready {
		p.viewport.HalfViewDown()
	}
}

// View renders the output panel.
func (p *outputPanel) View() string {
	title := panelTitle.Render(p.title)

	var content string
	if p.ready {
		content = p.viewport.View()
	} else {
		content = "  Loading..."
	}

	scrollInfo := ""
	if p.ready && p.viewport.TotalLineCount() > p.viewport.VisibleLineCount() {
		pct := p.viewport.ScrollPercent() * 100
		scrollInfo = fmt.Sprintf(" %3.0f%%", pct)
	}

	header := title
	if scrollInfo != "" {
		padding := p.width - 4 - len(p.title) - len(scrollInfo)
		if padding < 0 {
			padding = 0
		}
		header = title + strings.Repeat(" ", padding) + keyDescStyle.Render(scrollInfo)
	}

	return panelBorder.Width(p.width).Height(p.height).Render(
		header + "\n" + content,
	)
}
