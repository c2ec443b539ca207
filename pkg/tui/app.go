package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ormasoftchile/flowlens/pkg/flow"
	"github.com/ormasoftchile/flowlens/pkg/query"
	"github.com/ormasoftchile/flowlens/pkg/report"
	"github.com/ormasoftchile/flowlens/pkg/run"
)

// Model is the top-level Bubble Tea model for the run viewer.
type Model struct {
	version *flow.Version
	flowRun *run.FlowRun

	steps  stepsPanel
	output outputPanel

	// loopState holds the requested display iteration per loop name.
	// It starts from the failure-seeking initial state and is mutated
	// by iteration paging. Values may be the last-iteration sentinel;
	// resolution always goes through run.EffectiveIndexes.
	loopState map[string]int

	// Report overlay
	showReport bool
	reportText string

	width  int
	height int
}

// Config holds the parameters needed to launch the viewer.
type Config struct {
	Version *flow.Version
	Run     *run.FlowRun
}

// Run starts the viewer and blocks until the user quits.
func Run(cfg Config) error {
	if cfg.Version == nil || cfg.Run == nil {
		return fmt.Errorf("tui: version and run are required")
	}
	m := New(cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// New builds the initial model with the failure-seeking loop state.
func New(cfg Config) Model {
	m := Model{
		version:   cfg.Version,
		flowRun:   cfg.Run,
		steps:     newStepsPanel(),
		output:    newOutputPanel(),
		loopState: run.FindLoopsState(cfg.Version, cfg.Run, nil),
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// refresh recomputes the step rows and the selected step's output
// under the current loop state.
func (m *Model) refresh() {
	m.steps.SetRows(query.Rows(m.version, m.flowRun, m.loopState))
	m.showSelected()
}

// showSelected resolves the cursor step's record and displays it.
func (m *Model) showSelected() {
	name := m.steps.SelectedName()
	if name == "" {
		return
	}
	eff := run.EffectiveIndexes(m.version, m.flowRun, m.loopState)
	out := run.ExtractStepOutput(name, eff, m.flowRun.Steps, m.version.Trigger)
	m.output.ShowStep(name, out)
}

// pagingLoop returns the loop whose iterations the arrow keys page:
// the selected step itself when it is a loop, otherwise its innermost
// enclosing loop. Empty when the selection sits outside any loop.
func (m *Model) pagingLoop() string {
	name := m.steps.SelectedName()
	if name == "" {
		return ""
	}
	if a := flow.ActionByName(m.version.Trigger, name); a != nil && a.IsLoop() {
		return a.Name
	}
	path, ok := flow.PathToStep(m.version.Trigger, name)
	if !ok || len(path) == 0 {
		return ""
	}
	return path[len(path)-1].Name
}

// changeIteration moves the paging loop's display iteration by delta,
// clamped to the iterations actually recorded.
func (m *Model) changeIteration(delta int) {
	loopName := m.pagingLoop()
	if loopName == "" {
		return
	}
	eff := run.EffectiveIndexes(m.version, m.flowRun, m.loopState)
	out := run.ExtractStepOutput(loopName, eff, m.flowRun.Steps, m.version.Trigger)
	if out == nil || out.Loop == nil || len(out.Loop.Iterations) == 0 {
		return
	}
	next := run.ClampIteration(eff[loopName]+delta, len(out.Loop.Iterations))
	m.loopState[loopName] = next
	m.refresh()
}

// Update processes messages and returns the updated model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layoutPanels()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Quit) {
		return m, tea.Quit
	}

	if m.showReport {
		switch msg.String() {
		case "esc", "r", "enter":
			m.showReport = false
		case "pgup":
			m.output.PageUp()
		case "pgdown":
			m.output.PageDown()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Up):
		m.steps.CursorUp()
		m.showSelected()

	case key.Matches(msg, keys.Down):
		m.steps.CursorDown()
		m.showSelected()

	case key.Matches(msg, keys.PrevIter):
		m.changeIteration(-1)

	case key.Matches(msg, keys.NextIter):
		m.changeIteration(1)

	case key.Matches(msg, keys.PgUp):
		m.output.PageUp()

	case key.Matches(msg, keys.PgDown):
		m.output.PageDown()

	case key.Matches(msg, keys.Report):
		md, err := report.Generate(m.version, m.flowRun)
		wrap := m.width - 12
		if wrap < 40 {
			wrap = 40
		}
		if err != nil {
			m.reportText = errorStyle.Render(err.Error())
		} else {
			m.reportText = renderMarkdownWidth(md, wrap)
		}
		m.showReport = true
	}

	return m, nil
}

// layoutPanels recalculates panel dimensions based on terminal size.
func (m *Model) layoutPanels() {
	if m.width == 0 || m.height == 0 {
		return
	}

	// Layout: header(1) + main panels + iteration bar(1) + key bar(1)
	mainH := m.height - 3
	if mainH < 4 {
		mainH = 4
	}

	stepsW := m.width * 35 / 100
	if stepsW < 28 {
		stepsW = 28
	}
	if stepsW > 50 {
		stepsW = 50
	}

	m.steps.width = stepsW
	m.steps.height = mainH
	m.output.SetSize(m.width-stepsW, mainH)
}

// View renders the complete viewer.
func (m Model) View() string {
	if m.showReport {
		contentW := m.width - 8
		if contentW < 50 {
			contentW = 50
		}
		box := overlayBorder.Width(contentW).Render(m.reportText)
		overlay := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, box)
		return overlay + "\n" + keyBarText(false, true)
	}

	header := m.renderHeader()
	main := lipgloss.JoinHorizontal(lipgloss.Top, m.steps.View(), m.output.View())
	iterBar := m.renderIterationBar()
	keyBar := keyBarText(m.pagingLoop() != "", false)

	return header + "\n" + main + "\n" + iterBar + "\n" + keyBar
}

// renderHeader builds the top header line.
func (m Model) renderHeader() string {
	title := headerStyle.Render("flowlens")
	badge := statusBadgeStyle.Render(string(m.flowRun.Status))

	name := m.version.DisplayName
	if name == "" {
		name = m.version.ID
	}

	total, succeeded, failed := m.steps.Stats()
	stats := fmt.Sprintf("%s/%s/%d",
		stepSuccess.Render(fmt.Sprintf("✓%d", succeeded)),
		stepFailure.Render(fmt.Sprintf("✗%d", failed)),
		total)

	left := title + " " + badge + "  " + name + "  " + keyDescStyle.Render(m.flowRun.ID)
	right := stats

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}
	return left + strings.Repeat(" ", padding) + right
}

// renderIterationBar shows, for each loop enclosing the selection, the
// iteration being displayed out of the iterations recorded.
func (m Model) renderIterationBar() string {
	name := m.steps.SelectedName()
	if name == "" {
		return ""
	}
	path, ok := flow.PathToStep(m.version.Trigger, name)
	loops := make([]*flow.Action, 0, len(path)+1)
	if ok {
		loops = append(loops, path...)
	}
	if a := flow.ActionByName(m.version.Trigger, name); a != nil && a.IsLoop() {
		loops = append(loops, a)
	}
	if len(loops) == 0 {
		return ""
	}

	eff := run.EffectiveIndexes(m.version, m.flowRun, m.loopState)
	parts := make([]string, 0, len(loops))
	for _, loop := range loops {
		total := 0
		if out := run.ExtractStepOutput(loop.Name, eff, m.flowRun.Steps, m.version.Trigger); out != nil && out.Loop != nil {
			total = len(out.Loop.Iterations)
		}
		label := loop.DisplayName
		if label == "" {
			label = loop.Name
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", GlyphLoop, label,
			iterationStyle.Render(fmt.Sprintf("%d/%d", eff[loop.Name]+1, total))))
	}
	return " " + strings.Join(parts, keyDescStyle.Render("  »  "))
}
