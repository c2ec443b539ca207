// Package tui implements an interactive terminal viewer for flow runs.
// It joins a flow version with a run snapshot and renders a Bubble Tea
// app: step tree on the left, resolved step output on the right, with
// arrow-key paging through loop iterations.
package tui

import "github.com/charmbracelet/lipgloss"

// Step glyphs — convey meaning without relying on color alone.
const (
	GlyphUnexecuted = "·"
	GlyphNeutral    = "○"
	GlyphSuccess    = "✓"
	GlyphFailure    = "✗"
	GlyphLoop       = "⟳"
)

// Palette adapts to terminal capabilities via lipgloss.
var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorCyan   = lipgloss.Color("51")
	colorDim    = lipgloss.Color("240")
	colorWhite  = lipgloss.Color("255")
)

// --- Header styles ---

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorCyan).
	Padding(0, 1)

var statusBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("0")).
	Background(colorYellow).
	Padding(0, 1)

// --- Step list styles ---

var (
	stepUnexecuted = lipgloss.NewStyle().
			Faint(true)

	stepNeutral = lipgloss.NewStyle().
			Foreground(colorWhite)

	stepSuccess = lipgloss.NewStyle().
			Foreground(colorGreen)

	stepFailure = lipgloss.NewStyle().
			Foreground(colorRed)
)

// --- Panel styles ---

var (
	panelBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim)

	panelTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan).
			Padding(0, 1)

	iterationStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)
)

// --- Key bar styles ---

var (
	keyStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true)

	keyDescStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)

// --- Error style ---

var errorStyle = lipgloss.NewStyle().
	Foreground(colorRed).
	Bold(true)

// --- Overlay style ---

var overlayBorder = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(colorCyan).
	Padding(1, 2)
