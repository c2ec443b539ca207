package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds all TUI key bindings.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PrevIter key.Binding
	NextIter key.Binding
	Report   key.Binding
	PgUp     key.Binding
	PgDown   key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "browse up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "browse down"),
	),
	PrevIter: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "previous iteration"),
	),
	NextIter: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "next iteration"),
	),
	Report: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "report"),
	),
	PgUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("PgUp", "scroll up"),
	),
	PgDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("PgDn", "scroll down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// keyBarText renders the key hint string. Iteration hints appear only
// when the selected step sits inside a loop.
func keyBarText(inLoop bool, overlay bool) string {
	if overlay {
		return keyStyle.Render("Esc") + keyDescStyle.Render(":close") + "  " +
			keyStyle.Render("q") + keyDescStyle.Render(":quit")
	}
	bar := keyStyle.Render("↑↓") + keyDescStyle.Render(":browse") + "  "
	if inLoop {
		bar += keyStyle.Render("←→") + keyDescStyle.Render(":iteration") + "  "
	}
	bar += keyStyle.Render("PgUp/Dn") + keyDescStyle.Render(":scroll") + "  " +
		keyStyle.Render("r") + keyDescStyle.Render(":report") + "  " +
		keyStyle.Render("q") + keyDescStyle.Render(":quit")
	return bar
}
