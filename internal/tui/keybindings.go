package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the keybindings of the watch view.
type KeyMap struct {
	Run  key.Binding
	Quit key.Binding
	Help key.Binding
}

// DefaultKeyMap returns the default bindings. Key names follow the Bubble Tea
// format ("ctrl+c").
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Run: key.NewBinding(
			key.WithKeys("r", "enter"),
			key.WithHelp("r", "run"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Run, k.Quit, k.Help}
}

// renderHelp formats bindings as "key desc" pairs separated by two spaces.
// Disabled bindings are skipped.
func renderHelp(theme Theme, bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		parts = append(parts, theme.HelpKey.Render(h.Key)+" "+theme.HelpDesc.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}
