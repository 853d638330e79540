// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the progress view.
type KeyMap struct {
	// Quit cancels a running analysis or closes a finished one.
	Quit key.Binding

	// Cancel stops the running analysis.
	Cancel key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// RunningHelp returns keybindings shown while the analysis runs.
func (k *KeyMap) RunningHelp() []key.Binding {
	return []key.Binding{k.Cancel, k.Quit}
}

// DoneHelp returns keybindings shown once the analysis has finished.
func (k *KeyMap) DoneHelp() []key.Binding {
	return []key.Binding{k.Quit}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
