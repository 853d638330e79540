package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	require.NotNil(t, km)
}

func TestDefaultKeyMap_QuitBinding(t *testing.T) {
	km := DefaultKeyMap()

	keys := km.Quit.Keys()
	assert.Contains(t, keys, "q")
	assert.Contains(t, keys, "ctrl+c")
}

func TestDefaultKeyMap_CancelBinding(t *testing.T) {
	km := DefaultKeyMap()

	keys := km.Cancel.Keys()
	assert.Contains(t, keys, "esc")
}

func TestRunningHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := km.RunningHelp()

	require.Len(t, bindings, 2)
	assert.Equal(t, "cancel", bindings[0].Help().Desc)
}

func TestDoneHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := km.DoneHelp()

	require.Len(t, bindings, 1)
	assert.Equal(t, "quit", bindings[0].Help().Desc)
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name     string
		keyStr   string
		binding  key.Binding
		expected bool
	}{
		{"q matches quit", "q", km.Quit, true},
		{"ctrl+c matches quit", "ctrl+c", km.Quit, true},
		{"esc matches cancel", "esc", km.Cancel, true},
		{"esc does not match quit", "esc", km.Quit, false},
		{"empty matches nothing", "", km.Cancel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Matches(tt.keyStr, tt.binding))
		})
	}
}
