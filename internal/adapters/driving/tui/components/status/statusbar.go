// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/auditrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/auditrag/internal/adapters/driving/tui/styles"
)

// State represents the state of the analysis for display.
type State string

const (
	StateRunning    State = "running"
	StateCancelling State = "cancelling"
	StateDone       State = "done"
	StateFailed     State = "failed"
	StateCancelled  State = "cancelled"
)

// Bar displays the run state, elapsed time and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	elapsed time.Duration
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateRunning,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(_ tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Render(left + strings.Repeat(" ", padding) + right)
}

// renderLeft renders the run state and elapsed time.
func (s *Bar) renderLeft() string {
	elapsed := s.styles.Muted.Render(s.elapsed.Round(time.Second).String())
	switch s.state {
	case StateCancelling:
		return s.styles.Warning.Render("Cancelling...") + " " + elapsed
	case StateDone:
		return s.styles.Success.Render("Finished") + " " + elapsed
	case StateFailed:
		if s.message != "" {
			return s.styles.Error.Render(fmt.Sprintf("Failed: %s", s.message))
		}
		return s.styles.Error.Render("Failed")
	case StateCancelled:
		return s.styles.Warning.Render("Cancelled")
	case StateRunning:
		return s.styles.Muted.Render("Running") + " " + elapsed
	}
	return s.styles.Muted.Render("Running")
}

// renderRight renders keybinding hints.
func (s *Bar) renderRight() string {
	var bindings []key.Binding
	if s.state == StateRunning {
		bindings = s.keymap.RunningHelp()
	} else {
		bindings = s.keymap.DoneHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the failure message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetElapsed sets the elapsed run time.
func (s *Bar) SetElapsed(d time.Duration) {
	s.elapsed = d
}

// Elapsed returns the elapsed run time.
func (s *Bar) Elapsed() time.Duration {
	return s.elapsed
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}
