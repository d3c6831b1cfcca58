// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/handbook-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status represents the current application status.
type Status int

const (
	StatusReady Status = iota
	StatusThinking
	StatusRevealing
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusThinking:
		return "Thinking..."
	case StatusRevealing:
		return "Answering..."
	default:
		return "Unknown"
	}
}

// Shortcut is a key hint shown on the right of the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the single line under the input.
type StatusBar struct {
	Status    Status
	Notice    string // transient message such as "Saved tr_..."
	Error     bool   // render Notice as an error
	Position  string // scroll position while away from the end
	Shortcuts []Shortcut
	Width     int
	theme     *styles.Theme
}

// DefaultShortcuts are the hints shown when there is room.
var DefaultShortcuts = []Shortcut{
	{Key: "enter", Desc: "send"},
	{Key: "1-9", Desc: "suggestion"},
	{Key: "/help", Desc: "commands"},
	{Key: "ctrl+c", Desc: "quit"},
}

// NewStatusBar creates a status bar with the default hints.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Shortcuts: DefaultShortcuts,
		Width:     80,
		theme:     theme,
	}
}

// SetWidth updates the bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetNotice sets a transient notice; isError draws it in the error style.
func (s *StatusBar) SetNotice(text string, isError bool) {
	s.Notice = text
	s.Error = isError
}

// View renders the status bar, dropping hints that do not fit.
func (s *StatusBar) View() string {
	left := s.Status.String()
	if s.Notice != "" {
		if s.Error {
			left = s.theme.ErrorStyle.Render(s.Notice)
		} else {
			left = s.theme.Notice.Render(s.Notice)
		}
	}
	if s.Position != "" {
		left += "  " + s.theme.ShortcutDesc.Render(s.Position)
	}

	avail := s.Width - lipgloss.Width(left) - 4
	var hints []string
	used := 0
	for _, sc := range s.Shortcuts {
		hint := s.theme.ShortcutKey.Render(sc.Key) + " " + s.theme.ShortcutDesc.Render(sc.Desc)
		w := lipgloss.Width(hint) + 2
		if used+w > avail {
			break
		}
		hints = append(hints, hint)
		used += w
	}
	right := strings.Join(hints, "  ")

	gap := s.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return s.theme.StatusBar.Render(left + strings.Repeat(" ", gap) + right)
}
