// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// THINKING INDICATOR
// =============================================================================

// ThinkingIndicator is the spinner shown inside a pending reply.
type ThinkingIndicator struct {
	spinner   spinner.Model
	message   string
	startTime time.Time
	active    bool
}

// NewThinkingIndicator creates an ASCII-compatible thinking spinner.
func NewThinkingIndicator() ThinkingIndicator {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{".  ", ".. ", "...", " ..", "  .", "   "},
		FPS:    time.Second / 6,
	}
	return ThinkingIndicator{
		spinner: s,
		message: "Thinking",
	}
}

// Start begins the animation and resets the timer. It is a no-op while
// already active.
func (t *ThinkingIndicator) Start() tea.Cmd {
	if t.active {
		return nil
	}
	t.active = true
	t.startTime = time.Now()
	return t.spinner.Tick
}

// Stop ends the animation. Pending ticks are ignored afterwards.
func (t *ThinkingIndicator) Stop() {
	t.active = false
}

// IsActive returns whether the indicator is animating.
func (t *ThinkingIndicator) IsActive() bool {
	return t.active
}

// Elapsed returns time spent thinking.
func (t *ThinkingIndicator) Elapsed() time.Duration {
	if t.startTime.IsZero() {
		return 0
	}
	return time.Since(t.startTime)
}

// Update advances the spinner on its own tick messages.
func (t ThinkingIndicator) Update(msg tea.Msg) (ThinkingIndicator, tea.Cmd) {
	if !t.active {
		return t, nil
	}
	var cmd tea.Cmd
	t.spinner, cmd = t.spinner.Update(msg)
	return t, cmd
}

// View renders the indicator text, styled by the caller.
func (t ThinkingIndicator) View() string {
	if !t.active {
		return ""
	}
	out := t.message + t.spinner.View()
	if elapsed := t.Elapsed(); elapsed >= time.Second {
		out += " (" + formatElapsed(elapsed) + ")"
	}
	return out
}

// formatElapsed formats a duration for display.
func formatElapsed(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 60 {
		return itoa(seconds) + "s"
	}
	return itoa(seconds/60) + "m " + itoa(seconds%60) + "s"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
