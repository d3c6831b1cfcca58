// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/handbook-tui/internal/ui/styles"
)

// DefaultScrollDebounce is how long PinToBottom waits for layout to settle.
const DefaultScrollDebounce = 50 * time.Millisecond

// =============================================================================
// MESSAGES
// =============================================================================

// PinMsg fires when a debounced PinToBottom request is due.
type PinMsg struct {
	Seq uint64
}

// TopProximityMsg reports a change in whether the viewport is near its top.
type TopProximityMsg struct {
	NearTop bool
}

// =============================================================================
// CHAT VIEWPORT COMPONENT - Scrollable transcript with indicators
// =============================================================================

// ChatViewport is the scrollable transcript area. It keeps the view pinned to
// the newest content and reports top proximity for the header.
type ChatViewport struct {
	viewport   viewport.Model
	width      int
	height     int
	ready      bool // false until a positive size is set (detached)
	autoScroll bool
	theme      *styles.Theme

	debounce time.Duration
	pinSeq   uint64

	nearTop  bool
	observed bool
}

// NewChatViewport creates a detached ChatViewport. Call SetSize to attach it.
func NewChatViewport(theme *styles.Theme) *ChatViewport {
	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle()

	return &ChatViewport{
		viewport:   vp,
		autoScroll: true,
		theme:      theme,
		debounce:   DefaultScrollDebounce,
	}
}

// SetDebounce changes the PinToBottom delay. Negative values are treated as zero.
func (cv *ChatViewport) SetDebounce(d time.Duration) {
	if d < 0 {
		d = 0
	}
	cv.debounce = d
}

// SetSize updates the viewport dimensions. A non-positive size detaches it.
func (cv *ChatViewport) SetSize(width, height int) {
	cv.width = width
	cv.height = height
	cv.ready = width > 0 && height > 0
	if !cv.ready {
		return
	}
	cv.viewport.Width = width
	cv.viewport.Height = height
}

// Attached reports whether the viewport has a usable size.
func (cv *ChatViewport) Attached() bool {
	return cv.ready
}

// Width returns the content width.
func (cv *ChatViewport) Width() int {
	return cv.width
}

// SetContent replaces the rendered transcript. Content is expected to be
// laid out for Width already. If auto-scroll is on the view follows the end.
func (cv *ChatViewport) SetContent(content string) {
	cv.viewport.SetContent(content)
	if cv.autoScroll && cv.ready {
		cv.viewport.GotoBottom()
	}
}

// =============================================================================
// SYNCHRONIZER
// =============================================================================

// PinToBottom schedules a scroll to the end after the debounce delay.
// Overlapping requests coalesce: only the most recent one scrolls.
// It returns nil on a detached viewport.
func (cv *ChatViewport) PinToBottom() tea.Cmd {
	if !cv.ready {
		return nil
	}
	cv.pinSeq++
	seq := cv.pinSeq
	return tea.Tick(cv.debounce, func(time.Time) tea.Msg {
		return PinMsg{Seq: seq}
	})
}

// HandlePin applies a PinMsg. It reports whether the scroll happened; a
// superseded request or a detached viewport does nothing.
func (cv *ChatViewport) HandlePin(msg PinMsg) bool {
	if !cv.ready || msg.Seq != cv.pinSeq {
		return false
	}
	cv.ScrollToBottom()
	return true
}

// NearTop reports whether the scroll offset is within threshold lines of the
// top. A detached viewport reports false.
func (cv *ChatViewport) NearTop(threshold int) bool {
	if !cv.ready {
		return false
	}
	if threshold < 0 {
		threshold = 0
	}
	return cv.viewport.YOffset <= threshold
}

// ObserveTop returns a command yielding TopProximityMsg when the proximity
// value differs from the last one observed. It returns nil when nothing
// changed or the viewport is detached.
func (cv *ChatViewport) ObserveTop(threshold int) tea.Cmd {
	if !cv.ready {
		return nil
	}
	near := cv.NearTop(threshold)
	if cv.observed && near == cv.nearTop {
		return nil
	}
	cv.observed = true
	cv.nearTop = near
	return func() tea.Msg {
		return TopProximityMsg{NearTop: near}
	}
}

// =============================================================================
// SCROLLING
// =============================================================================

// ScrollToBottom scrolls to the bottom and re-enables auto-scroll.
func (cv *ChatViewport) ScrollToBottom() {
	cv.viewport.GotoBottom()
	cv.autoScroll = true
}

// ScrollToTop scrolls to the top.
func (cv *ChatViewport) ScrollToTop() {
	cv.viewport.GotoTop()
	cv.autoScroll = false
}

// ScrollUp scrolls up by lines. The user took control, so auto-scroll stops.
func (cv *ChatViewport) ScrollUp(lines int) {
	cv.autoScroll = false
	cv.viewport.LineUp(lines)
}

// ScrollDown scrolls down by lines, resuming auto-scroll at the bottom.
func (cv *ChatViewport) ScrollDown(lines int) {
	cv.viewport.LineDown(lines)
	if cv.viewport.AtBottom() {
		cv.autoScroll = true
	}
}

// AtTop returns true if the viewport is at the top.
func (cv *ChatViewport) AtTop() bool {
	return cv.viewport.AtTop()
}

// AtBottom returns true if the viewport is at the bottom.
func (cv *ChatViewport) AtBottom() bool {
	return cv.viewport.AtBottom()
}

// YOffset returns the current line offset.
func (cv *ChatViewport) YOffset() int {
	return cv.viewport.YOffset
}

// AutoScroll reports whether new content will follow the end.
func (cv *ChatViewport) AutoScroll() bool {
	return cv.autoScroll
}

// Update handles scrolling keys and the mouse wheel.
func (cv *ChatViewport) Update(msg tea.Msg) (*ChatViewport, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up":
			cv.ScrollUp(1)
			return cv, nil
		case "down":
			cv.ScrollDown(1)
			return cv, nil
		case "pgup":
			cv.ScrollUp(cv.height)
			return cv, nil
		case "pgdown":
			cv.ScrollDown(cv.height)
			return cv, nil
		case "home":
			cv.ScrollToTop()
			return cv, nil
		case "end":
			cv.ScrollToBottom()
			return cv, nil
		}

	case tea.MouseMsg:
		switch msg.Type {
		case tea.MouseWheelUp:
			cv.ScrollUp(3)
			return cv, nil
		case tea.MouseWheelDown:
			cv.ScrollDown(3)
			return cv, nil
		}
	}

	var cmd tea.Cmd
	cv.viewport, cmd = cv.viewport.Update(msg)
	return cv, cmd
}

// View renders the viewport content.
func (cv *ChatViewport) View() string {
	if !cv.ready {
		return ""
	}
	return cv.viewport.View()
}

// ScrollPosition returns "[bottom/total]" while scrolled away from the end,
// for the status bar. It is empty at the bottom.
func (cv *ChatViewport) ScrollPosition() string {
	if !cv.ready || cv.viewport.AtBottom() {
		return ""
	}
	return fmt.Sprintf("[%d/%d]", cv.viewport.YOffset+cv.viewport.Height, cv.viewport.TotalLineCount())
}
