// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/handbook-tui/internal/markdown"
	"github.com/jeranaias/handbook-tui/internal/model"
	"github.com/jeranaias/handbook-tui/internal/ui/styles"
	"github.com/jeranaias/handbook-tui/internal/util"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders one transcript entry.
type MessageBubble struct {
	Message model.Message

	// Body is the text to show. The chat model supplies either a sanitized
	// reveal frame or the final markdown rendering.
	Body string

	// Thinking is shown in place of Body while the message is pending.
	Thinking string

	AssistantName string
	Width         int
	ShowTimestamp bool

	// ChipBase numbers the action chips from ChipBase+1; zero leaves them
	// unnumbered. Selected is the 0-based chip to highlight, or -1.
	ChipBase int
	Selected int

	theme *styles.Theme
}

// NewMessageBubble creates a bubble for msg.
func NewMessageBubble(msg model.Message, theme *styles.Theme) *MessageBubble {
	return &MessageBubble{
		Message:  msg,
		Body:     markdown.Sanitize(msg.Content),
		Width:    80,
		Selected: -1,
		theme:    theme,
	}
}

// View renders the message bubble.
func (b *MessageBubble) View() string {
	if b.Message.Role == model.RoleUser {
		return b.renderUserBubble()
	}
	return b.renderAssistantBubble()
}

func (b *MessageBubble) contentWidth() int {
	w := b.Width - 10 // margins, borders and padding
	if w < 20 {
		w = 20
	}
	return w
}

func (b *MessageBubble) header(label lipgloss.Style, name string) string {
	parts := []string{label.Render(name)}
	if b.ShowTimestamp && !b.Message.Timestamp.IsZero() {
		parts = append(parts, b.theme.Timestamp.Render(formatTime(b.Message.Timestamp)))
	}
	return strings.Join(parts, " ")
}

// ==========================================================================
// USER BUBBLE
// ==========================================================================

func (b *MessageBubble) renderUserBubble() string {
	body := wrapText(b.Body, b.contentWidth())
	bubble := b.theme.UserBubble.Render(body)
	return b.header(b.theme.UserLabel, model.RoleUser.DisplayName()) + "\n" + bubble
}

// ==========================================================================
// ASSISTANT BUBBLE
// ==========================================================================

func (b *MessageBubble) renderAssistantBubble() string {
	name := b.AssistantName
	if name == "" {
		name = model.RoleAssistant.DisplayName()
	}

	var body string
	style := b.theme.AssistantBubble
	switch {
	case b.Message.IsPending():
		body = b.Thinking
		if body == "" {
			body = b.theme.ThinkingText.Render("Thinking...")
		}
	case b.Message.IsFailed():
		style = b.theme.FailedBubble
		body = styles.StatusIndicators.Error + " " + wrapText(b.Body, b.contentWidth()-4)
	default:
		body = wrapText(b.Body, b.contentWidth())
	}

	out := b.header(b.theme.AssistantLabel, name) + "\n" + style.Render(body)
	if chips := b.renderChips(); chips != "" {
		out += "\n" + chips
	}
	return out
}

// renderChips lays the visible actions out left to right, wrapping at Width.
func (b *MessageBubble) renderChips() string {
	actions := b.Message.VisibleActions()
	if len(actions) == 0 {
		return ""
	}

	var rows []string
	var row []string
	rowWidth := 0
	for i, action := range actions {
		chip := b.renderChip(i, action)
		w := lipgloss.Width(chip)
		if rowWidth > 0 && rowWidth+w+1 > b.Width {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row, rowWidth = nil, 0
		}
		if rowWidth > 0 {
			row = append(row, " ")
			rowWidth++
		}
		row = append(row, chip)
		rowWidth += w
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return strings.Join(rows, "\n")
}

func (b *MessageBubble) renderChip(i int, action model.Action) string {
	label := util.TruncateWidth(action.Label, maxInt(b.Width-12, 10))
	if b.ChipBase > 0 && b.ChipBase+i < 10 {
		label = b.theme.ChipIndex.Render(fmt.Sprintf("%d ", b.ChipBase+i)) + label
	}
	if i == b.Selected {
		return b.theme.ChipSelected.Render(label)
	}
	return b.theme.Chip.Render(label)
}

// =============================================================================
// MESSAGE LIST
// =============================================================================

// MessageList renders a sequence of bubbles separated by blank lines.
type MessageList struct {
	Bubbles []*MessageBubble
	Width   int
}

// View renders every bubble.
func (ml *MessageList) View() string {
	parts := make([]string, 0, len(ml.Bubbles))
	for _, b := range ml.Bubbles {
		if ml.Width > 0 {
			b.Width = ml.Width
		}
		parts = append(parts, b.View())
	}
	return strings.Join(parts, "\n\n")
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// wrapText wraps each line of text at width display cells, breaking at
// spaces where possible. Lines that already fit, including styled ones,
// pass through unchanged.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if lipgloss.Width(line) > width {
			lines[i] = wrapLine(line, width)
		}
	}
	return strings.Join(lines, "\n")
}

func wrapLine(line string, width int) string {
	var out, cur strings.Builder
	curWidth := 0
	flush := func() {
		if out.Len() > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(strings.TrimRight(cur.String(), " "))
		cur.Reset()
		curWidth = 0
	}

	for _, word := range strings.SplitAfter(line, " ") {
		w := util.StringWidth(word)
		if curWidth > 0 && curWidth+w > width {
			flush()
		}
		for w > width {
			// Hard-break a word longer than the line.
			head := runewidth.Truncate(word, width, "")
			if head == "" {
				break
			}
			cur.WriteString(head)
			flush()
			word = word[len(head):]
			w = util.StringWidth(word)
		}
		cur.WriteString(word)
		curWidth += w
	}
	if cur.Len() > 0 {
		flush()
	}
	return out.String()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// formatTime formats a timestamp for display.
func formatTime(t time.Time) string {
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("Jan 2 15:04")
}
