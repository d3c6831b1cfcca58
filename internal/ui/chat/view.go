// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/handbook-tui/internal/markdown"
	"github.com/jeranaias/handbook-tui/internal/model"
	"github.com/jeranaias/handbook-tui/internal/ui/components"
)

// headerLines is the height reserved for the header in either style.
const headerLines = 2

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat interface.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")
	if m.showHelp {
		sb.WriteString(m.renderHelp())
	} else {
		sb.WriteString(m.viewport.View())
	}
	sb.WriteString("\n")
	sb.WriteString(m.renderInput())
	sb.WriteString("\n")

	m.status.Position = m.viewport.ScrollPosition()
	sb.WriteString(m.status.View())
	return sb.String()
}

// renderHeader pads the transparent header to the reserved height.
func (m *Model) renderHeader() string {
	out := m.header.View()
	if pad := headerLines - lipgloss.Height(out); pad > 0 {
		out += strings.Repeat("\n", pad)
	}
	return out
}

func (m *Model) renderInput() string {
	w := m.width - 2
	if w < 10 {
		w = 10
	}
	return m.theme.InputContainer.Width(w).Render(m.input.View())
}

// renderHelp fills the transcript area with the key and command reference.
func (m *Model) renderHelp() string {
	box := m.theme.HelpBox.Render(m.keys.HelpText())
	h := m.height - m.chromeHeight()
	if h < 1 {
		h = 1
	}
	return lipgloss.Place(m.width, h, lipgloss.Center, lipgloss.Center, box)
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// renderTranscript lays out every message for the viewport width.
func (m *Model) renderTranscript() string {
	msgs := m.transcript.Snapshot()
	owner, _ := m.chipOwner(msgs)

	width := m.viewport.Width()
	if width <= 0 {
		width = 80
	}

	bubbles := make([]*components.MessageBubble, 0, len(msgs))
	for i, msg := range msgs {
		b := components.NewMessageBubble(msg, m.theme)
		b.AssistantName = m.assistantName
		b.Width = width
		b.ShowTimestamp = m.showTimestamps

		switch {
		case msg.IsPending():
			b.Thinking = m.theme.ThinkingText.Render(m.thinking.View())
		case i == len(msgs)-1 && m.revealing(msg):
			// Chips appear only once the text is fully shown.
			b.Body = markdown.Sanitize(m.engine.Frame().Text)
			b.Message.Actions = nil
		case msg.Role == model.RoleAssistant && !msg.IsFailed():
			b.Body = m.renderMarkdown(msg)
		}

		if i == owner {
			b.ChipBase = 1
			b.Selected = m.selected
		}
		bubbles = append(bubbles, b)
	}

	list := components.MessageList{Bubbles: bubbles, Width: width}
	return list.View()
}

// renderMarkdown returns the cached terminal rendering of a final reply.
func (m *Model) renderMarkdown(msg model.Message) string {
	if m.renderer == nil {
		return markdown.Sanitize(msg.Content)
	}
	if e, ok := m.rendered[msg.ID]; ok && e.content == msg.Content {
		return e.out
	}
	out := strings.Trim(m.renderer.RenderOrPlain(msg.Content), "\n")
	m.rendered[msg.ID] = renderedEntry{content: msg.Content, out: out}
	return out
}
