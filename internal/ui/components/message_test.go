// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/handbook-tui/internal/model"
	"github.com/jeranaias/handbook-tui/internal/ui/styles"
)

func TestMessageBubble_User(t *testing.T) {
	b := NewMessageBubble(model.NewUserMessage("Where is the library?"), styles.NewTheme())
	out := b.View()
	if !strings.Contains(out, "You") || !strings.Contains(out, "Where is the library?") {
		t.Errorf("user bubble missing label or text:\n%s", out)
	}
}

func TestMessageBubble_PendingShowsThinking(t *testing.T) {
	b := NewMessageBubble(model.NewPlaceholder(), styles.NewTheme())
	b.AssistantName = "Emma"
	out := b.View()
	if !strings.Contains(out, "Emma") || !strings.Contains(out, "Thinking") {
		t.Errorf("pending bubble should show the name and a thinking line:\n%s", out)
	}
}

func TestMessageBubble_FailedShowsIndicator(t *testing.T) {
	msg := model.NewAssistantMessage("Sorry, I encountered an error. Please try again.")
	msg.Status = model.StatusFailed
	out := NewMessageBubble(msg, styles.NewTheme()).View()
	if !strings.Contains(out, styles.StatusIndicators.Error) {
		t.Errorf("failed bubble should carry the error indicator:\n%s", out)
	}
}

func TestMessageBubble_Chips(t *testing.T) {
	msg := model.NewAssistantMessage("Hi")
	msg.Actions = []model.Action{
		model.NewQuestionAction("How do I register?"),
		model.NewQuestionAction("Where is parking?"),
	}
	b := NewMessageBubble(msg, styles.NewTheme())
	b.ChipBase = 1
	out := b.View()
	for _, want := range []string{"1 How do I register?", "2 Where is parking?"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing chip %q in:\n%s", want, out)
		}
	}

	msg.Status = model.StatusPending
	b = NewMessageBubble(msg, styles.NewTheme())
	if strings.Contains(b.View(), "register") {
		t.Error("chips must be hidden while the message is pending")
	}
}

func TestMessageBubble_ChipsWrapToWidth(t *testing.T) {
	msg := model.NewAssistantMessage("Hi")
	for i := 0; i < 4; i++ {
		msg.Actions = append(msg.Actions, model.NewQuestionAction("A fairly long suggested question"))
	}
	b := NewMessageBubble(msg, styles.NewTheme())
	b.Width = 50
	for _, line := range strings.Split(b.renderChips(), "\n") {
		if w := lipgloss.Width(line); w > 50 {
			t.Errorf("chip row width %d exceeds 50", w)
		}
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "short line", 20, "short line"},
		{"word break", "the quick brown fox", 10, "the quick\nbrown fox"},
		{"long word", "abcdefghij", 4, "abcd\nefgh\nij"},
		{"keeps newlines", "a\nb", 5, "a\nb"},
		{"zero width", "anything", 0, "anything"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wrapText(tt.in, tt.width); got != tt.want {
				t.Errorf("wrapText(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestMessageList_View(t *testing.T) {
	theme := styles.NewTheme()
	list := &MessageList{
		Bubbles: []*MessageBubble{
			NewMessageBubble(model.NewUserMessage("one"), theme),
			NewMessageBubble(model.NewAssistantMessage("two"), theme),
		},
		Width: 60,
	}
	out := list.View()
	if strings.Index(out, "one") > strings.Index(out, "two") {
		t.Error("bubbles should render in order")
	}
}

func TestMessageBubble_StripsControlBytes(t *testing.T) {
	user := NewMessageBubble(model.NewUserMessage("hi\x1b]0;pwned\x07there"), styles.NewTheme()).View()
	msg := model.NewAssistantMessage("oops\x1b]0;pwned\x07")
	msg.Status = model.StatusFailed
	failed := NewMessageBubble(msg, styles.NewTheme()).View()

	for _, out := range []string{user, failed} {
		if strings.Contains(out, "\x07") || strings.Contains(out, "\x1b]") {
			t.Errorf("bubble leaked a control sequence: %q", out)
		}
	}
	if !strings.Contains(user, "hi]0;pwnedthere") {
		t.Errorf("user text lost: %q", user)
	}
}
