// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestNewTheme(t *testing.T) {
	theme := NewTheme()
	if theme == nil {
		t.Fatal("NewTheme() returned nil")
	}

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"HeaderOpaque", theme.HeaderOpaque},
		{"UserBubble", theme.UserBubble},
		{"AssistantBubble", theme.AssistantBubble},
		{"FailedBubble", theme.FailedBubble},
		{"Chip", theme.Chip},
		{"InputContainer", theme.InputContainer},
		{"StatusBar", theme.StatusBar},
	}
	for _, s := range styles {
		if !strings.Contains(s.style.Render("test"), "test") {
			t.Errorf("%s style lost its content", s.name)
		}
	}
}

func TestGetLayoutMode(t *testing.T) {
	theme := NewTheme()
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
	}
	for _, tt := range tests {
		theme.SetSize(tt.width, 24)
		if got := theme.GetLayoutMode(); got != tt.want {
			t.Errorf("width %d: GetLayoutMode() = %v, want %v", tt.width, got, tt.want)
		}
	}
}

func TestRenderIndicators(t *testing.T) {
	if !strings.Contains(RenderError("failed"), StatusIndicators.Error) {
		t.Error("RenderError() should include the error indicator")
	}
	if !strings.Contains(RenderInfo("saved"), "saved") {
		t.Error("RenderInfo() should include the message")
	}
}
