// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/jeranaias/handbook-tui/internal/ui/styles"
)

func TestHeader_View(t *testing.T) {
	h := NewHeader(styles.NewTheme())
	h.Subtitle = "localhost:8080"
	h.SetWidth(60)

	if !strings.Contains(h.View(), DefaultTitle) {
		t.Errorf("header should contain the title:\n%s", h.View())
	}
	if transparent := h.Height(); transparent != 1 {
		t.Errorf("transparent header height = %d, want 1", transparent)
	}

	h.SetTransparent(false)
	if h.Height() != 2 {
		t.Errorf("opaque header height = %d, want 2 (title and rule)", h.Height())
	}
}

func TestStatusBar_View(t *testing.T) {
	s := NewStatusBar(styles.NewTheme())
	s.SetWidth(100)
	if !strings.Contains(s.View(), "Ready") {
		t.Error("status bar should show the status")
	}

	s.SetNotice("Saved tr_0123", false)
	if !strings.Contains(s.View(), "Saved tr_0123") {
		t.Error("status bar should show the notice")
	}

	s.SetWidth(20)
	if strings.Contains(s.View(), "commands") {
		t.Error("hints that do not fit should be dropped")
	}
}

func TestThinkingIndicator(t *testing.T) {
	ti := NewThinkingIndicator()
	if ti.View() != "" {
		t.Error("inactive indicator should render nothing")
	}
	if cmd := ti.Start(); cmd == nil {
		t.Error("Start() should return the first tick")
	}
	if cmd := ti.Start(); cmd != nil {
		t.Error("Start() while active should be a no-op")
	}
	if !strings.HasPrefix(ti.View(), "Thinking") {
		t.Errorf("View() = %q", ti.View())
	}
	ti.Stop()
	if ti.IsActive() {
		t.Error("Stop() should deactivate")
	}
}

func TestFormatElapsed(t *testing.T) {
	if got := formatElapsed(5e9); got != "5s" {
		t.Errorf("formatElapsed(5s) = %q", got)
	}
	if got := formatElapsed(125e9); got != "2m 5s" {
		t.Errorf("formatElapsed(125s) = %q", got)
	}
}
