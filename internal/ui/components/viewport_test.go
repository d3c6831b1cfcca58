// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/handbook-tui/internal/ui/styles"
)

func lines(n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("line %d", i)
	}
	return strings.Join(out, "\n")
}

func attachedViewport(t *testing.T) *ChatViewport {
	t.Helper()
	cv := NewChatViewport(styles.NewTheme())
	cv.SetSize(40, 5)
	cv.SetDebounce(0)
	cv.SetContent(lines(30))
	return cv
}

func TestChatViewport_DetachedIsNoOp(t *testing.T) {
	cv := NewChatViewport(styles.NewTheme())

	if cv.Attached() {
		t.Fatal("new viewport should be detached")
	}
	if cmd := cv.PinToBottom(); cmd != nil {
		t.Error("PinToBottom() on a detached viewport should return nil")
	}
	if cmd := cv.ObserveTop(3); cmd != nil {
		t.Error("ObserveTop() on a detached viewport should return nil")
	}
	if cv.NearTop(3) {
		t.Error("NearTop() on a detached viewport should be false")
	}
	if cv.HandlePin(PinMsg{Seq: 0}) {
		t.Error("HandlePin() on a detached viewport should do nothing")
	}
	if cv.View() != "" {
		t.Error("View() on a detached viewport should be empty")
	}

	cv.SetSize(0, 10)
	if cv.Attached() {
		t.Error("zero width should stay detached")
	}
}

func TestChatViewport_SetContentFollowsEnd(t *testing.T) {
	cv := attachedViewport(t)
	if !cv.AtBottom() {
		t.Fatal("SetContent with auto-scroll should land at the bottom")
	}

	cv.ScrollUp(4)
	if cv.AutoScroll() {
		t.Fatal("scrolling up should disable auto-scroll")
	}
	offset := cv.YOffset()
	cv.SetContent(lines(40))
	if cv.YOffset() != offset {
		t.Errorf("SetContent moved a detached-from-end view: %d -> %d", offset, cv.YOffset())
	}
	if cv.ScrollPosition() == "" {
		t.Error("ScrollPosition() should be shown away from the end")
	}
}

func TestChatViewport_PinToBottomCoalesces(t *testing.T) {
	cv := attachedViewport(t)
	cv.ScrollToTop()

	first := cv.PinToBottom()
	second := cv.PinToBottom()
	if first == nil || second == nil {
		t.Fatal("PinToBottom() should return commands on an attached viewport")
	}

	stale, ok := first().(PinMsg)
	if !ok {
		t.Fatal("PinToBottom() command should produce a PinMsg")
	}
	if cv.HandlePin(stale) {
		t.Error("superseded pin request should be ignored")
	}
	if !cv.AtTop() {
		t.Error("superseded pin request must not scroll")
	}

	latest := second().(PinMsg)
	if !cv.HandlePin(latest) {
		t.Error("latest pin request should scroll")
	}
	if !cv.AtBottom() || !cv.AutoScroll() {
		t.Error("HandlePin() should leave the view at the bottom with auto-scroll on")
	}
}

func TestChatViewport_PinToBottomDebounce(t *testing.T) {
	cv := attachedViewport(t)
	cv.SetDebounce(30 * time.Millisecond)

	cmd := cv.PinToBottom()
	start := time.Now()
	cmd()
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Errorf("pin fired after %v, want about 30ms", elapsed)
	}
}

func TestChatViewport_NearTop(t *testing.T) {
	cv := attachedViewport(t)
	cv.ScrollToTop()

	if !cv.NearTop(0) {
		t.Error("offset 0 should be near the top")
	}
	cv.ScrollDown(3)
	if !cv.NearTop(3) {
		t.Error("offset 3 should be within threshold 3")
	}
	if cv.NearTop(2) {
		t.Error("offset 3 should not be within threshold 2")
	}
}

func TestChatViewport_ObserveTopReportsChanges(t *testing.T) {
	cv := attachedViewport(t)
	cv.ScrollToTop()

	cmd := cv.ObserveTop(2)
	if cmd == nil {
		t.Fatal("first observation should report")
	}
	if msg := cmd().(TopProximityMsg); !msg.NearTop {
		t.Error("expected NearTop at offset 0")
	}
	if cv.ObserveTop(2) != nil {
		t.Error("unchanged proximity should not report again")
	}

	cv.ScrollDown(10)
	cmd = cv.ObserveTop(2)
	if cmd == nil {
		t.Fatal("leaving the top should report")
	}
	if msg := cmd().(TopProximityMsg); msg.NearTop {
		t.Error("expected NearTop=false after scrolling down")
	}
}
