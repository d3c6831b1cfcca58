// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"user", RoleUser, true},
		{"human", RoleUser, true},
		{"assistant", RoleAssistant, true},
		{"bot", RoleAssistant, true},
		{"AI", RoleAssistant, true},
		{"system", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseRole(tc.in)
			if got != tc.want || ok != tc.ok {
				t.Errorf("ParseRole(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestMessage_DecodeLegacySchema(t *testing.T) {
	raw := `{"role":"bot","content":"","status":"loading"}`

	var msg Message
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	assert.Equal(t, RoleAssistant, msg.Role)
	assert.True(t, msg.IsPending())

	raw = `{"role":"human","content":"hi"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	assert.Equal(t, RoleUser, msg.Role)
	assert.True(t, msg.IsFinal())
}

func TestMessage_VisibleActionsHiddenWhilePending(t *testing.T) {
	msg := NewPlaceholder()
	msg.Actions = []Action{NewQuestionAction("q")}

	if got := msg.VisibleActions(); got != nil {
		t.Errorf("VisibleActions() on pending = %v, want nil", got)
	}

	msg.Status = StatusNone
	if got := msg.VisibleActions(); len(got) != 1 {
		t.Errorf("VisibleActions() on final = %d actions, want 1", len(got))
	}
}

func TestActionKind_Normalize(t *testing.T) {
	if got := ActionKind("input_question").Normalize(); got != ActionSubmitInput {
		t.Errorf("Normalize(input_question) = %q, want %q", got, ActionSubmitInput)
	}
	if got := ActionKind("open_url").Normalize(); got != "open_url" {
		t.Errorf("Normalize(open_url) = %q, want unchanged", got)
	}
}

// =============================================================================
// TRANSCRIPT TESTS
// =============================================================================

func finalize(content string, status Status) func(Message) Message {
	return func(m Message) Message {
		m.Content = content
		m.Status = status
		return m
	}
}

func TestTranscript_AppendPairAndReconcile(t *testing.T) {
	tr := NewTranscript()

	userIdx, phIdx := tr.AppendPair(NewUserMessage("How many tardies equal one absence?"), NewPlaceholder())
	assert.Equal(t, 0, userIdx)
	assert.Equal(t, 1, phIdx)
	assert.True(t, tr.HasPending())

	ok := tr.ReplaceLast(Message.IsPending, finalize("Three tardies equal one absence.", StatusNone))
	require.True(t, ok)

	msgs := tr.Snapshot()
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "Three tardies equal one absence.", msgs[1].Content)
	assert.Equal(t, StatusNone, msgs[1].Status)
	assert.False(t, tr.HasPending())
}

func TestTranscript_ReplaceLastRequiresMatch(t *testing.T) {
	tr := NewTranscript()
	tr.Append(NewAssistantMessage("done"))

	if tr.ReplaceLast(Message.IsPending, finalize("x", StatusNone)) {
		t.Fatal("ReplaceLast should not replace a non-pending message")
	}
	last, _ := tr.Last()
	if last.Content != "done" {
		t.Errorf("last content = %q, want unchanged", last.Content)
	}

	empty := NewTranscript()
	if empty.ReplaceLast(func(Message) bool { return true }, finalize("x", StatusNone)) {
		t.Error("ReplaceLast on empty transcript should report false")
	}
}

func TestTranscript_ReplaceLastPreservesIdentity(t *testing.T) {
	tr := NewTranscript()
	tr.Append(NewPlaceholder())
	before, _ := tr.Last()

	tr.ReplaceLast(Message.IsPending, func(m Message) Message {
		m.ID = "hijacked"
		m.Role = RoleUser
		m.Content = "answer"
		m.Status = StatusNone
		return m
	})

	after, _ := tr.Last()
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, RoleAssistant, after.Role)
	assert.Equal(t, "answer", after.Content)
}

func TestTranscript_UserMessagesNeverCarryStatus(t *testing.T) {
	tr := NewTranscript()
	msg := NewUserMessage("hi")
	msg.Status = StatusPending
	msg.Actions = []Action{NewQuestionAction("q")}
	tr.Append(msg)

	last, _ := tr.Last()
	assert.Equal(t, StatusNone, last.Status)
	assert.Nil(t, last.Actions)
}

func TestTranscript_SnapshotIsACopy(t *testing.T) {
	greeting := NewAssistantMessage("hello")
	greeting.Actions = []Action{NewQuestionAction("q1")}
	tr := NewTranscript(greeting)

	snap := tr.Snapshot()
	snap[0].Content = "mutated"
	snap[0].Actions[0].Label = "mutated"

	fresh := tr.Snapshot()
	assert.Equal(t, "hello", fresh[0].Content)
	assert.Equal(t, "q1", fresh[0].Actions[0].Label)
}

func TestTranscript_ResetRestoresSeed(t *testing.T) {
	greeting := NewAssistantMessage("hello")
	tr := NewTranscript(greeting)

	for _, n := range []int{0, 1, 5} {
		for i := 0; i < n; i++ {
			tr.AppendPair(NewUserMessage("q"), NewPlaceholder())
			tr.ReplaceLast(Message.IsPending, finalize("a", StatusNone))
		}
		tr.Reset()

		msgs := tr.Snapshot()
		require.Len(t, msgs, 1)
		assert.Equal(t, greeting.ID, msgs[0].ID)
		assert.True(t, tr.IsSeedState())
	}

	// Reset on an already-reset transcript is a no-op on contents.
	tr.Reset()
	tr.Reset()
	assert.Equal(t, tr.Seed(), tr.Snapshot())
}

func TestTranscript_SubscribeReceivesChanges(t *testing.T) {
	tr := NewTranscript()
	var got []Change
	unsubscribe := tr.Subscribe(func(c Change) { got = append(got, c) })

	tr.AppendPair(NewUserMessage("q"), NewPlaceholder())
	tr.ReplaceLast(Message.IsPending, finalize("a", StatusNone))
	tr.Reset()
	unsubscribe()
	tr.Append(NewUserMessage("ignored"))

	require.Len(t, got, 3)
	assert.Equal(t, ChangeAppended, got[0].Kind)
	assert.Equal(t, 0, got[0].Index)
	assert.Equal(t, 2, got[0].Len)
	assert.Equal(t, ChangeReplaced, got[1].Kind)
	assert.Equal(t, 1, got[1].Index)
	assert.Equal(t, ChangeReset, got[2].Kind)
	assert.Less(t, got[0].Version, got[1].Version)
	assert.Less(t, got[1].Version, got[2].Version)
}

func TestTranscript_ConcurrentReadersSeePairs(t *testing.T) {
	tr := NewTranscript()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			tr.AppendPair(NewUserMessage("q"), NewPlaceholder())
			tr.ReplaceLast(Message.IsPending, finalize("a", StatusNone))
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				msgs := tr.Snapshot()
				if len(msgs)%2 != 0 {
					t.Errorf("snapshot length %d is odd; user message seen without placeholder", len(msgs))
					return
				}
			}
		}()
	}

	wg.Wait()
}

// =============================================================================
// TURN TESTS
// =============================================================================

func TestTurns_SkipsPendingFailedAndGreeting(t *testing.T) {
	failed := NewAssistantMessage("Sorry")
	failed.Status = StatusFailed

	msgs := []Message{
		NewAssistantMessage("greeting"),
		NewUserMessage("q1"),
		NewAssistantMessage("a1"),
		NewUserMessage("q2"),
		failed,
		NewUserMessage("q3"),
		NewPlaceholder(),
	}

	turns := Turns(msgs)
	require.Len(t, turns, 1)
	assert.Equal(t, "q1", turns[0].User.Content)
	assert.Equal(t, "a1", turns[0].Reply.Content)
}

func TestTranscript_ReplacePending(t *testing.T) {
	tr := NewTranscript()
	first := NewPlaceholder()
	tr.Append(first)
	tr.Append(NewUserMessage("after"))

	got, ok := tr.ReplacePending(first.ID, finalize("answer", StatusNone))
	if !ok {
		t.Fatal("ReplacePending should find the placeholder")
	}
	if got.ID != first.ID || got.Content != "answer" || got.IsPending() {
		t.Errorf("got %+v, want finalized placeholder %s", got, first.ID)
	}
	if msgs := tr.Snapshot(); msgs[0].Content != "answer" || msgs[1].Content != "after" {
		t.Errorf("unexpected transcript %+v", msgs)
	}

	if _, ok := tr.ReplacePending(first.ID, finalize("again", StatusNone)); ok {
		t.Error("a finalized message is no longer pending")
	}
}
