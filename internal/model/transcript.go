// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sync"
)

// =============================================================================
// TRANSCRIPT (MESSAGE STORE)
// =============================================================================

// ChangeKind describes how a transcript mutation altered the message list.
type ChangeKind int

const (
	ChangeAppended ChangeKind = iota // One or more messages were appended
	ChangeReplaced                   // A message was replaced in place
	ChangeReset                      // The transcript was restored to its seed
)

// Change is delivered to subscribers after every mutation.
type Change struct {
	Kind    ChangeKind
	Index   int    // Index of the first affected message (-1 for reset)
	Len     int    // Transcript length after the change
	Version uint64 // Monotonic mutation counter
}

// Transcript is the ordered, append-only list of exchanged messages.
//
// The only in-place mutations are ReplaceLast and ReplacePending, which the
// submission pipeline uses to reconcile its pending placeholder. Readers
// always get copies, so a snapshot never reflects a half-applied update.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
	seed     []Message
	version  uint64

	subMu  sync.Mutex
	subs   map[int]func(Change)
	nextID int
}

// NewTranscript creates a transcript pre-seeded with the given messages.
// Reset restores exactly this seed.
func NewTranscript(seed ...Message) *Transcript {
	t := &Transcript{
		seed: cloneMessages(seed),
		subs: make(map[int]func(Change)),
	}
	t.messages = cloneMessages(t.seed)
	return t
}

// Append adds a message to the end of the transcript and returns its index.
func (t *Transcript) Append(msg Message) int {
	t.mu.Lock()
	t.messages = append(t.messages, sanitize(msg))
	idx := len(t.messages) - 1
	change := t.changeLocked(ChangeAppended, idx)
	t.mu.Unlock()

	t.notify(change)
	return idx
}

// AppendPair appends a user message and the assistant placeholder that answers
// it in a single critical section. No reader can observe the user message
// without its placeholder.
func (t *Transcript) AppendPair(user, placeholder Message) (userIdx, placeholderIdx int) {
	t.mu.Lock()
	t.messages = append(t.messages, sanitize(user), sanitize(placeholder))
	placeholderIdx = len(t.messages) - 1
	userIdx = placeholderIdx - 1
	change := t.changeLocked(ChangeAppended, userIdx)
	t.mu.Unlock()

	t.notify(change)
	return userIdx, placeholderIdx
}

// ReplaceLast replaces the last message with update(last) only when
// match(last) holds. It reports whether a replacement happened.
// The message's identity (ID and role) is preserved regardless of what
// update returns.
func (t *Transcript) ReplaceLast(match func(Message) bool, update func(Message) Message) bool {
	t.mu.Lock()
	if len(t.messages) == 0 {
		t.mu.Unlock()
		return false
	}

	idx := len(t.messages) - 1
	last := t.messages[idx].Clone()
	if !match(last) {
		t.mu.Unlock()
		return false
	}

	updated := update(last.Clone())
	updated.ID = last.ID
	updated.Role = last.Role
	t.messages[idx] = sanitize(updated)
	change := t.changeLocked(ChangeReplaced, idx)
	t.mu.Unlock()

	t.notify(change)
	return true
}

// ReplacePending finalizes the pending message with the given id wherever it
// sits, returning the stored result. Identity is preserved as in ReplaceLast.
// It reports false when no pending message carries id.
func (t *Transcript) ReplacePending(id string, update func(Message) Message) (Message, bool) {
	t.mu.Lock()
	idx := -1
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].ID == id && t.messages[i].IsPending() {
			idx = i
			break
		}
	}
	if idx < 0 {
		t.mu.Unlock()
		return Message{}, false
	}

	current := t.messages[idx].Clone()
	updated := update(current.Clone())
	updated.ID = current.ID
	updated.Role = current.Role
	t.messages[idx] = sanitize(updated)
	stored := t.messages[idx].Clone()
	change := t.changeLocked(ChangeReplaced, idx)
	t.mu.Unlock()

	t.notify(change)
	return stored, true
}

// Reset discards every message and restores the seed state.
func (t *Transcript) Reset() {
	t.mu.Lock()
	t.messages = cloneMessages(t.seed)
	change := t.changeLocked(ChangeReset, -1)
	t.mu.Unlock()

	t.notify(change)
}

// =============================================================================
// READERS
// =============================================================================

// Snapshot returns a copy of the current message list.
func (t *Transcript) Snapshot() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return cloneMessages(t.messages)
}

// Seed returns a copy of the seed messages.
func (t *Transcript) Seed() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return cloneMessages(t.seed)
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Last returns the most recent message.
func (t *Transcript) Last() (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1].Clone(), true
}

// Version returns the mutation counter. It increases on every change.
func (t *Transcript) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

// HasPending reports whether the transcript ends in a pending placeholder.
func (t *Transcript) HasPending() bool {
	last, ok := t.Last()
	return ok && last.IsPending()
}

// IsSeedState reports whether the transcript holds only its seed messages.
func (t *Transcript) IsSeedState() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages) == len(t.seed)
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe registers fn to be called after every mutation. Callbacks run
// on the mutating goroutine, outside the transcript lock. The returned
// function removes the subscription.
func (t *Transcript) Subscribe(fn func(Change)) func() {
	t.subMu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	t.subMu.Unlock()

	return func() {
		t.subMu.Lock()
		delete(t.subs, id)
		t.subMu.Unlock()
	}
}

func (t *Transcript) notify(c Change) {
	t.subMu.Lock()
	fns := make([]func(Change), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.subMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// changeLocked bumps the version. Caller must hold t.mu.
func (t *Transcript) changeLocked(kind ChangeKind, idx int) Change {
	t.version++
	return Change{Kind: kind, Index: idx, Len: len(t.messages), Version: t.version}
}

// =============================================================================
// HELPERS
// =============================================================================

// sanitize enforces the per-role field rules: user messages never carry a
// status or actions.
func sanitize(msg Message) Message {
	msg = msg.Clone()
	if msg.Role == RoleUser {
		msg.Status = StatusNone
		msg.Actions = nil
	}
	return msg
}

func cloneMessages(in []Message) []Message {
	out := make([]Message, len(in))
	for i, msg := range in {
		out[i] = msg.Clone()
	}
	return out
}
