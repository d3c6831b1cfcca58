// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat transcript.
package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/handbook-tui/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// ParseRole maps a wire or legacy role name onto a Role.
// The earlier schema used "human" and "bot".
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "human":
		return RoleUser, true
	case "assistant", "bot", "ai":
		return RoleAssistant, true
	default:
		return "", false
	}
}

// UnmarshalJSON accepts both current and legacy role names.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	role, ok := ParseRole(s)
	if !ok {
		return &UnknownRoleError{Value: s}
	}
	*r = role
	return nil
}

// UnknownRoleError is returned when decoding a role name that is not recognized.
type UnknownRoleError struct {
	Value string
}

func (e *UnknownRoleError) Error() string {
	return "unknown message role: " + e.Value
}

// =============================================================================
// STATUS TYPE
// =============================================================================

// Status is the lifecycle marker carried by assistant messages.
// The zero value means the message is finalized and successful.
type Status string

const (
	StatusNone    Status = ""
	StatusPending Status = "pending"
	StatusFailed  Status = "failed"
)

// IsPending reports whether the status marks an in-flight reply.
func (s Status) IsPending() bool { return s == StatusPending }

// IsFailed reports whether the status marks a failed reply.
func (s Status) IsFailed() bool { return s == StatusFailed }

// UnmarshalJSON accepts the legacy "loading" and "error" names.
func (s *Status) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v {
	case "", "none":
		*s = StatusNone
	case "pending", "loading":
		*s = StatusPending
	case "failed", "error":
		*s = StatusFailed
	default:
		*s = Status(v)
	}
	return nil
}

// =============================================================================
// ACTION TYPE
// =============================================================================

// ActionKind identifies what executing an action does.
type ActionKind string

const (
	// ActionSubmitInput submits the payload text as if the user typed it.
	ActionSubmitInput ActionKind = "submit-as-input"

	// actionInputQuestion is the wire name used by the original web client.
	actionInputQuestion ActionKind = "input_question"
)

// Normalize maps known aliases onto their canonical kind.
func (k ActionKind) Normalize() ActionKind {
	if k == actionInputQuestion {
		return ActionSubmitInput
	}
	return k
}

// ActionPayload is the input carried by an action.
type ActionPayload struct {
	Text string `json:"text"`
}

// Action is a suggested follow-up prompt attached to an assistant message.
type Action struct {
	Kind    ActionKind    `json:"kind"`
	Label   string        `json:"label"`
	Payload ActionPayload `json:"payload"`
}

// NewQuestionAction creates a submit-as-input action whose label is the question.
func NewQuestionAction(question string) Action {
	return Action{
		Kind:    ActionSubmitInput,
		Label:   question,
		Payload: ActionPayload{Text: question},
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single entry in the transcript.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string   `json:"content"`
	Status  Status   `json:"status,omitempty"`
	Actions []Action `json:"actions,omitempty"`
}

// NewUserMessage creates a complete user message. User messages never carry a status.
func NewUserMessage(content string) Message {
	return Message{
		ID:        generateID(),
		Role:      RoleUser,
		Timestamp: time.Now(),
		Content:   content,
	}
}

// NewAssistantMessage creates a finalized assistant message.
func NewAssistantMessage(content string) Message {
	return Message{
		ID:        generateID(),
		Role:      RoleAssistant,
		Timestamp: time.Now(),
		Content:   content,
	}
}

// NewPlaceholder creates an empty pending assistant message.
func NewPlaceholder() Message {
	msg := NewAssistantMessage("")
	msg.Status = StatusPending
	return msg
}

// IsPending reports whether this is an in-flight assistant placeholder.
func (m Message) IsPending() bool {
	return m.Role == RoleAssistant && m.Status.IsPending()
}

// IsFailed reports whether this assistant reply failed.
func (m Message) IsFailed() bool {
	return m.Role == RoleAssistant && m.Status.IsFailed()
}

// IsFinal reports whether the message is complete and successful.
func (m Message) IsFinal() bool {
	return m.Status == StatusNone
}

// VisibleActions returns the actions that may be shown. Actions are hidden
// while the owning message is pending.
func (m Message) VisibleActions() []Action {
	if m.IsPending() {
		return nil
	}
	return m.Actions
}

// Clone returns a copy that shares no mutable state with m.
func (m Message) Clone() Message {
	if m.Actions != nil {
		actions := make([]Action, len(m.Actions))
		copy(actions, m.Actions)
		m.Actions = actions
	}
	return m
}

// Preview returns a rune-safe truncated preview of the content.
func (m Message) Preview(maxLen int) string {
	return util.TruncateRunes(strings.TrimSpace(m.Content), maxLen)
}

// generateID creates a unique message ID.
func generateID() string {
	return "msg_" + uuid.NewString()
}
