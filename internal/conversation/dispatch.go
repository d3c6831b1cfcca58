// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"

	"github.com/jeranaias/handbook-tui/internal/model"
)

// Execute runs action. A submit-as-input action is exactly a Submit of its
// payload text; unknown kinds are ignored.
func (s *Session) Execute(ctx context.Context, action model.Action) Outcome {
	text, ok := actionInput(action)
	if !ok {
		return Outcome{Skipped: true}
	}
	return s.Submit(ctx, text)
}

// BeginAction is the event-loop form of Execute.
func (s *Session) BeginAction(action model.Action) (Request, bool) {
	text, ok := actionInput(action)
	if !ok {
		return Request{}, false
	}
	return s.Begin(text)
}

func actionInput(action model.Action) (string, bool) {
	switch action.Kind.Normalize() {
	case model.ActionSubmitInput:
		return action.Payload.Text, true
	default:
		return "", false
	}
}
