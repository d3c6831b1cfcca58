// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file defines the Bubble Tea message types used by the chat interface:
//   - Answers: the result of a remote call for a submitted question
//   - Persistence: save and export completion
//   - Configuration: hot-reloaded settings
//   - Notices: expiry of transient status-bar messages
package chat

import (
	"github.com/jeranaias/handbook-tui/internal/config"
	"github.com/jeranaias/handbook-tui/internal/conversation"
)

// =============================================================================
// ANSWER MESSAGES
// =============================================================================

// AnswerMsg carries the service result for a request started by Begin.
type AnswerMsg struct {
	Request conversation.Request
	Answer  string
	Err     error
}

// =============================================================================
// PERSISTENCE MESSAGES
// =============================================================================

// SavedMsg reports the outcome of /save.
type SavedMsg struct {
	ID  string
	Err error
}

// ExportedMsg reports the outcome of /export.
type ExportedMsg struct {
	Path string
	Err  error
}

// =============================================================================
// CONFIGURATION MESSAGES
// =============================================================================

// ConfigReloadedMsg delivers a configuration reloaded from disk.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}

// =============================================================================
// NOTICE MESSAGES
// =============================================================================

// noticeExpiredMsg clears the status-bar notice it was scheduled for.
type noticeExpiredMsg struct {
	seq int
}
