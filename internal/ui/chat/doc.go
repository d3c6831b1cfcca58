// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// The Model owns one conversation Session. Submitting a question appends
// the user message and a pending placeholder, runs the service call as a
// command and, when the AnswerMsg arrives, finalizes the placeholder and
// types the reply out through a reveal Engine. Suggested questions attached
// to the newest message can be picked with 1-9, Tab or Enter.
//
// # Commands
//
//   - /new, /clear: start over with the greeting
//   - /save: write the transcript to the store
//   - /export [markdown|html|json]: export the transcript
//   - /help: toggle the help overlay
//   - /quit, /exit, /q: leave
package chat
