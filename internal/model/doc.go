// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat transcript.
//
// # Key Types
//
//   - Message: one transcript entry with role, content, status and actions
//   - Action: a suggested follow-up prompt attached to an assistant message
//   - Transcript: the ordered, append-only message store
//   - Turn: a user message paired with its finalized reply
//
// # Usage
//
//	t := model.NewTranscript(greeting)
//	t.AppendPair(model.NewUserMessage("How many tardies equal one absence?"), model.NewPlaceholder())
//	t.ReplaceLast(model.Message.IsPending, func(m model.Message) model.Message {
//	    m.Content = "Three tardies equal one absence."
//	    m.Status = model.StatusNone
//	    return m
//	})
package model
