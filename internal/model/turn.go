// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Turn pairs a user utterance with the finalized assistant reply it produced.
type Turn struct {
	User  Message
	Reply Message
}

// Turns extracts completed turns from an ordered message list. A user
// message counts only when it is immediately followed by a finalized
// assistant reply, so pending placeholders, failed replies and the
// unanswered greeting never appear.
func Turns(messages []Message) []Turn {
	var turns []Turn
	for i := 0; i+1 < len(messages); i++ {
		user, reply := messages[i], messages[i+1]
		if user.Role != RoleUser || reply.Role != RoleAssistant {
			continue
		}
		if !reply.IsFinal() {
			continue
		}
		turns = append(turns, Turn{User: user.Clone(), Reply: reply.Clone()})
		i++
	}
	return turns
}
