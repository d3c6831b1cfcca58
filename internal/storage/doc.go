// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists finished transcripts for handbook-tui.
//
// Each transcript is one JSON file written atomically under the store
// directory (~/.handbook/transcripts by default).
//
// # Usage
//
//	store, err := storage.NewStore("")
//	id, err := store.Save(storage.NewStoredTranscript(transcript.Snapshot()))
//
//	metas, err := store.List()
//	t, err := store.Find("1") // most recent
package storage
