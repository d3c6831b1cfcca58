// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"sync"

	"github.com/jeranaias/handbook-tui/internal/model"
)

// =============================================================================
// RECORDER
// =============================================================================

// Recorder keeps one live transcript saved under a stable ID. After a reset
// the next save starts a new record.
type Recorder struct {
	store      *Store
	transcript *model.Transcript

	// Assistant and Service are copied into each saved record.
	Assistant string
	Service   string

	// OnError receives failures from automatic saves.
	OnError func(error)

	mu      sync.Mutex
	current *StoredTranscript
}

// NewRecorder creates a recorder for transcript backed by store.
func NewRecorder(store *Store, transcript *model.Transcript) *Recorder {
	return &Recorder{store: store, transcript: transcript}
}

// Save writes the current transcript and returns its ID. A transcript that
// holds only its seed has nothing worth keeping and is not written.
func (r *Recorder) Save() (string, error) {
	if r.transcript.IsSeedState() {
		return "", ErrNothingToSave
	}
	snap := NewStoredTranscript(r.transcript.Snapshot())

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		snap.ID = r.current.ID
		snap.Title = r.current.Title
		snap.CreatedAt = r.current.CreatedAt
	}
	snap.Assistant = r.Assistant
	snap.Service = r.Service

	id, err := r.store.Save(snap)
	if err != nil {
		return "", err
	}
	r.current = snap
	return id, nil
}

// ID returns the ID of the record being written, or "" before the first save.
func (r *Recorder) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return ""
	}
	return r.current.ID
}

// Attach saves automatically whenever a reply is finalized and starts a new
// record after a reset. The returned function detaches the recorder.
func (r *Recorder) Attach() func() {
	return r.transcript.Subscribe(func(c model.Change) {
		switch c.Kind {
		case model.ChangeReset:
			r.mu.Lock()
			r.current = nil
			r.mu.Unlock()
		case model.ChangeReplaced, model.ChangeAppended:
			if r.transcript.HasPending() {
				return
			}
			if _, err := r.Save(); err != nil && !errors.Is(err, ErrNothingToSave) && r.OnError != nil {
				r.OnError(err)
			}
		}
	})
}

// ErrNothingToSave is returned by Recorder.Save for a transcript holding
// only its seed.
var ErrNothingToSave = &TranscriptError{Message: "nothing to save yet"}
