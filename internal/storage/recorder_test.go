// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"testing"

	"github.com/jeranaias/handbook-tui/internal/model"
)

func seededTranscript() *model.Transcript {
	return model.NewTranscript(model.NewAssistantMessage("Hello, ask me anything."))
}

func TestRecorder_SeedOnlyIsNotSaved(t *testing.T) {
	r := NewRecorder(newTestStore(t), seededTranscript())
	if _, err := r.Save(); !errors.Is(err, ErrNothingToSave) {
		t.Errorf("Save() error = %v, want ErrNothingToSave", err)
	}
}

func TestRecorder_SaveKeepsStableID(t *testing.T) {
	store := newTestStore(t)
	tr := seededTranscript()
	r := NewRecorder(store, tr)
	r.Assistant = "Emma"

	tr.Append(model.NewUserMessage("Where is the library?"))
	first, err := r.Save()
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	tr.Append(model.NewAssistantMessage("On the main quad."))
	second, err := r.Save()
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if first != second {
		t.Errorf("second save used a new ID: %s != %s", first, second)
	}

	loaded, err := store.Load(first)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded.Messages) != 3 || loaded.Assistant != "Emma" {
		t.Errorf("loaded %d messages, assistant %q", len(loaded.Messages), loaded.Assistant)
	}
}

func TestRecorder_AttachSavesFinalizedReplies(t *testing.T) {
	store := newTestStore(t)
	tr := seededTranscript()
	r := NewRecorder(store, tr)
	var saveErr error
	r.OnError = func(err error) { saveErr = err }
	detach := r.Attach()
	defer detach()

	tr.AppendPair(model.NewUserMessage("Question?"), model.NewPlaceholder())
	if r.ID() != "" {
		t.Fatal("a pending transcript should not be saved")
	}

	tr.ReplaceLast(func(m model.Message) bool { return m.IsPending() }, func(m model.Message) model.Message {
		m.Content = "Answer."
		m.Status = model.StatusNone
		return m
	})
	if saveErr != nil {
		t.Fatalf("auto save failed: %v", saveErr)
	}
	id := r.ID()
	if id == "" {
		t.Fatal("finalized reply should be saved")
	}

	tr.Reset()
	if r.ID() != "" {
		t.Error("reset should start a new record")
	}
	tr.Append(model.NewUserMessage("Another?"))
	if r.ID() == id {
		t.Error("post-reset save should use a new ID")
	}

	metas, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 2 {
		t.Errorf("List() returned %d transcripts, want 2", len(metas))
	}
}
