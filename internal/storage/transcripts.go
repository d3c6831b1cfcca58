// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/handbook-tui/internal/model"
	"github.com/jeranaias/handbook-tui/internal/util"
)

// DefaultMaxTranscripts caps how many transcripts are kept on disk.
const DefaultMaxTranscripts = 100

// =============================================================================
// STORED TRANSCRIPT TYPE
// =============================================================================

// StoredTranscript is a persisted conversation.
type StoredTranscript struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Assistant string    `json:"assistant,omitempty"`
	Service   string    `json:"service,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Messages holds finalized messages only.
	Messages []model.Message `json:"messages"`
}

// NewStoredTranscript builds a record from a transcript snapshot. Pending
// placeholders are dropped since they have no content to keep.
func NewStoredTranscript(messages []model.Message) *StoredTranscript {
	kept := make([]model.Message, 0, len(messages))
	for _, m := range messages {
		if m.IsPending() {
			continue
		}
		kept = append(kept, m.Clone())
	}
	return &StoredTranscript{Messages: kept}
}

// Preview returns the first user question, truncated.
func (t *StoredTranscript) Preview(maxLen int) string {
	for _, msg := range t.Messages {
		if msg.Role == model.RoleUser && msg.Content != "" {
			return msg.Preview(maxLen)
		}
	}
	return ""
}

// QuestionCount returns the number of user messages.
func (t *StoredTranscript) QuestionCount() int {
	n := 0
	for _, msg := range t.Messages {
		if msg.Role == model.RoleUser {
			n++
		}
	}
	return n
}

// TranscriptMeta is the listing view of a stored transcript.
type TranscriptMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	Questions    int       `json:"questions"`
	Preview      string    `json:"preview"`
}

// =============================================================================
// TRANSCRIPT STORE
// =============================================================================

// Store keeps transcripts as one JSON file each under BaseDir.
type Store struct {
	// BaseDir is the directory holding transcript files.
	// Default: ~/.handbook/transcripts/
	BaseDir string

	// MaxTranscripts limits stored transcripts (0 = unlimited).
	MaxTranscripts int
}

// DefaultDir returns ~/.handbook/transcripts.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".handbook", "transcripts"), nil
}

// NewStore creates a store rooted at baseDir, creating it if needed.
// An empty baseDir selects DefaultDir.
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		baseDir = dir
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}
	return &Store{
		BaseDir:        baseDir,
		MaxTranscripts: DefaultMaxTranscripts,
	}, nil
}

// =============================================================================
// SAVE OPERATIONS
// =============================================================================

// Save persists t and returns its ID. A missing ID or title is filled in.
func (s *Store) Save(t *StoredTranscript) (string, error) {
	if t.ID == "" {
		t.ID = generateTranscriptID()
	}
	if t.Title == "" {
		t.Title = generateTitle(t)
	}

	t.UpdatedAt = time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = t.UpdatedAt
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", err
	}

	if err := util.AtomicWriteFile(s.filePath(t.ID), data, 0600); err != nil {
		return "", err
	}

	if s.MaxTranscripts > 0 {
		s.enforceLimit()
	}
	return t.ID, nil
}

// generateTitle uses the first question, on one line.
func generateTitle(t *StoredTranscript) string {
	title := t.Preview(50)
	if title == "" {
		return "New conversation"
	}
	title = strings.ReplaceAll(title, "\n", " ")
	return strings.ReplaceAll(title, "\r", "")
}

// enforceLimit removes the oldest transcripts beyond MaxTranscripts.
func (s *Store) enforceLimit() {
	metas, err := s.List()
	if err != nil || len(metas) <= s.MaxTranscripts {
		return
	}
	// List is newest first.
	for _, meta := range metas[s.MaxTranscripts:] {
		s.Delete(meta.ID)
	}
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load retrieves a transcript by ID.
func (s *Store) Load(id string) (*StoredTranscript, error) {
	if !validID(id) {
		return nil, ErrTranscriptNotFound
	}
	data, err := os.ReadFile(s.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTranscriptNotFound
		}
		return nil, err
	}

	var t StoredTranscript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode transcript %s: %w", id, err)
	}
	return &t, nil
}

// LoadByIndex loads a transcript by list position (1 = most recent).
func (s *Store) LoadByIndex(index int) (*StoredTranscript, error) {
	metas, err := s.List()
	if err != nil {
		return nil, err
	}
	if index < 1 || index > len(metas) {
		return nil, ErrTranscriptNotFound
	}
	return s.Load(metas[index-1].ID)
}

// Find resolves ref as an ID, a unique ID prefix, or a 1-based list index.
func (s *Store) Find(ref string) (*StoredTranscript, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrTranscriptNotFound
	}

	if t, err := s.Load(ref); err == nil {
		return t, nil
	}
	if n, err := strconv.Atoi(ref); err == nil {
		return s.LoadByIndex(n)
	}

	metas, err := s.List()
	if err != nil {
		return nil, err
	}
	var match string
	for _, meta := range metas {
		if strings.HasPrefix(meta.ID, ref) {
			if match != "" {
				return nil, &TranscriptError{Message: "ambiguous transcript reference: " + ref}
			}
			match = meta.ID
		}
	}
	if match == "" {
		return nil, ErrTranscriptNotFound
	}
	return s.Load(match)
}

// =============================================================================
// LIST OPERATIONS
// =============================================================================

// List returns all saved transcripts, most recent first. Unreadable files
// are skipped.
func (s *Store) List() ([]TranscriptMeta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []TranscriptMeta{}, nil
		}
		return nil, err
	}

	metas := make([]TranscriptMeta, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		t, err := s.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		metas = append(metas, TranscriptMeta{
			ID:           t.ID,
			Title:        t.Title,
			CreatedAt:    t.CreatedAt,
			UpdatedAt:    t.UpdatedAt,
			MessageCount: len(t.Messages),
			Questions:    t.QuestionCount(),
			Preview:      t.Preview(80),
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// Search returns transcripts whose title or any message contains query
// (case-insensitive). An empty query lists everything.
func (s *Store) Search(query string) ([]TranscriptMeta, error) {
	all, err := s.List()
	if err != nil || query == "" {
		return all, err
	}

	query = strings.ToLower(query)
	var results []TranscriptMeta
	for _, meta := range all {
		if strings.Contains(strings.ToLower(meta.Title), query) {
			results = append(results, meta)
			continue
		}
		t, err := s.Load(meta.ID)
		if err != nil {
			continue
		}
		for _, msg := range t.Messages {
			if strings.Contains(strings.ToLower(msg.Content), query) {
				results = append(results, meta)
				break
			}
		}
	}
	return results, nil
}

// =============================================================================
// DELETE OPERATIONS
// =============================================================================

// Delete removes a transcript by ID.
func (s *Store) Delete(id string) error {
	if !validID(id) {
		return ErrTranscriptNotFound
	}
	if err := os.Remove(s.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrTranscriptNotFound
		}
		return err
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (s *Store) filePath(id string) string {
	return filepath.Join(s.BaseDir, id+".json")
}

// validID rejects references that could escape BaseDir.
func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}

func generateTranscriptID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "tr_" + raw[:16]
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrTranscriptNotFound is returned when a transcript doesn't exist.
// Use errors.Is(err, ErrTranscriptNotFound) to check for it.
var ErrTranscriptNotFound = &TranscriptError{Message: "transcript not found"}

// TranscriptError is a storage error comparable with errors.Is.
type TranscriptError struct {
	Message string
}

// Error implements the error interface.
func (e *TranscriptError) Error() string {
	return e.Message
}

// Is reports whether target is a TranscriptError with the same message.
func (e *TranscriptError) Is(target error) bool {
	t, ok := target.(*TranscriptError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// LIST FORMATTING
// =============================================================================

// FormatList renders metas as an aligned table for the sessions command.
func FormatList(metas []TranscriptMeta) string {
	if len(metas) == 0 {
		return "No saved transcripts."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-4s %-19s %-17s %-5s %s\n", "#", "ID", "Updated", "Q", "Title")
	sb.WriteString(strings.Repeat("-", 72) + "\n")
	for i, m := range metas {
		fmt.Fprintf(&sb, "%-4d %-19s %-17s %-5d %s\n",
			i+1,
			m.ID,
			m.UpdatedAt.Format("2006-01-02 15:04"),
			m.Questions,
			util.TruncateWidth(m.Title, 40),
		)
	}
	return sb.String()
}
