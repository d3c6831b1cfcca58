// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"

	"github.com/jeranaias/handbook-tui/internal/storage"
)

// JSONExporter writes the stored transcript as indented JSON. Options do not
// filter the output so the file can be read back by the store.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts a transcript to JSON.
func (e *JSONExporter) Export(t *storage.StoredTranscript) ([]byte, error) {
	if t == nil {
		return nil, ErrNilTranscript
	}
	return json.MarshalIndent(t, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
