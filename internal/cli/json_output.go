// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON output for scripting.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jeranaias/handbook-tui/internal/storage"
)

// JSONResponse is the envelope every --json command prints.
type JSONResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	Error     *string     `json:"error"`
	Timestamp string      `json:"timestamp"`
	Command   string      `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print outputs the JSON response to stdout.
func (r *JSONResponse) Print() error {
	return r.Write(os.Stdout)
}

// Write encodes the response to w with indentation.
func (r *JSONResponse) Write(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// String returns the indented JSON.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":%q}`, err.Error())
	}
	return string(data)
}

// =============================================================================
// PAYLOADS
// =============================================================================

// VersionData is the payload of `version --json`.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// AskData is the payload of `ask --json`.
type AskData struct {
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	Failed       bool   `json:"failed"`
	Error        string `json:"error,omitempty"`
	DurationMs   int64  `json:"duration_ms"`
	Service      string `json:"service"`
	TranscriptID string `json:"transcript_id,omitempty"`
}

// SessionsData is the payload of `sessions --json`.
type SessionsData struct {
	Transcripts []storage.TranscriptMeta `json:"transcripts"`
	Count       int                      `json:"count"`
}

// ExportData is the payload of `export --json`.
type ExportData struct {
	ID     string `json:"id"`
	Format string `json:"format"`
	Path   string `json:"path"`
}
