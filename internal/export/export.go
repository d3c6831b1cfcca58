// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/jeranaias/handbook-tui/internal/storage"
	"github.com/jeranaias/handbook-tui/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a transcript to one output format.
type Exporter interface {
	// Export converts a transcript to the target format and returns the content.
	Export(t *storage.StoredTranscript) ([]byte, error)

	// FileExtension returns the file extension (e.g., ".md", ".html").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Formats lists the accepted format names.
var Formats = []string{"markdown", "html", "json"}

// New returns the exporter for format ("markdown"/"md", "html"/"htm", "json").
func New(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "markdown", "md", "":
		return NewMarkdownExporter(opts), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is where files are written. Default: current directory.
	OutputDir string

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool

	// IncludeMetadata includes the metadata header.
	IncludeMetadata bool

	// IncludeTimestamps includes per-message timestamps.
	IncludeTimestamps bool

	// Theme for HTML export ("light" or "dark"). Default: "light".
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Theme:             "light",
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports t with exporter and returns the written path.
func ExportToFile(t *storage.StoredTranscript, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := fmt.Sprintf("handbook_%s_%s%s",
		sanitizeFilename(t.Title),
		time.Now().Format("20060102_150405"),
		exporter.FileExtension(),
	)

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	outputPath := filepath.Join(dir, filename)
	if err := util.AtomicWriteFileWithDir(outputPath, content, 0644, 0755); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	if opts.OpenAfterExport {
		// Non-fatal: the file was written.
		_ = openFile(outputPath)
	}
	return outputPath, nil
}

// validate rejects transcripts that cannot be exported.
func validate(t *storage.StoredTranscript) error {
	if t == nil {
		return ErrNilTranscript
	}
	if len(t.Messages) == 0 {
		return ErrEmptyTranscript
	}
	return nil
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNilTranscript is returned when exporting a nil transcript.
	ErrNilTranscript = errors.New("transcript is nil")

	// ErrEmptyTranscript is returned when a transcript has no messages.
	ErrEmptyTranscript = errors.New("transcript has no messages")

	// ErrUnsupportedFormat is returned by New for an unknown format.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	s = util.TruncateRunes(strings.TrimSpace(s), 40)
	s = strings.TrimSuffix(s, "...")

	var b strings.Builder
	for _, r := range s {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			b.WriteRune('_')
		case r < 32 || r == 127:
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "transcript"
	}
	return b.String()
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}

func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
