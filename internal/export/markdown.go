// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/handbook-tui/internal/model"
	"github.com/jeranaias/handbook-tui/internal/storage"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts to Markdown.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a transcript to Markdown. Message content is already
// markdown and is written as-is.
func (e *MarkdownExporter) Export(t *storage.StoredTranscript) ([]byte, error) {
	if err := validate(t); err != nil {
		return nil, err
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "title: %s\n", escapeYAML(t.Title))
		if t.Assistant != "" {
			fmt.Fprintf(&sb, "assistant: %s\n", escapeYAML(t.Assistant))
		}
		if !t.CreatedAt.IsZero() {
			fmt.Fprintf(&sb, "date: %s\n", t.CreatedAt.Format(time.RFC3339))
		}
		fmt.Fprintf(&sb, "questions: %d\n", t.QuestionCount())
		fmt.Fprintf(&sb, "exported: %s\n", time.Now().Format(time.RFC3339))
		sb.WriteString("generator: handbook-tui\n")
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(t.Title))

	for i, msg := range t.Messages {
		label := roleLabel(msg, t.Assistant)
		if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
			fmt.Fprintf(&sb, "### %s <sub>%s</sub>\n\n", label, formatShortTimestamp(msg.Timestamp))
		} else {
			fmt.Fprintf(&sb, "### %s\n\n", label)
		}

		content := strings.TrimSpace(msg.Content)
		if msg.IsFailed() {
			content = "> " + content
		}
		sb.WriteString(content)
		sb.WriteString("\n\n")

		if actions := msg.VisibleActions(); len(actions) > 0 {
			sb.WriteString("Suggested questions:\n\n")
			for _, a := range actions {
				fmt.Fprintf(&sb, "- %s\n", a.Label)
			}
			sb.WriteString("\n")
		}

		if i < len(t.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	fmt.Fprintf(&sb, "\n*Exported from handbook-tui on %s*\n",
		time.Now().Format("January 2, 2006 at 3:04 PM"))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// roleLabel names the sender of msg.
func roleLabel(msg model.Message, assistant string) string {
	if msg.Role == model.RoleAssistant && assistant != "" {
		return assistant
	}
	return msg.Role.DisplayName()
}

// escapeMarkdown escapes characters that would break a heading.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer("#", `\#`, "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`)
	return r.Replace(s)
}

// escapeYAML quotes values that contain YAML special characters.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)
		return `"` + r.Replace(s) + `"`
	}
	return s
}
