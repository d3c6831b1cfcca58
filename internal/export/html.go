// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/handbook-tui/internal/markdown"
	"github.com/jeranaias/handbook-tui/internal/model"
	"github.com/jeranaias/handbook-tui/internal/storage"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports transcripts to a standalone HTML page. Message bodies
// are rendered from markdown and sanitized.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a transcript to HTML.
func (e *HTMLExporter) Export(t *storage.StoredTranscript) ([]byte, error) {
	if err := validate(t); err != nil {
		return nil, err
	}

	theme := "light"
	if e.options.Theme == "dark" {
		theme = "dark"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", html.EscapeString(t.Title))
	sb.WriteString("    <meta name=\"generator\" content=\"handbook-tui\">\n")
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n    <div class=\"container\">\n", theme)

	if e.options.IncludeMetadata {
		sb.WriteString("        <header class=\"header\">\n")
		fmt.Fprintf(&sb, "            <h1>%s</h1>\n", html.EscapeString(t.Title))
		sb.WriteString("            <div class=\"metadata\">\n")
		if t.Assistant != "" {
			fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Assistant:</strong> %s</span>\n", html.EscapeString(t.Assistant))
		}
		if !t.CreatedAt.IsZero() {
			fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Created:</strong> %s</span>\n", formatTimestamp(t.CreatedAt))
		}
		fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Questions:</strong> %d</span>\n", t.QuestionCount())
		sb.WriteString("            </div>\n        </header>\n")
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, msg := range t.Messages {
		body, err := e.renderMessage(msg, t.Assistant)
		if err != nil {
			return nil, err
		}
		sb.WriteString(body)
	}
	sb.WriteString("        </main>\n")

	fmt.Fprintf(&sb, "        <footer class=\"footer\">Exported from <strong>handbook-tui</strong> on %s</footer>\n",
		time.Now().Format("January 2, 2006 at 3:04 PM"))
	sb.WriteString("    </div>\n</body>\n</html>\n")

	return []byte(sb.String()), nil
}

// renderMessage renders one message block.
func (e *HTMLExporter) renderMessage(msg model.Message, assistant string) (string, error) {
	content, err := markdown.RenderHTML(msg.Content)
	if err != nil {
		return "", fmt.Errorf("render message %s: %w", msg.ID, err)
	}

	class := string(msg.Role)
	if msg.IsFailed() {
		class += " failed"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "            <div class=\"message %s\">\n", class)
	sb.WriteString("                <div class=\"message-header\">\n")
	fmt.Fprintf(&sb, "                    <span class=\"role-label\">%s</span>\n", html.EscapeString(roleLabel(msg, assistant)))
	if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
		fmt.Fprintf(&sb, "                    <span class=\"timestamp\">%s</span>\n", formatShortTimestamp(msg.Timestamp))
	}
	sb.WriteString("                </div>\n")
	fmt.Fprintf(&sb, "                <div class=\"message-content\">%s</div>\n", content)

	if actions := msg.VisibleActions(); len(actions) > 0 {
		sb.WriteString("                <ul class=\"actions\">\n")
		for _, a := range actions {
			fmt.Fprintf(&sb, "                    <li>%s</li>\n", html.EscapeString(a.Label))
		}
		sb.WriteString("                </ul>\n")
	}
	sb.WriteString("            </div>\n")
	return sb.String(), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

const css = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        .light-theme { --bg: #ffffff; --panel: #f6f8fa; --text: #24292e; --muted: #6a737d; --accent: #0b5cad; --user: #e8f0fb; --error: #cb2431; }
        .dark-theme { --bg: #1a1b26; --panel: #24283b; --text: #c0caf5; --muted: #565f89; --accent: #7aa2f7; --user: #1f2335; --error: #f7768e; }
        body { background: var(--bg); color: var(--text); font-family: -apple-system, "Segoe UI", Roboto, Arial, sans-serif; line-height: 1.6; }
        .container { max-width: 860px; margin: 0 auto; padding: 2rem 1rem; }
        .header h1 { font-size: 1.5rem; margin-bottom: 0.5rem; }
        .metadata { color: var(--muted); font-size: 0.9rem; display: flex; gap: 1rem; flex-wrap: wrap; }
        .conversation { margin-top: 1.5rem; display: flex; flex-direction: column; gap: 1rem; }
        .message { background: var(--panel); border-radius: 8px; padding: 0.75rem 1rem; }
        .message.user { background: var(--user); margin-left: 15%; }
        .message.assistant { margin-right: 15%; }
        .message.failed { border-left: 3px solid var(--error); }
        .message-header { display: flex; justify-content: space-between; color: var(--muted); font-size: 0.8rem; margin-bottom: 0.25rem; }
        .role-label { font-weight: 600; color: var(--accent); }
        .message-content p { margin: 0.25rem 0; }
        .message-content pre { background: var(--bg); padding: 0.5rem; border-radius: 4px; overflow-x: auto; }
        .actions { margin-top: 0.5rem; padding-left: 1.25rem; color: var(--accent); }
        .footer { margin-top: 2rem; color: var(--muted); font-size: 0.8rem; text-align: center; }
    </style>
`
