// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// DefaultWidth is the wrap width used when none is given.
const DefaultWidth = 80

// Styles accepted by NewRenderer besides "auto".
const (
	StyleAuto  = "auto"
	StyleDark  = "dark"
	StyleLight = "light"
	StylePlain = "notty"
)

// Renderer renders markdown for the terminal with glamour. Line breaks in
// the source are kept as hard breaks. Renderer is safe for concurrent use.
type Renderer struct {
	mu    sync.Mutex
	style string
	width int
	term  *glamour.TermRenderer
}

// NewRenderer creates a renderer wrapping at width cells.
func NewRenderer(width int, style string) (*Renderer, error) {
	r := &Renderer{style: normalizeStyle(style)}
	if err := r.rebuild(width); err != nil {
		return nil, err
	}
	return r, nil
}

func normalizeStyle(style string) string {
	switch strings.ToLower(strings.TrimSpace(style)) {
	case StyleDark:
		return StyleDark
	case StyleLight:
		return StyleLight
	case StylePlain, "plain", "none":
		return StylePlain
	default:
		return StyleAuto
	}
}

func (r *Renderer) rebuild(width int) error {
	if width <= 0 {
		width = DefaultWidth
	}
	opts := []glamour.TermRendererOption{
		glamour.WithWordWrap(width),
		glamour.WithPreservedNewLines(),
	}
	if r.style == StyleAuto {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(r.style))
	}

	term, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return err
	}
	r.term = term
	r.width = width
	return nil
}

// SetWidth changes the wrap width. The glamour renderer is rebuilt only when
// the width actually changes.
func (r *Renderer) SetWidth(width int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if width <= 0 || width == r.width {
		return nil
	}
	return r.rebuild(width)
}

// Width returns the current wrap width.
func (r *Renderer) Width() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width
}

// Render sanitizes text and renders it. Surrounding blank lines added by
// glamour are trimmed.
func (r *Renderer) Render(text string) (string, error) {
	clean := Sanitize(text)
	if strings.TrimSpace(clean) == "" {
		return "", nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	out, err := r.term.Render(clean)
	if err != nil {
		return "", err
	}
	return strings.Trim(out, "\n"), nil
}

// RenderOrPlain renders text, falling back to the sanitized source on error.
func (r *Renderer) RenderOrPlain(text string) string {
	out, err := r.Render(text)
	if err != nil {
		return Sanitize(text)
	}
	return out
}
