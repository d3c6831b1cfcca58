// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/handbook-tui/internal/ui/styles"
	"github.com/jeranaias/handbook-tui/internal/util"
)

// =============================================================================
// HEADER COMPONENT - Title bar with a transparency toggle
// =============================================================================

// DefaultTitle is the application title shown in the header.
const DefaultTitle = "Handbook Assistant"

// Header represents the title bar. It is transparent while the transcript
// is near its top and opaque once content scrolls underneath.
type Header struct {
	Title       string
	Subtitle    string
	Width       int
	Transparent bool
	theme       *styles.Theme
}

// NewHeader creates a new Header component with default values.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title:       DefaultTitle,
		Width:       80,
		Transparent: true,
		theme:       theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetTransparent switches between the transparent and opaque styles.
func (h *Header) SetTransparent(transparent bool) {
	h.Transparent = transparent
}

// Height returns the number of lines View produces.
func (h *Header) Height() int {
	return lipgloss.Height(h.View())
}

// View renders the header.
func (h *Header) View() string {
	width := h.Width
	if width < 20 {
		width = 20
	}

	title := h.theme.HeaderTitle.Render(h.Title)
	if h.Subtitle != "" {
		room := width - lipgloss.Width(title) - 5
		if room > 3 {
			title += "  " + h.theme.HeaderSubtitle.Render(util.TruncateWidth(h.Subtitle, room))
		}
	}

	style := h.theme.HeaderOpaque
	if h.Transparent {
		style = h.theme.Header
	}
	return style.Width(width).Render(title)
}
