// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styles for the line-mode commands.
package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/handbook-tui/internal/ui/styles"
)

// init matches lipgloss to the output: plain when piped or NO_COLOR is set.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Purple)

	// PromptStyle is the chat prompt.
	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Cyan)

	// AssistantStyle labels assistant replies.
	AssistantStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Purple)

	// LabelStyle is used for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(16)

	// SuccessStyle is used for success messages
	SuccessStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Bold(true)

	// ErrorStyle is used for error messages and failures
	ErrorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	// WarningStyle is used for warnings
	WarningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	// DimStyle is used for secondary information and hints
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	// SeparatorStyle is used for visual separators
	SeparatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// RenderSeparator renders a horizontal rule, 60 cells unless a width is given.
func RenderSeparator(width ...int) string {
	w := 60
	if len(width) > 0 && width[0] > 0 {
		w = width[0]
	}
	return SeparatorStyle.Render(strings.Repeat("-", w))
}

// RenderLabel renders "label" padded for key/value listings.
func RenderLabel(label string) string {
	return LabelStyle.Render(label)
}
