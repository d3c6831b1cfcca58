// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the handbook TUI.
// All colors use Lip Gloss AdaptiveColor for automatic light/dark detection.
package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// PRIMARY ACCENT COLORS
// =============================================================================

// Purple - Primary accent, assistant messages, selections
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Cyan - Brand color, info, commands, user highlights
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Emerald - Success states
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Rose - Failed replies, errors
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Warnings, pending states
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// =============================================================================
// SURFACE COLORS
// =============================================================================

// SurfaceDim - Opaque header background
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}

// Overlay - Borders, separators, subtle backgrounds
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

// OverlayDim - Dimmer overlay for less prominent elements
var OverlayDim = lipgloss.AdaptiveColor{Light: "#D4D4D4", Dark: "#45475A"}

// =============================================================================
// TEXT COLORS
// =============================================================================

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextSecondary - Labels, less prominent text
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}

// TextMuted - Hints, timestamps, very subtle text
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// =============================================================================
// MESSAGE BUBBLE COLORS
// =============================================================================

// User message bubble - Blue tones
var UserBubbleFg = lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#E0F2FE"}
var UserBubbleBorder = lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#3B82F6"}

// Assistant message bubble - Soft violet tones
var AssistantBubbleFg = lipgloss.AdaptiveColor{Light: "#5B4B8A", Dark: "#E9E4F5"}
var AssistantBubbleBorder = lipgloss.AdaptiveColor{Light: "#C4B5FD", Dark: "#A78BFA"}

// Failed reply - Rose tones
var FailedBubbleFg = lipgloss.AdaptiveColor{Light: "#991B1B", Dark: "#FECACA"}

// Action chips
var ChipFg = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#A5F3FC"}
var ChipBorder = lipgloss.AdaptiveColor{Light: "#67E8F9", Dark: "#155E75"}

// =============================================================================
// ACCESSIBILITY: Shapes alongside color
// =============================================================================

// StatusIndicatorSet contains text indicators for message states.
type StatusIndicatorSet struct {
	Error   string
	Pending string
	Info    string
}

// StatusIndicators are ASCII-only so they survive any terminal.
var StatusIndicators = StatusIndicatorSet{
	Error:   "[X]",
	Pending: "[ ]",
	Info:    "[i]",
}

// RenderError renders an error line with an X mark indicator.
func RenderError(message string) string {
	return lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true).
		Render(StatusIndicators.Error + " " + message)
}

// RenderInfo renders an info line with an info indicator.
func RenderInfo(message string) string {
	return lipgloss.NewStyle().
		Foreground(Cyan).
		Render(StatusIndicators.Info + " " + message)
}
