// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the handbook TUI.

# Color System (colors.go)

  - Purple - Assistant label and bubble border
  - Cyan - User label, prompts and action chips
  - Rose - Failed replies
  - Amber - Pending states

All colors are lipgloss.AdaptiveColor values, so the same palette works on
light and dark terminals.

# Theme (theme.go)

Theme bundles the lipgloss styles used by the components package. The
header has two states: Header while the transcript is near its top and
HeaderOpaque once content scrolls beneath it.

	theme := styles.NewTheme()
	theme.SetSize(width, height)
	if theme.GetLayoutMode() == styles.LayoutNarrow { ... }
*/
package styles
