// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the keyboard bindings for the chat interface.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Home      key.Binding
	End       key.Binding
	Submit    key.Binding
	NextChip  key.Binding
	PrevChip  key.Binding
	PickChip  key.Binding
	Cancel    key.Binding
	Help      key.Binding
	NewChat   key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default key bindings for the chat interface.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("up", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("down", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp/C-u", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("PgDn/C-d", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("Home", "go to top"),
		),
		End: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("End", "go to bottom"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send / pick suggestion"),
		),
		NextChip: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "next suggestion"),
		),
		PrevChip: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-Tab", "previous suggestion"),
		),
		PickChip: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "ask a suggestion (empty input)"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "close help / clear selection"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "toggle help"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new conversation"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// bindings returns the bindings in help order.
func (k KeyMap) bindings() []key.Binding {
	return []key.Binding{
		k.Submit, k.PickChip, k.NextChip, k.PrevChip,
		k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End,
		k.Cancel, k.Help, k.NewChat, k.Quit,
	}
}

// commandHelp lists the slash commands shown in the help overlay.
var commandHelp = [][2]string{
	{"/new", "start over with the greeting"},
	{"/save", "save this conversation"},
	{"/export [markdown|html|json]", "export this conversation"},
	{"/help", "toggle this help"},
	{"/quit", "leave"},
}

// HelpText renders the key bindings and commands as two aligned columns.
func (k KeyMap) HelpText() string {
	var sb strings.Builder
	sb.WriteString("Keys\n")
	for _, b := range k.bindings() {
		h := b.Help()
		sb.WriteString("  " + padRight(h.Key, 12) + h.Desc + "\n")
	}
	sb.WriteString("\nCommands\n")
	for _, c := range commandHelp {
		sb.WriteString("  " + padRight(c[0], 30) + c[1] + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s + " "
	}
	return s + strings.Repeat(" ", n-len(s))
}
