// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/handbook-tui/internal/export"
	"github.com/jeranaias/handbook-tui/internal/storage"
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// CommandHandler is a function that handles a slash command.
type CommandHandler func(m *Model, args []string) (tea.Model, tea.Cmd)

// commandHandlers maps command names to their handlers.
var commandHandlers = map[string]CommandHandler{
	"new":    handleNewCommand,
	"clear":  handleNewCommand,
	"save":   handleSaveCommand,
	"export": handleExportCommand,
	"help":   handleHelpCommand,
	"quit":   handleQuitCommand,
	"exit":   handleQuitCommand,
	"q":      handleQuitCommand,
}

// handleCommand parses "/name args..." and dispatches it.
func (m *Model) handleCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(strings.TrimPrefix(input, "/"))
	if len(fields) == 0 {
		return m, m.notify("Type /help for commands", true)
	}

	name := strings.ToLower(fields[0])
	handler, ok := commandHandlers[name]
	if !ok {
		return m, m.notify("Unknown command: /"+name, true)
	}
	return handler(m, fields[1:])
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

func handleNewCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	return m, m.resetConversation()
}

func handleHelpCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	m.showHelp = !m.showHelp
	return m, nil
}

func handleQuitCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	return m, m.quit()
}

func handleSaveCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	if m.recorder == nil {
		return m, m.notify("Saving is disabled", true)
	}
	if m.transcript.IsSeedState() {
		return m, m.notify("Nothing to save yet", true)
	}
	rec := m.recorder
	return m, func() tea.Msg {
		id, err := rec.Save()
		return SavedMsg{ID: id, Err: err}
	}
}

func handleExportCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	format := "markdown"
	if len(args) > 0 {
		format = args[0]
	}

	exporter, err := export.New(format, m.exportOpts)
	if err != nil {
		return m, m.notify("Formats: "+strings.Join(export.Formats, ", "), true)
	}

	snap := storage.NewStoredTranscript(m.transcript.Snapshot())
	if m.recorder != nil {
		snap.ID = m.recorder.ID()
	}
	snap.Assistant = m.assistantName
	snap.Title = snap.Preview(50)
	if snap.Title == "" {
		snap.Title = "conversation"
	}

	opts := *m.exportOpts
	return m, func() tea.Msg {
		path, err := export.ExportToFile(snap, exporter, &opts)
		if errors.Is(err, export.ErrEmptyTranscript) {
			err = errors.New("nothing to export")
		}
		return ExportedMsg{Path: path, Err: err}
	}
}
