// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sessions.go - Saved conversation commands: sessions and export.
//
// Usage:
//
//	handbook sessions [list]
//	handbook sessions show <id|#>
//	handbook sessions search <text>
//	handbook sessions delete <id|#>
//	handbook export <id|#> [--format markdown|html|json] [--output DIR]
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/handbook-tui/internal/export"
	"github.com/jeranaias/handbook-tui/internal/model"
	"github.com/jeranaias/handbook-tui/internal/storage"
)

// HandleSessionsCommand runs a sessions subcommand.
func HandleSessionsCommand(args Args) error {
	cfg, _, err := LoadConfig(args)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	return runSessions(store, args, os.Stdout)
}

func runSessions(store *storage.Store, args Args, out io.Writer) error {
	switch args.Subcommand {
	case "", "list", "ls":
		metas, err := store.List()
		if err != nil {
			return err
		}
		return printMetas("sessions", metas, args.JSON, out)

	case "show", "view":
		t, err := findTranscript(store, args.Query, "handbook sessions show 1")
		if err != nil {
			return err
		}
		if args.JSON {
			return NewJSONResponse("sessions show", t).Write(out)
		}
		printTranscript(out, t)
		return nil

	case "search", "find":
		if args.Query == "" {
			return ErrMissingArgument("query", "handbook sessions search tardies")
		}
		metas, err := store.Search(args.Query)
		if err != nil {
			return err
		}
		return printMetas("sessions search", metas, args.JSON, out)

	case "delete", "rm":
		t, err := findTranscript(store, args.Query, "handbook sessions delete 1")
		if err != nil {
			return err
		}
		if err := store.Delete(t.ID); err != nil {
			return NewCommandError("sessions", "delete", t.ID, err)
		}
		if args.JSON {
			return NewJSONResponse("sessions delete", map[string]string{"id": t.ID}).Write(out)
		}
		fmt.Fprintf(out, "%s %s\n", SuccessStyle.Render("Deleted"), t.ID)
		return nil

	default:
		return &ValidationError{
			Field:   "subcommand",
			Value:   args.Subcommand,
			Reason:  "unknown sessions command",
			Example: "handbook sessions [list|show|search|delete]",
		}
	}
}

func findTranscript(store *storage.Store, ref, usage string) (*storage.StoredTranscript, error) {
	if ref == "" {
		return nil, ErrMissingArgument("transcript", usage)
	}
	t, err := store.Find(ref)
	if errors.Is(err, storage.ErrTranscriptNotFound) {
		return nil, &NotFoundError{Resource: "transcript", ID: ref}
	}
	return t, err
}

func printMetas(command string, metas []storage.TranscriptMeta, jsonMode bool, out io.Writer) error {
	if jsonMode {
		if metas == nil {
			metas = []storage.TranscriptMeta{}
		}
		return NewJSONResponse(command, SessionsData{Transcripts: metas, Count: len(metas)}).Write(out)
	}
	fmt.Fprint(out, storage.FormatList(metas))
	if len(metas) == 0 {
		fmt.Fprintln(out)
	}
	return nil
}

func printTranscript(out io.Writer, t *storage.StoredTranscript) {
	fmt.Fprintln(out, TitleStyle.Render(t.Title))
	fmt.Fprintf(out, "%s %s\n", RenderLabel("ID:"), t.ID)
	fmt.Fprintf(out, "%s %s\n", RenderLabel("Updated:"), t.UpdatedAt.Format("2006-01-02 15:04"))
	if t.Service != "" {
		fmt.Fprintf(out, "%s %s\n", RenderLabel("Service:"), t.Service)
	}
	fmt.Fprintln(out, RenderSeparator())

	for _, msg := range t.Messages {
		label := msg.Role.DisplayName()
		if msg.Role == model.RoleAssistant && t.Assistant != "" {
			label = t.Assistant
		}
		style := PromptStyle
		if msg.Role == model.RoleAssistant {
			style = AssistantStyle
		}
		fmt.Fprintln(out, style.Render(label+":"))
		if msg.IsFailed() {
			fmt.Fprintln(out, ErrorStyle.Render(msg.Content))
		} else {
			fmt.Fprintln(out, msg.Content)
		}
		fmt.Fprintln(out)
	}
}

// =============================================================================
// EXPORT
// =============================================================================

// HandleExportCommand exports a saved conversation to a file.
func HandleExportCommand(args Args) error {
	cfg, _, err := LoadConfig(args)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	return runExport(store, args, os.Stdout)
}

func runExport(store *storage.Store, args Args, out io.Writer) error {
	t, err := findTranscript(store, args.Query, "handbook export 1 --format html")
	if err != nil {
		return err
	}

	opts := export.DefaultOptions()
	if args.Output != "" {
		opts.OutputDir = args.Output
	}
	exporter, err := export.New(args.Format, opts)
	if err != nil {
		return ErrUnsupportedFormat(args.Format, export.Formats)
	}

	path, err := export.ExportToFile(t, exporter, opts)
	if err != nil {
		return NewCommandError("export", "write", t.ID, err)
	}

	if args.JSON {
		return NewJSONResponse("export", ExportData{ID: t.ID, Format: args.Format, Path: path}).Write(out)
	}
	fmt.Fprintf(out, "%s %s\n", SuccessStyle.Render("Exported to"), path)
	return nil
}
