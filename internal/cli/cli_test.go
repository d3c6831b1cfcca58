// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/jeranaias/handbook-tui/internal/answer"
	"github.com/jeranaias/handbook-tui/internal/config"
	"github.com/jeranaias/handbook-tui/internal/storage"
)

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		bools    []string
		wantSub  string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name:    "simple subcommand",
			args:    []string{"show"},
			wantSub: "show",
		},
		{
			name:    "subcommand with flag",
			args:    []string{"export", "--format", "html"},
			wantSub: "export",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("format") != "html" {
					t.Errorf("Flag(format) = %q, want %q", p.Flag("format"), "html")
				}
			},
		},
		{
			name:    "flag with equals",
			args:    []string{"export", "--output=/tmp/out"},
			wantSub: "export",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("output") != "/tmp/out" {
					t.Errorf("Flag(output) = %q, want %q", p.Flag("output"), "/tmp/out")
				}
			},
		},
		{
			name:    "trailing boolean flag",
			args:    []string{"show", "--json"},
			wantSub: "show",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("json") {
					t.Error("BoolFlag(json) should be true")
				}
			},
		},
		{
			name:    "known bool does not eat the question",
			args:    []string{"--save", "How", "many", "tardies?"},
			bools:   []string{"save"},
			wantSub: "How",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("save") {
					t.Error("BoolFlag(save) should be true")
				}
				if got := JoinPositionalArgs(p, 0); got != "How many tardies?" {
					t.Errorf("positional = %q, want %q", got, "How many tardies?")
				}
			},
		},
		{
			name:    "bool with explicit value",
			args:    []string{"--save=false", "question"},
			bools:   []string{"save"},
			wantSub: "question",
			validate: func(t *testing.T, p *ArgParser) {
				if p.BoolFlag("save") {
					t.Error("BoolFlag(save) should be false")
				}
			},
		},
		{
			name:    "double dash ends flags",
			args:    []string{"search", "--", "--not-a-flag"},
			wantSub: "search",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Positional(1) != "--not-a-flag" {
					t.Errorf("Positional(1) = %q, want %q", p.Positional(1), "--not-a-flag")
				}
			},
		},
		{
			name:    "multiple positional args",
			args:    []string{"search", "tardy", "policy"},
			wantSub: "search",
			validate: func(t *testing.T, p *ArgParser) {
				if p.PositionalCount() != 3 {
					t.Errorf("PositionalCount() = %d, want 3", p.PositionalCount())
				}
				joined := strings.Join(p.PositionalFrom(1), " ")
				if joined != "tardy policy" {
					t.Errorf("PositionalFrom(1) joined = %q, want %q", joined, "tardy policy")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewArgParser(tt.args, tt.bools...)
			if parser.Subcommand() != tt.wantSub {
				t.Errorf("Subcommand() = %q, want %q", parser.Subcommand(), tt.wantSub)
			}
			if tt.validate != nil {
				tt.validate(t, parser)
			}
		})
	}
}

func TestArgParser_FlagIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		defaultVal int
		want       int
	}{
		{"flag present", []string{"cmd", "--limit", "10"}, 5, 10},
		{"flag missing uses default", []string{"cmd"}, 5, 5},
		{"invalid int uses default", []string{"cmd", "--limit", "abc"}, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewArgParser(tt.args).FlagIntOrDefault("limit", tt.defaultVal)
			if got != tt.want {
				t.Errorf("FlagIntOrDefault(limit, %d) = %d, want %d", tt.defaultVal, got, tt.want)
			}
		})
	}
}

func TestArgParser_HasFlag(t *testing.T) {
	parser := NewArgParser([]string{"cmd", "--verbose", "--lines", "50"})

	if !parser.HasFlag("verbose") {
		t.Error("HasFlag(verbose) should be true")
	}
	if !parser.HasFlag("--lines") {
		t.Error("HasFlag(--lines) should be true")
	}
	if parser.HasFlag("nonexistent") {
		t.Error("HasFlag(nonexistent) should be false")
	}
}

func TestArgParser_EmptyArgs(t *testing.T) {
	parser := NewArgParser([]string{})
	if parser.Subcommand() != "" {
		t.Errorf("Subcommand() = %q, want empty", parser.Subcommand())
	}
	if parser.PositionalCount() != 0 {
		t.Errorf("PositionalCount() = %d, want 0", parser.PositionalCount())
	}
}

func TestParseIntWithValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"valid positive", "42", 42, false},
		{"zero is invalid", "0", 0, true},
		{"negative is invalid", "-5", 0, true},
		{"empty is invalid", "", 0, true},
		{"non-numeric is invalid", "abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIntWithValidation(tt.input, "count")
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseIntWithValidation(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseIntWithValidation(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

// =============================================================================
// COMMAND PARSING TESTS (cli.go)
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantCommand Command
		validate    func(*testing.T, Args)
	}{
		{
			name:        "no arguments starts the tui",
			args:        nil,
			wantCommand: CmdTUI,
		},
		{
			name:        "global flags only starts the tui",
			args:        []string{"--no-reveal", "--url", "http://handbook.test"},
			wantCommand: CmdTUI,
			validate: func(t *testing.T, a Args) {
				if !a.NoReveal {
					t.Error("NoReveal should be true")
				}
				if a.URL != "http://handbook.test" {
					t.Errorf("URL = %q", a.URL)
				}
			},
		},
		{
			name:        "ask command",
			args:        []string{"ask", "How many tardies equal one absence?"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if a.Query != "How many tardies equal one absence?" {
					t.Errorf("Query = %q", a.Query)
				}
			},
		},
		{
			name:        "ask joins words and reads --save",
			args:        []string{"a", "--save", "dress", "code?"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if !a.Save {
					t.Error("Save should be true")
				}
				if a.Query != "dress code?" {
					t.Errorf("Query = %q, want %q", a.Query, "dress code?")
				}
			},
		},
		{
			name:        "bare words are a question",
			args:        []string{"What", "is", "the", "dress", "code?"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if a.Query != "What is the dress code?" {
					t.Errorf("Query = %q, want original casing", a.Query)
				}
			},
		},
		{
			name:        "global flags anywhere",
			args:        []string{"ask", "--json", "hello", "--config=/tmp/h.toml"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if !a.JSON {
					t.Error("JSON should be true")
				}
				if a.ConfigPath != "/tmp/h.toml" {
					t.Errorf("ConfigPath = %q", a.ConfigPath)
				}
				if a.Query != "hello" {
					t.Errorf("Query = %q", a.Query)
				}
			},
		},
		{
			name:        "chat with save",
			args:        []string{"chat", "--save"},
			wantCommand: CmdChat,
			validate: func(t *testing.T, a Args) {
				if !a.Save {
					t.Error("Save should be true")
				}
			},
		},
		{
			name:        "sessions search",
			args:        []string{"sessions", "SEARCH", "tardy", "policy"},
			wantCommand: CmdSessions,
			validate: func(t *testing.T, a Args) {
				if a.Subcommand != "search" {
					t.Errorf("Subcommand = %q", a.Subcommand)
				}
				if a.Query != "tardy policy" {
					t.Errorf("Query = %q", a.Query)
				}
			},
		},
		{
			name:        "export defaults to markdown",
			args:        []string{"export", "2"},
			wantCommand: CmdExport,
			validate: func(t *testing.T, a Args) {
				if a.Query != "2" || a.Format != "markdown" {
					t.Errorf("Query = %q, Format = %q", a.Query, a.Format)
				}
			},
		},
		{
			name:        "export with short flags",
			args:        []string{"export", "tr_1", "-f", "html", "-o", "/tmp"},
			wantCommand: CmdExport,
			validate: func(t *testing.T, a Args) {
				if a.Format != "html" || a.Output != "/tmp" {
					t.Errorf("Format = %q, Output = %q", a.Format, a.Output)
				}
			},
		},
		{
			name:        "config set joins the value",
			args:        []string{"config", "set", "ui.assistant_name", "Sister", "Ana"},
			wantCommand: CmdConfig,
			validate: func(t *testing.T, a Args) {
				if a.Subcommand != "set" || a.ConfigKey != "ui.assistant_name" || a.ConfigVal != "Sister Ana" {
					t.Errorf("got %q %q %q", a.Subcommand, a.ConfigKey, a.ConfigVal)
				}
			},
		},
		{name: "version", args: []string{"--version"}, wantCommand: CmdVersion},
		{name: "help", args: []string{"-h"}, wantCommand: CmdHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := ParseArgs(tt.args)
			if cmd != tt.wantCommand {
				t.Errorf("command = %v, want %v", cmd, tt.wantCommand)
			}
			if tt.validate != nil {
				tt.validate(t, args)
			}
		})
	}
}

func TestParse_UsesOSArgs(t *testing.T) {
	originalArgs := os.Args
	defer func() { os.Args = originalArgs }()

	os.Args = []string{"handbook", "sessions"}
	cmd, _ := Parse()
	if cmd != CmdSessions {
		t.Errorf("Parse() = %v, want %v", cmd, CmdSessions)
	}
}

func TestCommandString(t *testing.T) {
	if CmdExport.String() != "export" {
		t.Errorf("CmdExport.String() = %q", CmdExport.String())
	}
	if Command(99).String() != "unknown" {
		t.Errorf("Command(99).String() = %q", Command(99).String())
	}
}

// =============================================================================
// EXIT CODE TESTS (errors.go)
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("boom"), ExitGeneralError},
		{"missing argument", ErrMissingArgument("question", askUsage), ExitUsageError},
		{"not found", &NotFoundError{Resource: "transcript", ID: "x"}, ExitNotFoundError},
		{"store not found", WrapError(storage.ErrTranscriptNotFound, "load"), ExitNotFoundError},
		{"invalid config", config.ValidateErrors{{Field: "service.url", Message: "required"}}, ExitConfigError},
		{"timeout", WrapError(context.DeadlineExceeded, "ask"), ExitTimeoutError},
		{"unreachable", WrapError(answer.ErrRequestFailed, "ask"), ExitNetworkError},
		{"bad status", &answer.StatusError{Status: 502}, ExitNetworkError},
		{"failed answer", WrapError(ErrAnswerFailed, "ask"), ExitGeneralError},
		{"reported", &reportedError{err: ErrMissingArgument("x", "")}, ExitUsageError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := ErrUnsupportedFormat("pdf", []string{"markdown", "html"})
	msg := err.Error()
	if !strings.Contains(msg, "pdf") || !strings.Contains(msg, "markdown") {
		t.Errorf("Error() = %q", msg)
	}
}
