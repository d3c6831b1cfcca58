// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing and top-level handlers for handbook.
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdSessions
	CmdExport
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name as typed.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdSessions:
		return "sessions"
	case CmdExport:
		return "export"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath string // --config FILE
	URL        string // --url overrides service.url
	NoReveal   bool   // --no-reveal prints replies at once
	Quiet      bool
	Debug      bool // --debug logs to stderr
	JSON       bool // --json prints machine-readable output

	// Command-specific
	Query      string
	Subcommand string
	ConfigKey  string
	ConfigVal  string
	Format     string
	Output     string
	Save       bool // chat/ask: keep the transcript

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `handbook - ask the student handbook from your terminal

Usage:
  handbook                       Start the chat screen (default)
  handbook ask "question"        Ask a single question
  handbook <question...>         Same as ask
  handbook chat                  Line-mode chat
  handbook sessions [list]       List saved conversations
  handbook sessions show <id>    Print a saved conversation
  handbook sessions search <q>   Search saved conversations
  handbook sessions delete <id>  Delete a saved conversation
  handbook export <id|#>         Export a saved conversation
    --format markdown|html|json  Export format (default: markdown)
    --output DIR                 Output directory (default: .)
  handbook config [show]         Print the effective configuration
  handbook config get <key>      Print one setting (e.g. reveal.step)
  handbook config set <key> <v>  Change a setting in config.toml
  handbook config keys           List the settable keys
  handbook config reset          Write the defaults over config.toml
  handbook config path           Print the config file location
  handbook config init           Write a config.toml with the defaults
  handbook version               Show version
  handbook help                  Show this help

Global Flags:
  --config FILE   Read configuration from FILE
  --url URL       Answering service base URL
  --no-reveal     Print replies at once instead of typing them out
  --json          JSON output (ask, sessions, export, version)
  --debug         Log to stderr
  -q, --quiet     Less output

Chat and ask:
  --save          Save the conversation to ~/.handbook/transcripts

Environment:
  HANDBOOK_API_URL (or VITE_API_URL), HANDBOOK_TIMEOUT, HANDBOOK_NO_REVEAL,
  HANDBOOK_ASSISTANT, HANDBOOK_THEME, HANDBOOK_LOG_LEVEL, HANDBOOK_LOG_PATH,
  HANDBOOK_STORAGE_DIR. A .env file in the working directory is read too.

Inside the chat screen:
  Enter sends, 1-9 asks a suggested question, Tab cycles suggestions,
  /new starts over, /save, /export, /help, Ctrl+C quits.
`

// PrintUsage prints the usage text.
func PrintUsage() {
	fmt.Print(usageText)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("handbook %s (commit %s, built %s, %s)\n", Version, GitCommit, BuildDate, runtime.Version())
}

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses argv (without the program name). An empty argv starts the TUI.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(argv)
	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	first := remaining[0]
	cmd := strings.ToLower(first)
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "ask", "a":
		parseAskArgs(&parsedArgs, remaining)
		return CmdAsk, parsedArgs

	case "chat", "c":
		parseChatArgs(&parsedArgs, remaining)
		return CmdChat, parsedArgs

	case "sessions", "session", "history":
		parseSessionsArgs(&parsedArgs, remaining)
		return CmdSessions, parsedArgs

	case "export":
		parseExportArgs(&parsedArgs, remaining)
		return CmdExport, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Anything else is a question: `handbook how many tardies?`
		parsedArgs.Raw = append([]string{first}, remaining...)
		parsedArgs.Query = strings.Join(parsedArgs.Raw, " ")
		return CmdAsk, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns the rest.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--no-reveal":
			parsedArgs.NoReveal = true
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "--debug":
			parsedArgs.Debug = true
		case "--json":
			parsedArgs.JSON = true
		case "--config":
			if i+1 < len(args) {
				i++
				parsedArgs.ConfigPath = args[i]
			}
		case "--url":
			if i+1 < len(args) {
				i++
				parsedArgs.URL = args[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--config="):
				parsedArgs.ConfigPath = strings.TrimPrefix(arg, "--config=")
			case strings.HasPrefix(arg, "--url="):
				parsedArgs.URL = strings.TrimPrefix(arg, "--url=")
			default:
				remaining = append(remaining, arg)
			}
		}
	}
	return remaining, parsedArgs
}

// parseAskArgs collects the question and --save.
func parseAskArgs(args *Args, remaining []string) {
	p := NewArgParser(remaining, "save", "s")
	args.Save = p.BoolFlag("save", "s")
	args.Query = JoinPositionalArgs(p, 0)
}

// parseChatArgs parses chat command specific arguments.
func parseChatArgs(args *Args, remaining []string) {
	p := NewArgParser(remaining, "save", "s")
	args.Save = p.BoolFlag("save", "s")
}

// parseSessionsArgs reads "sessions [list|show|search|delete] [arg...]".
func parseSessionsArgs(args *Args, remaining []string) {
	p := NewArgParser(remaining)
	args.Subcommand = strings.ToLower(p.Subcommand())
	args.Query = JoinPositionalArgs(p, 1)
	args.Format = p.Flag("format", "f")
}

// parseExportArgs reads "export <ref> [--format F] [--output DIR]".
func parseExportArgs(args *Args, remaining []string) {
	p := NewArgParser(remaining)
	args.Query = p.Subcommand()
	args.Format = p.FlagOrDefault("format", "")
	if args.Format == "" {
		args.Format = p.FlagOrDefault("f", "markdown")
	}
	args.Output = p.Flag("output", "o")
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = strings.ToLower(remaining[0])
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = strings.Join(remaining[2:], " ")
		}
	}
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// HandleAsk handles the "ask" command.
func HandleAsk(args Args) {
	exitOnError(args, HandleAskCommand(args))
}

// HandleChat handles the "chat" command.
func HandleChat(args Args) {
	exitOnError(args, HandleChatCommand(args))
}

// HandleSessions handles the "sessions" command.
func HandleSessions(args Args) {
	exitOnError(args, HandleSessionsCommand(args))
}

// HandleExport handles the "export" command.
func HandleExport(args Args) {
	exitOnError(args, HandleExportCommand(args))
}

// HandleConfig handles the "config" command.
func HandleConfig(args Args) {
	exitOnError(args, HandleConfigCommand(args))
}

// HandleVersion handles the "version" command with JSON output support.
func HandleVersion(args Args) {
	if args.JSON {
		_ = NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}).Print()
		return
	}
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}

func exitOnError(args Args, err error) {
	if err == nil {
		return
	}
	DisplayError(err, args.JSON)
	os.Exit(GetExitCode(err))
}
