// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the line-mode commands of
// handbook.
//
// With no arguments handbook starts the full screen chat (run by main).
// Everything else is handled here:
//
//   - ask: one question, answer on stdout; exit code 1 when it fails
//   - chat: a line-editing REPL with input history
//   - sessions: list, show, search and delete saved conversations
//   - export: write a saved conversation as markdown, HTML or JSON
//   - config: show, get and set configuration values
//   - version, help
//
// Commands that print results accept --json. Usage errors exit with 2,
// missing transcripts with 7 and unreachable services with 5.
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    cli.HandleAsk(args)
//	case cli.CmdChat:
//	    cli.HandleChat(args)
//	}
package cli
