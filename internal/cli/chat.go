// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat for terminals where the full screen UI is not wanted.
//
// Usage:
//
//	handbook chat [--save]
//
// Commands inside the chat:
//
//	/new, /clear    Start over with the greeting
//	/save           Save the conversation
//	/help           Show commands
//	/quit, exit     Leave
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/jeranaias/handbook-tui/internal/config"
	"github.com/jeranaias/handbook-tui/internal/conversation"
	"github.com/jeranaias/handbook-tui/internal/model"
	"github.com/jeranaias/handbook-tui/internal/storage"
)

// historyFileName is the liner history file in the config directory.
const historyFileName = "chat_history"

const chatPrompt = "you> "

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader reads one line of user input.
type lineReader interface {
	ReadInput(prompt string) (string, error)
	Close()
}

// ChatCLI provides input history and line editing for the chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI and loads the saved history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, historyFileName),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line with history navigation.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes the history file, owner read/write only.
func (c *ChatCLI) SaveHistory() {
	if _, err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT LOOP
// =============================================================================

// chatOptions are the inputs of a chat run.
type chatOptions struct {
	Answerer conversation.Answerer
	Config   *config.Config
	Logger   *zap.Logger

	// Store is set when the conversation is saved as it goes.
	Store *storage.Store

	// OpenStore opens a store on demand for /save.
	OpenStore func() (*storage.Store, error)

	Input lineReader
	Out   io.Writer
	TTY   bool
	Quiet bool
}

// chatState is the running REPL.
type chatState struct {
	opts     chatOptions
	session  *conversation.Session
	printer  *replyPrinter
	recorder *storage.Recorder
	asked    int
}

// HandleChatCommand runs the line-mode chat until the user leaves.
func HandleChatCommand(args Args) error {
	env, err := NewEnv(args)
	if err != nil {
		return err
	}
	defer env.Close()

	opts := chatOptions{
		Answerer:  env.Client,
		Config:    env.Config,
		Logger:    env.Logger,
		OpenStore: env.OpenStore,
		Out:       os.Stdout,
		TTY:       IsStdoutTTY(),
		Quiet:     args.Quiet,
	}
	if args.Save || env.Config.Storage.AutoSave {
		store, err := env.OpenStore()
		if err != nil {
			return err
		}
		opts.Store = store
	}

	input := NewChatCLI()
	defer input.Close()
	opts.Input = input

	return runChat(context.Background(), opts)
}

func runChat(ctx context.Context, opts chatOptions) error {
	transcript := conversation.NewSeededTranscript(opts.Config.UI.AssistantName)
	c := &chatState{
		opts:    opts,
		session: conversation.NewSession(transcript, opts.Answerer, conversation.WithLogger(opts.Logger)),
		printer: newReplyPrinter(opts.Out, opts.TTY, opts.Config),
	}

	if opts.Store != nil {
		c.recorder = c.newRecorder(opts.Store)
		detach := c.recorder.Attach()
		defer detach()
	}

	c.printWelcome(ctx)

	for {
		input, err := opts.Input.ReadInput(chatPrompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(opts.Out)
				c.printExitSummary()
				return nil
			}
			return WrapError(err, "failed to read input")
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			c.printExitSummary()
			return nil
		}

		if strings.HasPrefix(input, "/") {
			if !c.handleSlashCommand(ctx, input) {
				c.printExitSummary()
				return nil
			}
			continue
		}

		if action, ok := c.suggestion(input); ok {
			fmt.Fprintln(opts.Out, DimStyle.Render("> "+action.Label))
			c.ask(ctx, func(callCtx context.Context) conversation.Outcome {
				return c.session.Execute(callCtx, action)
			})
			continue
		}

		c.ask(ctx, func(callCtx context.Context) conversation.Outcome {
			return c.session.Submit(callCtx, input)
		})
	}
}

// ask runs one submission. Ctrl+C while waiting cancels the call, which
// yields the apology, and leaves the chat running.
func (c *chatState) ask(ctx context.Context, submit func(context.Context) conversation.Outcome) {
	callCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	var status *termenv.Output
	if c.opts.TTY {
		status = termenv.NewOutput(c.opts.Out)
		_, _ = status.WriteString(DimStyle.Render("Thinking..."))
	}
	outcome := submit(callCtx)
	if status != nil {
		status.ClearLine()
		_, _ = status.WriteString("\r")
	}
	if outcome.Skipped {
		return
	}

	c.asked++
	c.printer.Label()
	c.printer.Print(callCtx, outcome.Reply)
	printSuggestions(c.opts.Out, outcome.Reply.VisibleActions())
	fmt.Fprintln(c.opts.Out)
}

// suggestion resolves a bare number to a suggested question of the newest
// message that offers any.
func (c *chatState) suggestion(input string) (model.Action, bool) {
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > 9 {
		return model.Action{}, false
	}
	msgs := c.session.Transcript().Snapshot()
	for i := len(msgs) - 1; i >= 0; i-- {
		actions := msgs[i].VisibleActions()
		if len(actions) == 0 {
			continue
		}
		if n > len(actions) {
			return model.Action{}, false
		}
		return actions[n-1], true
	}
	return model.Action{}, false
}

// handleSlashCommand runs a /command and reports whether to keep going.
func (c *chatState) handleSlashCommand(ctx context.Context, input string) bool {
	fields := strings.Fields(input)
	switch strings.ToLower(strings.TrimPrefix(fields[0], "/")) {
	case "quit", "exit", "q":
		return false
	case "new", "clear":
		c.session.Reset()
		c.printWelcome(ctx)
	case "save":
		c.save()
	case "help", "h", "?":
		c.printHelp()
	default:
		fmt.Fprintf(c.opts.Out, "%s Unknown command: %s (try /help)\n", WarningStyle.Render("[WARN]"), fields[0])
	}
	return true
}

func (c *chatState) save() {
	if c.recorder == nil {
		if c.opts.OpenStore == nil {
			fmt.Fprintln(c.opts.Out, WarningStyle.Render("Saving is disabled"))
			return
		}
		store, err := c.opts.OpenStore()
		if err != nil {
			fmt.Fprintf(c.opts.Out, "%s %v\n", ErrorStyle.Render("[ERROR]"), err)
			return
		}
		c.recorder = c.newRecorder(store)
	}

	id, err := c.recorder.Save()
	switch {
	case errors.Is(err, storage.ErrNothingToSave):
		fmt.Fprintln(c.opts.Out, DimStyle.Render("Nothing to save yet"))
	case err != nil:
		fmt.Fprintf(c.opts.Out, "%s save failed: %v\n", ErrorStyle.Render("[ERROR]"), err)
	default:
		fmt.Fprintln(c.opts.Out, SuccessStyle.Render("Saved "+id))
	}
}

func (c *chatState) newRecorder(store *storage.Store) *storage.Recorder {
	rec := storage.NewRecorder(store, c.session.Transcript())
	rec.Assistant = c.opts.Config.UI.AssistantName
	rec.Service = c.opts.Config.Service.URL
	rec.OnError = func(err error) {
		c.opts.Logger.Warn("auto-save failed", zap.Error(err))
	}
	return rec
}

// =============================================================================
// OUTPUT
// =============================================================================

func (c *chatState) printWelcome(ctx context.Context) {
	out := c.opts.Out
	if !c.opts.Quiet {
		fmt.Fprintln(out)
		fmt.Fprintln(out, TitleStyle.Render("Student handbook chat"))
		fmt.Fprintln(out, RenderSeparator(30))
	}

	if greeting, ok := c.session.Transcript().Last(); ok {
		c.printer.Label()
		c.printer.Print(ctx, greeting)
		printSuggestions(out, greeting.VisibleActions())
	}

	if !c.opts.Quiet {
		fmt.Fprintln(out)
		fmt.Fprintln(out, DimStyle.Render("Type a question, a number to ask a suggestion, /help for commands."))
	}
	fmt.Fprintln(out)
}

func (c *chatState) printHelp() {
	out := c.opts.Out
	fmt.Fprintln(out)
	fmt.Fprintln(out, TitleStyle.Render("Commands"))
	fmt.Fprintln(out, RenderSeparator(20))

	commands := []struct {
		cmd  string
		desc string
	}{
		{"1-9", "Ask a suggested question"},
		{"/new, /clear", "Start over"},
		{"/save", "Save the conversation"},
		{"/help", "Show this help"},
		{"/quit, exit", "Leave the chat"},
	}
	for _, cmd := range commands {
		fmt.Fprintf(out, "  %s %s\n", PromptStyle.Render(fmt.Sprintf("%-14s", cmd.cmd)), cmd.desc)
	}
	fmt.Fprintln(out)
}

func (c *chatState) printExitSummary() {
	out := c.opts.Out
	if c.asked > 0 && !c.opts.Quiet {
		noun := "questions"
		if c.asked == 1 {
			noun = "question"
		}
		fmt.Fprintln(out, DimStyle.Render(fmt.Sprintf("Asked %d %s.", c.asked, noun)))
	}
	if c.recorder != nil && c.recorder.ID() != "" {
		fmt.Fprintln(out, DimStyle.Render("Saved as "+c.recorder.ID()))
	}
	fmt.Fprintln(out, "Goodbye!")
}
