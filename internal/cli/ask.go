// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command.
//
// Usage:
//
//	handbook ask "How many tardies equal one absence?"
//	echo "How many tardies equal one absence?" | handbook ask
//	handbook ask --save --json "..."
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/jeranaias/handbook-tui/internal/config"
	"github.com/jeranaias/handbook-tui/internal/conversation"
	"github.com/jeranaias/handbook-tui/internal/model"
	"github.com/jeranaias/handbook-tui/internal/storage"
)

// maxStdinQuestion bounds a question read from a pipe.
const maxStdinQuestion = 64 * 1024

const askUsage = `handbook ask "How many tardies equal one absence?"`

// askOptions are the inputs of one ask run.
type askOptions struct {
	Question string
	Answerer conversation.Answerer
	Config   *config.Config
	Logger   *zap.Logger

	// Store is set when the exchange should be saved.
	Store *storage.Store

	JSON  bool
	Quiet bool
	TTY   bool
	Out   io.Writer
	Err   io.Writer
}

// HandleAskCommand asks one question and prints the answer.
func HandleAskCommand(args Args) error {
	question := strings.TrimSpace(args.Query)
	if question == "" && !IsTTY() {
		data, err := io.ReadAll(io.LimitReader(os.Stdin, maxStdinQuestion))
		if err != nil {
			return WrapError(err, "failed to read question from stdin")
		}
		question = strings.TrimSpace(string(data))
	}
	if question == "" {
		return ErrMissingArgument("question", askUsage)
	}

	env, err := NewEnv(args)
	if err != nil {
		return err
	}
	defer env.Close()

	opts := askOptions{
		Question: question,
		Answerer: env.Client,
		Config:   env.Config,
		Logger:   env.Logger,
		JSON:     args.JSON,
		Quiet:    args.Quiet,
		TTY:      IsStdoutTTY() && !args.JSON,
		Out:      os.Stdout,
		Err:      os.Stderr,
	}
	if args.Save || env.Config.Storage.AutoSave {
		store, err := env.OpenStore()
		if err != nil {
			return err
		}
		opts.Store = store
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runAsk(ctx, opts)
}

func runAsk(ctx context.Context, opts askOptions) error {
	transcript := model.NewTranscript()
	session := conversation.NewSession(transcript, opts.Answerer, conversation.WithLogger(opts.Logger))

	outcome := session.Submit(ctx, opts.Question)
	if outcome.Skipped {
		return ErrMissingArgument("question", askUsage)
	}

	var savedID string
	if opts.Store != nil {
		rec := storage.NewRecorder(opts.Store, transcript)
		rec.Assistant = opts.Config.UI.AssistantName
		rec.Service = opts.Config.Service.URL
		id, err := rec.Save()
		if err != nil {
			opts.Logger.Warn("transcript not saved", zap.Error(err))
			fmt.Fprintf(opts.Err, "%s transcript not saved: %v\n", WarningStyle.Render("[WARN]"), err)
		}
		savedID = id
	}

	var failure error
	if outcome.Failed() {
		failure = fmt.Errorf("%w: %v", ErrAnswerFailed, outcome.Err)
	}

	if opts.JSON {
		data := AskData{
			Question:     opts.Question,
			Answer:       outcome.Reply.Content,
			Failed:       outcome.Failed(),
			DurationMs:   outcome.Latency.Milliseconds(),
			Service:      opts.Config.Service.URL,
			TranscriptID: savedID,
		}
		if outcome.Err != nil {
			data.Error = outcome.Err.Error()
		}
		resp := NewJSONResponse("ask", data)
		if failure != nil {
			msg := failure.Error()
			resp.Success = false
			resp.Error = &msg
		}
		if err := resp.Write(opts.Out); err != nil {
			return err
		}
		if failure != nil {
			return &reportedError{err: failure}
		}
		return nil
	}

	printer := newReplyPrinter(opts.Out, opts.TTY, opts.Config)
	printer.Label()
	printer.Print(ctx, outcome.Reply)

	if savedID != "" && !opts.Quiet {
		fmt.Fprintln(opts.Err, DimStyle.Render("Saved as "+savedID))
	}
	return failure
}
