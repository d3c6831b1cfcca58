// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation runs question/answer cycles against a transcript.
//
// A Session owns the submission pipeline: it validates input, captures the
// history of completed turns, appends the user message and a pending
// placeholder, calls the answer service and reconciles the placeholder with
// the outcome. Event loops split a cycle into Begin, Call and Resolve so the
// blocking call can run off the loop; everything else uses Submit.
package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/handbook-tui/internal/model"
	"github.com/jeranaias/handbook-tui/internal/util"
)

// ApologyText replaces the placeholder when a call fails.
const ApologyText = "Sorry, I encountered an error. Please try again."

// errEmptyAnswer is used when an answerer reports success with blank text.
var errEmptyAnswer = errors.New("empty answer")

// Answerer produces an answer for a question given prior completed turns.
type Answerer interface {
	Answer(ctx context.Context, question string, history []model.Turn) (string, error)
}

// AnswererFunc adapts a function to the Answerer interface.
type AnswererFunc func(ctx context.Context, question string, history []model.Turn) (string, error)

// Answer calls f.
func (f AnswererFunc) Answer(ctx context.Context, question string, history []model.Turn) (string, error) {
	return f(ctx, question, history)
}

// Request is an in-flight submission created by Begin.
type Request struct {
	// Utterance is the trimmed question text.
	Utterance string

	// History holds the completed turns that preceded this submission.
	History []model.Turn

	// UserIndex and PlaceholderIndex are the transcript positions appended by Begin.
	UserIndex        int
	PlaceholderIndex int

	// PlaceholderID identifies the pending message this request resolves.
	PlaceholderID string

	epoch   uint64
	started time.Time
}

// Outcome reports how a submission ended.
type Outcome struct {
	// Skipped is set when the input was empty or the action was not recognized.
	Skipped bool

	// Stale is set when the transcript was reset before the answer arrived.
	Stale bool

	// Reply is the finalized assistant message.
	Reply model.Message

	// Err is the service error, if any. It has already been converted into
	// a failed reply and is reported for logging only.
	Err error

	Latency time.Duration
}

// Failed reports whether the reply is the apology.
func (o Outcome) Failed() bool {
	return o.Reply.IsFailed()
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Session binds a transcript to an answerer.
type Session struct {
	transcript *model.Transcript
	answerer   Answerer
	logger     *zap.Logger

	mu    sync.Mutex
	epoch uint64
}

// NewSession creates a session over transcript.
func NewSession(transcript *model.Transcript, answerer Answerer, opts ...Option) *Session {
	s := &Session{
		transcript: transcript,
		answerer:   answerer,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transcript returns the message store this session writes to.
func (s *Session) Transcript() *model.Transcript {
	return s.transcript
}

// Submit runs a full cycle for utterance. Service failures are never
// returned as errors; they become a failed reply in the transcript.
func (s *Session) Submit(ctx context.Context, utterance string) Outcome {
	req, ok := s.Begin(utterance)
	if !ok {
		return Outcome{Skipped: true}
	}
	answer, err := s.Call(ctx, req)
	return s.Resolve(req, answer, err)
}

// Begin validates utterance, captures history and appends the user message
// with a pending placeholder. It returns false for blank input, in which
// case nothing is appended.
func (s *Session) Begin(utterance string) (Request, bool) {
	text := strings.TrimSpace(utterance)
	if text == "" {
		return Request{}, false
	}

	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	// History is taken before the append so it never contains this
	// submission's own messages.
	history := model.Turns(s.transcript.Snapshot())

	placeholder := model.NewPlaceholder()
	userIdx, placeholderIdx := s.transcript.AppendPair(model.NewUserMessage(text), placeholder)

	s.logger.Info("submission started",
		zap.String("placeholder_id", placeholder.ID),
		zap.Int("history_turns", len(history)),
		zap.Int("utterance_runes", util.RuneLen(text)),
	)

	return Request{
		Utterance:        text,
		History:          history,
		UserIndex:        userIdx,
		PlaceholderIndex: placeholderIdx,
		PlaceholderID:    placeholder.ID,
		epoch:            epoch,
		started:          time.Now(),
	}, true
}

// Call asks the answerer for req. It blocks and is safe to run from a goroutine.
func (s *Session) Call(ctx context.Context, req Request) (string, error) {
	return s.answerer.Answer(ctx, req.Utterance, req.History)
}

// Resolve reconciles req with the answer or error. The pending placeholder
// created by Begin is finalized in place. When other messages landed after
// it (overlapping Begins, which the TUI and REPL never issue) the reply
// still goes into that placeholder, so no placeholder is left pending. Only
// when the placeholder is gone is a fresh assistant message appended.
// Answers that arrive after a Reset are dropped.
func (s *Session) Resolve(req Request, answer string, err error) Outcome {
	latency := time.Since(req.started)

	s.mu.Lock()
	stale := req.epoch != s.epoch
	s.mu.Unlock()
	if stale {
		s.logger.Debug("dropping answer for reset transcript",
			zap.String("placeholder_id", req.PlaceholderID))
		return Outcome{Stale: true, Err: err, Latency: latency}
	}

	if err == nil && strings.TrimSpace(answer) == "" {
		err = errEmptyAnswer
	}

	content, status := answer, model.StatusNone
	if err != nil {
		content, status = ApologyText, model.StatusFailed
		s.logger.Warn("submission failed",
			zap.String("placeholder_id", req.PlaceholderID),
			zap.Duration("latency", latency),
			zap.Error(err),
		)
	} else {
		s.logger.Info("submission answered",
			zap.String("placeholder_id", req.PlaceholderID),
			zap.Duration("latency", latency),
			zap.Int("answer_runes", util.RuneLen(answer)),
		)
	}

	finalize := func(m model.Message) model.Message {
		m.Content = content
		m.Status = status
		m.Timestamp = time.Now()
		return m
	}

	matched := s.transcript.ReplaceLast(func(m model.Message) bool {
		return m.IsPending() && m.ID == req.PlaceholderID
	}, finalize)

	var reply model.Message
	switch {
	case matched:
		reply, _ = s.transcript.Last()
	default:
		var ok bool
		if reply, ok = s.transcript.ReplacePending(req.PlaceholderID, finalize); ok {
			s.logger.Warn("placeholder no longer last, finalized in place",
				zap.String("placeholder_id", req.PlaceholderID))
			break
		}
		s.logger.Warn("placeholder gone, appending reply",
			zap.String("placeholder_id", req.PlaceholderID))
		reply = finalize(model.NewAssistantMessage(""))
		s.transcript.Append(reply)
	}

	return Outcome{Reply: reply, Err: err, Latency: latency}
}

// Reset restores the transcript to its seed. Requests begun earlier resolve
// as stale.
func (s *Session) Reset() {
	s.mu.Lock()
	s.epoch++
	s.mu.Unlock()
	s.transcript.Reset()
	s.logger.Info("conversation reset")
}
