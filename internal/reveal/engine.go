// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reveal

import (
	"context"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/handbook-tui/internal/model"
)

// generations is shared by all engines so a tick is never mistaken for one
// belonging to another engine.
var generations atomic.Uint64

// Key identifies a reveal. A change of either field supersedes the running reveal.
type Key struct {
	Text   string
	Status model.Status
}

// KeyOf returns the reveal key of a message.
func KeyOf(msg model.Message) Key {
	return Key{Text: msg.Content, Status: msg.Status}
}

// TickMsg advances the engine that issued it.
type TickMsg struct {
	Gen uint64
}

// Engine drives a reveal from a Bubble Tea Update loop.
//
// Engine is not safe for concurrent use; it is owned by the Update loop.
// The timer goroutines it starts only touch their own context.
type Engine struct {
	opts Options

	key      Key
	started  bool
	active   bool
	gen      uint64
	sched    *schedule
	frame    Frame
	upcoming Scheduled
	stop     context.CancelFunc
}

// NewEngine creates an idle engine.
func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

// SetOptions changes pacing for reveals started afterwards.
func (e *Engine) SetOptions(opts Options) {
	e.opts = opts
}

// Options returns the current pacing.
func (e *Engine) Options() Options {
	return e.opts
}

// Start begins a reveal for key and returns the command for its first tick.
// Starting the key that is already running or already finished is a no-op.
// Any other running reveal is cancelled first, so none of its frames can be
// observed afterwards.
func (e *Engine) Start(key Key) tea.Cmd {
	if e.started && key == e.key {
		return nil
	}
	e.Cancel()

	e.gen = generations.Add(1)
	e.key = key
	e.started = true

	opts := e.opts
	opts.ErrorFastPath = opts.ErrorFastPath || key.Status.IsFailed()
	e.sched = newSchedule(key.Text, opts)

	first, _ := e.sched.next()
	e.frame = first.Frame
	return e.advance()
}

// Update consumes a tick. Ticks from a superseded or cancelled reveal are
// discarded. It returns the command for the next tick, if any.
func (e *Engine) Update(msg TickMsg) tea.Cmd {
	if !e.active || msg.Gen != e.gen {
		return nil
	}
	e.frame = e.upcoming.Frame
	return e.advance()
}

// advance schedules the next frame or finishes the reveal.
func (e *Engine) advance() tea.Cmd {
	next, ok := e.sched.next()
	if !ok || e.frame.Complete {
		e.finish()
		return nil
	}
	e.upcoming = next
	e.active = true

	ctx, cancel := context.WithCancel(context.Background())
	e.stop = cancel
	return tickCmd(ctx, next.After, e.gen)
}

// Cancel stops the running reveal. The current frame stays readable but no
// further frames are produced.
func (e *Engine) Cancel() {
	e.finish()
	// Invalidate ticks already in flight.
	e.gen = generations.Add(1)
}

// Reset cancels any reveal and forgets the last key, so the same text may
// be animated again.
func (e *Engine) Reset() {
	e.Cancel()
	e.started = false
	e.key = Key{}
	e.frame = Frame{}
}

func (e *Engine) finish() {
	if e.stop != nil {
		e.stop()
		e.stop = nil
	}
	e.active = false
}

// Frame returns the most recent frame.
func (e *Engine) Frame() Frame {
	return e.frame
}

// Key returns the key of the current or last reveal.
func (e *Engine) Key() Key {
	return e.key
}

// Active reports whether a reveal is in progress.
func (e *Engine) Active() bool {
	return e.active
}

// Showing reports whether the engine is responsible for rendering key,
// either mid-animation or just completed.
func (e *Engine) Showing(key Key) bool {
	return e.started && e.key == key
}

// tickCmd waits d and then emits a tick, unless ctx is cancelled first.
// A cancelled wait emits nothing and releases its timer.
func tickCmd(ctx context.Context, d time.Duration, gen uint64) tea.Cmd {
	return func() tea.Msg {
		if d <= 0 {
			if ctx.Err() != nil {
				return nil
			}
			return TickMsg{Gen: gen}
		}
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			return TickMsg{Gen: gen}
		}
	}
}
