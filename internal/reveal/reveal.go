// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reveal paces the display of an already-received assistant reply.
//
// A reveal is a finite schedule of frames: an empty frame, then prefixes of
// the text growing by a fixed number of runes per tick, then a terminal
// complete frame. Failed replies take a fast path that emits only the
// complete frame.
//
// Two drivers consume the schedule:
//   - Engine plugs into a Bubble Tea Update loop via tea.Cmd ticks
//   - Stream and Player deliver frames over a channel for line-mode output
//
// Partial frames are meant to be shown as plain text. Only the complete
// frame should be handed to a markdown renderer.
package reveal

import (
	"time"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultStartDelay is the pause between the empty frame and the first prefix.
	DefaultStartDelay = 300 * time.Millisecond

	// DefaultStep is the number of runes added per tick.
	DefaultStep = 3

	// DefaultInterval is the delay between successive prefixes.
	DefaultInterval = 20 * time.Millisecond
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls reveal pacing.
type Options struct {
	StartDelay time.Duration
	Step       int
	Interval   time.Duration

	// ErrorFastPath skips the animation and emits the complete text at once.
	ErrorFastPath bool
}

// DefaultOptions returns the standard pacing.
func DefaultOptions() Options {
	return Options{
		StartDelay: DefaultStartDelay,
		Step:       DefaultStep,
		Interval:   DefaultInterval,
	}
}

// normalized fills in zero or negative pacing values with defaults.
func (o Options) normalized() Options {
	if o.Step <= 0 {
		o.Step = DefaultStep
	}
	if o.StartDelay < 0 {
		o.StartDelay = 0
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	return o
}

// =============================================================================
// FRAMES
// =============================================================================

// Frame is one observable state of a reveal.
type Frame struct {
	// Text is the visible prefix. For a complete frame it is the full text.
	Text string

	// Shown and Total are rune counts.
	Shown int
	Total int

	// Complete marks the terminal frame.
	Complete bool
}

// Progress returns the fraction of the text shown, in [0, 1].
func (f Frame) Progress() float64 {
	if f.Total == 0 {
		return 1
	}
	return float64(f.Shown) / float64(f.Total)
}

// Scheduled is a frame together with the delay after the previous frame.
type Scheduled struct {
	After time.Duration
	Frame Frame
}

// Frames returns the whole schedule for text. It is mostly useful for tests
// and for callers that drive their own clock.
func Frames(text string, opts Options) []Scheduled {
	s := newSchedule(text, opts)
	var out []Scheduled
	for {
		next, ok := s.next()
		if !ok {
			return out
		}
		out = append(out, next)
	}
}

// TotalDuration returns how long a full reveal of text takes.
func TotalDuration(text string, opts Options) time.Duration {
	var d time.Duration
	for _, s := range Frames(text, opts) {
		d += s.After
	}
	return d
}

// =============================================================================
// SCHEDULE
// =============================================================================

// schedule lazily produces the frames of one reveal.
type schedule struct {
	text  string
	runes []rune
	opts  Options
	shown int // -1 before the empty frame has been produced
	done  bool
}

func newSchedule(text string, opts Options) *schedule {
	return &schedule{
		text:  text,
		runes: []rune(text),
		opts:  opts.normalized(),
		shown: -1,
	}
}

// next returns the following frame, or false once the schedule is exhausted.
func (s *schedule) next() (Scheduled, bool) {
	if s.done {
		return Scheduled{}, false
	}
	total := len(s.runes)

	// Nothing to animate: one complete frame.
	if s.opts.ErrorFastPath || total == 0 {
		s.done = true
		return Scheduled{Frame: s.complete()}, true
	}

	switch {
	case s.shown < 0:
		s.shown = 0
		return Scheduled{Frame: Frame{Total: total}}, true

	case s.shown < total:
		delay := s.opts.Interval
		if s.shown == 0 {
			delay = s.opts.StartDelay
		}
		s.shown += s.opts.Step
		if s.shown > total {
			s.shown = total
		}
		return Scheduled{
			After: delay,
			Frame: Frame{
				Text:  string(s.runes[:s.shown]),
				Shown: s.shown,
				Total: total,
			},
		}, true

	default:
		s.done = true
		return Scheduled{After: s.opts.Interval, Frame: s.complete()}, true
	}
}

func (s *schedule) complete() Frame {
	n := len(s.runes)
	return Frame{Text: s.text, Shown: n, Total: n, Complete: true}
}
