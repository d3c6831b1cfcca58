// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reveal

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/handbook-tui/internal/model"
)

func fastOptions() Options {
	return Options{StartDelay: 2 * time.Millisecond, Step: 3, Interval: time.Millisecond}
}

// =============================================================================
// SCHEDULE TESTS
// =============================================================================

func TestFrames_Monotonic(t *testing.T) {
	text := "Three tardies equal one absence."
	frames := Frames(text, DefaultOptions())
	require.GreaterOrEqual(t, len(frames), 3)

	first := frames[0]
	assert.Equal(t, 0, first.Frame.Shown)
	assert.Equal(t, "", first.Frame.Text)
	assert.Zero(t, first.After)
	assert.False(t, first.Frame.Complete)

	last := frames[len(frames)-1]
	assert.True(t, last.Frame.Complete)
	assert.Equal(t, text, last.Frame.Text)

	prefixes := frames[:len(frames)-1]
	for i := 1; i < len(prefixes); i++ {
		prev, cur := prefixes[i-1].Frame, prefixes[i].Frame
		assert.Greater(t, cur.Shown, prev.Shown, "frame %d", i)
		assert.True(t, strings.HasPrefix(text, cur.Text))
		assert.False(t, cur.Complete)
	}
	assert.Equal(t, len(text), prefixes[len(prefixes)-1].Frame.Shown)

	assert.Equal(t, DefaultStartDelay, frames[1].After)
	for _, f := range frames[2:] {
		assert.Equal(t, DefaultInterval, f.After)
	}
}

func TestFrames_StepSize(t *testing.T) {
	frames := Frames("abcdefgh", Options{Step: 3, Interval: time.Millisecond})
	var shown []int
	for _, f := range frames {
		if !f.Frame.Complete {
			shown = append(shown, f.Frame.Shown)
		}
	}
	assert.Equal(t, []int{0, 3, 6, 8}, shown)
}

func TestFrames_ErrorFastPath(t *testing.T) {
	text := "Sorry, I encountered an error. Please try again."
	opts := DefaultOptions()
	opts.ErrorFastPath = true

	frames := Frames(text, opts)
	require.Len(t, frames, 1)
	assert.True(t, frames[0].Frame.Complete)
	assert.Equal(t, text, frames[0].Frame.Text)
	assert.Zero(t, frames[0].After)
}

func TestFrames_EmptyText(t *testing.T) {
	frames := Frames("", DefaultOptions())
	require.Len(t, frames, 1)
	assert.True(t, frames[0].Frame.Complete)
	assert.Equal(t, 1.0, frames[0].Frame.Progress())
}

func TestFrames_UTF8(t *testing.T) {
	text := "日本語のテキスト👋"
	for _, f := range Frames(text, Options{Step: 2, Interval: time.Millisecond}) {
		assert.True(t, strings.HasPrefix(text, f.Frame.Text))
		assert.Equal(t, f.Frame.Shown, len([]rune(f.Frame.Text)))
	}
}

func TestOptions_Normalized(t *testing.T) {
	o := Options{Step: -1, StartDelay: -time.Second}.normalized()
	assert.Equal(t, DefaultStep, o.Step)
	assert.Equal(t, DefaultInterval, o.Interval)
	assert.Zero(t, o.StartDelay)
}

func TestTotalDuration(t *testing.T) {
	opts := Options{StartDelay: 10 * time.Millisecond, Step: 5, Interval: time.Millisecond}
	// "0123456789": empty, +10ms 5, +1ms 10, +1ms complete
	assert.Equal(t, 12*time.Millisecond, TotalDuration("0123456789", opts))
}

// =============================================================================
// ENGINE TESTS
// =============================================================================

// drive runs the engine's tick commands until it goes idle.
func drive(t *testing.T, e *Engine, cmd tea.Cmd) []Frame {
	t.Helper()
	var frames []Frame
	for cmd != nil {
		msg := cmd()
		tick, ok := msg.(TickMsg)
		require.True(t, ok, "expected TickMsg, got %T", msg)
		cmd = e.Update(tick)
		frames = append(frames, e.Frame())
	}
	return frames
}

func TestEngine_RunsToCompletion(t *testing.T) {
	e := NewEngine(fastOptions())
	cmd := e.Start(Key{Text: "hello world"})
	require.NotNil(t, cmd)
	assert.True(t, e.Active())
	assert.Equal(t, "", e.Frame().Text)

	frames := drive(t, e, cmd)
	require.NotEmpty(t, frames)
	assert.True(t, frames[len(frames)-1].Complete)
	assert.Equal(t, "hello world", e.Frame().Text)
	assert.False(t, e.Active())
}

func TestEngine_FailedStatusFastPath(t *testing.T) {
	e := NewEngine(fastOptions())
	cmd := e.Start(Key{Text: "apology", Status: model.StatusFailed})
	assert.Nil(t, cmd)
	assert.True(t, e.Frame().Complete)
	assert.Equal(t, "apology", e.Frame().Text)
}

func TestEngine_SameKeyIsNoop(t *testing.T) {
	e := NewEngine(fastOptions())
	key := Key{Text: "hello"}
	drive(t, e, e.Start(key))
	assert.Nil(t, e.Start(key))
	assert.True(t, e.Frame().Complete)
	assert.True(t, e.Showing(key))
}

func TestEngine_SupersededRevealNeverFires(t *testing.T) {
	e := NewEngine(fastOptions())
	oldCmd := e.Start(Key{Text: "hello world"})
	require.NotNil(t, oldCmd)
	oldGen := e.gen

	newCmd := e.Start(Key{Text: "goodbye"})
	require.NotNil(t, newCmd)

	// The old timer was cancelled: its command yields nothing.
	assert.Nil(t, oldCmd())

	// A tick that was already in flight is discarded.
	assert.Nil(t, e.Update(TickMsg{Gen: oldGen}))
	assert.Equal(t, "", e.Frame().Text)

	for _, f := range drive(t, e, newCmd) {
		assert.True(t, strings.HasPrefix("goodbye", f.Text), "stale frame %q", f.Text)
	}
	assert.Equal(t, "goodbye", e.Frame().Text)
}

func TestEngine_StatusChangeRestarts(t *testing.T) {
	e := NewEngine(fastOptions())
	require.NotNil(t, e.Start(Key{Text: "x", Status: model.StatusPending}))
	assert.Nil(t, e.Start(Key{Text: "x", Status: model.StatusFailed}))
	assert.True(t, e.Frame().Complete)
}

func TestEngine_ResetAllowsReplay(t *testing.T) {
	e := NewEngine(fastOptions())
	key := Key{Text: "again"}
	drive(t, e, e.Start(key))
	e.Reset()
	assert.False(t, e.Showing(key))
	assert.NotNil(t, e.Start(key))
}

// =============================================================================
// STREAM TESTS
// =============================================================================

func collect(ch <-chan Frame) []Frame {
	var frames []Frame
	for f := range ch {
		frames = append(frames, f)
	}
	return frames
}

func TestStream_Completes(t *testing.T) {
	opts := Options{StartDelay: 5 * time.Millisecond, Step: 4, Interval: 2 * time.Millisecond}
	text := "How many tardies equal one absence?"

	start := time.Now()
	frames := collect(Stream(context.Background(), text, opts))
	elapsed := time.Since(start)

	require.Len(t, frames, len(Frames(text, opts)))
	assert.Equal(t, 0, frames[0].Shown)
	assert.True(t, frames[len(frames)-1].Complete)
	assert.GreaterOrEqual(t, elapsed, TotalDuration(text, opts))
}

func TestStream_FastPath(t *testing.T) {
	opts := DefaultOptions()
	opts.ErrorFastPath = true
	frames := collect(Stream(context.Background(), "failed", opts))
	require.Len(t, frames, 1)
	assert.True(t, frames[0].Complete)
}

func TestStream_CancelClosesChannel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := Stream(ctx, strings.Repeat("a", 1000), Options{StartDelay: time.Hour, Step: 1, Interval: time.Hour})

	first := <-ch
	assert.Equal(t, 0, first.Shown)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "no frame after cancellation")
	case <-time.After(time.Second):
		t.Fatal("stream did not close after cancel")
	}
}

func TestPlayer_PlayCancelsPrevious(t *testing.T) {
	p := NewPlayer(Options{StartDelay: time.Hour, Step: 1, Interval: time.Hour})
	old := p.Play(context.Background(), "hello world", model.StatusNone)
	<-old // empty frame

	next := p.Play(context.Background(), "goodbye", model.StatusFailed)
	frames := collect(next)
	require.Len(t, frames, 1)
	assert.Equal(t, "goodbye", frames[0].Text)

	select {
	case _, ok := <-old:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("previous stream still open")
	}
	p.Stop()
}

func TestPlayer_NoFrameAfterStop(t *testing.T) {
	p := NewPlayer(Options{StartDelay: 0, Step: 1, Interval: time.Microsecond})
	for i := 0; i < 50; i++ {
		frames := p.Play(context.Background(), "three tardies equal one absence", model.StatusNone)
		<-frames
		p.Stop()

		_, ok := <-frames
		require.False(t, ok, "frame delivered after Stop (run %d)", i)
	}
}
