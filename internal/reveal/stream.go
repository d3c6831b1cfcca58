// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reveal

import (
	"context"
	"sync"
	"time"

	"github.com/jeranaias/handbook-tui/internal/model"
)

// Stream delivers the frames of a reveal of text on the returned channel,
// paced in real time. The channel is closed after the complete frame or as
// soon as ctx is cancelled; cancellation also releases the pending timer.
func Stream(ctx context.Context, text string, opts Options) <-chan Frame {
	out, _ := stream(ctx, text, opts)
	return out
}

// stream is Stream that also reports, by closing done, that the producer
// has exited and will send nothing more.
func stream(ctx context.Context, text string, opts Options) (<-chan Frame, <-chan struct{}) {
	out := make(chan Frame)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(out)

		s := newSchedule(text, opts)
		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			next, ok := s.next()
			if !ok {
				return
			}

			if next.After > 0 {
				if timer == nil {
					timer = time.NewTimer(next.After)
				} else {
					timer.Reset(next.After)
				}
				select {
				case <-ctx.Done():
					return
				case <-timer.C:
				}
			}

			// Do not hand out a frame once cancellation has been observed.
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case out <- next.Frame:
			}
		}
	}()
	return out, done
}

// Player runs at most one Stream at a time. Once Play or Stop returns, the
// previous stream's channel is closed and delivers no further frames.
type Player struct {
	mu     sync.Mutex
	opts   Options
	cancel context.CancelFunc
	done   <-chan struct{}
}

// NewPlayer creates a player with the given pacing.
func NewPlayer(opts Options) *Player {
	return &Player{opts: opts}
}

// Play cancels the previous reveal and starts one for text. Failed replies
// use the error fast path.
func (p *Player) Play(ctx context.Context, text string, status model.Status) <-chan Frame {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	ctx, cancel := context.WithCancel(ctx)

	opts := p.opts
	opts.ErrorFastPath = opts.ErrorFastPath || status.IsFailed()
	out, done := stream(ctx, text, opts)
	p.cancel, p.done = cancel, done
	return out
}

// Stop cancels the running reveal, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// stopLocked cancels the running stream and waits for its producer to exit.
func (p *Player) stopLocked() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.cancel, p.done = nil, nil
}
