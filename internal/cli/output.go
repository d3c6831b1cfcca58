// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// output.go - Printing assistant replies in the line-mode commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"github.com/jeranaias/handbook-tui/internal/config"
	"github.com/jeranaias/handbook-tui/internal/markdown"
	"github.com/jeranaias/handbook-tui/internal/model"
	"github.com/jeranaias/handbook-tui/internal/reveal"
	"github.com/jeranaias/handbook-tui/internal/util"
)

// replyPrinter writes assistant messages. On a terminal the reply is typed
// out with the reveal pacing and then replaced by its rendered markdown;
// otherwise the sanitized text is printed once.
type replyPrinter struct {
	out      io.Writer
	tty      bool
	width    int
	reveal   bool
	player   *reveal.Player
	renderer *markdown.Renderer
	name     string
}

func newReplyPrinter(out io.Writer, tty bool, cfg *config.Config) *replyPrinter {
	p := &replyPrinter{
		out:    out,
		tty:    tty,
		width:  renderWidth(),
		reveal: tty && cfg.Reveal.Enabled,
		player: reveal.NewPlayer(cfg.Reveal.Options()),
		name:   cfg.UI.AssistantName,
	}
	if tty {
		if r, err := markdown.NewRenderer(p.width, markdownStyle(cfg.UI.Theme)); err == nil {
			p.renderer = r
		}
	}
	return p
}

// Label prints the speaker line above a reply.
func (p *replyPrinter) Label() {
	if !p.tty {
		return
	}
	fmt.Fprintln(p.out, AssistantStyle.Render(p.name+":"))
}

// Print writes msg, revealing it first when enabled.
func (p *replyPrinter) Print(ctx context.Context, msg model.Message) {
	content := markdown.Sanitize(msg.Content)
	if msg.IsFailed() {
		if p.tty {
			fmt.Fprintln(p.out, ErrorStyle.Render(content))
		} else {
			fmt.Fprintln(p.out, content)
		}
		return
	}

	if p.reveal && content != "" {
		live := newLiveRegion(p.out, p.width)
		for frame := range p.player.Play(ctx, content, msg.Status) {
			live.Update(frame.Text)
		}
		live.Clear()
	}

	text := content
	if p.renderer != nil {
		text = strings.Trim(p.renderer.RenderOrPlain(msg.Content), "\n")
	}
	fmt.Fprintln(p.out, text)
}

// Stop aborts a running reveal.
func (p *replyPrinter) Stop() {
	p.player.Stop()
}

// liveRegion is a block of terminal lines that is rewritten in place.
// Reveal frames only ever grow, so updates append the new suffix.
type liveRegion struct {
	out   *termenv.Output
	width int
	shown string
}

func newLiveRegion(w io.Writer, width int) *liveRegion {
	return &liveRegion{out: termenv.NewOutput(w), width: width}
}

// Update shows text in the region.
func (l *liveRegion) Update(text string) {
	if strings.HasPrefix(text, l.shown) {
		_, _ = l.out.WriteString(text[len(l.shown):])
	} else {
		l.Clear()
		_, _ = l.out.WriteString(text)
	}
	l.shown = text
}

// Clear erases the region and leaves the cursor at its first column.
func (l *liveRegion) Clear() {
	if n := l.lines(); n > 0 {
		l.out.ClearLines(n - 1)
		_, _ = l.out.WriteString("\r")
	}
	l.shown = ""
}

// lines counts the terminal rows the shown text occupies, soft wraps included.
func (l *liveRegion) lines() int {
	if l.shown == "" {
		return 0
	}
	return wrappedLines(l.shown, l.width)
}

func wrappedLines(text string, width int) int {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		w := util.StringWidth(line)
		if width > 0 && w > width {
			count += (w + width - 1) / width
		} else {
			count++
		}
	}
	return count
}

// printSuggestions lists the numbered suggestions of msg.
func printSuggestions(out io.Writer, actions []model.Action) {
	if len(actions) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, DimStyle.Render("Try asking:"))
	for i, a := range actions {
		if i >= 9 {
			break
		}
		fmt.Fprintf(out, "  %s %s\n", PromptStyle.Render(fmt.Sprintf("%d.", i+1)), a.Label)
	}
}
