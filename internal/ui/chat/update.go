// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/handbook-tui/internal/conversation"
	"github.com/jeranaias/handbook-tui/internal/reveal"
	"github.com/jeranaias/handbook-tui/internal/ui/components"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all messages for the chat model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.viewport.Update(msg)
		return m, m.viewport.ObserveTop(m.headerThreshold)

	case AnswerMsg:
		return m, m.handleAnswer(msg)

	case reveal.TickMsg:
		cmd := m.engine.Update(msg)
		if !m.engine.Active() {
			m.status.Status = components.StatusReady
		}
		return m, tea.Batch(cmd, m.refresh())

	case components.PinMsg:
		m.viewport.HandlePin(msg)
		return m, m.viewport.ObserveTop(m.headerThreshold)

	case components.TopProximityMsg:
		m.header.SetTransparent(msg.NearTop)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.thinking, cmd = m.thinking.Update(msg)
		if !m.thinking.IsActive() {
			return m, nil
		}
		m.viewport.SetContent(m.renderTranscript())
		return m, cmd

	case SavedMsg:
		if msg.Err != nil {
			return m, m.notify("Save failed: "+msg.Err.Error(), true)
		}
		return m, m.notify("Saved "+msg.ID, false)

	case ExportedMsg:
		if msg.Err != nil {
			return m, m.notify("Export failed: "+msg.Err.Error(), true)
		}
		return m, m.notify("Exported to "+msg.Path, false)

	case ConfigReloadedMsg:
		return m, m.handleConfigReload(msg)

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.status.SetNotice("", false)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, m.quit()
	}

	if m.showHelp {
		switch {
		case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Submit):
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.NewChat):
		return m, m.resetConversation()

	case key.Matches(msg, m.keys.Cancel):
		m.selected = -1
		m.input.Reset()
		return m, m.refresh()

	case key.Matches(msg, m.keys.Submit):
		return m.handleSubmit()

	case key.Matches(msg, m.keys.NextChip):
		return m, m.cycleChip(1)

	case key.Matches(msg, m.keys.PrevChip):
		return m, m.cycleChip(-1)

	case key.Matches(msg, m.keys.PickChip) && m.input.Value() == "" && len(m.actions()) > 0:
		n := int(msg.Runes[0] - '0')
		return m, m.pickChip(n - 1)

	case key.Matches(msg, m.keys.Up):
		m.viewport.ScrollUp(1)
		return m, m.viewport.ObserveTop(m.headerThreshold)

	case key.Matches(msg, m.keys.Down):
		m.viewport.ScrollDown(1)
		return m, m.viewport.ObserveTop(m.headerThreshold)

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ScrollUp(m.pageSize())
		return m, m.viewport.ObserveTop(m.headerThreshold)

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ScrollDown(m.pageSize())
		return m, m.viewport.ObserveTop(m.headerThreshold)

	case key.Matches(msg, m.keys.Home):
		m.viewport.ScrollToTop()
		return m, m.viewport.ObserveTop(m.headerThreshold)

	case key.Matches(msg, m.keys.End):
		m.viewport.ScrollToBottom()
		return m, m.viewport.ObserveTop(m.headerThreshold)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSubmit sends the input, runs a command, or picks the selected chip.
func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	switch {
	case strings.HasPrefix(text, "/"):
		m.input.Reset()
		return m.handleCommand(text)
	case text != "":
		return m, m.submit(text)
	case m.selected >= 0:
		return m, m.pickChip(m.selected)
	}
	return m, nil
}

func (m *Model) pageSize() int {
	h := m.height - m.chromeHeight()
	if h < 1 {
		h = 1
	}
	return h
}

// =============================================================================
// SUBMISSION
// =============================================================================

// submit starts a question. Input is kept while an answer is pending.
func (m *Model) submit(text string) tea.Cmd {
	if m.transcript.HasPending() {
		return m.notify("Still waiting for the last answer", true)
	}
	req, ok := m.session.Begin(text)
	if !ok {
		return nil
	}
	m.input.Reset()
	return m.start(req)
}

// pickChip submits the i-th action of the newest actionable message.
func (m *Model) pickChip(i int) tea.Cmd {
	actions := m.actions()
	if i < 0 || i >= len(actions) {
		return nil
	}
	if m.transcript.HasPending() {
		return m.notify("Still waiting for the last answer", true)
	}
	req, ok := m.session.BeginAction(actions[i])
	if !ok {
		return m.notify("That suggestion can't be used", true)
	}
	return m.start(req)
}

// start shows the placeholder and runs the service call off the loop.
func (m *Model) start(req conversation.Request) tea.Cmd {
	m.selected = -1
	// A reveal still typing out the previous answer is finished immediately.
	m.engine.Cancel()
	m.status.Status = components.StatusThinking

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelCall()
	m.callCancel = cancel

	return tea.Batch(
		m.callCmd(ctx, req),
		m.thinking.Start(),
		m.refresh(),
	)
}

// callCmd runs the blocking call and reports it as an AnswerMsg.
func (m *Model) callCmd(ctx context.Context, req conversation.Request) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		answer, err := session.Call(ctx, req)
		return AnswerMsg{Request: req, Answer: answer, Err: err}
	}
}

func (m *Model) cancelCall() {
	if m.callCancel != nil {
		m.callCancel()
		m.callCancel = nil
	}
}

// handleAnswer reconciles the placeholder and starts the reveal.
func (m *Model) handleAnswer(msg AnswerMsg) tea.Cmd {
	out := m.session.Resolve(msg.Request, msg.Answer, msg.Err)
	if out.Stale {
		return nil
	}
	m.callCancel = nil
	m.thinking.Stop()
	m.status.Status = components.StatusReady

	if out.Err != nil {
		m.logger.Debug("answer failed", zap.Error(out.Err))
	}

	var cmd tea.Cmd
	if m.revealOn {
		cmd = m.engine.Start(reveal.KeyOf(out.Reply))
		if m.engine.Active() {
			m.status.Status = components.StatusRevealing
		}
	}
	return tea.Batch(cmd, m.refresh())
}

// resetConversation restores the greeting and drops any in-flight answer.
func (m *Model) resetConversation() tea.Cmd {
	m.cancelCall()
	m.session.Reset()
	m.engine.Reset()
	m.thinking.Stop()
	m.status.Status = components.StatusReady
	m.selected = -1
	m.input.Reset()
	return tea.Batch(m.refresh(), m.notify("New conversation", false))
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	m.Close()
	return tea.Quit
}

// =============================================================================
// CHIPS
// =============================================================================

// cycleChip moves the highlight by delta, wrapping around.
func (m *Model) cycleChip(delta int) tea.Cmd {
	n := len(m.actions())
	if n == 0 {
		m.selected = -1
		return nil
	}
	switch {
	case m.selected < 0 && delta > 0:
		m.selected = 0
	case m.selected < 0:
		m.selected = n - 1
	default:
		m.selected = ((m.selected+delta)%n + n) % n
	}
	return m.refresh()
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)
	m.layout()
	return m, m.refresh()
}

// layout sizes the components for the current window.
func (m *Model) layout() {
	m.header.SetWidth(m.width)
	m.status.SetWidth(m.width)
	m.input.Width = m.width - 6
	if m.input.Width < 10 {
		m.input.Width = 10
	}

	m.viewport.SetSize(m.width, m.height-m.chromeHeight())

	if m.renderer != nil {
		w := m.width - 10
		if w < 20 {
			w = 20
		}
		if w != m.renderer.Width() {
			if err := m.renderer.SetWidth(w); err != nil {
				m.logger.Warn("markdown renderer resize failed", zap.Error(err))
			}
			m.rendered = make(map[string]renderedEntry)
		}
	}
}

// chromeHeight is the space taken by everything except the transcript.
// The header always reserves its opaque height so the layout does not jump.
func (m *Model) chromeHeight() int {
	return headerLines + lipgloss.Height(m.renderInput()) + 1
}

// refresh re-renders the transcript and keeps it pinned to the newest line.
func (m *Model) refresh() tea.Cmd {
	m.viewport.SetContent(m.renderTranscript())
	return tea.Batch(m.viewport.PinToBottom(), m.viewport.ObserveTop(m.headerThreshold))
}

// =============================================================================
// NOTICES AND CONFIG
// =============================================================================

// notify shows a transient status-bar notice.
func (m *Model) notify(text string, isError bool) tea.Cmd {
	m.noticeSeq++
	seq := m.noticeSeq
	m.status.SetNotice(text, isError)
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

// handleConfigReload applies settings that can change while running.
func (m *Model) handleConfigReload(msg ConfigReloadedMsg) tea.Cmd {
	if msg.Err != nil {
		m.logger.Warn("config reload failed", zap.Error(msg.Err))
		return m.notify(fmt.Sprintf("Config not reloaded: %v", msg.Err), true)
	}
	if msg.Config == nil {
		return nil
	}
	cfg := msg.Config

	m.engine.SetOptions(cfg.Reveal.Options())
	m.revealOn = cfg.Reveal.Enabled
	if !m.revealOn {
		m.engine.Cancel()
	}
	m.viewport.SetDebounce(cfg.UI.ScrollDebounce.Std())
	if cfg.UI.HeaderThreshold > 0 {
		m.headerThreshold = cfg.UI.HeaderThreshold
	}
	m.showTimestamps = cfg.UI.ShowTimestamps
	if name := strings.TrimSpace(cfg.UI.AssistantName); name != "" {
		m.assistantName = name
		m.header.Subtitle = "with " + name
	}

	m.logger.Info("config reloaded")
	return tea.Batch(m.refresh(), m.notify("Config reloaded", false))
}
