// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/handbook-tui/internal/conversation"
	"github.com/jeranaias/handbook-tui/internal/export"
	"github.com/jeranaias/handbook-tui/internal/markdown"
	"github.com/jeranaias/handbook-tui/internal/model"
	"github.com/jeranaias/handbook-tui/internal/reveal"
	"github.com/jeranaias/handbook-tui/internal/storage"
	"github.com/jeranaias/handbook-tui/internal/ui/components"
	"github.com/jeranaias/handbook-tui/internal/ui/styles"
)

// noticeTTL is how long a status-bar notice stays up.
const noticeTTL = 4 * time.Second

// defaultHeaderThreshold is the top-proximity distance in lines.
const defaultHeaderThreshold = 10

// Options configures a chat Model.
type Options struct {
	// Session is required. Its transcript is the one displayed.
	Session *conversation.Session

	// Store enables /save; nil disables persistence.
	Store *storage.Store

	// Renderer formats final replies as markdown; nil shows plain text.
	Renderer *markdown.Renderer

	Reveal        reveal.Options
	RevealEnabled bool

	AssistantName   string
	ServiceURL      string
	HeaderThreshold int
	ScrollDebounce  time.Duration
	ShowTimestamps  bool

	// AutoSave writes the transcript after every finalized reply.
	AutoSave bool

	// ExportDir is where /export writes; empty uses the export default.
	ExportDir string

	Logger *zap.Logger
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the chat screen: header, transcript viewport, input and status bar.
type Model struct {
	session    *conversation.Session
	transcript *model.Transcript

	engine   *reveal.Engine
	revealOn bool

	renderer *markdown.Renderer
	rendered map[string]renderedEntry

	recorder   *storage.Recorder
	detach     func()
	exportOpts *export.Options
	logger     *zap.Logger

	// UI components
	theme    *styles.Theme
	header   *components.Header
	viewport *components.ChatViewport
	status   *components.StatusBar
	thinking components.ThinkingIndicator
	input    textinput.Model
	keys     KeyMap

	width  int
	height int

	assistantName   string
	headerThreshold int
	showTimestamps  bool

	// selected is the highlighted chip of the newest actionable message, or -1.
	selected int
	showHelp bool

	noticeSeq int
	quitting  bool

	// callCancel aborts the in-flight request, if any.
	callCancel context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc
}

// renderedEntry caches the markdown rendering of one message.
type renderedEntry struct {
	content string
	out     string
}

// New creates a chat model over opts.Session.
func New(opts Options) *Model {
	theme := styles.NewTheme()

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	threshold := opts.HeaderThreshold
	if threshold <= 0 {
		threshold = defaultHeaderThreshold
	}

	ti := textinput.New()
	ti.Placeholder = "Ask a question, or type /help"
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.CharLimit = 4000
	ti.Focus()

	vp := components.NewChatViewport(theme)
	vp.SetDebounce(opts.ScrollDebounce)

	header := components.NewHeader(theme)
	if opts.AssistantName != "" {
		header.Subtitle = "with " + opts.AssistantName
	}

	exportOpts := export.DefaultOptions()
	if opts.ExportDir != "" {
		exportOpts.OutputDir = opts.ExportDir
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Model{
		session:         opts.Session,
		transcript:      opts.Session.Transcript(),
		engine:          reveal.NewEngine(opts.Reveal),
		revealOn:        opts.RevealEnabled,
		renderer:        opts.Renderer,
		rendered:        make(map[string]renderedEntry),
		exportOpts:      exportOpts,
		logger:          logger,
		theme:           theme,
		header:          header,
		viewport:        vp,
		status:          components.NewStatusBar(theme),
		thinking:        components.NewThinkingIndicator(),
		input:           ti,
		keys:            DefaultKeyMap(),
		assistantName:   opts.AssistantName,
		headerThreshold: threshold,
		showTimestamps:  opts.ShowTimestamps,
		selected:        -1,
		ctx:             ctx,
		cancel:          cancel,
	}

	if opts.Store != nil {
		m.recorder = storage.NewRecorder(opts.Store, m.transcript)
		m.recorder.Assistant = opts.AssistantName
		m.recorder.Service = opts.ServiceURL
		m.recorder.OnError = func(err error) {
			logger.Warn("auto-save failed", zap.Error(err))
		}
		if opts.AutoSave {
			m.detach = m.recorder.Attach()
		}
	}

	return m
}

// Init starts the cursor blink.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Close cancels outstanding calls and detaches auto-save.
func (m *Model) Close() {
	m.cancelCall()
	m.cancel()
	if m.detach != nil {
		m.detach()
		m.detach = nil
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Transcript returns the displayed transcript.
func (m *Model) Transcript() *model.Transcript {
	return m.transcript
}

// Engine returns the reveal engine.
func (m *Model) Engine() *reveal.Engine {
	return m.engine
}

// Viewport returns the transcript viewport.
func (m *Model) Viewport() *components.ChatViewport {
	return m.viewport
}

// HeaderTransparent reports the header's current style.
func (m *Model) HeaderTransparent() bool {
	return m.header.Transparent
}

// Input returns the current input text.
func (m *Model) Input() string {
	return m.input.Value()
}

// SetInput replaces the input text.
func (m *Model) SetInput(s string) {
	m.input.SetValue(s)
	m.input.CursorEnd()
}

// Selected returns the highlighted chip index, or -1.
func (m *Model) Selected() int {
	return m.selected
}

// Notice returns the status-bar notice.
func (m *Model) Notice() string {
	return m.status.Notice
}

// ShowingHelp reports whether the help overlay is open.
func (m *Model) ShowingHelp() bool {
	return m.showHelp
}

// Quitting reports whether the model has asked the program to exit.
func (m *Model) Quitting() bool {
	return m.quitting
}

// Recorder returns the persistence recorder, or nil without a store.
func (m *Model) Recorder() *storage.Recorder {
	return m.recorder
}

// chipOwner returns the index of the newest message offering actions.
func (m *Model) chipOwner(msgs []model.Message) (int, []model.Action) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if actions := msgs[i].VisibleActions(); len(actions) > 0 {
			if i == len(msgs)-1 && m.revealing(msgs[i]) {
				return -1, nil
			}
			return i, actions
		}
	}
	return -1, nil
}

// actions returns the actions the keyboard can pick from.
func (m *Model) actions() []model.Action {
	_, actions := m.chipOwner(m.transcript.Snapshot())
	return actions
}

// revealing reports whether msg is being typed out right now.
func (m *Model) revealing(msg model.Message) bool {
	if !m.revealOn {
		return false
	}
	return m.engine.Active() && m.engine.Showing(reveal.KeyOf(msg))
}
