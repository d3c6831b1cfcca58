// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// handbook - Ask the student handbook assistant from your terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/handbook-tui/internal/cli"
	"github.com/jeranaias/handbook-tui/internal/config"
	"github.com/jeranaias/handbook-tui/internal/conversation"
	"github.com/jeranaias/handbook-tui/internal/markdown"
	"github.com/jeranaias/handbook-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdAsk:
		cli.HandleAsk(args)
	case cli.CmdChat:
		cli.HandleChat(args)
	case cli.CmdSessions:
		cli.HandleSessions(args)
	case cli.CmdExport:
		cli.HandleExport(args)
	case cli.CmdConfig:
		cli.HandleConfig(args)
	case cli.CmdVersion:
		cli.HandleVersion(args)
	case cli.CmdHelp:
		cli.HandleHelp()
	default:
		runTUI(args)
	}
}

// runTUI starts the full screen chat.
func runTUI(args cli.Args) {
	env, err := cli.NewEnv(args)
	if err != nil {
		cli.DisplayError(err, false)
		os.Exit(cli.GetExitCode(err))
	}
	defer env.Close()

	cfg := env.Config
	logger := env.Logger

	store, err := env.OpenStore()
	if err != nil {
		logger.Warn("transcript store unavailable", zap.Error(err))
		store = nil
	}

	renderer, err := markdown.NewRenderer(80, cfg.UI.Theme)
	if err != nil {
		logger.Warn("markdown rendering disabled", zap.Error(err))
		renderer = nil
	}

	session := conversation.NewSession(
		conversation.NewSeededTranscript(cfg.UI.AssistantName),
		env.Client,
		conversation.WithLogger(logger),
	)

	m := chat.New(chat.Options{
		Session:         session,
		Store:           store,
		Renderer:        renderer,
		Reveal:          cfg.Reveal.Options(),
		RevealEnabled:   cfg.Reveal.Enabled,
		AssistantName:   cfg.UI.AssistantName,
		ServiceURL:      cfg.Service.URL,
		HeaderThreshold: cfg.UI.HeaderThreshold,
		ScrollDebounce:  cfg.UI.ScrollDebounce.Std(),
		ShowTimestamps:  cfg.UI.ShowTimestamps,
		AutoSave:        cfg.Storage.AutoSave,
		Logger:          logger,
	})
	defer m.Close()

	opts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(m, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watchConfig(ctx, env, p)

	logger.Info("starting chat", zap.String("service", cfg.Service.URL))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running handbook: %v\n", err)
		os.Exit(1)
	}
}

// watchConfig forwards edits of the config file to the running program.
func watchConfig(ctx context.Context, env *cli.Env, p *tea.Program) {
	path := env.ConfigPath
	if path == "" {
		return
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		return
	}

	reload := func(cfg *config.Config, err error) {
		if err == nil {
			err = cli.ApplyOverrides(cfg, env.Args)
		}
		if err != nil {
			env.Logger.Warn("config reload failed", zap.String("path", path), zap.Error(err))
			p.Send(chat.ConfigReloadedMsg{Err: err})
			return
		}
		env.Logger.Info("config reloaded", zap.String("path", path))
		p.Send(chat.ConfigReloadedMsg{Config: cfg})
	}

	if err := config.Watch(ctx, path, reload); err != nil {
		env.Logger.Warn("config watch disabled", zap.Error(err))
	}
}
