// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Shared setup for every command: config, logger, client, store.
package cli

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jeranaias/handbook-tui/internal/answer"
	"github.com/jeranaias/handbook-tui/internal/config"
	"github.com/jeranaias/handbook-tui/internal/logging"
	"github.com/jeranaias/handbook-tui/internal/storage"
)

// Env is the resolved runtime environment of one invocation.
type Env struct {
	Args   Args
	Config *config.Config
	Logger *zap.Logger
	Client *answer.Client

	// ConfigPath is the file to watch and to write with `config set`.
	ConfigPath string
}

// NewEnv loads configuration, applies the command-line overrides and
// builds the logger and the answering client.
func NewEnv(args Args) (*Env, error) {
	cfg, path, err := LoadConfig(args)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg, args.Debug)
	logging.SetGlobal(logger)

	return &Env{
		Args:       args,
		Config:     cfg,
		Logger:     logger,
		Client:     newClient(cfg, logger),
		ConfigPath: path,
	}, nil
}

// Close flushes the logger.
func (e *Env) Close() {
	if e == nil || e.Logger == nil {
		return
	}
	_ = e.Logger.Sync()
}

// OpenStore opens the transcript store named by the configuration.
func (e *Env) OpenStore() (*storage.Store, error) {
	return openStore(e.Config)
}

// LoadConfig resolves the effective configuration and the path it came
// from. Validation failures are fatal; an unreadable default config file
// only produces a warning and the defaults.
func LoadConfig(args Args) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)

	if args.ConfigPath != "" {
		path = args.ConfigPath
		cfg, err = config.LoadFromPath(path)
		if err != nil {
			return nil, path, WrapError(err, "failed to load "+path)
		}
	} else {
		cfg, err = config.Load()
		var invalid config.ValidateErrors
		if errors.As(err, &invalid) {
			return nil, "", err
		}
		if err != nil && !args.Quiet {
			fmt.Fprintf(os.Stderr, "%s %v (using defaults)\n", WarningStyle.Render("[WARN]"), err)
		}
		path = defaultConfigPath()
	}

	if err := ApplyOverrides(cfg, args); err != nil {
		return nil, path, err
	}
	config.SetGlobal(cfg)
	return cfg, path, nil
}

// ApplyOverrides applies --url and --no-reveal to cfg. It is also used on
// configs reloaded while the TUI runs.
func ApplyOverrides(cfg *config.Config, args Args) error {
	if args.URL != "" {
		cfg.Service.URL = args.URL
	}
	if args.NoReveal {
		cfg.Reveal.Enabled = false
	}
	if args.URL != "" {
		return cfg.Validate()
	}
	return nil
}

// defaultConfigPath picks config.toml unless only config.json exists.
func defaultConfigPath() string {
	tomlPath, err := config.ConfigPathTOML()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath
	}
	if jsonPath, err := config.ConfigPathJSON(); err == nil {
		if _, err := os.Stat(jsonPath); err == nil {
			return jsonPath
		}
	}
	return tomlPath
}

func newLogger(cfg *config.Config, debug bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = logging.NewDevelopment()
	} else {
		logger, err = logging.New(cfg.Log.Level, cfg.LogPath())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s logging disabled: %v\n", WarningStyle.Render("[WARN]"), err)
		return logging.Nop()
	}
	return logger
}

func newClient(cfg *config.Config, logger *zap.Logger) *answer.Client {
	return answer.NewClient(cfg.Service.URL).
		WithTimeout(cfg.Service.Timeout.Std()).
		WithRateLimit(cfg.Service.RateLimit, cfg.Service.RateBurst).
		WithMinLatency(cfg.Service.MinLatency.Std()).
		WithLogger(logger)
}

func openStore(cfg *config.Config) (*storage.Store, error) {
	store, err := storage.NewStore(cfg.StorageDir())
	if err != nil {
		return nil, WrapError(err, "failed to open transcript store")
	}
	if cfg.Storage.MaxTranscripts > 0 {
		store.MaxTranscripts = cfg.Storage.MaxTranscripts
	}
	return store, nil
}
