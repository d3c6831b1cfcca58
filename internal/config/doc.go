// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for handbook.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure
//   - ServiceConfig: Answering service URL, timeout and throttling
//   - RevealConfig: Typewriter pacing for assistant replies
//   - UIConfig: Assistant name, theme and scrolling
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (HANDBOOK_*, plus VITE_API_URL), optionally from .env
//   - ~/.handbook/config.toml
//   - ~/.handbook/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Printf("config: %v", err)
//	}
//	timeout := cfg.Service.Timeout.Std()
//
// Watch reloads a config file on change:
//
//	_ = config.Watch(ctx, path, func(cfg *config.Config, err error) { ... })
package config
