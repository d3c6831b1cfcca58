// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation.
//
// Command: config [subcommand]
//
// Subcommands:
//
//	show (default)      Print the effective configuration as TOML
//	get <key>           Print one value
//	set <key> <value>   Change a value in the config file
//	keys                List the settable keys
//	reset               Write the defaults over the config file
//	init                Write the defaults if no config file exists
//	path                Print the config file location
//
// Examples:
//
//	handbook config
//	handbook config show --json
//	handbook config get service.url
//	handbook config set service.url http://handbook.local:8080
//	handbook config set reveal.enabled false
//	handbook config set ui.assistant_name Ana
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/handbook-tui/internal/config"
)

// HandleConfigCommand runs a config subcommand. The commands that write the
// file work even when the current one does not load.
func HandleConfigCommand(args Args) error {
	switch args.Subcommand {
	case "set", "reset", "init", "path":
		path := args.ConfigPath
		if path == "" {
			path = defaultConfigPath()
		}
		return runConfig(config.Default(), path, args, os.Stdout)
	}

	cfg, path, err := LoadConfig(args)
	if err != nil {
		return err
	}
	return runConfig(cfg, path, args, os.Stdout)
}

func runConfig(cfg *config.Config, path string, args Args, out io.Writer) error {
	switch args.Subcommand {
	case "", "show":
		if args.JSON {
			return NewJSONResponse("config show", cfg).Write(out)
		}
		fmt.Fprint(out, cfg.String())
		return nil

	case "get":
		if args.ConfigKey == "" {
			return ErrMissingArgument("key", "handbook config get service.url")
		}
		value, err := cfg.Get(args.ConfigKey)
		if err != nil {
			return invalidKey(args.ConfigKey, err)
		}
		if args.JSON {
			return NewJSONResponse("config get", map[string]interface{}{"key": args.ConfigKey, "value": value}).Write(out)
		}
		fmt.Fprintf(out, "%v\n", value)
		return nil

	case "set":
		return handleConfigSet(path, args, out)

	case "keys":
		for _, key := range cfg.Keys() {
			fmt.Fprintln(out, key)
		}
		return nil

	case "reset":
		if err := writeConfigFile(config.Default(), path); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s Configuration reset to defaults\n", SuccessStyle.Render("[OK]"))
		fmt.Fprintf(out, "Config file: %s\n", DimStyle.Render(path))
		return nil

	case "init":
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(out, "%s %s already exists\n", WarningStyle.Render("[WARN]"), path)
			return nil
		}
		if err := writeConfigFile(config.Default(), path); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s Wrote %s\n", SuccessStyle.Render("[OK]"), path)
		return nil

	case "path":
		_, statErr := os.Stat(path)
		exists := statErr == nil
		if args.JSON {
			return NewJSONResponse("config path", map[string]interface{}{"path": path, "exists": exists}).Write(out)
		}
		fmt.Fprintln(out, path)
		if !exists {
			fmt.Fprintln(os.Stderr, DimStyle.Render("(file does not exist; `handbook config init` creates it)"))
		}
		return nil

	default:
		return &ValidationError{
			Field:   "subcommand",
			Value:   args.Subcommand,
			Reason:  "unknown config command",
			Example: "handbook config [show|get|set|keys|reset|init|path]",
		}
	}
}

// handleConfigSet edits the config file itself, so values coming from the
// environment are not written back.
func handleConfigSet(path string, args Args, out io.Writer) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", "handbook config set <key> <value>")
	}
	if args.ConfigVal == "" {
		return ErrMissingArgument("value", fmt.Sprintf("handbook config set %s <value>", args.ConfigKey))
	}

	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		fileCfg, err := config.ReadFile(path)
		if err != nil {
			return err
		}
		cfg = fileCfg
	}

	key := strings.ToLower(args.ConfigKey)
	if err := cfg.Set(key, args.ConfigVal); err != nil {
		return invalidKey(key, err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := writeConfigFile(cfg, path); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s %s = %s\n", SuccessStyle.Render("[OK]"), key, args.ConfigVal)
	return nil
}

func writeConfigFile(cfg *config.Config, path string) error {
	if path == "" {
		return errors.New("no config file location")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return WrapError(err, "failed to create config directory")
	}
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = cfg.SaveJSON(path)
	} else {
		err = cfg.SaveTOML(path)
	}
	return WrapError(err, "failed to save config")
}

func invalidKey(key string, err error) error {
	return &ValidationError{
		Field:   "key",
		Value:   key,
		Reason:  err.Error(),
		Example: "handbook config keys",
	}
}
