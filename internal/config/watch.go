// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of events editors emit on save.
const watchDebounce = 100 * time.Millisecond

// ReloadFunc receives the reloaded config, or the error that prevented it.
type ReloadFunc func(cfg *Config, err error)

// Watch reloads path whenever it changes and passes the result to fn.
// The parent directory is watched so atomic rename-style saves are seen.
// Watch returns once the watcher is running; it stops when ctx is done.
func Watch(ctx context.Context, path string, fn ReloadFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(path)
	go func() {
		defer watcher.Close()

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(watchDebounce)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(watchDebounce)
				}
				fire = timer.C

			case <-fire:
				fire = nil
				cfg, err := LoadFromPath(path)
				if ctx.Err() != nil {
					return
				}
				fn(cfg, err)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				fn(nil, fmt.Errorf("config watcher: %w", err))
			}
		}
	}()
	return nil
}
