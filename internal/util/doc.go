// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across handbook-tui.
//
// String Utilities:
//   - TruncateRunes, RuneLen: UTF-8 safe slicing
//   - StringWidth, TruncateWidth: terminal cell width (go-runewidth)
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
package util
