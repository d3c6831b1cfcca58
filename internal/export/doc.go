// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes saved transcripts as Markdown, HTML or JSON files.
//
// # Usage
//
//	exporter, err := export.New("html", export.DefaultOptions())
//	path, err := export.ExportToFile(transcript, exporter, nil)
package export
