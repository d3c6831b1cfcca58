// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	htmlConverter = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
	)

	// ugcPolicy keeps formatting markup and drops scripts, handlers and styles.
	ugcPolicy = bluemonday.UGCPolicy()
)

// RenderHTML converts text to sanitized HTML.
func RenderHTML(text string) (string, error) {
	var buf bytes.Buffer
	if err := htmlConverter.Convert([]byte(Sanitize(text)), &buf); err != nil {
		return "", err
	}
	return ugcPolicy.Sanitize(buf.String()), nil
}
