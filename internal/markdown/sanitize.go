// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown turns finalized reply text into safe terminal or HTML output.
//
// Service text is untrusted. Sanitize normalizes it to NFC and drops control
// characters other than newline and tab, so nothing in it can drive the
// terminal. Markup is left alone: glamour prints raw HTML through its own
// strict policy, and the HTML path omits raw HTML in goldmark and filters
// the result with a UGC policy.
package markdown

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Sanitize prepares untrusted text for display. It is applied to reveal
// frames and plain bodies as well as to renderer input.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return stripControl(text)
}

// stripControl removes control characters except newline and tab.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
