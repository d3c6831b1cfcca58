// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Three tardies equal one absence.", "Three tardies equal one absence."},
		{"keeps newlines", "line one\nline two\tx", "line one\nline two\tx"},
		{"crlf", "a\r\nb", "a\nb"},
		{"control chars", "a\x00b\x1b[31mc", "ab[31mc"},
		{"nfc", "e\u0301", "\u00e9"},
		{"osc title", "a\x1b]0;title\x07b", "a]0;titleb"},
		{"less than", "If x<y then three tardies equal one absence.", "If x<y then three tardies equal one absence."},
		{"autolink", "See <https://uic.edu.ph/handbook> for details.", "See <https://uic.edu.ph/handbook> for details."},
		{"fenced html", "```html\n<div>form</div>\n```", "```html\n<div>form</div>\n```"},
		{"markup kept", "<b>bold</b> & more", "<b>bold</b> & more"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestRenderer_Render(t *testing.T) {
	r, err := NewRenderer(60, StylePlain)
	require.NoError(t, err)

	out, err := r.Render("**Three** tardies\nequal one absence.")
	require.NoError(t, err)
	assert.Contains(t, out, "Three")

	// Hard break: the two source lines stay on separate lines.
	var tardies, absence int = -1, -1
	for i, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "tardies") {
			tardies = i
		}
		if strings.Contains(line, "absence") {
			absence = i
		}
	}
	assert.Greater(t, absence, tardies)
}

func TestRenderer_RemovesHTML(t *testing.T) {
	r, err := NewRenderer(60, StylePlain)
	require.NoError(t, err)
	out := r.RenderOrPlain("safe <script>alert(1)</script>text")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "text")
}

func TestRenderer_KeepsProse(t *testing.T) {
	r, err := NewRenderer(60, StylePlain)
	require.NoError(t, err)

	out := r.RenderOrPlain("If x<y then three tardies equal one absence.")
	assert.Contains(t, out, "x<y")
	assert.Contains(t, out, "absence")

	out = r.RenderOrPlain("See <https://uic.edu.ph/handbook> for details.")
	assert.Contains(t, out, "uic.edu.ph/handbook")
	assert.Contains(t, out, "details")
}

func TestRenderer_Blank(t *testing.T) {
	r, err := NewRenderer(0, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, r.Width())
	out, err := r.Render("   ")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRenderer_SetWidth(t *testing.T) {
	r, err := NewRenderer(40, StylePlain)
	require.NoError(t, err)
	require.NoError(t, r.SetWidth(100))
	assert.Equal(t, 100, r.Width())
	require.NoError(t, r.SetWidth(0))
	assert.Equal(t, 100, r.Width())
}

func TestRenderHTML(t *testing.T) {
	out, err := RenderHTML("**bold**\nnext line <img src=x onerror=alert(1)>")
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<br")
	assert.NotContains(t, out, "onerror")
}

func TestRenderHTML_KeepsProseAndCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"less than", "If x<y then three tardies equal one absence.", "x&lt;y then three tardies"},
		{"autolink", "See <https://uic.edu.ph/handbook> for details.", `href="https://uic.edu.ph/handbook"`},
		{"fenced html", "```html\n<div>form</div>\n```", "&lt;div&gt;form&lt;/div&gt;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := RenderHTML(tt.in)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestNormalizeStyle(t *testing.T) {
	assert.Equal(t, StyleAuto, normalizeStyle(""))
	assert.Equal(t, StyleDark, normalizeStyle(" Dark "))
	assert.Equal(t, StylePlain, normalizeStyle("plain"))
}
