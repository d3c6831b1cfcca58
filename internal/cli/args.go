// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - Argument parsing shared by the handbook subcommands.
package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser splits a subcommand's arguments into flags and positionals.
//
// Supported flag formats:
//
//	--flag value     Long flag with space-separated value
//	--flag=value     Long flag with equals sign
//	-f value         Short flag with space-separated value
//	--flag           Boolean flag (no value)
//
// Flags named in bools never consume the following argument, so
// `chat --save "question"` keeps "question" positional.
//
// Example:
//
//	args := NewArgParser([]string{"export", "tr_1", "--format", "html", "--open"}, "open")
//	args.Subcommand()     // "export"
//	args.Positional(1)    // "tr_1"
//	args.Flag("format")   // "html"
//	args.BoolFlag("open") // true
type ArgParser struct {
	subcommand string
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
	raw        []string
}

// NewArgParser parses raw. Names in bools are treated as boolean flags.
func NewArgParser(raw []string, bools ...string) *ArgParser {
	known := make(map[string]bool, len(bools))
	for _, b := range bools {
		known[strings.TrimLeft(b, "-")] = true
	}

	parser := &ArgParser{
		flags:      make(map[string]string),
		boolFlags:  make(map[string]bool),
		positional: make([]string, 0),
		raw:        raw,
	}

	for i := 0; i < len(raw); i++ {
		arg := raw[i]

		// A lone "--" ends flag parsing.
		if arg == "--" {
			parser.positional = append(parser.positional, raw[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			parser.positional = append(parser.positional, arg)
			continue
		}

		if name, value, ok := strings.Cut(arg, "="); ok {
			name = strings.TrimLeft(name, "-")
			if b, err := strconv.ParseBool(value); err == nil && known[name] {
				parser.boolFlags[name] = b
			} else {
				parser.flags[name] = value
			}
			continue
		}

		name := strings.TrimLeft(arg, "-")
		if !known[name] && i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
			parser.flags[name] = raw[i+1]
			i++
			continue
		}
		parser.boolFlags[name] = true
	}

	if len(parser.positional) > 0 {
		parser.subcommand = parser.positional[0]
	}
	return parser
}

// Subcommand returns the first positional argument.
func (p *ArgParser) Subcommand() string {
	return p.subcommand
}

// Flag returns the value of a string flag, or "".
// Each name is tried in turn, so a long and a short name can be given.
func (p *ArgParser) Flag(names ...string) string {
	for _, name := range names {
		if val, ok := p.flags[strings.TrimLeft(name, "-")]; ok {
			return val
		}
	}
	return ""
}

// FlagOrDefault returns the flag value or a default if not found.
func (p *ArgParser) FlagOrDefault(name, defaultValue string) string {
	if val := p.Flag(name); val != "" {
		return val
	}
	return defaultValue
}

// FlagInt returns the flag value as an integer.
func (p *ArgParser) FlagInt(name string) (int, error) {
	val := p.Flag(name)
	if val == "" {
		return 0, fmt.Errorf("flag %s not found", name)
	}
	return strconv.Atoi(val)
}

// FlagIntOrDefault returns the flag value as an integer or a default.
func (p *ArgParser) FlagIntOrDefault(name string, defaultValue int) int {
	val, err := p.FlagInt(name)
	if err != nil {
		return defaultValue
	}
	return val
}

// BoolFlag reports whether any of the named boolean flags is set.
func (p *ArgParser) BoolFlag(names ...string) bool {
	for _, name := range names {
		if p.boolFlags[strings.TrimLeft(name, "-")] {
			return true
		}
	}
	return false
}

// Positional returns the positional argument at index, or "".
// Index 0 is the subcommand.
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// PositionalFrom returns all positional arguments starting from index.
func (p *ArgParser) PositionalFrom(index int) []string {
	if index < 0 || index >= len(p.positional) {
		return []string{}
	}
	return p.positional[index:]
}

// PositionalCount returns the number of positional arguments.
func (p *ArgParser) PositionalCount() int {
	return len(p.positional)
}

// HasFlag returns true if the flag exists (either as string or bool flag).
func (p *ArgParser) HasFlag(name string) bool {
	name = strings.TrimLeft(name, "-")
	_, hasString := p.flags[name]
	_, hasBool := p.boolFlags[name]
	return hasString || hasBool
}

// Raw returns the original raw arguments.
func (p *ArgParser) Raw() []string {
	return p.raw
}

// =============================================================================
// HELPERS
// =============================================================================

// ParseIntWithValidation parses a positive integer.
func ParseIntWithValidation(s string, fieldName string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("%s is required", fieldName)
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", fieldName, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", fieldName, val)
	}
	return val, nil
}

// JoinPositionalArgs joins positional arguments from startIndex into one string.
func JoinPositionalArgs(parser *ArgParser, startIndex int) string {
	return strings.Join(parser.PositionalFrom(startIndex), " ")
}
