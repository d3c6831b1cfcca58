// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/jeranaias/handbook-tui/internal/reveal"
	"github.com/jeranaias/handbook-tui/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultServiceURL is used when neither the config file nor the
	// environment names a service.
	DefaultServiceURL = "http://localhost:8080"

	configDirName  = ".handbook"
	configFileTOML = "config.toml"
	configFileJSON = "config.json"

	// legacyURLEnv is the variable the web client read its base URL from.
	legacyURLEnv = "VITE_API_URL"
	noRevealEnv  = "HANDBOOK_NO_REVEAL"
)

// =============================================================================
// DURATION
// =============================================================================

// Duration is a time.Duration that reads and writes as "300ms" style text in
// TOML, JSON and environment variables.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// String formats the duration like time.Duration.
func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := parseDuration(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// parseDuration accepts Go duration syntax or a bare integer of milliseconds.
func parseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Duration(time.Duration(ms) * time.Millisecond), nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return Duration(v), nil
}

// =============================================================================
// CONFIG STRUCTS
// =============================================================================

// Config is the main configuration structure for handbook.
type Config struct {
	Service ServiceConfig `toml:"service" json:"service"`
	Reveal  RevealConfig  `toml:"reveal" json:"reveal"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Log     LogConfig     `toml:"log" json:"log"`
	Storage StorageConfig `toml:"storage" json:"storage"`
}

// ServiceConfig describes how to reach the answering service.
type ServiceConfig struct {
	// URL is the base URL; "/invoke" is appended per request.
	URL string `toml:"url" json:"url" env:"HANDBOOK_API_URL"`

	// Timeout bounds a single request.
	Timeout Duration `toml:"timeout" json:"timeout" env:"HANDBOOK_TIMEOUT"`

	// RateLimit is the maximum requests per second. Zero disables limiting.
	RateLimit float64 `toml:"rate_limit" json:"rate_limit" env:"HANDBOOK_RATE_LIMIT"`
	RateBurst int     `toml:"rate_burst" json:"rate_burst"`

	// MinLatency delays every call so the pending indicator is visible.
	MinLatency Duration `toml:"min_latency" json:"min_latency" env:"HANDBOOK_MIN_LATENCY"`
}

// RevealConfig controls the typewriter animation of assistant replies.
type RevealConfig struct {
	Enabled    bool     `toml:"enabled" json:"enabled" env:"HANDBOOK_REVEAL"`
	StartDelay Duration `toml:"start_delay" json:"start_delay"`
	Step       int      `toml:"step" json:"step"`
	Interval   Duration `toml:"interval" json:"interval"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	AssistantName   string   `toml:"assistant_name" json:"assistant_name" env:"HANDBOOK_ASSISTANT"`
	Theme           string   `toml:"theme" json:"theme" env:"HANDBOOK_THEME"`
	HeaderThreshold int      `toml:"header_threshold" json:"header_threshold"`
	ScrollDebounce  Duration `toml:"scroll_debounce" json:"scroll_debounce"`
	ShowTimestamps  bool     `toml:"show_timestamps" json:"show_timestamps"`
	AltScreen       bool     `toml:"alt_screen" json:"alt_screen"`
}

// LogConfig controls the structured log file.
type LogConfig struct {
	Level string `toml:"level" json:"level" env:"HANDBOOK_LOG_LEVEL"`
	Path  string `toml:"path" json:"path" env:"HANDBOOK_LOG_PATH"`
}

// StorageConfig controls where saved transcripts live.
type StorageConfig struct {
	Dir            string `toml:"dir" json:"dir" env:"HANDBOOK_STORAGE_DIR"`
	AutoSave       bool   `toml:"auto_save" json:"auto_save"`
	MaxTranscripts int    `toml:"max_transcripts" json:"max_transcripts"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			URL:       DefaultServiceURL,
			Timeout:   Duration(60 * time.Second),
			RateLimit: 0,
			RateBurst: 1,
		},
		Reveal: RevealConfig{
			Enabled:    true,
			StartDelay: Duration(300 * time.Millisecond),
			Step:       3,
			Interval:   Duration(20 * time.Millisecond),
		},
		UI: UIConfig{
			AssistantName:   "Emma",
			Theme:           "auto",
			HeaderThreshold: 10,
			ScrollDebounce:  Duration(50 * time.Millisecond),
			AltScreen:       true,
		},
		Log: LogConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			AutoSave:       false,
			MaxTranscripts: 100,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the handbook configuration directory (~/.handbook).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileTOML), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileJSON), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// LogPath returns the configured log file, defaulting to ~/.handbook/handbook.log.
func (c *Config) LogPath() string {
	if c.Log.Path != "" {
		return c.Log.Path
	}
	dir, err := ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "handbook.log")
}

// Options converts the section into reveal pacing.
func (r RevealConfig) Options() reveal.Options {
	return reveal.Options{
		StartDelay: r.StartDelay.Std(),
		Step:       r.Step,
		Interval:   r.Interval.Std(),
	}
}

// StorageDir returns the configured transcript directory, or "" to let the
// store pick its default.
func (c *Config) StorageDir() string {
	return c.Storage.Dir
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration in precedence order: environment, then
// ~/.handbook/config.toml, then ~/.handbook/config.json, then defaults.
// A missing config file is not an error. A parse failure is returned
// alongside a usable config built from the defaults.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := Default()
	var loadErr error

	if path, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := decodeTOMLFile(path, cfg); err != nil {
				loadErr = err
				cfg = Default()
			}
			return finish(cfg, loadErr)
		}
	}

	if path, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := decodeJSONFile(path, cfg); err != nil {
				loadErr = err
				cfg = Default()
			}
		}
	}

	return finish(cfg, loadErr)
}

// LoadFromPath reads a single config file. The format is chosen by extension.
func LoadFromPath(path string) (*Config, error) {
	cfg, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadFile decodes path over the defaults without applying the environment
// or validating, so the result can be edited and written back.
func ReadFile(path string) (*Config, error) {
	cfg := Default()
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = decodeJSONFile(path, cfg)
	default:
		err = decodeTOMLFile(path, cfg)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func finish(cfg *Config, loadErr error) (*Config, error) {
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return cfg, errors.Join(loadErr, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Join(loadErr, err)
	}
	return cfg, loadErr
}

func decodeTOMLFile(path string, cfg *Config) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func decodeJSONFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// loadDotEnv loads a .env file from the working directory if present.
// Variables already set in the process environment win.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
}

// ApplyEnvOverrides overlays HANDBOOK_* environment variables onto c.
// VITE_API_URL is honoured as a lower-priority alias for HANDBOOK_API_URL.
func (c *Config) ApplyEnvOverrides() error {
	if v := strings.TrimSpace(os.Getenv(legacyURLEnv)); v != "" {
		c.Service.URL = v
	}

	funcs := map[reflect.Type]env.ParserFunc{
		reflect.TypeOf(Duration(0)): func(v string) (interface{}, error) {
			return parseDuration(v)
		},
	}
	if err := env.ParseWithFuncs(c, funcs); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}

	if v, ok := os.LookupEnv(noRevealEnv); ok {
		if off, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil && off {
			c.Reveal.Enabled = false
		}
	}
	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the config as TOML to ~/.handbook/config.toml.
func (c *Config) Save() error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	if _, err := EnsureConfigDir(); err != nil {
		return err
	}
	return c.SaveTOML(path)
}

// SaveTOML writes the config to path in TOML format.
func (c *Config) SaveTOML(path string) error {
	var buf bytes.Buffer
	buf.WriteString("# handbook configuration\n")
	buf.WriteString("# Environment variables (HANDBOOK_*) override these values.\n\n")
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0600)
}

// SaveJSON writes the config to path in JSON format.
func (c *Config) SaveJSON(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(path, data, 0600)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects every validation failure.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

var (
	validThemes    = []string{"auto", "dark", "light", "notty"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if u, err := url.Parse(c.Service.URL); err != nil || u.Host == "" {
		add("service.url", fmt.Sprintf("not a valid URL: %q", c.Service.URL))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		add("service.url", "scheme must be http or https")
	}
	if c.Service.Timeout <= 0 {
		add("service.timeout", "must be positive")
	}
	if c.Service.RateLimit < 0 {
		add("service.rate_limit", "must not be negative")
	}
	if c.Service.RateBurst < 0 {
		add("service.rate_burst", "must not be negative")
	}
	if c.Service.MinLatency < 0 {
		add("service.min_latency", "must not be negative")
	}

	if c.Reveal.StartDelay < 0 {
		add("reveal.start_delay", "must not be negative")
	}
	if c.Reveal.Step < 1 {
		add("reveal.step", "must be at least 1")
	}
	if c.Reveal.Interval <= 0 {
		add("reveal.interval", "must be positive")
	}

	if !contains(validThemes, c.UI.Theme) {
		add("ui.theme", fmt.Sprintf("must be one of %s", strings.Join(validThemes, ", ")))
	}
	if c.UI.HeaderThreshold < 0 {
		add("ui.header_threshold", "must not be negative")
	}
	if c.UI.ScrollDebounce < 0 {
		add("ui.scroll_debounce", "must not be negative")
	}
	if strings.TrimSpace(c.UI.AssistantName) == "" {
		add("ui.assistant_name", "must not be empty")
	}

	if !contains(validLogLevels, strings.ToLower(c.Log.Level)) {
		add("log.level", fmt.Sprintf("must be one of %s", strings.Join(validLogLevels, ", ")))
	}

	if c.Storage.MaxTranscripts < 0 {
		add("storage.max_transcripts", "must not be negative")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// =============================================================================
// DOT-NOTATION ACCESS
// =============================================================================

// Get returns the value at a dotted key such as "reveal.step".
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	if d, ok := field.Interface().(Duration); ok {
		return d.String(), nil
	}
	return field.Interface(), nil
}

// Set parses value and stores it at a dotted key. The result is not validated.
func (c *Config) Set(key, value string) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if err := setFieldValue(field, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// Keys returns every settable dotted key in declaration order.
func (c *Config) Keys() []string {
	var keys []string
	root := reflect.ValueOf(c).Elem()
	for i := 0; i < root.NumField(); i++ {
		section := root.Type().Field(i)
		sv := root.Field(i)
		for j := 0; j < sv.NumField(); j++ {
			keys = append(keys, tomlName(section)+"."+tomlName(sv.Type().Field(j)))
		}
	}
	return keys
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(key)), ".")
	if len(parts) != 2 {
		return reflect.Value{}, fmt.Errorf("unknown config key %q", key)
	}
	v := reflect.ValueOf(c).Elem()
	for _, part := range parts {
		next, ok := fieldByTOMLName(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown config key %q", key)
		}
		v = next
	}
	return v, nil
}

func fieldByTOMLName(v reflect.Value, name string) (reflect.Value, bool) {
	name = normalizeFieldName(name)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if normalizeFieldName(tomlName(t.Field(i))) == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func tomlName(f reflect.StructField) string {
	tag := f.Tag.Get("toml")
	if idx := strings.Index(tag, ","); idx >= 0 {
		tag = tag[:idx]
	}
	if tag == "" {
		return strings.ToLower(f.Name)
	}
	return tag
}

func normalizeFieldName(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(strings.ToLower(s), "-", "_"), " ", "_")
}

func setFieldValue(field reflect.Value, value string) error {
	value = strings.TrimSpace(value)
	if field.Type() == reflect.TypeOf(Duration(0)) {
		d, err := parseDuration(value)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(d))
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", value)
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q", value)
		}
		field.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", value)
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
	return nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders the config as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}

// =============================================================================
// GLOBAL INSTANCE
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the process-wide config, loading it on first use.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, _ := Load()
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})
	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the config from disk and replaces the global instance.
func ReloadGlobal() error {
	cfg, err := Load()
	globalConfigMu.Lock()
	globalConfig = cfg
	globalConfigMu.Unlock()
	return err
}

// SetGlobal replaces the global instance.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	globalConfig = cfg
	globalConfigMu.Unlock()
}

// ResetGlobalForTesting clears the global instance so the next Global call
// loads again.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
	globalConfigMu.Unlock()
}
