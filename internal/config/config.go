// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/rigsh/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete rigsh configuration.
type Config struct {
	// Shell behavior
	Shell ShellConfig `toml:"shell" json:"shell"`

	// Input history
	History HistoryConfig `toml:"history" json:"history"`

	// Fuzzy command resolution
	Resolve ResolveConfig `toml:"resolve" json:"resolve"`

	// Output rendering
	Output OutputConfig `toml:"output" json:"output"`

	// source is the file this config was loaded from, if any
	source string
}

// ShellConfig contains session loop settings.
type ShellConfig struct {
	// Prompt shown before each interactive line
	Prompt string `toml:"prompt" json:"prompt"`

	// ScriptPrefix is echoed before each replayed script command
	ScriptPrefix string `toml:"script_prefix" json:"script_prefix"`

	// Verbose enables event logging to stderr
	Verbose bool `toml:"verbose" json:"verbose"`
}

// HistoryConfig contains input history settings.
type HistoryConfig struct {
	// Enabled persists history to disk; when false history is in-memory only
	Enabled bool `toml:"enabled" json:"enabled"`

	// Path of the SQLite history file (default: <config dir>/history.db)
	Path string `toml:"path" json:"path"`

	// MaxEntries bounds the number of stored lines
	MaxEntries int `toml:"max_entries" json:"max_entries"`
}

// ResolveConfig tunes fuzzy command resolution.
type ResolveConfig struct {
	// ThresholdRatio keeps candidates scoring at least ratio * best score
	ThresholdRatio float64 `toml:"threshold_ratio" json:"threshold_ratio"`

	// MinScore is an absolute floor below which candidates are dropped (0 disables)
	MinScore float64 `toml:"min_score" json:"min_score"`
}

// OutputConfig contains rendering settings.
type OutputConfig struct {
	// Color is "auto", "always" or "never"
	Color string `toml:"color" json:"color"`

	// WrapWidth wraps rendered output at this many columns (0 = no wrapping,
	// WrapAuto = terminal width when output is a terminal)
	WrapWidth int `toml:"wrap_width" json:"wrap_width"`
}

// WrapAuto wraps at the terminal width, or not at all off a terminal.
const WrapAuto = -1

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Shell: ShellConfig{
			Prompt:       "rigsh> ",
			ScriptPrefix: "script> ",
			Verbose:      false,
		},

		History: HistoryConfig{
			Enabled:    true,
			Path:       "",
			MaxEntries: 1000,
		},

		Resolve: ResolveConfig{
			ThresholdRatio: 0.8,
			MinScore:       0,
		},

		Output: OutputConfig{
			Color:     ColorAuto,
			WrapWidth: WrapAuto,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the rigsh configuration directory path.
// RIGSH_CONFIG_DIR takes precedence over ~/.rigsh.
func ConfigDir() (string, error) {
	if dir := os.Getenv("RIGSH_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".rigsh"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// HistoryPath returns the configured history file, defaulting to
// history.db in the config directory.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// Source returns the file the config was loaded from, or "" for defaults.
func (c *Config) Source() string {
	return c.source
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration. A non-empty path loads exactly that file;
// otherwise TOML is tried first, then JSON, falling back to defaults.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	if path != "" {
		return LoadFromPath(path)
	}

	for _, candidate := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		p, err := candidate()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(p); statErr == nil {
			return LoadFromPath(p)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file into cfg. Keys absent from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	cfg.source = path

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration back to the file it was loaded from, or to
// the default TOML file.
func Save(cfg *Config) error {
	path := cfg.source
	if path == "" {
		var err error
		if path, err = ConfigPathTOML(); err != nil {
			return err
		}
	}
	if strings.HasSuffix(path, ".json") {
		return SaveJSON(cfg, path)
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	err := util.AtomicWrite(path, 0600, func(w io.Writer) error {
		io.WriteString(w, "# rigsh configuration file\n")
		io.WriteString(w, "# Generated by rigsh - edit with care\n\n")
		if err := toml.NewEncoder(w).Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	cfg.source = path
	return nil
}

// SaveJSON saves the configuration to a JSON file with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	cfg.source = path
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if strings.ContainsAny(c.Shell.Prompt, "\r\n") {
		errs = append(errs, ValidationError{"shell.prompt", "must be a single line"})
	}
	if strings.ContainsAny(c.Shell.ScriptPrefix, "\r\n") {
		errs = append(errs, ValidationError{"shell.script_prefix", "must be a single line"})
	}

	if c.History.MaxEntries < 1 || c.History.MaxEntries > 1_000_000 {
		errs = append(errs, ValidationError{"history.max_entries",
			fmt.Sprintf("must be between 1 and 1000000, got %d", c.History.MaxEntries)})
	}

	if c.Resolve.ThresholdRatio <= 0 || c.Resolve.ThresholdRatio > 1 {
		errs = append(errs, ValidationError{"resolve.threshold_ratio",
			fmt.Sprintf("must be in (0, 1], got %g", c.Resolve.ThresholdRatio)})
	}
	if c.Resolve.MinScore < 0 || c.Resolve.MinScore > 1 {
		errs = append(errs, ValidationError{"resolve.min_score",
			fmt.Sprintf("must be in [0, 1], got %g", c.Resolve.MinScore)})
	}

	switch c.Output.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		errs = append(errs, ValidationError{"output.color",
			fmt.Sprintf("must be auto, always or never, got %q", c.Output.Color)})
	}
	if c.Output.WrapWidth < WrapAuto {
		errs = append(errs, ValidationError{"output.wrap_width",
			fmt.Sprintf("must be -1 (auto) or more, got %d", c.Output.WrapWidth)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills empty values that have no meaningful zero.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Shell.Prompt == "" {
		c.Shell.Prompt = defaults.Shell.Prompt
	}
	if c.Shell.ScriptPrefix == "" {
		c.Shell.ScriptPrefix = defaults.Shell.ScriptPrefix
	}
	if c.History.MaxEntries == 0 {
		c.History.MaxEntries = defaults.History.MaxEntries
	}
	if c.Resolve.ThresholdRatio == 0 {
		c.Resolve.ThresholdRatio = defaults.Resolve.ThresholdRatio
	}
	if c.Output.Color == "" {
		c.Output.Color = defaults.Output.Color
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - RIGSH_PROMPT: overrides shell.prompt
//   - RIGSH_VERBOSE: set to "1" or "true" to enable event logging
//   - RIGSH_HISTORY_PATH: overrides history.path
//   - RIGSH_NO_HISTORY: set to "1" or "true" to keep history in memory only
//   - RIGSH_COLOR: overrides output.color
//   - RIGSH_WRAP: overrides output.wrap_width ("auto" for terminal width)
func (c *Config) ApplyEnvOverrides() {
	if prompt := os.Getenv("RIGSH_PROMPT"); prompt != "" {
		c.Shell.Prompt = prompt
	}

	if verbose := os.Getenv("RIGSH_VERBOSE"); verbose != "" {
		c.Shell.Verbose = envBool(verbose)
	}

	if path := os.Getenv("RIGSH_HISTORY_PATH"); path != "" {
		c.History.Path = path
	}

	if noHistory := os.Getenv("RIGSH_NO_HISTORY"); noHistory != "" && envBool(noHistory) {
		c.History.Enabled = false
	}

	if color := os.Getenv("RIGSH_COLOR"); color != "" {
		c.Output.Color = strings.ToLower(color)
	}

	if wrap := os.Getenv("RIGSH_WRAP"); wrap != "" {
		if strings.EqualFold(wrap, "auto") {
			c.Output.WrapWidth = WrapAuto
		} else if n, err := strconv.Atoi(wrap); err == nil {
			c.Output.WrapWidth = n
		}
	}
}

func envBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "history.max_entries").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookupField(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "output.color").
// String values are converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookupField(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookupField(key string) (reflect.Value, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() || !field.CanInterface() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("field '%s' is a section, not a value", key)
			}
			return field, nil
		}

		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}

	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}

	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if value == nil {
		return errors.New("value must not be nil")
	}

	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %q", strVal)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %q", strVal)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			switch strings.ToLower(strVal) {
			case "1", "true", "yes", "on":
				field.SetBool(true)
			case "0", "false", "no", "off":
				field.SetBool(false)
			default:
				return fmt.Errorf("invalid boolean value: %q", strVal)
			}
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}

	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"shell.prompt",
		"shell.script_prefix",
		"shell.verbose",
		"history.enabled",
		"history.path",
		"history.max_entries",
		"resolve.threshold_ratio",
		"resolve.min_score",
		"output.color",
		"output.wrap_width",
	}
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}
