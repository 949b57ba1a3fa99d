// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for rigsh.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ShellConfig: Prompt, script echo prefix, verbose logging
//   - HistoryConfig: Persistent history location and size
//   - ResolveConfig: Fuzzy command resolution tuning
//   - OutputConfig: Color and wrapping of rendered output
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (RIGSH_*)
//   - $RIGSH_CONFIG_DIR/config.toml or ~/.rigsh/config.toml
//   - $RIGSH_CONFIG_DIR/config.json or ~/.rigsh/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ratio := cfg.Resolve.ThresholdRatio
package config
