// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/embedded.go
// Summary: Embedded starter config shipped for `fresh init`-style
// project scaffolding.

package config

import (
	_ "embed"
	"os"
	"path/filepath"
)

//go:embed default_config.json
var exampleProjectConfig []byte

// ExampleProjectConfig returns the starter .fresh/config.json this
// binary ships, for a project that has none yet.
func ExampleProjectConfig() []byte {
	return exampleProjectConfig
}

// WriteExampleProjectConfig scaffolds <dir>/.fresh/config.json from the
// embedded starter file, failing if one already exists.
func WriteExampleProjectConfig(dir string) error {
	path := filepath.Join(dir, projectConfigDir, projectConfigName)
	if _, err := os.Stat(path); err == nil {
		return os.ErrExist
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, exampleProjectConfig, 0o644)
}
