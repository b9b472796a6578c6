// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/paths.go
// Summary: Path resolution for the System/User/Project config layers.

package config

import (
	"os"
	"path/filepath"
)

const (
	projectConfigDir  = ".fresh"
	projectConfigName = "config.json"
	userConfigDir  = "fresh"
	userConfigName = "config.json"
)

// systemConfigPath is the machine-wide override, read by an
// administrator-managed install; absent on most developer machines.
func systemConfigPath() string {
	if p := os.Getenv("FRESH_SYSTEM_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(string(filepath.Separator), "etc", "fresh", "config.json")
}

// userConfigPath is the per-user config file under the OS config dir.
func userConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, userConfigDir, userConfigName), nil
}

// projectConfigPath walks upward from startDir looking for a
// .fresh/config.json, stopping at the filesystem root. Returns "" if
// none is found.
func projectConfigPath(startDir string) string {
	dir := startDir
	for {
		candidate := filepath.Join(dir, projectConfigDir, projectConfigName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
