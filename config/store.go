// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/store.go
// Summary: Load, reload, and save logic across the config layers.

package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Store holds the resolved configuration plus the per-layer deltas it
// was built from, so a later ReloadConfig (component I's KindReloadConfig)
// can re-read System/User/Project from disk while preserving whatever
// Session overrides the running process has accumulated.
type Store struct {
	mu      sync.Mutex
	system  Delta
	user    Delta
	project Delta
	session Delta

	projectDir string
	resolved   Config
}

// Load builds a Store by reading System, User, and Project config files
// (any that don't exist contribute an empty Delta) and resolving them
// over Default(). projectDir is the starting directory for the upward
// .fresh/config.json search.
func Load(projectDir string) (*Store, error) {
	s := &Store{projectDir: projectDir}

	if d, err := readDelta(systemConfigPath()); err != nil {
		log.Printf("config: system config unreadable, using defaults: %v", err)
	} else {
		s.system = d
	}

	if path, err := userConfigPath(); err != nil {
		log.Printf("config: could not resolve user config dir: %v", err)
	} else if d, err := readDelta(path); err != nil {
		log.Printf("config: user config unreadable, using defaults: %v", err)
	} else {
		s.user = d
	}

	if path := projectConfigPath(projectDir); path != "" {
		if d, err := readDelta(path); err != nil {
			log.Printf("config: project config at %s unreadable: %v", path, err)
		} else {
			s.project = d
		}
	}

	s.recompute()
	return s, nil
}

func (s *Store) recompute() {
	s.resolved = Resolve(s.system, s.user, s.project, s.session)
}

// Resolved returns the currently-resolved Config (spec.md §6 "System →
// User → Project → Session" layering applied).
func (s *Store) Resolved() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolved
}

// ApplySessionDelta overlays a new in-memory Session delta (e.g. from
// ApplyTheme or SetContext) and recomputes the resolved config. Session
// deltas are never persisted to disk.
func (s *Store) ApplySessionDelta(d Delta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = cloneDelta(d)
	s.recompute()
}

// Reload re-reads System, User, and Project from disk (picking up
// external edits) while keeping the Session delta untouched, then
// recomputes (component I's KindReloadConfig).
func (s *Store) Reload() error {
	fresh, err := Load(s.projectDir)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.system, s.user, s.project = fresh.system, fresh.user, fresh.project
	s.recompute()
	return nil
}

// SaveUser replaces the user layer with delta, recomputes the resolved
// config, and writes delta to the user config path. The file on disk is
// overwritten: keys it held that delta does not set are not carried over.
func (s *Store) SaveUser(delta Delta) error {
	path, err := userConfigPath()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.user = cloneDelta(delta)
	s.recompute()
	s.mu.Unlock()
	return writeDelta(path, delta)
}

// SaveProject writes delta to <projectDir>/.fresh/config.json.
func (s *Store) SaveProject(delta Delta) error {
	path := filepath.Join(s.projectDir, projectConfigDir, projectConfigName)
	s.mu.Lock()
	s.project = cloneDelta(delta)
	s.recompute()
	s.mu.Unlock()
	return writeDelta(path, delta)
}

func readDelta(path string) (Delta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Delta{}, nil
		}
		return Delta{}, err
	}
	var d Delta
	if err := json.Unmarshal(data, &d); err != nil {
		return Delta{}, err
	}
	return d, nil
}

func writeDelta(path string, d Delta) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
