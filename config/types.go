// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/types.go
// Summary: Typed configuration schema (spec.md §6).

package config

// Config is the fully-resolved, typed configuration schema. It is never
// sparse: Resolve always returns a Config with every field populated,
// having applied System → User → Project → Session deltas in order
// over Default().
type Config struct {
	Theme        string             `json:"theme"`
	Editor       EditorConfig       `json:"editor"`
	FileExplorer FileExplorerConfig `json:"file_explorer"`
	Terminal     TerminalConfig     `json:"terminal"`
	Keybindings  []Keybinding       `json:"keybindings"`
	Languages    map[string]LanguageConfig `json:"languages"`
	LSP          map[string]LSPConfig      `json:"lsp"`
}

// EditorConfig holds the per-buffer editing behaviors spec.md §6 names.
type EditorConfig struct {
	TabSize                  int  `json:"tab_size"`
	AutoIndent               bool `json:"auto_indent"`
	LineNumbers              bool `json:"line_numbers"`
	RelativeLineNumbers      bool `json:"relative_line_numbers"`
	ScrollOffset             int  `json:"scroll_offset"`
	SyntaxHighlighting       bool `json:"syntax_highlighting"`
	LineWrap                 bool `json:"line_wrap"`
	LargeFileThresholdBytes  int  `json:"large_file_threshold_bytes"`
	SnapshotIntervalSeconds  int  `json:"snapshot_interval"`
	AcceptSuggestionOnEnter  bool `json:"accept_suggestion_on_enter"`
}

// FileExplorerConfig controls the file browser's filtering and layout.
type FileExplorerConfig struct {
	RespectGitignore    bool     `json:"respect_gitignore"`
	ShowHidden          bool     `json:"show_hidden"`
	ShowGitignored      bool     `json:"show_gitignored"`
	Width               int      `json:"width"`
	CustomIgnorePatterns []string `json:"custom_ignore_patterns"`
}

// TerminalConfig controls PTY-backed terminal buffers, sibling to the
// lsp section spec.md §6 names (not itself exhaustively listed there;
// grounded on original_source app/terminal.rs's per-terminal settings).
type TerminalConfig struct {
	Shell               string `json:"shell"`
	JumpToEndOnOutput   bool   `json:"jump_to_end_on_output"`
}

// Keybinding maps a key chord (optionally scoped to a mode via When) to
// a named command and its arguments.
type Keybinding struct {
	Key       string         `json:"key"`
	Modifiers []string       `json:"modifiers"`
	Action    string         `json:"action"`
	Args      map[string]any `json:"args,omitempty"`
	When      string         `json:"when,omitempty"`
}

// LanguageConfig associates file extensions with a grammar and editing
// conventions for one language entry (spec.md §6 "languages" map).
type LanguageConfig struct {
	Extensions   []string `json:"extensions"`
	Grammar      string   `json:"grammar"`
	CommentPrefix string  `json:"comment_prefix,omitempty"`
	AutoIndent   bool     `json:"auto_indent"`
}

// ProcessLimits bounds a spawned LSP server process's resource usage.
type ProcessLimits struct {
	MaxMemoryBytes int64 `json:"max_memory_bytes,omitempty"`
	MaxCPUPercent  int   `json:"max_cpu_percent,omitempty"`
}

// LSPConfig is one language server's launch configuration, keyed by
// language name in Config.LSP.
type LSPConfig struct {
	Command       string        `json:"command"`
	Args          []string      `json:"args"`
	Enabled       bool          `json:"enabled"`
	ProcessLimits ProcessLimits `json:"process_limits,omitempty"`
}
