// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/defaults.go
// Summary: Default values for the typed configuration schema.

package config

import "os"

// Default returns a fully-populated Config with every field set to its
// built-in default (spec.md §6). System/User/Project/Session deltas are
// layered on top of this via Resolve.
func Default() Config {
	return Config{
		Theme: "mocha",
		Editor: EditorConfig{
			TabSize:                 4,
			AutoIndent:              true,
			LineNumbers:             true,
			RelativeLineNumbers:     false,
			ScrollOffset:            3,
			SyntaxHighlighting:      true,
			LineWrap:                false,
			LargeFileThresholdBytes: 1 << 20, // 1 MiB
			SnapshotIntervalSeconds: 5,
			AcceptSuggestionOnEnter: true,
		},
		FileExplorer: FileExplorerConfig{
			RespectGitignore: true,
			ShowHidden:       false,
			ShowGitignored:   false,
			Width:            30,
		},
		Terminal: TerminalConfig{
			Shell:             defaultShell(),
			JumpToEndOnOutput: true,
		},
		Keybindings: defaultKeybindings(),
		Languages:   defaultLanguages(),
		LSP:         map[string]LSPConfig{},
	}
}

func defaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

func defaultKeybindings() []Keybinding {
	return []Keybinding{
		{Key: "s", Modifiers: []string{"Ctrl"}, Action: "save"},
		{Key: "q", Modifiers: []string{"Ctrl"}, Action: "quit"},
		{Key: "p", Modifiers: []string{"Ctrl"}, Action: "command_palette"},
		{Key: "Space", Modifiers: []string{"Ctrl"}, Action: "terminal_exit", When: "terminal_mode"},
		{Key: "t", Modifiers: []string{"Ctrl"}, Action: "open_terminal"},
		{Key: "b", Modifiers: []string{"Ctrl"}, Action: "switch_buffer"},
	}
}

func defaultLanguages() map[string]LanguageConfig {
	return map[string]LanguageConfig{
		"go": {
			Extensions: []string{".go"},
			Grammar:    "go",
			AutoIndent: true,
		},
		"rust": {
			Extensions:    []string{".rs"},
			Grammar:       "rust",
			CommentPrefix: "//",
			AutoIndent:    true,
		},
		"markdown": {
			Extensions: []string{".md", ".markdown"},
			Grammar:    "markdown",
			AutoIndent: false,
		},
	}
}
