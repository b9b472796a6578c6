// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/diff.go
// Summary: Sparse-delta layered merge for System → User → Project →
// Session configuration resolution (spec.md §6).

package config

// Delta is a sparse overlay: every scalar field is a pointer so a config
// file or a runtime override can name only the keys it changes, leaving
// everything else untouched. Keybindings replace wholesale when
// present (a partial keybinding list would be ambiguous to merge
// item-wise); Languages/LSP merge key-wise so a project can add one
// language entry without repeating every other one.
type Delta struct {
	Theme        *string
	Editor       EditorDelta
	FileExplorer FileExplorerDelta
	Terminal     TerminalDelta
	Keybindings  []Keybinding
	Languages    map[string]LanguageConfig
	LSP          map[string]LSPConfig
}

type EditorDelta struct {
	TabSize                 *int
	AutoIndent              *bool
	LineNumbers             *bool
	RelativeLineNumbers     *bool
	ScrollOffset            *int
	SyntaxHighlighting      *bool
	LineWrap                *bool
	LargeFileThresholdBytes *int
	SnapshotIntervalSeconds *int
	AcceptSuggestionOnEnter *bool
}

type FileExplorerDelta struct {
	RespectGitignore     *bool
	ShowHidden           *bool
	ShowGitignored       *bool
	Width                *int
	CustomIgnorePatterns []string
}

type TerminalDelta struct {
	Shell             *string
	JumpToEndOnOutput *bool
}

// Merge applies d on top of base, returning the merged Config. base is
// never mutated.
func Merge(base Config, d Delta) Config {
	out := base

	if d.Theme != nil {
		out.Theme = *d.Theme
	}
	out.Editor = mergeEditor(out.Editor, d.Editor)
	out.FileExplorer = mergeFileExplorer(out.FileExplorer, d.FileExplorer)
	out.Terminal = mergeTerminal(out.Terminal, d.Terminal)

	if d.Keybindings != nil {
		out.Keybindings = d.Keybindings
	}
	if d.Languages != nil {
		out.Languages = mergeLanguages(out.Languages, d.Languages)
	}
	if d.LSP != nil {
		out.LSP = mergeLSP(out.LSP, d.LSP)
	}
	return out
}

func mergeEditor(base EditorConfig, d EditorDelta) EditorConfig {
	if d.TabSize != nil {
		base.TabSize = *d.TabSize
	}
	if d.AutoIndent != nil {
		base.AutoIndent = *d.AutoIndent
	}
	if d.LineNumbers != nil {
		base.LineNumbers = *d.LineNumbers
	}
	if d.RelativeLineNumbers != nil {
		base.RelativeLineNumbers = *d.RelativeLineNumbers
	}
	if d.ScrollOffset != nil {
		base.ScrollOffset = *d.ScrollOffset
	}
	if d.SyntaxHighlighting != nil {
		base.SyntaxHighlighting = *d.SyntaxHighlighting
	}
	if d.LineWrap != nil {
		base.LineWrap = *d.LineWrap
	}
	if d.LargeFileThresholdBytes != nil {
		base.LargeFileThresholdBytes = *d.LargeFileThresholdBytes
	}
	if d.SnapshotIntervalSeconds != nil {
		base.SnapshotIntervalSeconds = *d.SnapshotIntervalSeconds
	}
	if d.AcceptSuggestionOnEnter != nil {
		base.AcceptSuggestionOnEnter = *d.AcceptSuggestionOnEnter
	}
	return base
}

func mergeFileExplorer(base FileExplorerConfig, d FileExplorerDelta) FileExplorerConfig {
	if d.RespectGitignore != nil {
		base.RespectGitignore = *d.RespectGitignore
	}
	if d.ShowHidden != nil {
		base.ShowHidden = *d.ShowHidden
	}
	if d.ShowGitignored != nil {
		base.ShowGitignored = *d.ShowGitignored
	}
	if d.Width != nil {
		base.Width = *d.Width
	}
	if d.CustomIgnorePatterns != nil {
		base.CustomIgnorePatterns = d.CustomIgnorePatterns
	}
	return base
}

func mergeTerminal(base TerminalConfig, d TerminalDelta) TerminalConfig {
	if d.Shell != nil {
		base.Shell = *d.Shell
	}
	if d.JumpToEndOnOutput != nil {
		base.JumpToEndOnOutput = *d.JumpToEndOnOutput
	}
	return base
}

func mergeLanguages(base, overlay map[string]LanguageConfig) map[string]LanguageConfig {
	out := make(map[string]LanguageConfig, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

func mergeLSP(base, overlay map[string]LSPConfig) map[string]LSPConfig {
	out := make(map[string]LSPConfig, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

// Resolve layers system, user, project, then session deltas over
// Default(), in that order — each later layer wins on any field it
// names (spec.md §6's System → User → Project → Session precedence).
func Resolve(system, user, project, session Delta) Config {
	cfg := Default()
	cfg = Merge(cfg, system)
	cfg = Merge(cfg, user)
	cfg = Merge(cfg, project)
	cfg = Merge(cfg, session)
	return cfg
}
