// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/clone.go
// Summary: Defensive deep-copy for deltas held by a Store, so a caller
// mutating the slice/map it passed to ApplySessionDelta/SaveUser/
// SaveProject afterward cannot alias the Store's internal state.

package config

func cloneDelta(d Delta) Delta {
	out := d
	if d.Keybindings != nil {
		out.Keybindings = append([]Keybinding(nil), d.Keybindings...)
	}
	if d.Languages != nil {
		out.Languages = make(map[string]LanguageConfig, len(d.Languages))
		for k, v := range d.Languages {
			out.Languages[k] = v
		}
	}
	if d.LSP != nil {
		out.LSP = make(map[string]LSPConfig, len(d.LSP))
		for k, v := range d.LSP {
			out.LSP[k] = v
		}
	}
	if d.FileExplorer.CustomIgnorePatterns != nil {
		out.FileExplorer.CustomIgnorePatterns = append([]string(nil), d.FileExplorer.CustomIgnorePatterns...)
	}
	return out
}
