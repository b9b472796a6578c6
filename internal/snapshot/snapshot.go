// Package snapshot builds the read-only EditorStateSnapshot spec.md §6
// names: the single published view of editor state that workers (the
// plugin runtime, status bar, etc.) observe under a single-writer lock,
// rebuilt once per tick rather than letting readers reach into live
// buffers directly (spec.md §3 "Shared-resource policy").
package snapshot

import (
	"github.com/fresh-editor/fresh/config"
	"github.com/fresh-editor/fresh/internal/cursor"
	"github.com/fresh-editor/fresh/internal/diagnostics"
	"github.com/fresh-editor/fresh/internal/splittree"
	"github.com/fresh-editor/fresh/internal/state"
)

// BufferView is one open buffer's read-only summary.
type BufferView struct {
	ID       splittree.BufferID
	Path     string
	Length   int
	Modified bool
}

// EditorStateSnapshot is the read-only view published each tick
// (spec.md §6): open buffers, the active buffer/split, cursor and
// viewport state for the active buffer, diagnostics by URI, editor
// mode, resolved config, and working directory.
type EditorStateSnapshot struct {
	WorkingDir string
	Config     config.Config

	Buffers      []BufferView
	ActiveSplit  splittree.ID
	ActiveBuffer splittree.BufferID

	Mode           string
	PrimaryCursor  cursor.Cursor
	Cursors        []cursor.Cursor
	ViewportTop    int
	ViewportLeft   int

	// DiagnosticsByURI is a defensive copy of the diagnostics cache at
	// snapshot time, keyed by document URI.
	DiagnosticsByURI map[string][]diagnostics.Diagnostic
}

// Build assembles an EditorStateSnapshot from the live tree/buffers
// (owned by the single writer) plus the diagnostics cache and resolved
// config. It never retains references into mutable state: buffer text
// itself is intentionally not copied here (BufferView only reports
// Length), since the snapshot's job is cheap per-tick metadata, not a
// full content mirror.
func Build(workingDir string, cfg config.Config, tree *splittree.Tree, buffers map[splittree.BufferID]*state.EditorState, diags *diagnostics.Store) EditorStateSnapshot {
	snap := EditorStateSnapshot{
		WorkingDir:       workingDir,
		Config:           cfg,
		DiagnosticsByURI: diags.All(),
	}

	for id, s := range buffers {
		snap.Buffers = append(snap.Buffers, BufferView{
			ID:       id,
			Path:     s.Buffer.FilePath(),
			Length:   s.Buffer.Len(),
			Modified: s.Buffer.Modified(),
		})
	}

	if tree == nil {
		return snap
	}
	snap.ActiveSplit = tree.ActiveID()
	if bufID, ok := tree.ActiveBuffer(snap.ActiveSplit); ok {
		snap.ActiveBuffer = bufID
		if s, ok := buffers[bufID]; ok {
			snap.Mode = s.Mode
			snap.PrimaryCursor = s.Cursors.Primary()
			snap.Cursors = s.Cursors.All()
			snap.ViewportTop = s.Viewport.TopByte
			snap.ViewportLeft = s.Viewport.LeftColumn
		}
	}
	return snap
}
