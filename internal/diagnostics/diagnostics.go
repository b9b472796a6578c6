// Package diagnostics implements the per-URI LSP diagnostics cache and
// its conversion into decoration overlays, grounded on original_source
// src/lsp_diagnostics.rs (the Rust editor stored diagnostics as
// buffer-local overlays rather than a separate document; this keeps
// the cache URI-keyed so a plugin-published EditorStateSnapshot can
// report diagnostics for every open buffer, not just the active one).
package diagnostics

import (
	"sort"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/fresh-editor/fresh/internal/decoration"
	"github.com/fresh-editor/fresh/internal/textbuf"
)

// Severity mirrors lsp_types::DiagnosticSeverity's four levels.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInformation
	SeverityHint
)

// Diagnostic is one LSP diagnostic already converted to byte offsets
// (the LSP wire format uses UTF-16 line/character positions; callers
// convert via LineCharToByte before constructing one of these).
type Diagnostic struct {
	Range    textbuf.Range
	Severity Severity
	Message  string
}

// overlayNamespace is the namespace diagnostic overlays are added under
// so ApplyToStore can clear and reapply them independently of any other
// decoration a plugin or the highlighter owns.
const overlayNamespace = "lsp-diagnostics"

// faceFor returns the background-tinted Face a severity renders with,
// matching original_source's Color::Rgb constants per severity.
func faceFor(sev Severity) (Face decoration.Face, priority int) {
	switch sev {
	case SeverityError:
		return decoration.Face{Background: colorful.Color{R: 60.0 / 255, G: 20.0 / 255, B: 20.0 / 255}, HasBg: true}, 100
	case SeverityWarning:
		return decoration.Face{Background: colorful.Color{R: 60.0 / 255, G: 50.0 / 255, B: 0}, HasBg: true}, 50
	case SeverityInformation:
		return decoration.Face{Background: colorful.Color{R: 0, G: 30.0 / 255, B: 60.0 / 255}, HasBg: true}, 30
	default:
		return decoration.Face{Background: colorful.Color{R: 30.0 / 255, G: 30.0 / 255, B: 30.0 / 255}, HasBg: true}, 10
	}
}

// LineCharToByte converts a 0-indexed (line, character) LSP position to
// a byte offset within buf, treating character as a byte offset within
// the line (original_source's own TODO-flagged UTF-16 simplification,
// carried over unchanged since spec.md does not require full UTF-16
// position accounting). Returns false if line is out of range.
func LineCharToByte(buf *textbuf.Buffer, line, character int) (int, bool) {
	it := buf.LineIterator(0)
	cur := 0
	for cur < line {
		if _, ok := it.Next(); !ok {
			return 0, false
		}
		cur++
	}
	l, ok := it.Next()
	if !ok {
		return 0, false
	}
	off := character
	if off > len(l.Content) {
		off = len(l.Content)
	}
	return l.Start + off, true
}

// Counts summarizes a URI's diagnostics by severity, surfaced in the
// status bar (spec.md §6 EditorStateSnapshot.diagnostics_by_uri).
type Counts struct {
	Errors, Warnings, Information, Hints int
}

// Store is the per-URI diagnostics cache: component for the
// `EditorStateSnapshot.diagnostics_by_uri` field spec.md §6 names.
type Store struct {
	byURI map[string][]Diagnostic
}

// NewStore returns an empty diagnostics cache.
func NewStore() *Store {
	return &Store{byURI: make(map[string][]Diagnostic)}
}

// Set replaces uri's diagnostic list wholesale, matching the LSP
// textDocument/publishDiagnostics notification's full-replace semantics.
func (s *Store) Set(uri string, diags []Diagnostic) {
	if len(diags) == 0 {
		delete(s.byURI, uri)
		return
	}
	s.byURI[uri] = diags
}

// Get returns uri's current diagnostics, or nil if none are published.
func (s *Store) Get(uri string) []Diagnostic {
	return s.byURI[uri]
}

// CountsFor summarizes uri's diagnostics by severity.
func (s *Store) CountsFor(uri string) Counts {
	var c Counts
	for _, d := range s.byURI[uri] {
		switch d.Severity {
		case SeverityError:
			c.Errors++
		case SeverityWarning:
			c.Warnings++
		case SeverityInformation:
			c.Information++
		default:
			c.Hints++
		}
	}
	return c
}

// All returns a copy of the URI-to-diagnostics map, for
// EditorStateSnapshot.diagnostics_by_uri. As a map it has no defined
// iteration order.
func (s *Store) All() map[string][]Diagnostic {
	out := make(map[string][]Diagnostic, len(s.byURI))
	for k, v := range s.byURI {
		out[k] = v
	}
	return out
}

// URIs returns every URI with published diagnostics, sorted.
func (s *Store) URIs() []string {
	out := make([]string, 0, len(s.byURI))
	for k := range s.byURI {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ApplyToStore converts uri's cached diagnostics into overlays on decor,
// clearing any overlays this cache previously added first, matching
// original_source's apply_diagnostics_to_state (clear-then-reapply by
// a reserved id prefix, here a reserved namespace instead).
func (s *Store) ApplyToStore(uri string, decor *decoration.Store) {
	decor.ClearNamespace(overlayNamespace)
	for _, d := range s.byURI[uri] {
		face, priority := faceFor(d.Severity)
		decor.AddOverlay(overlayNamespace, d.Range, face, priority, d.Message)
	}
}
