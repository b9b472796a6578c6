// Package state implements the per-buffer editor state composite and its
// single mutation entry point: component E of the editing engine
// (spec.md §3, §4.E).
package state

import (
	"github.com/fresh-editor/fresh/internal/cursor"
	"github.com/fresh-editor/fresh/internal/decoration"
	"github.com/fresh-editor/fresh/internal/event"
	"github.com/fresh-editor/fresh/internal/textbuf"
	"github.com/fresh-editor/fresh/internal/viewport"
)

// ViewMode distinguishes a normal text buffer from one hosting a PTY
// terminal, which disables direct editing (spec.md §4.E terminal-buffer
// special case, grounded on original_source app/terminal.rs).
type ViewMode int

const (
	ViewModeText ViewMode = iota
	ViewModeTerminal
)

// Margins controls gutter decorations; terminal buffers hide line
// numbers (original_source app/terminal.rs: margins.set_line_numbers(false)).
type Margins struct {
	ShowLineNumbers bool
}

// EditorState is the composite (buffer, cursors, event log, viewport,
// decorations, mode) from spec.md §4.E.
type EditorState struct {
	Buffer   *textbuf.Buffer
	Cursors  *cursor.Set
	Log      *event.Log
	Viewport *viewport.Viewport
	Decor    *decoration.Store

	Mode            string
	ViewMode        ViewMode
	Margins         Margins
	EditingDisabled bool

	// TerminalModeResume records, per terminal-backed buffer, whether a
	// split that lost and regained focus should resume live PTY mode or
	// stay in Scrollback (original_source app/terminal.rs test helpers:
	// this is per-buffer, not a single global flag).
	TerminalModeResume bool

	largeFileThreshold int
	lastEditSpan       textbuf.Range
}

// New returns a fresh EditorState over an empty buffer.
func New(width, height int) *EditorState {
	buf := textbuf.New()
	return &EditorState{
		Buffer:             buf,
		Cursors:            cursor.NewSet(),
		Log:                event.NewLog(),
		Viewport:           viewport.New(width, height),
		Decor:              decoration.NewStore(buf.Markers()),
		Mode:               "normal",
		Margins:            Margins{ShowLineNumbers: true},
		largeFileThreshold: textbuf.DefaultLargeFileThreshold,
	}
}

// NewFromBytes returns an EditorState pre-populated with content. Decor
// is rebuilt over the new buffer's own marker list so overlay/virtual-
// text anchors adjust alongside that buffer's edits, not the discarded
// empty one from New.
func NewFromBytes(content []byte, width, height int) *EditorState {
	s := New(width, height)
	s.Buffer = textbuf.NewFromBytes(content)
	s.Decor = decoration.NewStore(s.Buffer.Markers())
	return s
}

// Apply is the single public mutation entry point (spec.md §4.E). It
// dispatches on ev.Kind and performs, in order: (1) buffer mutation,
// (2) cursor/marker adjustment, (3) move the originating cursor,
// (4) highlighter invalidation over the edit span, (5) ensure_visible,
// (6) append to the event log.
func (s *EditorState) Apply(ev event.Event) {
	s.mutate(ev)
	s.enforceInvariants()
	s.Log.Append(ev)
	s.Log.SnapshotIfDue(s)
}

// Undo replays the log to the previous generation (spec.md §4.D).
func (s *EditorState) Undo() bool { return s.Log.Undo(s) }

// Redo re-applies the next event in the log's tail (spec.md §4.D).
func (s *EditorState) Redo() bool { return s.Log.Redo(s) }

// mutate performs steps (1)-(5) of Apply without touching the event log,
// so it can be reused by event.Target.ApplyEvent during undo/redo replay
// (where the log, not mutate, owns the generation bookkeeping).
func (s *EditorState) mutate(ev event.Event) {
	switch ev.Kind {
	case event.KindInsert:
		s.applyInsert(ev)
	case event.KindDelete:
		s.applyDelete(ev)
	case event.KindMoveCursor:
		s.applyMoveCursor(ev)
	case event.KindAddCursor:
		s.applyAddCursor(ev)
	case event.KindRemoveCursor:
		s.Cursors.Remove(cursor.ID(ev.CursorID))
	case event.KindScroll:
		s.applyScroll(ev)
	case event.KindSetViewport:
		s.Viewport.TopByte = ev.TopByte
		s.Viewport.TopViewLineOffset = 0
	case event.KindChangeMode:
		s.Mode = ev.Mode
	}
}

func (s *EditorState) applyInsert(ev event.Event) {
	if s.EditingDisabled {
		return
	}
	// (1) mutate buffer — also adjusts markers (which carries s.Decor's
	// overlay/virtual-text anchors along with it, since Decor was built
	// over this same buffer's marker list) and invalidates the line
	// cache internally (internal/textbuf.Buffer.Insert).
	s.Buffer.Insert(ev.Pos, ev.Text)

	// (2) adjust cursors for the edit.
	s.Cursors.AdjustForEdit(ev.Pos, 0, len(ev.Text))

	// (3) move the originating cursor to the end of the insertion.
	if c, ok := s.Cursors.Get(ev.CursorID); ok {
		c.Position = ev.Pos + len(ev.Text)
		c.Anchor = nil
		s.Cursors.Update(c)
	}

	// (4) highlighter invalidation over the edit span is delegated to the
	// highlight package via InvalidateRange, called by the command layer
	// that owns the Highlighter instance (component L is buffer-scoped,
	// not state-scoped, so EditorState only exposes the edit span).
	s.lastEditSpan = textbuf.Range{Start: ev.Pos, End: ev.Pos + len(ev.Text)}

	// (5) ensure the originating cursor stays visible.
	if c, ok := s.Cursors.Get(ev.CursorID); ok {
		s.Viewport.EnsureVisible(s.Buffer, c)
	}
}

func (s *EditorState) applyDelete(ev event.Event) {
	if s.EditingDisabled {
		return
	}
	n := len(ev.Text)
	s.Buffer.Delete(textbuf.Range{Start: ev.Pos, End: ev.Pos + n})
	s.Cursors.AdjustForEdit(ev.Pos, n, 0)

	if c, ok := s.Cursors.Get(ev.CursorID); ok {
		c.Position = ev.Pos
		c.Anchor = nil
		s.Cursors.Update(c)
	}

	s.lastEditSpan = textbuf.Range{Start: ev.Pos, End: ev.Pos}

	if c, ok := s.Cursors.Get(ev.CursorID); ok {
		s.Viewport.EnsureVisible(s.Buffer, c)
	}
}

func (s *EditorState) applyMoveCursor(ev event.Event) {
	c, ok := s.Cursors.Get(ev.CursorID)
	if !ok {
		return
	}
	c.Position = ev.Position
	c.Anchor = ev.Anchor
	s.Cursors.Update(c)
	if c, ok := s.Cursors.Get(ev.CursorID); ok {
		s.Viewport.EnsureVisible(s.Buffer, c)
	}
}

func (s *EditorState) applyAddCursor(ev event.Event) {
	if _, ok := s.Cursors.Get(ev.CursorID); ok {
		return
	}
	s.Cursors.Add(ev.Position, ev.Anchor)
}

func (s *EditorState) applyScroll(ev event.Event) {
	if ev.Lines > 0 {
		s.Viewport.ScrollDown(s.Buffer, ev.Lines)
	} else if ev.Lines < 0 {
		s.Viewport.ScrollUp(s.Buffer, -ev.Lines)
	}
}

// LastEditSpan returns the byte range touched by the most recent
// Insert/Delete event applied, for highlighter/decoration invalidation.
func (s *EditorState) LastEditSpan() textbuf.Range { return s.lastEditSpan }

// ApplyEvent, CaptureCursorsViewport, and ResetBuffer implement
// event.Target so this state's own event.Log can replay it for undo/redo
// without the log package needing to know anything about buffers.
func (s *EditorState) ApplyEvent(ev event.Event) {
	s.mutate(ev)
	s.enforceInvariants()
}

func (s *EditorState) CaptureCursorsViewport() event.Snapshot {
	return event.Snapshot{Cursors: s.Cursors.All(), TopByte: s.Viewport.TopByte}
}

func (s *EditorState) RestoreCursorsViewport(snap event.Snapshot) {
	if len(snap.Cursors) == 0 {
		return
	}
	fresh := cursor.NewSet()
	first := true
	for _, c := range snap.Cursors {
		if first {
			p := fresh.Primary()
			c.ID = p.ID
			fresh.Update(c)
			first = false
			continue
		}
		fresh.Add(c.Position, c.Anchor)
	}
	s.Cursors = fresh
	s.Viewport.TopByte = snap.TopByte
	s.Viewport.TopViewLineOffset = 0
}

// ResetBuffer restores the state a fresh replay from generation zero
// starts from: empty buffer, a single cursor at the origin, and the
// viewport scrolled to the top. event.Log.replayTo calls this before
// re-applying events[0:targetGen].
func (s *EditorState) ResetBuffer() {
	s.Buffer = textbuf.New()
	s.Cursors = cursor.NewSet()
	s.Viewport.TopByte = 0
	s.Viewport.TopViewLineOffset = 0
}

// enforceInvariants clamps state to the invariants spec.md §4.E requires
// hold after every Apply: cursor/marker offsets within bounds, viewport
// top at a line boundary or zero, and cursors normalized. The modified
// flag itself is tracked cheaply by textbuf.Buffer at the point of each
// Insert/Delete, so it needs no recomputation here.
func (s *EditorState) enforceInvariants() {
	length := s.Buffer.Len()
	s.Cursors.ClampToLen(length)
	s.Cursors.Normalize()
	s.Buffer.Markers().ClampToLen(length)

	if s.Viewport.TopByte > length {
		s.Viewport.TopByte = length
	}
	if s.Viewport.TopByte != 0 {
		// Snap to the nearest line start at or before TopByte so the
		// "line boundary or zero" invariant always holds.
		s.Viewport.TopByte = snapToLineStart(s.Buffer, s.Viewport.TopByte)
	}
}

// MarkSaved records the current buffer content as the saved baseline,
// so Modified() reports false until the next edit.
func (s *EditorState) MarkSaved() {
	s.Buffer.SetModified(false)
}

func snapToLineStart(buf *textbuf.Buffer, pos int) int {
	start := 0
	it := buf.LineIterator(0)
	for {
		l, ok := it.Next()
		if !ok {
			return start
		}
		end := l.Start + len(l.Content)
		if pos <= end {
			if pos == end {
				return end
			}
			return l.Start
		}
		start = end
	}
}

// SetTerminalMode switches this state into terminal-buffer mode: editing
// is disabled and the gutter hides line numbers, matching the teacher's
// PTY-backed pane configuration (original_source app/terminal.rs).
func (s *EditorState) SetTerminalMode() {
	s.ViewMode = ViewModeTerminal
	s.EditingDisabled = true
	s.Margins.ShowLineNumbers = false
	s.TerminalModeResume = true
}

// AppendTerminalOutput appends freshly-read PTY bytes directly to a
// terminal-mode buffer, bypassing Apply/the event log since PTY output
// is not a loggable, undoable user edit (original_source
// app/terminal.rs::sync_terminal_to_buffer). When jumpToEnd is true
// (editor.terminal.jump_to_end_on_output) the viewport is scrolled to
// the new tail.
func (s *EditorState) AppendTerminalOutput(data []byte, jumpToEnd bool) {
	if len(data) == 0 {
		return
	}
	s.Buffer.Insert(s.Buffer.Len(), data)
	if jumpToEnd {
		s.Viewport.ScrollToRatio(s.Buffer, 1, s.largeFileThreshold)
	}
}

// Resize resizes the viewport and re-ensures the primary cursor is
// visible, matching original_source EditorState::resize. The first
// EnsureVisible after a session restore is skipped so the just-restored
// scroll offset survives the resize that typically follows it (spec.md
// §4.F, §4.J).
func (s *EditorState) Resize(w, h int) {
	skip := s.Viewport.SkipEnsureVisible
	s.Viewport.Resize(w, h)
	s.Viewport.SkipEnsureVisible = false
	if skip {
		return
	}
	s.Viewport.EnsureVisible(s.Buffer, s.Cursors.Primary())
}
