package event

import (
	"bytes"
	"testing"

	"github.com/fresh-editor/fresh/internal/cursor"
)

// fakeTarget is a minimal Target that tracks buffer bytes and a single
// cursor, enough to exercise Log's replay logic without depending on
// internal/state (which in turn depends on this package).
type fakeTarget struct {
	buf     []byte
	cur     cursor.Cursor
	topByte int
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{cur: cursor.Cursor{ID: 1}}
}

func (f *fakeTarget) ApplyEvent(ev Event) {
	switch ev.Kind {
	case KindInsert:
		out := append([]byte(nil), f.buf[:ev.Pos]...)
		out = append(out, ev.Text...)
		out = append(out, f.buf[ev.Pos:]...)
		f.buf = out
		f.cur.Position = ev.Pos + len(ev.Text)
	case KindDelete:
		end := ev.Pos + len(ev.Text)
		out := append([]byte(nil), f.buf[:ev.Pos]...)
		out = append(out, f.buf[end:]...)
		f.buf = out
		f.cur.Position = ev.Pos
	case KindMoveCursor:
		f.cur.Position = ev.Position
	case KindScroll:
		f.topByte += ev.Lines
	}
}

func (f *fakeTarget) CaptureCursorsViewport() Snapshot {
	return Snapshot{Cursors: []cursor.Cursor{f.cur}, TopByte: f.topByte}
}

func (f *fakeTarget) RestoreCursorsViewport(s Snapshot) {
	if len(s.Cursors) > 0 {
		f.cur = s.Cursors[0]
	}
	f.topByte = s.TopByte
}

func (f *fakeTarget) ResetBuffer() {
	f.buf = nil
	f.cur = cursor.Cursor{ID: 1}
	f.topByte = 0
}

func TestAppendAndUndoRedo(t *testing.T) {
	target := newFakeTarget()
	log := NewLog()

	ev := Event{Kind: KindInsert, CursorID: 1, Pos: 0, Text: []byte("hello")}
	target.ApplyEvent(ev)
	log.Append(ev)

	if got := string(target.buf); got != "hello" {
		t.Fatalf("buf = %q, want hello", got)
	}

	if !log.Undo(target) {
		t.Fatal("expected Undo to succeed")
	}
	if len(target.buf) != 0 {
		t.Fatalf("buf after undo = %q, want empty", target.buf)
	}

	if !log.Redo(target) {
		t.Fatal("expected Redo to succeed")
	}
	if got := string(target.buf); got != "hello" {
		t.Fatalf("buf after redo = %q, want hello", got)
	}
}

func TestInsertCoalescing(t *testing.T) {
	target := newFakeTarget()
	log := NewLog()

	for i, ch := range []byte("abc") {
		ev := Event{Kind: KindInsert, CursorID: 1, Pos: i, Text: []byte{ch}}
		target.ApplyEvent(ev)
		log.Append(ev)
	}

	if log.Len() != 1 {
		t.Fatalf("expected 3 contiguous inserts to coalesce into 1 event, got %d", log.Len())
	}
	if !bytes.Equal(log.events[0].Text, []byte("abc")) {
		t.Fatalf("coalesced text = %q, want abc", log.events[0].Text)
	}

	// One undo should remove the whole coalesced run as a single step.
	log.Undo(target)
	if len(target.buf) != 0 {
		t.Fatalf("buf after undo of coalesced insert = %q, want empty", target.buf)
	}
}

func TestNonInsertEventBreaksCoalescing(t *testing.T) {
	target := newFakeTarget()
	log := NewLog()

	ev1 := Event{Kind: KindInsert, CursorID: 1, Pos: 0, Text: []byte("a")}
	target.ApplyEvent(ev1)
	log.Append(ev1)

	move := Event{Kind: KindMoveCursor, CursorID: 1, Position: 0}
	target.ApplyEvent(move)
	log.Append(move)

	ev2 := Event{Kind: KindInsert, CursorID: 1, Pos: 0, Text: []byte("b")}
	target.ApplyEvent(ev2)
	log.Append(ev2)

	if log.Len() != 3 {
		t.Fatalf("expected insert/move/insert to stay separate, got %d events", log.Len())
	}
}

func TestRedoInvalidatedByNewAppend(t *testing.T) {
	target := newFakeTarget()
	log := NewLog()

	ev1 := Event{Kind: KindInsert, CursorID: 1, Pos: 0, Text: []byte("x")}
	target.ApplyEvent(ev1)
	log.Append(ev1)
	log.Undo(target)

	ev2 := Event{Kind: KindInsert, CursorID: 1, Pos: 0, Text: []byte("y")}
	target.ApplyEvent(ev2)
	log.Append(ev2)

	if log.Redo(target) {
		t.Fatal("expected Redo to be unavailable after a fresh append discarded the redo tail")
	}
	if got := string(target.buf); got != "y" {
		t.Fatalf("buf = %q, want y", got)
	}
}

func TestSnapshotIfDueAndReplayUsesCheckpoint(t *testing.T) {
	target := newFakeTarget()
	log := NewLog()

	for i := 0; i < snapshotEvery; i++ {
		ev := Event{Kind: KindMoveCursor, CursorID: 1, Position: i}
		target.ApplyEvent(ev)
		log.Append(ev)
		log.SnapshotIfDue(target)
	}

	if len(log.checkpoints) != 1 {
		t.Fatalf("expected exactly 1 checkpoint after %d events, got %d", snapshotEvery, len(log.checkpoints))
	}
	if log.checkpoints[0].gen != snapshotEvery {
		t.Fatalf("checkpoint gen = %d, want %d", log.checkpoints[0].gen, snapshotEvery)
	}
}
