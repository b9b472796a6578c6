package state

import (
	"testing"

	"github.com/fresh-editor/fresh/internal/event"
)

func TestNewHasSingleCursorAtOrigin(t *testing.T) {
	s := New(80, 24)
	if s.Cursors.Len() != 1 {
		t.Fatalf("cursor count = %d, want 1", s.Cursors.Len())
	}
	if s.Cursors.Primary().Position != 0 {
		t.Fatalf("primary position = %d, want 0", s.Cursors.Primary().Position)
	}
}

func TestApplyInsertMovesCursorAndMarksModified(t *testing.T) {
	s := New(80, 24)
	id := s.Cursors.Primary().ID

	s.Apply(event.Event{Kind: event.KindInsert, CursorID: id, Pos: 0, Text: []byte("hello")})

	if got := string(s.Buffer.Bytes()); got != "hello" {
		t.Fatalf("buffer = %q, want hello", got)
	}
	if s.Cursors.Primary().Position != 5 {
		t.Fatalf("primary position = %d, want 5", s.Cursors.Primary().Position)
	}
	if !s.Buffer.Modified() {
		t.Fatal("expected buffer to be marked modified")
	}
}

func TestApplyDeleteMovesCursorToRangeStart(t *testing.T) {
	s := New(80, 24)
	id := s.Cursors.Primary().ID

	s.Apply(event.Event{Kind: event.KindInsert, CursorID: id, Pos: 0, Text: []byte("hello world")})
	s.Apply(event.Event{Kind: event.KindDelete, CursorID: id, Pos: 5, Text: []byte(" world")})

	if got := string(s.Buffer.Bytes()); got != "hello" {
		t.Fatalf("buffer = %q, want hello", got)
	}
	if s.Cursors.Primary().Position != 5 {
		t.Fatalf("primary position = %d, want 5", s.Cursors.Primary().Position)
	}
}

func TestCursorAdjustmentAfterInsertShiftsOtherCursors(t *testing.T) {
	s := New(80, 24)
	primary := s.Cursors.Primary().ID
	secondID := s.Cursors.Add(5, nil)

	s.Apply(event.Event{Kind: event.KindInsert, CursorID: primary, Pos: 0, Text: []byte("abc")})

	c, ok := s.Cursors.Get(secondID)
	if !ok {
		t.Fatal("second cursor missing after insert")
	}
	if c.Position != 8 {
		t.Fatalf("second cursor position = %d, want 8", c.Position)
	}
}

func TestApplyManyBuildsUpBuffer(t *testing.T) {
	s := New(80, 24)
	id := s.Cursors.Primary().ID

	s.Apply(event.Event{Kind: event.KindInsert, CursorID: id, Pos: 0, Text: []byte("hello ")})
	s.Apply(event.Event{Kind: event.KindInsert, CursorID: id, Pos: 6, Text: []byte("world")})

	if got := string(s.Buffer.Bytes()); got != "hello world" {
		t.Fatalf("buffer = %q, want \"hello world\"", got)
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	s := New(80, 24)
	id := s.Cursors.Primary().ID

	s.Apply(event.Event{Kind: event.KindInsert, CursorID: id, Pos: 0, Text: []byte("hi")})
	if got := string(s.Buffer.Bytes()); got != "hi" {
		t.Fatalf("buffer = %q, want hi", got)
	}

	if !s.Undo() {
		t.Fatal("expected Undo to succeed")
	}
	if got := string(s.Buffer.Bytes()); got != "" {
		t.Fatalf("buffer after undo = %q, want empty", got)
	}

	if !s.Redo() {
		t.Fatal("expected Redo to succeed")
	}
	if got := string(s.Buffer.Bytes()); got != "hi" {
		t.Fatalf("buffer after redo = %q, want hi", got)
	}
}

func TestTerminalModeDisablesEditing(t *testing.T) {
	s := New(80, 24)
	s.SetTerminalMode()
	id := s.Cursors.Primary().ID

	s.Apply(event.Event{Kind: event.KindInsert, CursorID: id, Pos: 0, Text: []byte("ignored")})

	if s.Buffer.Len() != 0 {
		t.Fatalf("expected insert to be a no-op in terminal mode, buffer = %q", s.Buffer.Bytes())
	}
	if s.Margins.ShowLineNumbers {
		t.Fatal("expected terminal mode to hide line numbers")
	}
}

func TestMarkSavedClearsModifiedFlag(t *testing.T) {
	s := New(80, 24)
	id := s.Cursors.Primary().ID
	s.Apply(event.Event{Kind: event.KindInsert, CursorID: id, Pos: 0, Text: []byte("x")})
	if !s.Buffer.Modified() {
		t.Fatal("expected modified after insert")
	}
	s.MarkSaved()
	if s.Buffer.Modified() {
		t.Fatal("expected not modified immediately after MarkSaved")
	}
}
