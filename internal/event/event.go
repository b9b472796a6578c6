// Package event implements the append-only event log with undo/redo by
// replay: component D of the editing engine (spec.md §3, §4.D).
//
// Events are descriptive records of what happened to an EditorState, not
// imperative commands; they carry enough data to be replayed from an
// empty state and reproduce the current state exactly (spec.md §8 S-5).
package event

import "github.com/fresh-editor/fresh/internal/cursor"

// Kind identifies an Event's variant. Event is a closed sum type
// expressed as a tagged struct rather than an interface, since every
// variant is a small, comparable value and callers need to serialize it
// for session history (component J).
type Kind int

const (
	KindInsert Kind = iota
	KindDelete
	KindMoveCursor
	KindAddCursor
	KindRemoveCursor
	KindScroll
	KindSetViewport
	KindChangeMode
)

func (k Kind) String() string {
	switch k {
	case KindInsert:
		return "Insert"
	case KindDelete:
		return "Delete"
	case KindMoveCursor:
		return "MoveCursor"
	case KindAddCursor:
		return "AddCursor"
	case KindRemoveCursor:
		return "RemoveCursor"
	case KindScroll:
		return "Scroll"
	case KindSetViewport:
		return "SetViewport"
	case KindChangeMode:
		return "ChangeMode"
	default:
		return "Unknown"
	}
}

// Event is one entry in the log. Only the fields relevant to Kind are
// populated; callers switch on Kind before reading them.
type Event struct {
	Kind     Kind
	CursorID cursor.ID

	// Insert/Delete
	Pos  int
	Text []byte // inserted bytes, or the bytes removed by a delete

	// MoveCursor/AddCursor/RemoveCursor
	Position int
	Anchor   *int

	// Scroll
	Lines int

	// SetViewport
	TopByte int

	// ChangeMode
	Mode string
}

// Snapshot is the lightweight per-generation checkpoint: cursor and
// viewport-top state, cheap enough to keep one every K events without
// needing to reconstruct buffer bytes (spec.md §4.D).
type Snapshot struct {
	Cursors []cursor.Cursor
	TopByte int
}

// Target is whatever owns buffer/cursor/viewport state and knows how to
// apply one Event to itself. EditorState (component E) implements this;
// Log stays ignorant of buffer representation so it can be reused
// unchanged regardless of how Target stores bytes.
type Target interface {
	ApplyEvent(Event)
	CaptureCursorsViewport() Snapshot
	RestoreCursorsViewport(Snapshot)
	ResetBuffer()
}

// snapshotEvery is K from spec.md §4.D ("every K events, K≈100").
const snapshotEvery = 100

// coalesceMaxRun is N from spec.md §4.D's insert-coalescing rule.
const coalesceMaxRun = 32

type checkpoint struct {
	gen int // number of events applied up to and including this checkpoint
	snap Snapshot
}

// Log is the append-only event stream for one buffer.
type Log struct {
	events      []Event
	checkpoints []checkpoint
	current     int // generation cursor: events[:current] are "applied"

	coalescing   bool
	coalesceCur  cursor.ID
	coalesceLen  int
}

// NewLog returns an empty log positioned at generation 0.
func NewLog() *Log {
	return &Log{}
}

// Len returns the number of events recorded, including any redo tail
// beyond the current undo position (see Current and Append).
func (l *Log) Len() int { return len(l.events) }

// Current returns the current generation (number of applied events).
func (l *Log) Current() int { return l.current }

// Append records ev as having just been applied by a live caller at the
// current generation. If ev is a new event appended after an undo (current
// < len(events)), the redo tail is discarded — spec.md: "redo is
// invalidated only by a new appended event that is not a redo itself";
// Redo (below) does not go through Append, so this is automatically true.
func (l *Log) Append(ev Event) {
	if l.current < len(l.events) {
		l.events = l.events[:l.current]
		l.truncateCheckpoints(l.current)
	}

	if ev.Kind == KindInsert && l.tryCoalesce(ev) {
		l.current = len(l.events)
		return
	}
	l.resetCoalescing(ev)

	l.events = append(l.events, ev)
	l.current = len(l.events)
}

func (l *Log) tryCoalesce(ev Event) bool {
	if len(l.events) == 0 {
		return false
	}
	last := &l.events[len(l.events)-1]
	if last.Kind != KindInsert || !l.coalescing || l.coalesceCur != ev.CursorID {
		return false
	}
	if last.Pos+len(last.Text) != ev.Pos {
		return false
	}
	if l.coalesceLen+len(ev.Text) > coalesceMaxRun {
		return false
	}
	last.Text = append(last.Text, ev.Text...)
	l.coalesceLen += len(ev.Text)
	return true
}

func (l *Log) resetCoalescing(ev Event) {
	if ev.Kind == KindInsert {
		l.coalescing = true
		l.coalesceCur = ev.CursorID
		l.coalesceLen = len(ev.Text)
	} else {
		l.coalescing = false
	}
}

func (l *Log) truncateCheckpoints(gen int) {
	for i, c := range l.checkpoints {
		if c.gen > gen {
			l.checkpoints = l.checkpoints[:i]
			return
		}
	}
}

// SnapshotIfDue records a checkpoint if the current generation has
// advanced a full snapshotEvery interval past the last one.
func (l *Log) SnapshotIfDue(target Target) {
	due := l.current / snapshotEvery
	have := 0
	if n := len(l.checkpoints); n > 0 {
		have = (l.checkpoints[n-1].gen / snapshotEvery) + 1
	}
	if l.current > 0 && l.current%snapshotEvery == 0 && due >= have {
		l.checkpoints = append(l.checkpoints, checkpoint{
			gen:  l.current,
			snap: target.CaptureCursorsViewport(),
		})
	}
}

// nearestCheckpointAtOrBefore returns the latest checkpoint with
// gen <= targetGen, or false if none exists (replay from empty).
func (l *Log) nearestCheckpointAtOrBefore(targetGen int) (checkpoint, bool) {
	var best checkpoint
	found := false
	for _, c := range l.checkpoints {
		if c.gen <= targetGen && (!found || c.gen > best.gen) {
			best = c
			found = true
		}
	}
	return best, found
}

// replayTo rebuilds target's buffer by resetting it and replaying
// events[0:targetGen], then positions cursors/viewport using the nearest
// checkpoint to avoid re-deriving them from scratch when one is available.
func (l *Log) replayTo(target Target, targetGen int) {
	target.ResetBuffer()
	from := 0
	if cp, ok := l.nearestCheckpointAtOrBefore(targetGen); ok {
		from = cp.gen
		for _, ev := range l.events[:from] {
			target.ApplyEvent(ev)
		}
		target.RestoreCursorsViewport(cp.snap)
	}
	for _, ev := range l.events[from:targetGen] {
		target.ApplyEvent(ev)
	}
}

// Undo replays the log up to (not including) the current generation's
// last event, per spec.md: "undo seeks to the snapshot ≤ target
// generation and replays forward to target−1". Events are not removed;
// only the generation cursor moves, so Redo can re-enter the tail.
func (l *Log) Undo(target Target) bool {
	if l.current == 0 {
		return false
	}
	targetGen := l.current - 1
	l.replayTo(target, targetGen)
	l.current = targetGen
	l.coalescing = false
	return true
}

// Redo advances the generation cursor by one event and applies it
// directly (no full replay needed — it's the very next recorded event).
func (l *Log) Redo(target Target) bool {
	if l.current >= len(l.events) {
		return false
	}
	target.ApplyEvent(l.events[l.current])
	l.current++
	l.coalescing = false
	return true
}

// Events returns the events applied so far, in order. Intended for
// session capture (component J) and tests; callers must not mutate the
// returned slice's backing array.
func (l *Log) Events() []Event {
	return l.events[:l.current]
}

// EvictBefore discards events (and their checkpoints) strictly before
// gen, enforcing the log's soft cap. It refuses to evict past the most
// recent checkpoint at or before gen, so replay from a live checkpoint
// remains possible for any retained generation (spec.md §4.D).
func (l *Log) EvictBefore(gen int) {
	cp, ok := l.nearestCheckpointAtOrBefore(gen)
	cut := gen
	if ok {
		cut = cp.gen
	} else {
		return // no checkpoint to anchor eviction on; keep everything
	}
	if cut <= 0 {
		return
	}
	l.events = append([]Event(nil), l.events[cut:]...)
	l.current -= cut
	newCheckpoints := make([]checkpoint, 0, len(l.checkpoints))
	for _, c := range l.checkpoints {
		if c.gen >= cut {
			newCheckpoints = append(newCheckpoints, checkpoint{gen: c.gen - cut, snap: c.snap})
		}
	}
	l.checkpoints = newCheckpoints
}
