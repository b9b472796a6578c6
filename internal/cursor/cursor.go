// Package cursor implements the ordered multi-cursor collection:
// component C of the editing engine (spec.md §3, §4.C).
package cursor

import "golang.org/x/exp/slices"

// ID stably addresses a cursor across edits.
type ID uint64

// Cursor is one cursor/selection in a Set.
type Cursor struct {
	ID            ID
	Position      int
	Anchor        *int // nil when there is no selection
	StickyColumn  *int // visual column of the last horizontal motion
}

// Selection returns the ordered (start, end) pair for this cursor's
// selection, or false if there is no anchor.
func (c Cursor) Selection() (start, end int, ok bool) {
	if c.Anchor == nil {
		return 0, 0, false
	}
	a, p := *c.Anchor, c.Position
	if a <= p {
		return a, p, true
	}
	return p, a, true
}

// Set is an ordered (by position), id-addressed multi-cursor collection
// with a distinguished primary cursor.
type Set struct {
	cursors   []Cursor
	primaryID ID
	nextID    ID
}

// NewSet returns a Set with a single primary cursor at position 0.
func NewSet() *Set {
	s := &Set{}
	id := s.allocID()
	s.cursors = []Cursor{{ID: id, Position: 0}}
	s.primaryID = id
	return s
}

func (s *Set) allocID() ID {
	s.nextID++
	return s.nextID
}

// Len returns the number of cursors.
func (s *Set) Len() int { return len(s.cursors) }

// All returns the cursors in position order.
func (s *Set) All() []Cursor {
	out := make([]Cursor, len(s.cursors))
	copy(out, s.cursors)
	return out
}

// Primary returns the primary cursor.
func (s *Set) Primary() Cursor {
	for _, c := range s.cursors {
		if c.ID == s.primaryID {
			return c
		}
	}
	// Should not happen under the invariants, but never return a bogus
	// cursor with a dangling id.
	return s.cursors[0]
}

// SetPrimary marks id as primary. No-op if id is not present.
func (s *Set) SetPrimary(id ID) {
	for _, c := range s.cursors {
		if c.ID == id {
			s.primaryID = id
			return
		}
	}
}

// Get returns the cursor with the given id.
func (s *Set) Get(id ID) (Cursor, bool) {
	for _, c := range s.cursors {
		if c.ID == id {
			return c, true
		}
	}
	return Cursor{}, false
}

// Update replaces the cursor matching c.ID, then normalizes.
func (s *Set) Update(c Cursor) {
	for i := range s.cursors {
		if s.cursors[i].ID == c.ID {
			s.cursors[i] = c
			s.Normalize()
			return
		}
	}
}

// Add inserts a new cursor and returns its id.
func (s *Set) Add(position int, anchor *int) ID {
	id := s.allocID()
	s.cursors = append(s.cursors, Cursor{ID: id, Position: position, Anchor: anchor})
	s.Normalize()
	return id
}

// Remove deletes the cursor with the given id. If it was primary, the
// cursor that followed it in position order becomes primary (or the new
// last cursor, if the removed one was last). Removing the last cursor
// is a no-op (a cursor set may never become empty).
func (s *Set) Remove(id ID) {
	if len(s.cursors) <= 1 {
		return
	}
	idx := -1
	for i, c := range s.cursors {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	wasPrimary := s.cursors[idx].ID == s.primaryID
	s.cursors = append(s.cursors[:idx], s.cursors[idx+1:]...)
	if wasPrimary {
		newIdx := idx
		if newIdx >= len(s.cursors) {
			newIdx = len(s.cursors) - 1
		}
		s.primaryID = s.cursors[newIdx].ID
	}
}

// Normalize sorts cursors by position and merges cursors whose selection
// ranges are identical (spec.md §3 Cursor set invariant).
func (s *Set) Normalize() {
	slices.SortFunc(s.cursors, func(a, b Cursor) int {
		if a.Position < b.Position {
			return -1
		}
		if a.Position > b.Position {
			return 1
		}
		return 0
	})

	out := s.cursors[:0:0]
	for _, c := range s.cursors {
		if len(out) > 0 && sameSelection(out[len(out)-1], c) {
			// Merge: keep whichever one is primary.
			if c.ID == s.primaryID {
				out[len(out)-1] = c
			}
			continue
		}
		out = append(out, c)
	}
	s.cursors = out

	found := false
	for _, c := range s.cursors {
		if c.ID == s.primaryID {
			found = true
			break
		}
	}
	if !found && len(s.cursors) > 0 {
		s.primaryID = s.cursors[len(s.cursors)-1].ID
	}
}

func sameSelection(a, b Cursor) bool {
	aStart, aEnd, aOK := a.Selection()
	bStart, bEnd, bOK := b.Selection()
	if aOK != bOK {
		return false
	}
	if !aOK {
		return a.Position == b.Position
	}
	return aStart == bStart && aEnd == bEnd
}

// AdjustForEdit applies marker-like shift semantics (spec.md invariant 2)
// to every cursor's position and anchor for an edit at editPos replacing
// oldLen bytes with newLen bytes.
func (s *Set) AdjustForEdit(editPos, oldLen, newLen int) {
	delta := newLen - oldLen
	editEnd := editPos + oldLen
	adjust := func(off int) int {
		switch {
		case off < editPos:
			return off
		case off >= editEnd:
			return off + delta
		default:
			return editPos
		}
	}
	for i := range s.cursors {
		s.cursors[i].Position = adjust(s.cursors[i].Position)
		if s.cursors[i].Anchor != nil {
			a := adjust(*s.cursors[i].Anchor)
			s.cursors[i].Anchor = &a
		}
	}
	s.Normalize()
}

// ClampToLen clamps every cursor's position/anchor to at most length.
func (s *Set) ClampToLen(length int) {
	for i := range s.cursors {
		if s.cursors[i].Position > length {
			s.cursors[i].Position = length
		}
		if s.cursors[i].Anchor != nil && *s.cursors[i].Anchor > length {
			a := length
			s.cursors[i].Anchor = &a
		}
	}
}
