package cursor

import "testing"

func TestNewSetHasSinglePrimaryCursor(t *testing.T) {
	s := NewSet()
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
	if s.Primary().Position != 0 {
		t.Fatalf("primary position = %d, want 0", s.Primary().Position)
	}
}

// TestAddCursorAtNextMatch exercises scenario S2: three non-overlapping
// "foo" selections created by repeated add-cursor-at-next-match.
func TestAddCursorAtNextMatch(t *testing.T) {
	s := NewSet()
	matches := [][2]int{{0, 3}, {4, 7}, {8, 11}}
	var ids []ID
	for i, m := range matches {
		start, end := m[0], m[1]
		if i == 0 {
			// First match replaces the initial cursor's selection.
			p := s.Primary()
			p.Position = end
			anchor := start
			p.Anchor = &anchor
			s.Update(p)
			ids = append(ids, p.ID)
			continue
		}
		anchor := start
		id := s.Add(end, &anchor)
		ids = append(ids, id)
	}
	if s.Len() != 3 {
		t.Fatalf("len = %d, want 3", s.Len())
	}
	all := s.All()
	for i, c := range all {
		start, end, ok := c.Selection()
		if !ok {
			t.Fatalf("cursor %d has no selection", i)
		}
		if start != matches[i][0] || end != matches[i][1] {
			t.Fatalf("cursor %d selection = (%d,%d), want %v", i, start, end, matches[i])
		}
	}
}

func TestNormalizeMergesIdenticalSelections(t *testing.T) {
	s := NewSet()
	anchor1 := 0
	s.Add(3, &anchor1)
	anchor2 := 0
	s.Add(3, &anchor2) // duplicate selection, should merge away
	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2 (initial cursor + one merged selection)", s.Len())
	}
}

func TestNormalizeSortsByPosition(t *testing.T) {
	s := NewSet()
	s.Add(10, nil)
	s.Add(2, nil)
	all := s.All()
	for i := 1; i < len(all); i++ {
		if all[i-1].Position > all[i].Position {
			t.Fatalf("cursors not sorted: %+v", all)
		}
	}
}

func TestRemoveReassignsPrimary(t *testing.T) {
	s := NewSet()
	primary := s.Primary()
	id2 := s.Add(5, nil)
	s.SetPrimary(primary.ID)
	s.Remove(primary.ID)
	if s.Primary().ID != id2 {
		t.Fatalf("primary after remove = %d, want %d", s.Primary().ID, id2)
	}
}

func TestRemoveLastCursorIsNoop(t *testing.T) {
	s := NewSet()
	id := s.Primary().ID
	s.Remove(id)
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1 (cannot remove last cursor)", s.Len())
	}
}

func TestAdjustForEditShiftsCursorsAndAnchors(t *testing.T) {
	s := NewSet()
	anchor := 2
	s.Add(8, &anchor)
	s.AdjustForEdit(0, 0, 3) // insert 3 bytes at start
	all := s.All()
	found := false
	for _, c := range all {
		if c.Position == 11 {
			found = true
			if c.Anchor == nil || *c.Anchor != 5 {
				t.Fatalf("anchor after shift = %v, want 5", c.Anchor)
			}
		}
	}
	if !found {
		t.Fatalf("expected a cursor shifted to position 11, got %+v", all)
	}
}

func TestClampToLen(t *testing.T) {
	s := NewSet()
	anchor := 50
	s.Add(100, &anchor)
	s.ClampToLen(20)
	all := s.All()
	for _, c := range all {
		if c.Position > 20 {
			t.Fatalf("position %d exceeds clamp", c.Position)
		}
		if c.Anchor != nil && *c.Anchor > 20 {
			t.Fatalf("anchor %d exceeds clamp", *c.Anchor)
		}
	}
}
