package marker

import "testing"

func TestAdjustInsertBeforeShiftsRight(t *testing.T) {
	l := NewList()
	h := l.Add(10, GravityRight)
	l.Adjust(5, 0, 3)
	if got := l.Offset(h); got != 13 {
		t.Fatalf("offset = %d, want 13", got)
	}
}

func TestAdjustInsertAtSeamGravity(t *testing.T) {
	l := NewList()
	left := l.Add(5, GravityLeft)
	right := l.Add(5, GravityRight)
	l.Adjust(5, 0, 4)
	if got := l.Offset(left); got != 5 {
		t.Fatalf("left gravity offset = %d, want 5", got)
	}
	if got := l.Offset(right); got != 9 {
		t.Fatalf("right gravity offset = %d, want 9", got)
	}
}

func TestAdjustDeleteCollapsesInteriorMarkers(t *testing.T) {
	l := NewList()
	inside := l.Add(7, GravityRight)
	after := l.Add(20, GravityRight)
	// delete range [5,15)
	l.Adjust(5, 10, 0)
	if got := l.Offset(inside); got != 5 {
		t.Fatalf("inside marker offset = %d, want 5", got)
	}
	if got := l.Offset(after); got != 10 {
		t.Fatalf("after marker offset = %d, want 10", got)
	}
}

func TestAdjustBeforeEditUnchanged(t *testing.T) {
	l := NewList()
	h := l.Add(2, GravityRight)
	l.Adjust(10, 2, 5)
	if got := l.Offset(h); got != 2 {
		t.Fatalf("offset = %d, want 2", got)
	}
}

func TestClampToLen(t *testing.T) {
	l := NewList()
	h := l.Add(50, GravityRight)
	l.ClampToLen(10)
	if got := l.Offset(h); got != 10 {
		t.Fatalf("offset = %d, want 10", got)
	}
}
