package viewport

import (
	"strings"
	"testing"

	"github.com/fresh-editor/fresh/internal/cursor"
	"github.com/fresh-editor/fresh/internal/textbuf"
)

func manyLines(n int) *textbuf.Buffer {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteString("line\n")
	}
	return textbuf.NewFromBytes([]byte(sb.String()))
}

func TestEnsureVisibleScrollsDownWhenCursorBelowWindow(t *testing.T) {
	buf := manyLines(50)
	v := New(80, 10)
	v.LineWrapEnabled = false
	v.ScrollMargin = 0

	cur := cursor.Cursor{Position: lineStartAt(buf, 0)}
	// Move cursor to line 30 (byte offset 30*5 = 150).
	cur.Position = 30 * 5

	v.EnsureVisible(buf, cur)
	lines := v.computeViewLines(buf, v.TopByte, v.TopViewLineOffset, v.Height)
	row := rowFor(lines, cur.Position, buf.Len())
	if row == -1 {
		t.Fatalf("cursor at %d not visible after EnsureVisible, top=%d", cur.Position, v.TopByte)
	}
}

// TestScrollDownClampsAtBufferEnd exercises scenario S4: scroll_down must
// not advance the top past the point where content still fills the view.
func TestScrollDownClampsAtBufferEnd(t *testing.T) {
	buf := manyLines(5)
	v := New(80, 10)
	v.LineWrapEnabled = false

	before := v.TopByte
	v.ScrollDown(buf, 100)
	if v.TopByte < before {
		t.Fatalf("TopByte regressed: %d < %d", v.TopByte, before)
	}
	// Clamped: top must still resolve to a valid line start within the buffer.
	if v.TopByte > buf.Len() {
		t.Fatalf("TopByte %d beyond buffer length %d", v.TopByte, buf.Len())
	}
}

func TestScrollUpClampsAtStart(t *testing.T) {
	buf := manyLines(5)
	v := New(80, 10)
	v.ScrollUp(buf, 100)
	if v.TopByte != 0 || v.TopViewLineOffset != 0 {
		t.Fatalf("expected clamp to (0,0), got (%d,%d)", v.TopByte, v.TopViewLineOffset)
	}
}

func TestScrollToRatioExactForSmallFile(t *testing.T) {
	buf := manyLines(100)
	v := New(80, 10)
	v.ScrollToRatio(buf, 0.5, textbuf.DefaultLargeFileThreshold)
	count, exact := buf.ExactLineCount()
	if !exact {
		t.Fatal("expected exact line count for small buffer")
	}
	if count != 100 {
		t.Fatalf("count = %d, want 100", count)
	}
	if v.TopByte <= 0 || v.TopByte >= buf.Len() {
		t.Fatalf("TopByte = %d, want somewhere in the middle of %d", v.TopByte, buf.Len())
	}
}

func TestCursorScreenPositionRoundTripsWithHitTest(t *testing.T) {
	buf := textbuf.NewFromBytes([]byte("hello\nworld\n"))
	v := New(80, 10)
	v.LineWrapEnabled = false

	cur := cursor.Cursor{Position: 8} // 'o' in "world"
	col, row := v.CursorScreenPosition(buf, cur)
	if row == -1 {
		t.Fatal("expected cursor to be visible")
	}
	got := v.HitTest(buf, col, row)
	if got != cur.Position {
		t.Fatalf("HitTest(%d,%d) = %d, want %d", col, row, got, cur.Position)
	}
}

func TestGutterWidthGrowsWithMagnitude(t *testing.T) {
	if GutterWidth(5) != GutterWidth(99) {
		t.Fatal("expected single-digit and double-digit counts to share the minimum gutter width")
	}
	if GutterWidth(10000) <= GutterWidth(99) {
		t.Fatal("expected gutter width to grow for five-digit line counts")
	}
}
