// Package viewport implements the byte-anchored scrolling/wrap-layout
// state: component F of the editing engine (spec.md §3, §4.F).
package viewport

import (
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/fresh-editor/fresh/internal/cursor"
	"github.com/fresh-editor/fresh/internal/textbuf"
)

// DefaultScrollMargin is the number of view lines kept visible above and
// below the cursor when possible, mirroring the scroll-margin idiom
// terminal editors use to avoid the cursor hugging the screen edge.
const DefaultScrollMargin = 2

// Viewport is the per-split scroll/layout state from spec.md §4.F.
type Viewport struct {
	TopByte           int
	TopViewLineOffset int
	LeftColumn        int
	Width             int
	Height            int
	LineWrapEnabled   bool
	SkipEnsureVisible bool
	ScrollMargin      int
}

// New returns a viewport sized w x h with line wrap enabled and the
// default scroll margin.
func New(w, h int) *Viewport {
	return &Viewport{
		Width:           w,
		Height:          h,
		LineWrapEnabled: true,
		ScrollMargin:    DefaultScrollMargin,
	}
}

// viewLine is one wrapped screen row: the byte range [Start, End) it
// covers, and the source line it belongs to.
type viewLine struct {
	SourceStart int
	Start, End  int
}

// segmentOffsets splits a source line's content into wrap-segment start
// offsets (byte offsets relative to content start), honoring grapheme
// clusters and East Asian display width. Returns []int{0} when wrapping
// is disabled or the viewport has no usable width.
func (v *Viewport) segmentOffsets(content []byte) []int {
	if !v.LineWrapEnabled || v.Width <= 0 {
		return []int{0}
	}
	offsets := []int{0}
	col := 0
	byteOff := 0
	gr := uniseg.NewGraphemes(string(content))
	for gr.Next() {
		cluster := gr.Str()
		w := runewidth.StringWidth(cluster)
		if w == 0 {
			w = 1
		}
		if col+w > v.Width && col > 0 {
			offsets = append(offsets, byteOff)
			col = 0
		}
		col += w
		byteOff += len(cluster)
	}
	return offsets
}

// computeViewLines walks forward from (topByte, topSegOffset) and
// returns up to maxLines view lines.
func (v *Viewport) computeViewLines(buf *textbuf.Buffer, topByte, topSegOffset, maxLines int) []viewLine {
	if maxLines <= 0 {
		return nil
	}
	it := buf.LineIterator(topByte)
	result := make([]viewLine, 0, maxLines)
	first := true
	for len(result) < maxLines {
		l, ok := it.Next()
		if !ok {
			break
		}
		segs := v.segmentOffsets(l.Content)
		startSeg := 0
		if first {
			startSeg = topSegOffset
			if startSeg >= len(segs) {
				startSeg = len(segs) - 1
			}
			first = false
		}
		for i := startSeg; i < len(segs); i++ {
			segStart := l.Start + segs[i]
			segEnd := l.Start + len(l.Content)
			if i+1 < len(segs) {
				segEnd = l.Start + segs[i+1]
			}
			result = append(result, viewLine{SourceStart: l.Start, Start: segStart, End: segEnd})
			if len(result) >= maxLines {
				break
			}
		}
	}
	return result
}

// lineStartAt returns the byte offset of the start of the source line
// containing pos.
func lineStartAt(buf *textbuf.Buffer, pos int) int {
	start := 0
	it := buf.LineIterator(0)
	for {
		l, ok := it.Next()
		if !ok {
			return start
		}
		end := l.Start + len(l.Content)
		if pos < end || end >= buf.Len() {
			return l.Start
		}
		start = end
	}
}

// EnsureVisible scrolls the minimum amount so cur is within the visible
// view-line window, preferring to keep ScrollMargin view lines of
// breathing room above/below (spec.md §4.F).
func (v *Viewport) EnsureVisible(buf *textbuf.Buffer, cur cursor.Cursor) {
	if v.SkipEnsureVisible {
		v.SkipEnsureVisible = false
		return
	}
	if v.Height <= 0 {
		return
	}
	margin := v.ScrollMargin
	if 2*margin >= v.Height {
		margin = 0
	}

	lines := v.computeViewLines(buf, v.TopByte, v.TopViewLineOffset, v.Height)
	row := rowFor(lines, cur.Position, buf.Len())
	if row >= margin && row < v.Height-margin && row < len(lines) {
		return
	}

	// Recompute top so that cur sits margin rows from whichever edge it
	// approached, walking outward from the cursor's source line.
	cursorLineStart := lineStartAt(buf, cur.Position)
	if row != -1 && row >= len(lines)-margin {
		// Cursor ran off the bottom: push top down one source line's
		// wrap-segment count at a time until it fits with bottom margin.
		for i := 0; i < v.Height; i++ {
			candidate := v.computeViewLines(buf, v.TopByte, v.TopViewLineOffset, v.Height)
			r := rowFor(candidate, cur.Position, buf.Len())
			if r != -1 && r < v.Height-margin {
				break
			}
			v.advanceTopByOneViewLine(buf)
		}
		return
	}

	// Cursor above the window (or not found at all): set top to the
	// cursor's line, then back off margin view lines if room allows.
	v.TopByte = cursorLineStart
	v.TopViewLineOffset = 0
	for i := 0; i < margin; i++ {
		if !v.retreatTopByOneViewLine(buf) {
			break
		}
	}
}

func rowFor(lines []viewLine, pos, bufLen int) int {
	for i, l := range lines {
		if pos >= l.Start && (pos < l.End || (pos == l.End && l.End == bufLen)) {
			return i
		}
	}
	return -1
}

func (v *Viewport) advanceTopByOneViewLine(buf *textbuf.Buffer) {
	it := buf.LineIterator(v.TopByte)
	l, ok := it.Next()
	if !ok {
		return
	}
	segs := v.segmentOffsets(l.Content)
	if v.TopViewLineOffset+1 < len(segs) {
		v.TopViewLineOffset++
		return
	}
	next, ok := it.Next()
	if !ok {
		return
	}
	v.TopByte = next.Start
	v.TopViewLineOffset = 0
}

// retreatTopByOneViewLine moves the top up by one view line. Returns
// false if already at the start of the buffer.
func (v *Viewport) retreatTopByOneViewLine(buf *textbuf.Buffer) bool {
	if v.TopViewLineOffset > 0 {
		v.TopViewLineOffset--
		return true
	}
	if v.TopByte == 0 {
		return false
	}
	prevLineStart := lineStartAt(buf, v.TopByte-1)
	it := buf.LineIterator(prevLineStart)
	l, ok := it.Next()
	if !ok {
		return false
	}
	segs := v.segmentOffsets(l.Content)
	v.TopByte = prevLineStart
	v.TopViewLineOffset = len(segs) - 1
	return true
}

// ScrollUp moves the top up by n view lines, clamped at buffer start.
func (v *Viewport) ScrollUp(buf *textbuf.Buffer, n int) {
	for i := 0; i < n; i++ {
		if !v.retreatTopByOneViewLine(buf) {
			break
		}
	}
}

// ScrollDown moves the top down by n view lines, clamped at buffer end.
func (v *Viewport) ScrollDown(buf *textbuf.Buffer, n int) {
	for i := 0; i < n; i++ {
		lines := v.computeViewLines(buf, v.TopByte, v.TopViewLineOffset, v.Height)
		if len(lines) == 0 || len(lines) < v.Height || lines[len(lines)-1].End >= buf.Len() {
			break
		}
		v.advanceTopByOneViewLine(buf)
	}
}

// ScrollToRatio maps r in [0,1] to a scroll position: a byte offset for
// files over the large-file threshold, or an exact line number otherwise
// (spec.md §4.F). threshold is the buffer's configured large-file cutoff.
func (v *Viewport) ScrollToRatio(buf *textbuf.Buffer, r float64, threshold int) {
	if r < 0 {
		r = 0
	}
	if r > 1 {
		r = 1
	}
	if buf.Len() > threshold {
		v.TopByte = int(r * float64(buf.Len()))
		v.TopByte = lineStartAt(buf, v.TopByte)
		v.TopViewLineOffset = 0
		return
	}
	count, _ := buf.ExactLineCount()
	if count == 0 {
		v.TopByte = 0
		v.TopViewLineOffset = 0
		return
	}
	target := int(r * float64(count))
	if target >= count {
		target = count - 1
	}
	v.TopByte = v.PopulateAndFindLineStart(buf, target)
	v.TopViewLineOffset = 0
}

// PopulateAndFindLineStart returns the byte offset of the start of the
// given 0-indexed line number by scanning forward from 0.
func (v *Viewport) PopulateAndFindLineStart(buf *textbuf.Buffer, lineNum int) int {
	it := buf.LineIterator(0)
	line := 0
	for {
		l, ok := it.Next()
		if !ok {
			return 0
		}
		if line == lineNum {
			return l.Start
		}
		line++
	}
}

// CursorScreenPosition returns terminal (col, row) for cur. Out-of-view
// cursors return a sentinel row of -1 (spec.md §4.F).
func (v *Viewport) CursorScreenPosition(buf *textbuf.Buffer, cur cursor.Cursor) (col, row int) {
	lines := v.computeViewLines(buf, v.TopByte, v.TopViewLineOffset, v.Height)
	r := rowFor(lines, cur.Position, buf.Len())
	if r == -1 {
		return 0, -1
	}
	l := lines[r]
	content := buf.SliceBytes(textbuf.Range{Start: l.Start, End: cur.Position})
	c := 0
	gr := uniseg.NewGraphemes(string(content))
	for gr.Next() {
		w := runewidth.StringWidth(gr.Str())
		if w == 0 {
			w = 1
		}
		c += w
	}
	return c - v.LeftColumn, r
}

// HitTest is the inverse of CursorScreenPosition: given terminal
// coordinates, returns the byte offset they correspond to, clamping to
// line ends (spec.md §4.F).
func (v *Viewport) HitTest(buf *textbuf.Buffer, col, row int) int {
	lines := v.computeViewLines(buf, v.TopByte, v.TopViewLineOffset, v.Height)
	if row < 0 || row >= len(lines) {
		if len(lines) == 0 {
			return v.TopByte
		}
		row = len(lines) - 1
	}
	l := lines[row]
	content := buf.SliceBytes(textbuf.Range{Start: l.Start, End: l.End})
	col += v.LeftColumn
	c := 0
	byteOff := 0
	gr := uniseg.NewGraphemes(string(content))
	for gr.Next() {
		if c >= col {
			break
		}
		w := runewidth.StringWidth(gr.Str())
		if w == 0 {
			w = 1
		}
		c += w
		byteOff += len(gr.Str())
	}
	return l.Start + byteOff
}

// Resize updates the viewport dimensions and sets SkipEnsureVisible so the
// next EnsureVisible call on this viewport does not immediately re-anchor
// the scroll offset. state.Resize reads the flag before calling Resize and
// clears it afterwards, so there the skip applies only when the flag was
// already set (as a session restore does).
func (v *Viewport) Resize(w, h int) {
	v.Width = w
	v.Height = h
	v.SkipEnsureVisible = true
}

// GutterWidth returns the column width needed for line numbers, derived
// from the magnitude of the estimated line count.
func GutterWidth(lineCount int) int {
	if lineCount < 1 {
		lineCount = 1
	}
	digits := 1
	for lineCount >= 10 {
		lineCount /= 10
		digits++
	}
	if digits < 3 {
		digits = 3
	}
	return digits + 1 // one column of padding between gutter and text
}
