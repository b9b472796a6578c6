package textbuf

import "bytes"

// Line is one line yielded by LineIterator: its starting byte offset and
// its content including the trailing terminator (if any), mirroring
// spec.md §4.B's line_iterator contract.
type Line struct {
	Start   int
	Content []byte
}

// LineIterator scans forward from fromByte, yielding lines lazily.
// Nothing here assumes the buffer fits in memory or that the total line
// count is known; callers that want an exact total must call
// ExactLineCount (bounded to files <= the large-file threshold).
type LineIterator struct {
	b       *Buffer
	pos     int
	atEnd   bool
}

// LineIterator returns an iterator starting at fromByte. fromByte must be
// the start of a line for well-defined behavior; callers typically pass
// a value obtained from the line cache or 0.
func (b *Buffer) LineIterator(fromByte int) *LineIterator {
	if fromByte < 0 {
		fromByte = 0
	}
	if fromByte > b.length {
		fromByte = b.length
	}
	return &LineIterator{b: b, pos: fromByte}
}

// Next returns the next line and true, or a zero Line and false at EOF.
func (it *LineIterator) Next() (Line, bool) {
	if it.atEnd || it.pos >= it.b.length {
		it.atEnd = true
		return Line{}, false
	}
	start := it.pos
	// Find the next newline without materializing the whole remainder:
	// scan chunk-by-chunk.
	end := it.b.length
	found := false
	acc := 0
	for _, c := range it.b.chunks {
		cStart := acc
		cEnd := acc + len(c.data)
		acc = cEnd
		if cEnd <= start {
			continue
		}
		searchFrom := 0
		if cStart < start {
			searchFrom = start - cStart
		}
		if idx := bytes.IndexByte(c.data[searchFrom:], '\n'); idx >= 0 {
			end = cStart + searchFrom + idx + 1
			found = true
			break
		}
	}
	_ = found
	content := it.b.SliceBytes(Range{start, end})
	it.pos = end
	return Line{Start: start, Content: content}, true
}

// GetLineNumber returns the 0-indexed line number containing byte offset
// pos, by scanning from the start of the buffer; the line cache is not
// consulted. This is the textbook O(n) fallback the spec
// explicitly tolerates ("O(n) acceptable for moderate counts"); large
// files should rely on PopulateLineCache-backed callers to avoid
// repeated full scans.
func (b *Buffer) GetLineNumber(pos int) int {
	if pos > b.length {
		pos = b.length
	}
	line := 0
	it := b.LineIterator(0)
	for {
		l, ok := it.Next()
		if !ok {
			return line
		}
		lineEnd := l.Start + len(l.Content)
		if pos < lineEnd || lineEnd >= b.length {
			return line
		}
		line++
	}
}

// PopulateLineCache fills the line cache starting at topByte for count
// lines and returns the 0-indexed starting line number of topByte.
func (b *Buffer) PopulateLineCache(topByte int, count int) int {
	startLine := b.GetLineNumber(topByte)
	ends := make([]int, 0, count)
	it := b.LineIterator(topByte)
	for i := 0; i < count; i++ {
		l, ok := it.Next()
		if !ok {
			break
		}
		ends = append(ends, l.Start+len(l.Content))
	}
	b.lineCacheStart = startLine
	b.lineCacheEnds = ends
	b.lineCacheValid = true
	return startLine
}

// invalidateLineCacheFrom drops any cached entries whose starting byte
// falls at or after the affected position, per spec.md §4.B edit effect (ii).
func (b *Buffer) invalidateLineCacheFrom(pos int) {
	if !b.lineCacheValid {
		return
	}
	// Conservative: any edit invalidates the whole populated window,
	// since chunk offsets shift past pos. This matches the spec's
	// "entries whose starting byte falls in the affected suffix" rule
	// when the cache is treated as a single contiguous window.
	b.lineCacheValid = false
	b.lineCacheEnds = nil
}

// recomputeExactLineCountIfCheap recomputes the exact line count when the
// buffer is at or under the large-file threshold; otherwise it clears
// the exact count so EstimatedLineCount falls back to the size estimate.
func (b *Buffer) recomputeExactLineCountIfCheap() {
	if b.length > b.largeFileThreshold {
		b.exactLineCountSet = false
		return
	}
	count := 0
	it := b.LineIterator(0)
	for {
		_, ok := it.Next()
		if !ok {
			break
		}
		count++
	}
	b.exactLineCount = count
	b.exactLineCountSet = true
}

// ExactLineCount returns the exact line count and true when the buffer is
// within the large-file threshold; otherwise returns an estimate and false.
func (b *Buffer) ExactLineCount() (int, bool) {
	if b.exactLineCountSet {
		return b.exactLineCount, true
	}
	return b.EstimatedLineCount(), false
}

// EstimatedLineCount estimates the total number of lines from file
// length when exact counting is too expensive (spec.md §4.B), assuming
// an average line length derived from a leading sample.
func (b *Buffer) EstimatedLineCount() int {
	if b.length == 0 {
		return 0
	}
	const sampleSize = 64 * 1024
	sample := b.SliceBytes(Range{0, min(sampleSize, b.length)})
	newlines := bytes.Count(sample, []byte{'\n'})
	if newlines == 0 {
		return 1
	}
	avgLineLen := float64(len(sample)) / float64(newlines)
	if avgLineLen <= 0 {
		return 1
	}
	return int(float64(b.length) / avgLineLen)
}
