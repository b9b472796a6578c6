// Package textbuf implements the chunked byte-sequence text buffer:
// component B of the editing engine (spec.md §3, §4.B).
package textbuf

import (
	"fmt"

	"github.com/fresh-editor/fresh/internal/marker"
)

// DefaultLargeFileThreshold is the byte-size cutoff above which exact
// line counting is skipped in favor of an estimate (spec.md §6
// editor.large_file_threshold_bytes).
const DefaultLargeFileThreshold = 1 << 20 // 1 MiB

// chunkTarget is the maximum size of a chunk. Every chunk an edit
// rewrites is re-split into pieces of at most this size; chunks are never
// merged except on delete,
// keeping insert/delete near the edit site cheap without needing a full
// balanced tree for the byte counts this engine is sized for.
const chunkTarget = 4096

// chunk is one contiguous run of buffer bytes.
type chunk struct {
	data []byte
}

// Buffer is the (byte-sequence, file-path?, modified-flag, content-hash)
// quadruple from spec.md §3, backed by a list of chunks keyed by
// cumulative byte offset.
type Buffer struct {
	chunks   []chunk
	length   int
	filePath string
	modified bool
	savedSum [32]byte
	hasSaved bool

	markers *marker.List

	// line cache: maps a populated window of line numbers to starting
	// byte offsets. Invalidated (narrowed) by edits that cross it.
	lineCacheStart int // first cached line number
	lineCacheEnds  []int
	lineCacheValid bool

	largeFileThreshold int
	exactLineCount     int
	exactLineCountSet  bool
}

// New returns an empty buffer.
func New() *Buffer {
	return &Buffer{
		chunks:             []chunk{{data: nil}},
		markers:            marker.NewList(),
		largeFileThreshold: DefaultLargeFileThreshold,
	}
}

// NewFromBytes returns a buffer pre-populated with content.
func NewFromBytes(content []byte) *Buffer {
	b := New()
	b.chunks = splitIntoChunks(content)
	b.length = len(content)
	b.recomputeExactLineCountIfCheap()
	return b
}

// Markers returns the marker list owned by this buffer.
func (b *Buffer) Markers() *marker.List { return b.markers }

// SetLargeFileThreshold overrides the default large-file threshold.
func (b *Buffer) SetLargeFileThreshold(n int) { b.largeFileThreshold = n }

// FilePath returns the buffer's associated file path, if any.
func (b *Buffer) FilePath() string { return b.filePath }

// SetFilePath sets the buffer's associated file path.
func (b *Buffer) SetFilePath(p string) { b.filePath = p }

// Modified reports whether the buffer differs from the last saved content.
func (b *Buffer) Modified() bool { return b.modified }

// SetModified forces the modified flag (used by callers that reload a
// buffer out-of-band, e.g. terminal scrollback sync).
func (b *Buffer) SetModified(m bool) { b.modified = m }

// Len returns the total byte length of the buffer.
func (b *Buffer) Len() int { return b.length }

func splitIntoChunks(content []byte) []chunk {
	if len(content) == 0 {
		return []chunk{{data: nil}}
	}
	var chunks []chunk
	for off := 0; off < len(content); off += chunkTarget {
		end := off + chunkTarget
		if end > len(content) {
			end = len(content)
		}
		buf := make([]byte, end-off)
		copy(buf, content[off:end])
		chunks = append(chunks, chunk{data: buf})
	}
	return chunks
}

// chunkAt returns the index of the chunk containing byte offset pos, and
// the offset of that chunk's start. pos == length returns the last chunk
// (append position).
func (b *Buffer) chunkAt(pos int) (idx, chunkStart int) {
	acc := 0
	for i, c := range b.chunks {
		if pos < acc+len(c.data) || i == len(b.chunks)-1 {
			return i, acc
		}
		acc += len(c.data)
	}
	return len(b.chunks) - 1, acc
}

// Insert inserts text at byte position pos. Panics if pos is out of range
// (programmer error, per spec.md §4.B).
func (b *Buffer) Insert(pos int, text []byte) {
	if pos < 0 || pos > b.length {
		panic(fmt.Sprintf("textbuf: Insert out of range: pos=%d len=%d", pos, b.length))
	}
	if len(text) == 0 {
		return
	}
	idx, start := b.chunkAt(pos)
	local := pos - start
	c := b.chunks[idx]
	merged := make([]byte, 0, len(c.data)+len(text))
	merged = append(merged, c.data[:local]...)
	merged = append(merged, text...)
	merged = append(merged, c.data[local:]...)

	replacement := splitIntoChunks(merged)
	b.chunks = append(b.chunks[:idx], append(replacement, b.chunks[idx+1:]...)...)
	b.length += len(text)

	b.markers.Adjust(pos, 0, len(text))
	b.invalidateLineCacheFrom(pos)
	b.modified = true
	b.recomputeExactLineCountIfCheap()
}

// Delete removes the byte range [r.Start, r.End). Panics on out-of-range,
// per spec.md §4.B.
func (b *Buffer) Delete(r Range) {
	if r.Start < 0 || r.End > b.length || r.Start > r.End {
		panic(fmt.Sprintf("textbuf: Delete out of range: %v len=%d", r, b.length))
	}
	n := r.End - r.Start
	if n == 0 {
		return
	}
	startIdx, startChunkOff := b.chunkAt(r.Start)
	endIdx, endChunkOff := b.chunkAt(r.End)

	var merged []byte
	merged = append(merged, b.chunks[startIdx].data[:r.Start-startChunkOff]...)
	merged = append(merged, b.chunks[endIdx].data[r.End-endChunkOff:]...)

	replacement := splitIntoChunks(merged)
	if len(merged) == 0 {
		replacement = []chunk{{data: nil}}
	}
	b.chunks = append(b.chunks[:startIdx], append(replacement, b.chunks[endIdx+1:]...)...)
	b.length -= n

	b.markers.Adjust(r.Start, n, 0)
	b.markers.ClampToLen(b.length)
	b.invalidateLineCacheFrom(r.Start)
	b.modified = true
	b.recomputeExactLineCountIfCheap()
}

// Range is a half-open byte range [Start, End).
type Range struct {
	Start, End int
}

// Len returns End-Start.
func (r Range) Len() int { return r.End - r.Start }

// SliceBytes returns the bytes in r, clamped: an out-of-range request
// returns an empty slice rather than erroring (spec.md §4.B).
func (b *Buffer) SliceBytes(r Range) []byte {
	start, end := r.Start, r.End
	if start < 0 {
		start = 0
	}
	if end > b.length {
		end = b.length
	}
	if start >= end || start > b.length {
		return nil
	}
	out := make([]byte, 0, end-start)
	acc := 0
	for _, c := range b.chunks {
		cEnd := acc + len(c.data)
		if cEnd > start && acc < end {
			lo := max(0, start-acc)
			hi := min(len(c.data), end-acc)
			out = append(out, c.data[lo:hi]...)
		}
		acc = cEnd
		if acc >= end {
			break
		}
	}
	return out
}

// Bytes returns the entire buffer contents. Intended for small buffers
// (tests, session capture of virtual buffers); large files should use
// LineIterator instead.
func (b *Buffer) Bytes() []byte {
	return b.SliceBytes(Range{0, b.length})
}
