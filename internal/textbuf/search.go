package textbuf

import (
	"github.com/dlclark/regexp2"
)

// FindNext searches for pattern starting at fromByte, wrapping around to
// the start of the buffer if no match is found before the end (spec.md
// §4.B). pattern uses regexp2 syntax (.NET-flavored), which supports
// backreferences and lookaround beyond Go's RE2 — needed for the
// query-replace feature's richer search semantics (see DESIGN.md, B).
//
// Returns the matched range and true, or a zero range and false if the
// pattern does not match anywhere in the buffer.
func (b *Buffer) FindNext(pattern string, fromByte int) (Range, bool, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return Range{}, false, err
	}
	if fromByte < 0 {
		fromByte = 0
	}
	if fromByte > b.length {
		fromByte = b.length
	}

	if r, ok := findFrom(re, b, fromByte, b.length); ok {
		return r, true, nil
	}
	if fromByte > 0 {
		if r, ok := findFrom(re, b, 0, fromByte); ok {
			return r, true, nil
		}
	}
	return Range{}, false, nil
}

func findFrom(re *regexp2.Regexp, b *Buffer, from, to int) (Range, bool) {
	if from >= to {
		return Range{}, false
	}
	text := string(b.SliceBytes(Range{from, to}))
	m, err := re.FindStringMatch(text)
	if err != nil || m == nil {
		return Range{}, false
	}
	start := from + m.Index
	end := start + m.Length
	return Range{start, end}, true
}
