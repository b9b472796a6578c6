// Package decoration implements namespaced overlays, virtual text, and
// line indicators composited for rendering: component M of the editing
// engine (spec.md §3, §4.M).
package decoration

import (
	"sort"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/fresh-editor/fresh/internal/marker"
	"github.com/fresh-editor/fresh/internal/textbuf"
)

// Face describes the visual styling of a decoration: foreground and
// background colors plus attribute bits. Blend mixes two faces' colors
// with go-colorful; ResolveFace calls it at full weight, so where
// overlays overlap, the later one's colors replace the earlier ones.
type Face struct {
	Foreground colorful.Color
	Background colorful.Color
	HasFg      bool
	HasBg      bool
	Bold       bool
	Italic     bool
	Underline  bool
}

// Blend mixes two faces, giving weight to the higher one (spec.md §4.M:
// "selection always wins" is implemented by callers giving the selection
// face the highest priority, not by blend weighting here).
func Blend(under, over Face, overWeight float64) Face {
	out := under
	if over.HasFg {
		if under.HasFg {
			out.Foreground = under.Foreground.BlendRgb(over.Foreground, overWeight)
		} else {
			out.Foreground = over.Foreground
		}
		out.HasFg = true
	}
	if over.HasBg {
		if under.HasBg {
			out.Background = under.Background.BlendRgb(over.Background, overWeight)
		} else {
			out.Background = over.Background
		}
		out.HasBg = true
	}
	out.Bold = out.Bold || over.Bold
	out.Italic = out.Italic || over.Italic
	out.Underline = out.Underline || over.Underline
	return out
}

// Overlay is a range-anchored decoration: a namespaced, priority-ordered
// face applied over [Start, End). The Range returned by Store's query
// methods is resolved from a pair of marker.Handles at call time, so an
// overlay keeps covering the same logical text across edits rather than
// a fixed byte span (spec.md §4.M, §4.L semantic-token survival).
type Overlay struct {
	ID        uint64
	Namespace string
	Range     textbuf.Range
	Face      Face
	Priority  int
	Message   string
}

// VTPosition is where virtual text renders relative to its anchor byte.
type VTPosition int

const (
	VTBefore VTPosition = iota
	VTAfter
	VTAbove
	VTBelow
)

// VirtualText is namespaced text that does not exist in the buffer but
// renders alongside it (e.g. inline diagnostics, inlay hints). Anchor is
// resolved from a marker.Handle, same as Overlay.Range.
type VirtualText struct {
	ID        uint64
	Namespace string
	Anchor    int
	Position  VTPosition
	Text      string
	Face      Face
}

// LineIndicator is a namespaced per-line gutter marker (e.g. a git-diff
// bar or a breakpoint dot). Lines renumber on their own as the buffer's
// line index is recomputed, so these stay plain line numbers rather than
// marker-anchored.
type LineIndicator struct {
	ID        uint64
	Namespace string
	Line      int
	Face      Face
	Symbol    rune
}

type overlayEntry struct {
	namespace  string
	start, end marker.Handle
	face       Face
	priority   int
	message    string
}

type vtEntry struct {
	namespace string
	anchor    marker.Handle
	position  VTPosition
	text      string
	face      Face
}

// Store holds every decoration for one buffer. It anchors overlay and
// virtual-text positions through the same marker.List the owning
// textbuf.Buffer adjusts on every Insert/Delete (internal/textbuf.
// Buffer.Markers), so a decoration added over "the identifier at byte
// 40" keeps tracking that identifier after an edit shifts it elsewhere
// instead of silently drifting onto whatever bytes now occupy [40, 44).
type Store struct {
	markers      *marker.List
	overlays     map[uint64]overlayEntry
	virtualTexts map[uint64]vtEntry
	lineIndic    map[uint64]LineIndicator
	nextID       uint64
}

// NewStore returns an empty decoration store whose overlay and virtual-
// text anchors live in markers. Callers normally pass a buffer's own
// marker.List (buf.Markers()) so decoration anchors shift in lockstep
// with cursors and any other marker-backed state on that buffer.
func NewStore(markers *marker.List) *Store {
	return &Store{
		markers:      markers,
		overlays:     make(map[uint64]overlayEntry),
		virtualTexts: make(map[uint64]vtEntry),
		lineIndic:    make(map[uint64]LineIndicator),
	}
}

func (s *Store) allocID() uint64 {
	s.nextID++
	return s.nextID
}

func (s *Store) resolveOverlay(id uint64, e overlayEntry) Overlay {
	return Overlay{
		ID:        id,
		Namespace: e.namespace,
		Range:     textbuf.Range{Start: s.markers.Offset(e.start), End: s.markers.Offset(e.end)},
		Face:      e.face,
		Priority:  e.priority,
		Message:   e.message,
	}
}

// AddOverlay registers an overlay and returns its handle. Start is added
// with left gravity and End with right gravity, so text typed at either
// edge of the range grows into it rather than the range collapsing.
func (s *Store) AddOverlay(namespace string, r textbuf.Range, face Face, priority int, message string) uint64 {
	id := s.allocID()
	start := s.markers.Add(r.Start, marker.GravityLeft)
	end := s.markers.Add(r.End, marker.GravityRight)
	s.overlays[id] = overlayEntry{namespace: namespace, start: start, end: end, face: face, priority: priority, message: message}
	return id
}

// AddVirtualText registers a virtual text decoration and returns its handle.
func (s *Store) AddVirtualText(namespace string, anchor int, pos VTPosition, text string, face Face) uint64 {
	id := s.allocID()
	mark := s.markers.Add(anchor, marker.GravityLeft)
	s.virtualTexts[id] = vtEntry{namespace: namespace, anchor: mark, position: pos, text: text, face: face}
	return id
}

// AddLineIndicator registers a line indicator and returns its handle.
func (s *Store) AddLineIndicator(namespace string, line int, symbol rune, face Face) uint64 {
	id := s.allocID()
	s.lineIndic[id] = LineIndicator{ID: id, Namespace: namespace, Line: line, Face: face, Symbol: symbol}
	return id
}

// RemoveOverlay removes a single overlay by handle, regardless of
// namespace, releasing its markers.
func (s *Store) RemoveOverlay(id uint64) {
	if e, ok := s.overlays[id]; ok {
		s.markers.Remove(e.start)
		s.markers.Remove(e.end)
		delete(s.overlays, id)
	}
}

// ClearOverlaysInRange removes every overlay whose current, marker-
// resolved range intersects r.
func (s *Store) ClearOverlaysInRange(r textbuf.Range) {
	for id, e := range s.overlays {
		cur := s.resolveOverlay(id, e).Range
		if cur.Start < r.End && r.Start < cur.End {
			s.markers.Remove(e.start)
			s.markers.Remove(e.end)
			delete(s.overlays, id)
		}
	}
}

// ClearNamespace removes every decoration (overlay, virtual text, line
// indicator) whose namespace matches ns, and no others (spec.md §4.M).
func (s *Store) ClearNamespace(ns string) {
	for id, e := range s.overlays {
		if e.namespace == ns {
			s.markers.Remove(e.start)
			s.markers.Remove(e.end)
			delete(s.overlays, id)
		}
	}
	for id, e := range s.virtualTexts {
		if e.namespace == ns {
			s.markers.Remove(e.anchor)
			delete(s.virtualTexts, id)
		}
	}
	for id, li := range s.lineIndic {
		if li.Namespace == ns {
			delete(s.lineIndic, id)
		}
	}
}

// OverlaysInRange returns every overlay intersecting r, priority-ordered
// ascending and stable for equal priorities (spec.md §4.M). Each
// overlay's Range reflects its markers' current offsets, not the byte
// span it was registered with.
func (s *Store) OverlaysInRange(r textbuf.Range) []Overlay {
	var out []Overlay
	for id, e := range s.overlays {
		o := s.resolveOverlay(id, e)
		if o.Range.Start < r.End && r.Start < o.Range.End {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// VirtualTextsAt returns the virtual text decorations currently anchored
// at byte pos.
func (s *Store) VirtualTextsAt(pos int) []VirtualText {
	var out []VirtualText
	for id, e := range s.virtualTexts {
		if s.markers.Offset(e.anchor) == pos {
			out = append(out, VirtualText{ID: id, Namespace: e.namespace, Anchor: pos, Position: e.position, Text: e.text, Face: e.face})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LineIndicatorsAt returns the line indicators for a given 0-indexed line.
func (s *Store) LineIndicatorsAt(line int) []LineIndicator {
	var out []LineIndicator
	for _, li := range s.lineIndic {
		if li.Line == line {
			out = append(out, li)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ResolveFace composites every overlay touching pos into a single face,
// in priority order (lowest first, so higher-priority overlays paint
// last and therefore win non-blended attributes), following the
// teacher's CompositeBuffers transparency rule: an overlay without a
// foreground/background leaves the corresponding channel untouched
// rather than clearing it.
func (s *Store) ResolveFace(pos int, base Face) Face {
	overlays := s.OverlaysInRange(textbuf.Range{Start: pos, End: pos + 1})
	out := base
	for _, o := range overlays {
		out = Blend(out, o.Face, 1.0)
	}
	return out
}
