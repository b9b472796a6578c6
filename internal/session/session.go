// Package session implements capture/restore of the split tree, open
// buffers, cursors, viewports, and terminal metadata into a versioned
// JSON document: component J of the editing engine (spec.md §3, §4.J,
// §6). Grounded on the teacher's recursive tree-capture shape
// (texel/snapshot.go, texel/snapshot_restore.go) and the original
// editor's restore tie-breaks and debounce policy
// (original_source app/session.rs).
package session

import (
	"time"

	"github.com/fresh-editor/fresh/internal/cursor"
	"github.com/fresh-editor/fresh/internal/splittree"
)

// SessionVersion is written to every session file and checked on load;
// a file from a future version is a ProtocolError (spec.md §7), not a
// crash.
const SessionVersion = 1

// NodeKind discriminates the serialized split-tree union (spec.md §6:
// Leaf{file_path?, split_id}, Terminal{terminal_index, split_id},
// Split{direction, first, second, ratio, split_id}).
type NodeKind int

const (
	NodeLeaf NodeKind = iota
	NodeTerminal
	NodeSplit
)

// Node is the closed tagged-struct serialization of one splittree node,
// matching the style of internal/event.Event and internal/command.Command
// (one struct, fields populated per Kind) rather than an interface, so
// it round-trips through encoding/json without custom UnmarshalJSON
// dispatch.
type Node struct {
	Kind NodeKind `json:"kind"`

	SplitID int `json:"split_id"`

	// NodeLeaf
	FilePath *string `json:"file_path,omitempty"`

	// NodeTerminal
	TerminalIndex int `json:"terminal_index,omitempty"`

	// NodeSplit
	Direction splittree.Direction `json:"direction,omitempty"`
	First     *Node               `json:"first,omitempty"`
	Second    *Node               `json:"second,omitempty"`
	Ratio     float64             `json:"ratio,omitempty"`
}

// Scroll is the serializable half of a viewport (spec.md §3).
type Scroll struct {
	TopByte           int `json:"top_byte"`
	TopViewLineOffset int `json:"top_view_line_offset"`
	LeftColumn        int `json:"left_column"`
}

// Cursor is the serializable half of a cursor.Cursor.
type Cursor struct {
	Position     int  `json:"position"`
	Anchor       *int `json:"anchor,omitempty"`
	StickyColumn *int `json:"sticky_column,omitempty"`
}

// FileState is one leaf's persisted view over one buffer: cursor,
// scroll, and tab list, keyed by the leaf's split id in Session.
type FileState struct {
	ActiveFile      string   `json:"active_file"` // rel path, or "" for a terminal
	OpenBuffers     []string `json:"open_buffers"`
	ActiveTabIndex  int      `json:"active_tab_index"`
	Cursor          Cursor   `json:"cursor"`
	Scroll          Scroll   `json:"scroll"`
}

// Terminal is the persisted metadata for one PTY terminal (spec.md
// §4.K/§6): its shell, size, and the log/backing file paths a restore
// will reload from, rather than the live PTY.
type Terminal struct {
	Index      int    `json:"index"`
	Cwd        string `json:"cwd"`
	Shell      string `json:"shell"`
	Cols       int    `json:"cols"`
	Rows       int    `json:"rows"`
	LogPath    string `json:"log_path"`
	BackingPath string `json:"backing_path"`
}

// Session is the top-level persisted document (spec.md §6).
type Session struct {
	Version     int                  `json:"version"`
	WorkingDir  string               `json:"working_dir"`
	SplitLayout *Node                `json:"split_layout"`
	FileStates  map[int]FileState    `json:"file_states"` // keyed by split_id
	Terminals   []Terminal           `json:"terminals"`
	Histories   map[string][]string  `json:"histories,omitempty"`
}

// CaptureLeaf is the per-leaf input Capture needs: the splittree leaf
// id, the relative file path (empty for a terminal/scratch leaf), and
// the cursor/viewport state to persist. Callers assemble these from
// their own EditorState/viewport instances; this package only knows
// about the shapes it serializes.
type CaptureLeaf struct {
	SplitID     splittree.ID
	RelPath     string // "" if this leaf has no on-disk file (terminal or scratch)
	TerminalIdx int    // valid iff IsTerminal
	IsTerminal  bool
	OpenBuffers []string
	ActiveIndex int
	Primary     cursor.Cursor
	Scroll      Scroll
}

// Capture builds a Session from tree's current layout plus one
// CaptureLeaf per leaf (indexed by splittree.ID, matching
// tree.GetLeavesWithRects's ids) and the terminals slice.
func Capture(tree *splittree.Tree, workingDir string, leaves map[splittree.ID]CaptureLeaf, terminals []Terminal, histories map[string][]string) Session {
	s := Session{
		Version:    SessionVersion,
		WorkingDir: workingDir,
		Terminals:  terminals,
		Histories:  histories,
		FileStates: make(map[int]FileState),
	}
	s.SplitLayout = captureNode(tree, tree.RootID(), leaves, s.FileStates)
	return s
}

func captureNode(tree *splittree.Tree, id splittree.ID, leaves map[splittree.ID]CaptureLeaf, fileStates map[int]FileState) *Node {
	if dir, ratio, first, second, ok := tree.SplitOf(id); ok {
		return &Node{
			Kind:      NodeSplit,
			SplitID:   int(id),
			Direction: dir,
			Ratio:     ratio,
			First:     captureNode(tree, first, leaves, fileStates),
			Second:    captureNode(tree, second, leaves, fileStates),
		}
	}

	leaf := leaves[id]
	fileStates[int(id)] = FileState{
		ActiveFile:     leaf.RelPath,
		OpenBuffers:    leaf.OpenBuffers,
		ActiveTabIndex: leaf.ActiveIndex,
		Cursor: Cursor{
			Position:     leaf.Primary.Position,
			Anchor:       leaf.Primary.Anchor,
			StickyColumn: leaf.Primary.StickyColumn,
		},
		Scroll: leaf.Scroll,
	}

	if leaf.IsTerminal {
		return &Node{Kind: NodeTerminal, SplitID: int(id), TerminalIndex: leaf.TerminalIdx}
	}
	var path *string
	if leaf.RelPath != "" {
		p := leaf.RelPath
		path = &p
	}
	return &Node{Kind: NodeLeaf, SplitID: int(id), FilePath: path}
}

// RestoreHooks are the tie-break callbacks Restore needs from the
// caller, which owns disk I/O, buffer lifecycle, and the scratch-buffer
// fallback (spec.md §4.J restore tie-breaks).
type RestoreHooks struct {
	// FileExists reports whether relPath exists on disk (and is still
	// openable). A false result is logged and skipped, never faulted.
	FileExists func(relPath string) bool
	// OpenBuffer opens relPath (assumed to exist) and returns the
	// BufferID it was assigned plus the buffer's current length (used
	// to clamp restored cursor/scroll positions).
	OpenBuffer func(relPath string) (splittree.BufferID, int, error)
	// ScratchBuffer returns a fresh empty scratch buffer id for when no
	// entry in open_buffers is openable.
	ScratchBuffer func() splittree.BufferID
	// RestoreTerminal is handed a Terminal record and returns the
	// BufferID of a read-only buffer loaded from its backing file
	// (spec.md §4.K: reload the backing file directly, O(1), no PTY
	// spawn during restore).
	RestoreTerminal func(Terminal) (splittree.BufferID, int, error)
	// Warn records a restore-time tie-break decision (missing file
	// skipped, fallback to scratch, etc.) without aborting the restore.
	Warn func(message string)
}

// LeafRestore is Restore's per-leaf output: the split id in the new
// tree, the buffer it ended up showing, and the clamped cursor/scroll
// state the caller should apply to that leaf's viewport/cursor set.
// SkipResizeSync is always true (spec.md §4.J: "sets skip_resize_sync
// so the first post-restore resize does not re-anchor to the cursor").
type LeafRestore struct {
	SplitID        splittree.ID
	BufferID       splittree.BufferID
	OpenBuffers    []splittree.BufferID
	Cursor         Cursor
	Scroll         Scroll
	SkipResizeSync bool
}

// Restore rebuilds a splittree.Tree from s, applying the tie-breaks
// spec.md §4.J specifies, and returns the new tree plus one LeafRestore
// per leaf (keyed by the new tree's split id, not the serialized one).
func Restore(s Session, hooks RestoreHooks) (*splittree.Tree, map[splittree.ID]LeafRestore) {
	results := make(map[splittree.ID]LeafRestore)
	if s.SplitLayout == nil {
		scratch := hooks.ScratchBuffer()
		tree := splittree.New(scratch)
		results[tree.ActiveID()] = LeafRestore{SplitID: tree.ActiveID(), BufferID: scratch, SkipResizeSync: true}
		return tree, results
	}

	var tree *splittree.Tree
	restoreNode(s.SplitLayout, s, hooks, &tree, true, results)
	return tree, results
}

func restoreNode(n *Node, s Session, hooks RestoreHooks, tree **splittree.Tree, isFirstLeaf bool, results map[splittree.ID]LeafRestore) {
	switch n.Kind {
	case NodeSplit:
		restoreNode(n.First, s, hooks, tree, isFirstLeaf, results)
		secondLeafNode := firstLeafOf(n.Second)
		secondBuf, secondLen := resolveLeafBuffer(secondLeafNode, s, hooks)
		var newID splittree.ID
		if *tree == nil {
			*tree = splittree.New(secondBuf)
			newID = (*tree).ActiveID()
		} else {
			newID = (*tree).SplitActive(n.Direction, secondBuf, n.Ratio)
		}
		applyFileState(results, newID, secondBuf, secondLen, secondLeafNode, s)
		restoreNode(n.Second, s, hooks, tree, false, results)

	case NodeLeaf:
		var buf splittree.BufferID
		var length int
		if n.FilePath != nil && hooks.FileExists(*n.FilePath) {
			b, l, err := hooks.OpenBuffer(*n.FilePath)
			if err == nil {
				buf, length = b, l
			}
		} else if n.FilePath != nil && hooks.Warn != nil {
			hooks.Warn("session restore: file no longer exists, skipping: " + *n.FilePath)
		}
		if buf == "" {
			buf, length = fallbackBuffer(s.FileStates[n.SplitID], hooks)
		}
		id := ensureTreeLeaf(tree, buf, isFirstLeaf)
		applyFileState(results, id, buf, length, n, s)

	case NodeTerminal:
		buf, length, err := hooks.RestoreTerminal(terminalFor(s, n.TerminalIndex))
		if err != nil {
			buf, length = fallbackBuffer(s.FileStates[n.SplitID], hooks)
		}
		id := ensureTreeLeaf(tree, buf, isFirstLeaf)
		applyFileState(results, id, buf, length, n, s)
	}
}

func ensureTreeLeaf(tree **splittree.Tree, buf splittree.BufferID, isFirstLeaf bool) splittree.ID {
	if *tree == nil {
		*tree = splittree.New(buf)
		return (*tree).ActiveID()
	}
	if isFirstLeaf {
		id := (*tree).ActiveID()
		(*tree).SetSplitBuffer(id, buf)
		return id
	}
	return (*tree).ActiveID()
}

func firstLeafOf(n *Node) *Node {
	for n.Kind == NodeSplit {
		n = n.First
	}
	return n
}

func resolveLeafBuffer(n *Node, s Session, hooks RestoreHooks) (splittree.BufferID, int) {
	switch n.Kind {
	case NodeLeaf:
		if n.FilePath != nil && hooks.FileExists(*n.FilePath) {
			if b, l, err := hooks.OpenBuffer(*n.FilePath); err == nil {
				return b, l
			}
		}
		return fallbackBuffer(s.FileStates[n.SplitID], hooks)
	case NodeTerminal:
		if b, l, err := hooks.RestoreTerminal(terminalFor(s, n.TerminalIndex)); err == nil {
			return b, l
		}
		return fallbackBuffer(s.FileStates[n.SplitID], hooks)
	}
	return fallbackBuffer(s.FileStates[n.SplitID], hooks)
}

// fallbackBuffer implements spec.md §4.J's second tie-break: a leaf
// whose active buffer is missing falls back to the first still-openable
// entry of open_buffers, else to a scratch buffer.
func fallbackBuffer(fs FileState, hooks RestoreHooks) (splittree.BufferID, int) {
	for _, path := range fs.OpenBuffers {
		if path == "" || !hooks.FileExists(path) {
			continue
		}
		if b, l, err := hooks.OpenBuffer(path); err == nil {
			return b, l
		}
	}
	if hooks.Warn != nil {
		hooks.Warn("session restore: no openable buffer for split, falling back to scratch")
	}
	return hooks.ScratchBuffer(), 0
}

func terminalFor(s Session, idx int) Terminal {
	for _, t := range s.Terminals {
		if t.Index == idx {
			return t
		}
	}
	return Terminal{Index: idx}
}

func applyFileState(results map[splittree.ID]LeafRestore, id splittree.ID, buf splittree.BufferID, length int, n *Node, s Session) {
	fs := s.FileStates[n.SplitID]
	clamp := func(v int) int {
		if v > length {
			return length
		}
		if v < 0 {
			return 0
		}
		return v
	}
	cur := fs.Cursor
	cur.Position = clamp(cur.Position)
	if cur.Anchor != nil {
		a := clamp(*cur.Anchor)
		cur.Anchor = &a
	}
	scroll := fs.Scroll
	scroll.TopByte = clamp(scroll.TopByte)

	results[id] = LeafRestore{
		SplitID:        id,
		BufferID:       buf,
		Cursor:         cur,
		Scroll:         scroll,
		SkipResizeSync: true,
	}
}

// Tracker debounces session saves (spec.md §4.J: "writes at most every
// T seconds (default 5s), and always on graceful shutdown"), grounded
// on the original editor's SessionTracker.
type Tracker struct {
	dirty        bool
	lastSave     time.Time
	saveInterval time.Duration
	enabled      bool
}

const defaultSaveInterval = 5 * time.Second

// NewTracker returns a tracker with the spec default 5s debounce.
func NewTracker(enabled bool) *Tracker {
	return &Tracker{enabled: enabled, saveInterval: defaultSaveInterval, lastSave: time.Time{}}
}

// MarkDirty records that some leaf-level change happened.
func (t *Tracker) MarkDirty() {
	if t.enabled {
		t.dirty = true
	}
}

// ShouldSave reports whether enough time has elapsed since the last
// save to write again (debounce), given dirty state.
func (t *Tracker) ShouldSave(now time.Time) bool {
	return t.enabled && t.dirty && now.Sub(t.lastSave) >= t.saveInterval
}

// RecordSave marks the tracker clean as of now.
func (t *Tracker) RecordSave(now time.Time) {
	t.dirty = false
	t.lastSave = now
}

// IsDirty reports unsaved changes, used to force a final save on
// graceful shutdown regardless of debounce.
func (t *Tracker) IsDirty() bool { return t.dirty }
