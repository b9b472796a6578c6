// Package command implements the single enumerated mutation surface
// plugins, scripts, and UI components use to affect the editor:
// component I of the editing engine (spec.md §3, §4.I). The dispatch
// shape — one closed tagged-struct type, exhaustively switched over by
// a single Execute entry point — follows the aretext Mutator/
// CompositeMutator idiom; the named, introspectable plugin-command
// registry follows the original editor's command_registry.rs.
package command

import (
	"sort"
	"strings"

	"github.com/fresh-editor/fresh/internal/cursor"
	"github.com/fresh-editor/fresh/internal/decoration"
	"github.com/fresh-editor/fresh/internal/event"
	"github.com/fresh-editor/fresh/internal/ferrors"
	"github.com/fresh-editor/fresh/internal/splittree"
	"github.com/fresh-editor/fresh/internal/state"
	"github.com/fresh-editor/fresh/internal/textbuf"
)

// ErrUnsupported is returned for a command Kind the Dispatcher does not
// own directly (session, theme, config-reload, scroll-sync, composite
// and virtual buffer commands are expected to be wired by the caller).
var ErrUnsupported = ferrors.New(ferrors.UserError, "command not supported by this dispatcher")

// ErrUnknownBuffer is returned when a command targets a BufferID the
// Dispatcher has no EditorState or decoration Store for.
var ErrUnknownBuffer = ferrors.New(ferrors.UserError, "unknown buffer id")

// Kind enumerates every mutation a plugin, script, or UI component may
// cause (spec.md §4.I).
type Kind int

const (
	KindInsertText Kind = iota
	KindDeleteRange
	KindInsertAtCursor
	KindSetCursor

	KindOpenFile
	KindOpenFileInSplit
	KindShowBuffer
	KindCloseBuffer
	KindCloseSplit
	KindSetSplitBuffer
	KindSetSplitRatio
	KindSetSplitScroll
	KindFocusSplit
	KindDistributeEvenly

	KindSetLineNumbers

	KindAddOverlay
	KindRemoveOverlayByHandle
	KindClearOverlaysInRange
	KindClearNamespace
	KindAddVirtualText
	KindRemoveVirtualTextByID
	KindRemoveVirtualTextByPrefix
	KindRemoveVirtualTextByNamespace
	KindAddVirtualLine
	KindSetLineIndicator
	KindClearLineIndicator
	KindSetFileExplorerDecorations

	KindSubmitViewTransform
	KindClearViewTransform

	KindStartPrompt
	KindSetPromptSuggestions
	KindDefineMode
	KindSetEditorMode

	KindExecuteAction
	KindExecuteActionsBatch
	KindShowActionPopup
	KindRegisterCommand
	KindUnregisterCommand

	KindSetContext
	KindSetStatus
	KindSetClipboard
	KindApplyTheme
	KindReloadConfig

	KindCreateCompositeBuffer
	KindUpdateCompositeBuffer
	KindCloseCompositeBuffer

	KindRequestHighlights // async
	KindSendLSPRequest    // async

	KindSpawnProcess // async
	KindKillProcess
	KindDelay // async

	KindGetBufferText // async

	KindCreateScrollSyncGroup
	KindSetScrollSyncAnchor
	KindRemoveScrollSyncAnchor

	KindCreateVirtualBuffer // async
	KindSetVirtualBufferContent
)

// asyncKinds is the closed set of commands that carry a callback_id and
// resolve later as a PluginResponse, rather than completing before the
// next frame (spec.md §4.I).
var asyncKinds = map[Kind]bool{
	KindRequestHighlights:   true,
	KindSendLSPRequest:      true,
	KindSpawnProcess:        true,
	KindDelay:               true,
	KindGetBufferText:       true,
	KindCreateVirtualBuffer: true,
}

// IsAsync reports whether k's result is delivered asynchronously via a
// callback_id rather than synchronously before the next frame.
func IsAsync(k Kind) bool { return asyncKinds[k] }

// Command is the closed tagged-struct mutation value; only the fields
// relevant to Kind are populated, matching the style of
// internal/event.Event.
type Command struct {
	Kind Kind

	BufferID    splittree.BufferID
	TargetSplit splittree.ID
	Direction   splittree.Direction
	Ratio       float64

	Range textbuf.Range
	Text  string
	Pos   int

	CursorID cursor.ID

	Path string

	Namespace string
	Handle    uint64
	Face      decoration.Face
	Priority  int
	Prefix    string
	VTPos     decoration.VTPosition
	Line      int
	Symbol    rune

	ModeName string
	Context  string
	Status   string
	Clipboard string
	ThemeName string

	ActionName string
	Batch      []Command

	Query string

	CallbackID string
	Args       map[string]any
}

// Result is returned by every synchronous command (spec.md §4.I:
// "every command returns success/failure"); async commands additionally
// carry CallbackID so the plugin runtime can resolve it onto the
// originating promise once the AsyncResult arrives.
type Result struct {
	OK         bool
	Err        error
	CallbackID string
}

// AsyncResult is delivered later for a command where IsAsync(cmd.Kind)
// is true, and resolved by the plugin runtime onto the promise that
// CallbackID identifies.
type AsyncResult struct {
	CallbackID string
	Value      any
	Err        error
}

// Descriptor is one entry in the named, introspectable command
// registry: either a built-in command or one a plugin registered.
type Descriptor struct {
	Name     string
	Contexts []string // empty means "available in every context"
	Disabled bool
	Handler  func(Command) Result
}

// Registry tracks built-in and plugin-registered named commands plus a
// recency-ordered usage history for command-palette sorting, grounded
// on original_source/src/command_registry.rs.
type Registry struct {
	builtin []Descriptor
	plugin  map[string]Descriptor
	history []string // most-recent first
}

const maxHistorySize = 50

// NewRegistry returns a registry seeded with the given built-ins.
func NewRegistry(builtin []Descriptor) *Registry {
	return &Registry{builtin: builtin, plugin: make(map[string]Descriptor)}
}

// Register adds or replaces a plugin command by name.
func (r *Registry) Register(d Descriptor) {
	r.plugin[d.Name] = d
}

// Unregister removes a single plugin command by name.
func (r *Registry) Unregister(name string) {
	delete(r.plugin, name)
}

// UnregisterByPrefix removes every plugin command whose name starts
// with prefix (used when a plugin unloads).
func (r *Registry) UnregisterByPrefix(prefix string) {
	for name := range r.plugin {
		if strings.HasPrefix(name, prefix) {
			delete(r.plugin, name)
		}
	}
}

// RecordUsage moves name to the front of the usage history, trimmed to
// maxHistorySize entries.
func (r *Registry) RecordUsage(name string) {
	for i, n := range r.history {
		if n == name {
			r.history = append(r.history[:i], r.history[i+1:]...)
			break
		}
	}
	r.history = append([]string{name}, r.history...)
	if len(r.history) > maxHistorySize {
		r.history = r.history[:maxHistorySize]
	}
}

func (r *Registry) historyPosition(name string) (int, bool) {
	for i, n := range r.history {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// Get looks up a command by name, checking plugin-registered commands
// first since those are expected to shadow built-ins of the same name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	if d, ok := r.plugin[name]; ok {
		return d, true
	}
	for _, d := range r.builtin {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// All returns every built-in and plugin command descriptor.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.builtin)+len(r.plugin))
	out = append(out, r.builtin...)
	for _, d := range r.plugin {
		out = append(out, d)
	}
	return out
}

// Suggestion is one command-palette entry: a descriptor plus whether it
// is currently available in the caller's context.
type Suggestion struct {
	Descriptor Descriptor
	Available  bool
}

// Filter fuzzy-matches query (a subsequence match, case-insensitive)
// against every command name, marking a match Available when it is
// enabled and usable in currentContext. Available matches sort before
// unavailable ones; within each group, recently used commands come
// first in recency order and the rest follow by name. Match quality
// does not affect the order.
func (r *Registry) Filter(query string, currentContext string) []Suggestion {
	q := strings.ToLower(query)
	all := r.All()

	var out []Suggestion
	for _, d := range all {
		if !subsequenceMatch(q, strings.ToLower(d.Name)) {
			continue
		}
		available := len(d.Contexts) == 0 || containsString(d.Contexts, currentContext)
		out = append(out, Suggestion{Descriptor: d, Available: available && !d.Disabled})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Available != out[j].Available {
			return out[i].Available
		}
		pi, oki := r.historyPosition(out[i].Descriptor.Name)
		pj, okj := r.historyPosition(out[j].Descriptor.Name)
		if oki != okj {
			return oki
		}
		if oki && okj {
			return pi < pj
		}
		return out[i].Descriptor.Name < out[j].Descriptor.Name
	})
	return out
}

func subsequenceMatch(query, name string) bool {
	if query == "" {
		return true
	}
	qi := 0
	qr := []rune(query)
	for _, r := range name {
		if qi < len(qr) && qr[qi] == r {
			qi++
		}
	}
	return qi == len(qr)
}

func containsString(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

// Dispatcher executes synchronous commands against the editor states of
// its open buffers, its host split tree, and its decoration store. It is
// intentionally narrow: components J (session), K (terminal), and L
// (highlighter) own their own async command handling and are wired in
// by the caller via AsyncHandler.
type Dispatcher struct {
	Registry *Registry

	// Buffers resolves a BufferID to the editor state it backs; callers
	// (the session/workspace layer) own buffer lifecycle.
	Buffers map[splittree.BufferID]*state.EditorState
	Tree    *splittree.Tree
	Decor   func(splittree.BufferID) *decoration.Store

	// AsyncHandler, if set, is invoked for every Kind where IsAsync is
	// true; it is responsible for eventually delivering an AsyncResult
	// via whatever channel the plugin runtime is listening on.
	AsyncHandler func(Command) Result

	// StatusSink receives KindSetStatus text; SetStatus is deliberately
	// side-effecting rather than stored on Dispatcher so callers can
	// route it to a status bar of their choosing.
	StatusSink func(string)
}

// Execute dispatches cmd to the appropriate component, returning
// success/failure per spec.md §4.I. Async commands are handed to
// AsyncHandler if present, else fail with ErrUnsupported.
func (d *Dispatcher) Execute(cmd Command) Result {
	if IsAsync(cmd.Kind) {
		if d.AsyncHandler != nil {
			return d.AsyncHandler(cmd)
		}
		return Result{OK: false, Err: ErrUnsupported}
	}

	switch cmd.Kind {
	case KindInsertText, KindInsertAtCursor:
		return d.withBuffer(cmd.BufferID, func(s *state.EditorState) Result {
			s.Apply(event.Event{
				Kind:     event.KindInsert,
				CursorID: cmd.CursorID,
				Pos:      cmd.Pos,
				Text:     []byte(cmd.Text),
			})
			return ok()
		})
	case KindDeleteRange:
		return d.withBuffer(cmd.BufferID, func(s *state.EditorState) Result {
			removed := append([]byte(nil), s.Buffer.SliceBytes(cmd.Range)...)
			s.Apply(event.Event{
				Kind:     event.KindDelete,
				CursorID: cmd.CursorID,
				Pos:      cmd.Range.Start,
				Text:     removed,
			})
			return ok()
		})
	case KindSetCursor:
		return d.withBuffer(cmd.BufferID, func(s *state.EditorState) Result {
			if _, found := s.Cursors.Get(cmd.CursorID); found {
				s.Apply(event.Event{
					Kind:     event.KindMoveCursor,
					CursorID: cmd.CursorID,
					Position: cmd.Pos,
				})
			}
			return ok()
		})

	case KindCloseSplit:
		if d.Tree == nil {
			return Result{OK: false, Err: ErrUnsupported}
		}
		d.Tree.CloseSplit(cmd.TargetSplit)
		return ok()
	case KindFocusSplit:
		if d.Tree == nil {
			return Result{OK: false, Err: ErrUnsupported}
		}
		d.Tree.SetActiveSplit(cmd.TargetSplit)
		return ok()
	case KindSetSplitBuffer:
		if d.Tree == nil {
			return Result{OK: false, Err: ErrUnsupported}
		}
		d.Tree.SetSplitBuffer(cmd.TargetSplit, cmd.BufferID)
		return ok()
	case KindSetSplitRatio:
		if d.Tree == nil {
			return Result{OK: false, Err: ErrUnsupported}
		}
		d.Tree.SetSplitRatio(cmd.TargetSplit, cmd.Ratio)
		return ok()
	case KindDistributeEvenly:
		if d.Tree == nil {
			return Result{OK: false, Err: ErrUnsupported}
		}
		d.Tree.DistributeEvenly(cmd.TargetSplit)
		return ok()

	case KindSetLineNumbers:
		return d.withBuffer(cmd.BufferID, func(s *state.EditorState) Result {
			s.Margins.ShowLineNumbers = cmd.Args != nil && cmd.Args["on"] == true
			return ok()
		})

	case KindAddOverlay:
		return d.withDecor(cmd.BufferID, func(s *decoration.Store) Result {
			s.AddOverlay(cmd.Namespace, cmd.Range, cmd.Face, cmd.Priority, cmd.Text)
			return ok()
		})
	case KindRemoveOverlayByHandle:
		return d.withDecor(cmd.BufferID, func(s *decoration.Store) Result {
			s.RemoveOverlay(cmd.Handle)
			return ok()
		})
	case KindClearOverlaysInRange:
		return d.withDecor(cmd.BufferID, func(s *decoration.Store) Result {
			s.ClearOverlaysInRange(cmd.Range)
			return ok()
		})
	case KindClearNamespace, KindRemoveVirtualTextByNamespace:
		return d.withDecor(cmd.BufferID, func(s *decoration.Store) Result {
			s.ClearNamespace(cmd.Namespace)
			return ok()
		})
	case KindAddVirtualText, KindAddVirtualLine:
		return d.withDecor(cmd.BufferID, func(s *decoration.Store) Result {
			s.AddVirtualText(cmd.Namespace, cmd.Pos, cmd.VTPos, cmd.Text, cmd.Face)
			return ok()
		})
	case KindSetLineIndicator:
		return d.withDecor(cmd.BufferID, func(s *decoration.Store) Result {
			s.AddLineIndicator(cmd.Namespace, cmd.Line, cmd.Symbol, cmd.Face)
			return ok()
		})

	case KindSetStatus:
		if d.StatusSink != nil {
			d.StatusSink(cmd.Status)
		}
		return ok()

	case KindRegisterCommand:
		if d.Registry != nil {
			d.Registry.Register(Descriptor{Name: cmd.ActionName})
		}
		return ok()
	case KindUnregisterCommand:
		if d.Registry != nil {
			d.Registry.Unregister(cmd.ActionName)
		}
		return ok()

	case KindExecuteAction:
		if d.Registry == nil {
			return Result{OK: false, Err: ErrUnsupported}
		}
		desc, found := d.Registry.Get(cmd.ActionName)
		if !found || desc.Disabled || desc.Handler == nil {
			return Result{OK: false, Err: ferrors.New(ferrors.UserError, "unknown action: "+cmd.ActionName)}
		}
		d.Registry.RecordUsage(cmd.ActionName)
		return desc.Handler(cmd)

	case KindExecuteActionsBatch:
		for _, sub := range cmd.Batch {
			if res := d.Execute(sub); !res.OK {
				return res
			}
		}
		return ok()

	default:
		// Commands owned by components not modeled by Dispatcher directly
		// (session save/restore, theme application, config reload, scroll
		// sync groups, composite/virtual buffers, prompt/mode/menu state)
		// are expected to be wired by the caller via AsyncHandler or a
		// thin wrapper; reporting unsupported here keeps Execute's
		// exhaustive switch honest about what it actually owns.
		return Result{OK: false, Err: ErrUnsupported}
	}
}

func ok() Result { return Result{OK: true} }

func (d *Dispatcher) withBuffer(id splittree.BufferID, fn func(*state.EditorState) Result) Result {
	s, found := d.Buffers[id]
	if !found {
		return Result{OK: false, Err: ErrUnknownBuffer}
	}
	return fn(s)
}

func (d *Dispatcher) withDecor(id splittree.BufferID, fn func(*decoration.Store) Result) Result {
	if d.Decor == nil {
		return Result{OK: false, Err: ErrUnsupported}
	}
	store := d.Decor(id)
	if store == nil {
		return Result{OK: false, Err: ErrUnknownBuffer}
	}
	return fn(store)
}
