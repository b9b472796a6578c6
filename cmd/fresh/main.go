// Command fresh is the editor's entry point: it resolves configuration,
// builds the initial split tree and buffers from the command line, and
// runs the modal input-dispatch loop until the terminal exits. Grounded
// on cmd/texelterm/main.go's flag-parsing and single-app runtime shape,
// trimmed from the teacher's client/server daemon lifecycle (cmd/texelation)
// to a single process, since this editor never runs headless.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/fresh-editor/fresh/config"
	"github.com/fresh-editor/fresh/internal/command"
	"github.com/fresh-editor/fresh/internal/decoration"
	"github.com/fresh-editor/fresh/internal/input"
	"github.com/fresh-editor/fresh/internal/logging"
	"github.com/fresh-editor/fresh/internal/session"
	"github.com/fresh-editor/fresh/internal/splittree"
	"github.com/fresh-editor/fresh/internal/state"
	"github.com/fresh-editor/fresh/internal/termpty"
	"github.com/fresh-editor/fresh/internal/termquery"
)

var resetHistory = flag.Bool("reset-history", false, "remove the prompt-history database")
var printVersion = flag.Bool("version", false, "print version and exit")

const version = "0.1.0"

func main() {
	flag.Parse()

	if *printVersion {
		fmt.Println("fresh " + version)
		return
	}

	logging.Init()

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatalf("fresh: cannot determine working directory: %v", err)
	}

	if *resetHistory {
		if err := resetHistoryStore(cwd); err != nil {
			log.Fatalf("fresh: %v", err)
		}
		fmt.Println("Prompt history reset.")
		return
	}

	if !isatty.IsTerminal(os.Stdin.Fd()) || !isatty.IsTerminal(os.Stdout.Fd()) {
		log.Fatalf("fresh: stdin/stdout must be a terminal")
	}

	store, err := config.Load(cwd)
	if err != nil {
		log.Fatalf("fresh: loading config: %v", err)
	}
	cfg := store.Resolved()

	detectCtx, cancelDetect := context.WithTimeout(context.Background(), 200*time.Millisecond)
	if dark, ok := termquery.DetectDark(detectCtx); ok {
		logging.Tagf("MAIN", "detected %s terminal background", map[bool]string{true: "dark", false: "light"}[dark])
	}
	cancelDetect()

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("fresh: creating terminal screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("fresh: initializing terminal screen: %v", err)
	}
	defer screen.Fini()

	instanceID := uuid.New()
	logging.Tagf("MAIN", "starting session %s in %s", instanceID, cwd)

	w, h := screen.Size()

	var tree *splittree.Tree
	var buffers map[splittree.BufferID]*state.EditorState
	if len(flag.Args()) == 0 {
		tree, buffers = restoreSession(cwd, cfg, w, h)
	}
	if tree == nil {
		buffers = make(map[splittree.BufferID]*state.EditorState)
		var bufID splittree.BufferID
		if args := flag.Args(); len(args) > 0 {
			bufID = splittree.BufferID(args[0])
			buffers[bufID] = openFileBuffer(args[0], cfg, w, h)
		} else {
			bufID = "[scratch]"
			buffers[bufID] = state.New(w, h)
		}
		tree = splittree.New(bufID)
	}

	registry := command.NewRegistry(builtinCommands())
	dispatcher := &command.Dispatcher{
		Registry: registry,
		Buffers:  buffers,
		Tree:     tree,
		Decor: func(id splittree.BufferID) *decoration.Store {
			if s, ok := buffers[id]; ok {
				return s.Decor
			}
			return nil
		},
		StatusSink: func(s string) { logging.Tagf("STATUS", "%s", s) },
	}

	tracker := session.NewTracker(true)
	runEventLoop(screen, dispatcher, cfg, tracker, cwd)
}

// builtinCommands registers every window-level named action in the
// command registry so the command palette can list and search them
// (spec.md §4.I). Their real effect runs through actionExecutor.applyNamed,
// not this Handler; it only needs to report success so the registry's
// introspection contract (every Descriptor is runnable) holds for
// actions the executor special-cases before ever reaching the registry.
func builtinCommands() []command.Descriptor {
	names := []string{"quit", "save", "command_palette", "switch_buffer", "open_terminal", "terminal_exit"}
	out := make([]command.Descriptor, 0, len(names))
	for _, name := range names {
		out = append(out, command.Descriptor{
			Name:    name,
			Handler: func(command.Command) command.Result { return command.Result{OK: true} },
		})
	}
	return out
}

func openFileBuffer(path string, cfg config.Config, w, h int) *state.EditorState {
	data, err := os.ReadFile(path)
	if err != nil {
		logging.Tagf("MAIN", "could not read %s, opening empty buffer: %v", path, err)
		s := state.New(w, h)
		s.Buffer.SetFilePath(path)
		return s
	}

	if len(data) > cfg.Editor.LargeFileThresholdBytes {
		logging.Tagf("MAIN", "opening %s (%s) in large-file mode", path, humanize.Bytes(uint64(len(data))))
	}

	s := state.NewFromBytes(data, w, h)
	s.Buffer.SetFilePath(path)
	s.Buffer.SetLargeFileThreshold(cfg.Editor.LargeFileThresholdBytes)
	s.Margins.ShowLineNumbers = cfg.Editor.LineNumbers
	return s
}

// restoreSession reads .fresh/session.json under cwd, if present, and
// rebuilds the split tree and buffers it describes (spec.md §4.J, §6).
// It returns a nil tree when no session file exists or it fails to
// parse, so the caller falls back to a fresh scratch buffer.
func restoreSession(cwd string, cfg config.Config, w, h int) (*splittree.Tree, map[splittree.BufferID]*state.EditorState) {
	path := filepath.Join(cwd, ".fresh", "session.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil
	}

	var doc session.Session
	if err := json.Unmarshal(data, &doc); err != nil {
		logging.Tagf("SESSION", "could not parse %s, starting fresh: %v", path, err)
		return nil, nil
	}

	buffers := make(map[splittree.BufferID]*state.EditorState)
	scratchN := 0

	hooks := session.RestoreHooks{
		FileExists: func(relPath string) bool {
			_, err := os.Stat(filepath.Join(cwd, relPath))
			return err == nil
		},
		OpenBuffer: func(relPath string) (splittree.BufferID, int, error) {
			full := filepath.Join(cwd, relPath)
			s := openFileBuffer(full, cfg, w, h)
			id := splittree.BufferID(relPath)
			buffers[id] = s
			return id, s.Buffer.Len(), nil
		},
		ScratchBuffer: func() splittree.BufferID {
			scratchN++
			id := splittree.BufferID(fmt.Sprintf("[scratch-%d]", scratchN))
			buffers[id] = state.New(w, h)
			return id
		},
		RestoreTerminal: func(t session.Terminal) (splittree.BufferID, int, error) {
			backing, err := os.ReadFile(t.BackingPath)
			if err != nil {
				return "", 0, err
			}
			_ = termpty.RestoreFromBacking(t.LogPath, t.BackingPath)
			s := state.NewFromBytes(backing, w, h)
			s.SetTerminalMode()
			id := splittree.BufferID(fmt.Sprintf("[terminal-%d]", t.Index))
			buffers[id] = s
			return id, len(backing), nil
		},
		Warn: func(message string) { logging.Tagf("SESSION", "%s", message) },
	}

	tree, leaves := session.Restore(doc, hooks)
	for _, lr := range leaves {
		s, ok := buffers[lr.BufferID]
		if !ok {
			continue
		}
		primary := s.Cursors.Primary()
		primary.Position = lr.Cursor.Position
		primary.Anchor = lr.Cursor.Anchor
		primary.StickyColumn = lr.Cursor.StickyColumn
		s.Cursors.Update(primary)
		s.Viewport.TopByte = lr.Scroll.TopByte
		s.Viewport.LeftColumn = lr.Scroll.LeftColumn
		if lr.SkipResizeSync {
			s.Viewport.SkipEnsureVisible = true
		}
	}
	logging.Tagf("SESSION", "restored from %s", path)
	return tree, buffers
}

// runEventLoop reads terminal events, feeds key events through the
// modal priority chain (settings/calibration/menu/prompt/popup/
// terminal/normal), and applies whatever deferred actions the matched
// level produced until the user quits. Terminal events are funneled
// onto a channel alongside PTY output chunks, mirroring the teacher's
// Desktop.Run event-channel shape (texel/desktop.go).
func runEventLoop(screen tcell.Screen, d *command.Dispatcher, cfg config.Config, tracker *session.Tracker, workingDir string) {
	modal := &modalState{}
	terminals := newTerminalManager(workingDir)
	defer terminals.CloseAll()
	ptyOut := make(chan ptyChunk, 64)

	exec := &actionExecutor{dispatcher: d, tree: d.Tree, screen: screen, tracker: tracker, workingDir: workingDir, cfg: cfg, modal: modal, terminals: terminals, ptyOut: ptyOut}
	normal := &normalModeHandler{dispatcher: d, tree: d.Tree, cfg: cfg, tracker: tracker}
	prompt := &promptHandler{modal: modal}
	menu := &menuHandler{modal: modal}
	terminal := &terminalInputHandler{tree: d.Tree, terminals: terminals}
	chain := input.Chain{Menu: menu, Prompt: prompt, Terminal: terminal, Normal: normal}

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			events <- screen.PollEvent()
		}
	}()

	for {
		select {
		case chunk := <-ptyOut:
			s, ok := d.Buffers[chunk.bufID]
			if !ok {
				continue
			}
			s.AppendTerminalOutput(chunk.data, cfg.Terminal.JumpToEndOnOutput)

		case ev := <-events:
			switch e := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
				w, h := screen.Size()
				for id, s := range d.Buffers {
					s.Resize(w, h)
					terminals.Resize(id, w, h)
				}
			case *tcell.EventKey:
				vis := input.Visibility{
					MenuActive:         modal.menu.active,
					PromptOpen:         modal.prompt.open,
					TerminalModeActive: exec.activeBufferIsLiveTerminal(),
				}
				_, ctx := input.Dispatch(e, vis, chain)
				for _, a := range ctx.Actions {
					if exec.apply(a) {
						return
					}
				}
				if ctx.Status != "" {
					logging.Tagf("STATUS", "%s", ctx.Status)
				}
				if tracker.ShouldSave(time.Now()) {
					exec.persistSession()
				}
			}
		}
	}
}

// normalModeHandler maps key events to commands via the resolved
// keybindings, falling back to inserting the typed rune at the primary
// cursor of the active split's buffer.
type normalModeHandler struct {
	dispatcher *command.Dispatcher
	tree       *splittree.Tree
	cfg        config.Config
	tracker    *session.Tracker
}

func (h *normalModeHandler) Dispatch(ev *tcell.EventKey, ctx *input.Context) input.Result {
	if action, ok := matchKeybinding(h.cfg.Keybindings, ev); ok {
		ctx.Defer(input.DeferredAction{Kind: input.ActionExecuteNamed, Name: action})
		return input.Deferred
	}

	if ev.Key() == tcell.KeyRune {
		bufID, ok := h.tree.ActiveBuffer(h.tree.ActiveID())
		if !ok {
			return input.NotConsumed
		}
		s, ok := h.dispatcher.Buffers[bufID]
		if !ok {
			return input.NotConsumed
		}
		primary := s.Cursors.Primary()
		res := h.dispatcher.Execute(command.Command{
			Kind:     command.KindInsertAtCursor,
			BufferID: bufID,
			Pos:      primary.Position,
			CursorID: primary.ID,
			Text:     string(ev.Rune()),
		})
		if res.OK {
			h.tracker.MarkDirty()
		}
		return input.Consumed
	}
	return input.NotConsumed
}

func matchKeybinding(bindings []config.Keybinding, ev *tcell.EventKey) (string, bool) {
	for _, kb := range bindings {
		if chordMatches(kb, ev) {
			return kb.Action, true
		}
	}
	return "", false
}

func chordMatches(kb config.Keybinding, ev *tcell.EventKey) bool {
	wantCtrl, wantAlt, wantShift := false, false, false
	for _, m := range kb.Modifiers {
		switch m {
		case "Ctrl":
			wantCtrl = true
		case "Alt":
			wantAlt = true
		case "Shift":
			wantShift = true
		}
	}
	haveCtrl := ev.Modifiers()&tcell.ModCtrl != 0
	haveAlt := ev.Modifiers()&tcell.ModAlt != 0
	haveShift := ev.Modifiers()&tcell.ModShift != 0
	if wantCtrl != haveCtrl || wantAlt != haveAlt || wantShift != haveShift {
		return false
	}

	if len(kb.Key) == 1 && ev.Key() == tcell.KeyRune {
		return rune(kb.Key[0]) == ev.Rune()
	}
	return keyName(ev.Key()) == kb.Key
}

func keyName(k tcell.Key) string {
	switch k {
	case tcell.KeyEnter:
		return "Enter"
	case tcell.KeyEsc:
		return "Escape"
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return "Backspace"
	case tcell.KeyTab:
		return "Tab"
	default:
		return ""
	}
}

// actionExecutor applies the effects a modal handler deferred during
// Dispatch (input.Context.Actions), per spec.md §4.H's two-phase
// dispatch/execute split. It owns the window-level actions no single
// buffer's command.Dispatcher models (quit, save, opening the command
// palette or buffer switcher, terminal lifecycle) and otherwise routes
// named actions through command.Registry so nothing is silently
// dropped (spec.md §4.I).
type actionExecutor struct {
	dispatcher *command.Dispatcher
	tree       *splittree.Tree
	screen     tcell.Screen
	tracker    *session.Tracker
	workingDir string
	cfg        config.Config

	modal     *modalState
	terminals *terminalManager
	ptyOut    chan<- ptyChunk
}

// apply reports whether the event loop should exit.
func (x *actionExecutor) apply(a input.DeferredAction) bool {
	switch a.Kind {
	case input.ActionExecuteNamed:
		return x.applyNamed(a.Name)

	case input.ActionClosePrompt:
		x.modal.prompt = promptState{}
	case input.ActionConfirmPrompt:
		x.confirmPrompt()
	case input.ActionInsertCharAndUpdate:
		x.updatePromptQuery(a.Char)
	case input.ActionPromptHistoryPrev:
		x.movePromptSelection(-1)
	case input.ActionPromptHistoryNext:
		x.movePromptSelection(1)

	case input.ActionCloseMenu:
		x.modal.menu = menuState{}
	case input.ActionExecuteMenuAction:
		x.confirmMenu()
	case input.ActionFileBrowserSelectPrev:
		x.moveMenuSelection(-1)
	case input.ActionFileBrowserSelectNext:
		x.moveMenuSelection(1)

	case input.ActionExitTerminalMode:
		x.exitTerminalMode()
	}
	return false
}

// applyNamed executes a keybinding-triggered named action. "quit" and
// "save" are handled directly since they touch the screen/session
// lifecycle rather than buffer state; a handful of window-management
// actions toggle modalState; everything else is looked up in the
// command registry so a plugin-registered or future action is never
// silently discarded (spec.md §4.I).
func (x *actionExecutor) applyNamed(name string) bool {
	switch name {
	case "quit":
		x.persistSession()
		return true
	case "save":
		x.saveActiveBuffer()
	case "command_palette":
		x.openPrompt()
	case "switch_buffer":
		x.openMenu()
	case "open_terminal":
		x.openOrResumeTerminal()
	case "terminal_exit":
		x.exitTerminalMode()
	default:
		if res := x.dispatcher.Execute(command.Command{Kind: command.KindExecuteAction, ActionName: name}); !res.OK {
			logging.Tagf("ACTION", "unhandled action %q: %v", name, res.Err)
		}
	}
	return false
}

func (x *actionExecutor) activeBuffer() (splittree.BufferID, *state.EditorState, bool) {
	bufID, ok := x.tree.ActiveBuffer(x.tree.ActiveID())
	if !ok {
		return "", nil, false
	}
	s, ok := x.dispatcher.Buffers[bufID]
	return bufID, s, ok
}

func (x *actionExecutor) activeBufferIsLiveTerminal() bool {
	_, s, ok := x.activeBuffer()
	return ok && s.ViewMode == state.ViewModeTerminal && s.TerminalModeResume
}

// openPrompt opens the command palette, seeded with every command
// available in the current context.
func (x *actionExecutor) openPrompt() {
	x.modal.prompt = promptState{
		open:        true,
		suggestions: x.dispatcher.Registry.Filter("", "normal"),
	}
}

func (x *actionExecutor) updatePromptQuery(ch rune) {
	if !x.modal.prompt.open {
		return
	}
	if ch == 0 {
		if len(x.modal.prompt.query) > 0 {
			x.modal.prompt.query = x.modal.prompt.query[:len(x.modal.prompt.query)-1]
		}
	} else {
		x.modal.prompt.query += string(ch)
	}
	x.modal.prompt.suggestions = x.dispatcher.Registry.Filter(x.modal.prompt.query, "normal")
	x.modal.prompt.selected = 0
}

func (x *actionExecutor) movePromptSelection(delta int) {
	n := len(x.modal.prompt.suggestions)
	if n == 0 {
		return
	}
	x.modal.prompt.selected = ((x.modal.prompt.selected+delta)%n + n) % n
}

func (x *actionExecutor) confirmPrompt() {
	p := x.modal.prompt
	if !p.open || p.selected < 0 || p.selected >= len(p.suggestions) {
		x.modal.prompt = promptState{}
		return
	}
	name := p.suggestions[p.selected].Descriptor.Name
	x.modal.prompt = promptState{}
	x.applyNamed(name)
}

// openMenu opens the buffer switcher over every buffer the dispatcher
// currently knows about.
func (x *actionExecutor) openMenu() {
	items := make([]splittree.BufferID, 0, len(x.dispatcher.Buffers))
	for id := range x.dispatcher.Buffers {
		items = append(items, id)
	}
	x.modal.menu = menuState{active: true, items: items}
}

func (x *actionExecutor) moveMenuSelection(delta int) {
	n := len(x.modal.menu.items)
	if n == 0 {
		return
	}
	x.modal.menu.selected = ((x.modal.menu.selected+delta)%n + n) % n
}

func (x *actionExecutor) confirmMenu() {
	m := x.modal.menu
	x.modal.menu = menuState{}
	if !m.active || m.selected < 0 || m.selected >= len(m.items) {
		return
	}
	x.dispatcher.Execute(command.Command{
		Kind:        command.KindSetSplitBuffer,
		TargetSplit: x.tree.ActiveID(),
		BufferID:    m.items[m.selected],
	})
}

// openOrResumeTerminal opens a terminal in the active buffer if it is
// already terminal-backed but parked in scrollback, or else spawns a
// brand new terminal-backed buffer in a new split (spec.md §4.K).
func (x *actionExecutor) openOrResumeTerminal() {
	bufID, s, ok := x.activeBuffer()
	if ok && s.ViewMode == state.ViewModeTerminal && !s.TerminalModeResume {
		w, h := x.screen.Size()
		if err := x.terminals.EnterFromScrollback(bufID); err != nil {
			logging.Tagf("TERMINAL", "resume failed: %v", err)
			return
		}
		x.terminals.Resize(bufID, w, h)
		s.TerminalModeResume = true
		return
	}

	w, h := x.screen.Size()
	term := state.New(w, h)
	term.SetTerminalMode()
	newID := splittree.BufferID(fmt.Sprintf("[terminal-%d]", len(x.dispatcher.Buffers)))
	x.dispatcher.Buffers[newID] = term
	x.tree.SplitActive(splittree.DirHorizontal, newID, 0.5)

	if _, err := x.terminals.Spawn(newID, x.cfg.Terminal.Shell, w, h, x.ptyOut); err != nil {
		logging.Tagf("TERMINAL", "spawn failed: %v", err)
		delete(x.dispatcher.Buffers, newID)
		return
	}
	if chord, ok := input.FindKeybindingForAction(x.cfg.Keybindings, "terminal_exit"); ok {
		logging.Tagf("TERMINAL", "opened; press %s to leave terminal mode", chord)
	}
}

// exitTerminalMode moves the active terminal-backed buffer from Live
// to Scrollback, keeping the shell running in the background while
// normal editing resumes over its rendered text (spec.md §4.K).
func (x *actionExecutor) exitTerminalMode() {
	bufID, s, ok := x.activeBuffer()
	if !ok || s.ViewMode != state.ViewModeTerminal {
		return
	}
	if err := x.terminals.ExitToScrollback(bufID, s.Buffer.Bytes()); err != nil {
		logging.Tagf("TERMINAL", "exit failed: %v", err)
		return
	}
	s.TerminalModeResume = false
}

// persistSession captures the current split layout and per-leaf cursor
// state to .fresh/session.json so a later launch in the same directory
// can restore it (spec.md §4.J, §6).
func (x *actionExecutor) persistSession() {
	w, h := x.screen.Size()
	rects := x.tree.GetLeavesWithRects(splittree.Rect{W: w, H: h})
	leaves := make(map[splittree.ID]session.CaptureLeaf, len(rects))
	var terminals []session.Terminal
	for _, lr := range rects {
		s, ok := x.dispatcher.Buffers[lr.BufferID]
		if !ok {
			continue
		}
		isTerminal := s.ViewMode == state.ViewModeTerminal
		termIdx := 0
		if isTerminal {
			if term, ok := x.terminals.Get(lr.BufferID); ok {
				termIdx = x.terminals.Index(lr.BufferID)
				terminals = append(terminals, session.Terminal{
					Index:       termIdx,
					Cwd:         x.workingDir,
					Shell:       x.cfg.Terminal.Shell,
					Cols:        term.Cols,
					Rows:        term.Rows,
					LogPath:     term.LogPath,
					BackingPath: term.BackingPath,
				})
			}
		}
		leaves[lr.ID] = session.CaptureLeaf{
			SplitID:     lr.ID,
			RelPath:     s.Buffer.FilePath(),
			TerminalIdx: termIdx,
			IsTerminal:  isTerminal,
			OpenBuffers: []string{string(lr.BufferID)},
			Primary:     s.Cursors.Primary(),
			Scroll: session.Scroll{
				TopByte:    s.Viewport.TopByte,
				LeftColumn: s.Viewport.LeftColumn,
			},
		}
	}

	doc := session.Capture(x.tree, x.workingDir, leaves, terminals, nil)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		logging.Tagf("SESSION", "marshal failed: %v", err)
		return
	}
	path := filepath.Join(x.workingDir, ".fresh", "session.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logging.Tagf("SESSION", "mkdir failed: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logging.Tagf("SESSION", "write failed: %v", err)
		return
	}
	x.tracker.RecordSave(time.Now())
	logging.Tagf("SESSION", "saved to %s", path)
}

func (x *actionExecutor) saveActiveBuffer() {
	bufID, ok := x.tree.ActiveBuffer(x.tree.ActiveID())
	if !ok {
		return
	}
	s, ok := x.dispatcher.Buffers[bufID]
	if !ok || s.Buffer.FilePath() == "" {
		return
	}
	if err := os.WriteFile(s.Buffer.FilePath(), s.Buffer.Bytes(), 0o644); err != nil {
		logging.Tagf("MAIN", "save %s failed: %v", s.Buffer.FilePath(), err)
		return
	}
	s.MarkSaved()
	x.tracker.RecordSave(time.Now())
	logging.Tagf("MAIN", "saved %s", s.Buffer.FilePath())
}

func resetHistoryStore(cwd string) error {
	path := filepath.Join(cwd, ".fresh", "history.db")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	store, err := session.OpenHistoryStore(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return os.Remove(path)
}
