// PTY-backed terminal buffer lifecycle for the fresh binary: spawning a
// live shell per terminal split, streaming its output back into the
// single-writer event loop, and persisting log/backing files so a
// session restore can reload scrollback (spec.md §4.J, §4.K). The
// reader-goroutine-feeds-a-channel shape is grounded on the teacher's
// Desktop.Run PollEvent funnel (texel/desktop.go) and
// TexelTerm.runPtyReaderLoop (apps/texelterm/term.go).
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fresh-editor/fresh/internal/logging"
	"github.com/fresh-editor/fresh/internal/splittree"
	"github.com/fresh-editor/fresh/internal/termpty"
)

// ptyChunk is one batch of raw PTY output, tagged with the buffer it
// belongs to so the event loop can route it without a terminal
// goroutine ever touching an EditorState itself.
type ptyChunk struct {
	bufID splittree.BufferID
	data  []byte
}

type terminalEntry struct {
	idx     int
	term    *termpty.Terminal
	logFile *os.File
}

// terminalManager owns every live PTY this process has spawned: the
// index sequence session.Terminal.Index needs, the log/backing files
// under .fresh/terminals, and the reader goroutines streaming output
// into a shared channel.
type terminalManager struct {
	cwd     string
	next    int
	entries map[splittree.BufferID]*terminalEntry
}

func newTerminalManager(cwd string) *terminalManager {
	return &terminalManager{cwd: cwd, entries: make(map[splittree.BufferID]*terminalEntry)}
}

// Spawn starts a new shell PTY for bufID, sized cols x rows, and begins
// streaming its output onto out. The terminal's log/backing files are
// created fresh under .fresh/terminals.
func (m *terminalManager) Spawn(bufID splittree.BufferID, shell string, cols, rows int, out chan<- ptyChunk) (*termpty.Terminal, error) {
	dir := filepath.Join(m.cwd, ".fresh", "terminals")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("terminal dir: %w", err)
	}

	idx := m.next
	m.next++
	logPath := filepath.Join(dir, fmt.Sprintf("%d.log", idx))
	backingPath := filepath.Join(dir, fmt.Sprintf("%d.scrollback", idx))

	term, err := termpty.StartLive(shell, nil, cols, rows, os.Environ(), m.cwd)
	if err != nil {
		return nil, err
	}
	term.LogPath = logPath
	term.BackingPath = backingPath

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		term.Close()
		return nil, fmt.Errorf("open terminal log: %w", err)
	}
	if f, err := os.Create(backingPath); err != nil {
		logFile.Close()
		term.Close()
		return nil, fmt.Errorf("create scrollback file: %w", err)
	} else {
		f.Close()
	}

	m.entries[bufID] = &terminalEntry{idx: idx, term: term, logFile: logFile}
	go m.readLoop(bufID, term, logFile, out)
	return term, nil
}

// readLoop streams term's raw output onto out until the PTY closes,
// also appending every chunk to the append-only log file, mirroring
// the teacher's runPtyReaderLoop's read-parse-notify cycle minus the
// VT parser this editor does not implement.
func (m *terminalManager) readLoop(bufID splittree.BufferID, term *termpty.Terminal, logFile *os.File, out chan<- ptyChunk) {
	defer logFile.Close()
	buf := make([]byte, 4096)
	for {
		n, err := term.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			if _, werr := logFile.Write(chunk); werr != nil {
				logging.Tagf("TERMINAL", "log write failed for %s: %v", bufID, werr)
			}
			out <- ptyChunk{bufID: bufID, data: chunk}
		}
		if err != nil {
			return
		}
	}
}

func (m *terminalManager) Get(bufID splittree.BufferID) (*termpty.Terminal, bool) {
	e, ok := m.entries[bufID]
	if !ok {
		return nil, false
	}
	return e.term, true
}

func (m *terminalManager) Index(bufID splittree.BufferID) int {
	if e, ok := m.entries[bufID]; ok {
		return e.idx
	}
	return 0
}

// ExitToScrollback appends visible to the terminal's backing file and
// flips it into Scrollback state, matching termpty.Terminal's Live ->
// Scrollback transition (spec.md §4.K).
func (m *terminalManager) ExitToScrollback(bufID splittree.BufferID, visible []byte) error {
	e, ok := m.entries[bufID]
	if !ok {
		return fmt.Errorf("no terminal for %s", bufID)
	}
	f, err := os.OpenFile(e.term.BackingPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return e.term.ExitToScrollback(f, func(w io.Writer) error {
		_, err := w.Write(visible)
		return err
	})
}

// EnterFromScrollback truncates the backing file back off and flips
// the terminal back into Live state.
func (m *terminalManager) EnterFromScrollback(bufID splittree.BufferID) error {
	e, ok := m.entries[bufID]
	if !ok {
		return fmt.Errorf("no terminal for %s", bufID)
	}
	f, err := os.OpenFile(e.term.BackingPath, os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return e.term.EnterFromScrollback(f)
}

func (m *terminalManager) Resize(bufID splittree.BufferID, cols, rows int) {
	if e, ok := m.entries[bufID]; ok {
		_ = e.term.Resize(cols, rows)
	}
}

func (m *terminalManager) Close(bufID splittree.BufferID) {
	if e, ok := m.entries[bufID]; ok {
		_ = e.term.Close()
		delete(m.entries, bufID)
	}
}

func (m *terminalManager) CloseAll() {
	for id := range m.entries {
		m.Close(id)
	}
}
