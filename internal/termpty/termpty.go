// Package termpty implements the PTY-backed terminal buffer's
// incremental-streaming state machine: component K of the editing
// engine (spec.md §3, §4.K). Grounded on the teacher's creack/pty spawn
// and tcell key-encoding idiom (apps/texelterm/term.go) and the
// original editor's exact Live/Scrollback transition semantics
// (original_source app/terminal.rs: sync_terminal_to_buffer,
// enter_terminal_mode).
package termpty

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/creack/pty"
	"github.com/gdamore/tcell/v2"
)

// State is one of the three terminal-buffer states spec.md §4.K names.
type State int

const (
	// Live: the PTY is running; the visible screen renders directly
	// from the live terminal state.
	Live State = iota
	// Scrollback: a read-only buffer view of the backing file; no PTY.
	Scrollback
	// Restored: scrollback loaded from disk after a session restore;
	// the PTY has not been spawned yet.
	Restored
)

// Terminal is one PTY-backed terminal buffer's non-rendering state: its
// log/backing files, the live PTY handle when State == Live, and the
// history_end_byte bookkeeping the Live<->Scrollback transitions need.
type Terminal struct {
	State State

	LogPath     string // raw PTY output, append-only
	BackingPath string // rendered scrollback text (history only, not the visible screen)

	// HistoryEndByte is the backing file's length at the point the last
	// visible-screen tail was appended, so a later re-entry into Live
	// mode knows how much to truncate back off.
	HistoryEndByte int64

	Cols, Rows int

	pty *os.File
	cmd *exec.Cmd
}

// StartLive spawns shell as a PTY-backed process sized cols x rows and
// returns a Terminal in the Live state.
func StartLive(shell string, args []string, cols, rows int, env []string, cwd string) (*Terminal, error) {
	cmd := exec.Command(shell, args...)
	cmd.Env = env
	if cwd != "" {
		cmd.Dir = cwd
	}

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		return nil, fmt.Errorf("start pty: %w", err)
	}

	return &Terminal{State: Live, Cols: cols, Rows: rows, pty: ptmx, cmd: cmd}, nil
}

// Write sends bytes to the running PTY. It is a no-op (returns nil) if
// the terminal is not Live, matching the teacher's `if a.pty == nil`
// guard in HandleKey/HandlePaste.
func (t *Terminal) Write(p []byte) error {
	if t.pty == nil {
		return nil
	}
	_, err := t.pty.Write(p)
	return err
}

// Read reads raw PTY output; callers run this in a dedicated reader
// goroutine and stream the bytes to both the VTerm/TerminalState parser
// and LogPath.
func (t *Terminal) Read(p []byte) (int, error) {
	if t.pty == nil {
		return 0, io.EOF
	}
	return t.pty.Read(p)
}

// Resize resizes the live PTY. No-op when not Live.
func (t *Terminal) Resize(cols, rows int) error {
	t.Cols, t.Rows = cols, rows
	if t.pty == nil {
		return nil
	}
	return pty.Setsize(t.pty, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

// Close terminates the PTY process and closes its file descriptor.
func (t *Terminal) Close() error {
	if t.pty == nil {
		return nil
	}
	err := t.pty.Close()
	if t.cmd != nil && t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
	}
	t.pty = nil
	return err
}

// ExitToScrollback implements the Live → Scrollback transition
// (spec.md §4.K): appendVisibleScreen writes the current visible screen
// to the backing file (opened in append mode by the caller), and its
// pre-append length is recorded as HistoryEndByte so a later re-entry
// can truncate the tail back off.
func (t *Terminal) ExitToScrollback(backing *os.File, appendVisibleScreen func(io.Writer) error) error {
	info, err := backing.Stat()
	if err != nil {
		return fmt.Errorf("stat backing file: %w", err)
	}
	t.HistoryEndByte = info.Size()

	if err := appendVisibleScreen(backing); err != nil {
		return fmt.Errorf("append visible screen: %w", err)
	}

	t.State = Scrollback
	return nil
}

// EnterFromScrollback implements the Scrollback → Live transition
// (spec.md §4.K): truncate the backing file to HistoryEndByte (removing
// the tail ExitToScrollback appended), then the caller resizes the PTY
// to the current split size and scrolls to the bottom.
func (t *Terminal) EnterFromScrollback(backing *os.File) error {
	if err := backing.Truncate(t.HistoryEndByte); err != nil {
		return fmt.Errorf("truncate backing file: %w", err)
	}
	t.State = Live
	return nil
}

// SyncForSave ensures the backing file contains history + visible
// screen, the same append ExitToScrollback performs, but without
// changing State — used for session save while the terminal stays Live
// (spec.md §4.K "Session save" transition).
func (t *Terminal) SyncForSave(backing *os.File, appendVisibleScreen func(io.Writer) error) error {
	info, err := backing.Stat()
	if err != nil {
		return fmt.Errorf("stat backing file: %w", err)
	}
	historyEnd := info.Size()
	if err := appendVisibleScreen(backing); err != nil {
		return fmt.Errorf("append visible screen: %w", err)
	}
	if t.State == Live {
		t.HistoryEndByte = historyEnd
	}
	return nil
}

// RestoreFromBacking implements session restore for a terminal
// (spec.md §4.J/§4.K): the backing file is loaded directly as a
// read-only buffer — O(1) relative to the log — with no PTY spawned;
// a live PTY is only respawned when the user re-enters terminal mode.
func RestoreFromBacking(logPath, backingPath string) *Terminal {
	return &Terminal{State: Restored, LogPath: logPath, BackingPath: backingPath}
}

// IsExitChord reports whether ev is one of the well-known
// "escape from terminal mode" chords (spec.md §4.K): Ctrl+Space,
// Ctrl+], Ctrl+` — intercepted before PTY key encoding. Ctrl+Space and
// Ctrl+` are indistinguishable on the wire (both send NUL), so both
// land on tcell.KeyCtrlSpace; ev.Rune() disambiguates when the terminal
// happens to report the backtick literally.
func IsExitChord(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlSpace, tcell.KeyCtrlRightSq:
		return true
	}
	return ev.Modifiers()&tcell.ModCtrl != 0 && ev.Rune() == '`'
}

// EncodeKey maps (KeyCode, Modifiers) to the byte sequence the PTY
// expects: CSI/SS3 sequences for arrows and function keys depending on
// whether the application has requested application-cursor-keys mode,
// control bytes for Ctrl+letter, and an ESC prefix for Alt+key. Pure
// function, grounded on the teacher's keyToEscapeSequence.
func EncodeKey(ev *tcell.EventKey, appCursorKeys bool) []byte {
	csiOrSS3 := func(csi, ss3 string) []byte {
		if appCursorKeys {
			return []byte(ss3)
		}
		return []byte(csi)
	}

	switch ev.Key() {
	case tcell.KeyUp:
		return csiOrSS3("\x1b[A", "\x1bOA")
	case tcell.KeyDown:
		return csiOrSS3("\x1b[B", "\x1bOB")
	case tcell.KeyRight:
		return csiOrSS3("\x1b[C", "\x1bOC")
	case tcell.KeyLeft:
		return csiOrSS3("\x1b[D", "\x1bOD")
	case tcell.KeyHome:
		return []byte("\x1b[H")
	case tcell.KeyEnd:
		return []byte("\x1b[F")
	case tcell.KeyInsert:
		return []byte("\x1b[2~")
	case tcell.KeyDelete:
		return []byte("\x1b[3~")
	case tcell.KeyPgUp:
		return []byte("\x1b[5~")
	case tcell.KeyPgDn:
		return []byte("\x1b[6~")
	case tcell.KeyF1:
		return []byte("\x1bOP")
	case tcell.KeyF2:
		return []byte("\x1bOQ")
	case tcell.KeyF3:
		return []byte("\x1bOR")
	case tcell.KeyF4:
		return []byte("\x1bOS")
	case tcell.KeyEnter:
		return []byte("\r")
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return []byte{0x7F}
	case tcell.KeyTab:
		return []byte("\t")
	case tcell.KeyEsc:
		return []byte("\x1b")
	}

	if ev.Modifiers()&tcell.ModCtrl != 0 && ev.Key() == tcell.KeyRune {
		r := ev.Rune()
		if r >= 'a' && r <= 'z' {
			return []byte{byte(r - 'a' + 1)}
		}
		if r >= 'A' && r <= 'Z' {
			return []byte{byte(r - 'A' + 1)}
		}
	}

	if ev.Modifiers()&tcell.ModAlt != 0 && ev.Key() == tcell.KeyRune {
		return append([]byte{0x1b}, []byte(string(ev.Rune()))...)
	}

	if ev.Key() == tcell.KeyRune {
		return []byte(string(ev.Rune()))
	}
	return nil
}
