package termpty

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/gdamore/tcell/v2"
)

func openBacking(t *testing.T, initial string) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backing.txt")
	if err := os.WriteFile(path, []byte(initial), 0o644); err != nil {
		t.Fatalf("seed backing file: %v", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open backing file: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestExitToScrollbackRecordsHistoryEndAndAppends(t *testing.T) {
	backing := openBacking(t, "line1\nline2\n")

	term := &Terminal{State: Live}
	err := term.ExitToScrollback(backing, func(w io.Writer) error {
		_, err := w.Write([]byte("visible screen\n"))
		return err
	})
	if err != nil {
		t.Fatalf("ExitToScrollback failed: %v", err)
	}
	if term.State != Scrollback {
		t.Fatalf("state = %v, want Scrollback", term.State)
	}
	if term.HistoryEndByte != int64(len("line1\nline2\n")) {
		t.Fatalf("HistoryEndByte = %d, want %d", term.HistoryEndByte, len("line1\nline2\n"))
	}

	contents, _ := os.ReadFile(backing.Name())
	want := "line1\nline2\nvisible screen\n"
	if string(contents) != want {
		t.Fatalf("backing contents = %q, want %q", contents, want)
	}
}

func TestEnterFromScrollbackTruncatesToHistoryEnd(t *testing.T) {
	backing := openBacking(t, "line1\nline2\nstale visible\n")

	term := &Terminal{State: Scrollback, HistoryEndByte: int64(len("line1\nline2\n"))}
	if err := term.EnterFromScrollback(backing); err != nil {
		t.Fatalf("EnterFromScrollback failed: %v", err)
	}
	if term.State != Live {
		t.Fatalf("state = %v, want Live", term.State)
	}

	contents, _ := os.ReadFile(backing.Name())
	if string(contents) != "line1\nline2\n" {
		t.Fatalf("backing contents = %q, want truncated to history", contents)
	}
}

func TestLiveScrollbackRoundTripIsSymmetric(t *testing.T) {
	backing := openBacking(t, "history\n")
	term := &Terminal{State: Live}

	if err := term.ExitToScrollback(backing, func(w io.Writer) error {
		_, err := w.Write([]byte("screen A\n"))
		return err
	}); err != nil {
		t.Fatalf("ExitToScrollback failed: %v", err)
	}

	if err := term.EnterFromScrollback(backing); err != nil {
		t.Fatalf("EnterFromScrollback failed: %v", err)
	}

	contents, _ := os.ReadFile(backing.Name())
	if string(contents) != "history\n" {
		t.Fatalf("backing contents after round trip = %q, want original history", contents)
	}
	if term.State != Live {
		t.Fatalf("state after round trip = %v, want Live", term.State)
	}
}

func TestSyncForSaveAppendsWithoutChangingState(t *testing.T) {
	backing := openBacking(t, "history\n")
	term := &Terminal{State: Live}

	err := term.SyncForSave(backing, func(w io.Writer) error {
		_, err := w.Write([]byte("current screen\n"))
		return err
	})
	if err != nil {
		t.Fatalf("SyncForSave failed: %v", err)
	}
	if term.State != Live {
		t.Fatalf("state = %v, want unchanged Live", term.State)
	}
	if term.HistoryEndByte != int64(len("history\n")) {
		t.Fatalf("HistoryEndByte = %d, want %d", term.HistoryEndByte, len("history\n"))
	}

	contents, _ := os.ReadFile(backing.Name())
	if string(contents) != "history\ncurrent screen\n" {
		t.Fatalf("backing contents = %q", contents)
	}
}

func TestIsExitChordDetectsKnownChords(t *testing.T) {
	cases := []struct {
		name string
		ev   *tcell.EventKey
		want bool
	}{
		{"ctrl-space", tcell.NewEventKey(tcell.KeyCtrlSpace, 0, tcell.ModCtrl), true},
		{"ctrl-right-sq", tcell.NewEventKey(tcell.KeyCtrlRightSq, 0, tcell.ModCtrl), true},
		{"ctrl-backtick", tcell.NewEventKey(tcell.KeyRune, '`', tcell.ModCtrl), true},
		{"plain-a", tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsExitChord(tc.ev); got != tc.want {
				t.Errorf("IsExitChord(%s) = %v, want %v", tc.name, got, tc.want)
			}
		})
	}
}

func TestEncodeKeyArrowsRespectAppCursorMode(t *testing.T) {
	up := tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone)

	if got := EncodeKey(up, false); string(got) != "\x1b[A" {
		t.Errorf("normal mode up = %q, want CSI A", got)
	}
	if got := EncodeKey(up, true); string(got) != "\x1bOA" {
		t.Errorf("app cursor mode up = %q, want SS3 A", got)
	}
}

func TestEncodeKeyCtrlLetterProducesControlByte(t *testing.T) {
	ev := tcell.NewEventKey(tcell.KeyRune, 'c', tcell.ModCtrl)
	got := EncodeKey(ev, false)
	if !bytes.Equal(got, []byte{0x03}) {
		t.Errorf("Ctrl+c = %v, want [0x03]", got)
	}
}

func TestEncodeKeyAltLetterPrefixesEscape(t *testing.T) {
	ev := tcell.NewEventKey(tcell.KeyRune, 'b', tcell.ModAlt)
	got := EncodeKey(ev, false)
	want := []byte{0x1b, 'b'}
	if !bytes.Equal(got, want) {
		t.Errorf("Alt+b = %v, want %v", got, want)
	}
}

func TestEncodeKeyPlainRuneEchoesItself(t *testing.T) {
	ev := tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)
	got := EncodeKey(ev, false)
	if string(got) != "x" {
		t.Errorf("plain rune = %q, want \"x\"", got)
	}
}

func TestEncodeKeyEnterAndBackspace(t *testing.T) {
	enter := tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)
	if string(EncodeKey(enter, false)) != "\r" {
		t.Errorf("Enter = %q, want CR", EncodeKey(enter, false))
	}

	back := tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone)
	if got := EncodeKey(back, false); !bytes.Equal(got, []byte{0x7F}) {
		t.Errorf("Backspace2 = %v, want [0x7F]", got)
	}
}
