// Package termquery detects the controlling terminal's background
// color by sending an OSC 11 query directly over /dev/tty, so the
// editor can pick a light or dark theme variant before tcell's own
// screen takes over terminal state. Grounded on
// texel/desktop.go's queryTerminalColors, trimmed to background-only
// detection for a one-shot startup hint rather than a live color query.
package termquery

import (
	"context"
	"os"
	"regexp"
	"strconv"
	"time"

	"golang.org/x/term"
)

var bgPattern = regexp.MustCompile(`\x1b\]11;rgb:([0-9A-Fa-f]{1,4})/([0-9A-Fa-f]{1,4})/([0-9A-Fa-f]{1,4})`)

// DetectDark reports whether the terminal's background is dark, best
// effort. It opens /dev/tty directly (independent of os.Stdin/Stdout,
// which may be redirected), puts it in raw mode just long enough to
// send and read the OSC 11 response, and restores it before returning.
// Any failure (unsupported terminal, timeout, parse error) yields
// ok=false rather than a wrong guess.
func DetectDark(ctx context.Context) (dark bool, ok bool) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return false, false
	}
	defer tty.Close()

	state, err := term.MakeRaw(int(tty.Fd()))
	if err != nil {
		return false, false
	}
	defer term.Restore(int(tty.Fd()), state)

	if _, err := tty.WriteString("\x1b]11;?\a"); err != nil {
		return false, false
	}

	resp := make([]byte, 0, 64)
	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return false, false
		default:
		}

		deadline := time.Now().Add(10 * time.Millisecond)
		if d, has := ctx.Deadline(); has && d.Before(deadline) {
			deadline = d
		}
		tty.SetReadDeadline(deadline)

		n, readErr := tty.Read(buf)
		if readErr != nil {
			if os.IsTimeout(readErr) {
				continue
			}
			return false, false
		}
		resp = append(resp, buf[:n]...)
		if buf[0] == '\a' || (len(resp) > 1 && resp[len(resp)-2] == '\x1b' && resp[len(resp)-1] == '\\') {
			break
		}
	}

	m := bgPattern.FindStringSubmatch(string(resp))
	if len(m) != 4 {
		return false, false
	}

	r, rErr := hex16(m[1])
	g, gErr := hex16(m[2])
	b, bErr := hex16(m[3])
	if rErr != nil || gErr != nil || bErr != nil {
		return false, false
	}

	// Perceived luminance (ITU-R BT.601), 16-bit channels.
	luminance := (299*r + 587*g + 114*b) / 1000
	return luminance < 32768, true
}

func hex16(s string) (int64, error) {
	if len(s) < 4 {
		s = "000" + s
		s = s[len(s)-4:]
	}
	return strconv.ParseInt(s, 16, 32)
}
