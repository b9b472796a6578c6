// Package logging configures the process-wide stdlib logger: discarded
// by default, redirected to a file when FRESH_DEBUG names one. A TUI
// editor cannot let log output hit stderr without corrupting the
// terminal display, so output is never left at its default destination.
// Grounded on apps/texelterm/term.go's init().
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
)

const debugEnvVar = "FRESH_DEBUG"

// Init redirects the standard logger to the file named by FRESH_DEBUG,
// or discards log output entirely if the variable is unset or the file
// can't be opened. Call once, early in main.
func Init() {
	path := os.Getenv(debugEnvVar)
	if path == "" {
		log.SetOutput(io.Discard)
		return
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.SetOutput(io.Discard)
		return
	}
	log.SetOutput(f)
	log.SetFlags(log.Ltime | log.Lmicroseconds)
}

// Tagf logs with a bracketed component tag, e.g. Tagf("SESSION", "restored %d splits", n).
func Tagf(component, format string, args ...any) {
	log.Printf("[%s] %s", component, fmt.Sprintf(format, args...))
}
