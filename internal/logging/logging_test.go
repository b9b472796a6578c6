package logging

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWithoutEnvVarDiscardsOutput(t *testing.T) {
	os.Unsetenv(debugEnvVar)
	Init()
	Tagf("TEST", "hello %d", 1)
	// No assertion beyond "doesn't panic": io.Discard has no observable state.
}

func TestInitWithEnvVarWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	t.Setenv(debugEnvVar, path)
	Init()
	defer log.SetOutput(os.Stderr)

	Tagf("SESSION", "restored %d splits", 3)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read debug log: %v", err)
	}
	if !strings.Contains(string(data), "[SESSION] restored 3 splits") {
		t.Fatalf("log file contents = %q, missing expected tagged line", data)
	}
}
