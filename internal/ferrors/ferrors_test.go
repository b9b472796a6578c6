package ferrors

import (
	"errors"
	"testing"
)

func TestIsMatchesWrappedKind(t *testing.T) {
	cause := errors.New("enoent")
	err := Wrap(EnvironmentError, "could not read file", cause)

	if !Is(err, EnvironmentError) {
		t.Fatal("expected Is to match the wrapped EnvironmentError kind")
	}
	if Is(err, UserError) {
		t.Fatal("expected Is not to match a different kind")
	}
}

func TestUnwrapReturnsCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ProtocolError, "bad response", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to follow Unwrap to the cause")
	}
}

func TestShouldLogExcludesUserErrorOnly(t *testing.T) {
	if ShouldLog(New(UserError, "no selection")) {
		t.Fatal("UserError should never be logged")
	}
	for _, k := range []Kind{EnvironmentError, ProtocolError, InvariantError, Cancelled} {
		if !ShouldLog(New(k, "x")) {
			t.Fatalf("%s should be logged", k)
		}
	}
}

func TestErrorStringIncludesCauseWhenPresent(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(EnvironmentError, "save failed", cause)
	got := err.Error()
	if got != "EnvironmentError: save failed: disk full" {
		t.Fatalf("Error() = %q", got)
	}
}
