package main

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/fresh-editor/fresh/config"
)

func TestChordMatchesPlainRune(t *testing.T) {
	kb := config.Keybinding{Key: "s", Modifiers: []string{"Ctrl"}, Action: "save"}
	ev := tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModCtrl)
	if !chordMatches(kb, ev) {
		t.Fatal("expected Ctrl+s to match the save binding")
	}
}

func TestChordMatchesRejectsWrongModifiers(t *testing.T) {
	kb := config.Keybinding{Key: "s", Modifiers: []string{"Ctrl"}, Action: "save"}
	ev := tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone)
	if chordMatches(kb, ev) {
		t.Fatal("expected plain 's' (no modifiers) not to match a Ctrl+s binding")
	}
}

func TestChordMatchesNamedKey(t *testing.T) {
	kb := config.Keybinding{Key: "Enter", Action: "confirm"}
	ev := tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)
	if !chordMatches(kb, ev) {
		t.Fatal("expected Enter to match a binding on the named key \"Enter\"")
	}
}

func TestMatchKeybindingReturnsFirstMatch(t *testing.T) {
	bindings := []config.Keybinding{
		{Key: "q", Modifiers: []string{"Ctrl"}, Action: "quit"},
		{Key: "s", Modifiers: []string{"Ctrl"}, Action: "save"},
	}
	ev := tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModCtrl)
	action, ok := matchKeybinding(bindings, ev)
	if !ok || action != "quit" {
		t.Fatalf("matchKeybinding = (%q, %v), want (\"quit\", true)", action, ok)
	}
}

func TestMatchKeybindingNoMatch(t *testing.T) {
	bindings := []config.Keybinding{
		{Key: "q", Modifiers: []string{"Ctrl"}, Action: "quit"},
	}
	ev := tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)
	if _, ok := matchKeybinding(bindings, ev); ok {
		t.Fatal("expected no binding to match an unbound rune")
	}
}

func TestKeyNameKnownKeys(t *testing.T) {
	cases := map[tcell.Key]string{
		tcell.KeyEnter:     "Enter",
		tcell.KeyEscape:    "Escape",
		tcell.KeyBackspace2: "Backspace",
		tcell.KeyTab:       "Tab",
	}
	for k, want := range cases {
		if got := keyName(k); got != want {
			t.Errorf("keyName(%v) = %q, want %q", k, got, want)
		}
	}
}
