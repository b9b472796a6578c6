package input

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

type fakeHandler struct {
	result Result
	record *[]string
	name   string
}

func (h fakeHandler) Dispatch(ev *tcell.EventKey, ctx *Context) Result {
	*h.record = append(*h.record, h.name)
	return h.result
}

func TestDispatchPrefersHighestVisibleModal(t *testing.T) {
	var calls []string
	chain := Chain{
		Settings: fakeHandler{result: Consumed, record: &calls, name: "settings"},
		Menu:     fakeHandler{result: Consumed, record: &calls, name: "menu"},
		Normal:   fakeHandler{result: Consumed, record: &calls, name: "normal"},
	}
	vis := Visibility{SettingsVisible: true, MenuActive: true}

	ev := tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)
	res, _ := Dispatch(ev, vis, chain)

	if res != Consumed {
		t.Fatalf("result = %v, want Consumed", res)
	}
	if len(calls) != 1 || calls[0] != "settings" {
		t.Fatalf("expected only settings to be invoked, got %v", calls)
	}
}

func TestDispatchFallsThroughToNormalWhenNoModalVisible(t *testing.T) {
	var calls []string
	chain := Chain{
		Settings: fakeHandler{result: Consumed, record: &calls, name: "settings"},
		Normal:   fakeHandler{result: Consumed, record: &calls, name: "normal"},
	}
	ev := tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)
	res, _ := Dispatch(ev, Visibility{}, chain)

	if res != Consumed {
		t.Fatalf("result = %v, want Consumed", res)
	}
	if len(calls) != 1 || calls[0] != "normal" {
		t.Fatalf("expected only normal to be invoked, got %v", calls)
	}
}

func TestDispatchSkipsInactiveLevels(t *testing.T) {
	var calls []string
	chain := Chain{
		Menu:   fakeHandler{result: Consumed, record: &calls, name: "menu"},
		Prompt: fakeHandler{result: Consumed, record: &calls, name: "prompt"},
		Normal: fakeHandler{result: Consumed, record: &calls, name: "normal"},
	}
	vis := Visibility{PromptOpen: true}
	ev := tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)
	Dispatch(ev, vis, chain)

	if len(calls) != 1 || calls[0] != "prompt" {
		t.Fatalf("expected only prompt (menu inactive) to be invoked, got %v", calls)
	}
}

func TestIsAltCharDetectsAltRune(t *testing.T) {
	ev := tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModAlt)
	r, ok := IsAltChar(ev)
	if !ok || r != 's' {
		t.Fatalf("IsAltChar = %q, %v, want 's', true", r, ok)
	}

	plain := tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone)
	if _, ok := IsAltChar(plain); ok {
		t.Fatal("expected plain rune to not match IsAltChar")
	}
}

func TestDispatchPromptResolvesAltBeforePromptHandler(t *testing.T) {
	var calls []string
	prompt := fakeHandler{result: Consumed, record: &calls, name: "prompt"}
	ev := tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModAlt)

	var ctx Context
	res := DispatchPrompt(ev, &ctx, func(r rune) (string, bool) {
		if r == 's' {
			return "save_file", true
		}
		return "", false
	}, prompt)

	if res != Consumed {
		t.Fatalf("result = %v, want Consumed", res)
	}
	if len(calls) != 0 {
		t.Fatal("expected the prompt handler to be bypassed when Alt resolves")
	}
	if len(ctx.Actions) != 1 || ctx.Actions[0].Name != "save_file" {
		t.Fatalf("expected a deferred ExecuteNamed(save_file), got %+v", ctx.Actions)
	}
}

func TestDispatchPromptFallsThroughWhenAltUnmatched(t *testing.T) {
	var calls []string
	prompt := fakeHandler{result: Consumed, record: &calls, name: "prompt"}
	ev := tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModAlt)

	var ctx Context
	DispatchPrompt(ev, &ctx, func(r rune) (string, bool) { return "", false }, prompt)

	if len(calls) != 1 {
		t.Fatal("expected prompt handler to run when Alt key does not resolve")
	}
}
