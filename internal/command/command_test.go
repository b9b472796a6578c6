package command

import (
	"testing"

	"github.com/fresh-editor/fresh/internal/decoration"
	"github.com/fresh-editor/fresh/internal/splittree"
	"github.com/fresh-editor/fresh/internal/state"
)

func newTestDispatcher() (*Dispatcher, splittree.BufferID) {
	bufID := splittree.BufferID("scratch")
	s := state.New(80, 24)
	decor := decoration.NewStore(s.Buffer.Markers())

	return &Dispatcher{
		Registry: NewRegistry(nil),
		Buffers:  map[splittree.BufferID]*state.EditorState{bufID: s},
		Decor:    func(id splittree.BufferID) *decoration.Store { return decor },
	}, bufID
}

func TestExecuteInsertTextMutatesBuffer(t *testing.T) {
	d, bufID := newTestDispatcher()
	res := d.Execute(Command{Kind: KindInsertText, BufferID: bufID, Pos: 0, Text: "hi"})
	if !res.OK {
		t.Fatalf("expected success, got %+v", res)
	}
	if string(d.Buffers[bufID].Buffer.Bytes()) != "hi" {
		t.Fatalf("buffer = %q, want hi", d.Buffers[bufID].Buffer.Bytes())
	}
}

func TestExecuteUnknownBufferFails(t *testing.T) {
	d, _ := newTestDispatcher()
	res := d.Execute(Command{Kind: KindInsertText, BufferID: "missing", Text: "x"})
	if res.OK {
		t.Fatal("expected failure for unknown buffer")
	}
}

func TestExecuteAsyncWithoutHandlerFails(t *testing.T) {
	d, bufID := newTestDispatcher()
	res := d.Execute(Command{Kind: KindDelay, BufferID: bufID, CallbackID: "cb1"})
	if res.OK {
		t.Fatal("expected async command without a handler to fail")
	}
}

func TestExecuteAsyncDelegatesToHandler(t *testing.T) {
	d, bufID := newTestDispatcher()
	var seen Command
	d.AsyncHandler = func(c Command) Result {
		seen = c
		return Result{OK: true, CallbackID: c.CallbackID}
	}
	res := d.Execute(Command{Kind: KindSpawnProcess, BufferID: bufID, CallbackID: "cb2"})
	if !res.OK || res.CallbackID != "cb2" {
		t.Fatalf("unexpected result %+v", res)
	}
	if seen.Kind != KindSpawnProcess {
		t.Fatalf("handler did not receive the command, got %+v", seen)
	}
}

func TestExecuteClearNamespaceIsIdempotent(t *testing.T) {
	d, bufID := newTestDispatcher()
	res1 := d.Execute(Command{Kind: KindClearNamespace, BufferID: bufID, Namespace: "diagnostics"})
	res2 := d.Execute(Command{Kind: KindClearNamespace, BufferID: bufID, Namespace: "diagnostics"})
	if !res1.OK || !res2.OK {
		t.Fatalf("expected ClearNamespace on an empty namespace to succeed both times, got %+v %+v", res1, res2)
	}
}

func TestExecuteBatchStopsOnFirstFailure(t *testing.T) {
	d, bufID := newTestDispatcher()
	batch := []Command{
		{Kind: KindInsertText, BufferID: bufID, Pos: 0, Text: "a"},
		{Kind: KindInsertText, BufferID: "missing", Text: "b"},
		{Kind: KindInsertText, BufferID: bufID, Pos: 1, Text: "c"},
	}
	res := d.Execute(Command{Kind: KindExecuteActionsBatch, Batch: batch})
	if res.OK {
		t.Fatal("expected batch to fail when a middle command fails")
	}
	if string(d.Buffers[bufID].Buffer.Bytes()) != "a" {
		t.Fatalf("expected only the first command to apply, got %q", d.Buffers[bufID].Buffer.Bytes())
	}
}

func TestRegistryFilterSubsequenceMatch(t *testing.T) {
	r := NewRegistry([]Descriptor{
		{Name: "save_file"},
		{Name: "save_file_as"},
		{Name: "open_file"},
	})
	got := r.Filter("svf", "")
	if len(got) != 2 {
		t.Fatalf("expected 2 subsequence matches for 'svf', got %d: %+v", len(got), got)
	}
}

func TestRegistryRecordUsageAffectsOrdering(t *testing.T) {
	r := NewRegistry([]Descriptor{{Name: "alpha"}, {Name: "beta"}})
	r.RecordUsage("beta")

	got := r.Filter("", "")
	if got[0].Descriptor.Name != "beta" {
		t.Fatalf("expected recently used 'beta' first, got %+v", got)
	}
}

func TestRegistryContextAvailability(t *testing.T) {
	r := NewRegistry([]Descriptor{{Name: "terminal_only", Contexts: []string{"terminal"}}})
	got := r.Filter("", "normal")
	if len(got) != 1 || got[0].Available {
		t.Fatalf("expected terminal_only to be unavailable in normal context, got %+v", got)
	}
}
