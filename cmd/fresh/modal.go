// Modal input handlers for the fresh binary's priority chain
// (internal/input.Chain): the command palette (Prompt), the buffer
// switcher (Menu), and PTY key forwarding (Terminal). Each handler only
// ever defers input.DeferredAction values; actionExecutor.apply is the
// sole place that mutates modalState or the dispatcher, matching the
// two-phase dispatch/execute split spec.md §4.H requires.
package main

import (
	"github.com/gdamore/tcell/v2"

	"github.com/fresh-editor/fresh/internal/command"
	"github.com/fresh-editor/fresh/internal/input"
	"github.com/fresh-editor/fresh/internal/splittree"
	"github.com/fresh-editor/fresh/internal/termpty"
)

// promptState is the command palette's live state: the typed query,
// its current matches, and which one is selected.
type promptState struct {
	open        bool
	query       string
	suggestions []command.Suggestion
	selected    int
}

// menuState is the buffer-switcher's live state: the open buffer ids
// and which one is selected.
type menuState struct {
	active   bool
	items    []splittree.BufferID
	selected int
}

// modalState is shared, mutable UI state the three modal handlers read
// and actionExecutor writes; it lives for the process's whole runtime,
// owned by runEventLoop.
type modalState struct {
	prompt promptState
	menu   menuState
}

// promptHandler drives the command palette: typed characters narrow the
// suggestion list, arrows move the selection, Enter confirms, Escape
// cancels.
type promptHandler struct {
	modal *modalState
}

func (h *promptHandler) Dispatch(ev *tcell.EventKey, ctx *input.Context) input.Result {
	switch ev.Key() {
	case tcell.KeyEsc:
		ctx.Defer(input.DeferredAction{Kind: input.ActionClosePrompt})
		return input.Deferred
	case tcell.KeyEnter:
		ctx.Defer(input.DeferredAction{Kind: input.ActionConfirmPrompt})
		return input.Deferred
	case tcell.KeyUp:
		ctx.Defer(input.DeferredAction{Kind: input.ActionPromptHistoryPrev})
		return input.Deferred
	case tcell.KeyDown:
		ctx.Defer(input.DeferredAction{Kind: input.ActionPromptHistoryNext})
		return input.Deferred
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		ctx.Defer(input.DeferredAction{Kind: input.ActionInsertCharAndUpdate, Char: 0})
		return input.Deferred
	case tcell.KeyRune:
		ctx.Defer(input.DeferredAction{Kind: input.ActionInsertCharAndUpdate, Char: ev.Rune()})
		return input.Deferred
	}
	return input.Consumed
}

// menuHandler drives the buffer switcher: a flat list of every open
// buffer id, navigated with the same up/down/confirm/cancel shape as
// the prompt.
type menuHandler struct {
	modal *modalState
}

func (h *menuHandler) Dispatch(ev *tcell.EventKey, ctx *input.Context) input.Result {
	switch ev.Key() {
	case tcell.KeyEsc:
		ctx.Defer(input.DeferredAction{Kind: input.ActionCloseMenu})
		return input.Deferred
	case tcell.KeyEnter:
		ctx.Defer(input.DeferredAction{Kind: input.ActionExecuteMenuAction, SelectedIx: h.modal.menu.selected})
		return input.Deferred
	case tcell.KeyUp:
		ctx.Defer(input.DeferredAction{Kind: input.ActionFileBrowserSelectPrev})
		return input.Deferred
	case tcell.KeyDown:
		ctx.Defer(input.DeferredAction{Kind: input.ActionFileBrowserSelectNext})
		return input.Deferred
	}
	return input.Consumed
}

// terminalInputHandler forwards keys to the active buffer's live PTY,
// except for the well-known exit chord which defers back to normal
// editing (spec.md §4.K).
type terminalInputHandler struct {
	tree      *splittree.Tree
	terminals *terminalManager
}

func (h *terminalInputHandler) Dispatch(ev *tcell.EventKey, ctx *input.Context) input.Result {
	if termpty.IsExitChord(ev) {
		ctx.Defer(input.DeferredAction{Kind: input.ActionExitTerminalMode})
		return input.Deferred
	}

	bufID, ok := h.tree.ActiveBuffer(h.tree.ActiveID())
	if !ok {
		return input.NotConsumed
	}
	term, ok := h.terminals.Get(bufID)
	if !ok {
		return input.NotConsumed
	}
	if data := termpty.EncodeKey(ev, false); data != nil {
		_ = term.Write(data)
	}
	return input.Consumed
}
