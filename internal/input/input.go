// Package input implements the modal priority-chain key dispatcher:
// component H of the editing engine (spec.md §3, §4.H), grounded on the
// teacher's tcell-based Desktop.handleEvent chain (texel/desktop.go) and
// regrounded on the original editor's two-phase InputContext/
// DeferredAction design (original_source app/input_dispatch.rs).
package input

import (
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/fresh-editor/fresh/config"
)

// Result is what a modal handler reports after seeing one key event.
type Result int

const (
	NotConsumed Result = iota
	Consumed
	Deferred
)

// ActionKind enumerates every observable editor effect a modal handler
// can request without touching editor state directly (spec.md §4.H).
type ActionKind int

const (
	ActionCloseSettings ActionKind = iota
	ActionSaveAndCloseSettings
	ActionPasteToSettings
	ActionOpenConfigFile

	ActionCloseMenu
	ActionExecuteMenuAction

	ActionClosePrompt
	ActionConfirmPrompt
	ActionUpdatePromptSuggestions
	ActionPromptHistoryPrev
	ActionPromptHistoryNext
	ActionPreviewTheme
	ActionInsertCharAndUpdate

	ActionClosePopup
	ActionConfirmPopup
	ActionCopyToClipboard

	ActionFileBrowserSelectPrev
	ActionFileBrowserSelectNext
	ActionFileBrowserPageUp
	ActionFileBrowserPageDown
	ActionFileBrowserConfirm

	ActionInteractiveReplaceKey
	ActionCancelInteractiveReplace

	ActionToggleKeyboardCapture
	ActionSendTerminalKey
	ActionExitTerminalMode
	ActionEnterTerminalMode

	ActionExecuteNamed
	ActionFirePluginHook
)

// DeferredAction is a single observable editor effect collected during
// dispatch and applied afterward by a privileged executor. Only the
// fields relevant to Kind are populated.
type DeferredAction struct {
	Kind ActionKind

	Name       string // ActionExecuteNamed, ActionExecuteMenuAction
	Char       rune   // ActionInsertCharAndUpdate, ActionInteractiveReplaceKey
	Text       string // ActionCopyToClipboard, ActionPreviewTheme (theme name)
	Layer      string // ActionOpenConfigFile
	Save       bool   // ActionCloseSettings
	Explicit   bool   // ActionExitTerminalMode
	Key        *tcell.EventKey
	SelectedIx int // ActionFirePluginHook
}

// Context accumulates the deferred actions and status message produced
// by one handler invocation. The dispatcher never mutates editor state
// directly; it builds a Context and hands it to a privileged executor.
type Context struct {
	Actions []DeferredAction
	Status  string
}

func (c *Context) Defer(a DeferredAction) { c.Actions = append(c.Actions, a) }
func (c *Context) SetStatus(s string)     { c.Status = s }

// Handler is implemented by every modal component in the priority
// chain: settings, calibration, menu, prompt (and its file-browser /
// query-replace sub-handlers), popup, and terminal mode.
type Handler interface {
	Dispatch(ev *tcell.EventKey, ctx *Context) Result
}

// Visibility reports which modals are currently visible, queried fresh
// before every key event so a modal that appeared or disappeared
// between two events breaks the chain at the right level (spec.md
// §4.H cancellation rule).
type Visibility struct {
	SettingsVisible    bool
	CalibrationActive  bool
	MenuActive         bool
	PromptOpen         bool
	PopupVisible       bool
	TerminalModeActive bool
}

// Chain is the ordered, priority-evaluated set of modal handlers plus
// the normal-editing fallback. A nil entry in any *Handler field means
// that level is inactive for the current key event; the chain moves on
// to the next eligible level per Visibility.
type Chain struct {
	Settings    Handler
	Calibration Handler
	Menu        Handler
	Prompt      Handler
	Popup       Handler
	Terminal    Handler
	Normal      Handler
}

// Dispatch runs ev through the priority chain: settings, calibration,
// menu, prompt, popup, terminal, normal editing — in that order,
// stopping at the first level that is visible/active per vis (spec.md
// §4.H enumerates this exact order). It returns the level's Result and
// the Context of deferred actions it produced, ready to be drained by
// a privileged executor.
func Dispatch(ev *tcell.EventKey, vis Visibility, c Chain) (Result, Context) {
	var ctx Context

	if vis.SettingsVisible && c.Settings != nil {
		return c.Settings.Dispatch(ev, &ctx), ctx
	}
	if vis.CalibrationActive && c.Calibration != nil {
		return c.Calibration.Dispatch(ev, &ctx), ctx
	}
	if vis.MenuActive && c.Menu != nil {
		return c.Menu.Dispatch(ev, &ctx), ctx
	}
	if vis.PromptOpen && c.Prompt != nil {
		return c.Prompt.Dispatch(ev, &ctx), ctx
	}
	if vis.PopupVisible && c.Popup != nil {
		return c.Popup.Dispatch(ev, &ctx), ctx
	}
	if vis.TerminalModeActive && c.Terminal != nil {
		return c.Terminal.Dispatch(ev, &ctx), ctx
	}
	if c.Normal != nil {
		return c.Normal.Dispatch(ev, &ctx), ctx
	}
	return NotConsumed, ctx
}

// FindKeybindingForAction returns the chord text (e.g. "Ctrl+Space") of
// the first binding in bindings whose Action matches name, so status
// messages can name the actual configured key instead of a hardcoded
// one (original_source app/terminal.rs::open_terminal).
func FindKeybindingForAction(bindings []config.Keybinding, name string) (string, bool) {
	for _, kb := range bindings {
		if kb.Action != name {
			continue
		}
		parts := append([]string(nil), kb.Modifiers...)
		parts = append(parts, kb.Key)
		return strings.Join(parts, "+"), true
	}
	return "", false
}

// IsAltChar reports whether ev is Alt+<printable char>, the one case
// spec.md §4.H calls out as resolved *before* the prompt handler gets
// a chance to consume the key as ordinary text input.
func IsAltChar(ev *tcell.EventKey) (rune, bool) {
	if ev.Modifiers()&tcell.ModAlt == 0 {
		return 0, false
	}
	if ev.Key() != tcell.KeyRune {
		return 0, false
	}
	return ev.Rune(), true
}

// DispatchPrompt implements the prompt level's special case: an
// Alt+key combination is resolved against the supplied keybinding
// resolver before falling through to the prompt's own handler, so
// global Alt shortcuts keep working while a prompt is open
// (original_source app/input_dispatch.rs dispatch_modal_input).
func DispatchPrompt(ev *tcell.EventKey, ctx *Context, resolveAlt func(r rune) (string, bool), prompt Handler) Result {
	if r, ok := IsAltChar(ev); ok && resolveAlt != nil {
		if name, matched := resolveAlt(r); matched {
			ctx.Defer(DeferredAction{Kind: ActionExecuteNamed, Name: name})
			return Consumed
		}
	}
	if prompt == nil {
		return NotConsumed
	}
	return prompt.Dispatch(ev, ctx)
}
