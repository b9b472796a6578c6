// Package highlight implements viewport-window syntax coloring with
// edit-driven invalidation: component L of the editing engine (spec.md
// §3, §4.L). Grounded on the teacher's Chroma-based colorizer
// (apps/texelterm/txfmt/chroma.go): multi-line tokenize, coalesce,
// style-entry-to-color resolution, narrowed here from per-cell terminal
// attributes to byte-range spans tagged with a closed category set.
package highlight

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/go-enry/go-enry/v2"

	"github.com/fresh-editor/fresh/internal/decoration"
	"github.com/fresh-editor/fresh/internal/textbuf"
)

// Category is one of the closed syntax-highlight categories spec.md
// §4.L names. Theme lookups and LSP semantic-token mapping are both
// keyed on this set; nothing outside it is representable.
type Category int

const (
	CategoryKeyword Category = iota
	CategoryFunction
	CategoryVariable
	CategoryType
	CategoryString
	CategoryNumber
	CategoryComment
	CategoryOperator
	CategoryProperty
	CategoryConstant
	CategoryAttribute
)

// Span is a byte range tagged with a highlight category.
type Span struct {
	Range    textbuf.Range
	Category Category
}

// Theme maps categories to display faces. Grammar-neutral: the same
// Theme applies across every language the highlighter tokenizes.
type Theme struct {
	Name   string
	Colors map[Category]decoration.Face
}

func (t Theme) faceFor(c Category) decoration.Face {
	return t.Colors[c]
}

// chromaCategory maps a Chroma token type to our closed category set.
// Token types Chroma doesn't distinguish from our set (e.g. punctuation,
// literal-other) fall back to their nearest neighbor or are dropped.
func chromaCategory(t chroma.TokenType) (Category, bool) {
	switch {
	case t.InCategory(chroma.Keyword):
		return CategoryKeyword, true
	case t == chroma.NameFunction, t == chroma.NameFunctionMagic:
		return CategoryFunction, true
	case t == chroma.NameClass, t == chroma.NameBuiltinPseudo, t.InCategory(chroma.NameBuiltin), t.InCategory(chroma.KeywordType):
		return CategoryType, true
	case t.InCategory(chroma.LiteralString):
		return CategoryString, true
	case t.InCategory(chroma.LiteralNumber):
		return CategoryNumber, true
	case t.InCategory(chroma.Comment):
		return CategoryComment, true
	case t.InCategory(chroma.Operator):
		return CategoryOperator, true
	case t == chroma.NameAttribute:
		return CategoryAttribute, true
	case t == chroma.NameProperty:
		return CategoryProperty, true
	case t == chroma.NameConstant, t == chroma.KeywordConstant:
		return CategoryConstant, true
	case t.InCategory(chroma.Name):
		return CategoryVariable, true
	}
	return 0, false
}

// cacheEntry is the per-buffer viewport cache spec.md §4.L describes:
// the byte range last reparsed, the spans covering it, and the buffer
// length at the time of reparse (a length change invalidates the cache
// even without an explicit invalidate call).
type cacheEntry struct {
	covered   textbuf.Range
	spans     []Span
	bufferLen int
}

// Highlighter is per-buffer: it owns a language grammar (resolved once,
// by name or content-sniffed) and the viewport cache.
type Highlighter struct {
	lexerName string
	lexer     chroma.Lexer

	maxParseSize int // bound on reparse window size, in bytes

	cache cacheEntry
	valid bool
}

const defaultMaxParseSize = 1 << 20 // 1 MiB

// New returns a Highlighter for a buffer. lexerName may be empty, in
// which case the lexer is resolved from content or file path on first
// use via DetectLanguage.
func New(lexerName string) *Highlighter {
	return &Highlighter{lexerName: lexerName, maxParseSize: defaultMaxParseSize}
}

// SetMaxParseSize overrides the reparse-window cap (spec.md §4.L: "cap
// at a configurable max parse size to bound worst-case CPU").
func (h *Highlighter) SetMaxParseSize(n int) { h.maxParseSize = n }

// DetectLanguage resolves a lexer name from a file path and a content
// sample, using go-enry first (it weighs filename, extension, and
// shebang together) and falling back to Chroma's own content analysis.
func DetectLanguage(path string, sample []byte) string {
	if lang, ok := enry.GetLanguageByExtension(path); ok {
		return lang
	}
	if lang := enry.GetLanguage(path, sample); lang != "" {
		return lang
	}
	if l := lexers.Analyse(string(sample)); l != nil {
		if cfg := l.Config(); cfg != nil {
			return cfg.Name
		}
	}
	return ""
}

func (h *Highlighter) resolveLexer(sample []byte) chroma.Lexer {
	if h.lexer != nil {
		return h.lexer
	}
	var l chroma.Lexer
	if h.lexerName != "" {
		l = lexers.Get(h.lexerName)
	}
	if l == nil {
		l = lexers.Analyse(string(sample))
	}
	if l == nil {
		l = lexers.Fallback
	}
	h.lexer = chroma.Coalesce(l)
	return h.lexer
}

// InvalidateRange clears the cache iff it intersects editRange (spec.md
// §4.L). A no-op when the cache doesn't cover the edited bytes.
func (h *Highlighter) InvalidateRange(editRange textbuf.Range) {
	if !h.valid {
		return
	}
	if editRange.Start < h.cache.covered.End && h.cache.covered.Start < editRange.End {
		h.valid = false
	}
}

// InvalidateAll clears the cache unconditionally.
func (h *Highlighter) InvalidateAll() {
	h.valid = false
}

// HighlightViewport returns the highlight spans covering [start, end),
// tagged by category; theme is not applied here (FaceFor resolves a
// category to a face). If the cache already covers the requested range
// and the buffer length hasn't changed since, spans are filtered from
// the cache directly; otherwise a window [start-context, end+context]
// (clamped to the buffer and to maxParseSize) is retokenized and the
// cache refreshed (spec.md §4.L).
func (h *Highlighter) HighlightViewport(buf *textbuf.Buffer, start, end, contextBytes int, theme Theme) []Span {
	want := textbuf.Range{Start: start, End: end}

	if h.valid && h.cache.bufferLen == buf.Len() && covers(h.cache.covered, want) {
		return filterSpans(h.cache.spans, want)
	}

	winStart := start - contextBytes
	if winStart < 0 {
		winStart = 0
	}
	winEnd := end + contextBytes
	if winEnd > buf.Len() {
		winEnd = buf.Len()
	}
	if winEnd-winStart > h.maxParseSize {
		winEnd = winStart + h.maxParseSize
		if winEnd > buf.Len() {
			winEnd = buf.Len()
		}
	}

	window := textbuf.Range{Start: winStart, End: winEnd}
	text := buf.SliceBytes(window)
	spans := h.tokenize(text, winStart)

	h.cache = cacheEntry{covered: window, spans: spans, bufferLen: buf.Len()}
	h.valid = true

	_ = theme // category->color resolution happens at render time via theme.faceFor
	return filterSpans(spans, want)
}

// FaceFor resolves a span's category to a display face under theme,
// exposed separately from HighlightViewport so callers can re-theme a
// cached span set without forcing a reparse.
func FaceFor(theme Theme, c Category) decoration.Face {
	return theme.faceFor(c)
}

func covers(have, want textbuf.Range) bool {
	return have.Start <= want.Start && want.End <= have.End
}

func filterSpans(spans []Span, want textbuf.Range) []Span {
	var out []Span
	for _, s := range spans {
		if s.Range.Start < want.End && want.Start < s.Range.End {
			out = append(out, s)
		}
	}
	return out
}

// tokenize runs the resolved lexer over text and converts tokens into
// byte-offset spans, shifted by base (the window's start offset in the
// buffer), following the teacher's chromaColorizeLines walk.
func (h *Highlighter) tokenize(text []byte, base int) []Span {
	lexer := h.resolveLexer(text)
	tokens, err := chroma.Tokenise(lexer, nil, string(text))
	if err != nil {
		return nil
	}

	var spans []Span
	bytePos := base
	for _, tok := range tokens {
		if tok.Type == chroma.EOFType {
			break
		}
		n := len(tok.Value)
		if cat, ok := chromaCategory(tok.Type); ok {
			spans = append(spans, Span{
				Range:    textbuf.Range{Start: bytePos, End: bytePos + n},
				Category: cat,
			})
		}
		bytePos += n
	}
	return spans
}

// StyleNames exposes every bundled Chroma style name, for theme-picker
// UIs (preview_theme in component H flows through here).
func StyleNames() []string {
	return styles.Names()
}

const lspNamespace = "lsp-semantic-tokens"

// SemanticToken is one LSP semantic-token result, already resolved to a
// byte range and category by the caller (the LSP client owns the
// UTF-16-to-byte-offset translation; this package only applies them).
type SemanticToken struct {
	Range    textbuf.Range
	Category Category
}

// ApplySemanticTokens replaces the lspNamespace's overlays within
// affected atomically: spec.md §4.L requires that a new token set
// replace the previous one in the affected byte range without a
// flicker window where stale and fresh overlays coexist. Overlays track
// edits through the marker-anchored Range the decoration store already
// uses, so semantic tokens survive edits outside affected.
func ApplySemanticTokens(store *decoration.Store, affected textbuf.Range, tokens []SemanticToken, theme Theme) {
	for _, o := range store.OverlaysInRange(affected) {
		if o.Namespace == lspNamespace {
			store.RemoveOverlay(o.ID)
		}
	}
	for _, tok := range tokens {
		face := theme.faceFor(tok.Category)
		store.AddOverlay(lspNamespace, tok.Range, face, 0, "")
	}
}
