package paginate

import (
	"strings"
	"unicode/utf8"
)

// DefaultLimit is the number of runes shown per chunk when nothing else is configured.
const DefaultLimit = 80

// EllipsisVariant is the two-dot ideographic ellipsis some scripts use instead of "……".
const EllipsisVariant = "⋯⋯"

// DefaultBreakSymbols are the sentence boundaries a chunk prefers to end on.
var DefaultBreakSymbols = []string{"。", "！", "？", "\n", "……", "」"}

// Options controls how a line is split into chunks.
type Options struct {
	Limit        int      `json:"limit" yaml:"limit"`                 // max runes per chunk; <= 0 disables pagination
	BreakSymbols []string `json:"break_symbols" yaml:"break_symbols"` // preferred cut points
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	symbols := make([]string, len(DefaultBreakSymbols))
	copy(symbols, DefaultBreakSymbols)
	return Options{
		Limit:        DefaultLimit,
		BreakSymbols: symbols,
	}
}

// WithEllipsisVariant returns a copy of the options that also breaks on "⋯⋯".
func (o Options) WithEllipsisVariant() Options {
	symbols := make([]string, 0, len(o.BreakSymbols)+1)
	for _, s := range o.BreakSymbols {
		if s == EllipsisVariant {
			return o
		}
		symbols = append(symbols, s)
	}
	o.BreakSymbols = append(symbols, EllipsisVariant)
	return o
}

// NeedsPagination reports whether text is longer than the configured limit.
func (o Options) NeedsPagination(text string) bool {
	return o.Limit > 0 && RuneLen(text) > o.Limit
}

// Paginate splits text into chunks of at most opts.Limit runes. Each chunk ends
// on the right-most break symbol inside its window when one exists, otherwise
// the window is cut hard at the limit. Concatenating the chunks yields text.
func Paginate(text string, opts Options) []string {
	if !opts.NeedsPagination(text) {
		return []string{text}
	}

	remaining := []rune(text)
	var chunks []string
	for len(remaining) > opts.Limit {
		cut := cutPoint(remaining[:opts.Limit], opts.BreakSymbols)
		chunks = append(chunks, string(remaining[:cut]))
		remaining = remaining[cut:]
	}
	if len(remaining) > 0 {
		chunks = append(chunks, string(remaining))
	}
	return chunks
}

// cutPoint returns the rune offset just past the right-most break symbol in
// window, or len(window) when no symbol occurs.
func cutPoint(window []rune, symbols []string) int {
	w := string(window)
	best := -1
	for _, sym := range symbols {
		if sym == "" {
			continue
		}
		idx := strings.LastIndex(w, sym)
		if idx < 0 {
			continue
		}
		end := RuneLen(w[:idx]) + RuneLen(sym)
		if end > best {
			best = end
		}
	}
	if best <= 0 {
		return len(window)
	}
	return best
}

// RuneLen is the length measure used for limits.
func RuneLen(text string) int {
	return utf8.RuneCountInString(text)
}
