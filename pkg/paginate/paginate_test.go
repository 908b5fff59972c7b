package paginate

import (
	"reflect"
	"strings"
	"testing"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		opts     Options
		expected []string
	}{
		{
			name:     "short text is returned whole",
			text:     "Hi",
			opts:     DefaultOptions(),
			expected: []string{"Hi"},
		},
		{
			name:     "empty text yields a single empty chunk",
			text:     "",
			opts:     DefaultOptions(),
			expected: []string{""},
		},
		{
			name:     "exactly at the limit is not split",
			text:     "abcde",
			opts:     Options{Limit: 5, BreakSymbols: DefaultBreakSymbols},
			expected: []string{"abcde"},
		},
		{
			name:     "cuts after the full stop",
			text:     "あいう。えおかきく",
			opts:     Options{Limit: 5, BreakSymbols: DefaultBreakSymbols},
			expected: []string{"あいう。", "えおかきく"},
		},
		{
			name:     "hard cut without break symbols",
			text:     "abcdefghij",
			opts:     Options{Limit: 4, BreakSymbols: DefaultBreakSymbols},
			expected: []string{"abcd", "efgh", "ij"},
		},
		{
			name:     "right-most symbol wins across the whole set",
			text:     "ab！cd。ef？ghijk",
			opts:     Options{Limit: 10, BreakSymbols: DefaultBreakSymbols},
			expected: []string{"ab！cd。ef？", "ghijk"},
		},
		{
			name:     "multi-rune ellipsis stays in one chunk",
			text:     "あ……いうえおか",
			opts:     Options{Limit: 6, BreakSymbols: DefaultBreakSymbols},
			expected: []string{"あ……", "いうえおか"},
		},
		{
			name:     "newline then hard cut",
			text:     "line one\nline two is long",
			opts:     Options{Limit: 12, BreakSymbols: DefaultBreakSymbols},
			expected: []string{"line one\n", "line two is ", "long"},
		},
		{
			name:     "symbol at the window edge",
			text:     "ab。cd",
			opts:     Options{Limit: 3, BreakSymbols: DefaultBreakSymbols},
			expected: []string{"ab。", "cd"},
		},
		{
			name:     "closing quote is a break",
			text:     "「はい」と言った。",
			opts:     Options{Limit: 6, BreakSymbols: DefaultBreakSymbols},
			expected: []string{"「はい」", "と言った。"},
		},
		{
			name:     "ideographic ellipsis ignored by default",
			text:     "あ⋯⋯いうえおか",
			opts:     Options{Limit: 6, BreakSymbols: DefaultBreakSymbols},
			expected: []string{"あ⋯⋯いうえ", "おか"},
		},
		{
			name:     "ideographic ellipsis honoured when registered",
			text:     "あ⋯⋯いうえおか",
			opts:     Options{Limit: 6, BreakSymbols: DefaultBreakSymbols}.WithEllipsisVariant(),
			expected: []string{"あ⋯⋯", "いうえおか"},
		},
		{
			name:     "non-positive limit disables pagination",
			text:     "abcdefghij",
			opts:     Options{Limit: 0},
			expected: []string{"abcdefghij"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(tt.text, tt.opts)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Paginate(%q) = %q, expected %q", tt.text, got, tt.expected)
			}
		})
	}
}

func TestPaginate_Properties(t *testing.T) {
	texts := []string{
		"a",
		"Hello there. How are you today? I am fine!",
		"二羽一葉は窓の外を見た。雨はまだ止まない……「行こう」と彼女は言った！本当に？",
		strings.Repeat("長い文章", 40),
		"mixed 日本語 and English。with breaks\nand more ⋯⋯ text」here",
		strings.Repeat("。", 17),
	}

	for _, text := range texts {
		for limit := 1; limit <= 25; limit++ {
			for _, opts := range []Options{
				{Limit: limit, BreakSymbols: DefaultBreakSymbols},
				Options{Limit: limit, BreakSymbols: DefaultBreakSymbols}.WithEllipsisVariant(),
			} {
				chunks := Paginate(text, opts)

				if joined := strings.Join(chunks, ""); joined != text {
					t.Fatalf("round trip failed for limit %d: %q != %q", limit, joined, text)
				}
				for i, c := range chunks {
					if c == "" {
						t.Fatalf("empty chunk %d for limit %d in %q", i, limit, text)
					}
					if RuneLen(c) > limit {
						t.Fatalf("chunk %d has %d runes, limit %d", i, RuneLen(c), limit)
					}
				}
				if again := Paginate(text, opts); !reflect.DeepEqual(again, chunks) {
					t.Fatalf("paginate is not deterministic for limit %d", limit)
				}
			}
		}
	}
}

func TestWithEllipsisVariant_Idempotent(t *testing.T) {
	opts := DefaultOptions().WithEllipsisVariant().WithEllipsisVariant()
	count := 0
	for _, s := range opts.BreakSymbols {
		if s == EllipsisVariant {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected ellipsis variant once, got %d", count)
	}
	if len(DefaultBreakSymbols) != 6 {
		t.Errorf("default symbols were mutated: %q", DefaultBreakSymbols)
	}
}

func TestNeedsPagination_CountsRunes(t *testing.T) {
	opts := Options{Limit: 3}
	tests := []struct {
		text  string
		runes int
		want  bool
	}{
		{"あいう", 3, false},
		{"あいうえ", 4, true},
		{"abc", 3, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		if got := RuneLen(tt.text); got != tt.runes {
			t.Errorf("RuneLen(%q) = %d, want %d", tt.text, got, tt.runes)
		}
		if got := opts.NeedsPagination(tt.text); got != tt.want {
			t.Errorf("NeedsPagination(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
	if (Options{}).NeedsPagination("あいうえ") {
		t.Error("zero limit should disable pagination")
	}
}
