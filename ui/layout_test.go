package ui

import (
	"testing"

	"github.com/leonezhu/readalong/transcript"
)

func sentences(texts ...string) []transcript.Sentence {
	out := make([]transcript.Sentence, len(texts))
	for i, t := range texts {
		out[i] = transcript.Sentence{Text: t, StartTime: float64(i), EndTime: float64(i) + 0.9}
	}
	return out
}

func TestLayoutWrap(t *testing.T) {
	tests := []struct {
		name      string
		sentences []transcript.Sentence
		width     int
		want      string
	}{
		{
			name:      "single line",
			sentences: sentences("Hello world.", "Second one."),
			width:     40,
			want:      "Hello world. Second one.",
		},
		{
			name:      "wraps between sentences",
			sentences: sentences("Hello world.", "Second one."),
			width:     12,
			want:      "Hello world.\nSecond one.",
		},
		{
			name:      "wraps inside a sentence",
			sentences: sentences("The quick brown fox jumps."),
			width:     10,
			want:      "The quick\nbrown fox\njumps.",
		},
		{
			name:      "wide sentences join without spaces",
			sentences: sentences("你好。", "世界。"),
			width:     40,
			want:      "你好。世界。",
		},
		{
			name:      "mixed scripts keep a space",
			sentences: sentences("Hello.", "你好。"),
			width:     40,
			want:      "Hello. 你好。",
		},
		{
			name:      "line break leaves one blank line",
			sentences: sentences("A.", "\n", "\n", "B."),
			width:     40,
			want:      "A.\n\nB.",
		},
		{
			name:      "trailing line break is dropped",
			sentences: sentences("A.", "\n"),
			width:     40,
			want:      "A.",
		},
		{
			name:      "long words are split",
			sentences: sentences("abcdefghij"),
			width:     4,
			want:      "abcd\nefgh\nij",
		},
		{
			name:      "empty",
			sentences: nil,
			width:     10,
			want:      "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := layoutSentences(tc.sentences, tc.width).plain()
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLayoutSentenceAt(t *testing.T) {
	l := layoutSentences(sentences("Hello world.", "Second one.", "\n", "你好。"), 40)

	tests := []struct {
		row, col int
		want     int
		ok       bool
	}{
		{0, 0, 0, true},
		{0, 11, 0, true},
		{0, 12, transcript.NoSentence, false}, // space between sentences
		{0, 13, 1, true},
		{0, 23, 1, true},
		{0, 24, transcript.NoSentence, false},
		{1, 0, transcript.NoSentence, false}, // blank paragraph line
		{2, 0, 3, true},
		{2, 5, 3, true},
		{2, 6, transcript.NoSentence, false},
		{3, 0, transcript.NoSentence, false},
		{-1, 0, transcript.NoSentence, false},
	}
	for _, tc := range tests {
		got, ok := l.sentenceAt(tc.row, tc.col)
		if got != tc.want || ok != tc.ok {
			t.Errorf("sentenceAt(%d, %d) = %d, %v; want %d, %v", tc.row, tc.col, got, ok, tc.want, tc.ok)
		}
	}
}

func TestLayoutLineOf(t *testing.T) {
	l := layoutSentences(sentences("Hello world.", "Second one.", "\n", "Third."), 12)

	want := map[int]int{0: 0, 1: 1, 3: 3}
	for index, line := range want {
		got, ok := l.lineOf(index)
		if !ok || got != line {
			t.Errorf("lineOf(%d) = %d, %v; want %d", index, got, ok, line)
		}
	}
	if _, ok := l.lineOf(2); ok {
		t.Error("line breaks should not have a line")
	}
}

func TestLayoutRenderStyles(t *testing.T) {
	l := layoutSentences(sentences("One two.", "Three."), 40)
	got := l.render(func(index int, text string) string {
		if index == 1 {
			return "[" + text + "]"
		}
		return text
	})
	if want := "One two. [Three.]"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
