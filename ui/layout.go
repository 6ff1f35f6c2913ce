package ui

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leonezhu/readalong/transcript"
	"github.com/mattn/go-runewidth"
)

// plainSegment marks text that belongs to no sentence, such as the space
// between two sentences.
const plainSegment = -1

type segment struct {
	index int // visible sentence index or plainSegment
	text  string
	width int
}

type textLine []segment

// layout is the wrapped transcript. Every cell on screen can be traced back
// to the sentence it renders, which is what click-to-seek relies on.
type layout struct {
	lines []textLine
	first map[int]int // sentence index -> first line
}

type token struct {
	text        string
	width       int
	spaceBefore bool
}

// tokenize splits text into wrap units. Latin words are split on spaces;
// every wide rune is a unit of its own since CJK text has no spaces.
func tokenize(text string) []token {
	var (
		toks  []token
		b     strings.Builder
		space bool
	)
	flush := func() {
		if b.Len() == 0 {
			return
		}
		s := b.String()
		toks = append(toks, token{text: s, width: runewidth.StringWidth(s), spaceBefore: space})
		b.Reset()
		space = false
	}
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
			if len(toks) > 0 {
				space = true
			}
		case runewidth.RuneWidth(r) == 2:
			flush()
			toks = append(toks, token{text: string(r), width: 2, spaceBefore: space})
			space = false
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return toks
}

// splitToken hard-wraps a token wider than width.
func splitToken(t token, width int) []token {
	if t.width <= width {
		return []token{t}
	}
	var (
		out []token
		b   strings.Builder
		w   int
	)
	for _, r := range t.text {
		rw := runewidth.RuneWidth(r)
		if w+rw > width && b.Len() > 0 {
			out = append(out, token{text: b.String(), width: w})
			b.Reset()
			w = 0
		}
		b.WriteRune(r)
		w += rw
	}
	if b.Len() > 0 {
		out = append(out, token{text: b.String(), width: w})
	}
	if len(out) > 0 {
		out[0].spaceBefore = t.spaceBefore
	}
	return out
}

func isWide(s string, last bool) bool {
	var r rune
	if last {
		r, _ = utf8.DecodeLastRuneInString(s)
	} else {
		r, _ = utf8.DecodeRuneInString(s)
	}
	return runewidth.RuneWidth(r) == 2
}

func (l textLine) add(index int, text string, width int) textLine {
	if n := len(l); n > 0 && l[n-1].index == index {
		l[n-1].text += text
		l[n-1].width += width
		return l
	}
	return append(l, segment{index: index, text: text, width: width})
}

// layoutSentences wraps sentences to width columns. Line break sentences
// end the paragraph and leave a single blank line behind. Sentences are
// joined by a space unless both sides of the join are wide runes.
func layoutSentences(sentences []transcript.Sentence, width int) *layout {
	if width < 1 {
		width = 1
	}
	l := &layout{first: make(map[int]int)}

	var (
		cur      textLine
		curWidth int
		prevWide bool
	)
	newline := func() {
		l.lines = append(l.lines, cur)
		cur = nil
		curWidth = 0
	}

	for i, s := range sentences {
		if s.IsLineBreak() {
			if len(cur) > 0 {
				newline()
			}
			if n := len(l.lines); n > 0 && len(l.lines[n-1]) > 0 {
				l.lines = append(l.lines, nil)
			}
			continue
		}

		for j, t := range tokenize(s.Text) {
			sepIndex := i
			if j == 0 {
				sepIndex = plainSegment
				t.spaceBefore = !prevWide || !isWide(t.text, false)
			}
			for k, piece := range splitToken(t, width) {
				sep := k == 0 && piece.spaceBefore && curWidth > 0
				need := piece.width
				if sep {
					need++
				}
				if curWidth > 0 && curWidth+need > width {
					newline()
					sep = false
				}
				if sep {
					cur = cur.add(sepIndex, " ", 1)
					curWidth++
				}
				if _, ok := l.first[i]; !ok {
					l.first[i] = len(l.lines)
				}
				cur = cur.add(i, piece.text, piece.width)
				curWidth += piece.width
			}
			prevWide = isWide(t.text, true)
		}
	}
	if len(cur) > 0 {
		newline()
	}
	for n := len(l.lines); n > 0 && len(l.lines[n-1]) == 0; n-- {
		l.lines = l.lines[:n-1]
	}
	return l
}

// sentenceAt returns the sentence rendered at the given row and column.
func (l *layout) sentenceAt(row, col int) (int, bool) {
	if row < 0 || row >= len(l.lines) || col < 0 {
		return transcript.NoSentence, false
	}
	x := 0
	for _, seg := range l.lines[row] {
		if col < x+seg.width {
			if seg.index == plainSegment {
				return transcript.NoSentence, false
			}
			return seg.index, true
		}
		x += seg.width
	}
	return transcript.NoSentence, false
}

// lineOf returns the first line sentence index is rendered on.
func (l *layout) lineOf(index int) (int, bool) {
	line, ok := l.first[index]
	return line, ok
}

// render joins the lines, passing each sentence segment through style.
func (l *layout) render(style func(index int, text string) string) string {
	var b strings.Builder
	for i, line := range l.lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, seg := range line {
			if seg.index == plainSegment || style == nil {
				b.WriteString(seg.text)
				continue
			}
			b.WriteString(style(seg.index, seg.text))
		}
	}
	return b.String()
}

// plain renders the layout without styling.
func (l *layout) plain() string {
	return l.render(nil)
}

// TranscriptText joins sentences the way the transcript view does, one
// paragraph per line with blank lines between paragraphs.
func TranscriptText(sentences []transcript.Sentence) string {
	return layoutSentences(sentences, math.MaxInt32).plain()
}
