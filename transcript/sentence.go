package transcript

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// LineBreak is the sentence text that marks a paragraph break. It is not
// spoken content and carries no meaningful time span.
const LineBreak = "\n"

// LanguageTag identifies a language variant of content or audio, e.g. "zh".
type LanguageTag string

// ParseLanguageTag validates s and returns its canonical base form. Region
// and script subtags are dropped because articles key versions by base
// language only ("zh-CN" becomes "zh").
func ParseLanguageTag(s string) (LanguageTag, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty language tag", ErrInvalidArticle)
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: language tag %q: %v", ErrInvalidArticle, s, err)
	}
	base, _ := tag.Base()
	return LanguageTag(base.String()), nil
}

// String implements fmt.Stringer.
func (l LanguageTag) String() string { return string(l) }

// DisplayName returns the language's name in itself ("English", "中文"),
// falling back to the raw tag.
func (l LanguageTag) DisplayName() string {
	tag, err := language.Parse(string(l))
	if err != nil {
		return string(l)
	}
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return string(l)
}

// Sentence is the smallest timed transcript unit.
type Sentence struct {
	Text      string      `json:"text"`
	Language  LanguageTag `json:"language"`
	StartTime float64     `json:"start_time"` // seconds
	EndTime   float64     `json:"end_time"`   // seconds
}

// IsLineBreak reports whether s is a structural line break.
func (s Sentence) IsLineBreak() bool {
	return s.Text == LineBreak
}

// ContainsTime reports whether t (seconds) falls inside the sentence span.
// Line breaks never contain any time.
func (s Sentence) ContainsTime(t float64) bool {
	return !s.IsLineBreak() && s.StartTime <= t && t <= s.EndTime
}

// Valid checks the span invariant.
func (s Sentence) Valid() error {
	if s.IsLineBreak() {
		return nil
	}
	if s.StartTime > s.EndTime {
		return fmt.Errorf("%w: sentence %q starts at %.3fs after it ends at %.3fs",
			ErrInvalidArticle, s.Text, s.StartTime, s.EndTime)
	}
	return nil
}

// UnmarshalJSON accepts both snake_case and camelCase time keys.
func (s *Sentence) UnmarshalJSON(b []byte) error {
	var raw struct {
		Text       string      `json:"text"`
		Language   LanguageTag `json:"language"`
		StartTime  *float64    `json:"start_time"`
		EndTime    *float64    `json:"end_time"`
		StartCamel *float64    `json:"startTime"`
		EndCamel   *float64    `json:"endTime"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = Sentence{Text: raw.Text, Language: raw.Language}
	switch {
	case raw.StartTime != nil:
		s.StartTime = *raw.StartTime
	case raw.StartCamel != nil:
		s.StartTime = *raw.StartCamel
	}
	switch {
	case raw.EndTime != nil:
		s.EndTime = *raw.EndTime
	case raw.EndCamel != nil:
		s.EndTime = *raw.EndCamel
	}
	return nil
}
