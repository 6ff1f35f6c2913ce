package transcript

import "fmt"

// DisplayMode selects which language(s) of text are rendered: "both" for
// the interleaved bilingual view, or a single language tag.
type DisplayMode string

// DisplayBoth requests the merged bilingual stream.
const DisplayBoth DisplayMode = "both"

// DisplayLanguage returns the single-language mode for tag.
func DisplayLanguage(tag LanguageTag) DisplayMode {
	return DisplayMode(tag)
}

// ParseDisplayMode accepts "both" (or empty) or a language tag.
func ParseDisplayMode(s string) (DisplayMode, error) {
	if s == "" || s == string(DisplayBoth) {
		return DisplayBoth, nil
	}
	tag, err := ParseLanguageTag(s)
	if err != nil {
		return "", fmt.Errorf("display mode: %w", err)
	}
	return DisplayLanguage(tag), nil
}

// Language returns the single language requested, if any.
func (m DisplayMode) Language() (LanguageTag, bool) {
	if m == DisplayBoth || m == "" {
		return "", false
	}
	return LanguageTag(m), true
}

// Label is the short name shown in the status bar.
func (m DisplayMode) Label() string {
	if tag, ok := m.Language(); ok {
		return tag.DisplayName()
	}
	return "Both"
}

// NextDisplayMode cycles both -> available[0] -> ... -> both.
func NextDisplayMode(current DisplayMode, available []LanguageTag) DisplayMode {
	if len(available) == 0 {
		return DisplayBoth
	}
	tag, ok := current.Language()
	if !ok {
		return DisplayLanguage(available[0])
	}
	for i, t := range available {
		if t == tag && i+1 < len(available) {
			return DisplayLanguage(available[i+1])
		}
	}
	return DisplayBoth
}

// NextLanguage cycles through available starting after current.
func NextLanguage(current LanguageTag, available []LanguageTag) LanguageTag {
	if len(available) == 0 {
		return current
	}
	for i, t := range available {
		if t == current {
			return available[(i+1)%len(available)]
		}
	}
	return available[0]
}
