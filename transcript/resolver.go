package transcript

import "errors"

// Resolve produces the ordered sentence sequence to render for article
// under mode, with audioLanguage selecting the reference sentence set.
//
// In DisplayBoth the article's merged bilingual stream is used; articles
// without one fall back to the audio language's own sequence. A single
// language mode filters the audio language's sequence (not the display
// language's) down to that language, keeping line breaks so paragraph
// structure survives.
//
// Resolve is pure: the result is freshly allocated and equal inputs give
// equal output.
func Resolve(article *Article, mode DisplayMode, audioLanguage LanguageTag) ([]Sentence, error) {
	if article == nil {
		return nil, NewError(ErrInvalidState, "resolver", "resolve")
	}
	version, err := article.Versions.Lookup(audioLanguage)
	if err != nil {
		return nil, NewError(err, "resolver", "resolve").WithSeverity(SeverityInfo)
	}

	lang, single := mode.Language()
	if !single {
		source := article.Sentences
		if len(source) == 0 {
			source = version.Sentences
		}
		out := make([]Sentence, len(source))
		copy(out, source)
		return out, nil
	}

	out := make([]Sentence, 0, len(version.Sentences))
	for _, s := range version.Sentences {
		if s.Language == lang || s.IsLineBreak() {
			out = append(out, s)
		}
	}
	return out, nil
}

// ResolveWithFallback resolves like Resolve but, when audioLanguage is not
// a version of the article, retries with the first available language. It
// returns the audio language actually used.
func ResolveWithFallback(article *Article, mode DisplayMode, audioLanguage LanguageTag) ([]Sentence, LanguageTag, error) {
	sentences, err := Resolve(article, mode, audioLanguage)
	if err == nil || !errors.Is(err, ErrMissingLanguageVersion) {
		return sentences, audioLanguage, err
	}
	available := article.AvailableLanguages()
	if len(available) == 0 {
		return nil, audioLanguage, err
	}
	sentences, err = Resolve(article, mode, available[0])
	return sentences, available[0], err
}

// HasLanguage reports whether tag is a version key or tags any sentence.
func (a *Article) HasLanguage(tag LanguageTag) bool {
	if a.Versions.Has(tag) {
		return true
	}
	for _, s := range a.Sentences {
		if s.Language == tag {
			return true
		}
	}
	for _, lv := range a.Versions.All() {
		for _, s := range lv.Sentences {
			if s.Language == tag {
				return true
			}
		}
	}
	return false
}
