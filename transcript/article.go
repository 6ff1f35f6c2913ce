package transcript

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// LanguageVersion is one language's audio track and sentence sequence.
type LanguageVersion struct {
	LanguageTag   LanguageTag `json:"language"`
	AudioFilename string      `json:"audio_filename"`
	Sentences     []Sentence  `json:"sentences"`
}

// Versions is an ordered mapping of language tag to LanguageVersion. Order
// is first-seen, both when built with Add and when decoded from JSON.
type Versions struct {
	order []LanguageTag
	byTag map[LanguageTag]LanguageVersion
}

// NewVersions builds Versions from vs in order.
func NewVersions(vs ...LanguageVersion) Versions {
	var v Versions
	for _, lv := range vs {
		v.Add(lv)
	}
	return v
}

// Add inserts or replaces a version. Replacing keeps the original position.
func (v *Versions) Add(lv LanguageVersion) {
	if v.byTag == nil {
		v.byTag = make(map[LanguageTag]LanguageVersion)
	}
	if _, ok := v.byTag[lv.LanguageTag]; !ok {
		v.order = append(v.order, lv.LanguageTag)
	}
	v.byTag[lv.LanguageTag] = lv
}

// Len returns the number of versions.
func (v Versions) Len() int { return len(v.order) }

// Tags returns the language tags in first-seen order.
func (v Versions) Tags() []LanguageTag {
	tags := make([]LanguageTag, len(v.order))
	copy(tags, v.order)
	return tags
}

// Has reports whether tag is present.
func (v Versions) Has(tag LanguageTag) bool {
	_, ok := v.byTag[tag]
	return ok
}

// Lookup returns the version for tag or ErrMissingLanguageVersion.
func (v Versions) Lookup(tag LanguageTag) (LanguageVersion, error) {
	lv, ok := v.byTag[tag]
	if !ok {
		return LanguageVersion{}, fmt.Errorf("%w: %q", ErrMissingLanguageVersion, tag)
	}
	return lv, nil
}

// All returns the versions in order.
func (v Versions) All() []LanguageVersion {
	out := make([]LanguageVersion, 0, len(v.order))
	for _, tag := range v.order {
		out = append(out, v.byTag[tag])
	}
	return out
}

// MarshalJSON writes the versions as a JSON object in insertion order.
func (v Versions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, tag := range v.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(tag))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(v.byTag[tag])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keyed by language tag. The token
// stream is walked by hand so that key order survives decoding.
func (v *Versions) UnmarshalJSON(b []byte) error {
	*v = Versions{}
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("language_versions: expected object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("language_versions: unexpected key %v", tok)
		}
		var lv LanguageVersion
		if err := dec.Decode(&lv); err != nil {
			return fmt.Errorf("language_versions[%s]: %w", key, err)
		}
		lv.LanguageTag = LanguageTag(key)
		v.Add(lv)
	}
	_, err = dec.Token()
	return err
}

// Article is a generated text-to-speech article with one or more language
// versions. Sentences, when present, is the merged bilingual stream in
// original recording order.
type Article struct {
	ID        string
	Title     string
	CreatedAt time.Time
	Sentences []Sentence
	Versions  Versions
}

// AvailableLanguages returns the article's language tags, first-seen order.
func (a *Article) AvailableLanguages() []LanguageTag {
	return a.Versions.Tags()
}

// Validate checks that the article has at least one version and that every
// sentence satisfies its span invariant.
func (a *Article) Validate() error {
	if a.Versions.Len() == 0 {
		return fmt.Errorf("%w: article %q has no language versions", ErrInvalidArticle, a.ID)
	}
	for _, s := range a.Sentences {
		if err := s.Valid(); err != nil {
			return err
		}
	}
	for _, lv := range a.Versions.All() {
		for _, s := range lv.Sentences {
			if err := s.Valid(); err != nil {
				return fmt.Errorf("version %s: %w", lv.LanguageTag, err)
			}
		}
	}
	return nil
}

// Summary returns the list row for the article.
func (a *Article) Summary() Summary {
	return Summary{
		ID:        a.ID,
		Title:     a.Title,
		CreatedAt: a.CreatedAt,
		Languages: a.AvailableLanguages(),
	}
}

// Summary is one row of the article list.
type Summary struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"created_at,omitempty"`
	Languages []LanguageTag `json:"languages,omitempty"`
}

// DisplayTitle falls back to the id when the title is empty.
func (s Summary) DisplayTitle() string {
	if strings.TrimSpace(s.Title) != "" {
		return s.Title
	}
	return s.ID
}

type articleJSON struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	CreatedAt string     `json:"created_at,omitempty"`
	Sentences []Sentence `json:"sentences,omitempty"`
	Versions  Versions   `json:"language_versions"`

	// single-language payloads written by the original backend
	Content       string      `json:"content,omitempty"`
	AudioFilename string      `json:"audio_filename,omitempty"`
	Language      LanguageTag `json:"language,omitempty"`
}

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"20060102_150405",
	"2006-01-02",
}

func parseCreatedAt(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// MarshalJSON implements json.Marshaler.
func (a Article) MarshalJSON() ([]byte, error) {
	raw := articleJSON{
		ID:        a.ID,
		Title:     a.Title,
		Sentences: a.Sentences,
		Versions:  a.Versions,
	}
	if !a.CreatedAt.IsZero() {
		raw.CreatedAt = a.CreatedAt.Format(time.RFC3339)
	}
	return json.Marshal(raw)
}

// UnmarshalJSON decodes an article payload. Single-language payloads
// without language_versions are normalised into a one-entry mapping, and
// sentences without a language tag inherit their version's tag.
func (a *Article) UnmarshalJSON(b []byte) error {
	var raw articleJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*a = Article{
		ID:        raw.ID,
		Title:     raw.Title,
		CreatedAt: parseCreatedAt(raw.CreatedAt),
		Sentences: raw.Sentences,
	}

	versions := raw.Versions
	if versions.Len() == 0 && (raw.AudioFilename != "" || len(raw.Sentences) > 0) {
		tag := raw.Language
		if tag == "" && len(raw.Sentences) > 0 {
			tag = raw.Sentences[0].Language
		}
		if tag == "" {
			tag = "en"
		}
		versions = NewVersions(LanguageVersion{
			LanguageTag:   tag,
			AudioFilename: raw.AudioFilename,
			Sentences:     raw.Sentences,
		})
	}

	for _, lv := range versions.All() {
		sentences := make([]Sentence, len(lv.Sentences))
		for i, s := range lv.Sentences {
			if s.Language == "" {
				s.Language = lv.LanguageTag
			}
			sentences[i] = s
		}
		lv.Sentences = sentences
		a.Versions.Add(lv)
	}
	return nil
}

// UnmarshalJSON accepts the same created_at layouts as Article. When a
// row carries language_versions instead of languages, the keys are used.
func (s *Summary) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID        string        `json:"id"`
		Title     string        `json:"title"`
		CreatedAt string        `json:"created_at"`
		Languages []LanguageTag `json:"languages"`
		Versions  Versions      `json:"language_versions"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = Summary{
		ID:        raw.ID,
		Title:     raw.Title,
		CreatedAt: parseCreatedAt(raw.CreatedAt),
		Languages: raw.Languages,
	}
	if len(s.Languages) == 0 && raw.Versions.Len() > 0 {
		s.Languages = raw.Versions.Tags()
	}
	return nil
}
