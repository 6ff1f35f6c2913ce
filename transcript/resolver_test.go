package transcript

import (
	"errors"
	"reflect"
	"testing"
)

// bilingual returns an article recorded as interleaved en/zh pairs, with a
// merged stream and one version per language sharing it.
func bilingual() *Article {
	merged := []Sentence{
		{Text: "Hello.", Language: "en", StartTime: 0, EndTime: 1},
		{Text: "你好。", Language: "zh", StartTime: 1, EndTime: 2},
		{Text: LineBreak, Language: "en"},
		{Text: "Bye.", Language: "en", StartTime: 2, EndTime: 3},
		{Text: "再见。", Language: "zh", StartTime: 3, EndTime: 4},
	}
	zhOnly := []Sentence{
		{Text: "你好。", Language: "zh", StartTime: 0, EndTime: 1},
		{Text: LineBreak, Language: "zh"},
		{Text: "再见。", Language: "zh", StartTime: 1, EndTime: 2},
	}
	return &Article{
		ID:        "a1",
		Sentences: merged,
		Versions: NewVersions(
			LanguageVersion{LanguageTag: "en", AudioFilename: "a1_en.wav", Sentences: merged},
			LanguageVersion{LanguageTag: "zh", AudioFilename: "a1_zh.wav", Sentences: zhOnly},
		),
	}
}

func texts(ss []Sentence) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.Text
	}
	return out
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		mode  DisplayMode
		audio LanguageTag
		want  []string
	}{
		{"both uses merged stream", DisplayBoth, "en", []string{"Hello.", "你好。", LineBreak, "Bye.", "再见。"}},
		{"both ignores audio language", DisplayBoth, "zh", []string{"Hello.", "你好。", LineBreak, "Bye.", "再见。"}},
		{"en filters en track", DisplayLanguage("en"), "en", []string{"Hello.", LineBreak, "Bye."}},
		{"zh filters en track", DisplayLanguage("zh"), "en", []string{"你好。", LineBreak, "再见。"}},
		{"zh on zh track", DisplayLanguage("zh"), "zh", []string{"你好。", LineBreak, "再见。"}},
		{"en on zh track keeps only breaks", DisplayLanguage("en"), "zh", []string{LineBreak}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(bilingual(), tt.mode, tt.audio)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(texts(got), tt.want) {
				t.Errorf("Resolve() = %q, want %q", texts(got), tt.want)
			}
		})
	}
}

func TestResolveWithoutMergedStream(t *testing.T) {
	a := bilingual()
	a.Sentences = nil
	got, err := Resolve(a, DisplayBoth, "zh")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"你好。", LineBreak, "再见。"}; !reflect.DeepEqual(texts(got), want) {
		t.Errorf("Resolve() = %q, want %q", texts(got), want)
	}
}

func TestResolveFilterInvariant(t *testing.T) {
	for _, lang := range []LanguageTag{"en", "zh"} {
		for _, audio := range []LanguageTag{"en", "zh"} {
			got, err := Resolve(bilingual(), DisplayLanguage(lang), audio)
			if err != nil {
				t.Fatal(err)
			}
			for _, s := range got {
				if !s.IsLineBreak() && s.Language != lang {
					t.Errorf("mode %s audio %s: sentence %q is %s", lang, audio, s.Text, s.Language)
				}
			}
		}
	}
}

func TestResolveIsPure(t *testing.T) {
	a := bilingual()
	for _, mode := range []DisplayMode{DisplayBoth, "en", "zh"} {
		first, err := Resolve(a, mode, "en")
		if err != nil {
			t.Fatal(err)
		}
		second, _ := Resolve(a, mode, "en")
		if !reflect.DeepEqual(first, second) {
			t.Errorf("mode %s: results differ", mode)
		}
		if len(first) > 0 {
			first[0].Text = "mutated"
			if a.Sentences[0].Text == "mutated" {
				t.Fatalf("mode %s: result aliases the article", mode)
			}
		}
	}
}

func TestResolveRoundTrip(t *testing.T) {
	a := bilingual()
	original, _ := Resolve(a, DisplayBoth, "en")
	if _, err := Resolve(a, "zh", "en"); err != nil {
		t.Fatal(err)
	}
	again, _ := Resolve(a, DisplayBoth, "en")
	if !reflect.DeepEqual(original, again) {
		t.Errorf("both -> zh -> both changed the sequence:\n%q\n%q", texts(original), texts(again))
	}
}

func TestResolveMissingVersion(t *testing.T) {
	_, err := Resolve(bilingual(), DisplayBoth, "fr")
	if !errors.Is(err, ErrMissingLanguageVersion) {
		t.Fatalf("error = %v, want ErrMissingLanguageVersion", err)
	}

	got, lang, err := ResolveWithFallback(bilingual(), DisplayLanguage("zh"), "fr")
	if err != nil {
		t.Fatal(err)
	}
	if lang != "en" {
		t.Errorf("fallback language = %q, want en", lang)
	}
	if want := []string{"你好。", LineBreak, "再见。"}; !reflect.DeepEqual(texts(got), want) {
		t.Errorf("ResolveWithFallback() = %q", texts(got))
	}
}

func TestResolveNilArticle(t *testing.T) {
	if _, err := Resolve(nil, DisplayBoth, "en"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("error = %v, want ErrInvalidState", err)
	}
}

func TestHasLanguage(t *testing.T) {
	a := &Article{
		Versions: NewVersions(LanguageVersion{
			LanguageTag: "en",
			Sentences:   []Sentence{{Text: "Hola", Language: "es"}},
		}),
	}
	for tag, want := range map[LanguageTag]bool{"en": true, "es": true, "zh": false} {
		if got := a.HasLanguage(tag); got != want {
			t.Errorf("HasLanguage(%s) = %v, want %v", tag, got, want)
		}
	}
}
