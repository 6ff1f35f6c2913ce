package transcript

import (
	"errors"
	"testing"
	"time"
)

func TestLocate(t *testing.T) {
	sentences := []Sentence{
		{Text: "Hello", StartTime: 0, EndTime: 1.2},
		{Text: LineBreak, StartTime: 0, EndTime: 0},
		{Text: "World", StartTime: 1.2, EndTime: 2.0},
		{Text: "Again", StartTime: 3.0, EndTime: 4.0},
		{Text: "Overlap", StartTime: 3.5, EndTime: 5.0},
	}
	tests := []struct {
		name string
		t    float64
		want int
		ok   bool
	}{
		{"before start", -0.1, NoSentence, false},
		{"start of first", 0, 0, true},
		{"shared boundary picks first", 1.2, 0, true},
		{"second", 1.5, 2, true},
		{"gap", 2.5, NoSentence, false},
		{"overlap picks earliest", 3.7, 3, true},
		{"only overlap", 4.5, 4, true},
		{"after end", 5.1, NoSentence, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Locate(sentences, tt.t)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Locate(%v) = %d, %v; want %d, %v", tt.t, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestLocateGapsBetweenSpans(t *testing.T) {
	sentences := []Sentence{
		{Text: "a", StartTime: 0, EndTime: 1},
		{Text: "b", StartTime: 2, EndTime: 3},
	}
	for tm := 1.01; tm < 2; tm += 0.1 {
		if i, ok := Locate(sentences, tm); ok {
			t.Errorf("Locate(%v) = %d inside a gap", tm, i)
		}
	}
}

func TestLocateEmpty(t *testing.T) {
	if i, ok := Locate(nil, 1); ok || i != NoSentence {
		t.Errorf("Locate(nil) = %d, %v", i, ok)
	}
}

type fakeSeeker struct {
	seeks   []time.Duration
	resumed int
	err     error
}

func (f *fakeSeeker) Seek(d time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.seeks = append(f.seeks, d)
	return nil
}

func (f *fakeSeeker) Resume() error {
	f.resumed++
	return nil
}

func TestSeekTo(t *testing.T) {
	f := &fakeSeeker{}
	if err := SeekTo(f, Sentence{Text: "x", StartTime: 1.25, EndTime: 2}); err != nil {
		t.Fatal(err)
	}
	if len(f.seeks) != 1 || f.seeks[0] != 1250*time.Millisecond || f.resumed != 1 {
		t.Errorf("seeks = %v, resumed = %d", f.seeks, f.resumed)
	}

	if err := SeekTo(f, Sentence{Text: LineBreak}); !errors.Is(err, ErrLineBreakSeek) {
		t.Errorf("line break seek error = %v", err)
	}
	if len(f.seeks) != 1 {
		t.Error("line break must not seek")
	}

	if err := SeekTo(nil, Sentence{Text: "x"}); !errors.Is(err, ErrNoAudio) {
		t.Errorf("nil player error = %v", err)
	}

	boom := errors.New("boom")
	f.err = boom
	if err := SeekTo(f, Sentence{Text: "x"}); !errors.Is(err, boom) {
		t.Errorf("seek error = %v, want wrapped boom", err)
	}
}

func TestSecondsConversion(t *testing.T) {
	for _, s := range []float64{0, 0.001, 1.5, 61.25} {
		if got := ToSeconds(Seconds(s)); got != s {
			t.Errorf("ToSeconds(Seconds(%v)) = %v", s, got)
		}
	}
}
