package transcript

import (
	"math"
	"time"
)

// NoSentence is the highlighted index when playback is in a gap.
const NoSentence = -1

// Locate returns the index of the first non-line-break sentence whose span
// contains t (seconds). It reports false when t falls in a gap, before the
// first span or after the last. Overlapping spans resolve to the earliest
// sentence in sequence order.
func Locate(sentences []Sentence, t float64) (int, bool) {
	for i := range sentences {
		if sentences[i].ContainsTime(t) {
			return i, true
		}
	}
	return NoSentence, false
}

// Seeker is the part of the audio element used for click-to-seek.
type Seeker interface {
	Seek(pos time.Duration) error
	Resume() error
}

// SeekTo positions the audio at the start of s and resumes playback.
func SeekTo(player Seeker, s Sentence) error {
	if s.IsLineBreak() {
		return ErrLineBreakSeek
	}
	if player == nil {
		return ErrNoAudio
	}
	if err := player.Seek(Seconds(s.StartTime)); err != nil {
		return NewError(err, "player", "seek")
	}
	if err := player.Resume(); err != nil {
		return NewError(err, "player", "resume")
	}
	return nil
}

// Seconds converts a float seconds value to a duration.
func Seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// ToSeconds converts a duration to float seconds.
func ToSeconds(d time.Duration) float64 {
	return d.Seconds()
}
