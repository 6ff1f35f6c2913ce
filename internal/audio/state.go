package audio

import (
	"context"
	"errors"
	"time"

	"github.com/leonezhu/readalong/transcript"
)

// PlayerState is the playback state of a player.
type PlayerState int32

const (
	StateStopped PlayerState = iota
	StatePlaying
	StatePaused
	StateClosed
)

func (s PlayerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var (
	// ErrClosed is returned by operations on a closed player.
	ErrClosed = errors.New("player is closed")

	// ErrNotLoaded is returned when no track has been loaded.
	ErrNotLoaded = errors.New("no audio loaded")
)

// Fetcher returns the bytes behind an audio URL.
type Fetcher func(ctx context.Context, url string) ([]byte, error)

// Element is the audio element the UI drives. It extends the controller's
// view with transport controls.
type Element interface {
	transcript.AudioElement
	Toggle() error
	Stop() error
	Duration() time.Duration
	State() PlayerState
	Close() error
}

func clamp(d, max time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if max > 0 && d > max {
		return max
	}
	return d
}
