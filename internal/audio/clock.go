package audio

import (
	"context"
	"sync"
	"time"
)

// ClockPlayer follows a track's timeline with the wall clock and makes no
// sound. It backs --no-audio and tests.
type ClockPlayer struct {
	fetch Fetcher
	now   func() time.Time

	mu       sync.Mutex
	state    PlayerState
	loaded   bool
	url      string
	duration time.Duration // 0 when unknown
	offset   time.Duration // position at anchor
	anchor   time.Time     // when playback last started
}

// NewClockPlayer returns a player that learns track lengths through fetch.
// fetch may be nil, leaving every track unbounded.
func NewClockPlayer(fetch Fetcher) *ClockPlayer {
	return &ClockPlayer{fetch: fetch, now: time.Now}
}

// Load resets the timeline for url.
func (c *ClockPlayer) Load(ctx context.Context, url string) error {
	var duration time.Duration
	if c.fetch != nil {
		data, err := c.fetch(ctx, url)
		if err != nil {
			return err
		}
		pcm, err := DecodeWAV(data)
		if err != nil {
			return err
		}
		duration = pcm.Duration()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return ErrClosed
	}
	c.loaded = true
	c.url = url
	c.duration = duration
	c.offset = 0
	c.state = StatePaused
	return nil
}

// URL returns the loaded track's URL.
func (c *ClockPlayer) URL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.url
}

// Resume starts the clock, rewinding first if the track already ended.
func (c *ClockPlayer) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.state == StateClosed:
		return ErrClosed
	case !c.loaded:
		return ErrNotLoaded
	case c.state == StatePlaying:
		return nil
	}
	if c.duration > 0 && c.offset >= c.duration {
		c.offset = 0
	}
	c.anchor = c.now()
	c.state = StatePlaying
	return nil
}

// Pause freezes the clock at the current position.
func (c *ClockPlayer) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return ErrClosed
	}
	if c.state == StatePlaying {
		c.offset = c.positionLocked()
		c.state = StatePaused
	}
	return nil
}

// Toggle pauses a playing track and resumes a paused one.
func (c *ClockPlayer) Toggle() error {
	if c.IsPlaying() {
		return c.Pause()
	}
	return c.Resume()
}

// Stop rewinds to the start and stops the clock.
func (c *ClockPlayer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return ErrClosed
	}
	c.offset = 0
	c.state = StateStopped
	return nil
}

// Seek moves to d, clamped to the track when its length is known.
func (c *ClockPlayer) Seek(d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.state == StateClosed:
		return ErrClosed
	case !c.loaded:
		return ErrNotLoaded
	}
	c.offset = clamp(d, c.duration)
	c.anchor = c.now()
	return nil
}

// Position returns the elapsed playback time.
func (c *ClockPlayer) Position() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked()
}

func (c *ClockPlayer) positionLocked() time.Duration {
	if c.state != StatePlaying {
		return c.offset
	}
	return clamp(c.offset+c.now().Sub(c.anchor), c.duration)
}

// Duration returns the track length, or 0 when it is unknown.
func (c *ClockPlayer) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

// IsPlaying is false once a bounded track reaches its end.
func (c *ClockPlayer) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePlaying {
		return false
	}
	return c.duration == 0 || c.positionLocked() < c.duration
}

// State returns the current player state.
func (c *ClockPlayer) State() PlayerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close releases the player; later control calls return ErrClosed.
func (c *ClockPlayer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateClosed
	return nil
}

var _ Element = (*ClockPlayer)(nil)
