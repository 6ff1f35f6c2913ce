package audio

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestClockPlayer(d time.Duration) (*ClockPlayer, *fakeClock) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	wav := EncodeWAV(sine(8000, 1, d))
	p := NewClockPlayer(func(context.Context, string) ([]byte, error) { return wav, nil })
	p.now = clock.now
	return p, clock
}

func TestClockPlayerTimeline(t *testing.T) {
	p, clock := newTestClockPlayer(10 * time.Second)

	if err := p.Resume(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Resume before Load = %v, want ErrNotLoaded", err)
	}
	if err := p.Load(context.Background(), "file:///a.wav"); err != nil {
		t.Fatal(err)
	}
	if p.Duration() != 10*time.Second {
		t.Errorf("Duration = %s", p.Duration())
	}
	if p.IsPlaying() {
		t.Error("Load should not start playback")
	}

	_ = p.Resume()
	clock.advance(2 * time.Second)
	if got := p.Position(); got != 2*time.Second {
		t.Errorf("Position = %s, want 2s", got)
	}

	_ = p.Pause()
	clock.advance(5 * time.Second)
	if got := p.Position(); got != 2*time.Second {
		t.Errorf("Position while paused = %s, want 2s", got)
	}

	_ = p.Seek(7 * time.Second)
	_ = p.Toggle()
	clock.advance(time.Second)
	if got := p.Position(); got != 8*time.Second {
		t.Errorf("Position after seek = %s, want 8s", got)
	}

	clock.advance(time.Minute)
	if got := p.Position(); got != 10*time.Second {
		t.Errorf("Position past end = %s, want 10s", got)
	}
	if p.IsPlaying() {
		t.Error("IsPlaying past end of track")
	}

	// resuming a finished track starts over
	_ = p.Pause()
	_ = p.Resume()
	if got := p.Position(); got != 0 {
		t.Errorf("Position after restart = %s, want 0", got)
	}
}

func TestClockPlayerLoadFailure(t *testing.T) {
	boom := errors.New("boom")
	p := NewClockPlayer(func(context.Context, string) ([]byte, error) { return nil, boom })
	if err := p.Load(context.Background(), "x"); !errors.Is(err, boom) {
		t.Errorf("Load = %v, want boom", err)
	}
}

func TestClockPlayerUnbounded(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewClockPlayer(nil)
	p.now = clock.now
	_ = p.Load(context.Background(), "http://example.com/a.wav")
	_ = p.Resume()
	clock.advance(time.Hour)
	if p.Position() != time.Hour || !p.IsPlaying() {
		t.Errorf("Position = %s, playing = %v", p.Position(), p.IsPlaying())
	}
	if p.URL() != "http://example.com/a.wav" {
		t.Errorf("URL = %q", p.URL())
	}
}

func TestClockPlayerClosed(t *testing.T) {
	p := NewClockPlayer(nil)
	_ = p.Close()
	if err := p.Load(context.Background(), "x"); !errors.Is(err, ErrClosed) {
		t.Errorf("Load after Close = %v", err)
	}
	if p.State() != StateClosed {
		t.Errorf("State = %s", p.State())
	}
}

func TestClockPlayerStopAndToggle(t *testing.T) {
	p, clock := newTestClockPlayer(10 * time.Second)
	if err := p.Load(context.Background(), "file:///a.wav"); err != nil {
		t.Fatal(err)
	}

	_ = p.Toggle()
	if p.State() != StatePlaying {
		t.Fatalf("State after Toggle = %s", p.State())
	}
	clock.advance(3 * time.Second)
	_ = p.Toggle()
	if p.State() != StatePaused || p.Position() != 3*time.Second {
		t.Errorf("after second Toggle: %s at %s", p.State(), p.Position())
	}

	_ = p.Stop()
	if p.State() != StateStopped || p.Position() != 0 {
		t.Errorf("after Stop: %s at %s", p.State(), p.Position())
	}

	_ = p.Close()
	for name, fn := range map[string]func() error{
		"Resume": p.Resume,
		"Pause":  p.Pause,
		"Stop":   p.Stop,
	} {
		if err := fn(); !errors.Is(err, ErrClosed) {
			t.Errorf("%s after Close = %v", name, err)
		}
	}
}
