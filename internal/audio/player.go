package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// PlayerConfig configures the device context. Tracks at other rates or
// channel counts are converted on load.
type PlayerConfig struct {
	SampleRate int
	Channels   int
	BufferSize time.Duration
}

// DefaultPlayerConfig matches the 24 kHz mono output of the synthesis
// backend.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 24000,
		Channels:   1,
		BufferSize: 100 * time.Millisecond,
	}
}

// oto allows a single context per process.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

func sharedContext(cfg PlayerConfig) (*oto.Context, error) {
	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: cfg.Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   cfg.BufferSize,
		})
		if otoErr == nil {
			<-ready
		}
	})
	return otoCtx, otoErr
}

// Player plays one track at a time on the sound device. Position is read
// from the bytes oto has consumed, so it stays exact across seeks and
// pauses.
type Player struct {
	ctx   *oto.Context
	cfg   PlayerConfig
	fetch Fetcher

	mu     sync.Mutex
	player *oto.Player
	stream *stream // keeps the sample buffer alive while oto reads it
	pcm    *PCM

	state atomic.Int32
}

// NewPlayer opens the sound device. fetch resolves audio URLs on Load.
func NewPlayer(cfg PlayerConfig, fetch Fetcher) (*Player, error) {
	if cfg.SampleRate <= 0 || (cfg.Channels != 1 && cfg.Channels != 2) {
		return nil, fmt.Errorf("invalid player config: %d Hz, %d channels", cfg.SampleRate, cfg.Channels)
	}
	if fetch == nil {
		return nil, errors.New("player needs a fetcher")
	}
	ctx, err := sharedContext(cfg)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	p := &Player{ctx: ctx, cfg: cfg, fetch: fetch}
	p.state.Store(int32(StateStopped))
	return p, nil
}

// Load fetches and decodes url and makes it the current track, paused at
// the start. The previous track is stopped only once the new one decodes.
func (p *Player) Load(ctx context.Context, url string) error {
	if p.State() == StateClosed {
		return ErrClosed
	}
	data, err := p.fetch(ctx, url)
	if err != nil {
		return err
	}
	pcm, err := DecodeWAV(data)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	pcm = pcm.Convert(p.cfg.SampleRate, p.cfg.Channels)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked()
	p.pcm = pcm
	p.stream = &stream{r: bytes.NewReader(pcm.Data)}
	p.player = p.ctx.NewPlayer(p.stream)
	p.state.Store(int32(StatePaused))

	log.Debug("audio loaded", "url", url, "duration", pcm.Duration())
	return nil
}

// Resume starts or continues playback from the current position.
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.State() {
	case StateClosed:
		return ErrClosed
	case StatePlaying:
		return nil
	}
	if p.player == nil {
		return ErrNotLoaded
	}
	if p.positionLocked() >= p.pcm.Duration() {
		if err := p.seekLocked(0); err != nil {
			return err
		}
	}
	p.player.Play()
	p.state.Store(int32(StatePlaying))
	return nil
}

// Pause holds the current position.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.State() == StateClosed {
		return ErrClosed
	}
	if p.player != nil {
		p.player.Pause()
		p.state.Store(int32(StatePaused))
	}
	return nil
}

// Toggle pauses when playing and resumes otherwise.
func (p *Player) Toggle() error {
	if p.IsPlaying() {
		return p.Pause()
	}
	return p.Resume()
}

// Stop pauses and rewinds to the start.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.State() == StateClosed {
		return ErrClosed
	}
	if p.player == nil {
		return nil
	}
	p.player.Pause()
	p.state.Store(int32(StateStopped))
	return p.seekLocked(0)
}

// Seek moves to d, clamped to the track.
func (p *Player) Seek(d time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.State() == StateClosed {
		return ErrClosed
	}
	if p.player == nil {
		return ErrNotLoaded
	}
	return p.seekLocked(clamp(d, p.pcm.Duration()))
}

func (p *Player) seekLocked(d time.Duration) error {
	if _, err := p.player.Seek(p.pcm.Offset(d), io.SeekStart); err != nil {
		return fmt.Errorf("seek to %s: %w", d, err)
	}
	return nil
}

// Position returns the playback position of the current track.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

func (p *Player) positionLocked() time.Duration {
	if p.player == nil || p.pcm == nil {
		return 0
	}
	played := p.stream.offset() - int64(p.player.BufferedSize())
	if played < 0 {
		played = 0
	}
	frameSize := int64(2 * p.pcm.Channels)
	return time.Duration(played/frameSize) * time.Second / time.Duration(p.pcm.SampleRate)
}

// Duration returns the length of the current track.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pcm == nil {
		return 0
	}
	return p.pcm.Duration()
}

// IsPlaying reports whether sound is being produced. A track that played
// to its end reports false.
func (p *Player) IsPlaying() bool {
	if p.State() != StatePlaying {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.player != nil && p.player.IsPlaying()
}

// State returns the transport state.
func (p *Player) State() PlayerState {
	return PlayerState(p.state.Load())
}

// Close releases the current track. The device context lives for the
// process.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked()
	p.state.Store(int32(StateClosed))
	return nil
}

func (p *Player) releaseLocked() {
	// a paused, unreferenced oto player is reclaimed by the context
	if p.player != nil {
		p.player.Pause()
		p.player = nil
	}
	p.stream = nil
	p.pcm = nil
}

// stream is a bytes.Reader safe for oto's reader goroutine and our
// position queries.
type stream struct {
	mu sync.Mutex
	r  *bytes.Reader
}

func (s *stream) Read(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Read(b)
}

func (s *stream) Seek(offset int64, whence int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Seek(offset, whence)
}

func (s *stream) offset() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Size() - int64(s.r.Len())
}

var _ Element = (*Player)(nil)
