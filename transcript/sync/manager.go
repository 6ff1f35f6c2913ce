// Package sync drives the transcript controller from the audio element's
// playback position.
package sync

import (
	"sync"
	"time"

	"github.com/leonezhu/readalong/transcript"
)

// DefaultUpdateRate is how often the audio position is sampled.
const DefaultUpdateRate = 100 * time.Millisecond

// Position reports the current playback position.
type Position interface {
	Position() time.Duration
}

// Updater receives playback time updates.
type Updater interface {
	OnPlaybackTimeUpdate(t float64)
	Snapshot() transcript.Snapshot
}

// Manager samples the audio position on a ticker and forwards it to the
// controller. OnHighlightChange callbacks fire only when the highlighted
// sentence changes; OnTick callbacks fire when the whole second advances.
type Manager struct {
	updateRate time.Duration

	mu            sync.Mutex
	running       bool
	stopCh        chan struct{}
	doneCh        chan struct{}
	lastHighlight int
	lastSecond    int64

	callbacksMu sync.RWMutex
	onHighlight []func(transcript.Snapshot)
	onTick      []func(transcript.Snapshot)
}

// NewManager creates a new synchronization manager.
func NewManager(updateRate time.Duration) *Manager {
	if updateRate <= 0 {
		updateRate = DefaultUpdateRate
	}
	return &Manager{
		updateRate:    updateRate,
		lastHighlight: transcript.NoSentence,
		lastSecond:    -1,
	}
}

// OnHighlightChange registers a callback for highlight changes.
func (m *Manager) OnHighlightChange(callback func(transcript.Snapshot)) {
	m.callbacksMu.Lock()
	defer m.callbacksMu.Unlock()
	m.onHighlight = append(m.onHighlight, callback)
}

// OnTick registers a callback fired once per elapsed playback second.
func (m *Manager) OnTick(callback func(transcript.Snapshot)) {
	m.callbacksMu.Lock()
	defer m.callbacksMu.Unlock()
	m.onTick = append(m.onTick, callback)
}

// Start begins sampling player into controller. Calling Start while
// running is a no-op.
func (m *Manager) Start(player Position, controller Updater) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	go m.syncLoop(player, controller, m.stopCh, m.doneCh)
}

// Stop halts sampling and waits for the loop to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopCh)
	done := m.doneCh
	m.mu.Unlock()
	<-done
}

// Running reports whether the loop is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) syncLoop(player Position, controller Updater, stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.updateRate)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.update(player, controller)
		}
	}
}

// update samples the position once.
func (m *Manager) update(player Position, controller Updater) {
	pos := player.Position()
	controller.OnPlaybackTimeUpdate(transcript.ToSeconds(pos))
	snap := controller.Snapshot()

	m.mu.Lock()
	second := int64(pos / time.Second)
	highlightChanged := snap.HighlightedIndex != m.lastHighlight
	ticked := second != m.lastSecond
	m.lastHighlight = snap.HighlightedIndex
	m.lastSecond = second
	m.mu.Unlock()

	m.callbacksMu.RLock()
	defer m.callbacksMu.RUnlock()
	if highlightChanged {
		notify(m.onHighlight, snap)
	}
	if ticked {
		notify(m.onTick, snap)
	}
}

func notify(callbacks []func(transcript.Snapshot), snap transcript.Snapshot) {
	for _, callback := range callbacks {
		if callback != nil {
			callback(snap)
		}
	}
}
