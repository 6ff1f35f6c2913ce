package sync_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leonezhu/readalong/transcript"
	tsync "github.com/leonezhu/readalong/transcript/sync"
)

// fakePosition is an audio position that tests move by hand.
type fakePosition struct {
	pos atomic.Int64
}

func (p *fakePosition) Position() time.Duration { return time.Duration(p.pos.Load()) }
func (p *fakePosition) set(d time.Duration)      { p.pos.Store(int64(d)) }

// fakeUpdater locates the highlighted sentence the way the controller does.
type fakeUpdater struct {
	mu        sync.Mutex
	sentences []transcript.Sentence
	snap      transcript.Snapshot
	updates   int
}

func newFakeUpdater() *fakeUpdater {
	return &fakeUpdater{
		sentences: []transcript.Sentence{
			{Text: "First.", StartTime: 0, EndTime: 1},
			{Text: "Second.", StartTime: 1.5, EndTime: 3},
		},
		snap: transcript.Snapshot{HighlightedIndex: transcript.NoSentence},
	}
}

func (u *fakeUpdater) OnPlaybackTimeUpdate(t float64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.updates++
	u.snap.CurrentTime = t
	u.snap.HighlightedIndex, _ = transcript.Locate(u.sentences, t)
}

func (u *fakeUpdater) Snapshot() transcript.Snapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.snap
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// TestManagerStartStop tests that Start and Stop are idempotent.
func TestManagerStartStop(t *testing.T) {
	m := tsync.NewManager(0)
	if m.Running() {
		t.Fatal("manager should not be running initially")
	}

	m.Stop()

	pos, up := &fakePosition{}, newFakeUpdater()
	m.Start(pos, up)
	m.Start(pos, up)
	if !m.Running() {
		t.Fatal("manager should be running after Start")
	}
	waitFor(t, "first update", func() bool { return up.Snapshot().HighlightedIndex == 0 })

	m.Stop()
	m.Stop()
	if m.Running() {
		t.Fatal("manager should be stopped")
	}

	up.mu.Lock()
	n := up.updates
	up.mu.Unlock()
	time.Sleep(3 * tsync.DefaultUpdateRate)
	up.mu.Lock()
	defer up.mu.Unlock()
	if up.updates != n {
		t.Errorf("updates after Stop: %d -> %d", n, up.updates)
	}
}

// TestManagerHighlightCallbacks tests that highlight callbacks fire only
// when the highlighted sentence changes.
func TestManagerHighlightCallbacks(t *testing.T) {
	m := tsync.NewManager(5 * time.Millisecond)
	pos, up := &fakePosition{}, newFakeUpdater()

	var (
		mu   sync.Mutex
		seen []int
	)
	m.OnHighlightChange(func(s transcript.Snapshot) {
		mu.Lock()
		seen = append(seen, s.HighlightedIndex)
		mu.Unlock()
	})
	highlights := func() []int {
		mu.Lock()
		defer mu.Unlock()
		return append([]int(nil), seen...)
	}

	m.Start(pos, up)
	defer m.Stop()

	waitFor(t, "first highlight", func() bool { return len(highlights()) == 1 })
	time.Sleep(30 * time.Millisecond)
	if got := highlights(); len(got) != 1 || got[0] != 0 {
		t.Fatalf("steady position fired %v", got)
	}

	pos.set(1200 * time.Millisecond)
	waitFor(t, "gap", func() bool { return len(highlights()) == 2 })
	pos.set(2 * time.Second)
	waitFor(t, "second sentence", func() bool { return len(highlights()) == 3 })

	want := []int{0, transcript.NoSentence, 1}
	got := highlights()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("highlights = %v, want %v", got, want)
		}
	}
}

// TestManagerTickCallbacks tests that tick callbacks fire once per
// elapsed playback second.
func TestManagerTickCallbacks(t *testing.T) {
	m := tsync.NewManager(5 * time.Millisecond)
	pos, up := &fakePosition{}, newFakeUpdater()

	var ticks atomic.Int32
	m.OnTick(func(transcript.Snapshot) { ticks.Add(1) })
	m.OnTick(nil)

	m.Start(pos, up)
	defer m.Stop()

	waitFor(t, "first tick", func() bool { return ticks.Load() == 1 })
	pos.set(500 * time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	if n := ticks.Load(); n != 1 {
		t.Fatalf("ticks within the same second = %d", n)
	}

	pos.set(1500 * time.Millisecond)
	waitFor(t, "second tick", func() bool { return ticks.Load() == 2 })
}
