package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Manager layers the memory tier over the disk tier. Reads check memory
// first and promote disk hits; writes go to both.
type Manager struct {
	memory *MemoryCache
	disk   *DiskCache // nil when the disk tier is disabled
	config Config

	stop chan struct{}
	wg   sync.WaitGroup

	mu         sync.Mutex
	promotions int64
	cleanups   int64
}

// NewManager builds both tiers from cfg and starts the background pruner
// when CleanupInterval is set.
func NewManager(cfg Config) (*Manager, error) {
	m := &Manager{
		memory: NewMemoryCache(cfg.MemoryCapacity),
		config: cfg,
		stop:   make(chan struct{}),
	}
	if cfg.DiskCapacity > 0 && cfg.DiskPath != "" {
		disk, err := NewDiskCache(cfg.DiskPath, cfg.DiskCapacity, cfg.CompressionLevel)
		if err != nil {
			return nil, fmt.Errorf("disk cache: %w", err)
		}
		m.disk = disk
	}
	if cfg.CleanupInterval > 0 && cfg.TTL > 0 {
		m.wg.Add(1)
		go m.cleanupLoop()
	}
	return m, nil
}

// Get returns the value for key from the fastest tier holding it.
func (m *Manager) Get(key string) ([]byte, bool) {
	if data, ok := m.memory.Get(key); ok {
		return data, true
	}
	if m.disk == nil {
		return nil, false
	}
	data, ok := m.disk.Get(key)
	if !ok {
		return nil, false
	}
	if err := m.memory.Put(key, data); err == nil {
		m.mu.Lock()
		m.promotions++
		m.mu.Unlock()
	}
	return data, true
}

// Put stores value in both tiers. A value too large for memory still goes
// to disk; a disk failure is logged and not returned.
func (m *Manager) Put(key string, value []byte) error {
	memErr := m.memory.Put(key, value)
	if m.disk == nil {
		return memErr
	}
	if err := m.disk.Put(key, value); err != nil {
		log.Debug("disk cache write failed", "key", key, "error", err)
		return memErr
	}
	return nil
}

// Delete removes key from both tiers.
func (m *Manager) Delete(key string) error {
	_ = m.memory.Delete(key)
	if m.disk != nil {
		return m.disk.Delete(key)
	}
	return nil
}

// Clear empties both tiers.
func (m *Manager) Clear() error {
	_ = m.memory.Clear()
	if m.disk != nil {
		return m.disk.Clear()
	}
	return nil
}

func (m *Manager) Contains(key string) bool {
	return m.memory.Contains(key) || (m.disk != nil && m.disk.Contains(key))
}

// Size returns the combined bytes of both tiers.
func (m *Manager) Size() int64 {
	n := m.memory.Size()
	if m.disk != nil {
		n += m.disk.Size()
	}
	return n
}

// Stats sums both tiers' counters.
func (m *Manager) Stats() Stats {
	s := m.memory.Stats()
	if m.disk != nil {
		d := m.disk.Stats()
		s.Capacity += d.Capacity
		s.Size += d.Size
		s.Items += d.Items
		s.Evictions += d.Evictions
		// a memory miss followed by a disk hit counts as a hit
		s.Hits += d.Hits
		s.Misses = d.Misses
	}
	return s
}

// Promotions returns how many disk hits were copied into memory.
func (m *Manager) Promotions() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.promotions
}

// Cleanup prunes expired entries from both tiers.
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	m.cleanups++
	m.mu.Unlock()

	pruned := m.memory.Prune(m.config.TTL)
	if m.disk != nil {
		pruned += m.disk.Prune(m.config.TTL)
	}
	if pruned > 0 {
		log.Debug("cache cleanup", "pruned", pruned)
	}
	return pruned
}

// Close stops the pruner and persists the disk index.
func (m *Manager) Close() error {
	select {
	case <-m.stop:
	default:
		close(m.stop)
	}
	m.wg.Wait()
	if m.disk != nil {
		return m.disk.Close()
	}
	return nil
}

func (m *Manager) cleanupLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Cleanup()
		case <-m.stop:
			return
		}
	}
}
