package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/marocz/wearguard/server/internal/features"
	"github.com/marocz/wearguard/server/internal/predict"
)

// DefaultMaxEntries bounds the store when New is given a non-positive max.
const DefaultMaxEntries = 10000

// Entry is one served prediction together with the time it was stored.
type Entry struct {
	ID       string
	Reading  features.Reading
	Result   predict.Result
	StoredAt time.Time
}

// Store is a thread-safe in-memory prediction store, keyed by request ID.
// A background goroutine (Run) periodically evicts entries older than the
// configured TTL. When full, the oldest entry is dropped on Put.
type Store struct {
	mu    sync.RWMutex
	data  map[string]*Entry
	order []string // insertion order, oldest first
	ttl   time.Duration
	max   int
	now   func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL and size bound.
func New(ttl time.Duration, maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{
		data: make(map[string]*Entry),
		ttl:  ttl,
		max:  maxEntries,
		now:  time.Now,
	}
}

// Put stores or replaces the prediction for id.
func (s *Store) Put(id string, reading features.Reading, res predict.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[id]; ok {
		s.unlink(id)
	}
	s.order = append(s.order, id)
	s.data[id] = &Entry{ID: id, Reading: reading, Result: res, StoredAt: s.now()}

	for len(s.data) > s.max && len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.data, oldest)
	}
}

// unlink removes id from the insertion order. Callers hold s.mu.
func (s *Store) unlink(id string) {
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// Get returns a copy of the entry for id if it exists and is within the TTL.
func (s *Store) Get(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[id]
	if !ok || !e.StoredAt.After(s.now().Add(-s.ttl)) {
		return Entry{}, false
	}
	return *e, true
}

// List returns copies of the entries within the TTL, newest first.
// A positive limit caps the number returned.
func (s *Store) List(limit int) []Entry {
	s.mu.RLock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]Entry, 0, len(s.data))
	for _, e := range s.data {
		if e.StoredAt.After(cutoff) {
			out = append(out, *e)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].StoredAt.After(out[j].StoredAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Count returns the total number of entries currently held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes entries whose StoredAt is older than now minus TTL.
// It returns the number of entries removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	for id, e := range s.data {
		if !e.StoredAt.After(cutoff) {
			delete(s.data, id)
			removed++
		}
	}
	if removed > 0 {
		kept := s.order[:0]
		for _, id := range s.order {
			if _, ok := s.data[id]; ok {
				kept = append(kept, id)
			}
		}
		s.order = kept
	}
	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL interval
// (minimum 1 second) so entries are evicted promptly. Run blocks until ctx is
// cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale predictions", "count", n)
			}
		}
	}
}
