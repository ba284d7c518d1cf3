package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/orderflow/internal/domain/shared"
)

const DefaultSweepInterval = 5 * time.Minute

// MemoryStore keeps replay keys in a map with per-key deadlines. Keys are
// private to the process, so it fits single-instance deployments and tests.
type MemoryStore struct {
	mu        sync.Mutex
	deadlines map[string]time.Time
	now       func() time.Time

	stop      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore starts a store whose expired keys are dropped every
// sweepEvery, or DefaultSweepInterval when sweepEvery is not positive.
func NewMemoryStore(sweepEvery time.Duration) *MemoryStore {
	if sweepEvery <= 0 {
		sweepEvery = DefaultSweepInterval
	}
	s := &MemoryStore{
		deadlines: make(map[string]time.Time),
		now:       time.Now,
		stop:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go s.sweepLoop(sweepEvery)
	return s
}

// MarkProcessed claims key for ttl and reports whether this call won the
// claim. A key whose deadline has passed can be claimed again.
func (s *MemoryStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.liveAt(key, now) {
		return false, nil
	}
	s.deadlines[key] = now.Add(ttl)
	return true, nil
}

func (s *MemoryStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveAt(key, s.now()), nil
}

func (s *MemoryStore) liveAt(key string, now time.Time) bool {
	deadline, ok := s.deadlines[key]
	return ok && now.Before(deadline)
}

// Len counts stored keys, including expired ones not yet swept.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deadlines)
}

// Close stops the sweeper. Further calls are no-ops.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.stopped
	})
	return nil
}

func (s *MemoryStore) sweepLoop(every time.Duration) {
	defer close(s.stopped)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep drops expired keys and returns how many it removed.
func (s *MemoryStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for key, deadline := range s.deadlines {
		if !now.Before(deadline) {
			delete(s.deadlines, key)
			removed++
		}
	}
	return removed
}

var _ shared.IdempotencyStore = (*MemoryStore)(nil)
