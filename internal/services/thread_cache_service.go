package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/inboxkit/triage/internal/model"
)

// threadTTL is the fixed time-to-live for cached thread data. An entry whose
// age reaches the TTL is treated exactly like a miss.
const threadTTL = 5 * time.Minute

type cacheEntry struct {
	data      *model.ThreadData
	timestamp time.Time
}

func (e cacheEntry) expired(now time.Time) bool {
	return now.Sub(e.timestamp) >= threadTTL
}

// ThreadCacheServiceImpl implements ThreadCacheService. A single mutex guards
// the entry map; all operations are O(1) map accesses, so coarse locking is
// fine. Only GetOrFetch can block, and only inside the fetch collaborator.
type ThreadCacheServiceImpl struct {
	fetcher ThreadFetcher

	mu      sync.Mutex
	entries map[string]cacheEntry

	now    func() time.Time
	logger *log.Logger // Optional - for debug logging
}

// NewThreadCacheService creates a thread cache backed by the given fetcher.
// A nil fetcher is allowed; GetOrFetch then fails on every miss.
func NewThreadCacheService(fetcher ThreadFetcher) *ThreadCacheServiceImpl {
	return &ThreadCacheServiceImpl{
		fetcher: fetcher,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// SetLogger sets the logger for debug output
func (s *ThreadCacheServiceImpl) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// Get returns cached thread data if present and younger than the TTL.
// A stale entry is evicted on the spot and reported as a miss, so callers
// see expired and missing entries identically regardless of sweep cadence.
func (s *ThreadCacheServiceImpl) Get(threadID string) (*model.ThreadData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[threadID]
	if !ok {
		return nil, false
	}
	if entry.expired(s.now()) {
		delete(s.entries, threadID)
		return nil, false
	}
	return entry.data, true
}

// Put inserts or replaces the entry for threadID wholesale with the current
// timestamp. Entries are never patched in place; last writer wins.
func (s *ThreadCacheServiceImpl) Put(threadID string, data *model.ThreadData) {
	if threadID == "" || data == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[threadID] = cacheEntry{data: data, timestamp: s.now()}
}

// Invalidate removes the entry for threadID regardless of age
func (s *ThreadCacheServiceImpl) Invalidate(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, threadID)
}

// Sweep removes every entry whose age at `now` has reached the TTL and
// returns how many were dropped. Safe to call on any schedule; Get enforces
// the TTL on its own either way.
func (s *ThreadCacheServiceImpl) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.entries {
		if entry.expired(now) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// GetOrFetch returns cached data for threadID or delegates to the fetch
// collaborator on a miss. A failed fetch leaves the cache untouched; retry
// and backoff policy belong to the caller.
func (s *ThreadCacheServiceImpl) GetOrFetch(ctx context.Context, threadID string) (*model.ThreadData, error) {
	if threadID == "" {
		return nil, fmt.Errorf("threadID cannot be empty: %w", ErrInvalidInput)
	}

	if data, ok := s.Get(threadID); ok {
		return data, nil
	}

	if s.fetcher == nil {
		return nil, ErrFetchUnavailable
	}

	data, err := s.fetcher.FetchThread(ctx, threadID)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("thread cache: fetch failed for %s: %v", threadID, err)
		}
		return nil, fmt.Errorf("fetch thread %s: %v: %w", threadID, err, ErrFetchFailed)
	}

	s.Put(threadID, data)
	return data, nil
}

// StartJanitor runs Sweep on the given interval in a background goroutine
// and returns a stop function. Stopping twice is safe.
func (s *ThreadCacheServiceImpl) StartJanitor(interval time.Duration) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				s.Sweep(now)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
