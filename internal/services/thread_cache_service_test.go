package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/inboxkit/triage/internal/model"
)

// fakeFetcher is an in-memory ThreadFetcher for tests
type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	data  *model.ThreadData
	err   error
}

func (f *fakeFetcher) FetchThread(ctx context.Context, threadID string) (*model.ThreadData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func sampleThread(threadID string) *model.ThreadData {
	return &model.ThreadData{
		ThreadID: threadID,
		Messages: []model.ThreadMessage{
			{From: "teacher@school.example", Subject: "Field trip forms"},
		},
		DetectedDates: []string{"friday"},
	}
}

func TestThreadCache_PutAndGet(t *testing.T) {
	cache := NewThreadCacheService(nil)

	cache.Put("t1", sampleThread("t1"))

	data, ok := cache.Get("t1")
	assert.True(t, ok)
	assert.Equal(t, "t1", data.ThreadID)
	assert.Len(t, data.Messages, 1)
}

func TestThreadCache_MissOnUnknownThread(t *testing.T) {
	cache := NewThreadCacheService(nil)

	_, ok := cache.Get("nope")
	assert.False(t, ok)
}

func TestThreadCache_ExpiryBoundary(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		readAt    time.Time
		expectHit bool
	}{
		{"just_before_ttl", base.Add(4*time.Minute + 59*time.Second), true},
		{"exactly_at_ttl", base.Add(5 * time.Minute), false},
		{"just_after_ttl", base.Add(5*time.Minute + 1*time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewThreadCacheService(nil)
			cache.now = func() time.Time { return base }
			cache.Put("t1", sampleThread("t1"))

			cache.now = func() time.Time { return tt.readAt }
			_, ok := cache.Get("t1")
			assert.Equal(t, tt.expectHit, ok)

			if !tt.expectHit {
				// The stale entry is purged, not just hidden
				cache.mu.Lock()
				_, stillThere := cache.entries["t1"]
				cache.mu.Unlock()
				assert.False(t, stillThere)
			}
		})
	}
}

func TestThreadCache_PutReplacesWholesale(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewThreadCacheService(nil)
	cache.now = func() time.Time { return base }
	cache.Put("t1", sampleThread("t1"))

	// A later Put restarts the clock and swaps the data in full
	cache.now = func() time.Time { return base.Add(4 * time.Minute) }
	replacement := sampleThread("t1")
	replacement.DetectedAmounts = []string{"$12.00"}
	cache.Put("t1", replacement)

	cache.now = func() time.Time { return base.Add(8 * time.Minute) }
	data, ok := cache.Get("t1")
	assert.True(t, ok)
	assert.Equal(t, []string{"$12.00"}, data.DetectedAmounts)
}

func TestThreadCache_Invalidate(t *testing.T) {
	cache := NewThreadCacheService(nil)
	cache.Put("t1", sampleThread("t1"))

	cache.Invalidate("t1")

	_, ok := cache.Get("t1")
	assert.False(t, ok)
}

func TestThreadCache_Sweep(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewThreadCacheService(nil)

	cache.now = func() time.Time { return base }
	cache.Put("old1", sampleThread("old1"))
	cache.Put("old2", sampleThread("old2"))

	cache.now = func() time.Time { return base.Add(4 * time.Minute) }
	cache.Put("fresh", sampleThread("fresh"))

	removed := cache.Sweep(base.Add(6 * time.Minute))

	assert.Equal(t, 2, removed)
	_, ok := cache.Get("fresh")
	assert.True(t, ok)
	assert.Equal(t, 0, cache.Sweep(base.Add(6*time.Minute)))
}

func TestGetOrFetch_HitSkipsFetcher(t *testing.T) {
	fetcher := &fakeFetcher{data: sampleThread("t1")}
	cache := NewThreadCacheService(fetcher)
	cache.Put("t1", sampleThread("t1"))

	data, err := cache.GetOrFetch(context.Background(), "t1")

	assert.NoError(t, err)
	assert.Equal(t, "t1", data.ThreadID)
	assert.Equal(t, 0, fetcher.calls)
}

func TestGetOrFetch_MissFetchesAndCaches(t *testing.T) {
	fetcher := &fakeFetcher{data: sampleThread("t1")}
	cache := NewThreadCacheService(fetcher)

	data, err := cache.GetOrFetch(context.Background(), "t1")
	assert.NoError(t, err)
	assert.Equal(t, "t1", data.ThreadID)
	assert.Equal(t, 1, fetcher.calls)

	// Second call is served from cache
	_, err = cache.GetOrFetch(context.Background(), "t1")
	assert.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)
}

func TestGetOrFetch_FailureIsNotCached(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("gmail unreachable")}
	cache := NewThreadCacheService(fetcher)

	_, err := cache.GetOrFetch(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.True(t, IsRetryableError(err))

	cache.mu.Lock()
	assert.Empty(t, cache.entries)
	cache.mu.Unlock()

	// The fetcher recovers; the next call must retry, not replay the failure
	fetcher.mu.Lock()
	fetcher.err = nil
	fetcher.data = sampleThread("t1")
	fetcher.mu.Unlock()

	data, err := cache.GetOrFetch(context.Background(), "t1")
	assert.NoError(t, err)
	assert.Equal(t, "t1", data.ThreadID)
	assert.Equal(t, 2, fetcher.calls)
}

func TestGetOrFetch_NoFetcher(t *testing.T) {
	cache := NewThreadCacheService(nil)

	_, err := cache.GetOrFetch(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrFetchUnavailable)
}

func TestGetOrFetch_EmptyThreadID(t *testing.T) {
	cache := NewThreadCacheService(&fakeFetcher{})

	_, err := cache.GetOrFetch(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestStartJanitor_SweepsAndStopsCleanly(t *testing.T) {
	defer goleak.VerifyNone(t)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewThreadCacheService(nil)
	cache.now = func() time.Time { return base }
	cache.Put("t1", sampleThread("t1"))

	stop := cache.StartJanitor(10 * time.Millisecond)

	// The ticker delivers wall-clock time, far past the injected timestamp
	assert.Eventually(t, func() bool {
		cache.mu.Lock()
		defer cache.mu.Unlock()
		return len(cache.entries) == 0
	}, time.Second, 10*time.Millisecond)

	stop()
	stop() // stopping twice is safe
}

func BenchmarkThreadCache_Get(b *testing.B) {
	cache := NewThreadCacheService(nil)
	cache.Put("t1", sampleThread("t1"))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = cache.Get("t1")
	}
}
