package insights_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/cricket-insights/internal/insights"
	"github.com/pitchside/cricket-insights/internal/models"
)

func successResponse(text string) models.InsightResponse {
	return models.InsightResponse{
		ID:          "test-id",
		Text:        text,
		GeneratedAt: time.Now(),
		Success:     true,
	}
}

func TestResponseCache_MemoizesSuccess(t *testing.T) {
	cache := insights.NewResponseCache(nil, time.Minute, testLogger())
	ctx := context.Background()

	var calls int32
	compute := func(context.Context) (models.InsightResponse, error) {
		atomic.AddInt32(&calls, 1)
		return successResponse("analysis"), nil
	}

	first := cache.GetOrCompute(ctx, "key-1", compute)
	assert.True(t, first.Success)
	assert.Equal(t, "analysis", first.Text)

	second := cache.GetOrCompute(ctx, "key-1", compute)
	assert.True(t, second.Success)
	assert.True(t, second.CacheHit)
	assert.Equal(t, "analysis", second.Text)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 1, cache.Len())
}

func TestResponseCache_ConcurrentCallersShareOneFlight(t *testing.T) {
	cache := insights.NewResponseCache(nil, time.Minute, testLogger())

	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	compute := func(context.Context) (models.InsightResponse, error) {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-release
		return successResponse("shared analysis"), nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]models.InsightResponse, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cache.GetOrCompute(context.Background(), "shared-key", compute)
		}(i)
	}

	<-started
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, res := range results {
		assert.True(t, res.Success)
		assert.Equal(t, "shared analysis", res.Text)
	}
}

func TestResponseCache_DistinctKeysComputeIndependently(t *testing.T) {
	cache := insights.NewResponseCache(nil, time.Minute, testLogger())
	ctx := context.Background()

	var calls int32
	compute := func(context.Context) (models.InsightResponse, error) {
		atomic.AddInt32(&calls, 1)
		return successResponse("analysis"), nil
	}

	cache.GetOrCompute(ctx, "key-a", compute)
	cache.GetOrCompute(ctx, "key-b", compute)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 2, cache.Len())
}

func TestResponseCache_FailuresAreNotMemoized(t *testing.T) {
	cache := insights.NewResponseCache(nil, time.Minute, testLogger())
	ctx := context.Background()

	var calls int32
	compute := func(context.Context) (models.InsightResponse, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return models.InsightResponse{}, errors.New("upstream unavailable")
		}
		return successResponse("recovered"), nil
	}

	failed := cache.GetOrCompute(ctx, "flaky-key", compute)
	assert.False(t, failed.Success)
	assert.Contains(t, failed.Error, "upstream unavailable")
	assert.Equal(t, 0, cache.Len())

	// The next request retries instead of replaying the failure.
	recovered := cache.GetOrCompute(ctx, "flaky-key", compute)
	assert.True(t, recovered.Success)
	assert.Equal(t, "recovered", recovered.Text)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestResponseCache_AbandonedCallerStillPopulatesCache(t *testing.T) {
	cache := insights.NewResponseCache(nil, time.Minute, testLogger())

	release := make(chan struct{})
	compute := func(context.Context) (models.InsightResponse, error) {
		<-release
		return successResponse("slow analysis"), nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	abandoned := cache.GetOrCompute(ctx, "slow-key", compute)
	assert.False(t, abandoned.Success)

	// The detached computation finishes and lands in the cache.
	close(release)
	assert.Eventually(t, func() bool { return cache.Len() == 1 }, time.Second, 10*time.Millisecond)

	cached := cache.GetOrCompute(context.Background(), "slow-key", func(context.Context) (models.InsightResponse, error) {
		t.Fatal("compute must not run for a cached key")
		return models.InsightResponse{}, nil
	})
	assert.True(t, cached.Success)
	assert.True(t, cached.CacheHit)
	assert.Equal(t, "slow analysis", cached.Text)
}

func TestResponseCache_FlushDropsEntries(t *testing.T) {
	cache := insights.NewResponseCache(nil, time.Minute, testLogger())
	ctx := context.Background()

	var calls int32
	compute := func(context.Context) (models.InsightResponse, error) {
		atomic.AddInt32(&calls, 1)
		return successResponse("analysis"), nil
	}

	cache.GetOrCompute(ctx, "key-1", compute)
	require.Equal(t, 1, cache.Len())

	cache.Flush(ctx)
	assert.Equal(t, 0, cache.Len())

	cache.GetOrCompute(ctx, "key-1", compute)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

// fakeStore is an in-memory ResponseStore standing in for the Redis
// tier.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string]models.InsightResponse
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]models.InsightResponse)}
}

func (s *fakeStore) Get(_ context.Context, key string) (*models.InsightResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return &resp, true
}

func (s *fakeStore) Set(_ context.Context, key string, resp models.InsightResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = resp
}

func (s *fakeStore) Flush(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]models.InsightResponse)
}

func TestResponseCache_PromotesFromSecondTier(t *testing.T) {
	store := newFakeStore()
	store.Set(context.Background(), "warm-key", successResponse("stored analysis"))

	cache := insights.NewResponseCache(store, time.Minute, testLogger())

	resp := cache.GetOrCompute(context.Background(), "warm-key", func(context.Context) (models.InsightResponse, error) {
		t.Fatal("compute must not run when the second tier has the entry")
		return models.InsightResponse{}, nil
	})

	assert.True(t, resp.Success)
	assert.True(t, resp.CacheHit)
	assert.Equal(t, "stored analysis", resp.Text)
	assert.Equal(t, 1, cache.Len())
}

func TestResponseCache_WritesThroughToSecondTier(t *testing.T) {
	store := newFakeStore()
	cache := insights.NewResponseCache(store, time.Minute, testLogger())

	cache.GetOrCompute(context.Background(), "key-1", func(context.Context) (models.InsightResponse, error) {
		return successResponse("analysis"), nil
	})

	stored, ok := store.Get(context.Background(), "key-1")
	require.True(t, ok)
	assert.Equal(t, "analysis", stored.Text)
}
