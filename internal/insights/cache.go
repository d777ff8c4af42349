package insights

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/pitchside/cricket-insights/internal/models"
)

// ResponseStore is an optional second cache tier shared between
// replicas. Lookups and writes are best-effort; a failing store never
// fails an insight request.
type ResponseStore interface {
	Get(ctx context.Context, key string) (*models.InsightResponse, bool)
	Set(ctx context.Context, key string, resp models.InsightResponse)
	Flush(ctx context.Context)
}

// ResponseCache memoizes successful insight responses for the process
// lifetime, keyed by (mode, filter signature, data fingerprint).
// Concurrent callers of one key share a single upstream computation via
// singleflight while distinct keys proceed fully in parallel. Entries are
// only invalidated when the dataset reloads.
type ResponseCache struct {
	group          singleflight.Group
	mu             sync.RWMutex
	entries        map[string]models.InsightResponse
	store          ResponseStore
	computeTimeout time.Duration
	logger         *logrus.Logger
}

// NewResponseCache builds a cache. store may be nil; computeTimeout
// bounds how long a detached computation may run once its caller is gone.
func NewResponseCache(store ResponseStore, computeTimeout time.Duration, logger *logrus.Logger) *ResponseCache {
	if computeTimeout <= 0 {
		computeTimeout = 2 * time.Minute
	}
	return &ResponseCache{
		entries:        make(map[string]models.InsightResponse),
		store:          store,
		computeTimeout: computeTimeout,
		logger:         logger,
	}
}

// GetOrCompute returns the cached response for key or runs compute once,
// whatever the number of concurrent callers. Failed computations are
// returned to every waiter of that flight but never memoized, so the
// next request retries. A caller whose context expires receives a failed
// response immediately; the in-flight computation keeps running detached
// and its result, if successful, is cached for the next caller.
func (c *ResponseCache) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (models.InsightResponse, error)) models.InsightResponse {
	if resp, ok := c.lookup(ctx, key); ok {
		resp.CacheHit = true
		return resp
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		// Detached from the originating caller: an abandoned request
		// must not cancel work other callers may be waiting on.
		computeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.computeTimeout)
		defer cancel()

		resp, err := compute(computeCtx)
		if err != nil {
			c.logger.WithError(err).WithField("key", shortKey(key)).Warn("Insight computation failed")
			return failedResponse(key, err), nil
		}
		c.remember(computeCtx, key, resp)
		return resp, nil
	})

	select {
	case <-ctx.Done():
		return failedResponse(key, ctx.Err())
	case res := <-ch:
		resp := res.Val.(models.InsightResponse)
		resp.CacheHit = resp.CacheHit || res.Shared && resp.Success
		return resp
	}
}

// Flush drops every entry; invoked when the dataset snapshot is
// replaced.
func (c *ResponseCache) Flush(ctx context.Context) {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[string]models.InsightResponse)
	c.mu.Unlock()

	if c.store != nil {
		c.store.Flush(ctx)
	}
	c.logger.WithField("entries", n).Info("Response cache flushed")
}

// Len reports the number of memoized responses.
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ResponseCache) lookup(ctx context.Context, key string) (models.InsightResponse, bool) {
	c.mu.RLock()
	resp, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return resp, true
	}

	if c.store != nil {
		if stored, ok := c.store.Get(ctx, key); ok && stored.Success {
			c.mu.Lock()
			c.entries[key] = *stored
			c.mu.Unlock()
			return *stored, true
		}
	}
	return models.InsightResponse{}, false
}

func (c *ResponseCache) remember(ctx context.Context, key string, resp models.InsightResponse) {
	c.mu.Lock()
	c.entries[key] = resp
	c.mu.Unlock()

	if c.store != nil {
		c.store.Set(ctx, key, resp)
	}
}

func failedResponse(key string, err error) models.InsightResponse {
	return models.InsightResponse{
		Fingerprint: key,
		GeneratedAt: time.Now(),
		Success:     false,
		Error:       err.Error(),
	}
}

func shortKey(key string) string {
	if len(key) > 16 {
		return key[:16]
	}
	return key
}
