package insights

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pitchside/cricket-insights/internal/dataset"
	"github.com/pitchside/cricket-insights/internal/models"
)

// Service orchestrates insight generation: prompt building, rate
// limiting, the external call, and response caching. It is the only
// component the dashboard layer calls for AI-generated text.
type Service struct {
	data      *dataset.Store
	builder   *PromptBuilder
	generator Generator
	limiter   *RateLimiter
	cache     *ResponseCache
	logger    *logrus.Logger
}

func NewService(
	data *dataset.Store,
	builder *PromptBuilder,
	generator Generator,
	limiter *RateLimiter,
	cache *ResponseCache,
	logger *logrus.Logger,
) *Service {
	return &Service{
		data:      data,
		builder:   builder,
		generator: generator,
		limiter:   limiter,
		cache:     cache,
		logger:    logger,
	}
}

// RequestInsight serves one analysis request. Programmer errors (an
// unsupported mode) return an error; AI-layer failures are absorbed at
// the cache boundary and come back as a failed InsightResponse, so the
// dashboard can fall back to metrics-only display without per-call-site
// exception handling.
func (s *Service) RequestInsight(ctx context.Context, req models.InsightRequest) (models.InsightResponse, error) {
	prompt, err := s.builder.Build(req)
	if err != nil {
		return models.InsightResponse{}, err
	}

	key, err := s.fingerprint(req)
	if err != nil {
		return models.InsightResponse{}, fmt.Errorf("fingerprinting request: %w", err)
	}

	start := time.Now()
	resp := s.cache.GetOrCompute(ctx, key, func(computeCtx context.Context) (models.InsightResponse, error) {
		if err := s.limiter.Acquire(computeCtx); err != nil {
			return models.InsightResponse{}, err
		}

		completion, err := s.generator.Generate(computeCtx, prompt, SamplingFor(req.Mode))
		if err != nil {
			return models.InsightResponse{}, err
		}

		return models.InsightResponse{
			ID:          uuid.NewString(),
			Fingerprint: key,
			Mode:        req.Mode,
			Text:        completion.Text,
			Model:       s.generator.Model(),
			TokensUsed:  completion.TokensUsed,
			GeneratedAt: time.Now(),
			Success:     true,
		}, nil
	})

	if resp.ID == "" {
		resp.ID = uuid.NewString()
	}
	resp.Mode = req.Mode

	s.logger.WithFields(logrus.Fields{
		"request_id":  resp.ID,
		"mode":        req.Mode,
		"success":     resp.Success,
		"cache_hit":   resp.CacheHit,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Insight request completed")

	return resp, nil
}

// fingerprint derives the cache key from the analysis mode, the filter
// signature, the dataset content fingerprint, and the serialized
// metrics/SWOT snapshot. Two requests over identical data with identical
// selections always share a key.
func (s *Service) fingerprint(req models.InsightRequest) (string, error) {
	snapshot := struct {
		Metrics  map[string]models.AggregateMetrics `json:"metrics"`
		SWOT     *models.SWOTSummary                `json:"swot,omitempty"`
		Question string                             `json:"question,omitempty"`
	}{req.Metrics, req.SWOT, req.Question}

	// Map keys marshal in sorted order, so the snapshot serialization is
	// canonical.
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|", req.Mode, req.Filter.Signature(), s.data.Current().Fingerprint)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// IsHealthy reports whether the upstream generative service is
// reachable, as far as the circuit breaker knows.
func (s *Service) IsHealthy() bool {
	type healthChecker interface{ IsHealthy() bool }
	if hc, ok := s.generator.(healthChecker); ok {
		return hc.IsHealthy()
	}
	return true
}
