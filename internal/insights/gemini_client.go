package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/pitchside/cricket-insights/internal/config"
	"github.com/pitchside/cricket-insights/internal/models"
)

// Generator is the narrow boundary to the external generative-text
// service. The retry, rate-limit and cache policy live outside it, so
// tests inject a fake and the transport stays swappable.
type Generator interface {
	Generate(ctx context.Context, prompt PromptText, cfg SamplingConfig) (Completion, error)
	Model() string
}

// SamplingConfig tunes one generation request.
type SamplingConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// Completion is a single validated text completion.
type Completion struct {
	Text       string
	TokensUsed int
}

// GeminiClient talks to the Gemini generateContent API with retries and
// a circuit breaker around the transport.
type GeminiClient struct {
	httpClient     *http.Client
	logger         *logrus.Logger
	apiKey         string
	baseURL        string
	model          string
	circuitBreaker *gobreaker.CircuitBreaker
	retryAttempts  int
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  *SamplingConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewGeminiClient creates a Gemini API client. The breaker opens after
// consecutive transport failures so a dead upstream fails fast instead of
// burning the retry budget on every request.
func NewGeminiClient(cfg *config.Config, logger *logrus.Logger) *GeminiClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gemini-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit":    name,
				"from_state": from.String(),
				"to_state":   to.String(),
			}).Info("Gemini API circuit breaker state changed")
		},
	})

	retries := cfg.AIMaxRetries
	if retries < 1 {
		retries = 1
	}

	return &GeminiClient{
		httpClient: &http.Client{
			Timeout: cfg.AIRequestTimeout,
		},
		logger:         logger,
		apiKey:         cfg.GeminiAPIKey,
		baseURL:        "https://generativelanguage.googleapis.com/v1beta",
		model:          cfg.AIModel,
		circuitBreaker: cb,
		retryAttempts:  retries,
	}
}

// Model returns the configured model identifier.
func (c *GeminiClient) Model() string {
	return c.model
}

// Generate sends the prompt and returns a validated non-empty
// completion. Exhausted retries or an empty completion surface as
// ErrInsightGeneration.
func (c *GeminiClient) Generate(ctx context.Context, prompt PromptText, cfg SamplingConfig) (Completion, error) {
	request := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt.User}}},
		},
		GenerationConfig: &cfg,
	}
	if prompt.System != "" {
		request.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: prompt.System}}}
	}

	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.makeRequest(ctx, request)
	})
	if err != nil {
		return Completion{}, fmt.Errorf("%w: %v", ErrInsightGeneration, err)
	}

	completion := result.(Completion)
	if strings.TrimSpace(completion.Text) == "" {
		return Completion{}, fmt.Errorf("%w: empty completion from service", ErrInsightGeneration)
	}
	return completion, nil
}

// makeRequest handles the HTTP round trip with exponential backoff.
// Client-side errors (auth, malformed request) fail immediately; only
// transient failures are retried.
func (c *GeminiClient) makeRequest(ctx context.Context, request geminiRequest) (Completion, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return Completion{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)

	var lastErr error
	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			select {
			case <-ctx.Done():
				return Completion{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
		if err != nil {
			return Completion{}, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		completion, retryable, err := c.decodeResponse(resp)
		if err == nil {
			return completion, nil
		}
		if !retryable {
			return Completion{}, err
		}
		lastErr = err
	}

	return Completion{}, fmt.Errorf("failed after %d attempts: %w", c.retryAttempts, lastErr)
}

func (c *GeminiClient) decodeResponse(resp *http.Response) (Completion, bool, error) {
	defer resp.Body.Close()

	var body geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Completion{}, true, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var text strings.Builder
		for _, cand := range body.Candidates {
			for _, part := range cand.Content.Parts {
				text.WriteString(part.Text)
			}
		}
		completion := Completion{
			Text:       text.String(),
			TokensUsed: body.UsageMetadata.PromptTokenCount + body.UsageMetadata.CandidatesTokenCount,
		}
		c.logger.WithFields(logrus.Fields{
			"model":       c.model,
			"tokens_used": completion.TokensUsed,
		}).Debug("Gemini API request completed")
		return completion, false, nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Completion{}, false, fmt.Errorf("invalid API credentials: %s", apiErrorMessage(body))

	case resp.StatusCode == http.StatusBadRequest:
		return Completion{}, false, fmt.Errorf("bad request: %s", apiErrorMessage(body))

	case resp.StatusCode == http.StatusTooManyRequests:
		return Completion{}, true, fmt.Errorf("service rate limit: %s", apiErrorMessage(body))

	default:
		return Completion{}, true, fmt.Errorf("unexpected error (status %d): %s", resp.StatusCode, apiErrorMessage(body))
	}
}

func apiErrorMessage(body geminiResponse) string {
	if body.Error != nil {
		return body.Error.Message
	}
	return "no error detail"
}

// IsHealthy reports whether the circuit to the upstream is closed.
func (c *GeminiClient) IsHealthy() bool {
	return c.circuitBreaker.State() == gobreaker.StateClosed
}

// SamplingFor returns per-mode sampling defaults: factual analyses run
// colder than strategic ones.
func SamplingFor(mode models.InsightMode) SamplingConfig {
	cfg := SamplingConfig{
		TopP:            1.0,
		MaxOutputTokens: 4000,
	}
	switch mode {
	case models.ModePlayerPerformance:
		cfg.Temperature = 0.3
		cfg.MaxOutputTokens = 2000
	case models.ModeTeamStrategy, models.ModeMatchPreparation:
		cfg.Temperature = 0.5
		cfg.MaxOutputTokens = 3000
	case models.ModeOppositionAnalysis:
		cfg.Temperature = 0.4
		cfg.MaxOutputTokens = 2500
	default:
		cfg.Temperature = 0.5
	}
	return cfg
}
