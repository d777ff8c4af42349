package insights

import "errors"

var (
	// ErrInvalidPromptMode marks an unsupported analysis mode. This is a
	// programmer error, fatal to the request but not the process.
	ErrInvalidPromptMode = errors.New("invalid prompt mode")

	// ErrRateLimited is returned when the external service quota stays
	// exhausted past the caller's deadline.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInsightGeneration is returned after retries against the external
	// service are exhausted or its response fails validation. Callers are
	// expected to degrade to metrics-only display.
	ErrInsightGeneration = errors.New("insight generation failed")
)
