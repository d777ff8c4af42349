package models

import (
	"fmt"
	"time"
)

// InsightMode selects the analysis template for an AI insight request.
type InsightMode string

const (
	ModeTeamStrategy       InsightMode = "team_strategy"
	ModePlayerPerformance  InsightMode = "player_performance"
	ModeOppositionAnalysis InsightMode = "opposition_analysis"
	ModeMatchPreparation   InsightMode = "match_preparation"
	ModeCustomQuery        InsightMode = "custom_query"
)

// ParseInsightMode validates a wire-level mode string.
func ParseInsightMode(s string) (InsightMode, error) {
	switch InsightMode(s) {
	case ModeTeamStrategy, ModePlayerPerformance, ModeOppositionAnalysis,
		ModeMatchPreparation, ModeCustomQuery:
		return InsightMode(s), nil
	}
	return "", fmt.Errorf("unsupported insight mode %q", s)
}

// InsightRequest carries everything the prompt builder needs for one
// analysis request. It is constructed per request and never persisted.
type InsightRequest struct {
	Mode          InsightMode                 `json:"mode"`
	Filter        FilterSpec                  `json:"filter"`
	Metrics       map[string]AggregateMetrics `json:"metrics"`
	SWOT          *SWOTSummary                `json:"swot,omitempty"`
	Overview      *TeamOverview               `json:"overview,omitempty"`
	TopPerformers []AggregateMetrics          `json:"top_performers,omitempty"`
	Favorable     []MatchupAdvantage          `json:"favorable_matchups,omitempty"`
	Challenging   []MatchupAdvantage          `json:"challenging_matchups,omitempty"`
	Notes         []SWOTNote                  `json:"notes,omitempty"`
	Question      string                      `json:"question,omitempty"` // CustomQuery free text
}

// InsightResponse is the outcome of one AI analysis request. Failed
// generations are represented as responses with Success=false so the
// dashboard can degrade to metrics-only display without special-casing
// errors per call site.
type InsightResponse struct {
	ID          string      `json:"id"`
	Fingerprint string      `json:"fingerprint"`
	Mode        InsightMode `json:"mode"`
	Text        string      `json:"text,omitempty"`
	Model       string      `json:"model,omitempty"`
	TokensUsed  int         `json:"tokens_used,omitempty"`
	GeneratedAt time.Time   `json:"generated_at"`
	Success     bool        `json:"success"`
	Error       string      `json:"error,omitempty"`
	CacheHit    bool        `json:"cache_hit"`
}
