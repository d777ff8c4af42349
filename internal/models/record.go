package models

import (
	"fmt"
	"strings"
)

// Record is a single player-in-matchup observation from the analytics
// dataset. Records are immutable once loaded; downstream components only
// ever read them.
type Record struct {
	Player      string  `json:"player"`
	Team        string  `json:"team"`
	Opposition  string  `json:"opposition,omitempty"`
	Phase       string  `json:"phase"`
	MatchupType string  `json:"matchup_type"`
	SpanStart   int     `json:"span_start,omitempty"`
	SpanEnd     int     `json:"span_end,omitempty"`
	Runs        int     `json:"runs"`
	BallsFaced  int     `json:"balls_faced"`
	StrikeRate  float64 `json:"strike_rate"`
	Wickets     int     `json:"wickets"`
	EconomyRate float64 `json:"economy_rate"`
	DotBalls    int     `json:"dot_balls"`
	AvgSpeedKph float64 `json:"avg_speed_kph,omitempty"`
	StyleTag    string  `json:"style_tag,omitempty"`
}

// InYear reports whether the record's season span covers the given year.
// Records without span information only match when no year restriction
// is in play, so they always report false here.
func (r Record) InYear(year int) bool {
	if r.SpanStart == 0 {
		return false
	}
	return year >= r.SpanStart && year <= r.SpanEnd
}

// FilterSpec narrows the dataset along up to five dimensions. A zero value
// on any field means "no restriction on this dimension". String matching
// is case-insensitive; year matching is numeric. Two specs are equal iff
// all fields match, which makes the spec usable as a cache-key component.
type FilterSpec struct {
	Team        string `json:"team,omitempty"`
	Year        int    `json:"year,omitempty"`
	Phase       string `json:"phase,omitempty"`
	MatchupType string `json:"matchup_type,omitempty"`
	Player      string `json:"player,omitempty"`
}

// IsZero reports whether the spec restricts nothing.
func (f FilterSpec) IsZero() bool {
	return f == FilterSpec{}
}

// Signature returns a stable, canonical string form of the spec, used as
// a cache-key component. Case folding here mirrors the engine's matching
// rules so that equivalent specs share a signature.
func (f FilterSpec) Signature() string {
	return fmt.Sprintf("team=%s|year=%d|phase=%s|type=%s|player=%s",
		strings.ToLower(f.Team),
		f.Year,
		strings.ToLower(f.Phase),
		strings.ToLower(f.MatchupType),
		strings.ToLower(f.Player),
	)
}

// Matches reports whether the record satisfies every restriction the spec
// carries. Filters compose with logical AND.
func (f FilterSpec) Matches(r Record) bool {
	if f.Team != "" && !strings.EqualFold(f.Team, r.Team) {
		return false
	}
	if f.Player != "" && !strings.EqualFold(f.Player, r.Player) {
		return false
	}
	if f.Phase != "" && !strings.EqualFold(f.Phase, r.Phase) {
		return false
	}
	if f.MatchupType != "" && !strings.EqualFold(f.MatchupType, r.MatchupType) {
		return false
	}
	if f.Year != 0 && !r.InYear(f.Year) {
		return false
	}
	return true
}

// FilteredView is an ordered sequence of records satisfying a FilterSpec.
// Order is stable for display purposes but irrelevant for aggregation.
type FilteredView []Record

// Advantage classifications for head-to-head matchup entries.
const (
	AdvantageBatter  = "batsman"
	AdvantageBowler  = "bowler"
	AdvantageNeutral = "neutral"
)

// MatchupAdvantage is a batter-versus-bowler head-to-head entry with the
// dataset's own call on who holds the edge.
type MatchupAdvantage struct {
	Batter      string  `json:"batter"`
	Bowler      string  `json:"bowler"`
	Team        string  `json:"team,omitempty"`
	Opposition  string  `json:"opposition,omitempty"`
	Phase       string  `json:"phase,omitempty"`
	MatchupType string  `json:"matchup_type,omitempty"`
	Runs        int     `json:"runs"`
	Balls       int     `json:"balls"`
	StrikeRate  float64 `json:"strike_rate"`
	Wickets     int     `json:"wickets"`
	Advantage   string  `json:"advantage"`
}

// MatchesAdvantage reports whether the head-to-head entry satisfies the
// spec. Year restrictions never match: advantage entries carry no span,
// and a year-restricted selection must not surface undated head-to-heads
// as if they applied.
func (f FilterSpec) MatchesAdvantage(m MatchupAdvantage) bool {
	if f.Team != "" && !strings.EqualFold(f.Team, m.Team) {
		return false
	}
	if f.Player != "" && !strings.EqualFold(f.Player, m.Batter) && !strings.EqualFold(f.Player, m.Bowler) {
		return false
	}
	if f.Phase != "" && !strings.EqualFold(f.Phase, m.Phase) {
		return false
	}
	if f.MatchupType != "" && !strings.EqualFold(f.MatchupType, m.MatchupType) {
		return false
	}
	if f.Year != 0 {
		return false
	}
	return true
}

// SWOTNote is a narrative SWOT entry embedded in the dataset itself,
// distinct from the SWOT summaries derived from aggregated metrics.
type SWOTNote struct {
	Category    string `json:"category"`
	Type        string `json:"type"` // "strength", "weakness", "opportunity"
	Description string `json:"description"`
	Text        string `json:"text"`
}
