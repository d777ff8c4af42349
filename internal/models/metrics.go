package models

// GroupBy selects the entity dimension for aggregation.
type GroupBy string

const (
	GroupByPlayer GroupBy = "player"
	GroupByTeam   GroupBy = "team"
)

// AggregateMetrics holds the derived numbers for one entity (player or
// team). An instance only exists when at least one record backs it:
// entities with zero matching records are omitted from aggregation
// results rather than represented with zero-filled metrics.
type AggregateMetrics struct {
	Entity        string  `json:"entity"`
	AvgStrikeRate float64 `json:"avg_strike_rate"` // weighted by balls faced
	RunRate       float64 `json:"run_rate"`        // runs per over, overs = balls/6
	TotalWickets  int     `json:"total_wickets"`
	EconomyRate   float64 `json:"economy_rate"` // runs conceded per over
	DotBallPct    float64 `json:"dot_ball_pct"` // one decimal
	SampleSize    int     `json:"sample_size"`  // records backing this aggregate, always >= 1

	// Record-level coefficients of variation, used by the SWOT analyzer
	// to flag an entity's own inconsistency. Zero when fewer than two
	// records carry the underlying value.
	StrikeRateCV float64 `json:"strike_rate_cv"`
	EconomyCV    float64 `json:"economy_cv"`
}

// PhaseSummary rolls up one innings phase inside a team overview.
type PhaseSummary struct {
	Records       int     `json:"records"`
	Runs          int     `json:"runs"`
	Wickets       int     `json:"wickets"`
	AvgStrikeRate float64 `json:"avg_strike_rate"`
}

// TeamOverview is the squad-level rollup embedded in strategy prompts:
// headline totals plus a per-phase breakdown.
type TeamOverview struct {
	SquadSize    int                     `json:"squad_size"`
	RecordCount  int                     `json:"record_count"`
	TotalRuns    int                     `json:"total_runs"`
	TotalWickets int                     `json:"total_wickets"`
	Phases       map[string]PhaseSummary `json:"phases"`
}

// SWOTStatement is one short qualitative finding tied to an entity and a
// metric dimension.
type SWOTStatement struct {
	Entity    string  `json:"entity"`
	Dimension string  `json:"dimension"`
	Statement string  `json:"statement"`
	Value     float64 `json:"value"`
}

// SWOTSummary classifies aggregated metrics into the four SWOT sets.
// When the filtered population is too small for quartile ranking to mean
// anything, InsufficientData is set and the four sets are empty; callers
// must treat that as a valid outcome, not an error.
type SWOTSummary struct {
	InsufficientData bool            `json:"insufficient_data"`
	Reason           string          `json:"reason,omitempty"`
	EntityCount      int             `json:"entity_count"`
	Strengths        []SWOTStatement `json:"strengths"`
	Weaknesses       []SWOTStatement `json:"weaknesses"`
	Opportunities    []SWOTStatement `json:"opportunities"`
	Threats          []SWOTStatement `json:"threats"`
}
