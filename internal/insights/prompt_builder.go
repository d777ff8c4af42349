package insights

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pitchside/cricket-insights/internal/models"
)

// PromptText is the assembled analysis request sent to the generative
// service: a user prompt plus a system instruction.
type PromptText struct {
	User   string
	System string
	Mode   models.InsightMode
}

// PromptBuilder turns an InsightRequest into prompt text. It is pure:
// template selection is deterministic per mode, it performs no I/O, and
// it never calls the AI service itself.
type PromptBuilder struct {
	logger *logrus.Logger
}

func NewPromptBuilder(logger *logrus.Logger) *PromptBuilder {
	return &PromptBuilder{logger: logger}
}

const systemPrompt = `You are a professional cricket analyst with deep knowledge of T20 cricket strategy and player performance metrics.

CRICKET METRICS EXPLANATION:
- SR (Strike Rate): Runs per 100 balls faced (higher is more aggressive)
- RR (Run Rate): Runs per over (economy rate for bowlers)
- BF: Balls Faced by batsman
- Wks: Wickets taken (for bowlers) or times dismissed (for batsmen)
- PP: Powerplay (overs 1-6)
- Post PP: Middle and death overs (7-20)
- Dot%: Percentage of dot balls (no runs scored)

CRITICAL INSTRUCTIONS:
1. Base your analysis ONLY on the statistics provided
2. Reference specific numbers, strike rates, and performance metrics
3. Identify patterns in the data (e.g., powerplay vs death over performance)
4. Provide tactical recommendations based on the data trends
5. Use cricket terminology appropriately

Format your response professionally for team management decisions.`

// templates keyed by mode; the builder swaps in the data snapshot via
// {{placeholder}} replacement.
const (
	teamStrategyTemplate = `Provide a comprehensive strategic analysis for {{team}} including strengths, weaknesses, and tactical recommendations for team management.

SELECTION CONTEXT:
{{filter}}

SQUAD OVERVIEW:
{{overview}}

TOP PERFORMERS:
{{top_performers}}

AGGREGATED PERFORMANCE METRICS:
{{metrics}}

DERIVED SWOT SUMMARY:
{{swot}}

Please provide:
1. Data-driven insights with specific statistics
2. Actionable tactical recommendations
3. Strategic advantages based on the numbers
4. Risk assessment using actual performance data`

	playerPerformanceTemplate = `Provide detailed performance analysis and recommendations for {{player}}, including role optimization, strengths, areas for improvement, and tactical usage suggestions.

SELECTION CONTEXT:
{{filter}}

PLAYER METRICS:
{{metrics}}

DERIVED SWOT SUMMARY:
{{swot}}`

	oppositionAnalysisTemplate = `Provide tactical recommendations for {{team}} when facing the selected opposition, including bowling strategies, field placements, and batting order suggestions.

SELECTION CONTEXT:
{{filter}}

OPPOSITION PERFORMANCE METRICS:
{{metrics}}

EXPLOIT THESE MATCHUPS:
{{favorable_matchups}}

AVOID THESE MATCHUPS:
{{challenging_matchups}}

DERIVED SWOT SUMMARY:
{{swot}}

Highlight specific matchup advantages and disadvantages visible in the data.`

	matchPreparationTemplate = `Create a comprehensive match preparation strategy for {{team}}. Include batting order, bowling plans, and tactical recommendations.

SELECTION CONTEXT:
{{filter}}

SQUAD OVERVIEW:
{{overview}}

TOP PERFORMERS:
{{top_performers}}

OPPOSITION AGGREGATED METRICS:
{{metrics}}

EXPLOIT THESE MATCHUPS:
{{favorable_matchups}}

AVOID THESE MATCHUPS:
{{challenging_matchups}}

OWN SIDE SWOT SUMMARY:
{{swot}}`

	customQueryTemplate = `ANALYSIS REQUEST:
{{question}}

SELECTION CONTEXT:
{{filter}}

AGGREGATED PERFORMANCE METRICS:
{{metrics}}

DERIVED SWOT SUMMARY:
{{swot}}`
)

// Build assembles the prompt for a request. Unsupported modes fail with
// ErrInvalidPromptMode.
func (pb *PromptBuilder) Build(req models.InsightRequest) (PromptText, error) {
	var template string
	switch req.Mode {
	case models.ModeTeamStrategy:
		template = teamStrategyTemplate
	case models.ModePlayerPerformance:
		template = playerPerformanceTemplate
	case models.ModeOppositionAnalysis:
		template = oppositionAnalysisTemplate
	case models.ModeMatchPreparation:
		template = matchPreparationTemplate
	case models.ModeCustomQuery:
		if strings.TrimSpace(req.Question) == "" {
			return PromptText{}, fmt.Errorf("%w: custom query mode requires a question", ErrInvalidPromptMode)
		}
		template = customQueryTemplate
	default:
		return PromptText{}, fmt.Errorf("%w: %q", ErrInvalidPromptMode, req.Mode)
	}

	// Applied in fixed order so Build is deterministic. The question goes
	// last: free text the user typed must come through verbatim, even when
	// it happens to contain something shaped like a placeholder.
	replacements := []struct {
		name  string
		value string
	}{
		{"team", models.TeamDisplayName(req.Filter.Team)},
		{"player", req.Filter.Player},
		{"filter", describeFilter(req.Filter)},
		{"overview", formatOverview(req.Overview)},
		{"top_performers", formatTopPerformers(req.TopPerformers)},
		{"favorable_matchups", formatAdvantages(req.Favorable, true)},
		{"challenging_matchups", formatAdvantages(req.Challenging, false)},
		{"metrics", formatMetrics(req.Metrics)},
		{"swot", formatSWOT(req.SWOT, req.Notes)},
		{"question", req.Question},
	}

	prompt := template
	for _, r := range replacements {
		prompt = strings.ReplaceAll(prompt, "{{"+r.name+"}}", r.value)
	}

	if pb.logger != nil {
		pb.logger.WithFields(logrus.Fields{
			"mode":          req.Mode,
			"prompt_length": len(prompt),
			"entities":      len(req.Metrics),
		}).Debug("Built insight prompt")
	}

	return PromptText{User: prompt, System: systemPrompt, Mode: req.Mode}, nil
}

// describeFilter writes out every restriction the spec carries; an
// unrestricted spec reads as the full dataset.
func describeFilter(f models.FilterSpec) string {
	var parts []string
	if f.Team != "" {
		parts = append(parts, fmt.Sprintf("Team: %s", models.TeamDisplayName(f.Team)))
	}
	if f.Player != "" {
		parts = append(parts, fmt.Sprintf("Player: %s", f.Player))
	}
	if f.Year != 0 {
		parts = append(parts, fmt.Sprintf("Year: %d", f.Year))
	}
	if f.Phase != "" {
		parts = append(parts, fmt.Sprintf("Phase: %s", f.Phase))
	}
	if f.MatchupType != "" {
		parts = append(parts, fmt.Sprintf("Matchup Type: %s", f.MatchupType))
	}
	if len(parts) == 0 {
		return "Full dataset, no restrictions"
	}
	return strings.Join(parts, "\n")
}

func formatOverview(o *models.TeamOverview) string {
	if o == nil || o.RecordCount == 0 {
		return "No squad overview for this selection."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Squad size: %d players across %d records. Total runs: %d, total wickets: %d.\n",
		o.SquadSize, o.RecordCount, o.TotalRuns, o.TotalWickets)

	phases := make([]string, 0, len(o.Phases))
	for phase := range o.Phases {
		phases = append(phases, phase)
	}
	sort.Strings(phases)
	for _, phase := range phases {
		p := o.Phases[phase]
		fmt.Fprintf(&b, "- %s: %d records, %d runs, %d wickets, SR %.1f\n",
			phase, p.Records, p.Runs, p.Wickets, p.AvgStrikeRate)
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatAdvantages lists head-to-head extracts. Batter-favorable entries
// lead with runs, bowler-favorable ones with wickets, matching what each
// side of the matchup cares about.
func formatAdvantages(advantages []models.MatchupAdvantage, batterEdge bool) string {
	if len(advantages) == 0 {
		return "No head-to-head records for this selection."
	}

	var b strings.Builder
	for i, adv := range advantages {
		if batterEdge {
			fmt.Fprintf(&b, "%d. %s vs %s: SR %.1f, %d runs\n", i+1, adv.Batter, adv.Bowler, adv.StrikeRate, adv.Runs)
		} else {
			fmt.Fprintf(&b, "%d. %s vs %s: SR %.1f, %d wickets\n", i+1, adv.Batter, adv.Bowler, adv.StrikeRate, adv.Wickets)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatTopPerformers(performers []models.AggregateMetrics) string {
	if len(performers) == 0 {
		return "No qualified performers for this selection."
	}

	var b strings.Builder
	for i, m := range performers {
		fmt.Fprintf(&b, "%d. %s: SR %.1f over %d records\n", i+1, m.Entity, m.AvgStrikeRate, m.SampleSize)
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatMetrics serializes the aggregate snapshot in stable entity order.
func formatMetrics(metrics map[string]models.AggregateMetrics) string {
	if len(metrics) == 0 {
		return "No entities matched the selection."
	}

	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		m := metrics[k]
		fmt.Fprintf(&b, "- %s: SR %.1f, RR %.2f, Economy %.2f, Dot%% %.1f, Wickets %d (%d records)\n",
			m.Entity, m.AvgStrikeRate, m.RunRate, m.EconomyRate, m.DotBallPct, m.TotalWickets, m.SampleSize)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatSWOT(s *models.SWOTSummary, notes []models.SWOTNote) string {
	var b strings.Builder

	if s == nil {
		b.WriteString("No derived SWOT summary for this selection.")
	} else if s.InsufficientData {
		fmt.Fprintf(&b, "Insufficient data for SWOT ranking: %s", s.Reason)
	} else {
		writeSWOTSection(&b, "STRENGTHS", s.Strengths)
		writeSWOTSection(&b, "WEAKNESSES", s.Weaknesses)
		writeSWOTSection(&b, "OPPORTUNITIES", s.Opportunities)
		writeSWOTSection(&b, "THREATS", s.Threats)
	}

	if len(notes) > 0 {
		b.WriteString("\nANALYST NOTES:\n")
		for _, n := range notes {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", n.Type, n.Description, n.Text)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeSWOTSection(b *strings.Builder, title string, stmts []models.SWOTStatement) {
	if len(stmts) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, s := range stmts {
		fmt.Fprintf(b, "- %s\n", s.Statement)
	}
}
