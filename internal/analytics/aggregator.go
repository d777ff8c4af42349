package analytics

import (
	"math"
	"strings"

	"github.com/pitchside/cricket-insights/internal/models"
)

// accumulator gathers per-entity running totals during one aggregation
// pass. Commutative sums keep the result independent of input order.
type accumulator struct {
	entity      string
	runs        int
	balls       int
	wickets     int
	dots        int
	records     int
	weightedSR  float64 // sum of SR * BF
	srWeight    float64 // sum of BF over records contributing to SR
	strikeRates []float64
	economies   []float64
}

// Aggregate computes derived metrics per entity from a filtered view.
// Entities with zero contributing records never appear in the result; a
// present entry always has SampleSize >= 1. Output is deterministic for a
// given multiset of records regardless of their order.
func Aggregate(view models.FilteredView, groupBy models.GroupBy) map[string]models.AggregateMetrics {
	accs := make(map[string]*accumulator)

	for _, rec := range view {
		key := entityKey(rec, groupBy)
		if key == "" {
			continue
		}
		acc, ok := accs[key]
		if !ok {
			acc = &accumulator{entity: entityName(rec, groupBy)}
			accs[key] = acc
		}
		acc.records++
		acc.runs += rec.Runs
		acc.balls += rec.BallsFaced
		acc.wickets += rec.Wickets
		acc.dots += rec.DotBalls
		if rec.BallsFaced > 0 {
			acc.weightedSR += rec.StrikeRate * float64(rec.BallsFaced)
			acc.srWeight += float64(rec.BallsFaced)
			acc.strikeRates = append(acc.strikeRates, rec.StrikeRate)
		}
		if rec.EconomyRate > 0 {
			acc.economies = append(acc.economies, rec.EconomyRate)
		}
	}

	result := make(map[string]models.AggregateMetrics, len(accs))
	for key, acc := range accs {
		m := models.AggregateMetrics{
			Entity:       acc.entity,
			TotalWickets: acc.wickets,
			SampleSize:   acc.records,
			StrikeRateCV: coefficientOfVariation(acc.strikeRates),
			EconomyCV:    coefficientOfVariation(acc.economies),
		}
		if acc.srWeight > 0 {
			m.AvgStrikeRate = acc.weightedSR / acc.srWeight
		}
		if acc.balls > 0 {
			overs := float64(acc.balls) / 6
			m.RunRate = float64(acc.runs) / overs
			m.EconomyRate = float64(acc.runs) / overs
			m.DotBallPct = math.Round(float64(acc.dots)/float64(acc.balls)*1000) / 10
		}
		result[key] = m
	}
	return result
}

// entityKey is the case-folded grouping key; entityName preserves the
// first-seen casing for display.
func entityKey(rec models.Record, groupBy models.GroupBy) string {
	return strings.ToLower(entityName(rec, groupBy))
}

func entityName(rec models.Record, groupBy models.GroupBy) string {
	if groupBy == models.GroupByTeam {
		return rec.Team
	}
	return rec.Player
}

// coefficientOfVariation is the population standard deviation divided by
// the mean. It needs at least two samples and a non-zero mean to say
// anything, and reports zero otherwise.
func coefficientOfVariation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if mean == 0 {
		return 0
	}
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return math.Sqrt(sq/float64(len(values))) / mean
}
