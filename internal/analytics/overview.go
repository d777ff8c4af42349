package analytics

import (
	"sort"
	"strings"

	"github.com/pitchside/cricket-insights/internal/models"
)

// Overview rolls a filtered view up into squad-level headline numbers
// with a per-phase breakdown. Strike rates are balls-weighted, matching
// the aggregator.
func Overview(view models.FilteredView) models.TeamOverview {
	overview := models.TeamOverview{Phases: make(map[string]models.PhaseSummary)}

	players := make(map[string]bool)
	phaseWeightedSR := make(map[string]float64)
	phaseSRWeight := make(map[string]float64)

	for _, rec := range view {
		players[strings.ToLower(rec.Player)] = true
		overview.RecordCount++
		overview.TotalRuns += rec.Runs
		overview.TotalWickets += rec.Wickets

		phase := rec.Phase
		if phase == "" {
			phase = "unspecified"
		}
		summary := overview.Phases[phase]
		summary.Records++
		summary.Runs += rec.Runs
		summary.Wickets += rec.Wickets
		overview.Phases[phase] = summary

		if rec.BallsFaced > 0 {
			phaseWeightedSR[phase] += rec.StrikeRate * float64(rec.BallsFaced)
			phaseSRWeight[phase] += float64(rec.BallsFaced)
		}
	}

	for phase, summary := range overview.Phases {
		if weight := phaseSRWeight[phase]; weight > 0 {
			summary.AvgStrikeRate = phaseWeightedSR[phase] / weight
			overview.Phases[phase] = summary
		}
	}
	overview.SquadSize = len(players)
	return overview
}

// TopPerformers returns player aggregates ordered by weighted strike
// rate, restricted to players with at least minBalls balls faced across
// the view. The qualification keeps three-ball cameos from topping the
// list.
func TopPerformers(view models.FilteredView, minBalls, limit int) []models.AggregateMetrics {
	metrics := Aggregate(view, models.GroupByPlayer)

	balls := make(map[string]int)
	for _, rec := range view {
		balls[strings.ToLower(rec.Player)] += rec.BallsFaced
	}

	performers := make([]models.AggregateMetrics, 0, len(metrics))
	for key, m := range metrics {
		if balls[key] >= minBalls {
			performers = append(performers, m)
		}
	}

	sort.Slice(performers, func(i, j int) bool {
		if performers[i].AvgStrikeRate != performers[j].AvgStrikeRate {
			return performers[i].AvgStrikeRate > performers[j].AvgStrikeRate
		}
		return performers[i].Entity < performers[j].Entity
	})

	if limit > 0 && len(performers) > limit {
		performers = performers[:limit]
	}
	return performers
}
