package analytics

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/pitchside/cricket-insights/internal/models"
)

// SWOTAnalyzer classifies aggregated metrics into strengths, weaknesses,
// opportunities and threats using quartile ranking and dispersion
// thresholds.
type SWOTAnalyzer struct {
	minEntities         int
	dispersionThreshold float64
	logger              *logrus.Logger
}

// dimension describes one ranked metric. For dimensions where lower is
// better (economy), ranking is inverted so "top quartile" always means
// "best".
type dimension struct {
	name           string
	value          func(models.AggregateMetrics) float64
	ownCV          func(models.AggregateMetrics) float64
	higherIsBetter bool
	unit           string
}

var dimensions = []dimension{
	{
		name:           "strike rate",
		value:          func(m models.AggregateMetrics) float64 { return m.AvgStrikeRate },
		ownCV:          func(m models.AggregateMetrics) float64 { return m.StrikeRateCV },
		higherIsBetter: true,
	},
	{
		name:           "economy rate",
		value:          func(m models.AggregateMetrics) float64 { return m.EconomyRate },
		ownCV:          func(m models.AggregateMetrics) float64 { return m.EconomyCV },
		higherIsBetter: false,
		unit:           " rpo",
	},
	{
		name:           "dot ball percentage",
		value:          func(m models.AggregateMetrics) float64 { return m.DotBallPct },
		higherIsBetter: true,
		unit:           "%",
	},
	{
		name:           "wickets",
		value:          func(m models.AggregateMetrics) float64 { return float64(m.TotalWickets) },
		higherIsBetter: true,
	},
}

// NewSWOTAnalyzer builds an analyzer with the configured policy
// constants: minEntities is the smallest population quartile ranking is
// allowed on, dispersionThreshold the coefficient of variation above
// which a population (or an entity's own record set) counts as widely
// dispersed.
func NewSWOTAnalyzer(minEntities int, dispersionThreshold float64, logger *logrus.Logger) *SWOTAnalyzer {
	if minEntities < 2 {
		minEntities = 2
	}
	return &SWOTAnalyzer{
		minEntities:         minEntities,
		dispersionThreshold: dispersionThreshold,
		logger:              logger,
	}
}

// Derive produces a SWOTSummary from aggregated metrics. Populations
// smaller than the configured minimum get the explicit insufficient-data
// variant: quartile ranking over one or two entities would be noise
// dressed up as analysis.
func (a *SWOTAnalyzer) Derive(metrics map[string]models.AggregateMetrics) models.SWOTSummary {
	summary := models.SWOTSummary{EntityCount: len(metrics)}

	if len(metrics) < a.minEntities {
		summary.InsufficientData = true
		summary.Reason = fmt.Sprintf("requires at least %d entities for quartile ranking, got %d",
			a.minEntities, len(metrics))
		return summary
	}

	// Stable entity order keeps statement order deterministic.
	entities := make([]string, 0, len(metrics))
	for key := range metrics {
		entities = append(entities, key)
	}
	sort.Strings(entities)

	for _, dim := range dimensions {
		values := make([]float64, 0, len(entities))
		for _, key := range entities {
			values = append(values, dim.value(metrics[key]))
		}

		q1, q3 := quartiles(values)
		popCV := coefficientOfVariation(values)
		// A population with no spread on this dimension ranks nobody.
		spread := q3 > q1

		for i, key := range entities {
			m := metrics[key]
			v := values[i]

			switch {
			case spread && isTopQuartile(v, q1, q3, dim.higherIsBetter):
				summary.Strengths = append(summary.Strengths, models.SWOTStatement{
					Entity:    m.Entity,
					Dimension: dim.name,
					Value:     v,
					Statement: fmt.Sprintf("%s ranks in the top quartile for %s (%.1f%s across %d records)",
						m.Entity, dim.name, v, dim.unit, m.SampleSize),
				})
			case spread && isBottomQuartile(v, q1, q3, dim.higherIsBetter):
				summary.Weaknesses = append(summary.Weaknesses, models.SWOTStatement{
					Entity:    m.Entity,
					Dimension: dim.name,
					Value:     v,
					Statement: fmt.Sprintf("%s ranks in the bottom quartile for %s (%.1f%s across %d records)",
						m.Entity, dim.name, v, dim.unit, m.SampleSize),
				})
			case popCV > a.dispersionThreshold:
				// Mid-ranked entity in a widely dispersed population:
				// the spread implies exploitable inconsistency.
				summary.Opportunities = append(summary.Opportunities, models.SWOTStatement{
					Entity:    m.Entity,
					Dimension: dim.name,
					Value:     v,
					Statement: fmt.Sprintf("%s is mid-ranked for %s in a volatile field (population CV %.2f), leaving room to exploit inconsistency",
						m.Entity, dim.name, popCV),
				})
			}

			if dim.ownCV != nil && dim.ownCV(m) > a.dispersionThreshold {
				summary.Threats = append(summary.Threats, models.SWOTStatement{
					Entity:    m.Entity,
					Dimension: dim.name,
					Value:     dim.ownCV(m),
					Statement: fmt.Sprintf("%s shows inconsistent %s across records (CV %.2f), a liability under pressure",
						m.Entity, dim.name, dim.ownCV(m)),
				})
			}
		}
	}

	if a.logger != nil {
		a.logger.WithFields(logrus.Fields{
			"entities":      len(metrics),
			"strengths":     len(summary.Strengths),
			"weaknesses":    len(summary.Weaknesses),
			"opportunities": len(summary.Opportunities),
			"threats":       len(summary.Threats),
		}).Debug("Derived SWOT summary")
	}
	return summary
}

// quartiles returns the nearest-rank first and third quartile values of
// the population.
func quartiles(values []float64) (q1, q3 float64) {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	q1 = sorted[(n-1)/4]
	q3 = sorted[(3*(n-1))/4]
	return q1, q3
}

func isTopQuartile(v, q1, q3 float64, higherIsBetter bool) bool {
	if higherIsBetter {
		return v >= q3
	}
	return v <= q1
}

func isBottomQuartile(v, q1, q3 float64, higherIsBetter bool) bool {
	if higherIsBetter {
		return v <= q1
	}
	return v >= q3
}
