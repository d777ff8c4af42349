package analytics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/cricket-insights/internal/analytics"
	"github.com/pitchside/cricket-insights/internal/dataset"
	"github.com/pitchside/cricket-insights/internal/models"
)

func sampleDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Records: models.FilteredView{
			{Player: "R Sharma", Team: "GG", Opposition: "MIE", Phase: "PP", MatchupType: "pace", SpanStart: 2024, SpanEnd: 2025, Runs: 120, BallsFaced: 80, StrikeRate: 150.0},
			{Player: "R Sharma", Team: "GG", Opposition: "MIE", Phase: "Post_PP", MatchupType: "spin", SpanStart: 2024, SpanEnd: 2024, Runs: 60, BallsFaced: 50, StrikeRate: 120.0},
			{Player: "A Zampa", Team: "ADKR", Phase: "Post_PP", MatchupType: "spin", SpanStart: 2025, SpanEnd: 2025, Wickets: 14, EconomyRate: 7.2},
			{Player: "N Pooran", Team: "MIE", Opposition: "GG", Phase: "PP", MatchupType: "pace", Runs: 90, BallsFaced: 55, StrikeRate: 163.6},
		},
	}
}

func TestApply_ZeroSpecReturnsEverything(t *testing.T) {
	ds := sampleDataset()
	view := analytics.Apply(ds, models.FilterSpec{})

	require.Len(t, view, len(ds.Records))
	assert.Equal(t, ds.Records, view)

	// The view is a copy: mutating it leaves the snapshot alone.
	view[0].Player = "mutated"
	assert.Equal(t, "R Sharma", ds.Records[0].Player)
}

func TestApply_Filters(t *testing.T) {
	ds := sampleDataset()

	tests := []struct {
		name    string
		spec    models.FilterSpec
		players []string
	}{
		{
			name:    "by team",
			spec:    models.FilterSpec{Team: "GG"},
			players: []string{"R Sharma", "R Sharma"},
		},
		{
			name:    "team matching is case-insensitive",
			spec:    models.FilterSpec{Team: "gg"},
			players: []string{"R Sharma", "R Sharma"},
		},
		{
			name:    "filters compose with AND",
			spec:    models.FilterSpec{Team: "GG", Phase: "PP"},
			players: []string{"R Sharma"},
		},
		{
			name:    "by matchup type",
			spec:    models.FilterSpec{MatchupType: "spin"},
			players: []string{"R Sharma", "A Zampa"},
		},
		{
			name:    "by year within span",
			spec:    models.FilterSpec{Year: 2025},
			players: []string{"R Sharma", "A Zampa"},
		},
		{
			name:    "year excludes records without span information",
			spec:    models.FilterSpec{Year: 2024, Team: "MIE"},
			players: []string{},
		},
		{
			name:    "no matches is a valid empty view",
			spec:    models.FilterSpec{Team: "GG", MatchupType: "leg spin"},
			players: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := analytics.Apply(ds, tt.spec)
			got := make([]string, 0, len(view))
			for _, rec := range view {
				got = append(got, rec.Player)
			}
			assert.Equal(t, tt.players, got)
		})
	}
}

func TestApply_Idempotent(t *testing.T) {
	ds := sampleDataset()
	spec := models.FilterSpec{Team: "GG", Phase: "PP"}

	once := analytics.Apply(ds, spec)
	twice := analytics.Apply(&dataset.Dataset{Records: once}, spec)
	assert.Equal(t, once, twice)
}

func TestFilterSpec_SignatureCanonical(t *testing.T) {
	a := models.FilterSpec{Team: "GG", Phase: "PP"}
	b := models.FilterSpec{Team: "gg", Phase: "pp"}
	c := models.FilterSpec{Team: "MIE", Phase: "PP"}

	assert.Equal(t, a.Signature(), b.Signature())
	assert.NotEqual(t, a.Signature(), c.Signature())
}
