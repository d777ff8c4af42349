package dataset_test

import (
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/cricket-insights/internal/dataset"
	"github.com/pitchside/cricket-insights/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

const validDocument = `{
	"teams": {"GG": "Gujarat Giants", "MIE": "MI Emirates"},
	"matchups": {
		"GG_vs_MIE_PP": {
			"type": "pace",
			"data": [
				{"Player": "R Sharma", "Span": "2024-2025", "Runs": 120, "BF": 80, "SR": "150.0", "Wks": 0, "RR": 0, "Dot%": 35.0},
				{"Player": "T Kohler-Cadmore", "Span": "2024", "Runs": 95, "BF": 70, "SR": 135.7, "Wks": 0, "RR": 0, "Dots": 22}
			]
		},
		"ADKR_Post_PP": {
			"type": "spin",
			"data": [
				{"Player": "A Zampa", "Span": "2024-2025", "Runs": 0, "BF": 0, "SR": 0, "Wks": 14, "RR": 7.2, "BowlType": "leg spin", "Ave kph": 88.5}
			]
		}
	},
	"gg_powerplay": {"type": "strength", "description": "Powerplay batting", "text": "GG score quickly inside the first six overs."},
	"mie_death": {"type": "weakness", "description": "Death bowling", "text": "MIE concede heavily at the death."}
}`

func TestParse_ValidDocument(t *testing.T) {
	ds, err := dataset.Parse([]byte(validDocument), 0.5, testLogger())
	require.NoError(t, err)

	require.Len(t, ds.Records, 3)
	assert.Equal(t, 0, ds.Dropped)
	assert.NotEmpty(t, ds.Fingerprint)
	assert.False(t, ds.LoadedAt.IsZero())

	// Records are ordered by sorted matchup key, so ADKR comes first.
	bowler := ds.Records[0]
	assert.Equal(t, "A Zampa", bowler.Player)
	assert.Equal(t, "ADKR", bowler.Team)
	assert.Empty(t, bowler.Opposition)
	assert.Equal(t, "Post_PP", bowler.Phase)
	assert.Equal(t, "spin", bowler.MatchupType)
	assert.Equal(t, 14, bowler.Wickets)
	assert.InDelta(t, 7.2, bowler.EconomyRate, 0.001)
	assert.InDelta(t, 88.5, bowler.AvgSpeedKph, 0.001)
	assert.Equal(t, "leg spin", bowler.StyleTag)

	batter := ds.Records[1]
	assert.Equal(t, "R Sharma", batter.Player)
	assert.Equal(t, "GG", batter.Team)
	assert.Equal(t, "MIE", batter.Opposition)
	assert.Equal(t, "PP", batter.Phase)
	assert.Equal(t, "pace", batter.MatchupType)
	assert.Equal(t, 2024, batter.SpanStart)
	assert.Equal(t, 2025, batter.SpanEnd)
	assert.InDelta(t, 150.0, batter.StrikeRate, 0.001) // numeric string accepted
	// Dot% converted to a ball count: 35% of 80 balls.
	assert.Equal(t, 28, batter.DotBalls)

	// Explicit Dots field wins over Dot% conversion.
	assert.Equal(t, 22, ds.Records[2].DotBalls)
}

func TestParse_NarrativeNotes(t *testing.T) {
	ds, err := dataset.Parse([]byte(validDocument), 0.5, testLogger())
	require.NoError(t, err)

	require.Len(t, ds.Notes, 2)
	assert.Equal(t, "gg_powerplay", ds.Notes[0].Category)
	assert.Equal(t, "strength", ds.Notes[0].Type)
	assert.Equal(t, "Powerplay batting", ds.Notes[0].Description)
	assert.Equal(t, "weakness", ds.Notes[1].Type)
}

func TestParse_DropsInvalidRecords(t *testing.T) {
	tests := []struct {
		name   string
		record string
	}{
		{"missing player", `{"Span": "2024", "Runs": 10, "BF": 8, "SR": 125.0}`},
		{"blank player", `{"Player": "   ", "Runs": 10, "BF": 8, "SR": 125.0}`},
		{"negative runs", `{"Player": "X", "Runs": -5, "BF": 8, "SR": 125.0}`},
		{"non-numeric strike rate", `{"Player": "X", "Runs": 10, "BF": 8, "SR": "abc"}`},
		{"dot percentage above 100", `{"Player": "X", "Runs": 10, "BF": 8, "SR": 125.0, "Dot%": 140}`},
		{"malformed span", `{"Player": "X", "Span": "20xx", "Runs": 10, "BF": 8, "SR": 125.0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := fmt.Sprintf(`{"matchups": {"GG_PP": {"type": "pace", "data": [
				%s,
				{"Player": "Valid One", "Runs": 40, "BF": 30, "SR": 133.3}
			]}}}`, tt.record)

			ds, err := dataset.Parse([]byte(doc), 0.5, testLogger())
			require.NoError(t, err)
			assert.Equal(t, 1, ds.Dropped)
			require.Len(t, ds.Records, 1)
			assert.Equal(t, "Valid One", ds.Records[0].Player)
		})
	}
}

func TestParse_SurvivesMinorityInvalid(t *testing.T) {
	// One invalid record among ten loads fine.
	doc := `{"matchups": {"GG_PP": {"type": "pace", "data": [`
	for i := 0; i < 9; i++ {
		doc += fmt.Sprintf(`{"Player": "P%d", "Runs": %d, "BF": 30, "SR": 120.0},`, i, 30+i)
	}
	doc += `{"Runs": 10, "BF": 8, "SR": 125.0}]}}}`

	ds, err := dataset.Parse([]byte(doc), 0.5, testLogger())
	require.NoError(t, err)
	assert.Len(t, ds.Records, 9)
	assert.Equal(t, 1, ds.Dropped)
}

func TestParse_FailsWhenMajorityInvalid(t *testing.T) {
	doc := `{"matchups": {"GG_PP": {"type": "pace", "data": [
		{"Runs": 10, "BF": 8, "SR": 125.0},
		{"Runs": 12, "BF": 9, "SR": 133.0},
		{"Player": "Valid One", "Runs": 40, "BF": 30, "SR": 133.3}
	]}}}`

	_, err := dataset.Parse([]byte(doc), 0.5, testLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, dataset.ErrDataLoad)
}

func TestParse_FailsWithoutRecords(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{{{`},
		{"no matchups section", `{"teams": {}}`},
		{"empty matchups", `{"matchups": {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dataset.Parse([]byte(tt.doc), 0.5, testLogger())
			assert.ErrorIs(t, err, dataset.ErrDataLoad)
		})
	}
}

func TestParse_FingerprintStableAcrossKeyOrder(t *testing.T) {
	docA := `{"matchups": {
		"GG_PP": {"type": "pace", "data": [{"Player": "A", "Runs": 10, "BF": 8, "SR": 125.0}]},
		"ADKR_PP": {"type": "spin", "data": [{"Player": "B", "Runs": 20, "BF": 15, "SR": 133.3}]}
	}}`
	docB := `{"matchups": {
		"ADKR_PP": {"type": "spin", "data": [{"Player": "B", "Runs": 20, "BF": 15, "SR": 133.3}]},
		"GG_PP": {"type": "pace", "data": [{"Player": "A", "Runs": 10, "BF": 8, "SR": 125.0}]}
	}}`

	dsA, err := dataset.Parse([]byte(docA), 0.5, testLogger())
	require.NoError(t, err)
	dsB, err := dataset.Parse([]byte(docB), 0.5, testLogger())
	require.NoError(t, err)

	assert.Equal(t, dsA.Fingerprint, dsB.Fingerprint)
}

func TestParse_FingerprintChangesWithContent(t *testing.T) {
	docA := `{"matchups": {"GG_PP": {"type": "pace", "data": [{"Player": "A", "Runs": 10, "BF": 8, "SR": 125.0}]}}}`
	docB := `{"matchups": {"GG_PP": {"type": "pace", "data": [{"Player": "A", "Runs": 11, "BF": 8, "SR": 137.5}]}}}`

	dsA, err := dataset.Parse([]byte(docA), 0.5, testLogger())
	require.NoError(t, err)
	dsB, err := dataset.Parse([]byte(docB), 0.5, testLogger())
	require.NoError(t, err)

	assert.NotEqual(t, dsA.Fingerprint, dsB.Fingerprint)
}

func TestParse_PlayerBattingEntries(t *testing.T) {
	doc := `{"matchups": {
		"GG_vs_MIE_PP": {
			"type": "pace",
			"players": [
				{"player": "S Gill", "span": "2024-2025", "runs": 210, "bf": 140, "sr": 150.0, "wks": 3, "technique": "anchor"},
				{"player": "", "runs": 10, "bf": 8, "sr": 125.0}
			],
			"data": [
				{"Player": "J Bumrah", "Runs": 0, "BF": 0, "SR": 0, "Wks": 9, "RR": 6.8, "BowlType": "pace"}
			]
		}
	}}`

	ds, err := dataset.Parse([]byte(doc), 0.5, testLogger())
	require.NoError(t, err)

	// One bowling record plus one valid batting entry; the nameless
	// batting entry is dropped and counted like any other bad record.
	require.Len(t, ds.Records, 2)
	assert.Equal(t, 1, ds.Dropped)

	batter := ds.Records[1]
	assert.Equal(t, "S Gill", batter.Player)
	assert.Equal(t, "GG", batter.Team)
	assert.Equal(t, "MIE", batter.Opposition)
	assert.Equal(t, "PP", batter.Phase)
	assert.Equal(t, 2024, batter.SpanStart)
	assert.Equal(t, 2025, batter.SpanEnd)
	assert.Equal(t, 210, batter.Runs)
	assert.Equal(t, 140, batter.BallsFaced)
	assert.InDelta(t, 150.0, batter.StrikeRate, 0.001)
	assert.Equal(t, 3, batter.Wickets)
	assert.Equal(t, "anchor", batter.StyleTag)
}

func TestParse_MatchupAdvantages(t *testing.T) {
	doc := `{"matchups": {
		"GG_vs_MIE_PP": {
			"type": "pace",
			"data": [{"Player": "R Sharma", "Runs": 120, "BF": 80, "SR": 150.0}],
			"matchups": [
				{"batsman": "R Sharma", "bowler": "J Bumrah", "runs": 45, "bf": 26, "sr": 173.1, "wks": 0, "advantage": "batsman"},
				{"batsman": "M Wade", "bowler": "T Mills", "runs": 12, "bf": 20, "sr": 60.0, "wks": 3, "advantage": "Bowler"},
				{"batsman": "N Pooran", "bowler": "F Ahmed", "runs": 18, "bf": 15, "sr": 120.0, "wks": 1},
				{"batsman": "", "bowler": "J Bumrah", "runs": 5, "bf": 6, "sr": 83.3}
			]
		}
	}}`

	ds, err := dataset.Parse([]byte(doc), 0.5, testLogger())
	require.NoError(t, err)

	require.Len(t, ds.Advantages, 3)
	assert.Equal(t, 1, ds.Dropped)

	first := ds.Advantages[0]
	assert.Equal(t, "R Sharma", first.Batter)
	assert.Equal(t, "J Bumrah", first.Bowler)
	assert.Equal(t, "GG", first.Team)
	assert.Equal(t, "MIE", first.Opposition)
	assert.Equal(t, "PP", first.Phase)
	assert.Equal(t, "pace", first.MatchupType)
	assert.Equal(t, 45, first.Runs)
	assert.Equal(t, 26, first.Balls)
	assert.InDelta(t, 173.1, first.StrikeRate, 0.001)
	assert.Equal(t, models.AdvantageBatter, first.Advantage)

	// Advantage values are case-folded; absent ones read as neutral.
	assert.Equal(t, models.AdvantageBowler, ds.Advantages[1].Advantage)
	assert.Equal(t, models.AdvantageNeutral, ds.Advantages[2].Advantage)
}

func TestParse_FingerprintCoversAdvantages(t *testing.T) {
	base := `{"matchups": {"GG_vs_MIE_PP": {"type": "pace",
		"data": [{"Player": "R Sharma", "Runs": 120, "BF": 80, "SR": 150.0}],
		"matchups": [{"batsman": "R Sharma", "bowler": "J Bumrah", "runs": 45, "bf": 26, "sr": 173.1, "advantage": "%s"}]
	}}}`

	dsA, err := dataset.Parse([]byte(fmt.Sprintf(base, "batsman")), 0.5, testLogger())
	require.NoError(t, err)
	dsB, err := dataset.Parse([]byte(fmt.Sprintf(base, "bowler")), 0.5, testLogger())
	require.NoError(t, err)

	assert.NotEqual(t, dsA.Fingerprint, dsB.Fingerprint)
}
