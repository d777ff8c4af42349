package analytics_test

import (
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/cricket-insights/internal/analytics"
	"github.com/pitchside/cricket-insights/internal/dataset"
	"github.com/pitchside/cricket-insights/internal/models"
)

// Loads a document with one invalid record among ten and checks the
// aggregates downstream only see the nine valid ones.
func TestPipeline_InvalidRecordDroppedBeforeAggregation(t *testing.T) {
	doc := `{"matchups": {"GG_vs_MIE_PP": {"type": "pace", "data": [`
	for i := 0; i < 9; i++ {
		doc += fmt.Sprintf(`{"Player": "Player %d", "Runs": %d, "BF": 30, "SR": 120.0},`, i, 30+i)
	}
	// Negative balls faced fails validation.
	doc += `{"Player": "Broken Record", "Runs": 10, "BF": -8, "SR": 125.0}]}}}`

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	ds, err := dataset.Parse([]byte(doc), 0.5, logger)
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Dropped)

	view := analytics.Apply(ds, models.FilterSpec{Team: "GG"})
	metrics := analytics.Aggregate(view, models.GroupByPlayer)

	assert.Len(t, metrics, 9)
	assert.NotContains(t, metrics, "broken record")
	for _, m := range metrics {
		assert.Equal(t, 1, m.SampleSize)
	}
}
