package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pitchside/cricket-insights/internal/analytics"
	"github.com/pitchside/cricket-insights/internal/config"
	"github.com/pitchside/cricket-insights/internal/dataset"
	"github.com/pitchside/cricket-insights/internal/models"
)

// AnalyticsHandler serves the deterministic half of the pipeline:
// filtering, aggregation, and SWOT derivation. Nothing here touches the
// AI layer, so these endpoints stay fast and always available.
type AnalyticsHandler struct {
	data     *dataset.Store
	analyzer *analytics.SWOTAnalyzer
	config   *config.Config
	logger   *logrus.Logger
}

func NewAnalyticsHandler(data *dataset.Store, analyzer *analytics.SWOTAnalyzer, config *config.Config, logger *logrus.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		data:     data,
		analyzer: analyzer,
		config:   config,
		logger:   logger,
	}
}

// FilterRequest is the wire form of a filter/aggregate/SWOT request.
type FilterRequest struct {
	Filter  models.FilterSpec `json:"filter"`
	GroupBy string            `json:"group_by"`
}

func (r *FilterRequest) groupBy() (models.GroupBy, bool) {
	switch models.GroupBy(r.GroupBy) {
	case models.GroupByTeam:
		return models.GroupByTeam, true
	case models.GroupByPlayer, "":
		return models.GroupByPlayer, true
	}
	return "", false
}

// FilterRecords returns the records matching the given filter spec. An
// empty result set is a normal response, not an error.
func (h *AnalyticsHandler) FilterRecords(c *gin.Context) {
	var request FilterRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.WithError(err).Warn("Invalid filter request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	view := analytics.Apply(h.data.Current(), request.Filter)

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   view,
		"meta": gin.H{
			"filter":       request.Filter.Signature(),
			"record_count": len(view),
		},
	})
}

// AggregateMetrics filters the dataset and returns per-entity aggregates.
func (h *AnalyticsHandler) AggregateMetrics(c *gin.Context) {
	var request FilterRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.WithError(err).Warn("Invalid aggregate request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	groupBy, ok := request.groupBy()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group_by", "details": "must be \"player\" or \"team\""})
		return
	}

	view := analytics.Apply(h.data.Current(), request.Filter)
	metrics := analytics.Aggregate(view, groupBy)

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   metrics,
		"meta": gin.H{
			"filter":       request.Filter.Signature(),
			"group_by":     groupBy,
			"record_count": len(view),
			"entity_count": len(metrics),
		},
	})
}

// DeriveSWOT runs the full deterministic pipeline and returns the SWOT
// classification for the filtered population.
func (h *AnalyticsHandler) DeriveSWOT(c *gin.Context) {
	var request FilterRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.WithError(err).Warn("Invalid SWOT request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	groupBy, ok := request.groupBy()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group_by", "details": "must be \"player\" or \"team\""})
		return
	}

	view := analytics.Apply(h.data.Current(), request.Filter)
	metrics := analytics.Aggregate(view, groupBy)
	summary := h.analyzer.Derive(metrics)

	h.logger.WithFields(logrus.Fields{
		"filter":            request.Filter.Signature(),
		"entity_count":      summary.EntityCount,
		"insufficient_data": summary.InsufficientData,
	}).Info("SWOT analysis completed")

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   summary,
		"meta": gin.H{
			"filter":   request.Filter.Signature(),
			"group_by": groupBy,
		},
	})
}

// TeamOverview returns the squad-level rollup for a filtered selection:
// squad size, total runs and wickets, and per-phase summaries. This is
// the same rollup that feeds team-level prompt context.
func (h *AnalyticsHandler) TeamOverview(c *gin.Context) {
	var request FilterRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.WithError(err).Warn("Invalid overview request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	view := analytics.Apply(h.data.Current(), request.Filter)
	overview := analytics.Overview(view)
	performers := analytics.TopPerformers(view, h.config.TopPerformerMinBalls, h.config.TopPerformerLimit)

	h.logger.WithFields(logrus.Fields{
		"filter":       request.Filter.Signature(),
		"squad_size":   overview.SquadSize,
		"record_count": overview.RecordCount,
	}).Info("Team overview computed")

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"overview":       overview,
			"top_performers": performers,
		},
		"meta": gin.H{
			"filter":          request.Filter.Signature(),
			"min_balls":       h.config.TopPerformerMinBalls,
			"performer_limit": h.config.TopPerformerLimit,
		},
	})
}

// ListTeams returns every team code present in the current dataset with
// its display name.
func (h *AnalyticsHandler) ListTeams(c *gin.Context) {
	ds := h.data.Current()

	seen := make(map[string]bool)
	for _, rec := range ds.Records {
		if rec.Team != "" {
			seen[rec.Team] = true
		}
		if rec.Opposition != "" {
			seen[rec.Opposition] = true
		}
	}

	type teamEntry struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	teams := make([]teamEntry, 0, len(seen))
	for code := range seen {
		teams = append(teams, teamEntry{Code: code, Name: models.TeamDisplayName(code)})
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Code < teams[j].Code })

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   teams,
	})
}

// ListSWOTNotes returns the narrative SWOT entries carried by the
// dataset itself, optionally filtered by type.
func (h *AnalyticsHandler) ListSWOTNotes(c *gin.Context) {
	notes := h.data.Current().Notes

	if noteType := c.Query("type"); noteType != "" {
		filtered := make([]models.SWOTNote, 0, len(notes))
		for _, n := range notes {
			if n.Type == noteType {
				filtered = append(filtered, n)
			}
		}
		notes = filtered
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   notes,
	})
}
