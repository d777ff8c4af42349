package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pitchside/cricket-insights/internal/analytics"
	"github.com/pitchside/cricket-insights/internal/config"
	"github.com/pitchside/cricket-insights/internal/dataset"
	"github.com/pitchside/cricket-insights/internal/insights"
	"github.com/pitchside/cricket-insights/internal/models"
	"github.com/pitchside/cricket-insights/pkg/logger"
)

// InsightHandler composes the deterministic pipeline with the AI layer:
// it filters, aggregates, derives SWOT, and hands the snapshot to the
// insight service for narrative generation.
type InsightHandler struct {
	data     *dataset.Store
	analyzer *analytics.SWOTAnalyzer
	service  *insights.Service
	config   *config.Config
	logger   *logrus.Logger
}

func NewInsightHandler(
	data *dataset.Store,
	analyzer *analytics.SWOTAnalyzer,
	service *insights.Service,
	config *config.Config,
	logger *logrus.Logger,
) *InsightHandler {
	return &InsightHandler{
		data:     data,
		analyzer: analyzer,
		service:  service,
		config:   config,
		logger:   logger,
	}
}

// InsightRequestBody is the wire form of an insight request.
type InsightRequestBody struct {
	Mode     string            `json:"mode" binding:"required"`
	Filter   models.FilterSpec `json:"filter"`
	GroupBy  string            `json:"group_by"`
	Question string            `json:"question"`
}

// GenerateInsight runs one AI analysis request end to end. AI-layer
// failures come back HTTP 200 with success=false and the metrics
// snapshot intact, so clients always have numbers to show.
func (h *InsightHandler) GenerateInsight(c *gin.Context) {
	var request InsightRequestBody
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.WithError(err).Warn("Invalid insight request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}

	mode, err := models.ParseInsightMode(request.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mode", "details": err.Error()})
		return
	}

	groupBy := models.GroupByPlayer
	if request.GroupBy != "" {
		switch models.GroupBy(request.GroupBy) {
		case models.GroupByPlayer, models.GroupByTeam:
			groupBy = models.GroupBy(request.GroupBy)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group_by", "details": "must be \"player\" or \"team\""})
			return
		}
	}

	start := time.Now()
	ds := h.data.Current()
	view := analytics.Apply(ds, request.Filter)
	metrics := analytics.Aggregate(view, groupBy)
	summary := h.analyzer.Derive(metrics)

	h.logger.WithFields(logrus.Fields{
		"mode":         mode,
		"filter":       request.Filter.Signature(),
		"record_count": len(view),
		"entity_count": len(metrics),
	}).Info("Processing insight request")

	insightReq := models.InsightRequest{
		Mode:     mode,
		Filter:   request.Filter,
		Metrics:  metrics,
		SWOT:     &summary,
		Notes:    ds.Notes,
		Question: request.Question,
	}

	// Strategy-level modes get the squad rollup and the qualified
	// top-performer list in their prompt context.
	if mode == models.ModeTeamStrategy || mode == models.ModeMatchPreparation {
		overview := analytics.Overview(view)
		insightReq.Overview = &overview
		insightReq.TopPerformers = analytics.TopPerformers(view, h.config.TopPerformerMinBalls, h.config.TopPerformerLimit)
	}

	// Head-to-head extracts back the opposition-facing modes.
	if mode == models.ModeOppositionAnalysis || mode == models.ModeMatchPreparation {
		insightReq.Favorable, insightReq.Challenging = analytics.MatchupEdges(ds.Advantages, request.Filter, h.config.MatchupEdgeLimit)
	}

	response, err := h.service.RequestInsight(c.Request.Context(), insightReq)
	if err != nil {
		if errors.Is(err, insights.ErrInvalidPromptMode) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid insight request", "details": err.Error()})
			return
		}
		h.logger.WithError(err).Error("Failed to process insight request")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process insight request"})
		return
	}

	logger.WithAnalysisContext(h.logger, response.ID, string(mode)).WithFields(logrus.Fields{
		"success":            response.Success,
		"cache_hit":          response.CacheHit,
		"processing_time_ms": time.Since(start).Milliseconds(),
	}).Info("Insight request completed")

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   response,
		"meta": gin.H{
			"request_id":         response.ID,
			"cache_hit":          response.CacheHit,
			"metrics":            metrics,
			"swot":               summary,
			"record_count":       len(view),
			"processing_time_ms": time.Since(start).Milliseconds(),
		},
	})
}
