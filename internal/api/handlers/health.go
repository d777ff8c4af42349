package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pitchside/cricket-insights/internal/dataset"
	"github.com/pitchside/cricket-insights/internal/insights"
)

// HealthHandler handles health and readiness endpoints.
type HealthHandler struct {
	data          *dataset.Store
	service       *insights.Service
	responseStore insights.ResponseStore // nil when the shared tier is disabled
	serviceName   string
	logger        *logrus.Logger
}

// HealthCheck represents an individual health check.
type HealthCheck struct {
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Latency   string    `json:"latency,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Service   string                 `json:"service"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]HealthCheck `json:"checks"`
}

var startTime = time.Now()

func NewHealthHandler(
	data *dataset.Store,
	service *insights.Service,
	responseStore insights.ResponseStore,
	serviceName string,
	logger *logrus.Logger,
) *HealthHandler {
	return &HealthHandler{
		data:          data,
		service:       service,
		responseStore: responseStore,
		serviceName:   serviceName,
		logger:        logger,
	}
}

// GetHealth performs the full set of dependency checks. The AI layer
// being down degrades the service rather than failing it: the
// deterministic pipeline keeps working regardless.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	h.logger.Debug("Health check requested")

	checks := make(map[string]HealthCheck)
	overallStatus := "healthy"

	datasetCheck := h.checkDataset()
	checks["dataset"] = datasetCheck
	if datasetCheck.Status != "healthy" {
		overallStatus = "unhealthy"
	}

	aiCheck := h.checkAI()
	checks["ai_service"] = aiCheck
	if aiCheck.Status != "healthy" && overallStatus == "healthy" {
		overallStatus = "degraded"
	}

	if h.responseStore != nil {
		storeCheck := h.checkResponseStore(c.Request.Context())
		checks["response_store"] = storeCheck
		if storeCheck.Status != "healthy" && overallStatus == "healthy" {
			overallStatus = "degraded"
		}
	}

	statusCode := http.StatusOK
	if overallStatus == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Service:   h.serviceName,
		Uptime:    time.Since(startTime).String(),
		Checks:    checks,
	})
}

// GetReady reports whether the service can serve analysis requests. Only
// the dataset is required; the AI and Redis tiers degrade gracefully.
func (h *HealthHandler) GetReady(c *gin.Context) {
	ready := h.data.Current() != nil && len(h.data.Current().Records) > 0

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"ready":     ready,
		"timestamp": time.Now(),
		"service":   h.serviceName,
	})
}

func (h *HealthHandler) checkDataset() HealthCheck {
	ds := h.data.Current()
	if ds == nil || len(ds.Records) == 0 {
		return HealthCheck{
			Status:    "unhealthy",
			Message:   "No dataset loaded",
			CheckedAt: time.Now(),
		}
	}
	return HealthCheck{Status: "healthy", CheckedAt: time.Now()}
}

func (h *HealthHandler) checkAI() HealthCheck {
	if !h.service.IsHealthy() {
		return HealthCheck{
			Status:    "unhealthy",
			Message:   "AI service circuit breaker is open",
			CheckedAt: time.Now(),
		}
	}
	return HealthCheck{Status: "healthy", CheckedAt: time.Now()}
}

func (h *HealthHandler) checkResponseStore(ctx context.Context) HealthCheck {
	checker, ok := h.responseStore.(interface{ IsHealthy(context.Context) bool })
	if !ok {
		return HealthCheck{Status: "healthy", CheckedAt: time.Now()}
	}

	start := time.Now()
	if !checker.IsHealthy(ctx) {
		return HealthCheck{
			Status:    "unhealthy",
			Message:   "Response store unreachable",
			CheckedAt: time.Now(),
		}
	}
	return HealthCheck{
		Status:    "healthy",
		Latency:   time.Since(start).String(),
		CheckedAt: time.Now(),
	}
}
