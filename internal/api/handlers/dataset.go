package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pitchside/cricket-insights/internal/dataset"
)

// DatasetHandler exposes dataset lifecycle operations: inspecting the
// current snapshot and triggering a reload from disk.
type DatasetHandler struct {
	data   *dataset.Store
	logger *logrus.Logger
}

func NewDatasetHandler(data *dataset.Store, logger *logrus.Logger) *DatasetHandler {
	return &DatasetHandler{data: data, logger: logger}
}

// GetSnapshot reports summary information about the loaded dataset.
func (h *DatasetHandler) GetSnapshot(c *gin.Context) {
	ds := h.data.Current()

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"fingerprint":     ds.Fingerprint,
			"record_count":    len(ds.Records),
			"advantage_count": len(ds.Advantages),
			"note_count":      len(ds.Notes),
			"dropped_records": ds.Dropped,
			"loaded_at":       ds.LoadedAt,
		},
	})
}

// Reload re-reads the dataset file and swaps the snapshot atomically.
// A failed reload keeps the previous snapshot in place and returns the
// load error, so in-flight analysis never sees a broken dataset.
func (h *DatasetHandler) Reload(c *gin.Context) {
	ds, err := h.data.Reload()
	if err != nil {
		h.logger.WithError(err).Error("Dataset reload failed, keeping previous snapshot")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Dataset reload failed", "details": err.Error()})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"fingerprint":  ds.Fingerprint,
		"record_count": len(ds.Records),
		"dropped":      ds.Dropped,
	}).Info("Dataset reloaded")

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"fingerprint":     ds.Fingerprint,
			"record_count":    len(ds.Records),
			"dropped_records": ds.Dropped,
			"loaded_at":       ds.LoadedAt,
		},
	})
}
