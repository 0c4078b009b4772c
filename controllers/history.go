package controllers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/storage"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

func historyLimit(c *gin.Context) (int, error) {
	raw := c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit))
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return limit, nil
}

// GetHistory returns recent predictions, newest first.
func (h *PredictionHandler) GetHistory(c *gin.Context) {
	limit, err := historyLimit(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := h.svc.History(c.Request.Context(), limit)
	if err != nil {
		h.log.WithError(err).Error("failed to load prediction history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"predictions": records,
		"count":       len(records),
		"timestamp":   timestamp(),
	})
}

// DownloadCSV sends prediction history as a CSV file.
func (h *PredictionHandler) DownloadCSV(c *gin.Context) {
	records, err := h.svc.History(c.Request.Context(), maxHistoryLimit)
	if err != nil {
		h.log.WithError(err).Error("failed to load prediction history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
		return
	}

	names := h.svc.FeatureNames()
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=predictions.csv")
	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	header := []string{"timestamp", "prediction_id", "endpoint", "prediction", "original_model_prediction", "confidence", "model_type", "using_fallback"}
	writer.Write(append(header, names...))
	for _, record := range records {
		var features map[string]float64
		if len(record.Features) > 0 {
			if err := json.Unmarshal(record.Features, &features); err != nil {
				h.log.WithError(err).WithField("prediction_id", record.ID).Warn("unreadable features in history")
			}
		}
		row := []string{
			record.CreatedAt.Format("2006-01-02 15:04:05"),
			record.ID,
			record.Endpoint,
			strconv.Itoa(record.Class),
			strconv.Itoa(record.OriginalClass),
			fmt.Sprintf("%.3f", record.Confidence),
			record.ModelType,
			strconv.FormatBool(record.UsingFallback),
		}
		for _, name := range names {
			if v, ok := features[name]; ok {
				row = append(row, fmt.Sprintf("%.2f", v))
			} else {
				row = append(row, "")
			}
		}
		writer.Write(row)
	}
}

// DeleteRecord deletes a single prediction record.
func (h *PredictionHandler) DeleteRecord(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.DeleteRecord(c.Request.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
			return
		}
		h.log.WithError(err).Error("failed to delete prediction")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete record"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Record deleted successfully"})
}

// GetRecord returns a single stored prediction.
func (h *PredictionHandler) GetRecord(c *gin.Context) {
	record, err := h.svc.Record(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
			return
		}
		h.log.WithError(err).Error("failed to load prediction")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve record"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"prediction": record,
		"timestamp":  timestamp(),
	})
}

// GetStats summarizes the stored history.
func (h *PredictionHandler) GetStats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("failed to compute prediction stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_predictions":     stats.Total,
		"today_predictions":     stats.Today,
		"class_distribution":    stats.ClassDistribution,
		"endpoint_distribution": stats.EndpointDistribution,
		"timestamp":             timestamp(),
	})
}
