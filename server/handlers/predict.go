package handlers

import (
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"leafguard/server/classifier"
	"leafguard/server/imaging"
	"leafguard/server/models"
	"leafguard/server/processor"
)

// SupportedCrops is the set advertised by the health and model-info
// endpoints. Classification accepts any label; unknown crops just get
// neutral bias and generic guidance.
var SupportedCrops = []string{
	"tomato", "bell-pepper", "strawberry", "corn",
	"palak", "arai-keerai", "siru-keerai",
}

type PredictHandler struct {
	pipeline *processor.Pipeline
	logger   *zap.Logger

	statsMu sync.Mutex
	stats   SystemStats
}

type SystemStats struct {
	TotalRequests  int64     `json:"total_requests"`
	ProcessedOK    int64     `json:"processed_ok"`
	ProcessedError int64     `json:"processed_error"`
	AvgProcessTime float64   `json:"avg_process_time_ms"`
	LastUpdated    time.Time `json:"last_updated"`
}

func NewPredictHandler(pipeline *processor.Pipeline, logger *zap.Logger) *PredictHandler {
	return &PredictHandler{
		pipeline: pipeline,
		logger:   logger,
		stats:    SystemStats{LastUpdated: time.Now()},
	}
}

// Predict handles the JSON endpoint: base64 (or data URL) image plus crop
// label in, prediction envelope out.
func (h *PredictHandler) Predict(c *gin.Context) {
	startTime := time.Now()

	var request models.PredictRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Error("Invalid request format", zap.Error(err))
		h.fail(c, http.StatusBadRequest, "No image data provided")
		return
	}

	raw, err := imaging.DecodePayload(request.Image)
	if err != nil {
		h.logger.Error("Failed to decode image payload", zap.Error(err))
		h.fail(c, http.StatusBadRequest, "Invalid image data")
		return
	}

	h.runPrediction(c, raw, request.CropType, startTime)
}

// PredictFromImage handles multipart uploads with the file in the "image"
// form field and the crop label in "cropType".
func (h *PredictHandler) PredictFromImage(c *gin.Context) {
	startTime := time.Now()

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		h.fail(c, http.StatusBadRequest, "No image file provided. Use 'image' as the form field name")
		return
	}
	defer file.Close()

	h.logger.Debug("Received image upload",
		zap.String("filename", header.Filename),
		zap.Int64("size", header.Size))

	raw, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Failed to read uploaded file", zap.Error(err))
		h.fail(c, http.StatusInternalServerError, "Failed to read uploaded file")
		return
	}

	h.runPrediction(c, raw, c.PostForm("cropType"), startTime)
}

func (h *PredictHandler) runPrediction(c *gin.Context, imageBytes []byte, cropLabel string, startTime time.Time) {
	h.bumpTotal()

	if cropLabel == "" {
		cropLabel = "Unknown Crop"
	}

	job := &processor.Job{
		ImageBytes: imageBytes,
		CropLabel:  cropLabel,
		RequestID:  c.GetString("request_id"),
	}

	result, err := h.pipeline.Predict(c.Request.Context(), job)
	if err != nil {
		h.logger.Error("Prediction failed",
			zap.Error(err),
			zap.String("request_id", job.RequestID),
			zap.String("crop", cropLabel))

		switch {
		case models.IsDecodeError(err):
			h.fail(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, models.ErrModelUnavailable):
			h.fail(c, http.StatusServiceUnavailable, "Classifier model unavailable")
		default:
			h.fail(c, http.StatusInternalServerError, "Prediction failed")
		}
		return
	}

	h.recordOK(time.Since(startTime))
	c.JSON(http.StatusOK, result)
}

// Health mirrors the upstream health contract: service status plus whether
// the real model is loaded.
func (h *PredictHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"model_loaded":    h.pipeline.IsRealModelLoaded(),
		"message":         "Plant Health API is running",
		"supported_crops": SupportedCrops,
	})
}

// ModelInfo describes the active classification setup.
func (h *PredictHandler) ModelInfo(c *gin.Context) {
	modelType := models.ModelTypeHeuristic
	if h.pipeline.IsRealModelLoaded() {
		modelType = models.ModelTypeReal
	}

	c.JSON(http.StatusOK, gin.H{
		"model_name":               "plant_health_classifier",
		"input_shape":              []int{1, imaging.Size, imaging.Size, imaging.Channels},
		"output_shape":             []int{1, 1},
		"model_type":               modelType,
		"classification_threshold": classifier.Threshold,
		"supported_crops":          SupportedCrops,
	})
}

// Stats reports request counters alongside pipeline and cache internals.
func (h *PredictHandler) Stats(c *gin.Context) {
	h.statsMu.Lock()
	h.stats.LastUpdated = time.Now()
	systemStats := h.stats
	h.statsMu.Unlock()

	var successRate float64
	if systemStats.TotalRequests > 0 {
		successRate = float64(systemStats.ProcessedOK) / float64(systemStats.TotalRequests) * 100
	}

	pipelineStats := h.pipeline.GetStats()

	response := gin.H{
		"system":   systemStats,
		"pipeline": pipelineStats,
		"metrics": gin.H{
			"success_rate":   successRate,
			"uptime_seconds": time.Since(pipelineStats.StartTime).Seconds(),
		},
	}

	if cacheStats, err := h.pipeline.GetCacheStats(c.Request.Context()); err == nil {
		response["cache"] = cacheStats
	}

	c.JSON(http.StatusOK, response)
}

func (h *PredictHandler) fail(c *gin.Context, status int, message string) {
	h.statsMu.Lock()
	h.stats.ProcessedError++
	h.statsMu.Unlock()

	c.JSON(status, gin.H{"error": message})
}

func (h *PredictHandler) bumpTotal() {
	h.statsMu.Lock()
	h.stats.TotalRequests++
	h.statsMu.Unlock()
}

func (h *PredictHandler) recordOK(duration time.Duration) {
	h.statsMu.Lock()
	defer h.statsMu.Unlock()

	h.stats.ProcessedOK++

	current := float64(duration.Milliseconds())
	if h.stats.AvgProcessTime == 0 {
		h.stats.AvgProcessTime = current
	} else {
		alpha := 0.1
		h.stats.AvgProcessTime = alpha*current + (1-alpha)*h.stats.AvgProcessTime
	}
}
