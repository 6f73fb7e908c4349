package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"leafguard/server/classifier"
	"leafguard/server/models"
	"leafguard/server/processor"
)

func testRouter(t *testing.T) (*gin.Engine, *processor.Pipeline) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pipeline := processor.NewPipeline(
		nil,
		classifier.NewSeededHeuristicScorer(42),
		nil,
		&processor.PipelineConfig{
			MaxQueueSize:      10,
			MaxWorkers:        2,
			ProcessingTimeout: 5 * time.Second,
			CacheTTL:          time.Minute,
		},
		zap.NewNop(),
	)
	t.Cleanup(func() { pipeline.Shutdown() })

	h := NewPredictHandler(pipeline, zap.NewNop())

	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/model-info", h.ModelInfo)
	router.GET("/stats", h.Stats)
	router.POST("/predict", h.Predict)
	router.POST("/predict/image", h.PredictFromImage)

	return router, pipeline
}

func greenPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 100, G: 180, B: 100, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := testRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "healthy", body["status"])
	require.Equal(t, false, body["model_loaded"])
	require.Contains(t, body["supported_crops"], "tomato")
}

func TestModelInfoEndpoint(t *testing.T) {
	router, _ := testRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/model-info", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 0.5, body["classification_threshold"])
	require.Equal(t, models.ModelTypeHeuristic, body["model_type"])
}

func TestPredictEndpoint(t *testing.T) {
	router, _ := testRouter(t)

	payload, err := json.Marshal(models.PredictRequest{
		Image:    "data:image/png;base64," + base64.StdEncoding.EncodeToString(greenPNG(t)),
		CropType: "tomato",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result models.PredictionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	require.True(t, result.IsHealthy)
	require.Equal(t, models.LabelHealthy, result.Prediction)
	require.Equal(t, models.ModelTypeHeuristic, result.ModelInfo.ModelType)
	require.Equal(t, "tomato", result.ModelInfo.CropType)
	require.NotEmpty(t, result.Recommendations)
}

func TestPredictEndpointRejectsBadPayload(t *testing.T) {
	router, _ := testRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing image field", `{"cropType":"tomato"}`},
		{"invalid base64", `{"image":"!!!", "cropType":"tomato"}`},
		{"undecodable image", `{"image":"` + base64.StdEncoding.EncodeToString([]byte("junk")) + `", "cropType":"tomato"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestPredictFromImageEndpoint(t *testing.T) {
	router, _ := testRouter(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("image", "leaf.png")
	require.NoError(t, err)
	_, err = part.Write(greenPNG(t))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("cropType", "palak"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/predict/image", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result models.PredictionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Equal(t, "palak", result.ModelInfo.CropType)
}

func TestPredictFromImageRequiresFile(t *testing.T) {
	router, _ := testRouter(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("cropType", "palak"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/predict/image", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsEndpoint(t *testing.T) {
	router, _ := testRouter(t)

	payload, err := json.Marshal(models.PredictRequest{
		Image:    base64.StdEncoding.EncodeToString(greenPNG(t)),
		CropType: "corn",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(httptest.NewRecorder(), req)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	system := body["system"].(map[string]any)
	require.Equal(t, float64(1), system["total_requests"])
	require.Equal(t, float64(1), system["processed_ok"])
}
