package models

// PredictRequest is the JSON body accepted by the predict endpoint. Image
// carries base64 data, with or without a data URL prefix.
type PredictRequest struct {
	Image    string `json:"image" binding:"required"`
	CropType string `json:"cropType"`
}

// FeatureVector holds the scalar statistics derived from a normalized tensor.
// All fields are deterministic functions of the pixel data.
type FeatureVector struct {
	Brightness        float64 `json:"brightness"`
	Contrast          float64 `json:"contrast"`
	GreenDominance    float64 `json:"green_dominance"`
	ColorBalance      float64 `json:"color_balance"`
	TextureComplexity float64 `json:"texture_complexity"`
	RMean             float64 `json:"r_mean"`
	GMean             float64 `json:"g_mean"`
	BMean             float64 `json:"b_mean"`
}

// HealthPrediction is the thresholded verdict shared by the model and
// heuristic paths. IsHealthy is true iff Probability is strictly above 0.5.
type HealthPrediction struct {
	Probability float64 `json:"probability"`
	IsHealthy   bool    `json:"is_healthy"`
	Confidence  int     `json:"confidence"`
}

// ModelInfo carries provenance metadata for a prediction.
type ModelInfo struct {
	RawPredictionValue float64 `json:"raw_prediction_value"`
	ModelThreshold     float64 `json:"model_threshold"`
	Interpretation     string  `json:"interpretation"`
	ModelType          string  `json:"model_type"`
	CropType           string  `json:"crop_type"`
}

// PredictionResult is the externally visible response envelope. Field names
// match the upstream web clients and must not change.
type PredictionResult struct {
	Prediction      string    `json:"prediction"`
	Confidence      int       `json:"confidence"`
	IsHealthy       bool      `json:"is_healthy"`
	Recommendations string    `json:"recommendations"`
	ModelInfo       ModelInfo `json:"model_info"`
}

const (
	// LabelHealthy and LabelAffected are the two values of
	// PredictionResult.Prediction.
	LabelHealthy  = "Healthy Plant"
	LabelAffected = "Affected Plant (Pest/Disease detected)"

	// ModelTypeReal and ModelTypeHeuristic tag which path produced a result.
	ModelTypeReal      = "real"
	ModelTypeHeuristic = "heuristic"
)
