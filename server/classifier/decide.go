package classifier

import (
	"fmt"
	"math"

	"leafguard/server/models"
)

// Threshold is the fixed decision boundary separating healthy from affected.
// Both the model and heuristic paths apply the same boundary.
const Threshold = 0.5

// Decide applies the threshold to a probability and derives the confidence
// percentage. A probability exactly at the threshold is classified as
// affected.
func Decide(probability float64) models.HealthPrediction {
	healthy := probability > Threshold

	winning := probability
	if !healthy {
		winning = 1 - probability
	}

	confidence := int(math.Round(winning * 100))
	if confidence < 0 {
		confidence = 0
	} else if confidence > 100 {
		confidence = 100
	}

	return models.HealthPrediction{
		Probability: probability,
		IsHealthy:   healthy,
		Confidence:  confidence,
	}
}

// Interpretation renders the human-readable threshold comparison that goes
// into the response's model_info block.
func Interpretation(probability float64) string {
	op := "<="
	if probability > Threshold {
		op = ">"
	}
	return fmt.Sprintf("Model output: %.6f %s threshold %.1f", probability, op, Threshold)
}
