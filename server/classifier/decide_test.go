package classifier

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecideThreshold(t *testing.T) {
	tests := []struct {
		name        string
		probability float64
		healthy     bool
		confidence  int
	}{
		{"exactly at threshold is affected", 0.5, false, 50},
		{"just above threshold", 0.500001, true, 50},
		{"strong healthy", 0.95, true, 95},
		{"strong affected", 0.15, false, 85},
		{"certain healthy", 1.0, true, 100},
		{"certain affected", 0.0, false, 100},
		{"clamped heuristic floor", 0.001, false, 100},
		{"clamped heuristic ceiling", 0.999, true, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Decide(tt.probability)
			require.Equal(t, tt.healthy, p.IsHealthy)
			require.Equal(t, tt.confidence, p.Confidence)
			require.Equal(t, tt.probability, p.Probability)
		})
	}
}

func TestDecideConfidenceRounds(t *testing.T) {
	require.Equal(t, 73, Decide(0.726).Confidence)
	require.Equal(t, 73, Decide(0.274).Confidence)
}

func TestInterpretation(t *testing.T) {
	require.Equal(t, "Model output: 0.726000 > threshold 0.5", Interpretation(0.726))
	require.Equal(t, "Model output: 0.500000 <= threshold 0.5", Interpretation(0.5))
	require.Equal(t, "Model output: 0.150000 <= threshold 0.5", Interpretation(0.15))
}
