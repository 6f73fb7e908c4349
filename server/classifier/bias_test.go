package classifier

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCropBias(t *testing.T) {
	tests := []struct {
		label string
		want  float64
	}{
		{"palak", 0.1},
		{"Palak Spinach", 0.1},
		{"siru keerai", 0.1},
		{"arai", 0.1},
		{"Tomato", -0.5},
		{"cherry tomato", -0.5},
		{"bell-pepper", -0.3},
		{"strawberry", -0.8},
		{"sweet corn", 0.3},
		{"Maize", 0.3},
		{"banana", 0.0},
		{"", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			require.InDelta(t, tt.want, CropBias(tt.label), 1e-9)
		})
	}
}

// "arai keerai" contains keywords from both of the first two rules. The
// first rule must win via "keerai"; if the rule constants ever diverge this
// test pins the branch that applies.
func TestCropBiasRuleOrder(t *testing.T) {
	require.Contains(t, biasRules[0].keywords, "keerai")
	require.Contains(t, biasRules[1].keywords, "arai")

	require.InDelta(t, biasRules[0].bias, CropBias("arai keerai"), 1e-9)
	require.InDelta(t, biasRules[1].bias, CropBias("arai"), 1e-9)

	// Tomato outranks its overlap with nothing, but the list order still
	// matters for labels naming two crops.
	require.InDelta(t, -0.5, CropBias("tomato and pepper mix"), 1e-9)
}
