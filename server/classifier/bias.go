package classifier

import "strings"

type biasRule struct {
	keywords []string
	bias     float64
}

// biasRules is evaluated top to bottom and the first matching rule wins.
// The order is load-bearing: keyword sets overlap (a label like
// "arai keerai" hits the first rule via "keerai"), so the rules must not be
// re-sorted.
var biasRules = []biasRule{
	{keywords: []string{"palak", "keerai", "spinach"}, bias: 0.1},
	{keywords: []string{"arai", "siru"}, bias: 0.1},
	{keywords: []string{"tomato"}, bias: -0.5},
	{keywords: []string{"pepper"}, bias: -0.3},
	{keywords: []string{"strawberry"}, bias: -0.8},
	{keywords: []string{"corn", "maize"}, bias: 0.3},
}

// CropBias maps a free-text crop label to its fixed score adjustment.
// Matching is case-insensitive substring containment; unknown or empty
// labels get a neutral 0.
func CropBias(label string) float64 {
	if label == "" {
		return 0.0
	}
	crop := strings.ToLower(label)
	for _, rule := range biasRules {
		for _, kw := range rule.keywords {
			if strings.Contains(crop, kw) {
				return rule.bias
			}
		}
	}
	return 0.0
}
