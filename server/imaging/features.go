package imaging

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"leafguard/server/models"
)

// colorEpsilon guards the green dominance denominator against division by
// zero on an all-black tensor.
const colorEpsilon = 0.001

// ExtractFeatures computes the scalar statistics the heuristic scorer
// consumes. It is a pure function of the tensor; calling it twice on the
// same tensor yields identical results.
func ExtractFeatures(t *Tensor) models.FeatureVector {
	values := t.Values()

	brightness := stat.Mean(values, nil)
	contrast := stat.PopStdDev(values, nil)

	var rSum, gSum, bSum float64
	for i := 0; i < len(values); i += Channels {
		rSum += values[i]
		gSum += values[i+1]
		bSum += values[i+2]
	}
	n := float64(Size * Size)
	rMean := rSum / n
	gMean := gSum / n
	bMean := bSum / n

	return models.FeatureVector{
		Brightness:        brightness,
		Contrast:          contrast,
		GreenDominance:    gMean / (rMean + gMean + bMean + colorEpsilon),
		ColorBalance:      math.Abs(rMean - bMean),
		TextureComplexity: textureComplexity(t),
		RMean:             rMean,
		GMean:             gMean,
		BMean:             bMean,
	}
}

// textureComplexity is a cheap edge measure: average the channels into a
// grayscale plane, then sum the mean absolute first differences along the
// horizontal and vertical axes.
func textureComplexity(t *Tensor) float64 {
	gray := make([]float64, Size*Size)
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			gray[y*Size+x] = (t.At(y, x, 0) + t.At(y, x, 1) + t.At(y, x, 2)) / 3.0
		}
	}

	var sumX float64
	for y := 0; y < Size; y++ {
		for x := 0; x < Size-1; x++ {
			sumX += math.Abs(gray[y*Size+x+1] - gray[y*Size+x])
		}
	}
	meanX := sumX / float64(Size*(Size-1))

	var sumY float64
	for y := 0; y < Size-1; y++ {
		for x := 0; x < Size; x++ {
			sumY += math.Abs(gray[(y+1)*Size+x] - gray[y*Size+x])
		}
	}
	meanY := sumY / float64(Size*(Size-1))

	return meanX + meanY
}
