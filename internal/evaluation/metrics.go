// Package evaluation runs estimation methods over stored datasets and scores
// their per-window output against exact ground truth.
package evaluation

import (
	"math"

	"github.com/Sumatoshi-tech/topfang/pkg/alg/divergence"
)

// RankedItem is one item of a ranked frequency list, either ground truth or
// an estimate.
type RankedItem struct {
	Item  string
	Count int64
	Freq  float64
}

// TopNMetrics scores an estimated top-n against the actual one.
type TopNMetrics struct {
	Precision        float64
	Recall           float64
	F1               float64
	AvgAbsoluteError float64
	AvgRelativeError float64
	RMSE             float64
}

// PrecisionRecallF1 scores set membership of the estimated items against the
// actual ones.
func PrecisionRecallF1(actual, estimated map[string]float64) (precision, recall, f1 float64) {
	var truePositives int

	for k := range estimated {
		if _, ok := actual[k]; ok {
			truePositives++
		}
	}

	falsePositives := len(estimated) - truePositives
	falseNegatives := len(actual) - truePositives

	if truePositives+falsePositives > 0 {
		precision = float64(truePositives) / float64(truePositives+falsePositives)
	}

	if truePositives+falseNegatives > 0 {
		recall = float64(truePositives) / float64(truePositives+falseNegatives)
	}

	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}

	return precision, recall, f1
}

// AvgAbsoluteError averages |estimated - actual| frequency over the actual
// keys, counting missing estimates as zero.
func AvgAbsoluteError(actual, estimated map[string]float64) float64 {
	if len(actual) == 0 {
		return 0
	}

	var sum float64
	for k, a := range actual {
		sum += math.Abs(estimated[k] - a)
	}

	return sum / float64(len(actual))
}

// AvgRelativeError averages |estimated - actual| / actual over the keys
// present on both sides with positive actual frequency.
func AvgRelativeError(actual, estimated map[string]float64) float64 {
	var (
		sum float64
		n   int
	)

	for k, a := range actual {
		e, ok := estimated[k]
		if !ok || a <= 0 {
			continue
		}

		sum += math.Abs(e-a) / a
		n++
	}

	if n == 0 {
		return 0
	}

	return sum / float64(n)
}

// RMSE is the root mean squared frequency error over the keys present on
// both sides.
func RMSE(actual, estimated map[string]float64) float64 {
	var (
		sum float64
		n   int
	)

	for k, a := range actual {
		e, ok := estimated[k]
		if !ok {
			continue
		}

		sum += (e - a) * (e - a)
		n++
	}

	if n == 0 {
		return 0
	}

	return math.Sqrt(sum / float64(n))
}

// ComputeTopNMetrics scores an estimated top-n list against the actual one.
func ComputeTopNMetrics(actualTopN, estimatedTopN []RankedItem) TopNMetrics {
	actual := freqMap(actualTopN)
	estimated := freqMap(estimatedTopN)

	precision, recall, f1 := PrecisionRecallF1(actual, estimated)

	return TopNMetrics{
		Precision:        precision,
		Recall:           recall,
		F1:               f1,
		AvgAbsoluteError: AvgAbsoluteError(actual, estimated),
		AvgRelativeError: AvgRelativeError(actual, estimated),
		RMSE:             RMSE(actual, estimated),
	}
}

// normalisedEntropy is the Shannon entropy of the distribution rescaled by
// its maximum over the same support, in [0, 1].
func normalisedEntropy(freqs map[string]float64) float64 {
	return divergence.NormalizeEntropy(divergence.Entropy(freqs), len(freqs))
}

func freqMap(items []RankedItem) map[string]float64 {
	m := make(map[string]float64, len(items))
	for _, it := range items {
		m[it.Item] = it.Freq
	}

	return m
}
