// Package divergence provides numerically stable information-theoretic
// measures over sparse discrete distributions keyed by opaque identifiers.
//
// Distributions are maps from key to non-negative weight. Inputs need not be
// normalised: each side is divided by its own mass before comparison, and
// keys missing from one side are treated as zero.
package divergence

import "math"

// JSD returns the squared Jensen-Shannon distance between p and q with
// base-2 logarithms, which bounds the result to [0, 1].
//
// The computation uses the convention 0*log(0/x) = 0, so a side with zero
// mass contributes nothing to its own KL term. Two zero-mass distributions
// are considered identical and yield 0.
func JSD[T comparable](p, q map[T]float64) float64 {
	var pSum, qSum float64

	for _, w := range p {
		pSum += w
	}

	for _, w := range q {
		qSum += w
	}

	if pSum <= 0 && qSum <= 0 {
		return 0
	}

	var acc float64

	for k, w := range p {
		if w <= 0 || pSum <= 0 {
			continue
		}

		pi := w / pSum

		var qi float64
		if qSum > 0 {
			qi = q[k] / qSum
		}

		mi := (pi + qi) / 2
		acc += 0.5 * pi * math.Log2(pi/mi)
	}

	for k, w := range q {
		if w <= 0 || qSum <= 0 {
			continue
		}

		qi := w / qSum

		var pi float64
		if pSum > 0 {
			pi = p[k] / pSum
		}

		mi := (pi + qi) / 2
		acc += 0.5 * qi * math.Log2(qi/mi)
	}

	// Floating-point noise can push the sum a hair outside [0, 1].
	return min(1, max(0, acc))
}

// Entropy returns the Shannon entropy in bits of the given distribution.
// Zero and negative weights are skipped; the input is assumed normalised.
func Entropy[T comparable](freqs map[T]float64) float64 {
	var h float64

	for _, p := range freqs {
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}

	return h
}

// NormalizeEntropy rescales an entropy value by the maximum achievable over
// numElements outcomes, log2(numElements), yielding a value in [0, 1].
// Distributions with at most one outcome normalise to 0.
func NormalizeEntropy(entropy float64, numElements int) float64 {
	if numElements <= 1 {
		return 0
	}

	return entropy / math.Log2(float64(numElements))
}
