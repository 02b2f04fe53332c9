// Package vibe implements vibe profiles: named collections of seed items
// whose embeddings are aggregated into a unit-norm centroid used for
// similarity search.
package vibe

import "math"

// normEpsilon guards against division by zero when normalizing vectors.
const normEpsilon = 1e-12

// Centroid computes the unit-norm centroid of a set of embedding vectors.
// Each vector is L2-normalized before averaging so that every seed
// contributes direction, not magnitude. The mean is then re-normalized
// with the same epsilon guard, so all-zero or mutually cancelling input
// yields the zero vector rather than an error.
//
// Returns ErrNoVectors for an empty set and ErrDimensionMismatch if the
// vectors do not share one dimensionality.
func Centroid(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, ErrNoVectors
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, ErrNoVectors
	}

	// Accumulate in float64 so large seed sets do not lose precision.
	sum := make([]float64, dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, ErrDimensionMismatch
		}

		norm := l2norm(v)
		if norm < normEpsilon {
			norm = normEpsilon
		}
		for i, x := range v {
			sum[i] += float64(x) / norm
		}
	}

	n := float64(len(vectors))
	var sq float64
	for i := range sum {
		sum[i] /= n
		sq += sum[i] * sum[i]
	}

	meanNorm := math.Sqrt(sq)
	if meanNorm < normEpsilon {
		meanNorm = normEpsilon
	}

	centroid := make([]float32, dim)
	for i := range sum {
		centroid[i] = float32(sum[i] / meanNorm)
	}
	return centroid, nil
}

// CosineSimilarity returns the cosine similarity of a and b in [-1, 1].
// Zero-norm or mismatched inputs score 0.0, never NaN or Inf.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na < normEpsilon*normEpsilon || nb < normEpsilon*normEpsilon {
		return 0.0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// l2norm returns the Euclidean norm of v in float64 precision.
func l2norm(v []float32) float64 {
	var sq float64
	for _, x := range v {
		sq += float64(x) * float64(x)
	}
	return math.Sqrt(sq)
}

// normalize returns v scaled to unit norm, with the epsilon guard applied.
func normalize(v []float32) []float64 {
	norm := l2norm(v)
	if norm < normEpsilon {
		norm = normEpsilon
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x) / norm
	}
	return out
}
