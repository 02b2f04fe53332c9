package vibe

import "math"

// CoherenceStats summarizes how tightly a set of embeddings clusters.
type CoherenceStats struct {
	// Count is the number of vectors analyzed.
	Count int

	// MeanPairwise is the mean cosine similarity over all vector pairs.
	// 1.0 when fewer than two vectors are present.
	MeanPairwise float64

	// MinPairwise is the minimum cosine similarity over all vector pairs.
	// 1.0 when fewer than two vectors are present.
	MinPairwise float64

	// Tightness is the mean cosine similarity between the centroid and
	// each vector. Higher means the set points in one direction.
	Tightness float64

	// MaxDriftDegrees is the largest angular displacement of the
	// centroid, in degrees, caused by removing any single vector.
	// 0.0 when fewer than three vectors are present.
	MaxDriftDegrees float64
}

// Coherence computes cluster statistics for a set of embedding vectors.
// Returns ErrNoVectors for an empty set and ErrDimensionMismatch when the
// vectors do not share one dimensionality.
func Coherence(vectors [][]float32) (CoherenceStats, error) {
	n := len(vectors)
	if n == 0 {
		return CoherenceStats{}, ErrNoVectors
	}

	dim := len(vectors[0])
	for _, v := range vectors {
		if len(v) != dim {
			return CoherenceStats{}, ErrDimensionMismatch
		}
	}

	stats := CoherenceStats{
		Count:        n,
		MeanPairwise: 1.0,
		MinPairwise:  1.0,
	}

	if n >= 2 {
		var sum float64
		min := math.Inf(1)
		pairs := 0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				sim := CosineSimilarity(vectors[i], vectors[j])
				sum += sim
				if sim < min {
					min = sim
				}
				pairs++
			}
		}
		stats.MeanPairwise = sum / float64(pairs)
		stats.MinPairwise = min
	}

	// Normalized rows and their running sum drive both tightness and the
	// leave-one-out drift.
	rows := make([][]float64, n)
	rowSum := make([]float64, dim)
	for i, v := range vectors {
		rows[i] = normalize(v)
		for j, x := range rows[i] {
			rowSum[j] += x
		}
	}

	centroid := unitMean(rowSum, n, dim)

	var tightness float64
	for _, row := range rows {
		tightness += dotF64(centroid, row)
	}
	stats.Tightness = tightness / float64(n)

	if n >= 3 {
		var maxDrift float64
		loo := make([]float64, dim)
		for i := 0; i < n; i++ {
			for j := 0; j < dim; j++ {
				loo[j] = rowSum[j] - rows[i][j]
			}
			looCentroid := unitMean(loo, n-1, dim)

			cos := dotF64(centroid, looCentroid)
			cos = math.Max(-1.0, math.Min(1.0, cos))
			drift := math.Acos(cos) * 180.0 / math.Pi
			if drift > maxDrift {
				maxDrift = drift
			}
		}
		stats.MaxDriftDegrees = maxDrift
	}

	return stats, nil
}

// unitMean divides sum by count and normalizes the result to unit length.
func unitMean(sum []float64, count, dim int) []float64 {
	mean := make([]float64, dim)
	var sq float64
	for i := range sum {
		mean[i] = sum[i] / float64(count)
		sq += mean[i] * mean[i]
	}
	norm := math.Sqrt(sq)
	if norm < normEpsilon {
		norm = normEpsilon
	}
	for i := range mean {
		mean[i] /= norm
	}
	return mean
}

func dotF64(a, b []float64) float64 {
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}
