package vibe_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/MikeNorman/poempig/pkg/vibe"
)

var _ = Describe("Coherence", func() {
	It("returns ErrNoVectors for an empty set", func() {
		_, err := vibe.Coherence(nil)
		Expect(err).To(MatchError(vibe.ErrNoVectors))
	})

	It("returns ErrDimensionMismatch for ragged input", func() {
		_, err := vibe.Coherence([][]float32{{1, 0}, {1, 0, 0}})
		Expect(err).To(MatchError(vibe.ErrDimensionMismatch))
	})

	It("defaults pairwise stats to 1.0 for a single vector", func() {
		stats, err := vibe.Coherence([][]float32{{1, 0, 0}})
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Count).To(Equal(1))
		Expect(stats.MeanPairwise).To(Equal(1.0))
		Expect(stats.MinPairwise).To(Equal(1.0))
		Expect(stats.Tightness).To(BeNumerically("~", 1.0, 1e-9))
		Expect(stats.MaxDriftDegrees).To(BeZero())
	})

	It("reports perfect coherence for identical vectors", func() {
		stats, err := vibe.Coherence([][]float32{
			{1, 1, 0},
			{2, 2, 0},
			{0.5, 0.5, 0},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.MeanPairwise).To(BeNumerically("~", 1.0, 1e-6))
		Expect(stats.MinPairwise).To(BeNumerically("~", 1.0, 1e-6))
		Expect(stats.Tightness).To(BeNumerically("~", 1.0, 1e-6))
		Expect(stats.MaxDriftDegrees).To(BeNumerically("~", 0.0, 1e-3))
	})

	It("computes pairwise stats for an orthogonal pair", func() {
		stats, err := vibe.Coherence([][]float32{{1, 0}, {0, 1}})
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.MeanPairwise).To(BeNumerically("~", 0.0, 1e-6))
		Expect(stats.MinPairwise).To(BeNumerically("~", 0.0, 1e-6))
		// Drift stays zero below three vectors.
		Expect(stats.MaxDriftDegrees).To(BeZero())
	})

	It("tracks the minimum pair separately from the mean", func() {
		stats, err := vibe.Coherence([][]float32{
			{1, 0, 0},
			{1, 0.1, 0},
			{0, 0, 1},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.MinPairwise).To(BeNumerically("<", stats.MeanPairwise))
		Expect(stats.MinPairwise).To(BeNumerically("~", 0.0, 1e-6))
	})

	It("attributes drift to an outlier", func() {
		tight, err := vibe.Coherence([][]float32{
			{1, 0, 0},
			{1, 0.01, 0},
			{1, 0, 0.01},
		})
		Expect(err).NotTo(HaveOccurred())

		loose, err := vibe.Coherence([][]float32{
			{1, 0, 0},
			{1, 0.01, 0},
			{0, 1, 0},
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(loose.MaxDriftDegrees).To(BeNumerically(">", tight.MaxDriftDegrees))
		Expect(loose.MaxDriftDegrees).To(BeNumerically(">", 5.0))
		Expect(tight.MaxDriftDegrees).To(BeNumerically("<", 1.0))
	})

	It("keeps tightness below 1.0 for a spread set", func() {
		stats, err := vibe.Coherence([][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0, 0, 1},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Tightness).To(BeNumerically("<", 1.0))
		Expect(stats.Tightness).To(BeNumerically(">", 0.0))
	})
})
