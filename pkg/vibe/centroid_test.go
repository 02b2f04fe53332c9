package vibe_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/MikeNorman/poempig/pkg/vibe"
)

func norm32(v []float32) float64 {
	var sq float64
	for _, x := range v {
		sq += float64(x) * float64(x)
	}
	return math.Sqrt(sq)
}

var _ = Describe("Centroid", func() {
	It("returns ErrNoVectors for an empty set", func() {
		_, err := vibe.Centroid(nil)
		Expect(err).To(MatchError(vibe.ErrNoVectors))
	})

	It("returns ErrDimensionMismatch for ragged input", func() {
		_, err := vibe.Centroid([][]float32{{1, 0}, {1, 0, 0}})
		Expect(err).To(MatchError(vibe.ErrDimensionMismatch))
	})

	It("returns the normalized vector for a single input", func() {
		c, err := vibe.Centroid([][]float32{{3, 0, 4}})
		Expect(err).NotTo(HaveOccurred())
		Expect(c[0]).To(BeNumerically("~", 0.6, 1e-6))
		Expect(c[1]).To(BeNumerically("~", 0.0, 1e-6))
		Expect(c[2]).To(BeNumerically("~", 0.8, 1e-6))
	})

	It("always produces a unit-norm centroid", func() {
		vectors := [][]float32{
			{2, 1, 0},
			{0.1, 5, 3},
			{-1, 2, 0.5},
			{4, 4, 4},
		}
		c, err := vibe.Centroid(vectors)
		Expect(err).NotTo(HaveOccurred())
		Expect(norm32(c)).To(BeNumerically("~", 1.0, 1e-6))
	})

	It("averages three orthogonal unit vectors to the diagonal", func() {
		vectors := [][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0, 0, 1},
		}
		c, err := vibe.Centroid(vectors)
		Expect(err).NotTo(HaveOccurred())
		want := 1.0 / math.Sqrt(3)
		for i := 0; i < 3; i++ {
			Expect(c[i]).To(BeNumerically("~", want, 1e-6))
		}
	})

	It("is invariant to input order", func() {
		a := [][]float32{{1, 2, 0}, {0, 1, 1}, {3, 0, 1}}
		b := [][]float32{{3, 0, 1}, {1, 2, 0}, {0, 1, 1}}

		ca, err := vibe.Centroid(a)
		Expect(err).NotTo(HaveOccurred())
		cb, err := vibe.Centroid(b)
		Expect(err).NotTo(HaveOccurred())

		for i := range ca {
			Expect(float64(ca[i])).To(BeNumerically("~", float64(cb[i]), 1e-6))
		}
	})

	It("is invariant to the magnitude of each vector", func() {
		a := [][]float32{{1, 0, 0}, {0, 1, 0}}
		b := [][]float32{{100, 0, 0}, {0, 0.001, 0}}

		ca, err := vibe.Centroid(a)
		Expect(err).NotTo(HaveOccurred())
		cb, err := vibe.Centroid(b)
		Expect(err).NotTo(HaveOccurred())

		for i := range ca {
			Expect(float64(ca[i])).To(BeNumerically("~", float64(cb[i]), 1e-6))
		}
	})

	It("tolerates an all-zero vector without NaN", func() {
		c, err := vibe.Centroid([][]float32{{0, 0, 0}, {0, 2, 0}})
		Expect(err).NotTo(HaveOccurred())
		for _, x := range c {
			Expect(math.IsNaN(float64(x))).To(BeFalse())
		}
		Expect(c[1]).To(BeNumerically("~", 1.0, 1e-6))
	})

	It("yields the zero vector when vectors cancel", func() {
		c, err := vibe.Centroid([][]float32{{1, 0}, {-1, 0}})
		Expect(err).NotTo(HaveOccurred())
		for _, x := range c {
			Expect(math.IsNaN(float64(x))).To(BeFalse())
			Expect(float64(x)).To(BeNumerically("~", 0.0, 1e-6))
		}
	})

	It("yields the zero vector for all-zero input", func() {
		c, err := vibe.Centroid([][]float32{{0, 0, 0}})
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(Equal([]float32{0, 0, 0}))
	})
})

var _ = Describe("CosineSimilarity", func() {
	It("scores identical directions 1.0", func() {
		Expect(vibe.CosineSimilarity([]float32{1, 2, 3}, []float32{2, 4, 6})).
			To(BeNumerically("~", 1.0, 1e-6))
	})

	It("scores orthogonal vectors 0.0", func() {
		Expect(vibe.CosineSimilarity([]float32{1, 0}, []float32{0, 1})).
			To(BeNumerically("~", 0.0, 1e-6))
	})

	It("scores opposite directions -1.0", func() {
		Expect(vibe.CosineSimilarity([]float32{1, 0}, []float32{-1, 0})).
			To(BeNumerically("~", -1.0, 1e-6))
	})

	It("scores zero-norm input 0.0, never NaN", func() {
		Expect(vibe.CosineSimilarity([]float32{0, 0}, []float32{1, 0})).To(BeZero())
		Expect(vibe.CosineSimilarity(nil, nil)).To(BeZero())
	})

	It("scores mismatched lengths 0.0", func() {
		Expect(vibe.CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0})).To(BeZero())
	})
})
