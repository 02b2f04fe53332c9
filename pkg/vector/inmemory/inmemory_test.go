package inmemory_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/MikeNorman/poempig/pkg/item"
	"github.com/MikeNorman/poempig/pkg/vector"
	"github.com/MikeNorman/poempig/pkg/vector/inmemory"
)

func TestInMemory(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "InMemory Suite")
}

var _ = Describe("Store", func() {
	var store *inmemory.Store

	BeforeEach(func() {
		store = inmemory.NewStore()
	})

	It("should implement vector.Store", func() {
		var _ vector.Store = store
	})

	Describe("UpsertItems / GetItem", func() {
		It("should store and retrieve items", func() {
			it := item.Item{ID: "a", Title: "The Tyger", Embedding: []float32{1, 0}}
			Expect(store.UpsertItems(context.Background(), []item.Item{it})).To(Succeed())

			got, err := store.GetItem(context.Background(), "a")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Title).To(Equal("The Tyger"))
		})

		It("should return ErrNotFound for missing items", func() {
			_, err := store.GetItem(context.Background(), "nope")
			Expect(err).To(MatchError(vector.ErrNotFound))
		})

		It("should update in place without duplicating", func() {
			it := item.Item{ID: "a", Title: "v1"}
			Expect(store.UpsertItems(context.Background(), []item.Item{it})).To(Succeed())
			it.Title = "v2"
			Expect(store.UpsertItems(context.Background(), []item.Item{it})).To(Succeed())

			items, err := store.ScanItems(context.Background(), vector.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(1))
			Expect(items[0].Title).To(Equal("v2"))
		})
	})

	Describe("ScanItems", func() {
		BeforeEach(func() {
			items := []item.Item{
				{ID: "a", Author: "Rilke", Kind: item.KindPoem, Embedding: []float32{1, 0}},
				{ID: "b", Author: "Rilke", Kind: item.KindQuote},
				{ID: "c", Author: "Neruda", Kind: item.KindPoem, Embedding: []float32{0, 1}},
			}
			Expect(store.UpsertItems(context.Background(), items)).To(Succeed())
		})

		It("should preserve insertion order", func() {
			items, err := store.ScanItems(context.Background(), vector.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(3))
			Expect(items[0].ID).To(Equal("a"))
			Expect(items[2].ID).To(Equal("c"))
		})

		It("should apply filters", func() {
			items, err := store.ScanItems(context.Background(), vector.Filter{
				Author:           "Rilke",
				RequireEmbedding: true,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(1))
			Expect(items[0].ID).To(Equal("a"))
		})
	})

	Describe("SimilaritySearch", func() {
		It("should rank by cosine similarity and truncate to k", func() {
			items := []item.Item{
				{ID: "x", Embedding: []float32{1, 0, 0}},
				{ID: "y", Embedding: []float32{0.9, 0.1, 0}},
				{ID: "z", Embedding: []float32{0, 0, 1}},
			}
			Expect(store.UpsertItems(context.Background(), items)).To(Succeed())

			matches, err := store.SimilaritySearch(context.Background(), []float32{1, 0, 0}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(2))
			Expect(matches[0].Item.ID).To(Equal("x"))
			Expect(matches[1].Item.ID).To(Equal("y"))
		})

		It("should skip unembedded items", func() {
			items := []item.Item{
				{ID: "a", Embedding: []float32{1, 0}},
				{ID: "b"},
			}
			Expect(store.UpsertItems(context.Background(), items)).To(Succeed())

			matches, err := store.SimilaritySearch(context.Background(), []float32{1, 0}, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(1))
		})

		It("should score zero-norm vectors as 0.0, never NaN", func() {
			items := []item.Item{
				{ID: "zero", Embedding: []float32{0, 0}},
			}
			Expect(store.UpsertItems(context.Background(), items)).To(Succeed())

			matches, err := store.SimilaritySearch(context.Background(), []float32{1, 0}, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(1))
			Expect(matches[0].Similarity).To(BeZero())
		})
	})

	Describe("DeleteItems", func() {
		It("should remove items and ignore unknown IDs", func() {
			items := []item.Item{{ID: "a"}, {ID: "b"}}
			Expect(store.UpsertItems(context.Background(), items)).To(Succeed())

			Expect(store.DeleteItems(context.Background(), []string{"a", "ghost"})).To(Succeed())

			remaining, err := store.ScanItems(context.Background(), vector.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(remaining).To(HaveLen(1))
			Expect(remaining[0].ID).To(Equal("b"))
		})
	})
})
