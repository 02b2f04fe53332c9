package sqlitevec_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/MikeNorman/poempig/pkg/item"
	"github.com/MikeNorman/poempig/pkg/vector"
	"github.com/MikeNorman/poempig/pkg/vector/sqlitevec"
)

func TestSqliteVec(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SqliteVec Suite")
}

var _ = Describe("Store", func() {
	var logger *zap.Logger

	BeforeEach(func() {
		logger = zap.NewNop()
	})

	Describe("NewStore", func() {
		It("should return an error when DBPath is empty", func() {
			_, err := sqlitevec.NewStore(sqlitevec.Config{DBPath: ""}, logger)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("database path is required"))
		})

		It("should create a store with an in-memory database", func() {
			store, err := sqlitevec.NewStore(sqlitevec.Config{
				DBPath:     ":memory:",
				Dimensions: 4,
			}, logger)
			Expect(err).NotTo(HaveOccurred())
			Expect(store).NotTo(BeNil())
			Expect(store.Close()).To(Succeed())
		})

		It("should error when dimension not specified", func() {
			_, err := sqlitevec.NewStore(sqlitevec.Config{
				DBPath: ":memory:",
			}, logger)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("operations", func() {
		var store *sqlitevec.Store

		BeforeEach(func() {
			var err error
			store, err = sqlitevec.NewStore(sqlitevec.Config{
				DBPath:     ":memory:",
				Dimensions: 4,
			}, logger)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			Expect(store.Close()).To(Succeed())
		})

		Describe("UpsertItems", func() {
			It("should do nothing when given no items", func() {
				Expect(store.UpsertItems(context.Background(), nil)).To(Succeed())
			})

			It("should store and retrieve an item with its embedding", func() {
				items := []item.Item{
					{
						ID:        "item-1",
						Title:     "Ozymandias",
						Author:    "Percy Bysshe Shelley",
						Text:      "I met a traveller from an antique land",
						Kind:      item.KindPoem,
						Tags:      []item.Tag{{Label: "ruin"}},
						Embedding: []float32{0.1, 0.2, 0.3, 0.4},
					},
				}
				Expect(store.UpsertItems(context.Background(), items)).To(Succeed())

				got, err := store.GetItem(context.Background(), "item-1")
				Expect(err).NotTo(HaveOccurred())
				Expect(got.Title).To(Equal("Ozymandias"))
				Expect(got.Author).To(Equal("Percy Bysshe Shelley"))
				Expect(got.Tags).To(HaveLen(1))
				Expect(got.Embedding).To(HaveLen(4))
			})

			It("should update an existing item in place", func() {
				it := item.Item{ID: "item-1", Title: "Draft", Embedding: []float32{0.1, 0.1, 0.1, 0.1}}
				Expect(store.UpsertItems(context.Background(), []item.Item{it})).To(Succeed())

				it.Title = "Final"
				it.Embedding = []float32{0.9, 0.9, 0.9, 0.9}
				Expect(store.UpsertItems(context.Background(), []item.Item{it})).To(Succeed())

				got, err := store.GetItem(context.Background(), "item-1")
				Expect(err).NotTo(HaveOccurred())
				Expect(got.Title).To(Equal("Final"))
				Expect(got.Embedding[0]).To(BeNumerically("~", 0.9, 1e-6))

				all, err := store.ScanItems(context.Background(), vector.Filter{})
				Expect(err).NotTo(HaveOccurred())
				Expect(all).To(HaveLen(1))
			})

			It("should accept items without embeddings", func() {
				it := item.Item{ID: "item-1", Title: "Unembedded"}
				Expect(store.UpsertItems(context.Background(), []item.Item{it})).To(Succeed())

				got, err := store.GetItem(context.Background(), "item-1")
				Expect(err).NotTo(HaveOccurred())
				Expect(got.HasEmbedding()).To(BeFalse())
			})
		})

		Describe("GetItem", func() {
			It("should return ErrNotFound for a missing item", func() {
				_, err := store.GetItem(context.Background(), "nope")
				Expect(err).To(MatchError(vector.ErrNotFound))
			})
		})

		Describe("ScanItems", func() {
			BeforeEach(func() {
				items := []item.Item{
					{ID: "a", Author: "Rilke", Kind: item.KindPoem, Embedding: []float32{1, 0, 0, 0}},
					{ID: "b", Author: "Rilke", Kind: item.KindQuote},
					{ID: "c", Author: "Neruda", Kind: item.KindPoem, Embedding: []float32{0, 1, 0, 0}},
				}
				Expect(store.UpsertItems(context.Background(), items)).To(Succeed())
			})

			It("should filter by author", func() {
				items, err := store.ScanItems(context.Background(), vector.Filter{Author: "Rilke"})
				Expect(err).NotTo(HaveOccurred())
				Expect(items).To(HaveLen(2))
			})

			It("should filter by kind", func() {
				items, err := store.ScanItems(context.Background(), vector.Filter{Kind: item.KindQuote})
				Expect(err).NotTo(HaveOccurred())
				Expect(items).To(HaveLen(1))
				Expect(items[0].ID).To(Equal("b"))
			})

			It("should skip unembedded items when required", func() {
				items, err := store.ScanItems(context.Background(), vector.Filter{RequireEmbedding: true})
				Expect(err).NotTo(HaveOccurred())
				Expect(items).To(HaveLen(2))
				for _, it := range items {
					Expect(it.HasEmbedding()).To(BeTrue())
				}
			})
		})

		Describe("SimilaritySearch", func() {
			BeforeEach(func() {
				items := []item.Item{
					{ID: "x", Embedding: []float32{1, 0, 0, 0}},
					{ID: "y", Embedding: []float32{0.9, 0.1, 0, 0}},
					{ID: "z", Embedding: []float32{0, 0, 1, 0}},
				}
				Expect(store.UpsertItems(context.Background(), items)).To(Succeed())
			})

			It("should rank by cosine similarity descending", func() {
				matches, err := store.SimilaritySearch(context.Background(), []float32{1, 0, 0, 0}, 3)
				Expect(err).NotTo(HaveOccurred())
				Expect(matches).To(HaveLen(3))
				Expect(matches[0].Item.ID).To(Equal("x"))
				Expect(matches[1].Item.ID).To(Equal("y"))
				Expect(matches[0].Similarity).To(BeNumerically("~", 1.0, 1e-5))
				Expect(matches[0].Similarity).To(BeNumerically(">", matches[1].Similarity))
				Expect(matches[1].Similarity).To(BeNumerically(">", matches[2].Similarity))
			})

			It("should honor the k limit", func() {
				matches, err := store.SimilaritySearch(context.Background(), []float32{1, 0, 0, 0}, 2)
				Expect(err).NotTo(HaveOccurred())
				Expect(matches).To(HaveLen(2))
			})
		})

		Describe("DeleteItems", func() {
			It("should remove items and their embeddings", func() {
				items := []item.Item{
					{ID: "a", Embedding: []float32{1, 0, 0, 0}},
					{ID: "b", Embedding: []float32{0, 1, 0, 0}},
				}
				Expect(store.UpsertItems(context.Background(), items)).To(Succeed())

				Expect(store.DeleteItems(context.Background(), []string{"a"})).To(Succeed())

				_, err := store.GetItem(context.Background(), "a")
				Expect(err).To(MatchError(vector.ErrNotFound))

				matches, err := store.SimilaritySearch(context.Background(), []float32{1, 0, 0, 0}, 10)
				Expect(err).NotTo(HaveOccurred())
				Expect(matches).To(HaveLen(1))
				Expect(matches[0].Item.ID).To(Equal("b"))
			})

			It("should ignore unknown IDs", func() {
				Expect(store.DeleteItems(context.Background(), []string{"ghost"})).To(Succeed())
			})
		})
	})
})
