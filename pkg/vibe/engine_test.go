package vibe_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/MikeNorman/poempig/pkg/item"
	testutils "github.com/MikeNorman/poempig/pkg/utils/test"
	"github.com/MikeNorman/poempig/pkg/vector"
	"github.com/MikeNorman/poempig/pkg/vibe"
	profilestore "github.com/MikeNorman/poempig/pkg/vibe/store/inmemory"
)

var _ = Describe("Engine", func() {
	var (
		ctx      context.Context
		items    *testutils.MockStore
		profiles *profilestore.Store
		engine   *vibe.Engine
	)

	BeforeEach(func() {
		ctx = context.Background()
		items = testutils.NewMockStore()
		profiles = profilestore.NewStore()
		engine = vibe.NewEngine(profiles, items, vibe.EngineConfig{}, zap.NewNop())

		items.SeedItems(
			item.Item{ID: "e1", Title: "First", Embedding: []float32{1, 0, 0}},
			item.Item{ID: "e2", Title: "Second", Embedding: []float32{0, 1, 0}},
			item.Item{ID: "e3", Title: "Third", Embedding: []float32{0, 0, 1}},
			item.Item{ID: "near", Title: "Near the diagonal", Embedding: []float32{1, 1, 0.8}},
			item.Item{ID: "far", Title: "Off axis", Embedding: []float32{-1, 0.2, 0}},
			item.Item{ID: "blank", Title: "Not yet embedded"},
		)
	})

	Describe("CreateProfile", func() {
		It("computes the centroid over the seed embeddings", func() {
			p, err := engine.CreateProfile(ctx, "diagonal", []string{"e1", "e2", "e3"})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Size).To(Equal(3))

			want := 1.0 / math.Sqrt(3)
			for i := 0; i < 3; i++ {
				Expect(p.Centroid[i]).To(BeNumerically("~", want, 1e-6))
			}
		})

		It("collapses duplicate seed IDs preserving order", func() {
			p, err := engine.CreateProfile(ctx, "dupes", []string{"e1", "e2", "e1", "e2"})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.SeedItemIDs).To(Equal([]string{"e1", "e2"}))
			Expect(p.Size).To(Equal(2))
		})

		It("returns the existing profile for an identical seed set", func() {
			p1, err := engine.CreateProfile(ctx, "original", []string{"e1", "e2"})
			Expect(err).NotTo(HaveOccurred())

			p2, err := engine.CreateProfile(ctx, "copycat", []string{"e2", "e1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(p2.ID).To(Equal(p1.ID))
			Expect(p2.Name).To(Equal("original"))

			all, err := engine.ListProfiles(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(1))
		})

		It("disambiguates a name collision with a suffix", func() {
			p1, err := engine.CreateProfile(ctx, "moody", []string{"e1"})
			Expect(err).NotTo(HaveOccurred())

			p2, err := engine.CreateProfile(ctx, "moody", []string{"e2"})
			Expect(err).NotTo(HaveOccurred())
			Expect(p2.ID).NotTo(Equal(p1.ID))
			Expect(p2.Name).To(HavePrefix("moody-"))
			Expect(p2.Name).NotTo(Equal("moody"))
		})

		It("rejects seeds referencing unknown items", func() {
			_, err := engine.CreateProfile(ctx, "bad", []string{"e1", "ghost"})
			Expect(err).To(MatchError(vibe.ErrItemNotFound))
		})

		It("allows an empty profile with no centroid", func() {
			p, err := engine.CreateProfile(ctx, "empty", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Centroid).To(BeNil())
			Expect(p.Size).To(BeZero())

			matches, err := engine.FindSimilarToProfile(ctx, p.ID, 5, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(BeEmpty())
		})

		It("keeps size equal to the seed count even with unembedded seeds", func() {
			p, err := engine.CreateProfile(ctx, "partial", []string{"e1", "blank"})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.SeedItemIDs).To(HaveLen(2))
			Expect(p.Size).To(Equal(len(p.SeedItemIDs)))

			// The centroid still comes only from the embedded seed.
			Expect(p.Centroid).NotTo(BeNil())
			Expect(p.Centroid[0]).To(BeNumerically("~", 1.0, 1e-6))
		})
	})

	Describe("AddSeed", func() {
		It("grows the profile and recomputes the centroid", func() {
			p, err := engine.CreateProfile(ctx, "growing", []string{"e1"})
			Expect(err).NotTo(HaveOccurred())

			p, err = engine.AddSeed(ctx, p.ID, "e2")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Size).To(Equal(2))

			want := 1.0 / math.Sqrt(2)
			Expect(p.Centroid[0]).To(BeNumerically("~", want, 1e-6))
			Expect(p.Centroid[1]).To(BeNumerically("~", want, 1e-6))
			Expect(p.Centroid[2]).To(BeNumerically("~", 0.0, 1e-6))
		})

		It("is idempotent for an existing seed", func() {
			p, err := engine.CreateProfile(ctx, "stable", []string{"e1", "e2"})
			Expect(err).NotTo(HaveOccurred())
			before := append([]float32(nil), p.Centroid...)

			p, err = engine.AddSeed(ctx, p.ID, "e1")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.SeedItemIDs).To(Equal([]string{"e1", "e2"}))
			Expect(p.Size).To(Equal(2))
			Expect(p.Centroid).To(Equal(before))
		})

		It("rejects unknown items", func() {
			p, err := engine.CreateProfile(ctx, "strict", []string{"e1"})
			Expect(err).NotTo(HaveOccurred())

			_, err = engine.AddSeed(ctx, p.ID, "ghost")
			Expect(err).To(MatchError(vibe.ErrItemNotFound))
		})

		It("accepts a seed that cancels the centroid out", func() {
			items.SeedItems(item.Item{ID: "anti", Embedding: []float32{-1, 0, 0}})

			p, err := engine.CreateProfile(ctx, "cancelled", []string{"e1"})
			Expect(err).NotTo(HaveOccurred())

			p, err = engine.AddSeed(ctx, p.ID, "anti")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Size).To(Equal(2))
			for _, x := range p.Centroid {
				Expect(float64(x)).To(BeNumerically("~", 0.0, 1e-6))
			}
		})

		It("rejects unknown profiles", func() {
			_, err := engine.AddSeed(ctx, "no-such-profile", "e1")
			Expect(err).To(MatchError(vibe.ErrProfileNotFound))
		})
	})

	Describe("RemoveSeed", func() {
		It("shrinks the profile and recomputes the centroid", func() {
			p, err := engine.CreateProfile(ctx, "shrinking", []string{"e1", "e2", "e3"})
			Expect(err).NotTo(HaveOccurred())

			p, err = engine.RemoveSeed(ctx, p.ID, "e1")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Size).To(Equal(2))

			want := 1.0 / math.Sqrt(2)
			Expect(p.Centroid[0]).To(BeNumerically("~", 0.0, 1e-6))
			Expect(p.Centroid[1]).To(BeNumerically("~", want, 1e-6))
			Expect(p.Centroid[2]).To(BeNumerically("~", want, 1e-6))
		})

		It("clears the centroid when the last seed is removed", func() {
			p, err := engine.CreateProfile(ctx, "emptying", []string{"e1"})
			Expect(err).NotTo(HaveOccurred())

			p, err = engine.RemoveSeed(ctx, p.ID, "e1")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.SeedItemIDs).To(BeEmpty())
			Expect(p.Centroid).To(BeNil())
			Expect(p.Size).To(BeZero())
		})

		It("is a no-op for a non-member item", func() {
			p, err := engine.CreateProfile(ctx, "unchanged", []string{"e1"})
			Expect(err).NotTo(HaveOccurred())

			p, err = engine.RemoveSeed(ctx, p.ID, "e2")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.SeedItemIDs).To(Equal([]string{"e1"}))
		})
	})

	Describe("FindSimilarToProfile", func() {
		It("never returns the profile's own seeds", func() {
			p, err := engine.CreateProfile(ctx, "selfless", []string{"e1", "e2", "e3"})
			Expect(err).NotTo(HaveOccurred())

			matches, err := engine.FindSimilarToProfile(ctx, p.ID, 10, nil)
			Expect(err).NotTo(HaveOccurred())
			for _, m := range matches {
				Expect(p.SeedItemIDs).NotTo(ContainElement(m.Item.ID))
			}
		})

		It("honors caller exclusions", func() {
			p, err := engine.CreateProfile(ctx, "picky", []string{"e1", "e2", "e3"})
			Expect(err).NotTo(HaveOccurred())

			matches, err := engine.FindSimilarToProfile(ctx, p.ID, 10, []string{"near"})
			Expect(err).NotTo(HaveOccurred())
			for _, m := range matches {
				Expect(m.Item.ID).NotTo(Equal("near"))
			}
		})

		It("ranks results by descending similarity and truncates to topK", func() {
			p, err := engine.CreateProfile(ctx, "ranked", []string{"e1", "e2", "e3"})
			Expect(err).NotTo(HaveOccurred())

			matches, err := engine.FindSimilarToProfile(ctx, p.ID, 1, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(1))
			Expect(matches[0].Item.ID).To(Equal("near"))

			all, err := engine.FindSimilarToProfile(ctx, p.ID, 10, nil)
			Expect(err).NotTo(HaveOccurred())
			for i := 1; i < len(all); i++ {
				Expect(all[i-1].Similarity).To(BeNumerically(">=", all[i].Similarity))
			}
		})

		It("returns identical results via the fallback scan", func() {
			p, err := engine.CreateProfile(ctx, "fallback", []string{"e1", "e2", "e3"})
			Expect(err).NotTo(HaveOccurred())

			primary, err := engine.FindSimilarToProfile(ctx, p.ID, 5, nil)
			Expect(err).NotTo(HaveOccurred())

			items.FailSearch = true
			fallback, err := engine.FindSimilarToProfile(ctx, p.ID, 5, nil)
			Expect(err).NotTo(HaveOccurred())

			Expect(fallback).To(HaveLen(len(primary)))
			for i := range primary {
				Expect(fallback[i].Item.ID).To(Equal(primary[i].Item.ID))
				Expect(fallback[i].Similarity).To(BeNumerically("~", primary[i].Similarity, 1e-6))
			}
		})

		It("rejects unknown profiles", func() {
			_, err := engine.FindSimilarToProfile(ctx, "no-such-profile", 5, nil)
			Expect(err).To(MatchError(vibe.ErrProfileNotFound))
		})

		It("falls back to a full scan when seeds consume the whole candidate budget", func() {
			items.SeedItems(
				item.Item{ID: "c1", Embedding: []float32{1, 0, 0}},
				item.Item{ID: "c2", Embedding: []float32{0.99, 0.1, 0}},
				item.Item{ID: "c3", Embedding: []float32{0.98, 0.15, 0}},
				item.Item{ID: "elsewhere", Embedding: []float32{-1, 0, 0}},
			)

			// Budget 2 with topK 1: the nearest 2 candidates are both
			// seeds, so the KNN pass alone would return nothing.
			tight := vibe.NewEngine(profiles, items, vibe.EngineConfig{CandidateBudget: 2}, zap.NewNop())
			p, err := tight.CreateProfile(ctx, "crowded", []string{"c1", "c2", "c3"})
			Expect(err).NotTo(HaveOccurred())

			matches, err := tight.FindSimilarToProfile(ctx, p.ID, 1, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).NotTo(BeEmpty())
			for _, m := range matches {
				Expect(p.SeedItemIDs).NotTo(ContainElement(m.Item.ID))
			}
		})
	})

	Describe("FindSimilarToItem", func() {
		It("excludes the query item itself", func() {
			matches, err := engine.FindSimilarToItem(ctx, "e1", 10, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).NotTo(BeEmpty())
			for _, m := range matches {
				Expect(m.Item.ID).NotTo(Equal("e1"))
			}
		})

		It("honors caller exclusions on top of the self exclusion", func() {
			matches, err := engine.FindSimilarToItem(ctx, "e1", 10, []string{"near", "e2"})
			Expect(err).NotTo(HaveOccurred())
			for _, m := range matches {
				Expect(m.Item.ID).NotTo(Equal("e1"))
				Expect(m.Item.ID).NotTo(Equal("near"))
				Expect(m.Item.ID).NotTo(Equal("e2"))
			}
		})

		It("rejects unknown items", func() {
			_, err := engine.FindSimilarToItem(ctx, "ghost", 10, nil)
			Expect(err).To(MatchError(vibe.ErrItemNotFound))
		})

		It("rejects items without embeddings", func() {
			_, err := engine.FindSimilarToItem(ctx, "blank", 10, nil)
			Expect(err).To(MatchError(vibe.ErrNoVectors))
		})
	})

	Describe("RenameProfile", func() {
		It("renames and rejects collisions", func() {
			p1, err := engine.CreateProfile(ctx, "old-name", []string{"e1"})
			Expect(err).NotTo(HaveOccurred())
			_, err = engine.CreateProfile(ctx, "taken", []string{"e2"})
			Expect(err).NotTo(HaveOccurred())

			p1, err = engine.RenameProfile(ctx, p1.ID, "new-name")
			Expect(err).NotTo(HaveOccurred())
			Expect(p1.Name).To(Equal("new-name"))

			_, err = engine.RenameProfile(ctx, p1.ID, "taken")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("DeleteProfile", func() {
		It("removes the profile but not its items", func() {
			p, err := engine.CreateProfile(ctx, "doomed", []string{"e1"})
			Expect(err).NotTo(HaveOccurred())

			Expect(engine.DeleteProfile(ctx, p.ID)).To(Succeed())

			_, err = engine.GetProfile(ctx, p.ID)
			Expect(err).To(MatchError(vibe.ErrProfileNotFound))

			_, err = items.GetItem(ctx, "e1")
			Expect(err).NotTo(HaveOccurred())
		})

		It("errors on unknown profiles", func() {
			Expect(engine.DeleteProfile(ctx, "ghost")).To(MatchError(vibe.ErrProfileNotFound))
		})
	})

	Describe("GetProfileWithItems", func() {
		It("returns seed items and skips stale references", func() {
			p, err := engine.CreateProfile(ctx, "stale", []string{"e1", "e2"})
			Expect(err).NotTo(HaveOccurred())

			Expect(items.DeleteItems(ctx, []string{"e2"})).To(Succeed())

			_, seedItems, err := engine.GetProfileWithItems(ctx, p.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(seedItems).To(HaveLen(1))
			Expect(seedItems[0].ID).To(Equal("e1"))
		})
	})

	Describe("ProfileCoherence", func() {
		It("reports degenerate defaults for a single seed", func() {
			p, err := engine.CreateProfile(ctx, "solo", []string{"e1"})
			Expect(err).NotTo(HaveOccurred())

			stats, err := engine.ProfileCoherence(ctx, p.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Count).To(Equal(1))
			Expect(stats.MeanPairwise).To(Equal(1.0))
		})

		It("reports spread for orthogonal seeds", func() {
			p, err := engine.CreateProfile(ctx, "spread", []string{"e1", "e2", "e3"})
			Expect(err).NotTo(HaveOccurred())

			stats, err := engine.ProfileCoherence(ctx, p.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Count).To(Equal(3))
			Expect(stats.MeanPairwise).To(BeNumerically("~", 0.0, 1e-6))
		})
	})

	Describe("ItemsCoherence", func() {
		It("measures every embedded item in the corpus", func() {
			stats, err := engine.ItemsCoherence(ctx, vector.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Count).To(Equal(5))
		})

		It("restricts to one author", func() {
			items.SeedItems(
				item.Item{ID: "d1", Author: "Dickinson", Embedding: []float32{1, 0.1, 0}},
				item.Item{ID: "d2", Author: "Dickinson", Embedding: []float32{1, 0, 0.1}},
				item.Item{ID: "d3", Author: "Dickinson"},
			)

			stats, err := engine.ItemsCoherence(ctx, vector.Filter{Author: "Dickinson"})
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Count).To(Equal(2))
			Expect(stats.MeanPairwise).To(BeNumerically(">", 0.9))
		})

		It("surfaces an error when nothing is embedded", func() {
			_, err := engine.ItemsCoherence(ctx, vector.Filter{Author: "Nobody"})
			Expect(err).To(MatchError(vibe.ErrNoVectors))
		})
	})

	Describe("CollectionStats", func() {
		It("aggregates counts across profiles", func() {
			_, err := engine.CreateProfile(ctx, "a", []string{"e1", "e2"})
			Expect(err).NotTo(HaveOccurred())
			_, err = engine.CreateProfile(ctx, "b", nil)
			Expect(err).NotTo(HaveOccurred())

			stats, err := engine.CollectionStats(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Profiles).To(Equal(2))
			Expect(stats.Seeds).To(Equal(2))
			Expect(stats.Empty).To(Equal(1))
			Expect(stats.MeanSize).To(BeNumerically("~", 1.0, 1e-9))
		})
	})

	Describe("CleanupSmallProfiles", func() {
		It("deletes profiles below the seed threshold", func() {
			_, err := engine.CreateProfile(ctx, "big", []string{"e1", "e2", "e3"})
			Expect(err).NotTo(HaveOccurred())
			small, err := engine.CreateProfile(ctx, "small", []string{"near"})
			Expect(err).NotTo(HaveOccurred())

			deleted, err := engine.CleanupSmallProfiles(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(HaveLen(1))
			Expect(deleted[0].ID).To(Equal(small.ID))

			remaining, err := engine.ListProfiles(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(remaining).To(HaveLen(1))
			Expect(remaining[0].Name).To(Equal("big"))
		})
	})
})
