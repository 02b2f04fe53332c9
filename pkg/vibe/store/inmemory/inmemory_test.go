package inmemory_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/MikeNorman/poempig/pkg/vibe"
	"github.com/MikeNorman/poempig/pkg/vibe/store/inmemory"
)

func TestInMemoryProfileStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "InMemoryProfileStore Suite")
}

var _ = Describe("Store", func() {
	var (
		ctx   context.Context
		store *inmemory.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = inmemory.NewStore()
	})

	It("implements vibe.ProfileStore", func() {
		var _ vibe.ProfileStore = store
	})

	It("creates and retrieves profiles", func() {
		p := &vibe.Profile{ID: "p1", Name: "test", SeedItemIDs: []string{"a"}}
		Expect(store.CreateProfile(ctx, p)).To(Succeed())

		got, err := store.GetProfile(ctx, "p1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Name).To(Equal("test"))

		byName, err := store.GetProfileByName(ctx, "test")
		Expect(err).NotTo(HaveOccurred())
		Expect(byName.ID).To(Equal("p1"))
	})

	It("rejects duplicate IDs", func() {
		p := &vibe.Profile{ID: "p1", Name: "a"}
		Expect(store.CreateProfile(ctx, p)).To(Succeed())
		Expect(store.CreateProfile(ctx, &vibe.Profile{ID: "p1", Name: "b"})).NotTo(Succeed())
	})

	It("returns ErrProfileNotFound for missing profiles", func() {
		_, err := store.GetProfile(ctx, "nope")
		Expect(err).To(MatchError(vibe.ErrProfileNotFound))

		Expect(store.DeleteProfile(ctx, "nope")).To(MatchError(vibe.ErrProfileNotFound))
		Expect(store.UpdateProfile(ctx, &vibe.Profile{ID: "nope"})).To(MatchError(vibe.ErrProfileNotFound))
	})

	It("does not let callers alias stored state", func() {
		p := &vibe.Profile{ID: "p1", Name: "isolated", SeedItemIDs: []string{"a"}}
		Expect(store.CreateProfile(ctx, p)).To(Succeed())

		p.SeedItemIDs[0] = "mutated"

		got, err := store.GetProfile(ctx, "p1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.SeedItemIDs).To(Equal([]string{"a"}))

		got.SeedItemIDs[0] = "also-mutated"
		again, err := store.GetProfile(ctx, "p1")
		Expect(err).NotTo(HaveOccurred())
		Expect(again.SeedItemIDs).To(Equal([]string{"a"}))
	})

	It("lists profiles ordered by creation time", func() {
		early := &vibe.Profile{ID: "p1", Name: "early", CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
		late := &vibe.Profile{ID: "p2", Name: "late", CreatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
		Expect(store.CreateProfile(ctx, late)).To(Succeed())
		Expect(store.CreateProfile(ctx, early)).To(Succeed())

		profiles, err := store.ListProfiles(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(profiles[0].Name).To(Equal("early"))
		Expect(profiles[1].Name).To(Equal("late"))
	})
})
