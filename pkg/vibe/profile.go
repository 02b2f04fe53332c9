package vibe

import (
	"context"
	"time"
)

// Profile is a named collection of seed items with a cached centroid.
// The centroid and size are derived from the seed set and persisted
// alongside it; the three fields only ever change together.
type Profile struct {
	// ID is the profile's unique identifier.
	ID string `json:"id"`

	// Name is the human-readable profile name, unique per store.
	Name string `json:"name"`

	// SeedItemIDs are the item IDs the profile is built from, in the
	// order they were added, without duplicates.
	SeedItemIDs []string `json:"seed_item_ids"`

	// Centroid is the cached unit-norm centroid of the seed embeddings.
	// Nil when the profile has no embeddable seeds.
	Centroid []float32 `json:"centroid,omitempty"`

	// Size mirrors the seed count. Kept denormalized so stored profiles
	// carry it without re-deriving from SeedItemIDs.
	Size int `json:"size"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasSeed reports whether the profile already contains the given item.
func (p *Profile) HasSeed(itemID string) bool {
	for _, id := range p.SeedItemIDs {
		if id == itemID {
			return true
		}
	}
	return false
}

// ProfileStore persists vibe profiles.
//
// UpdateProfile must persist the seed list, size, and centroid atomically
// so readers never observe a centroid computed from a different seed set.
type ProfileStore interface {
	// CreateProfile stores a new profile.
	CreateProfile(ctx context.Context, p *Profile) error

	// GetProfile retrieves a profile by ID.
	// Returns ErrProfileNotFound if no profile has the given ID.
	GetProfile(ctx context.Context, id string) (*Profile, error)

	// GetProfileByName retrieves a profile by its exact name.
	// Returns ErrProfileNotFound if no profile has the given name.
	GetProfileByName(ctx context.Context, name string) (*Profile, error)

	// ListProfiles returns all profiles ordered by creation time.
	ListProfiles(ctx context.Context) ([]*Profile, error)

	// UpdateProfile overwrites an existing profile's mutable fields.
	// Returns ErrProfileNotFound if the profile does not exist.
	UpdateProfile(ctx context.Context, p *Profile) error

	// DeleteProfile removes a profile by ID.
	// Returns ErrProfileNotFound if the profile does not exist.
	DeleteProfile(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}
