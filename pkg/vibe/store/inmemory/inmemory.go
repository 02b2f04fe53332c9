// Package inmemory provides an in-memory profile store for tests.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/MikeNorman/poempig/pkg/vibe"
)

// Store implements vibe.ProfileStore with a mutex-guarded map.
// Profiles are deep-copied on the way in and out so callers cannot alias
// stored state.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]*vibe.Profile
}

// NewStore creates an empty in-memory profile store.
func NewStore() *Store {
	return &Store{
		profiles: make(map[string]*vibe.Profile),
	}
}

// CreateProfile stores a new profile.
func (s *Store) CreateProfile(_ context.Context, p *vibe.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[p.ID]; exists {
		return fmt.Errorf("profile %s already exists", p.ID)
	}
	s.profiles[p.ID] = clone(p)
	return nil
}

// GetProfile retrieves a profile by ID.
func (s *Store) GetProfile(_ context.Context, id string) (*vibe.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", vibe.ErrProfileNotFound, id)
	}
	return clone(p), nil
}

// GetProfileByName retrieves a profile by its exact name.
func (s *Store) GetProfileByName(_ context.Context, name string) (*vibe.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.profiles {
		if p.Name == name {
			return clone(p), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", vibe.ErrProfileNotFound, name)
}

// ListProfiles returns all profiles ordered by creation time.
func (s *Store) ListProfiles(_ context.Context) ([]*vibe.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles := make([]*vibe.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		profiles = append(profiles, clone(p))
	}
	sort.Slice(profiles, func(i, j int) bool {
		if !profiles[i].CreatedAt.Equal(profiles[j].CreatedAt) {
			return profiles[i].CreatedAt.Before(profiles[j].CreatedAt)
		}
		return profiles[i].ID < profiles[j].ID
	})
	return profiles, nil
}

// UpdateProfile overwrites an existing profile.
func (s *Store) UpdateProfile(_ context.Context, p *vibe.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[p.ID]; !ok {
		return fmt.Errorf("%w: %s", vibe.ErrProfileNotFound, p.ID)
	}
	s.profiles[p.ID] = clone(p)
	return nil
}

// DeleteProfile removes a profile by ID.
func (s *Store) DeleteProfile(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[id]; !ok {
		return fmt.Errorf("%w: %s", vibe.ErrProfileNotFound, id)
	}
	delete(s.profiles, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

func clone(p *vibe.Profile) *vibe.Profile {
	cp := *p
	cp.SeedItemIDs = append([]string(nil), p.SeedItemIDs...)
	cp.Centroid = append([]float32(nil), p.Centroid...)
	return &cp
}

var _ vibe.ProfileStore = (*Store)(nil)
