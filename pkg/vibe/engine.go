package vibe

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MikeNorman/poempig/pkg/item"
	"github.com/MikeNorman/poempig/pkg/vector"
)

// DefaultCandidateBudget is the number of candidates requested from the
// vector store before exclusion filtering, when not configured otherwise.
const DefaultCandidateBudget = 50

// DefaultTopK is the result count used when a caller passes topK <= 0.
const DefaultTopK = 10

// Engine orchestrates vibe profiles: creation, seed mutation, centroid
// maintenance, and similarity search over the item corpus.
type Engine struct {
	profiles ProfileStore
	items    vector.Store
	logger   *zap.Logger

	candidateBudget int

	// mu guards profileLocks. Each profile's mutations are serialized on
	// its own lock so independent profiles never contend.
	mu           sync.Mutex
	profileLocks map[string]*sync.Mutex
}

// EngineConfig holds tunables for the engine.
type EngineConfig struct {
	// CandidateBudget is the minimum number of candidates requested from
	// the vector store per search. Defaults to DefaultCandidateBudget.
	CandidateBudget int
}

// NewEngine creates an engine over the given profile store and item store.
func NewEngine(profiles ProfileStore, items vector.Store, cfg EngineConfig, logger *zap.Logger) *Engine {
	budget := cfg.CandidateBudget
	if budget <= 0 {
		budget = DefaultCandidateBudget
	}

	return &Engine{
		profiles:        profiles,
		items:           items,
		logger:          logger,
		candidateBudget: budget,
		profileLocks:    make(map[string]*sync.Mutex),
	}
}

// lockProfile acquires the mutation lock for one profile and returns the
// release func.
func (e *Engine) lockProfile(id string) func() {
	e.mu.Lock()
	l, ok := e.profileLocks[id]
	if !ok {
		l = &sync.Mutex{}
		e.profileLocks[id] = l
	}
	e.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// CreateProfile creates a profile from the given seed item IDs.
//
// Duplicate seed IDs are collapsed, preserving first-seen order. If a
// profile with an identical seed set already exists it is returned as-is
// instead of creating a duplicate. A name collision with a different seed
// set is resolved by suffixing the new profile's name with a short unique
// fragment.
func (e *Engine) CreateProfile(ctx context.Context, name string, seedItemIDs []string) (*Profile, error) {
	seeds := dedupe(seedItemIDs)

	existing, err := e.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	for _, p := range existing {
		if len(seeds) > 0 && sameSeedSet(p.SeedItemIDs, seeds) {
			e.logger.Info("profile with identical seed set exists, reusing",
				zap.String("profile_id", p.ID),
				zap.String("name", p.Name),
			)
			return p, nil
		}
	}
	for _, p := range existing {
		if p.Name == name {
			name = fmt.Sprintf("%s-%s", name, uuid.NewString()[:8])
			e.logger.Warn("profile name taken, disambiguating",
				zap.String("requested", p.Name),
				zap.String("assigned", name),
			)
			break
		}
	}

	for _, id := range seeds {
		if _, err := e.items.GetItem(ctx, id); err != nil {
			if errors.Is(err, vector.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
			}
			return nil, fmt.Errorf("checking seed %s: %w", id, err)
		}
	}

	now := time.Now().UTC()
	p := &Profile{
		ID:          uuid.NewString(),
		Name:        name,
		SeedItemIDs: seeds,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := e.recompute(ctx, p); err != nil {
		return nil, err
	}

	if err := e.profiles.CreateProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}

	e.logger.Info("created vibe profile",
		zap.String("profile_id", p.ID),
		zap.String("name", p.Name),
		zap.Int("seeds", len(p.SeedItemIDs)),
		zap.Int("size", p.Size),
	)

	return p, nil
}

// AddSeed adds an item to the profile's seed set and recomputes the
// centroid. Adding an item that is already a seed is a no-op and returns
// the profile unchanged.
func (e *Engine) AddSeed(ctx context.Context, profileID, itemID string) (*Profile, error) {
	unlock := e.lockProfile(profileID)
	defer unlock()

	p, err := e.profiles.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	if _, err := e.items.GetItem(ctx, itemID); err != nil {
		if errors.Is(err, vector.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		}
		return nil, fmt.Errorf("checking item %s: %w", itemID, err)
	}

	if p.HasSeed(itemID) {
		return p, nil
	}

	p.SeedItemIDs = append(p.SeedItemIDs, itemID)
	if err := e.recompute(ctx, p); err != nil {
		return nil, err
	}

	if err := e.profiles.UpdateProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	e.logger.Debug("added seed to profile",
		zap.String("profile_id", p.ID),
		zap.String("item_id", itemID),
		zap.Int("size", p.Size),
	)

	return p, nil
}

// RemoveSeed removes an item from the profile's seed set and recomputes
// the centroid. Removing an item that is not a seed is a no-op.
func (e *Engine) RemoveSeed(ctx context.Context, profileID, itemID string) (*Profile, error) {
	unlock := e.lockProfile(profileID)
	defer unlock()

	p, err := e.profiles.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	if !p.HasSeed(itemID) {
		return p, nil
	}

	seeds := make([]string, 0, len(p.SeedItemIDs)-1)
	for _, id := range p.SeedItemIDs {
		if id != itemID {
			seeds = append(seeds, id)
		}
	}
	p.SeedItemIDs = seeds

	if err := e.recompute(ctx, p); err != nil {
		return nil, err
	}

	if err := e.profiles.UpdateProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	e.logger.Debug("removed seed from profile",
		zap.String("profile_id", p.ID),
		zap.String("item_id", itemID),
		zap.Int("size", p.Size),
	)

	return p, nil
}

// GetProfile retrieves a profile by ID.
func (e *Engine) GetProfile(ctx context.Context, profileID string) (*Profile, error) {
	return e.profiles.GetProfile(ctx, profileID)
}

// GetProfileByName retrieves a profile by its exact name.
func (e *Engine) GetProfileByName(ctx context.Context, name string) (*Profile, error) {
	return e.profiles.GetProfileByName(ctx, name)
}

// GetProfileWithItems retrieves a profile along with its seed items.
// Seeds whose items have been deleted from the corpus are skipped.
func (e *Engine) GetProfileWithItems(ctx context.Context, profileID string) (*Profile, []item.Item, error) {
	p, err := e.profiles.GetProfile(ctx, profileID)
	if err != nil {
		return nil, nil, err
	}

	items := make([]item.Item, 0, len(p.SeedItemIDs))
	for _, id := range p.SeedItemIDs {
		it, err := e.items.GetItem(ctx, id)
		if err != nil {
			if errors.Is(err, vector.ErrNotFound) {
				e.logger.Warn("profile references missing item",
					zap.String("profile_id", p.ID),
					zap.String("item_id", id),
				)
				continue
			}
			return nil, nil, fmt.Errorf("fetching seed %s: %w", id, err)
		}
		items = append(items, it)
	}

	return p, items, nil
}

// ListProfiles returns all profiles.
func (e *Engine) ListProfiles(ctx context.Context) ([]*Profile, error) {
	return e.profiles.ListProfiles(ctx)
}

// RenameProfile changes a profile's name. The new name must not be in use
// by another profile.
func (e *Engine) RenameProfile(ctx context.Context, profileID, newName string) (*Profile, error) {
	unlock := e.lockProfile(profileID)
	defer unlock()

	p, err := e.profiles.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	other, err := e.profiles.GetProfileByName(ctx, newName)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return nil, fmt.Errorf("checking name %q: %w", newName, err)
	}
	if other != nil && other.ID != p.ID {
		return nil, fmt.Errorf("profile name %q already in use", newName)
	}

	p.Name = newName
	p.UpdatedAt = time.Now().UTC()

	if err := e.profiles.UpdateProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	return p, nil
}

// DeleteProfile removes a profile. Items are untouched.
func (e *Engine) DeleteProfile(ctx context.Context, profileID string) error {
	unlock := e.lockProfile(profileID)
	defer unlock()

	if err := e.profiles.DeleteProfile(ctx, profileID); err != nil {
		return err
	}

	e.mu.Lock()
	delete(e.profileLocks, profileID)
	e.mu.Unlock()

	e.logger.Info("deleted vibe profile", zap.String("profile_id", profileID))
	return nil
}

// FindSimilarToProfile returns the topK items most similar to the
// profile's centroid, excluding the profile's own seeds and any caller
// supplied exclusions. A profile with no centroid yields empty results.
func (e *Engine) FindSimilarToProfile(ctx context.Context, profileID string, topK int, exclude []string) ([]vector.Match, error) {
	p, err := e.profiles.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	if len(p.Centroid) == 0 {
		return nil, nil
	}

	excluded := make(map[string]struct{}, len(p.SeedItemIDs)+len(exclude))
	for _, id := range p.SeedItemIDs {
		excluded[id] = struct{}{}
	}
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	return e.searchExcluding(ctx, p.Centroid, topK, excluded)
}

// FindSimilarToItem returns the topK items most similar to the given
// item. The item itself is always excluded, in addition to any caller
// supplied exclusions.
func (e *Engine) FindSimilarToItem(ctx context.Context, itemID string, topK int, exclude []string) ([]vector.Match, error) {
	it, err := e.items.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, vector.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		}
		return nil, fmt.Errorf("fetching item %s: %w", itemID, err)
	}

	if !it.HasEmbedding() {
		return nil, fmt.Errorf("%w: item %s has no embedding", ErrNoVectors, itemID)
	}

	excluded := make(map[string]struct{}, len(exclude)+1)
	excluded[itemID] = struct{}{}
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}
	return e.searchExcluding(ctx, it.Embedding, topK, excluded)
}

// searchExcluding runs a similarity search with an over-fetch budget so
// exclusion filtering still leaves topK results. It falls back to a manual
// scan when the store's native KNN path is unavailable, and also when
// filtering leaves no candidates at all: a large exclusion set can consume
// the whole budget even though unexcluded items exist further out.
func (e *Engine) searchExcluding(ctx context.Context, query []float32, topK int, excluded map[string]struct{}) ([]vector.Match, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	budget := e.candidateBudget
	if budget < 2*topK {
		budget = 2 * topK
	}

	scanned := false
	matches, err := e.items.SimilaritySearch(ctx, query, budget)
	if err != nil {
		if !errors.Is(err, vector.ErrSearchUnavailable) {
			return nil, err
		}

		e.logger.Warn("similarity search unavailable, falling back to manual scan",
			zap.Error(err),
		)
		matches, err = e.manualScan(ctx, query)
		if err != nil {
			return nil, err
		}
		scanned = true
	}

	filtered := dropExcluded(matches, excluded)
	if len(filtered) == 0 && !scanned {
		e.logger.Debug("no candidates survived exclusion filtering, falling back to manual scan",
			zap.Int("budget", budget),
			zap.Int("excluded", len(excluded)),
		)
		matches, err = e.manualScan(ctx, query)
		if err != nil {
			return nil, err
		}
		filtered = dropExcluded(matches, excluded)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Similarity > filtered[j].Similarity
	})

	if len(filtered) > topK {
		filtered = filtered[:topK]
	}
	return filtered, nil
}

// dropExcluded removes matches whose item IDs are in the exclusion set.
func dropExcluded(matches []vector.Match, excluded map[string]struct{}) []vector.Match {
	filtered := make([]vector.Match, 0, len(matches))
	for _, m := range matches {
		if _, skip := excluded[m.Item.ID]; skip {
			continue
		}
		filtered = append(filtered, m)
	}
	return filtered
}

// manualScan ranks every embedded item against the query by cosine
// similarity.
func (e *Engine) manualScan(ctx context.Context, query []float32) ([]vector.Match, error) {
	items, err := e.items.ScanItems(ctx, vector.Filter{RequireEmbedding: true})
	if err != nil {
		return nil, fmt.Errorf("scanning items: %w", err)
	}

	matches := make([]vector.Match, 0, len(items))
	for _, it := range items {
		matches = append(matches, vector.Match{
			Item:       it,
			Similarity: CosineSimilarity(query, it.Embedding),
		})
	}
	return matches, nil
}

// ProfileCoherence computes cluster statistics over a profile's seed
// embeddings.
func (e *Engine) ProfileCoherence(ctx context.Context, profileID string) (CoherenceStats, error) {
	p, err := e.profiles.GetProfile(ctx, profileID)
	if err != nil {
		return CoherenceStats{}, err
	}

	vectors, err := e.seedVectors(ctx, p)
	if err != nil {
		return CoherenceStats{}, err
	}
	return Coherence(vectors)
}

// ItemsCoherence computes cluster statistics over every embedded item
// matching the filter. With a zero filter it measures the whole corpus;
// with an author filter it measures how consistent that author's work is
// in embedding space.
func (e *Engine) ItemsCoherence(ctx context.Context, filter vector.Filter) (CoherenceStats, error) {
	filter.RequireEmbedding = true
	items, err := e.items.ScanItems(ctx, filter)
	if err != nil {
		return CoherenceStats{}, fmt.Errorf("scanning items: %w", err)
	}

	vectors := make([][]float32, 0, len(items))
	for _, it := range items {
		vectors = append(vectors, it.Embedding)
	}
	return Coherence(vectors)
}

// Stats summarizes the profile collection.
type Stats struct {
	Profiles int
	Seeds    int
	Empty    int
	MeanSize float64
}

// CollectionStats aggregates counts across all profiles.
func (e *Engine) CollectionStats(ctx context.Context) (Stats, error) {
	profiles, err := e.profiles.ListProfiles(ctx)
	if err != nil {
		return Stats{}, err
	}

	s := Stats{Profiles: len(profiles)}
	for _, p := range profiles {
		s.Seeds += len(p.SeedItemIDs)
		if len(p.SeedItemIDs) == 0 {
			s.Empty++
		}
	}
	if s.Profiles > 0 {
		s.MeanSize = float64(s.Seeds) / float64(s.Profiles)
	}
	return s, nil
}

// CleanupSmallProfiles deletes profiles with fewer than minSeeds seeds and
// returns the deleted profiles.
func (e *Engine) CleanupSmallProfiles(ctx context.Context, minSeeds int) ([]*Profile, error) {
	profiles, err := e.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}

	var deleted []*Profile
	for _, p := range profiles {
		if len(p.SeedItemIDs) >= minSeeds {
			continue
		}
		if err := e.DeleteProfile(ctx, p.ID); err != nil {
			return deleted, err
		}
		deleted = append(deleted, p)
	}
	return deleted, nil
}

// recompute rebuilds the profile's cached centroid and size from the
// current seed set. Seeds whose items are missing from the corpus are
// skipped with a warning so a stale reference cannot wedge the profile.
func (e *Engine) recompute(ctx context.Context, p *Profile) error {
	vectors, err := e.seedVectors(ctx, p)
	if err != nil {
		return err
	}

	p.Size = len(p.SeedItemIDs)
	p.UpdatedAt = time.Now().UTC()

	if len(vectors) == 0 {
		p.Centroid = nil
		return nil
	}

	centroid, err := Centroid(vectors)
	if err != nil {
		return fmt.Errorf("computing centroid for profile %s: %w", p.ID, err)
	}

	p.Centroid = centroid
	return nil
}

// seedVectors gathers embeddings for the profile's seeds, skipping
// missing items and items without embeddings.
func (e *Engine) seedVectors(ctx context.Context, p *Profile) ([][]float32, error) {
	vectors := make([][]float32, 0, len(p.SeedItemIDs))
	for _, id := range p.SeedItemIDs {
		it, err := e.items.GetItem(ctx, id)
		if err != nil {
			if errors.Is(err, vector.ErrNotFound) {
				e.logger.Warn("profile references missing item",
					zap.String("profile_id", p.ID),
					zap.String("item_id", id),
				)
				continue
			}
			return nil, fmt.Errorf("fetching seed %s: %w", id, err)
		}
		if !it.HasEmbedding() {
			continue
		}
		vectors = append(vectors, it.Embedding)
	}
	return vectors, nil
}

// dedupe collapses duplicate IDs, preserving first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// sameSeedSet compares two seed lists as sets.
func sameSeedSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
