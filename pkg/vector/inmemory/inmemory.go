// Package inmemory provides an in-memory item store for tests and small
// corpora. Similarity search is a brute-force cosine scan.
package inmemory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/MikeNorman/poempig/pkg/item"
	"github.com/MikeNorman/poempig/pkg/vector"
)

// Store implements vector.Store with a mutex-guarded map.
type Store struct {
	mu    sync.RWMutex
	items map[string]item.Item
	order []string
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		items: make(map[string]item.Item),
	}
}

// UpsertItems stores items with their embeddings.
func (s *Store) UpsertItems(_ context.Context, items []item.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range items {
		if _, exists := s.items[it.ID]; !exists {
			s.order = append(s.order, it.ID)
		}
		s.items[it.ID] = it
	}
	return nil
}

// GetItem retrieves a single item.
func (s *Store) GetItem(_ context.Context, id string) (item.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return item.Item{}, fmt.Errorf("%w: %s", vector.ErrNotFound, id)
	}
	return it, nil
}

// ScanItems returns all items matching the filter, in insertion order.
func (s *Store) ScanItems(_ context.Context, f vector.Filter) ([]item.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []item.Item
	for _, id := range s.order {
		it := s.items[id]
		if f.Author != "" && it.Author != f.Author {
			continue
		}
		if f.Kind != "" && it.Kind != f.Kind {
			continue
		}
		if f.RequireEmbedding && !it.HasEmbedding() {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

// SimilaritySearch scans every embedded item and ranks by cosine similarity.
func (s *Store) SimilaritySearch(_ context.Context, query []float32, k int) ([]vector.Match, error) {
	if k <= 0 {
		k = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []vector.Match
	for _, id := range s.order {
		it := s.items[id]
		if !it.HasEmbedding() {
			continue
		}
		matches = append(matches, vector.Match{
			Item:       it,
			Similarity: cosine(query, it.Embedding),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// DeleteItems removes items by their IDs.
func (s *Store) DeleteItems(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if _, ok := s.items[id]; !ok {
			continue
		}
		delete(s.items, id)
		for i, oid := range s.order {
			if oid == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// cosine returns the cosine similarity of a and b, or 0.0 when either vector
// has zero norm or the lengths differ. Never NaN or Inf.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var _ vector.Store = (*Store)(nil)
