package testutils

import (
	"context"
	"fmt"

	"github.com/MikeNorman/poempig/pkg/item"
	"github.com/MikeNorman/poempig/pkg/vector"
	"github.com/MikeNorman/poempig/pkg/vector/inmemory"
)

// MockStore is a test item store. It behaves like the in-memory store but
// can be told to fail its native search path so fallback behavior can be
// exercised.
type MockStore struct {
	*inmemory.Store

	// FailSearch causes SimilaritySearch to return ErrSearchUnavailable.
	FailSearch bool

	// SearchCalls counts SimilaritySearch invocations.
	SearchCalls int
}

func NewMockStore() *MockStore {
	return &MockStore{
		Store: inmemory.NewStore(),
	}
}

func (m *MockStore) SimilaritySearch(ctx context.Context, query []float32, k int) ([]vector.Match, error) {
	m.SearchCalls++

	if m.FailSearch {
		return nil, fmt.Errorf("%w: mock failure", vector.ErrSearchUnavailable)
	}
	return m.Store.SimilaritySearch(ctx, query, k)
}

// SeedItems loads items into the store, panicking on error. Test setup only.
func (m *MockStore) SeedItems(items ...item.Item) {
	if err := m.UpsertItems(context.Background(), items); err != nil {
		panic(err)
	}
}

var _ vector.Store = (*MockStore)(nil)
