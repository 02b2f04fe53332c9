// Package vector provides interfaces and implementations for item storage
// and vector similarity search.
package vector

import (
	"context"

	"github.com/MikeNorman/poempig/pkg/item"
)

// Match represents a search result with similarity score.
type Match struct {
	Item item.Item

	// Similarity is the cosine similarity to the query vector, in [-1, 1].
	// Higher = more similar.
	Similarity float64
}

// Filter narrows a ScanItems call. Zero-value fields are ignored.
type Filter struct {
	// Author matches the item's author exactly.
	Author string

	// Kind matches the item's kind ("poem" or "quote") exactly.
	Kind string

	// RequireEmbedding skips items without an embedding.
	RequireEmbedding bool
}

// Store handles storage and retrieval of items and their embeddings.
type Store interface {
	// UpsertItems stores items with their embeddings. Items with an
	// existing ID are updated in place.
	UpsertItems(ctx context.Context, items []item.Item) error

	// GetItem retrieves a single item, including its embedding.
	// Returns ErrNotFound if no item has the given ID.
	GetItem(ctx context.Context, id string) (item.Item, error)

	// ScanItems returns all items matching the filter, in a stable order.
	ScanItems(ctx context.Context, f Filter) ([]item.Item, error)

	// SimilaritySearch finds the k items most similar to the query
	// vector, in descending similarity order. Returns ErrSearchUnavailable
	// when the backend's native KNN path cannot serve the query; callers
	// may then fall back to a manual scan.
	SimilaritySearch(ctx context.Context, query []float32, k int) ([]Match, error)

	// DeleteItems removes items by their IDs. Unknown IDs are ignored.
	DeleteItems(ctx context.Context, ids []string) error

	// Close releases any resources held by the store.
	Close() error
}
