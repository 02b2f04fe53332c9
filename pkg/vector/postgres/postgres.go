// Package postgres provides a pgvector-backed item store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/MikeNorman/poempig/pkg/item"
	"github.com/MikeNorman/poempig/pkg/vector"
)

// Store implements vector.Store on PostgreSQL with the pgvector extension.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Config holds configuration for the postgres store.
type Config struct {
	// ConnString is a pgx connection string or URL.
	ConnString string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewStore connects to PostgreSQL and ensures the items schema exists.
func NewStore(ctx context.Context, c Config, logger *zap.Logger) (*Store, error) {
	if c.ConnString == "" {
		return nil, fmt.Errorf("connection string is required")
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("pgvector embedding dimensions cannot be 0, must be configured")
	}

	pool, err := pgxpool.New(ctx, c.ConnString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrConnection, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", vector.ErrConnection, err)
	}

	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("enabling pgvector extension: %w", err)
	}

	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL DEFAULT 'poem',
			tags JSONB NOT NULL DEFAULT '[]',
			embedding vector(%d)
		)
	`, c.Dimensions)
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating items table: %w", err)
	}

	logger.Info("pgvector item store initialized",
		zap.Uint("dimensions", c.Dimensions),
	)

	return &Store{pool: pool, logger: logger}, nil
}

// encodeVector renders a float32 slice in pgvector's text format: [x,y,z].
func encodeVector(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// decodeVector parses pgvector's text format back to a float32 slice.
func decodeVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("invalid vector literal %q", s)
	}
	s = s[1 : len(s)-1]
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	v := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q: %w", p, err)
		}
		v[i] = float32(f)
	}
	return v, nil
}

// UpsertItems stores items with their embeddings.
func (s *Store) UpsertItems(ctx context.Context, items []item.Item) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, it := range items {
		tags, err := item.EncodeTags(it.Tags)
		if err != nil {
			return fmt.Errorf("encoding tags for item %s: %w", it.ID, err)
		}

		var embedding any
		if it.HasEmbedding() {
			embedding = encodeVector(it.Embedding)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO items (id, title, author, body, kind, tags, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7::vector)
			ON CONFLICT (id) DO UPDATE SET
				title = EXCLUDED.title,
				author = EXCLUDED.author,
				body = EXCLUDED.body,
				kind = EXCLUDED.kind,
				tags = EXCLUDED.tags,
				embedding = EXCLUDED.embedding
		`, it.ID, it.Title, it.Author, it.Text, it.Kind, string(tags), embedding)
		if err != nil {
			return fmt.Errorf("upserting item %s: %w", it.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("upserted items into postgres",
		zap.Int("count", len(items)),
	)

	return nil
}

// GetItem retrieves a single item, including its embedding.
func (s *Store) GetItem(ctx context.Context, id string) (item.Item, error) {
	var (
		it        item.Item
		tags      []byte
		embedding *string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, title, author, body, kind, tags, embedding::text
		FROM items WHERE id = $1
	`, id).Scan(&it.ID, &it.Title, &it.Author, &it.Text, &it.Kind, &tags, &embedding)
	if errors.Is(err, pgx.ErrNoRows) {
		return item.Item{}, fmt.Errorf("%w: %s", vector.ErrNotFound, id)
	}
	if err != nil {
		return item.Item{}, fmt.Errorf("querying item %s: %w", id, err)
	}

	if it.Tags, err = item.ParseTags(tags); err != nil {
		return item.Item{}, fmt.Errorf("item %s: %w", id, err)
	}
	if embedding != nil {
		if it.Embedding, err = decodeVector(*embedding); err != nil {
			return item.Item{}, fmt.Errorf("item %s: %w", id, err)
		}
	}

	return it, nil
}

// ScanItems returns all items matching the filter, ordered by ID.
func (s *Store) ScanItems(ctx context.Context, f vector.Filter) ([]item.Item, error) {
	var (
		conds []string
		args  []any
	)
	if f.Author != "" {
		args = append(args, f.Author)
		conds = append(conds, fmt.Sprintf("author = $%d", len(args)))
	}
	if f.Kind != "" {
		args = append(args, f.Kind)
		conds = append(conds, fmt.Sprintf("kind = $%d", len(args)))
	}
	if f.RequireEmbedding {
		conds = append(conds, "embedding IS NOT NULL")
	}

	query := `SELECT id, title, author, body, kind, tags, embedding::text FROM items`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scanning items: %w", err)
	}
	defer rows.Close()

	var items []item.Item
	for rows.Next() {
		var (
			it        item.Item
			tags      []byte
			embedding *string
		)
		if err := rows.Scan(&it.ID, &it.Title, &it.Author, &it.Text, &it.Kind, &tags, &embedding); err != nil {
			return nil, fmt.Errorf("scanning item row: %w", err)
		}
		if it.Tags, err = item.ParseTags(tags); err != nil {
			return nil, fmt.Errorf("item %s: %w", it.ID, err)
		}
		if embedding != nil {
			if it.Embedding, err = decodeVector(*embedding); err != nil {
				return nil, fmt.Errorf("item %s: %w", it.ID, err)
			}
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}

	return items, nil
}

// SimilaritySearch finds the k items most similar to the query vector using
// pgvector's cosine distance operator.
func (s *Store) SimilaritySearch(ctx context.Context, query []float32, k int) ([]vector.Match, error) {
	if k <= 0 {
		k = 10
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, title, author, body, kind, tags,
			1 - (embedding <=> $1::vector) AS similarity
		FROM items
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1::vector
		LIMIT $2
	`, encodeVector(query), k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrSearchUnavailable, err)
	}
	defer rows.Close()

	var matches []vector.Match
	for rows.Next() {
		var (
			it         item.Item
			tags       []byte
			similarity float64
		)
		if err := rows.Scan(&it.ID, &it.Title, &it.Author, &it.Text, &it.Kind, &tags, &similarity); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		if it.Tags, err = item.ParseTags(tags); err != nil {
			return nil, fmt.Errorf("item %s: %w", it.ID, err)
		}

		matches = append(matches, vector.Match{
			Item:       it,
			Similarity: similarity,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}

	s.logger.Debug("queried pgvector",
		zap.Int("results", len(matches)),
	)

	return matches, nil
}

// DeleteItems removes items by their IDs.
func (s *Store) DeleteItems(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if _, err := s.pool.Exec(ctx, `DELETE FROM items WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("deleting items: %w", err)
	}

	s.logger.Debug("deleted items from postgres",
		zap.Int("count", len(ids)),
	)

	return nil
}

// Close releases resources held by the store.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

var _ vector.Store = (*Store)(nil)
