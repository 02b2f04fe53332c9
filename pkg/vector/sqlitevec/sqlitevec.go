// Package sqlitevec provides a SQLite-backed item store using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/MikeNorman/poempig/pkg/item"
	"github.com/MikeNorman/poempig/pkg/vector"
)

// Store implements vector.Store using SQLite with sqlite-vec.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Config holds configuration for the sqlite-vec store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewStore creates a new item store backed by sqlite-vec.
func NewStore(c Config, logger *zap.Logger) (*Store, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if c.Dimensions == 0 {
		return nil, fmt.Errorf("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", vector.ErrConnection, err)
	}

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: sqlite-vec not available: %v", vector.ErrConnection, err)
	}

	// Create the item metadata table.
	// vec0 virtual tables use integer rowids, so we need a mapping from
	// string item IDs to integer rowids.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS items (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			item_id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL DEFAULT 'poem',
			tags TEXT NOT NULL DEFAULT '[]'
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating items table: %w", err)
	}

	// Create the vec0 virtual table for vector storage and KNN queries.
	// distance_metric=cosine keeps KNN scores on the same scale as the
	// manual cosine path: similarity = 1 - distance.
	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS item_embeddings USING vec0(embedding float[%d] distance_metric=cosine)`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec item store initialized",
		zap.String("db_path", c.DBPath),
		zap.Uint("dimensions", c.Dimensions),
		zap.String("vec_version", vecVersion),
	)

	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 converts a little-endian byte slice back to a float32 slice.
func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// UpsertItems stores items with their embeddings.
// If an item with the same ID already exists, it is updated.
func (s *Store) UpsertItems(ctx context.Context, items []item.Item) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, it := range items {
		tags, err := item.EncodeTags(it.Tags)
		if err != nil {
			return fmt.Errorf("encoding tags for item %s: %w", it.ID, err)
		}

		// Check if the item already exists
		var existingRowID int64
		err = tx.QueryRowContext(ctx,
			`SELECT rowid FROM items WHERE item_id = ?`, it.ID,
		).Scan(&existingRowID)

		switch err {
		case nil:
			if _, err := tx.ExecContext(ctx,
				`UPDATE items SET title = ?, author = ?, body = ?, kind = ?, tags = ? WHERE rowid = ?`,
				it.Title, it.Author, it.Text, it.Kind, string(tags), existingRowID,
			); err != nil {
				return fmt.Errorf("updating item %s: %w", it.ID, err)
			}

			// Replace the embedding via DELETE + INSERT
			// (vec0 does not support UPDATE)
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM item_embeddings WHERE rowid = ?`, existingRowID,
			); err != nil {
				return fmt.Errorf("deleting old embedding for item %s: %w", it.ID, err)
			}

			if it.HasEmbedding() {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO item_embeddings(rowid, embedding) VALUES (?, ?)`,
					existingRowID, serializeFloat32(it.Embedding),
				); err != nil {
					return fmt.Errorf("re-inserting embedding for item %s: %w", it.ID, err)
				}
			}
		case sql.ErrNoRows:
			// New item: insert metadata first to get the rowid
			result, err := tx.ExecContext(ctx,
				`INSERT INTO items(item_id, title, author, body, kind, tags) VALUES (?, ?, ?, ?, ?, ?)`,
				it.ID, it.Title, it.Author, it.Text, it.Kind, string(tags),
			)
			if err != nil {
				return fmt.Errorf("inserting item %s: %w", it.ID, err)
			}

			rowID, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("getting rowid for item %s: %w", it.ID, err)
			}

			if it.HasEmbedding() {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO item_embeddings(rowid, embedding) VALUES (?, ?)`,
					rowID, serializeFloat32(it.Embedding),
				); err != nil {
					return fmt.Errorf("inserting embedding for item %s: %w", it.ID, err)
				}
			}
		default:
			return fmt.Errorf("checking for existing item %s: %w", it.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("upserted items into sqlite-vec",
		zap.Int("count", len(items)),
	)

	return nil
}

// GetItem retrieves a single item, including its embedding.
func (s *Store) GetItem(ctx context.Context, id string) (item.Item, error) {
	var (
		it    item.Item
		rowID int64
		tags  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT rowid, item_id, title, author, body, kind, tags FROM items WHERE item_id = ?`, id,
	).Scan(&rowID, &it.ID, &it.Title, &it.Author, &it.Text, &it.Kind, &tags)
	switch err {
	case nil:
	case sql.ErrNoRows:
		return item.Item{}, fmt.Errorf("%w: %s", vector.ErrNotFound, id)
	default:
		return item.Item{}, fmt.Errorf("querying item %s: %w", id, err)
	}

	if it.Tags, err = item.ParseTags([]byte(tags)); err != nil {
		return item.Item{}, fmt.Errorf("item %s: %w", id, err)
	}

	var embBlob []byte
	err = s.db.QueryRowContext(ctx,
		`SELECT embedding FROM item_embeddings WHERE rowid = ?`, rowID,
	).Scan(&embBlob)
	if err == nil && len(embBlob) > 0 {
		if it.Embedding, err = deserializeFloat32(embBlob); err != nil {
			return item.Item{}, fmt.Errorf("item %s: %w", id, err)
		}
	}

	return it, nil
}

// ScanItems returns all items matching the filter, ordered by insertion.
func (s *Store) ScanItems(ctx context.Context, f vector.Filter) ([]item.Item, error) {
	var (
		conds []string
		args  []any
	)
	if f.Author != "" {
		conds = append(conds, "author = ?")
		args = append(args, f.Author)
	}
	if f.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, f.Kind)
	}

	query := `SELECT rowid, item_id, title, author, body, kind, tags FROM items`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scanning items: %w", err)
	}
	defer rows.Close()

	// Collect metadata first so the rows cursor is closed before issuing
	// embedding lookups (SQLite uses a single connection).
	type itemRow struct {
		it    item.Item
		rowID int64
	}
	var itemRows []itemRow

	for rows.Next() {
		var (
			ir   itemRow
			tags string
		)
		if err := rows.Scan(&ir.rowID, &ir.it.ID, &ir.it.Title, &ir.it.Author, &ir.it.Text, &ir.it.Kind, &tags); err != nil {
			return nil, fmt.Errorf("scanning item row: %w", err)
		}
		if ir.it.Tags, err = item.ParseTags([]byte(tags)); err != nil {
			return nil, fmt.Errorf("item %s: %w", ir.it.ID, err)
		}
		itemRows = append(itemRows, ir)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}
	rows.Close()

	items := make([]item.Item, 0, len(itemRows))
	for _, ir := range itemRows {
		var embBlob []byte
		err := s.db.QueryRowContext(ctx,
			`SELECT embedding FROM item_embeddings WHERE rowid = ?`, ir.rowID,
		).Scan(&embBlob)
		if err == nil && len(embBlob) > 0 {
			if ir.it.Embedding, err = deserializeFloat32(embBlob); err != nil {
				return nil, fmt.Errorf("item %s: %w", ir.it.ID, err)
			}
		}

		if f.RequireEmbedding && !ir.it.HasEmbedding() {
			continue
		}

		items = append(items, ir.it)
	}

	return items, nil
}

// SimilaritySearch finds the k items most similar to the query vector.
func (s *Store) SimilaritySearch(ctx context.Context, query []float32, k int) ([]vector.Match, error) {
	if k <= 0 {
		k = 10
	}

	// KNN query via vec0 MATCH, then JOIN back for item metadata.
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			i.item_id,
			i.title,
			i.author,
			i.body,
			i.kind,
			i.tags,
			ie.distance
		FROM item_embeddings ie
		INNER JOIN items i ON i.rowid = ie.rowid
		WHERE ie.embedding MATCH ?
			AND ie.k = ?
		ORDER BY ie.distance
	`, serializeFloat32(query), k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrSearchUnavailable, err)
	}
	defer rows.Close()

	var matches []vector.Match
	for rows.Next() {
		var (
			it       item.Item
			tags     string
			distance float64
		)
		if err := rows.Scan(&it.ID, &it.Title, &it.Author, &it.Text, &it.Kind, &tags, &distance); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		if it.Tags, err = item.ParseTags([]byte(tags)); err != nil {
			return nil, fmt.Errorf("item %s: %w", it.ID, err)
		}

		matches = append(matches, vector.Match{
			Item: it,
			// cosine distance = 1 - cosine similarity
			Similarity: 1.0 - distance,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}

	s.logger.Debug("queried sqlite-vec",
		zap.Int("results", len(matches)),
	)

	return matches, nil
}

// DeleteItems removes items by their IDs.
func (s *Store) DeleteItems(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	inClause := strings.Join(placeholders, ",")

	// Resolve rowids first so the vec0 rows can be removed.
	query := fmt.Sprintf(
		`SELECT rowid FROM items WHERE item_id IN (%s)`, inClause,
	)
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying rowids for deletion: %w", err)
	}

	var rowIDs []int64
	for rows.Next() {
		var rowID int64
		if err := rows.Scan(&rowID); err != nil {
			rows.Close()
			return fmt.Errorf("scanning rowid: %w", err)
		}
		rowIDs = append(rowIDs, rowID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rowids: %w", err)
	}

	for _, rowID := range rowIDs {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM item_embeddings WHERE rowid = ?`, rowID,
		); err != nil {
			return fmt.Errorf("deleting embedding rowid %d: %w", rowID, err)
		}
	}

	deleteQuery := fmt.Sprintf(
		`DELETE FROM items WHERE item_id IN (%s)`, inClause,
	)
	if _, err := tx.ExecContext(ctx, deleteQuery, args...); err != nil {
		return fmt.Errorf("deleting items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("deleted items from sqlite-vec",
		zap.Int("count", len(ids)),
	)

	return nil
}

// Close releases resources held by the store.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ vector.Store = (*Store)(nil)
