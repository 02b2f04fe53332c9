// Package sqlite provides a SQLite-backed profile store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/MikeNorman/poempig/pkg/vibe"
)

// Store implements vibe.ProfileStore on a SQLite database.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Config holds configuration for the SQLite profile store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string
}

// NewStore opens (or creates) the profile database.
func NewStore(c Config, logger *zap.Logger) (*Store, error) {
	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			seeds TEXT NOT NULL DEFAULT '[]',
			centroid BLOB,
			size INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating profiles table: %w", err)
	}

	logger.Info("sqlite profile store initialized",
		zap.String("db_path", c.DBPath),
	)

	return &Store{db: db, logger: logger}, nil
}

// CreateProfile stores a new profile.
func (s *Store) CreateProfile(ctx context.Context, p *vibe.Profile) error {
	seeds, centroid, err := encodeProfile(p)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, name, seeds, centroid, size, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, seeds, centroid, p.Size,
		p.CreatedAt.UTC().Format(time.RFC3339Nano),
		p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting profile %s: %w", p.ID, err)
	}
	return nil
}

// GetProfile retrieves a profile by ID.
func (s *Store) GetProfile(ctx context.Context, id string) (*vibe.Profile, error) {
	return s.getWhere(ctx, "id = ?", id)
}

// GetProfileByName retrieves a profile by its exact name.
func (s *Store) GetProfileByName(ctx context.Context, name string) (*vibe.Profile, error) {
	return s.getWhere(ctx, "name = ?", name)
}

func (s *Store) getWhere(ctx context.Context, cond string, arg any) (*vibe.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, seeds, centroid, size, created_at, updated_at
		FROM profiles WHERE `+cond, arg)

	p, err := scanProfile(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %v", vibe.ErrProfileNotFound, arg)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListProfiles returns all profiles ordered by creation time.
func (s *Store) ListProfiles(ctx context.Context) ([]*vibe.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, seeds, centroid, size, created_at, updated_at
		FROM profiles ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*vibe.Profile
	for rows.Next() {
		p, err := scanProfile(rows.Scan)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profiles: %w", err)
	}
	return profiles, nil
}

// UpdateProfile overwrites a profile's mutable fields in one statement so
// the seed list, size, and centroid change together.
func (s *Store) UpdateProfile(ctx context.Context, p *vibe.Profile) error {
	seeds, centroid, err := encodeProfile(p)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE profiles
		SET name = ?, seeds = ?, centroid = ?, size = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, seeds, centroid, p.Size,
		p.UpdatedAt.UTC().Format(time.RFC3339Nano), p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating profile %s: %w", p.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update of profile %s: %w", p.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", vibe.ErrProfileNotFound, p.ID)
	}
	return nil
}

// DeleteProfile removes a profile by ID.
func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting profile %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete of profile %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", vibe.ErrProfileNotFound, id)
	}
	return nil
}

// Close releases resources held by the store.
func (s *Store) Close() error {
	return s.db.Close()
}

func encodeProfile(p *vibe.Profile) (seeds string, centroid []byte, err error) {
	seedList := p.SeedItemIDs
	if seedList == nil {
		seedList = []string{}
	}
	raw, err := json.Marshal(seedList)
	if err != nil {
		return "", nil, fmt.Errorf("encoding seeds for profile %s: %w", p.ID, err)
	}

	if len(p.Centroid) > 0 {
		centroid = serializeFloat32(p.Centroid)
	}
	return string(raw), centroid, nil
}

func scanProfile(scan func(dest ...any) error) (*vibe.Profile, error) {
	var (
		p                    vibe.Profile
		seeds                string
		centroid             []byte
		createdAt, updatedAt string
	)
	if err := scan(&p.ID, &p.Name, &seeds, &centroid, &p.Size, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(seeds), &p.SeedItemIDs); err != nil {
		return nil, fmt.Errorf("decoding seeds for profile %s: %w", p.ID, err)
	}

	if len(centroid) > 0 {
		vec, err := deserializeFloat32(centroid)
		if err != nil {
			return nil, fmt.Errorf("decoding centroid for profile %s: %w", p.ID, err)
		}
		p.Centroid = vec
	}

	var err error
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at for profile %s: %w", p.ID, err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at for profile %s: %w", p.ID, err)
	}

	return &p, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice.
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
		return nil, fmt.Errorf("invalid centroid blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

var _ vibe.ProfileStore = (*Store)(nil)
