// Package stack wires the poempig runtime (logger, stores, engine,
// searcher) from CLI flags, environment, and config.toml. Every command
// that touches the corpus builds its runtime through here so flag
// precedence stays uniform.
package stack

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MikeNorman/poempig/pkg/config"
	"github.com/MikeNorman/poempig/pkg/dotdir"
	"github.com/MikeNorman/poempig/pkg/embeddings"
	embeddingutils "github.com/MikeNorman/poempig/pkg/embeddings/utils"
	"github.com/MikeNorman/poempig/pkg/logger"
	"github.com/MikeNorman/poempig/pkg/search"
	"github.com/MikeNorman/poempig/pkg/vector"
	vectorutils "github.com/MikeNorman/poempig/pkg/vector/utils"
	"github.com/MikeNorman/poempig/pkg/vibe"
	profilesqlite "github.com/MikeNorman/poempig/pkg/vibe/store/sqlite"
)

// Stack is the assembled poempig runtime.
type Stack struct {
	Logger   *zap.Logger
	Items    vector.Store
	Profiles vibe.ProfileStore
	Engine   *vibe.Engine
	Embedder embeddings.Embedder
	Searcher *search.Searcher
}

// Options controls which parts of the runtime get built.
type Options struct {
	// WithEmbedder attempts to construct the configured embedding
	// provider. Failure is non-fatal: search degrades to keyword-only
	// and the Embedder field stays nil.
	WithEmbedder bool

	// FlagKeys are the config.Flags registry keys the command registered;
	// they are bound into viper so flags override env and file values.
	FlagKeys []string
}

// Build assembles the runtime for a command invocation.
func Build(ctx context.Context, cmd *cobra.Command, opts Options) (*Stack, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	configDir, _ := cmd.Flags().GetString("config-dir")

	log := logger.NewLogger(debug)

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, opts.FlagKeys)

	ddm := dotdir.NewManager()
	baseDir, err := ddm.Target(configDir)
	if err != nil {
		return nil, err
	}

	dimensions := v.GetUint("embedding.dimensions")

	items, err := vectorutils.NewStore(ctx, &vectorutils.NewStoreOpts{
		ProviderType: v.GetString("vector_store.provider"),
		Target:       resolvePath(baseDir, v.GetString("vector_store.provider"), v.GetString("vector_store.target")),
		Dimensions:   dimensions,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}

	profiles, err := profilesqlite.NewStore(profilesqlite.Config{
		DBPath: resolvePath(baseDir, "sqlitevec", v.GetString("storage.profile_path")),
	}, log)
	if err != nil {
		items.Close()
		return nil, fmt.Errorf("opening profile store: %w", err)
	}

	engine := vibe.NewEngine(profiles, items, vibe.EngineConfig{
		CandidateBudget: v.GetInt("engine.candidate_budget"),
	}, log)

	var embedder embeddings.Embedder
	if opts.WithEmbedder {
		embedder, err = embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: v.GetString("embedding.provider"),
			TargetURL:    v.GetString("embedding.target"),
			Model:        v.GetString("embedding.model"),
			Dimensions:   dimensions,
		})
		if err != nil {
			log.Warn("embedder unavailable, semantic search disabled",
				zap.Error(err),
			)
			embedder = nil
		}
	}

	return &Stack{
		Logger:   log,
		Items:    items,
		Profiles: profiles,
		Engine:   engine,
		Embedder: embedder,
		Searcher: search.NewSearcher(embedder, items, log),
	}, nil
}

// Close releases every resource the stack holds.
func (s *Stack) Close() {
	if s.Embedder != nil {
		_ = s.Embedder.Close()
	}
	_ = s.Profiles.Close()
	_ = s.Items.Close()
	_ = s.Logger.Sync()
}

// ResolveProfile looks a profile up by name first, then by ID.
func (s *Stack) ResolveProfile(ctx context.Context, nameOrID string) (*vibe.Profile, error) {
	p, err := s.Engine.GetProfileByName(ctx, nameOrID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, vibe.ErrProfileNotFound) {
		return nil, err
	}
	return s.Engine.GetProfile(ctx, nameOrID)
}

// resolvePath joins relative sqlite paths onto the .poempig/ directory.
// Absolute paths, ":memory:", and non-file targets pass through unchanged.
func resolvePath(baseDir, provider, target string) string {
	if provider != "sqlitevec" {
		return target
	}
	if target == "" || target == ":memory:" || filepath.IsAbs(target) {
		return target
	}
	if baseDir == "" {
		return target
	}
	return filepath.Join(baseDir, target)
}
