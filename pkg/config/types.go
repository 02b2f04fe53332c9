package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent poempig configuration stored as config.toml
// in the .poempig/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Engine      EngineConfig      `toml:"engine"`
}

// StorageConfig holds vibe-profile persistence settings.
type StorageConfig struct {
	// ProfilePath is the SQLite database file for vibe profiles.
	// ":memory:" keeps profiles in process memory.
	ProfilePath string `toml:"profile_path,omitempty"`
}

// VectorStoreConfig holds item corpus / vector store settings.
type VectorStoreConfig struct {
	// Provider selects the store backend: "sqlitevec", "postgres" or "inmemory".
	Provider string `toml:"provider,omitempty"`

	// Target is backend-specific: a database file path for sqlitevec,
	// a connection string for postgres, unused for inmemory.
	Target string `toml:"target,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// EngineConfig holds vibe-profile engine tuning knobs.
type EngineConfig struct {
	// CandidateBudget is how many candidates a similarity query requests
	// from the vector store before exclusion filtering.
	CandidateBudget int `toml:"candidate_budget,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.profile_path": {
		get: func(c *Config) string { return c.Storage.ProfilePath },
		set: func(c *Config, v string) error { c.Storage.ProfilePath = v; return nil },
	},
	"vector_store.provider": {
		get: func(c *Config) string { return c.VectorStore.Provider },
		set: func(c *Config, v string) error { c.VectorStore.Provider = v; return nil },
	},
	"vector_store.target": {
		get: func(c *Config) string { return c.VectorStore.Target },
		set: func(c *Config, v string) error { c.VectorStore.Target = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
	"engine.candidate_budget": {
		get: func(c *Config) string {
			if c.Engine.CandidateBudget == 0 {
				return ""
			}
			return strconv.Itoa(c.Engine.CandidateBudget)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for engine.candidate_budget: %w", err)
			}
			c.Engine.CandidateBudget = n
			return nil
		},
	},
}
