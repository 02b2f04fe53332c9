package config

const (
	defaultProfilePath = "profiles.db"

	defaultVectorProvider = "sqlitevec"
	defaultVectorTarget   = "items.db"

	defaultEmbeddingProvider   = "openai"
	defaultEmbeddingModel      = "text-embedding-3-small"
	defaultEmbeddingDimensions = 1536
	defaultEmbeddingTarget     = ""

	defaultCandidateBudget = 50
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			ProfilePath: defaultProfilePath,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
			Target:   defaultVectorTarget,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Engine: EngineConfig{
			CandidateBudget: defaultCandidateBudget,
		},
	}
}
