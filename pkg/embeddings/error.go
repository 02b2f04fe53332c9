package embeddings

import "errors"

// ErrEmbedding indicates the embedding provider failed to produce a vector.
// Callers that can fall back to non-semantic behavior should match on this
// with errors.Is.
var ErrEmbedding = errors.New("embedding failed")
