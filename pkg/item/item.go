// Package item defines the content unit of the poempig corpus: a poem or
// quote with display metadata, semantic tags, and an optional embedding.
package item

// Item kinds as stored in the corpus.
const (
	KindPoem  = "poem"
	KindQuote = "quote"
)

// Item is a single content unit. Items are created by ingestion and are
// read-only from the engine's perspective; the Embedding is populated by a
// separate embedding job and is nil until then.
type Item struct {
	// ID is the stable unique identifier for the item.
	ID string `json:"id"`

	Title  string `json:"title"`
	Author string `json:"author"`
	Text   string `json:"text"`

	// Kind is "poem" or "quote".
	Kind string `json:"type"`

	// Tags are semantic tags resolved at the storage boundary.
	Tags []Tag `json:"tags,omitempty"`

	// Embedding is the vector representation of the item's text.
	// Nil when the item has not been embedded yet. When present it has
	// the corpus's fixed dimensionality.
	Embedding []float32 `json:"embedding,omitempty"`
}

// HasEmbedding reports whether the item carries an embedding vector.
func (i Item) HasEmbedding() bool {
	return len(i.Embedding) > 0
}
