// Package search provides shared hybrid search logic over the item corpus.
// It is used by both the CLI search command and the MCP server tool.
// Keyword matches on title, author, and text are merged with semantic
// matches from the vector store, keeping the best score per item.
package search

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/MikeNorman/poempig/pkg/embeddings"
	"github.com/MikeNorman/poempig/pkg/item"
	"github.com/MikeNorman/poempig/pkg/vector"
)

// Keyword match scores. A title hit outranks an author hit, which outranks
// a body hit, so exact lookups surface above incidental mentions.
const (
	titleScore  = 1.0
	authorScore = 0.9
	textScore   = 0.8
)

// DefaultTopK is the result count used when a caller passes topK <= 0.
const DefaultTopK = 10

// quotedPhrase extracts "exact phrases" from a query string.
var quotedPhrase = regexp.MustCompile(`"([^"]+)"`)

// SearchInput represents the input arguments for a search request.
type SearchInput struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// SearchResult represents a single search result.
type SearchResult struct {
	Item item.Item `json:"item"`

	// Score is the match score: cosine similarity for semantic matches,
	// a fixed rank score for keyword matches, whichever is higher.
	Score float64 `json:"score"`

	// MatchedOn names what produced the score: "title", "author",
	// "text", "phrase", or "semantic".
	MatchedOn string `json:"matched_on"`
}

// SearchOutput represents the output of a search operation.
type SearchOutput struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

// Searcher runs hybrid keyword and semantic search over an item store.
// Query embeddings are cached by raw text so repeated searches do not
// re-hit the embedding provider.
type Searcher struct {
	embedder embeddings.Embedder
	store    vector.Store
	logger   *zap.Logger

	cacheMu sync.RWMutex
	cache   map[string][]float32
}

// NewSearcher creates a searcher. The embedder may be nil, in which case
// only keyword matching runs.
func NewSearcher(embedder embeddings.Embedder, store vector.Store, logger *zap.Logger) *Searcher {
	return &Searcher{
		embedder: embedder,
		store:    store,
		logger:   logger,
		cache:    make(map[string][]float32),
	}
}

// Search runs the hybrid search and returns the topK best-scoring items.
func (s *Searcher) Search(ctx context.Context, query string, topK int) (*SearchOutput, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	s.logger.Debug("search request",
		zap.String("query", query),
		zap.Int("topK", topK),
	)

	best := make(map[string]SearchResult)

	if err := s.keywordPass(ctx, query, best); err != nil {
		return nil, err
	}
	s.semanticPass(ctx, query, topK, best)

	results := make([]SearchResult, 0, len(best))
	for _, r := range best {
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Item.ID < results[j].Item.ID
	})

	if len(results) > topK {
		results = results[:topK]
	}

	return &SearchOutput{
		Query:   query,
		Results: results,
		Count:   len(results),
	}, nil
}

// keywordPass scores case-insensitive substring matches on title, author,
// and text. Quoted phrases in the query must appear verbatim in the text.
func (s *Searcher) keywordPass(ctx context.Context, query string, best map[string]SearchResult) error {
	phrases := extractPhrases(query)
	bare := strings.ToLower(strings.TrimSpace(quotedPhrase.ReplaceAllString(query, "")))

	items, err := s.store.ScanItems(ctx, vector.Filter{})
	if err != nil {
		return fmt.Errorf("scanning items: %w", err)
	}

	for _, it := range items {
		score, matchedOn := scoreKeyword(it, bare, phrases)
		if score == 0 {
			continue
		}
		record(best, it, score, matchedOn)
	}
	return nil
}

// semanticPass merges vector store matches into best, keeping the higher
// score per item. Embedding or search failures degrade to keyword-only
// results with a warning rather than failing the whole query.
func (s *Searcher) semanticPass(ctx context.Context, query string, topK int, best map[string]SearchResult) {
	if s.embedder == nil {
		return
	}

	embedding, err := s.embedQuery(ctx, query)
	if err != nil {
		s.logger.Warn("query embedding failed, keyword results only",
			zap.Error(err),
		)
		return
	}

	matches, err := s.store.SimilaritySearch(ctx, embedding, 2*topK)
	if err != nil {
		if errors.Is(err, vector.ErrSearchUnavailable) {
			s.logger.Warn("semantic search unavailable, keyword results only",
				zap.Error(err),
			)
			return
		}
		s.logger.Warn("semantic search failed, keyword results only",
			zap.Error(err),
		)
		return
	}

	for _, m := range matches {
		record(best, m.Item, m.Similarity, "semantic")
	}
}

// embedQuery embeds the query text, consulting the cache first.
func (s *Searcher) embedQuery(ctx context.Context, query string) ([]float32, error) {
	s.cacheMu.RLock()
	cached, ok := s.cache[query]
	s.cacheMu.RUnlock()
	if ok {
		return cached, nil
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	s.cacheMu.Lock()
	s.cache[query] = embedding
	s.cacheMu.Unlock()

	return embedding, nil
}

// record keeps the best score seen per item.
func record(best map[string]SearchResult, it item.Item, score float64, matchedOn string) {
	if prev, ok := best[it.ID]; ok && prev.Score >= score {
		return
	}
	best[it.ID] = SearchResult{
		Item:      it,
		Score:     score,
		MatchedOn: matchedOn,
	}
}

// scoreKeyword returns the best keyword score for one item, or 0 for no
// match.
func scoreKeyword(it item.Item, bare string, phrases []string) (float64, string) {
	text := strings.ToLower(it.Text)

	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return titleScore, "phrase"
		}
	}

	if bare == "" {
		return 0, ""
	}

	if strings.Contains(strings.ToLower(it.Title), bare) {
		return titleScore, "title"
	}
	if strings.Contains(strings.ToLower(it.Author), bare) {
		return authorScore, "author"
	}
	if strings.Contains(text, bare) {
		return textScore, "text"
	}
	return 0, ""
}

// extractPhrases pulls lowercase quoted phrases out of the query.
func extractPhrases(query string) []string {
	var phrases []string
	for _, m := range quotedPhrase.FindAllStringSubmatch(query, -1) {
		phrases = append(phrases, strings.ToLower(m[1]))
	}
	return phrases
}
