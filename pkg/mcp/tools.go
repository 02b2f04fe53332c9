package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/MikeNorman/poempig/pkg/utils"
	"github.com/MikeNorman/poempig/pkg/vector"
	"github.com/MikeNorman/poempig/pkg/vibe"
)

var (
	searchToolName    = "search"
	searchDescription = "Search poems and quotes by keyword and meaning. Returns the most relevant items for the query text."

	findSimilarToolName    = "find_similar"
	findSimilarDescription = "Find poems and quotes similar to a given item, ranked by cosine similarity of their embeddings."

	vibeSimilarToolName    = "vibe_similar"
	vibeSimilarDescription = "Find poems and quotes matching a vibe profile's centroid. The profile's own seeds are never returned."

	vibeListToolName    = "vibe_list"
	vibeListDescription = "List all vibe profiles with their seed counts."
)

const previewLength = 160

// ResultItem is a single item in a tool response.
type ResultItem struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Author  string  `json:"author"`
	Kind    string  `json:"type"`
	Score   float64 `json:"score"`
	Preview string  `json:"preview"`
}

// SearchInput represents the input arguments for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query text"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of results to return (default: 10)"`
}

// SearchOutput represents the output of the search tool.
type SearchOutput struct {
	Query   string       `json:"query"`
	Results []ResultItem `json:"results"`
	Count   int          `json:"count"`
}

// handleSearch processes a search request.
func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	s.config.Logger.Debug("MCP search request",
		zap.String("query", input.Query),
		zap.Int("topK", input.TopK),
	)

	out, err := s.config.Searcher.Search(ctx, input.Query, input.TopK)
	if err != nil {
		return errorResult(s.config.Logger, "search failed", err), SearchOutput{}, nil
	}

	results := make([]ResultItem, 0, len(out.Results))
	for _, r := range out.Results {
		results = append(results, ResultItem{
			ID:      r.Item.ID,
			Title:   r.Item.Title,
			Author:  r.Item.Author,
			Kind:    r.Item.Kind,
			Score:   r.Score,
			Preview: preview(r.Item.Text),
		})
	}

	output := SearchOutput{
		Query:   input.Query,
		Results: results,
		Count:   len(results),
	}
	return jsonResult(s.config.Logger, output)
}

// FindSimilarInput represents the input arguments for the find_similar tool.
type FindSimilarInput struct {
	ItemID  string   `json:"item_id" jsonschema:"the item to find neighbors of"`
	TopK    int      `json:"top_k,omitempty" jsonschema:"number of results to return (default: 10)"`
	Exclude []string `json:"exclude,omitempty" jsonschema:"item IDs to exclude from results"`
}

// FindSimilarOutput represents the output of the find_similar tool.
type FindSimilarOutput struct {
	ItemID  string       `json:"item_id"`
	Results []ResultItem `json:"results"`
	Count   int          `json:"count"`
}

// handleFindSimilar processes a find_similar request.
func (s *Server) handleFindSimilar(ctx context.Context, _ *mcp.CallToolRequest, input FindSimilarInput) (*mcp.CallToolResult, FindSimilarOutput, error) {
	matches, err := s.config.Engine.FindSimilarToItem(ctx, input.ItemID, input.TopK, input.Exclude)
	if err != nil {
		return errorResult(s.config.Logger, "find_similar failed", err), FindSimilarOutput{}, nil
	}

	output := FindSimilarOutput{
		ItemID:  input.ItemID,
		Results: matchResults(matches),
		Count:   len(matches),
	}
	return jsonResult(s.config.Logger, output)
}

// VibeSimilarInput represents the input arguments for the vibe_similar tool.
type VibeSimilarInput struct {
	Profile string   `json:"profile" jsonschema:"the vibe profile name or ID"`
	TopK    int      `json:"top_k,omitempty" jsonschema:"number of results to return (default: 10)"`
	Exclude []string `json:"exclude,omitempty" jsonschema:"item IDs to exclude from results"`
}

// VibeSimilarOutput represents the output of the vibe_similar tool.
type VibeSimilarOutput struct {
	Profile string       `json:"profile"`
	Results []ResultItem `json:"results"`
	Count   int          `json:"count"`
}

// handleVibeSimilar processes a vibe_similar request.
func (s *Server) handleVibeSimilar(ctx context.Context, _ *mcp.CallToolRequest, input VibeSimilarInput) (*mcp.CallToolResult, VibeSimilarOutput, error) {
	p, err := s.resolveProfile(ctx, input.Profile)
	if err != nil {
		return errorResult(s.config.Logger, "vibe_similar failed", err), VibeSimilarOutput{}, nil
	}

	matches, err := s.config.Engine.FindSimilarToProfile(ctx, p.ID, input.TopK, input.Exclude)
	if err != nil {
		return errorResult(s.config.Logger, "vibe_similar failed", err), VibeSimilarOutput{}, nil
	}

	output := VibeSimilarOutput{
		Profile: p.Name,
		Results: matchResults(matches),
		Count:   len(matches),
	}
	return jsonResult(s.config.Logger, output)
}

// VibeListInput represents the (empty) input for the vibe_list tool.
type VibeListInput struct{}

// VibeProfileSummary is one profile in the vibe_list output.
type VibeProfileSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int    `json:"size"`
}

// VibeListOutput represents the output of the vibe_list tool.
type VibeListOutput struct {
	Profiles []VibeProfileSummary `json:"profiles"`
	Count    int                  `json:"count"`
}

// handleVibeList processes a vibe_list request.
func (s *Server) handleVibeList(ctx context.Context, _ *mcp.CallToolRequest, _ VibeListInput) (*mcp.CallToolResult, VibeListOutput, error) {
	profiles, err := s.config.Engine.ListProfiles(ctx)
	if err != nil {
		return errorResult(s.config.Logger, "vibe_list failed", err), VibeListOutput{}, nil
	}

	summaries := make([]VibeProfileSummary, 0, len(profiles))
	for _, p := range profiles {
		summaries = append(summaries, VibeProfileSummary{
			ID:   p.ID,
			Name: p.Name,
			Size: p.Size,
		})
	}

	output := VibeListOutput{
		Profiles: summaries,
		Count:    len(summaries),
	}
	return jsonResult(s.config.Logger, output)
}

// resolveProfile looks a profile up by name first, then by ID.
func (s *Server) resolveProfile(ctx context.Context, nameOrID string) (*vibe.Profile, error) {
	p, err := s.config.Engine.GetProfileByName(ctx, nameOrID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, vibe.ErrProfileNotFound) {
		return nil, err
	}
	return s.config.Engine.GetProfile(ctx, nameOrID)
}

func matchResults(matches []vector.Match) []ResultItem {
	results := make([]ResultItem, 0, len(matches))
	for _, m := range matches {
		results = append(results, ResultItem{
			ID:      m.Item.ID,
			Title:   m.Item.Title,
			Author:  m.Item.Author,
			Kind:    m.Item.Kind,
			Score:   m.Similarity,
			Preview: preview(m.Item.Text),
		})
	}
	return results
}

func preview(text string) string {
	return utils.Truncate(utils.Oneline(text), previewLength)
}

// jsonResult serializes the structured output as JSON for the text field.
// Per MCP spec: tools returning structured content should also return
// serialized JSON in a TextContent block for backwards compatibility
func jsonResult[T any](logger *zap.Logger, output T) (*mcp.CallToolResult, T, error) {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		var zero T
		return errorResult(logger, "failed to serialize results", err), zero, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

func errorResult(logger *zap.Logger, msg string, err error) *mcp.CallToolResult {
	logger.Error(msg, zap.Error(err))
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("%s: %v", msg, err)},
		},
	}
}
