package item

import (
	"encoding/json"
	"fmt"
)

// defaultRelevance is assigned to plain-label tags when a relevance-weighted
// score is needed; matches the legacy ingestion convention.
const defaultRelevance = 0.5

// Tag is a semantic tag in one of two shapes: a plain label, or a structured
// (category, label, relevance) triple. The shape is resolved once when tags
// cross the storage boundary; callers never re-sniff raw tag data.
type Tag struct {
	Label     string  `json:"label"`
	Category  string  `json:"category,omitempty"`
	Relevance float64 `json:"relevance,omitempty"`
}

// Structured reports whether the tag carries category/relevance data.
func (t Tag) Structured() bool {
	return t.Category != ""
}

// Weight returns the tag's relevance, substituting the default for plain tags.
func (t Tag) Weight() float64 {
	if t.Relevance > 0 {
		return t.Relevance
	}
	return defaultRelevance
}

// MarshalJSON encodes a plain tag as a bare JSON string and a structured tag
// as an object, preserving the on-disk variant shape.
func (t Tag) MarshalJSON() ([]byte, error) {
	if !t.Structured() {
		return json.Marshal(t.Label)
	}

	type structuredTag struct {
		Label     string  `json:"label"`
		Category  string  `json:"category"`
		Relevance float64 `json:"relevance,omitempty"`
	}
	return json.Marshal(structuredTag(t))
}

// UnmarshalJSON accepts either a bare JSON string or a structured object.
// The legacy ingestion pipeline wrote objects keyed "tag" instead of "label";
// both spellings are accepted.
func (t *Tag) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		*t = Tag{Label: label}
		return nil
	}

	var obj struct {
		Label     string  `json:"label"`
		Tag       string  `json:"tag"`
		Category  string  `json:"category"`
		Relevance float64 `json:"relevance"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("tag must be a string or an object: %w", err)
	}

	label = obj.Label
	if label == "" {
		label = obj.Tag
	}
	if label == "" {
		return fmt.Errorf("tag object missing label")
	}

	*t = Tag{Label: label, Category: obj.Category, Relevance: obj.Relevance}
	return nil
}

// ParseTags decodes a JSON array of tags in either shape.
func ParseTags(data []byte) ([]Tag, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var tags []Tag
	if err := json.Unmarshal(data, &tags); err != nil {
		return nil, fmt.Errorf("parsing tags: %w", err)
	}
	return tags, nil
}

// EncodeTags encodes tags back to their JSON array form for storage.
func EncodeTags(tags []Tag) ([]byte, error) {
	if len(tags) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(tags)
}
