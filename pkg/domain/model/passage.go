package model

// Passage is a retrieved excerpt of source documentation with provenance.
// Produced fresh per query, never persisted.
type Passage struct {
	// Content may be truncated to a display limit with a trailing ellipsis
	Content string `json:"content"`
	// Source identifies the originating document (file name or collection path)
	Source string `json:"source"`
	// Score is the relevance score reported by the index, if any
	Score *float64 `json:"score,omitempty"`
}
