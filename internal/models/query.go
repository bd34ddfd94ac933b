package models

import "strings"

// SearchQuery represents a storefront search request.
type SearchQuery struct {
	Query string `json:"query"`
	// Limit overrides the result page size when positive; it is capped by the ranker's limit.
	Limit int `json:"limit,omitempty"`
}

// Blank reports whether the query has no searchable text.
func (q *SearchQuery) Blank() bool {
	return q == nil || strings.TrimSpace(q.Query) == ""
}

// Normalize trims surrounding whitespace and clamps a negative limit to zero.
func (q *SearchQuery) Normalize() {
	q.Query = strings.TrimSpace(q.Query)
	if q.Limit < 0 {
		q.Limit = 0
	}
}
