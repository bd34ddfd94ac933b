package models

// MatchType is the coarse relevance tier shown next to a result.
type MatchType string

const (
	// MatchExact is assigned to scores at or above the exact threshold.
	MatchExact MatchType = "exact"
	// MatchPartial is assigned to scores between the partial and exact thresholds.
	MatchPartial MatchType = "partial"
	// MatchFuzzy is the low-score catch-all tier, not only Levenshtein hits.
	MatchFuzzy MatchType = "fuzzy"
)

// Field names reported in ScoredProduct.MatchedOn, in reporting order.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldCategory    = "category"
)

// UncategorizedLabel is the aggregate bucket for products without a category.
const UncategorizedLabel = "Uncategorized"

// ScoredProduct is a product annotated with its relevance for one query.
type ScoredProduct struct {
	Product
	RelevanceScore int       `json:"relevance_score"`
	MatchType      MatchType `json:"match_type"`
	MatchedOn      []string  `json:"matched_on"`
}

// CategoryCount is the number of candidates that fell into one category.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// SearchResponse is the response for a search request.
// Query and QueryTime are filled in by the engine, not the ranker.
type SearchResponse struct {
	Products    []*ScoredProduct `json:"products"`
	Suggestions []string         `json:"suggestions"`
	Categories  []CategoryCount  `json:"categories"`
	Message     string           `json:"message"`
	Query       string           `json:"query,omitempty"`
	QueryTime   int64            `json:"query_time_ms,omitempty"`
}

// NewEmptyResponse returns a response with non-nil empty collections and the given message.
func NewEmptyResponse(message string) *SearchResponse {
	return &SearchResponse{
		Products:    []*ScoredProduct{},
		Suggestions: []string{},
		Categories:  []CategoryCount{},
		Message:     message,
	}
}
