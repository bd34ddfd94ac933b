// Package ranking scores, classifies, and orders product search candidates.
package ranking

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hyperjump/tenpo/internal/models"
)

// NoQueryMessage is returned for blank queries.
const NoQueryMessage = "No search query provided"

// NoResultsMessage is returned when the candidate set is empty.
const NoResultsMessage = "No products found"

// Ranker turns a candidate set into a SearchResponse. It holds no mutable state and
// is safe for concurrent use.
type Ranker struct {
	config *RankingConfig
}

// NewRanker creates a Ranker. A nil config uses DefaultRankingConfig.
// Negative page sizes fall back to the defaults.
func NewRanker(config *RankingConfig) *Ranker {
	if config == nil {
		config = DefaultRankingConfig()
	}
	config.ApplyDefaults()
	defaults := DefaultRankingConfig()
	if config.ResultLimit < 0 {
		config.ResultLimit = defaults.ResultLimit
	}
	if config.SuggestionLimit < 0 {
		config.SuggestionLimit = defaults.SuggestionLimit
	}
	return &Ranker{config: config}
}

// Config returns the effective configuration.
func (r *Ranker) Config() RankingConfig {
	return *r.config
}

// Search scores every candidate against query, keeps the top ResultLimit by score,
// and derives category counts and suggestions from the full candidate set.
// Candidates are not re-filtered.
func (r *Ranker) Search(query string, candidates []*models.Product) *models.SearchResponse {
	return r.SearchLimit(query, candidates, 0)
}

// SearchLimit is Search with a caller-chosen page size. limit <= 0 or above
// ResultLimit falls back to ResultLimit.
func (r *Ranker) SearchLimit(query string, candidates []*models.Product, limit int) *models.SearchResponse {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return models.NewEmptyResponse(NoQueryMessage)
	}
	if limit <= 0 || limit > r.config.ResultLimit {
		limit = r.config.ResultLimit
	}

	scored := make([]*models.ScoredProduct, 0, len(candidates))
	for _, p := range candidates {
		if p == nil {
			continue
		}
		score := r.Score(q, p.Name, p.Description)
		scored = append(scored, &models.ScoredProduct{
			Product:        *p,
			RelevanceScore: score,
			MatchType:      r.Classify(score),
			MatchedOn:      MatchedOn(q, p),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	resp := models.NewEmptyResponse(resultMessage(len(scored)))
	resp.Products = scored
	resp.Categories = AggregateCategories(candidates)
	resp.Suggestions = Suggestions(q, candidates, r.config.SuggestionLimit)
	return resp
}

func resultMessage(n int) string {
	switch n {
	case 0:
		return NoResultsMessage
	case 1:
		return "Found 1 product"
	default:
		return fmt.Sprintf("Found %d products", n)
	}
}

// Score returns the relevance of a product with the given name and description.
// Matching is case-insensitive; an empty description never matches.
//
// Word scoring compares every query word with every name word, so repeated or
// overlapping words add up.
func (r *Ranker) Score(query, name, description string) int {
	q := strings.ToLower(query)
	n := strings.ToLower(name)
	d := strings.ToLower(description)
	c := r.config

	score := 0
	if n == q {
		score += c.ExactNameScore
	} else if strings.Contains(n, q) {
		score += c.NameSubstringScore
	}

	nameWords := strings.Split(n, " ")
	for _, qw := range strings.Split(q, " ") {
		for _, nw := range nameWords {
			if qw == nw {
				score += c.WordExactScore
			} else if strings.Contains(nw, qw) {
				score += c.WordPartialScore
			}
		}
	}

	if d != "" && strings.Contains(d, q) {
		score += c.DescriptionScore
	}

	if dist := LevenshteinDistance(n, q); dist <= c.FuzzyMaxDistance {
		score += c.FuzzyBaseScore - dist*c.FuzzyStepPenalty
	}

	if score < 0 {
		return 0
	}
	return score
}

// Classify maps a score to its match tier.
func (r *Ranker) Classify(score int) models.MatchType {
	switch {
	case score >= r.config.ExactThreshold:
		return models.MatchExact
	case score >= r.config.PartialThreshold:
		return models.MatchPartial
	default:
		return models.MatchFuzzy
	}
}

// MatchedOn lists which of name, description, and category name contain query
// (case-insensitive), in that order. Absent fields are never reported.
func MatchedOn(query string, p *models.Product) []string {
	q := strings.ToLower(query)
	fields := make([]string, 0, 3)
	if strings.Contains(strings.ToLower(p.Name), q) {
		fields = append(fields, models.FieldName)
	}
	if p.Description != "" && strings.Contains(strings.ToLower(p.Description), q) {
		fields = append(fields, models.FieldDescription)
	}
	if p.Category != nil && strings.Contains(strings.ToLower(p.Category.Name), q) {
		fields = append(fields, models.FieldCategory)
	}
	return fields
}

// AggregateCategories counts candidates per category name in first-seen order.
// Products without a category (or with an empty name) count as UncategorizedLabel.
func AggregateCategories(candidates []*models.Product) []models.CategoryCount {
	counts := make([]models.CategoryCount, 0)
	index := make(map[string]int)
	for _, p := range candidates {
		if p == nil {
			continue
		}
		name := p.CategoryName()
		if name == "" {
			name = models.UncategorizedLabel
		}
		if i, ok := index[name]; ok {
			counts[i].Count++
			continue
		}
		index[name] = len(counts)
		counts = append(counts, models.CategoryCount{Name: name, Count: 1})
	}
	return counts
}

// Suggestions returns up to limit distinct words from candidate names that contain
// query but are not equal to it (both compared lower-cased), in first-seen order.
// Words keep their original casing, so "Shirt" and "shirt" are distinct.
func Suggestions(query string, candidates []*models.Product, limit int) []string {
	q := strings.ToLower(query)
	if limit <= 0 {
		return []string{}
	}
	out := make([]string, 0, limit)
	seen := make(map[string]struct{})
	for _, p := range candidates {
		if p == nil {
			continue
		}
		for _, word := range strings.Split(p.Name, " ") {
			if len(out) >= limit {
				return out
			}
			lw := strings.ToLower(word)
			if lw == q || !strings.Contains(lw, q) {
				continue
			}
			if _, dup := seen[word]; dup {
				continue
			}
			seen[word] = struct{}{}
			out = append(out, word)
		}
	}
	return out
}
