// Package search runs storefront product searches: candidate lookup, memoization, and ranking.
package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/tenpo/internal/cache"
	"github.com/hyperjump/tenpo/internal/config"
	"github.com/hyperjump/tenpo/internal/models"
	"github.com/hyperjump/tenpo/internal/ranking"
	"github.com/hyperjump/tenpo/pkg/utils"
)

// ErrSearchFailed is returned when candidates cannot be loaded. The underlying
// cause is logged, not returned.
var ErrSearchFailed = errors.New("search failed")

// CategoryLister lists categories with their active product counts.
type CategoryLister interface {
	ListCategories(ctx context.Context) ([]*models.CategoryStats, error)
}

// Engine fetches candidates for a query and ranks them.
type Engine struct {
	source         CandidateSource
	categories     CategoryLister
	ranker         *ranking.Ranker
	cache          *cache.Cache[[]*models.Product]
	candidateLimit int
	logger         *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger for lookup failures and cache activity.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a search engine. cfg may be nil for defaults.
func NewEngine(source CandidateSource, categories CategoryLister, cfg *config.SearchConfig, opts ...EngineOption) *Engine {
	if cfg == nil {
		cfg = &config.SearchConfig{}
	}
	rankingCfg := cfg.Ranking
	limit := cfg.CandidateLimit
	if limit <= 0 {
		limit = 12
	}
	e := &Engine{
		source:         source,
		categories:     categories,
		ranker:         ranking.NewRanker(&rankingCfg),
		cache:          cache.New[[]*models.Product](cfg.CacheSize, cfg.CacheTTL),
		candidateLimit: limit,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = utils.OrNop(e.logger)
	return e
}

// Search ranks the candidates for query. A blank query returns the empty
// response without touching the data store.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	start := time.Now()
	if query.Blank() {
		return e.ranker.Search("", nil), nil
	}
	q := *query
	q.Normalize()

	candidates, err := e.findCandidates(ctx, strings.ToLower(q.Query))
	if err != nil {
		e.logger.Error("candidate lookup failed",
			zap.String("query", q.Query),
			zap.String("source", e.source.Name()),
			zap.Error(err))
		return nil, ErrSearchFailed
	}

	resp := e.ranker.SearchLimit(q.Query, candidates, q.Limit)
	resp.Query = q.Query
	resp.QueryTime = time.Since(start).Milliseconds()
	return resp, nil
}

func (e *Engine) findCandidates(ctx context.Context, q string) ([]*models.Product, error) {
	key := "candidates\x00" + e.source.Name() + "\x00" + q + "\x00" + strconv.Itoa(e.candidateLimit)
	if cached, ok := e.cache.Get(key); ok {
		e.logger.Debug("candidate cache hit", zap.String("query", q))
		return cached, nil
	}
	candidates, err := e.source.FindCandidates(ctx, q, e.candidateLimit)
	if err != nil {
		return nil, err
	}
	e.cache.Set(key, candidates)
	return candidates, nil
}

// Categories returns all categories with their active product counts.
func (e *Engine) Categories(ctx context.Context) ([]*models.CategoryStats, error) {
	stats, err := e.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return stats, nil
}

// InvalidateCache drops every memoized candidate set. Call after catalog writes.
func (e *Engine) InvalidateCache() {
	e.cache.Purge()
}

// SourceName reports which candidate source answers lookups.
func (e *Engine) SourceName() string {
	return e.source.Name()
}

// RankingConfig returns the effective ranking configuration.
func (e *Engine) RankingConfig() ranking.RankingConfig {
	return e.ranker.Config()
}
