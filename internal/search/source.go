package search

import (
	"context"
	"fmt"

	"github.com/hyperjump/tenpo/internal/config"
	"github.com/hyperjump/tenpo/internal/keyword"
	"github.com/hyperjump/tenpo/internal/models"
	"github.com/hyperjump/tenpo/internal/storage"
)

// CandidateSource finds up to limit active products whose name, description, or
// category name contains query (case-insensitive). Each product carries its category.
type CandidateSource interface {
	Name() string
	FindCandidates(ctx context.Context, query string, limit int) ([]*models.Product, error)
}

// StoreSource answers candidate lookups with a SQL substring scan.
type StoreSource struct {
	store storage.Storage
}

// NewStoreSource returns a CandidateSource backed by store.
func NewStoreSource(store storage.Storage) *StoreSource {
	return &StoreSource{store: store}
}

// Name implements CandidateSource.
func (s *StoreSource) Name() string { return config.SourceSQLite }

// FindCandidates implements CandidateSource.
func (s *StoreSource) FindCandidates(ctx context.Context, query string, limit int) ([]*models.Product, error) {
	return s.store.FindCandidates(ctx, query, limit)
}

// IndexSource looks candidates up in the keyword index and loads them from storage.
type IndexSource struct {
	index keyword.ProductIndex
	store storage.Storage
}

// NewIndexSource returns a CandidateSource backed by index, hydrated from store.
func NewIndexSource(index keyword.ProductIndex, store storage.Storage) *IndexSource {
	return &IndexSource{index: index, store: store}
}

// Name implements CandidateSource.
func (s *IndexSource) Name() string { return config.SourceBleve }

// FindCandidates implements CandidateSource. Products the index knows but storage
// no longer has are dropped, as are products deactivated since they were indexed.
func (s *IndexSource) FindCandidates(ctx context.Context, query string, limit int) ([]*models.Product, error) {
	ids, err := s.index.FindIDs(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	products, err := s.store.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	active := products[:0]
	for _, p := range products {
		if p.Active {
			active = append(active, p)
		}
	}
	return active, nil
}

// NewCandidateSource returns the source named by storage.candidate_source.
func NewCandidateSource(name string, store storage.Storage, index keyword.ProductIndex) (CandidateSource, error) {
	switch name {
	case "", config.SourceSQLite:
		return NewStoreSource(store), nil
	case config.SourceBleve:
		if index == nil {
			return nil, fmt.Errorf("candidate source %q needs a keyword index", name)
		}
		return NewIndexSource(index, store), nil
	default:
		return nil, fmt.Errorf("unknown candidate source %q", name)
	}
}
