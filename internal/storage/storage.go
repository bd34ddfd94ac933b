// Package storage defines the persistence interface for products and categories.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hyperjump/tenpo/internal/models"
)

// ErrNotFound is returned (wrapped) when a product or category does not exist.
var ErrNotFound = errors.New("not found")

// SourceState records what was last imported from a catalog file.
type SourceState struct {
	Path     string
	ModTime  int64
	Size     int64
	Products int
}

// Storage defines product and category persistence operations.
type Storage interface {
	// Product operations
	UpsertProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) ([]*models.Product, error)
	ListProducts(ctx context.Context, offset, limit int) ([]*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	// Catalog source bookkeeping
	ListProductIDsBySource(ctx context.Context, source string) ([]string, error)
	SourceState(ctx context.Context, source string) (*SourceState, error)
	MarkSource(ctx context.Context, state *SourceState) error
	DeleteSource(ctx context.Context, source string) error

	// Category operations
	EnsureCategory(ctx context.Context, name string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]*models.CategoryStats, error)
	DeleteCategory(ctx context.Context, id string) error

	// Search
	FindCandidates(ctx context.Context, query string, limit int) ([]*models.Product, error)

	// Stats
	CountProducts(ctx context.Context) (int64, error)
	CountCategories(ctx context.Context) (int64, error)

	Close() error
}

// timestamps sets CreatedAt on first write and always bumps UpdatedAt.
func timestamps(p *models.Product, now time.Time) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}
