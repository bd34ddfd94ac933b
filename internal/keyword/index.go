// Package keyword indexes products for substring candidate lookup.
package keyword

import (
	"context"

	"github.com/hyperjump/tenpo/internal/models"
)

// ProductIndex finds active products whose name, description, or category name
// contains a query string.
type ProductIndex interface {
	Index(ctx context.Context, p *models.Product) error
	IndexBatch(ctx context.Context, products []*models.Product) error
	Delete(ctx context.Context, id string) error
	// FindIDs returns up to limit matching product IDs, oldest first.
	FindIDs(ctx context.Context, query string, limit int) ([]string, error)
	// DocCount returns the total number of products in the index.
	DocCount() (uint64, error)
	Close() error
}
