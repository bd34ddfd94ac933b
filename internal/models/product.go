// Package models defines core data structures for products, categories, queries, and search results.
package models

import (
	"errors"
	"strings"
	"time"
)

// ErrEmptyName is returned when a product or category is submitted without a name.
var ErrEmptyName = errors.New("name cannot be empty")

// ErrNegativePrice is returned when a product price is below zero.
var ErrNegativePrice = errors.New("price cannot be negative")

// Category groups products on the storefront.
type Category struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Product is a catalog item. Description and Category are optional.
type Product struct {
	ID          string    `json:"id" db:"id"`
	SKU         string    `json:"sku,omitempty" db:"sku"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	Category    *Category `json:"category,omitempty" db:"-"`
	PriceCents  int64     `json:"price_cents" db:"price_cents"`
	Active      bool      `json:"active" db:"active"`
	Source      string    `json:"source,omitempty" db:"source_path"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CategoryName returns the category name, or "" when the product is uncategorized.
func (p *Product) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}

// ProductInput is the input for creating or updating a product.
// Category is referenced by name and created on demand.
type ProductInput struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	SKU         string `json:"sku,omitempty" yaml:"sku,omitempty"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// DescriptionFile is a path (relative to the catalog file) whose extracted text
	// becomes the description. Only honored by catalog imports.
	DescriptionFile string `json:"description_file,omitempty" yaml:"description_file,omitempty"`
	Category        string `json:"category,omitempty" yaml:"category,omitempty"`
	PriceCents      int64  `json:"price_cents,omitempty" yaml:"price_cents,omitempty"`
	Active          *bool  `json:"active,omitempty" yaml:"active,omitempty"`
}

// Validate trims the input and checks required fields.
func (in *ProductInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.SKU = strings.TrimSpace(in.SKU)
	in.Category = strings.TrimSpace(in.Category)
	if in.Name == "" {
		return ErrEmptyName
	}
	if in.PriceCents < 0 {
		return ErrNegativePrice
	}
	return nil
}

// IsActive reports whether the product should be visible; unset means active.
func (in *ProductInput) IsActive() bool {
	return in.Active == nil || *in.Active
}

// CategoryStats is a category together with the number of active products in it.
type CategoryStats struct {
	Category
	ProductCount int `json:"product_count"`
}
