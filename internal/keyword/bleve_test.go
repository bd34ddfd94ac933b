package keyword

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/tenpo/internal/models"
)

func newTestIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex(filepath.Join(t.TempDir(), "products.bleve"))
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func catalog() []*models.Product {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	shirts := &models.Category{ID: "c1", Name: "Shirts"}
	return []*models.Product{
		{ID: "1", Name: "Red Shirt", Category: shirts, Active: true, CreatedAt: base},
		{ID: "2", Name: "Blue Jeans", Description: "Pairs well with a shirt", Active: true, CreatedAt: base.Add(time.Minute)},
		{ID: "3", Name: "Running Shoe", Category: &models.Category{Name: "Shirtless sports"}, Active: true, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "4", Name: "Old Shirt", Category: shirts, Active: false, CreatedAt: base.Add(3 * time.Minute)},
		{ID: "5", Name: "Star*Light Lamp", Active: true, CreatedAt: base.Add(4 * time.Minute)},
		{ID: "6", Name: "StarXLight Lamp", Active: true, CreatedAt: base.Add(5 * time.Minute)},
	}
}

func TestBleveIndex_FindIDs(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	if err := idx.IndexBatch(ctx, catalog()); err != nil {
		t.Fatalf("IndexBatch: %v", err)
	}

	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{"name description and category", "shirt", 12, []string{"1", "2", "3"}},
		{"case-insensitive", "SHIRT", 12, []string{"1", "2", "3"}},
		{"limit keeps creation order", "shirt", 2, []string{"1", "2"}},
		{"multi-word substring", "red sh", 12, []string{"1"}},
		{"wildcard is literal", "r*l", 12, []string{"5"}},
		{"question mark is literal", "r?l", 12, nil},
		{"no match", "hat", 12, nil},
		{"empty query", "", 12, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idx.FindIDs(ctx, tt.query, tt.limit)
			if err != nil {
				t.Fatalf("FindIDs: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestBleveIndex_FindIDs_MultiLineDescription(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	p := &models.Product{
		ID:          "m1",
		Name:        "Plain Tee",
		Description: "Soft fabric.\nMade of organic cotton.\r\nMachine washable.",
		Active:      true,
		CreatedAt:   time.Now(),
	}
	if err := idx.Index(ctx, p); err != nil {
		t.Fatalf("Index: %v", err)
	}

	for _, q := range []string{"cotton", "soft", "washable", "fabric.\nmade"} {
		ids, err := idx.FindIDs(ctx, q, 12)
		if err != nil {
			t.Fatalf("FindIDs(%q): %v", q, err)
		}
		if len(ids) != 1 || ids[0] != "m1" {
			t.Errorf("FindIDs(%q) = %v, want [m1]", q, ids)
		}
	}
}

func TestBleveIndex_UpdateAndDelete(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	p := &models.Product{ID: "p1", Name: "Green Hat", Active: true, CreatedAt: time.Now()}
	if err := idx.Index(ctx, p); err != nil {
		t.Fatalf("Index: %v", err)
	}

	p.Name = "Green Cap"
	if err := idx.Index(ctx, p); err != nil {
		t.Fatalf("Index update: %v", err)
	}
	if ids, _ := idx.FindIDs(ctx, "hat", 12); len(ids) != 0 {
		t.Errorf("old name should not match after update: %v", ids)
	}
	if ids, _ := idx.FindIDs(ctx, "cap", 12); len(ids) != 1 {
		t.Errorf("new name should match: %v", ids)
	}

	n, err := idx.DocCount()
	if err != nil || n != 1 {
		t.Errorf("DocCount = %d, %v; want 1", n, err)
	}

	if err := idx.Delete(ctx, "p1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ids, _ := idx.FindIDs(ctx, "cap", 12); len(ids) != 0 {
		t.Errorf("deleted product still found: %v", ids)
	}
}

func TestNewBleveIndex_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.bleve")
	idx, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := idx.Index(ctx, &models.Product{ID: "p1", Name: "Lamp", Active: true, CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}

	idx, err = NewBleveIndex(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()
	ids, err := idx.FindIDs(ctx, "lamp", 12)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "p1" {
		t.Errorf("ids after reopen = %v", ids)
	}
}
