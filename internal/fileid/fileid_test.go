package fileid

import (
	"strings"
	"testing"
)

func TestProductID(t *testing.T) {
	id1 := ProductID("/catalogs/shoes.yaml", "sku:RS-1")
	id2 := ProductID("/catalogs/shoes.yaml", "sku:RS-1")
	if id1 != id2 {
		t.Errorf("same entry should give same ID: %q vs %q", id1, id2)
	}
	if !strings.HasPrefix(id1, prefix) || len(id1) != len(prefix)+32 {
		t.Errorf("unexpected ID shape: %q", id1)
	}
	if !IsCatalogID(id1) {
		t.Error("IsCatalogID should accept generated IDs")
	}
	if IsCatalogID("3f0c2a8e-uuid") {
		t.Error("IsCatalogID should reject other IDs")
	}
}

func TestProductID_distinct(t *testing.T) {
	base := ProductID("/catalogs/shoes.yaml", "sku:RS-1")
	others := []string{
		ProductID("/catalogs/shoes.yaml", "sku:RS-2"),
		ProductID("/catalogs/boots.yaml", "sku:RS-1"),
		// the separator keeps path and key from running together
		ProductID("/catalogs/shoes.yamls", "ku:RS-1"),
	}
	for _, id := range others {
		if id == base {
			t.Errorf("expected distinct IDs, got %q twice", id)
		}
	}
}

func TestProductID_normalized(t *testing.T) {
	id1 := ProductID("/catalogs/shoes.yaml", "row:1")
	id2 := ProductID("/catalogs/./shoes.yaml", "row:1")
	id3 := ProductID("/catalogs//shoes.yaml", "row:1")
	if id1 != id2 || id1 != id3 {
		t.Errorf("cleaned paths should match: %q %q %q", id1, id2, id3)
	}
}

func TestEntryKey(t *testing.T) {
	tests := []struct {
		sku  string
		pos  int
		want string
	}{
		{"RS-1", 3, "sku:RS-1"},
		{"  RS-1 ", 3, "sku:RS-1"},
		{"", 3, "row:3"},
		{"   ", 7, "row:7"},
	}
	for _, tt := range tests {
		if got := EntryKey(tt.sku, tt.pos); got != tt.want {
			t.Errorf("EntryKey(%q, %d) = %q, want %q", tt.sku, tt.pos, got, tt.want)
		}
	}
}
