package ranking

import "testing"

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		// Identical strings
		{"identical empty", "", "", 0},
		{"identical word", "shirt", "shirt", 0},
		{"identical unicode", "スニーカー", "スニーカー", 0},

		// Empty string cases
		{"empty a", "", "shirt", 5},
		{"empty b", "shirt", "", 5},

		// Single edits
		{"one substitution", "mug", "rug", 1},
		{"one insertion", "shrt", "shirt", 1},
		{"one deletion", "shirt", "shrt", 1},

		// Multiple edits
		{"kitten to sitting", "kitten", "sitting", 3},
		{"name against shorter query", "blue shirt", "shirt", 5},

		// Storefront typos
		{"sneaker to snaeker", "sneaker", "snaeker", 2},
		{"jacket to jackt", "jacket", "jackt", 1},

		// Case is not folded here
		{"case difference", "Shirt", "shirt", 1},

		// Unicode counts runes, not bytes
		{"unicode substitution", "café", "cafe", 1},

		// Transposition costs two edits
		{"transposition", "ab", "ba", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := LevenshteinDistance(tt.a, tt.b)
			if result != tt.expected {
				t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, result, tt.expected)
			}
			if reverse := LevenshteinDistance(tt.b, tt.a); reverse != result {
				t.Errorf("LevenshteinDistance is not symmetric: (%q,%q)=%d, (%q,%q)=%d",
					tt.a, tt.b, result, tt.b, tt.a, reverse)
			}
		})
	}
}

func BenchmarkLevenshteinDistance_Short(b *testing.B) {
	for i := 0; i < b.N; i++ {
		LevenshteinDistance("shirt", "shrt")
	}
}

func BenchmarkLevenshteinDistance_ProductName(b *testing.B) {
	for i := 0; i < b.N; i++ {
		LevenshteinDistance("organic cotton crew neck t-shirt", "cotton crew tshirt")
	}
}
