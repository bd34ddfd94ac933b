package benchmark

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/hyperjump/tenpo/internal/config"
	"github.com/hyperjump/tenpo/internal/keyword"
	"github.com/hyperjump/tenpo/internal/models"
	"github.com/hyperjump/tenpo/internal/ranking"
	"github.com/hyperjump/tenpo/internal/search"
	"github.com/hyperjump/tenpo/internal/storage"
)

var words = []string{"trail", "road", "rain", "wool", "canvas", "leather", "running", "shoe", "jacket", "tote"}

func catalog(n int) []*models.Product {
	products := make([]*models.Product, n)
	for i := range products {
		products[i] = &models.Product{
			ID:          fmt.Sprintf("p-%d", i),
			Name:        fmt.Sprintf("%s %s %d", words[i%len(words)], words[(i/3)%len(words)], i),
			Description: fmt.Sprintf("a %s for every %s", words[(i/7)%len(words)], words[(i/2)%len(words)]),
			Category:    &models.Category{Name: words[(i/5)%len(words)]},
			Active:      true,
		}
	}
	return products
}

func BenchmarkRankerSearch(b *testing.B) {
	r := ranking.NewRanker(nil)
	candidates := catalog(12)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.Search("shoe", candidates)
	}
}

func BenchmarkRankerScore(b *testing.B) {
	r := ranking.NewRanker(nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.Score("running shoe", "Trail Running Shoe", "lightweight trail running shoe")
	}
}

func BenchmarkLevenshteinDistance(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = ranking.LevenshteinDistance("waterproof rain jacket", "waterprof rian jackt")
	}
}

func benchmarkEngine(b *testing.B, source string) {
	dir := b.TempDir()
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "db.sqlite"))
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()
	index, err := keyword.NewBleveIndex(filepath.Join(dir, "bleve"))
	if err != nil {
		b.Fatal(err)
	}
	defer index.Close()

	ctx := context.Background()
	products := catalog(2000)
	for _, p := range products {
		cat, err := store.EnsureCategory(ctx, p.Category.Name)
		if err != nil {
			b.Fatal(err)
		}
		p.Category = cat
		if err := store.UpsertProduct(ctx, p); err != nil {
			b.Fatal(err)
		}
	}
	if err := index.IndexBatch(ctx, products); err != nil {
		b.Fatal(err)
	}

	src, err := search.NewCandidateSource(source, store, index)
	if err != nil {
		b.Fatal(err)
	}
	// caching off so every iteration hits the candidate source
	engine := search.NewEngine(src, store, &config.SearchConfig{CandidateLimit: 12, CacheTTL: -1})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Search(ctx, &models.SearchQuery{Query: words[i%len(words)]}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEngineSearchSQLite(b *testing.B) { benchmarkEngine(b, config.SourceSQLite) }

func BenchmarkEngineSearchBleve(b *testing.B) { benchmarkEngine(b, config.SourceBleve) }
