// Package indexer writes products into storage and the keyword index, and imports catalog files.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/hyperjump/tenpo/internal/extract"
	"github.com/hyperjump/tenpo/internal/fileid"
	"github.com/hyperjump/tenpo/internal/keyword"
	"github.com/hyperjump/tenpo/internal/models"
	"github.com/hyperjump/tenpo/internal/storage"
)

const reindexPageSize = 500

// Indexer keeps storage and the keyword index in step.
type Indexer struct {
	storage      storage.Storage
	keywordIndex keyword.ProductIndex // optional
	extractor    *extract.Extractor
	workers      int
	onChange     func()
	logger       *zap.Logger // optional; when set, logs debug events
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (file imported, product deleted, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithWorkers sets how many description files are extracted concurrently.
func WithWorkers(n int) IndexerOption {
	return func(idx *Indexer) { idx.workers = n }
}

// WithOnChange registers a callback run after every catalog write, e.g. to purge
// a search cache.
func WithOnChange(fn func()) IndexerOption {
	return func(idx *Indexer) { idx.onChange = fn }
}

// NewIndexer creates an indexer. keywordIndex and extractor may be nil; without an
// extractor, description files are read as plain text.
func NewIndexer(store storage.Storage, keywordIndex keyword.ProductIndex, extractor *extract.Extractor, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		storage:      store,
		keywordIndex: keywordIndex,
		extractor:    extractor,
		workers:      4,
	}
	for _, opt := range opts {
		opt(idx)
	}
	if idx.workers <= 0 {
		idx.workers = 1
	}
	return idx
}

func (idx *Indexer) debug(msg string, fields ...zap.Field) {
	if idx.logger != nil {
		idx.logger.Debug(msg, fields...)
	}
}

func (idx *Indexer) warn(msg string, fields ...zap.Field) {
	if idx.logger != nil {
		idx.logger.Warn(msg, fields...)
	}
}

func (idx *Indexer) changed() {
	if idx.onChange != nil {
		idx.onChange()
	}
}

// IndexProduct validates input and creates or replaces the product. A missing ID
// gets a new UUID; the category is created on demand.
func (idx *Indexer) IndexProduct(ctx context.Context, input *models.ProductInput) (*models.Product, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if input.ID == "" {
		input.ID = uuid.New().String()
	}
	p, err := idx.buildProduct(ctx, input.ID, input, "")
	if err != nil {
		return nil, err
	}
	if err := idx.storage.UpsertProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to store product: %w", err)
	}
	if idx.keywordIndex != nil {
		if err := idx.keywordIndex.Index(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to index product: %w", err)
		}
	}
	idx.changed()
	idx.debug("indexer product indexed", zap.String("id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// UpdateProduct replaces an existing product. It returns storage.ErrNotFound
// (wrapped) when id does not exist.
func (idx *Indexer) UpdateProduct(ctx context.Context, id string, input *models.ProductInput) (*models.Product, error) {
	if _, err := idx.storage.GetProduct(ctx, id); err != nil {
		return nil, err
	}
	input.ID = id
	return idx.IndexProduct(ctx, input)
}

// buildProduct turns input into a Product, keeping the creation time (and, for
// manual edits, the catalog source) of an existing product with the same ID.
func (idx *Indexer) buildProduct(ctx context.Context, id string, input *models.ProductInput, source string) (*models.Product, error) {
	p := &models.Product{
		ID:          id,
		SKU:         input.SKU,
		Name:        input.Name,
		Description: strings.TrimSpace(input.Description),
		PriceCents:  input.PriceCents,
		Active:      input.IsActive(),
		Source:      source,
	}
	if input.Category != "" {
		c, err := idx.storage.EnsureCategory(ctx, input.Category)
		if err != nil {
			return nil, err
		}
		p.Category = c
	}
	existing, err := idx.storage.GetProduct(ctx, id)
	switch {
	case err == nil:
		p.CreatedAt = existing.CreatedAt
		if source == "" {
			p.Source = existing.Source
		}
	case !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}
	return p, nil
}

// DeleteProduct removes a product from storage and the keyword index.
func (idx *Indexer) DeleteProduct(ctx context.Context, id string) error {
	idx.debug("indexer deleting product", zap.String("id", id))
	if err := idx.storage.DeleteProduct(ctx, id); err != nil {
		return err
	}
	if idx.keywordIndex != nil {
		if err := idx.keywordIndex.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete from keyword index: %w", err)
		}
	}
	idx.changed()
	return nil
}

// DeleteCategory removes a category; its products stay, uncategorized, and are
// re-indexed so category lookups no longer match them.
func (idx *Indexer) DeleteCategory(ctx context.Context, id string) error {
	var affected []string
	if idx.keywordIndex != nil {
		err := idx.eachProduct(ctx, func(batch []*models.Product) error {
			for _, p := range batch {
				if p.Category != nil && p.Category.ID == id {
					affected = append(affected, p.ID)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	if err := idx.storage.DeleteCategory(ctx, id); err != nil {
		return err
	}
	if len(affected) > 0 {
		products, err := idx.storage.GetProductsByIDs(ctx, affected)
		if err != nil {
			return err
		}
		if err := idx.keywordIndex.IndexBatch(ctx, products); err != nil {
			return fmt.Errorf("failed to re-index products: %w", err)
		}
	}
	idx.changed()
	idx.debug("indexer category deleted", zap.String("id", id), zap.Int("products", len(affected)))
	return nil
}

// Reindex writes every stored product to the keyword index, e.g. after the index
// directory was removed. Returns the number of products indexed.
func (idx *Indexer) Reindex(ctx context.Context) (int, error) {
	if idx.keywordIndex == nil {
		return 0, nil
	}
	n := 0
	err := idx.eachProduct(ctx, func(batch []*models.Product) error {
		if err := idx.keywordIndex.IndexBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to index batch: %w", err)
		}
		n += len(batch)
		return nil
	})
	if err != nil {
		return n, err
	}
	idx.changed()
	return n, nil
}

func (idx *Indexer) eachProduct(ctx context.Context, fn func([]*models.Product) error) error {
	for offset := 0; ; offset += reindexPageSize {
		batch, err := idx.storage.ListProducts(ctx, offset, reindexPageSize)
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		if len(batch) > 0 {
			if err := fn(batch); err != nil {
				return err
			}
		}
		if len(batch) < reindexPageSize {
			return nil
		}
	}
}

// ImportStats summarizes one catalog file import.
type ImportStats struct {
	Path     string `json:"path"`
	Imported int    `json:"imported"`
	Removed  int    `json:"removed"`
	Invalid  int    `json:"invalid"`
	Skipped  bool   `json:"skipped"`
}

// IndexFile imports the catalog at path. See ImportFile.
func (idx *Indexer) IndexFile(ctx context.Context, path string, allowedExts []string) error {
	_, err := idx.ImportFile(ctx, path, allowedExts)
	return err
}

// ImportFile imports the catalog file at path. Product IDs derive from the file
// path and each entry's SKU (or position), so re-imports update in place and
// entries dropped from the file are deleted. A file whose mtime and size match the
// last import is skipped. If allowedExts is non-empty, the extension must be in it.
// Entries that fail validation are logged and skipped.
func (idx *Indexer) ImportFile(ctx context.Context, path string, allowedExts []string) (*ImportStats, error) {
	idx.debug("indexer importing catalog", zap.String("path", path))
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if !extensionAllowed(ext, CatalogExtensions) {
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return nil, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}

	stats := &ImportStats{Path: absPath}
	state, err := idx.storage.SourceState(ctx, absPath)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if state != nil && state.ModTime == info.ModTime().UnixNano() && state.Size == info.Size() {
		idx.debug("indexer skipping unchanged catalog", zap.String("path", absPath))
		stats.Skipped = true
		return stats, nil
	}

	entries, err := readCatalog(absPath)
	if err != nil {
		return nil, err
	}
	idx.resolveDescriptions(absPath, entries)

	products := make([]*models.Product, 0, len(entries))
	seen := make(map[string]int, len(entries))
	for i := range entries {
		in := &entries[i]
		if err := in.Validate(); err != nil {
			stats.Invalid++
			idx.warn("indexer skipping invalid catalog entry",
				zap.String("path", absPath), zap.Int("position", i+1), zap.Error(err))
			continue
		}
		id := in.ID
		if id == "" {
			id = fileid.ProductID(absPath, fileid.EntryKey(in.SKU, i+1))
		}
		p, err := idx.buildProduct(ctx, id, in, absPath)
		if err != nil {
			return nil, err
		}
		if err := idx.storage.UpsertProduct(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to store product: %w", err)
		}
		if j, dup := seen[id]; dup {
			products[j] = p
			continue
		}
		seen[id] = len(products)
		products = append(products, p)
	}
	stats.Imported = len(products)

	previous, err := idx.storage.ListProductIDsBySource(ctx, absPath)
	if err != nil {
		return nil, err
	}
	for _, id := range previous {
		if _, ok := seen[id]; ok {
			continue
		}
		if err := idx.storage.DeleteProduct(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		if idx.keywordIndex != nil {
			if err := idx.keywordIndex.Delete(ctx, id); err != nil {
				return nil, fmt.Errorf("failed to delete from keyword index: %w", err)
			}
		}
		stats.Removed++
	}

	if idx.keywordIndex != nil && len(products) > 0 {
		if err := idx.keywordIndex.IndexBatch(ctx, products); err != nil {
			return nil, fmt.Errorf("failed to index products: %w", err)
		}
	}
	err = idx.storage.MarkSource(ctx, &storage.SourceState{
		Path:     absPath,
		ModTime:  info.ModTime().UnixNano(),
		Size:     info.Size(),
		Products: stats.Imported,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record catalog import: %w", err)
	}
	idx.changed()
	idx.debug("indexer catalog imported", zap.String("path", absPath),
		zap.Int("imported", stats.Imported), zap.Int("removed", stats.Removed), zap.Int("invalid", stats.Invalid))
	return stats, nil
}

// resolveDescriptions fills empty descriptions from description_file entries,
// extracting files concurrently. Unreadable files are logged and leave the
// description empty.
func (idx *Indexer) resolveDescriptions(catalogPath string, entries []models.ProductInput) {
	pool, err := ants.NewPool(idx.workers)
	if err != nil {
		idx.warn("indexer extraction pool unavailable", zap.Error(err))
		return
	}
	defer pool.Release()

	baseDir := filepath.Dir(catalogPath)
	var wg sync.WaitGroup
	for i := range entries {
		in := &entries[i]
		if in.DescriptionFile == "" || strings.TrimSpace(in.Description) != "" {
			continue
		}
		file := in.DescriptionFile
		if !filepath.IsAbs(file) {
			file = filepath.Join(baseDir, file)
		}
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			text, err := idx.extractContent(file)
			if err != nil {
				idx.warn("indexer description extraction failed", zap.String("file", file), zap.Error(err))
				return
			}
			in.Description = text
		})
		if submitErr != nil {
			wg.Done()
			idx.warn("indexer description extraction not scheduled", zap.String("file", file), zap.Error(submitErr))
		}
	}
	wg.Wait()
}

func (idx *Indexer) extractContent(path string) (string, error) {
	if idx.extractor != nil {
		return idx.extractor.Extract(path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// IndexDirectory walks dir recursively and imports each regular catalog file whose
// extension is in allowedExts (if non-empty; otherwise every catalog format).
// Returns the number of files imported and the first error encountered, if any.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string, allowedExts []string) (n int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	if len(allowedExts) == 0 {
		allowedExts = CatalogExtensions
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !extensionAllowed(ext, allowedExts) || !extensionAllowed(ext, CatalogExtensions) {
			return nil
		}
		// Resolve symlinks so we only import regular files
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		if importErr := idx.IndexFile(ctx, path, allowedExts); importErr != nil {
			return importErr
		}
		n++
		return nil
	})
	return n, err
}

// DeleteSource removes every product imported from the catalog at path.
func (idx *Indexer) DeleteSource(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	ids, err := idx.storage.ListProductIDsBySource(ctx, absPath)
	if err != nil {
		return err
	}
	if err := idx.storage.DeleteSource(ctx, absPath); err != nil {
		return fmt.Errorf("failed to delete catalog products: %w", err)
	}
	if idx.keywordIndex != nil {
		for _, id := range ids {
			if err := idx.keywordIndex.Delete(ctx, id); err != nil {
				return fmt.Errorf("failed to delete from keyword index: %w", err)
			}
		}
	}
	idx.changed()
	idx.debug("indexer catalog removed", zap.String("path", absPath), zap.Int("products", len(ids)))
	return nil
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
