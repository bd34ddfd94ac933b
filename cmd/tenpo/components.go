package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/tenpo/internal/config"
	"github.com/hyperjump/tenpo/internal/extract"
	"github.com/hyperjump/tenpo/internal/indexer"
	"github.com/hyperjump/tenpo/internal/keyword"
	"github.com/hyperjump/tenpo/internal/search"
	"github.com/hyperjump/tenpo/internal/storage"
)

// Components holds initialized services.
type Components struct {
	Storage      storage.Storage
	KeywordIndex *keyword.BleveIndex
	Engine       *search.Engine
	Indexer      *indexer.Indexer
}

// Close releases the keyword index and the database.
func (c *Components) Close() {
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Storage: store}

	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}
	c.KeywordIndex = keywordIndex

	source, err := search.NewCandidateSource(cfg.Storage.CandidateSource, store, keywordIndex)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Engine = search.NewEngine(source, store, &cfg.Search, search.WithLogger(logger))

	idxOpts := []indexer.IndexerOption{
		indexer.WithWorkers(cfg.Import.Workers),
		indexer.WithOnChange(c.Engine.InvalidateCache),
	}
	if debug {
		idxOpts = append(idxOpts, indexer.WithLogger(logger))
	}
	c.Indexer = indexer.NewIndexer(store, keywordIndex, extract.NewExtractor(), idxOpts...)

	if err := rebuildKeywordIndex(ctx, c, logger); err != nil {
		c.Close()
		return nil, err
	}
	logger.Debug("components initialized",
		zap.String("database_path", cfg.Storage.DatabasePath),
		zap.String("bleve_index_path", cfg.Storage.BleveIndexPath),
		zap.String("candidate_source", source.Name()))
	return c, nil
}

// rebuildKeywordIndex repopulates an empty keyword index from the database,
// e.g. after the index directory was deleted.
func rebuildKeywordIndex(ctx context.Context, c *Components, logger *zap.Logger) error {
	docs, err := c.KeywordIndex.DocCount()
	if err != nil {
		return fmt.Errorf("keyword index count: %w", err)
	}
	if docs > 0 {
		return nil
	}
	products, err := c.Storage.CountProducts(ctx)
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if products == 0 {
		return nil
	}
	n, err := c.Indexer.Reindex(ctx)
	if err != nil {
		return fmt.Errorf("rebuild keyword index: %w", err)
	}
	logger.Info("keyword index rebuilt", zap.Int("products", n))
	return nil
}
