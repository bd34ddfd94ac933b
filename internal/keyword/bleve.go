package keyword

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/tenpo/internal/models"
)

// lowercaseWhole keeps each field as one lower-cased token, so regexp queries
// behave like a substring match over the whole value.
const lowercaseWhole = "lowercase_whole"

const (
	fieldName        = "name"
	fieldDescription = "description"
	fieldCategory    = "category"
	fieldActive      = "active"
	fieldCreated     = "created"
)

var textFields = []string{fieldName, fieldDescription, fieldCategory}

// BleveIndex implements ProductIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path.
// An existing index is reopened as is; remove the directory after changing the mapping.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	im, err := newMapping()
	if err != nil {
		return nil, err
	}
	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func newMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	err := im.AddCustomAnalyzer(lowercaseWhole, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     single.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register analyzer: %w", err)
	}

	doc := bleve.NewDocumentMapping()
	text := bleve.NewTextFieldMapping()
	text.Analyzer = lowercaseWhole
	text.IncludeTermVectors = false
	for _, f := range textFields {
		doc.AddFieldMappingsAt(f, text)
	}
	doc.AddFieldMappingsAt(fieldActive, bleve.NewBooleanFieldMapping())
	doc.AddFieldMappingsAt(fieldCreated, bleve.NewDateTimeFieldMapping())

	im.DefaultMapping = doc
	im.DefaultAnalyzer = lowercaseWhole
	return im, nil
}

func toDoc(p *models.Product) map[string]interface{} {
	doc := map[string]interface{}{
		fieldName:    p.Name,
		fieldActive:  p.Active,
		fieldCreated: p.CreatedAt,
	}
	if p.Description != "" {
		doc[fieldDescription] = p.Description
	}
	if name := p.CategoryName(); name != "" {
		doc[fieldCategory] = name
	}
	return doc
}

// Index adds or replaces a product.
func (b *BleveIndex) Index(ctx context.Context, p *models.Product) error {
	return b.index.Index(p.ID, toDoc(p))
}

// IndexBatch adds or replaces many products in one batch.
func (b *BleveIndex) IndexBatch(ctx context.Context, products []*models.Product) error {
	batch := b.index.NewBatch()
	for _, p := range products {
		if err := batch.Index(p.ID, toDoc(p)); err != nil {
			return fmt.Errorf("failed to batch product %s: %w", p.ID, err)
		}
	}
	return b.index.Batch(batch)
}

// FindIDs returns IDs of active products whose name, description, or category
// contains query (case-insensitive), ordered by creation time.
//
// The query is matched as a quoted regexp so wildcard characters stay literal and
// the match spans line breaks in multi-line descriptions.
func (b *BleveIndex) FindIDs(ctx context.Context, query string, limit int) ([]string, error) {
	q := strings.ToLower(query)
	if q == "" || limit <= 0 {
		return []string{}, nil
	}
	pattern := "(?s).*" + regexp.QuoteMeta(q) + ".*"

	fields := make([]blevequery.Query, 0, len(textFields))
	for _, f := range textFields {
		rq := bleve.NewRegexpQuery(pattern)
		rq.SetField(f)
		fields = append(fields, rq)
	}
	active := bleve.NewBoolFieldQuery(true)
	active.SetField(fieldActive)

	req := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(bleve.NewDisjunctionQuery(fields...), active), limit, 0, false)
	req.SortBy([]string{fieldCreated, "_id"})

	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	ids := make([]string, 0, len(results.Hits))
	for _, hit := range results.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// Delete removes a product from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// DocCount returns the total number of products in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
