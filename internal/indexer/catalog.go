package indexer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/tenpo/internal/models"
)

// CatalogExtensions are the catalog file formats IndexFile reads.
var CatalogExtensions = []string{".yaml", ".yml", ".json", ".xlsx"}

// catalogFile is the YAML/JSON catalog shape: a top-level products list.
type catalogFile struct {
	Products []models.ProductInput `yaml:"products" json:"products"`
}

// readCatalog parses the catalog file at path by extension.
func readCatalog(path string) ([]models.ProductInput, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".xlsx" {
		return readSpreadsheet(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var cf catalogFile
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cf)
	case ".json":
		err = json.Unmarshal(data, &cf)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", filepath.Base(path), err)
	}
	return cf.Products, nil
}

// Spreadsheet columns, matched case-insensitively against the header row.
const (
	colID              = "id"
	colSKU             = "sku"
	colName            = "name"
	colDescription     = "description"
	colDescriptionFile = "description_file"
	colCategory        = "category"
	colPriceCents      = "price_cents"
	colActive          = "active"
)

// readSpreadsheet reads the first sheet of an .xlsx catalog. The first row is the
// header; blank rows are skipped.
func readSpreadsheet(path string) ([]models.ProductInput, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet %s has no sheets", filepath.Base(path))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return []models.ProductInput{}, nil
	}

	columns := make(map[string]int)
	for i, h := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := columns[colName]; !ok {
		return nil, fmt.Errorf("spreadsheet %s: header has no %q column", filepath.Base(path), colName)
	}

	products := make([]models.ProductInput, 0, len(rows)-1)
	for r, row := range rows[1:] {
		cell := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		in := models.ProductInput{
			ID:              cell(colID),
			SKU:             cell(colSKU),
			Name:            cell(colName),
			Description:     cell(colDescription),
			DescriptionFile: cell(colDescriptionFile),
			Category:        cell(colCategory),
		}
		if v := cell(colPriceCents); v != "" {
			price, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid price_cents %q", r+2, v)
			}
			in.PriceCents = price
		}
		if v := cell(colActive); v != "" {
			active, err := parseActive(v)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", r+2, err)
			}
			in.Active = &active
		}
		products = append(products, in)
	}
	return products, nil
}

func parseActive(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid active value %q", v)
	}
	return b, nil
}
