// Package cli formats tenpo results for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/tenpo/internal/models"
	"github.com/hyperjump/tenpo/pkg/utils"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputCompact prints one line per product.
	OutputCompact SearchOutputFormat = "compact"
	// OutputJSON is the API response, indented.
	OutputJSON SearchOutputFormat = "json"
)

const rule = "---------------------------------------------------------"

// ParseOutputFormat validates a --output value. Empty means text.
func ParseOutputFormat(s string) (SearchOutputFormat, error) {
	switch f := SearchOutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return OutputText, nil
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
	}
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		writeSearchResultsCompact(w, response)
	default:
		writeSearchResultsText(w, response)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\n%s (%dms)\n\n", response.Message, response.QueryTime)
	for i, p := range response.Products {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "%d. %s  [%s, score %d]\n", i+1, p.Name, p.MatchType, p.RelevanceScore)
		fmt.Fprintf(w, "ID: %s\n", p.ID)
		if p.SKU != "" {
			fmt.Fprintf(w, "SKU: %s\n", p.SKU)
		}
		if name := p.CategoryName(); name != "" {
			fmt.Fprintf(w, "Category: %s\n", name)
		}
		fmt.Fprintf(w, "Price: %s\n", FormatPrice(p.PriceCents))
		if len(p.MatchedOn) > 0 {
			fmt.Fprintf(w, "Matched on: %s\n", strings.Join(p.MatchedOn, ", "))
		}
		if p.Description != "" {
			fmt.Fprintf(w, "\n%s\n", utils.Truncate(p.Description, 200))
		}
		fmt.Fprintln(w)
	}
	if len(response.Categories) > 0 {
		parts := make([]string, len(response.Categories))
		for i, c := range response.Categories {
			parts[i] = fmt.Sprintf("%s (%d)", c.Name, c.Count)
		}
		fmt.Fprintf(w, "Categories: %s\n", strings.Join(parts, ", "))
	}
	if len(response.Suggestions) > 0 {
		fmt.Fprintf(w, "Did you mean: %s\n", strings.Join(response.Suggestions, ", "))
	}
}

func writeSearchResultsCompact(w io.Writer, response *models.SearchResponse) {
	if len(response.Products) == 0 {
		fmt.Fprintln(w, response.Message)
		return
	}
	for _, p := range response.Products {
		fmt.Fprintf(w, "%4d  %-7s  %-36s  %s\n", p.RelevanceScore, p.MatchType, p.ID, p.Name)
	}
}

// FormatPrice renders cents as a decimal amount, e.g. 1999 -> "19.99".
func FormatPrice(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// WriteCategories lists categories with their active product counts.
func WriteCategories(w io.Writer, stats []*models.CategoryStats, format SearchOutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]interface{}{"categories": stats})
	}
	if len(stats) == 0 {
		fmt.Fprintln(w, "No categories")
		return nil
	}
	for _, c := range stats {
		fmt.Fprintf(w, "%-36s  %5d  %s\n", c.ID, c.ProductCount, c.Name)
	}
	return nil
}
