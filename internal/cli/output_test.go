package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/tenpo/internal/models"
)

func sampleResponse() *models.SearchResponse {
	resp := models.NewEmptyResponse("Found 1 product")
	resp.Query = "tote"
	resp.QueryTime = 3
	resp.Products = []*models.ScoredProduct{{
		Product: models.Product{
			ID:          "p-1",
			SKU:         "TOTE-1",
			Name:        "Canvas Tote",
			Description: strings.Repeat("sturdy ", 60),
			Category:    &models.Category{ID: "c-1", Name: "Bags"},
			PriceCents:  1999,
			Active:      true,
		},
		RelevanceScore: 130,
		MatchType:      models.MatchExact,
		MatchedOn:      []string{models.FieldName},
	}}
	resp.Categories = []models.CategoryCount{{Name: "Bags", Count: 1}}
	resp.Suggestions = []string{"Totes"}
	return resp
}

func TestWriteSearchResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.SearchResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded.Query != "tote" || len(decoded.Products) != 1 || decoded.Products[0].ID != "p-1" {
		t.Errorf("decoded: %+v", decoded)
	}
}

func TestWriteSearchResults_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Found 1 product (3ms)",
		"1. Canvas Tote  [exact, score 130]",
		"SKU: TOTE-1",
		"Category: Bags",
		"Price: 19.99",
		"Matched on: name",
		"Categories: Bags (1)",
		"Did you mean: Totes",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "sturdy") > 40 {
		t.Error("description should be truncated")
	}
}

func TestWriteSearchResults_Compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputCompact); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], "Canvas Tote") || !strings.Contains(lines[0], "130") {
		t.Errorf("compact output: %q", buf.String())
	}

	buf.Reset()
	_ = WriteSearchResults(&buf, models.NewEmptyResponse("No products found"), OutputCompact)
	if strings.TrimSpace(buf.String()) != "No products found" {
		t.Errorf("empty compact output: %q", buf.String())
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    SearchOutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{" compact ", OutputCompact, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{1999, "19.99"},
		{100000, "1000.00"},
		{-250, "-2.50"},
	}
	for _, tt := range tests {
		if got := FormatPrice(tt.cents); got != tt.want {
			t.Errorf("FormatPrice(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestWriteCategories(t *testing.T) {
	stats := []*models.CategoryStats{{Category: models.Category{ID: "c-1", Name: "Bags"}, ProductCount: 4}}
	var buf bytes.Buffer
	if err := WriteCategories(&buf, stats, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Bags") || !strings.Contains(buf.String(), "4") {
		t.Errorf("text: %q", buf.String())
	}

	buf.Reset()
	if err := WriteCategories(&buf, nil, OutputText); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "No categories" {
		t.Errorf("empty: %q", buf.String())
	}

	buf.Reset()
	if err := WriteCategories(&buf, stats, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if !json.Valid(buf.Bytes()) {
		t.Errorf("json: %q", buf.String())
	}
}
