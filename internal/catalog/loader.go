package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Catalog CSV column names. List fields use different separators because the
// source data does: ingredients are ";"-delimited, tags "|"-delimited.
const (
	colProductID    = "product_id"
	colName         = "name"
	colCategory     = "category"
	colDescription  = "description"
	colPriceUSD     = "price (USD)"
	colCurrencyCode = "currency_code"
	colMargin       = "margin (%)"
	colIngredients  = "top_ingredients"
	colTags         = "tags"
	colImageURL     = "image_url"
)

// LoadProductsCSV reads the product catalog. Columns are resolved by header
// name, not position. A malformed row is skipped with a warning; missing
// required headers abort the whole file.
func LoadProductsCSV(path string) ([]Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read catalog header %s: %w", path, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{colProductID, colName} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("catalog %s: missing required column %q", path, required)
		}
	}

	log := logrus.WithField("component", "catalog")

	var products []Product
	line := 1
	for {
		record, err := r.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warnf("skipping unreadable catalog row at line %d: %v", line, err)
			continue
		}
		if len(record) != len(header) {
			log.Warnf("skipping catalog row at line %d: expected %d columns, got %d", line, len(header), len(record))
			continue
		}

		p, err := parseProductRow(cols, record)
		if err != nil {
			log.Warnf("skipping catalog row at line %d: %v", line, err)
			continue
		}
		products = append(products, p)
	}

	return products, nil
}

func parseProductRow(cols map[string]int, record []string) (Product, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	p := Product{
		ProductID:    field(colProductID),
		ProductName:  field(colName),
		Category:     field(colCategory),
		Description:  field(colDescription),
		CurrencyCode: field(colCurrencyCode),
		ImageURL:     field(colImageURL),
	}
	if p.ProductID == "" {
		return Product{}, fmt.Errorf("empty %s", colProductID)
	}
	if p.ProductName == "" {
		return Product{}, fmt.Errorf("empty %s", colName)
	}
	if p.CurrencyCode == "" {
		p.CurrencyCode = "USD"
	}

	if raw := field(colPriceUSD); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Product{}, fmt.Errorf("bad price %q: %w", raw, err)
		}
		p.PriceUSD = &v
	}
	if raw := field(colMargin); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Product{}, fmt.Errorf("bad margin %q: %w", raw, err)
		}
		p.MarginPercentage = &v
	}

	p.KeyIngredients = splitList(field(colIngredients), ";")
	p.Tags = splitList(field(colTags), "|")

	return p, nil
}

func splitList(raw, sep string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, sep) {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
