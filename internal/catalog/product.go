// Package catalog holds the product catalog and scoped price lists consumed
// by the pricing resolver. Both are populated at startup from delimited
// sources and frozen thereafter; concurrent readers need no coordination.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Product is one row of the product catalog.
type Product struct {
	Code     string
	Name     string
	Category string
	Unit     string
	Active   bool
}

// ParseProducts reads catalog rows from CSV data with a header row.
// Columns: code, name, category, unit, active.
func ParseProducts(r io.Reader) ([]Product, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read product CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("product CSV is empty")
	}

	products := make([]Product, 0, len(records)-1)
	for i, rec := range records[1:] { // skip header
		if len(rec) < 4 {
			return nil, fmt.Errorf("product CSV row %d: expected at least 4 columns, got %d", i+2, len(rec))
		}
		code := strings.TrimSpace(rec[0])
		if code == "" {
			continue
		}
		p := Product{
			Code:     code,
			Name:     strings.TrimSpace(rec[1]),
			Category: strings.TrimSpace(rec[2]),
			Unit:     strings.TrimSpace(rec[3]),
		}
		if p.Unit == "" {
			p.Unit = "each"
		}
		if len(rec) > 4 {
			p.Active = strings.EqualFold(strings.TrimSpace(rec[4]), "true")
		}
		products = append(products, p)
	}

	return products, nil
}
