package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// PriceList is a scoped, date-bounded mapping from product code to unit
// price. At most one list of each scope (global, organisation, customer)
// applies to a price resolution.
type PriceList struct {
	ID        string
	Name      string
	Currency  string
	ValidFrom time.Time
	ValidTo   *time.Time // nil means open-ended
	Entries   map[string]float64
}

// ValidOn reports whether the list's validity window covers the given date.
func (pl *PriceList) ValidOn(date time.Time) bool {
	if pl.ValidFrom.After(date) {
		return false
	}
	if pl.ValidTo != nil && pl.ValidTo.Before(date) {
		return false
	}
	return true
}

// UnitPrice looks up the unit price for a product code.
// Exact code match only; no fallback by category.
func (pl *PriceList) UnitPrice(code string) (float64, bool) {
	price, ok := pl.Entries[code]
	return price, ok
}

// PriceListMeta supplies list-level attributes for CSV parsing.
type PriceListMeta struct {
	ID       string
	Name     string
	Currency string
}

// ParsePriceList reads price rows from CSV data with a header row.
// Columns: code, currency, unit_price, valid_from, valid_to.
// The list validity window is taken from the first row carrying dates; rows
// without dates inherit it. An absent valid_to leaves the list open-ended.
func ParsePriceList(r io.Reader, meta PriceListMeta) (*PriceList, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read price list CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("price list CSV is empty")
	}

	pl := &PriceList{
		ID:       meta.ID,
		Name:     meta.Name,
		Currency: meta.Currency,
		Entries:  make(map[string]float64, len(records)-1),
	}

	for i, rec := range records[1:] { // skip header
		if len(rec) < 3 {
			return nil, fmt.Errorf("price list CSV row %d: expected at least 3 columns, got %d", i+2, len(rec))
		}
		code := strings.TrimSpace(rec[0])
		if code == "" {
			continue
		}

		price, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("price list CSV row %d: invalid unit price %q: %w", i+2, rec[2], err)
		}
		pl.Entries[code] = price

		if pl.Currency == "" && len(rec) > 1 {
			pl.Currency = strings.TrimSpace(rec[1])
		}

		if pl.ValidFrom.IsZero() && len(rec) > 3 && strings.TrimSpace(rec[3]) != "" {
			from, err := time.Parse(dateLayout, strings.TrimSpace(rec[3]))
			if err != nil {
				return nil, fmt.Errorf("price list CSV row %d: invalid valid_from %q: %w", i+2, rec[3], err)
			}
			pl.ValidFrom = from

			if len(rec) > 4 && strings.TrimSpace(rec[4]) != "" {
				to, err := time.Parse(dateLayout, strings.TrimSpace(rec[4]))
				if err != nil {
					return nil, fmt.Errorf("price list CSV row %d: invalid valid_to %q: %w", i+2, rec[4], err)
				}
				pl.ValidTo = &to
			}
		}
	}

	return pl, nil
}
