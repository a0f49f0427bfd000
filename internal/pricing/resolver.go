// Package pricing resolves unit prices for BOM lines against scoped price
// lists and computes quote totals.
package pricing

import (
	"time"

	"github.com/crossquote-dev/crossquote/internal/catalog"
	"github.com/crossquote-dev/crossquote/internal/rules"
)

// Context identifies the party and date a price resolution applies to.
type Context struct {
	CustomerID string
	OrgID      string
	Currency   string
	QuoteDate  time.Time
}

// PricedLine is a BOM line with its resolved unit price and line total.
type PricedLine struct {
	rules.BOMLine `yaml:",inline"`
	UnitPrice     float64 `json:"unit_price" yaml:"unit_price"`
	LineTotal     float64 `json:"line_total" yaml:"line_total"`
}

// Totals are the monetary roll-ups of a priced BOM. All values are rounded
// half-up to two decimal places at construction.
type Totals struct {
	Subtotal float64 `json:"subtotal" yaml:"subtotal"`
	Tax      float64 `json:"tax" yaml:"tax"`
	TaxRate  float64 `json:"tax_rate" yaml:"tax_rate"`
	Total    float64 `json:"total" yaml:"total"`
}

// Result is the output of one price resolution.
type Result struct {
	BOM           []PricedLine `json:"bom" yaml:"bom"`
	Totals        Totals       `json:"totals" yaml:"totals"`
	MissingPrices []string     `json:"missing_prices,omitempty" yaml:"missing_prices,omitempty"`
	PriceListID   string       `json:"price_list_id" yaml:"price_list_id"`
}

// NoPriceList is reported when no registered list is valid for the
// resolution date; every lookup then misses.
const NoPriceList = "none"

// Resolver maintains the product catalog and the three price-list scopes.
// It follows a load-then-freeze lifecycle: populate at startup via the Load
// methods, then serve concurrent resolutions without further mutation. For
// hot reload, build a fresh Resolver and swap it atomically.
type Resolver struct {
	products  map[string]catalog.Product
	global    *catalog.PriceList
	orgs      map[string]*catalog.PriceList
	customers map[string]*catalog.PriceList
}

// NewResolver creates an empty pricing resolver.
func NewResolver() *Resolver {
	return &Resolver{
		products:  make(map[string]catalog.Product),
		orgs:      make(map[string]*catalog.PriceList),
		customers: make(map[string]*catalog.PriceList),
	}
}

// LoadProducts registers the product catalog, replacing earlier entries
// with the same code.
func (r *Resolver) LoadProducts(products []catalog.Product) {
	for _, p := range products {
		r.products[p.Code] = p
	}
}

// LoadGlobalPriceList registers the global default price list.
func (r *Resolver) LoadGlobalPriceList(pl *catalog.PriceList) {
	r.global = pl
}

// LoadOrgPriceList registers an organisation price list.
func (r *Resolver) LoadOrgPriceList(orgID string, pl *catalog.PriceList) {
	r.orgs[orgID] = pl
}

// LoadCustomerPriceList registers a customer-specific price list.
func (r *Resolver) LoadCustomerPriceList(customerID string, pl *catalog.PriceList) {
	r.customers[customerID] = pl
}

// Product returns the catalog entry for a product code.
func (r *Resolver) Product(code string) (catalog.Product, bool) {
	p, ok := r.products[code]
	return p, ok
}

// EnrichBOM resolves each line's display name and unit from the product
// catalog by exact code match, keeping the original code string for
// products the catalog does not know. Run this before ResolvePricing so
// renamed products are still priced by code.
func (r *Resolver) EnrichBOM(bom []rules.BOMLine) []rules.BOMLine {
	out := make([]rules.BOMLine, len(bom))
	for i, line := range bom {
		out[i] = line
		if p, ok := r.products[line.Product]; ok {
			out[i].Name = p.Name
			if p.Unit != "" {
				out[i].Unit = p.Unit
			}
		} else {
			out[i].Name = line.Product
		}
	}
	return out
}

// ResolvePricing prices every BOM line against the selected price list and
// computes totals. A missing price never fails the resolution: the line is
// priced at zero and its code is collected in MissingPrices.
func (r *Resolver) ResolvePricing(bom []rules.BOMLine, ctx Context, taxRate float64) *Result {
	priceList := r.selectPriceList(ctx)

	result := &Result{
		BOM:         make([]PricedLine, 0, len(bom)),
		PriceListID: NoPriceList,
	}
	if priceList != nil {
		result.PriceListID = priceList.ID
	}

	for _, line := range bom {
		priced := PricedLine{BOMLine: line}

		var unitPrice float64
		found := false
		if priceList != nil {
			unitPrice, found = priceList.UnitPrice(line.Product)
		}

		if !found {
			result.MissingPrices = append(result.MissingPrices, line.Product)
		} else {
			priced.UnitPrice = unitPrice
			priced.LineTotal = round2(line.Qty * unitPrice)
		}

		result.BOM = append(result.BOM, priced)
	}

	result.Totals = calculateTotals(result.BOM, taxRate)
	return result
}

// selectPriceList picks the applicable list by precedence: customer, then
// organisation, then global default. The first date-valid match wins; a
// registered but expired list falls through to the next scope.
func (r *Resolver) selectPriceList(ctx Context) *catalog.PriceList {
	if ctx.CustomerID != "" {
		if pl, ok := r.customers[ctx.CustomerID]; ok && pl.ValidOn(ctx.QuoteDate) {
			return pl
		}
	}
	if ctx.OrgID != "" {
		if pl, ok := r.orgs[ctx.OrgID]; ok && pl.ValidOn(ctx.QuoteDate) {
			return pl
		}
	}
	if r.global != nil && r.global.ValidOn(ctx.QuoteDate) {
		return r.global
	}
	return nil
}

// calculateTotals sums line totals and applies tax. Lines with missing
// prices contribute zero.
func calculateTotals(bom []PricedLine, taxRate float64) Totals {
	var subtotal float64
	for _, line := range bom {
		subtotal += line.LineTotal
	}

	subtotal = round2(subtotal)
	tax := round2(subtotal * taxRate)

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		TaxRate:  taxRate,
		Total:    round2(subtotal + tax),
	}
}
