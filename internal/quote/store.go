package quote

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/crossquote-dev/crossquote/internal/catalog"
	"github.com/crossquote-dev/crossquote/internal/config"
	"github.com/crossquote-dev/crossquote/internal/pricing"
)

// File names an engine data directory is expected to contain.
const (
	RuleSetFile    = "rules.yaml"
	AssembliesFile = "assemblies.yaml"
	ProductsFile   = "products.csv"
	PriceListFile  = "price_list.default.csv"
)

// LoadEngine builds a quote engine from a data directory holding the rule
// set, assembly templates, product catalog, and default price list. The
// directory is opened through os.OpenRoot so relative references inside it
// cannot escape.
func LoadEngine(dir string, opts ...Option) (*Engine, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open data directory: %w", err)
	}
	defer func() {
		_ = root.Close() // Best-effort cleanup
	}()

	rs, err := config.LoadRuleSet(filepath.Join(dir, RuleSetFile))
	if err != nil {
		return nil, err
	}

	assemblies, err := config.LoadAssemblies(filepath.Join(dir, AssembliesFile))
	if err != nil {
		return nil, err
	}

	resolver := pricing.NewResolver()

	productsFile, err := root.Open(ProductsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open product catalog: %w", err)
	}
	products, err := catalog.ParseProducts(productsFile)
	_ = productsFile.Close()
	if err != nil {
		return nil, err
	}
	resolver.LoadProducts(products)

	priceFile, err := root.Open(PriceListFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open price list: %w", err)
	}
	priceList, err := catalog.ParsePriceList(priceFile, catalog.PriceListMeta{
		ID:   "default",
		Name: "Default Price List",
	})
	_ = priceFile.Close()
	if err != nil {
		return nil, err
	}
	resolver.LoadGlobalPriceList(priceList)

	return NewEngine(rs, assemblies, resolver, opts...)
}
