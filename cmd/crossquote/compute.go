package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/crossquote-dev/crossquote/internal/output"
	"github.com/crossquote-dev/crossquote/internal/quote"
	"github.com/crossquote-dev/crossquote/internal/rules"
)

var (
	dataDir    string
	format     string
	outFile    string
	customerID string
	orgID      string
	taxRate    float64
)

// computeParallelism bounds concurrent quote computations in batch mode.
const computeParallelism = 4

// computeCmd represents the compute command
var computeCmd = &cobra.Command{
	Use:   "compute <input.yaml> [input.yaml...]",
	Short: "Compute priced quotes from crossing configurations",
	Long: `Load one or more crossing configurations and compute a priced quote for
each. The input must be a valid YAML file describing the crossing geometry,
usage, connection system, and material.

Pricing:
  Price lists resolve customer first, then organisation, then the global
  default. Use --customer and --org to select the tier.
  --tax-rate 0.19               Apply 19% tax on the subtotal`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("tax-rate") && viper.IsSet("tax_rate") {
			taxRate = viper.GetFloat64("tax_rate")
		}
		if !cmd.Flags().Changed("data") && viper.IsSet("data_dir") {
			dataDir = viper.GetString("data_dir")
		}
		return runComputeAction(cmd.Context(), args)
	},
}

func init() {
	rootCmd.AddCommand(computeCmd)

	computeCmd.Flags().StringVar(&dataDir, "data", "data", "Data directory with rule set, assemblies, catalog, and price list")
	computeCmd.Flags().StringVar(&format, "format", "table", "Output format: table, json, yaml")
	computeCmd.Flags().StringVarP(&outFile, "output", "o", "", "Output file path (default: stdout)")
	computeCmd.Flags().StringVar(&customerID, "customer", "", "Customer ID for customer-specific pricing")
	computeCmd.Flags().StringVar(&orgID, "org", "", "Organisation ID for organisation pricing")
	computeCmd.Flags().Float64Var(&taxRate, "tax-rate", 0, "Tax rate applied to the subtotal (e.g. 0.19)")
}

// runComputeAction implements the core logic for the compute command
func runComputeAction(ctx context.Context, inputPaths []string) error {
	slog.Info("loading engine data", "dir", dataDir)

	eng, err := quote.LoadEngine(dataDir,
		quote.WithCustomer(customerID),
		quote.WithOrg(orgID))
	if err != nil {
		return fmt.Errorf("failed to load engine: %w", err)
	}

	slog.Info("engine ready", "rule_set_version", eng.Rules().Version())

	results := make([]*quote.Result, len(inputPaths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(computeParallelism)

	for i, path := range inputPaths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			input, err := loadInput(path)
			if err != nil {
				return err
			}

			result, err := eng.Compute(input, taxRate)
			if err != nil {
				return fmt.Errorf("failed to compute %s: %w", path, err)
			}

			slog.Debug("quote computed",
				"input", path,
				"valid", result.Valid,
				"total", result.Total,
				"hash", result.ComputeHash)

			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	// Determine output writer
	writer := os.Stdout
	if outFile != "" {
		//nolint:gosec // G304: User-controlled output file path is intentional
		file, err := os.Create(outFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			_ = file.Close() // Best-effort cleanup
		}()
		writer = file
		slog.Info("writing output", "file", outFile, "format", format)
	}

	invalid := 0
	for _, result := range results {
		if err := formatOutput(writer, result, format); err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		if !result.Valid {
			invalid++
		}
	}

	// Return non-zero exit code if any quote failed validation
	if invalid > 0 {
		return fmt.Errorf("compute finished: %d of %d quotes invalid", invalid, len(results))
	}

	return nil
}

// loadInput reads a crossing configuration from a YAML file.
func loadInput(path string) (rules.QuoteInput, error) {
	var input rules.QuoteInput

	//nolint:gosec // G304: User-controlled input file path is intentional
	data, err := os.ReadFile(path)
	if err != nil {
		return input, fmt.Errorf("failed to read input: %w", err)
	}

	if err := yaml.Unmarshal(data, &input); err != nil {
		return input, fmt.Errorf("failed to decode input YAML %s: %w", path, err)
	}

	return input, nil
}

// formatOutput formats the result using the specified formatter
func formatOutput(writer *os.File, result *quote.Result, format string) error {
	switch format {
	case "table":
		formatter := output.NewTableFormatter(writer)
		return formatter.Format(result)
	case "json":
		formatter := output.NewJSONFormatter(writer, true) // Pretty-print JSON
		return formatter.Format(result)
	case "yaml":
		formatter := output.NewYAMLFormatter(writer)
		return formatter.Format(result)
	default:
		return fmt.Errorf("unknown format: %s (supported: table, json, yaml)", format)
	}
}
