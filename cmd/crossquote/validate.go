package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/crossquote-dev/crossquote/internal/config"
	"github.com/crossquote-dev/crossquote/internal/rules"
)

var validateDataDir string

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a rule set and assembly templates without computing",
	Long: `Load the rule set and assembly templates from the data directory, check
them against the schema and structural rules, and compile every expression.
Nothing is computed; a clean exit means the data directory is usable.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runValidateAction()
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateDataDir, "data", "data", "Data directory with rule set and assemblies")
}

// runValidateAction implements the core logic for the validate command
func runValidateAction() error {
	rulesPath := filepath.Join(validateDataDir, "rules.yaml")
	slog.Info("loading rule set", "path", rulesPath)

	rs, err := config.LoadRuleSet(rulesPath)
	if err != nil {
		return fmt.Errorf("failed to load rule set: %w", err)
	}

	slog.Info("rule set loaded", "version", rs.Version,
		"helpers", len(rs.Helpers),
		"connections", len(rs.Connections),
		"materials", len(rs.Materials),
		"validations", len(rs.Validations))

	assembliesPath := filepath.Join(validateDataDir, "assemblies.yaml")
	slog.Info("loading assemblies", "path", assembliesPath)

	assemblies, err := config.LoadAssemblies(assembliesPath)
	if err != nil {
		return fmt.Errorf("failed to load assemblies: %w", err)
	}

	slog.Info("assemblies loaded", "count", len(assemblies))

	// Compile everything so expression errors surface here, not at compute time
	if _, err := rules.NewEngine(rs, assemblies); err != nil {
		return fmt.Errorf("failed to compile rule set: %w", err)
	}

	fmt.Printf("✓ rule set v%s and %d assemblies are valid\n", rs.Version, len(assemblies))

	return nil
}
