package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/crossquote-dev/crossquote/internal/quote"
	"github.com/crossquote-dev/crossquote/internal/rules"
)

var (
	wizardOutFile string
	wizardDataDir string
	wizardTaxRate float64
	wizardCompute bool
)

// wizardCmd represents the wizard command
var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactively build a crossing configuration",
	Long: `Walk through the crossing configuration fields interactively and write the
result as an input YAML file. With --compute the quote is computed
immediately after the form completes.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runWizardAction()
	},
}

func init() {
	rootCmd.AddCommand(wizardCmd)

	wizardCmd.Flags().StringVarP(&wizardOutFile, "output", "o", "quote_input.yaml", "Where to write the configuration")
	wizardCmd.Flags().StringVar(&wizardDataDir, "data", "data", "Data directory, used with --compute")
	wizardCmd.Flags().Float64Var(&wizardTaxRate, "tax-rate", 0, "Tax rate, used with --compute")
	wizardCmd.Flags().BoolVar(&wizardCompute, "compute", false, "Compute the quote immediately")
}

// runWizardAction implements the core logic for the wizard command
func runWizardAction() error {
	input, err := collectInput()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	//nolint:gosec // G306: Input files are plain configuration, not secrets
	if err := os.WriteFile(wizardOutFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}

	fmt.Printf("✓ configuration written to %s\n", wizardOutFile)

	if !wizardCompute {
		return nil
	}

	eng, err := quote.LoadEngine(wizardDataDir)
	if err != nil {
		return fmt.Errorf("failed to load engine: %w", err)
	}

	result, err := eng.Compute(input, wizardTaxRate)
	if err != nil {
		return fmt.Errorf("failed to compute quote: %w", err)
	}

	return formatOutput(os.Stdout, result, "table")
}

// collectInput walks the user through the configuration form.
func collectInput() (rules.QuoteInput, error) {
	var (
		input         rules.QuoteInput
		designLen     string
		tracks        string
		gauge         string
		trackSpacing  string
		crossingAngle string
		speedKPH      string
	)

	connectionOptions := make([]huh.Option[string], 0, len(rules.ConnectionCodes))
	for _, code := range rules.ConnectionCodes {
		connectionOptions = append(connectionOptions, huh.NewOption(code, code))
	}

	materialOptions := make([]huh.Option[string], 0, len(rules.MaterialCodes))
	for _, code := range rules.MaterialCodes {
		materialOptions = append(materialOptions, huh.NewOption(code, code))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project name").
				Value(&input.ProjectName),
			huh.NewInput().
				Title("Country").
				Value(&input.Country),
			huh.NewSelect[string]().
				Title("Currency").
				Options(
					huh.NewOption("Euro (EUR)", "EUR"),
					huh.NewOption("US Dollar (USD)", "USD"),
					huh.NewOption("Pound Sterling (GBP)", "GBP"),
				).
				Value(&input.Currency),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Design length (m)").
				Validate(validateFloat).
				Value(&designLen),
			huh.NewInput().
				Title("Number of tracks").
				Validate(validateInt).
				Value(&tracks),
			huh.NewInput().
				Title("Track gauge (mm)").
				Validate(validateFloat).
				Value(&gauge),
			huh.NewInput().
				Title("Track spacing (m)").
				Validate(validateFloat).
				Value(&trackSpacing),
			huh.NewInput().
				Title("Crossing angle (degrees)").
				Validate(validateFloat).
				Value(&crossingAngle),
			huh.NewConfirm().
				Title("Sleeper spacing 600 mm?").
				Value(&input.SleeperSpacing600),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Usage").
				Options(
					huh.NewOption("Light", "Light"),
					huh.NewOption("Medium to Heavy", "Medium to Heavy"),
					huh.NewOption("Ultra Heavy", "Ultra Heavy"),
				).
				Value(&input.Usage),
			huh.NewInput().
				Title("Traffic class").
				Value(&input.TrafficClass),
			huh.NewInput().
				Title("Line speed (km/h)").
				Validate(validateFloat).
				Value(&speedKPH),
			huh.NewInput().
				Title("Field panel type").
				Value(&input.FieldPanelType),
			huh.NewInput().
				Title("Edge beam").
				Value(&input.EdgeBeam),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Connection system").
				Options(connectionOptions...).
				Value(&input.Connection),
			huh.NewSelect[string]().
				Title("Material").
				Options(materialOptions...).
				Value(&input.Material),
			huh.NewConfirm().
				Title("Requires strand restrictor?").
				Value(&input.RequiresStrandRestrictor),
			huh.NewConfirm().
				Title("Single unit transition?").
				Value(&input.SingleUnitTransition),
		),
	)

	if err := form.Run(); err != nil {
		return input, err
	}

	// Validated above, conversion cannot fail
	input.DesignLen, _ = strconv.ParseFloat(designLen, 64)
	input.Tracks, _ = strconv.Atoi(tracks)
	input.Gauge, _ = strconv.ParseFloat(gauge, 64)
	input.TrackSpacing, _ = strconv.ParseFloat(trackSpacing, 64)
	input.CrossingAngle, _ = strconv.ParseFloat(crossingAngle, 64)
	input.SpeedKPH, _ = strconv.ParseFloat(speedKPH, 64)

	return input, nil
}

func validateFloat(s string) error {
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return fmt.Errorf("enter a number")
	}
	return nil
}

func validateInt(s string) error {
	if _, err := strconv.Atoi(s); err != nil {
		return fmt.Errorf("enter a whole number")
	}
	return nil
}
