package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/crossquote-dev/crossquote/internal/quote"
)

// TableFormatter formats quote results as a human-readable table.
type TableFormatter struct {
	writer io.Writer
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w}
}

// Format writes the quote result as a table.
func (f *TableFormatter) Format(result *quote.Result) error {
	// Print header
	fmt.Fprintf(f.writer, "Quote: %s\n", result.Metadata.QuoteID)
	fmt.Fprintf(f.writer, "Project: %s\n", result.Metadata.InputSnapshot.ProjectName)
	fmt.Fprintf(f.writer, "Computed: %s\n", result.Metadata.ComputedAt.Format(time.RFC3339))
	fmt.Fprintf(f.writer, "Rule set: v%s\n", result.RuleSetVersion)
	fmt.Fprintf(f.writer, "Price list: %s\n", result.PriceListID)
	fmt.Fprintln(f.writer)

	f.formatStatus(result)

	if len(result.BOM) == 0 {
		fmt.Fprintln(f.writer, "No bill of materials generated.")
		return nil
	}

	fmt.Fprintln(f.writer, "Bill of Materials:")
	fmt.Fprintln(f.writer, strings.Repeat("─", 80))

	for _, line := range result.BOM {
		fmt.Fprintf(f.writer, "%-14s %-34s %8.2f %-6s %10.2f %12.2f\n",
			line.Product, truncate(line.Name, 34), line.Qty, line.Unit,
			line.UnitPrice, line.LineTotal)
	}

	fmt.Fprintln(f.writer, strings.Repeat("─", 80))
	fmt.Fprintln(f.writer)

	f.formatTotals(result)

	fmt.Fprintf(f.writer, "\nHash: %s\n", result.ComputeHash)

	return nil
}

// formatStatus prints validity plus any errors and warnings.
func (f *TableFormatter) formatStatus(result *quote.Result) {
	if result.Valid {
		fmt.Fprintln(f.writer, "✓ VALID")
	} else {
		fmt.Fprintln(f.writer, "✗ INVALID")
	}

	for _, msg := range result.Errors {
		fmt.Fprintf(f.writer, "  ✗ %s\n", msg)
	}
	for _, msg := range result.Warnings {
		fmt.Fprintf(f.writer, "  ⚠ %s\n", msg)
	}

	fmt.Fprintln(f.writer)
}

// formatTotals prints the monetary summary.
func (f *TableFormatter) formatTotals(result *quote.Result) {
	currency := result.Metadata.InputSnapshot.Currency

	fmt.Fprintf(f.writer, "Subtotal: %12.2f %s\n", result.Subtotal, currency)
	fmt.Fprintf(f.writer, "Tax:      %12.2f %s\n", result.Tax, currency)
	fmt.Fprintf(f.writer, "Total:    %12.2f %s\n", result.Total, currency)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
