package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fxreport/internal/logger"
	"fxreport/internal/report"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [csv-file]",
	Short: "Process an invoice spreadsheet and print batch KPIs",
	Long: `Process a spreadsheet of multi-currency invoices and print the batch
KPI summary: counts per status, total USD invoiced, total USD outstanding,
realized FX gain/loss and worst aging.

Accepts the same input sources and rate-source flags as the process
command.`,
	Example: `  # KPI summary for a CSV file
  fxreport summary invoices.csv

  # Summary for a fixed reference date
  fxreport summary invoices.csv --today 2024-03-01`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().String("today", "", "Reference date for status/aging (YYYY-MM-DD, default: today)")
	summaryCmd.Flags().String("rate-url", "", "Historical rate source base URL (default: from config)")
	summaryCmd.Flags().Int("timeout", 0, "Per-lookup timeout in seconds (default: from config)")
	summaryCmd.Flags().Int("concurrency", 0, "Concurrent rate lookups during prefetch (default: from config)")
	summaryCmd.Flags().String("sheet-url", "", "Google Sheets URL to read instead of a CSV file")
	summaryCmd.Flags().String("worksheet", "", "Worksheet name for --sheet-url (default: from config)")
}

func runSummary(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("summary")

	invoices, err := processBatch(cmd, args, log)
	if err != nil {
		return err
	}

	summary := report.Summarize(invoices)

	log.Info().
		Int("total", summary.TotalInvoices).
		Int("paid", summary.Paid).
		Int("overdue", summary.Overdue).
		Msg("Batch summarized")

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(summary); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
