package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"fxreport/internal/config"
	"fxreport/internal/logger"
	"fxreport/internal/pipeline"
	"fxreport/internal/rates"
	"fxreport/internal/report"
	"fxreport/internal/sheets"
	"fxreport/internal/tabular"
	"fxreport/pkg/models"
)

var processCmd = &cobra.Command{
	Use:   "process [csv-file]",
	Short: "Convert an invoice spreadsheet to derived USD records",
	Long: `Process a spreadsheet of multi-currency invoices into fully derived
records: USD amounts at invoice and payment time, realized FX gain/loss,
payment status (Outstanding/Paid/Overdue) and days outstanding.

The input is a CSV file with the mandatory columns Client, Invoice_Amount,
Currency, Invoice_Date and Due_Date (Payment_Date and Payment_Amount are
optional), or a Google Sheets worksheet selected with --sheet-url.

Historical rates are fetched once per distinct (date, currency) pair and
cached for the run. When the rate source is unreachable or returns a
malformed payload, the affected conversions fall back to a neutral rate of
1 and the batch still completes.`,
	Example: `  # Convert a CSV file, JSON to stdout
  fxreport process invoices.csv

  # Write the tabular CSV report instead
  fxreport process invoices.csv --format csv -o report.csv

  # Deterministic status/aging for a fixed reference date
  fxreport process invoices.csv --today 2024-03-01

  # Ingest from Google Sheets
  fxreport process --sheet-url "$GOOGLE_SHEET_URL" --worksheet Invoices`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	processCmd.Flags().String("format", "json", "Output format: json or csv")
	processCmd.Flags().String("today", "", "Reference date for status/aging (YYYY-MM-DD, default: today)")
	processCmd.Flags().String("rate-url", "", "Historical rate source base URL (default: from config)")
	processCmd.Flags().Int("timeout", 0, "Per-lookup timeout in seconds (default: from config)")
	processCmd.Flags().Int("concurrency", 0, "Concurrent rate lookups during prefetch (default: from config)")
	processCmd.Flags().String("sheet-url", "", "Google Sheets URL to read instead of a CSV file")
	processCmd.Flags().String("worksheet", "", "Worksheet name for --sheet-url (default: from config)")
}

func runProcess(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("process")

	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")

	format = strings.ToLower(format)
	if format != "json" && format != "csv" {
		return fmt.Errorf("unsupported format %q: use json or csv", format)
	}

	invoices, err := processBatch(cmd, args, log)
	if err != nil {
		return err
	}

	return writeOutput(invoices, format, outputPath, log)
}

// processBatch runs the shared ingest-and-convert path used by the process
// and summary commands.
func processBatch(cmd *cobra.Command, args []string, log zerolog.Logger) ([]models.Invoice, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	todayStr, _ := cmd.Flags().GetString("today")
	rateURL, _ := cmd.Flags().GetString("rate-url")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	sheetURL, _ := cmd.Flags().GetString("sheet-url")
	worksheet, _ := cmd.Flags().GetString("worksheet")

	today := time.Now()
	if todayStr != "" {
		today, err = time.Parse("2006-01-02", todayStr)
		if err != nil {
			return nil, fmt.Errorf("invalid --today date format, use YYYY-MM-DD: %w", err)
		}
	}

	if rateURL == "" {
		rateURL = cfg.RateSourceURL
	}
	timeout := cfg.RateTimeout
	if timeoutSecs > 0 {
		timeout = time.Duration(timeoutSecs) * time.Second
	}
	if concurrency <= 0 {
		concurrency = cfg.Concurrency
	}
	if sheetURL == "" && len(args) == 0 {
		sheetURL = cfg.GoogleSheetURL
	}
	if worksheet == "" {
		worksheet = cfg.GoogleSheetWorksheet
	}

	ctx := context.Background()

	rows, err := readRows(ctx, args, sheetURL, worksheet)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("rows", len(rows)).
		Str("rate_url", rateURL).
		Str("today", today.Format("2006-01-02")).
		Msg("Starting invoice batch processing")

	resolver := rates.NewResolver(rates.Config{
		BaseURL: rateURL,
		Timeout: timeout,
	})

	invoices, err := pipeline.NewPipeline(resolver, concurrency).Process(ctx, rows, today)
	if err != nil {
		return nil, fmt.Errorf("batch processing failed: %w", err)
	}

	log.Info().
		Int("invoices", len(invoices)).
		Msg("Invoice batch processed successfully")

	return invoices, nil
}

// readRows ingests raw rows from a CSV file argument or a Google Sheets
// worksheet.
func readRows(ctx context.Context, args []string, sheetURL, worksheet string) ([]models.RawRow, error) {
	if sheetURL != "" {
		service, err := sheets.NewService(ctx, sheetURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets service: %w", err)
		}
		rows, err := service.ReadRows(ctx, worksheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read worksheet: %w", err)
		}
		return rows, nil
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("provide a CSV file argument or --sheet-url")
	}

	rows, err := tabular.ReadFile(args[0])
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// writeOutput renders the processed batch in the requested format.
func writeOutput(invoices []models.Invoice, format, outputPath string, log zerolog.Logger) error {
	out := os.Stdout
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if closeErr := file.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("Failed to close output file")
			}
		}()
		out = file
	}

	switch format {
	case "csv":
		if err := report.WriteCSV(out, invoices); err != nil {
			return fmt.Errorf("failed to write CSV report: %w", err)
		}
	default:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(invoices); err != nil {
			return fmt.Errorf("failed to write JSON output: %w", err)
		}
	}

	if outputPath != "" {
		log.Info().
			Str("output_file", outputPath).
			Str("format", format).
			Msg("Report written to file")
	}
	return nil
}
