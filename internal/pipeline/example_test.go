package pipeline_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"fxreport/internal/pipeline"
	"fxreport/internal/rates"
	"fxreport/pkg/models"
)

// Example demonstrates converting a small batch of raw spreadsheet rows
// into derived USD invoice records.
func Example() {
	ctx := context.Background()

	// Resolver against the default historical rate source. Lookups that
	// fail fall back to a neutral rate of 1, so the batch always
	// completes.
	resolver := rates.NewResolver(rates.Config{
		BaseURL: "https://api.frankfurter.app",
		Timeout: 10 * time.Second,
	})

	rows := []models.RawRow{
		{
			"Client":         "Acme",
			"Invoice_Amount": "10000",
			"Currency":       "EUR",
			"Invoice_Date":   "2024-01-15",
			"Due_Date":       "2024-02-15",
			"Payment_Date":   "2024-02-10",
			"Payment_Amount": "10000",
		},
		{
			"Client":         "Globex",
			"Invoice_Amount": "500",
			"Currency":       "USD",
			"Invoice_Date":   "2024-02-01",
			"Due_Date":       "2024-03-01",
		},
	}

	today, err := time.Parse("2006-01-02", "2024-03-05")
	if err != nil {
		log.Fatal(err)
	}

	invoices, err := pipeline.NewPipeline(resolver, 4).Process(ctx, rows, today)
	if err != nil {
		log.Fatalf("Failed to process batch: %v", err)
	}

	for _, inv := range invoices {
		fmt.Printf("%s: %s %s = %s USD at invoice time (%s, %d days outstanding)\n",
			inv.Client,
			inv.InvoiceAmount,
			inv.Currency,
			inv.USDAmountAtInvoice.StringFixed(2),
			inv.Status,
			inv.DaysOutstanding)
	}
}
