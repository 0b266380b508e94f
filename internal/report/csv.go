// Package report renders processed invoice batches for export and
// aggregation.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"fxreport/pkg/models"
)

// Header is the column order of the exported tabular report.
var Header = []string{
	"Client",
	"Invoice Amount",
	"Currency",
	"USD Amount (Invoice)",
	"USD Amount (Payment)",
	"FX Gain/Loss",
	"Invoice Date",
	"Due Date",
	"Payment Date",
	"Status",
	"Days Outstanding",
}

// WriteCSV writes the tabular report: a header row plus one row per
// invoice. Numeric fields are formatted to two decimal places and absent
// derived values render as empty strings. Fields with embedded commas or
// quotes are quoted and escaped per RFC 4180.
func WriteCSV(w io.Writer, invoices []models.Invoice) error {
	const op = "WriteCSV"

	writer := csv.NewWriter(w)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("%s: failed to write header: %w", op, err)
	}

	for i := range invoices {
		if err := writer.Write(reportRow(&invoices[i])); err != nil {
			return fmt.Errorf("%s: failed to write row %d: %w", op, i+1, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func reportRow(inv *models.Invoice) []string {
	paymentDate := ""
	if inv.PaymentDate != nil {
		paymentDate = *inv.PaymentDate
	}

	return []string{
		inv.Client,
		money(inv.InvoiceAmount),
		inv.Currency,
		money(inv.USDAmountAtInvoice),
		moneyPtr(inv.USDAmountAtPayment),
		moneyPtr(inv.FXGainLoss),
		inv.InvoiceDate,
		inv.DueDate,
		paymentDate,
		string(inv.Status),
		strconv.Itoa(inv.DaysOutstanding),
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func moneyPtr(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return money(*d)
}
