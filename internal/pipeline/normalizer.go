package pipeline

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fxreport/pkg/models"
)

// Input column names expected by the normalizer.
const (
	ColClient        = "Client"
	ColInvoiceAmount = "Invoice_Amount"
	ColCurrency      = "Currency"
	ColInvoiceDate   = "Invoice_Date"
	ColDueDate       = "Due_Date"
	ColPaymentDate   = "Payment_Date"
	ColPaymentAmount = "Payment_Amount"
)

// invoiceIDNamespace seeds the deterministic per-record IDs.
var invoiceIDNamespace = uuid.MustParse("c2f0fd6c-5316-4b73-bb0a-0c8df522f94a")

// Normalize parses and validates one raw row into a canonical invoice
// record, substituting documented defaults for missing fields. It never
// fails: a malformed row degrades to defaulted fields so that downstream
// derivations degrade gracefully instead of aborting the batch.
//
// The record ID is derived from the row content and its position in the
// batch, so reprocessing identical input reproduces identical records.
//
// Defaulting rules:
//   - Missing or blank Client, Invoice_Date, Due_Date become empty strings.
//   - An unparseable or absent Invoice_Amount becomes 0. Amounts are
//     non-negative; a negative input is treated as unparseable.
//   - A missing Currency defaults to the reporting currency; currency codes
//     are uppercased on ingestion so cache keys and comparisons never
//     diverge by case.
//   - A blank Payment_Date is omitted entirely (nil, never an empty
//     string). Its presence is the status-classification signal.
//   - An absent Payment_Amount stays nil rather than zero: omission means
//     "no payment recorded", zero means "paid nothing".
func Normalize(row models.RawRow, index int) models.Invoice {
	inv := models.Invoice{
		ID:          rowID(row, index),
		Client:      field(row, ColClient),
		InvoiceDate: field(row, ColInvoiceDate),
		DueDate:     field(row, ColDueDate),
	}

	inv.InvoiceAmount = parseAmount(field(row, ColInvoiceAmount))

	currency := strings.ToUpper(field(row, ColCurrency))
	if currency == "" {
		currency = models.ReportingCurrency
	}
	inv.Currency = currency

	if paymentDate := field(row, ColPaymentDate); paymentDate != "" {
		inv.PaymentDate = &paymentDate
	}

	if raw := field(row, ColPaymentAmount); raw != "" {
		amount := parseAmount(raw)
		inv.PaymentAmount = &amount
	}

	return inv
}

// rowID derives a stable record ID from the raw row fields and the row's
// position in the batch.
func rowID(row models.RawRow, index int) string {
	seed := strings.Join([]string{
		strconv.Itoa(index),
		field(row, ColClient),
		field(row, ColInvoiceAmount),
		field(row, ColCurrency),
		field(row, ColInvoiceDate),
		field(row, ColDueDate),
		field(row, ColPaymentDate),
		field(row, ColPaymentAmount),
	}, "\x1f")
	return uuid.NewSHA1(invoiceIDNamespace, []byte(seed)).String()
}

// parseAmount parses a decimal amount, defaulting to zero for anything
// unparseable or negative.
func parseAmount(raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil || amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

func field(row models.RawRow, column string) string {
	return strings.TrimSpace(row[column])
}
