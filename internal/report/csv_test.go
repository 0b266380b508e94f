package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxreport/pkg/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strptr(s string) *string { return &s }

func TestWriteCSVPaidInvoice(t *testing.T) {
	invoices := []models.Invoice{{
		Client:             "Acme",
		InvoiceAmount:      dec("10000"),
		Currency:           "EUR",
		InvoiceDate:        "2024-01-15",
		DueDate:            "2024-02-15",
		PaymentDate:        strptr("2024-02-10"),
		PaymentAmount:      decPtr("10000"),
		USDAmountAtInvoice: dec("10800"),
		USDAmountAtPayment: decPtr("11000"),
		FXGainLoss:         decPtr("200"),
		Status:             models.StatusPaid,
		DaysOutstanding:    0,
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, invoices))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, Header, records[0])
	assert.Equal(t, []string{
		"Acme", "10000.00", "EUR", "10800.00", "11000.00", "200.00",
		"2024-01-15", "2024-02-15", "2024-02-10", "Paid", "0",
	}, records[1])
}

func TestWriteCSVAbsentDerivedValuesRenderEmpty(t *testing.T) {
	invoices := []models.Invoice{{
		Client:             "Globex",
		InvoiceAmount:      dec("500"),
		Currency:           "USD",
		InvoiceDate:        "2024-02-01",
		DueDate:            "2024-03-01",
		USDAmountAtInvoice: dec("500"),
		Status:             models.StatusOutstanding,
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, invoices))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	row := records[1]
	assert.Equal(t, "", row[4], "USD Amount (Payment)")
	assert.Equal(t, "", row[5], "FX Gain/Loss")
	assert.Equal(t, "", row[8], "Payment Date")
}

func TestWriteCSVEscapesClientNames(t *testing.T) {
	invoices := []models.Invoice{{
		Client:             `Acme "North", Inc.`,
		InvoiceAmount:      dec("1"),
		Currency:           "USD",
		USDAmountAtInvoice: dec("1"),
		Status:             models.StatusOutstanding,
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, invoices))

	// Raw output is properly quoted and escaped.
	assert.True(t, strings.Contains(buf.String(), `"Acme ""North"", Inc."`),
		"client name must be quoted with doubled embedded quotes: %s", buf.String())

	// And a conforming reader round-trips it.
	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, `Acme "North", Inc.`, records[1][0])
}

func TestWriteCSVEmptyBatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1, "header only")
	assert.Equal(t, Header, records[0])
}
