package pipeline

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxreport/pkg/models"
)

// stubResolver serves rates from a fixed table and counts lookups per key,
// mirroring the real resolver's fallback-to-1 behavior for unknown keys.
type stubResolver struct {
	mu    sync.Mutex
	rates map[string]decimal.Decimal
	calls map[string]int
}

func newStubResolver(rates map[string]decimal.Decimal) *stubResolver {
	return &stubResolver{
		rates: rates,
		calls: make(map[string]int),
	}
}

func (s *stubResolver) Resolve(_ context.Context, currency, date string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := date + ":" + currency
	s.calls[key]++
	if rate, ok := s.rates[key]; ok {
		return rate, nil
	}
	return decimal.NewFromInt(1), nil
}

func (s *stubResolver) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

func TestProcessPaidForeignInvoice(t *testing.T) {
	resolver := newStubResolver(map[string]decimal.Decimal{
		"2024-01-15:EUR": decimal.RequireFromString("1.08"),
		"2024-02-10:EUR": decimal.RequireFromString("1.10"),
	})
	p := NewPipeline(resolver, 4)

	rows := []models.RawRow{{
		"Client":         "Acme",
		"Invoice_Amount": "10000",
		"Currency":       "EUR",
		"Invoice_Date":   "2024-01-15",
		"Due_Date":       "2024-02-15",
		"Payment_Date":   "2024-02-10",
		"Payment_Amount": "10000",
	}}

	invoices, err := p.Process(context.Background(), rows, day("2024-03-01"))
	require.NoError(t, err)
	require.Len(t, invoices, 1)

	inv := invoices[0]
	assert.True(t, inv.USDAmountAtInvoice.Equal(decimal.NewFromInt(10800)),
		"usd_amount_at_invoice = %s", inv.USDAmountAtInvoice)
	require.NotNil(t, inv.USDAmountAtPayment)
	assert.True(t, inv.USDAmountAtPayment.Equal(decimal.NewFromInt(11000)),
		"usd_amount_at_payment = %s", inv.USDAmountAtPayment)
	require.NotNil(t, inv.FXGainLoss)
	assert.True(t, inv.FXGainLoss.Equal(decimal.NewFromInt(200)),
		"fx_gain_loss = %s", inv.FXGainLoss)
	assert.Equal(t, models.StatusPaid, inv.Status)
}

func TestProcessDefaultsMalformedRow(t *testing.T) {
	resolver := newStubResolver(nil)
	p := NewPipeline(resolver, 1)

	rows := []models.RawRow{{
		"Client":         "Globex",
		"Invoice_Amount": "abc",
	}}

	invoices, err := p.Process(context.Background(), rows, day("2024-03-01"))
	require.NoError(t, err)
	require.Len(t, invoices, 1)

	inv := invoices[0]
	assert.Equal(t, "USD", inv.Currency)
	assert.True(t, inv.InvoiceAmount.IsZero())
	assert.True(t, inv.USDAmountAtInvoice.IsZero())
	assert.Equal(t, models.StatusOutstanding, inv.Status)
}

func TestProcessReportingCurrencyInvariants(t *testing.T) {
	// For USD invoices: usd_amount_at_invoice equals invoice_amount and
	// gain/loss is identically zero, with no rate lookups at all.
	resolver := newStubResolver(nil)
	p := NewPipeline(resolver, 4)

	rows := []models.RawRow{{
		"Client":         "Initech",
		"Invoice_Amount": "2500.50",
		"Currency":       "USD",
		"Invoice_Date":   "2024-01-10",
		"Due_Date":       "2024-02-10",
		"Payment_Date":   "2024-02-05",
		"Payment_Amount": "2500.50",
	}}

	invoices, err := p.Process(context.Background(), rows, day("2024-03-01"))
	require.NoError(t, err)
	require.Len(t, invoices, 1)

	inv := invoices[0]
	assert.True(t, inv.USDAmountAtInvoice.Equal(inv.InvoiceAmount))
	require.NotNil(t, inv.FXGainLoss)
	assert.True(t, inv.FXGainLoss.IsZero())
	assert.Zero(t, resolver.totalCalls(), "reporting-currency rows must not hit the resolver")
}

func TestProcessUnpaidInvoiceOmitsPaymentFields(t *testing.T) {
	resolver := newStubResolver(map[string]decimal.Decimal{
		"2024-01-15:EUR": decimal.RequireFromString("1.08"),
	})
	p := NewPipeline(resolver, 4)

	rows := []models.RawRow{{
		"Client":         "Hooli",
		"Invoice_Amount": "500",
		"Currency":       "EUR",
		"Invoice_Date":   "2024-01-15",
		"Due_Date":       "2024-02-27",
	}}

	invoices, err := p.Process(context.Background(), rows, day("2024-03-01"))
	require.NoError(t, err)
	require.Len(t, invoices, 1)

	inv := invoices[0]
	assert.Nil(t, inv.USDAmountAtPayment)
	assert.Nil(t, inv.FXGainLoss)
	assert.NotEqual(t, models.StatusPaid, inv.Status)
	assert.Equal(t, models.StatusOverdue, inv.Status)
	assert.GreaterOrEqual(t, inv.DaysOutstanding, 2)
}

func TestProcessDeduplicatesRateLookups(t *testing.T) {
	resolver := newStubResolver(map[string]decimal.Decimal{
		"2024-01-15:EUR": decimal.RequireFromString("1.08"),
	})
	p := NewPipeline(resolver, 4)

	row := models.RawRow{
		"Client":         "Acme",
		"Invoice_Amount": "100",
		"Currency":       "EUR",
		"Invoice_Date":   "2024-01-15",
		"Due_Date":       "2024-02-15",
	}
	rows := []models.RawRow{row, row, row, row}

	invoices, err := p.Process(context.Background(), rows, day("2024-03-01"))
	require.NoError(t, err)
	require.Len(t, invoices, 4)
	assert.Equal(t, 1, resolver.totalCalls(),
		"four rows sharing one (date, currency) pair must cost one lookup")
}

func TestProcessPreservesRowOrder(t *testing.T) {
	resolver := newStubResolver(nil)
	p := NewPipeline(resolver, 4)

	rows := []models.RawRow{
		{"Client": "first", "Invoice_Amount": "1", "Currency": "EUR", "Invoice_Date": "2024-01-01", "Due_Date": "2024-02-01"},
		{"Client": "second", "Invoice_Amount": "bad"},
		{"Client": "third", "Invoice_Amount": "3", "Currency": "JPY", "Invoice_Date": "2024-01-03", "Due_Date": "2024-02-03"},
	}

	invoices, err := p.Process(context.Background(), rows, day("2024-03-01"))
	require.NoError(t, err)
	require.Len(t, invoices, 3, "one output record per input row, none dropped")

	assert.Equal(t, "first", invoices[0].Client)
	assert.Equal(t, "second", invoices[1].Client)
	assert.Equal(t, "third", invoices[2].Client)
}

func TestProcessIdempotent(t *testing.T) {
	rates := map[string]decimal.Decimal{
		"2024-01-15:EUR": decimal.RequireFromString("1.08"),
		"2024-02-10:EUR": decimal.RequireFromString("1.10"),
	}
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
			"Invoice_Amount": "750",
			"Currency":       "USD",
			"Invoice_Date":   "2024-02-01",
			"Due_Date":       "2024-02-20",
		},
	}
	today := day("2024-03-01")

	first, err := NewPipeline(newStubResolver(rates), 4).Process(context.Background(), rows, today)
	require.NoError(t, err)
	second, err := NewPipeline(newStubResolver(rates), 4).Process(context.Background(), rows, today)
	require.NoError(t, err)

	// Whole records must match, IDs included, so repeated runs over the
	// same input emit byte-identical output.
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(firstJSON), string(secondJSON))
}

func TestProcessCanceledContext(t *testing.T) {
	resolver := newStubResolver(nil)
	p := NewPipeline(resolver, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := []models.RawRow{
		{"Client": "Acme", "Invoice_Amount": "1", "Currency": "EUR", "Invoice_Date": "2024-01-01", "Due_Date": "2024-02-01"},
	}

	_, err := p.Process(ctx, rows, time.Now())
	assert.Error(t, err)
}
