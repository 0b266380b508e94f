package report

import (
	"github.com/shopspring/decimal"

	"fxreport/pkg/models"
)

// Summary aggregates a processed batch for KPI display. All totals are in
// the reporting currency.
type Summary struct {
	TotalInvoices int `json:"total_invoices"`

	Outstanding int `json:"outstanding"`
	Paid        int `json:"paid"`
	Overdue     int `json:"overdue"`

	// TotalUSDInvoiced sums usd_amount_at_invoice over every invoice.
	TotalUSDInvoiced decimal.Decimal `json:"total_usd_invoiced"`

	// TotalUSDOutstanding sums usd_amount_at_invoice over unpaid invoices.
	TotalUSDOutstanding decimal.Decimal `json:"total_usd_outstanding"`

	// TotalFXGainLoss sums realized gain/loss over paid foreign invoices.
	TotalFXGainLoss decimal.Decimal `json:"total_fx_gain_loss"`

	// MaxDaysOutstanding is the worst aging in the batch.
	MaxDaysOutstanding int `json:"max_days_outstanding"`
}

// Summarize aggregates derived invoice records into batch KPIs.
func Summarize(invoices []models.Invoice) Summary {
	summary := Summary{
		TotalInvoices:       len(invoices),
		TotalUSDInvoiced:    decimal.Zero,
		TotalUSDOutstanding: decimal.Zero,
		TotalFXGainLoss:     decimal.Zero,
	}

	for i := range invoices {
		inv := &invoices[i]

		switch inv.Status {
		case models.StatusPaid:
			summary.Paid++
		case models.StatusOverdue:
			summary.Overdue++
		default:
			summary.Outstanding++
		}

		summary.TotalUSDInvoiced = summary.TotalUSDInvoiced.Add(inv.USDAmountAtInvoice)
		if !inv.Paid() {
			summary.TotalUSDOutstanding = summary.TotalUSDOutstanding.Add(inv.USDAmountAtInvoice)
		}
		if inv.FXGainLoss != nil {
			summary.TotalFXGainLoss = summary.TotalFXGainLoss.Add(*inv.FXGainLoss)
		}
		if inv.DaysOutstanding > summary.MaxDaysOutstanding {
			summary.MaxDaysOutstanding = inv.DaysOutstanding
		}
	}

	return summary
}
