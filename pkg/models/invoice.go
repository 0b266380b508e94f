package models

import "github.com/shopspring/decimal"

// ReportingCurrency is the single currency all invoice amounts are
// normalized to for comparison and aggregation.
const ReportingCurrency = "USD"

// Status is the lifecycle state of an invoice.
type Status string

const (
	// StatusOutstanding means the invoice is unpaid and not yet past due.
	StatusOutstanding Status = "Outstanding"

	// StatusPaid means a payment date has been recorded. Payment presence
	// always dominates, regardless of how late the payment was.
	StatusPaid Status = "Paid"

	// StatusOverdue means the invoice is unpaid and its due date has passed.
	StatusOverdue Status = "Overdue"
)

// RawRow is one row of an uploaded invoice spreadsheet: column name to raw
// cell text, exactly as the tabular source produced it.
type RawRow map[string]string

// Invoice is the canonical invoice record, one per input row.
//
// The USDAmount*, FXGainLoss, Status and DaysOutstanding fields are derived
// by the conversion pipeline and are a pure function of the remaining fields
// plus the rates resolved for the relevant dates. They are never
// user-supplied.
type Invoice struct {
	// Core fields parsed from the input row
	ID            string          `json:"id"`
	Client        string          `json:"client"`
	InvoiceAmount decimal.Decimal `json:"invoice_amount"`
	Currency      string          `json:"currency"`

	// Calendar dates as ISO strings; empty if absent. PaymentDate is nil
	// (never an empty string) when no payment is recorded; its presence is
	// the status-classification signal.
	InvoiceDate string  `json:"invoice_date"`
	DueDate     string  `json:"due_date"`
	PaymentDate *string `json:"payment_date,omitempty"`

	// PaymentAmount is nil when no payment amount was supplied. Omission
	// means "no payment recorded", which is distinct from a recorded
	// payment of zero.
	PaymentAmount *decimal.Decimal `json:"payment_amount,omitempty"`

	// Derived fields
	USDAmountAtInvoice decimal.Decimal  `json:"usd_amount_at_invoice"`
	USDAmountAtPayment *decimal.Decimal `json:"usd_amount_at_payment,omitempty"`
	FXGainLoss         *decimal.Decimal `json:"fx_gain_loss,omitempty"`
	Status             Status           `json:"status"`
	DaysOutstanding    int              `json:"days_outstanding"`
}

// Paid reports whether a payment date has been recorded for the invoice.
func (inv *Invoice) Paid() bool {
	return inv.PaymentDate != nil
}

// Foreign reports whether the invoice is denominated in a currency other
// than the reporting currency.
func (inv *Invoice) Foreign() bool {
	return inv.Currency != ReportingCurrency
}
