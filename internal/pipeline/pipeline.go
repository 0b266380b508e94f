// Package pipeline converts batches of raw spreadsheet rows into fully
// derived invoice records in the reporting currency.
//
// Process is the sole entry point consumed by the presentation layer
// (tables, charts, CSV export, KPI summaries). Consumers read only the
// finished invoice slice and never see the rate cache or resolver.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"fxreport/internal/logger"
	"fxreport/pkg/models"
)

// RateResolver resolves the value of one unit of a currency in the
// reporting currency on a calendar date.
type RateResolver interface {
	Resolve(ctx context.Context, currency, date string) (decimal.Decimal, error)
}

// Pipeline orchestrates normalization, rate resolution and derivation for
// one batch of raw rows at a time.
type Pipeline struct {
	resolver    RateResolver
	concurrency int
	log         zerolog.Logger
}

// ratePair is one distinct (date, currency) combination needed by a batch.
type ratePair struct {
	date     string
	currency string
}

// NewPipeline creates a conversion pipeline. Concurrency bounds the number
// of rate lookups in flight during prefetch; values below 1 disable
// concurrent prefetching.
func NewPipeline(resolver RateResolver, concurrency int) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{
		resolver:    resolver,
		concurrency: concurrency,
		log:         logger.WithComponent("pipeline"),
	}
}

// Process converts a batch of raw rows into derived invoice records.
//
// Every row yields exactly one record, in input order; a malformed row
// degrades to defaulted fields and never aborts the batch. Status and aging
// derive from the explicit today parameter, so processing identical input
// against a stable rate source with a fixed today is idempotent.
//
// Rates are prefetched once per distinct (date, currency) pair appearing in
// the batch rather than resolved redundantly per row. The only error
// Process returns is context cancellation during prefetch.
func (p *Pipeline) Process(ctx context.Context, rows []models.RawRow, today time.Time) ([]models.Invoice, error) {
	const op = "Process"

	invoices := make([]models.Invoice, len(rows))
	for i, row := range rows {
		invoices[i] = Normalize(row, i)
	}

	rateTable, err := p.prefetchRates(ctx, invoices)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := range invoices {
		p.derive(&invoices[i], rateTable, today)
	}

	p.log.Info().
		Int("rows", len(rows)).
		Int("distinct_rate_keys", len(rateTable)).
		Msg("Batch processed")

	return invoices, nil
}

// prefetchRates collects the distinct (date, currency) pairs the batch
// needs and resolves them concurrently, bounded by the configured
// concurrency. Lookup failures are absorbed by the resolver's fallback
// policy, so the only error out of here is context cancellation.
func (p *Pipeline) prefetchRates(ctx context.Context, invoices []models.Invoice) (map[ratePair]decimal.Decimal, error) {
	seen := make(map[ratePair]struct{})
	for i := range invoices {
		inv := &invoices[i]
		if !inv.Foreign() {
			continue
		}
		if inv.InvoiceDate != "" {
			seen[ratePair{inv.InvoiceDate, inv.Currency}] = struct{}{}
		}
		if inv.PaymentDate != nil && inv.PaymentAmount != nil {
			seen[ratePair{*inv.PaymentDate, inv.Currency}] = struct{}{}
		}
	}

	pairs := make([]ratePair, 0, len(seen))
	for pair := range seen {
		pairs = append(pairs, pair)
	}
	// Deterministic lookup order keeps logs and tests stable.
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].date != pairs[j].date {
			return pairs[i].date < pairs[j].date
		}
		return pairs[i].currency < pairs[j].currency
	})

	rateTable := make(map[ratePair]decimal.Decimal, len(pairs))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.concurrency)

	for _, pair := range pairs {
		pair := pair
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			rate, err := p.resolver.Resolve(groupCtx, pair.currency, pair.date)
			if err != nil {
				// Row-level input problem; isolate it to the offending
				// rows by letting them fall back to the neutral rate.
				p.log.Warn().
					Str("currency", pair.currency).
					Str("date", pair.date).
					Err(err).
					Msg("Rate resolution rejected, rows will use the neutral rate")
				return nil
			}
			mu.Lock()
			rateTable[pair] = rate
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return rateTable, nil
}

// derive computes the derived fields of one normalized invoice in place.
func (p *Pipeline) derive(inv *models.Invoice, rateTable map[ratePair]decimal.Decimal, today time.Time) {
	invoiceRate := p.rateFor(inv, inv.InvoiceDate, rateTable)
	inv.USDAmountAtInvoice = inv.InvoiceAmount.Mul(invoiceRate)

	if inv.PaymentDate != nil && inv.PaymentAmount != nil {
		paymentRate := p.rateFor(inv, *inv.PaymentDate, rateTable)
		usdAtPayment := inv.PaymentAmount.Mul(paymentRate)
		inv.USDAmountAtPayment = &usdAtPayment

		// Gain/loss is defined as zero for non-foreign invoices even if
		// the computed amounts would differ by rounding.
		gainLoss := decimal.Zero
		if inv.Foreign() {
			gainLoss = usdAtPayment.Sub(inv.USDAmountAtInvoice)
		}
		inv.FXGainLoss = &gainLoss
	}

	inv.Status = ClassifyStatus(inv.PaymentDate, inv.DueDate, today)
	inv.DaysOutstanding = DaysOutstanding(inv.DueDate, today)
}

// rateFor looks up a prefetched rate, defaulting to the neutral rate for
// the reporting currency, missing dates, and pairs the prefetch could not
// resolve.
func (p *Pipeline) rateFor(inv *models.Invoice, date string, rateTable map[ratePair]decimal.Decimal) decimal.Decimal {
	if !inv.Foreign() || date == "" {
		return decimal.NewFromInt(1)
	}
	if rate, ok := rateTable[ratePair{date, inv.Currency}]; ok {
		return rate
	}
	return decimal.NewFromInt(1)
}
