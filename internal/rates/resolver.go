// Package rates resolves historical foreign-exchange rates against the
// reporting currency.
//
// A rate is the value of one unit of a currency expressed in the reporting
// currency on a given calendar date. Rates are fetched from a
// Frankfurter-style HTTP source, memoized per (date, currency) key, and
// de-duplicated in flight so concurrent resolution of the same key issues
// at most one external call.
//
// The resolver deliberately trades accuracy for availability: any failure
// to obtain a real rate (network error, timeout, malformed payload, missing
// rate field) is logged as a warning and the neutral fallback rate 1 is
// substituted, meaning "treat this amount as already in the reporting
// currency". The conversion pipeline must never halt because the rate
// source is unreachable.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"fxreport/internal/logger"
	"fxreport/pkg/models"
)

const dateLayout = "2006-01-02"

// fallbackRate is the neutral substitute used when a real rate cannot be
// obtained.
var fallbackRate = decimal.NewFromInt(1)

// Config holds configuration for the rate resolver.
type Config struct {
	// BaseURL is the root of the historical rate API, e.g.
	// "https://api.frankfurter.app". The resolver requests
	// {BaseURL}/{YYYY-MM-DD}?from={CUR}&to=USD.
	BaseURL string

	// Timeout bounds each external lookup. A hang in the rate source is
	// treated as a failure and falls back. Default: 10 seconds.
	Timeout time.Duration

	// HTTPClient overrides the HTTP client, mainly for tests. When set,
	// its own timeout configuration applies.
	HTTPClient *http.Client
}

// Resolver resolves currency rates against the reporting currency, caching
// each (date, currency) key for its lifetime. Construct one per processing
// run, or share one across runs to reuse the cache.
type Resolver struct {
	baseURL string
	client  *http.Client
	cache   *Cache
	group   singleflight.Group
	log     zerolog.Logger
}

// ratePayload is the subset of the rate source response we read.
type ratePayload struct {
	Rates map[string]decimal.Decimal `json:"rates"`
}

// NewResolver creates a rate resolver backed by a fresh cache.
func NewResolver(cfg Config) *Resolver {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Resolver{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client:  client,
		cache:   NewCache(),
		log:     logger.WithComponent("rates"),
	}
}

// Resolve returns the value of one unit of currency in the reporting
// currency on the given date.
//
// The reporting currency itself resolves to 1 without consulting the cache
// or the external source. An empty currency fails fast with
// ErrInvalidCurrency. Every other failure mode is recovered by substituting
// the fallback rate, so a non-nil error is only ever ErrInvalidCurrency.
//
// Repeated resolution of the same (currency, date) within the resolver's
// lifetime returns the same value and issues at most one external call,
// even under concurrent resolution of the same key.
func (r *Resolver) Resolve(ctx context.Context, currency, date string) (decimal.Decimal, error) {
	const op = "Resolve"

	if strings.TrimSpace(currency) == "" {
		return decimal.Zero, fmt.Errorf("%s: %w", op, ErrInvalidCurrency)
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == models.ReportingCurrency {
		return fallbackRate, nil
	}

	day, err := normalizeDate(date)
	if err != nil {
		r.log.Warn().
			Str("currency", currency).
			Str("date", date).
			Err(err).
			Msg("Unusable rate date, substituting fallback rate")
		return fallbackRate, nil
	}

	if rate, ok := r.cache.Get(day, currency); ok {
		return rate, nil
	}

	// Single-flight per key: concurrent resolvers for an in-flight key
	// await the first result instead of issuing duplicate requests.
	v, _, _ := r.group.Do(cacheKey(day, currency), func() (interface{}, error) {
		if rate, ok := r.cache.Get(day, currency); ok {
			return rate, nil
		}

		rate, err := r.fetchRate(ctx, currency, day)
		if err != nil {
			r.log.Warn().
				Str("currency", currency).
				Str("date", day).
				Err(err).
				Msg("Rate lookup failed, substituting fallback rate")
			rate = fallbackRate
		}

		// Fallbacks are cached too, so repeated resolution of a key stays
		// idempotent within a run even when the source is flapping.
		r.cache.Put(day, currency, rate)
		return rate, nil
	})

	return v.(decimal.Decimal), nil
}

// CacheSize returns the number of cached (date, currency) keys.
func (r *Resolver) CacheSize() int {
	return r.cache.Size()
}

// fetchRate issues one external lookup for the historical rate of currency
// against the reporting currency on day (already normalized).
func (r *Resolver) fetchRate(ctx context.Context, currency, day string) (decimal.Decimal, error) {
	const op = "fetchRate"

	lookupURL := fmt.Sprintf("%s/%s?from=%s&to=%s",
		r.baseURL, day, url.QueryEscape(currency), models.ReportingCurrency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w: %w", op, ErrRateUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%s: %w: unexpected status %d", op, ErrRateUnavailable, resp.StatusCode)
	}

	var payload ratePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w: malformed response: %w", op, ErrRateUnavailable, err)
	}

	rate, ok := payload.Rates[models.ReportingCurrency]
	if !ok {
		return decimal.Zero, fmt.Errorf("%s: %w: rate field missing from response", op, ErrRateUnavailable)
	}

	r.log.Debug().
		Str("currency", currency).
		Str("date", day).
		Str("rate", rate.String()).
		Msg("Historical rate resolved")

	return rate, nil
}

// normalizeDate canonicalizes a date string to YYYY-MM-DD so cache keys and
// lookup URLs never diverge by format.
func normalizeDate(date string) (string, error) {
	cleaned := strings.TrimSpace(date)
	if cleaned == "" {
		return "", fmt.Errorf("empty date string")
	}

	formats := []string{
		dateLayout,        // 2006-01-02
		time.RFC3339,      // 2006-01-02T15:04:05Z07:00
		"2006-01-02 15:04:05",
		"01/02/2006",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, cleaned); err == nil {
			return t.Format(dateLayout), nil
		}
	}
	return "", fmt.Errorf("unable to parse date: %s", date)
}
