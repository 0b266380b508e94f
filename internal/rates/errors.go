package rates

import "errors"

// Common rate resolution errors
var (
	// ErrInvalidCurrency is returned when a rate is requested for an empty
	// currency code. There is no sensible default to substitute, so the
	// resolver fails fast instead of guessing.
	ErrInvalidCurrency = errors.New("currency code is empty")

	// ErrRateUnavailable indicates the external rate source failed, timed
	// out, or returned a malformed payload. It is recovered inside the
	// resolver by substituting the neutral fallback rate and never reaches
	// callers of Resolve.
	ErrRateUnavailable = errors.New("historical rate unavailable")
)
