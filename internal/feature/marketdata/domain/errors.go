// Package domain defines domain-level errors for the marketdata feature.
package domain

import (
	"errors"
	"fmt"
)

// Failure taxonomy for quote fetching. Handlers and callers branch on these
// with errors.Is, so every error leaving the feature wraps one of them.
var (
	// ErrInvalidSymbol indicates that the symbol failed basic validation or
	// that the provider reported an invalid API call for it.
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrAPI covers transport failures, non-200 statuses and any in-band
	// provider error without a more specific classification.
	ErrAPI = errors.New("api error")

	// ErrRateLimit is the provider's call-frequency limit. It wraps ErrAPI,
	// so errors.Is(err, ErrAPI) also holds for rate-limited requests.
	ErrRateLimit = fmt.Errorf("%w: API rate limit reached", ErrAPI)

	// ErrNoData indicates a well-formed response carrying an empty series.
	ErrNoData = errors.New("no data returned")

	// ErrMalformedResponse indicates a 200 body lacking the expected
	// time-series schema and any recognized error marker.
	ErrMalformedResponse = errors.New("unexpected response format")

	// ErrMissingColumns indicates a series row lacking a required OHLCV
	// column after renaming.
	ErrMissingColumns = errors.New("missing required columns")
)
