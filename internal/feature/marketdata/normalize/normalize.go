// Package normalize maps provider-specific time-series payloads onto the
// canonical OHLCV table.
package normalize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"trendsignal/internal/feature/marketdata/domain"
	"trendsignal/internal/feature/marketdata/domain/entity"
	"trendsignal/internal/platform/externalapi/alphavantage/dto"
)

// Equity payloads label columns with numeric prefixes; crypto payloads add a
// letter and a currency suffix (e.g. "1a. open (USD)").
const (
	colOpen   = "open"
	colHigh   = "high"
	colLow    = "low"
	colClose  = "close"
	colVolume = "volume"
)

// Normalize converts a raw payload into a canonical table sorted newest
// first. limit > 0 truncates to the most recent limit rows after sorting,
// used when an intraday request is served from a daily-only crypto
// endpoint. Close and volume are mandatory per row; for crypto sources a
// missing open/high/low falls back to close.
func Normalize(raw dto.RawPayload, market entity.MarketType, limit int) ([]entity.Candle, error) {
	candles := make([]entity.Candle, 0, len(raw.Series))
	for ts, fields := range raw.Series {
		t, err := parseTimestamp(ts)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
		}

		cols, err := canonicalColumns(fields, market)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ts, err)
		}

		c := entity.Candle{Time: t}
		if c.Close, err = parseColumn(cols, colClose, ts); err != nil {
			return nil, err
		}
		if c.Volume, err = parseColumn(cols, colVolume, ts); err != nil {
			return nil, err
		}
		c.Open = optionalColumn(cols, colOpen, c.Close)
		c.High = optionalColumn(cols, colHigh, c.Close)
		c.Low = optionalColumn(cols, colLow, c.Close)

		if err := validate(c); err != nil {
			return nil, fmt.Errorf("%s: %w", ts, err)
		}
		candles = append(candles, c)
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Time.After(candles[j].Time)
	})
	if limit > 0 && len(candles) > limit {
		candles = candles[:limit]
	}
	return candles, nil
}

// canonicalColumns renames provider field names to canonical column names.
// For crypto only the USD-denominated variants are selected; newer payloads
// that drop the currency suffix are accepted as-is.
func canonicalColumns(fields map[string]string, market entity.MarketType) (map[string]string, error) {
	cols := make(map[string]string, len(fields))
	for name, value := range fields {
		base, currency := splitFieldName(name)
		if market == entity.MarketCrypto && currency != "" && currency != "USD" {
			continue
		}
		cols[base] = value
	}

	required := []string{colClose, colVolume}
	if market == entity.MarketStock {
		required = []string{colOpen, colHigh, colLow, colClose, colVolume}
	}
	for _, col := range required {
		if _, ok := cols[col]; !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrMissingColumns, col)
		}
	}
	return cols, nil
}

// splitFieldName strips the "1a. " style prefix and an optional " (USD)"
// style currency suffix, returning the bare column name and the currency.
func splitFieldName(name string) (base, currency string) {
	base = name
	if i := strings.Index(base, ". "); i >= 0 {
		base = base[i+2:]
	}
	if i := strings.LastIndex(base, " ("); i >= 0 && strings.HasSuffix(base, ")") {
		currency = base[i+2 : len(base)-1]
		base = base[:i]
	}
	return strings.TrimSpace(base), currency
}

func parseColumn(cols map[string]string, col, ts string) (float64, error) {
	s, ok := cols[col]
	if !ok {
		return 0, fmt.Errorf("%s: %w: %s", ts, domain.ErrMissingColumns, col)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: parse %s %q", ts, domain.ErrMalformedResponse, col, s)
	}
	return v, nil
}

func optionalColumn(cols map[string]string, col string, fallback float64) float64 {
	s, ok := cols[col]
	if !ok {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
		}
	}
	return t, nil
}

func validate(c entity.Candle) error {
	if c.Open < 0 || c.High < 0 || c.Low < 0 || c.Close < 0 {
		return fmt.Errorf("%w: negative price", domain.ErrMalformedResponse)
	}
	if c.High < c.Low {
		return fmt.Errorf("%w: high %f below low %f", domain.ErrMalformedResponse, c.High, c.Low)
	}
	return nil
}
