// Package usecase implements the fetch/cache orchestration for market data.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	aentity "trendsignal/internal/feature/analysis/domain/entity"
	"trendsignal/internal/feature/marketdata/domain"
	"trendsignal/internal/feature/marketdata/domain/entity"
	"trendsignal/internal/feature/marketdata/normalize"
	"trendsignal/internal/platform/externalapi/alphavantage/dto"
)

const (
	// FreshTTL bounds the primary cache path.
	FreshTTL = 5 * time.Minute
	// StaleTTL bounds the degraded fallback served after a rate limit.
	StaleTTL = 15 * time.Minute

	// cryptoIntradayLimit emulates intraday-scale freshness when an
	// intraday request is answered from the daily-only crypto endpoint.
	cryptoIntradayLimit = 100
)

// QuoteProvider abstracts the upstream market data API.
// Following Go convention, interfaces are defined by the consumer (usecase).
type QuoteProvider interface {
	FetchIntraday(ctx context.Context, symbol, interval string) (dto.RawPayload, error)
	FetchDaily(ctx context.Context, symbol string) (dto.RawPayload, error)
	FetchCryptoDaily(ctx context.Context, symbol string) (dto.RawPayload, error)
	FetchTopMovers(ctx context.Context) (dto.TopMoversPayload, error)
}

// SnapshotCache abstracts the tiered snapshot store.
type SnapshotCache interface {
	Get(ctx context.Context, symbol string, maxAge time.Duration) ([]entity.Candle, bool)
	Put(ctx context.Context, symbol string, candles []entity.Candle, analysis aentity.Result) error
}

// FetchUsecase composes provider, normalizer and cache. Per request it
// makes at most one provider call and at most two cache reads (fresh tier,
// then the stale tier only after a rate limit).
type FetchUsecase struct {
	provider QuoteProvider
	cache    SnapshotCache
}

// NewFetchUsecase creates a new FetchUsecase.
func NewFetchUsecase(provider QuoteProvider, cache SnapshotCache) *FetchUsecase {
	return &FetchUsecase{provider: provider, cache: cache}
}

// GetIntradayData returns the intraday table for a symbol, newest first.
// The boolean reports whether the table was served stale from the
// rate-limit fallback tier. forceRefresh skips the fresh cache tier
// entirely and always calls the provider.
func (fu *FetchUsecase) GetIntradayData(ctx context.Context, symbol, interval string, market entity.MarketType, forceRefresh bool) ([]entity.Candle, bool, error) {
	key := CacheKey(symbol, market)

	if !forceRefresh {
		if cs, ok := fu.cache.Get(ctx, key, FreshTTL); ok {
			return cs, false, nil
		}
	}
	if strings.TrimSpace(symbol) == "" {
		return nil, false, fmt.Errorf("%w: empty symbol", domain.ErrInvalidSymbol)
	}

	var (
		raw   dto.RawPayload
		err   error
		limit int
	)
	if market == entity.MarketCrypto {
		// The provider has no intraday crypto series; the daily series is
		// truncated by the normalizer to approximate one.
		raw, err = fu.provider.FetchCryptoDaily(ctx, strings.ToUpper(strings.TrimSpace(symbol)))
		limit = cryptoIntradayLimit
	} else {
		raw, err = fu.provider.FetchIntraday(ctx, symbol, interval)
	}
	if err != nil {
		return fu.fallback(ctx, key, err)
	}
	cs, err := fu.finish(ctx, key, raw, market, limit)
	return cs, false, err
}

// GetDailyData returns the daily table for a symbol, newest first, with the
// same cache and fallback policy as GetIntradayData.
func (fu *FetchUsecase) GetDailyData(ctx context.Context, symbol string, market entity.MarketType) ([]entity.Candle, bool, error) {
	key := CacheKey(symbol, market)

	if cs, ok := fu.cache.Get(ctx, key, FreshTTL); ok {
		return cs, false, nil
	}
	if strings.TrimSpace(symbol) == "" {
		return nil, false, fmt.Errorf("%w: empty symbol", domain.ErrInvalidSymbol)
	}

	var (
		raw dto.RawPayload
		err error
	)
	if market == entity.MarketCrypto {
		raw, err = fu.provider.FetchCryptoDaily(ctx, strings.ToUpper(strings.TrimSpace(symbol)))
	} else {
		raw, err = fu.provider.FetchDaily(ctx, symbol)
	}
	if err != nil {
		return fu.fallback(ctx, key, err)
	}
	cs, err := fu.finish(ctx, key, raw, market, 0)
	return cs, false, err
}

// GetTopGainersLosers is a stateless pass-through to the provider's top
// movers listing. Movers are not symbol-keyed, so there is no cache and no
// fallback. Empty provider lists yield empty, non-nil slices.
func (fu *FetchUsecase) GetTopGainersLosers(ctx context.Context) ([]entity.Mover, []entity.Mover, error) {
	payload, err := fu.provider.FetchTopMovers(ctx)
	if err != nil {
		return nil, nil, err
	}

	gainers, err := toMovers(payload.TopGainers)
	if err != nil {
		return nil, nil, err
	}
	losers, err := toMovers(payload.TopLosers)
	if err != nil {
		return nil, nil, err
	}
	return gainers, losers, nil
}

// GetCryptoSymbolList returns the static list of supported cryptocurrency
// symbols. This is not an API call.
func (fu *FetchUsecase) GetCryptoSymbolList() []string {
	return []string{"BTC", "ETH", "USDT", "BNB", "XRP", "ADA", "DOGE", "SOL", "DOT", "MATIC"}
}

// StoreAnalysis re-publishes the cache entry for a symbol with its real
// score bundle, so the fetch path's zero placeholder does not mask a
// computed score.
func (fu *FetchUsecase) StoreAnalysis(ctx context.Context, symbol string, market entity.MarketType, candles []entity.Candle, analysis aentity.Result) error {
	return fu.cache.Put(ctx, CacheKey(symbol, market), candles, analysis)
}

// CacheKey formats the symbol used as cache key. Crypto symbols carry the
// USD pair suffix, so market type is implicit in the key.
func CacheKey(symbol string, market entity.MarketType) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if market == entity.MarketCrypto && s != "" {
		return s + "USD"
	}
	return s
}

// fallback serves the stale cache tier after a rate limit. Any other
// provider failure propagates unchanged.
func (fu *FetchUsecase) fallback(ctx context.Context, key string, cause error) ([]entity.Candle, bool, error) {
	if !errors.Is(cause, domain.ErrRateLimit) {
		return nil, false, cause
	}
	if cs, ok := fu.cache.Get(ctx, key, StaleTTL); ok {
		slog.Warn("rate limited, serving stale cached data", "symbol", key)
		return cs, true, nil
	}
	return nil, false, cause
}

// finish normalizes a successful payload and writes it through to the
// cache with a placeholder score bundle.
func (fu *FetchUsecase) finish(ctx context.Context, key string, raw dto.RawPayload, market entity.MarketType, limit int) ([]entity.Candle, error) {
	cs, err := normalize.Normalize(raw, market, limit)
	if err != nil {
		return nil, err
	}
	if len(cs) == 0 {
		return nil, fmt.Errorf("%w for symbol %s", domain.ErrNoData, key)
	}
	if err := fu.cache.Put(ctx, key, cs, aentity.Result{}); err != nil {
		// A failed cache write must not fail the fetch.
		slog.Warn("failed to cache snapshot", "symbol", key, "error", err)
	}
	return cs, nil
}

func toMovers(raw []dto.Mover) ([]entity.Mover, error) {
	out := make([]entity.Mover, 0, len(raw))
	for _, m := range raw {
		price, err := strconv.ParseFloat(m.Price, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: parse price %q", domain.ErrMalformedResponse, m.Price)
		}
		change, err := strconv.ParseFloat(m.ChangeAmount, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: parse change amount %q", domain.ErrMalformedResponse, m.ChangeAmount)
		}
		out = append(out, entity.Mover{
			Ticker:           m.Ticker,
			Price:            price,
			ChangeAmount:     change,
			ChangePercentage: m.ChangePercentage,
		})
	}
	return out, nil
}
