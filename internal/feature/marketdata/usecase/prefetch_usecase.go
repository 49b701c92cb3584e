package usecase

import (
	"context"
	"log/slog"

	"trendsignal/internal/feature/marketdata/domain/entity"
	"trendsignal/internal/shared/ratelimiter"
)

// MarketFetcher is the slice of FetchUsecase the prefetcher needs.
type MarketFetcher interface {
	GetDailyData(ctx context.Context, symbol string, market entity.MarketType) ([]entity.Candle, bool, error)
	GetCryptoSymbolList() []string
}

// PrefetchUsecase warms the snapshot cache for a set of symbols, pacing
// provider calls with the shared rate limiter.
type PrefetchUsecase struct {
	fetcher     MarketFetcher
	rateLimiter ratelimiter.RateLimiterInterface
}

// NewPrefetchUsecase creates a new PrefetchUsecase.
func NewPrefetchUsecase(fetcher MarketFetcher, rateLimiter ratelimiter.RateLimiterInterface) *PrefetchUsecase {
	return &PrefetchUsecase{fetcher: fetcher, rateLimiter: rateLimiter}
}

// PrefetchAll fetches daily data for every equity symbol and every
// supported crypto symbol. A failing symbol is logged and skipped so one
// bad symbol cannot abort the batch.
func (pu *PrefetchUsecase) PrefetchAll(ctx context.Context, stockSymbols []string) error {
	for _, s := range stockSymbols {
		pu.prefetchOne(ctx, s, entity.MarketStock)
	}
	for _, s := range pu.fetcher.GetCryptoSymbolList() {
		pu.prefetchOne(ctx, s, entity.MarketCrypto)
	}
	return ctx.Err()
}

func (pu *PrefetchUsecase) prefetchOne(ctx context.Context, symbol string, market entity.MarketType) {
	if ctx.Err() != nil {
		return
	}
	pu.rateLimiter.WaitIfNeeded()
	if _, _, err := pu.fetcher.GetDailyData(ctx, symbol, market); err != nil {
		slog.Error("failed to prefetch data", "symbol", symbol, "market", market, "error", err)
		return
	}
	slog.Info("prefetched data", "symbol", symbol, "market", market)
}
