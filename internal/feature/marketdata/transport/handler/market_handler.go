// Package handler provides the HTTP handlers of the marketdata feature.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	adomain "trendsignal/internal/feature/analysis/domain"
	aentity "trendsignal/internal/feature/analysis/domain/entity"
	"trendsignal/internal/feature/marketdata/domain"
	"trendsignal/internal/feature/marketdata/domain/entity"
	"trendsignal/internal/feature/marketdata/transport/http/dto"
)

// MarketUsecase is the fetcher surface the handlers consume.
// Following Go convention, interfaces are defined by the consumer (handler).
type MarketUsecase interface {
	GetIntradayData(ctx context.Context, symbol, interval string, market entity.MarketType, forceRefresh bool) ([]entity.Candle, bool, error)
	GetDailyData(ctx context.Context, symbol string, market entity.MarketType) ([]entity.Candle, bool, error)
	GetTopGainersLosers(ctx context.Context) ([]entity.Mover, []entity.Mover, error)
	GetCryptoSymbolList() []string
	StoreAnalysis(ctx context.Context, symbol string, market entity.MarketType, candles []entity.Candle, analysis aentity.Result) error
}

// AnalyzerUsecase is the analysis surface the handlers consume.
type AnalyzerUsecase interface {
	AnalyzeAndRecord(ctx context.Context, symbol string, candles []entity.Candle) (aentity.Result, error)
}

// MarketHandler handles market data and analysis HTTP requests.
type MarketHandler struct {
	market   MarketUsecase
	analyzer AnalyzerUsecase
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(market MarketUsecase, analyzer AnalyzerUsecase) *MarketHandler {
	return &MarketHandler{market: market, analyzer: analyzer}
}

// GetCandles returns the normalized OHLCV table for a symbol.
//
// GET /api/v1/candles/:symbol?interval=5min&market=stock&daily=false&refresh=false
func (h *MarketHandler) GetCandles(c *gin.Context) {
	symbol := c.Param("symbol")
	interval := c.DefaultQuery("interval", "5min")
	market := marketType(c.DefaultQuery("market", "stock"))
	refresh := c.DefaultQuery("refresh", "false") == "true"
	daily := c.DefaultQuery("daily", "false") == "true"

	var (
		candles []entity.Candle
		stale   bool
		err     error
	)
	if daily {
		candles, stale, err = h.market.GetDailyData(c.Request.Context(), symbol, market)
	} else {
		candles, stale, err = h.market.GetIntradayData(c.Request.Context(), symbol, interval, market, refresh)
	}
	if err != nil {
		c.JSON(statusFor(err), dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.CandlesResponse{
		Symbol:  symbol,
		Stale:   stale,
		Candles: toCandleResponses(candles),
	})
}

// GetAnalysis fetches the table for a symbol, computes the technical score
// bundle, records it and re-publishes the cache entry with the real score.
//
// GET /api/v1/analysis/:symbol?interval=5min&market=stock&refresh=false
func (h *MarketHandler) GetAnalysis(c *gin.Context) {
	symbol := c.Param("symbol")
	interval := c.DefaultQuery("interval", "5min")
	market := marketType(c.DefaultQuery("market", "stock"))
	refresh := c.DefaultQuery("refresh", "false") == "true"

	ctx := c.Request.Context()
	candles, stale, err := h.market.GetIntradayData(ctx, symbol, interval, market, refresh)
	if err != nil {
		c.JSON(statusFor(err), dto.ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.analyzer.AnalyzeAndRecord(ctx, symbol, candles)
	if err != nil {
		c.JSON(statusFor(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	// Best effort: the computed score replaces the placeholder in the cache.
	_ = h.market.StoreAnalysis(ctx, symbol, market, candles, result)

	c.JSON(http.StatusOK, dto.AnalysisResponse{
		Symbol:     symbol,
		Stale:      stale,
		Score:      result.Score,
		MACD:       result.MACD,
		MACDSignal: result.MACDSignal,
		EMAShort:   result.EMAShort,
		EMALong:    result.EMALong,
		RSI:        result.RSI,
	})
}

// GetTopMovers returns the market-wide top gainers and losers.
//
// GET /api/v1/movers
func (h *MarketHandler) GetTopMovers(c *gin.Context) {
	gainers, losers, err := h.market.GetTopGainersLosers(c.Request.Context())
	if err != nil {
		c.JSON(statusFor(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.MoversResponse{
		TopGainers: toMoverResponses(gainers),
		TopLosers:  toMoverResponses(losers),
	})
}

// GetCryptoSymbols returns the static supported cryptocurrency list.
//
// GET /api/v1/crypto/symbols
func (h *MarketHandler) GetCryptoSymbols(c *gin.Context) {
	c.JSON(http.StatusOK, h.market.GetCryptoSymbolList())
}

func marketType(s string) entity.MarketType {
	if s == string(entity.MarketCrypto) {
		return entity.MarketCrypto
	}
	return entity.MarketStock
}

// statusFor maps the domain failure taxonomy onto HTTP statuses. Rate
// limits are checked before the generic API error they wrap.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidSymbol):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRateLimit):
		return http.StatusTooManyRequests
	case errors.Is(err, adomain.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func toCandleResponses(candles []entity.Candle) []dto.CandleResponse {
	out := make([]dto.CandleResponse, 0, len(candles))
	for _, x := range candles {
		out = append(out, dto.CandleResponse{
			Time:   x.Time.UTC().Format(time.DateTime),
			Open:   x.Open,
			High:   x.High,
			Low:    x.Low,
			Close:  x.Close,
			Volume: x.Volume,
		})
	}
	return out
}

func toMoverResponses(movers []entity.Mover) []dto.MoverResponse {
	out := make([]dto.MoverResponse, 0, len(movers))
	for _, m := range movers {
		out = append(out, dto.MoverResponse{
			Ticker:           m.Ticker,
			Price:            m.Price,
			ChangeAmount:     m.ChangeAmount,
			ChangePercentage: m.ChangePercentage,
		})
	}
	return out
}
