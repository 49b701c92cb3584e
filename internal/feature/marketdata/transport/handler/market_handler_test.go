package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	adomain "trendsignal/internal/feature/analysis/domain"
	aentity "trendsignal/internal/feature/analysis/domain/entity"
	"trendsignal/internal/feature/marketdata/domain"
	"trendsignal/internal/feature/marketdata/domain/entity"
	"trendsignal/internal/feature/marketdata/transport/http/dto"
)

type mockMarketUsecase struct {
	intradayFn func(ctx context.Context, symbol, interval string, market entity.MarketType, forceRefresh bool) ([]entity.Candle, bool, error)
	dailyFn    func(ctx context.Context, symbol string, market entity.MarketType) ([]entity.Candle, bool, error)
	moversFn   func(ctx context.Context) ([]entity.Mover, []entity.Mover, error)
	storeFn    func(ctx context.Context, symbol string, market entity.MarketType, candles []entity.Candle, analysis aentity.Result) error

	storeCalls int
}

func (m *mockMarketUsecase) GetIntradayData(ctx context.Context, symbol, interval string, market entity.MarketType, forceRefresh bool) ([]entity.Candle, bool, error) {
	if m.intradayFn != nil {
		return m.intradayFn(ctx, symbol, interval, market, forceRefresh)
	}
	return nil, false, nil
}

func (m *mockMarketUsecase) GetDailyData(ctx context.Context, symbol string, market entity.MarketType) ([]entity.Candle, bool, error) {
	if m.dailyFn != nil {
		return m.dailyFn(ctx, symbol, market)
	}
	return nil, false, nil
}

func (m *mockMarketUsecase) GetTopGainersLosers(ctx context.Context) ([]entity.Mover, []entity.Mover, error) {
	if m.moversFn != nil {
		return m.moversFn(ctx)
	}
	return []entity.Mover{}, []entity.Mover{}, nil
}

func (m *mockMarketUsecase) GetCryptoSymbolList() []string {
	return []string{"BTC", "ETH"}
}

func (m *mockMarketUsecase) StoreAnalysis(ctx context.Context, symbol string, market entity.MarketType, candles []entity.Candle, analysis aentity.Result) error {
	m.storeCalls++
	if m.storeFn != nil {
		return m.storeFn(ctx, symbol, market, candles, analysis)
	}
	return nil
}

type mockAnalyzer struct {
	analyzeFn func(ctx context.Context, symbol string, candles []entity.Candle) (aentity.Result, error)
}

func (m *mockAnalyzer) AnalyzeAndRecord(ctx context.Context, symbol string, candles []entity.Candle) (aentity.Result, error) {
	if m.analyzeFn != nil {
		return m.analyzeFn(ctx, symbol, candles)
	}
	return aentity.Result{}, nil
}

func perform(h http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	h.ServeHTTP(w, req)
	return w
}

func newTestRouter(market *mockMarketUsecase, analyzer *mockAnalyzer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewMarketHandler(market, analyzer)
	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.GET("/candles/:symbol", h.GetCandles)
	v1.GET("/analysis/:symbol", h.GetAnalysis)
	v1.GET("/movers", h.GetTopMovers)
	v1.GET("/crypto/symbols", h.GetCryptoSymbols)
	return r
}

func oneCandle() []entity.Candle {
	return []entity.Candle{{
		Time:   time.Date(2024, 1, 15, 10, 5, 0, 0, time.UTC),
		Open:   185.5, High: 186.5, Low: 185.0, Close: 186.0, Volume: 90000,
	}}
}

func TestGetCandles_Success(t *testing.T) {
	market := &mockMarketUsecase{
		intradayFn: func(_ context.Context, symbol, interval string, mt entity.MarketType, refresh bool) ([]entity.Candle, bool, error) {
			assert.Equal(t, "AAPL", symbol)
			assert.Equal(t, "5min", interval)
			assert.Equal(t, entity.MarketStock, mt)
			assert.False(t, refresh)
			return oneCandle(), false, nil
		},
	}
	r := newTestRouter(market, &mockAnalyzer{})

	w := perform(r, http.MethodGet, "/api/v1/candles/AAPL")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.CandlesResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "AAPL", resp.Symbol)
	assert.False(t, resp.Stale)
	if assert.Len(t, resp.Candles, 1) {
		assert.Equal(t, "2024-01-15 10:05:00", resp.Candles[0].Time)
		assert.Equal(t, 186.0, resp.Candles[0].Close)
	}
}

func TestGetCandles_QueryRouting(t *testing.T) {
	t.Run("daily flag routes to the daily fetch", func(t *testing.T) {
		dailyCalled := false
		market := &mockMarketUsecase{
			dailyFn: func(_ context.Context, symbol string, mt entity.MarketType) ([]entity.Candle, bool, error) {
				dailyCalled = true
				assert.Equal(t, entity.MarketCrypto, mt)
				return oneCandle(), false, nil
			},
		}
		r := newTestRouter(market, &mockAnalyzer{})

		w := perform(r, http.MethodGet, "/api/v1/candles/BTC?daily=true&market=crypto")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, dailyCalled)
	})

	t.Run("refresh flag is forwarded", func(t *testing.T) {
		market := &mockMarketUsecase{
			intradayFn: func(_ context.Context, _, _ string, _ entity.MarketType, refresh bool) ([]entity.Candle, bool, error) {
				assert.True(t, refresh)
				return oneCandle(), false, nil
			},
		}
		r := newTestRouter(market, &mockAnalyzer{})

		w := perform(r, http.MethodGet, "/api/v1/candles/AAPL?refresh=true")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown market falls back to stock", func(t *testing.T) {
		market := &mockMarketUsecase{
			intradayFn: func(_ context.Context, _, _ string, mt entity.MarketType, _ bool) ([]entity.Candle, bool, error) {
				assert.Equal(t, entity.MarketStock, mt)
				return oneCandle(), false, nil
			},
		}
		r := newTestRouter(market, &mockAnalyzer{})

		w := perform(r, http.MethodGet, "/api/v1/candles/AAPL?market=bonds")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetCandles_StaleFlag(t *testing.T) {
	market := &mockMarketUsecase{
		intradayFn: func(context.Context, string, string, entity.MarketType, bool) ([]entity.Candle, bool, error) {
			return oneCandle(), true, nil
		},
	}
	r := newTestRouter(market, &mockAnalyzer{})

	w := perform(r, http.MethodGet, "/api/v1/candles/AAPL")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.CandlesResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Stale)
}

func TestGetCandles_ErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid symbol", err: fmt.Errorf("%w: ZZZZZ", domain.ErrInvalidSymbol), want: http.StatusBadRequest},
		{name: "rate limit", err: fmt.Errorf("note: %w", domain.ErrRateLimit), want: http.StatusTooManyRequests},
		{name: "no data", err: fmt.Errorf("%w for symbol AAPL", domain.ErrNoData), want: http.StatusBadGateway},
		{name: "malformed response", err: domain.ErrMalformedResponse, want: http.StatusBadGateway},
		{name: "generic API failure", err: domain.ErrAPI, want: http.StatusBadGateway},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			market := &mockMarketUsecase{
				intradayFn: func(context.Context, string, string, entity.MarketType, bool) ([]entity.Candle, bool, error) {
					return nil, false, tt.err
				},
			}
			r := newTestRouter(market, &mockAnalyzer{})

			w := perform(r, http.MethodGet, "/api/v1/candles/AAPL")
			assert.Equal(t, tt.want, w.Code)

			var resp dto.ErrorResponse
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestGetAnalysis_Success(t *testing.T) {
	market := &mockMarketUsecase{
		intradayFn: func(context.Context, string, string, entity.MarketType, bool) ([]entity.Candle, bool, error) {
			return oneCandle(), false, nil
		},
	}
	analyzer := &mockAnalyzer{
		analyzeFn: func(_ context.Context, symbol string, candles []entity.Candle) (aentity.Result, error) {
			assert.Equal(t, "AAPL", symbol)
			assert.Len(t, candles, 1)
			return aentity.Result{Score: 85, MACD: 1.2, MACDSignal: 0.8, EMAShort: 105, EMALong: 101, RSI: 55}, nil
		},
	}
	r := newTestRouter(market, analyzer)

	w := perform(r, http.MethodGet, "/api/v1/analysis/AAPL")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.AnalysisResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "AAPL", resp.Symbol)
	assert.Equal(t, 85.0, resp.Score)
	assert.Equal(t, 55.0, resp.RSI)
	assert.Equal(t, 1, market.storeCalls, "computed score is re-published to the cache")
}

func TestGetAnalysis_InsufficientData(t *testing.T) {
	market := &mockMarketUsecase{
		intradayFn: func(context.Context, string, string, entity.MarketType, bool) ([]entity.Candle, bool, error) {
			return oneCandle(), false, nil
		},
	}
	analyzer := &mockAnalyzer{
		analyzeFn: func(context.Context, string, []entity.Candle) (aentity.Result, error) {
			return aentity.Result{}, fmt.Errorf("%w: need 35 rows, got 1", adomain.ErrInsufficientData)
		},
	}
	r := newTestRouter(market, analyzer)

	w := perform(r, http.MethodGet, "/api/v1/analysis/AAPL")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 0, market.storeCalls)
}

func TestGetAnalysis_FetchFailureShortCircuits(t *testing.T) {
	analyzed := false
	market := &mockMarketUsecase{
		intradayFn: func(context.Context, string, string, entity.MarketType, bool) ([]entity.Candle, bool, error) {
			return nil, false, fmt.Errorf("note: %w", domain.ErrRateLimit)
		},
	}
	analyzer := &mockAnalyzer{
		analyzeFn: func(context.Context, string, []entity.Candle) (aentity.Result, error) {
			analyzed = true
			return aentity.Result{}, nil
		},
	}
	r := newTestRouter(market, analyzer)

	w := perform(r, http.MethodGet, "/api/v1/analysis/AAPL")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.False(t, analyzed)
}

func TestGetTopMovers(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		market := &mockMarketUsecase{
			moversFn: func(context.Context) ([]entity.Mover, []entity.Mover, error) {
				return []entity.Mover{{Ticker: "UP", Price: 10.5, ChangeAmount: 2.5, ChangePercentage: "31.25%"}},
					[]entity.Mover{}, nil
			},
		}
		r := newTestRouter(market, &mockAnalyzer{})

		w := perform(r, http.MethodGet, "/api/v1/movers")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.MoversResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		if assert.Len(t, resp.TopGainers, 1) {
			assert.Equal(t, "UP", resp.TopGainers[0].Ticker)
		}
		assert.NotNil(t, resp.TopLosers)
		assert.Empty(t, resp.TopLosers)
	})

	t.Run("upstream failure maps to bad gateway", func(t *testing.T) {
		market := &mockMarketUsecase{
			moversFn: func(context.Context) ([]entity.Mover, []entity.Mover, error) {
				return nil, nil, fmt.Errorf("%w: status 500", domain.ErrAPI)
			},
		}
		r := newTestRouter(market, &mockAnalyzer{})

		w := perform(r, http.MethodGet, "/api/v1/movers")
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestGetCryptoSymbols(t *testing.T) {
	r := newTestRouter(&mockMarketUsecase{}, &mockAnalyzer{})

	w := perform(r, http.MethodGet, "/api/v1/crypto/symbols")
	assert.Equal(t, http.StatusOK, w.Code)

	var symbols []string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &symbols))
	assert.Equal(t, []string{"BTC", "ETH"}, symbols)
}
