// Package usecase implements the technical analysis business logic.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"trendsignal/internal/feature/analysis/domain"
	"trendsignal/internal/feature/analysis/domain/entity"
	"trendsignal/internal/feature/analysis/indicator"
	mdentity "trendsignal/internal/feature/marketdata/domain/entity"
)

// Settings holds the indicator windows and the alert threshold.
type Settings struct {
	EMAShort       int
	EMALong        int
	MACDSignal     int
	RSIPeriod      int
	VolumeWindow   int
	ScoreThreshold float64
}

// DefaultSettings returns the standard 12/26/9 MACD configuration with a
// 14-period RSI, a 5-period volume average and an alert threshold of 70.
func DefaultSettings() Settings {
	return Settings{
		EMAShort:       12,
		EMALong:        26,
		MACDSignal:     9,
		RSIPeriod:      14,
		VolumeWindow:   5,
		ScoreThreshold: 70,
	}
}

// Composite score weights. They sum to exactly 100.
const (
	weightMACD   = 25 // MACD line above its signal line
	weightEMA    = 25 // short EMA above long EMA
	weightVolume = 20 // latest volume above its trailing average
	weightPrice  = 15 // close above short EMA
	weightRSI    = 15 // RSI in neutral territory [40,60]
)

// AnalysisRepository persists analysis results.
// Following Go convention, the interface is defined by the consumer.
type AnalysisRepository interface {
	Save(ctx context.Context, record entity.Record) error
	Latest(ctx context.Context, symbol string) (*entity.Record, error)
}

// AnalyzeUsecase computes indicator values and the composite technical
// score from a normalized OHLCV table.
type AnalyzeUsecase struct {
	settings Settings
	history  AnalysisRepository
}

// NewAnalyzeUsecase creates a new AnalyzeUsecase. history may be nil, in
// which case results are computed but not persisted.
func NewAnalyzeUsecase(settings Settings, history AnalysisRepository) *AnalyzeUsecase {
	return &AnalyzeUsecase{settings: settings, history: history}
}

// MinHistory returns the minimum table length Analyze accepts.
func (au *AnalyzeUsecase) MinHistory() int {
	return au.settings.EMALong + au.settings.MACDSignal
}

// Analyze is a pure function over a newest-first candle table. Calling it
// twice on the same table yields identical results.
func (au *AnalyzeUsecase) Analyze(candles []mdentity.Candle) (entity.Result, error) {
	if len(candles) < au.MinHistory() {
		return entity.Result{}, fmt.Errorf("%w: need %d rows, got %d",
			domain.ErrInsufficientData, au.MinHistory(), len(candles))
	}

	// Indicator math runs oldest first; the fetcher hands tables newest first.
	closes := make([]float64, len(candles))
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		j := len(candles) - 1 - i
		closes[j] = c.Close
		volumes[j] = c.Volume
	}

	macdLine, signalLine, err := indicator.MACD(closes, au.settings.EMAShort, au.settings.EMALong, au.settings.MACDSignal)
	if err != nil {
		return entity.Result{}, err
	}
	emaShort, err := indicator.EMA(closes, au.settings.EMAShort)
	if err != nil {
		return entity.Result{}, err
	}
	emaLong, err := indicator.EMA(closes, au.settings.EMALong)
	if err != nil {
		return entity.Result{}, err
	}
	rsi, err := indicator.RSI(closes, au.settings.RSIPeriod)
	if err != nil {
		return entity.Result{}, err
	}

	last := len(closes) - 1
	r := entity.Result{
		MACD:       macdLine[last],
		MACDSignal: signalLine[last],
		EMAShort:   emaShort[last],
		EMALong:    emaLong[last],
		RSI:        rsi,
	}

	if r.MACD > r.MACDSignal {
		r.Score += weightMACD
	}
	if r.EMAShort > r.EMALong {
		r.Score += weightEMA
	}
	if volAvg, err := indicator.SMA(volumes, au.settings.VolumeWindow); err == nil && volumes[last] > volAvg {
		r.Score += weightVolume
	}
	if closes[last] > r.EMAShort {
		r.Score += weightPrice
	}
	if r.RSI >= 40 && r.RSI <= 60 {
		r.Score += weightRSI
	}
	return r, nil
}

// AnalyzeAndRecord analyzes the table and persists the result for the
// symbol, marking it as an alert when the score reaches the threshold.
func (au *AnalyzeUsecase) AnalyzeAndRecord(ctx context.Context, symbol string, candles []mdentity.Candle) (entity.Result, error) {
	r, err := au.Analyze(candles)
	if err != nil {
		return entity.Result{}, err
	}
	if au.history == nil {
		return r, nil
	}

	record := entity.Record{
		Symbol:         symbol,
		Timestamp:      time.Now().UTC(),
		Result:         r,
		AlertTriggered: r.Score >= au.settings.ScoreThreshold,
	}
	if err := au.history.Save(ctx, record); err != nil {
		// Persistence is secondary to returning the computed score.
		slog.Error("failed to save analysis", "symbol", symbol, "error", err)
	}
	return r, nil
}

// LatestAnalysis returns the most recent persisted analysis for a symbol,
// or nil when none exists.
func (au *AnalyzeUsecase) LatestAnalysis(ctx context.Context, symbol string) (*entity.Record, error) {
	if au.history == nil {
		return nil, nil
	}
	return au.history.Latest(ctx, symbol)
}
