package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"trendsignal/internal/feature/analysis/domain/entity"
	"trendsignal/internal/feature/analysis/usecase"
)

type analysisGorm struct {
	db *gorm.DB
}

var _ usecase.AnalysisRepository = (*analysisGorm)(nil)

// NewAnalysisRepository creates the gorm-backed analysis history repository.
func NewAnalysisRepository(db *gorm.DB) *analysisGorm {
	return &analysisGorm{db: db}
}

// AnalysisModel is the persisted form of one analysis result.
type AnalysisModel struct {
	ID        uint      `gorm:"primaryKey"`
	Symbol    string    `gorm:"size:32;not null;index:analysis_sym_time,priority:1"`
	Timestamp time.Time `gorm:"not null;index:analysis_sym_time,priority:2"`

	Score          float64 `gorm:"not null"`
	MACD           float64 `gorm:"not null"`
	MACDSignal     float64 `gorm:"not null"`
	EMAShort       float64 `gorm:"not null"`
	EMALong        float64 `gorm:"not null"`
	RSI            float64 `gorm:"not null"`
	AlertTriggered bool    `gorm:"not null;default:false"`
}

func (AnalysisModel) TableName() string {
	return "stock_analysis"
}

func toModel(r entity.Record) AnalysisModel {
	return AnalysisModel{
		Symbol:         r.Symbol,
		Timestamp:      r.Timestamp,
		Score:          r.Result.Score,
		MACD:           r.Result.MACD,
		MACDSignal:     r.Result.MACDSignal,
		EMAShort:       r.Result.EMAShort,
		EMALong:        r.Result.EMALong,
		RSI:            r.Result.RSI,
		AlertTriggered: r.AlertTriggered,
	}
}

func toRecord(m AnalysisModel) *entity.Record {
	return &entity.Record{
		Symbol:    m.Symbol,
		Timestamp: m.Timestamp,
		Result: entity.Result{
			Score:      m.Score,
			MACD:       m.MACD,
			MACDSignal: m.MACDSignal,
			EMAShort:   m.EMAShort,
			EMALong:    m.EMALong,
			RSI:        m.RSI,
		},
		AlertTriggered: m.AlertTriggered,
	}
}

// Save appends one analysis record. History is append-only.
func (r *analysisGorm) Save(ctx context.Context, record entity.Record) error {
	m := toModel(record)
	return r.db.WithContext(ctx).Create(&m).Error
}

// Latest returns the most recent record for a symbol, or nil when the
// symbol has never been analyzed.
func (r *analysisGorm) Latest(ctx context.Context, symbol string) (*entity.Record, error) {
	var m AnalysisModel
	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("timestamp DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toRecord(m), nil
}
