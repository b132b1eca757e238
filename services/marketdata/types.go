package marketdata

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoData signals that the provider returned an empty payload for a symbol.
// It is an expected outcome, distinct from a network or parsing failure.
var ErrNoData = errors.New("no data returned by provider")

// Quote represents a real-time quote normalized from the provider response.
// Quotes are immutable once constructed; a refresh produces a new value.
type Quote struct {
	Symbol        string          `json:"symbol"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Volume        int64           `json:"volume"`
	LastRefreshed string          `json:"last_refreshed"` // provider-supplied trading day
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TechnicalIndicators holds the SMA-50 and RSI-14 readings for a symbol
type TechnicalIndicators struct {
	Symbol    string          `json:"symbol"`
	SMA50     decimal.Decimal `json:"sma_50"`
	RSI14     decimal.Decimal `json:"rsi_14"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PricePoint is a single daily close
type PricePoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// PriceSeries is an ordered sequence of daily closes, most recent last
type PriceSeries struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

// Closes returns the close values in series order
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}

// SeriesStore persists fetched daily series locally so the gateway can fall
// back to stale data when the provider is unreachable
type SeriesStore interface {
	SaveSeries(symbol string, points []PricePoint) error
	LoadSeries(symbol string, limit int) ([]PricePoint, error)
}
