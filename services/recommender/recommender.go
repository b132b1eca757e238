package recommender

import (
	"context"
	"fmt"
	"log"
	"time"

	"stock_portfolio_backend/models"
	"stock_portfolio_backend/services/marketdata"

	"github.com/shopspring/decimal"
)

// Suggestion actions
const (
	ActionBuy  = "Buy"
	ActionHold = "Hold"
	ActionSell = "Sell"
)

// MinSeriesPoints is the number of closes needed to compute a percent change.
// A meaningful average wants ~30 observations (one month of trading days) but
// the rule degrades gracefully down to two.
const MinSeriesPoints = 2

// Suggestion is one per-symbol recommendation. It is either a success record
// or an error record: when Error is set, only Symbol and LastUpdated are
// meaningful.
type Suggestion struct {
	Symbol        string          `json:"symbol"`
	CurrentPrice  decimal.Decimal `json:"current_price,omitempty"`
	ChangePercent decimal.Decimal `json:"change_percent,omitempty"`
	Action        string          `json:"action,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	Confidence    float64         `json:"confidence,omitempty"`
	LastUpdated   string          `json:"last_updated"`
	Error         string          `json:"error,omitempty"`
}

// SeriesSource provides recent daily closes for a symbol, most recent last
type SeriesSource interface {
	GetDailySeries(ctx context.Context, symbol string) (*marketdata.PriceSeries, error)
}

// Recommender derives buy/hold suggestions for portfolio holdings with
// per-symbol failure isolation and canned fallbacks when no per-item
// processing is possible.
type Recommender struct {
	loader BundleLoader
	series SeriesSource
}

// NewRecommender creates a recommender over the given bundle loader and
// price-series source
func NewRecommender(loader BundleLoader, series SeriesSource) *Recommender {
	return &Recommender{
		loader: loader,
		series: series,
	}
}

// GenerateSmartSuggestions produces one Suggestion per holding. The result is
// always a valid list: model unavailability degrades the whole batch to a
// single canned fallback, an empty portfolio yields a single sample entry,
// and any per-symbol failure becomes an error record without affecting the
// remaining symbols.
func (r *Recommender) GenerateSmartSuggestions(ctx context.Context, holdings []models.Holding) []Suggestion {
	// The trained models gate the feature: without a complete bundle no
	// partial success is possible. The threshold rule below does not invoke
	// their inference paths.
	bundle := r.loader.Load()
	if bundle == nil {
		log.Println("Recommendation degraded: ML models unavailable")
		return []Suggestion{fallbackSuggestion()}
	}

	if len(holdings) == 0 {
		log.Println("No stocks in portfolio - returning sample data")
		return []Suggestion{sampleSuggestion()}
	}

	suggestions := make([]Suggestion, 0, len(holdings))
	for _, holding := range holdings {
		suggestion, err := r.suggestForSymbol(ctx, holding.Symbol)
		if err != nil {
			log.Printf("Error processing %s: %v", holding.Symbol, err)
			suggestions = append(suggestions, Suggestion{
				Symbol:      holding.Symbol,
				Error:       err.Error(),
				LastUpdated: time.Now().Format(time.RFC3339),
			})
			continue
		}
		suggestions = append(suggestions, suggestion)
	}

	return suggestions
}

// suggestForSymbol fetches the recent series for one symbol and applies the
// mean-price threshold rule
func (r *Recommender) suggestForSymbol(ctx context.Context, symbol string) (Suggestion, error) {
	series, err := r.series.GetDailySeries(ctx, symbol)
	if err != nil {
		return Suggestion{}, err
	}
	closes := series.Closes()
	if len(closes) < MinSeriesPoints {
		return Suggestion{}, marketdata.ErrNoData
	}

	currentPrice := closes[len(closes)-1]
	previousPrice := closes[len(closes)-2]
	if previousPrice == 0 {
		// A zero prior close would make the percent change infinite
		return Suggestion{}, fmt.Errorf("previous close for %s is zero", symbol)
	}

	sum := 0.0
	for _, c := range closes {
		sum += c
	}
	mean := sum / float64(len(closes))
	changePercent := (currentPrice - previousPrice) / previousPrice * 100

	suggestion := Suggestion{
		Symbol:        symbol,
		CurrentPrice:  decimal.NewFromFloat(currentPrice).Round(2),
		ChangePercent: decimal.NewFromFloat(changePercent).Round(2),
		LastUpdated:   time.Now().Format(time.RFC3339),
	}

	if currentPrice > mean {
		suggestion.Action = ActionBuy
		suggestion.Reason = "Price above average"
		suggestion.Confidence = 80.0
	} else {
		suggestion.Action = ActionHold
		suggestion.Reason = "Price below average"
		suggestion.Confidence = 60.0
	}

	return suggestion, nil
}

// sampleSuggestion is returned for a valid but empty portfolio
func sampleSuggestion() Suggestion {
	return Suggestion{
		Symbol:        "AAPL",
		CurrentPrice:  decimal.NewFromFloat(185.32),
		ChangePercent: decimal.NewFromFloat(1.45),
		Action:        ActionBuy,
		Reason:        "Sample data - add stocks to your portfolio",
		Confidence:    75.0,
		LastUpdated:   time.Now().Format(time.RFC3339),
	}
}

// fallbackSuggestion is returned when no per-symbol processing is possible
func fallbackSuggestion() Suggestion {
	return Suggestion{
		Symbol:        "GOOGL",
		CurrentPrice:  decimal.NewFromFloat(135.25),
		ChangePercent: decimal.NewFromFloat(0.85),
		Action:        ActionHold,
		Reason:        "Fallback data - system error",
		Confidence:    50.0,
		LastUpdated:   time.Now().Format(time.RFC3339),
	}
}
