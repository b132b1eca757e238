package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory SeriesStore for testing fallback behavior
type memStore struct {
	series  map[string][]PricePoint
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{series: make(map[string][]PricePoint)}
}

func (m *memStore) SaveSeries(symbol string, points []PricePoint) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.series[symbol] = points
	return nil
}

func (m *memStore) LoadSeries(symbol string, limit int) ([]PricePoint, error) {
	points, ok := m.series[symbol]
	if !ok {
		return nil, nil
	}
	if limit > 0 && len(points) > limit {
		points = points[len(points)-limit:]
	}
	return points, nil
}

func newTestService(t *testing.T, handler http.HandlerFunc, store SeriesStore) *AlphaVantageService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc := NewAlphaVantageService("test-key", 100, time.Minute, time.Millisecond, store)
	svc.SetBaseURL(server.URL)
	return svc
}

func quoteHandler(calls *int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(calls, 1)
		fmt.Fprint(w, `{"Global Quote": {
			"01. symbol": "AAPL",
			"05. price": "185.3200",
			"06. volume": "52164500",
			"07. latest trading day": "2026-08-28",
			"10. change percent": "1.4500%"
		}}`)
	}
}

func TestGetQuote_ParsesProviderFields(t *testing.T) {
	var calls int64
	svc := newTestService(t, quoteHandler(&calls), nil)

	quote, err := svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, "185.32", quote.CurrentPrice.String())
	assert.Equal(t, "1.45", quote.ChangePercent.String())
	assert.Equal(t, int64(52164500), quote.Volume)
	assert.Equal(t, "2026-08-28", quote.LastRefreshed)
}

func TestGetQuote_CacheHitSkipsProvider(t *testing.T) {
	var calls int64
	svc := newTestService(t, quoteHandler(&calls), nil)

	first, err := svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := svc.GetQuote(context.Background(), "AAPL")
		require.NoError(t, err)
		assert.Same(t, first, again)
	}

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls), "repeat lookups within the TTL must not hit the provider")
}

func TestGetQuote_EmptyPayloadIsNoData(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Global Quote": {}}`)
	}, nil)

	_, err := svc.GetQuote(context.Background(), "NOPE")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestGetQuote_RateLimitNoteIsAnError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`)
	}, nil)

	_, err := svc.GetQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoData)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestGetTechnicalIndicators_CombinesBothCalls(t *testing.T) {
	var calls int64
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		switch r.URL.Query().Get("function") {
		case "SMA":
			fmt.Fprint(w, `{"Technical Analysis: SMA": {
				"2026-08-27": {"SMA": "178.1000"},
				"2026-08-28": {"SMA": "180.5000"}
			}}`)
		case "RSI":
			fmt.Fprint(w, `{"Technical Analysis: RSI": {
				"2026-08-28": {"RSI": "62.3000"}
			}}`)
		default:
			http.Error(w, "unexpected function", http.StatusBadRequest)
		}
	}, nil)

	indicators, err := svc.GetTechnicalIndicators(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", indicators.Symbol)
	assert.Equal(t, "180.5", indicators.SMA50.String(), "must pick the most recent reading")
	assert.Equal(t, "62.3", indicators.RSI14.String())
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))

	// Second lookup is served from cache
	_, err = svc.GetTechnicalIndicators(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestGetTechnicalIndicators_PartialFailureFailsWhole(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("function") == "SMA" {
			fmt.Fprint(w, `{"Technical Analysis: SMA": {"2026-08-28": {"SMA": "180.5000"}}}`)
			return
		}
		http.Error(w, "upstream error", http.StatusInternalServerError)
	}, nil)

	_, err := svc.GetTechnicalIndicators(context.Background(), "AAPL")
	require.Error(t, err)

	// No partial record may be cached
	_, ok := svc.Cache().Get("tech:AAPL")
	assert.False(t, ok)
}

func TestGetDailySeries_OrdersOldestFirstAndPersists(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Time Series (Daily)": {
			"2026-08-28": {"4. close": "185.3200"},
			"2026-08-26": {"4. close": "180.1000"},
			"2026-08-27": {"4. close": "183.0000"}
		}}`)
	}, store)

	series, err := svc.GetDailySeries(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, series.Points, 3)

	assert.Equal(t, "2026-08-26", series.Points[0].Date)
	assert.Equal(t, "2026-08-28", series.Points[2].Date)
	assert.Equal(t, []float64{180.10, 183.00, 185.32}, series.Closes())

	saved, err := store.LoadSeries("AAPL", 0)
	require.NoError(t, err)
	assert.Len(t, saved, 3, "fetched series must be written through to the store")
}

func TestGetDailySeries_FallsBackToStoreOnProviderFailure(t *testing.T) {
	store := newMemStore()
	store.series["AAPL"] = []PricePoint{
		{Date: "2026-08-27", Close: 183.00},
		{Date: "2026-08-28", Close: 185.32},
	}
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusServiceUnavailable)
	}, store)

	series, err := svc.GetDailySeries(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, []float64{183.00, 185.32}, series.Closes())
}

func TestGetDailySeries_NoFallbackAvailableSurfacesError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusServiceUnavailable)
	}, newMemStore())

	_, err := svc.GetDailySeries(context.Background(), "AAPL")
	require.Error(t, err)
}

func TestGetDailySeries_StoreWriteFailureDoesNotFailFetch(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("disk full")
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Time Series (Daily)": {"2026-08-28": {"4. close": "185.3200"}}}`)
	}, store)

	series, err := svc.GetDailySeries(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Len(t, series.Points, 1)
}
