package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Provider constants
const (
	AlphaVantageBaseURL = "https://www.alphavantage.co/query"
	DefaultMinInterval  = 15 * time.Second // free tier: 4 calls/minute
	SMAPeriod           = 50
	RSIPeriod           = 14
)

// AlphaVantageService wraps the Alpha Vantage API behind a throttle and a TTL
// cache. Cache hits never count against the rate budget; misses pay the
// minimum inter-call interval before going upstream.
type AlphaVantageService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      *TTLCache
	throttle   *Throttle
	store      SeriesStore
}

// NewAlphaVantageService creates a gateway with the given API key, cache and
// throttle settings. store may be nil; when set, fetched daily series are
// persisted to it and it serves as the fallback source on provider failure.
func NewAlphaVantageService(apiKey string, cacheMaxSize int, cacheTTL, minInterval time.Duration, store SeriesStore) *AlphaVantageService {
	if apiKey == "" {
		apiKey = "demo"
	}
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	return &AlphaVantageService{
		apiKey:     apiKey,
		baseURL:    AlphaVantageBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      NewTTLCache(cacheMaxSize, cacheTTL),
		throttle:   NewThrottle(minInterval),
		store:      store,
	}
}

// SetBaseURL overrides the provider endpoint (used by tests)
func (s *AlphaVantageService) SetBaseURL(u string) {
	s.baseURL = u
}

// Cache returns the shared TTL cache
func (s *AlphaVantageService) Cache() *TTLCache {
	return s.cache
}

// GetQuote returns a real-time quote for symbol with caching and throttling.
// Returns ErrNoData when the provider has no payload for the symbol.
func (s *AlphaVantageService) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	cacheKey := "quote:" + symbol
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.(*Quote), nil
	}

	if err := s.throttle.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("throttle wait aborted for %s: %w", symbol, err)
	}

	body, err := s.call(ctx, url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {symbol},
	})
	if err != nil {
		log.Printf("Failed to get quote for %s: %v", symbol, err)
		return nil, err
	}

	var resp struct {
		GlobalQuote map[string]string `json:"Global Quote"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Printf("Failed to parse quote for %s: %v", symbol, err)
		return nil, fmt.Errorf("failed to parse quote response: %w", err)
	}
	if len(resp.GlobalQuote) == 0 {
		return nil, ErrNoData
	}

	price, err := decimal.NewFromString(resp.GlobalQuote["05. price"])
	if err != nil {
		return nil, fmt.Errorf("invalid price field: %w", err)
	}
	changePercent, err := decimal.NewFromString(strings.TrimSuffix(resp.GlobalQuote["10. change percent"], "%"))
	if err != nil {
		return nil, fmt.Errorf("invalid change percent field: %w", err)
	}
	volume, err := strconv.ParseInt(resp.GlobalQuote["06. volume"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid volume field: %w", err)
	}

	quote := &Quote{
		Symbol:        symbol,
		CurrentPrice:  price,
		ChangePercent: changePercent,
		Volume:        volume,
		LastRefreshed: resp.GlobalQuote["07. latest trading day"],
		UpdatedAt:     time.Now(),
	}

	s.cache.Put(cacheKey, quote)
	return quote, nil
}

// GetTechnicalIndicators returns SMA-50 and RSI-14 for symbol. The two
// sub-calls each pay the throttle interval; if either fails the whole
// operation fails rather than returning a partial record.
func (s *AlphaVantageService) GetTechnicalIndicators(ctx context.Context, symbol string) (*TechnicalIndicators, error) {
	cacheKey := "tech:" + symbol
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.(*TechnicalIndicators), nil
	}

	sma, err := s.fetchIndicator(ctx, symbol, "SMA", SMAPeriod)
	if err != nil {
		log.Printf("Failed to get technicals for %s: %v", symbol, err)
		return nil, err
	}

	rsi, err := s.fetchIndicator(ctx, symbol, "RSI", RSIPeriod)
	if err != nil {
		log.Printf("Failed to get technicals for %s: %v", symbol, err)
		return nil, err
	}

	indicators := &TechnicalIndicators{
		Symbol:    symbol,
		SMA50:     sma,
		RSI14:     rsi,
		UpdatedAt: time.Now(),
	}

	s.cache.Put(cacheKey, indicators)
	return indicators, nil
}

// GetDailySeries returns recent daily closes for symbol, most recent last.
// On provider failure it falls back to the local series store when one is
// configured; successful fetches are written through to the store.
func (s *AlphaVantageService) GetDailySeries(ctx context.Context, symbol string) (*PriceSeries, error) {
	cacheKey := "daily:" + symbol
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.(*PriceSeries), nil
	}

	points, err := s.fetchDailySeries(ctx, symbol)
	if err != nil {
		if s.store != nil {
			stored, loadErr := s.store.LoadSeries(symbol, 0)
			if loadErr == nil && len(stored) > 0 {
				log.Printf("Using stored price series for %s (provider fetch failed: %v)", symbol, err)
				series := &PriceSeries{Symbol: symbol, Points: stored}
				s.cache.Put(cacheKey, series)
				return series, nil
			}
		}
		return nil, err
	}

	series := &PriceSeries{Symbol: symbol, Points: points}
	s.cache.Put(cacheKey, series)

	if s.store != nil {
		if saveErr := s.store.SaveSeries(symbol, points); saveErr != nil {
			log.Printf("Warning: failed to store price series for %s: %v", symbol, saveErr)
		}
	}
	return series, nil
}

// fetchDailySeries performs the throttled TIME_SERIES_DAILY call
func (s *AlphaVantageService) fetchDailySeries(ctx context.Context, symbol string) ([]PricePoint, error) {
	if err := s.throttle.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("throttle wait aborted for %s: %w", symbol, err)
	}

	body, err := s.call(ctx, url.Values{
		"function":   {"TIME_SERIES_DAILY"},
		"symbol":     {symbol},
		"outputsize": {"compact"},
	})
	if err != nil {
		log.Printf("Failed to get daily series for %s: %v", symbol, err)
		return nil, err
	}

	var resp struct {
		Series map[string]map[string]string `json:"Time Series (Daily)"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse daily series response: %w", err)
	}
	if len(resp.Series) == 0 {
		return nil, ErrNoData
	}

	points := make([]PricePoint, 0, len(resp.Series))
	for date, fields := range resp.Series {
		closePrice, err := strconv.ParseFloat(fields["4. close"], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid close for %s on %s: %w", symbol, date, err)
		}
		points = append(points, PricePoint{Date: date, Close: closePrice})
	}

	// Provider keys by date; order oldest first so the most recent close is last
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points, nil
}

// fetchIndicator performs one throttled technical-indicator call and returns
// the most recent reading
func (s *AlphaVantageService) fetchIndicator(ctx context.Context, symbol, function string, period int) (decimal.Decimal, error) {
	if err := s.throttle.Acquire(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("throttle wait aborted for %s: %w", symbol, err)
	}

	body, err := s.call(ctx, url.Values{
		"function":    {function},
		"symbol":      {symbol},
		"interval":    {"daily"},
		"time_period": {strconv.Itoa(period)},
		"series_type": {"close"},
	})
	if err != nil {
		return decimal.Zero, err
	}

	var resp map[string]json.RawMessage
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse %s response: %w", function, err)
	}

	var readings map[string]map[string]string
	if raw, ok := resp["Technical Analysis: "+function]; ok {
		if err := json.Unmarshal(raw, &readings); err != nil {
			return decimal.Zero, fmt.Errorf("failed to parse %s readings: %w", function, err)
		}
	}
	if len(readings) == 0 {
		return decimal.Zero, ErrNoData
	}

	// Most recent trading day is the greatest date key
	latest := ""
	for date := range readings {
		if date > latest {
			latest = date
		}
	}

	value, err := decimal.NewFromString(readings[latest][function])
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s value: %w", function, err)
	}
	return value, nil
}

// call performs a single HTTP request against the provider and returns the
// raw body. Provider rate-limit notes are surfaced as errors so callers never
// mistake them for data.
func (s *AlphaVantageService) call(ctx context.Context, params url.Values) ([]byte, error) {
	params.Set("apikey", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var note struct {
		Note        string `json:"Note"`
		Information string `json:"Information"`
	}
	if err := json.Unmarshal(body, &note); err == nil {
		if note.Note != "" {
			return nil, fmt.Errorf("provider rate limit: %s", note.Note)
		}
		if note.Information != "" {
			return nil, fmt.Errorf("provider notice: %s", note.Information)
		}
	}

	return body, nil
}
