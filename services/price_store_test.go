package services

import (
	"path/filepath"
	"testing"

	"stock_portfolio_backend/services/marketdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPriceStore(t *testing.T) *PriceStore {
	t.Helper()
	require.NoError(t, InitPriceStore(filepath.Join(t.TempDir(), "market.db")))
	store := GlobalPriceStore
	t.Cleanup(func() {
		store.Close()
		GlobalPriceStore = nil
	})
	return store
}

func TestPriceStore_SaveAndLoadOrdersOldestFirst(t *testing.T) {
	store := newTestPriceStore(t)

	points := []marketdata.PricePoint{
		{Date: "2026-08-26", Close: 180.10},
		{Date: "2026-08-27", Close: 183.00},
		{Date: "2026-08-28", Close: 185.32},
	}
	require.NoError(t, store.SaveSeries("AAPL", points))

	loaded, err := store.LoadSeries("AAPL", 0)
	require.NoError(t, err)
	assert.Equal(t, points, loaded)
}

func TestPriceStore_LimitKeepsMostRecentRows(t *testing.T) {
	store := newTestPriceStore(t)

	require.NoError(t, store.SaveSeries("AAPL", []marketdata.PricePoint{
		{Date: "2026-08-26", Close: 180.10},
		{Date: "2026-08-27", Close: 183.00},
		{Date: "2026-08-28", Close: 185.32},
	}))

	loaded, err := store.LoadSeries("AAPL", 2)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "2026-08-27", loaded[0].Date)
	assert.Equal(t, "2026-08-28", loaded[1].Date)
}

func TestPriceStore_SaveIsAnUpsert(t *testing.T) {
	store := newTestPriceStore(t)

	require.NoError(t, store.SaveSeries("AAPL", []marketdata.PricePoint{
		{Date: "2026-08-28", Close: 185.32},
	}))
	require.NoError(t, store.SaveSeries("AAPL", []marketdata.PricePoint{
		{Date: "2026-08-28", Close: 186.00},
	}))

	loaded, err := store.LoadSeries("AAPL", 0)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 186.00, loaded[0].Close)
}

func TestPriceStore_SymbolsAreIsolated(t *testing.T) {
	store := newTestPriceStore(t)

	require.NoError(t, store.SaveSeries("AAPL", []marketdata.PricePoint{{Date: "2026-08-28", Close: 185.32}}))
	require.NoError(t, store.SaveSeries("MSFT", []marketdata.PricePoint{{Date: "2026-08-28", Close: 415.00}}))

	loaded, err := store.LoadSeries("AAPL", 0)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 185.32, loaded[0].Close)

	missing, err := store.LoadSeries("TSLA", 0)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestPriceStore_PruneRemovesOldRows(t *testing.T) {
	store := newTestPriceStore(t)

	require.NoError(t, store.SaveSeries("AAPL", []marketdata.PricePoint{
		{Date: "2019-01-02", Close: 39.48},
		{Date: "2026-08-28", Close: 185.32},
	}))

	deleted, err := store.Prune()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	loaded, err := store.LoadSeries("AAPL", 0)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "2026-08-28", loaded[0].Date)
}
