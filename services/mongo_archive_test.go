package services

import (
	"testing"
	"time"

	"stock_portfolio_backend/services/recommender"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestSuggestionRun_EncodesPriceFields(t *testing.T) {
	run := SuggestionRun{
		ID:          uuid.NewString(),
		UserID:      "alice",
		GeneratedAt: time.Now(),
		Suggestions: recommender.NormalizeSuggestions([]recommender.Suggestion{{
			Symbol:        "AAPL",
			CurrentPrice:  decimal.NewFromFloat(185.32),
			ChangePercent: decimal.NewFromFloat(1.45),
			Action:        recommender.ActionBuy,
			Reason:        "Price above average",
			Confidence:    80.0,
			LastUpdated:   "2026-08-28T16:00:00Z",
		}}),
	}

	data, err := bson.Marshal(run)
	require.NoError(t, err)

	var decoded bson.M
	require.NoError(t, bson.Unmarshal(data, &decoded))

	archived, ok := decoded["suggestions"].(bson.A)
	require.True(t, ok)
	require.Len(t, archived, 1)

	first, ok := archived[0].(bson.M)
	require.True(t, ok)

	assert.Equal(t, "AAPL", first["symbol"])
	assert.Equal(t, 185.32, first["current_price"])
	assert.Equal(t, 1.45, first["change_percent"])
	assert.Equal(t, recommender.ActionBuy, first["action"])
	assert.Equal(t, 80.0, first["confidence"])
}

func TestMongoArchive_DisabledWithoutURI(t *testing.T) {
	require.NoError(t, InitMongoArchive(""))
	t.Cleanup(func() { GlobalMongoArchive = nil })

	assert.False(t, GlobalMongoArchive.IsEnabled())

	// No connection configured: archiving and pruning are no-ops
	GlobalMongoArchive.ArchiveRun("alice", nil)
	deleted, err := GlobalMongoArchive.PruneRuns()
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
