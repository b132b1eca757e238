package scheduler

import (
	"context"
	"log"
	"time"

	"stock_portfolio_backend/models"
	"stock_portfolio_backend/services"
	"stock_portfolio_backend/services/marketdata"

	"github.com/go-co-op/gocron"
	"gorm.io/gorm"
)

// Per-symbol budget for scheduled provider calls. Generous because every
// miss pays the throttle interval.
const symbolFetchTimeout = 2 * time.Minute

// Scheduler manages scheduled jobs
type Scheduler struct {
	cron    *gocron.Scheduler
	db      *gorm.DB
	gateway *marketdata.AlphaVantageService
}

// NewScheduler creates a new scheduler instance
func NewScheduler(db *gorm.DB, gateway *marketdata.AlphaVantageService) *Scheduler {
	return &Scheduler{
		cron:    gocron.NewScheduler(time.UTC),
		db:      db,
		gateway: gateway,
	}
}

// Start starts all scheduled jobs
func (s *Scheduler) Start() {
	log.Println("Starting scheduler...")

	// Warm the quote cache for held symbols every 5 minutes during trading hours
	s.cron.Every(5).Minutes().Do(func() {
		if isMarketOpen() {
			s.warmQuoteCache()
		}
	})

	// Sync daily price series after market close
	s.cron.Every(1).Day().At("21:30").Do(func() {
		s.syncDailySeries()
	})

	// Prune old data weekly on Sunday at 01:00
	s.cron.Every(1).Week().Sunday().At("01:00").Do(func() {
		s.pruneOldData()
	})

	s.cron.StartAsync()
	log.Println("Scheduler started successfully")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Scheduler stopped")
}

// heldSymbols returns the distinct symbols across all portfolios
func (s *Scheduler) heldSymbols() []string {
	var symbols []string
	if err := s.db.Model(&models.Holding{}).Distinct("symbol").Order("symbol").Pluck("symbol", &symbols).Error; err != nil {
		log.Printf("Error loading held symbols: %v", err)
		return nil
	}
	return symbols
}

// warmQuoteCache refreshes quotes for all held symbols so API reads and the
// realtime stream hit a warm cache. Spend is still governed by the throttle.
func (s *Scheduler) warmQuoteCache() {
	symbols := s.heldSymbols()
	if len(symbols) == 0 {
		return
	}

	log.Printf("Warming quote cache for %d symbols", len(symbols))
	for _, symbol := range symbols {
		ctx, cancel := context.WithTimeout(context.Background(), symbolFetchTimeout)
		_, err := s.gateway.GetQuote(ctx, symbol)
		cancel()
		if err != nil {
			log.Printf("Error warming quote for %s: %v", symbol, err)
		}
	}
}

// syncDailySeries fetches the daily series for held symbols, which also
// writes them through to the local price store
func (s *Scheduler) syncDailySeries() {
	symbols := s.heldSymbols()
	if len(symbols) == 0 {
		return
	}

	log.Printf("Syncing daily series for %d symbols", len(symbols))
	for _, symbol := range symbols {
		ctx, cancel := context.WithTimeout(context.Background(), symbolFetchTimeout)
		_, err := s.gateway.GetDailySeries(ctx, symbol)
		cancel()
		if err != nil {
			log.Printf("Error syncing series for %s: %v", symbol, err)
		}
	}
}

// pruneOldData removes aged rows from the price store and the suggestion
// archive
func (s *Scheduler) pruneOldData() {
	if services.GlobalPriceStore != nil {
		deleted, err := services.GlobalPriceStore.Prune()
		if err != nil {
			log.Printf("Error pruning price store: %v", err)
		} else if deleted > 0 {
			log.Printf("Pruned %d rows from price store", deleted)
		}
	}

	if services.GlobalMongoArchive != nil {
		deleted, err := services.GlobalMongoArchive.PruneRuns()
		if err != nil {
			log.Printf("Error pruning suggestion archive: %v", err)
		} else if deleted > 0 {
			log.Printf("Pruned %d archived suggestion runs", deleted)
		}
	}
}

// isMarketOpen reports whether US markets are in regular trading hours
func isMarketOpen() bool {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return false
	}
	now := time.Now().In(loc)

	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return false
	}

	open := time.Date(now.Year(), now.Month(), now.Day(), 9, 30, 0, 0, loc)
	close := time.Date(now.Year(), now.Month(), now.Day(), 16, 0, 0, 0, loc)
	return now.After(open) && now.Before(close)
}
