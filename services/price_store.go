package services

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"stock_portfolio_backend/services/marketdata"

	_ "github.com/mattn/go-sqlite3"
)

// PriceStore retention window
const PriceRetentionDays = 730 // ~2 years of daily closes

// PriceStore persists daily closes locally so price series survive provider
// outages and process restarts
type PriceStore struct {
	db *sql.DB
	mu sync.Mutex
}

// Global price store instance
var GlobalPriceStore *PriceStore

// InitPriceStore opens (or creates) the local price database
func InitPriceStore(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open price store: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS daily_prices (
		symbol TEXT NOT NULL,
		date   TEXT NOT NULL,
		close  REAL NOT NULL,
		PRIMARY KEY (symbol, date)
	);
	CREATE INDEX IF NOT EXISTS idx_daily_prices_symbol ON daily_prices(symbol);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return fmt.Errorf("failed to create price store schema: %w", err)
	}

	GlobalPriceStore = &PriceStore{db: db}
	log.Println("Price store initialized")
	return nil
}

// SaveSeries upserts the given daily closes for symbol
func (ps *PriceStore) SaveSeries(symbol string, points []marketdata.PricePoint) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	tx, err := ps.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO daily_prices (symbol, date, close) VALUES (?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET close = excluded.close`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.Exec(symbol, p.Date, p.Close); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert price for %s on %s: %w", symbol, p.Date, err)
		}
	}

	return tx.Commit()
}

// LoadSeries returns the stored closes for symbol ordered oldest first.
// limit <= 0 returns all stored rows.
func (ps *PriceStore) LoadSeries(symbol string, limit int) ([]marketdata.PricePoint, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	query := `SELECT date, close FROM daily_prices WHERE symbol = ? ORDER BY date DESC`
	args := []interface{}{symbol}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := ps.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load prices for %s: %w", symbol, err)
	}
	defer rows.Close()

	var points []marketdata.PricePoint
	for rows.Next() {
		var p marketdata.PricePoint
		if err := rows.Scan(&p.Date, &p.Close); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to oldest first so the most recent close is last
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

// Prune removes rows older than the retention window and returns the number
// of rows deleted
func (ps *PriceStore) Prune() (int64, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -PriceRetentionDays).Format("2006-01-02")
	result, err := ps.db.Exec(`DELETE FROM daily_prices WHERE date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune price store: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the underlying database
func (ps *PriceStore) Close() error {
	return ps.db.Close()
}
