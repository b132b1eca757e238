package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Holding represents one position in a user's portfolio
type Holding struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"index:idx_user_symbol,unique" json:"user_id"`
	User      User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Symbol    string          `gorm:"index:idx_user_symbol,unique;not null" json:"symbol"`
	Quantity  int64           `json:"quantity"`
	BuyPrice  decimal.Decimal `gorm:"type:decimal(15,2)" json:"buy_price"`
	BuyDate   string          `json:"buy_date"` // Format: "YYYY-MM-DD"
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Validate checks holding fields before persistence
func (h *Holding) Validate() error {
	if h.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if h.Quantity <= 0 {
		return fmt.Errorf("quantity must be greater than zero")
	}
	if h.BuyPrice.IsNegative() {
		return fmt.Errorf("buy price cannot be negative")
	}
	if h.BuyDate != "" {
		if _, err := time.Parse("2006-01-02", h.BuyDate); err != nil {
			return fmt.Errorf("buy date must be in YYYY-MM-DD format")
		}
	}
	return nil
}

// MigratePortfolioModels runs database migrations for portfolio models
func MigratePortfolioModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&Holding{},
	)
}
