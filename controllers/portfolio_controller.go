package controllers

import (
	"net/http"

	"stock_portfolio_backend/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PortfolioController handles portfolio holdings requests
type PortfolioController struct {
	db *gorm.DB
}

// NewPortfolioController creates a new portfolio controller
func NewPortfolioController(db *gorm.DB) *PortfolioController {
	return &PortfolioController{db: db}
}

// currentUser resolves the authenticated user from the request context
func (pc *PortfolioController) currentUser(c *gin.Context) (*models.User, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in token"})
		return nil, false
	}

	var user models.User
	if err := pc.db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return nil, false
	}
	return &user, true
}

// GetHoldings returns the authenticated user's holdings
// GET /api/v1/portfolio
func (pc *PortfolioController) GetHoldings(c *gin.Context) {
	user, ok := pc.currentUser(c)
	if !ok {
		return
	}

	var holdings []models.Holding
	if err := pc.db.Where("user_id = ?", user.ID).Order("symbol").Find(&holdings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch holdings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stocks": holdings})
}

// HoldingRequest is the payload for adding or replacing a holding
type HoldingRequest struct {
	Symbol   string          `json:"symbol" binding:"required"`
	Quantity int64           `json:"quantity" binding:"required"`
	BuyPrice decimal.Decimal `json:"buy_price" binding:"required"`
	BuyDate  string          `json:"buy_date" binding:"required"`
}

// AddHolding adds a position to the user's portfolio, replacing any existing
// position for the same symbol
// POST /api/v1/portfolio
func (pc *PortfolioController) AddHolding(c *gin.Context) {
	user, ok := pc.currentUser(c)
	if !ok {
		return
	}

	var req HoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	holding := models.Holding{
		UserID:   user.ID,
		Symbol:   req.Symbol,
		Quantity: req.Quantity,
		BuyPrice: req.BuyPrice,
		BuyDate:  req.BuyDate,
	}

	if err := holding.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.Holding
	err := pc.db.Where("user_id = ? AND symbol = ?", user.ID, holding.Symbol).First(&existing).Error
	if err == nil {
		existing.Quantity = holding.Quantity
		existing.BuyPrice = holding.BuyPrice
		existing.BuyDate = holding.BuyDate
		if err := pc.db.Save(&existing).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update holding"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Holding updated", "holding": existing})
		return
	}
	if err != gorm.ErrRecordNotFound {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check holding"})
		return
	}

	if err := pc.db.Create(&holding).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create holding"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Holding added", "holding": holding})
}

// DeleteHolding removes a position by symbol
// DELETE /api/v1/portfolio/:symbol
func (pc *PortfolioController) DeleteHolding(c *gin.Context) {
	user, ok := pc.currentUser(c)
	if !ok {
		return
	}

	symbol := c.Param("symbol")
	result := pc.db.Where("user_id = ? AND symbol = ?", user.ID, symbol).Delete(&models.Holding{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete holding"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Holding not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Holding removed"})
}
