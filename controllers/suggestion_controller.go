package controllers

import (
	"net/http"

	"stock_portfolio_backend/models"
	"stock_portfolio_backend/services"
	"stock_portfolio_backend/services/recommender"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SuggestionController handles smart suggestion requests
type SuggestionController struct {
	db          *gorm.DB
	recommender *recommender.Recommender
}

// NewSuggestionController creates a new suggestion controller
func NewSuggestionController(db *gorm.DB, rec *recommender.Recommender) *SuggestionController {
	return &SuggestionController{db: db, recommender: rec}
}

// GetSmartSuggestions returns per-holding buy/hold suggestions for the
// authenticated user. Users with no holdings get an empty list without
// invoking the pipeline; otherwise the pipeline result is normalized to
// portable primitives before serialization.
// GET /api/v1/suggestions/smart
func (sc *SuggestionController) GetSmartSuggestions(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID not found in token"})
		return
	}

	var user models.User
	if err := sc.db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var holdings []models.Holding
	if err := sc.db.Where("user_id = ?", user.ID).Find(&holdings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch holdings"})
		return
	}

	if len(holdings) == 0 {
		c.JSON(http.StatusOK, gin.H{"suggestions": []interface{}{}})
		return
	}

	suggestions := sc.recommender.GenerateSmartSuggestions(c.Request.Context(), holdings)

	if services.GlobalMongoArchive != nil {
		go services.GlobalMongoArchive.ArchiveRun(userID, suggestions)
	}

	c.JSON(http.StatusOK, gin.H{
		"suggestions": recommender.NormalizeSuggestions(suggestions),
	})
}
