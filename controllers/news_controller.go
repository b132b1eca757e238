package controllers

import (
	"net/http"

	"stock_portfolio_backend/services"

	"github.com/gin-gonic/gin"
)

// NewsController handles news requests
type NewsController struct {
	news *services.NewsService
}

// NewNewsController creates a new news controller
func NewNewsController(news *services.NewsService) *NewsController {
	return &NewsController{news: news}
}

// GetNews returns recent business headlines. The service never fails: on
// upstream errors it returns a single canned unavailability item.
// GET /api/v1/news
func (nc *NewsController) GetNews(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"news": nc.news.GetTopHeadlines()})
}
