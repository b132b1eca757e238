package routes

import (
	"stock_portfolio_backend/controllers"
	"stock_portfolio_backend/middleware"
	"stock_portfolio_backend/services"
	"stock_portfolio_backend/services/marketdata"
	"stock_portfolio_backend/services/recommender"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes sets up all API routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, gateway *marketdata.AlphaVantageService, rec *recommender.Recommender) {
	// Initialize controllers
	authController := controllers.NewAuthController(db)
	portfolioController := controllers.NewPortfolioController(db)
	stockController := controllers.NewStockController(gateway)
	suggestionController := controllers.NewSuggestionController(db, rec)
	newsController := controllers.NewNewsController(services.GlobalNewsService)

	// API v1 group
	api := router.Group("/api/v1")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authController.Register)
			auth.POST("/login", middleware.LoginRateLimitMiddleware(), authController.Login)
		}

		// Market data routes
		stocks := api.Group("/stocks")
		{
			stocks.GET("/data", stockController.GetStockData)
			stocks.GET("/:symbol/quote", stockController.GetQuote)
			stocks.GET("/:symbol/indicators", stockController.GetTechnicalIndicators)
		}

		// News passthrough
		api.GET("/news", newsController.GetNews)

		// Authenticated routes
		authed := api.Group("")
		authed.Use(middleware.JWTAuthMiddleware())
		{
			authed.GET("/portfolio", portfolioController.GetHoldings)
			authed.POST("/portfolio", portfolioController.AddHolding)
			authed.DELETE("/portfolio/:symbol", portfolioController.DeleteHolding)
			authed.GET("/suggestions/smart", suggestionController.GetSmartSuggestions)
		}
	}

	// WebSocket endpoint for realtime quote streaming
	router.GET("/ws/quotes", func(c *gin.Context) {
		services.GlobalRealtimeService.HandleWebSocket(c.Writer, c.Request)
	})
}
