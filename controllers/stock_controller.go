package controllers

import (
	"errors"
	"net/http"
	"strings"

	"stock_portfolio_backend/services/marketdata"

	"github.com/gin-gonic/gin"
)

// TrendDays is how many recent closes the stock data endpoint returns
const TrendDays = 7

// StockController handles market data requests
type StockController struct {
	gateway *marketdata.AlphaVantageService
}

// NewStockController creates a new stock controller
func NewStockController(gateway *marketdata.AlphaVantageService) *StockController {
	return &StockController{gateway: gateway}
}

// GetStockData returns current price and a recent closing-price trend for a
// comma-separated list of symbols. Failures are reported per symbol so one
// bad symbol never empties the response.
// GET /api/v1/stocks/data?symbols=AAPL,MSFT
func (sc *StockController) GetStockData(c *gin.Context) {
	symbolsParam := c.Query("symbols")
	if symbolsParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbols query parameter is required"})
		return
	}

	result := make([]gin.H, 0)
	for _, symbol := range strings.Split(symbolsParam, ",") {
		symbol = strings.TrimSpace(symbol)
		if symbol == "" {
			continue
		}

		series, err := sc.gateway.GetDailySeries(c.Request.Context(), symbol)
		if err != nil {
			result = append(result, gin.H{"symbol": symbol, "error": err.Error()})
			continue
		}

		points := series.Points
		if len(points) > TrendDays {
			points = points[len(points)-TrendDays:]
		}

		trend := make([]float64, len(points))
		dates := make([]string, len(points))
		for i, p := range points {
			trend[i] = p.Close
			dates[i] = p.Date
		}

		var currentPrice float64
		if len(trend) > 0 {
			currentPrice = trend[len(trend)-1]
		}

		result = append(result, gin.H{
			"symbol":        symbol,
			"current_price": currentPrice,
			"trend":         trend,
			"dates":         dates,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// GetQuote returns the cached-or-fetched real-time quote for a symbol
// GET /api/v1/stocks/:symbol/quote
func (sc *StockController) GetQuote(c *gin.Context) {
	symbol := c.Param("symbol")

	quote, err := sc.gateway.GetQuote(c.Request.Context(), symbol)
	if err != nil {
		if errors.Is(err, marketdata.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No data available for " + symbol})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch quote"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": quote})
}

// GetTechnicalIndicators returns SMA-50 and RSI-14 for a symbol
// GET /api/v1/stocks/:symbol/indicators
func (sc *StockController) GetTechnicalIndicators(c *gin.Context) {
	symbol := c.Param("symbol")

	indicators, err := sc.gateway.GetTechnicalIndicators(c.Request.Context(), symbol)
	if err != nil {
		if errors.Is(err, marketdata.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No data available for " + symbol})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch indicators"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": indicators})
}
