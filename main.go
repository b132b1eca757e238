package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"stock_portfolio_backend/config"
	"stock_portfolio_backend/models"
	"stock_portfolio_backend/routes"
	"stock_portfolio_backend/scheduler"
	"stock_portfolio_backend/services"
	"stock_portfolio_backend/services/marketdata"
	"stock_portfolio_backend/services/recommender"

	"github.com/gin-gonic/gin"
)

// dbInitialized tracks whether database has been successfully initialized,
// so the /ready health endpoint can report database status while the
// connection is established in the background
var dbInitialized bool
var dbInitMutex sync.RWMutex

// jobScheduler is published by the background init goroutine once the
// database is up; the shutdown path reads it late so it sees the running
// instance rather than the nil present at startup
var jobScheduler *scheduler.Scheduler
var schedulerMutex sync.RWMutex

// setScheduler publishes the running scheduler for the shutdown path
func setScheduler(s *scheduler.Scheduler) {
	schedulerMutex.Lock()
	jobScheduler = s
	schedulerMutex.Unlock()
}

// activeScheduler returns the running scheduler, or nil before init completes
func activeScheduler() *scheduler.Scheduler {
	schedulerMutex.RLock()
	defer schedulerMutex.RUnlock()
	return jobScheduler
}

func main() {
	log.Println("==============================================")
	log.Println("  Stock Portfolio Backend - Starting...")
	log.Println("==============================================")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("Warning: Config load issue: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add middlewares
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestLogger())

	// Setup health check endpoints FIRST so the platform can detect the
	// service is up; database is initialized in background
	setupHealthEndpoints(router)

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	// Start server immediately so the platform knows we're listening
	go func() {
		log.Printf("Server listening on 0.0.0.0:%s", cfg.Port)
		log.Println("==============================================")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Initialize database and setup routes in background
	go func() {
		db, err := config.InitDB()
		if err != nil {
			log.Printf("ERROR: Database connection failed: %v", err)
			log.Println("Service will continue in limited mode (health check only)")
			return
		}

		log.Println("Running database migrations...")
		if err := runMigrations(); err != nil {
			log.Printf("ERROR: Migration failed: %v", err)
		} else {
			log.Println("Database migrations completed successfully")
		}

		// Initialize global services and the market data gateway
		gateway, rec := initializeGlobalServices(cfg)

		// Mark database as ready
		dbInitMutex.Lock()
		dbInitialized = true
		dbInitMutex.Unlock()

		// Setup all API routes
		routes.SetupRoutes(router, db, gateway, rec)

		// Start background scheduler
		js := scheduler.NewScheduler(db, gateway)
		go js.Start()
		setScheduler(js)

		log.Println("Application fully initialized with database")
	}()

	// Graceful shutdown
	gracefulShutdown(server)
}

// runMigrations runs all database migrations
func runMigrations() error {
	db := config.DB

	if err := models.MigrateUserModels(db); err != nil {
		return err
	}

	if err := models.MigratePortfolioModels(db); err != nil {
		return err
	}

	return nil
}

// initializeGlobalServices initializes global service instances and returns
// the shared market data gateway and recommender
func initializeGlobalServices(cfg *config.Config) (*marketdata.AlphaVantageService, *recommender.Recommender) {
	// Price store first (the gateway falls back to it)
	if err := services.InitPriceStore(cfg.PriceStorePath); err != nil {
		log.Printf("Warning: Failed to initialize price store: %v", err)
	}

	var store marketdata.SeriesStore
	if services.GlobalPriceStore != nil {
		store = services.GlobalPriceStore
	}

	gateway := marketdata.NewAlphaVantageService(
		cfg.AlphaVantageKey,
		cfg.CacheMaxSize,
		cfg.CacheTTL,
		cfg.MinCallInterval,
		store,
	)

	rec := recommender.NewRecommender(
		recommender.NewFileBundleLoader(cfg.ModelDir),
		gateway,
	)

	services.InitNewsService(cfg.NewsAPIKey)

	if err := services.InitMongoArchive(cfg.MongoURI); err != nil {
		log.Printf("MongoDB not configured or failed to connect: %v", err)
	}

	if err := services.InitRealtimeQuoteService(gateway); err != nil {
		log.Printf("Warning: Failed to initialize realtime service: %v", err)
	} else if err := services.GlobalRealtimeService.StartPushing(); err != nil {
		log.Printf("Warning: Failed to start quote push loop: %v", err)
	}

	log.Println("Global services initialized")
	return gateway, rec
}

// setupHealthEndpoints sets up health check endpoints
func setupHealthEndpoints(router *gin.Engine) {
	// Root endpoint
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Stock Portfolio Backend API",
			"version": "1.0.0",
		})
	})

	// Liveness probe - always returns OK if server is running
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// Readiness probe - checks if service is ready to receive traffic
	router.GET("/ready", func(c *gin.Context) {
		dbInitMutex.RLock()
		isDBReady := dbInitialized
		dbInitMutex.RUnlock()

		if !isDBReady {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Database not connected",
			})
			return
		}

		sqlDB, err := config.DB.DB()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Database connection error",
			})
			return
		}

		if err := sqlDB.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Database ping failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
		})
	})
}

// corsMiddleware returns a CORS middleware handler
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger returns a request logging middleware
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip logging for health checks to reduce noise
		path := c.Request.URL.Path
		if path == "/health" || path == "/ready" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		// Only log errors or slow requests
		if c.Writer.Status() >= 400 || duration > 1*time.Second {
			log.Printf("%s %s %d %v", c.Request.Method, path, c.Writer.Status(), duration)
		}
	}
}

// gracefulShutdown handles graceful shutdown of the server
func gracefulShutdown(server *http.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Printf("Received signal %v, shutting down gracefully...", sig)

	// Stop scheduler first
	if js := activeScheduler(); js != nil {
		js.Stop()
	}

	if services.GlobalRealtimeService != nil {
		services.GlobalRealtimeService.Shutdown()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if services.GlobalMongoArchive != nil {
		services.GlobalMongoArchive.Disconnect()
	}

	if services.GlobalPriceStore != nil {
		services.GlobalPriceStore.Close()
		log.Println("Price store closed")
	}

	if config.DB != nil {
		sqlDB, err := config.DB.DB()
		if err == nil {
			sqlDB.Close()
			log.Println("Database connection closed")
		}
	}

	log.Println("Server shutdown completed")
}
