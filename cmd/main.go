package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"auction-ledger/internal/auth"
	"auction-ledger/internal/config"
	"auction-ledger/internal/database"
	"auction-ledger/internal/handlers"
	"auction-ledger/internal/jobs"
	"auction-ledger/internal/logging"
	"auction-ledger/internal/repository"
	"auction-ledger/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logging.Setup(cfg.Server.LogLevel)

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repository and auction core
	repo := repository.NewRepository(database.GetDB())
	locks := services.NewAuctionLocks()
	validator := services.NewBidValidator(cfg.Platform.MinIncrement)

	authService := services.NewAuthService(repo)
	userService := services.NewUserService(repo)
	auctionService := services.NewAuctionService(repo, locks)
	bidService := services.NewBidService(repo, validator, locks, cfg.Platform.CommitRetries)
	settlementService := services.NewSettlementService(repo, locks, cfg.Platform.FeeRate)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, cfg.App.LoginMessage)
	userHandler := handlers.NewUserHandler(userService)
	auctionHandler := handlers.NewAuctionHandler(auctionService, settlementService)
	bidHandler := handlers.NewBidHandler(bidService)
	adminHandler := handlers.NewAdminHandler(repo, auctionService, userService, cfg.Platform.StaleSettlementAfter)

	// Start the sweep: promotes scheduled transitions and retries stuck
	// settlements on a fixed interval
	sweep := jobs.NewSweep(
		repo,
		auctionService,
		settlementService,
		cfg.Platform.SweepInterval,
		cfg.Platform.StaleSettlementAfter,
	)
	sweep.Start()
	log.Info("Sweep job started")

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000", // Local development
		"http://localhost:5173", // Vite dev server
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	// Add additional frontend URL from environment if provided
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/wallet", authHandler.WalletLogin)
	}

	// Authenticated /auth/me route
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.GetMe)
	}

	// Public auction routes
	router.GET("/api/auctions", auctionHandler.ListAuctions)
	router.GET("/api/auctions/:id", auctionHandler.GetAuction)

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		// User endpoints
		userRoutes := api.Group("/users")
		{
			userRoutes.GET("/me", userHandler.GetProfile)
			userRoutes.GET("/me/bids", userHandler.GetMyBids)
		}

		// Auction lifecycle endpoints
		api.POST("/auctions", auctionHandler.CreateAuction)
		api.POST("/auctions/:id/end", auctionHandler.EndAuction)
		api.POST("/auctions/:id/cancel", auctionHandler.CancelAuction)

		// Bidding
		api.POST("/auctions/:id/bids", bidHandler.PlaceBid)
	}

	// Admin routes (protected + admin only)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	admin.Use(auth.AdminMiddleware())
	{
		admin.POST("/auctions/:id/activate", adminHandler.ActivateAuction)
		admin.GET("/auctions/stale", adminHandler.ListStaleAuctions)

		// User management
		admin.GET("/users", adminHandler.ListUsers)
		admin.POST("/users/:id/verify-kyc", adminHandler.VerifyKYC)
		admin.POST("/users/:id/verify-email", adminHandler.VerifyEmail)
		admin.POST("/users/:id/ban", adminHandler.BanUser)
		admin.POST("/users/:id/unban", adminHandler.UnbanUser)
		admin.POST("/users/:id/promote", adminHandler.PromoteUser)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Infof("Server starting on port %s", cfg.Server.Port)
		log.Infof("Health check: http://localhost:%s/health", cfg.Server.Port)
		log.Infof("Wallet auth: POST http://localhost:%s/auth/wallet", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	sweep.Stop()

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Info("Server exited")
}
