package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cubecomp/backend/internal/catalog"
	"github.com/cubecomp/backend/internal/handler"
	"github.com/cubecomp/backend/internal/infrastructure"
	"github.com/cubecomp/backend/internal/middleware"
	"github.com/cubecomp/backend/internal/repository"
	"github.com/cubecomp/backend/internal/scramble"
	"github.com/cubecomp/backend/internal/service"
	"github.com/cubecomp/backend/internal/worker"
)

func main() {
	// Load .env in development; production uses real env vars
	_ = godotenv.Load()

	// Load configuration
	config := infrastructure.LoadConfig()

	// Initialize logger
	logger, err := infrastructure.NewLogger(config.Server.Environment)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer infrastructure.SyncLogger(logger)

	logger.Info("Starting cubecomp API",
		zap.String("environment", config.Server.Environment),
		zap.Int("port", config.Server.Port),
	)

	// Initialize context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize telemetry
	telemetry, err := infrastructure.NewTelemetry(ctx, &config.Telemetry, logger)
	if err != nil {
		logger.Error("Failed to initialize telemetry", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		telemetry.Shutdown(shutdownCtx)
	}()

	// Create metrics
	metrics, err := telemetry.CreateMetrics()
	if err != nil {
		logger.Error("Failed to create metrics", zap.Error(err))
		os.Exit(1)
	}

	// Initialize database
	database, err := infrastructure.NewDatabase(&config.Database, logger)
	if err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		os.Exit(1)
	}
	defer database.Close()

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		os.Exit(1)
	}

	// Load the event catalog
	eventCatalog, err := catalog.Load()
	if err != nil {
		logger.Error("Failed to load event catalog", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Event catalog loaded", zap.Int("events", eventCatalog.Len()))

	// Initialize repositories
	userRepo := repository.NewUserRepository(database.DB)
	compRepo := repository.NewCompetitionRepository(database.DB)

	// Initialize services
	authService := service.NewAuthService(&config.JWT, logger)
	progressService := service.NewProgressService(userRepo, eventCatalog, telemetry.Tracer, logger)
	compService := service.NewCompetitionService(compRepo, eventCatalog, scramble.NewLocalGenerator(), telemetry.Tracer, logger)

	// Prime the comp lifecycle: seed an empty store, then make sure the
	// current comp covers today before serving traffic
	if err := compService.Bootstrap(ctx); err != nil {
		logger.Error("Failed to bootstrap competitions", zap.Error(err))
		os.Exit(1)
	}
	if _, _, err := compService.Validate(ctx, nil, false); err != nil {
		logger.Error("Failed to validate current competition", zap.Error(err))
		os.Exit(1)
	}

	// Start background workers
	finalizer := worker.NewFinalizer(compService, metrics, logger)
	go finalizer.Run(ctx)

	validator := worker.NewValidator(compService, metrics, logger, config.Comp.ValidateInterval)
	go validator.Run(ctx)

	// Initialize handlers
	compHandler := handler.NewCompetitionHandler(compService)
	progressHandler := handler.NewProgressHandler(progressService, compService, finalizer, metrics)
	adminHandler := handler.NewAdminHandler(compService, metrics)

	// Setup Gin router
	if config.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add global middleware
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.CORSMiddleware(middleware.DefaultCORSConfig()))
	router.Use(middleware.TracingMiddleware(telemetry.Tracer))
	router.Use(middleware.MetricsMiddleware(metrics))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": config.Telemetry.ServiceVersion,
		})
	})

	// Metrics endpoint for Prometheus
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api")
	{
		// Competition routes (public)
		comps := api.Group("/comps")
		{
			comps.GET("", compHandler.GetComps)
			comps.GET("/current", compHandler.GetCurrentComp)
			comps.GET("/:number/events/:eventId/submissions", compHandler.GetEventSubmissions)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(authService))
		{
			events := protected.Group("/events")
			{
				events.GET("/statuses", progressHandler.GetEventStatuses)
				events.GET("/:eventId/attempts", progressHandler.GetAttempts)
				events.POST("/:eventId/attempts", progressHandler.RecordAttempts)
			}
		}

		// Admin routes, guarded by the pre-shared admin key
		admin := api.Group("/admin")
		admin.Use(middleware.AdminKeyMiddleware(config.Admin.KeyHash, logger))
		{
			admin.POST("/submissions/review", adminHandler.ReviewSubmission)
			admin.POST("/rollover", adminHandler.Rollover)
		}
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      router,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("HTTP server starting",
			zap.String("address", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Stop the workers before the server drains
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
