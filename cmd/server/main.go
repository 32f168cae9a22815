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
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"football-data-cache/internal/analysis"
	"football-data-cache/internal/client"
	"football-data-cache/internal/config"
	"football-data-cache/internal/events"
	"football-data-cache/internal/handlers"
	"football-data-cache/internal/middleware"
	"football-data-cache/internal/providers"
	"football-data-cache/internal/scheduler"
	"football-data-cache/internal/service"
	"football-data-cache/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Configure logger
	logger, err := setupLogger(&cfg.Logger)
	if err != nil {
		fmt.Printf("Failed to setup logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Football Data Cache Server",
		zap.String("version", "1.0.0"),
		zap.String("address", cfg.Server.GetAddress()),
		zap.String("store_backend", cfg.Store.Backend),
	)

	// Initialize store. Storage failures downstream become cache misses,
	// never request failures.
	st, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}
	defer st.Close()
	cacheStore := store.NewFailSoft(st, logger)

	// Retention sweep for entries too old to serve even as stale
	maintenance := store.NewMaintenance(cacheStore, cfg.Store.Retention, logger)
	if err := maintenance.Start(); err != nil {
		logger.Fatal("Failed to schedule cache maintenance", zap.Error(err))
	}
	defer maintenance.Stop()

	// Upstream providers in failover priority order
	provs := []providers.Provider{
		providers.NewAPIFootball(
			cfg.Providers.APIFootball.APIKey,
			cfg.Providers.APIFootball.BaseURL,
			cfg.Providers.Season,
			cfg.Providers.MainLeagues,
			logger,
		),
		providers.NewFootballData(
			cfg.Providers.FootballData.APIKey,
			cfg.Providers.FootballData.BaseURL,
			cfg.Providers.Season,
			cfg.Providers.MainLeagues,
			logger,
		),
	}
	registry := client.NewRegistry(provs, logger)
	apiClient := client.New(registry, cacheStore, cfg.Providers.Season, cfg.Providers.MainLeagues, logger)

	// Optional analysis persistence
	var analysisRepo *analysis.Repository
	if cfg.Database.DSN != "" {
		analysisRepo, err = analysis.Open(cfg.Database.DSN)
		if err != nil {
			logger.Fatal("Failed to initialize analysis database", zap.Error(err))
		}
		logger.Info("Analysis database connected")
	} else {
		logger.Info("Analysis database not configured, analyses disabled")
	}

	gameService := service.New(apiClient, analysisRepo, logger)

	// Refresh scheduler with broadcast events
	bus := events.NewBus()
	sched := scheduler.New(gameService, cacheStore, bus, cfg.Scheduler.Times, logger).
		WithCheckInterval(cfg.Scheduler.CheckInterval)
	if cfg.Scheduler.AutoStart {
		sched.Start()
	}
	defer sched.Stop()

	// Log refresh completions; handlers read state on demand
	go func() {
		ch, cancel := bus.Subscribe()
		defer cancel()
		for ev := range ch {
			logger.Info("Refresh completed",
				zap.String("type", ev.Type),
				zap.Bool("success", ev.Success),
				zap.Time("timestamp", ev.Timestamp),
			)
		}
	}()

	// Configure Gin
	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	router := gin.New()

	// Middlewares
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(middleware.RateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst))

	// Initialize handlers
	footballHandler := handlers.NewFootballHandler(gameService, logger)
	adminHandler := handlers.NewAdminHandler(gameService, sched, logger)

	// Health routes
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"scheduler": sched.IsActive(),
			"timestamp": time.Now(),
		})
	})
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := router.Group("/api/v1")
	{
		matches := api.Group("/matches")
		{
			matches.GET("/live", footballHandler.LiveGames)
			matches.GET("", footballHandler.MatchesByDate)
		}

		leagues := api.Group("/leagues")
		{
			leagues.GET("", footballHandler.Leagues)
			leagues.GET("/search", footballHandler.SearchLeagues)
			leagues.GET("/:id/standings", footballHandler.Standings)
			leagues.GET("/:id/matches", footballHandler.MatchesByLeague)
		}

		api.GET("/countries", footballHandler.Countries)
		api.GET("/players", footballHandler.SearchPlayers)
		api.GET("/teams", footballHandler.SearchTeams)
		api.GET("/search", footballHandler.GlobalSearch)

		analyses := api.Group("/analyses")
		{
			analyses.POST("", adminHandler.SaveAnalysis)
			analyses.GET("", adminHandler.ListAnalyses)
			analyses.GET("/:fixtureId", adminHandler.GetAnalysis)
			analyses.DELETE("/:fixtureId", adminHandler.DeleteAnalysis)
		}
	}

	admin := router.Group("/admin")
	{
		admin.GET("/status", adminHandler.APIStatus)
		admin.POST("/status/reset", adminHandler.ResetFailures)
		admin.GET("/cache", adminHandler.CacheStatus)
		admin.DELETE("/cache", adminHandler.ClearCache)
		admin.POST("/cache/refresh", adminHandler.RefreshCache)
		admin.GET("/scheduler", adminHandler.SchedulerStatus)
		admin.POST("/scheduler/start", adminHandler.SchedulerStart)
		admin.POST("/scheduler/stop", adminHandler.SchedulerStop)
		admin.POST("/scheduler/update", adminHandler.SchedulerForceUpdate)
		admin.GET("/scheduler/log", adminHandler.SchedulerLog)
	}

	// Configure HTTP server
	server := &http.Server{
		Addr:         cfg.Server.GetAddress(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server starting", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// openStore builds the configured persistence backend
func openStore(cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case "redis":
		return store.NewRedisStore(&cfg.Store.Redis, cfg.Store.TTL, cfg.Store.Retention, logger)
	case "bolt", "":
		return store.NewBoltStore(cfg.Store.Path, cfg.Store.TTL, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// setupLogger configures the logger according to the configuration
func setupLogger(cfg *config.LoggerConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:       zap.NewAtomicLevelAt(level),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding: cfg.Format,
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{cfg.OutputPath},
		ErrorOutputPaths: []string{cfg.OutputPath},
	}

	return config.Build()
}
