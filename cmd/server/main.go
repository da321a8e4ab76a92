package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/perform/internal/clients/fred"
	"github.com/aristath/perform/internal/config"
	"github.com/aristath/perform/internal/database"
	"github.com/aristath/perform/internal/modules/performance"
	"github.com/aristath/perform/internal/scheduler"
	"github.com/aristath/perform/internal/server"
	"github.com/aristath/perform/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Logger is not configured yet; fall back to a default one
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting perform")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Wire the performance module
	repo := performance.NewRepository(db.Conn(), log)
	service := performance.NewService(repo, log)
	handler := performance.NewHandler(service, log)

	// Initialize scheduler
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	// Register background jobs
	if err := registerJobs(sched, service, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to register jobs")
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:        cfg.Port,
		Log:         log,
		DB:          db,
		Config:      cfg,
		Performance: handler,
		DevMode:     cfg.DevMode,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func registerJobs(sched *scheduler.Scheduler, service *performance.Service, cfg *config.Config, log zerolog.Logger) error {
	fredClient := fred.NewClient(cfg.FredURL, log)
	riskFreeSync := scheduler.NewRiskFreeSyncJob(fredClient, service, cfg.RiskFreeSymbol, cfg.RiskFreeName, log)

	return sched.AddJob(cfg.RiskFreeSchedule, riskFreeSync)
}
