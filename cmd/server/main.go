package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/pesio-ai/be-plan-approvals/internal/client"
	"github.com/pesio-ai/be-plan-approvals/internal/config"
	"github.com/pesio-ai/be-plan-approvals/internal/database"
	"github.com/pesio-ai/be-plan-approvals/internal/handler"
	"github.com/pesio-ai/be-plan-approvals/internal/logger"
	"github.com/pesio-ai/be-plan-approvals/internal/metrics"
	"github.com/pesio-ai/be-plan-approvals/internal/middleware"
	"github.com/pesio-ai/be-plan-approvals/internal/repository"
	"github.com/pesio-ai/be-plan-approvals/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("environment", cfg.Service.Environment).
		Msg("Starting Plan Approvals Service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Database,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	draftRepo := repository.NewDraftRepository(db)
	historyRepo := repository.NewHistoryRepository(db)

	engineClient := client.NewEngineClient(client.EngineConfig{
		BaseURL:     cfg.Engine.BaseURL,
		ProcessKey:  cfg.Engine.ProcessKey,
		Timeout:     cfg.Engine.Timeout.Std(),
		MaxAttempts: cfg.Engine.MaxAttempts,
	})
	recordClient := client.NewRecordClient(client.RecordConfig{
		BaseURL:     cfg.Records.BaseURL,
		Timeout:     cfg.Records.Timeout.Std(),
		MaxAttempts: cfg.Records.MaxAttempts,
	})
	log.Info().
		Str("engine_url", cfg.Engine.BaseURL).
		Str("records_url", cfg.Records.BaseURL).
		Msg("External service clients initialized")

	// Notifications are best effort; a missing broker never blocks approvals.
	var natsConn *nats.Conn
	if cfg.NATS.URL != "" {
		natsConn, err = nats.Connect(cfg.NATS.URL)
		if err != nil {
			log.Warn().Err(err).Str("url", cfg.NATS.URL).Msg("NATS unavailable; notifications disabled")
		} else {
			defer natsConn.Close()
			log.Info().Str("url", cfg.NATS.URL).Msg("NATS connection established")
		}
	}
	publisher := client.NewNotificationPublisher(natsConn, log.Logger)

	collector := metrics.NewCollector()

	orchestrator := service.NewApprovalOrchestrator(
		draftRepo, historyRepo, engineClient, recordClient, publisher, collector, log)

	httpHandler := handler.NewHTTPHandler(orchestrator, log)
	mux := http.NewServeMux()
	httpHandler.Register(mux)
	mux.Handle("/metrics", collector.Handler())

	var h http.Handler = mux
	h = middleware.RequestID(h)
	h = middleware.Logger(&log.Logger)(h)
	h = middleware.Recovery(&log.Logger)(h)
	h = middleware.Timeout(30 * time.Second)(h)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		IdleTimeout:  cfg.Server.IdleTimeout.Std(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
