package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/skyops/crewdeck/internal/api"
	"github.com/skyops/crewdeck/internal/chat"
	"github.com/skyops/crewdeck/internal/config"
	"github.com/skyops/crewdeck/internal/dashboard"
	"github.com/skyops/crewdeck/internal/refresh"
	"github.com/skyops/crewdeck/internal/rosterd"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	log.Info().Msg("CrewDeck starting up")

	// Load config
	cfg := config.Load()

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	// Scheduling service client
	client := rosterd.NewClient(cfg.RosterdBaseURL, cfg.RosterdRateLimit, cfg.RosterdBurst)

	// View state
	crewView := dashboard.NewCrewView(client)
	flightView := dashboard.NewFlightView(client)
	rosterView := dashboard.NewRosterView(client, cfg.DutyChartLimit)
	detailLoader := dashboard.NewDetailLoader(client)

	// Disruption assistant
	responder, err := chat.NewResponder(cfg.ChatProvider, cfg.ChatAPIKey, cfg.ChatModel, client)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure chat provider")
	}
	session := chat.NewSession(responder)

	// Snapshot refresh scheduler
	scheduler := refresh.NewScheduler(crewView, flightView, cfg)
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start refresh scheduler")
	}
	defer scheduler.Stop()

	// API server
	srv := api.NewServer(cfg, crewView, flightView, rosterView, detailLoader, session, scheduler, client)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		log.Info().Str("port", cfg.Port).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("CrewDeck stopped")
}
