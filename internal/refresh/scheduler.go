// Package refresh keeps the crew and flight view snapshots warm on a
// cron schedule. A failed refresh logs and leaves the previous snapshot
// in place; it never blanks a view.
package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/skyops/crewdeck/internal/config"
	"github.com/skyops/crewdeck/internal/dashboard"
)

type Scheduler struct {
	crew    *dashboard.CrewView
	flights *dashboard.FlightView
	cfg     *config.Config
	cron    *cron.Cron
}

func NewScheduler(crew *dashboard.CrewView, flights *dashboard.FlightView, cfg *config.Config) *Scheduler {
	return &Scheduler{
		crew:    crew,
		flights: flights,
		cfg:     cfg,
		cron:    cron.New(),
	}
}

// Start begins the scheduled refresh job and, if configured, warms the
// snapshots once on startup.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.cfg.RefreshSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		s.RefreshAll(ctx)
	})
	if err != nil {
		return fmt.Errorf("adding cron job: %w", err)
	}

	s.cron.Start()
	log.Info().Str("schedule", s.cfg.RefreshSchedule).Msg("refresh scheduler started")

	if s.cfg.RefreshOnStartup {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			log.Info().Msg("warming view snapshots on startup")
			s.RefreshAll(ctx)
		}()
	}

	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("refresh scheduler stopped")
}

// RefreshAll re-fetches the crew and flight snapshots. Each fetch fails
// independently; one flaky endpoint must not block the other view.
func (s *Scheduler) RefreshAll(ctx context.Context) {
	if err := s.crew.Refresh(ctx, s.cfg.CrewPageSize, 0); err != nil {
		log.Error().Err(err).Msg("crew snapshot refresh failed")
	}
	if err := s.flights.Refresh(ctx); err != nil {
		log.Error().Err(err).Msg("flight snapshot refresh failed")
	}
}
