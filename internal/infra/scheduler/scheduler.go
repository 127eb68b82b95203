package scheduler

import (
	"context"
	"fmt"
	"time"

	"clan_raids_bot/internal/domain/team"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// MaintenanceScheduler runs periodic housekeeping jobs next to the raid loop.
type MaintenanceScheduler struct {
	cronEngine     *cron.Cron
	teamRepo       team.Repository
	logger         *logrus.Entry
	cronSpecSweep  string
	teamStaleAfter time.Duration
	now            func() time.Time
}

func NewMaintenanceScheduler(
	teamRepo team.Repository,
	logger *logrus.Entry,
	cronSpecSweep string, // e.g., "*/15 * * * *" (every 15 minutes)
	teamStaleAfter time.Duration,
	loc *time.Location,
) *MaintenanceScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &MaintenanceScheduler{
		cronEngine:     cron.New(cron.WithLocation(loc)),
		teamRepo:       teamRepo,
		logger:         logger,
		cronSpecSweep:  cronSpecSweep,
		teamStaleAfter: teamStaleAfter,
		now:            time.Now,
	}
}

// Start registers the jobs and starts the cron engine.
func (s *MaintenanceScheduler) Start() error {
	s.logger.Info("Starting maintenance scheduler...")

	if _, err := s.cronEngine.AddFunc(s.cronSpecSweep, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		s.sweepStaleTeams(ctx)
	}); err != nil {
		return fmt.Errorf("could not add team sweep cron job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.WithField("team_sweep", s.cronSpecSweep).Info("Maintenance scheduler started with jobs.")
	return nil
}

// sweepStaleTeams removes registry rows that outlived any possible roster session,
// e.g. after the process was killed mid-session.
func (s *MaintenanceScheduler) sweepStaleTeams(ctx context.Context) int64 {
	before := s.now().Add(-s.teamStaleAfter)
	n, err := s.teamRepo.DeleteOlderThan(ctx, before)
	if err != nil {
		s.logger.WithError(err).Error("Error during stale team sweep")
		return 0
	}
	if n > 0 {
		s.logger.WithField("removed", n).Info("Removed stale running teams")
	} else {
		s.logger.Debug("No stale running teams")
	}
	return n
}

func (s *MaintenanceScheduler) Stop() {
	s.logger.Info("Stopping maintenance scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Maintenance scheduler gracefully stopped.")
}
