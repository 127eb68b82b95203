package scheduler

import (
	"context"
	"time"

	"clan_raids_bot/internal/domain/raid"

	"github.com/sirupsen/logrus"
)

// CycleRunner runs one raid notification cycle to completion.
type CycleRunner interface {
	RunCycle(ctx context.Context) error
}

// RaidLoop polls the cycle clock and runs a raid cycle when it is due.
// A cycle runs on the loop goroutine, so no tick is evaluated while a roster session is open.
type RaidLoop struct {
	clock    raid.CycleConfig
	runner   CycleRunner
	interval time.Duration
	now      func() time.Time
	log      *logrus.Entry

	lastFired string // Minute key of the last fire; blocks a second fire in the same minute
}

func NewRaidLoop(clock raid.CycleConfig, runner CycleRunner, interval time.Duration, now func() time.Time, log *logrus.Entry) *RaidLoop {
	if interval <= 0 {
		interval = time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &RaidLoop{
		clock:    clock,
		runner:   runner,
		interval: interval,
		now:      now,
		log:      log,
	}
}

// Run starts the loop until ctx is canceled.
func (l *RaidLoop) Run(ctx context.Context) {
	l.log.WithFields(logrus.Fields{
		"fire_time": l.clock.FireTimeLabel(),
		"cadence":   l.clock.CadenceDays,
		"force":     l.clock.Force,
	}).Info("Starting raid notifications loop")

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.log.Info("Raid notifications loop stopping")
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

// tick evaluates the clock once and reports whether a cycle was started.
func (l *RaidLoop) tick(ctx context.Context) bool {
	now := l.now()
	if !l.clock.ShouldFire(now) {
		return false
	}
	key := l.clock.MinuteKey(now)
	if key == l.lastFired {
		return false
	}
	l.lastFired = key

	l.log.WithField("minute", key).Info("Raid fire time reached")
	if err := l.runner.RunCycle(ctx); err != nil {
		// The next eligible cycle is the only retry.
		l.log.WithError(err).Error("Raid notification cycle failed")
	}
	return true
}
