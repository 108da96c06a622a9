// Package jobs wires the periodic maintenance tasks: subscription rollover
// and notification cleanup.
package jobs

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"farmmarket/internal/services"
)

// Scheduler owns the cron runner.
type Scheduler struct {
	cron                *cron.Cron
	subscriptionService *services.SubscriptionService
	notificationService *services.NotificationService
}

// New creates a Scheduler with the maintenance jobs registered.
func New(
	subscriptionService *services.SubscriptionService,
	notificationService *services.NotificationService,
) (*Scheduler, error) {
	s := &Scheduler{
		cron:                cron.New(),
		subscriptionService: subscriptionService,
		notificationService: notificationService,
	}

	if _, err := s.cron.AddFunc("@hourly", s.rollSubscriptions); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc("@daily", s.cleanupNotifications); err != nil {
		return nil, err
	}
	return s, nil
}

// Start launches the cron runner in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	zap.L().Info("job scheduler started")
}

// Stop halts the cron runner, waiting for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.L().Info("job scheduler stopped")
}

func (s *Scheduler) rollSubscriptions() {
	rolled, err := s.subscriptionService.Rollover()
	if err != nil {
		zap.S().Errorf("subscription rollover failed: %v", err)
		return
	}
	if rolled > 0 {
		zap.S().Infof("rolled %d due subscription(s)", rolled)
	}
}

func (s *Scheduler) cleanupNotifications() {
	removed, err := s.notificationService.Cleanup()
	if err != nil {
		zap.S().Errorf("notification cleanup failed: %v", err)
		return
	}
	if removed > 0 {
		zap.S().Infof("removed %d old notification(s)", removed)
	}
}
