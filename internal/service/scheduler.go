package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/glowdesk/outreach/internal/errors"
	"github.com/glowdesk/outreach/internal/metrics"
	"github.com/glowdesk/outreach/internal/model"
)

// Scheduler is the periodic driver behind campaign drips. It runs once
// at startup and then on a fixed interval. A transient tick error is
// logged and the next tick proceeds; consecutive storage failures make
// the driver disable itself, since hammering a broken database every
// interval would just produce an error storm.
type Scheduler struct {
	Drip         *DripService
	Interval     time.Duration
	FailureLimit int
	Logger       *zap.Logger
}

// Run blocks until ctx is cancelled or the driver fail-stops.
func (s *Scheduler) Run(ctx context.Context) {
	consecutiveStorageFailures := 0

	handle := func(err error) bool {
		if err == nil {
			consecutiveStorageFailures = 0
			metrics.DripTicks.WithLabelValues("ok").Inc()
			return true
		}
		metrics.DripTicks.WithLabelValues("error").Inc()
		s.Logger.Error("drip tick failed", zap.Error(err))

		var storageErr *appErrors.ErrStorage
		if !errors.As(err, &storageErr) {
			return true
		}
		consecutiveStorageFailures++
		if consecutiveStorageFailures >= s.FailureLimit {
			s.Logger.Error("persistent storage failure, disabling drip scheduler",
				zap.Int("consecutive_failures", consecutiveStorageFailures),
			)
			return false
		}
		return true
	}

	if !handle(s.Tick(ctx)) {
		return
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !handle(s.Tick(ctx)) {
				return
			}
		}
	}
}

// Tick advances every due campaign by one batch. A campaign whose
// processing blows up is marked failed and no further ticks touch it;
// its siblings still get their batch. The returned error, if any, is
// the last storage-classified failure seen.
func (s *Scheduler) Tick(ctx context.Context) error {
	due, err := s.Drip.Campaigns.ListDue(s.Drip.now())
	if err != nil {
		return appErrors.NewStorage("list due campaigns", err)
	}

	var tickErr error
	for _, c := range due {
		if ctx.Err() != nil {
			return tickErr
		}
		if err := s.Drip.ProcessCampaign(ctx, c); err != nil {
			s.Logger.Error("campaign processing failed",
				zap.Int64("campaign_id", c.ID),
				zap.Error(err),
			)
			if uerr := s.Drip.Campaigns.UpdateStatus(c.ID, model.CampaignFailed); uerr != nil {
				s.Logger.Error("failed to mark campaign failed",
					zap.Int64("campaign_id", c.ID),
					zap.Error(uerr),
				)
			}
			var storageErr *appErrors.ErrStorage
			if errors.As(err, &storageErr) {
				tickErr = err
			}
		}
	}
	return tickErr
}
