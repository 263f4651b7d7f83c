package inbound

import (
	"context"
	"time"

	"github.com/dwapor/storefront/internal/pkg/config"
	"github.com/go-co-op/gocron/v2"
)

type reaper interface {
	ReapExpired(ctx context.Context) (int64, error)
}

// RegisterCron schedules removal of expired verification records.
func RegisterCron(ctx context.Context, s gocron.Scheduler, cfg config.Config, uc reaper) error {
	interval := cfg.GetSecond("modules.verification.reaper.interval_seconds")
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	_, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func(ctx context.Context) error {
			_, err := uc.ReapExpired(ctx)
			return err
		}),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("verification reap expired codes"),
	)

	return err
}
