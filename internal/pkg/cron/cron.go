// Package cron builds the process-wide gocron scheduler.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// NewScheduler returns a started UTC scheduler whose jobs inherit ctx and
// report their lifecycle through slog.
func NewScheduler(ctx context.Context) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler(
		gocron.WithGlobalJobOptions(
			gocron.WithContext(ctx),
			gocron.WithEventListeners(
				gocron.BeforeJobRuns(func(jobID uuid.UUID, jobName string) {
					slog.DebugContext(ctx, "job started", "job_name", jobName, "job_id", jobID.String())
				}),
				gocron.AfterJobRunsWithError(func(jobID uuid.UUID, jobName string, err error) {
					slog.ErrorContext(ctx, "job failed", "job_name", jobName, "job_id", jobID.String(), "error", err)
				}),
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
					slog.ErrorContext(ctx, "job panicked", "job_name", jobName, "job_id", jobID.String(), "recover", recoverData)
				}),
			),
		),
		gocron.WithLogger(slog.Default()),
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, err
	}

	s.Start()

	return s, nil
}
