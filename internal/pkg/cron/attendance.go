package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-ledger-go/internal/domain/attendance"
)

const refreshJobName = "refresh_punch_rows"

type AttendanceJobs struct {
	ledgerSvc attendance.LedgerService
	interval  time.Duration
}

func NewAttendanceJobs(ledgerSvc attendance.LedgerService, interval time.Duration) *AttendanceJobs {
	return &AttendanceJobs{
		ledgerSvc: ledgerSvc,
		interval:  interval,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(refreshJobName, j.interval, j.RefreshPunchRows)
}

// RefreshPunchRows reloads the punch cache from the configured source
func (j *AttendanceJobs) RefreshPunchRows(ctx context.Context) error {
	result, err := j.ledgerSvc.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh punch rows: %w", err)
	}

	slog.Info("Cron: punch rows refreshed", "refresh_id", result.RefreshID, "rows", result.Rows)
	return nil
}
