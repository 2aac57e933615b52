package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-ledger-go/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunsOnInterval(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler()
	s.AddJob("tick", 10*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()

	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, calls.Load(), "no runs after Stop")
}

func TestScheduler_IgnoresDisabledJobs(t *testing.T) {
	s := NewScheduler()
	s.AddJob("off", 0, func(ctx context.Context) error { return nil })

	assert.Empty(t, s.jobs)
}

func TestScheduler_RunOnce(t *testing.T) {
	var order []string
	s := NewScheduler()
	s.AddJob("first", time.Hour, func(ctx context.Context) error {
		order = append(order, "first")
		return errors.New("logged, not fatal")
	})
	s.AddJob("second", time.Hour, func(ctx context.Context) error {
		order = append(order, "second")
		return nil
	})

	s.RunOnce(context.Background())

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	assert.NotPanics(t, func() { NewScheduler().Stop() })
}

type stubLedgerService struct {
	attendance.LedgerService
	refreshes int
	err       error
}

func (s *stubLedgerService) Refresh(ctx context.Context) (attendance.RefreshResult, error) {
	s.refreshes++
	return attendance.RefreshResult{Rows: 3}, s.err
}

func TestAttendanceJobs_RefreshPunchRows(t *testing.T) {
	svc := &stubLedgerService{}
	s := NewScheduler()
	NewAttendanceJobs(svc, time.Minute).RegisterJobs(s)

	require.Len(t, s.jobs, 1)
	assert.Equal(t, refreshJobName, s.jobs[0].Name)

	s.RunOnce(context.Background())
	assert.Equal(t, 1, svc.refreshes)

	svc.err = attendance.ErrSourceUnavailable
	err := NewAttendanceJobs(svc, time.Minute).RefreshPunchRows(context.Background())
	assert.ErrorIs(t, err, attendance.ErrSourceUnavailable)
}
