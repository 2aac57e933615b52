package attendance

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-ledger-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeSource struct {
	mu    sync.Mutex
	rows  []attendance.RawPunchRow
	err   error
	calls int

	// release, when set, holds every fetch until it is closed
	release chan struct{}
}

func (f *fakeSource) FetchRows(ctx context.Context) ([]attendance.RawPunchRow, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []sse.Event
}

func (p *recordingPublisher) Broadcast(event sse.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func servicePunches() []attendance.RawPunchRow {
	return []attendance.RawPunchRow{
		{EmployeeID: "a", FirstName: "Ana", LastName: "Pérez", Position: "Operador", Date: "2024-03-04", CheckIn: "2024-03-04 08:00:00", CheckOut: "2024-03-04 16:00:00"},
		{EmployeeID: "a", FirstName: "Ana", LastName: "Pérez", Position: "Operador", Date: "2024-03-05", CheckIn: "2024-03-05 08:00:00"},
		{EmployeeID: "b", FirstName: "Bruno", LastName: "Díaz", Position: "Supervisor", Date: "2024-03-04", CheckIn: "2024-03-04 09:00:00", CheckOut: "2024-03-04 19:30:00"},
	}
}

func newTestService(source attendance.PunchSource, pub EventPublisher) attendance.LedgerService {
	clock := func() time.Time { return time.Date(2024, time.March, 6, 12, 0, 0, 0, testLoc) }
	return NewLedgerService(source, pub, testLoc, WithClock(clock))
}

func strPtr(s string) *string { return &s }

func marchRange() attendance.LedgerRequest {
	return attendance.LedgerRequest{StartDate: strPtr("2024-03-04"), EndDate: strPtr("2024-03-06")}
}

func TestLedgerService_Refresh(t *testing.T) {
	source := &fakeSource{rows: servicePunches()}
	pub := &recordingPublisher{}
	svc := newTestService(source, pub)

	result, err := svc.Refresh(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, result.Rows)
	assert.Equal(t, 2, result.Employees)
	assert.NotEmpty(t, result.RefreshID)
	assert.Equal(t, "2024-03-06T12:00:00-05:00", result.LastUpdated)

	require.Len(t, pub.events, 1)
	assert.Equal(t, EventRefreshed, pub.events[0].Event)
	assert.Equal(t, result, pub.events[0].Data)
}

func TestLedgerService_RefreshError(t *testing.T) {
	source := &fakeSource{err: attendance.ErrSourceUnauthorized}
	pub := &recordingPublisher{}
	svc := newTestService(source, pub)

	_, err := svc.Refresh(context.Background())

	assert.True(t, errors.Is(err, attendance.ErrSourceUnauthorized))
	assert.Empty(t, pub.events)
}

func TestLedgerService_GetLedger(t *testing.T) {
	source := &fakeSource{rows: servicePunches()}
	svc := newTestService(source, nil)

	resp, err := svc.GetLedger(context.Background(), marchRange())

	require.NoError(t, err)
	assert.Equal(t, 1, source.calls, "first read loads lazily")
	assert.Equal(t, "2024-03-04", resp.StartDate)
	assert.Equal(t, "2024-03-06", resp.EndDate)
	require.NotNil(t, resp.LastUpdated)
	assert.NotEmpty(t, resp.RunID)

	assert.Len(t, resp.Records, 6)
	require.Len(t, resp.Stats, 2)
	assert.Equal(t, "a", resp.Stats[0].EmployeeID)
	assert.Equal(t, 8.0, resp.Stats[0].TotalHours)
	assert.Equal(t, 66.7, resp.Stats[0].AttendanceRate)
	assert.Nil(t, resp.Stats[0].Records, "ledger stats omit nested records")
	assert.Equal(t, 10.5, resp.Stats[1].TotalHours)
	assert.Equal(t, 33.3, resp.Stats[1].AttendanceRate)

	assert.Equal(t, 19.0, resp.Metrics.TotalHours)
	assert.Equal(t, 9.3, resp.Metrics.AvgDailyHours)
	assert.Equal(t, 50.0, resp.Metrics.AttendanceRate)
	assert.Equal(t, 1, resp.Metrics.TotalErrors)
	assert.Equal(t, 3, resp.Metrics.TotalAbsentDays)

	assert.Equal(t, 3, resp.Diagnostics.InputRows)
	assert.Equal(t, 3, resp.Diagnostics.SynthesizedDays)

	_, err = svc.GetLedger(context.Background(), marchRange())
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls, "later reads use the cache")
}

func TestLedgerService_ConcurrentFirstReadsLoadOnce(t *testing.T) {
	source := &fakeSource{rows: servicePunches(), release: make(chan struct{})}
	pub := &recordingPublisher{}
	svc := newTestService(source, pub)

	const readers = 8
	var wg sync.WaitGroup
	errs := make(chan error, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GetLedger(context.Background(), marchRange())
			errs <- err
		}()
	}

	require.Eventually(t, func() bool {
		source.mu.Lock()
		defer source.mu.Unlock()
		return source.calls == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(source.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, source.calls)
	assert.Len(t, pub.events, 1)
}

func TestLedgerService_GetLedger_Filters(t *testing.T) {
	svc := newTestService(&fakeSource{rows: servicePunches()}, nil)
	req := marchRange()
	req.Position = strPtr("Supervisor")

	resp, err := svc.GetLedger(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, resp.Stats, 1)
	assert.Equal(t, "b", resp.Stats[0].EmployeeID)
	assert.Len(t, resp.Records, 3)
}

func TestLedgerService_GetLedger_DefaultRange(t *testing.T) {
	svc := newTestService(&fakeSource{rows: servicePunches()}, nil)

	resp, err := svc.GetLedger(context.Background(), attendance.LedgerRequest{})

	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", resp.EndDate)
	assert.Equal(t, "2024-02-04", resp.StartDate)
}

func TestLedgerService_GetLedger_Validation(t *testing.T) {
	svc := newTestService(&fakeSource{rows: servicePunches()}, nil)

	_, err := svc.GetLedger(context.Background(), attendance.LedgerRequest{
		StartDate: strPtr("2024-03-10"),
		EndDate:   strPtr("2024-03-01"),
	})

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs.ToMap(), "end_date")
}

func TestLedgerService_ListEmployees(t *testing.T) {
	rows := append(servicePunches(), attendance.RawPunchRow{EmployeeID: "c", FirstName: "alberto", LastName: "Gil", Date: "2024-03-04"})
	svc := newTestService(&fakeSource{rows: rows}, nil)

	got, err := svc.ListEmployees(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []attendance.EmployeeOption{
		{ID: "c", Name: "alberto Gil"},
		{ID: "a", Name: "Ana Pérez"},
		{ID: "b", Name: "Bruno Díaz"},
	}, got)
}

func TestLedgerService_GetEmployee(t *testing.T) {
	svc := newTestService(&fakeSource{rows: servicePunches()}, nil)

	detail, err := svc.GetEmployee(context.Background(), "b", marchRange())

	require.NoError(t, err)
	assert.Equal(t, "b", detail.Stats.EmployeeID)
	assert.Len(t, detail.Stats.Records, 3)
	assert.Equal(t, 1.5, detail.OvertimeHours)
	assert.Equal(t, 0, detail.CurrentStreak)
}

func TestLedgerService_GetEmployee_NotFound(t *testing.T) {
	svc := newTestService(&fakeSource{rows: servicePunches()}, nil)

	_, err := svc.GetEmployee(context.Background(), "zzz", marchRange())

	assert.ErrorIs(t, err, attendance.ErrEmployeeNotFound)
}

func TestLedgerService_GetRankingsAndCharts(t *testing.T) {
	svc := newTestService(&fakeSource{rows: servicePunches()}, nil)

	rankings, err := svc.GetRankings(context.Background(), marchRange())
	require.NoError(t, err)
	require.NotEmpty(t, rankings.TopHours)
	assert.Equal(t, "b", rankings.TopHours[0].EmployeeID)
	require.Len(t, rankings.TopErrors, 1)
	assert.Equal(t, "a", rankings.TopErrors[0].EmployeeID)

	charts, err := svc.GetCharts(context.Background(), marchRange())
	require.NoError(t, err)
	require.Len(t, charts.Weekly, 1)
	assert.Equal(t, 18.5, charts.Weekly[0].TotalHours)
	assert.Equal(t, []attendance.DailyAbsence{
		{Date: "2024-03-04", Count: 0},
		{Date: "2024-03-05", Count: 1},
		{Date: "2024-03-06", Count: 2},
	}, charts.DailyAbsences)
	assert.Empty(t, charts.ExtremeShifts)
}

func TestLedgerService_Export(t *testing.T) {
	svc := newTestService(&fakeSource{rows: servicePunches()}, nil)
	var buf bytes.Buffer

	err := svc.Export(context.Background(), marchRange(), &buf)
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Registros")
	require.NoError(t, err)
	assert.Len(t, rows, 7, "header plus six records")
}
