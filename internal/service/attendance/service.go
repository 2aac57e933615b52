package attendance

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-ledger-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/pkg/datetime"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/pkg/spreadsheet"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/pkg/sse"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// EventRefreshed is broadcast after every successful refresh.
const EventRefreshed = "ledger.refreshed"

// EventPublisher is satisfied by *sse.Hub.
type EventPublisher interface {
	Broadcast(event sse.Event)
}

type Option func(*LedgerServiceImpl)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *LedgerServiceImpl) {
		s.now = now
	}
}

type LedgerServiceImpl struct {
	source    attendance.PunchSource
	engine    Engine
	publisher EventPublisher
	now       func() time.Time

	// initialLoad collapses concurrent first reads into one Refresh
	initialLoad singleflight.Group

	mu          sync.RWMutex
	rows        []attendance.RawPunchRow
	lastUpdated time.Time
	loaded      bool
}

// Refresh implements attendance.LedgerService.
func (s *LedgerServiceImpl) Refresh(ctx context.Context) (attendance.RefreshResult, error) {
	rows, err := s.source.FetchRows(ctx)
	if err != nil {
		return attendance.RefreshResult{}, fmt.Errorf("failed to fetch punch rows: %w", err)
	}

	updated := s.now().In(s.engine.location())

	s.mu.Lock()
	s.rows = rows
	s.lastUpdated = updated
	s.loaded = true
	s.mu.Unlock()

	result := attendance.RefreshResult{
		RefreshID:   newRunID(),
		Rows:        len(rows),
		Employees:   len(discoverEmployees(rows).order),
		LastUpdated: updated.Format(time.RFC3339),
	}

	slog.Info("punch rows refreshed", "refresh_id", result.RefreshID, "rows", result.Rows, "employees", result.Employees)

	if s.publisher != nil {
		s.publisher.Broadcast(sse.Event{Event: EventRefreshed, Data: result})
	}

	return result, nil
}

func (s *LedgerServiceImpl) cached() ([]attendance.RawPunchRow, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rows, s.lastUpdated, s.loaded
}

// snapshot returns the cached rows, loading them on first use.
func (s *LedgerServiceImpl) snapshot(ctx context.Context) ([]attendance.RawPunchRow, time.Time, error) {
	if rows, updated, ok := s.cached(); ok {
		return rows, updated, nil
	}

	_, err, _ := s.initialLoad.Do("punch_rows", func() (interface{}, error) {
		if _, _, ok := s.cached(); ok {
			return nil, nil
		}
		return s.Refresh(ctx)
	})
	if err != nil {
		return nil, time.Time{}, err
	}

	rows, updated, _ := s.cached()
	return rows, updated, nil
}

// run validates the request, reconciles the cached rows and applies filters.
func (s *LedgerServiceImpl) run(ctx context.Context, req attendance.LedgerRequest) (ledgerRun, error) {
	if err := req.Validate(); err != nil {
		return ledgerRun{}, err
	}

	rows, updated, err := s.snapshot(ctx)
	if err != nil {
		return ledgerRun{}, err
	}

	loc := s.engine.location()
	today := s.now().In(loc)
	start, end := s.resolveRange(req, rows, today)

	ledger := s.engine.Reconcile(rows, start, end, today)
	records, stats := ApplyFilter(ledger, filterFromRequest(req))

	return ledgerRun{
		id:          newRunID(),
		ledger:      ledger,
		records:     records,
		stats:       stats,
		lastUpdated: updated,
	}, nil
}

type ledgerRun struct {
	id          string
	ledger      attendance.Ledger
	records     []attendance.DayRecord
	stats       []attendance.EmployeeStats
	lastUpdated time.Time
}

func (r ledgerRun) startDate() string { return datetime.DateString(r.ledger.RangeStart) }
func (r ledgerRun) endDate() string   { return datetime.DateString(r.ledger.RangeEnd) }

// resolveRange fills missing bounds from DefaultRange.
func (s *LedgerServiceImpl) resolveRange(req attendance.LedgerRequest, rows []attendance.RawPunchRow, today time.Time) (time.Time, time.Time) {
	loc := s.engine.location()
	start, end := DefaultRange(rows, today, loc)

	if req.EndDate != nil && strings.TrimSpace(*req.EndDate) != "" {
		if d, ok := datetime.ParseCalendarDateIn(*req.EndDate, loc); ok {
			end = d
			if req.StartDate == nil || strings.TrimSpace(*req.StartDate) == "" {
				start = datetime.AddDays(end, -defaultRangeLookback)
			}
		}
	}
	if req.StartDate != nil && strings.TrimSpace(*req.StartDate) != "" {
		if d, ok := datetime.ParseCalendarDateIn(*req.StartDate, loc); ok {
			start = d
		}
	}
	return start, end
}

// GetLedger implements attendance.LedgerService.
func (s *LedgerServiceImpl) GetLedger(ctx context.Context, req attendance.LedgerRequest) (attendance.LedgerResponse, error) {
	run, err := s.run(ctx, req)
	if err != nil {
		return attendance.LedgerResponse{}, err
	}

	return buildLedgerResponse(run), nil
}

func buildLedgerResponse(run ledgerRun) attendance.LedgerResponse {
	stats := make([]attendance.EmployeeStatsResponse, 0, len(run.stats))
	for _, st := range run.stats {
		stats = append(stats, mapStatsToResponse(st, false))
	}

	resp := attendance.LedgerResponse{
		RunID:       run.id,
		StartDate:   run.startDate(),
		EndDate:     run.endDate(),
		Metrics:     ComputeMetrics(run.stats),
		Records:     mapRecordsToResponse(run.records),
		Stats:       stats,
		Diagnostics: mapDiagnosticsToResponse(run.ledger.Diagnostics),
	}
	if !run.lastUpdated.IsZero() {
		updated := run.lastUpdated.Format(time.RFC3339)
		resp.LastUpdated = &updated
	}
	return resp
}

// ListEmployees implements attendance.LedgerService.
func (s *LedgerServiceImpl) ListEmployees(ctx context.Context) ([]attendance.EmployeeOption, error) {
	rows, _, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	options := make([]attendance.EmployeeOption, 0)
	for _, row := range rows {
		if row.EmployeeID == "" || strings.TrimSpace(row.FirstName) == "" {
			continue
		}
		if _, ok := seen[row.EmployeeID]; ok {
			continue
		}
		seen[row.EmployeeID] = struct{}{}
		options = append(options, attendance.EmployeeOption{ID: row.EmployeeID, Name: row.FullName()})
	}
	sort.SliceStable(options, func(i, j int) bool {
		return strings.ToLower(options[i].Name) < strings.ToLower(options[j].Name)
	})
	return options, nil
}

// GetEmployee implements attendance.LedgerService.
func (s *LedgerServiceImpl) GetEmployee(ctx context.Context, employeeID string, req attendance.LedgerRequest) (attendance.EmployeeDetailResponse, error) {
	employeeID = strings.TrimSpace(employeeID)
	req.EmployeeID = &employeeID

	run, err := s.run(ctx, req)
	if err != nil {
		return attendance.EmployeeDetailResponse{}, err
	}
	if len(run.stats) == 0 {
		return attendance.EmployeeDetailResponse{}, attendance.ErrEmployeeNotFound
	}

	st := run.stats[0]
	return attendance.EmployeeDetailResponse{
		StartDate:     run.startDate(),
		EndDate:       run.endDate(),
		Stats:         mapStatsToResponse(st, true),
		CurrentStreak: CurrentStreak(st.Records),
		OvertimeHours: OvertimeHours(st.Records),
	}, nil
}

// GetRankings implements attendance.LedgerService.
func (s *LedgerServiceImpl) GetRankings(ctx context.Context, req attendance.LedgerRequest) (attendance.RankingsResponse, error) {
	run, err := s.run(ctx, req)
	if err != nil {
		return attendance.RankingsResponse{}, err
	}

	topHours, bottomHours, topErrors, topDays := BuildRankings(run.stats)
	return attendance.RankingsResponse{
		StartDate:   run.startDate(),
		EndDate:     run.endDate(),
		TopHours:    topHours,
		BottomHours: bottomHours,
		TopErrors:   topErrors,
		TopDays:     topDays,
	}, nil
}

// GetCharts implements attendance.LedgerService.
func (s *LedgerServiceImpl) GetCharts(ctx context.Context, req attendance.LedgerRequest) (attendance.ChartsResponse, error) {
	run, err := s.run(ctx, req)
	if err != nil {
		return attendance.ChartsResponse{}, err
	}

	return attendance.ChartsResponse{
		StartDate:     run.startDate(),
		EndDate:       run.endDate(),
		Weekly:        WeeklyBuckets(run.records),
		DailyAbsences: DailyAbsences(run.records),
		ExtremeShifts: mapRecordsToResponse(ExtremeShifts(run.records)),
	}, nil
}

// Export implements attendance.LedgerService.
func (s *LedgerServiceImpl) Export(ctx context.Context, req attendance.LedgerRequest, w io.Writer) error {
	run, err := s.run(ctx, req)
	if err != nil {
		return err
	}

	if err := spreadsheet.WriteLedger(w, buildLedgerResponse(run)); err != nil {
		return fmt.Errorf("failed to write ledger workbook: %w", err)
	}
	return nil
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

func NewLedgerService(
	source attendance.PunchSource,
	publisher EventPublisher,
	loc *time.Location,
	opts ...Option,
) attendance.LedgerService {
	s := &LedgerServiceImpl{
		source:    source,
		engine:    NewEngine(loc),
		publisher: publisher,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
