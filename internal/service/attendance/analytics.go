package attendance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-ledger-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/pkg/datetime"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/pkg/utils"
)

const (
	rankingSize          = 10
	extremeShiftLimit    = 5
	extremeShiftHours    = 11.0
	standardShiftHours   = 9.0
	defaultRangeLookback = 30
)

// Filter narrows a ledger after reconciliation. Empty fields match everything.
type Filter struct {
	EmployeeID string
	Position   string
	Search     string
}

func filterFromRequest(req attendance.LedgerRequest) Filter {
	var f Filter
	if req.EmployeeID != nil {
		f.EmployeeID = strings.TrimSpace(*req.EmployeeID)
	}
	if req.Position != nil {
		f.Position = strings.TrimSpace(*req.Position)
	}
	if req.Search != nil {
		f.Search = strings.TrimSpace(*req.Search)
	}
	return f
}

// ApplyFilter keeps the stats matching position, employee and name search, in
// that order, and the records of the employees that survived.
func ApplyFilter(ledger attendance.Ledger, f Filter) ([]attendance.DayRecord, []attendance.EmployeeStats) {
	query := strings.ToLower(f.Search)

	stats := make([]attendance.EmployeeStats, 0, len(ledger.Stats))
	allowed := make(map[string]struct{}, len(ledger.Stats))
	for _, s := range ledger.Stats {
		if f.Position != "" && s.Position != f.Position {
			continue
		}
		if f.EmployeeID != "" && s.EmployeeID != f.EmployeeID {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(s.FullName), query) {
			continue
		}
		stats = append(stats, s)
		allowed[s.EmployeeID] = struct{}{}
	}

	records := make([]attendance.DayRecord, 0, len(ledger.Records))
	for _, r := range ledger.Records {
		if _, ok := allowed[r.EmployeeID]; ok {
			records = append(records, r)
		}
	}
	return records, stats
}

// ComputeMetrics rolls filtered stats up into the dashboard summary cards.
func ComputeMetrics(stats []attendance.EmployeeStats) attendance.DashboardMetrics {
	var (
		totalHours float64
		daysWorked int
		rateSum    float64
		metrics    attendance.DashboardMetrics
	)
	for _, s := range stats {
		totalHours += s.TotalHours
		daysWorked += s.DaysWorked
		rateSum += s.AttendanceRate
		metrics.TotalErrors += s.ErrorCount
		metrics.TotalAbsentDays += s.DaysAbsent
	}

	metrics.TotalHours = utils.Round(totalHours, 0)
	metrics.AvgDailyHours = utils.Round(utils.SafeDiv(totalHours, float64(daysWorked)), 1)
	metrics.AttendanceRate = utils.Round(utils.SafeDiv(rateSum, float64(len(stats))), 1)
	return metrics
}

// BuildRankings orders employees by hours, errors and days worked.
func BuildRankings(stats []attendance.EmployeeStats) (topHours, bottomHours, topErrors, topDays []attendance.RankingEntry) {
	byHours := sortedStats(stats, func(a, b attendance.EmployeeStats) bool { return a.TotalHours > b.TotalHours })
	topHours = rankingEntries(byHours, func(s attendance.EmployeeStats) float64 { return s.TotalHours }, nil)

	ascHours := sortedStats(stats, func(a, b attendance.EmployeeStats) bool { return a.TotalHours < b.TotalHours })
	bottomHours = rankingEntries(ascHours, func(s attendance.EmployeeStats) float64 { return s.TotalHours },
		func(s attendance.EmployeeStats) bool { return s.TotalHours > 0 })

	byErrors := sortedStats(stats, func(a, b attendance.EmployeeStats) bool { return a.ErrorCount > b.ErrorCount })
	topErrors = rankingEntries(byErrors, func(s attendance.EmployeeStats) float64 { return float64(s.ErrorCount) },
		func(s attendance.EmployeeStats) bool { return s.ErrorCount > 0 })

	byDays := sortedStats(stats, func(a, b attendance.EmployeeStats) bool { return a.DaysWorked > b.DaysWorked })
	topDays = rankingEntries(byDays, func(s attendance.EmployeeStats) float64 { return float64(s.DaysWorked) }, nil)
	return topHours, bottomHours, topErrors, topDays
}

func sortedStats(stats []attendance.EmployeeStats, less func(a, b attendance.EmployeeStats) bool) []attendance.EmployeeStats {
	out := make([]attendance.EmployeeStats, len(stats))
	copy(out, stats)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func rankingEntries(
	stats []attendance.EmployeeStats,
	value func(attendance.EmployeeStats) float64,
	keep func(attendance.EmployeeStats) bool,
) []attendance.RankingEntry {
	entries := make([]attendance.RankingEntry, 0, rankingSize)
	for _, s := range stats {
		if len(entries) == rankingSize {
			break
		}
		if keep != nil && !keep(s) {
			continue
		}
		entries = append(entries, attendance.RankingEntry{
			EmployeeID: s.EmployeeID,
			FullName:   s.FullName,
			Position:   s.Position,
			Value:      value(s),
		})
	}
	return entries
}

// WeeklyBuckets groups records by the Monday that opens their week.
func WeeklyBuckets(records []attendance.DayRecord) []attendance.WeeklyBucket {
	buckets := make(map[string]*attendance.WeeklyBucket)
	for _, r := range records {
		start := datetime.WeekStart(r.Date)
		key := datetime.DateString(start)
		b, ok := buckets[key]
		if !ok {
			_, week := start.ISOWeek()
			b = &attendance.WeeklyBucket{WeekStart: key, Label: fmt.Sprintf("Sem %d", week)}
			buckets[key] = b
		}
		b.TotalHours += r.HoursWorked
		if r.HoursWorked > 0 {
			b.ActiveDays++
		}
		if r.IsError {
			b.Errors++
		}
	}

	out := make([]attendance.WeeklyBucket, 0, len(buckets))
	for _, b := range buckets {
		b.TotalHours = utils.Round(b.TotalHours, hoursDecimalPlaces)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart < out[j].WeekStart })
	return out
}

// DailyAbsences counts absent employees per non-Sunday date.
func DailyAbsences(records []attendance.DayRecord) []attendance.DailyAbsence {
	counts := make(map[string]int)
	for _, r := range records {
		if r.IsSunday {
			continue
		}
		if _, ok := counts[r.DateString]; !ok {
			counts[r.DateString] = 0
		}
		if r.IsAbsent {
			counts[r.DateString]++
		}
	}

	out := make([]attendance.DailyAbsence, 0, len(counts))
	for date, count := range counts {
		out = append(out, attendance.DailyAbsence{Date: date, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// ExtremeShifts returns the longest shifts above 11 hours.
func ExtremeShifts(records []attendance.DayRecord) []attendance.DayRecord {
	out := make([]attendance.DayRecord, 0)
	for _, r := range records {
		if r.HoursWorked > extremeShiftHours {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].HoursWorked > out[j].HoursWorked })
	if len(out) > extremeShiftLimit {
		out = out[:extremeShiftLimit]
	}
	return out
}

// CurrentStreak counts consecutive days with hours, walking back from the
// latest record. Sundays neither extend nor break the streak.
func CurrentStreak(records []attendance.DayRecord) int {
	streak := 0
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if r.IsSunday {
			continue
		}
		if r.HoursWorked <= 0 {
			break
		}
		streak++
	}
	return streak
}

// OvertimeHours sums the hours beyond a standard shift.
func OvertimeHours(records []attendance.DayRecord) float64 {
	var total float64
	for _, r := range records {
		if r.HoursWorked > standardShiftHours {
			total += r.HoursWorked - standardShiftHours
		}
	}
	return utils.Round(total, hoursDecimalPlaces)
}

// DefaultRange ends on the latest parseable punch date and looks back 30 days.
// Without any dated row it ends today.
func DefaultRange(rows []attendance.RawPunchRow, today time.Time, loc *time.Location) (time.Time, time.Time) {
	var latest time.Time
	for _, row := range rows {
		d, ok := datetime.ParseCalendarDateIn(row.Date, loc)
		if !ok {
			continue
		}
		if latest.IsZero() || d.After(latest) {
			latest = d
		}
	}
	if latest.IsZero() {
		latest = datetime.StartOfDay(today.In(loc))
	}
	return datetime.AddDays(latest, -defaultRangeLookback), latest
}

// ========================================
// RESPONSE MAPPING
// ========================================

// timePtrToString safely converts a *time.Time to a string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.Format("2006-01-02 15:04:05")
	return &format
}

func mapRecordToResponse(r attendance.DayRecord) attendance.DayRecordResponse {
	return attendance.DayRecordResponse{
		ID:          r.ID,
		EmployeeID:  r.EmployeeID,
		FullName:    r.FullName,
		Position:    r.Position,
		Date:        r.DateString,
		CheckIn:     timePtrToString(r.CheckIn),
		CheckOut:    timePtrToString(r.CheckOut),
		HoursWorked: r.HoursWorked,
		IsError:     r.IsError,
		IsAbsent:    r.IsAbsent,
		IsSunday:    r.IsSunday,
		IsOvertime:  r.IsOvertime,
		Source:      string(r.Source),
	}
}

func mapRecordsToResponse(records []attendance.DayRecord) []attendance.DayRecordResponse {
	out := make([]attendance.DayRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, mapRecordToResponse(r))
	}
	return out
}

func mapStatsToResponse(s attendance.EmployeeStats, withRecords bool) attendance.EmployeeStatsResponse {
	resp := attendance.EmployeeStatsResponse{
		EmployeeID:        s.EmployeeID,
		FullName:          s.FullName,
		Position:          s.Position,
		TotalHours:        s.TotalHours,
		DaysWorked:        s.DaysWorked,
		DaysAbsent:        s.DaysAbsent,
		ErrorCount:        s.ErrorCount,
		PotentialWorkDays: s.PotentialWorkDays,
		AvgDailyHours:     s.AvgDailyHours,
		AttendanceRate:    s.AttendanceRate,
	}
	if withRecords {
		resp.Records = mapRecordsToResponse(s.Records)
	}
	return resp
}

func mapDiagnosticsToResponse(d attendance.Diagnostics) attendance.DiagnosticsResponse {
	return attendance.DiagnosticsResponse{
		InputRows:           d.InputRows,
		UnparseableDateRows: d.UnparseableDateRows,
		OutOfRangeRows:      d.OutOfRangeRows,
		DuplicateRows:       d.DuplicateRows,
		SynthesizedDays:     d.SynthesizedDays,
		SkippedFutureDays:   d.SkippedFutureDays,
	}
}
