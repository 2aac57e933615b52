package attendance

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-ledger-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/pkg/datetime"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/pkg/utils"
)

const (
	maxShiftHours      = 24.0
	overtimeThreshold  = 10.0
	hoursDecimalPlaces = 2
	rateDecimalPlaces  = 1
)

// Engine reconciles raw punch rows into a per-employee, per-day ledger.
// It is a pure function of its inputs; the zero value works in time.Local.
type Engine struct {
	Location *time.Location
}

func NewEngine(loc *time.Location) Engine {
	return Engine{Location: loc}
}

// Reconcile runs the engine in time.Local.
func Reconcile(rows []attendance.RawPunchRow, rangeStart, rangeEnd, today time.Time) attendance.Ledger {
	return Engine{}.Reconcile(rows, rangeStart, rangeEnd, today)
}

func (e Engine) location() *time.Location {
	if e.Location == nil {
		return time.Local
	}
	return e.Location
}

// employeeDirectory holds the first row seen per employee, in discovery order.
type employeeDirectory struct {
	order []string
	rows  map[string]attendance.RawPunchRow
}

func discoverEmployees(rows []attendance.RawPunchRow) employeeDirectory {
	dir := employeeDirectory{rows: make(map[string]attendance.RawPunchRow)}
	for _, row := range rows {
		if row.EmployeeID == "" {
			continue
		}
		if _, ok := dir.rows[row.EmployeeID]; ok {
			continue
		}
		dir.order = append(dir.order, row.EmployeeID)
		dir.rows[row.EmployeeID] = row
	}
	return dir
}

// Reconcile converts rows dated inside [rangeStart, rangeEnd] into day records,
// fills every missing employee-day up to today with a synthesized record, and
// aggregates per-employee statistics over the result.
//
// rangeStart is taken from 00:00:00.000 and rangeEnd up to 23:59:59.999 of
// their days. today bounds gap synthesis: days after it are neither present nor
// absent.
func (e Engine) Reconcile(rows []attendance.RawPunchRow, rangeStart, rangeEnd, today time.Time) attendance.Ledger {
	loc := e.location()
	start := datetime.StartOfDay(rangeStart.In(loc))
	end := datetime.EndOfDay(rangeEnd.In(loc))
	cutoff := effectiveCutoff(end, today.In(loc))

	ledger := attendance.Ledger{RangeStart: start, RangeEnd: end}
	diag := &ledger.Diagnostics
	diag.InputRows = len(rows)

	dir := discoverEmployees(rows)
	byEmployee := make(map[string][]attendance.DayRecord, len(dir.order))
	present := make(map[string]struct{})

	for _, row := range rows {
		if row.EmployeeID == "" {
			continue
		}

		date, ok := datetime.ParseCalendarDateIn(row.Date, loc)
		if !ok {
			diag.UnparseableDateRows++
			continue
		}
		if date.Before(start) || date.After(end) {
			diag.OutOfRangeRows++
			continue
		}

		key := recordKey(row.EmployeeID, date)
		if _, dup := present[key]; dup {
			diag.DuplicateRows++
			continue
		}
		present[key] = struct{}{}

		record := e.convertRow(dir.rows[row.EmployeeID], row, date)
		byEmployee[row.EmployeeID] = append(byEmployee[row.EmployeeID], record)
	}

	days := datetime.EachDay(start, end)
	for _, id := range dir.order {
		owner := dir.rows[id]
		for _, day := range days {
			if _, ok := present[recordKey(id, day)]; ok {
				continue
			}
			if day.After(cutoff) {
				diag.SkippedFutureDays++
				continue
			}
			byEmployee[id] = append(byEmployee[id], synthesizeDay(owner, day))
			diag.SynthesizedDays++
		}
	}

	ledger.Records = make([]attendance.DayRecord, 0)
	ledger.Stats = make([]attendance.EmployeeStats, 0, len(dir.order))
	for _, id := range dir.order {
		records := byEmployee[id]
		sortByDate(records)
		ledger.Stats = append(ledger.Stats, summarize(dir.rows[id], records))
		ledger.Records = append(ledger.Records, records...)
	}
	sortByDate(ledger.Records)

	return ledger
}

// effectiveCutoff is the last calendar day eligible for gap synthesis: today,
// or the range end when the range closes before today.
func effectiveCutoff(rangeEnd, today time.Time) time.Time {
	todayStart := datetime.StartOfDay(today)
	endStart := datetime.StartOfDay(rangeEnd)
	if endStart.Before(todayStart) {
		return endStart
	}
	return todayStart
}

func recordKey(employeeID string, date time.Time) string {
	return employeeID + "|" + datetime.DateString(date)
}

func recordID(employeeID string, date time.Time) string {
	return employeeID + "-" + datetime.DayKey(date)
}

func (e Engine) convertRow(owner, row attendance.RawPunchRow, date time.Time) attendance.DayRecord {
	loc := e.location()
	checkIn, hasIn := datetime.ParseTimestampIn(row.CheckIn, loc)
	checkOut, hasOut := datetime.ParseTimestampIn(row.CheckOut, loc)

	var hours float64
	isError := false
	switch {
	case hasIn && hasOut:
		hours = checkOut.Sub(checkIn).Hours()
		if hours < 0 {
			hours = 0
		}
		if hours > maxShiftHours {
			hours = maxShiftHours
			isError = true
		}
	case hasIn != hasOut:
		// one-sided punch
		isError = true
	}

	record := attendance.DayRecord{
		ID:          recordID(row.EmployeeID, date),
		EmployeeID:  row.EmployeeID,
		FullName:    owner.FullName(),
		Position:    owner.Position,
		Date:        date,
		DateString:  datetime.DateString(date),
		HoursWorked: utils.Round(hours, hoursDecimalPlaces),
		IsError:     isError,
		IsSunday:    date.Weekday() == time.Sunday,
		IsOvertime:  hours > overtimeThreshold,
		Source:      attendance.SourcePunch,
	}
	if hasIn {
		record.CheckIn = &checkIn
	}
	if hasOut {
		record.CheckOut = &checkOut
	}
	return record
}

func synthesizeDay(owner attendance.RawPunchRow, day time.Time) attendance.DayRecord {
	isSunday := day.Weekday() == time.Sunday
	return attendance.DayRecord{
		ID:         recordID(owner.EmployeeID, day),
		EmployeeID: owner.EmployeeID,
		FullName:   owner.FullName(),
		Position:   owner.Position,
		Date:       day,
		DateString: datetime.DateString(day),
		IsAbsent:   !isSunday,
		IsSunday:   isSunday,
		Source:     attendance.SourceGap,
	}
}

func summarize(owner attendance.RawPunchRow, records []attendance.DayRecord) attendance.EmployeeStats {
	stats := attendance.EmployeeStats{
		EmployeeID: owner.EmployeeID,
		FullName:   owner.FullName(),
		Position:   owner.Position,
		Records:    records,
	}
	if stats.Records == nil {
		stats.Records = []attendance.DayRecord{}
	}

	var total float64
	for _, r := range records {
		if r.Worked() {
			total += r.HoursWorked
			stats.DaysWorked++
		}
		if r.IsAbsent {
			stats.DaysAbsent++
		}
		if r.IsError {
			stats.ErrorCount++
		}
		if !r.IsSunday {
			stats.PotentialWorkDays++
		}
	}

	stats.TotalHours = utils.Round(total, hoursDecimalPlaces)
	if stats.DaysWorked > 0 {
		stats.AvgDailyHours = utils.Round(total/float64(stats.DaysWorked), hoursDecimalPlaces)
	}
	if stats.PotentialWorkDays > 0 {
		rate := (1 - float64(stats.DaysAbsent)/float64(stats.PotentialWorkDays)) * 100
		stats.AttendanceRate = utils.Round(rate, rateDecimalPlaces)
	}
	return stats
}

func sortByDate(records []attendance.DayRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
}
