package attendance

import (
	"strings"
	"time"
)

// RawPunchRow is one punch row as delivered by a PunchSource, already joined
// to its employee.
type RawPunchRow struct {
	EmployeeID string
	FirstName  string
	LastName   string
	Position   string
	DeviceID   string
	Date       string
	CheckIn    string
	CheckOut   string
	Note       string
}

// FullName joins first and last name.
func (r RawPunchRow) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

type RecordSource string

const (
	SourcePunch RecordSource = "punch"
	SourceGap   RecordSource = "gap"
)

// DayRecord is the reconciled state of one employee on one calendar day.
type DayRecord struct {
	ID          string
	EmployeeID  string
	FullName    string
	Position    string
	Date        time.Time
	DateString  string
	CheckIn     *time.Time
	CheckOut    *time.Time
	HoursWorked float64
	IsError     bool
	IsAbsent    bool
	IsSunday    bool
	IsOvertime  bool
	Source      RecordSource
}

// Worked reports whether the day counts toward hours and days worked.
func (r DayRecord) Worked() bool {
	return !r.IsAbsent && !r.IsSunday && !r.IsError && r.HoursWorked > 0
}

type EmployeeStats struct {
	EmployeeID        string
	FullName          string
	Position          string
	TotalHours        float64
	DaysWorked        int
	DaysAbsent        int
	ErrorCount        int
	PotentialWorkDays int
	AvgDailyHours     float64
	AttendanceRate    float64
	Records           []DayRecord
}

// Diagnostics counts what happened to the input rows during a reconcile run.
type Diagnostics struct {
	InputRows           int
	UnparseableDateRows int
	OutOfRangeRows      int
	DuplicateRows       int
	SynthesizedDays     int
	SkippedFutureDays   int
}

// Ledger is the output of one reconcile run.
type Ledger struct {
	RangeStart  time.Time
	RangeEnd    time.Time
	Records     []DayRecord
	Stats       []EmployeeStats
	Diagnostics Diagnostics
}

// Employee is the identity half of a punch row as stored in PostgreSQL.
type Employee struct {
	ID        string
	FirstName string
	LastName  string
	Position  string
	DeviceID  string
}

// Punch is a typed punch row ready to be stored.
type Punch struct {
	EmployeeID string
	Date       time.Time
	CheckIn    *time.Time
	CheckOut   *time.Time
	Note       string
}
