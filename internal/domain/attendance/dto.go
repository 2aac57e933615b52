package attendance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-ledger-go/internal/pkg/validator"
)

// ========================================
// LEDGER REQUEST
// ========================================

type LedgerRequest struct {
	// Range
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD

	// Post-hoc filters
	EmployeeID *string `json:"employee_id,omitempty"`
	Position   *string `json:"position,omitempty"`
	Search     *string `json:"search,omitempty"`
}

func (r *LedgerRequest) Validate() error {
	var errs validator.ValidationErrors
	var start, end time.Time

	if r.StartDate != nil && !validator.IsEmpty(*r.StartDate) {
		d, valid := validator.IsValidDate(strings.TrimSpace(*r.StartDate), time.Local)
		if !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
		start = d
	}

	if r.EndDate != nil && !validator.IsEmpty(*r.EndDate) {
		d, valid := validator.IsValidDate(strings.TrimSpace(*r.EndDate), time.Local)
		if !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
		end = d
	}

	if !start.IsZero() && !end.IsZero() && start.After(end) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	if r.Search != nil && !validator.MaxLength(*r.Search, 100) {
		errs = append(errs, validator.ValidationError{
			Field:   "search",
			Message: "search must not exceed 100 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// LEDGER RESPONSE
// ========================================

type DayRecordResponse struct {
	ID          string  `json:"id"`
	EmployeeID  string  `json:"employee_id"`
	FullName    string  `json:"full_name"`
	Position    string  `json:"position"`
	Date        string  `json:"date"`
	CheckIn     *string `json:"check_in,omitempty"`
	CheckOut    *string `json:"check_out,omitempty"`
	HoursWorked float64 `json:"hours_worked"`
	IsError     bool    `json:"is_error"`
	IsAbsent    bool    `json:"is_absent"`
	IsSunday    bool    `json:"is_sunday"`
	IsOvertime  bool    `json:"is_overtime"`
	Source      string  `json:"source"`
}

type EmployeeStatsResponse struct {
	EmployeeID        string              `json:"employee_id"`
	FullName          string              `json:"full_name"`
	Position          string              `json:"position"`
	TotalHours        float64             `json:"total_hours"`
	DaysWorked        int                 `json:"days_worked"`
	DaysAbsent        int                 `json:"days_absent"`
	ErrorCount        int                 `json:"error_count"`
	PotentialWorkDays int                 `json:"potential_work_days"`
	AvgDailyHours     float64             `json:"avg_daily_hours"`
	AttendanceRate    float64             `json:"attendance_rate"`
	Records           []DayRecordResponse `json:"records,omitempty"`
}

type DashboardMetrics struct {
	TotalHours      float64 `json:"total_hours"`
	AvgDailyHours   float64 `json:"avg_daily_hours"`
	AttendanceRate  float64 `json:"attendance_rate"`
	TotalErrors     int     `json:"total_errors"`
	TotalAbsentDays int     `json:"total_absent_days"`
}

type DiagnosticsResponse struct {
	InputRows           int `json:"input_rows"`
	UnparseableDateRows int `json:"unparseable_date_rows"`
	OutOfRangeRows      int `json:"out_of_range_rows"`
	DuplicateRows       int `json:"duplicate_rows"`
	SynthesizedDays     int `json:"synthesized_days"`
	SkippedFutureDays   int `json:"skipped_future_days"`
}

type LedgerResponse struct {
	RunID       string                  `json:"run_id"`
	StartDate   string                  `json:"start_date"`
	EndDate     string                  `json:"end_date"`
	LastUpdated *string                 `json:"last_updated,omitempty"`
	Metrics     DashboardMetrics        `json:"metrics"`
	Records     []DayRecordResponse     `json:"records"`
	Stats       []EmployeeStatsResponse `json:"stats"`
	Diagnostics DiagnosticsResponse     `json:"diagnostics"`
}

// ========================================
// EMPLOYEES
// ========================================

type EmployeeOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type EmployeeDetailResponse struct {
	StartDate     string                `json:"start_date"`
	EndDate       string                `json:"end_date"`
	Stats         EmployeeStatsResponse `json:"stats"`
	CurrentStreak int                   `json:"current_streak"`
	OvertimeHours float64               `json:"overtime_hours"`
}

// ========================================
// RANKINGS & CHARTS
// ========================================

type RankingEntry struct {
	EmployeeID string  `json:"employee_id"`
	FullName   string  `json:"full_name"`
	Position   string  `json:"position"`
	Value      float64 `json:"value"`
}

type RankingsResponse struct {
	StartDate   string         `json:"start_date"`
	EndDate     string         `json:"end_date"`
	TopHours    []RankingEntry `json:"top_hours"`
	BottomHours []RankingEntry `json:"bottom_hours"`
	TopErrors   []RankingEntry `json:"top_errors"`
	TopDays     []RankingEntry `json:"top_days"`
}

type WeeklyBucket struct {
	WeekStart  string  `json:"week_start"`
	Label      string  `json:"label"`
	TotalHours float64 `json:"total_hours"`
	ActiveDays int     `json:"active_days"`
	Errors     int     `json:"errors"`
}

type DailyAbsence struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type ChartsResponse struct {
	StartDate     string              `json:"start_date"`
	EndDate       string              `json:"end_date"`
	Weekly        []WeeklyBucket      `json:"weekly"`
	DailyAbsences []DailyAbsence      `json:"daily_absences"`
	ExtremeShifts []DayRecordResponse `json:"extreme_shifts"`
}

// ========================================
// REFRESH
// ========================================

type RefreshResult struct {
	RefreshID   string `json:"refresh_id"`
	Rows        int    `json:"rows"`
	Employees   int    `json:"employees"`
	LastUpdated string `json:"last_updated"`
}

// ========================================
// IMPORT
// ========================================

type ImportResult struct {
	Employees       int `json:"employees"`
	Punches         int `json:"punches"`
	SkippedBadDates int `json:"skipped_bad_dates"`
}
