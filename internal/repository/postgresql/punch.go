package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-ledger-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/pkg/fieldmap"
	"github.com/jackc/pgx/v5"
)

const (
	punchDateLayout      = "2006-01-02"
	punchTimestampLayout = time.RFC3339
)

const punchSchema = `
	CREATE TABLE IF NOT EXISTS employees (
		id         TEXT PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name  TEXT NOT NULL DEFAULT '',
		position   TEXT,
		device_id  TEXT
	);

	CREATE TABLE IF NOT EXISTS attendance_punches (
		id          BIGSERIAL PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		punch_date  DATE NOT NULL,
		check_in    TIMESTAMPTZ,
		check_out   TIMESTAMPTZ,
		note        TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_punches_employee_date
		ON attendance_punches (employee_id, punch_date);
`

type punchRepository struct {
	db *database.DB
}

// EnsureSchema implements attendance.PunchRepository.
func (p *punchRepository) EnsureSchema(ctx context.Context) error {
	q := GetQuerier(ctx, p.db)

	if _, err := q.Exec(ctx, punchSchema); err != nil {
		return fmt.Errorf("failed to ensure punch schema: %w", err)
	}
	return nil
}

// FetchRows implements attendance.PunchSource.
func (p *punchRepository) FetchRows(ctx context.Context) ([]attendance.RawPunchRow, error) {
	q := GetQuerier(ctx, p.db)

	query := `
		SELECT e.id, e.first_name, e.last_name,
		       COALESCE(e.position, ''), COALESCE(e.device_id, ''),
		       ap.punch_date, ap.check_in, ap.check_out, COALESCE(ap.note, '')
		FROM attendance_punches ap
		JOIN employees e ON e.id = ap.employee_id
		ORDER BY ap.punch_date, ap.id
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query attendance punches: %w", attendance.ErrSourceUnavailable, err)
	}
	defer rows.Close()

	punches := make([]attendance.RawPunchRow, 0)
	for rows.Next() {
		row, err := scanPunch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance punch: %w", err)
		}
		if row.EmployeeID == "" {
			continue
		}
		punches = append(punches, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating attendance punches: %w", attendance.ErrSourceUnavailable, err)
	}

	return punches, nil
}

func scanPunch(rows pgx.Rows) (attendance.RawPunchRow, error) {
	var (
		row       attendance.RawPunchRow
		punchDate time.Time
		checkIn   *time.Time
		checkOut  *time.Time
	)
	err := rows.Scan(
		&row.EmployeeID, &row.FirstName, &row.LastName,
		&row.Position, &row.DeviceID,
		&punchDate, &checkIn, &checkOut, &row.Note,
	)
	if err != nil {
		return attendance.RawPunchRow{}, err
	}

	if row.Position == "" {
		row.Position = fieldmap.DefaultPosition
	}
	row.Date = punchDate.Format(punchDateLayout)
	row.CheckIn = formatTimestamp(checkIn)
	row.CheckOut = formatTimestamp(checkOut)
	return row, nil
}

func formatTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(punchTimestampLayout)
}

// UpsertEmployee implements attendance.PunchRepository.
func (p *punchRepository) UpsertEmployee(ctx context.Context, employee attendance.Employee) error {
	q := GetQuerier(ctx, p.db)

	query := `
		INSERT INTO employees (id, first_name, last_name, position, device_id)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name  = EXCLUDED.last_name,
			position   = COALESCE(EXCLUDED.position, employees.position),
			device_id  = COALESCE(EXCLUDED.device_id, employees.device_id)
	`
	_, err := q.Exec(ctx, query, employee.ID, employee.FirstName, employee.LastName, employee.Position, employee.DeviceID)
	if err != nil {
		return fmt.Errorf("failed to upsert employee %s: %w", employee.ID, err)
	}
	return nil
}

// CreatePunch implements attendance.PunchRepository.
func (p *punchRepository) CreatePunch(ctx context.Context, punch attendance.Punch) error {
	q := GetQuerier(ctx, p.db)

	query := `
		INSERT INTO attendance_punches (employee_id, punch_date, check_in, check_out, note)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
	`
	date := punch.Date.Format(punchDateLayout)
	if _, err := q.Exec(ctx, query, punch.EmployeeID, date, punch.CheckIn, punch.CheckOut, punch.Note); err != nil {
		return fmt.Errorf("failed to create attendance punch: %w", err)
	}
	return nil
}

func NewPunchRepository(db *database.DB) attendance.PunchRepository {
	return &punchRepository{db: db}
}
