package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-ledger-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/pkg/datetime"
)

// TxRunner runs fn in a single transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Importer copies raw punch rows into a PunchRepository. Rows whose date does
// not parse are skipped; times that do not parse are stored as NULL.
type Importer struct {
	repo   attendance.PunchRepository
	withTx TxRunner
	loc    *time.Location
}

func NewImporter(repo attendance.PunchRepository, withTx TxRunner, loc *time.Location) *Importer {
	return &Importer{repo: repo, withTx: withTx, loc: loc}
}

func (i *Importer) Import(ctx context.Context, rows []attendance.RawPunchRow) (attendance.ImportResult, error) {
	if err := i.repo.EnsureSchema(ctx); err != nil {
		return attendance.ImportResult{}, err
	}

	loc := Engine{Location: i.loc}.location()
	dir := discoverEmployees(rows)

	var result attendance.ImportResult
	err := i.withTx(ctx, func(ctx context.Context) error {
		for _, id := range dir.order {
			owner := dir.rows[id]
			err := i.repo.UpsertEmployee(ctx, attendance.Employee{
				ID:        id,
				FirstName: owner.FirstName,
				LastName:  owner.LastName,
				Position:  owner.Position,
				DeviceID:  owner.DeviceID,
			})
			if err != nil {
				return err
			}
			result.Employees++
		}

		for _, row := range rows {
			if row.EmployeeID == "" {
				continue
			}
			date, ok := datetime.ParseCalendarDateIn(row.Date, loc)
			if !ok {
				result.SkippedBadDates++
				continue
			}

			punch := attendance.Punch{EmployeeID: row.EmployeeID, Date: date, Note: row.Note}
			if t, ok := datetime.ParseTimestampIn(row.CheckIn, loc); ok {
				punch.CheckIn = &t
			}
			if t, ok := datetime.ParseTimestampIn(row.CheckOut, loc); ok {
				punch.CheckOut = &t
			}
			if err := i.repo.CreatePunch(ctx, punch); err != nil {
				return err
			}
			result.Punches++
		}
		return nil
	})
	if err != nil {
		return attendance.ImportResult{}, fmt.Errorf("failed to import punches: %w", err)
	}

	slog.Info("punches imported", "employees", result.Employees, "punches", result.Punches, "skipped_bad_dates", result.SkippedBadDates)
	return result, nil
}
