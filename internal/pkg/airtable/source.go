package airtable

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-ledger-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/pkg/fieldmap"
	"golang.org/x/sync/errgroup"
)

// UnknownEmployee names punches linked to an employee record that no longer exists.
const UnknownEmployee = "Desconocido"

type employee struct {
	firstName string
	lastName  string
	position  string
	deviceID  string
}

// Source joins the attendance table to the employees table.
type Source struct {
	client          *Client
	employeesTable  string
	attendanceTable string
}

func NewSource(client *Client, employeesTable, attendanceTable string) *Source {
	return &Source{
		client:          client,
		employeesTable:  employeesTable,
		attendanceTable: attendanceTable,
	}
}

// FetchRows implements attendance.PunchSource.
func (s *Source) FetchRows(ctx context.Context) ([]attendance.RawPunchRow, error) {
	var employees, punches []Record

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := s.client.FetchTable(gctx, s.employeesTable)
		if err != nil {
			return fmt.Errorf("failed to fetch employees table: %w", err)
		}
		employees = records
		return nil
	})
	g.Go(func() error {
		records, err := s.client.FetchTable(gctx, s.attendanceTable)
		if err != nil {
			return fmt.Errorf("failed to fetch attendance table: %w", err)
		}
		punches = records
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, classify(err)
	}

	return joinRows(employees, punches), nil
}

func joinRows(employees, punches []Record) []attendance.RawPunchRow {
	directory := make(map[string]employee, len(employees))
	for _, r := range employees {
		position := fieldmap.String(r.Fields, fieldmap.Position)
		if position == "" {
			position = fieldmap.DefaultPosition
		}
		directory[r.ID] = employee{
			firstName: fieldmap.String(r.Fields, fieldmap.FirstName),
			lastName:  fieldmap.String(r.Fields, fieldmap.LastName),
			position:  position,
			deviceID:  fieldmap.String(r.Fields, fieldmap.DeviceID),
		}
	}

	rows := make([]attendance.RawPunchRow, 0, len(punches))
	for _, r := range punches {
		id := fieldmap.String(r.Fields, fieldmap.EmployeeLink)
		if id == "" {
			continue
		}

		emp, ok := directory[id]
		if !ok {
			emp = employee{firstName: UnknownEmployee, position: UnknownEmployee}
		}

		rows = append(rows, attendance.RawPunchRow{
			EmployeeID: id,
			FirstName:  emp.firstName,
			LastName:   emp.lastName,
			Position:   emp.position,
			DeviceID:   emp.deviceID,
			Date:       fieldmap.String(r.Fields, fieldmap.Date),
			CheckIn:    fieldmap.String(r.Fields, fieldmap.CheckIn),
			CheckOut:   fieldmap.String(r.Fields, fieldmap.CheckOut),
			Note:       fieldmap.String(r.Fields, fieldmap.Note),
		})
	}
	return rows
}

// classify maps client errors onto the domain source errors, keeping the
// original error in the chain.
func classify(err error) error {
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrUnauthorized):
		return fmt.Errorf("%w: %w", attendance.ErrSourceUnauthorized, err)
	case errors.Is(err, ErrTableNotFound):
		return fmt.Errorf("%w: %w", attendance.ErrSourceNotFound, err)
	case errors.Is(err, ErrUnreachable), errors.As(err, &apiErr):
		return fmt.Errorf("%w: %w", attendance.ErrSourceUnavailable, err)
	default:
		return err
	}
}
