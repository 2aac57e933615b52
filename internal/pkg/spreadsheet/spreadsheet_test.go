package spreadsheet

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-ledger-go/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestReadPunches(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{
		{"ID Empleado", "Nombre", "Apellido", "Posición", "Fecha", "Entrada", "Salida", "Nota"},
		{"E1", "Ana", "Pérez", "Operador", "2024-03-04", "2024-03-04 08:00:00", "2024-03-04 16:30:00", "ok"},
		{"", "Fantasma", "", "", "2024-03-04", "", "", ""},
		{"E2", "Bruno", "Díaz", "", time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), 0.375, 0.75, ""},
	})

	rows, err := ReadPunches(buf)

	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, attendance.RawPunchRow{
		EmployeeID: "E1", FirstName: "Ana", LastName: "Pérez", Position: "Operador",
		Date: "2024-03-04", CheckIn: "2024-03-04 08:00:00", CheckOut: "2024-03-04 16:30:00", Note: "ok",
	}, rows[0])

	assert.Equal(t, "E2", rows[1].EmployeeID)
	assert.Equal(t, "Sin Asignar", rows[1].Position)
	assert.Equal(t, "2024-03-05", rows[1].Date)
	assert.Equal(t, "2024-03-05 09:00:00", rows[1].CheckIn)
	assert.Equal(t, "2024-03-05 18:00:00", rows[1].CheckOut)
}

func TestReadPunches_EnglishHeaders(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{
		{"Employee ID", "First Name", "Last Name", "Date", "Check-in Time", "Check-out Time"},
		{"7", "Carla", "Ruiz", "2024-03-04", "2024-03-04T07:00:00", ""},
	})

	rows, err := ReadPunches(buf)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "7", rows[0].EmployeeID)
	assert.Equal(t, "2024-03-04T07:00:00", rows[0].CheckIn)
	assert.Equal(t, "", rows[0].CheckOut)
}

func TestReadPunches_MissingColumn(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{
		{"Nombre", "Fecha"},
		{"Ana", "2024-03-04"},
	})

	_, err := ReadPunches(buf)

	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestFileSource(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{
		{"ID Empleado", "Fecha"},
		{"E1", "2024-03-04"},
	})
	path := filepath.Join(t.TempDir(), "punches.xlsx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	rows, err := NewFileSource(path).FetchRows(context.Background())

	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFileSource_Missing(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "nope.xlsx")).FetchRows(context.Background())

	assert.True(t, errors.Is(err, attendance.ErrSourceNotFound))
}

func TestWriteLedger(t *testing.T) {
	in := "2024-03-04 08:00:00"
	ledger := attendance.LedgerResponse{
		StartDate: "2024-03-04",
		EndDate:   "2024-03-05",
		Metrics:   attendance.DashboardMetrics{TotalHours: 8},
		Stats: []attendance.EmployeeStatsResponse{
			{EmployeeID: "E1", FullName: "Ana Pérez", Position: "Operador", TotalHours: 8, DaysWorked: 1},
		},
		Records: []attendance.DayRecordResponse{
			{Date: "2024-03-04", EmployeeID: "E1", FullName: "Ana Pérez", CheckIn: &in, HoursWorked: 8, Source: "punch"},
			{Date: "2024-03-05", EmployeeID: "E1", FullName: "Ana Pérez", IsAbsent: true, Source: "gap"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteLedger(&buf, ledger))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SummarySheet, RecordsSheet}, f.GetSheetList())

	records, err := f.GetRows(RecordsSheet)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Fecha", records[0][0])
	assert.Equal(t, in, records[1][4])
	assert.Equal(t, "Sí", records[2][8])

	start, err := f.GetCellValue(SummarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", start)

	name, err := f.GetCellValue(SummarySheet, "B10")
	require.NoError(t, err)
	assert.Equal(t, "Ana Pérez", name)
}
