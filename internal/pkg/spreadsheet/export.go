package spreadsheet

import (
	"fmt"
	"io"

	"github.com/cmlabs-hris/attendance-ledger-go/internal/domain/attendance"
	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet = "Resumen"
	RecordsSheet = "Registros"
)

var summaryHeaders = []interface{}{
	"ID Empleado", "Nombre", "Posición", "Horas Totales", "Días Trabajados",
	"Ausencias", "Errores", "Días Laborables", "Promedio Diario", "Asistencia %",
}

var recordHeaders = []interface{}{
	"Fecha", "ID Empleado", "Nombre", "Posición", "Entrada", "Salida",
	"Horas", "Error", "Ausente", "Domingo", "Horas Extra", "Origen",
}

// WriteLedger renders a ledger as a two-sheet workbook: per-employee totals
// and one row per day record.
func WriteLedger(w io.Writer, ledger attendance.LedgerResponse) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to rename summary sheet: %w", err)
	}
	if _, err := f.NewSheet(RecordsSheet); err != nil {
		return fmt.Errorf("failed to create records sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSummary(f, ledger, headerStyle); err != nil {
		return err
	}
	if err := writeRecords(f, ledger.Records, headerStyle); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, ledger attendance.LedgerResponse, headerStyle int) error {
	sheet := SummarySheet

	meta := [][]interface{}{
		{"Desde", ledger.StartDate},
		{"Hasta", ledger.EndDate},
		{"Horas Totales", ledger.Metrics.TotalHours},
		{"Promedio Diario", ledger.Metrics.AvgDailyHours},
		{"Asistencia %", ledger.Metrics.AttendanceRate},
		{"Errores", ledger.Metrics.TotalErrors},
		{"Ausencias", ledger.Metrics.TotalAbsentDays},
	}
	row := 1
	for _, m := range meta {
		if err := setRow(f, sheet, row, m); err != nil {
			return err
		}
		row++
	}

	row++
	if err := setRow(f, sheet, row, summaryHeaders); err != nil {
		return err
	}
	if err := styleHeader(f, sheet, row, len(summaryHeaders), headerStyle); err != nil {
		return err
	}

	for _, s := range ledger.Stats {
		row++
		values := []interface{}{
			s.EmployeeID, s.FullName, s.Position, s.TotalHours, s.DaysWorked,
			s.DaysAbsent, s.ErrorCount, s.PotentialWorkDays, s.AvgDailyHours, s.AttendanceRate,
		}
		if err := setRow(f, sheet, row, values); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 16); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "B", "C", 24)
}

func writeRecords(f *excelize.File, records []attendance.DayRecordResponse, headerStyle int) error {
	sheet := RecordsSheet

	if err := setRow(f, sheet, 1, recordHeaders); err != nil {
		return err
	}
	if err := styleHeader(f, sheet, 1, len(recordHeaders), headerStyle); err != nil {
		return err
	}

	for i, r := range records {
		values := []interface{}{
			r.Date, r.EmployeeID, r.FullName, r.Position,
			deref(r.CheckIn), deref(r.CheckOut), r.HoursWorked,
			yesNo(r.IsError), yesNo(r.IsAbsent), yesNo(r.IsSunday), yesNo(r.IsOvertime),
			r.Source,
		}
		if err := setRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "A", "B", 14); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "C", "D", 24); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "E", "F", 20)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func styleHeader(f *excelize.File, sheet string, row, cols, style int) error {
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "Sí"
	}
	return "No"
}
