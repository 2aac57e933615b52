package spreadsheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cmlabs-hris/attendance-ledger-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/pkg/fieldmap"
	"github.com/xuri/excelize/v2"
)

var ErrMissingColumn = errors.New("punch sheet is missing a required column")

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

type columns struct {
	employeeID, firstName, lastName, position int
	deviceID, date, checkIn, checkOut, note   int
}

func locateColumns(header []string) (columns, error) {
	c := columns{
		employeeID: fieldmap.HeaderIndex(header, fieldmap.EmployeeID),
		firstName:  fieldmap.HeaderIndex(header, fieldmap.FirstName),
		lastName:   fieldmap.HeaderIndex(header, fieldmap.LastName),
		position:   fieldmap.HeaderIndex(header, fieldmap.Position),
		deviceID:   fieldmap.HeaderIndex(header, fieldmap.DeviceID),
		date:       fieldmap.HeaderIndex(header, fieldmap.Date),
		checkIn:    fieldmap.HeaderIndex(header, fieldmap.CheckIn),
		checkOut:   fieldmap.HeaderIndex(header, fieldmap.CheckOut),
		note:       fieldmap.HeaderIndex(header, fieldmap.Note),
	}
	if c.employeeID < 0 {
		return c, fmt.Errorf("%w: employee id", ErrMissingColumn)
	}
	if c.date < 0 {
		return c, fmt.Errorf("%w: date", ErrMissingColumn)
	}
	return c, nil
}

// ReadPunches parses the first sheet of a workbook into punch rows. The first
// row is the header. Rows without an employee id are skipped. Date and time
// cells stored as Excel serials are rendered back to text so they go through
// the same parsing as every other source.
func ReadPunches(r io.Reader) ([]attendance.RawPunchRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMissingColumn)
	}

	grid, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(grid) == 0 {
		return []attendance.RawPunchRow{}, nil
	}

	cols, err := locateColumns(grid[0])
	if err != nil {
		return nil, err
	}

	rows := make([]attendance.RawPunchRow, 0, len(grid)-1)
	for _, line := range grid[1:] {
		id := cell(line, cols.employeeID)
		if id == "" {
			continue
		}

		date := serialToText(cell(line, cols.date), dateLayout)
		position := cell(line, cols.position)
		if position == "" {
			position = fieldmap.DefaultPosition
		}

		rows = append(rows, attendance.RawPunchRow{
			EmployeeID: id,
			FirstName:  cell(line, cols.firstName),
			LastName:   cell(line, cols.lastName),
			Position:   position,
			DeviceID:   cell(line, cols.deviceID),
			Date:       date,
			CheckIn:    timeCell(cell(line, cols.checkIn), date),
			CheckOut:   timeCell(cell(line, cols.checkOut), date),
			Note:       cell(line, cols.note),
		})
	}
	return rows, nil
}

func cell(line []string, idx int) string {
	if idx < 0 || idx >= len(line) {
		return ""
	}
	return strings.TrimSpace(line[idx])
}

// serialToText turns an Excel date serial into text. Anything that is not a
// positive number is returned unchanged.
func serialToText(value, layout string) string {
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil || serial <= 0 {
		return value
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return value
	}
	return t.Format(layout)
}

// timeCell handles punch cells that hold only a time of day (a serial below 1)
// by anchoring them on the row's date.
func timeCell(value, date string) string {
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil || serial <= 0 {
		return value
	}
	if serial >= 1 {
		return serialToText(value, timestampLayout)
	}
	if date == "" {
		return ""
	}
	seconds := int(math.Round(serial * 24 * 60 * 60))
	return fmt.Sprintf("%s %02d:%02d:%02d", date, seconds/3600, (seconds/60)%60, seconds%60)
}

// FileSource reads punches from a workbook on disk on every fetch.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// FetchRows implements attendance.PunchSource.
func (s *FileSource) FetchRows(ctx context.Context) ([]attendance.RawPunchRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", attendance.ErrSourceNotFound, s.Path)
		}
		return nil, fmt.Errorf("%w: %v", attendance.ErrSourceUnavailable, err)
	}
	defer file.Close()

	return ReadPunches(file)
}
