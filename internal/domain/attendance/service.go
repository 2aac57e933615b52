package attendance

import (
	"context"
	"io"
)

// LedgerService defines the read side of the attendance ledger
type LedgerService interface {
	// Refresh reloads the punch rows from the configured source
	Refresh(ctx context.Context) (RefreshResult, error)

	// GetLedger reconciles the cached rows over the requested range
	GetLedger(ctx context.Context, req LedgerRequest) (LedgerResponse, error)

	// ListEmployees returns every employee seen in the punch rows
	ListEmployees(ctx context.Context) ([]EmployeeOption, error)

	// GetEmployee returns the drill-down for a single employee
	GetEmployee(ctx context.Context, employeeID string, req LedgerRequest) (EmployeeDetailResponse, error)

	GetRankings(ctx context.Context, req LedgerRequest) (RankingsResponse, error)
	GetCharts(ctx context.Context, req LedgerRequest) (ChartsResponse, error)

	// Export writes the filtered ledger as an XLSX workbook
	Export(ctx context.Context, req LedgerRequest, w io.Writer) error
}
