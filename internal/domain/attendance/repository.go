package attendance

import "context"

// PunchSource loads raw punch rows from wherever the device data lives.
// Implementations never return rows without an employee id.
type PunchSource interface {
	FetchRows(ctx context.Context) ([]RawPunchRow, error)
}

// PunchRepository is the PostgreSQL-backed PunchSource, writable so device
// exports can be imported into it.
type PunchRepository interface {
	PunchSource

	// EnsureSchema creates the employees and attendance_punches tables if missing
	EnsureSchema(ctx context.Context) error

	UpsertEmployee(ctx context.Context, employee Employee) error
	CreatePunch(ctx context.Context, punch Punch) error
}
