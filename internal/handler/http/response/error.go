package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-ledger-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Lookup errors
	case errors.Is(err, attendance.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Punch source errors
	case errors.Is(err, attendance.ErrSourceUnauthorized):
		slog.Error("punch source rejected credentials", "error", err)
		BadGateway(w, "SOURCE_UNAUTHORIZED", "The punch source rejected the configured credentials")
	case errors.Is(err, attendance.ErrSourceNotFound):
		slog.Error("punch source not found", "error", err)
		BadGateway(w, "SOURCE_NOT_FOUND", "The punch source table or base was not found")
	case errors.Is(err, attendance.ErrSourceUnavailable):
		slog.Error("punch source unavailable", "error", err)
		BadGateway(w, "SOURCE_UNAVAILABLE", "The punch source is unavailable")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
