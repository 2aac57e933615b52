package validator

import (
	"strings"
	"time"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// IsValidDate reports whether dateStr is a YYYY-MM-DD date, returning it as
// midnight in loc.
func IsValidDate(dateStr string, loc *time.Location) (time.Time, bool) {
	date, err := time.ParseInLocation("2006-01-02", dateStr, loc)
	return date, err == nil
}

// Slice contains check
func IsInSlice(value string, slice []string) bool {
	for _, item := range slice {
		if item == value {
			return true
		}
	}
	return false
}

// MaxLength reports whether s fits within n runes once trimmed.
func MaxLength(s string, n int) bool {
	return len([]rune(strings.TrimSpace(s))) <= n
}
