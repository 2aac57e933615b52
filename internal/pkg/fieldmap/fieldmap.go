// Package fieldmap resolves logical punch-row fields against the labels the
// source tables actually use. Labels are tried in priority order.
package fieldmap

import (
	"fmt"
	"strings"
)

var (
	EmployeeLink = []string{"Empleado", "Employee", "Link"}
	EmployeeID   = []string{"ID Empleado", "Employee ID", "EmployeeID", "Empleado", "Employee"}
	FirstName    = []string{"Nombre", "Name", "First Name"}
	LastName     = []string{"Apellido", "Last Name", "Surname"}
	Position     = []string{"Posición", "Posicion", "Position", "Role"}
	DeviceID     = []string{"ID en Dispositivo", "ID_Dispositivo", "Device ID", "ID Dispositivo"}
	Date         = []string{"Fecha", "Date"}
	CheckIn      = []string{"Check-in Time", "Check-in", "Entrada"}
	CheckOut     = []string{"Check-out Time", "Check-out", "Salida"}
	Note         = []string{"Nota procesamiento", "Nota", "Note", "Notes"}
)

// DefaultPosition is used when an employee has no position on record.
const DefaultPosition = "Sin Asignar"

// Lookup returns the first candidate present with a non-nil value.
func Lookup(fields map[string]interface{}, candidates []string) (interface{}, bool) {
	for _, c := range candidates {
		if v, ok := fields[c]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// String is Lookup coerced to a string; missing values become "".
func String(fields map[string]interface{}, candidates []string) string {
	v, ok := Lookup(fields, candidates)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []interface{}:
		// linked records and lookups arrive as arrays
		if len(t) == 0 {
			return ""
		}
		return String(map[string]interface{}{"v": t[0]}, []string{"v"})
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}

// HeaderIndex finds the column whose header matches a candidate, ignoring case
// and surrounding whitespace. It returns -1 when nothing matches.
func HeaderIndex(headers []string, candidates []string) int {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}
	for _, c := range candidates {
		want := normalizeHeader(c)
		for i, h := range normalized {
			if h == want {
				return i
			}
		}
	}
	return -1
}

func normalizeHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}
