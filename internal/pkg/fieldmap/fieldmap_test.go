package fieldmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup_PriorityOrder(t *testing.T) {
	fields := map[string]interface{}{
		"Name":   "Ana",
		"Nombre": "Ana María",
		"Role":   nil,
	}

	v, ok := Lookup(fields, FirstName)
	assert.True(t, ok)
	assert.Equal(t, "Ana María", v)

	_, ok = Lookup(fields, Position)
	assert.False(t, ok, "nil values are treated as missing")
}

func TestString_Coerces(t *testing.T) {
	fields := map[string]interface{}{
		"Device ID": float64(1042),
		"Nota":      2.5,
		"Fecha":     "2024-03-04",
		"Empleado":  []interface{}{"recEMP1", "recEMP2"},
		"Position":  []interface{}{},
	}

	assert.Equal(t, "1042", String(fields, DeviceID))
	assert.Equal(t, "2.5", String(fields, Note))
	assert.Equal(t, "2024-03-04", String(fields, Date))
	assert.Equal(t, "", String(fields, CheckIn))
	assert.Equal(t, "recEMP1", String(fields, EmployeeLink))
	assert.Equal(t, "", String(fields, Position))
}

func TestHeaderIndex(t *testing.T) {
	headers := []string{" fecha ", "Entrada", "SALIDA", "Employee ID"}

	assert.Equal(t, 0, HeaderIndex(headers, Date))
	assert.Equal(t, 1, HeaderIndex(headers, CheckIn))
	assert.Equal(t, 2, HeaderIndex(headers, CheckOut))
	assert.Equal(t, 3, HeaderIndex(headers, EmployeeID))
	assert.Equal(t, -1, HeaderIndex(headers, Note))
}
