// Package normalize is the boundary where loosely-typed API payloads become
// definite values. Absence is always a false/nil result, never an error.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/tallerapp/vehicle-maintenance/internal/models"
)

// ToNumber coerces an arbitrary decoded JSON value into a finite number.
func ToNumber(v interface{}) (float64, bool) {
	var n float64
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		n = t
	case float32:
		n = float64(t)
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// ToPositiveInt coerces identifier and magnitude fields (service id, vehicle
// id, months, mileage): the value must be finite and strictly positive, and is
// truncated toward zero.
func ToPositiveInt(v interface{}) (int64, bool) {
	n, ok := ToNumber(v)
	if !ok || n <= 0 {
		return 0, false
	}
	return int64(n), true
}

// VehicleStatus maps the three known status values; anything else becomes the
// explicit NO_STATUS fallback.
func VehicleStatus(s string) models.VehicleStatus {
	switch models.VehicleStatus(s) {
	case models.StatusGood, models.StatusMedium, models.StatusCritical:
		return models.VehicleStatus(s)
	default:
		return models.StatusNone
	}
}

// ServiceName trims a service name, falling back to the generic label used
// throughout the UI when the backend sent nothing usable.
func ServiceName(name string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	return "Servicio"
}
