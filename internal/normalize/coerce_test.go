package normalize

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tallerapp/vehicle-maintenance/internal/models"
)

func TestToNumber(t *testing.T) {
	tests := []struct {
		name  string
		in    interface{}
		want  float64
		valid bool
	}{
		{"float", 12.5, 12.5, true},
		{"int", 7, 7, true},
		{"numeric string", "1500", 1500, true},
		{"padded string", " 42 ", 42, true},
		{"json number", json.Number("3.25"), 3.25, true},
		{"zero", 0.0, 0, true},
		{"negative", -10.0, -10, true},
		{"nil", nil, 0, false},
		{"empty string", "", 0, false},
		{"garbage string", "abc", 0, false},
		{"nan", math.NaN(), 0, false},
		{"inf", math.Inf(1), 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToNumber(tt.in)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestToPositiveInt(t *testing.T) {
	tests := []struct {
		name  string
		in    interface{}
		want  int64
		valid bool
	}{
		{"positive int", 6, 6, true},
		{"positive string", "7500", 7500, true},
		{"truncates", 6.9, 6, true},
		{"zero rejected", 0, 0, false},
		{"negative rejected", -3, 0, false},
		{"negative string rejected", "-5", 0, false},
		{"nil rejected", nil, 0, false},
		{"garbage rejected", "x", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToPositiveInt(tt.in)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestVehicleStatus(t *testing.T) {
	assert.Equal(t, models.StatusGood, VehicleStatus("GOOD"))
	assert.Equal(t, models.StatusMedium, VehicleStatus("MEDIUM"))
	assert.Equal(t, models.StatusCritical, VehicleStatus("CRITICAL"))
	assert.Equal(t, models.StatusNone, VehicleStatus(""))
	assert.Equal(t, models.StatusNone, VehicleStatus("good"))
	assert.Equal(t, models.StatusNone, VehicleStatus("BROKEN"))
}

func TestServiceName(t *testing.T) {
	assert.Equal(t, "Cambio de aceite", ServiceName("Cambio de aceite"))
	assert.Equal(t, "Frenos", ServiceName("  Frenos  "))
	assert.Equal(t, "Servicio", ServiceName(""))
	assert.Equal(t, "Servicio", ServiceName("   "))
}
