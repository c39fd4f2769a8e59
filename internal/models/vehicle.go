package models

import "time"

// VehicleStatus is the overall condition recorded for a vehicle.
type VehicleStatus string

const (
	StatusGood     VehicleStatus = "GOOD"
	StatusMedium   VehicleStatus = "MEDIUM"
	StatusCritical VehicleStatus = "CRITICAL"
	StatusNone     VehicleStatus = "NO_STATUS"
)

// IsKnownStatus reports whether s is one of the three recordable statuses.
// NO_STATUS is a display fallback and is never stored.
func IsKnownStatus(s VehicleStatus) bool {
	switch s {
	case StatusGood, StatusMedium, StatusCritical:
		return true
	default:
		return false
	}
}

// Vehicle represents a user's vehicle.
type Vehicle struct {
	ID           int64          `bson:"_id,omitempty" json:"id"`
	UserID       int64          `bson:"user_id" json:"-"`
	LicensePlate string         `bson:"license_plate" json:"licensePlate"`
	Model        string         `bson:"model" json:"model"`
	Year         int            `bson:"year" json:"year"`
	Km           float64        `bson:"km" json:"km"`
	Status       *VehicleStatus `bson:"status,omitempty" json:"status,omitempty"`
	CreatedAt    time.Time      `bson:"created_at" json:"-"`
	UpdatedAt    time.Time      `bson:"updated_at" json:"-"`
}

// CreateVehicleRequest is the payload for POST /vehicle and PUT /vehicle/{id}.
type CreateVehicleRequest struct {
	LicensePlate string  `json:"licensePlate"`
	Model        string  `json:"model"`
	Year         int     `json:"year"`
	Km           float64 `json:"km"`
}

// UpdateVehicleStatusRequest is the payload for PUT /vehicle/{id}/status.
type UpdateVehicleStatusRequest struct {
	Status VehicleStatus `json:"status"`
}
