package models

import "time"

// Appointment lifecycle statuses.
const (
	AppointmentPending          = "PENDING"
	AppointmentConfirmed        = "CONFIRMED"
	AppointmentInService        = "IN_SERVICE"
	AppointmentCompleted        = "COMPLETED"
	AppointmentServiceCompleted = "SERVICE_COMPLETED"
	AppointmentCancelled        = "CANCELLED"
)

// Service is a workshop service that can be performed during an appointment.
type Service struct {
	ID    int64   `bson:"id" json:"id"`
	Name  string  `bson:"name" json:"name"`
	Price float64 `bson:"price,omitempty" json:"price,omitempty"`
}

// Workshop identifies the workshop that served an appointment.
type Workshop struct {
	ID           int64  `bson:"id,omitempty" json:"id,omitempty"`
	WorkshopName string `bson:"workshop_name" json:"workshopName"`
}

// Appointment is a booked (or already served) workshop visit. The vehicle is
// embedded as a snapshot of its state at booking time, so history entries keep
// the km and status the vehicle had back then even after later updates.
type Appointment struct {
	ID                     int64     `bson:"_id,omitempty" json:"id"`
	UserID                 int64     `bson:"user_id" json:"-"`
	Date                   string    `bson:"date" json:"date"`                     // "2006-01-02"
	Time                   string    `bson:"time,omitempty" json:"time,omitempty"` // "15:04"
	Services               []Service `bson:"services" json:"services"`
	Status                 string    `bson:"status" json:"status"`
	Vehicle                Vehicle   `bson:"vehicle" json:"vehicle"`
	KmAtService            *float64  `bson:"km_at_service,omitempty" json:"kmAtService,omitempty"`
	VehicleStatusAtService string    `bson:"vehicle_status_at_service,omitempty" json:"vehicleStatusAtService,omitempty"`
	OriginalPrice          *float64  `bson:"original_price,omitempty" json:"originalPrice,omitempty"`
	FinalPrice             *float64  `bson:"final_price,omitempty" json:"finalPrice,omitempty"`
	Workshop               *Workshop `bson:"workshop,omitempty" json:"workshop,omitempty"`
	CreatedAt              time.Time `bson:"created_at" json:"-"`
	UpdatedAt              time.Time `bson:"updated_at" json:"-"`
}

// AppointmentCompletion carries the service outcome recorded when a workshop
// closes an appointment.
type AppointmentCompletion struct {
	KmAtService   *float64      `json:"kmAtService,omitempty"`
	VehicleStatus VehicleStatus `json:"vehicleStatus,omitempty"`
	FinalPrice    *float64      `json:"finalPrice,omitempty"`
}

// IsCompleted reports whether the appointment counts toward service history.
func (a *Appointment) IsCompleted() bool {
	return a.Status == AppointmentCompleted || a.Status == AppointmentServiceCompleted
}

// IsOpen reports whether the appointment counts toward pending services.
func (a *Appointment) IsOpen() bool {
	switch a.Status {
	case AppointmentPending, AppointmentConfirmed, AppointmentInService:
		return true
	default:
		return false
	}
}
