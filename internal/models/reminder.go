package models

import "time"

// Reminder is a per-service maintenance threshold expressed as an interval in
// months and/or kilometers. LastMonths/LastMileage keep the previously saved
// interval so the client can offer a restore action.
type Reminder struct {
	ID          int64     `bson:"_id,omitempty" json:"id"`
	UserID      int64     `bson:"user_id" json:"-"`
	ServiceID   int64     `bson:"service_id" json:"serviceId"`
	Months      *int64    `bson:"months,omitempty" json:"months,omitempty"`
	Mileage     *int64    `bson:"mileage,omitempty" json:"mileage,omitempty"`
	LastMonths  *int64    `bson:"last_months,omitempty" json:"lastMonths,omitempty"`
	LastMileage *int64    `bson:"last_mileage,omitempty" json:"lastMileage,omitempty"`
	Service     *Service  `bson:"service,omitempty" json:"service,omitempty"`
	CreatedKm   float64   `bson:"created_km" json:"-"`
	CreatedAt   time.Time `bson:"created_at" json:"-"`
	UpdatedAt   time.Time `bson:"updated_at" json:"-"`
}

// ReminderRequest is the payload for POST /reminders and PUT /reminders/{id}.
type ReminderRequest struct {
	ServiceID int64  `json:"serviceId"`
	Months    *int64 `json:"months"`
	Mileage   *int64 `json:"mileage"`
}

// DimensionStatus classifies one reminder dimension against current vehicle state.
type DimensionStatus string

const (
	ReminderOverdue DimensionStatus = "OVERDUE"
	ReminderDueSoon DimensionStatus = "DUE_SOON"
	ReminderOK      DimensionStatus = "OK"
)

// MileageStatus is the kilometer dimension of an expiring-reminder projection.
type MileageStatus struct {
	Status      DimensionStatus `json:"status"`
	KmOverdue   *float64        `json:"kmOverdue,omitempty"`
	KmRemaining *float64        `json:"kmRemaining,omitempty"`
}

// MonthsStatus is the elapsed-time dimension of an expiring-reminder projection.
type MonthsStatus struct {
	Status        DimensionStatus `json:"status"`
	DaysOverdue   *int64          `json:"daysOverdue,omitempty"`
	DaysRemaining *int64          `json:"daysRemaining,omitempty"`
}

// ExpiringReminder is the computed projection served by
// GET /reminders/user/expiring: a reminder paired with its vehicle and a
// per-dimension classification. It is derived, never stored.
type ExpiringReminder struct {
	ReminderID int64          `json:"reminderId"`
	Service    *Service       `json:"service,omitempty"`
	Vehicle    *Vehicle       `json:"vehicle,omitempty"`
	Mileage    *MileageStatus `json:"mileage,omitempty"`
	Months     *MonthsStatus  `json:"months,omitempty"`
}
