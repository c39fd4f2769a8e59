package db

import (
	"context"

	"github.com/tallerapp/vehicle-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) error
	FindVehicles(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (VehicleCursor, error)
	FindVehicleByID(ctx context.Context, id int64) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id int64, vehicle models.Vehicle) error
	UpdateVehicleStatus(ctx context.Context, id int64, status models.VehicleStatus) error
	UpdateVehicleKm(ctx context.Context, id int64, km float64) error
	DeleteVehicle(ctx context.Context, id int64) error
}

// VehicleCursor defines the interface for vehicle cursor operations.
type VehicleCursor interface {
	All(ctx context.Context, out interface{}) error
	Close(ctx context.Context) error
}

// AppointmentCollection defines the interface for appointment data operations.
type AppointmentCollection interface {
	InsertAppointment(ctx context.Context, appointment models.Appointment) error
	FindAppointments(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (AppointmentCursor, error)
	FindAppointmentByID(ctx context.Context, id int64) (*models.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id int64, status string) error
	CompleteAppointment(ctx context.Context, id int64, completion models.AppointmentCompletion) error
}

// AppointmentCursor defines the interface for appointment cursor operations.
type AppointmentCursor interface {
	All(ctx context.Context, out interface{}) error
	Close(ctx context.Context) error
}

// ReminderCollection defines the interface for reminder data operations.
type ReminderCollection interface {
	InsertReminder(ctx context.Context, reminder models.Reminder) error
	FindReminders(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (ReminderCursor, error)
	FindReminderByID(ctx context.Context, id int64) (*models.Reminder, error)
	UpdateReminder(ctx context.Context, id int64, reminder models.Reminder) error
	DeleteReminder(ctx context.Context, id int64) error
}

// ReminderCursor defines the interface for reminder cursor operations.
type ReminderCursor interface {
	All(ctx context.Context, out interface{}) error
	Close(ctx context.Context) error
}

// UserCollection defines the interface for user database operations
type UserCollection interface {
	InsertUser(ctx context.Context, user models.User) error
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, user models.User) error
	UpdateLastLogin(ctx context.Context, id int64) error
}

// Sequences issues the positive numeric identifiers used as entity ids.
type Sequences interface {
	NextID(ctx context.Context, name string) (int64, error)
}
