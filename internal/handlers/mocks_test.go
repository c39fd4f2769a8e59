package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/stretchr/testify/mock"
	"github.com/tallerapp/vehicle-maintenance/internal/db"
	"github.com/tallerapp/vehicle-maintenance/internal/middleware"
	"github.com/tallerapp/vehicle-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Slice-backed cursors for mock find results.

type vehicleCursor struct{ items []models.Vehicle }

func (c *vehicleCursor) All(ctx context.Context, out interface{}) error {
	*(out.(*[]models.Vehicle)) = c.items
	return nil
}
func (c *vehicleCursor) Close(ctx context.Context) error { return nil }

type appointmentCursor struct{ items []models.Appointment }

func (c *appointmentCursor) All(ctx context.Context, out interface{}) error {
	*(out.(*[]models.Appointment)) = c.items
	return nil
}
func (c *appointmentCursor) Close(ctx context.Context) error { return nil }

type reminderCursor struct{ items []models.Reminder }

func (c *reminderCursor) All(ctx context.Context, out interface{}) error {
	*(out.(*[]models.Reminder)) = c.items
	return nil
}
func (c *reminderCursor) Close(ctx context.Context) error { return nil }

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateUser(ctx context.Context, id int64, user models.User) error {
	args := m.Called(ctx, id, user)
	return args.Error(0)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockVehicleCollection is a mock implementation of VehicleCollection
type MockVehicleCollection struct {
	mock.Mock
}

func (m *MockVehicleCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) error {
	args := m.Called(ctx, vehicle)
	return args.Error(0)
}

func (m *MockVehicleCollection) FindVehicles(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (db.VehicleCursor, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(db.VehicleCursor), args.Error(1)
}

func (m *MockVehicleCollection) FindVehicleByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) UpdateVehicle(ctx context.Context, id int64, vehicle models.Vehicle) error {
	args := m.Called(ctx, id, vehicle)
	return args.Error(0)
}

func (m *MockVehicleCollection) UpdateVehicleStatus(ctx context.Context, id int64, status models.VehicleStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockVehicleCollection) UpdateVehicleKm(ctx context.Context, id int64, km float64) error {
	args := m.Called(ctx, id, km)
	return args.Error(0)
}

func (m *MockVehicleCollection) DeleteVehicle(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockAppointmentCollection is a mock implementation of AppointmentCollection
type MockAppointmentCollection struct {
	mock.Mock
}

func (m *MockAppointmentCollection) InsertAppointment(ctx context.Context, appointment models.Appointment) error {
	args := m.Called(ctx, appointment)
	return args.Error(0)
}

func (m *MockAppointmentCollection) FindAppointments(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (db.AppointmentCursor, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(db.AppointmentCursor), args.Error(1)
}

func (m *MockAppointmentCollection) FindAppointmentByID(ctx context.Context, id int64) (*models.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *MockAppointmentCollection) UpdateAppointmentStatus(ctx context.Context, id int64, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockAppointmentCollection) CompleteAppointment(ctx context.Context, id int64, completion models.AppointmentCompletion) error {
	args := m.Called(ctx, id, completion)
	return args.Error(0)
}

// MockReminderCollection is a mock implementation of ReminderCollection
type MockReminderCollection struct {
	mock.Mock
}

func (m *MockReminderCollection) InsertReminder(ctx context.Context, reminder models.Reminder) error {
	args := m.Called(ctx, reminder)
	return args.Error(0)
}

func (m *MockReminderCollection) FindReminders(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (db.ReminderCursor, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(db.ReminderCursor), args.Error(1)
}

func (m *MockReminderCollection) FindReminderByID(ctx context.Context, id int64) (*models.Reminder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reminder), args.Error(1)
}

func (m *MockReminderCollection) UpdateReminder(ctx context.Context, id int64, reminder models.Reminder) error {
	args := m.Called(ctx, id, reminder)
	return args.Error(0)
}

func (m *MockReminderCollection) DeleteReminder(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockSequences is a mock implementation of Sequences
type MockSequences struct {
	mock.Mock
}

func (m *MockSequences) NextID(ctx context.Context, name string) (int64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int64), args.Error(1)
}

// authedRequest builds a request carrying authenticated user claims.
func authedRequest(method, target string, body []byte, claims *models.Claims) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), middleware.UserContextKey, claims)
	return req.WithContext(ctx)
}

func ownerClaims(userID int64) *models.Claims {
	return &models.Claims{UserID: userID, Username: "owner", Role: models.RoleOwner}
}

func int64p(v int64) *int64       { return &v }
func float64p(v float64) *float64 { return &v }
