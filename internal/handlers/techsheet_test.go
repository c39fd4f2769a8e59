package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tallerapp/vehicle-maintenance/internal/models"
	"github.com/tallerapp/vehicle-maintenance/internal/reminders"
	"github.com/tallerapp/vehicle-maintenance/internal/techsheet"
)

func newSheetHandler(veh *MockVehicleCollection, appt *MockAppointmentCollection, rem *MockReminderCollection) *TechSheetHandler {
	return NewTechSheetHandler(veh, appt, rem, reminders.NewEngine())
}

func TestTechSheetHandler_Sheets(t *testing.T) {
	mockVehicles := new(MockVehicleCollection)
	mockAppts := new(MockAppointmentCollection)
	mockReminders := new(MockReminderCollection)
	handler := newSheetHandler(mockVehicles, mockAppts, mockReminders)

	good := models.StatusGood
	mockVehicles.On("FindVehicles", mock.Anything, mock.Anything).Return(&vehicleCursor{
		items: []models.Vehicle{
			{ID: 5, UserID: 4, LicensePlate: "AB123CD", Model: "Corolla", Year: 2020, Km: 52500, Status: &good},
		},
	}, nil)
	mockAppts.On("FindAppointments", mock.Anything, mock.Anything).Return(&appointmentCursor{
		items: []models.Appointment{
			{
				ID: 1, UserID: 4, Date: "2026-06-01", Status: models.AppointmentCompleted,
				Services:               []models.Service{{ID: 3, Name: "Cambio de aceite"}},
				Vehicle:                models.Vehicle{ID: 5, Km: 42000},
				KmAtService:            float64p(42000),
				VehicleStatusAtService: "GOOD",
				FinalPrice:             float64p(100),
				Workshop:               &models.Workshop{WorkshopName: "Taller Norte"},
			},
			{
				ID: 2, UserID: 4, Date: "2026-09-10", Status: models.AppointmentPending,
				Services: []models.Service{{ID: 9, Name: "Frenos"}},
				Vehicle:  models.Vehicle{ID: 5, Km: 52500},
			},
		},
	}, nil)
	mockReminders.On("FindReminders", mock.Anything, mock.Anything).Return(&reminderCursor{
		items: []models.Reminder{{ID: 21, UserID: 4, ServiceID: 3, Mileage: int64p(10000)}},
	}, nil)

	req := authedRequest("GET", "/vehicle/techsheet", nil, ownerClaims(4))
	w := httptest.NewRecorder()
	handler.Route(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var sheets []techsheet.Sheet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sheets))
	require.Len(t, sheets, 1)

	sheet := sheets[0]
	assert.Equal(t, int64(5), sheet.ID)
	assert.Equal(t, 52500.0, sheet.Km)
	assert.Equal(t, 1, sheet.CompletedServicesTotal)
	require.Len(t, sheet.CompletedServicesBreakdown, 1)
	assert.Equal(t, "Cambio de aceite", sheet.CompletedServicesBreakdown[0].Name)
	assert.Equal(t, []string{"Frenos"}, sheet.PendingServices)
	require.Len(t, sheet.ServiceHistory, 1)
	assert.Equal(t, "Taller Norte", sheet.ServiceHistory[0].WorkshopName)
	assert.Equal(t, 100.0, sheet.ServiceHistory[0].AmountPaid)

	// 42000 baseline + 10000 interval vs 52500 current: 500 km overdue
	assert.Equal(t, []string{"Cambio de aceite • 500 km vencidos"}, sheet.ReminderSummary.Expired)
}

func TestTechSheetHandler_HistoryPage(t *testing.T) {
	mockVehicles := new(MockVehicleCollection)
	mockAppts := new(MockAppointmentCollection)
	mockReminders := new(MockReminderCollection)
	handler := newSheetHandler(mockVehicles, mockAppts, mockReminders)

	appts := make([]models.Appointment, 0, 12)
	for i := 1; i <= 12; i++ {
		appts = append(appts, models.Appointment{
			ID:       int64(i),
			UserID:   4,
			Date:     fmt.Sprintf("2026-%02d-01", (i%12)+1),
			Status:   models.AppointmentCompleted,
			Services: []models.Service{{ID: 3, Name: "Cambio de aceite"}},
			Vehicle:  models.Vehicle{ID: 5},
		})
	}

	mockVehicles.On("FindVehicles", mock.Anything, mock.Anything).Return(&vehicleCursor{
		items: []models.Vehicle{{ID: 5, UserID: 4, Model: "Corolla"}},
	}, nil)
	mockAppts.On("FindAppointments", mock.Anything, mock.Anything).Return(&appointmentCursor{items: appts}, nil)
	mockReminders.On("FindReminders", mock.Anything, mock.Anything).Return(&reminderCursor{}, nil)

	// Page 5 of 3 clamps to the last page
	req := authedRequest("GET", "/vehicle/techsheet/history?vehicleId=5&page=5", nil, ownerClaims(4))
	w := httptest.NewRecorder()
	handler.Route(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Items      []techsheet.HistoryEntry `json:"items"`
		Page       int                      `json:"page"`
		TotalPages int                      `json:"totalPages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.TotalPages)
	assert.Equal(t, 2, resp.Page)
	assert.Len(t, resp.Items, 2)
}

func TestTechSheetHandler_HistoryPageUnknownVehicle(t *testing.T) {
	mockVehicles := new(MockVehicleCollection)
	mockAppts := new(MockAppointmentCollection)
	mockReminders := new(MockReminderCollection)
	handler := newSheetHandler(mockVehicles, mockAppts, mockReminders)

	mockVehicles.On("FindVehicles", mock.Anything, mock.Anything).Return(&vehicleCursor{}, nil)
	mockAppts.On("FindAppointments", mock.Anything, mock.Anything).Return(&appointmentCursor{}, nil)
	mockReminders.On("FindReminders", mock.Anything, mock.Anything).Return(&reminderCursor{}, nil)

	req := authedRequest("GET", "/vehicle/techsheet/history?vehicleId=99&page=0", nil, ownerClaims(4))
	w := httptest.NewRecorder()
	handler.Route(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTechSheetHandler_RequiresAuth(t *testing.T) {
	handler := newSheetHandler(new(MockVehicleCollection), new(MockAppointmentCollection), new(MockReminderCollection))

	req := httptest.NewRequest("GET", "/vehicle/techsheet", nil)
	w := httptest.NewRecorder()
	handler.Route(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
