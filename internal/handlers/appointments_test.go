package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tallerapp/vehicle-maintenance/internal/models"
)

func workshopClaims() *models.Claims {
	return &models.Claims{UserID: 9, Username: "shop", Role: models.RoleWorkshop}
}

func TestAppointmentHandler_History(t *testing.T) {
	mockAppts := new(MockAppointmentCollection)
	handler := NewAppointmentHandler(mockAppts, new(MockVehicleCollection), new(MockSequences))

	mockAppts.On("FindAppointments", mock.Anything, mock.Anything).Return(&appointmentCursor{
		items: []models.Appointment{
			{ID: 1, UserID: 4, Date: "2026-06-01", Status: models.AppointmentCompleted, Vehicle: models.Vehicle{ID: 5}},
		},
	}, nil)

	req := authedRequest("GET", "/appointments/history", nil, ownerClaims(4))
	w := httptest.NewRecorder()
	handler.Route(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var list []models.Appointment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, models.AppointmentCompleted, list[0].Status)
}

func TestAppointmentHandler_Create(t *testing.T) {
	t.Run("success embeds vehicle snapshot", func(t *testing.T) {
		mockAppts := new(MockAppointmentCollection)
		mockVehicles := new(MockVehicleCollection)
		mockSeq := new(MockSequences)
		handler := NewAppointmentHandler(mockAppts, mockVehicles, mockSeq)

		vehicle := &models.Vehicle{ID: 5, UserID: 4, Model: "Corolla", Km: 42000}
		mockVehicles.On("FindVehicleByID", mock.Anything, int64(5)).Return(vehicle, nil)
		mockSeq.On("NextID", mock.Anything, "appointments").Return(int64(31), nil)
		mockAppts.On("InsertAppointment", mock.Anything, mock.MatchedBy(func(a models.Appointment) bool {
			return a.ID == 31 && a.Status == models.AppointmentPending &&
				a.Vehicle.Km == 42000 && a.OriginalPrice != nil && *a.OriginalPrice == 150
		})).Return(nil)

		body, _ := json.Marshal(CreateAppointmentRequest{
			VehicleID: 5,
			Date:      "2026-09-15",
			Time:      "10:30",
			Services:  []models.Service{{ID: 3, Name: "Cambio de aceite", Price: 150}},
		})
		req := authedRequest("POST", "/appointments", body, ownerClaims(4))
		w := httptest.NewRecorder()
		handler.Route(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		var created models.Appointment
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.Equal(t, int64(31), created.ID)
		assert.Equal(t, "Corolla", created.Vehicle.Model)
		mockAppts.AssertExpectations(t)
	})

	t.Run("foreign vehicle forbidden", func(t *testing.T) {
		mockVehicles := new(MockVehicleCollection)
		handler := NewAppointmentHandler(new(MockAppointmentCollection), mockVehicles, new(MockSequences))
		mockVehicles.On("FindVehicleByID", mock.Anything, int64(5)).Return(&models.Vehicle{ID: 5, UserID: 99}, nil)

		body, _ := json.Marshal(CreateAppointmentRequest{
			VehicleID: 5,
			Date:      "2026-09-15",
			Services:  []models.Service{{ID: 3, Name: "Cambio de aceite"}},
		})
		req := authedRequest("POST", "/appointments", body, ownerClaims(4))
		w := httptest.NewRecorder()
		handler.Route(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("bad date", func(t *testing.T) {
		handler := NewAppointmentHandler(new(MockAppointmentCollection), new(MockVehicleCollection), new(MockSequences))

		body, _ := json.Marshal(CreateAppointmentRequest{
			VehicleID: 5,
			Date:      "15/09/2026",
			Services:  []models.Service{{ID: 3}},
		})
		req := authedRequest("POST", "/appointments", body, ownerClaims(4))
		w := httptest.NewRecorder()
		handler.Route(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAppointmentHandler_Complete(t *testing.T) {
	t.Run("workshop completes with outcome", func(t *testing.T) {
		mockAppts := new(MockAppointmentCollection)
		mockVehicles := new(MockVehicleCollection)
		handler := NewAppointmentHandler(mockAppts, mockVehicles, new(MockSequences))

		appt := &models.Appointment{
			ID: 31, UserID: 4, Status: models.AppointmentInService,
			Vehicle: models.Vehicle{ID: 5, UserID: 4, Km: 42000},
		}
		mockAppts.On("FindAppointmentByID", mock.Anything, int64(31)).Return(appt, nil)
		mockAppts.On("CompleteAppointment", mock.Anything, int64(31), mock.MatchedBy(func(c models.AppointmentCompletion) bool {
			return c.KmAtService != nil && *c.KmAtService == 43000 && c.VehicleStatus == models.StatusGood
		})).Return(nil)
		mockVehicles.On("UpdateVehicleKm", mock.Anything, int64(5), 43000.0).Return(nil)
		mockVehicles.On("UpdateVehicleStatus", mock.Anything, int64(5), models.StatusGood).Return(nil)

		body, _ := json.Marshal(models.AppointmentCompletion{
			KmAtService:   float64p(43000),
			VehicleStatus: models.StatusGood,
			FinalPrice:    float64p(120),
		})
		req := authedRequest("PUT", "/appointments/31/complete", body, workshopClaims())
		w := httptest.NewRecorder()
		handler.Route(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockAppts.AssertExpectations(t)
		mockVehicles.AssertExpectations(t)
	})

	t.Run("owner cannot complete", func(t *testing.T) {
		handler := NewAppointmentHandler(new(MockAppointmentCollection), new(MockVehicleCollection), new(MockSequences))

		req := authedRequest("PUT", "/appointments/31/complete", nil, ownerClaims(4))
		w := httptest.NewRecorder()
		handler.Route(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("already closed", func(t *testing.T) {
		mockAppts := new(MockAppointmentCollection)
		handler := NewAppointmentHandler(mockAppts, new(MockVehicleCollection), new(MockSequences))
		mockAppts.On("FindAppointmentByID", mock.Anything, int64(31)).Return(&models.Appointment{
			ID: 31, Status: models.AppointmentCompleted,
		}, nil)

		req := authedRequest("PUT", "/appointments/31/complete", nil, workshopClaims())
		w := httptest.NewRecorder()
		handler.Route(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestAppointmentHandler_UpdateStatus(t *testing.T) {
	t.Run("owner cancels own appointment", func(t *testing.T) {
		mockAppts := new(MockAppointmentCollection)
		handler := NewAppointmentHandler(mockAppts, new(MockVehicleCollection), new(MockSequences))

		mockAppts.On("FindAppointmentByID", mock.Anything, int64(31)).Return(&models.Appointment{ID: 31, UserID: 4, Status: models.AppointmentPending}, nil)
		mockAppts.On("UpdateAppointmentStatus", mock.Anything, int64(31), models.AppointmentCancelled).Return(nil)

		body := []byte(`{"status":"CANCELLED"}`)
		req := authedRequest("PUT", "/appointments/31/status", body, ownerClaims(4))
		w := httptest.NewRecorder()
		handler.Route(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockAppts.AssertExpectations(t)
	})

	t.Run("completion not allowed through status", func(t *testing.T) {
		mockAppts := new(MockAppointmentCollection)
		handler := NewAppointmentHandler(mockAppts, new(MockVehicleCollection), new(MockSequences))
		mockAppts.On("FindAppointmentByID", mock.Anything, int64(31)).Return(&models.Appointment{ID: 31, UserID: 4, Status: models.AppointmentPending}, nil)

		body := []byte(`{"status":"COMPLETED"}`)
		req := authedRequest("PUT", "/appointments/31/status", body, ownerClaims(4))
		w := httptest.NewRecorder()
		handler.Route(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
