package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tallerapp/vehicle-maintenance/internal/db"
	"github.com/tallerapp/vehicle-maintenance/internal/middleware"
	"github.com/tallerapp/vehicle-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

// AppointmentHandler handles appointment booking, completion and history.
type AppointmentHandler struct {
	appointments db.AppointmentCollection
	vehicles     db.VehicleCollection
	sequences    db.Sequences
}

// NewAppointmentHandler creates a new appointment handler.
func NewAppointmentHandler(appointments db.AppointmentCollection, vehicles db.VehicleCollection, sequences db.Sequences) *AppointmentHandler {
	return &AppointmentHandler{
		appointments: appointments,
		vehicles:     vehicles,
		sequences:    sequences,
	}
}

// Route dispatches /appointments requests.
func (h *AppointmentHandler) Route(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/appointments"), "/")
	parts := strings.Split(rest, "/")

	switch {
	case rest == "":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.Create(w, r)
	case rest == "history":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.History(w, r)
	case len(parts) == 2 && parts[1] == "complete" && r.Method == http.MethodPut:
		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "Invalid appointment id", http.StatusBadRequest)
			return
		}
		h.Complete(w, r, id)
	case len(parts) == 2 && parts[1] == "status" && r.Method == http.MethodPut:
		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "Invalid appointment id", http.StatusBadRequest)
			return
		}
		h.UpdateStatus(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

// History lists the authenticated user's appointments, newest first.
func (h *AppointmentHandler) History(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	cursor, err := h.appointments.FindAppointments(r.Context(), bson.M{"user_id": claims.UserID})
	if err != nil {
		http.Error(w, "Failed to fetch appointments", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(r.Context())

	list := make([]models.Appointment, 0)
	if err := cursor.All(r.Context(), &list); err != nil {
		http.Error(w, "Failed to decode appointments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// CreateAppointmentRequest is the payload for POST /appointments.
type CreateAppointmentRequest struct {
	VehicleID int64            `json:"vehicleId"`
	Date      string           `json:"date"`
	Time      string           `json:"time,omitempty"`
	Services  []models.Service `json:"services"`
	Workshop  *models.Workshop `json:"workshop,omitempty"`
}

// Create books an appointment for one of the user's vehicles. The vehicle is
// embedded as a snapshot of its current state.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req CreateAppointmentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.VehicleID <= 0 {
		http.Error(w, "Valid vehicleId is required", http.StatusBadRequest)
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		http.Error(w, "Date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if len(req.Services) == 0 {
		http.Error(w, "At least one service is required", http.StatusBadRequest)
		return
	}

	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), req.VehicleID)
	if err != nil {
		http.Error(w, "Vehicle not found", http.StatusNotFound)
		return
	}
	if vehicle.UserID != claims.UserID && claims.Role != models.RoleAdmin {
		http.Error(w, "Insufficient permissions", http.StatusForbidden)
		return
	}

	id, err := h.sequences.NextID(r.Context(), "appointments")
	if err != nil {
		http.Error(w, "Failed to allocate appointment id", http.StatusInternalServerError)
		return
	}

	appointment := models.Appointment{
		ID:        id,
		UserID:    claims.UserID,
		Date:      req.Date,
		Time:      req.Time,
		Services:  req.Services,
		Status:    models.AppointmentPending,
		Vehicle:   *vehicle,
		Workshop:  req.Workshop,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if total := servicesTotal(req.Services); total > 0 {
		appointment.OriginalPrice = &total
	}

	if err := h.appointments.InsertAppointment(r.Context(), appointment); err != nil {
		http.Error(w, "Failed to create appointment", http.StatusInternalServerError)
		return
	}

	log.WithFields(log.Fields{
		"appointment_id": id,
		"user_id":        claims.UserID,
		"vehicle_id":     req.VehicleID,
		"services":       len(req.Services),
	}).Info("Appointment created")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(appointment)
}

// Complete closes an appointment with its service outcome, moving the
// vehicle's odometer forward and recording its post-service condition.
func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request, id int64) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	actor := models.User{Role: claims.Role}
	if !actor.HasPermission("complete_appointment") {
		http.Error(w, "Insufficient permissions", http.StatusForbidden)
		return
	}

	appointment, err := h.appointments.FindAppointmentByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Appointment not found", http.StatusNotFound)
		return
	}
	if appointment.IsCompleted() || appointment.Status == models.AppointmentCancelled {
		http.Error(w, "Appointment already closed", http.StatusConflict)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var completion models.AppointmentCompletion
	if len(body) > 0 {
		if err := json.Unmarshal(body, &completion); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
	}
	if completion.KmAtService != nil && *completion.KmAtService < 0 {
		http.Error(w, "Km cannot be negative", http.StatusBadRequest)
		return
	}

	if err := h.appointments.CompleteAppointment(r.Context(), id, completion); err != nil {
		http.Error(w, "Failed to complete appointment", http.StatusInternalServerError)
		return
	}

	if completion.KmAtService != nil {
		if err := h.vehicles.UpdateVehicleKm(r.Context(), appointment.Vehicle.ID, *completion.KmAtService); err != nil {
			log.WithError(err).WithField("vehicle_id", appointment.Vehicle.ID).Error("Failed to update vehicle km after service")
		}
	}
	if models.IsKnownStatus(completion.VehicleStatus) {
		if err := h.vehicles.UpdateVehicleStatus(r.Context(), appointment.Vehicle.ID, completion.VehicleStatus); err != nil {
			log.WithError(err).WithField("vehicle_id", appointment.Vehicle.ID).Error("Failed to update vehicle status after service")
		}
	}

	log.WithFields(log.Fields{
		"appointment_id": id,
		"vehicle_id":     appointment.Vehicle.ID,
	}).Info("Appointment completed")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Appointment completed"})
}

// UpdateStatus moves an appointment through its open lifecycle states.
func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, id int64) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	appointment, err := h.appointments.FindAppointmentByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Appointment not found", http.StatusNotFound)
		return
	}
	if appointment.UserID != claims.UserID && claims.Role != models.RoleAdmin && claims.Role != models.RoleWorkshop {
		http.Error(w, "Insufficient permissions", http.StatusForbidden)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	switch req.Status {
	case models.AppointmentConfirmed, models.AppointmentInService, models.AppointmentCancelled:
	default:
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return
	}

	if err := h.appointments.UpdateAppointmentStatus(r.Context(), id, req.Status); err != nil {
		http.Error(w, "Failed to update appointment status", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Appointment status updated"})
}

func servicesTotal(services []models.Service) float64 {
	total := 0.0
	for _, s := range services {
		total += s.Price
	}
	return total
}
