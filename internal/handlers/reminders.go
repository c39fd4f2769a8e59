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
	"github.com/tallerapp/vehicle-maintenance/internal/reminders"
	"go.mongodb.org/mongo-driver/bson"
)

// ReminderHandler handles maintenance-reminder requests.
type ReminderHandler struct {
	reminders    db.ReminderCollection
	vehicles     db.VehicleCollection
	appointments db.AppointmentCollection
	sequences    db.Sequences
	engine       *reminders.Engine
}

// NewReminderHandler creates a new reminder handler.
func NewReminderHandler(reminderColl db.ReminderCollection, vehicles db.VehicleCollection, appointments db.AppointmentCollection, sequences db.Sequences, engine *reminders.Engine) *ReminderHandler {
	return &ReminderHandler{
		reminders:    reminderColl,
		vehicles:     vehicles,
		appointments: appointments,
		sequences:    sequences,
		engine:       engine,
	}
}

// Route dispatches /reminders requests.
func (h *ReminderHandler) Route(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/reminders"), "/")
	parts := strings.Split(rest, "/")

	switch {
	case rest == "":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.Create(w, r)
	case rest == "user/expiring":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.Expiring(w, r)
	case len(parts) == 2 && parts[0] == "user":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		userID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || userID <= 0 {
			http.Error(w, "Invalid user id", http.StatusBadRequest)
			return
		}
		h.ListForUser(w, r, userID)
	case len(parts) == 1:
		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "Invalid reminder id", http.StatusBadRequest)
			return
		}
		switch r.Method {
		case http.MethodPut:
			h.Update(w, r, id)
		case http.MethodDelete:
			h.Delete(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	default:
		http.NotFound(w, r)
	}
}

// ListForUser lists a user's reminders. Users only see their own; admins see
// anyone's.
func (h *ReminderHandler) ListForUser(w http.ResponseWriter, r *http.Request, userID int64) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}
	if claims.UserID != userID && claims.Role != models.RoleAdmin {
		http.Error(w, "Insufficient permissions", http.StatusForbidden)
		return
	}

	list, err := h.findReminders(r, userID)
	if err != nil {
		http.Error(w, "Failed to fetch reminders", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// Expiring serves the computed expiring-reminder projections for the
// authenticated user: every reminder evaluated against every vehicle, with
// only overdue or due-soon results included.
func (h *ReminderHandler) Expiring(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	list, err := h.findReminders(r, claims.UserID)
	if err != nil {
		http.Error(w, "Failed to fetch reminders", http.StatusInternalServerError)
		return
	}

	vehicles, err := h.findVehicles(r, claims.UserID)
	if err != nil {
		http.Error(w, "Failed to fetch vehicles", http.StatusInternalServerError)
		return
	}

	appointments, err := h.findAppointments(r, claims.UserID)
	if err != nil {
		http.Error(w, "Failed to fetch appointments", http.StatusInternalServerError)
		return
	}

	apptsByVehicle := make(map[int64][]models.Appointment)
	for _, appt := range appointments {
		apptsByVehicle[appt.Vehicle.ID] = append(apptsByVehicle[appt.Vehicle.ID], appt)
	}

	out := make([]models.ExpiringReminder, 0)
	for _, reminder := range list {
		if reminder.Service == nil {
			reminder.Service = resolveService(reminder.ServiceID, appointments)
		}
		for i := range vehicles {
			base := reminders.BaselineFor(reminder, apptsByVehicle[vehicles[i].ID])
			proj := h.engine.Evaluate(reminder, vehicles[i], base)
			if reminders.IsExpiring(proj) {
				out = append(out, proj)
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// Create persists a new reminder for the authenticated user.
func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	id, err := h.sequences.NextID(r.Context(), "reminders")
	if err != nil {
		http.Error(w, "Failed to allocate reminder id", http.StatusInternalServerError)
		return
	}

	reminder := models.Reminder{
		ID:        id,
		UserID:    claims.UserID,
		ServiceID: req.ServiceID,
		Months:    req.Months,
		Mileage:   req.Mileage,
		CreatedKm: h.currentKm(r, claims.UserID),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := h.reminders.InsertReminder(r.Context(), reminder); err != nil {
		http.Error(w, "Failed to create reminder", http.StatusInternalServerError)
		return
	}

	log.WithFields(log.Fields{
		"reminder_id": id,
		"user_id":     claims.UserID,
		"service_id":  req.ServiceID,
	}).Info("Reminder created")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(reminder)
}

// Update replaces a reminder's intervals, keeping the previous ones as the
// restore source.
func (h *ReminderHandler) Update(w http.ResponseWriter, r *http.Request, id int64) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	existing, err := h.reminders.FindReminderByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Reminder not found", http.StatusNotFound)
		return
	}
	if existing.UserID != claims.UserID && claims.Role != models.RoleAdmin {
		http.Error(w, "Insufficient permissions", http.StatusForbidden)
		return
	}

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	updated := *existing
	updated.LastMonths = existing.Months
	updated.LastMileage = existing.Mileage
	updated.Months = req.Months
	updated.Mileage = req.Mileage
	updated.UpdatedAt = time.Now()

	if err := h.reminders.UpdateReminder(r.Context(), id, updated); err != nil {
		http.Error(w, "Failed to update reminder", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

// Delete removes a reminder.
func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request, id int64) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	existing, err := h.reminders.FindReminderByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Reminder not found", http.StatusNotFound)
		return
	}
	if existing.UserID != claims.UserID && claims.Role != models.RoleAdmin {
		http.Error(w, "Insufficient permissions", http.StatusForbidden)
		return
	}

	if err := h.reminders.DeleteReminder(r.Context(), id); err != nil {
		http.Error(w, "Failed to delete reminder", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ReminderHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (models.ReminderRequest, bool) {
	var req models.ReminderRequest

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return req, false
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return req, false
	}

	if req.ServiceID <= 0 {
		http.Error(w, "Valid serviceId is required", http.StatusBadRequest)
		return req, false
	}
	if req.Months == nil && req.Mileage == nil {
		http.Error(w, "At least one of months or mileage is required", http.StatusBadRequest)
		return req, false
	}
	if (req.Months != nil && *req.Months <= 0) || (req.Mileage != nil && *req.Mileage <= 0) {
		http.Error(w, "Intervals must be positive", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func (h *ReminderHandler) findReminders(r *http.Request, userID int64) ([]models.Reminder, error) {
	cursor, err := h.reminders.FindReminders(r.Context(), bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(r.Context())

	list := make([]models.Reminder, 0)
	if err := cursor.All(r.Context(), &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (h *ReminderHandler) findVehicles(r *http.Request, userID int64) ([]models.Vehicle, error) {
	cursor, err := h.vehicles.FindVehicles(r.Context(), bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(r.Context())

	list := make([]models.Vehicle, 0)
	if err := cursor.All(r.Context(), &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (h *ReminderHandler) findAppointments(r *http.Request, userID int64) ([]models.Appointment, error) {
	cursor, err := h.appointments.FindAppointments(r.Context(), bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(r.Context())

	list := make([]models.Appointment, 0)
	if err := cursor.All(r.Context(), &list); err != nil {
		return nil, err
	}
	return list, nil
}

// currentKm is the highest odometer reading across the user's vehicles, used
// as the creation baseline for reminders with no service history yet.
func (h *ReminderHandler) currentKm(r *http.Request, userID int64) float64 {
	vehicles, err := h.findVehicles(r, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Failed to read vehicle km for reminder baseline")
		return 0
	}
	km := 0.0
	for i := range vehicles {
		if vehicles[i].Km > km {
			km = vehicles[i].Km
		}
	}
	return km
}

// resolveService recovers a service reference from appointment history when
// the reminder only stored the id.
func resolveService(serviceID int64, appointments []models.Appointment) *models.Service {
	for i := range appointments {
		for _, s := range appointments[i].Services {
			if s.ID == serviceID {
				svc := s
				return &svc
			}
		}
	}
	return &models.Service{ID: serviceID}
}
