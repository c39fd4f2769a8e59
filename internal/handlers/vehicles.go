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

// VehicleHandler handles vehicle CRUD and status requests.
type VehicleHandler struct {
	vehicles  db.VehicleCollection
	sequences db.Sequences
}

// NewVehicleHandler creates a new vehicle handler.
func NewVehicleHandler(vehicles db.VehicleCollection, sequences db.Sequences) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles, sequences: sequences}
}

// Route dispatches /vehicle and /vehicle/{id}[/status] requests.
func (h *VehicleHandler) Route(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/vehicle"), "/")
	if rest == "" {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.Create(w, r)
		return
	}

	parts := strings.Split(rest, "/")
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid vehicle id", http.StatusBadRequest)
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodPut:
		h.Update(w, r, id)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.Delete(w, r, id)
	case len(parts) == 2 && parts[1] == "status" && r.Method == http.MethodPut:
		h.UpdateStatus(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// GetUserVehicles lists the authenticated user's vehicles.
func (h *VehicleHandler) GetUserVehicles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	cursor, err := h.vehicles.FindVehicles(r.Context(), bson.M{"user_id": claims.UserID})
	if err != nil {
		http.Error(w, "Failed to fetch vehicles", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(r.Context())

	vehicles := make([]models.Vehicle, 0)
	if err := cursor.All(r.Context(), &vehicles); err != nil {
		http.Error(w, "Failed to decode vehicles", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(vehicles)
}

// Create registers a vehicle for the authenticated user.
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req models.CreateVehicleRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.LicensePlate == "" || req.Model == "" {
		http.Error(w, "License plate and model are required", http.StatusBadRequest)
		return
	}
	if req.Km < 0 {
		http.Error(w, "Km cannot be negative", http.StatusBadRequest)
		return
	}

	id, err := h.sequences.NextID(r.Context(), "vehicles")
	if err != nil {
		http.Error(w, "Failed to allocate vehicle id", http.StatusInternalServerError)
		return
	}

	vehicle := models.Vehicle{
		ID:           id,
		UserID:       claims.UserID,
		LicensePlate: req.LicensePlate,
		Model:        req.Model,
		Year:         req.Year,
		Km:           req.Km,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := h.vehicles.InsertVehicle(r.Context(), vehicle); err != nil {
		http.Error(w, "Failed to create vehicle", http.StatusInternalServerError)
		return
	}

	log.WithFields(log.Fields{
		"vehicle_id": id,
		"user_id":    claims.UserID,
		"model":      req.Model,
	}).Info("Vehicle created")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(vehicle)
}

// Update replaces a vehicle's technical data. The stored km only moves
// forward: a lower reading in the payload leaves the odometer untouched.
func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request, id int64) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	existing, err := h.vehicles.FindVehicleByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Vehicle not found", http.StatusNotFound)
		return
	}
	if existing.UserID != claims.UserID && claims.Role != models.RoleAdmin {
		http.Error(w, "Insufficient permissions", http.StatusForbidden)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req models.CreateVehicleRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Km < 0 {
		http.Error(w, "Km cannot be negative", http.StatusBadRequest)
		return
	}

	updated := *existing
	if req.LicensePlate != "" {
		updated.LicensePlate = req.LicensePlate
	}
	if req.Model != "" {
		updated.Model = req.Model
	}
	if req.Year != 0 {
		updated.Year = req.Year
	}

	if err := h.vehicles.UpdateVehicle(r.Context(), id, updated); err != nil {
		http.Error(w, "Failed to update vehicle", http.StatusInternalServerError)
		return
	}
	if err := h.vehicles.UpdateVehicleKm(r.Context(), id, req.Km); err != nil {
		http.Error(w, "Failed to update vehicle km", http.StatusInternalServerError)
		return
	}
	if req.Km > updated.Km {
		updated.Km = req.Km
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

// UpdateStatus sets a vehicle's condition status.
func (h *VehicleHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, id int64) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	existing, err := h.vehicles.FindVehicleByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Vehicle not found", http.StatusNotFound)
		return
	}

	// Workshops record status after service; owners only on their own vehicles.
	allowed := claims.Role == models.RoleAdmin || claims.Role == models.RoleWorkshop ||
		existing.UserID == claims.UserID
	if !allowed {
		http.Error(w, "Insufficient permissions", http.StatusForbidden)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req models.UpdateVehicleStatusRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if !models.IsKnownStatus(req.Status) {
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return
	}

	if err := h.vehicles.UpdateVehicleStatus(r.Context(), id, req.Status); err != nil {
		http.Error(w, "Failed to update vehicle status", http.StatusInternalServerError)
		return
	}

	log.WithFields(log.Fields{"vehicle_id": id, "status": req.Status}).Info("Vehicle status updated")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Vehicle status updated"})
}

// Delete removes a vehicle.
func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request, id int64) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	existing, err := h.vehicles.FindVehicleByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Vehicle not found", http.StatusNotFound)
		return
	}
	if existing.UserID != claims.UserID && claims.Role != models.RoleAdmin {
		http.Error(w, "Insufficient permissions", http.StatusForbidden)
		return
	}

	if err := h.vehicles.DeleteVehicle(r.Context(), id); err != nil {
		http.Error(w, "Failed to delete vehicle", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
