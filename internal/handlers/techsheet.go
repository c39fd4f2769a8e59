package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/tallerapp/vehicle-maintenance/internal/db"
	"github.com/tallerapp/vehicle-maintenance/internal/middleware"
	"github.com/tallerapp/vehicle-maintenance/internal/models"
	"github.com/tallerapp/vehicle-maintenance/internal/reminders"
	"github.com/tallerapp/vehicle-maintenance/internal/techsheet"
	"go.mongodb.org/mongo-driver/bson"
)

// TechSheetHandler serves the aggregated per-vehicle technical sheets.
type TechSheetHandler struct {
	vehicles     db.VehicleCollection
	appointments db.AppointmentCollection
	reminders    db.ReminderCollection
	engine       *reminders.Engine
}

// NewTechSheetHandler creates a new technical-sheet handler.
func NewTechSheetHandler(vehicles db.VehicleCollection, appointments db.AppointmentCollection, reminderColl db.ReminderCollection, engine *reminders.Engine) *TechSheetHandler {
	return &TechSheetHandler{
		vehicles:     vehicles,
		appointments: appointments,
		reminders:    reminderColl,
		engine:       engine,
	}
}

// Route dispatches /vehicle/techsheet requests.
func (h *TechSheetHandler) Route(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/vehicle/techsheet"), "/")
	switch rest {
	case "":
		h.Sheets(w, r)
	case "history":
		h.HistoryPage(w, r)
	default:
		http.NotFound(w, r)
	}
}

// Sheets serves every technical sheet for the authenticated user.
func (h *TechSheetHandler) Sheets(w http.ResponseWriter, r *http.Request) {
	sheets, ok := h.buildSheets(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sheets)
}

// HistoryPage serves one page of a vehicle's service history at the fixed
// page size, with the requested page clamped into range.
func (h *TechSheetHandler) HistoryPage(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := strconv.ParseInt(r.URL.Query().Get("vehicleId"), 10, 64)
	if err != nil || vehicleID <= 0 {
		http.Error(w, "Valid vehicleId is required", http.StatusBadRequest)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	sheets, ok := h.buildSheets(w, r)
	if !ok {
		return
	}

	for _, sheet := range sheets {
		if sheet.ID != vehicleID {
			continue
		}
		items, clamped, totalPages := techsheet.HistoryPage(sheet.ServiceHistory, page)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items":      items,
			"page":       clamped,
			"totalPages": totalPages,
		})
		return
	}

	http.Error(w, "Vehicle not found", http.StatusNotFound)
}

func (h *TechSheetHandler) buildSheets(w http.ResponseWriter, r *http.Request) ([]techsheet.Sheet, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return nil, false
	}

	vehicles, err := h.findVehicles(r, claims.UserID)
	if err != nil {
		http.Error(w, "Failed to fetch vehicles", http.StatusInternalServerError)
		return nil, false
	}

	appointments, err := h.findAppointments(r, claims.UserID)
	if err != nil {
		http.Error(w, "Failed to fetch appointments", http.StatusInternalServerError)
		return nil, false
	}

	reminderList, err := h.findReminders(r, claims.UserID)
	if err != nil {
		http.Error(w, "Failed to fetch reminders", http.StatusInternalServerError)
		return nil, false
	}

	apptsByVehicle := make(map[int64][]models.Appointment)
	for _, appt := range appointments {
		apptsByVehicle[appt.Vehicle.ID] = append(apptsByVehicle[appt.Vehicle.ID], appt)
	}

	expiring := make([]techsheet.ExpiringRecord, 0)
	for _, reminder := range reminderList {
		if reminder.Service == nil {
			reminder.Service = resolveService(reminder.ServiceID, appointments)
		}
		for i := range vehicles {
			base := reminders.BaselineFor(reminder, apptsByVehicle[vehicles[i].ID])
			proj := h.engine.Evaluate(reminder, vehicles[i], base)
			if reminders.IsExpiring(proj) {
				expiring = append(expiring, toExpiringRecord(proj))
			}
		}
	}

	vehicleRecords := make([]techsheet.VehicleRecord, 0, len(vehicles))
	for i := range vehicles {
		vehicleRecords = append(vehicleRecords, toVehicleRecord(&vehicles[i]))
	}
	appointmentRecords := make([]techsheet.AppointmentRecord, 0, len(appointments))
	for i := range appointments {
		appointmentRecords = append(appointmentRecords, toAppointmentRecord(&appointments[i]))
	}

	return techsheet.BuildSheets(vehicleRecords, appointmentRecords, expiring), true
}

func (h *TechSheetHandler) findVehicles(r *http.Request, userID int64) ([]models.Vehicle, error) {
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

func (h *TechSheetHandler) findAppointments(r *http.Request, userID int64) ([]models.Appointment, error) {
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

func (h *TechSheetHandler) findReminders(r *http.Request, userID int64) ([]models.Reminder, error) {
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

func toVehicleRecord(v *models.Vehicle) techsheet.VehicleRecord {
	rec := techsheet.VehicleRecord{
		ID:           v.ID,
		LicensePlate: v.LicensePlate,
		Model:        v.Model,
	}
	if v.Year != 0 {
		year := float64(v.Year)
		rec.Year = &year
	}
	km := v.Km
	rec.Km = &km
	if v.Status != nil {
		rec.Status = string(*v.Status)
	}
	return rec
}

func toAppointmentRecord(a *models.Appointment) techsheet.AppointmentRecord {
	services := make([]techsheet.ServiceRef, 0, len(a.Services))
	for _, s := range a.Services {
		services = append(services, techsheet.ServiceRef{ID: s.ID, Name: s.Name})
	}

	vehicle := toVehicleRecord(&a.Vehicle)
	rec := techsheet.AppointmentRecord{
		ID:                     a.ID,
		Date:                   a.Date,
		Time:                   a.Time,
		Services:               services,
		Status:                 a.Status,
		Vehicle:                &vehicle,
		KmAtService:            a.KmAtService,
		VehicleStatusAtService: a.VehicleStatusAtService,
		OriginalPrice:          a.OriginalPrice,
		FinalPrice:             a.FinalPrice,
	}
	if a.Workshop != nil {
		rec.Workshop = &techsheet.WorkshopRef{WorkshopName: a.Workshop.WorkshopName}
	}
	return rec
}

func toExpiringRecord(proj models.ExpiringReminder) techsheet.ExpiringRecord {
	rec := techsheet.ExpiringRecord{}
	if proj.Service != nil {
		rec.Service = &techsheet.ServiceRef{ID: proj.Service.ID, Name: proj.Service.Name}
	}
	if proj.Vehicle != nil {
		vehicle := toVehicleRecord(proj.Vehicle)
		rec.Vehicle = &vehicle
	}
	if proj.Mileage != nil {
		rec.Mileage = &techsheet.MileageRecord{
			Status:      string(proj.Mileage.Status),
			KmOverdue:   proj.Mileage.KmOverdue,
			KmRemaining: proj.Mileage.KmRemaining,
		}
	}
	if proj.Months != nil {
		rec.Months = &techsheet.MonthsRecord{
			Status:        string(proj.Months.Status),
			DaysOverdue:   proj.Months.DaysOverdue,
			DaysRemaining: proj.Months.DaysRemaining,
		}
	}
	return rec
}
