// Package techsheet builds the aggregated per-vehicle view (status, service
// history, reminder summary) out of raw backend payloads. All input types use
// pointer fields so that absent values survive decoding and degrade to the
// documented fallbacks instead of zero values.
package techsheet

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tallerapp/vehicle-maintenance/internal/models"
	"github.com/tallerapp/vehicle-maintenance/internal/normalize"
)

// VehicleRecord is a vehicle as it arrives off the wire. An ID that is not
// strictly positive marks the record as unusable and it is skipped.
type VehicleRecord struct {
	ID           int64    `json:"id"`
	LicensePlate string   `json:"licensePlate"`
	Model        string   `json:"model"`
	Year         *float64 `json:"year"`
	Km           *float64 `json:"km"`
	Status       string   `json:"status"`
}

// ServiceRef is a service reference embedded in appointments and reminders.
type ServiceRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// WorkshopRef carries the workshop display name of an appointment.
type WorkshopRef struct {
	WorkshopName string `json:"workshopName"`
}

// AppointmentRecord is a history entry as it arrives off the wire.
type AppointmentRecord struct {
	ID                     int64          `json:"id"`
	Date                   string         `json:"date"`
	Time                   string         `json:"time"`
	Services               []ServiceRef   `json:"services"`
	Status                 string         `json:"status"`
	Vehicle                *VehicleRecord `json:"vehicle"`
	KmAtService            *float64       `json:"kmAtService"`
	VehicleStatusAtService string         `json:"vehicleStatusAtService"`
	OriginalPrice          *float64       `json:"originalPrice"`
	FinalPrice             *float64       `json:"finalPrice"`
	Workshop               *WorkshopRef   `json:"workshop"`
}

// MileageRecord is the kilometer dimension of an expiring reminder.
type MileageRecord struct {
	Status      string   `json:"status"`
	KmOverdue   *float64 `json:"kmOverdue"`
	KmRemaining *float64 `json:"kmRemaining"`
}

// MonthsRecord is the elapsed-time dimension of an expiring reminder.
type MonthsRecord struct {
	Status        string `json:"status"`
	DaysOverdue   *int64 `json:"daysOverdue"`
	DaysRemaining *int64 `json:"daysRemaining"`
}

// ExpiringRecord is an expiring-reminder projection as it arrives off the wire.
type ExpiringRecord struct {
	Service *ServiceRef    `json:"service"`
	Vehicle *VehicleRecord `json:"vehicle"`
	Mileage *MileageRecord `json:"mileage"`
	Months  *MonthsRecord  `json:"months"`
}

// ServiceBreakdown counts completed occurrences of one service.
type ServiceBreakdown struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// HistoryEntry is one completed appointment in a vehicle's service history.
type HistoryEntry struct {
	ID                  int64                `json:"id"`
	ServiceName         string               `json:"serviceName"`
	Date                string               `json:"date"`
	AmountPaid          float64              `json:"amountPaid"`
	WorkshopName        string               `json:"workshopName"`
	VehicleStatusAtTime models.VehicleStatus `json:"vehicleStatusAtTime"`
}

// Sheet is the technical sheet for a single vehicle.
type Sheet struct {
	ID                         int64                `json:"id"`
	LicensePlate               string               `json:"licensePlate"`
	Model                      string               `json:"model"`
	Year                       int                  `json:"year"`
	Km                         float64              `json:"km"`
	CurrentStatus              models.VehicleStatus `json:"currentStatus"`
	CompletedServicesTotal     int                  `json:"completedServicesTotal"`
	CompletedServicesBreakdown []ServiceBreakdown   `json:"completedServicesBreakdown"`
	PendingServices            []string             `json:"pendingServices"`
	ServiceHistory             []HistoryEntry       `json:"serviceHistory"`
	ReminderSummary            ReminderSummary      `json:"reminderSummary"`
}

// dateTimeKey composes a sortable date+time key. A missing time defaults to
// midnight; a missing date pushes the appointment to the epoch.
func dateTimeKey(a *AppointmentRecord) string {
	d := a.Date
	t := a.Time
	if t == "" {
		t = "00:00:00"
	} else if len(t) == 5 {
		t += ":00"
	}
	if d == "" {
		return "1970-01-01T00:00:00"
	}
	return d + "T" + t
}

// BuildSheets joins vehicles, appointment history and expiring reminders into
// technical sheets, one per vehicle, sorted alphabetically by model. Vehicles
// that only appear inside the appointment history are included too.
func BuildSheets(vehicles []VehicleRecord, history []AppointmentRecord, expiring []ExpiringRecord) []Sheet {
	expiringByVehicle := make(map[int64][]ExpiringRecord)
	for _, r := range expiring {
		if r.Vehicle == nil || r.Vehicle.ID <= 0 {
			continue
		}
		expiringByVehicle[r.Vehicle.ID] = append(expiringByVehicle[r.Vehicle.ID], r)
	}

	apptsByVehicle := make(map[int64][]AppointmentRecord)
	for _, appt := range history {
		if appt.Vehicle == nil || appt.Vehicle.ID <= 0 {
			continue
		}
		apptsByVehicle[appt.Vehicle.ID] = append(apptsByVehicle[appt.Vehicle.ID], appt)
	}

	vehicleByID := make(map[int64]VehicleRecord)
	for _, v := range vehicles {
		if v.ID <= 0 {
			continue
		}
		vehicleByID[v.ID] = v
	}
	// A vehicle that shows up in history but not in the vehicle list is still
	// shown, using the snapshot embedded in its appointments.
	for vid, appts := range apptsByVehicle {
		if _, ok := vehicleByID[vid]; ok {
			continue
		}
		for _, appt := range appts {
			if appt.Vehicle != nil && appt.Vehicle.ID == vid {
				vehicleByID[vid] = *appt.Vehicle
				break
			}
		}
	}

	sheets := make([]Sheet, 0, len(vehicleByID))
	for vid, v := range vehicleByID {
		appts := append([]AppointmentRecord(nil), apptsByVehicle[vid]...)
		sort.SliceStable(appts, func(i, j int) bool {
			return dateTimeKey(&appts[i]) > dateTimeKey(&appts[j])
		})

		currentStatus := models.StatusNone
		if len(appts) > 0 && appts[0].Vehicle != nil {
			currentStatus = normalize.VehicleStatus(appts[0].Vehicle.Status)
		}

		km := resolveKm(v, appts)

		breakdownCounts := make(map[string]int)
		var breakdownOrder []string
		completedTotal := 0
		pendingSet := make(map[string]struct{})

		for i := range appts {
			appt := &appts[i]
			isCompleted := appt.Status == models.AppointmentCompleted || appt.Status == models.AppointmentServiceCompleted
			isPending := appt.Status == models.AppointmentPending || appt.Status == models.AppointmentConfirmed || appt.Status == models.AppointmentInService

			for _, s := range appt.Services {
				name := normalize.ServiceName(s.Name)
				if isCompleted {
					if _, seen := breakdownCounts[name]; !seen {
						breakdownOrder = append(breakdownOrder, name)
					}
					breakdownCounts[name]++
					completedTotal++
				} else if isPending {
					pendingSet[name] = struct{}{}
				}
			}
		}

		breakdown := make([]ServiceBreakdown, 0, len(breakdownOrder))
		for _, name := range breakdownOrder {
			breakdown = append(breakdown, ServiceBreakdown{Name: name, Count: breakdownCounts[name]})
		}
		sort.SliceStable(breakdown, func(i, j int) bool {
			return breakdown[i].Count > breakdown[j].Count
		})

		pending := make([]string, 0, len(pendingSet))
		for name := range pendingSet {
			pending = append(pending, name)
		}
		sort.Strings(pending)

		sheet := Sheet{
			ID:                         vid,
			LicensePlate:               fallback(v.LicensePlate, "N/A"),
			Model:                      fallback(v.Model, "Sin modelo"),
			Km:                         km,
			CurrentStatus:              currentStatus,
			CompletedServicesTotal:     completedTotal,
			CompletedServicesBreakdown: breakdown,
			PendingServices:            pending,
			ServiceHistory:             buildHistory(appts),
			ReminderSummary:            BuildReminderSummary(expiringByVehicle[vid]),
		}
		if v.Year != nil {
			sheet.Year = int(*v.Year)
		}
		sheets = append(sheets, sheet)
	}

	sort.SliceStable(sheets, func(i, j int) bool {
		return sheets[i].Model < sheets[j].Model
	})
	return sheets
}

// resolveKm applies the kilometer precedence: the vehicle's own reading, else
// the latest appointment's embedded reading, else the highest km-at-service
// seen across the history, else zero.
func resolveKm(v VehicleRecord, appts []AppointmentRecord) float64 {
	if v.Km != nil {
		return *v.Km
	}
	if len(appts) > 0 && appts[0].Vehicle != nil && appts[0].Vehicle.Km != nil {
		return *appts[0].Vehicle.Km
	}
	km := 0.0
	for i := range appts {
		if appts[i].KmAtService != nil && *appts[i].KmAtService > km {
			km = *appts[i].KmAtService
		}
	}
	return km
}

func buildHistory(appts []AppointmentRecord) []HistoryEntry {
	entries := make([]HistoryEntry, 0)
	for i := range appts {
		appt := &appts[i]
		if appt.Status != models.AppointmentCompleted && appt.Status != models.AppointmentServiceCompleted {
			continue
		}

		names := make([]string, 0, len(appt.Services))
		for _, s := range appt.Services {
			if s.Name != "" {
				names = append(names, s.Name)
			}
		}
		serviceName := strings.Join(names, ", ")
		if serviceName == "" {
			serviceName = fmt.Sprintf("Servicio #%d", appt.ID)
		}

		amount := 0.0
		if appt.FinalPrice != nil {
			amount = *appt.FinalPrice
		} else if appt.OriginalPrice != nil {
			amount = *appt.OriginalPrice
		}

		workshopName := "N/A"
		if appt.Workshop != nil && appt.Workshop.WorkshopName != "" {
			workshopName = appt.Workshop.WorkshopName
		}

		entries = append(entries, HistoryEntry{
			ID:                  appt.ID,
			ServiceName:         serviceName,
			Date:                appt.Date,
			AmountPaid:          amount,
			WorkshopName:        workshopName,
			VehicleStatusAtTime: normalize.VehicleStatus(appt.VehicleStatusAtService),
		})
	}
	return entries
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
