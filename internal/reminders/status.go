// Package reminders classifies maintenance reminders against current vehicle
// state, producing the expiring-reminder projections served to clients.
package reminders

import (
	"math"
	"os"
	"strconv"
	"time"

	"github.com/tallerapp/vehicle-maintenance/internal/models"
)

const (
	defaultKmWindow   = 1000.0
	defaultDaysWindow = 30
	dateLayout        = "2006-01-02"
)

// Engine evaluates reminders. The due-soon windows are tunable via
// REMINDER_KM_WINDOW and REMINDER_DAYS_WINDOW.
type Engine struct {
	kmWindow   float64
	daysWindow int64
	now        func() time.Time
}

// NewEngine creates an engine with env-tuned windows.
func NewEngine() *Engine {
	e := &Engine{
		kmWindow:   defaultKmWindow,
		daysWindow: defaultDaysWindow,
		now:        time.Now,
	}
	if v := os.Getenv("REMINDER_KM_WINDOW"); v != "" {
		if km, err := strconv.ParseFloat(v, 64); err == nil && km > 0 {
			e.kmWindow = km
		}
	}
	if v := os.Getenv("REMINDER_DAYS_WINDOW"); v != "" {
		if d, err := strconv.ParseInt(v, 10, 64); err == nil && d > 0 {
			e.daysWindow = d
		}
	}
	return e
}

// Baseline is the reference point a reminder interval is measured from: the
// km/date of the last completed service, or the reminder's creation state.
type Baseline struct {
	Km   float64
	Date time.Time
}

// BaselineFor derives the baseline for a reminder from the vehicle's
// appointment history: the most recent completed appointment that included the
// reminder's service. Appointments must already belong to the same user.
func BaselineFor(reminder models.Reminder, appointments []models.Appointment) Baseline {
	base := Baseline{Km: reminder.CreatedKm, Date: reminder.CreatedAt}

	var bestDate time.Time
	for i := range appointments {
		appt := &appointments[i]
		if !appt.IsCompleted() {
			continue
		}
		serves := false
		for _, s := range appt.Services {
			if s.ID == reminder.ServiceID {
				serves = true
				break
			}
		}
		if !serves {
			continue
		}
		date, err := time.Parse(dateLayout, appt.Date)
		if err != nil {
			continue
		}
		if !date.After(bestDate) {
			continue
		}
		bestDate = date
		base.Date = date
		if appt.KmAtService != nil {
			base.Km = *appt.KmAtService
		} else {
			base.Km = appt.Vehicle.Km
		}
	}
	return base
}

// Evaluate classifies each configured dimension of a reminder. Dimensions
// without a configured interval are left out of the projection entirely.
func (e *Engine) Evaluate(reminder models.Reminder, vehicle models.Vehicle, base Baseline) models.ExpiringReminder {
	proj := models.ExpiringReminder{
		ReminderID: reminder.ID,
		Service:    reminder.Service,
		Vehicle:    &vehicle,
	}

	if reminder.Mileage != nil && *reminder.Mileage > 0 {
		due := base.Km + float64(*reminder.Mileage)
		remaining := due - vehicle.Km
		ms := &models.MileageStatus{}
		switch {
		case remaining < 0:
			overdue := -remaining
			ms.Status = models.ReminderOverdue
			ms.KmOverdue = &overdue
		case remaining <= e.kmWindow:
			ms.Status = models.ReminderDueSoon
			ms.KmRemaining = &remaining
		default:
			ms.Status = models.ReminderOK
			ms.KmRemaining = &remaining
		}
		proj.Mileage = ms
	}

	if reminder.Months != nil && *reminder.Months > 0 {
		dueDate := base.Date.AddDate(0, int(*reminder.Months), 0)
		days := int64(math.Ceil(dueDate.Sub(e.now()).Hours() / 24))
		ts := &models.MonthsStatus{}
		switch {
		case days < 0:
			overdue := -days
			ts.Status = models.ReminderOverdue
			ts.DaysOverdue = &overdue
		case days <= e.daysWindow:
			ts.Status = models.ReminderDueSoon
			ts.DaysRemaining = &days
		default:
			ts.Status = models.ReminderOK
			ts.DaysRemaining = &days
		}
		proj.Months = ts
	}

	return proj
}

// IsExpiring reports whether any dimension of the projection is overdue or
// due soon; only such projections are served by the expiring endpoint.
func IsExpiring(proj models.ExpiringReminder) bool {
	if proj.Mileage != nil && proj.Mileage.Status != models.ReminderOK {
		return true
	}
	if proj.Months != nil && proj.Months.Status != models.ReminderOK {
		return true
	}
	return false
}
