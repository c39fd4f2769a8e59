// Package reminderconfig holds the editable view-model for per-service
// maintenance reminders: preset-or-custom interval selections reconciled
// against the server state, dirty tracking, and the save/delete protocol.
package reminderconfig

import (
	"strconv"

	"github.com/tallerapp/vehicle-maintenance/internal/models"
	"github.com/tallerapp/vehicle-maintenance/internal/normalize"
)

// CustomValue is the selection sentinel meaning "interval typed by hand".
const CustomValue = "custom"

// TimePresets are the selectable time intervals, in months.
var TimePresets = []string{"3", "6", "12", "18", "24"}

// KmPresets are the selectable mileage intervals, in kilometers.
var KmPresets = []string{"5000", "7500", "10000", "15000", "20000"}

// Config is the editable reminder state for one service. TimeValue/KmValue
// hold a preset, the custom sentinel, or empty; the custom fields are
// populated only under the sentinel.
type Config struct {
	ReminderID  *int64
	ServiceID   int64
	ServiceName string

	TimeValue  string
	TimeCustom string
	KmValue    string
	KmCustom   string

	LastMonths  *int64
	LastMileage *int64
	HadHistory  bool
}

// NewConfig reconciles a server reminder (nil when the service has none) into
// an editable config for the given service.
func NewConfig(service models.Service, reminder *models.Reminder) Config {
	c := Config{
		ServiceID:   service.ID,
		ServiceName: normalize.ServiceName(service.Name),
	}
	if reminder == nil {
		return c
	}

	id := reminder.ID
	c.ReminderID = &id
	c.LastMonths = positiveInterval(reminder.LastMonths)
	c.LastMileage = positiveInterval(reminder.LastMileage)
	c.HadHistory = c.LastMonths != nil || c.LastMileage != nil

	c.TimeValue, c.TimeCustom = reconcile(reminder.Months, c.LastMonths, TimePresets)
	c.KmValue, c.KmCustom = reconcile(reminder.Mileage, c.LastMileage, KmPresets)
	return c
}

// reconcile picks the effective interval (current value, else the previously
// saved one) and maps it onto a preset, the custom sentinel plus its text, or
// nothing at all.
func reconcile(current, last *int64, presets []string) (value, custom string) {
	effective := positiveInterval(current)
	if effective == nil {
		effective = positiveInterval(last)
	}
	if effective == nil {
		return "", ""
	}

	s := strconv.FormatInt(*effective, 10)
	for _, p := range presets {
		if p == s {
			return p, ""
		}
	}
	return CustomValue, s
}

// positiveInterval filters a stored interval through the same coercion
// contract as typed input: non-positive values count as absent.
func positiveInterval(p *int64) *int64 {
	if p == nil {
		return nil
	}
	n, ok := normalize.ToPositiveInt(*p)
	if !ok {
		return nil
	}
	return &n
}

// Restore re-runs reconciliation from the previously saved interval, undoing
// in-progress edits. It is a no-op when there is no history to restore.
func (c *Config) Restore() {
	if !c.HadHistory {
		return
	}
	c.TimeValue, c.TimeCustom = reconcile(c.LastMonths, nil, TimePresets)
	c.KmValue, c.KmCustom = reconcile(c.LastMileage, nil, KmPresets)
}

// Snapshot captures the four editable fields for later dirty comparison.
type Snapshot struct {
	TimeValue  string
	TimeCustom string
	KmValue    string
	KmCustom   string
}

// Snapshot returns the current editable field values.
func (c *Config) Snapshot() Snapshot {
	return Snapshot{
		TimeValue:  c.TimeValue,
		TimeCustom: c.TimeCustom,
		KmValue:    c.KmValue,
		KmCustom:   c.KmCustom,
	}
}

// Dirty reports whether any editable field differs from the snapshot.
func (c *Config) Dirty(s Snapshot) bool {
	return c.TimeValue != s.TimeValue ||
		c.TimeCustom != s.TimeCustom ||
		c.KmValue != s.KmValue ||
		c.KmCustom != s.KmCustom
}

// resolveInterval turns a selection into the integer interval to persist: nil
// when nothing is selected, the preset value, or the coerced custom text.
// ok is false only for the invalid custom case (sentinel selected but the
// text does not coerce to a positive integer).
func resolveInterval(value, custom string) (interval *int64, ok bool) {
	switch value {
	case "":
		return nil, true
	case CustomValue:
		n, valid := normalize.ToPositiveInt(custom)
		if !valid {
			return nil, false
		}
		return &n, true
	default:
		n, valid := normalize.ToPositiveInt(value)
		if !valid {
			return nil, false
		}
		return &n, true
	}
}
