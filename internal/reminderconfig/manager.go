package reminderconfig

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/tallerapp/vehicle-maintenance/internal/models"
)

var (
	// ErrUnknownService means the service id has no config loaded.
	ErrUnknownService = errors.New("unknown service")
	// ErrBusy means another mutation for the same service is still in flight.
	ErrBusy = errors.New("mutation already in flight for service")
	// ErrInvalidCustom means a custom interval was selected but the typed
	// value does not coerce to a positive integer.
	ErrInvalidCustom = errors.New("invalid custom interval value")
	// ErrNoInterval means neither dimension resolved to an interval.
	ErrNoInterval = errors.New("no interval configured")
	// ErrNotPersisted means the reminder has no server id to delete.
	ErrNotPersisted = errors.New("reminder not persisted")
)

// API is the backend surface the manager mutates through.
type API interface {
	GetUserReminders(ctx context.Context, userID int64) ([]models.Reminder, error)
	CreateReminder(ctx context.Context, req models.ReminderRequest) (*models.Reminder, error)
	UpdateReminder(ctx context.Context, id int64, req models.ReminderRequest) (*models.Reminder, error)
	DeleteReminder(ctx context.Context, id int64) error
}

// Manager owns the reminder configs for one user across a fixed service
// catalog. Mutations are serialized per service; concurrent loads carry a
// sequence number and responses that arrive out of order are discarded.
type Manager struct {
	api      API
	userID   int64
	services []models.Service

	mu        sync.Mutex
	configs   map[int64]*Config
	snapshots map[int64]Snapshot
	busy      map[int64]bool
	loadSeq   int64
	loadDone  int64
}

// NewManager builds a manager with empty configs for every service. Call Load
// to populate them from the server.
func NewManager(api API, userID int64, services []models.Service) *Manager {
	m := &Manager{
		api:       api,
		userID:    userID,
		services:  services,
		configs:   make(map[int64]*Config, len(services)),
		snapshots: make(map[int64]Snapshot, len(services)),
		busy:      make(map[int64]bool),
	}
	m.apply(nil)
	return m
}

// Load fetches the user's reminders and reconciles them into configs. When
// several loads overlap, only the most recently started one may apply; older
// responses are dropped so a slow request cannot clobber fresher state.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	m.loadSeq++
	seq := m.loadSeq
	m.mu.Unlock()

	reminders, err := m.api.GetUserReminders(ctx, m.userID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if seq <= m.loadDone {
		log.WithFields(log.Fields{"seq": seq, "applied": m.loadDone}).
			Debug("Discarding stale reminder load")
		return nil
	}
	m.loadDone = seq
	m.apply(reminders)
	return nil
}

// apply rebuilds every config from server state. Caller holds the lock (or is
// the constructor).
func (m *Manager) apply(reminders []models.Reminder) {
	byService := make(map[int64]*models.Reminder, len(reminders))
	for i := range reminders {
		byService[reminders[i].ServiceID] = &reminders[i]
	}
	for _, svc := range m.services {
		cfg := NewConfig(svc, byService[svc.ID])
		m.configs[svc.ID] = &cfg
		m.snapshots[svc.ID] = cfg.Snapshot()
	}
}

// Config returns a copy of the config for the given service.
func (m *Manager) Config(serviceID int64) (Config, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[serviceID]
	if !ok {
		return Config{}, false
	}
	return *cfg, true
}

// SetTime updates the time selection for a service. Moving the selector off
// the custom sentinel drops the custom text, so it is only ever populated
// under the sentinel.
func (m *Manager) SetTime(serviceID int64, value, custom string) error {
	return m.edit(serviceID, func(c *Config) {
		c.TimeValue = value
		if value != CustomValue {
			custom = ""
		}
		c.TimeCustom = custom
	})
}

// SetKm updates the mileage selection for a service, with the same custom-text
// handling as SetTime.
func (m *Manager) SetKm(serviceID int64, value, custom string) error {
	return m.edit(serviceID, func(c *Config) {
		c.KmValue = value
		if value != CustomValue {
			custom = ""
		}
		c.KmCustom = custom
	})
}

// Restore reverts a service's selections to the previously saved interval.
func (m *Manager) Restore(serviceID int64) error {
	return m.edit(serviceID, func(c *Config) { c.Restore() })
}

func (m *Manager) edit(serviceID int64, fn func(*Config)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[serviceID]
	if !ok {
		return ErrUnknownService
	}
	fn(cfg)
	return nil
}

// Dirty reports whether a service's selections differ from its last saved
// state.
func (m *Manager) Dirty(serviceID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[serviceID]
	if !ok {
		return false
	}
	return cfg.Dirty(m.snapshots[serviceID])
}

// Save persists a service's selections: validation happens before any network
// call, the reminder is created or updated depending on whether a server id
// exists, and on success the authoritative list is refreshed. A failed call
// leaves the editable state untouched.
func (m *Manager) Save(ctx context.Context, serviceID int64) error {
	cfg, release, err := m.acquire(serviceID)
	if err != nil {
		return err
	}
	defer release()

	months, ok := resolveInterval(cfg.TimeValue, cfg.TimeCustom)
	if !ok {
		return ErrInvalidCustom
	}
	mileage, ok := resolveInterval(cfg.KmValue, cfg.KmCustom)
	if !ok {
		return ErrInvalidCustom
	}
	if months == nil && mileage == nil {
		return ErrNoInterval
	}

	req := models.ReminderRequest{ServiceID: serviceID, Months: months, Mileage: mileage}

	var saved *models.Reminder
	if cfg.ReminderID == nil {
		saved, err = m.api.CreateReminder(ctx, req)
	} else {
		saved, err = m.api.UpdateReminder(ctx, *cfg.ReminderID, req)
	}
	if err != nil {
		return err
	}

	m.mu.Lock()
	if live, ok := m.configs[serviceID]; ok && saved != nil {
		id := saved.ID
		live.ReminderID = &id
		m.snapshots[serviceID] = live.Snapshot()
	}
	m.mu.Unlock()

	log.WithFields(log.Fields{"service_id": serviceID}).Info("Reminder saved")
	return m.Load(ctx)
}

// Delete removes a service's reminder on the server, then refreshes. There is
// no optimistic removal: a reminder that was never persisted cannot be
// deleted.
func (m *Manager) Delete(ctx context.Context, serviceID int64) error {
	cfg, release, err := m.acquire(serviceID)
	if err != nil {
		return err
	}
	defer release()

	if cfg.ReminderID == nil {
		return ErrNotPersisted
	}
	if err := m.api.DeleteReminder(ctx, *cfg.ReminderID); err != nil {
		return err
	}

	log.WithFields(log.Fields{"service_id": serviceID, "reminder_id": *cfg.ReminderID}).
		Info("Reminder deleted")
	return m.Load(ctx)
}

// acquire snapshots a service's config and marks it busy so mutations for the
// same service cannot interleave.
func (m *Manager) acquire(serviceID int64) (Config, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[serviceID]
	if !ok {
		return Config{}, nil, ErrUnknownService
	}
	if m.busy[serviceID] {
		return Config{}, nil, ErrBusy
	}
	m.busy[serviceID] = true
	release := func() {
		m.mu.Lock()
		delete(m.busy, serviceID)
		m.mu.Unlock()
	}
	return *cfg, release, nil
}
