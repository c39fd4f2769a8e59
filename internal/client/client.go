// Package client is the typed REST client for the maintenance backend. List
// responses decode into the tolerant record types so missing fields survive
// as absence instead of zero values.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tallerapp/vehicle-maintenance/internal/models"
	"github.com/tallerapp/vehicle-maintenance/internal/techsheet"
)

// Client talks to one backend instance on behalf of one authenticated user.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New builds a client for the given base URL (no trailing slash).
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SetToken installs the bearer token used on subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s failed with status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Login authenticates and installs the returned token on the client.
func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	var out models.LoginResponse
	req := models.LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// Register creates an account and installs the returned token on the client.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	var out models.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// GetUserReminders lists the user's reminders.
func (c *Client) GetUserReminders(ctx context.Context, userID int64) ([]models.Reminder, error) {
	var out []models.Reminder
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/reminders/user/%d", userID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetExpiringReminders lists the computed expiring-reminder projections for
// the authenticated user.
func (c *Client) GetExpiringReminders(ctx context.Context) ([]techsheet.ExpiringRecord, error) {
	var out []techsheet.ExpiringRecord
	if err := c.do(ctx, http.MethodGet, "/reminders/user/expiring", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateReminder persists a new reminder and returns it with its assigned id.
func (c *Client) CreateReminder(ctx context.Context, req models.ReminderRequest) (*models.Reminder, error) {
	var out models.Reminder
	if err := c.do(ctx, http.MethodPost, "/reminders", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateReminder replaces a reminder's intervals.
func (c *Client) UpdateReminder(ctx context.Context, id int64, req models.ReminderRequest) (*models.Reminder, error) {
	var out models.Reminder
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/reminders/%d", id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteReminder removes a reminder.
func (c *Client) DeleteReminder(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/reminders/%d", id), nil, nil)
}

// GetUserVehicles lists the authenticated user's vehicles.
func (c *Client) GetUserVehicles(ctx context.Context) ([]techsheet.VehicleRecord, error) {
	var out []techsheet.VehicleRecord
	if err := c.do(ctx, http.MethodGet, "/vehicle/user", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateVehicle registers a vehicle.
func (c *Client) CreateVehicle(ctx context.Context, req models.CreateVehicleRequest) (*models.Vehicle, error) {
	var out models.Vehicle
	if err := c.do(ctx, http.MethodPost, "/vehicle", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateVehicle replaces a vehicle's technical data.
func (c *Client) UpdateVehicle(ctx context.Context, id int64, req models.CreateVehicleRequest) (*models.Vehicle, error) {
	var out models.Vehicle
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/vehicle/%d", id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateVehicleStatus sets a vehicle's condition status.
func (c *Client) UpdateVehicleStatus(ctx context.Context, id int64, status models.VehicleStatus) error {
	req := models.UpdateVehicleStatusRequest{Status: status}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/vehicle/%d/status", id), req, nil)
}

// DeleteVehicle removes a vehicle.
func (c *Client) DeleteVehicle(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/vehicle/%d", id), nil, nil)
}

// AppointmentRequest is the payload for POST /appointments.
type AppointmentRequest struct {
	VehicleID int64            `json:"vehicleId"`
	Date      string           `json:"date"`
	Time      string           `json:"time,omitempty"`
	Services  []models.Service `json:"services"`
	Workshop  *models.Workshop `json:"workshop,omitempty"`
}

// CreateAppointment books a workshop visit.
func (c *Client) CreateAppointment(ctx context.Context, req AppointmentRequest) (*models.Appointment, error) {
	var out models.Appointment
	if err := c.do(ctx, http.MethodPost, "/appointments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompleteAppointment closes an appointment with its service outcome.
func (c *Client) CompleteAppointment(ctx context.Context, id int64, completion models.AppointmentCompletion) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/appointments/%d/complete", id), completion, nil)
}

// GetAppointmentsHistory lists the authenticated user's appointment history.
func (c *Client) GetAppointmentsHistory(ctx context.Context) ([]techsheet.AppointmentRecord, error) {
	var out []techsheet.AppointmentRecord
	if err := c.do(ctx, http.MethodGet, "/appointments/history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTechnicalSheets fetches the server-aggregated technical sheets.
func (c *Client) GetTechnicalSheets(ctx context.Context) ([]techsheet.Sheet, error) {
	var out []techsheet.Sheet
	if err := c.do(ctx, http.MethodGet, "/vehicle/techsheet", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
