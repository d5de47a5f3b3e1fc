package clinics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrAPIUnavailable covers transport failures and non-2xx responses from
// the clinics API. Every call is a single attempt; callers offer the user
// an explicit retry instead of retrying internally.
var ErrAPIUnavailable = errors.New("clinics api unavailable")

// Client is a stateless wrapper around the remote clinics REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// ListSpecialties returns every specialty. An empty list is a valid
// answer, not an error.
func (c *Client) ListSpecialties(ctx context.Context) ([]Specialty, error) {
	var out []Specialty
	if err := c.getJSON(ctx, "/api/specialties/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListDoctors returns doctors, scoped to a specialty when specialtyID is
// non-zero.
func (c *Client) ListDoctors(ctx context.Context, specialtyID int) ([]Doctor, error) {
	path := "/api/doctors/"
	if specialtyID != 0 {
		path = fmt.Sprintf("/api/doctors/?specialty=%d", specialtyID)
	}
	var out []Doctor
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSchedules returns a doctor's active weekly schedule windows.
func (c *Client) ListSchedules(ctx context.Context, doctorID int) ([]DoctorSchedule, error) {
	var out []DoctorSchedule
	path := fmt.Sprintf("/api/schedules/?doctor=%d&active=true", doctorID)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAppointments returns the appointments already booked for a doctor
// on a calendar date (YYYY-MM-DD).
func (c *Client) ListAppointments(ctx context.Context, doctorID int, date string) ([]Appointment, error) {
	var out []Appointment
	path := fmt.Sprintf("/api/appointments/?doctor=%d&date=%s", doctorID, date)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAvailableDates returns the calendar dates the backend reports as
// open for a doctor.
func (c *Client) ListAvailableDates(ctx context.Context, doctorID int) ([]AvailableDate, error) {
	var out []AvailableDate
	path := fmt.Sprintf("/api/available-dates/?doctor=%d", doctorID)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateAppointment books a slot. The backend assigns the ID.
func (c *Client) CreateAppointment(ctx context.Context, req CreateAppointmentRequest) (*Appointment, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal appointment: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/appointments/", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: POST /api/appointments/: %v", ErrAPIUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: POST /api/appointments/: status %d", ErrAPIUnavailable, resp.StatusCode)
	}

	var created Appointment
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("%w: POST /api/appointments/: decode: %v", ErrAPIUnavailable, err)
	}

	return &created, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrAPIUnavailable, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: GET %s: status %d", ErrAPIUnavailable, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: GET %s: decode: %v", ErrAPIUnavailable, path, err)
	}

	return nil
}
