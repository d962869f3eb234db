// Package appointments is the gateway to the appointment resource: range
// loads for the calendar and idempotent-by-id PATCH mutations. Server error
// messages pass through verbatim; nothing is swallowed here.
package appointments

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ocampolabs/clinic-agenda/internal/clinicapi"
)

// EventID is an appointment identifier. The backend sends numeric ids but
// older deployments used strings, so both decode.
type EventID string

func (id *EventID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	*id = EventID(s)
	return nil
}

// CalendarEvent is the FullCalendar-shaped payload returned by
// GET /appointments/calendar/.
type CalendarEvent struct {
	ID            EventID `json:"id"`
	Title         string  `json:"title"`
	Start         string  `json:"start"`
	End           string  `json:"end"`
	ExtendedProps struct {
		Status string `json:"status"`
	} `json:"extendedProps"`
}

// Appointment is the canonical appointment representation returned by the
// backend on mutations.
type Appointment struct {
	ID              EventID `json:"id"`
	Patient         int64   `json:"patient"`
	PatientName     string  `json:"patient_name,omitempty"`
	Date            string  `json:"date"`
	StartTime       string  `json:"start_time"`
	DurationMinutes int     `json:"duration_minutes"`
	Status          string  `json:"status"`
}

// CreateRequest is a booking request against a patient.
type CreateRequest struct {
	Patient         int64  `json:"patient"`
	Status          string `json:"status"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`
}

// Gateway issues appointment reads and mutations over the clinic API
// client.
type Gateway struct {
	client *clinicapi.Client
}

func NewGateway(client *clinicapi.Client) *Gateway {
	return &Gateway{client: client}
}

// LoadCalendar fetches the calendar events for [start, end).
func (g *Gateway) LoadCalendar(ctx context.Context, start, end string) ([]CalendarEvent, error) {
	path := fmt.Sprintf("/appointments/calendar/?start=%s&end=%s",
		url.QueryEscape(start), url.QueryEscape(end))

	var events []CalendarEvent
	if err := g.client.Do(ctx, http.MethodGet, path, nil, &events); err != nil {
		return nil, fmt.Errorf("load calendar range %s..%s: %w", start, end, err)
	}
	return events, nil
}

// SetStatus persists a status change and returns the server's canonical
// appointment.
func (g *Gateway) SetStatus(ctx context.Context, id, status string) (*Appointment, error) {
	var out Appointment
	body := map[string]string{"status": status}
	if err := g.client.Do(ctx, http.MethodPatch, "/appointments/"+id+"/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reschedule moves an appointment to a new date and start time.
func (g *Gateway) Reschedule(ctx context.Context, id, date, startTime string) (*Appointment, error) {
	var out Appointment
	body := map[string]string{
		"date":       date,
		"start_time": startTime,
	}
	if err := g.client.Do(ctx, http.MethodPatch, "/appointments/"+id+"/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create books a new appointment for a patient. The booking always starts
// life as scheduled.
func (g *Gateway) Create(ctx context.Context, req CreateRequest) (*Appointment, error) {
	if req.Status == "" {
		req.Status = "scheduled"
	}
	var out Appointment
	if err := g.client.Do(ctx, http.MethodPost, "/appointments/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
