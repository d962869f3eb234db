// Package calendar owns the appointment calendar: the visible event list,
// selection and pending-drag state, and the reschedule confirmation
// workflow.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/ocampolabs/clinic-agenda/internal/appointments"
	"github.com/ocampolabs/clinic-agenda/internal/availability"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// StatusColors maps an appointment status to its calendar color.
var StatusColors = map[Status]string{
	StatusScheduled: "#3b82f6",
	StatusCompleted: "#10b981",
	StatusCancelled: "#ef4444",
	StatusNoShow:    "#6b7280",
}

const fallbackColor = "#6b7280"

func colorFor(status Status) string {
	if c, ok := StatusColors[status]; ok {
		return c
	}
	return fallbackColor
}

// WallClock is an explicit (calendar date, wall-clock time) pair. It is the
// fixed contract for all date arithmetic here: no timezone or DST handling
// ever applies to it.
type WallClock struct {
	Date string // YYYY-MM-DD
	Time string // HH:MM
}

// ParseWallClock accepts "2006-01-02T15:04" with optional seconds or
// fraction, as sent by the backend's calendar endpoint.
func ParseWallClock(s string) (WallClock, error) {
	if len(s) < 16 || (s[10] != 'T' && s[10] != ' ') {
		return WallClock{}, fmt.Errorf("invalid timestamp %q", s)
	}
	datePart := s[:10]
	timePart := s[11:16]

	if _, err := time.Parse("2006-01-02", datePart); err != nil {
		return WallClock{}, fmt.Errorf("invalid date in %q: %w", s, err)
	}
	if _, err := time.Parse("15:04", timePart); err != nil {
		return WallClock{}, fmt.Errorf("invalid time in %q: %w", s, err)
	}

	return WallClock{Date: datePart, Time: timePart}, nil
}

func (w WallClock) String() string {
	return w.Date + "T" + w.Time
}

func (w WallClock) IsZero() bool {
	return w.Date == "" && w.Time == ""
}

// HourSlot buckets the time into its hour label, so 09:30 occupies the
// 09:00 slot.
func (w WallClock) HourSlot() string {
	return w.Time[:2] + ":00"
}

func (w WallClock) instant() time.Time {
	t, _ := time.Parse("2006-01-02T15:04", w.String())
	return t
}

// Add shifts the pair by d using plain calendar arithmetic.
func (w WallClock) Add(d time.Duration) WallClock {
	t := w.instant().Add(d)
	return WallClock{Date: t.Format("2006-01-02"), Time: t.Format("15:04")}
}

// Sub returns the duration between two pairs.
func (w WallClock) Sub(o WallClock) time.Duration {
	return w.instant().Sub(o.instant())
}

// Event is a normalized calendar event.
type Event struct {
	ID     string
	Title  string
	Start  WallClock
	End    WallClock
	Status Status
	Color  string
}

func fromWire(w appointments.CalendarEvent) (Event, error) {
	start, err := ParseWallClock(w.Start)
	if err != nil {
		return Event{}, fmt.Errorf("event %s: %w", w.ID, err)
	}

	end := start.Add(time.Hour)
	if strings.TrimSpace(w.End) != "" {
		end, err = ParseWallClock(w.End)
		if err != nil {
			return Event{}, fmt.Errorf("event %s: %w", w.ID, err)
		}
	}

	status := Status(w.ExtendedProps.Status)
	return Event{
		ID:     string(w.ID),
		Title:  w.Title,
		Start:  start,
		End:    end,
		Status: status,
		Color:  colorFor(status),
	}, nil
}

// toAvailability projects the event list for the capacity calculator.
func toAvailability(events []Event) []availability.Event {
	out := make([]availability.Event, 0, len(events))
	for _, e := range events {
		out = append(out, availability.Event{
			ID:     e.ID,
			Date:   e.Start.Date,
			Hour:   e.Start.HourSlot(),
			Status: string(e.Status),
		})
	}
	return out
}
