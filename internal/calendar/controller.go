package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ocampolabs/clinic-agenda/internal/alert"
	"github.com/ocampolabs/clinic-agenda/internal/appointments"
	"github.com/ocampolabs/clinic-agenda/internal/availability"
	"github.com/ocampolabs/clinic-agenda/internal/clinicapi"
	"github.com/ocampolabs/clinic-agenda/pkg/logging"
)

type State string

const (
	StateIdle          State = "idle"
	StateRangeLoaded   State = "range_loaded"
	StateEventSelected State = "event_selected"
	StateDragPending   State = "drag_pending"
)

// User-facing calendar messages.
const (
	msgLoadError        = "Error al cargar las citas"
	msgStatusUpdated    = "Estado actualizado"
	msgStatusError      = "Error al actualizar el estado"
	msgTimeUpdated      = "Horario actualizado"
	msgRescheduleError  = "Error al actualizar horario"
	msgNoCapacity       = "No hay cupo disponible"
	msgSlotNotAvailable = "Horario no disponible"
)

// Gateway is the appointment collaborator the controller mutates through.
type Gateway interface {
	LoadCalendar(ctx context.Context, start, end string) ([]appointments.CalendarEvent, error)
	SetStatus(ctx context.Context, id, status string) (*appointments.Appointment, error)
	Reschedule(ctx context.Context, id, date, startTime string) (*appointments.Appointment, error)
}

// Alerter receives transient user feedback.
type Alerter interface {
	Show(kind alert.Kind, message string)
}

// Tagged interaction inputs, one per calendar gesture.

type EventClick struct {
	ID string
}

type DateClick struct {
	Date string // YYYY-MM-DD
}

type EventDrop struct {
	ID      string
	NewDate string // YYYY-MM-DD
	NewTime string // HH:MM
}

// PendingDrop captures an event relocation awaiting user confirmation.
type PendingDrop struct {
	EventID string
	OldDate string
	OldTime string
	NewDate string
	NewTime string
}

// Controller is the calendar state machine. Methods that hit the network
// block until the mutation and the follow-up range refresh complete, so
// the event list never shows a stale state for a mutated appointment.
type Controller struct {
	gateway Gateway
	alerts  Alerter
	logger  *logging.Logger
	changes *ChangeLog

	mu            sync.Mutex
	state         State
	rangeStart    string
	rangeEnd      string
	loadSeq       uint64
	events        []Event
	selectedDate  string
	selectedEvent *Event
	newStatus     Status
	pending       *PendingDrop
	selectedTime  string
}

type ControllerOption func(*Controller)

func WithLogger(logger *logging.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithAuditLog enables the in-memory change log.
func WithAuditLog() ControllerOption {
	return func(c *Controller) {
		c.changes.SetEnabled(true)
	}
}

func NewController(gateway Gateway, alerts Alerter, opts ...ControllerOption) *Controller {
	c := &Controller{
		gateway:      gateway,
		alerts:       alerts,
		logger:       logging.Default(),
		changes:      NewChangeLog(false),
		state:        StateIdle,
		selectedDate: time.Now().Format("2006-01-02"),
		newStatus:    StatusScheduled,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SetRange is called when the visible calendar range changes. The load is
// guarded by a sequence number so a slow response for an old range can
// never overwrite a newer one.
func (c *Controller) SetRange(ctx context.Context, start, end string) error {
	c.mu.Lock()
	c.rangeStart = start
	c.rangeEnd = end
	c.loadSeq++
	seq := c.loadSeq
	c.mu.Unlock()

	return c.load(ctx, seq, start, end)
}

func (c *Controller) load(ctx context.Context, seq uint64, start, end string) error {
	wire, err := c.gateway.LoadCalendar(ctx, start, end)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.loadSeq {
		// A newer range load superseded this one.
		return nil
	}

	if err != nil {
		c.changes.record(ActionLoadError, "N/A", start, map[string]any{
			"rangeStart": start,
			"rangeEnd":   end,
			"error":      err.Error(),
		})
		c.alerts.Show(alert.KindError, msgLoadError)
		return err
	}

	events := make([]Event, 0, len(wire))
	for _, w := range wire {
		e, err := fromWire(w)
		if err != nil {
			c.logger.Warn("skipping malformed calendar event", "error", err.Error())
			continue
		}
		events = append(events, e)
	}
	c.events = events
	c.state = StateRangeLoaded
	return nil
}

// reload re-fetches the current range after a successful mutation.
func (c *Controller) reload(ctx context.Context) error {
	c.mu.Lock()
	if c.rangeStart == "" && c.rangeEnd == "" {
		c.mu.Unlock()
		return nil
	}
	c.loadSeq++
	seq := c.loadSeq
	start, end := c.rangeStart, c.rangeEnd
	c.mu.Unlock()

	return c.load(ctx, seq, start, end)
}

// HandleDateClick selects a day for the daily list and availability views.
func (c *Controller) HandleDateClick(click DateClick) {
	c.mu.Lock()
	previous := c.selectedDate
	c.selectedDate = click.Date
	c.mu.Unlock()

	c.changes.record(ActionDayClick, "N/A", click.Date, map[string]any{
		"previousDate": previous,
		"newDate":      click.Date,
	})
}

// HandleEventClick selects an event and opens the status flow.
func (c *Controller) HandleEventClick(click EventClick) error {
	c.mu.Lock()
	idx := c.findEvent(click.ID)
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("unknown event %q", click.ID)
	}
	ev := c.events[idx]
	c.selectedDate = ev.Start.Date
	c.selectedEvent = &ev
	c.newStatus = ev.Status
	if c.newStatus == "" {
		c.newStatus = StatusScheduled
	}
	c.state = StateEventSelected
	c.mu.Unlock()

	c.changes.record(ActionEventClick, ev.ID, ev.Start.Date, map[string]any{
		"title":  ev.Title,
		"status": string(ev.Status),
		"start":  ev.Start.String(),
	})
	return nil
}

// SetNewStatus stages the status choice for the selected event.
func (c *Controller) SetNewStatus(status Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.newStatus = status
}

// ConfirmStatus persists the staged status change. On success the range is
// re-fetched before the selection clears; on failure the selection stays
// open and the server's message is surfaced.
func (c *Controller) ConfirmStatus(ctx context.Context) error {
	c.mu.Lock()
	if c.selectedEvent == nil {
		c.mu.Unlock()
		return nil
	}
	sel := *c.selectedEvent
	newStatus := c.newStatus
	c.mu.Unlock()

	if _, err := c.gateway.SetStatus(ctx, sel.ID, string(newStatus)); err != nil {
		c.changes.record(ActionUpdateError, sel.ID, sel.Start.Date, map[string]any{
			"title":           sel.Title,
			"attemptedStatus": string(newStatus),
			"error":           err.Error(),
		})
		c.alerts.Show(alert.KindError, mutationMessage(err, msgStatusError))
		return err
	}

	c.changes.record(ActionStatusUpdate, sel.ID, sel.Start.Date, map[string]any{
		"title":     sel.Title,
		"oldStatus": string(sel.Status),
		"newStatus": string(newStatus),
	})

	if err := c.reload(ctx); err != nil {
		return err
	}

	c.alerts.Show(alert.KindSuccess, msgStatusUpdated)

	c.mu.Lock()
	c.selectedEvent = nil
	c.state = StateRangeLoaded
	c.mu.Unlock()
	return nil
}

// CloseStatusPanel abandons the status flow without a network call.
func (c *Controller) CloseStatusPanel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedEvent = nil
	if c.state == StateEventSelected {
		c.state = StateRangeLoaded
	}
}

// HandleEventDrop applies the optimistic move and opens the time-selection
// flow, defaulting to the dropped time.
func (c *Controller) HandleEventDrop(drop EventDrop) error {
	c.mu.Lock()
	idx := c.findEvent(drop.ID)
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("unknown event %q", drop.ID)
	}
	ev := &c.events[idx]
	old := ev.Start
	duration := ev.End.Sub(ev.Start)
	newStart := WallClock{Date: drop.NewDate, Time: drop.NewTime}
	ev.Start = newStart
	ev.End = newStart.Add(duration)

	c.pending = &PendingDrop{
		EventID: drop.ID,
		OldDate: old.Date,
		OldTime: old.Time,
		NewDate: drop.NewDate,
		NewTime: drop.NewTime,
	}
	c.selectedTime = drop.NewTime
	c.state = StateDragPending
	title := ev.Title
	c.mu.Unlock()

	c.changes.record(ActionDragStart, drop.ID, drop.NewDate, map[string]any{
		"title":       title,
		"newDate":     drop.NewDate,
		"newTime":     drop.NewTime,
		"draggedFrom": map[string]string{"date": old.Date, "time": old.Time},
	})
	return nil
}

// DropAvailability derives the target date's slot occupancy for the time
// picker, excluding the dragged event so it cannot block itself.
func (c *Controller) DropAvailability() []availability.Slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return nil
	}
	return availability.Compute(toAvailability(c.events), c.pending.NewDate, c.pending.EventID)
}

// SelectDropTime stages a different slot for the pending drop. Only
// operating hours with remaining capacity can be chosen.
func (c *Controller) SelectDropTime(hour string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return errors.New("no pending drop")
	}
	if !isOperatingHour(hour) {
		return fmt.Errorf("%s: %q", msgSlotNotAvailable, hour)
	}
	count := availability.CountAtHour(toAvailability(c.events), c.pending.NewDate, hour, c.pending.EventID)
	if count >= availability.AvailableLimit {
		return fmt.Errorf("%s: %s", msgSlotNotAvailable, hour)
	}
	c.selectedTime = hour
	return nil
}

// ConfirmDrop persists the pending reschedule. The target slot is
// re-checked first: at DropHardLimit occupants (excluding the moved event)
// the drop reverts with a warning and no network call is made.
func (c *Controller) ConfirmDrop(ctx context.Context) error {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return nil
	}
	p := *c.pending
	selTime := c.selectedTime
	title := ""
	if idx := c.findEvent(p.EventID); idx >= 0 {
		title = c.events[idx].Title
	}

	count := availability.CountAtHour(toAvailability(c.events), p.NewDate, hourSlotOf(selTime), p.EventID)
	if count >= availability.DropHardLimit {
		c.revertDropLocked()
		c.pending = nil
		c.state = StateRangeLoaded
		c.mu.Unlock()

		c.changes.record(ActionTimeChange, p.EventID, p.NewDate, map[string]any{
			"title":         title,
			"oldDate":       p.OldDate,
			"oldTime":       p.OldTime,
			"attemptedDate": p.NewDate,
			"attemptedTime": selTime,
			"reason":        msgNoCapacity,
			"success":       false,
		})
		c.alerts.Show(alert.KindWarning, msgNoCapacity)
		return nil
	}
	c.mu.Unlock()

	if _, err := c.gateway.Reschedule(ctx, p.EventID, p.NewDate, selTime); err != nil {
		c.mu.Lock()
		c.revertDropLocked()
		c.pending = nil
		c.state = StateRangeLoaded
		c.mu.Unlock()

		c.changes.record(ActionUpdateError, p.EventID, p.NewDate, map[string]any{
			"title":         title,
			"attemptedDate": p.NewDate,
			"attemptedTime": selTime,
			"error":         err.Error(),
		})
		c.alerts.Show(alert.KindError, mutationMessage(err, msgRescheduleError))
		return err
	}

	action := ActionTimeChange
	if p.OldDate != p.NewDate {
		action = ActionDateChange
	}
	c.changes.record(action, p.EventID, p.NewDate, map[string]any{
		"title":   title,
		"oldDate": p.OldDate,
		"oldTime": p.OldTime,
		"newDate": p.NewDate,
		"newTime": selTime,
		"success": true,
	})

	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()

	if err := c.reload(ctx); err != nil {
		return err
	}

	c.alerts.Show(alert.KindSuccess, msgTimeUpdated)
	return nil
}

// CancelDrop abandons the pending reschedule, reverting the visual move
// without a network call.
func (c *Controller) CancelDrop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revertDropLocked()
	c.pending = nil
	if c.state == StateDragPending {
		c.state = StateRangeLoaded
	}
}

// revertDropLocked snaps the dragged event back to its pre-drag position.
// Caller holds c.mu.
func (c *Controller) revertDropLocked() {
	if c.pending == nil {
		return
	}
	idx := c.findEvent(c.pending.EventID)
	if idx < 0 {
		return
	}
	ev := &c.events[idx]
	duration := ev.End.Sub(ev.Start)
	old := WallClock{Date: c.pending.OldDate, Time: c.pending.OldTime}
	ev.Start = old
	ev.End = old.Add(duration)
}

// DayEvents returns the selected day's scheduled appointments, in load
// order.
func (c *Controller) DayEvents() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, e := range c.events {
		if e.Start.Date == c.selectedDate && e.Status == StatusScheduled {
			out = append(out, e)
		}
	}
	return out
}

// DayAvailability derives the selected day's slot occupancy.
func (c *Controller) DayAvailability() []availability.Slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return availability.Compute(toAvailability(c.events), c.selectedDate, "")
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *Controller) SelectedDate() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedDate
}

func (c *Controller) SelectedEvent() *Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selectedEvent == nil {
		return nil
	}
	ev := *c.selectedEvent
	return &ev
}

func (c *Controller) Pending() *PendingDrop {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return nil
	}
	p := *c.pending
	return &p
}

func (c *Controller) SelectedTime() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedTime
}

// Changes exposes the audit trail.
func (c *Controller) Changes() *ChangeLog {
	return c.changes
}

// findEvent returns the index of the event with id, or -1. Caller holds
// c.mu.
func (c *Controller) findEvent(id string) int {
	for i := range c.events {
		if c.events[i].ID == id {
			return i
		}
	}
	return -1
}

func hourSlotOf(t string) string {
	if len(t) < 2 {
		return t
	}
	return t[:2] + ":00"
}

func isOperatingHour(hour string) bool {
	for _, h := range availability.Hours() {
		if h == hour {
			return true
		}
	}
	return false
}

// mutationMessage prefers the server's own detail text and falls back to a
// fixed message, matching what the status and reschedule panels display.
func mutationMessage(err error, fallback string) string {
	var apiErr *clinicapi.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}
