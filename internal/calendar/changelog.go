package calendar

import (
	"sync"
	"time"
)

type ChangeAction string

const (
	ActionStatusUpdate ChangeAction = "STATUS_UPDATE"
	ActionTimeChange   ChangeAction = "TIME_CHANGE"
	ActionDateChange   ChangeAction = "DATE_CHANGE"
	ActionLoadError    ChangeAction = "LOAD_ERROR"
	ActionUpdateError  ChangeAction = "UPDATE_ERROR"
	ActionDayClick     ChangeAction = "DAY_CLICK"
	ActionEventClick   ChangeAction = "EVENT_CLICK"
	ActionDragStart    ChangeAction = "DRAG_START"
)

// ChangeEntry is one audit record of a calendar interaction or mutation.
type ChangeEntry struct {
	Timestamp     time.Time
	Action        ChangeAction
	AppointmentID string
	Date          string
	Details       map[string]any
}

const changeLogCapacity = 100

// ChangeLog is a bounded in-memory audit trail of calendar activity.
// Oldest entries are dropped once the capacity is reached. Recording is
// off unless enabled.
type ChangeLog struct {
	mu      sync.Mutex
	enabled bool
	entries []ChangeEntry
}

func NewChangeLog(enabled bool) *ChangeLog {
	return &ChangeLog{enabled: enabled}
}

func (l *ChangeLog) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

func (l *ChangeLog) record(action ChangeAction, appointmentID, date string, details map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled {
		return
	}
	l.entries = append(l.entries, ChangeEntry{
		Timestamp:     time.Now(),
		Action:        action,
		AppointmentID: appointmentID,
		Date:          date,
		Details:       details,
	})
	if len(l.entries) > changeLogCapacity {
		l.entries = l.entries[len(l.entries)-changeLogCapacity:]
	}
}

// Entries returns a copy of the recorded entries, oldest first.
func (l *ChangeLog) Entries() []ChangeEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ChangeEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *ChangeLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
