// Package availability computes per-hour slot occupancy for the clinic's
// two daily shifts. Hours are wall-clock strings; no timezone conversion
// happens anywhere in this package.
package availability

import "fmt"

// Capacity constants. These are independent knobs, not one threshold:
// the slot-selection UI offers slots while Count < AvailableLimit, the
// traffic light escalates at NearFullCount and FullCount, and a drop is
// hard-blocked at DropHardLimit occupants (excluding the moved event).
const (
	AvailableLimit = 6
	NearFullCount  = 4
	FullCount      = 7
	DropHardLimit  = 7
)

// Event is the minimal appointment view the calculator needs.
type Event struct {
	ID     string
	Date   string // YYYY-MM-DD
	Hour   string // HH:MM
	Status string
}

// Slot is the derived occupancy of one (date, hour) pair.
type Slot struct {
	Hour      string
	Count     int
	Available bool
}

// Tier is a traffic-light bucket for one slot.
type Tier struct {
	Emoji string
	Class string
}

// Occupies reports whether an appointment status counts toward slot
// capacity. Completed, cancelled and no-show appointments never do.
func Occupies(status string) bool {
	return status == "scheduled" || status == "confirmed"
}

// Hours returns the fixed ordered operating hours: 09:00-13:00 and
// 16:00-19:00 inclusive, hourly.
func Hours() []string {
	hours := make([]string, 0, 9)
	for h := 9; h < 14; h++ {
		hours = append(hours, fmt.Sprintf("%02d:00", h))
	}
	for h := 16; h < 20; h++ {
		hours = append(hours, fmt.Sprintf("%02d:00", h))
	}
	return hours
}

// CountAtHour counts occupying events at (date, hour), skipping excludeID
// so an event being moved does not block itself. excludeID may be empty.
func CountAtHour(events []Event, date, hour string, excludeID string) int {
	count := 0
	for _, e := range events {
		if excludeID != "" && e.ID == excludeID {
			continue
		}
		if e.Date == date && e.Hour == hour && Occupies(e.Status) {
			count++
		}
	}
	return count
}

// Compute derives the occupancy of every operating hour on date.
func Compute(events []Event, date string, excludeID string) []Slot {
	hours := Hours()
	slots := make([]Slot, 0, len(hours))
	for _, hour := range hours {
		count := CountAtHour(events, date, hour, excludeID)
		slots = append(slots, Slot{
			Hour:      hour,
			Count:     count,
			Available: count < AvailableLimit,
		})
	}
	return slots
}

// TrafficLight buckets a slot count into the three-tier coloring used by
// the daily view and the time picker.
func TrafficLight(count int) Tier {
	if count >= FullCount {
		return Tier{Emoji: "🔴", Class: "bg-red-100 text-red-700"}
	}
	if count >= NearFullCount {
		return Tier{Emoji: "🟡", Class: "bg-yellow-100 text-yellow-700"}
	}
	return Tier{Emoji: "🟢", Class: "bg-emerald-100 text-emerald-700"}
}
