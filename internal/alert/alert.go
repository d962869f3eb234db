// Package alert is the transient user-feedback surface: a single visible
// alert, latest wins, auto-dismissed after a timeout unless superseded.
package alert

import (
	"sync"
	"time"
)

type Kind string

const (
	KindError   Kind = "error"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
)

const DefaultTimeout = 4 * time.Second

// Alert is the currently visible message.
type Alert struct {
	Kind    Kind
	Message string
}

// Notifier holds at most one alert. There is no stacking: showing a new
// alert replaces any visible one and restarts the dismiss timer.
type Notifier struct {
	mu       sync.Mutex
	current  *Alert
	gen      uint64
	timer    *time.Timer
	onChange func(*Alert)
}

// NewNotifier creates a notifier. onChange, if non-nil, is invoked with the
// new alert on Show and with nil on dismissal.
func NewNotifier(onChange func(*Alert)) *Notifier {
	return &Notifier{onChange: onChange}
}

// Show displays an alert with the default timeout.
func (n *Notifier) Show(kind Kind, message string) {
	n.ShowFor(kind, message, DefaultTimeout)
}

// ShowFor displays an alert that auto-dismisses after timeout.
func (n *Notifier) ShowFor(kind Kind, message string, timeout time.Duration) {
	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
	}
	n.gen++
	gen := n.gen
	a := &Alert{Kind: kind, Message: message}
	n.current = a
	n.timer = time.AfterFunc(timeout, func() {
		n.dismiss(gen)
	})
	onChange := n.onChange
	n.mu.Unlock()

	if onChange != nil {
		onChange(a)
	}
}

// dismiss clears the alert only if it has not been superseded since the
// timer was armed.
func (n *Notifier) dismiss(gen uint64) {
	n.mu.Lock()
	if gen != n.gen || n.current == nil {
		n.mu.Unlock()
		return
	}
	n.current = nil
	onChange := n.onChange
	n.mu.Unlock()

	if onChange != nil {
		onChange(nil)
	}
}

// Current returns the visible alert, or nil.
func (n *Notifier) Current() *Alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return nil
	}
	a := *n.current
	return &a
}
