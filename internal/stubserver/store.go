package stubserver

import (
	"errors"
	"sort"
	"sync"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrPatientNotFound     = errors.New("patient not found")
)

type Patient struct {
	ID       int64
	FullName string
	Email    string
}

type Appointment struct {
	ID              int64
	PatientID       int64
	PatientName     string
	Date            string // YYYY-MM-DD
	StartTime       string // HH:MM
	DurationMinutes int
	Status          string
}

// Store is the in-memory backing of the stub backend.
type Store struct {
	mu           sync.Mutex
	nextID       int64
	patients     map[int64]Patient
	appointments map[int64]Appointment
}

func NewStore() *Store {
	return &Store{
		nextID:       1,
		patients:     make(map[int64]Patient),
		appointments: make(map[int64]Appointment),
	}
}

func (s *Store) AddPatient(fullName, email string) Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := Patient{ID: s.nextID, FullName: fullName, Email: email}
	s.nextID++
	s.patients[p.ID] = p
	return p
}

func (s *Store) GetPatient(id int64) (Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[id]
	if !ok {
		return Patient{}, ErrPatientNotFound
	}
	return p, nil
}

func (s *Store) CreateAppointment(a Appointment) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[a.PatientID]
	if !ok {
		return Appointment{}, ErrPatientNotFound
	}
	a.ID = s.nextID
	s.nextID++
	a.PatientName = p.FullName
	if a.DurationMinutes <= 0 {
		a.DurationMinutes = 60
	}
	s.appointments[a.ID] = a
	return a, nil
}

func (s *Store) GetAppointment(id int64) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return Appointment{}, ErrAppointmentNotFound
	}
	return a, nil
}

// UpdateAppointment applies the non-empty fields of patch to the stored
// appointment and returns the result.
func (s *Store) UpdateAppointment(id int64, status, date, startTime string) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return Appointment{}, ErrAppointmentNotFound
	}
	if status != "" {
		a.Status = status
	}
	if date != "" {
		a.Date = date
	}
	if startTime != "" {
		a.StartTime = startTime
	}
	s.appointments[id] = a
	return a, nil
}

// ListRange returns appointments with start <= date < end, ordered by date
// then start time.
func (s *Store) ListRange(start, end string) []Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Appointment
	for _, a := range s.appointments {
		if start != "" && a.Date < start {
			continue
		}
		if end != "" && a.Date >= end {
			continue
		}
		out = append(out, a)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].ID < out[j].ID
	})
	return out
}
