// Package stubserver is an in-memory stand-in for the clinic's real
// backend, serving just enough of its REST surface for the agenda client:
// login, token refresh, the calendar range endpoint and appointment
// PATCH/POST. It exists so the demo binary and the test suite run without
// any external service.
package stubserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ocampolabs/clinic-agenda/pkg/logging"
)

// DefaultEmail and DefaultPassword are the demo credentials.
const (
	DefaultEmail    = "demo@clinica.mx"
	DefaultPassword = "agenda123"
)

type forcedFailure struct {
	status int
	detail string
}

// Server is the stub backend.
type Server struct {
	store  *Store
	tokens *tokenIssuer
	logger *logging.Logger

	email    string
	password string

	mu        sync.Mutex
	nextPatch *forcedFailure
}

type ServerOption func(*Server)

func WithCredentials(email, password string) ServerOption {
	return func(s *Server) {
		s.email = email
		s.password = password
	}
}

func WithServerLogger(logger *logging.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithTokenTTLs(accessTTL, refreshTTL time.Duration) ServerOption {
	return func(s *Server) {
		s.tokens.accessTTL = accessTTL
		s.tokens.refreshTTL = refreshTTL
	}
}

func NewServer(secret string, opts ...ServerOption) *Server {
	s := &Server{
		store:    NewStore(),
		tokens:   newTokenIssuer(secret, 5*time.Minute, 24*time.Hour),
		logger:   logging.Default(),
		email:    DefaultEmail,
		password: DefaultPassword,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Store exposes the backing store so tests and the demo can arrange data.
func (s *Server) Store() *Store {
	return s.store
}

// FailNextPatch makes the next PATCH request fail with the given status
// and detail, then clears itself. Used to exercise revert paths.
func (s *Server) FailNextPatch(status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPatch = &forcedFailure{status: status, detail: detail}
}

func (s *Server) takePatchFailure() *forcedFailure {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.nextPatch
	s.nextPatch = nil
	return f
}

// Handler builds the stub's router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(s.logger))

	r.Post("/auth/login/", s.loginHandler)
	r.Post("/auth/refresh/", s.refreshHandler)

	r.Group(func(r chi.Router) {
		r.Use(s.bearerAuth)
		r.Get("/appointments/calendar/", s.calendarHandler)
		r.Post("/appointments/", s.createAppointmentHandler)
		r.Patch("/appointments/{id}/", s.patchAppointmentHandler)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the Django-style {"detail": ...} error body the client
// expects.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
