package stubserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

var validStatuses = map[string]bool{
	"scheduled": true,
	"confirmed": true,
	"completed": true,
	"cancelled": true,
	"no_show":   true,
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPairResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}

	if req.Email != s.email || req.Password != s.password {
		writeError(w, http.StatusUnauthorized, "No se encontró una cuenta activa con las credenciales dadas")
		return
	}

	access, err := s.tokens.IssueAccess(req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	refresh, err := s.tokens.IssueRefresh(req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{Access: access, Refresh: refresh})
}

func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
		writeError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}

	subject, err := s.tokens.Validate(req.Refresh, "refresh")
	if err != nil {
		writeError(w, http.StatusUnauthorized, "El token es inválido o ha expirado")
		return
	}

	access, err := s.tokens.IssueAccess(subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{Access: access})
}

type calendarEventResponse struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Start         string `json:"start"`
	End           string `json:"end"`
	ExtendedProps struct {
		Status string `json:"status"`
	} `json:"extendedProps"`
}

func (s *Server) calendarHandler(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")

	events := make([]calendarEventResponse, 0)
	for _, a := range s.store.ListRange(start, end) {
		ev := calendarEventResponse{
			ID:    a.ID,
			Title: a.PatientName,
			Start: a.Date + "T" + a.StartTime + ":00",
			End:   eventEnd(a),
		}
		ev.ExtendedProps.Status = a.Status
		events = append(events, ev)
	}

	writeJSON(w, http.StatusOK, events)
}

// eventEnd derives the event end from start plus duration, as the real
// backend does when it builds calendar payloads.
func eventEnd(a Appointment) string {
	t, err := time.Parse("2006-01-02T15:04", a.Date+"T"+a.StartTime)
	if err != nil {
		return a.Date + "T" + a.StartTime + ":00"
	}
	return t.Add(time.Duration(a.DurationMinutes) * time.Minute).Format("2006-01-02T15:04:05")
}

type appointmentResponse struct {
	ID              int64  `json:"id"`
	Patient         int64  `json:"patient"`
	PatientName     string `json:"patient_name"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Status          string `json:"status"`
}

func toAppointmentResponse(a Appointment) appointmentResponse {
	return appointmentResponse{
		ID:              a.ID,
		Patient:         a.PatientID,
		PatientName:     a.PatientName,
		Date:            a.Date,
		StartTime:       a.StartTime,
		DurationMinutes: a.DurationMinutes,
		Status:          a.Status,
	}
}

func (s *Server) createAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Patient         int64  `json:"patient"`
		Status          string `json:"status"`
		Date            string `json:"date"`
		StartTime       string `json:"start_time"`
		DurationMinutes int    `json:"duration_minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if req.Status == "" {
		req.Status = "scheduled"
	}
	if !validStatuses[req.Status] {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("estado inválido: %s", req.Status))
		return
	}
	if req.Date == "" || req.StartTime == "" {
		writeError(w, http.StatusBadRequest, "date y start_time son requeridos")
		return
	}

	a, err := s.store.CreateAppointment(Appointment{
		PatientID:       req.Patient,
		Date:            req.Date,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		Status:          req.Status,
	})
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			writeError(w, http.StatusBadRequest, "paciente no encontrado")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, toAppointmentResponse(a))
}

func (s *Server) patchAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	if f := s.takePatchFailure(); f != nil {
		writeError(w, f.status, f.detail)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id inválido")
		return
	}

	var req struct {
		Status    string `json:"status"`
		Date      string `json:"date"`
		StartTime string `json:"start_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if req.Status != "" && !validStatuses[req.Status] {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("estado inválido: %s", req.Status))
		return
	}

	a, err := s.store.UpdateAppointment(id, req.Status, req.Date, req.StartTime)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			writeError(w, http.StatusNotFound, "No encontrado.")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(a))
}
