package clinicapi

import (
	"errors"
	"fmt"
)

// User-facing messages. The UI is Spanish-only, so these live here rather
// than behind a translation layer.
const (
	MsgConnectivity       = "Error de conexión. Verifica tu internet."
	MsgInvalidCredentials = "Usuario o contraseña incorrectos"
	MsgSessionExpired     = "Tu sesión ha expirado. Por favor inicia sesión nuevamente"
	MsgUnknown            = "Ha ocurrido un error inesperado"
)

var (
	// ErrConnectivity marks requests that never got an HTTP response.
	ErrConnectivity = errors.New("sin respuesta del servidor")
	// ErrSessionExpired marks an irrecoverable refresh failure. The session
	// pair has already been cleared when this is returned.
	ErrSessionExpired = errors.New("sesión expirada")
)

// statusMessages is the fixed fallback table used when the server response
// carries no detail or message field.
var statusMessages = map[int]string{
	400: "Solicitud inválida",
	401: "No autorizado",
	403: "No tienes autorización para realizar esta acción",
	404: "Recurso no encontrado",
	415: "Formato no soportado",
	422: "Datos inválidos",
	429: "Demasiadas solicitudes. Intenta más tarde.",
	500: "Error del servidor. Intente más tarde.",
	503: "Servicio no disponible. Intente más tarde.",
}

// APIError is any non-2xx HTTP response from the clinic backend.
type APIError struct {
	StatusCode int
	// Detail is the server's detail/message field, verbatim, if present.
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d detail=%q", e.StatusCode, e.Detail)
}

// Message returns what the user should see: the server's own message when
// it sent one, else the status-code fallback.
func (e *APIError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	if msg, ok := statusMessages[e.StatusCode]; ok {
		return msg
	}
	return MsgUnknown
}

// UserMessage maps any error from this package to its user-facing text.
func UserMessage(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return apiErr.Message()
	case errors.Is(err, ErrSessionExpired):
		return MsgSessionExpired
	case errors.Is(err, ErrConnectivity):
		return MsgConnectivity
	default:
		return MsgUnknown
	}
}
