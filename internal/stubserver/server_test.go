package stubserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocampolabs/clinic-agenda/internal/appointments"
	"github.com/ocampolabs/clinic-agenda/internal/clinicapi"
	"github.com/ocampolabs/clinic-agenda/internal/session"
	"github.com/ocampolabs/clinic-agenda/internal/stubserver"
)

func newStubServer(t *testing.T) (*stubserver.Server, string) {
	t.Helper()
	srv := stubserver.NewServer("secreto-de-pruebas")
	httpSrv := httptest.NewServer(srv.Handler())
	t.Cleanup(httpSrv.Close)
	return srv, httpSrv.URL
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestLoginIssuesTokenPair(t *testing.T) {
	_, baseURL := newStubServer(t)

	resp := postJSON(t, baseURL+"/auth/login/", map[string]string{
		"email":    stubserver.DefaultEmail,
		"password": stubserver.DefaultPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var pair struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pair))
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)

	// The refresh token mints a fresh access token.
	resp = postJSON(t, baseURL+"/auth/refresh/", map[string]string{"refresh": pair.Refresh})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var refreshed struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&refreshed))
	assert.NotEmpty(t, refreshed.Access)
	assert.Empty(t, refreshed.Refresh, "refresh endpoint rotates only the access token")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	_, baseURL := newStubServer(t)

	resp := postJSON(t, baseURL+"/auth/login/", map[string]string{
		"email":    stubserver.DefaultEmail,
		"password": "incorrecta",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "No se encontró una cuenta activa con las credenciales dadas", body.Detail)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	_, baseURL := newStubServer(t)

	resp := postJSON(t, baseURL+"/auth/login/", map[string]string{
		"email":    stubserver.DefaultEmail,
		"password": stubserver.DefaultPassword,
	})
	var pair struct {
		Access string `json:"access"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pair))

	resp = postJSON(t, baseURL+"/auth/refresh/", map[string]string{"refresh": pair.Access})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedEndpointsRequireAuth(t *testing.T) {
	_, baseURL := newStubServer(t)

	resp, err := http.Get(baseURL + "/appointments/calendar/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// Full round trip through the real client and gateway: login, range load,
// status change, reschedule, and a forced failure that clears itself.
func TestClientGatewayRoundtrip(t *testing.T) {
	srv, baseURL := newStubServer(t)

	p := srv.Store().AddPatient("Ana López", "ana@clinica.mx")
	created, err := srv.Store().CreateAppointment(stubserver.Appointment{
		PatientID: p.ID,
		Date:      "2024-05-06",
		StartTime: "09:00",
		Status:    "scheduled",
	})
	require.NoError(t, err)

	tokens := session.NewMemoryStore()
	client := clinicapi.NewClient(baseURL, tokens)
	ctx := context.Background()

	require.NoError(t, client.Login(ctx, stubserver.DefaultEmail, stubserver.DefaultPassword))
	gw := appointments.NewGateway(client)

	events, err := gw.LoadCalendar(ctx, "2024-05-01", "2024-05-31")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Ana López", events[0].Title)
	assert.Equal(t, "2024-05-06T09:00:00", events[0].Start)
	assert.Equal(t, "2024-05-06T10:00:00", events[0].End)
	assert.Equal(t, "scheduled", events[0].ExtendedProps.Status)

	id := string(events[0].ID)
	appt, err := gw.SetStatus(ctx, id, "completed")
	require.NoError(t, err)
	assert.Equal(t, "completed", appt.Status)

	appt, err = gw.Reschedule(ctx, id, "2024-05-07", "16:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-07", appt.Date)
	assert.Equal(t, "16:00", appt.StartTime)

	// A forced failure hits exactly one PATCH and leaves the data alone.
	srv.FailNextPatch(http.StatusInternalServerError, "Error interno al reagendar")
	_, err = gw.Reschedule(ctx, id, "2024-05-08", "17:00")
	var apiErr *clinicapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "Error interno al reagendar", apiErr.Message())

	stored, err := srv.Store().GetAppointment(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-07", stored.Date)

	_, err = gw.Reschedule(ctx, id, "2024-05-08", "17:00")
	assert.NoError(t, err, "forced failure clears itself")
}

// An invalid access token is recovered transparently through the refresh
// endpoint.
func TestClientRecoversFromInvalidAccessToken(t *testing.T) {
	srv, baseURL := newStubServer(t)
	p := srv.Store().AddPatient("Ana López", "ana@clinica.mx")
	_, err := srv.Store().CreateAppointment(stubserver.Appointment{
		PatientID: p.ID,
		Date:      "2024-05-06",
		StartTime: "09:00",
		Status:    "scheduled",
	})
	require.NoError(t, err)

	tokens := session.NewMemoryStore()
	client := clinicapi.NewClient(baseURL, tokens)
	ctx := context.Background()

	require.NoError(t, client.Login(ctx, stubserver.DefaultEmail, stubserver.DefaultPassword))
	require.NoError(t, tokens.SetAccess("ya-no-sirve"))

	gw := appointments.NewGateway(client)
	events, err := gw.LoadCalendar(ctx, "2024-05-01", "2024-05-31")
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.NotEqual(t, "ya-no-sirve", tokens.Access())
}

func TestPatchUnknownAppointment(t *testing.T) {
	_, baseURL := newStubServer(t)

	tokens := session.NewMemoryStore()
	client := clinicapi.NewClient(baseURL, tokens)
	ctx := context.Background()
	require.NoError(t, client.Login(ctx, stubserver.DefaultEmail, stubserver.DefaultPassword))

	gw := appointments.NewGateway(client)
	_, err := gw.SetStatus(ctx, "9999", "completed")
	var apiErr *clinicapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "No encontrado.", apiErr.Message())
}

func TestCreateAppointmentValidation(t *testing.T) {
	srv, baseURL := newStubServer(t)
	p := srv.Store().AddPatient("Ana López", "ana@clinica.mx")

	tokens := session.NewMemoryStore()
	client := clinicapi.NewClient(baseURL, tokens)
	ctx := context.Background()
	require.NoError(t, client.Login(ctx, stubserver.DefaultEmail, stubserver.DefaultPassword))
	gw := appointments.NewGateway(client)

	appt, err := gw.Create(ctx, appointments.CreateRequest{
		Patient:         p.ID,
		Date:            "2024-05-06",
		StartTime:       "09:00",
		DurationMinutes: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, "scheduled", appt.Status)
	assert.Equal(t, "Ana López", appt.PatientName)

	_, err = gw.Create(ctx, appointments.CreateRequest{Patient: 999, Date: "2024-05-06", StartTime: "09:00"})
	var apiErr *clinicapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}
