package stubserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAppointmentResolvesPatient(t *testing.T) {
	s := NewStore()
	p := s.AddPatient("Ana López", "ana@clinica.mx")

	a, err := s.CreateAppointment(Appointment{
		PatientID: p.ID,
		Date:      "2024-05-01",
		StartTime: "09:00",
		Status:    "scheduled",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana López", a.PatientName)
	assert.Equal(t, 60, a.DurationMinutes, "duration defaults to one hour")
	assert.NotZero(t, a.ID)
}

func TestCreateAppointmentUnknownPatient(t *testing.T) {
	s := NewStore()
	_, err := s.CreateAppointment(Appointment{PatientID: 99, Date: "2024-05-01", StartTime: "09:00"})
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestUpdateAppointmentPatchesNonEmptyFields(t *testing.T) {
	s := NewStore()
	p := s.AddPatient("Ana López", "ana@clinica.mx")
	a, err := s.CreateAppointment(Appointment{
		PatientID: p.ID,
		Date:      "2024-05-01",
		StartTime: "09:00",
		Status:    "scheduled",
	})
	require.NoError(t, err)

	got, err := s.UpdateAppointment(a.ID, "completed", "", "")
	require.NoError(t, err)
	assert.Equal(t, "completed", got.Status)
	assert.Equal(t, "2024-05-01", got.Date)

	got, err = s.UpdateAppointment(a.ID, "", "2024-05-02", "16:00")
	require.NoError(t, err)
	assert.Equal(t, "completed", got.Status, "status untouched")
	assert.Equal(t, "2024-05-02", got.Date)
	assert.Equal(t, "16:00", got.StartTime)

	_, err = s.UpdateAppointment(12345, "completed", "", "")
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestListRangeFiltersAndSorts(t *testing.T) {
	s := NewStore()
	p := s.AddPatient("Ana López", "ana@clinica.mx")

	mustCreate := func(date, startTime string) {
		t.Helper()
		_, err := s.CreateAppointment(Appointment{PatientID: p.ID, Date: date, StartTime: startTime, Status: "scheduled"})
		require.NoError(t, err)
	}
	mustCreate("2024-05-03", "09:00")
	mustCreate("2024-05-01", "16:00")
	mustCreate("2024-05-01", "09:00")
	mustCreate("2024-04-30", "09:00") // before range
	mustCreate("2024-05-05", "09:00") // end is exclusive

	got := s.ListRange("2024-05-01", "2024-05-05")
	require.Len(t, got, 3)
	assert.Equal(t, "2024-05-01", got[0].Date)
	assert.Equal(t, "09:00", got[0].StartTime)
	assert.Equal(t, "16:00", got[1].StartTime)
	assert.Equal(t, "2024-05-03", got[2].Date)
}
