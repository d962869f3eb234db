package stubserver

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

var seedHours = []string{
	"09:00", "10:00", "11:00", "12:00", "13:00",
	"16:00", "17:00", "18:00", "19:00",
}

var seedStatuses = []string{
	"scheduled", "scheduled", "scheduled", "completed", "cancelled", "no_show",
}

// Seed fills the store with fake patients and appointments spread over the
// coming days, within the clinic's operating hours.
func Seed(store *Store, patients, appointments, days int) {
	if days <= 0 {
		days = 14
	}

	people := make([]Patient, 0, patients)
	for i := 0; i < patients; i++ {
		people = append(people, store.AddPatient(gofakeit.Name(), gofakeit.Email()))
	}
	if len(people) == 0 {
		return
	}

	today := time.Now()
	for i := 0; i < appointments; i++ {
		p := people[gofakeit.Number(0, len(people)-1)]
		day := today.AddDate(0, 0, gofakeit.Number(0, days-1))

		_, _ = store.CreateAppointment(Appointment{
			PatientID:       p.ID,
			Date:            day.Format("2006-01-02"),
			StartTime:       seedHours[gofakeit.Number(0, len(seedHours)-1)],
			DurationMinutes: 60,
			Status:          seedStatuses[gofakeit.Number(0, len(seedStatuses)-1)],
		})
	}
}
