// agenda-demo runs the scheduling core end to end against an in-process
// stub backend: login, range load, a blocked drop onto a full slot, a
// successful reschedule, a status update and a server-rejected reschedule
// with its revert. It prints the resulting availability and audit trail.
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/ocampolabs/clinic-agenda/internal/alert"
	"github.com/ocampolabs/clinic-agenda/internal/appointments"
	"github.com/ocampolabs/clinic-agenda/internal/availability"
	"github.com/ocampolabs/clinic-agenda/internal/calendar"
	"github.com/ocampolabs/clinic-agenda/internal/clinicapi"
	"github.com/ocampolabs/clinic-agenda/internal/config"
	"github.com/ocampolabs/clinic-agenda/internal/session"
	"github.com/ocampolabs/clinic-agenda/internal/stubserver"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("agenda-demo starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	srv := stubserver.NewServer(cfg.JWTSecret)
	baseURL, shutdown := startStub(srv)
	defer shutdown()

	day := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	victimID, fullSlotDay := seedScenario(srv.Store(), day)

	tokens := newSessionStore(cfg)
	notifier := alert.NewNotifier(func(a *alert.Alert) {
		if a != nil {
			log.Printf("alert kind=%s message=%q", a.Kind, a.Message)
		}
	})

	client := clinicapi.NewClient(baseURL, tokens,
		clinicapi.WithOnSessionExpired(func() {
			log.Println("session expired, would redirect to /login")
		}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := client.Login(ctx, stubserver.DefaultEmail, stubserver.DefaultPassword); err != nil {
		log.Fatalf("login error: %v", err)
	}

	gateway := appointments.NewGateway(client)
	ctrl := calendar.NewController(gateway, notifier, calendar.WithAuditLog())

	rangeStart := time.Now().Format("2006-01-02")
	rangeEnd := time.Now().AddDate(0, 0, 30).Format("2006-01-02")
	if err := ctrl.SetRange(ctx, rangeStart, rangeEnd); err != nil {
		log.Fatalf("range load error: %v", err)
	}
	log.Printf("loaded %d events for %s..%s", len(ctrl.Events()), rangeStart, rangeEnd)

	ctrl.HandleDateClick(calendar.DateClick{Date: fullSlotDay})
	printAvailability(fullSlotDay, ctrl.DayAvailability())

	// 1. Drop onto the full 09:00 slot: hard-blocked, no network call.
	log.Println("--- dropping onto a full slot")
	mustDo(ctrl.HandleEventDrop(calendar.EventDrop{ID: victimID, NewDate: fullSlotDay, NewTime: "09:00"}))
	mustDo(ctrl.ConfirmDrop(ctx))

	// 2. Reschedule to an open slot.
	log.Println("--- rescheduling to an open slot")
	mustDo(ctrl.HandleEventDrop(calendar.EventDrop{ID: victimID, NewDate: fullSlotDay, NewTime: "17:00"}))
	mustDo(ctrl.ConfirmDrop(ctx))

	// 3. Mark the appointment as completed.
	log.Println("--- updating status")
	mustDo(ctrl.HandleEventClick(calendar.EventClick{ID: victimID}))
	ctrl.SetNewStatus(calendar.StatusCompleted)
	mustDo(ctrl.ConfirmStatus(ctx))

	// 4. Server rejects the next reschedule: the event snaps back.
	log.Println("--- server-rejected reschedule")
	srv.FailNextPatch(http.StatusInternalServerError, "Error interno al reagendar")
	mustDo(ctrl.HandleEventDrop(calendar.EventDrop{ID: victimID, NewDate: fullSlotDay, NewTime: "18:00"}))
	if err := ctrl.ConfirmDrop(ctx); err != nil {
		log.Printf("reschedule rejected as expected: %v", err)
	}

	printChangeLog(ctrl.Changes().Entries())
	log.Println("agenda-demo complete")
}

// seedScenario fills one day with a full 09:00 slot plus one movable
// appointment at 10:00, and scatters background data around it.
func seedScenario(store *stubserver.Store, day string) (victimID, fullSlotDay string) {
	stubserver.Seed(store, 20, 60, 30)

	for i := 0; i < availability.FullCount; i++ {
		p := store.AddPatient(fmt.Sprintf("Paciente Cupo %d", i+1), fmt.Sprintf("cupo%d@clinica.mx", i+1))
		if _, err := store.CreateAppointment(stubserver.Appointment{
			PatientID: p.ID,
			Date:      day,
			StartTime: "09:00",
			Status:    "scheduled",
		}); err != nil {
			log.Fatalf("seed full slot: %v", err)
		}
	}

	p := store.AddPatient("Paciente Movible", "movible@clinica.mx")
	a, err := store.CreateAppointment(stubserver.Appointment{
		PatientID: p.ID,
		Date:      day,
		StartTime: "10:00",
		Status:    "scheduled",
	})
	if err != nil {
		log.Fatalf("seed movable appointment: %v", err)
	}

	return fmt.Sprintf("%d", a.ID), day
}

func newSessionStore(cfg config.Config) session.Store {
	if cfg.RedisAddr == "" {
		return session.NewMemoryStore()
	}
	rdb, err := session.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	log.Printf("using redis session store at %s", cfg.RedisAddr)
	return session.NewRedisStore(rdb, "agenda")
}

func startStub(srv *stubserver.Server) (baseURL string, shutdown func()) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.Fatalf("listen: %v", err)
	}

	httpServer := &http.Server{Handler: srv.Handler()}
	go func() {
		_ = httpServer.Serve(ln)
	}()

	return "http://" + ln.Addr().String(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctx)
	}
}

func printAvailability(date string, slots []availability.Slot) {
	fmt.Printf("\nDisponibilidad · %s\n", date)
	for _, slot := range slots {
		light := availability.TrafficLight(slot.Count)
		fmt.Printf("  %s %s  %d / %d\n", light.Emoji, slot.Hour, slot.Count, availability.FullCount)
	}
	fmt.Println()
}

func printChangeLog(entries []calendar.ChangeEntry) {
	fmt.Printf("\nBitácora (%d entradas)\n", len(entries))
	for _, e := range entries {
		fmt.Printf("  %s %-14s cita=%s fecha=%s\n",
			e.Timestamp.Format("15:04:05"), e.Action, e.AppointmentID, e.Date)
	}
	fmt.Println()
}

func mustDo(err error) {
	if err != nil {
		log.Fatalf("demo step failed: %v", err)
	}
}
