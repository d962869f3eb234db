package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ocampolabs/clinic-agenda/internal/config"
	"github.com/ocampolabs/clinic-agenda/internal/stubserver"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("stub-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s port=%s", cfg.Env, cfg.StubPort)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := stubserver.NewServer(cfg.JWTSecret,
		stubserver.WithTokenTTLs(cfg.AccessTTL, cfg.RefreshTTL),
	)
	stubserver.Seed(srv.Store(), 40, 200, 30)

	httpServer := &http.Server{
		Addr:    ":" + cfg.StubPort,
		Handler: srv.Handler(),
	}

	go func() {
		log.Printf("listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()

	log.Println("shutting down stub-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
