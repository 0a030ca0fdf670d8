package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"planhub.org/internal/auth"
	"planhub.org/internal/config"
	"planhub.org/internal/httpapi"
	"planhub.org/internal/obs"
	"planhub.org/internal/pm"
	"planhub.org/internal/store/pg"
)

var version = "0.3.1"

func main() {
	obs.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Backing store: Postgres when a DSN is configured, otherwise the
	// in-memory store for local runs.
	var store pm.Store
	probe := httpapi.ReadyProbe{}
	if cfg.PostgresDSN != "" {
		pgStore, err := pg.Open(cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer pgStore.Close()
		store = pgStore
		probe.DB = pgStore.DB()
	} else {
		log.Printf("PLANHUB_PG_DSN not set, using in-memory store")
		store = pm.NewInMemory()
	}

	service, err := pm.NewService(store)
	if err != nil {
		log.Fatalf("service: %v", err)
	}
	tokens, err := auth.NewTokens(cfg.AccessSecret, cfg.RefreshSecret,
		auth.WithAccessTTL(cfg.AccessTTL),
		auth.WithRefreshTTL(cfg.RefreshTTL),
	)
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}
	sessions, err := pm.NewSessions(service, tokens)
	if err != nil {
		log.Fatalf("sessions: %v", err)
	}

	api := httpapi.New(probe, version, service, sessions,
		httpapi.WithRateLimit(cfg.RateBurst, cfg.RatePerSec),
		httpapi.WithMaxBodyBytes(cfg.MaxBodyBytes),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting planhub-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
