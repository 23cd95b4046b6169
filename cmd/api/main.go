package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"tickdone.org/internal/auth"
	"tickdone.org/internal/events"
	"tickdone.org/internal/httpapi"
	"tickdone.org/internal/obs"
	"tickdone.org/internal/session"
	"tickdone.org/internal/store/pg"
	"tickdone.org/internal/todo"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	ctx := context.Background()

	// Postgres when a DSN is configured, in-memory stores otherwise. The
	// in-memory mode is for local development; everything is lost on exit.
	var (
		db           *sql.DB
		userStore    auth.UserStore
		sessionStore session.Store
		todoStore    todo.Store
	)
	if dsn := os.Getenv("TICKDONE_PG_DSN"); dsn != "" {
		var err error
		db, err = pg.Open(ctx, dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		userStore = auth.NewPGStore(db)
		sessionStore = session.NewPGStore(db)
		todoStore = todo.NewPGStore(db)
	} else {
		log.Print("TICKDONE_PG_DSN not set, using in-memory stores")
		userStore = auth.NewMemoryStore()
		sessionStore = session.NewMemoryStore()
		todoStore = todo.NewMemoryStore()
	}

	users := auth.NewService(userStore)
	sessions := session.NewManager(sessionStore, session.WithTTL(envDuration("TICKDONE_SESSION_TTL", 24*time.Hour)))
	todos := todo.NewService(todoStore)
	hub := events.NewHub()

	api := httpapi.New(httpapi.Config{
		Version:       version,
		CORSOrigin:    os.Getenv("TICKDONE_CORS_ORIGIN"),
		SecureCookies: envBool("TICKDONE_SECURE_COOKIES"),
		RateBurst:     envInt("TICKDONE_RATE_BURST", 0),
		RatePerSec:    envInt("TICKDONE_RATE_PER_SEC", 0),
	}, httpapi.ReadyProbe{DB: db}, users, sessions, todos, hub)

	// Expired sessions accumulate in the store; sweep them periodically.
	sweepCtx, stopSweep := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if n, err := sessions.Sweep(sweepCtx); err != nil {
					log.Printf("session sweep: %v", err)
				} else if n > 0 {
					log.Printf("session sweep: removed %d expired", n)
				}
			}
		}
	}()

	addr := os.Getenv("TICKDONE_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No WriteTimeout: /api/events holds the response open.
	}

	log.Printf("Starting tickdone-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return n
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return d
}
