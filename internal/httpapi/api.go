// Package httpapi is the HTTP layer: routing, middleware, session and CSRF
// enforcement, and JSON marshalling at the boundary.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"tickdone.org/internal/auth"
	"tickdone.org/internal/events"
	"tickdone.org/internal/obs"
	"tickdone.org/internal/session"
	"tickdone.org/internal/todo"
)

// ReadyProbe checks backing-store readiness (DB ping when configured).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Config carries the settable knobs of the HTTP layer.
type Config struct {
	Version       string
	CORSOrigin    string
	SecureCookies bool
	RateBurst     int
	RatePerSec    int
	MaxBodyBytes  int64
}

// API is the HTTP layer over the auth, session and todo services.
type API struct {
	mux        *http.ServeMux
	users      *auth.Service
	sessions   *session.Manager
	todos      *todo.Service
	hub        *events.Hub
	readyProbe ReadyProbe

	version       string
	corsOrigin    string
	secureCookies bool
	rateBurst     int
	ratePerSec    int
	maxBodyBytes  int64
}

// New wires routes over the given services.
func New(cfg Config, rp ReadyProbe, users *auth.Service, sessions *session.Manager, todos *todo.Service, hub *events.Hub) *API {
	a := &API{
		mux:           http.NewServeMux(),
		users:         users,
		sessions:      sessions,
		todos:         todos,
		hub:           hub,
		readyProbe:    rp,
		version:       cfg.Version,
		corsOrigin:    cfg.CORSOrigin,
		secureCookies: cfg.SecureCookies,
		rateBurst:     cfg.RateBurst,
		ratePerSec:    cfg.RatePerSec,
		maxBodyBytes:  cfg.MaxBodyBytes,
	}
	if a.rateBurst <= 0 {
		a.rateBurst = 50
	}
	if a.ratePerSec <= 0 {
		a.ratePerSec = 25
	}
	if a.maxBodyBytes <= 0 {
		a.maxBodyBytes = 100 << 10 // 100 KiB, matches the JSON body limit of the SPA backend
	}

	a.mux.HandleFunc("/api/csrf", a.handleCSRF)
	a.mux.HandleFunc("/api/health", a.handleHealth)
	a.mux.HandleFunc("/readyz", a.handleReady)

	a.mux.HandleFunc("/api/auth/register", a.handleRegister)
	a.mux.HandleFunc("/api/auth/login", a.handleLogin)
	a.mux.HandleFunc("/api/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/api/auth/me", a.handleMe)

	a.mux.HandleFunc("/api/todos", a.handleTodosCollection)
	a.mux.HandleFunc("/api/todos/", a.handleTodoResource)

	a.mux.HandleFunc("/api/events", a.handleEvents)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// Unknown routes answer with the JSON error envelope.
	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withSession(a.mux)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = a.cors(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// todoID extracts the resource id from /api/todos/{id} paths.
func todoID(path string) string {
	id := strings.TrimPrefix(path, "/api/todos/")
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
