package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"planhub.org/internal/obs"
	"planhub.org/internal/pm"
)

// ReadyProbe reports readiness, pinging the database when one is wired.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the resource and session services.
type API struct {
	router     chi.Router
	service    *pm.Service
	sessions   *pm.Sessions
	readyProbe ReadyProbe
	version    string

	rateBurst    int
	ratePerSec   int
	maxBodyBytes int64
}

// Option tweaks API construction.
type Option func(*API)

// WithRateLimit overrides the per-IP rate limit knobs.
func WithRateLimit(burst, perSec int) Option {
	return func(a *API) {
		if burst > 0 {
			a.rateBurst = burst
		}
		if perSec > 0 {
			a.ratePerSec = perSec
		}
	}
}

// WithMaxBodyBytes overrides the request body cap.
func WithMaxBodyBytes(n int64) Option {
	return func(a *API) {
		if n > 0 {
			a.maxBodyBytes = n
		}
	}
}

// New wires the routes. Role gates are declared here, next to the routes
// they protect, never inside handlers.
func New(rp ReadyProbe, version string, service *pm.Service, sessions *pm.Sessions, opts ...Option) *API {
	a := &API{
		readyProbe:   rp,
		version:      version,
		service:      service,
		sessions:     sessions,
		rateBurst:    20,
		ratePerSec:   10,
		maxBodyBytes: 1 << 20,
	}
	for _, opt := range opts {
		opt(a)
	}

	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusNotFound, "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", a.healthz)
	r.Get("/readyz", a.ready)
	r.Method(http.MethodGet, "/metrics", obs.Handler())

	r.Post("/auth/register", a.handleRegister)
	r.Post("/auth/login", a.handleLogin)
	r.Post("/auth/refresh-token", a.handleRefreshToken)

	// Company registration is the public entry point of the system.
	r.Post("/companies", a.handleCreateCompany)

	r.Group(func(r chi.Router) {
		r.Use(a.withAuth)

		r.Post("/auth/logout", a.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(requireRole(pm.RoleAdmin))

			r.Get("/companies", a.handleListCompanies)
			r.Get("/companies/{id}", a.handleGetCompany)
			r.Put("/companies/{id}", a.handleUpdateCompany)
			r.Delete("/companies/{id}", a.handleDeleteCompany)

			r.Post("/users", a.handleCreateUser)
			r.Get("/users", a.handleListUsers)
			r.Get("/users/{id}", a.handleGetUser)
			r.Put("/users/{id}", a.handleUpdateUser)
			r.Delete("/users/{id}", a.handleDeleteUser)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(pm.RoleAdmin, pm.RoleManager))

			r.Post("/projects", a.handleCreateProject)
			r.Get("/projects", a.handleListProjects)
			r.Put("/projects/{id}", a.handleUpdateProject)
			r.Delete("/projects/{id}", a.handleDeleteProject)

			r.Post("/tasks", a.handleCreateTask)
			r.Get("/tasks", a.handleListTasks)
			r.Delete("/tasks/{id}", a.handleDeleteTask)
		})

		// Any authenticated role; fine-grained checks live in the service.
		r.Get("/projects/{id}", a.handleGetProject)
		r.Get("/tasks/me", a.handleListMyTasks)
		r.Get("/tasks/{id}", a.handleGetTask)
		r.Put("/tasks/{id}", a.handleUpdateTask)
	})

	a.router = r
	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.router
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "planhub-api",
		"version": a.version,
	})
}

func (a *API) ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
