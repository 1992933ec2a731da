// Package httpapi is the HTTP surface of the platform.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"oceanos.org/internal/auth"
	"oceanos.org/internal/catalog"
	"oceanos.org/internal/obs"
	"oceanos.org/internal/observations"
	"oceanos.org/internal/stream"
	"oceanos.org/internal/submissions"
	"oceanos.org/internal/telemetry"
	"oceanos.org/pkg/api"
)

// ReadyProbe reports readiness, pinging the database when one is configured.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Config wires the API with its services.
type Config struct {
	Auth         *auth.Service
	Directory    *auth.Directory
	Submissions  *submissions.Service
	Species      *catalog.Registry
	Observations *observations.Store
	Sensors      *telemetry.Registry
	Stream       *stream.Stream
	ReadyProbe   ReadyProbe
	Version      string
	CORSOrigins  []string
}

// API is the HTTP layer.
type API struct {
	mux          *http.ServeMux
	auth         *auth.Service
	directory    *auth.Directory
	submissions  *submissions.Service
	species      *catalog.Registry
	observations *observations.Store
	sensors      *telemetry.Registry
	stream       *stream.Stream
	readyProbe   ReadyProbe
	version      string
	corsOrigins  []string
}

func New(cfg Config) *API {
	a := &API{
		mux:          http.NewServeMux(),
		auth:         cfg.Auth,
		directory:    cfg.Directory,
		submissions:  cfg.Submissions,
		species:      cfg.Species,
		observations: cfg.Observations,
		sensors:      cfg.Sensors,
		stream:       cfg.Stream,
		readyProbe:   cfg.ReadyProbe,
		version:      cfg.Version,
		corsOrigins:  cfg.CORSOrigins,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// auth
	a.mux.HandleFunc("/api/auth/", a.handleAuth)

	// submissions workflow
	a.mux.HandleFunc("/api/submissions", a.handleSubmissionsCollection)
	a.mux.HandleFunc("/api/submissions/", a.handleSubmissionResource)

	// marine data
	a.mux.HandleFunc("/api/species", a.handleSpeciesCollection)
	a.mux.HandleFunc("/api/species/", a.handleSpeciesResource)
	a.mux.HandleFunc("/api/observations", a.handleObservationsCollection)
	a.mux.HandleFunc("/api/observations/", a.handleObservationResource)
	a.mux.HandleFunc("/api/sensors", a.handleSensors)
	a.mux.HandleFunc("/api/sensors/", a.handleSensorResource)
	a.mux.HandleFunc("/api/stats", a.handleStats)

	// live map stream
	a.mux.HandleFunc("/api/stream/events", a.StreamEvents)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 50, 25)
	h = CORS(h, a.corsOrigins)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "oceanos-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "oceanos-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, status, api.ErrorResponse{
		Error:     msg,
		Code:      code,
		RequestID: requestIDFrom(r),
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, api.CodeValidation, "method not allowed")
}
