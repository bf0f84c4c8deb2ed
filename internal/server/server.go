package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/logging"
	"github.com/san-kum/gravsim/internal/physics"
)

// MaxStepsPerRequest bounds POST /step so one request cannot hold the
// driver lock indefinitely.
const MaxStepsPerRequest = 100000

type bodyDTO struct {
	Mass     float64    `json:"mass"`
	Position [3]float64 `json:"position"`
	Velocity [3]float64 `json:"velocity"`
}

type stateResponse struct {
	Time   float64   `json:"time"`
	Steps  int       `json:"steps"`
	Error  string    `json:"error,omitempty"`
	Bodies []bodyDTO `json:"bodies"`
}

type energyResponse struct {
	Time            float64    `json:"time"`
	Kinetic         float64    `json:"kinetic"`
	Potential       float64    `json:"potential"`
	Total           float64    `json:"total"`
	Initial         float64    `json:"initial"`
	RelativeError   float64    `json:"relative_error"`
	Momentum        [3]float64 `json:"momentum"`
	AngularMomentum [3]float64 `json:"angular_momentum"`
	CenterOfMass    [3]float64 `json:"center_of_mass"`
}

type fieldResponse struct {
	Point        [3]float64 `json:"point"`
	Acceleration [3]float64 `json:"acceleration"`
}

// NewHandler routes the HTTP API onto d. gatherer backs /metrics; nil
// leaves the route out.
func NewHandler(d *Driver, gatherer prometheus.Gatherer, log *slog.Logger) http.Handler {
	if log == nil {
		log = logging.NewNop()
	}
	h := &handler{driver: d, log: log}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/state", h.getState)
	r.Get("/energy", h.getEnergy)
	r.Get("/field", h.getField)
	r.Post("/step", h.postStep)
	r.Post("/reset", h.postReset)
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

type handler struct {
	driver *Driver
	log    *slog.Logger
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debug("request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "duration", time.Since(start))
	})
}

func (h *handler) getState(w http.ResponseWriter, r *http.Request) {
	snap := h.driver.Snapshot()
	resp := stateResponse{
		Time:   snap.Time,
		Steps:  snap.Steps,
		Bodies: make([]bodyDTO, 0, snap.State.Len()),
	}
	if snap.Failure != nil {
		resp.Error = snap.Failure.Error()
	}
	for _, b := range snap.State.Bodies() {
		resp.Bodies = append(resp.Bodies, bodyDTO{Mass: b.Mass, Position: b.Position, Velocity: b.Velocity})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) getEnergy(w http.ResponseWriter, r *http.Request) {
	snap := h.driver.Snapshot()
	g := h.driver.Gravity()
	s := snap.State

	ke := physics.KineticEnergy(s)
	pe := g.PotentialEnergy(s)
	writeJSON(w, http.StatusOK, energyResponse{
		Time:            snap.Time,
		Kinetic:         ke,
		Potential:       pe,
		Total:           ke + pe,
		Initial:         snap.E0,
		RelativeError:   physics.RelativeEnergyError(snap.E0, ke+pe),
		Momentum:        physics.Momentum(s),
		AngularMomentum: physics.AngularMomentum(s),
		CenterOfMass:    physics.CenterOfMass(s),
	})
}

func (h *handler) getField(w http.ResponseWriter, r *http.Request) {
	var p dynamo.Vec3
	for i, name := range []string{"x", "y", "z"} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("query %s: %w", name, err))
			return
		}
		p[i] = v
	}
	if !p.IsFinite() {
		writeError(w, http.StatusBadRequest, dynamo.ErrNonFinite)
		return
	}

	a := h.driver.Field([]dynamo.Vec3{p})[0]
	writeJSON(w, http.StatusOK, fieldResponse{Point: p, Acceleration: a})
}

func (h *handler) postStep(w http.ResponseWriter, r *http.Request) {
	n := 1
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > MaxStepsPerRequest {
			writeError(w, http.StatusBadRequest, fmt.Errorf("n must be an integer in [1, %d], got %q", MaxStepsPerRequest, raw))
			return
		}
		n = v
	}

	if err := h.driver.Advance(n); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, dynamo.ErrInvalidState) {
			status = http.StatusConflict
		}
		writeError(w, status, err)
		return
	}
	h.getState(w, r)
}

func (h *handler) postReset(w http.ResponseWriter, r *http.Request) {
	h.driver.Reset()
	h.getState(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
