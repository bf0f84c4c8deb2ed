package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/physics"
)

// Recorder exports per-step diagnostics as Prometheus metrics. It is an
// observer: attach it to a simulator or call OnStep from a driver loop.
type Recorder struct {
	mu      sync.Mutex
	gravity physics.Gravity
	e0      float64
	started bool

	steps   prometheus.Counter
	simTime prometheus.Gauge
	energy  prometheus.Gauge
	drift   prometheus.Gauge
	bodies  prometheus.Gauge
}

// NewRecorder registers the gravsim_* metrics on reg.
func NewRecorder(reg prometheus.Registerer, g physics.Gravity) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		gravity: g,
		steps: f.NewCounter(prometheus.CounterOpts{
			Name: "gravsim_steps_total",
			Help: "Integration steps observed.",
		}),
		simTime: f.NewGauge(prometheus.GaugeOpts{
			Name: "gravsim_simulated_time",
			Help: "Simulated time of the latest state.",
		}),
		energy: f.NewGauge(prometheus.GaugeOpts{
			Name: "gravsim_total_energy",
			Help: "Total mechanical energy of the latest state.",
		}),
		drift: f.NewGauge(prometheus.GaugeOpts{
			Name: "gravsim_energy_relative_error",
			Help: "Relative energy error against the first observed state.",
		}),
		bodies: f.NewGauge(prometheus.GaugeOpts{
			Name: "gravsim_bodies",
			Help: "Number of bodies in the latest state.",
		}),
	}
}

func (r *Recorder) OnStep(s dynamo.State, t float64) {
	e := r.gravity.TotalEnergy(s)

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		r.e0 = e
		r.started = true
	} else {
		r.steps.Inc()
	}
	r.simTime.Set(t)
	r.energy.Set(e)
	r.drift.Set(physics.RelativeEnergyError(r.e0, e))
	r.bodies.Set(float64(s.Len()))
}

// Reset makes the next observed state the new energy reference.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = false
}
