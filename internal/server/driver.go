package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/logging"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/san-kum/gravsim/internal/sim"
)

// Driver owns the one mutable simulation state served over HTTP. Steps
// are taken under its lock, so readers always see a whole state.
type Driver struct {
	mu sync.RWMutex

	step    integrators.Relation
	gravity physics.Gravity
	field   physics.Gravity
	dt      float64

	initial dynamo.State
	state   dynamo.State
	t       float64
	steps   int
	e0      float64
	failure error

	observers []sim.Observer
	log       *slog.Logger
}

type DriverConfig struct {
	Step    integrators.Relation
	Gravity physics.Gravity
	// Field is the force law for field probes; it usually carries a larger
	// softening than Gravity.
	Field physics.Gravity
	Dt    float64
}

func NewDriver(cfg DriverConfig, s0 dynamo.State, log *slog.Logger, observers ...sim.Observer) *Driver {
	if log == nil {
		log = logging.NewNop()
	}
	d := &Driver{
		step:      cfg.Step,
		gravity:   cfg.Gravity,
		field:     cfg.Field,
		dt:        cfg.Dt,
		initial:   s0,
		observers: observers,
		log:       log,
	}
	d.Reset()
	return d
}

// Snapshot is a consistent view of the driver.
type Snapshot struct {
	State   dynamo.State
	Time    float64
	Steps   int
	E0      float64
	Failure error
}

func (d *Driver) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Snapshot{State: d.state, Time: d.t, Steps: d.steps, E0: d.e0, Failure: d.failure}
}

// Advance takes up to n steps. A step that produces a non-finite state is
// discarded and the driver refuses further steps until Reset.
func (d *Driver) Advance(n int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := 0; i < n; i++ {
		if d.failure != nil {
			return d.failure
		}
		next := d.step(d.state, d.dt)
		if !next.IsValid() {
			d.failure = dynamo.SimError{Time: d.t, Step: d.steps, Message: "invalid state (NaN/Inf)"}
			d.log.Warn("simulation diverged", "step", d.steps, "t", d.t)
			return d.failure
		}
		d.state = next
		d.t += d.dt
		d.steps++
		for _, o := range d.observers {
			o.OnStep(d.state, d.t)
		}
	}
	return nil
}

func (d *Driver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.state = d.initial
	d.t = 0
	d.steps = 0
	d.failure = nil
	d.e0 = d.gravity.TotalEnergy(d.initial)
	for _, o := range d.observers {
		if r, ok := o.(interface{ Reset() }); ok {
			r.Reset()
		}
		o.OnStep(d.state, d.t)
	}
}

// Field samples the gravitational acceleration of the current state.
func (d *Driver) Field(points []dynamo.Vec3) []dynamo.Vec3 {
	s := d.Snapshot().State
	return d.field.Field(points, s)
}

func (d *Driver) Gravity() physics.Gravity { return d.gravity }

// Run advances stepsPerTick steps on every tick until ctx is done. It
// returns nil on cancellation; divergence pauses stepping but keeps
// serving.
func (d *Driver) Run(ctx context.Context, interval time.Duration, stepsPerTick int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if d.Snapshot().Failure != nil {
				continue
			}
			_ = d.Advance(stepsPerTick)
		}
	}
}
