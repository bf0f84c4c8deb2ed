package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/logging"
	"github.com/san-kum/gravsim/internal/physics"
)

// Simulator drives a step function over a run. It owns the current state
// of the run; the step function itself stays pure.
type Simulator struct {
	step      integrators.Relation
	gravity   physics.Gravity
	metrics   []Metric
	observers []Observer
	log       *slog.Logger
}

func New(step integrators.Relation, g physics.Gravity, log *slog.Logger) *Simulator {
	if log == nil {
		log = logging.NewNop()
	}
	return &Simulator{
		step:      step,
		gravity:   g,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		log:       log,
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run advances x0 by cfg.Steps steps of cfg.Dt. The context is checked
// between steps; on cancellation the partial result is returned with
// ctx.Err(). A diverged state ends the run with a SimError in
// Result.Errors, not as a returned error.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg Config) (*Result, error) {
	if err := s.validateConfig(x0, cfg); err != nil {
		return nil, err
	}

	capacity := 2
	if cfg.SampleEvery > 0 {
		capacity += cfg.Steps / cfg.SampleEvery
	}
	result := &Result{
		States:   make([]dynamo.State, 0, capacity),
		Times:    make([]float64, 0, capacity),
		Energies: make([]float64, 0, capacity),
		Metrics:  make(map[string]float64),
		Errors:   make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0
	t := 0.0
	dt := cfg.Dt

	result.InitialEnergy = s.gravity.TotalEnergy(x)
	s.record(result, x, t, result.InitialEnergy)
	s.observe(x, t)

	s.log.Debug("run started", "bodies", x.Len(), "dt", dt, "steps", cfg.Steps, "energy", result.InitialEnergy)

	lastEnergy := result.InitialEnergy
	lastRecorded := 0
	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			s.finish(result, x, lastEnergy)
			return result, ctx.Err()
		default:
		}

		next := s.step(x, dt)

		if cfg.ValidateState && !next.IsValid() {
			err := dynamo.SimError{Time: t, Step: i, Message: "invalid state (NaN/Inf)"}
			result.Errors = append(result.Errors, err)
			s.log.Warn("run diverged", "step", i, "t", t, "error", err)
			break
		}
		if !x.SameMasses(next) {
			err := &dynamo.ConfigError{Field: "step", Value: i, Err: dynamo.ErrDimensionMismatch}
			result.Errors = append(result.Errors, err)
			s.log.Error("step changed bodies", "step", i, "error", err)
			break
		}

		x = next
		t += dt
		result.StepsTaken++

		lastEnergy = s.gravity.TotalEnergy(x)
		result.PeakEnergyError = math.Max(result.PeakEnergyError,
			physics.RelativeEnergyError(result.InitialEnergy, lastEnergy))

		if cfg.SampleEvery > 0 && result.StepsTaken%cfg.SampleEvery == 0 && result.StepsTaken != cfg.Steps {
			s.record(result, x, t, lastEnergy)
			lastRecorded = result.StepsTaken
		}
		s.observe(x, t)
	}

	// a diverged run can stop right after a sample
	if result.StepsTaken > lastRecorded {
		s.record(result, x, t, lastEnergy)
	}
	s.finish(result, x, lastEnergy)

	s.log.Debug("run finished", "steps", result.StepsTaken, "energy_error", result.EnergyError, "peak_energy_error", result.PeakEnergyError)
	return result, nil
}

func (s *Simulator) record(r *Result, x dynamo.State, t, e float64) {
	r.States = append(r.States, x)
	r.Times = append(r.Times, t)
	r.Energies = append(r.Energies, e)
}

func (s *Simulator) observe(x dynamo.State, t float64) {
	for _, m := range s.metrics {
		m.Observe(x, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, t)
	}
}

func (s *Simulator) finish(r *Result, x dynamo.State, e float64) {
	r.Final = x
	r.FinalEnergy = e
	r.EnergyError = physics.RelativeEnergyError(r.InitialEnergy, e)
	for _, m := range s.metrics {
		r.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) validateConfig(x0 dynamo.State, cfg Config) error {
	if !(cfg.Dt > 0) || math.IsInf(cfg.Dt, 0) {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Steps < 0 {
		return fmt.Errorf("steps must not be negative, got %d", cfg.Steps)
	}
	if cfg.SampleEvery < 0 {
		return fmt.Errorf("sample interval must not be negative, got %d", cfg.SampleEvery)
	}
	if x0.Len() < 2 {
		return fmt.Errorf("initial state: %w", dynamo.ErrTooFewBodies)
	}
	if err := s.gravity.Validate(); err != nil {
		return err
	}
	return nil
}
