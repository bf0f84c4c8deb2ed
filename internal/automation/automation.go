package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/logging"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/storage"
)

// Scenario is a scripted batch of runs read from YAML.
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Runs        []ScenarioRun `yaml:"runs"`
}

// ScenarioRun starts from a preset ("initial/preset") or the defaults and
// applies Config on top. Only the keys present in Config change.
type ScenarioRun struct {
	Name   string         `yaml:"name"`
	Preset string         `yaml:"preset"`
	Config map[string]any `yaml:"config"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Runs) == 0 {
		return nil, fmt.Errorf("%s: scenario has no runs", path)
	}
	return &scenario, nil
}

// Resolve builds the validated config for one run.
func (r ScenarioRun) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if r.Preset != "" {
		condition, name, ok := strings.Cut(r.Preset, "/")
		if !ok {
			return nil, fmt.Errorf("preset %q: want initial/preset", r.Preset)
		}
		if cfg = config.GetPreset(condition, name); cfg == nil {
			return nil, fmt.Errorf("unknown preset %q", r.Preset)
		}
	}
	if len(r.Config) > 0 {
		data, err := yaml.Marshal(r.Config)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Outcome is one finished run of a scenario. RunID is empty when the
// runner has no store.
type Outcome struct {
	Name   string
	RunID  string
	Config *config.Config
	Result *sim.Result
}

// Runner executes scenarios, sweeps and Monte Carlo batches. Runs are
// saved when Store is set.
type Runner struct {
	Store        *storage.Store
	EscapeRadius float64
	log          *slog.Logger
}

func NewRunner(store *storage.Store, log *slog.Logger) *Runner {
	if log == nil {
		log = logging.NewNop()
	}
	return &Runner{Store: store, EscapeRadius: 10, log: log}
}

func (r *Runner) simulate(ctx context.Context, cfg *config.Config) (*sim.Result, error) {
	s0, err := cfg.InitialState()
	if err != nil {
		return nil, err
	}
	step, err := cfg.Step()
	if err != nil {
		return nil, err
	}
	g := cfg.Gravity()
	s := sim.New(step, g, r.log)
	s.AddMetric(metrics.NewEnergy(g))
	s.AddMetric(metrics.NewEnergyDrift(g))
	s.AddMetric(metrics.NewMomentumDrift())
	s.AddMetric(metrics.NewAngularMomentumDrift())
	s.AddMetric(metrics.NewStability(r.EscapeRadius))
	return s.Run(ctx, s0, cfg.SimConfig())
}

// RunScenario executes the runs in order and stops at the first failure.
// A run that diverges is not a failure; its Result carries the error.
func (r *Runner) RunScenario(ctx context.Context, sc *Scenario) ([]Outcome, error) {
	out := make([]Outcome, 0, len(sc.Runs))
	for i, run := range sc.Runs {
		name := run.Name
		if name == "" {
			name = fmt.Sprintf("run-%d", i+1)
		}
		cfg, err := run.Resolve()
		if err != nil {
			return out, fmt.Errorf("run %d (%s): %w", i+1, name, err)
		}

		r.log.Info("scenario run", "scenario", sc.Name, "run", name, "index", i+1, "of", len(sc.Runs), "initial", cfg.Initial)
		start := time.Now()
		result, err := r.simulate(ctx, cfg)
		if err != nil {
			return out, fmt.Errorf("run %d (%s): %w", i+1, name, err)
		}

		o := Outcome{Name: name, Config: cfg, Result: result}
		if r.Store != nil {
			id, err := r.Store.Save(storage.RunInfo{
				Initial: cfg.Initial, Params: cfg.Params, Integrator: cfg.Integrator,
				G: cfg.G, Softening: cfg.Softening, Dt: cfg.Dt, Steps: cfg.Steps,
			}, result)
			if err != nil {
				return out, fmt.Errorf("run %d (%s): save: %w", i+1, name, err)
			}
			o.RunID = id
		}
		r.log.Debug("scenario run finished", "run", name, "elapsed", time.Since(start), "energy_error", result.EnergyError)
		out = append(out, o)
	}
	return out, nil
}

// ParameterSweep varies one parameter linearly over Count values. Param is
// "dt", "g", "softening" or a key of the initial condition's params. A dt
// sweep keeps the simulated span of Base fixed.
type ParameterSweep struct {
	Base     *config.Config
	Param    string
	Min      float64
	Max      float64
	Count    int
	Parallel int
}

type SweepResult struct {
	Value           float64
	EnergyError     float64
	PeakEnergyError float64
	Stability       float64
	Diverged        bool
}

func (p *ParameterSweep) configAt(v float64) (*config.Config, error) {
	cfg := *p.Base
	cfg.Params = make(map[string]any, len(p.Base.Params)+1)
	for k, val := range p.Base.Params {
		cfg.Params[k] = val
	}
	switch p.Param {
	case "dt":
		span := p.Base.Dt * float64(p.Base.Steps)
		cfg.Dt = v
		cfg.Steps = int(math.Round(span / v))
	case "g":
		cfg.G = v
	case "softening":
		cfg.Softening = v
	default:
		cfg.Params[p.Param] = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s=%g: %w", p.Param, v, err)
	}
	return &cfg, nil
}

// RunSweep runs every point of the sweep, up to Parallel at a time.
// Results keep the sweep order.
func (r *Runner) RunSweep(ctx context.Context, p *ParameterSweep) ([]SweepResult, error) {
	if p.Base == nil || p.Param == "" {
		return nil, fmt.Errorf("sweep: base config and parameter are required")
	}
	if p.Count < 2 {
		return nil, fmt.Errorf("sweep: need at least 2 points, got %d", p.Count)
	}

	stepSize := (p.Max - p.Min) / float64(p.Count-1)
	cfgs := make([]*config.Config, p.Count)
	for i := range cfgs {
		cfg, err := p.configAt(p.Min + float64(i)*stepSize)
		if err != nil {
			return nil, err
		}
		cfgs[i] = cfg
	}

	out := make([]SweepResult, p.Count)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(p.Parallel, 1))
	for i, cfg := range cfgs {
		i, cfg := i, cfg
		v := p.Min + float64(i)*stepSize
		eg.Go(func() error {
			result, err := r.simulate(ctx, cfg)
			if err != nil {
				return fmt.Errorf("sweep %s=%g: %w", p.Param, v, err)
			}
			out[i] = SweepResult{
				Value:           v,
				EnergyError:     result.EnergyError,
				PeakEnergyError: result.PeakEnergyError,
				Stability:       result.Metrics["stability"],
				Diverged:        len(result.Errors) > 0,
			}
			r.log.Debug("sweep point", "param", p.Param, "value", v, "energy_error", result.EnergyError)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// MonteCarloConfig perturbs every position and velocity component of the
// base initial condition uniformly within ±Perturbation.
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	Trials       int
	Seed         int64
	Parallel     int
}

// MonteCarloResult holds one trial. Stable means the run finished with
// every body inside the runner's escape radius at every step.
type MonteCarloResult struct {
	Trial      int
	Initial    dynamo.State
	Final      dynamo.State
	PeakError  float64
	Stable     bool
	StepsTaken int
}

// RunMonteCarlo draws every trial's initial state up front from the seed,
// so results do not depend on scheduling.
func (r *Runner) RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig) ([]MonteCarloResult, error) {
	if mc.Base == nil || mc.Trials <= 0 {
		return nil, fmt.Errorf("monte carlo: base config and a positive trial count are required")
	}
	if !(mc.Perturbation >= 0) {
		return nil, fmt.Errorf("monte carlo: perturbation must not be negative, got %g", mc.Perturbation)
	}

	base, err := mc.Base.InitialState()
	if err != nil {
		return nil, err
	}
	step, err := mc.Base.Step()
	if err != nil {
		return nil, err
	}
	g := mc.Base.Gravity()

	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	jitter := func() float64 { return (rng.Float64() - 0.5) * 2 * mc.Perturbation }
	starts := make([]dynamo.State, mc.Trials)
	for i := range starts {
		s := base.WithPositions(func(_ int, b dynamo.Body) dynamo.Vec3 {
			return b.Position.Add(dynamo.V3(jitter(), jitter(), jitter()))
		})
		starts[i] = s.WithVelocities(func(_ int, b dynamo.Body) dynamo.Vec3 {
			return b.Velocity.Add(dynamo.V3(jitter(), jitter(), jitter()))
		})
	}

	out := make([]MonteCarloResult, mc.Trials)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(mc.Parallel, 1))
	for i, s0 := range starts {
		i, s0 := i, s0
		eg.Go(func() error {
			s := sim.New(step, g, r.log)
			s.AddMetric(metrics.NewStability(r.EscapeRadius))
			cfg := mc.Base.SimConfig()
			cfg.SampleEvery = 0
			result, err := s.Run(ctx, s0, cfg)
			if err != nil {
				return fmt.Errorf("trial %d: %w", i, err)
			}
			out[i] = MonteCarloResult{
				Trial:      i,
				Initial:    s0,
				Final:      result.Final,
				PeakError:  result.PeakEnergyError,
				Stable:     len(result.Errors) == 0 && result.Metrics["stability"] == 1,
				StepsTaken: result.StepsTaken,
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	r.log.Info("monte carlo finished", "trials", mc.Trials, "seed", seed)
	return out, nil
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
