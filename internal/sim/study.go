package sim

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/physics"
)

// StudyConfig describes a step-refinement study: the same span of
// simulated time run at BaseDt, BaseDt/2, ... for Levels levels.
type StudyConfig struct {
	Duration float64
	BaseDt   float64
	Levels   int
}

func DefaultStudyConfig() StudyConfig {
	return StudyConfig{Duration: 1.0, BaseDt: 0.01, Levels: 4}
}

// Refinement is one level of an error-scaling study. Ratio is the peak
// error of the previous (coarser) level divided by this one; Order is
// log2 of that. Both are zero on the first level.
type Refinement struct {
	Dt         float64
	Steps      int
	PeakError  float64
	FinalError float64
	Ratio      float64
	Order      float64
}

// ErrorScaling runs every refinement level concurrently and reports how the
// relative energy error shrinks as dt halves. A second-order method gives
// ratios close to 4.
func ErrorScaling(ctx context.Context, step integrators.Relation, g physics.Gravity, s0 dynamo.State, cfg StudyConfig) ([]Refinement, error) {
	if !(cfg.Duration > 0) || !(cfg.BaseDt > 0) {
		return nil, fmt.Errorf("study: duration and dt must be positive, got %g and %g", cfg.Duration, cfg.BaseDt)
	}
	if cfg.Levels < 2 {
		return nil, fmt.Errorf("study: need at least 2 levels, got %d", cfg.Levels)
	}

	out := make([]Refinement, cfg.Levels)
	eg, ctx := errgroup.WithContext(ctx)
	for lvl := 0; lvl < cfg.Levels; lvl++ {
		lvl := lvl
		dt := cfg.BaseDt / math.Pow(2, float64(lvl))
		steps := int(math.Round(cfg.Duration / dt))
		eg.Go(func() error {
			res, err := New(step, g, nil).Run(ctx, s0, Config{Dt: dt, Steps: steps, ValidateState: true})
			if err != nil {
				return fmt.Errorf("study level dt=%g: %w", dt, err)
			}
			if len(res.Errors) > 0 {
				return fmt.Errorf("study level dt=%g: %w", dt, res.Errors[0])
			}
			out[lvl] = Refinement{
				Dt:         dt,
				Steps:      steps,
				PeakError:  res.PeakEnergyError,
				FinalError: res.EnergyError,
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for i := 1; i < len(out); i++ {
		if out[i].PeakError > 0 {
			out[i].Ratio = out[i-1].PeakError / out[i].PeakError
			out[i].Order = math.Log2(out[i].Ratio)
		}
	}
	return out, nil
}
