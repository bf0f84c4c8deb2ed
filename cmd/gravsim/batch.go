package main

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/gravsim/internal/analysis"
	"github.com/san-kum/gravsim/internal/automation"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/san-kum/gravsim/internal/storage"
)

// evenPrefix is the longest leading run of evenly spaced times. A saved
// run ends with its final state even when that falls between samples.
func evenPrefix(times []float64) int {
	if len(times) < 3 {
		return len(times)
	}
	step := times[1] - times[0]
	for i := 2; i < len(times); i++ {
		if math.Abs(times[i]-times[i-1]-step) > 1e-6*step {
			return i
		}
	}
	return len(times)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, result, err := loadResult(st, args[0])
	if err != nil {
		return err
	}

	n := evenPrefix(result.Times)
	fmt.Printf("run: %s (%s, %d samples)\n\n", meta.ID, meta.Initial, n)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODY\tMASS\tPERIOD X\tPERIOD Y")
	for i, m := range meta.Masses {
		xs := make([]float64, n)
		ys := make([]float64, n)
		for k := 0; k < n; k++ {
			p := result.States[k].Body(i).Position
			xs[k], ys[k] = p.X(), p.Y()
		}
		fmt.Fprintf(w, "%d\t%g\t%s\t%s\n", i, m,
			periodString(result.Times[:n], xs), periodString(result.Times[:n], ys))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !withLyapunov {
		return nil
	}
	if len(result.States) == 0 || meta.StepsTaken == 0 {
		return fmt.Errorf("run %s has no steps to analyse", meta.ID)
	}
	step, err := integrators.Get(meta.Integrator, physics.Gravity{G: meta.G, Softening: meta.Softening})
	if err != nil {
		return err
	}
	lambda, err := analysis.LyapunovExponent(step, result.States[0], lyapunovBody, meta.Dt, meta.StepsTaken, lyapunovDelta)
	if err != nil {
		return err
	}
	fmt.Printf("\nlyapunov exponent (body %d, delta %g): %.4g\n", lyapunovBody, lyapunovDelta, lambda)
	return nil
}

func periodString(times, values []float64) string {
	p, err := analysis.DominantPeriod(times, values)
	if err != nil {
		return "-"
	}
	return fmt.Sprintf("%.4g", p)
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	var st *storage.Store
	if !noSave {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}
	runner := automation.NewRunner(st, logger)
	runner.EscapeRadius = stability

	fmt.Printf("scenario %s: %d runs\n", sc.Name, len(sc.Runs))
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}
	outcomes, err := runner.RunScenario(cmd.Context(), sc)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nNAME\tINITIAL\tINTEG\tSTEPS\tENERGY ERR\tPEAK ERR\tRUN")
	for _, o := range outcomes {
		id := o.RunID
		if id == "" {
			id = "-"
		}
		if len(o.Result.Errors) > 0 {
			id += " (diverged)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2e\t%.2e\t%s\n", o.Name, o.Config.Initial, o.Config.Integrator,
			o.Result.StepsTaken, o.Result.EnergyError, o.Result.PeakEnergyError, id)
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	runner := automation.NewRunner(nil, logger)
	runner.EscapeRadius = stability
	results, err := runner.RunSweep(cmd.Context(), &automation.ParameterSweep{
		Base:     cfg,
		Param:    sweepParam,
		Min:      sweepMin,
		Max:      sweepMax,
		Count:    sweepCount,
		Parallel: parallel,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tENERGY ERR\tPEAK ERR\tSTABILITY\n", sweepParam)
	peaks := make([]float64, 0, len(results))
	for _, r := range results {
		status := strconv.FormatFloat(r.Stability, 'f', 3, 64)
		if r.Diverged {
			status = "diverged"
		}
		fmt.Fprintf(w, "%g\t%.2e\t%.2e\t%s\n", r.Value, r.EnergyError, r.PeakEnergyError, status)
		if !r.Diverged {
			peaks = append(peaks, r.PeakEnergyError)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(peaks) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(peaks,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Caption("peak energy error vs "+sweepParam),
		))
	}
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	runner := automation.NewRunner(nil, logger)
	runner.EscapeRadius = stability
	results, err := runner.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Base:         cfg,
		Perturbation: perturbation,
		Trials:       trials,
		Seed:         seed,
		Parallel:     parallel,
	})
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	worst := 0.0
	for _, r := range results {
		worst = math.Max(worst, r.PeakError)
	}
	fmt.Printf("%s: %d trials, perturbation %g, escape radius %g\n", cfg.Initial, len(results), perturbation, stability)
	fmt.Printf("stable: %d  unstable: %d  (%.1f%%)\n", stable, unstable, 100*float64(stable)/float64(len(results)))
	fmt.Printf("worst peak energy error: %.2e\n", worst)
	return nil
}
