package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/storage"
	"github.com/san-kum/gravsim/internal/viz"
)

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// newSimulator attaches the standard metric set. The returned drift metric
// is the one registered on the simulator, for live progress reporting.
func newSimulator(cfg *config.Config, step integrators.Relation) (*sim.Simulator, *metrics.EnergyDrift) {
	g := cfg.Gravity()
	drift := metrics.NewEnergyDrift(g)
	s := sim.New(step, g, logger)
	s.AddMetric(metrics.NewEnergy(g))
	s.AddMetric(drift)
	s.AddMetric(metrics.NewMomentumDrift())
	s.AddMetric(metrics.NewAngularMomentumDrift())
	s.AddMetric(metrics.NewStability(stability))
	return s, drift
}

// progressObserver redraws a progress bar every few percent, with the
// current relative energy error when drift is set. Metrics observe a state
// before observers do, so drift is always up to date here.
func progressObserver(w io.Writer, total int, dt float64, drift *metrics.EnergyDrift) sim.Observer {
	every := max(total/50, 1)
	return sim.ObserverFunc(func(_ dynamo.State, t float64) {
		n := int(math.Round(t / dt))
		if n%every != 0 && n != total {
			return
		}
		frac := float64(n) / float64(max(total, 1))
		line := fmt.Sprintf("\r%s %3.0f%%", viz.ProgressBar(frac, 40), frac*100)
		if drift != nil {
			line += fmt.Sprintf("  dE/E %.2e", drift.Current())
		}
		fmt.Fprint(w, line)
		if n == total {
			fmt.Fprintln(w)
		}
	})
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	s0, err := cfg.InitialState()
	if err != nil {
		return err
	}
	step, err := cfg.Step()
	if err != nil {
		return err
	}

	simulator, drift := newSimulator(cfg, step)
	if stdoutIsTerminal() && cfg.Steps > 0 {
		simulator.AddObserver(progressObserver(os.Stdout, cfg.Steps, cfg.Dt, drift))
	}

	fmt.Printf("running %s (%d bodies, %s, dt=%g, %d steps)...\n", cfg.Initial, s0.Len(), cfg.Integrator, cfg.Dt, cfg.Steps)
	start := time.Now()
	result, err := simulator.Run(cmd.Context(), s0, cfg.SimConfig())
	if err != nil && result == nil {
		return err
	}
	elapsed := time.Since(start)
	if err != nil {
		fmt.Println()
		logger.Warn("run interrupted", "steps", result.StepsTaken, "error", err)
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(storage.RunInfo{
			Initial:    cfg.Initial,
			Params:     cfg.Params,
			Integrator: cfg.Integrator,
			G:          cfg.G,
			Softening:  cfg.Softening,
			Dt:         cfg.Dt,
			Steps:      cfg.Steps,
		}, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	printSummary(result, elapsed)
	if len(result.Errors) > 0 {
		return result.Errors[0]
	}
	return nil
}

func printSummary(result *sim.Result, elapsed time.Duration) {
	row := func(label, value string) {
		fmt.Println(viz.MetricLabel.Render(label) + " " + viz.MetricValue.Render(value))
	}
	fmt.Println(viz.HeaderStyle.Render("summary"))
	row("completed", elapsed.String())
	row("steps", fmt.Sprintf("%d", result.StepsTaken))
	row("E0", fmt.Sprintf("%.10f", result.InitialEnergy))
	row("E", fmt.Sprintf("%.10f", result.FinalEnergy))
	row("rel. error", fmt.Sprintf("%.3e", result.EnergyError))
	row("peak error", fmt.Sprintf("%.3e", result.PeakEnergyError))

	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, result.Metrics[name])
	}
	for _, e := range result.Errors {
		fmt.Println(viz.StatusFailed.Render("error: " + e.Error()))
	}
}

type comparison struct {
	name    string
	result  *sim.Result
	elapsed time.Duration
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[:1])
	if err != nil {
		return err
	}
	s0, err := cfg.InitialState()
	if err != nil {
		return err
	}

	names := args[1:]
	out := make([]comparison, len(names))
	eg, ctx := errgroup.WithContext(cmd.Context())
	for i, name := range names {
		i, name := i, name
		step, err := integrators.Get(name, cfg.Gravity())
		if err != nil {
			return err
		}
		eg.Go(func() error {
			start := time.Now()
			simulator, _ := newSimulator(cfg, step)
			res, err := simulator.Run(ctx, s0, cfg.SimConfig())
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			out[i] = comparison{name: name, result: res, elapsed: time.Since(start)}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	fmt.Printf("comparing on %s (dt=%g, %d steps)\n\n", cfg.Initial, cfg.Dt, cfg.Steps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tSYMPLECTIC\tFINAL ERR\tPEAK ERR\tMOMENTUM\tTIME\tSTATUS")
	for _, c := range out {
		status := "ok"
		if len(c.result.Errors) > 0 {
			status = "diverged"
		}
		fmt.Fprintf(w, "%s\t%v\t%.3e\t%.3e\t%.3e\t%v\t%s\n",
			c.name, integrators.Symplectic(c.name), c.result.EnergyError, c.result.PeakEnergyError,
			c.result.Metrics["momentum_drift"], c.elapsed.Round(time.Microsecond), status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, c := range out {
		if len(c.result.Energies) < 2 {
			continue
		}
		errs := make([]float64, len(c.result.Energies))
		for i, e := range c.result.Energies {
			errs[i] = physics.RelativeEnergyError(c.result.InitialEnergy, e)
		}
		fmt.Println()
		fmt.Println(asciigraph.Plot(errs,
			asciigraph.Height(6),
			asciigraph.Width(70),
			asciigraph.Caption(c.name+" |ΔE/E0|"),
		))
	}
	return nil
}

func errorScaling(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	s0, err := cfg.InitialState()
	if err != nil {
		return err
	}
	step, err := cfg.Step()
	if err != nil {
		return err
	}

	study := sim.StudyConfig{Duration: span, BaseDt: baseDt, Levels: levels}
	refinements, err := sim.ErrorScaling(cmd.Context(), step, cfg.Gravity(), s0, study)
	if err != nil {
		return err
	}

	fmt.Printf("energy error scaling: %s, %s, t=%g\n\n", cfg.Initial, cfg.Integrator, span)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DT\tSTEPS\tPEAK ERR\tFINAL ERR\tRATIO\tORDER")
	for _, r := range refinements {
		ratio, order := "-", "-"
		if r.Ratio > 0 {
			ratio = fmt.Sprintf("%.2f", r.Ratio)
			order = fmt.Sprintf("%.2f", r.Order)
		}
		fmt.Fprintf(w, "%g\t%d\t%.3e\t%.3e\t%s\t%s\n", r.Dt, r.Steps, r.PeakError, r.FinalError, ratio, order)
	}
	return w.Flush()
}

func sampleField(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	s0, err := cfg.InitialState()
	if err != nil {
		return err
	}
	g := cfg.FieldGravity()

	if fieldGrid <= 0 {
		p := dynamo.V3(fieldX, fieldY, fieldZ)
		a := g.AccelerationAt(p, s0)
		fmt.Printf("point:        %v\n", p)
		fmt.Printf("acceleration: %v\n", a)
		fmt.Printf("magnitude:    %.6g\n", a.Norm())
		return nil
	}

	n := fieldGrid
	points := make([]dynamo.Vec3, 0, n*n)
	for row := 0; row < n; row++ {
		y := fieldExtent - 2*fieldExtent*float64(row)/float64(max(n-1, 1))
		for col := 0; col < n; col++ {
			x := -fieldExtent + 2*fieldExtent*float64(col)/float64(max(n-1, 1))
			points = append(points, dynamo.V3(x, y, 0))
		}
	}
	field := g.Field(points, s0)

	lo, hi := math.Inf(1), math.Inf(-1)
	logs := make([]float64, len(field))
	for i, a := range field {
		logs[i] = math.Log10(a.Norm() + 1e-300)
		lo, hi = math.Min(lo, logs[i]), math.Max(hi, logs[i])
	}

	const shades = " .:-=+*#%@"
	var b strings.Builder
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			v := logs[row*n+col]
			idx := 0
			if hi > lo {
				idx = int((v - lo) / (hi - lo) * float64(len(shades)-1))
			}
			b.WriteByte(shades[idx])
			b.WriteByte(shades[idx])
		}
		b.WriteByte('\n')
	}
	fmt.Print(b.String())
	fmt.Printf("log10 |a| from %.2f to %.2f over [-%g, %g]^2 at z=0\n", lo, hi, fieldExtent, fieldExtent)
	return nil
}
