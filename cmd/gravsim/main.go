package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/initial"
	"github.com/san-kum/gravsim/internal/logging"
)

var version = "dev"

var (
	dataDir    string
	logLevel   string
	logFormat  string
	configFile string
	preset     string

	dt          float64
	steps       int
	sampleEvery int
	integrator  string
	gravConst   float64
	softening   float64
	params      map[string]string

	noSave    bool
	stability float64

	baseDt float64
	levels int
	span   float64

	fieldX, fieldY, fieldZ float64
	fieldGrid              int
	fieldExtent            float64

	svgPath       string
	brailleSVG    string
	outPath       string
	withStates    bool
	stepsPerFrame int
	theme         string

	addr         string
	tickInterval string
	stepsPerTick int

	withLyapunov  bool
	lyapunovBody  int
	lyapunovDelta float64

	sweepParam   string
	sweepMin     float64
	sweepMax     float64
	sweepCount   int
	perturbation float64
	trials       int
	seed         int64
	parallel     int
)

var logger = logging.NewNop()

func main() {
	rootCmd := &cobra.Command{
		Use:           "gravsim",
		Short:         "gravitational N-body simulation with symplectic integrators",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".gravsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	runCmd := &cobra.Command{
		Use:   "run [initial]",
		Short: "run a simulation and save it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not save the run")
	runCmd.Flags().Float64Var(&stability, "stability-radius", 10, "distance from the centre of mass counted as escape")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write the trajectories as SVG")
	plotCmd.Flags().StringVar(&brailleSVG, "braille-svg", "", "also write the braille canvas as SVG")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a saved run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().BoolVar(&withStates, "states", false, "include the sampled trajectory")
	exportCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a saved run's states as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")

	compareCmd := &cobra.Command{
		Use:   "compare [initial] [integrator1] [integrator2] ...",
		Short: "compare integrators on the same initial condition",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareIntegrators,
	}
	addSimFlags(compareCmd)

	scalingCmd := &cobra.Command{
		Use:   "scaling [initial]",
		Short: "measure how energy error shrinks as dt halves",
		Args:  cobra.MaximumNArgs(1),
		RunE:  errorScaling,
	}
	addSimFlags(scalingCmd)
	scalingCmd.Flags().Float64Var(&baseDt, "base-dt", 0.01, "coarsest timestep")
	scalingCmd.Flags().IntVar(&levels, "levels", 4, "number of refinement levels")
	scalingCmd.Flags().Float64Var(&span, "span", 1.0, "simulated time per level")

	fieldCmd := &cobra.Command{
		Use:   "field [initial]",
		Short: "sample the gravitational field of an initial condition",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sampleField,
	}
	addSimFlags(fieldCmd)
	fieldCmd.Flags().Float64Var(&fieldX, "x", 0, "probe x")
	fieldCmd.Flags().Float64Var(&fieldY, "y", 0, "probe y")
	fieldCmd.Flags().Float64Var(&fieldZ, "z", 0, "probe z")
	fieldCmd.Flags().IntVar(&fieldGrid, "grid", 0, "print an NxN map of field strength on the z=0 plane")
	fieldCmd.Flags().Float64Var(&fieldExtent, "extent", 2, "half-width of the grid")

	presetsCmd := &cobra.Command{
		Use:   "presets [initial]",
		Short: "list initial conditions, or the presets of one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	liveCmd := &cobra.Command{
		Use:   "live [initial]",
		Short: "run a simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().IntVar(&stepsPerFrame, "steps-per-frame", 10, "steps between redraws")
	liveCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "colour theme")

	serveCmd := &cobra.Command{
		Use:   "serve [initial]",
		Short: "serve a running simulation over HTTP",
		Args:  cobra.MaximumNArgs(1),
		RunE:  serve,
	}
	addSimFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&tickInterval, "tick", "0", "advance automatically at this interval (e.g. 50ms); 0 steps only on request")
	serveCmd.Flags().IntVar(&stepsPerTick, "steps-per-tick", 10, "steps per automatic tick")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "estimate orbital periods of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().BoolVar(&withLyapunov, "lyapunov", false, "also estimate the largest Lyapunov exponent")
	analyzeCmd.Flags().IntVar(&lyapunovBody, "body", 0, "body to perturb for the Lyapunov estimate")
	analyzeCmd.Flags().Float64Var(&lyapunovDelta, "delta", 1e-8, "initial separation for the Lyapunov estimate")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a YAML batch of simulations",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "do not save the runs")
	scenarioCmd.Flags().Float64Var(&stability, "stability-radius", 10, "distance from the centre of mass counted as escape")

	sweepCmd := &cobra.Command{
		Use:   "sweep [initial]",
		Short: "sweep one parameter and compare energy error",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	addBatchFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param-name", "dt", "parameter to sweep: dt, g, softening or an initial condition parameter")
	sweepCmd.Flags().Float64Var(&sweepMin, "from", 0.0005, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "to", 0.005, "last value")
	sweepCmd.Flags().IntVar(&sweepCount, "count", 5, "number of values")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [initial]",
		Short: "count how many perturbed copies of a configuration stay bound",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	addSimFlags(monteCarloCmd)
	addBatchFlags(monteCarloCmd)
	monteCarloCmd.Flags().Float64Var(&perturbation, "perturbation", 0.01, "uniform jitter applied to every position and velocity component")
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("gravsim", version)
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, compareCmd, scalingCmd, fieldCmd, presetsCmd, liveCmd, serveCmd,
		analyzeCmd, scenarioCmd, sweepCmd, monteCarloCmd, versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", def.Dt, "timestep")
	cmd.Flags().IntVar(&steps, "steps", def.Steps, "number of steps")
	cmd.Flags().IntVar(&sampleEvery, "sample-every", def.SampleEvery, "keep every k-th state")
	cmd.Flags().StringVar(&integrator, "integrator", def.Integrator, "integrator")
	cmd.Flags().Float64Var(&gravConst, "g", def.G, "gravitational constant")
	cmd.Flags().Float64Var(&softening, "softening", def.Softening, "softening added to the cube distance")
	cmd.Flags().StringToStringVar(&params, "param", nil, "initial condition parameter, key=value (repeatable)")
}

func addBatchFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&stability, "stability-radius", 10, "distance from the centre of mass counted as escape")
	cmd.Flags().IntVar(&parallel, "parallel", 4, "simulations to run at once")
}

func setupLogger(level string) error {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return err
	}
	logger = logging.New(lvl, logFormat)
	slog.SetDefault(logger)
	return nil
}

// resolveConfig layers preset, config file and flags, in that order, over
// the defaults. Only flags the user actually set override earlier layers.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Initial = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Initial, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Initial))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if len(args) > 0 && loaded.Initial != args[0] {
			logger.Warn("initial condition argument overrides config file", "arg", args[0], "config", loaded.Initial)
			loaded.Initial = args[0]
		}
		cfg = loaded
		if !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" {
			if err := setupLogger(cfg.LogLevel); err != nil {
				return nil, err
			}
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("sample-every") {
		cfg.SampleEvery = sampleEvery
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("g") {
		cfg.G = gravConst
	}
	if flags.Changed("softening") {
		cfg.Softening = softening
	}
	if len(params) > 0 {
		merged := make(map[string]any, len(cfg.Params)+len(params))
		for k, v := range cfg.Params {
			merged[k] = v
		}
		for k, v := range params {
			merged[k] = v
		}
		cfg.Params = merged
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("resolved config", "initial", cfg.Initial, "integrator", cfg.Integrator, "dt", cfg.Dt, "steps", cfg.Steps)
	return cfg, nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Println("initial conditions:")
		for _, name := range initial.Names() {
			desc, _ := initial.Describe(name)
			fmt.Printf("  %-10s %s\n", name, desc)
		}
		return nil
	}
	presets := config.ListPresets(args[0])
	if len(presets) == 0 {
		fmt.Printf("no presets for initial condition: %s\n", args[0])
		return nil
	}
	fmt.Printf("presets for %s:\n", args[0])
	for _, p := range presets {
		fmt.Printf("  %s\n", p)
	}
	return nil
}
