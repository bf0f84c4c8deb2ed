package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/gravsim/internal/export"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/storage"
	"github.com/san-kum/gravsim/internal/viz"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tINITIAL\tTIME\tSTEPS\tDT\tINTEG\tENERGY ERR")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%g\t%s\t%.2e\n",
			run.ID,
			run.Initial,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.StepsTaken,
			run.Dt,
			run.Integrator,
			run.EnergyError,
		)
	}

	return w.Flush()
}

// loadResult rebuilds enough of a sim.Result from disk to plot or export.
func loadResult(st *storage.Store, runID string) (*storage.RunMetadata, *sim.Result, error) {
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	traj, err := st.LoadStates(runID)
	if err != nil {
		return nil, nil, err
	}
	result := &sim.Result{
		States:          traj.States,
		Times:           traj.Times,
		Energies:        traj.Energies,
		Metrics:         meta.Metrics,
		InitialEnergy:   meta.InitialEnergy,
		FinalEnergy:     meta.FinalEnergy,
		EnergyError:     meta.EnergyError,
		PeakEnergyError: meta.PeakEnergyError,
		StepsTaken:      meta.StepsTaken,
	}
	if n := len(traj.States); n > 0 {
		result.Final = traj.States[n-1]
	}
	return meta, result, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	meta, result, err := loadResult(storage.New(dataDir), runID)
	if err != nil {
		return err
	}
	if len(result.States) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("initial: %s, integrator: %s\n", meta.Initial, meta.Integrator)
	fmt.Printf("samples: %d\n\n", len(result.States))

	canvas := viz.NewCanvas(60, 24)
	all := result.States[0].Positions()
	for _, s := range result.States[1:] {
		all = append(all, s.Positions()...)
	}
	viz.DrawTrails(canvas, viz.FitViewport(canvas, all), result.States)
	if stdoutIsTerminal() {
		fmt.Println(canvas.Render(viz.ThemeCyberpunk))
	} else {
		fmt.Println(canvas.String())
	}

	if len(result.Energies) > 1 {
		errs := make([]float64, len(result.Energies))
		for i, e := range result.Energies {
			errs[i] = physics.RelativeEnergyError(result.InitialEnergy, e)
		}
		fmt.Println(asciigraph.Plot(errs,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("relative energy error vs sample"),
		))
		fmt.Println()
		fmt.Println("error trend: " + viz.Sparkline(errs, 60))
	}

	if svgPath != "" {
		if err := os.WriteFile(svgPath, []byte(export.TrajectoryToSVG(result.States, 800, 800)), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgPath)
	}
	if brailleSVG != "" {
		if err := os.WriteFile(brailleSVG, []byte(export.CanvasToSVG(canvas, 4)), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", brailleSVG)
	}
	return nil
}

// output returns stdout, or the -o file and a function closing it.
func output() (io.Writer, func() error, error) {
	if outPath == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)

	w, closeOut, err := output()
	if err != nil {
		return err
	}
	defer closeOut()

	if !withStates {
		meta, err := st.Load(args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}

	meta, result, err := loadResult(st, args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(w, *meta, result)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, result, err := loadResult(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}

	w, closeOut, err := output()
	if err != nil {
		return err
	}
	defer closeOut()

	return storage.WriteCSV(w, result)
}
