package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/server"
	"github.com/san-kum/gravsim/internal/viz"
)

func runLive(cmd *cobra.Command, args []string) error {
	if !stdoutIsTerminal() {
		return errors.New("live view needs a terminal; use run or serve instead")
	}
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

	return viz.Run(step, cfg.Gravity(), s0, viz.LiveOptions{
		Name:          cfg.Initial,
		Integrator:    cfg.Integrator,
		Dt:            cfg.Dt,
		StepsPerFrame: stepsPerFrame,
		Theme:         theme,
	})
}

func serve(cmd *cobra.Command, args []string) error {
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
	interval, err := time.ParseDuration(tickInterval)
	if err != nil {
		return fmt.Errorf("--tick: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(reg, cfg.Gravity())

	driver := server.NewDriver(server.DriverConfig{
		Step:    step,
		Gravity: cfg.Gravity(),
		Field:   cfg.FieldGravity(),
		Dt:      cfg.Dt,
	}, s0, logger, recorder)

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.NewHandler(driver, reg, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	eg, ctx := errgroup.WithContext(cmd.Context())
	eg.Go(func() error {
		logger.Info("serving", "addr", addr, "initial", cfg.Initial, "integrator", cfg.Integrator, "bodies", s0.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if interval > 0 {
		eg.Go(func() error {
			return driver.Run(ctx, interval, stepsPerTick)
		})
	}
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}
