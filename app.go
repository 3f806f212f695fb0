package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/kwv/icedrift/drift"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultConfigFile = "config.yaml"

// App encapsulates the application state and dependencies
type App struct {
	Config    *drift.Config
	Store     *drift.ResultStore
	Registry  *prometheus.Registry
	Metrics   *drift.Metrics
	Publisher *drift.Publisher
	Out       io.Writer

	opts AppOptions
}

// NewApp creates a new App instance
func NewApp() *App {
	reg := prometheus.NewRegistry()
	return &App{
		Store:    drift.NewResultStore(),
		Registry: reg,
		Metrics:  drift.NewMetrics(reg),
		Out:      os.Stdout,
		opts:     AppOptions{ConfigFile: defaultConfigFile, MaxIterations: -1},
	}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.opts = opts
}

// loadConfig reads the config file and applies CLI overrides. A missing
// default config file falls back to built-in defaults.
func (a *App) loadConfig() error {
	cfg, err := drift.LoadConfig(a.opts.ConfigFile)
	if err != nil {
		if _, statErr := os.Stat(a.opts.ConfigFile); !os.IsNotExist(statErr) || a.opts.ConfigFile != defaultConfigFile {
			return err
		}
		log.Printf("No %s found, using defaults", defaultConfigFile)
		cfg = drift.DefaultConfig()
	}

	if a.opts.InputPath != "" {
		cfg.Input.Path = a.opts.InputPath
	}
	if a.opts.OutputDir != "" {
		cfg.Output.Dir = a.opts.OutputDir
	}
	if a.opts.OutlierType != "" {
		cfg.Outlier.Type = drift.Method(strings.ToLower(a.opts.OutlierType))
	}
	if a.opts.MaxIterations >= 0 {
		n := a.opts.MaxIterations
		cfg.Outlier.MaxIterations = &n
	}
	if a.opts.SinglePass {
		cfg.Outlier.Iterative = false
	}
	if a.opts.NoOutliers {
		cfg.Outlier.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Input.Path == "" {
		return fmt.Errorf("%w: no input path (set input.path or --input)", drift.ErrConfig)
	}
	a.Config = cfg
	return nil
}

// connectPublisher sets up MQTT publishing when --mqtt is given
func (a *App) connectPublisher() error {
	if !a.opts.MqttMode {
		return nil
	}
	client, resolved, err := drift.ConnectMQTT(a.Config.MQTT)
	if err != nil {
		return err
	}
	if client == nil {
		return nil
	}
	a.Publisher = drift.NewPublisher(client, resolved.PublishPrefix)
	return nil
}

// RunSummary parses every input file and prints per-scene counts
func (a *App) RunSummary() error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	opts, err := drift.ParseOptionsFromConfig(a.Config)
	if err != nil {
		return err
	}
	files, err := drift.ListInputFiles(a.Config.Input.Path)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.Out, "Found %d drift file(s)\n\n", len(files))
	for _, path := range files {
		fmt.Fprintf(a.Out, "=== %s ===\n", filepath.Base(path))
		obs, err := drift.ReadObservations(context.Background(), path, opts)
		if err != nil {
			if errors.Is(err, drift.ErrSchema) {
				return err
			}
			fmt.Fprintf(a.Out, "ERROR: %v\n\n", err)
			continue
		}
		scenes, err := drift.GroupScenes(obs)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "Observations: %d, Scenes: %d\n", len(obs), len(scenes))
		for _, s := range scenes {
			fmt.Fprintf(a.Out, "  [%d] %s / %s: %d\n", s.ID, s.Key.File1, s.Key.File2, s.Len())
		}
		fmt.Fprintln(a.Out)
	}
	return nil
}

// RunProcess converts every input file and classifies outliers
func (a *App) RunProcess() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.process(ctx)
}

func (a *App) process(ctx context.Context) error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	if err := a.connectPublisher(); err != nil {
		return err
	}

	files, err := drift.ListInputFiles(a.Config.Input.Path)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .txt or .csv drift files in %s", a.Config.Input.Path)
	}

	p, err := newProcessor(a.Config, a.Metrics)
	if err != nil {
		return err
	}
	p.publisher = a.Publisher

	fmt.Fprintf(a.Out, "Processing %d drift file(s) -> %s\n", len(files), a.Config.Output.Dir)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := p.processFile(ctx, path)
		if err != nil {
			if errors.Is(err, drift.ErrSchema) || errors.Is(err, context.Canceled) {
				return err
			}
			fmt.Fprintf(a.Out, "ERROR %s: %v\n", filepath.Base(path), err)
			continue
		}
		if res == nil {
			fmt.Fprintf(a.Out, "SKIP  %s: below %d observations\n", filepath.Base(path), a.Config.Input.MinObservations)
			continue
		}
		a.Store.Put(res)
		printSummary(a.Out, res.Summary)
	}
	return nil
}

// RunService processes the input then serves results over HTTP until
// SIGINT or SIGTERM
func (a *App) RunService() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.process(ctx); err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", a.opts.HttpPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           newHTTPServer(a.Store, a.Registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[HTTP] Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func printSummary(w io.Writer, s *drift.RunSummary) {
	fmt.Fprintf(w, "OK    %s: %d observations, %d scenes, %d outliers [", s.Name, s.Observations, len(s.Scenes), s.Outliers)
	first := true
	for _, c := range drift.AllCategories {
		if n := s.Categories[c]; n > 0 {
			if !first {
				fmt.Fprint(w, " ")
			}
			fmt.Fprintf(w, "%s=%d", c, n)
			first = false
		}
	}
	fmt.Fprintln(w, "]")
}
