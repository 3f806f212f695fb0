package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
)

// Version is set at build time via -ldflags
var Version = "dev"

// AppOptions holds the parsed command line
type AppOptions struct {
	ConfigFile    string
	InputPath     string
	OutputDir     string
	OutlierType   string
	MaxIterations int // -1 keeps the configured value
	SinglePass    bool
	NoOutliers    bool
	SummaryOnly   bool
	MqttMode      bool
	HttpMode      bool
	HttpPort      int
}

// Runner is implemented by App; tests substitute a mock
type Runner interface {
	ApplyOptions(opts AppOptions)
	RunSummary() error
	RunProcess() error
	RunService() error
}

func run(args []string, out io.Writer, app Runner) error {
	fs := flag.NewFlagSet("icedrift", flag.ContinueOnError)
	fs.SetOutput(out)

	var opts AppOptions
	fs.StringVar(&opts.ConfigFile, "config", "config.yaml", "Path to configuration file")
	fs.StringVar(&opts.InputPath, "input", "", "Drift file or directory of drift files (overrides input.path)")
	fs.StringVar(&opts.OutputDir, "output-dir", "", "Output directory (overrides output.dir)")
	fs.StringVar(&opts.OutlierType, "outlier-type", "", "Outlier classifier: sd (z-score) or md (Mahalanobis)")
	fs.IntVar(&opts.MaxIterations, "max-iterations", -1, "Extra classification passes after the first (-1 uses config)")
	fs.BoolVar(&opts.SinglePass, "single-pass", false, "Disable iterative refinement")
	fs.BoolVar(&opts.NoOutliers, "no-outliers", false, "Skip outlier detection and only convert")
	fs.BoolVar(&opts.SummaryOnly, "summary-only", false, "Parse input, print per-scene counts and exit")
	fs.BoolVar(&opts.MqttMode, "mqtt", false, "Publish run summaries and GeoJSON to MQTT")
	fs.BoolVar(&opts.HttpMode, "http", false, "Serve results over HTTP after processing")
	fs.IntVar(&opts.HttpPort, "http-port", 8080, "HTTP server port")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Fprintf(out, "icedrift version: %s\n", Version)
	app.ApplyOptions(opts)

	switch {
	case opts.SummaryOnly:
		return app.RunSummary()
	case opts.HttpMode:
		return app.RunService()
	default:
		return app.RunProcess()
	}
}

func main() {
	if err := run(os.Args[1:], os.Stdout, NewApp()); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatal(err)
	}
}
