package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/kwv/icedrift/drift"
)

// Output subdirectories
const (
	formattedDir = "formatted_data"
	geojsonDir   = "geojson"
)

// processor runs the per-file pipeline: parse, detect, write, publish
type processor struct {
	cfg       *drift.Config
	parseOpts drift.ParseOptions
	detector  *drift.Detector
	metrics   *drift.Metrics
	publisher *drift.Publisher
}

func newProcessor(cfg *drift.Config, metrics *drift.Metrics) (*processor, error) {
	parseOpts, err := drift.ParseOptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	detector, err := drift.NewDetector(cfg.Outlier, metrics)
	if err != nil {
		return nil, err
	}

	for _, dir := range []string{formattedDir, geojsonDir} {
		if err := os.MkdirAll(filepath.Join(cfg.Output.Dir, dir), 0755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}

	return &processor{
		cfg:       cfg,
		parseOpts: parseOpts,
		detector:  detector,
		metrics:   metrics,
	}, nil
}

// processFile handles one drift file. It returns nil and no error when the
// file has fewer rows than input.minObservations.
func (p *processor) processFile(ctx context.Context, path string) (*drift.RunResult, error) {
	res, err := p.processFileInner(ctx, path)
	if p.metrics != nil {
		switch {
		case err != nil:
			p.metrics.FilesProcessed.WithLabelValues("failed").Inc()
		case res == nil:
			p.metrics.FilesProcessed.WithLabelValues("skipped").Inc()
		default:
			p.metrics.FilesProcessed.WithLabelValues("processed").Inc()
		}
	}
	return res, err
}

func (p *processor) processFileInner(ctx context.Context, path string) (*drift.RunResult, error) {
	obs, err := drift.ReadObservations(ctx, path, p.parseOpts)
	if err != nil {
		return nil, err
	}
	if len(obs) < p.cfg.Input.MinObservations {
		log.Printf("Skipping %s with %d observations", filepath.Base(path), len(obs))
		return nil, nil
	}

	var det *drift.Detection
	if p.cfg.Outlier.Enabled {
		det, err = p.detector.Detect(ctx, obs)
		if err != nil {
			return nil, err
		}
	} else {
		scenes, err := drift.GroupScenes(obs)
		if err != nil {
			return nil, err
		}
		det = &drift.Detection{Scenes: scenes}
	}

	fileBase := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name, err := drift.OutputBaseName(obs)
	if err != nil {
		if !errors.Is(err, drift.ErrNoObservations) {
			return nil, err
		}
		name = fileBase
	}

	res := &drift.RunResult{
		Summary: drift.Summarize(name, path, p.cfg.Outlier, obs, det),
		Points:  drift.ObservationPoints(obs),
		Lines:   drift.ObservationLines(obs),
	}

	if p.cfg.Output.CSV {
		out := filepath.Join(p.cfg.Output.Dir, formattedDir, "formatted_"+fileBase+".csv")
		if err := drift.WriteFormattedCSVFile(out, obs, p.cfg.Output.Precision); err != nil {
			return nil, err
		}
	}
	if p.cfg.Output.GeoJSON {
		dir := filepath.Join(p.cfg.Output.Dir, geojsonDir)
		if err := drift.WriteGeoJSON(filepath.Join(dir, name+"_points.geojson"), res.Points); err != nil {
			return nil, err
		}
		if err := drift.WriteGeoJSON(filepath.Join(dir, name+"_lines.geojson"), res.Lines); err != nil {
			return nil, err
		}
	}

	if p.publisher != nil {
		if err := p.publisher.PublishRun(res.Summary); err != nil {
			log.Printf("[MQTT] Error publishing summary for %s: %v", name, err)
		} else if err := p.publisher.PublishGeoJSON(name, res.Points); err != nil {
			log.Printf("[MQTT] Error publishing GeoJSON for %s: %v", name, err)
		}
	}

	return res, nil
}
