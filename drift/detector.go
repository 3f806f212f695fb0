package drift

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Detector runs scene-grouped outlier detection over an observation table
type Detector struct {
	cfg        OutlierConfig
	classifier Classifier
	metrics    *Metrics
}

// Detection is the outcome of one Detect call. Passes is parallel to Scenes.
type Detection struct {
	Scenes []Scene
	Passes [][]PassRecord
}

// NewDetector validates cfg as given and builds its classifier. Zero
// thresholds or radius are rejected, not defaulted. metrics may be nil.
func NewDetector(cfg OutlierConfig, metrics *Metrics) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	clf, err := NewClassifier(cfg)
	if err != nil {
		return nil, err
	}
	return &Detector{cfg: cfg, classifier: clf, metrics: metrics}, nil
}

// Config returns the validated configuration
func (d *Detector) Config() OutlierConfig {
	return d.cfg
}

// Detect clears any previous categories, groups obs into scenes and
// classifies every scene. Scenes run concurrently; each worker writes only
// the rows of its own scene. No rows are added or removed.
func (d *Detector) Detect(ctx context.Context, obs []Observation) (*Detection, error) {
	for i := range obs {
		obs[i].Category = CategoryUnset
		obs[i].resetDiagnostics()
	}

	scenes, err := GroupScenes(obs)
	if err != nil {
		return nil, err
	}

	radiusM := KmToMeters(d.cfg.RadiusKm)
	passes := make([][]PassRecord, len(scenes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.WorkerCount())
	for i, scene := range scenes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			state := NewIterationState(scene, d.cfg.Iterative, d.cfg.GetMaxIterations())
			passes[i] = state.Run(obs, d.classifier, radiusM)

			if d.metrics != nil {
				d.metrics.ScenesProcessed.Inc()
				d.metrics.PassesPerScene.Observe(float64(len(passes[i])))
				d.metrics.SceneDuration.Observe(time.Since(start).Seconds())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("detecting outliers: %w", err)
	}

	if d.metrics != nil {
		d.metrics.ObservationsProcessed.Add(float64(len(obs)))
		for i := range obs {
			d.metrics.Categories.WithLabelValues(obs[i].Category.String()).Inc()
		}
	}

	return &Detection{Scenes: scenes, Passes: passes}, nil
}
