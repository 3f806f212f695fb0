package drift

import (
	"sort"
	"time"

	"github.com/paulmach/orb"
)

// SceneSummary describes one classified scene
type SceneSummary struct {
	ID           int          `json:"id"`
	File1        string       `json:"file1"`
	File2        string       `json:"file2"`
	Observations int          `json:"observations"`
	Outliers     int          `json:"outliers"`
	Bound        [4]float64   `json:"bound"` // minX, minY, maxX, maxY in meters
	Passes       []PassRecord `json:"passes"`
}

// RunSummary describes one processed drift file
type RunSummary struct {
	Name         string           `json:"name"`
	Source       string           `json:"source"`
	Method       Method           `json:"method"`
	Iterative    bool             `json:"iterative"`
	Observations int              `json:"observations"`
	Outliers     int              `json:"outliers"`
	Categories   map[Category]int `json:"categories"`
	Scenes       []SceneSummary   `json:"scenes"`
	ProcessedAt  time.Time        `json:"processedAt"`
}

// Summarize builds a RunSummary from a classified table
func Summarize(name, source string, cfg OutlierConfig, obs []Observation, det *Detection) *RunSummary {
	s := &RunSummary{
		Name:         name,
		Source:       source,
		Method:       cfg.Type,
		Iterative:    cfg.Iterative,
		Observations: len(obs),
		Categories:   make(map[Category]int),
		ProcessedAt:  time.Now().UTC(),
	}

	for i := range obs {
		c := obs[i].Category
		if c.Valid() {
			s.Categories[c]++
		}
		if c.Valid() && !c.IsInlier() {
			s.Outliers++
		}
	}

	if det == nil {
		return s
	}
	for i, scene := range det.Scenes {
		ss := SceneSummary{
			ID:           scene.ID,
			File1:        scene.Key.File1,
			File2:        scene.Key.File2,
			Observations: scene.Len(),
			Bound:        boundArray(SceneBound(obs, scene)),
		}
		if i < len(det.Passes) {
			ss.Passes = det.Passes[i]
		}
		for _, row := range scene.Rows {
			if c := obs[row].Category; c.Valid() && !c.IsInlier() {
				ss.Outliers++
			}
		}
		s.Scenes = append(s.Scenes, ss)
	}
	sort.Slice(s.Scenes, func(i, j int) bool { return s.Scenes[i].ID < s.Scenes[j].ID })
	return s
}

func boundArray(b orb.Bound) [4]float64 {
	return [4]float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
}
