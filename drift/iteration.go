package drift

import "github.com/paulmach/orb"

// PassRecord summarizes one classification pass over a scene
type PassRecord struct {
	Pass     int `json:"pass"`
	PoolSize int `json:"poolSize"`
	Changed  int `json:"changed"`
	Outliers int `json:"outliers"`
}

// IterationState drives the classification passes of one scene.
//
// Pass 0 uses every scene row as the pool. Each later pass keeps only the
// rows of the previous pool whose category type is 0, so the pool never
// grows. Every row of the scene is reclassified on every pass. The machine
// stops after a pass that changes no category or once Pass exceeds MaxPass.
type IterationState struct {
	Scene     Scene
	Pass      int   // next pass to run
	MaxPass   int   // last pass allowed; 0 without iteration
	Pool      []int // table rows contributing to neighborhood statistics
	Changed   int   // categories changed by the last pass
	Converged bool  // the last pass changed nothing
	Done      bool
	History   []PassRecord
}

// NewIterationState prepares pass 0 for a scene
func NewIterationState(scene Scene, iterative bool, maxIterations int) *IterationState {
	maxPass := 0
	if iterative {
		maxPass = maxIterations
	}
	return &IterationState{
		Scene:   scene,
		MaxPass: maxPass,
		Pool:    append([]int(nil), scene.Rows...),
		Done:    scene.Len() == 0,
	}
}

// Step runs one pass over obs and reports whether another pass follows
func (s *IterationState) Step(obs []Observation, clf Classifier, radiusM float64) bool {
	if s.Done {
		return false
	}

	points := make([]orb.Point, len(s.Pool))
	poolPos := make(map[int]int, len(s.Pool))
	for i, row := range s.Pool {
		points[i] = orb.Point{obs[row].X1, obs[row].Y1}
		poolPos[row] = i
	}
	index := NewNeighborIndex(points)

	verdicts := make([]Verdict, len(s.Scene.Rows))
	for k, row := range s.Scene.Rows {
		self := -1
		if pos, ok := poolPos[row]; ok {
			self = pos
		}
		found := index.Within(orb.Point{obs[row].X1, obs[row].Y1}, self, radiusM)
		neighbors := make([]*Observation, len(found))
		for j, pos := range found {
			neighbors[j] = &obs[s.Pool[pos]]
		}
		verdicts[k] = clf.Classify(&obs[row], neighbors)
	}

	record := PassRecord{Pass: s.Pass, PoolSize: len(s.Pool)}
	for k, row := range s.Scene.Rows {
		if obs[row].Category != verdicts[k].Category {
			record.Changed++
		}
		verdicts[k].apply(&obs[row])
		if !obs[row].Category.IsInlier() {
			record.Outliers++
		}
	}
	s.History = append(s.History, record)
	s.Changed = record.Changed
	s.Converged = record.Changed == 0
	s.Pass++

	if s.Converged || s.Pass > s.MaxPass {
		s.Done = true
		return false
	}

	next := make([]int, 0, len(s.Pool))
	for _, row := range s.Pool {
		if obs[row].Category.IsInlier() {
			next = append(next, row)
		}
	}
	s.Pool = next
	return true
}

// Run steps until the machine is done and returns the pass history
func (s *IterationState) Run(obs []Observation, clf Classifier, radiusM float64) []PassRecord {
	for s.Step(obs, clf, radiusM) {
	}
	return s.History
}
