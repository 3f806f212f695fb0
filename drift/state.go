package drift

import (
	"sort"
	"sync"

	"github.com/paulmach/orb/geojson"
)

// RunResult holds the artifacts of one processed drift file
type RunResult struct {
	Summary *RunSummary
	Points  *geojson.FeatureCollection
	Lines   *geojson.FeatureCollection
}

// ResultStore keeps the latest result per drift file for HTTP endpoints
type ResultStore struct {
	mu     sync.RWMutex
	runs   map[string]*RunResult
	latest string
}

// NewResultStore creates an empty store
func NewResultStore() *ResultStore {
	return &ResultStore{
		runs: make(map[string]*RunResult),
	}
}

// Put stores or replaces the result named by its summary
func (s *ResultStore) Put(r *RunResult) {
	if r == nil || r.Summary == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.Summary.Name] = r
	s.latest = r.Summary.Name
}

// Get returns the result for a name
func (s *ResultStore) Get(name string) (*RunResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[name]
	return r, ok
}

// Latest returns the most recently stored result
func (s *ResultStore) Latest() (*RunResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[s.latest]
	return r, ok
}

// Summaries returns every stored summary sorted by name
func (s *ResultStore) Summaries() []*RunSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*RunSummary, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r.Summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// HasResults reports whether any result is stored
func (s *ResultStore) HasResults() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs) > 0
}
