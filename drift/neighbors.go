package drift

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/quadtree"
)

// MetersPerKm converts the configured search radius to projected units
const MetersPerKm = 1000.0

// KmToMeters converts kilometers to meters
func KmToMeters(km float64) float64 {
	return km * MetersPerKm
}

// poolPoint is a quadtree entry that remembers its position in the pool
type poolPoint struct {
	p   orb.Point
	idx int
}

func (pp poolPoint) Point() orb.Point { return pp.p }

// NeighborIndex answers radius queries over one pool of projected points.
// It is built fresh for every (scene, pass) and never updated in place.
type NeighborIndex struct {
	points []orb.Point
	tree   *quadtree.Quadtree
}

// NewNeighborIndex indexes the given points. Indices returned by Within refer
// to positions in this slice.
func NewNeighborIndex(points []orb.Point) *NeighborIndex {
	idx := &NeighborIndex{points: points}
	if len(points) == 0 {
		return idx
	}

	bound := orb.MultiPoint(points).Bound()
	idx.tree = quadtree.New(bound)
	for i, p := range points {
		// Add only fails for points outside the bound, which cannot happen here
		_ = idx.tree.Add(poolPoint{p: p, idx: i})
	}
	return idx
}

// Len returns the number of indexed points
func (n *NeighborIndex) Len() int {
	return len(n.points)
}

// Within returns the indices of points within radiusM meters of p, sorted
// ascending. self is excluded; pass -1 when p is not a pool member. Pools with
// fewer than two points have no neighbors.
func (n *NeighborIndex) Within(p orb.Point, self int, radiusM float64) []int {
	if n.tree == nil || len(n.points) < 2 || radiusM < 0 {
		return nil
	}

	query := orb.Bound{
		Min: orb.Point{p[0] - radiusM, p[1] - radiusM},
		Max: orb.Point{p[0] + radiusM, p[1] + radiusM},
	}
	candidates := n.tree.InBound(nil, query)

	result := make([]int, 0, len(candidates))
	for _, c := range candidates {
		pp := c.(poolPoint)
		if pp.idx == self {
			continue
		}
		if planar.Distance(p, pp.p) <= radiusM {
			result = append(result, pp.idx)
		}
	}
	sort.Ints(result)
	return result
}
