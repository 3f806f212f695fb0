package drift

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classifiedCluster(t *testing.T) []Observation {
	t.Helper()
	obs := table(clusterScene("a", "b")...)
	det, err := NewDetector(zscoreConfig(2, false, 0), nil)
	require.NoError(t, err)
	_, err = det.Detect(t.Context(), obs)
	require.NoError(t, err)
	return obs
}

func TestObservationPoints(t *testing.T) {
	obs := classifiedCluster(t)
	fc := ObservationPoints(obs)
	require.Len(t, fc.Features, len(obs))

	f := fc.Features[4]
	assert.Equal(t, orb.Point{500, 500}, f.Geometry)
	assert.Equal(t, 4, f.ID)
	assert.Equal(t, "11", f.Properties.MustString("outlierCategory"))
	assert.Equal(t, true, f.Properties.MustBool("statisticallyFit"))
	assert.Equal(t, 1, f.Properties.MustInt("scene"))
	assert.Contains(t, f.Properties, "distanceZ")
	assert.NotContains(t, f.Properties, "bearingZ", "NaN diagnostics are omitted")
	assert.NotContains(t, f.Properties, "date1")
}

func TestObservationLines(t *testing.T) {
	obs := classifiedCluster(t)
	fc := ObservationLines(obs)
	require.Len(t, fc.Features, len(obs))

	line, ok := fc.Features[0].Geometry.(orb.LineString)
	require.True(t, ok)
	assert.Equal(t, orb.Point{0, 0}, line[0])
	assert.InDelta(t, 1000, line[1][0], 1e-6)
	assert.InDelta(t, 0, line[1][1], 1e-6)
}

func TestWriteGeoJSON(t *testing.T) {
	obs := classifiedCluster(t)
	path := filepath.Join(t.TempDir(), "points.geojson")
	require.NoError(t, WriteGeoJSON(path, ObservationPoints(obs)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	assert.Len(t, fc.Features, len(obs))
}

func TestSceneBound(t *testing.T) {
	obs := classifiedCluster(t)
	scenes, err := GroupScenes(obs)
	require.NoError(t, err)

	b := SceneBound(obs, scenes[0])
	assert.Equal(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1000, 1000}}, b)
}
