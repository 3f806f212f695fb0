package drift

import (
	"fmt"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ObservationPoints builds a FeatureCollection with one Point per observation
// at its projected start position (EPSG:3413 meters)
func ObservationPoints(obs []Observation) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := range obs {
		o := &obs[i]
		f := geojson.NewFeature(orb.Point{o.X1, o.Y1})
		f.ID = o.Row
		f.Properties = observationProperties(o)
		fc.Append(f)
	}
	return fc
}

// ObservationLines builds a FeatureCollection with one LineString per
// observation from its start to its end position
func ObservationLines(obs []Observation) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := range obs {
		o := &obs[i]
		f := geojson.NewFeature(orb.LineString{{o.X1, o.Y1}, {o.X2, o.Y2}})
		f.ID = o.Row
		f.Properties = observationProperties(o)
		fc.Append(f)
	}
	return fc
}

func observationProperties(o *Observation) geojson.Properties {
	props := geojson.Properties{
		"scene":            o.Scene,
		"file1":            o.File1,
		"file2":            o.File2,
		"bearingDeg":       o.BearingDeg,
		"speedKmDay":       o.SpeedKmDay,
		"distanceKm":       o.DistanceKm,
		"uKmDay":           o.UKmDay,
		"vKmDay":           o.VKmDay,
		"outlierCategory":  o.Category.String(),
		"neighborCount":    o.NeighborCount,
		"statisticallyFit": o.Category.Confident(),
	}
	if !o.Time1.IsZero() {
		props["date1"] = formatTime(o.Time1)
	}
	if !o.Time2.IsZero() {
		props["date2"] = formatTime(o.Time2)
	}
	// JSON has no NaN
	for key, v := range map[string]float64{
		"distanceZ":     o.DistanceZ,
		"bearingZ":      o.BearingZ,
		"mahalanobisSq": o.MahalanobisSq,
	} {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			props[key] = v
		}
	}
	return props
}

// WriteGeoJSON marshals fc to path
func WriteGeoJSON(path string, fc *geojson.FeatureCollection) error {
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshaling GeoJSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// SceneBound returns the extent of a scene's start positions
func SceneBound(obs []Observation, scene Scene) orb.Bound {
	mp := make(orb.MultiPoint, len(scene.Rows))
	for i, row := range scene.Rows {
		mp[i] = orb.Point{obs[row].X1, obs[row].Y1}
	}
	return mp.Bound()
}
