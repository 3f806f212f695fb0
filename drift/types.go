package drift

import (
	"math"
	"time"
)

// Observation is one SAR ice drift vector: a tracked pixel moving from
// (Lat1, Lon1) at Time1 to (Lat2, Lon2) at Time2.
type Observation struct {
	Row int `json:"row"` // 0-based position in the parsed table

	File1 string `json:"file1"`
	File2 string `json:"file2"`
	Sat1  string `json:"sat1"`
	Sat2  string `json:"sat2"`

	Lat1 float64 `json:"lat1"`
	Lon1 float64 `json:"lon1"`
	Lat2 float64 `json:"lat2"`
	Lon2 float64 `json:"lon2"`

	// Projected coordinates in meters (EPSG:3413 polar stereographic)
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`

	Time1 time.Time `json:"time1"`
	Time2 time.Time `json:"time2"`

	UVelMS     float64 `json:"uVelMs"`
	VVelMS     float64 `json:"vVelMs"`
	UKmDay     float64 `json:"uKmDay"`
	VKmDay     float64 `json:"vKmDay"`
	SpeedKmDay float64 `json:"speedKmDay"`
	BearingDeg float64 `json:"bearingDeg"` // clockwise from north, 0-360
	DistanceKm float64 `json:"distanceKm"`

	Scene    int      `json:"scene"` // 1-based scene ID, 0 until grouped
	Category Category `json:"outlierCategory"`

	// Diagnostics from the last classification pass. NaN when not computed.
	NeighborCount int     `json:"neighborCount"`
	DistanceZ     float64 `json:"distanceZ"`
	BearingZ      float64 `json:"bearingZ"`
	MahalanobisSq float64 `json:"mahalanobisSq"`
}

// Duration returns the time between the two acquisitions
func (o *Observation) Duration() time.Duration {
	return o.Time2.Sub(o.Time1)
}

// SceneKey returns the (File1, File2) pair that identifies the observation's scene
func (o *Observation) SceneKey() SceneKey {
	return SceneKey{File1: o.File1, File2: o.File2}
}

// resetDiagnostics clears per-pass statistics before a new classification
func (o *Observation) resetDiagnostics() {
	o.NeighborCount = 0
	o.DistanceZ = math.NaN()
	o.BearingZ = math.NaN()
	o.MahalanobisSq = math.NaN()
}

// Method selects the outlier classifier
type Method string

const (
	MethodZScore      Method = "sd"
	MethodMahalanobis Method = "md"
)

// OutlierConfig holds the outlier detection settings
type OutlierConfig struct {
	Enabled                 bool    `yaml:"enabled" json:"enabled"`
	Type                    Method  `yaml:"type" json:"type"`
	ZScoreDistanceThreshold float64 `yaml:"zscoreDistanceThreshold" json:"zscoreDistanceThreshold"`
	ZScoreBearingThreshold  float64 `yaml:"zscoreBearingThreshold" json:"zscoreBearingThreshold"`
	MahalanobisAlpha        float64 `yaml:"mahalanobisAlpha" json:"mahalanobisAlpha"`
	RadiusKm                float64 `yaml:"radiusKm" json:"radiusKm"`
	MinNeighbors            int     `yaml:"minNeighbors" json:"minNeighbors"`
	Iterative               bool    `yaml:"iterative" json:"iterative"`
	MaxIterations           *int    `yaml:"maxIterations,omitempty" json:"maxIterations,omitempty"` // nil means default (1)
	Workers                 int     `yaml:"workers,omitempty" json:"workers,omitempty"`             // 0 means runtime.NumCPU()
}

// GetMaxIterations returns the configured extra pass limit or the default
func (c *OutlierConfig) GetMaxIterations() int {
	if c.MaxIterations != nil {
		return *c.MaxIterations
	}
	return DefaultMaxIterations
}

// InputConfig describes where and how drift files are read
type InputConfig struct {
	Path            string `yaml:"path" json:"path"`
	Delimiter       string `yaml:"delimiter" json:"delimiter"`
	SkipRows        int    `yaml:"skipRows" json:"skipRows"`
	MinObservations int    `yaml:"minObservations" json:"minObservations"`
}

// OutputConfig describes which artifacts are written
type OutputConfig struct {
	Dir       string `yaml:"dir" json:"dir"`
	Precision int    `yaml:"precision" json:"precision"`
	GeoJSON   bool   `yaml:"geojson" json:"geojson"`
	CSV       bool   `yaml:"csv" json:"csv"`
}

// MQTTConfig holds MQTT connection settings
type MQTTConfig struct {
	Broker        string `yaml:"broker" json:"broker"`
	PublishPrefix string `yaml:"publishPrefix" json:"publishPrefix"`
	ClientID      string `yaml:"clientId" json:"clientId"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}

// Config represents the full configuration file
type Config struct {
	Input   InputConfig   `yaml:"input" json:"input"`
	Output  OutputConfig  `yaml:"output" json:"output"`
	Outlier OutlierConfig `yaml:"outlier" json:"outlier"`
	MQTT    MQTTConfig    `yaml:"mqtt" json:"mqtt"`
}
