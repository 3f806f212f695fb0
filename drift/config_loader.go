package drift

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults for omitted configuration keys
const (
	DefaultDelimiter               = ","
	DefaultMinObservations         = 1
	DefaultOutputDir               = "out"
	DefaultPrecision               = 3
	DefaultZScoreDistanceThreshold = 3.0
	DefaultZScoreBearingThreshold  = 3.0
	DefaultMahalanobisAlpha        = 0.025
	DefaultRadiusKm                = 25.0
	DefaultMinNeighbors            = 8
	DefaultMaxIterations           = 1
	DefaultPublishPrefix           = "icedrift"
	DefaultClientID                = "icedrift"
)

// DefaultConfig returns a configuration with every default applied
func DefaultConfig() *Config {
	cfg := &Config{
		Output: OutputConfig{GeoJSON: true, CSV: true},
		Outlier: OutlierConfig{
			Enabled:   true,
			Iterative: true,
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// LoadConfig loads the configuration from a YAML file over DefaultConfig and
// validates it. Omitted keys keep their defaults; explicit values, zeros
// included, are validated as given. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// ApplyDefaults fills zero-valued fields with their defaults
func (c *Config) ApplyDefaults() {
	if c.Input.Delimiter == "" {
		c.Input.Delimiter = DefaultDelimiter
	}
	if c.Input.MinObservations == 0 {
		c.Input.MinObservations = DefaultMinObservations
	}
	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutputDir
	}
	if c.Output.Precision == 0 {
		c.Output.Precision = DefaultPrecision
	}
	c.Outlier.ApplyDefaults()
	if c.MQTT.PublishPrefix == "" {
		c.MQTT.PublishPrefix = DefaultPublishPrefix
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = DefaultClientID
	}
}

// ApplyDefaults fills zero-valued outlier settings with their defaults
func (c *OutlierConfig) ApplyDefaults() {
	if c.Type == "" {
		c.Type = MethodZScore
	}
	if c.ZScoreDistanceThreshold == 0 {
		c.ZScoreDistanceThreshold = DefaultZScoreDistanceThreshold
	}
	if c.ZScoreBearingThreshold == 0 {
		c.ZScoreBearingThreshold = DefaultZScoreBearingThreshold
	}
	if c.MahalanobisAlpha == 0 {
		c.MahalanobisAlpha = DefaultMahalanobisAlpha
	}
	if c.RadiusKm == 0 {
		c.RadiusKm = DefaultRadiusKm
	}
	if c.MinNeighbors == 0 {
		c.MinNeighbors = DefaultMinNeighbors
	}
}

// Validate checks the whole configuration
func (c *Config) Validate() error {
	if c.Input.SkipRows < 0 {
		return fmt.Errorf("%w: input.skipRows = %d cannot be negative", ErrConfig, c.Input.SkipRows)
	}
	if c.Input.MinObservations < 1 {
		return fmt.Errorf("%w: input.minObservations = %d must be at least 1", ErrConfig, c.Input.MinObservations)
	}
	if _, err := c.Input.DelimiterRune(); err != nil {
		return err
	}
	if c.Output.Precision < 0 {
		return fmt.Errorf("%w: output.precision = %d cannot be negative", ErrConfig, c.Output.Precision)
	}
	return c.Outlier.Validate()
}

// Validate checks the outlier settings. Every error wraps ErrConfig.
func (c *OutlierConfig) Validate() error {
	switch c.Type {
	case MethodZScore, MethodMahalanobis:
	default:
		return fmt.Errorf("%w: outlier.type must be %q or %q, got %q", ErrConfig, MethodZScore, MethodMahalanobis, c.Type)
	}
	if !(c.ZScoreDistanceThreshold > 0) {
		return fmt.Errorf("%w: outlier.zscoreDistanceThreshold must be positive, got %v", ErrConfig, c.ZScoreDistanceThreshold)
	}
	if !(c.ZScoreBearingThreshold > 0) {
		return fmt.Errorf("%w: outlier.zscoreBearingThreshold must be positive, got %v", ErrConfig, c.ZScoreBearingThreshold)
	}
	if !(c.MahalanobisAlpha > 0 && c.MahalanobisAlpha < 1) {
		return fmt.Errorf("%w: outlier.mahalanobisAlpha must be in (0, 1), got %v", ErrConfig, c.MahalanobisAlpha)
	}
	if !(c.RadiusKm > 0) {
		return fmt.Errorf("%w: outlier.radiusKm must be positive, got %v", ErrConfig, c.RadiusKm)
	}
	if c.MinNeighbors < 1 {
		return fmt.Errorf("%w: outlier.minNeighbors must be at least 1, got %d", ErrConfig, c.MinNeighbors)
	}
	if c.GetMaxIterations() < 0 {
		return fmt.Errorf("%w: outlier.maxIterations cannot be negative, got %d", ErrConfig, c.GetMaxIterations())
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: outlier.workers cannot be negative, got %d", ErrConfig, c.Workers)
	}
	return nil
}

// WorkerCount returns the number of scenes processed concurrently
func (c *OutlierConfig) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// DelimiterRune decodes the configured delimiter, accepting escapes like "\t"
func (c *InputConfig) DelimiterRune() (rune, error) {
	d := c.Delimiter
	switch d {
	case `\t`, "\t", "tab":
		return '\t', nil
	case `\s`, "space":
		return ' ', nil
	}
	d = strings.TrimSpace(d)
	r := []rune(d)
	if len(r) != 1 || r[0] == '"' || r[0] == '\r' || r[0] == '\n' {
		return 0, fmt.Errorf("%w: input.delimiter must be a single character, got %q", ErrConfig, c.Delimiter)
	}
	return r[0], nil
}
