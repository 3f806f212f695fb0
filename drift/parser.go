package drift

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Input column names
const (
	ColFile1   = "File1"
	ColFile2   = "File2"
	ColX1      = "X1"
	ColY1      = "Y1"
	ColX2      = "X2"
	ColY2      = "Y2"
	ColBearing = "Bear_deg"
	ColUVel    = "U_vel_ms"
	ColVVel    = "V_vel_ms"
	ColLat1    = "Lat1"
	ColLon1    = "Lon1"
	ColLat2    = "Lat2"
	ColLon2    = "Lon2"
	ColTime1   = "Time1_JS"
	ColTime2   = "Time2_JS"
)

// RequiredColumns must be present in every drift file. Projected coordinates
// are expected upstream; the reader never projects lat/lon.
var RequiredColumns = []string{
	ColFile1, ColFile2, ColX1, ColY1, ColX2, ColY2, ColBearing, ColUVel, ColVVel,
}

// JulianEpoch is the zero of the Time*_JS columns
var JulianEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// secondsPerDay converts m/s to km/day together with the /1000
const secondsPerDay = 60 * 60 * 24

// ParseOptions controls how a drift file is read
type ParseOptions struct {
	Delimiter rune
	SkipRows  int // lines discarded before the header
	Precision int // decimals kept for lat/lon and distance
}

// ParseOptionsFromConfig derives reader options from the configuration
func ParseOptionsFromConfig(cfg *Config) (ParseOptions, error) {
	delim, err := cfg.Input.DelimiterRune()
	if err != nil {
		return ParseOptions{}, err
	}
	return ParseOptions{
		Delimiter: delim,
		SkipRows:  cfg.Input.SkipRows,
		Precision: cfg.Output.Precision,
	}, nil
}

// ParseObservationFile reads a delimited drift file
func ParseObservationFile(path string, opts ParseOptions) ([]Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening drift file: %w", err)
	}
	defer f.Close()

	obs, err := ParseObservations(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return obs, nil
}

// ParseObservations reads delimited drift rows with a header line. Rows with a
// zero bearing are dropped as known-bad. Derived fields (DX, DY, DistanceKm,
// UKmDay, VKmDay, SpeedKmDay, Sat1, Sat2, Time1, Time2) are filled in.
func ParseObservations(r io.Reader, opts ParseOptions) ([]Observation, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}

	br := bufio.NewReader(r)
	for i := 0; i < opts.SkipRows; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: file ended before header", ErrSchema)
			}
			return nil, fmt.Errorf("skipping preamble: %w", err)
		}
	}

	cr := csv.NewReader(br)
	cr.Comma = opts.Delimiter
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing header", ErrSchema)
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns: %s", ErrSchema, strings.Join(missing, ", "))
	}

	var obs []Observation
	line := 1 + opts.SkipRows
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}
		if isBlank(record) {
			continue
		}

		rec := row{cols: cols, fields: record, line: line}
		o, err := rec.observation(opts.Precision)
		if err != nil {
			return nil, err
		}
		if o.BearingDeg == 0 {
			continue
		}
		o.Row = len(obs)
		obs = append(obs, o)
	}

	return obs, nil
}

// row is one record addressed by column name
type row struct {
	cols   map[string]int
	fields []string
	line   int
}

func (r row) str(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r row) required(name string) (float64, error) {
	s := r.str(name)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: column %s: invalid number %q", r.line, name, s)
	}
	return v, nil
}

func (r row) optional(name string) float64 {
	v, err := strconv.ParseFloat(r.str(name), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func (r row) observation(precision int) (Observation, error) {
	o := Observation{
		File1: r.str(ColFile1),
		File2: r.str(ColFile2),
	}
	o.resetDiagnostics()

	var err error
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{ColX1, &o.X1}, {ColY1, &o.Y1}, {ColX2, &o.X2}, {ColY2, &o.Y2},
		{ColBearing, &o.BearingDeg}, {ColUVel, &o.UVelMS}, {ColVVel, &o.VVelMS},
	} {
		if *f.dst, err = r.required(f.name); err != nil {
			return Observation{}, err
		}
	}

	o.Lat1 = round(r.optional(ColLat1), precision)
	o.Lon1 = round(r.optional(ColLon1), precision)
	o.Lat2 = round(r.optional(ColLat2), precision)
	o.Lon2 = round(r.optional(ColLon2), precision)
	o.Time1 = julianTime(r.optional(ColTime1))
	o.Time2 = julianTime(r.optional(ColTime2))

	o.DX = o.X2 - o.X1
	o.DY = o.Y2 - o.Y1
	o.DistanceKm = round(math.Hypot(o.DX, o.DY)/MetersPerKm, precision)
	o.UKmDay = o.UVelMS * secondsPerDay / MetersPerKm
	o.VKmDay = o.VVelMS * secondsPerDay / MetersPerKm
	o.SpeedKmDay = math.Hypot(o.UKmDay, o.VKmDay)
	o.Sat1, _, _ = strings.Cut(o.File1, "_")
	o.Sat2, _, _ = strings.Cut(o.File2, "_")

	return o, nil
}

// julianTime converts seconds since 2000-01-01 to UTC. NaN yields zero time.
func julianTime(sec float64) time.Time {
	if math.IsNaN(sec) {
		return time.Time{}
	}
	return JulianEpoch.Add(time.Duration(math.Round(sec * float64(time.Second))))
}

// round rounds v to the given number of decimals
func round(v float64, decimals int) float64 {
	if math.IsNaN(v) || decimals < 0 {
		return v
	}
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

var pairTimeRE = regexp.MustCompile(`(\d{4}_\d{2}_\d{2}_\d{2}_\d{2}_\d{2})`)

// ParsePairTimes extracts the two acquisition timestamps embedded in a drift
// file name as YYYY_MM_DD_HH_MM_SS
func ParsePairTimes(name string) (time.Time, time.Time, error) {
	parts := pairTimeRE.FindAllString(filepath.Base(name), -1)
	if len(parts) < 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("expected 2 timestamps, found %d in: %s", len(parts), name)
	}
	t1, err := time.Parse("2006_01_02_15_04_05", parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing %q: %w", parts[0], err)
	}
	t2, err := time.Parse("2006_01_02_15_04_05", parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing %q: %w", parts[1], err)
	}
	return t1, t2, nil
}

// OutputBaseName names the artifacts of a table after its earliest start
// and latest end time: SIVelocity_SAR_{start}_{end}_v0
func OutputBaseName(obs []Observation) (string, error) {
	var start, end time.Time
	for i := range obs {
		if t := obs[i].Time1; !t.IsZero() && (start.IsZero() || t.Before(start)) {
			start = t
		}
		if t := obs[i].Time2; !t.IsZero() && t.After(end) {
			end = t
		}
	}
	if start.IsZero() || end.IsZero() {
		return "", fmt.Errorf("%w: no acquisition times to name output", ErrNoObservations)
	}
	const layout = "20060102_150405"
	return fmt.Sprintf("SIVelocity_SAR_%s_%s_v0", start.Format(layout), end.Format(layout)), nil
}

// ListInputFiles returns path itself, or every .txt and .csv file in it when
// path is a directory, sorted by name. URLs are returned as given.
func ListInputFiles(path string) ([]string, error) {
	if IsRemote(path) {
		return []string{path}, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("input path: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading input directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".txt", ".csv":
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
