package drift

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"
)

// formattedHeader is the column order of the formatted CSV
var formattedHeader = []string{
	"scene", "File1", "File2", "Sat1", "Sat2",
	"Date1", "Date2", "JS_Duration",
	"Lat1", "Lon1", "Lat2", "Lon2",
	"X1", "Y1", "X2", "Y2", "dx", "dy",
	"U_vel_ms", "V_vel_ms", "U_kmdy", "V_kmdy", "speed_kmdy",
	"Bear_deg", "total_distance_km",
	"outlier_category", "neighbor_count",
	"distance_z_score", "bearing_z_score", "mahalanobis_sq",
}

// WriteFormattedCSV writes the enriched observation table. Every row is
// written regardless of its category.
func WriteFormattedCSV(w io.Writer, obs []Observation, precision int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(formattedHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	num := func(v float64) string { return formatFloat(v, precision) }
	for i := range obs {
		o := &obs[i]
		record := []string{
			strconv.Itoa(o.Scene), o.File1, o.File2, o.Sat1, o.Sat2,
			formatTime(o.Time1), formatTime(o.Time2), num(o.Duration().Seconds()),
			num(o.Lat1), num(o.Lon1), num(o.Lat2), num(o.Lon2),
			num(o.X1), num(o.Y1), num(o.X2), num(o.Y2), num(o.DX), num(o.DY),
			formatFloat(o.UVelMS, -1), formatFloat(o.VVelMS, -1), num(o.UKmDay), num(o.VKmDay), num(o.SpeedKmDay),
			num(o.BearingDeg), num(o.DistanceKm),
			o.Category.String(), strconv.Itoa(o.NeighborCount),
			num(o.DistanceZ), num(o.BearingZ), num(o.MahalanobisSq),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", o.Row, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFormattedCSVFile writes the formatted CSV to path
func WriteFormattedCSVFile(path string, obs []Observation, precision int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteFormattedCSV(f, obs, precision); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// formatFloat renders v with the given decimals (-1 for shortest). NaN is empty.
func formatFloat(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateTime)
}
