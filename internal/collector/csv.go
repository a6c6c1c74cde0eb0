// internal/collector/csv.go
package collector

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/tamzrod/telemetry-emitter/internal/reading"
)

// CSVHeader is the first row written by a CSVSink.
var CSVHeader = []string{
	"timestamp",
	"lat", "lon",
	"accel_x", "accel_y", "accel_z",
	"gyro_x", "gyro_y", "gyro_z",
	"mag_x", "mag_y", "mag_z",
	"force", "linear", "string",
}

// CSVSink appends one row per reading. Safe for use from several connections.
type CSVSink struct {
	mu sync.Mutex
	w  *csv.Writer
}

// NewCSVSink writes the header row and returns the sink.
func NewCSVSink(w io.Writer) (*CSVSink, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return nil, fmt.Errorf("collector csv: header: %w", err)
	}
	return &CSVSink{w: cw}, nil
}

// Write appends r. Rows are buffered until Flush.
func (s *CSVSink) Write(r reading.Reading) error {
	row := []string{
		reading.FormatTimestamp(r.Timestamp),
		formatFloat(r.GPS.Lat), formatFloat(r.GPS.Lon),
		formatFloat(r.Accel.X), formatFloat(r.Accel.Y), formatFloat(r.Accel.Z),
		formatFloat(r.Gyro.X), formatFloat(r.Gyro.Y), formatFloat(r.Gyro.Z),
		formatFloat(r.Mag.X), formatFloat(r.Mag.Y), formatFloat(r.Mag.Z),
		strconv.FormatUint(uint64(r.Force), 10),
		strconv.FormatUint(uint64(r.Linear), 10),
		strconv.FormatUint(uint64(r.String), 10),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("collector csv: write: %w", err)
	}
	return nil
}

// Flush writes buffered rows to the underlying writer.
func (s *CSVSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	return s.w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
