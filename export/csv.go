// Package export writes analysis results to files for other tools: the
// sensor record table as CSV, the statistics as JSON, and run counters in
// the Prometheus text format.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"meshlog/mesh"
)

// CSVHeader is the column order of the record table.
var CSVHeader = []string{"timestamp", "line", "node", "hops", "delay_ms", "temperature", "humidity"}

// WriteCSV writes one header row and one row per event.
func WriteCSV(w io.Writer, events []mesh.SensorEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, ev := range events {
		row := []string{
			ev.Timestamp,
			strconv.Itoa(ev.Line),
			ev.Node,
			strconv.Itoa(ev.Hops),
			strconv.Itoa(ev.DelayMS),
			formatReading(ev.Temperature),
			formatReading(ev.Humidity),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile creates path (and its directory) and writes the record table.
func WriteCSVFile(path string, events []mesh.SensorEvent) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := WriteCSV(f, events); err != nil {
		f.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}

// formatReading keeps at least one decimal so whole readings stay recognizable
// as floats in downstream tools.
func formatReading(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}
