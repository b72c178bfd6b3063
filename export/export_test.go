package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"meshlog/mesh"
	"meshlog/parser"
	"meshlog/stats"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

const sampleLog = `[10:00:00] Sensor Status received from 0x0012 Hops: 1 Delay: 100ms Temperature: 21 Humidity: 65.5
[10:00:01] Relaying message from 0x0034
Sensor Status received from 0x0034 Hops: 2 Delay: 240ms Temperature: 19.25 Humidity: 70
[10:00:03] E (12) MESH: publish FAILED
`

func sampleRun(t *testing.T) (parser.Result, stats.Summary) {
	t.Helper()
	clock := func() time.Time { return time.Date(2025, 11, 4, 12, 0, 0, 0, time.UTC) }
	res, err := parser.Collect(strings.NewReader(sampleLog), clock)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	sum, err := stats.Compute(res.Events, res.Relays)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	return res, sum
}

func TestWriteCSV(t *testing.T) {
	res, _ := sampleRun(t)
	var buf bytes.Buffer
	if err := WriteCSV(&buf, res.Events); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "timestamp,line,node,hops,delay_ms,temperature,humidity" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if strings.Join(rows[1], ",") != "10:00:00,1,0x0012,1,100,21.0,65.5" {
		t.Fatalf("unexpected first row %v", rows[1])
	}
	if strings.Join(rows[2], ",") != "12:00:00,3,0x0034,2,240,19.25,70.0" {
		t.Fatalf("unexpected second row %v", rows[2])
	}
}

func TestWriteCSVFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "mesh_data.csv")
	if err := WriteCSVFile(path, []mesh.SensorEvent{{Timestamp: "01:00:00", Line: 1, Node: "0x1"}}); err != nil {
		t.Fatalf("write csv file: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.HasPrefix(string(data), "timestamp,line,node") {
		t.Fatalf("unexpected csv content %q", data)
	}
}

func TestSummaryJSON(t *testing.T) {
	res, sum := sampleRun(t)
	s := NewSummary("gateway.log", time.Date(2025, 11, 4, 12, 30, 0, 0, time.UTC), res, sum)
	if s.InferredTime != 1 || s.ErrorCount != 1 {
		t.Fatalf("unexpected summary counters %+v", s)
	}
	path := filepath.Join(t.TempDir(), "summary.json")
	if err := WriteSummaryFile(path, s); err != nil {
		t.Fatalf("write summary: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["generated_at"] != "2025-11-04T12:30:00Z" || decoded["log_file"] != "gateway.log" {
		t.Fatalf("unexpected header fields %v", decoded)
	}
	statsDoc, ok := decoded["stats"].(map[string]any)
	if !ok || statsDoc["messages"] != float64(2) {
		t.Fatalf("unexpected stats %v", decoded["stats"])
	}
	tally, ok := decoded["relay_tally"].(map[string]any)
	if !ok || tally["0x0034"] != float64(1) {
		t.Fatalf("unexpected relay tally %v", decoded["relay_tally"])
	}
	if len(decoded["input_digest"].(string)) != 16 {
		t.Fatalf("expected 16 hex digit digest, got %v", decoded["input_digest"])
	}
}

func TestSummaryEmptyErrorsEncodeAsArray(t *testing.T) {
	res, sum := sampleRun(t)
	res.Errors = nil
	data, err := MarshalSummary(NewSummary("x", time.Now(), res, sum))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Contains(data, []byte(`"errors": []`)) {
		t.Fatalf("expected empty error array in %s", data)
	}
}

func TestRunMetrics(t *testing.T) {
	res, sum := sampleRun(t)
	m := NewRunMetrics()
	m.Observe(res, sum)
	if got := testutil.ToFloat64(m.lines); got != 4 {
		t.Fatalf("expected 4 lines, got %v", got)
	}
	if got := testutil.ToFloat64(m.events); got != 2 {
		t.Fatalf("expected 2 events, got %v", got)
	}
	if got := testutil.ToFloat64(m.relayed); got != 1 {
		t.Fatalf("expected 1 relayed message, got %v", got)
	}
	if got := testutil.ToFloat64(m.quality.WithLabelValues("both")); got != 1 {
		t.Fatalf("expected both-ok ratio 1, got %v", got)
	}

	path := filepath.Join(t.TempDir(), "meshlog.prom")
	if err := m.WriteFile(path); err != nil {
		t.Fatalf("write metrics: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	for _, want := range []string{
		"meshlog_input_lines_total 4",
		"meshlog_error_lines_total 1",
		`meshlog_node_messages{node="0x0012"} 1`,
		"meshlog_delivery_delay_ms_count 2",
	} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("expected %q in metrics:\n%s", want, data)
		}
	}
}
