package parser

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2025, 11, 4, 9, 30, 15, 0, time.UTC)
}

func sensorLine(ts, node string, hops, delay int, temp, hum string) string {
	prefix := ""
	if ts != "" {
		prefix = "[" + ts + "] "
	}
	return prefix + "I (1234) MESH: Sensor Status received from " + node +
		" | Hops: " + strconv.Itoa(hops) + " | Delay: " + strconv.Itoa(delay) + "ms | Temperature: " + temp +
		"°C | Humidity: " + hum + "%"
}

func TestExtractTimestamp(t *testing.T) {
	cases := []struct {
		line     string
		want     string
		inferred bool
	}{
		{"[12:34:56] Sensor Status received", "12:34:56", false},
		{"I (55) [07:00:01] relay", "07:00:01", false},
		{"no stamp here", "09:30:15", true},
		{"[1:2:3] short fields", "09:30:15", true},
	}
	for _, tc := range cases {
		got, inferred := ExtractTimestamp(tc.line, "09:30:15")
		if got != tc.want || inferred != tc.inferred {
			t.Fatalf("ExtractTimestamp(%q) = %q,%v want %q,%v", tc.line, got, inferred, tc.want, tc.inferred)
		}
	}
}

func TestClassifySensorLine(t *testing.T) {
	line := sensorLine("10:15:00", "0x0012", 2, 345, "22.5", "65.0")
	cls := Classify(line, 7, "00:00:00")
	if cls.Sensor == nil {
		t.Fatalf("expected sensor event from %q", line)
	}
	ev := *cls.Sensor
	if ev.Node != "0x0012" || ev.Hops != 2 || ev.DelayMS != 345 || ev.Line != 7 {
		t.Fatalf("unexpected event fields: %+v", ev)
	}
	if ev.Temperature != 22.5 || ev.Humidity != 65.0 {
		t.Fatalf("unexpected readings: %+v", ev)
	}
	if ev.Timestamp != "10:15:00" || ev.TimestampInferred {
		t.Fatalf("expected in-line timestamp, got %+v", ev)
	}
	if cls.Error != nil || cls.RelayNode != "" {
		t.Fatalf("sensor line should not produce relay or error: %+v", cls)
	}
}

func TestClassifySensorFloatForms(t *testing.T) {
	cases := []struct {
		temp, hum         string
		wantTemp, wantHum float64
	}{
		{"21", "60", 21, 60},
		{"-4.25", "55.5", -4.25, 55.5},
		{"+3.", ".5", 3, 0.5},
	}
	for _, tc := range cases {
		cls := Classify(sensorLine("", "0xBEEF", 0, 0, tc.temp, tc.hum), 1, "01:02:03")
		if cls.Sensor == nil {
			t.Fatalf("expected match for temp=%s hum=%s", tc.temp, tc.hum)
		}
		if cls.Sensor.Temperature != tc.wantTemp || cls.Sensor.Humidity != tc.wantHum {
			t.Fatalf("temp=%s hum=%s parsed as %v/%v", tc.temp, tc.hum, cls.Sensor.Temperature, cls.Sensor.Humidity)
		}
		if !cls.Sensor.TimestampInferred || cls.Sensor.Timestamp != "01:02:03" {
			t.Fatalf("expected fallback timestamp, got %+v", cls.Sensor)
		}
	}
}

func TestClassifyMalformedSensorLinesAreSkipped(t *testing.T) {
	lines := []string{
		"Sensor Status received from 0x0012 Hops: 1 Delay: 100ms Temperature: 21.0",
		"Sensor Status received from 0x0012 Delay: 100ms Temperature: 21.0 Humidity: 60",
		"Sensor Status received from node12 Hops: 1 Delay: 100ms Temperature: 21.0 Humidity: 60",
		"Sensor Status received from 0x0012 Hops: -1 Delay: 100ms Temperature: 21.0 Humidity: 60",
		"Sensor Status received from 0x0012 Hops: 1 Delay: 99999999999999999999999ms Temperature: 21.0 Humidity: 60",
		"Sensor Status received from 0x0012 Hops: 1 Delay: 9223372036854775807ms Temperature: 21.0 Humidity: 60",
		"Sensor Status received from 0x0012 Hops: 1 Delay: 2147483648ms Temperature: 21.0 Humidity: 60",
		"Sensor Status received from 0x0012 Hops: 4294967296 Delay: 10ms Temperature: 21.0 Humidity: 60",
		"Sensor Status received",
	}
	for _, line := range lines {
		cls := Classify(line, 3, "00:00:00")
		if !cls.Empty() {
			t.Fatalf("expected no records for %q, got %+v", line, cls)
		}
	}
}

func TestClassifyAcceptsLargestDelay(t *testing.T) {
	cls := Classify("Sensor Status received from 0x0012 Hops: 1 Delay: 2147483647ms Temperature: 21.0 Humidity: 60", 1, "")
	if cls.Sensor == nil || cls.Sensor.DelayMS != 2147483647 {
		t.Fatalf("expected 32-bit delay to parse, got %+v", cls.Sensor)
	}
}

func TestClassifyErrorAndSensorOnSameLine(t *testing.T) {
	line := "  " + sensorLine("08:00:00", "0x0012", 1, 100, "20.0", "61.0") + " ERROR: ack timeout  "
	cls := Classify(line, 4, "00:00:00")
	if cls.Sensor == nil {
		t.Fatalf("expected sensor event")
	}
	if cls.Error == nil {
		t.Fatalf("expected error record")
	}
	if cls.Error.Line != 4 || cls.Error.Message != strings.TrimSpace(line) {
		t.Fatalf("unexpected error record: %+v", cls.Error)
	}
}

func TestClassifyErrorMarkersAreCaseSensitive(t *testing.T) {
	if Classify("provisioning FAILED for 0x0040", 1, "").Error == nil {
		t.Fatalf("FAILED should be recorded")
	}
	if Classify("E (10) BLE: ERROR_TIMEOUT", 1, "").Error == nil {
		t.Fatalf("ERROR substring should be recorded")
	}
	if Classify("error: lowercase is not a marker", 1, "").Error != nil {
		t.Fatalf("lowercase error must not match")
	}
}

func TestClassifyRelay(t *testing.T) {
	cls := Classify("[10:00:00] Relaying message from 0x0034 to 0x0001 (TTL 4)", 2, "")
	if cls.RelayNode != "0x0034" {
		t.Fatalf("expected relay node 0x0034, got %q", cls.RelayNode)
	}
	if Classify("Relaying message to gateway", 2, "").RelayNode != "" {
		t.Fatalf("relay marker without address must be skipped")
	}
	if Classify("Message from 0x0034 received", 2, "").RelayNode != "" {
		t.Fatalf("address without relay marker must be skipped")
	}
}

func TestClassifyStripsANSI(t *testing.T) {
	plain := sensorLine("11:11:11", "0x00A1", 3, 250, "19.5", "68.2")
	colored := "\x1b[0;32m" + plain + "\x1b[0m\r"
	a := Classify(plain, 1, "")
	b := Classify(colored, 1, "")
	if a.Sensor == nil || b.Sensor == nil {
		t.Fatalf("expected both lines to parse")
	}
	if *a.Sensor != *b.Sensor {
		t.Fatalf("colored line parsed differently: %+v vs %+v", a.Sensor, b.Sensor)
	}
}

func TestCollectOrderAndCounts(t *testing.T) {
	input := strings.Join([]string{
		sensorLine("10:00:00", "0x0012", 1, 100, "21.0", "65.0"),
		"[10:00:01] Relaying message from 0x0012",
		"[10:00:02] Relaying message from 0x0034",
		"[10:00:03] E (99) MESH: send FAILED",
		sensorLine("", "0x0034", 2, 200, "26.0", "71.0"),
		"Sensor Status received from 0x0056 truncated",
		"[10:00:05] Relaying message from 0x0034",
		sensorLine("10:00:06", "0x0012", 1, 150, "22.0", "62.0") + " ERROR crc",
	}, "\n")

	res, err := Collect(strings.NewReader(input), fixedClock)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if res.Lines != 8 {
		t.Fatalf("expected 8 lines, got %d", res.Lines)
	}
	if len(res.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(res.Events))
	}
	wantLines := []int{1, 5, 8}
	for i, ev := range res.Events {
		if ev.Line != wantLines[i] {
			t.Fatalf("event %d: expected line %d got %d", i, wantLines[i], ev.Line)
		}
	}
	if res.Events[1].Timestamp != "09:30:15" || !res.Events[1].TimestampInferred {
		t.Fatalf("expected capture time fallback, got %+v", res.Events[1])
	}
	if res.CaptureTime != "09:30:15" {
		t.Fatalf("unexpected capture time %q", res.CaptureTime)
	}
	if res.Relays.Total() != res.RelayLines || res.RelayLines != 3 {
		t.Fatalf("relay total %d should equal relay lines %d (=3)", res.Relays.Total(), res.RelayLines)
	}
	if res.Relays.Count("0x0034") != 2 || res.Relays.Count("0x0012") != 1 {
		t.Fatalf("unexpected tally %+v", res.Relays.Snapshot())
	}
	if len(res.Errors) != 2 || res.Errors[0].Line != 4 || res.Errors[1].Line != 8 {
		t.Fatalf("unexpected errors %+v", res.Errors)
	}
}

func TestCollectDigestIsStable(t *testing.T) {
	input := "a\nb\nc\n"
	r1, err := Collect(strings.NewReader(input), fixedClock)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	r2, err := Collect(strings.NewReader("a\r\nb\r\nc"), fixedClock)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if r1.Digest != r2.Digest {
		t.Fatalf("line terminators should not change the digest")
	}
	r3, _ := Collect(strings.NewReader("a\nb\nd\n"), fixedClock)
	if r1.Digest == r3.Digest {
		t.Fatalf("different content should change the digest")
	}
}

func TestParseFileAllowsLargeLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.log")
	payload := strings.Repeat("x", 200*1024)
	content := payload + " " + sensorLine("12:00:00", "0x0012", 1, 100, "20", "60") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	res, err := ParseFile(path, fixedClock)
	if err != nil {
		t.Fatalf("parse file: %v", err)
	}
	if len(res.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(res.Events))
	}
}

func TestCollectSkipsOverlongLine(t *testing.T) {
	first := sensorLine("10:00:00", "0x0012", 1, 100, "21.0", "65.0")
	third := sensorLine("10:00:02", "0x0034", 2, 200, "22.0", "66.0")
	input := first + "\n" + strings.Repeat("x", 2*1024*1024) + "\n" + third + "\n"

	res, err := Collect(strings.NewReader(input), fixedClock)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if res.Lines != 3 || res.LongLines != 1 {
		t.Fatalf("expected 3 lines with 1 overlong, got lines=%d long=%d", res.Lines, res.LongLines)
	}
	if len(res.Events) != 2 || res.Events[1].Node != "0x0034" || res.Events[1].Line != 3 {
		t.Fatalf("expected the line after the overlong one to parse, got %+v", res.Events)
	}
	if res.Bytes != int64(len(input)) {
		t.Fatalf("expected %d bytes, got %d", len(input), res.Bytes)
	}
}

func TestCollectOverlongFinalLine(t *testing.T) {
	input := sensorLine("", "0x0012", 1, 100, "21.0", "65.0") + "\n" + strings.Repeat("y", maxLineBytes+1)
	res, err := Collect(strings.NewReader(input), fixedClock)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if res.Lines != 2 || res.LongLines != 1 || len(res.Events) != 1 {
		t.Fatalf("unexpected result lines=%d long=%d events=%d", res.Lines, res.LongLines, len(res.Events))
	}
}

func TestCollectLineTerminators(t *testing.T) {
	cases := []struct {
		name  string
		input string
		lines int
	}{
		{"lf", "a\nb\nc\n", 3},
		{"crlf", "a\r\nb\r\nc\r\n", 3},
		{"lone cr", "a\rb\rc\r", 3},
		{"mixed", "a\rb\r\nc\nd", 4},
		{"blank crlf lines", "a\r\n\r\nb", 3},
		{"empty", "", 0},
	}
	for _, tc := range cases {
		res, err := Collect(strings.NewReader(tc.input), fixedClock)
		if err != nil {
			t.Fatalf("%s: collect: %v", tc.name, err)
		}
		if res.Lines != tc.lines {
			t.Fatalf("%s: expected %d lines, got %d", tc.name, tc.lines, res.Lines)
		}
		if res.Bytes != int64(len(tc.input)) {
			t.Fatalf("%s: expected %d raw bytes, got %d", tc.name, len(tc.input), res.Bytes)
		}
	}
}

func TestCollectLoneCRSeparatesRecords(t *testing.T) {
	input := sensorLine("10:00:00", "0x0012", 1, 100, "21.0", "65.0") + "\r" +
		sensorLine("10:00:01", "0x0034", 2, 200, "22.0", "66.0") + "\r"
	res, err := Collect(strings.NewReader(input), fixedClock)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(res.Events) != 2 || res.Events[1].Line != 2 {
		t.Fatalf("expected 2 events on separate lines, got %+v", res.Events)
	}
}

func TestParseFileMissing(t *testing.T) {
	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.log"), fixedClock); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
