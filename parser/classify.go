// Package parser turns BLE mesh gateway console output into mesh records.
// Matching is best effort: lines that carry a marker but not the full field
// set are dropped without comment.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"meshlog/mesh"
)

const (
	sensorMarker = "Sensor Status received"
	relayMarker  = "Relaying message"
)

const floatPattern = `([+-]?(?:\d+\.?\d*|\.\d+))`

var (
	ansiRe   = regexp.MustCompile(`\x1b\[[0-9;]*m`)
	sensorRe = regexp.MustCompile(`from (0x\w+).*Hops: (\d+).*Delay: (\d+)ms.*` +
		`Temperature: ` + floatPattern + `.*Humidity: ` + floatPattern)
	relayRe = regexp.MustCompile(`from (0x\w+)`)
)

// Classification is what a single line contributed. Any combination of the
// three parts may be set.
type Classification struct {
	Sensor    *mesh.SensorEvent
	RelayNode string
	Error     *mesh.ErrorRecord
}

// Empty reports whether the line matched nothing.
func (c Classification) Empty() bool {
	return c.Sensor == nil && c.RelayNode == "" && c.Error == nil
}

// Classify inspects one line. lineNo is 1-based; fallbackTS is used when the
// line has no [HH:MM:SS] token. Sensor, relay and error matching are
// independent of each other.
func Classify(line string, lineNo int, fallbackTS string) Classification {
	clean := ansiRe.ReplaceAllString(strings.TrimRight(line, "\r\n"), "")

	var out Classification
	if strings.Contains(clean, sensorMarker) {
		if ev, ok := parseSensor(clean, lineNo, fallbackTS); ok {
			out.Sensor = &ev
		}
	}
	if strings.Contains(clean, relayMarker) {
		if m := relayRe.FindStringSubmatch(clean); len(m) == 2 {
			out.RelayNode = m[1]
		}
	}
	if strings.Contains(clean, "ERROR") || strings.Contains(clean, "FAILED") {
		out.Error = &mesh.ErrorRecord{Line: lineNo, Message: strings.TrimSpace(line)}
	}
	return out
}

func parseSensor(line string, lineNo int, fallbackTS string) (mesh.SensorEvent, bool) {
	m := sensorRe.FindStringSubmatch(line)
	if len(m) != 6 {
		return mesh.SensorEvent{}, false
	}
	// Hops and delay are bounded to 32 bits so per-node sums cannot wrap.
	hops, err := strconv.ParseInt(m[2], 10, 32)
	if err != nil {
		return mesh.SensorEvent{}, false
	}
	delay, err := strconv.ParseInt(m[3], 10, 32)
	if err != nil {
		return mesh.SensorEvent{}, false
	}
	temp, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return mesh.SensorEvent{}, false
	}
	hum, err := strconv.ParseFloat(m[5], 64)
	if err != nil {
		return mesh.SensorEvent{}, false
	}
	ts, inferred := ExtractTimestamp(line, fallbackTS)
	return mesh.SensorEvent{
		Timestamp:         ts,
		TimestampInferred: inferred,
		Line:              lineNo,
		Node:              m[1],
		Hops:              int(hops),
		DelayMS:           int(delay),
		Temperature:       temp,
		Humidity:          hum,
	}, true
}
