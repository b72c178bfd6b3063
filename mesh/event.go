// Package mesh holds the records extracted from a BLE mesh gateway log:
// sensor status reports, per-node relay counts, and error lines.
package mesh

import (
	"encoding/binary"
	"math"

	"github.com/zeebo/xxh3"
)

// SensorEvent is one status report received by the gateway from a mesh node.
type SensorEvent struct {
	// Timestamp is HH:MM:SS from the line, or the run capture time when
	// TimestampInferred is set.
	Timestamp         string
	TimestampInferred bool
	Line              int // 1-based line number in the input
	Node              string
	Hops              int
	DelayMS           int
	Temperature       float64 // degrees Celsius
	Humidity          float64 // relative humidity, percent
}

// Key returns a 64-bit digest of the report contents. Two events share a key
// when the same node reported identical readings at the same timestamp, which
// is how flooded duplicates show up in a gateway log.
//
// Layout: hops, delay, temperature bits, humidity bits (8 bytes each, little
// endian) followed by node and timestamp separated by a zero byte.
func (e SensorEvent) Key() uint64 {
	buf := make([]byte, 0, 32+len(e.Node)+len(e.Timestamp)+1)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(e.Hops))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(e.DelayMS))
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(e.Temperature))
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(e.Humidity))
	buf = append(buf, e.Node...)
	buf = append(buf, 0)
	buf = append(buf, e.Timestamp...)
	return xxh3.Hash(buf)
}

// ErrorRecord is a log line carrying an ERROR or FAILED marker.
type ErrorRecord struct {
	Line    int    `json:"line"`
	Message string `json:"message"` // trimmed raw line text
}
