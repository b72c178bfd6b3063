// Package stats computes delivery, latency, hop, sensor and relay metrics
// over the records collected from one gateway log.
package stats

import (
	"errors"

	"meshlog/mesh"
)

// ErrNoSensorData is returned when a log produced no sensor events. Nothing
// else is computed in that case.
var ErrNoSensorData = errors.New("no sensor data found")

// Summary is the full set of statistics for one log.
type Summary struct {
	Messages   int             `json:"messages"`
	Delivery   []NodeDelivery  `json:"delivery"`
	Latency    Latency         `json:"latency"`
	Hops       HopDistribution `json:"hops"`
	Readings   Readings        `json:"readings"`
	Quality    QualityWindows  `json:"quality"`
	Relays     RelayEfficiency `json:"relays"`
	Duplicates int             `json:"duplicate_reports"`
}

// Compute derives every statistic from events and relays. events must be in
// log order; relays may be nil.
func Compute(events []mesh.SensorEvent, relays *mesh.RelayTally) (Summary, error) {
	if len(events) == 0 {
		return Summary{}, ErrNoSensorData
	}
	return Summary{
		Messages:   len(events),
		Delivery:   deliveryByNode(events),
		Latency:    latencyOf(events),
		Hops:       hopDistribution(events),
		Readings:   readingsOf(events),
		Quality:    qualityOf(events),
		Relays:     relayEfficiency(relays),
		Duplicates: countDuplicates(events),
	}, nil
}

func countDuplicates(events []mesh.SensorEvent) int {
	seen := make(map[uint64]struct{}, len(events))
	dups := 0
	for _, ev := range events {
		k := ev.Key()
		if _, ok := seen[k]; ok {
			dups++
			continue
		}
		seen[k] = struct{}{}
	}
	return dups
}
