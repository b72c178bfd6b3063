package stats

import "meshlog/mesh"

// NodeDelivery is the per-node message count.
//
// AvgIntervalMin is derived from delay, not from the spacing between reports:
// (sum of DelayMS / Messages) / 60000. Only set when the node reported more
// than once.
type NodeDelivery struct {
	Node           string  `json:"node"`
	Messages       int     `json:"messages"`
	AvgIntervalMin float64 `json:"avg_interval_min,omitempty"`
	HasInterval    bool    `json:"has_interval"`
}

// HopBucket is the share of events that traversed Hops relays.
type HopBucket struct {
	Hops    int     `json:"hops"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// HopDistribution lists buckets in ascending hop order.
type HopDistribution struct {
	Buckets []HopBucket `json:"buckets"`
	Mean    float64     `json:"mean"`
	Max     int         `json:"max"`
}

func deliveryByNode(events []mesh.SensorEvent) []NodeDelivery {
	index := make(map[string]int)
	var out []NodeDelivery
	delaySums := make([]int64, 0)
	for _, ev := range events {
		i, ok := index[ev.Node]
		if !ok {
			i = len(out)
			index[ev.Node] = i
			out = append(out, NodeDelivery{Node: ev.Node})
			delaySums = append(delaySums, 0)
		}
		out[i].Messages++
		delaySums[i] += int64(ev.DelayMS)
	}
	for i := range out {
		if out[i].Messages > 1 {
			out[i].HasInterval = true
			out[i].AvgIntervalMin = float64(delaySums[i]) / float64(out[i].Messages) / 60000
		}
	}
	return out
}

func hopDistribution(events []mesh.SensorEvent) HopDistribution {
	counts := make(map[int]int)
	hops := make([]int, len(events))
	for i, ev := range events {
		counts[ev.Hops]++
		hops[i] = ev.Hops
	}
	n := float64(len(events))
	out := HopDistribution{
		Mean: meanInt(hops),
		Max:  maxInt(hops),
	}
	for _, h := range sortedKeys(counts) {
		out.Buckets = append(out.Buckets, HopBucket{
			Hops:    h,
			Count:   counts[h],
			Percent: float64(counts[h]) / n * 100,
		})
	}
	return out
}
