package stats

import (
	"math"
	"sort"

	"meshlog/mesh"
)

// Latency summarizes end-to-end delivery delay.
type Latency struct {
	MeanMS   float64      `json:"mean_ms"`
	MedianMS float64      `json:"median_ms"`
	MinMS    int          `json:"min_ms"`
	MaxMS    int          `json:"max_ms"`
	StdDevMS float64      `json:"stddev_ms"`
	ByHops   []HopLatency `json:"by_hops"`
}

// HopLatency is the mean delay of all events with the same hop count.
type HopLatency struct {
	Hops    int     `json:"hops"`
	MeanMS  float64 `json:"mean_ms"`
	Samples int     `json:"samples"`
}

func latencyOf(events []mesh.SensorEvent) Latency {
	delays := make([]int, len(events))
	sums := make(map[int]int64)
	counts := make(map[int]int)
	for i, ev := range events {
		delays[i] = ev.DelayMS
		sums[ev.Hops] += int64(ev.DelayMS)
		counts[ev.Hops]++
	}

	out := Latency{
		MeanMS:   meanInt(delays),
		MedianMS: median(delays),
		MinMS:    minInt(delays),
		MaxMS:    maxInt(delays),
		StdDevMS: sampleStdDev(delays),
	}
	for _, hops := range sortedKeys(counts) {
		out.ByHops = append(out.ByHops, HopLatency{
			Hops:    hops,
			MeanMS:  float64(sums[hops]) / float64(counts[hops]),
			Samples: counts[hops],
		})
	}
	return out
}

func meanInt(vals []int) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum int64
	for _, v := range vals {
		sum += int64(v)
	}
	return float64(sum) / float64(len(vals))
}

// median averages the two middle values for even-length input.
func median(vals []int) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]int(nil), vals...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return float64(sorted[mid-1]+sorted[mid]) / 2
}

// sampleStdDev uses the n-1 denominator; a single sample has no spread.
func sampleStdDev(vals []int) float64 {
	if len(vals) < 2 {
		return 0
	}
	mean := meanInt(vals)
	var ss float64
	for _, v := range vals {
		d := float64(v) - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}

func minInt(vals []int) int {
	if len(vals) == 0 {
		return 0
	}
	min := vals[0]
	for _, v := range vals[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

func maxInt(vals []int) int {
	if len(vals) == 0 {
		return 0
	}
	max := vals[0]
	for _, v := range vals[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
