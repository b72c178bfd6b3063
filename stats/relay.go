package stats

import (
	"sort"

	"meshlog/mesh"
)

// RelayShare is one node's part of all relayed traffic.
type RelayShare struct {
	Node    string  `json:"node"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// RelayEfficiency ranks relaying nodes by descending count. Equal counts keep
// the order in which the nodes first relayed. Nodes is empty when the log had
// no relay lines.
type RelayEfficiency struct {
	Total int          `json:"total"`
	Nodes []RelayShare `json:"nodes"`
}

func relayEfficiency(tally *mesh.RelayTally) RelayEfficiency {
	if tally.Len() == 0 {
		return RelayEfficiency{}
	}
	total := tally.Total()
	out := RelayEfficiency{Total: total}
	for _, node := range tally.Nodes() {
		c := tally.Count(node)
		out.Nodes = append(out.Nodes, RelayShare{
			Node:    node,
			Count:   c,
			Percent: float64(c) / float64(total) * 100,
		})
	}
	sort.SliceStable(out.Nodes, func(i, j int) bool {
		return out.Nodes[i].Count > out.Nodes[j].Count
	})
	return out
}
