package mesh

// RelayTally counts relayed messages per node. Nodes only appear once they
// have relayed at least one message. Insertion order is remembered so callers
// can break ranking ties deterministically.
type RelayTally struct {
	counts map[string]int
	order  []string
}

// NewRelayTally returns an empty tally.
func NewRelayTally() *RelayTally {
	return &RelayTally{counts: make(map[string]int)}
}

// Add records one relayed message for node.
func (t *RelayTally) Add(node string) {
	if t.counts == nil {
		t.counts = make(map[string]int)
	}
	if _, ok := t.counts[node]; !ok {
		t.order = append(t.order, node)
	}
	t.counts[node]++
}

// Count returns the number of messages node relayed.
func (t *RelayTally) Count(node string) int {
	if t == nil {
		return 0
	}
	return t.counts[node]
}

// Len returns the number of distinct relaying nodes.
func (t *RelayTally) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Total returns the sum of all relay counts.
func (t *RelayTally) Total() int {
	if t == nil {
		return 0
	}
	total := 0
	for _, c := range t.counts {
		total += c
	}
	return total
}

// Nodes returns the relaying nodes in first-seen order.
func (t *RelayTally) Nodes() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.order...)
}

// Snapshot returns a copy of the counts.
func (t *RelayTally) Snapshot() map[string]int {
	out := make(map[string]int, t.Len())
	if t == nil {
		return out
	}
	for node, c := range t.counts {
		out[node] = c
	}
	return out
}
