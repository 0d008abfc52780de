package models

// Node wraps an ingested Event with the graph state built around it:
// outgoing/incoming edges keyed by peer event id (map adjacency avoids
// duplicate edges and makes upgrades O(1), per spec §9's re-architecture
// note on "sets of objects used as adjacency lists"), the node's own
// anomaly score, and its creation confidence (always 1.0 for ingested
// events — sub-1.0 confidence is reserved for derived nodes, which this
// engine does not create).
type Node struct {
	Event         Event
	Causes        map[string]*Edge // keyed by "to" event id
	CausedBy      map[string]*Edge // keyed by "from" event id
	AnomalyScore  float64
	Confidence    float64
}

// NewNode creates a node for a freshly ingested event.
func NewNode(e Event) *Node {
	return &Node{
		Event:      e,
		Causes:     make(map[string]*Edge),
		CausedBy:   make(map[string]*Edge),
		Confidence: 1.0,
	}
}

// ID returns the node's event id for convenience.
func (n *Node) ID() string { return n.Event.EventID }
