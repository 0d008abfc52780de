package models

// EdgeType identifies which detector produced an edge. Precedence (highest
// first) is used when the same (from, to) pair is detected more than once:
// trace > service > dataflow > temporal.
type EdgeType string

const (
	EdgeTrace    EdgeType = "trace"
	EdgeTemporal EdgeType = "temporal"
	EdgeService  EdgeType = "service"
	EdgeDataflow EdgeType = "dataflow"
)

var precedence = map[EdgeType]int{
	EdgeTrace:    4,
	EdgeService:  3,
	EdgeDataflow: 2,
	EdgeTemporal: 1,
}

// Precedence returns the edge type's precedence rank; higher wins ties.
func (t EdgeType) Precedence() int {
	return precedence[t]
}

// Edge is a directed, confidence-weighted causality assertion from one
// event to another.
type Edge struct {
	From            string   `json:"from"`
	To              string   `json:"to"`
	Confidence      float64  `json:"confidence"`
	Type            EdgeType `json:"type"`
	TargetTimestamp int64    `json:"target_timestamp"`
}

// Outranks reports whether a freshly detected edge (candidate) should
// replace the existing edge per the keep-max-confidence /
// highest-precedence-type rule of spec §3.
func (e *Edge) Outranks(existing *Edge) bool {
	if existing == nil {
		return true
	}
	if e.Confidence > existing.Confidence {
		return true
	}
	if e.Confidence == existing.Confidence && e.Type.Precedence() > existing.Type.Precedence() {
		return true
	}
	return false
}
