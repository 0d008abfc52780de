package models

// ChainStep is one event's position within a materialized chain traversal.
type ChainStep struct {
	EventID        string  `json:"event_id"`
	Timestamp      int64   `json:"timestamp"`
	ServiceID      string  `json:"service_id"`
	EventType      string  `json:"event_type"`
	Depth          int     `json:"depth"`
	PathConfidence float64 `json:"path_confidence"`
}

// Chain is the materialized result of a Chain Tracer traversal (§3, §4.H).
type Chain struct {
	ChainID    string      `json:"chain_id"`
	RootEvent  string      `json:"root_event"`
	Steps      []ChainStep `json:"steps"`
	Edges      []Edge      `json:"edges"`
	StartTime  int64       `json:"start_time"`
	EndTime    int64       `json:"end_time"`
	Confidence float64     `json:"confidence"`
}
