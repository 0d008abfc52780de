package models

// Signature is the content used to recognize recurring chain shapes (§3):
// the ordered event-type sequence, the set of services involved, total
// duration, and the set of edge types observed.
type Signature struct {
	EventTypes []string          `json:"event_types"`
	Services   map[string]bool   `json:"services"`
	DurationMs int64             `json:"duration_ms"`
	EdgeTypes  map[EdgeType]bool `json:"edge_types"`
}

// Pattern is a recurring chain shape discovered by the Pattern Store
// (§4.G), identified by a content hash of its signature.
type Pattern struct {
	PatternID   string    `json:"pattern_id"`
	Signature   Signature `json:"signature"`
	Occurrences int       `json:"occurrences"`
	FirstSeen   int64     `json:"first_seen"`
	LastSeen    int64     `json:"last_seen"`
}
