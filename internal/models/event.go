// Package models holds the wire-level data model shared by every component
// of the causality engine: the immutable Event a producer submits, and the
// Node/Edge types the Event Graph builds from it.
package models

// Event is one immutable observation submitted by a producer service.
// Optional fields are the Go zero value when absent; the engine must
// tolerate that (§6 "tolerant to missing optional fields").
type Event struct {
	EventID       string                 `json:"event_id"`
	Timestamp     int64                  `json:"timestamp"` // ms since epoch
	ServiceID     string                 `json:"service_id"`
	ServiceName   string                 `json:"service_name,omitempty"`
	TraceID       string                 `json:"trace_id,omitempty"`
	SpanID        string                 `json:"span_id,omitempty"`
	ParentSpanID  string                 `json:"parent_span_id,omitempty"`
	EventType     string                 `json:"event_type"`
	Data          map[string]interface{} `json:"data,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	TenantID      string                 `json:"tenant_id"`
}

// TriggeredBy returns the event_id named by metadata.triggered_by, if any.
func (e *Event) TriggeredBy() (string, bool) {
	if e.Metadata == nil {
		return "", false
	}
	v, ok := e.Metadata["triggered_by"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// HasError reports whether data.error is present on the event.
func (e *Event) HasError() bool {
	if e.Data == nil {
		return false
	}
	_, ok := e.Data["error"]
	return ok
}

// Validate checks the required fields enumerated in spec §3/§7.
func (e *Event) Validate() (missingField string, ok bool) {
	switch {
	case e.EventID == "":
		return "event_id", false
	case e.Timestamp <= 0:
		return "timestamp", false
	case e.ServiceID == "":
		return "service_id", false
	case e.EventType == "":
		return "event_type", false
	}
	return "", true
}
