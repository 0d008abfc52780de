package logging

// cloneFields creates a copy of the source fields map.
// Returns a new map with all key-value pairs from src.
// Returns an empty map if src is nil or empty.
// This helper eliminates duplicate field copying logic.
func cloneFields(src map[string]interface{}) map[string]interface{} {
	if len(src) == 0 {
		return make(map[string]interface{})
	}
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// The constructors below wrap Field with the names the engine's pipeline
// logs on nearly every line, so call sites write EventIDField(id) instead
// of repeating the raw string key.

// EventIDField tags a log line with the event ID it concerns.
func EventIDField(eventID string) LogField {
	return Field("event_id", eventID)
}

// TenantIDField tags a log line with the tenant a request was scoped to.
func TenantIDField(tenantID string) LogField {
	return Field("tenant_id", tenantID)
}

// ServiceIDField tags a log line with the service that emitted an event.
func ServiceIDField(serviceID string) LogField {
	return Field("service_id", serviceID)
}

// ConfidenceField tags a log line with an edge or prediction confidence
// score in [0,1].
func ConfidenceField(confidence float64) LogField {
	return Field("confidence", confidence)
}

// ElapsedMsField tags a log line with how long an operation took.
func ElapsedMsField(elapsedMs int64) LogField {
	return Field("elapsed_ms", elapsedMs)
}
