// Package apperrors defines the engine's error kinds: typed, comparable via
// errors.As/errors.Is, and carrying whatever structured detail the caller
// needs to react (offending token/position for a ParseError, the missing
// field for an InvalidEvent, and so on).
package apperrors

import "fmt"

// Code identifies which of the engine's error kinds occurred.
type Code string

const (
	CodeInvalidEvent   Code = "INVALID_EVENT"
	CodeParseError     Code = "PARSE_ERROR"
	CodeUnknownField   Code = "UNKNOWN_FIELD"
	CodeNotFound       Code = "NOT_FOUND"
	CodeTimeout        Code = "TIMEOUT"
	CodeCancelled      Code = "CANCELLED"
	CodeInternalError  Code = "INTERNAL_ERROR"
)

// EngineError is the concrete error type returned by every engine entry
// point. Details carries kind-specific structured data (e.g. "field",
// "token", "position").
type EngineError struct {
	Code    Code
	Message string
	Details map[string]interface{}
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newErr(code Code, msg string, kv ...interface{}) *EngineError {
	details := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		details[key] = kv[i+1]
	}
	return &EngineError{Code: code, Message: msg, Details: details}
}

// InvalidEvent reports a malformed or duplicate event. field names the
// missing/offending field, or "event_id" for a duplicate.
func InvalidEvent(msg string, field string) *EngineError {
	return newErr(CodeInvalidEvent, msg, "field", field)
}

// ParseErr reports a TimeQL syntax violation at the given token/position.
func ParseErr(msg, token string, position int) *EngineError {
	return newErr(CodeParseError, msg, "token", token, "position", position)
}

// UnknownField reports a condition field that cannot be resolved.
func UnknownField(field string) *EngineError {
	return newErr(CodeUnknownField, fmt.Sprintf("unknown field %q", field), "field", field)
}

// NotFound reports an event id that does not exist in the graph.
func NotFound(eventID string) *EngineError {
	return newErr(CodeNotFound, fmt.Sprintf("event %q not found", eventID), "event_id", eventID)
}

// Timeout reports that a query exceeded its deadline.
func Timeout() *EngineError {
	return newErr(CodeTimeout, "query deadline exceeded")
}

// Cancelled reports that a query's cancellation signal fired.
func Cancelled() *EngineError {
	return newErr(CodeCancelled, "query cancelled")
}

// Internal reports an invariant violation — should never happen outside tests.
func Internal(msg string) *EngineError {
	return newErr(CodeInternalError, msg)
}

// Is lets errors.Is(err, &EngineError{Code: CodeNotFound}) style checks
// match by code alone.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}
