package timeql

import (
	"strings"

	"github.com/traversion/causengine/internal/apperrors"
	"github.com/traversion/causengine/internal/models"
)

// FieldValue turns a condition field path (e.g. "data.status", "event_type")
// into the event's value, supporting the dot-path syntax spec §4.K
// requires. Returns UnknownField if the path cannot be resolved at all
// (a present-but-nil map lookup returns (nil, nil) — "absent" is not the
// same as "unknown").
func FieldValue(e *models.Event, path string) (interface{}, error) {
	parts := strings.Split(path, ".")
	switch normalizeFieldName(parts[0]) {
	case "event_id":
		return e.EventID, nil
	case "timestamp":
		return float64(e.Timestamp), nil
	case "service_id":
		return e.ServiceID, nil
	case "service_name":
		return e.ServiceName, nil
	case "trace_id":
		return e.TraceID, nil
	case "span_id":
		return e.SpanID, nil
	case "parent_span_id":
		return e.ParentSpanID, nil
	case "event_type":
		return e.EventType, nil
	case "tenant_id":
		return e.TenantID, nil
	case "data":
		return lookupMap(e.Data, parts[1:])
	case "metadata":
		return lookupMap(e.Metadata, parts[1:])
	default:
		return nil, apperrors.UnknownField(path)
	}
}

// normalizeFieldName accepts either the canonical snake_case field name or
// its camelCase spelling (spec §8 scenarios 3-5 write `eventType`,
// `serviceId`, etc. in WHERE clauses) and returns the snake_case form
// FieldValue switches on.
func normalizeFieldName(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func lookupMap(m map[string]interface{}, path []string) (interface{}, error) {
	if len(path) == 0 {
		return m, nil
	}
	var cur interface{} = m
	for _, key := range path {
		asMap, ok := cur.(map[string]interface{})
		if !ok {
			return nil, nil
		}
		v, ok := asMap[key]
		if !ok {
			return nil, nil
		}
		cur = v
	}
	return cur, nil
}

// MatchConditions reports whether event satisfies every condition (ANDed
// together, per §4.K).
func MatchConditions(e *models.Event, conds []Condition) (bool, error) {
	for _, c := range conds {
		ok, err := matchOne(e, c)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func matchOne(e *models.Event, c Condition) (bool, error) {
	actual, err := FieldValue(e, c.Field)
	if err != nil {
		return false, err
	}
	return compare(actual, c.Op, c.Value), nil
}

func compare(actual interface{}, op Op, want Value) bool {
	if want.IsString {
		actualStr, ok := actual.(string)
		if !ok {
			actualStr = models.Canonical(actual)
		}
		switch op {
		case OpEq:
			return actualStr == want.Str
		case OpNeq:
			return actualStr != want.Str
		default:
			return actualStr < want.Str && op == OpLt ||
				actualStr <= want.Str && op == OpLte ||
				actualStr > want.Str && op == OpGt ||
				actualStr >= want.Str && op == OpGte
		}
	}

	actualNum, ok := numeric(actual)
	if !ok {
		return false
	}
	switch op {
	case OpEq:
		return actualNum == want.Num
	case OpNeq:
		return actualNum != want.Num
	case OpLt:
		return actualNum < want.Num
	case OpLte:
		return actualNum <= want.Num
	case OpGt:
		return actualNum > want.Num
	case OpGte:
		return actualNum >= want.Num
	}
	return false
}

func numeric(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
