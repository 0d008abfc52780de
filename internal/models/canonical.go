package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Canonical returns a deterministic string representation of an arbitrary
// scalar or JSON-serializable value, used for equality comparisons in the
// data-flow detector (§4.E) and TimeQL conditions (§4.K) instead of host
// (Go) equality, which would not compare e.g. float64(1) and int(1) the
// way two independently-produced JSON payloads expect.
func Canonical(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := "{"
		for i, k := range keys {
			if i > 0 {
				out += ","
			}
			kb, _ := json.Marshal(k)
			out += string(kb) + ":" + Canonical(t[k])
		}
		return out + "}"
	case []interface{}:
		out := "["
		for i, e := range t {
			if i > 0 {
				out += ","
			}
			out += Canonical(e)
		}
		return out + "]"
	case float64, float32, int, int64, int32:
		return fmt.Sprintf("%v", numericValue(t))
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

// numericValue normalizes all numeric kinds to float64 so that 1 and 1.0
// canonicalize identically, matching how JSON decodes numbers.
func numericValue(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	}
	return 0
}

// Equal reports whether two values are canonically equal.
func Equal(a, b interface{}) bool {
	return Canonical(a) == Canonical(b)
}
