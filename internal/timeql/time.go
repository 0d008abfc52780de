package timeql

import (
	dps "github.com/markusmobius/go-dateparser"

	"github.com/traversion/causengine/internal/apperrors"
)

var unitMs = map[string]int64{
	"ms": 1, "milliseconds": 1,
	"s": 1000, "seconds": 1000,
	"m": 60_000, "minutes": 60_000,
	"h": 3_600_000, "hours": 3_600_000,
	"d": 86_400_000, "days": 86_400_000,
}

// UnitMs returns the millisecond value of one unit of the given TimeQL
// time unit (spec §4.K: ms/s/m/h/d plus long spellings).
func UnitMs(unit string) int64 {
	return unitMs[unit]
}

// Resolve converts a TimeExpr into an absolute ms-since-epoch timestamp.
// nowMs is the caller-supplied wall clock (injected so resolution stays
// testable and deterministic).
func Resolve(t TimeExpr, nowMs int64) (int64, error) {
	switch t.Kind {
	case TimeNow:
		return nowMs, nil
	case TimeEpochMs:
		return t.EpochMs, nil
	case TimeRelativeAgo:
		return nowMs - t.Amount*UnitMs(t.Unit), nil
	case TimeISO8601:
		parser := dps.Parser{}
		parsed, err := parser.Parse(&dps.Configuration{}, t.ISOText)
		if err != nil || parsed.Time.IsZero() {
			return 0, apperrors.ParseErr("invalid ISO-8601 timestamp", t.ISOText, 0)
		}
		return parsed.Time.UnixMilli(), nil
	default:
		return 0, apperrors.Internal("unknown time literal kind")
	}
}
