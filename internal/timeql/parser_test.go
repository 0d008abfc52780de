package timeql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStateAtNow(t *testing.T) {
	stmt, err := Parse("STATE AT 'now'")
	require.NoError(t, err)
	assert.Equal(t, StmtStateAt, stmt.Kind)
}

func TestParseStateAtKeywordNow(t *testing.T) {
	stmt, err := Parse("state at 'now' where data.status = 500")
	require.NoError(t, err)
	assert.Equal(t, TimeNow, stmt.Time.Kind)
	require.Len(t, stmt.Where, 1)
	assert.Equal(t, "data.status", stmt.Where[0].Field)
	assert.Equal(t, OpEq, stmt.Where[0].Op)
	assert.Equal(t, 500.0, stmt.Where[0].Value.Num)
}

func TestParseRelativeAgo(t *testing.T) {
	stmt, err := Parse("STATE AT '5 minutes ago'")
	require.NoError(t, err)
	assert.Equal(t, TimeRelativeAgo, stmt.Time.Kind)
	assert.Equal(t, int64(5), stmt.Time.Amount)
	assert.Equal(t, "minutes", stmt.Time.Unit)
}

func TestParseEpochMsLiteral(t *testing.T) {
	stmt, err := Parse("STATE AT '1700000000000'")
	require.NoError(t, err)
	assert.Equal(t, TimeEpochMs, stmt.Time.Kind)
	assert.Equal(t, int64(1700000000000), stmt.Time.EpochMs)
}

func TestParseTraverse(t *testing.T) {
	stmt, err := Parse("TRAVERSE FROM E1 FOLLOWING backward")
	require.NoError(t, err)
	assert.Equal(t, StmtTraverse, stmt.Kind)
	assert.Equal(t, "E1", stmt.EventID)
	assert.Equal(t, DirBackward, stmt.Direction)
}

func TestParseTraverseUntil(t *testing.T) {
	stmt, err := Parse("traverse from E1 following both until event_type = 'error'")
	require.NoError(t, err)
	require.Len(t, stmt.Where, 1)
	assert.Equal(t, "event_type", stmt.Where[0].Field)
	assert.True(t, stmt.Where[0].Value.IsString)
	assert.Equal(t, "error", stmt.Where[0].Value.Str)
}

func TestParseMatchPattern(t *testing.T) {
	stmt, err := Parse("MATCH PATTERN WHERE event_type = 'order:created' FOLLOWED BY event_type = 'payment:charged' WITHIN 5 m IN LAST 1 d")
	require.NoError(t, err)
	assert.Equal(t, StmtMatchPattern, stmt.Kind)
	require.True(t, stmt.HasFollowedBy)
	assert.Equal(t, int64(5), stmt.WithinAmount)
	assert.Equal(t, "m", stmt.WithinUnit)
	assert.True(t, stmt.HasInLast)
	assert.Equal(t, int64(1), stmt.InLastAmount)
}

func TestParseTimeline(t *testing.T) {
	stmt, err := Parse("TIMELINE FROM '1 h ago' TO 'now' WHERE service_id = 'svc-a'")
	require.NoError(t, err)
	assert.Equal(t, StmtTimeline, stmt.Kind)
	assert.Equal(t, TimeRelativeAgo, stmt.Time.Kind)
	assert.Equal(t, TimeNow, stmt.Time2.Kind)
}

func TestParseCompare(t *testing.T) {
	stmt, err := Parse("COMPARE '1 h ago' WITH 'now' FOR cpu_usage, memory_usage")
	require.NoError(t, err)
	assert.Equal(t, StmtCompare, stmt.Kind)
	assert.Equal(t, []string{"cpu_usage", "memory_usage"}, stmt.Metrics)
}

func TestParsePredict(t *testing.T) {
	stmt, err := Parse("PREDICT NEXT 10 m")
	require.NoError(t, err)
	assert.Equal(t, StmtPredict, stmt.Kind)
	assert.Equal(t, int64(10), stmt.NextAmount)
	assert.False(t, stmt.HasFrom)
}

func TestParseInvalidStatementFails(t *testing.T) {
	_, err := Parse("SELECT * FROM foo")
	require.Error(t, err)
}

func TestParseUnterminatedStringFails(t *testing.T) {
	_, err := Parse("STATE AT 'now")
	require.Error(t, err)
}

func TestParseCaseInsensitiveKeywords(t *testing.T) {
	stmt, err := Parse("StAtE aT 'NOW'")
	require.NoError(t, err)
	assert.Equal(t, StmtStateAt, stmt.Kind)
	assert.Equal(t, TimeNow, stmt.Time.Kind)
}
