package querycache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traversion/causengine/internal/timeql"
)

func TestGetMissBeforePut(t *testing.T) {
	c := New(10, time.Minute)
	_, ok := c.Get("k1", time.Now())
	assert.False(t, ok)
}

func TestPutThenGetHits(t *testing.T) {
	c := New(10, time.Minute)
	now := time.Unix(1000, 0)
	c.Put("k1", "result", now)

	got, ok := c.Get("k1", now.Add(time.Second))
	require.True(t, ok)
	assert.Equal(t, "result", got)
}

func TestEntryExpiresAfterTTL(t *testing.T) {
	c := New(10, time.Minute)
	now := time.Unix(1000, 0)
	c.Put("k1", "result", now)

	_, ok := c.Get("k1", now.Add(2*time.Minute))
	assert.False(t, ok)
}

func TestKeyIncludesTenant(t *testing.T) {
	stmt, err := timeql.Parse("STATE AT 'now'")
	require.NoError(t, err)

	k1 := Key(stmt, "tenant-a")
	k2 := Key(stmt, "tenant-b")
	assert.NotEqual(t, k1, k2)
}

func TestKeyStableForSameParsedQuery(t *testing.T) {
	stmt1, _ := timeql.Parse("STATE AT 'now'")
	stmt2, _ := timeql.Parse("state at 'now'")
	assert.Equal(t, Key(stmt1, "t1"), Key(stmt2, "t1"))
}
