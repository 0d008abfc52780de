package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traversion/causengine/internal/models"
)

func sampleChain(start, end int64) *models.Chain {
	return &models.Chain{
		ChainID: "c1",
		Steps: []models.ChainStep{
			{EventID: "a", Timestamp: start, ServiceID: "svc-a", EventType: "order:created"},
			{EventID: "b", Timestamp: end, ServiceID: "svc-b", EventType: "payment:charged"},
		},
		Edges:     []models.Edge{{Type: models.EdgeDataflow}},
		StartTime: start,
		EndTime:   end,
	}
}

func TestIngestCreatesNewPattern(t *testing.T) {
	s := NewStore(10)
	sig := Signature(sampleChain(0, 500))
	result := s.Ingest(sig, 1000, "svc-a", "order:created")
	require.True(t, result.Created)
	assert.Equal(t, 1, result.Pattern.Occurrences)
}

func TestIngestMatchesSimilarSignature(t *testing.T) {
	s := NewStore(10)
	s.Ingest(Signature(sampleChain(0, 500)), 1000, "svc-a", "order:created")

	result := s.Ingest(Signature(sampleChain(0, 700)), 2000, "svc-a", "order:created")
	assert.False(t, result.Created, "durations within 1000ms tolerance must match the existing pattern")
	assert.Equal(t, 2, result.Pattern.Occurrences)
	assert.Equal(t, int64(2000), result.Pattern.LastSeen)
}

func TestIngestRejectsDissimilarDuration(t *testing.T) {
	s := NewStore(10)
	s.Ingest(Signature(sampleChain(0, 500)), 1000, "svc-a", "order:created")

	result := s.Ingest(Signature(sampleChain(0, 2000)), 2000, "svc-a", "order:created")
	assert.True(t, result.Created, "duration diff of 1500ms exceeds the 1000ms tolerance")
}

func TestNodeFitsReportsTrue(t *testing.T) {
	s := NewStore(10)
	s.Ingest(Signature(sampleChain(0, 500)), 1000, "svc-a", "order:created")
	result := s.Ingest(Signature(sampleChain(0, 600)), 2000, "svc-b", "payment:charged")
	assert.True(t, result.NodeFits)
}
