package timeql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traversion/causengine/internal/models"
)

func TestFieldValueResolvesCamelCaseAlias(t *testing.T) {
	e := &models.Event{EventID: "e1", EventType: "http:request", ServiceID: "svc-a"}

	v, err := FieldValue(e, "eventType")
	require.NoError(t, err)
	assert.Equal(t, "http:request", v)

	v, err = FieldValue(e, "serviceId")
	require.NoError(t, err)
	assert.Equal(t, "svc-a", v)
}

func TestFieldValueSnakeCaseStillResolves(t *testing.T) {
	e := &models.Event{EventType: "error"}
	v, err := FieldValue(e, "event_type")
	require.NoError(t, err)
	assert.Equal(t, "error", v)
}

func TestFieldValueUnknownFieldStillErrors(t *testing.T) {
	e := &models.Event{}
	_, err := FieldValue(e, "nonexistentField")
	assert.Error(t, err)
}
