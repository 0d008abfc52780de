package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPushFeedLineCapsAt500(t *testing.T) {
	m := NewModel(make(chan interface{}))
	for i := 0; i < 600; i++ {
		m.pushFeedLine("line", "")
	}
	assert.Len(t, m.feed, 500)
}

func TestRenderFeedIncludesLines(t *testing.T) {
	m := NewModel(make(chan interface{}))
	m.pushFeedLine("hello world", "")
	out := m.renderFeed()
	assert.True(t, strings.Contains(out, "hello world"))
}

func TestRenderRootCauseEmptyWhenUnset(t *testing.T) {
	m := NewModel(make(chan interface{}))
	assert.Equal(t, "", m.renderRootCause())
}
