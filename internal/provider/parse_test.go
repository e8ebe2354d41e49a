package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTopicsJSONArray(t *testing.T) {
	topics, ok := ParseTopics(`["machine learning", "graph neural networks"]`, 5)
	require.True(t, ok)
	assert.Equal(t, []string{"machine learning", "graph neural networks"}, topics)
}

func TestParseTopicsCommaSeparated(t *testing.T) {
	topics, ok := ParseTopics("reinforcement learning, robotics, planning", 5)
	require.True(t, ok)
	assert.Equal(t, []string{"reinforcement learning", "robotics", "planning"}, topics)
}

func TestParseTopicsStripsCodeFences(t *testing.T) {
	raw := "```json\n[\"transformers\", \"attention\"]\n```"
	topics, ok := ParseTopics(raw, 5)
	require.True(t, ok)
	assert.Equal(t, []string{"transformers", "attention"}, topics)

	raw = "```\ndistributed systems, consensus\n```"
	topics, ok = ParseTopics(raw, 5)
	require.True(t, ok)
	assert.Equal(t, []string{"distributed systems", "consensus"}, topics)
}

func TestParseTopicsDropsShortEntries(t *testing.T) {
	topics, ok := ParseTopics("ai, ml, natural language processing", 5)
	require.True(t, ok)
	assert.Equal(t, []string{"natural language processing"}, topics)
}

func TestParseTopicsCapsAtMax(t *testing.T) {
	topics, ok := ParseTopics("one topic, two topic, three topic, four topic", 2)
	require.True(t, ok)
	assert.Len(t, topics, 2)
	assert.Equal(t, []string{"one topic", "two topic"}, topics)
}

func TestParseTopicsEmptyPayload(t *testing.T) {
	topics, ok := ParseTopics("", 5)
	require.True(t, ok)
	assert.Empty(t, topics)

	topics, ok = ParseTopics("   \n ", 5)
	require.True(t, ok)
	assert.Empty(t, topics)
}

func TestParseTopicsMalformedJSON(t *testing.T) {
	_, ok := ParseTopics(`["unterminated`, 5)
	assert.False(t, ok)

	_, ok = ParseTopics(`[{"not": "a string array"}]`, 5)
	assert.False(t, ok)
}

func TestParseTopicsTrimsWhitespace(t *testing.T) {
	topics, ok := ParseTopics("  quantum computing ,   error correction  ", 5)
	require.True(t, ok)
	assert.Equal(t, []string{"quantum computing", "error correction"}, topics)
}
