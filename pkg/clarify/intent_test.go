package clarify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEmptyInput(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t\n"} {
		cleaned := Extract(raw)
		assert.Equal(t, IntentUnclear, cleaned.Intent, "raw %q", raw)
		assert.Zero(t, cleaned.Confidence)
		assert.Empty(t, cleaned.Matched)
		assert.False(t, cleaned.Ambiguous)
	}
}

func TestExtractNonsenseInput(t *testing.T) {
	cleaned := Extract("flibber jabberwocky quux")
	assert.Equal(t, IntentUnclear, cleaned.Intent)
	assert.Zero(t, cleaned.Confidence)
}

func TestExtractConfidenceAlwaysInRange(t *testing.T) {
	inputs := []string{
		"",
		"hello",
		"websocket chat auth docker database frontend api rest sql login maybe or vs",
		"build a chat app with websockets, auth, postgres, docker, react, and a rest api, not sure about polling vs sse",
	}
	for _, raw := range inputs {
		cleaned := Extract(raw)
		assert.GreaterOrEqual(t, cleaned.Confidence, 0.0, "raw %q", raw)
		assert.LessOrEqual(t, cleaned.Confidence, 1.0, "raw %q", raw)
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	raw := "I want websockets or polling for chat, not sure which, and need auth"
	first := Extract(raw)
	second := Extract(raw)
	assert.Equal(t, first, second)
}

func TestExtractScenarioMixedRequest(t *testing.T) {
	// Realtime, messaging, and auth categories plus an ambiguity marker.
	cleaned := Extract("I want websockets or polling for chat, not sure which, and need auth")

	assert.True(t, cleaned.HasCategory(CategoryRealtime))
	assert.True(t, cleaned.HasCategory(CategoryMessaging))
	assert.True(t, cleaned.HasCategory(CategoryAuth))
	assert.True(t, cleaned.Ambiguous)

	// Realtime has the most keyword hits, so it names the intent.
	assert.Equal(t, "realtime communication", cleaned.Intent)
	assert.Greater(t, cleaned.Confidence, 0.0)
	assert.Less(t, cleaned.Confidence, 0.8)
}

func TestExtractPreservesCasingInNormalizedText(t *testing.T) {
	cleaned := Extract("  Build a REST   API with Auth  ")
	assert.Equal(t, "Build a REST API with Auth", cleaned.NormalizedText)
}

func TestExtractWordBoundaries(t *testing.T) {
	// "orchestration" must not count as the "or" ambiguity marker is a
	// spaced pattern, and "author" must not match the "auth" keyword.
	cleaned := Extract("the author likes orchestration tooling")
	assert.False(t, cleaned.HasCategory(CategoryAuth), "auth must not match inside 'author'")
	assert.True(t, cleaned.HasCategory(CategoryContainers), "orchestration matches containers")
	assert.False(t, cleaned.Ambiguous)
}

func TestExtractAmbiguityOnlyYieldsGeneral(t *testing.T) {
	cleaned := Extract("maybe something, not sure yet")
	assert.Equal(t, IntentGeneral, cleaned.Intent)
	assert.True(t, cleaned.Ambiguous)
	assert.Greater(t, cleaned.Confidence, 0.0)
}

func TestExtractDominantCategoryTieBreak(t *testing.T) {
	// One hit each; table order makes realtime win the tie.
	cleaned := Extract("polling and docker")
	require.True(t, cleaned.HasCategory(CategoryRealtime))
	require.True(t, cleaned.HasCategory(CategoryContainers))
	assert.Equal(t, "realtime communication", cleaned.Intent)
}
