package budget

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateToTokensFitsLimit(t *testing.T) {
	est := NewHeuristicEstimator()
	text := strings.Repeat("abcd ", 200) // 1000 chars, 250 tokens

	for _, limit := range []int{1, 5, 50, 200} {
		got := truncateToTokens(text, limit, est)
		assert.LessOrEqual(t, est.EstimateText(got), limit, "limit %d", limit)
		assert.True(t, strings.HasSuffix(got, TruncationSuffix))
	}
}

func TestTruncateFieldsLeavesSmallFieldsAlone(t *testing.T) {
	est := NewHeuristicEstimator()
	c := NewContext()
	c.SetText("small", "ok")
	c.SetText("large", strings.Repeat("x", 2000))

	result := (&truncateFields{}).Apply(c, 100, est)

	small, _ := result.Get("small")
	assert.Equal(t, "ok", small.Value)

	large, _ := result.Get("large")
	assert.Less(t, len(large.Value), 2000)
}

func TestDropFieldsPriorityOrder(t *testing.T) {
	est := NewHeuristicEstimator()
	c := NewContext()
	c.SetText(FieldDirective, strings.Repeat("d", 400))
	c.SetText(FieldConversationHistory, strings.Repeat("h", 400))
	c.SetText(FieldProjectSummary, strings.Repeat("s", 400))

	// Budget fits exactly two of the three fields.
	result := (&dropFields{}).Apply(c, 200, est)

	_, hasHistory := result.Get(FieldConversationHistory)
	assert.False(t, hasHistory, "history has the lowest priority and goes first")

	_, hasSummary := result.Get(FieldProjectSummary)
	_, hasDirective := result.Get(FieldDirective)
	assert.True(t, hasSummary)
	assert.True(t, hasDirective)
}

func TestDropFieldsStopsWhenUnderBudget(t *testing.T) {
	est := NewHeuristicEstimator()
	c := NewContext()
	c.SetText(FieldConversationHistory, strings.Repeat("h", 100))
	c.SetText(FieldDirective, "short")

	result := (&dropFields{}).Apply(c, 1000, est)
	assert.Equal(t, 2, result.Len(), "nothing should be dropped under budget")
}

func TestSummarizeStubReplacesLargestFirst(t *testing.T) {
	est := NewHeuristicEstimator()
	c := NewContext()
	c.SetText("huge", strings.Repeat("a", 4000))
	c.SetText("medium", strings.Repeat("b", 200))

	result := (&summarizeStub{}).Apply(c, 60, est)

	huge, ok := result.Get("huge")
	require.True(t, ok, "stub strategy keeps field structure")
	assert.Contains(t, huge.Value, "4000 chars omitted")
	assert.Equal(t, KindSummary, huge.Kind)
}

func TestSummarizeStubSkipsWhenStubNotSmaller(t *testing.T) {
	est := NewHeuristicEstimator()
	c := NewContext()
	c.SetText("tiny", "abc")

	result := (&summarizeStub{}).Apply(c, 0, est)
	tiny, _ := result.Get("tiny")
	assert.Equal(t, "abc", tiny.Value, "stub longer than value must not be applied")
}

func TestStrategyRanksAreOrdered(t *testing.T) {
	strategies := DefaultStrategies()
	require.Len(t, strategies, 3)
	for i := 1; i < len(strategies); i++ {
		assert.Greater(t, strategies[i].Rank(), strategies[i-1].Rank())
	}
	assert.Equal(t, StrategyTruncate, strategies[0].Name())
	assert.Equal(t, StrategyDrop, strategies[1].Name())
	assert.Equal(t, StrategySummarizeStub, strategies[2].Name())
}
