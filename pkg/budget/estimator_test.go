package budget

import (
	"strings"
	"testing"
)

func TestHeuristicEstimateEmpty(t *testing.T) {
	est := NewHeuristicEstimator()
	if got := est.Estimate(NewContext()); got != 0 {
		t.Errorf("Expected 0 tokens for empty context, got %d", got)
	}
	if got := est.Estimate(nil); got != 0 {
		t.Errorf("Expected 0 tokens for nil context, got %d", got)
	}
}

func TestHeuristicEstimateDividesByRatio(t *testing.T) {
	est := NewHeuristicEstimator()
	c := NewContext()
	c.SetText("field", strings.Repeat("a", 400))

	if got := est.Estimate(c); got != 100 {
		t.Errorf("Expected 400 chars / 4 = 100 tokens, got %d", got)
	}
}

func TestHeuristicEstimateFloors(t *testing.T) {
	est := NewHeuristicEstimator()
	c := NewContext()
	c.SetText("field", "abc") // 3 bytes, under one token

	if got := est.Estimate(c); got != 0 {
		t.Errorf("Expected floor division to yield 0, got %d", got)
	}
}

func TestHeuristicCustomRatio(t *testing.T) {
	est := NewHeuristicEstimatorWithRatio(2)
	if got := est.EstimateText("abcdef"); got != 3 {
		t.Errorf("Expected 6 chars / 2 = 3 tokens, got %d", got)
	}

	// Non-positive ratio falls back to the default.
	fallback := NewHeuristicEstimatorWithRatio(0)
	if got := fallback.EstimateText("abcdefgh"); got != 2 {
		t.Errorf("Expected fallback ratio 4, got %d tokens for 8 chars", got)
	}
}

func TestHeuristicIsDeterministic(t *testing.T) {
	est := NewHeuristicEstimator()
	c := NewContext()
	c.SetText("a", "some text here")
	c.SetText("b", "more text")

	first := est.Estimate(c)
	for i := 0; i < 5; i++ {
		if got := est.Estimate(c); got != first {
			t.Fatalf("Estimate changed between calls: %d != %d", got, first)
		}
	}
}

func TestTiktokenEstimator(t *testing.T) {
	est, err := NewTiktokenEstimator()
	if err != nil {
		t.Fatalf("Failed to create tiktoken estimator: %v", err)
	}

	if got := est.Estimate(NewContext()); got != 0 {
		t.Errorf("Expected 0 tokens for empty context, got %d", got)
	}

	c := NewContext()
	c.SetText("greeting", "Hello, world! This is a short test sentence.")
	count := est.Estimate(c)
	if count <= 0 {
		t.Errorf("Expected positive token count, got %d", count)
	}
}

func TestTiktokenFallbackWithoutCodec(t *testing.T) {
	est := &TiktokenEstimator{fallback: NewHeuristicEstimator()}
	if got := est.EstimateText("abcdefgh"); got != 2 {
		t.Errorf("Expected heuristic fallback (8/4 = 2), got %d", got)
	}
}
