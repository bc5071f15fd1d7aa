package budget

import (
	"fmt"
	"sort"
)

// Strategy names reported in OptimizationResult. StrategyNone and
// StrategyBestEffort are outcomes, not members of the strategy set.
const (
	StrategyNone          = "none"
	StrategyTruncate      = "truncate-fields"
	StrategyDrop          = "drop-fields"
	StrategySummarizeStub = "summarize-stub"
	StrategyBestEffort    = "best-effort"
)

// TruncationSuffix marks truncated field values.
const TruncationSuffix = "..."

// Strategy is a pure context transformation. Apply never mutates its input;
// it returns a reduced clone. Strategies are attempted in increasing Rank
// order, so lower ranks are less aggressive.
type Strategy interface {
	Name() string
	Rank() int
	Apply(c *Context, budgetTokens int, est Estimator) *Context
}

// DefaultStrategies returns the reduction strategies in priority order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		&truncateFields{},
		&dropFields{},
		&summarizeStub{},
	}
}

// truncateFields shrinks over-long text fields to a proportional share of
// the budget, preserving field structure.
type truncateFields struct{}

func (s *truncateFields) Name() string { return StrategyTruncate }
func (s *truncateFields) Rank() int    { return 1 }

func (s *truncateFields) Apply(c *Context, budgetTokens int, est Estimator) *Context {
	result := c.Clone()
	fields := result.Fields()
	if len(fields) == 0 {
		return result
	}

	// Each field gets an equal token share. Fields already under their
	// share are left alone; only oversized ones are cut.
	share := budgetTokens / len(fields)
	if share < 1 {
		share = 1
	}

	for i := range fields {
		field := fields[i]
		if est.EstimateText(field.Value) <= share {
			continue
		}
		field.Value = truncateToTokens(field.Value, share, est)
		result.Set(field)
	}
	return result
}

// truncateToTokens binary-searches the longest prefix of text whose
// suffixed form fits the token limit. The search estimates prefix+suffix
// as one string: token counts are not additive across concatenation.
func truncateToTokens(text string, maxTokens int, est Estimator) string {
	runes := []rune(text)
	low, high := 0, len(runes)
	for low < high {
		mid := (low + high + 1) / 2
		if est.EstimateText(string(runes[:mid])+TruncationSuffix) <= maxTokens {
			low = mid
		} else {
			high = mid - 1
		}
	}

	if low == 0 {
		return TruncationSuffix
	}
	return string(runes[:low]) + TruncationSuffix
}

// dropFields removes whole fields, lowest drop priority first, until the
// context fits the budget.
type dropFields struct{}

func (s *dropFields) Name() string { return StrategyDrop }
func (s *dropFields) Rank() int    { return 2 }

func (s *dropFields) Apply(c *Context, budgetTokens int, est Estimator) *Context {
	result := c.Clone()

	// Stable order: priority ascending, declaration order breaking ties.
	order := result.Fields()
	sort.SliceStable(order, func(i, j int) bool {
		return DropRank(order[i].Name) < DropRank(order[j].Name)
	})

	for i := range order {
		if est.Estimate(result) <= budgetTokens {
			break
		}
		result.Remove(order[i].Name)
	}
	return result
}

// summarizeStub replaces field values with a short marker recording the
// original length. Last resort when truncation and dropping were not enough.
type summarizeStub struct{}

func (s *summarizeStub) Name() string { return StrategySummarizeStub }
func (s *summarizeStub) Rank() int    { return 3 }

func (s *summarizeStub) Apply(c *Context, budgetTokens int, est Estimator) *Context {
	result := c.Clone()

	// Replace the largest fields first.
	order := result.Fields()
	sort.SliceStable(order, func(i, j int) bool {
		return len(order[i].Value) > len(order[j].Value)
	})

	for i := range order {
		if est.Estimate(result) <= budgetTokens {
			break
		}
		field, ok := result.Get(order[i].Name)
		if !ok {
			continue
		}
		stub := fmt.Sprintf("[summarized: %d chars omitted]", len(field.Value))
		if len(stub) >= len(field.Value) {
			continue
		}
		field.Value = stub
		field.Kind = KindSummary
		result.Set(field)
	}
	return result
}
