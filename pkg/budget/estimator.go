package budget

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// Estimator approximates the token cost of a context or a text block.
type Estimator interface {
	// Estimate returns the estimated token count for the whole context.
	// Never fails; an empty context yields 0.
	Estimate(c *Context) int

	// EstimateText returns the estimated token count for a single value.
	EstimateText(text string) int
}

// HeuristicEstimator divides total byte length by a fixed characters-per-token
// ratio. This deliberately trades precision for being model-agnostic: the
// result is a budgeting unit, not an exact tokenizer count.
type HeuristicEstimator struct {
	charsPerToken int
}

// NewHeuristicEstimator creates an estimator with the default 4 chars/token
// ratio, the usual approximation for English text.
func NewHeuristicEstimator() *HeuristicEstimator {
	return NewHeuristicEstimatorWithRatio(defaultCharsPerToken)
}

// NewHeuristicEstimatorWithRatio creates an estimator with a custom ratio.
// Non-positive ratios fall back to the default.
func NewHeuristicEstimatorWithRatio(charsPerToken int) *HeuristicEstimator {
	if charsPerToken <= 0 {
		charsPerToken = defaultCharsPerToken
	}
	return &HeuristicEstimator{charsPerToken: charsPerToken}
}

const defaultCharsPerToken = 4

// Estimate returns the total value byte length divided by the ratio, floored.
func (e *HeuristicEstimator) Estimate(c *Context) int {
	if c == nil {
		return 0
	}
	return c.ValueBytes() / e.charsPerToken
}

// EstimateText estimates a single text value.
func (e *HeuristicEstimator) EstimateText(text string) int {
	return len(text) / e.charsPerToken
}

// TiktokenEstimator counts tokens with a real BPE codec. All supported models
// are approximated with the GPT-4 encoding, the same shortcut the serving
// side uses. On codec errors it falls back to the character heuristic so
// estimation never fails.
type TiktokenEstimator struct {
	codec    tokenizer.Codec
	fallback *HeuristicEstimator
}

// NewTiktokenEstimator creates a codec-backed estimator.
func NewTiktokenEstimator() (*TiktokenEstimator, error) {
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer codec: %w", err)
	}
	return &TiktokenEstimator{
		codec:    codec,
		fallback: NewHeuristicEstimator(),
	}, nil
}

// Estimate counts tokens across the serialized context.
func (e *TiktokenEstimator) Estimate(c *Context) int {
	if c == nil || c.Len() == 0 {
		return 0
	}
	return e.EstimateText(c.Serialize())
}

// EstimateText counts tokens in a single value, with heuristic fallback.
func (e *TiktokenEstimator) EstimateText(text string) int {
	if e.codec == nil {
		return e.fallback.EstimateText(text)
	}
	count, err := e.codec.Count(text)
	if err != nil {
		return e.fallback.EstimateText(text)
	}
	return count
}
