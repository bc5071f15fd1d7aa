package budget

import (
	"errors"

	"oos/pkg/logx"
)

// ErrInvalidBudget is returned when the token budget is not positive.
var ErrInvalidBudget = errors.New("token budget must be positive")

// Result reports the outcome of one optimization pass.
type Result struct {
	Strategy         string  `json:"strategy"`
	OriginalTokens   int     `json:"original_tokens"`
	OptimizedTokens  int     `json:"optimized_tokens"`
	ReductionPercent float64 `json:"reduction_percentage"`
}

// HistoryAppender receives optimization results for the advisory history
// log. Implementations must tolerate concurrent calls.
type HistoryAppender interface {
	AppendOptimization(result Result) error
}

// MetricsRecorder observes optimization outcomes.
type MetricsRecorder interface {
	ObserveOptimization(strategy string, originalTokens, optimizedTokens int)
}

// Optimizer reduces a context to fit a token budget by applying strategies
// in priority order. The optimizer itself holds no mutable state between
// calls and may be used concurrently; history appends are the sink's
// responsibility to serialize.
type Optimizer struct {
	estimator  Estimator
	strategies []Strategy
	history    HistoryAppender
	metrics    MetricsRecorder
	logger     *logx.Logger
}

// NewOptimizer creates an optimizer with the heuristic estimator and the
// default strategy set.
func NewOptimizer() *Optimizer {
	return NewOptimizerWithEstimator(NewHeuristicEstimator())
}

// NewOptimizerWithEstimator creates an optimizer using the given estimator.
func NewOptimizerWithEstimator(est Estimator) *Optimizer {
	return &Optimizer{
		estimator:  est,
		strategies: DefaultStrategies(),
		logger:     logx.NewLogger("budget"),
	}
}

// SetHistory attaches an advisory history sink. Append failures are logged
// and swallowed; history is never load-bearing.
func (o *Optimizer) SetHistory(h HistoryAppender) {
	o.history = h
}

// SetMetrics attaches a metrics recorder.
func (o *Optimizer) SetMetrics(m MetricsRecorder) {
	o.metrics = m
}

// Estimate exposes the optimizer's estimator for callers that only need a
// token count.
func (o *Optimizer) Estimate(c *Context) int {
	return o.estimator.Estimate(c)
}

// Optimize reduces ctx to fit budgetTokens. The input context is never
// mutated. Strategies apply cumulatively: each one works on the previous
// strategy's output, so later strategies see an already-reduced context.
//
// When every strategy has been applied and the context is still over
// budget, the most-reduced context is returned with strategy "best-effort"
// and a nil error; the caller decides whether to proceed anyway.
func (o *Optimizer) Optimize(ctx *Context, budgetTokens int) (*Context, Result, error) {
	if budgetTokens <= 0 {
		return nil, Result{}, ErrInvalidBudget
	}
	if ctx == nil {
		ctx = NewContext()
	}

	original := o.estimator.Estimate(ctx)

	if original <= budgetTokens {
		result := Result{
			Strategy:        StrategyNone,
			OriginalTokens:  original,
			OptimizedTokens: original,
		}
		o.record(result)
		return ctx, result, nil
	}

	current := ctx
	for _, strategy := range o.strategies {
		current = strategy.Apply(current, budgetTokens, o.estimator)
		optimized := o.estimator.Estimate(current)
		o.logger.Debug("Strategy %s: %d -> %d tokens (budget %d)",
			strategy.Name(), original, optimized, budgetTokens)

		if optimized <= budgetTokens {
			result := newResult(strategy.Name(), original, optimized)
			o.record(result)
			return current, result, nil
		}
	}

	// Soft failure: all strategies exhausted, still over budget.
	optimized := o.estimator.Estimate(current)
	result := newResult(StrategyBestEffort, original, optimized)
	o.logger.Warn("Budget %d not reachable, best effort left %d tokens", budgetTokens, optimized)
	o.record(result)
	return current, result, nil
}

func newResult(strategy string, original, optimized int) Result {
	reduction := 0.0
	if original > 0 {
		reduction = 100 * float64(original-optimized) / float64(original)
	}
	return Result{
		Strategy:         strategy,
		OriginalTokens:   original,
		OptimizedTokens:  optimized,
		ReductionPercent: reduction,
	}
}

func (o *Optimizer) record(result Result) {
	if o.metrics != nil {
		o.metrics.ObserveOptimization(result.Strategy, result.OriginalTokens, result.OptimizedTokens)
	}
	if o.history == nil {
		return
	}
	if err := o.history.AppendOptimization(result); err != nil {
		// History is advisory; a failed append must not fail the caller.
		o.logger.Warn("Failed to append optimization history: %v", err)
	}
}
