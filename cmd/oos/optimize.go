package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"oos/pkg/budget"
	"oos/pkg/config"
	"oos/pkg/history"
	"oos/pkg/metrics"
)

// runOptimize builds a context from stdin and any named files, reduces it
// to fit the token budget, and writes the optimized context to stdout.
// The summary goes to stderr so the output stays pipe-friendly.
func runOptimize(args []string) int {
	fs := flag.NewFlagSet("optimize", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var (
		budgetFlag = fs.Int("budget", 0, "Token budget (0 uses the configured default)")
		exactFlag  = fs.Bool("exact", false, "Use the tiktoken estimator instead of the character heuristic")
	)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg := config.GetConfig()

	tokenBudget := cfg.Optimizer.DefaultBudget
	if *budgetFlag > 0 {
		tokenBudget = *budgetFlag
	}

	ctx, err := buildContext(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read input: %v\n", err)
		return 1
	}
	if ctx.Len() == 0 {
		fmt.Fprintln(os.Stderr, "Nothing to optimize: provide files or pipe input on stdin")
		return 1
	}

	var est budget.Estimator
	if *exactFlag {
		est, err = budget.NewTiktokenEstimator()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize tokenizer: %v\n", err)
			return 2
		}
	} else {
		est = budget.NewHeuristicEstimatorWithRatio(cfg.Optimizer.CharsPerToken)
	}
	opt := budget.NewOptimizerWithEstimator(est)
	opt.SetHistory(history.NewLog(cfg.HistoryDir()))
	opt.SetMetrics(metrics.NewRecorder())

	optimized, result, err := opt.Optimize(ctx, tokenBudget)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Optimization failed: %v\n", err)
		return 2
	}

	fmt.Fprintf(os.Stderr, "Strategy: %s\n", result.Strategy)
	fmt.Fprintf(os.Stderr, "Tokens: %d -> %d (%.1f%% reduction, budget %d)\n",
		result.OriginalTokens, result.OptimizedTokens, result.ReductionPercent, tokenBudget)

	os.Stdout.WriteString(optimized.Serialize())

	if result.OptimizedTokens > tokenBudget {
		fmt.Fprintln(os.Stderr, "Warning: context still exceeds the budget after best-effort reduction")
	}
	return 0
}

// buildContext assembles the optimizer input. Piped stdin becomes the
// conversation history field; each named file becomes its own field so
// field-level strategies can act on them independently.
func buildContext(files []string) (*budget.Context, error) {
	ctx := budget.NewContext()

	if info, err := os.Stdin.Stat(); err == nil && info.Mode()&os.ModeCharDevice == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		if len(data) > 0 {
			ctx.SetText(budget.FieldConversationHistory, string(data))
		}
	}

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		ctx.SetText(path, string(data))
	}
	return ctx, nil
}
