package main

import (
	"fmt"
	"os"

	"oos/pkg/config"
	"oos/pkg/history"
)

// runHistory prints recorded optimizations and clarified prompts.
func runHistory(args []string) int {
	which := "stats"
	if len(args) > 0 {
		which = args[0]
	}
	if len(args) > 1 {
		fmt.Fprintln(os.Stderr, "Usage: oos history [prompts|optimizations|stats]")
		return 1
	}

	cfg := config.GetConfig()
	log := history.NewLog(cfg.HistoryDir())

	switch which {
	case "optimizations":
		entries := log.Optimizations()
		if len(entries) == 0 {
			fmt.Println("No optimizations recorded.")
			return 0
		}
		for _, e := range entries {
			fmt.Printf("%s  %-16s  %6d -> %6d tokens (%.1f%%)\n",
				e.Timestamp.Format("2006-01-02 15:04:05"), e.Strategy,
				e.OriginalTokens, e.OptimizedTokens, e.ReductionPercent)
		}
	case "prompts":
		entries := log.Prompts()
		if len(entries) == 0 {
			fmt.Println("No prompts recorded.")
			return 0
		}
		for _, e := range entries {
			fmt.Printf("%s  %-24s  %.2f  %s\n",
				e.Timestamp.Format("2006-01-02 15:04:05"), e.Intent, e.Confidence, e.RawRequest)
		}
	case "stats":
		stats := log.Stats()
		fmt.Printf("Optimizations:      %d\n", stats.Optimizations)
		fmt.Printf("Tokens saved:       %d\n", stats.TokensSaved)
		fmt.Printf("Prompts clarified:  %d\n", stats.Prompts)
		fmt.Printf("Average confidence: %.2f\n", stats.AverageConfidence)
	default:
		fmt.Fprintf(os.Stderr, "Unknown history view %q\n", which)
		return 1
	}
	return 0
}
