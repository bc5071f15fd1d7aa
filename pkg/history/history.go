// Package history provides the append-only optimization and prompt history
// logs: JSON array files under the oos home directory, written with scoped
// acquisition (read, append, atomic rewrite) on every append. History is
// advisory: it feeds display tooling and statistics, never decisions.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"oos/pkg/budget"
	"oos/pkg/logx"
)

// File names under the history directory.
const (
	OptimizationFilename = "optimization_history.json"
	PromptFilename       = "prompt_history.json"
)

// OptimizationEntry is one recorded optimization outcome. Immutable after
// append.
type OptimizationEntry struct {
	Strategy         string    `json:"strategy"`
	OriginalTokens   int       `json:"original_tokens"`
	OptimizedTokens  int       `json:"optimized_tokens"`
	ReductionPercent float64   `json:"reduction_percentage"`
	Timestamp        time.Time `json:"timestamp"`
}

// PromptEntry is one completed clarification session. Immutable after
// append.
type PromptEntry struct {
	RawRequest string    `json:"original_request"`
	Intent     string    `json:"extracted_intent"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// Log is the explicit resource object for both history files. Appends are
// serialized by the mutex; each append opens, rewrites, and closes in one
// scoped operation so corruption risk is bounded to a single write.
type Log struct {
	dir    string
	mu     sync.Mutex
	logger *logx.Logger
	clock  func() time.Time
}

// NewLog creates a history log rooted at dir. The directory is created on
// first append, not here, so read-only use never touches the filesystem.
func NewLog(dir string) *Log {
	return &Log{
		dir:    dir,
		logger: logx.NewLogger("history"),
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// AppendOptimization records an optimization result. Implements
// budget.HistoryAppender.
func (l *Log) AppendOptimization(result budget.Result) error {
	entry := OptimizationEntry{
		Strategy:         result.Strategy,
		OriginalTokens:   result.OriginalTokens,
		OptimizedTokens:  result.OptimizedTokens,
		ReductionPercent: result.ReductionPercent,
		Timestamp:        l.clock(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var entries []OptimizationEntry
	if err := l.readArray(OptimizationFilename, &entries); err != nil {
		entries = nil
	}
	entries = append(entries, entry)
	return l.writeArray(OptimizationFilename, entries)
}

// AppendPrompt records a completed clarification session. Implements
// clarify.PromptHistoryAppender.
func (l *Log) AppendPrompt(rawRequest, intent string, confidence float64) error {
	entry := PromptEntry{
		RawRequest: rawRequest,
		Intent:     intent,
		Confidence: confidence,
		Timestamp:  l.clock(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var entries []PromptEntry
	if err := l.readArray(PromptFilename, &entries); err != nil {
		entries = nil
	}
	entries = append(entries, entry)
	return l.writeArray(PromptFilename, entries)
}

// Optimizations returns all recorded optimization entries. A missing or
// corrupt file reads as empty history.
func (l *Log) Optimizations() []OptimizationEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var entries []OptimizationEntry
	if err := l.readArray(OptimizationFilename, &entries); err != nil {
		return nil
	}
	return entries
}

// Prompts returns all recorded prompt entries. A missing or corrupt file
// reads as empty history.
func (l *Log) Prompts() []PromptEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var entries []PromptEntry
	if err := l.readArray(PromptFilename, &entries); err != nil {
		return nil
	}
	return entries
}

// Stats summarizes the history for display tooling.
type Stats struct {
	Optimizations     int     `json:"optimizations"`
	TokensSaved       int     `json:"tokens_saved"`
	Prompts           int     `json:"prompts"`
	AverageConfidence float64 `json:"average_confidence"`
}

// Stats computes summary statistics across both files.
func (l *Log) Stats() Stats {
	var stats Stats

	for _, e := range l.Optimizations() {
		stats.Optimizations++
		stats.TokensSaved += e.OriginalTokens - e.OptimizedTokens
	}

	prompts := l.Prompts()
	stats.Prompts = len(prompts)
	if len(prompts) > 0 {
		total := 0.0
		for _, e := range prompts {
			total += e.Confidence
		}
		stats.AverageConfidence = total / float64(len(prompts))
	}
	return stats
}

// readArray loads a JSON array file into dest. Missing files read as empty
// history; parse failures return an error so callers can discard whatever
// was partially decoded. A corrupt file is a recoverable empty-history
// condition, never fatal.
func (l *Log) readArray(filename string, dest any) error {
	path := filepath.Join(l.dir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Warn("Failed to read %s: %v", path, err)
		}
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		l.logger.Warn("Corrupt history file %s, treating as empty: %v", path, err)
		return err
	}
	return nil
}

// writeArray marshals entries and replaces the file atomically: write to a
// temp file in the same directory, then rename over the target.
func (l *Log) writeArray(filename string, entries any) error {
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("failed to create history directory %s: %w", l.dir, err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history entries: %w", err)
	}

	path := filepath.Join(l.dir, filename)
	tmp, err := os.CreateTemp(l.dir, filename+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close history file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace history file %s: %w", path, err)
	}
	return nil
}
