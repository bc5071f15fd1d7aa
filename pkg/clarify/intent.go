// Package clarify turns an underspecified natural-language request into a
// small set of targeted clarification questions, driving a multi-round
// session until the request is judged clear enough to act on.
package clarify

import (
	"strings"
)

// Category identifies a recognized feature theme in a request.
type Category string

const (
	CategoryRealtime    Category = "realtime"
	CategoryMessaging   Category = "messaging"
	CategoryAuth        Category = "authentication"
	CategoryContainers  Category = "containers"
	CategoryPersistence Category = "persistence"
	CategoryFrontend    Category = "frontend"
	CategoryAPI         Category = "api"
)

// Intent labels for requests outside the recognized categories.
const (
	IntentUnclear = "unclear"
	IntentGeneral = "general"
)

// CategoryMatch records how strongly one category matched.
type CategoryMatch struct {
	Category Category `json:"category"`
	Hits     int      `json:"hits"`
}

// CleanedInput is the result of one extraction pass. Re-extraction after
// answers arrive produces a new CleanedInput that supersedes the prior one
// within the same session.
type CleanedInput struct {
	NormalizedText string          `json:"normalized_text"`
	Intent         string          `json:"extracted_intent"`
	Confidence     float64         `json:"confidence"`
	Matched        []CategoryMatch `json:"matched_categories,omitempty"`
	Ambiguous      bool            `json:"ambiguous,omitempty"`
}

// HasCategory reports whether the given category matched.
func (in *CleanedInput) HasCategory(c Category) bool {
	for i := range in.Matched {
		if in.Matched[i].Category == c {
			return true
		}
	}
	return false
}

// intentRule maps one category to its keyword patterns and display label.
// The classifier is a static table traversed once per extraction: adding a
// category is a data change, not a code change. Table order is the
// tie-break order for the dominant category.
type intentRule struct {
	category Category
	label    string
	keywords []string
}

//nolint:gochecknoglobals // static classifier table
var intentRules = []intentRule{
	{CategoryRealtime, "realtime communication", []string{
		"websocket", "websockets", "server-sent", "sse", "polling",
		"realtime", "real-time", "live updates", "push notifications",
	}},
	{CategoryMessaging, "chat and messaging", []string{
		"chat", "message", "messages", "messaging", "conversation", "dm",
	}},
	{CategoryAuth, "authentication", []string{
		"auth", "authentication", "login", "log in", "sign in", "signup",
		"oauth", "jwt", "password", "sso",
	}},
	{CategoryContainers, "container orchestration", []string{
		"docker", "container", "containers", "kubernetes", "k8s",
		"compose", "orchestration", "helm",
	}},
	{CategoryPersistence, "data persistence", []string{
		"database", "db", "storage", "persist", "persistence", "sql",
		"postgres", "sqlite", "mysql", "redis", "cache",
	}},
	{CategoryFrontend, "frontend", []string{
		"frontend", "front-end", "ui", "dashboard", "react", "vue", "spa",
	}},
	{CategoryAPI, "api design", []string{
		"api", "rest", "restful", "endpoint", "endpoints", "grpc", "graphql",
	}},
}

// ambiguityMarkers signal the request names alternatives without choosing.
//
//nolint:gochecknoglobals // static classifier table
var ambiguityMarkers = []string{
	"maybe", "not sure", "unsure", "undecided", "don't know", "dont know",
	" vs ", " vs.", " or ", "either", "alternatively", "which one", "torn between",
}

// Extract parses raw free-text input into a CleanedInput. Matching happens
// on a lowercased copy; NormalizedText preserves the original casing for
// display. Purely local pattern matching: no I/O, idempotent, never fails.
// Zero recognized categories yields confidence 0 and intent "unclear".
func Extract(rawText string) CleanedInput {
	normalized := normalizeWhitespace(rawText)
	lowered := strings.ToLower(normalized)

	matched := make([]CategoryMatch, 0, len(intentRules))
	dominant := ""
	dominantHits := 0

	for i := range intentRules {
		rule := &intentRules[i]
		hits := 0
		for _, kw := range rule.keywords {
			hits += countKeyword(lowered, kw)
		}
		if hits == 0 {
			continue
		}
		matched = append(matched, CategoryMatch{Category: rule.category, Hits: hits})
		// Strict > keeps table order as the tie break.
		if hits > dominantHits {
			dominantHits = hits
			dominant = rule.label
		}
	}

	ambiguous := false
	for _, marker := range ambiguityMarkers {
		if strings.Contains(lowered, marker) {
			ambiguous = true
			break
		}
	}

	// Total considered = feature categories plus the ambiguity marker
	// category; confidence is the matched share, clamped to [0,1].
	total := len(intentRules) + 1
	matchedCount := len(matched)
	if ambiguous {
		matchedCount++
	}
	confidence := float64(matchedCount) / float64(total)
	if confidence > 1 {
		confidence = 1
	}

	intent := dominant
	switch {
	case len(matched) == 0 && !ambiguous:
		intent = IntentUnclear
		confidence = 0
	case len(matched) == 0:
		intent = IntentGeneral
	}

	return CleanedInput{
		NormalizedText: normalized,
		Intent:         intent,
		Confidence:     confidence,
		Matched:        matched,
		Ambiguous:      ambiguous,
	}
}

// normalizeWhitespace trims and collapses runs of whitespace to one space.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// countKeyword counts non-overlapping occurrences. Multi-word markers keep
// embedded spaces; single words match on word boundaries to avoid counting
// "or" inside "orchestration".
func countKeyword(text, keyword string) int {
	if keyword == "" {
		return 0
	}
	count := 0
	offset := 0
	for {
		idx := strings.Index(text[offset:], keyword)
		if idx < 0 {
			return count
		}
		start := offset + idx
		end := start + len(keyword)
		if isWordBoundary(text, start, end) {
			count++
		}
		offset = end
	}
}

func isWordBoundary(text string, start, end int) bool {
	if start > 0 && isWordChar(text[start-1]) && isWordChar(text[start]) {
		return false
	}
	if end < len(text) && isWordChar(text[end-1]) && isWordChar(text[end]) {
		return false
	}
	return true
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
