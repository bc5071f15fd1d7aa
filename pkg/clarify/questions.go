package clarify

import (
	"sort"

	"oos/pkg/config"
)

// QuestionCategory is the fixed enumeration used for question ordering and
// deduplication.
type QuestionCategory string

const (
	QCategoryTechnology   QuestionCategory = "technology"
	QCategoryScope        QuestionCategory = "scope"
	QCategoryPriority     QuestionCategory = "priority"
	QCategoryArchitecture QuestionCategory = "architecture"
	QCategoryOther        QuestionCategory = "other"
)

// questionOrder ranks question categories for output ordering.
//
//nolint:gochecknoglobals // static ordering table
var questionOrder = map[QuestionCategory]int{
	QCategoryTechnology:   0,
	QCategoryScope:        1,
	QCategoryPriority:     2,
	QCategoryArchitecture: 3,
	QCategoryOther:        4,
}

// Question is one clarification question, optionally carrying a fixed set
// of selectable options.
type Question struct {
	Text     string           `json:"text"`
	Options  []string         `json:"options,omitempty"`
	Category QuestionCategory `json:"category"`
}

// catalogEntry binds a feature category to its canned clarification
// question. Questions are emitted only when the extraction pass flagged the
// request as ambiguous (alternatives named without a choice).
type catalogEntry struct {
	category Category
	question Question
}

//nolint:gochecknoglobals // static question catalog
var questionCatalog = []catalogEntry{
	{CategoryRealtime, Question{
		Text:     "Which realtime transport should be used?",
		Options:  []string{"WebSocket", "Server-sent events", "Polling"},
		Category: QCategoryTechnology,
	}},
	{CategoryPersistence, Question{
		Text:     "Which storage engine fits the data?",
		Options:  []string{"PostgreSQL", "SQLite", "Redis"},
		Category: QCategoryTechnology,
	}},
	{CategoryMessaging, Question{
		Text:     "Is this one-to-one messaging or shared channels?",
		Options:  []string{"Direct messages", "Group channels", "Both"},
		Category: QCategoryScope,
	}},
	{CategoryAuth, Question{
		Text:     "How should users authenticate?",
		Options:  []string{"Email and password", "OAuth provider", "Single sign-on"},
		Category: QCategoryTechnology,
	}},
	{CategoryContainers, Question{
		Text:     "How should the system be deployed?",
		Options:  []string{"Docker Compose", "Kubernetes", "Single binary"},
		Category: QCategoryArchitecture,
	}},
	{CategoryAPI, Question{
		Text:     "What API style is expected?",
		Options:  []string{"REST", "gRPC", "GraphQL"},
		Category: QCategoryArchitecture,
	}},
}

// baselineQuestions are always appended for low-confidence input so even a
// request matching nothing gets minimal disambiguation.
//
//nolint:gochecknoglobals // static question catalog
var baselineQuestions = []Question{
	{
		Text:     "What is the expected scale (users, requests, data volume)?",
		Category: QCategoryScope,
	},
	{
		Text:     "What matters most for this work?",
		Options:  []string{"Speed of delivery", "Performance", "Maintainability"},
		Category: QCategoryPriority,
	},
	{
		Text:     "Is there a target timeline or deadline?",
		Category: QCategoryOther,
	},
	{
		Text:     "Any preferred technologies or constraints to honor?",
		Category: QCategoryOther,
	},
}

// BaselineQuestionCount is the size of the fixed baseline set.
const BaselineQuestionCount = 4

// Generator produces clarification questions from a cleaned input.
type Generator struct {
	threshold float64
}

// NewGenerator creates a generator using the configured confidence
// threshold.
func NewGenerator() *Generator {
	cfg := config.GetConfig()
	return NewGeneratorWithThreshold(cfg.Clarify.ConfidenceThreshold)
}

// NewGeneratorWithThreshold creates a generator with an explicit threshold.
// Non-positive thresholds fall back to the configured default.
func NewGeneratorWithThreshold(threshold float64) *Generator {
	if threshold <= 0 {
		threshold = config.DefaultConfidenceThreshold
	}
	return &Generator{threshold: threshold}
}

// Generate emits ordered clarification questions for the input. Category
// questions come first in category-priority order, deduplicated by question
// category; the baseline set is appended last whenever confidence is below
// the threshold. Never fails on any input.
func (g *Generator) Generate(input CleanedInput) []Question {
	return g.GenerateExcluding(input, nil)
}

// GenerateExcluding is Generate with previously-answered question
// categories removed. Used on follow-up rounds so the caller is not asked
// the same kind of question twice.
func (g *Generator) GenerateExcluding(input CleanedInput, answered map[QuestionCategory]bool) []Question {
	var questions []Question
	seen := make(map[QuestionCategory]bool)

	// Category-specific questions fire only when the request names
	// alternatives without choosing.
	if input.Ambiguous {
		for i := range questionCatalog {
			entry := &questionCatalog[i]
			if !input.HasCategory(entry.category) {
				continue
			}
			qcat := entry.question.Category
			if seen[qcat] || answered[qcat] {
				continue
			}
			seen[qcat] = true
			questions = append(questions, entry.question)
		}
		sortQuestions(questions)
	}

	if input.Confidence < g.threshold {
		for i := range baselineQuestions {
			if answered[baselineQuestions[i].Category] {
				continue
			}
			questions = append(questions, baselineQuestions[i])
		}
	}

	return questions
}

// sortQuestions orders by question-category priority, stable.
func sortQuestions(questions []Question) {
	sort.SliceStable(questions, func(i, j int) bool {
		return questionOrder[questions[i].Category] < questionOrder[questions[j].Category]
	})
}
