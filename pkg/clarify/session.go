package clarify

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"oos/pkg/config"
	"oos/pkg/logx"
)

// State is a workflow session state.
type State string

const (
	StateInit            State = "INIT"
	StateQuestioning     State = "QUESTIONING"
	StateAwaitingAnswers State = "AWAITING_ANSWERS"
	StateRefining        State = "REFINING"
	StateReady           State = "READY"
	StateAbandoned       State = "ABANDONED"
)

// IsTerminal reports whether the state permits no further transitions.
func (s State) IsTerminal() bool {
	return s == StateReady || s == StateAbandoned
}

func (s State) String() string {
	return string(s)
}

// ValidTransitions is the session transition table.
//
//nolint:gochecknoglobals // static transition table
var ValidTransitions = map[State][]State{
	StateInit:            {StateQuestioning, StateAbandoned},
	StateQuestioning:     {StateAwaitingAnswers, StateReady, StateAbandoned},
	StateAwaitingAnswers: {StateRefining, StateAbandoned},
	StateRefining:        {StateQuestioning, StateReady, StateAbandoned},
	StateReady:           {},
	StateAbandoned:       {},
}

// Sentinel errors for the workflow entry points.
var (
	// ErrEmptyInput is returned when the raw request is blank.
	ErrEmptyInput = errors.New("raw request is empty")

	// ErrSessionState is returned for operations not valid in the
	// session's current state. The session is left unchanged.
	ErrSessionState = errors.New("invalid session state for operation")
)

// Transition is one recorded state change.
type Transition struct {
	From      State     `json:"from"`
	To        State     `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

// PromptHistoryAppender receives completed sessions for the advisory
// prompt history log.
type PromptHistoryAppender interface {
	AppendPrompt(rawRequest, intent string, confidence float64) error
}

// SessionMetricsRecorder observes session outcomes.
type SessionMetricsRecorder interface {
	ObserveSession(outcome string, rounds int, confidence float64)
}

// Options configures a session. Zero values fall back to configured policy.
type Options struct {
	ConfidenceThreshold float64
	MaxRounds           int
	History             PromptHistoryAppender
	Metrics             SessionMetricsRecorder
}

// Session binds one raw request to its cleaned input, generated questions,
// collected answers, and round count. It is a finite-state machine driven
// by the external caller: the AWAITING_ANSWERS state is a logical
// suspension point, not a blocking call. A session is owned by exactly one
// conversation and must not be mutated concurrently; the mutex guards
// against accidental misuse, not a supported concurrency model.
type Session struct {
	mu          sync.Mutex
	id          string
	state       State
	rawRequest  string
	input       CleanedInput
	questions   []Question
	answers     map[int]string
	answered    map[QuestionCategory]bool
	round       int
	transitions []Transition

	threshold float64
	maxRounds int
	generator *Generator
	history   PromptHistoryAppender
	metrics   SessionMetricsRecorder
	logger    *logx.Logger
}

// NewSession creates a session from a raw request using configured policy.
// The session runs extraction and question generation immediately: the
// returned session is either READY (nothing to ask) or AWAITING_ANSWERS.
func NewSession(rawRequest string) (*Session, error) {
	return NewSessionWith(rawRequest, Options{})
}

// NewSessionWith creates a session with explicit options.
func NewSessionWith(rawRequest string, opts Options) (*Session, error) {
	if strings.TrimSpace(rawRequest) == "" {
		return nil, ErrEmptyInput
	}

	cfg := config.GetConfig()
	threshold := opts.ConfidenceThreshold
	if threshold <= 0 {
		threshold = cfg.Clarify.ConfidenceThreshold
	}
	maxRounds := opts.MaxRounds
	if maxRounds <= 0 {
		maxRounds = cfg.Clarify.MaxRounds
	}

	s := &Session{
		id:         uuid.New().String(),
		state:      StateInit,
		rawRequest: rawRequest,
		answers:    make(map[int]string),
		answered:   make(map[QuestionCategory]bool),
		threshold:  threshold,
		maxRounds:  maxRounds,
		generator:  NewGeneratorWithThreshold(threshold),
		history:    opts.History,
		metrics:    opts.Metrics,
		logger:     logx.NewLogger("clarify"),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// INIT immediately runs the extractor, then QUESTIONING runs the
	// generator; an empty question set short-circuits to READY.
	s.input = Extract(rawRequest)
	if err := s.transitionTo(StateQuestioning); err != nil {
		return nil, err
	}
	if err := s.question(); err != nil {
		return nil, err
	}
	return s, nil
}

// question runs the generator from QUESTIONING and advances to
// AWAITING_ANSWERS or READY. Caller holds the lock.
func (s *Session) question() error {
	s.questions = s.generator.GenerateExcluding(s.input, s.answered)
	if len(s.questions) == 0 {
		return s.complete()
	}
	return s.transitionTo(StateAwaitingAnswers)
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CleanedInput returns the latest extraction result. On READY this is the
// artifact handed to the calling assistant.
func (s *Session) CleanedInput() CleanedInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Questions returns a copy of the pending questions.
func (s *Session) Questions() []Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Question, len(s.questions))
	copy(result, s.questions)
	return result
}

// Round returns the number of completed refinement rounds.
func (s *Session) Round() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round
}

// Transitions returns the recorded state change history.
func (s *Session) Transitions() []Transition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Transition{}, s.transitions...)
}

// SubmitAnswers folds answers (keyed by question index) into the session
// and advances it. Only valid in AWAITING_ANSWERS; any other state returns
// ErrSessionState and leaves the session unchanged. Indexes outside the
// current question set are ignored.
//
// After refinement the session is READY when confidence reaches the
// threshold or the round limit is hit; otherwise a fresh question set is
// computed (previously answered categories excluded) and the session
// suspends again.
func (s *Session) SubmitAnswers(answers map[int]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingAnswers {
		return fmt.Errorf("%w: submit answers in %s", ErrSessionState, s.state)
	}

	if err := s.transitionTo(StateRefining); err != nil {
		return err
	}

	// Fold answers into the normalized text as qualifying clauses, in
	// question order for determinism.
	indexes := make([]int, 0, len(answers))
	for idx := range answers {
		if idx < 0 || idx >= len(s.questions) {
			continue
		}
		if strings.TrimSpace(answers[idx]) == "" {
			continue
		}
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	text := s.input.NormalizedText
	for _, idx := range indexes {
		answer := strings.TrimSpace(answers[idx])
		s.answers[idx] = answer
		s.answered[s.questions[idx].Category] = true
		text = text + ". " + answer
	}

	s.input = Extract(text)
	s.round++
	s.logger.Debug("Round %d: confidence %.2f (threshold %.2f)", s.round, s.input.Confidence, s.threshold)

	if s.input.Confidence >= s.threshold || s.round >= s.maxRounds {
		return s.complete()
	}
	if err := s.transitionTo(StateQuestioning); err != nil {
		return err
	}
	return s.question()
}

// Answers returns a copy of the collected answers keyed by question index.
func (s *Session) Answers() map[int]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[int]string, len(s.answers))
	for k, v := range s.answers {
		result[k] = v
	}
	return result
}

// Cancel abandons the session. Terminal sessions cannot be cancelled.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsTerminal() {
		return fmt.Errorf("%w: cancel in %s", ErrSessionState, s.state)
	}
	if err := s.transitionTo(StateAbandoned); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.ObserveSession(string(StateAbandoned), s.round, s.input.Confidence)
	}
	return nil
}

// complete moves the session to READY and records the outcome. Caller
// holds the lock.
func (s *Session) complete() error {
	if err := s.transitionTo(StateReady); err != nil {
		return err
	}
	s.questions = nil

	if s.metrics != nil {
		s.metrics.ObserveSession(string(StateReady), s.round, s.input.Confidence)
	}
	if s.history != nil {
		if err := s.history.AppendPrompt(s.rawRequest, s.input.Intent, s.input.Confidence); err != nil {
			// History is advisory; never fail the session over it.
			s.logger.Warn("Failed to append prompt history: %v", err)
		}
	}
	return nil
}

// transitionTo validates and records a state change. Caller holds the lock.
func (s *Session) transitionTo(newState State) error {
	if !isValidTransition(s.state, newState) {
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrSessionState, s.state, newState)
	}
	s.transitions = append(s.transitions, Transition{
		From:      s.state,
		To:        newState,
		Timestamp: time.Now().UTC(),
	})
	s.logger.DebugState("transition", fmt.Sprintf("%s -> %s", s.state, newState))
	s.state = newState
	return nil
}

func isValidTransition(from, to State) bool {
	for _, allowed := range ValidTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
