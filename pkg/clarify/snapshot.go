package clarify

import (
	"fmt"
	"strings"

	"oos/pkg/config"
	"oos/pkg/logx"
)

// Snapshot is the serializable form of a Session, used to park a suspended
// session across process boundaries and resume it later.
type Snapshot struct {
	ID                 string             `json:"id"`
	State              State              `json:"state"`
	RawRequest         string             `json:"raw_request"`
	Input              CleanedInput       `json:"cleaned_input"`
	Questions          []Question         `json:"questions,omitempty"`
	Answers            map[int]string     `json:"answers,omitempty"`
	AnsweredCategories []QuestionCategory `json:"answered_categories,omitempty"`
	Round              int                `json:"round"`
	Transitions        []Transition       `json:"transitions,omitempty"`
}

// Snapshot captures the session's current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:          s.id,
		State:       s.state,
		RawRequest:  s.rawRequest,
		Input:       s.input,
		Questions:   append([]Question{}, s.questions...),
		Answers:     make(map[int]string, len(s.answers)),
		Round:       s.round,
		Transitions: append([]Transition{}, s.transitions...),
	}
	for k, v := range s.answers {
		snap.Answers[k] = v
	}
	for cat := range s.answered {
		snap.AnsweredCategories = append(snap.AnsweredCategories, cat)
	}
	return snap
}

// Restore rebuilds a session from a snapshot using configured policy.
func Restore(snap Snapshot) (*Session, error) {
	return RestoreWith(snap, Options{})
}

// RestoreWith rebuilds a session from a snapshot with explicit options.
func RestoreWith(snap Snapshot, opts Options) (*Session, error) {
	if snap.ID == "" {
		return nil, fmt.Errorf("snapshot has no session id")
	}
	if strings.TrimSpace(snap.RawRequest) == "" {
		return nil, ErrEmptyInput
	}
	if _, known := ValidTransitions[snap.State]; !known {
		return nil, fmt.Errorf("snapshot has unknown state %q", snap.State)
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
		id:          snap.ID,
		state:       snap.State,
		rawRequest:  snap.RawRequest,
		input:       snap.Input,
		questions:   append([]Question{}, snap.Questions...),
		answers:     make(map[int]string, len(snap.Answers)),
		answered:    make(map[QuestionCategory]bool, len(snap.AnsweredCategories)),
		round:       snap.Round,
		transitions: append([]Transition{}, snap.Transitions...),
		threshold:   threshold,
		maxRounds:   maxRounds,
		generator:   NewGeneratorWithThreshold(threshold),
		history:     opts.History,
		metrics:     opts.Metrics,
		logger:      logx.NewLogger("clarify"),
	}
	for k, v := range snap.Answers {
		s.answers[k] = v
	}
	for _, cat := range snap.AnsweredCategories {
		s.answered[cat] = true
	}
	return s, nil
}
