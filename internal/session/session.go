// Package session drives a respondent through a questionnaire. One
// Session owns one answer store and one traversal index; batch and chat
// presentation share the same machine, parameterized by mode.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"leadform/internal/answer"
	"leadform/internal/question"
	"leadform/internal/validate"
)

// Mode selects the presentation contract.
type Mode int

const (
	ModeBatch Mode = iota // all questions at once, validated together
	ModeChat              // one question at a time, validated per turn
)

// State is the traversal lifecycle. Loading has no state here: questions
// are loaded before a session is constructed, and a load failure means no
// session exists. A failed submit returns to Answering so the respondent
// can retry with answers intact; Error marks unrecoverable teardown of an
// unfinished session.
type State int

const (
	StateReady State = iota
	StateAnswering
	StateSubmitting
	StateSubmitted
	StateError
)

var (
	ErrTerminal    = errors.New("session: already submitted")
	ErrNotTerminal = errors.New("session: questions remain")
	ErrNoCurrent   = errors.New("session: no current question")
	ErrWrongMode   = errors.New("session: operation not valid in this mode")
	ErrCannotSkip  = errors.New("session: question is required")
	ErrPreviewOnly = errors.New("session: navigation is preview-only")
	ErrBadIndex    = errors.New("session: index out of range")
	ErrNotCurrent  = errors.New("session: not the current question")
)

// ValidationError carries the per-question failure codes of one validate
// pass. It never aborts the session.
type ValidationError struct {
	Codes validate.Violations
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Codes))
	for id, code := range e.Codes {
		parts = append(parts, id+"="+string(code))
	}
	return "session: validation failed: " + strings.Join(parts, ", ")
}

// EntryRole tags a transcript entry.
type EntryRole string

const (
	RoleQuestion EntryRole = "question"
	RoleAnswer   EntryRole = "answer"
	RoleSystem   EntryRole = "system"
)

// Entry is one line of the chat transcript. The transcript is append-only
// and monotonic with the traversal index.
type Entry struct {
	Role       EntryRole
	QuestionID string
	Text       string
	At         time.Time
}

// Config creates a Session. Questions must already be normalized.
type Config struct {
	QuestionnaireID   string
	Questions         []question.Question
	Mode              Mode
	Preview           bool
	Channel           string
	DistributionToken string
	Engine            *validate.Engine
}

type Session struct {
	ID                string
	QuestionnaireID   string
	Mode              Mode
	Preview           bool
	Channel           string
	DistributionToken string

	mu         sync.Mutex
	state      State
	idx        int
	questions  []question.Question
	answers    *answer.Store
	transcript []Entry
	engine     *validate.Engine
	submitErr  error
}

func New(cfg Config) (*Session, error) {
	if len(cfg.Questions) == 0 {
		return nil, fmt.Errorf("session: questionnaire has no questions")
	}
	engine := cfg.Engine
	if engine == nil {
		engine = validate.New(nil)
	}
	s := &Session{
		ID:                uuid.NewString(),
		QuestionnaireID:   cfg.QuestionnaireID,
		Mode:              cfg.Mode,
		Preview:           cfg.Preview,
		Channel:           cfg.Channel,
		DistributionToken: cfg.DistributionToken,
		state:             StateReady,
		questions:         cfg.Questions,
		answers:           answer.NewStore(),
		engine:            engine,
	}
	return s, nil
}

// Start moves Ready -> Answering(0). In chat mode the first question is
// appended to the transcript.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return
	}
	s.state = StateAnswering
	s.idx = 0
	if s.Mode == ModeChat {
		s.appendQuestionLocked()
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx
}

// Done reports whether the traversal has passed the last question.
func (s *Session) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx >= len(s.questions) || s.state == StateSubmitted
}

func (s *Session) Questions() []question.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]question.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

func (s *Session) Answers() *answer.Store {
	return s.answers
}

// Current returns the question at the traversal index.
func (s *Session) Current() (question.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx >= len(s.questions) {
		return question.Question{}, false
	}
	return s.questions[s.idx], true
}

// SetAnswer stores a value without advancing. This is the batch-mode
// write path; validation happens over the full set at submit.
func (s *Session) SetAnswer(questionID string, v answer.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitted {
		return nil // terminal no-op
	}
	if s.state == StateSubmitting {
		return ErrTerminal
	}
	if !s.hasQuestionLocked(questionID) {
		return fmt.Errorf("session: unknown question %q", questionID)
	}
	s.answers.Set(questionID, v)
	return nil
}

// Answer is the chat-mode turn: validate this one question, store the
// value, append transcript entries and auto-advance. Invalid answers do
// not advance and do not touch the transcript.
func (s *Session) Answer(questionID string, v answer.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Mode != ModeChat {
		return ErrWrongMode
	}
	if s.state == StateSubmitted {
		return nil // terminal no-op
	}
	if s.state != StateAnswering {
		return ErrNoCurrent
	}
	if s.idx >= len(s.questions) {
		return ErrNoCurrent
	}
	q := s.questions[s.idx]
	if q.ID != questionID {
		return ErrNotCurrent
	}
	if res := s.engine.Validate(q, v); !res.Valid {
		return &ValidationError{Codes: validate.Violations{q.ID: res.Code}}
	}
	s.answers.Set(q.ID, v)
	s.transcript = append(s.transcript, Entry{
		Role: RoleAnswer, QuestionID: q.ID, Text: v.Display(), At: time.Now(),
	})
	s.idx++
	s.appendQuestionLocked()
	return nil
}

// Skip passes over the current question, permitted only when it is
// optional. The store records an explicit nil so the snapshot shows the
// question was seen and skipped.
func (s *Session) Skip() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Mode != ModeChat {
		return ErrWrongMode
	}
	if s.state == StateSubmitted {
		return nil
	}
	if s.state != StateAnswering || s.idx >= len(s.questions) {
		return ErrNoCurrent
	}
	q := s.questions[s.idx]
	if q.Required {
		return ErrCannotSkip
	}
	s.answers.Set(q.ID, answer.Nil())
	s.transcript = append(s.transcript, Entry{
		Role: RoleAnswer, QuestionID: q.ID, Text: "", At: time.Now(),
	})
	s.idx++
	s.appendQuestionLocked()
	return nil
}

// Seek moves the index for owner preview navigation and returns the
// target question with its stored answer for rehydration. No validation
// runs and nothing is appended to the transcript, so revisiting a
// question has no side effects.
func (s *Session) Seek(i int) (question.Question, answer.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Preview {
		return question.Question{}, answer.Value{}, ErrPreviewOnly
	}
	if s.state == StateSubmitted {
		return question.Question{}, answer.Value{}, ErrTerminal
	}
	if i < 0 || i >= len(s.questions) {
		return question.Question{}, answer.Value{}, ErrBadIndex
	}
	s.state = StateAnswering
	s.idx = i
	q := s.questions[i]
	v, _ := s.answers.Get(q.ID)
	return q, v, nil
}

// ValidateAll collects every violation across the full question set, the
// batch-mode submit check.
func (s *Session) ValidateAll() validate.Violations {
	s.mu.Lock()
	qs := make([]question.Question, len(s.questions))
	copy(qs, s.questions)
	s.mu.Unlock()
	return s.engine.ValidateAll(qs, s.answers)
}

// BeginSubmit guards the transition into Submitting. Submitting twice
// after success is rejected; the caller decides between batch and chat
// precondition checks before persisting.
func (s *Session) BeginSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateSubmitted:
		return ErrTerminal
	case StateSubmitting:
		return ErrTerminal
	}
	if s.Mode == ModeChat && s.idx < len(s.questions) {
		return ErrNotTerminal
	}
	s.state = StateSubmitting
	return nil
}

// CompleteSubmit marks the terminal state, reachable exactly once.
func (s *Session) CompleteSubmit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSubmitting {
		return
	}
	s.state = StateSubmitted
	s.transcript = append(s.transcript, Entry{
		Role: RoleSystem, Text: "submitted", At: time.Now(),
	})
}

// FailSubmit returns the session to Answering so the respondent can retry
// a genuinely failed submission. The terminal state is never entered on
// failure, which is what makes the retry lead-safe.
func (s *Session) FailSubmit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSubmitting {
		return
	}
	s.submitErr = err
	s.state = StateAnswering
}

// SubmitErr reports the last failed submission attempt, if any.
func (s *Session) SubmitErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitErr
}

func (s *Session) Transcript() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Teardown discards the answer store. The session is unusable afterwards.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers.Reset()
	if s.state != StateSubmitted {
		s.state = StateError
	}
}

func (s *Session) hasQuestionLocked(questionID string) bool {
	for _, q := range s.questions {
		if q.ID == questionID {
			return true
		}
	}
	return false
}

func (s *Session) appendQuestionLocked() {
	if s.idx >= len(s.questions) {
		return
	}
	q := s.questions[s.idx]
	s.transcript = append(s.transcript, Entry{
		Role: RoleQuestion, QuestionID: q.ID, Text: q.Text, At: time.Now(),
	})
}
