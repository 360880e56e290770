package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadform/internal/answer"
	"leadform/internal/question"
)

func intakeQuestions() []question.Question {
	return []question.Question{
		{ID: "q1", Text: "What is your name?", Kind: question.KindText, Required: true, Position: 0},
		{ID: "q2", Text: "Your email?", Kind: question.KindEmail, Required: true, Position: 1},
		{ID: "q3", Text: "Your phone?", Kind: question.KindPhone, Required: true, Position: 2},
		{ID: "q4", Text: "Anything else?", Kind: question.KindText, Required: false, Position: 3},
	}
}

func newChat(t *testing.T, preview bool) *Session {
	t.Helper()
	s, err := New(Config{
		QuestionnaireID: "qn1",
		Questions:       intakeQuestions(),
		Mode:            ModeChat,
		Preview:         preview,
		Channel:         "direct",
	})
	require.NoError(t, err)
	s.Start()
	return s
}

func answerAll(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.Answer("q1", answer.Text("Dana")))
	require.NoError(t, s.Answer("q2", answer.Text("dana@example.com")))
	require.NoError(t, s.Answer("q3", answer.Text("0501234567")))
	require.NoError(t, s.Answer("q4", answer.Text("nope")))
}

func TestChatWalkthrough(t *testing.T) {
	s := newChat(t, false)
	require.Equal(t, StateAnswering, s.State())

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "q1", cur.ID)

	answerAll(t, s)
	assert.True(t, s.Done())
	_, ok = s.Current()
	assert.False(t, ok)
}

func TestChatInvalidAnswerDoesNotAdvance(t *testing.T) {
	s := newChat(t, false)
	require.NoError(t, s.Answer("q1", answer.Text("Dana")))

	err := s.Answer("q2", answer.Text("not-an-email"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Codes, "q2")

	assert.Equal(t, 1, s.Index(), "index unchanged after invalid answer")
	// The invalid attempt leaves no transcript trace.
	for _, e := range s.Transcript() {
		if e.Role == RoleAnswer {
			assert.NotEqual(t, "q2", e.QuestionID)
		}
	}
}

func TestChatAnswerOutOfTurn(t *testing.T) {
	s := newChat(t, false)
	err := s.Answer("q3", answer.Text("0501234567"))
	require.ErrorIs(t, err, ErrNotCurrent)
}

func TestSkipOnlyOptional(t *testing.T) {
	s := newChat(t, false)
	require.ErrorIs(t, s.Skip(), ErrCannotSkip)

	require.NoError(t, s.Answer("q1", answer.Text("Dana")))
	require.NoError(t, s.Answer("q2", answer.Text("dana@example.com")))
	require.NoError(t, s.Answer("q3", answer.Text("0501234567")))
	require.NoError(t, s.Skip())

	v, ok := s.Answers().Get("q4")
	require.True(t, ok)
	assert.Equal(t, answer.KindNil, v.Kind)
	assert.True(t, s.Done())
}

func TestTranscriptMonotonicWithIndex(t *testing.T) {
	s := newChat(t, false)
	answerAll(t, s)

	tr := s.Transcript()
	require.NotEmpty(t, tr)
	// Strict question/answer alternation, ending after the last answer.
	wantRoles := []EntryRole{
		RoleQuestion, RoleAnswer, RoleQuestion, RoleAnswer,
		RoleQuestion, RoleAnswer, RoleQuestion, RoleAnswer,
	}
	require.Len(t, tr, len(wantRoles))
	for i, e := range tr {
		assert.Equal(t, wantRoles[i], e.Role, "entry %d", i)
	}
}

func TestAnsweringPastEndRejected(t *testing.T) {
	s := newChat(t, false)
	answerAll(t, s)
	err := s.Answer("q4", answer.Text("again"))
	require.ErrorIs(t, err, ErrNoCurrent)
}

func TestPreviewSeekRehydrates(t *testing.T) {
	s := newChat(t, true)
	require.NoError(t, s.Answer("q1", answer.Text("Dana")))
	require.NoError(t, s.Answer("q2", answer.Text("dana@example.com")))

	before := len(s.Transcript())
	q, v, err := s.Seek(0)
	require.NoError(t, err)
	assert.Equal(t, "q1", q.ID)
	assert.Equal(t, "Dana", v.Text)
	assert.Len(t, s.Transcript(), before, "seek leaves the transcript alone")

	// Forward again without re-answering.
	q, v, err = s.Seek(1)
	require.NoError(t, err)
	assert.Equal(t, "q2", q.ID)
	assert.Equal(t, "dana@example.com", v.Text)
}

func TestSeekRequiresPreview(t *testing.T) {
	s := newChat(t, false)
	_, _, err := s.Seek(0)
	require.ErrorIs(t, err, ErrPreviewOnly)
}

func TestSubmittedIsTerminalExactlyOnce(t *testing.T) {
	s := newChat(t, false)
	answerAll(t, s)

	require.NoError(t, s.BeginSubmit())
	s.CompleteSubmit()
	assert.Equal(t, StateSubmitted, s.State())

	require.ErrorIs(t, s.BeginSubmit(), ErrTerminal)

	// Answer attempts after Submitted are no-ops.
	require.NoError(t, s.Answer("q4", answer.Text("changed my mind")))
	v, _ := s.Answers().Get("q4")
	assert.Equal(t, "nope", v.Text)
}

func TestBeginSubmitBeforeTerminalPosition(t *testing.T) {
	s := newChat(t, false)
	require.NoError(t, s.Answer("q1", answer.Text("Dana")))
	require.ErrorIs(t, s.BeginSubmit(), ErrNotTerminal)
}

func TestFailSubmitAllowsRetry(t *testing.T) {
	s := newChat(t, false)
	answerAll(t, s)

	require.NoError(t, s.BeginSubmit())
	s.FailSubmit(errors.New("network down"))
	assert.Equal(t, StateAnswering, s.State())
	require.Error(t, s.SubmitErr())

	require.NoError(t, s.BeginSubmit())
	s.CompleteSubmit()
	assert.Equal(t, StateSubmitted, s.State())
}

func TestBatchSetAnswerAndValidateAll(t *testing.T) {
	s, err := New(Config{
		QuestionnaireID: "qn1",
		Questions:       intakeQuestions(),
		Mode:            ModeBatch,
	})
	require.NoError(t, err)
	s.Start()

	require.NoError(t, s.SetAnswer("q1", answer.Text("Dana")))
	require.NoError(t, s.SetAnswer("q2", answer.Text("bad-email")))

	viol := s.ValidateAll()
	require.Len(t, viol, 2, "collects all violations, not fail-fast")
	assert.Contains(t, viol, "q2")
	assert.Contains(t, viol, "q3")

	require.NoError(t, s.SetAnswer("q2", answer.Text("dana@example.com")))
	require.NoError(t, s.SetAnswer("q3", answer.Text("0501234567")))
	assert.Nil(t, s.ValidateAll())
}

func TestBatchModeRejectsChatOps(t *testing.T) {
	s, err := New(Config{QuestionnaireID: "qn1", Questions: intakeQuestions(), Mode: ModeBatch})
	require.NoError(t, err)
	s.Start()
	require.ErrorIs(t, s.Answer("q1", answer.Text("x")), ErrWrongMode)
	require.ErrorIs(t, s.Skip(), ErrWrongMode)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	s := newChat(t, false)
	r.Put(s)

	got, ok := r.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	removed, ok := r.Remove(s.ID)
	require.True(t, ok)
	assert.Same(t, s, removed)
	_, ok = r.Get(s.ID)
	assert.False(t, ok)
	assert.Zero(t, r.Len())
}

func TestTeardownResetsAnswers(t *testing.T) {
	s := newChat(t, false)
	require.NoError(t, s.Answer("q1", answer.Text("Dana")))
	s.Teardown()
	assert.Zero(t, s.Answers().Len())
	assert.Equal(t, StateError, s.State())
}
