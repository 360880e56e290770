package submit

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadform/internal/answer"
	"leadform/internal/lead"
	"leadform/internal/question"
	"leadform/internal/repository/record"
	"leadform/internal/session"
)

type countingTrigger struct {
	calls atomic.Int32
	err   error
	done  chan struct{}
}

func newCountingTrigger(err error) *countingTrigger {
	return &countingTrigger{err: err, done: make(chan struct{}, 8)}
}

func (t *countingTrigger) Notify(_ context.Context, _ lead.Lead) error {
	t.calls.Add(1)
	t.done <- struct{}{}
	return t.err
}

func (t *countingTrigger) wait(tt *testing.T) {
	tt.Helper()
	select {
	case <-t.done:
	case <-time.After(time.Second):
		tt.Fatal("automation trigger was not invoked")
	}
}

func contactQuestions() []question.Question {
	return []question.Question{
		{ID: "q1", Kind: question.KindText, Required: true, Position: 0},
		{ID: "q2", Kind: question.KindEmail, Required: true, Position: 1},
		{ID: "q3", Kind: question.KindPhone, Required: true, Position: 2},
		{ID: "q4", Kind: question.KindMultiChoice, Required: false, Position: 3, Options: []question.Option{
			{Value: "Budget", Order: 0}, {Value: "Timeline", Order: 1},
		}},
	}
}

func completedSession(t *testing.T, preview bool) *session.Session {
	t.Helper()
	s, err := session.New(session.Config{
		QuestionnaireID: "qn1",
		Questions:       contactQuestions(),
		Mode:            session.ModeChat,
		Preview:         preview,
		Channel:         "facebook",
	})
	require.NoError(t, err)
	s.Start()
	require.NoError(t, s.Answer("q1", answer.Text("Dana Levi")))
	require.NoError(t, s.Answer("q2", answer.Text("dana@example.com")))
	require.NoError(t, s.Answer("q3", answer.Text("0501234567")))
	require.NoError(t, s.Answer("q4", answer.Multi([]string{"Budget", "Timeline"})))
	return s
}

func TestPublicSubmitPersistsResponseAndLead(t *testing.T) {
	store := record.NewMemoryStore()
	trigger := newCountingTrigger(nil)
	c := NewCoordinator(store, trigger, nil)
	s := completedSession(t, false)

	res, err := c.Submit(context.Background(), s)
	require.NoError(t, err)
	assert.NotEmpty(t, res.ResponseID)
	assert.NotEmpty(t, res.LeadID)
	assert.Equal(t, session.StateSubmitted, s.State())

	responses := store.Responses()
	require.Len(t, responses, 1)
	assert.Equal(t, "Dana Levi", responses[0].Answers["q1"])
	assert.Equal(t, []string{"Budget", "Timeline"}, responses[0].Answers["q4"])

	leads := store.Leads()
	require.Len(t, leads, 1)
	assert.Equal(t, "Dana Levi", leads[0].ClientName)
	assert.Equal(t, "dana@example.com", leads[0].Email)
	assert.Equal(t, "0501234567", leads[0].Phone)
	assert.Equal(t, "facebook", leads[0].Channel)
	assert.Equal(t, lead.StatusNew, leads[0].Status)

	trigger.wait(t)
	assert.Equal(t, int32(1), trigger.calls.Load())
}

func TestPreviewSubmitPersistsNothing(t *testing.T) {
	store := record.NewMemoryStore()
	trigger := newCountingTrigger(nil)
	c := NewCoordinator(store, trigger, nil)
	s := completedSession(t, true)

	res, err := c.Submit(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, res.Preview)
	assert.Equal(t, session.StateSubmitted, s.State())

	assert.Empty(t, store.Responses())
	assert.Empty(t, store.Leads(), "preview must never create a lead")
	assert.Equal(t, int32(0), trigger.calls.Load())

	// The owner sees a success transcript entry.
	tr := s.Transcript()
	require.NotEmpty(t, tr)
	assert.Equal(t, session.RoleSystem, tr[len(tr)-1].Role)
}

func TestSubmitAfterSubmittedCreatesNoSecondLead(t *testing.T) {
	store := record.NewMemoryStore()
	c := NewCoordinator(store, newCountingTrigger(nil), nil)
	s := completedSession(t, false)

	_, err := c.Submit(context.Background(), s)
	require.NoError(t, err)

	_, err = c.Submit(context.Background(), s)
	require.ErrorIs(t, err, session.ErrTerminal)
	assert.Len(t, store.Leads(), 1)
	assert.Len(t, store.Responses(), 1)
}

func TestFailedSubmitIsRetriable(t *testing.T) {
	store := record.NewMemoryStore()
	store.FailNextResponse = true
	c := NewCoordinator(store, newCountingTrigger(nil), nil)
	s := completedSession(t, false)

	_, err := c.Submit(context.Background(), s)
	require.Error(t, err)
	assert.Equal(t, session.StateAnswering, s.State())
	assert.Empty(t, store.Responses())

	res, err := c.Submit(context.Background(), s)
	require.NoError(t, err)
	assert.NotEmpty(t, res.ResponseID)
	assert.Len(t, store.Responses(), 1)
	assert.Len(t, store.Leads(), 1)
}

func TestAutomationFailureDoesNotFailSubmission(t *testing.T) {
	store := record.NewMemoryStore()
	trigger := newCountingTrigger(errors.New("smtp down"))
	c := NewCoordinator(store, trigger, nil)
	s := completedSession(t, false)

	_, err := c.Submit(context.Background(), s)
	require.NoError(t, err)
	trigger.wait(t)
	assert.Equal(t, session.StateSubmitted, s.State())
	assert.Len(t, store.Leads(), 1)
}

func TestLeadWriteFailureKeepsResponse(t *testing.T) {
	store := record.NewMemoryStore()
	store.FailNextLead = true
	c := NewCoordinator(store, newCountingTrigger(nil), nil)
	s := completedSession(t, false)

	res, err := c.Submit(context.Background(), s)
	require.NoError(t, err, "the committed response wins over the lead write")
	assert.NotEmpty(t, res.ResponseID)
	assert.Empty(t, res.LeadID)
	assert.Equal(t, session.StateSubmitted, s.State())
	assert.Len(t, store.Responses(), 1)
	assert.Empty(t, store.Leads())
}

func TestMalformedRatingBlocksSubmission(t *testing.T) {
	qs := []question.Question{
		{ID: "q1", Kind: question.KindText, Required: true, Position: 0},
		{ID: "q2", Kind: question.KindRating, Required: true, Min: 5, Max: 1, Position: 1},
	}
	s, err := session.New(session.Config{QuestionnaireID: "qn1", Questions: qs, Mode: session.ModeBatch})
	require.NoError(t, err)
	s.Start()
	require.NoError(t, s.SetAnswer("q1", answer.Text("Dana")))
	require.NoError(t, s.SetAnswer("q2", answer.Text("3")))

	store := record.NewMemoryStore()
	c := NewCoordinator(store, nil, nil)

	_, err = c.Submit(context.Background(), s)
	var verr *session.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "MalformedQuestion", string(verr.Codes["q2"]))
	assert.Empty(t, store.Responses())
}

func TestBatchSubmitCollectsAllViolations(t *testing.T) {
	s, err := session.New(session.Config{
		QuestionnaireID: "qn1",
		Questions:       contactQuestions(),
		Mode:            session.ModeBatch,
	})
	require.NoError(t, err)
	s.Start()
	require.NoError(t, s.SetAnswer("q2", answer.Text("bad")))

	c := NewCoordinator(record.NewMemoryStore(), nil, nil)
	_, err = c.Submit(context.Background(), s)

	var verr *session.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Codes, 3)

	// The session survives validation failure and remains answerable.
	assert.Equal(t, session.StateAnswering, s.State())
}
