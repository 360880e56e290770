package lead

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadform/internal/question"
)

func contactQuestions() []question.Question {
	return []question.Question{
		{ID: "q1", Kind: question.KindText, Position: 0},
		{ID: "q2", Kind: question.KindEmail, Position: 1},
		{ID: "q3", Kind: question.KindPhone, Position: 2},
		{ID: "q4", Kind: question.KindMultiChoice, Position: 3},
	}
}

func TestDerivePositionalContract(t *testing.T) {
	snap := map[string]any{
		"q1": "Dana Levi",
		"q2": "dana@example.com",
		"q3": "0501234567",
		"q4": []string{"Budget", "Timeline"},
	}
	l := Derive("qn1", contactQuestions(), snap, "facebook")

	assert.Equal(t, "qn1", l.QuestionnaireID)
	assert.Equal(t, "Dana Levi", l.ClientName)
	assert.Equal(t, "dana@example.com", l.Email)
	assert.Equal(t, "0501234567", l.Phone)
	assert.Equal(t, "facebook", l.Channel)
	assert.Equal(t, StatusNew, l.Status)
	require.NotNil(t, l.Answers)
	assert.Equal(t, snap, l.Answers, "raw snapshot preserved for review")
}

func TestDeriveKindMismatchLeavesFieldEmpty(t *testing.T) {
	// Position 1 is a rating, not an email: a malformed survey must not
	// stuff a rating into the lead's email field.
	qs := []question.Question{
		{ID: "q1", Kind: question.KindText, Position: 0},
		{ID: "q2", Kind: question.KindRating, Position: 1},
		{ID: "q3", Kind: question.KindPhone, Position: 2},
	}
	snap := map[string]any{"q1": "Dana", "q2": "5", "q3": "0501234567"}
	l := Derive("qn1", qs, snap, "direct")

	assert.Equal(t, "Dana", l.ClientName)
	assert.Empty(t, l.Email)
	assert.Equal(t, "0501234567", l.Phone)
}

func TestDeriveShortQuestionnaire(t *testing.T) {
	qs := []question.Question{{ID: "q1", Kind: question.KindText, Position: 0}}
	l := Derive("qn1", qs, map[string]any{"q1": "Dana"}, "direct")
	assert.Equal(t, "Dana", l.ClientName)
	assert.Empty(t, l.Email)
	assert.Empty(t, l.Phone)
}

func TestFlatten(t *testing.T) {
	assert.Equal(t, "a, b", Flatten([]string{"a", "b"}))
	assert.Equal(t, "a, b", Flatten([]any{"a", "b"}))
	assert.Equal(t, "plain", Flatten("plain"))
	assert.Equal(t, "", Flatten(nil))
	assert.Equal(t, "", Flatten(42))
}

func TestDeriveIsPure(t *testing.T) {
	qs := contactQuestions()
	snap := map[string]any{"q1": "Dana"}
	first := Derive("qn1", qs, snap, "direct")
	second := Derive("qn1", qs, snap, "direct")
	assert.Equal(t, first, second)
}
