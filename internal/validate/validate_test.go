package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadform/internal/answer"
	"leadform/internal/question"
)

func textQ(id string, pos int, required bool) question.Question {
	return question.Question{ID: id, Kind: question.KindText, Position: pos, Required: required}
}

func choiceQ(id string, kind question.Kind, required bool, opts ...string) question.Question {
	q := question.Question{ID: id, Kind: kind, Required: required, Position: 3}
	for i, o := range opts {
		q.Options = append(q.Options, question.Option{Value: o, Order: i})
	}
	return q
}

func TestPhoneIsraeliMobile(t *testing.T) {
	e := New(ILMobile{})
	q := question.Question{ID: "q3", Kind: question.KindPhone, Required: true, Position: 2}

	// "050-123-4567" strips to "0501234567": 10 digits, prefix 05.
	res := e.Validate(q, answer.Text("050-123-4567"))
	assert.True(t, res.Valid)

	res = e.Validate(q, answer.Text("06-123-4567"))
	require.False(t, res.Valid)
	assert.Equal(t, CodeBadPhone, res.Code)

	res = e.Validate(q, answer.Text("+972 50 123 4567"))
	assert.False(t, res.Valid, "12 digits should not pass the national rule")
}

func TestPhoneStrategyIsPluggable(t *testing.T) {
	e := New(E164Lenient{})
	q := question.Question{ID: "q3", Kind: question.KindPhone, Required: true, Position: 2}
	assert.True(t, e.Validate(q, answer.Text("+1 (415) 555-0123")).Valid)
}

func TestEmailConsecutiveDots(t *testing.T) {
	e := New(nil)
	q := question.Question{ID: "q2", Kind: question.KindEmail, Required: true, Position: 1}

	res := e.Validate(q, answer.Text("a..b@x.com"))
	require.False(t, res.Valid)
	assert.Equal(t, CodeConsecutiveDots, res.Code)
}

func TestEmailShape(t *testing.T) {
	e := New(nil)
	q := question.Question{ID: "q2", Kind: question.KindEmail, Required: true, Position: 1}

	valid := []string{"a@x.com", "first.last@mail.example.org", "x+tag@y.co"}
	for _, s := range valid {
		assert.True(t, e.Validate(q, answer.Text(s)).Valid, "%q", s)
	}
	invalid := []string{"ax.com", "a@@x.com", "@x.com", "a@", "a@xcom", ".a@x.com", "a.@x.com", "a@.x.com", "a b@x.com"}
	for _, s := range invalid {
		assert.False(t, e.Validate(q, answer.Text(s)).Valid, "%q", s)
	}
}

func TestRequiredSingleChoice(t *testing.T) {
	e := New(nil)
	q := choiceQ("q5", question.KindSingleChoice, true, "Red", "Blue")

	res := e.Validate(q, answer.Value{})
	require.False(t, res.Valid)
	assert.Equal(t, CodeRequired, res.Code)

	assert.True(t, e.Validate(q, answer.Text("Red")).Valid)

	// multiple selections are not a single choice
	res = e.Validate(q, answer.Multi([]string{"Red", "Blue"}))
	require.False(t, res.Valid)
	assert.Equal(t, CodeNotAnOption, res.Code)
}

func TestChoiceOtherOverride(t *testing.T) {
	e := New(nil)
	q := choiceQ("q5", question.KindSingleChoice, true, "Red", "Blue")

	// free text outside the defined options is the "other" override
	assert.True(t, e.Validate(q, answer.Text("Other: word of mouth")).Valid)

	multi := choiceQ("q6", question.KindMultiChoice, true, "a", "b", "c")
	assert.True(t, e.Validate(multi, answer.Multi([]string{"a", "something else"})).Valid)
}

func TestMultiChoiceSelections(t *testing.T) {
	e := New(nil)
	q := choiceQ("q6", question.KindMultiChoice, true, "a", "b", "c")

	assert.True(t, e.Validate(q, answer.Multi([]string{"a", "c"})).Valid)

	res := e.Validate(q, answer.Resolved(answer.TagFile, "mem://x"))
	require.False(t, res.Valid)
	assert.Equal(t, CodeNotAnOption, res.Code)
}

func TestRatingBounds(t *testing.T) {
	e := New(nil)
	q := question.Question{ID: "q7", Kind: question.KindRating, Required: true, Min: 1, Max: 5, Position: 4}

	assert.True(t, e.Validate(q, answer.Text("3")).Valid)
	assert.Equal(t, CodeOutOfRange, e.Validate(q, answer.Text("6")).Code)
	assert.Equal(t, CodeOutOfRange, e.Validate(q, answer.Text("0")).Code)
	assert.Equal(t, CodeOutOfRange, e.Validate(q, answer.Text("three")).Code)
}

func TestRatingInvertedBoundsAreMalformed(t *testing.T) {
	e := New(nil)
	q := question.Question{ID: "q7", Kind: question.KindRating, Required: true, Min: 5, Max: 1, Position: 4}

	// No clamping: any selected value is rejected as a configuration defect.
	res := e.Validate(q, answer.Text("3"))
	require.False(t, res.Valid)
	assert.Equal(t, CodeMalformedQuestion, res.Code)

	viol := CheckIntegrity([]question.Question{q})
	assert.Equal(t, CodeMalformedQuestion, viol["q7"])
}

func TestChoiceWithoutOptionsIsMalformed(t *testing.T) {
	q := choiceQ("q5", question.KindSingleChoice, true)
	viol := CheckIntegrity([]question.Question{q})
	assert.Equal(t, CodeMalformedQuestion, viol["q5"])
}

func TestNamePositionCharset(t *testing.T) {
	e := New(nil)
	first := textQ("q1", 0, true)

	valid := []string{"Dana Levi", "Jean-Luc", "O'Brien", "דנה לוי", "María"}
	for _, s := range valid {
		assert.True(t, e.Validate(first, answer.Text(s)).Valid, "%q", s)
	}
	res := e.Validate(first, answer.Text("Dana123"))
	require.False(t, res.Valid)
	assert.Equal(t, CodeBadName, res.Code)

	// The charset rule applies only at the name position.
	later := textQ("q9", 5, true)
	assert.True(t, e.Validate(later, answer.Text("anything 123 !?")).Valid)
}

func TestURL(t *testing.T) {
	e := New(nil)
	q := question.Question{ID: "q8", Kind: question.KindURL, Required: true, Position: 6}

	valid := []string{"https://example.com", "http://x.co/path", "example.com", "sub.example.co.il/page?a=1"}
	for _, s := range valid {
		assert.True(t, e.Validate(q, answer.Text(s)).Valid, "%q", s)
	}
	invalid := []string{"nodot", "ftp://example.com", "https://nodot", ".com"}
	for _, s := range invalid {
		assert.False(t, e.Validate(q, answer.Text(s)).Valid, "%q", s)
	}
}

func TestMediaPendingIsNotAnswered(t *testing.T) {
	e := New(nil)
	q := question.Question{ID: "q9", Kind: question.KindAudio, Required: true, Position: 7}

	res := e.Validate(q, answer.Uploading(answer.TagAudio))
	require.False(t, res.Valid)
	assert.Equal(t, CodePending, res.Code)

	res = e.Validate(q, answer.Capturing())
	assert.Equal(t, CodePending, res.Code)

	assert.True(t, e.Validate(q, answer.Resolved(answer.TagAudio, "https://cdn/a.webm")).Valid)

	res = e.Validate(q, answer.Value{})
	assert.Equal(t, CodeRequired, res.Code)
}

func TestOptionalEmptyIsValid(t *testing.T) {
	e := New(nil)
	q := textQ("q4", 3, false)
	assert.True(t, e.Validate(q, answer.Value{}).Valid)
	assert.True(t, e.Validate(q, answer.Nil()).Valid)
}

func TestValidateIsPure(t *testing.T) {
	e := New(nil)
	q := choiceQ("q5", question.KindSingleChoice, true, "Red", "Blue")
	v := answer.Text("Red")

	first := e.Validate(q, v)
	second := e.Validate(q, v)
	assert.Equal(t, first, second)
	assert.Equal(t, "Red", v.Text)
}

func TestValidateAllCollectsEveryViolation(t *testing.T) {
	e := New(nil)
	qs := []question.Question{
		textQ("q1", 0, true),
		{ID: "q2", Kind: question.KindEmail, Required: true, Position: 1},
		choiceQ("q5", question.KindSingleChoice, true, "Red"),
	}
	store := answer.NewStore()
	store.Set("q2", answer.Text("not-an-email"))

	viol := e.ValidateAll(qs, store)
	require.Len(t, viol, 3)
	assert.Equal(t, CodeRequired, viol["q1"])
	assert.Equal(t, CodeBadEmail, viol["q2"])
	assert.Equal(t, CodeRequired, viol["q5"])
}
