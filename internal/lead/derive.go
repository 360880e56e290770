package lead

import (
	"strings"

	"leadform/internal/question"
)

// Derive extracts the canonical contact fields from the first three
// questions by positional convention: name, email, phone. The convention
// is enforced at authoring time, not in the schema, so each extraction is
// kind-checked first; on a mismatch the field stays empty rather than
// carrying misattributed data. Pure: no I/O, no mutation of inputs.
func Derive(questionnaireID string, questions []question.Question, snapshot map[string]any, channel string) Lead {
	l := Lead{
		QuestionnaireID: questionnaireID,
		Channel:         channel,
		Status:          StatusNew,
		Answers:         snapshot,
	}
	l.ClientName = positional(questions, snapshot, 0, question.KindText)
	l.Email = positional(questions, snapshot, 1, question.KindEmail)
	l.Phone = positional(questions, snapshot, 2, question.KindPhone)
	return l
}

func positional(questions []question.Question, snapshot map[string]any, pos int, want question.Kind) string {
	if pos >= len(questions) {
		return ""
	}
	q := questions[pos]
	if q.Kind != want {
		return ""
	}
	return Flatten(snapshot[q.ID])
}

// Flatten renders a snapshot value for a display field; multi-select
// answers join with ", ".
func Flatten(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		return strings.Join(t, ", ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}
