package question

import (
	"fmt"
	"sort"
	"strings"
)

// Question is one entry of a questionnaire, already normalized for the
// runtime: Kind is canonical, RawKind preserves the stored spelling for
// rendering hints.
type Question struct {
	ID              string
	QuestionnaireID string
	Text            string
	RawKind         string
	Kind            Kind
	Required        bool
	Options         []Option
	Min             int
	Max             int
	Position        int
}

// Option is one selectable choice of a choice-kind question.
type Option struct {
	ID         string
	QuestionID string
	Label      string
	Value      string
	Order      int
}

// Normalize classifies every question's raw kind in place and sorts
// questions by position and options by order. It fails with one combined
// error listing every unclassifiable question, so a broken questionnaire
// is reported once at load instead of per answer.
func Normalize(questions []Question) error {
	var bad []string
	for i := range questions {
		q := &questions[i]
		if q.RawKind == "" {
			q.RawKind = string(q.Kind)
		}
		kind, err := Classify(q.RawKind)
		if err != nil {
			bad = append(bad, fmt.Sprintf("%s(%q)", q.ID, q.RawKind))
			continue
		}
		q.Kind = kind
		sort.SliceStable(q.Options, func(a, b int) bool {
			return q.Options[a].Order < q.Options[b].Order
		})
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownKind, strings.Join(bad, ", "))
	}
	sort.SliceStable(questions, func(a, b int) bool {
		return questions[a].Position < questions[b].Position
	})
	return nil
}

// OptionValues returns the non-empty option values of a question.
func (q Question) OptionValues() []string {
	out := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		v := strings.TrimSpace(o.Value)
		if v == "" {
			v = strings.TrimSpace(o.Label)
		}
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
