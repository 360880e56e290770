// Package validate implements the per-kind answer validators. Every
// function here is pure: identical inputs yield identical results and
// nothing is mutated, so validators may run per keystroke, per chat turn,
// or over a full answer set at submit time.
package validate

import (
	"strconv"
	"strings"
	"unicode"

	"leadform/internal/answer"
	"leadform/internal/question"
)

// Code identifies why a value failed validation. Codes are
// localization-agnostic; the presentation layer maps them to copy.
type Code string

const (
	CodeRequired          Code = "Required"
	CodeBadName           Code = "BadName"
	CodeBadEmail          Code = "BadEmail"
	CodeConsecutiveDots   Code = "ConsecutiveDots"
	CodeBadPhone          Code = "BadPhone"
	CodeBadURL            Code = "BadURL"
	CodeOutOfRange        Code = "OutOfRange"
	CodeNotAnOption       Code = "NotAnOption"
	CodePending           Code = "Pending"
	CodeMalformedQuestion Code = "MalformedQuestion"
)

// Result is the outcome of validating one answer.
type Result struct {
	Valid bool
	Code  Code
}

func ok() Result         { return Result{Valid: true} }
func fail(c Code) Result { return Result{Code: c} }

// Violations maps question id to failure code. Batch validation collects
// every violation, never failing fast.
type Violations map[string]Code

// Engine validates answers against normalized questions. The phone format
// is pluggable per deployment.
type Engine struct {
	phone PhoneStrategy
}

func New(phone PhoneStrategy) *Engine {
	if phone == nil {
		phone = ILMobile{}
	}
	return &Engine{phone: phone}
}

// Validate checks one answer against one question. It never panics for a
// well-formed question/value pair; malformed question configurations
// (rating bounds, missing options) surface as CodeMalformedQuestion.
func (e *Engine) Validate(q question.Question, v answer.Value) Result {
	if v.Empty() {
		if !q.Required {
			return ok()
		}
		if v.Kind == answer.KindMedia {
			switch v.Media.Stage {
			case answer.StageCapturing, answer.StageUploading:
				return fail(CodePending)
			}
		}
		return fail(CodeRequired)
	}

	switch q.Kind {
	case question.KindText:
		if q.Position == 0 && !validName(v.Text) {
			return fail(CodeBadName)
		}
		return ok()
	case question.KindEmail:
		return validateEmail(v.Text)
	case question.KindPhone:
		if !e.phone.Valid(StripNonDigits(v.Text)) {
			return fail(CodeBadPhone)
		}
		return ok()
	case question.KindURL:
		if !validURL(v.Text) {
			return fail(CodeBadURL)
		}
		return ok()
	case question.KindRating:
		return validateRating(q, v.Text)
	case question.KindSingleChoice, question.KindMultiChoice:
		return validateChoice(q, v)
	case question.KindFile, question.KindAudio:
		// Non-empty media is resolved by definition.
		return ok()
	default:
		// Unrecognized kinds are rejected at load; a value reaching here
		// means normalization was skipped.
		return fail(CodeMalformedQuestion)
	}
}

// CheckIntegrity validates question configurations, not answers: choice
// questions must carry at least one non-empty option and rating bounds
// must satisfy min < max. Run at load and again at submit, because the
// authoring side does not enforce either.
func CheckIntegrity(questions []question.Question) Violations {
	out := Violations{}
	for _, q := range questions {
		switch {
		case question.RequiresOptions(q.Kind) && len(q.OptionValues()) == 0:
			out[q.ID] = CodeMalformedQuestion
		case q.Kind == question.KindRating && q.Min >= q.Max:
			out[q.ID] = CodeMalformedQuestion
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ValidateAll runs every question against its stored answer and collects
// all violations. Questions with no stored value validate as empty.
func (e *Engine) ValidateAll(questions []question.Question, store *answer.Store) Violations {
	out := Violations{}
	for _, q := range questions {
		v, _ := store.Get(q.ID)
		if res := e.Validate(q, v); !res.Valid {
			out[q.ID] = res.Code
		}
	}
	for id, code := range CheckIntegrity(questions) {
		out[id] = code
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// validName accepts Unicode letters, spaces, hyphens and apostrophes, so
// non-Latin scripts pass.
func validName(s string) bool {
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsLetter(r):
		case unicode.IsSpace(r):
		case r == '-' || r == '\'' || r == '’':
		default:
			return false
		}
	}
	return true
}

func validateEmail(s string) Result {
	s = strings.TrimSpace(s)
	at := strings.Count(s, "@")
	if at != 1 {
		return fail(CodeBadEmail)
	}
	local, domain, _ := strings.Cut(s, "@")
	if local == "" || domain == "" {
		return fail(CodeBadEmail)
	}
	if strings.Contains(s, "..") {
		return fail(CodeConsecutiveDots)
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return fail(CodeBadEmail)
	}
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return fail(CodeBadEmail)
	}
	if strings.ContainsAny(s, " \t") {
		return fail(CodeBadEmail)
	}
	return ok()
}

// validURL accepts a URL with or without scheme; a bare host gets https
// assumed. The host must contain a dot.
func validURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	rest, found := strings.CutPrefix(s, "https://")
	if !found {
		rest, found = strings.CutPrefix(s, "http://")
		if !found {
			return false
		}
	}
	host, _, _ := strings.Cut(rest, "/")
	if host == "" || !strings.Contains(host, ".") {
		return false
	}
	if strings.HasPrefix(host, ".") || strings.HasSuffix(host, ".") || strings.ContainsAny(host, " \t") {
		return false
	}
	return true
}

func validateRating(q question.Question, raw string) Result {
	if q.Min >= q.Max {
		return fail(CodeMalformedQuestion)
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fail(CodeOutOfRange)
	}
	if n < q.Min || n > q.Max {
		return fail(CodeOutOfRange)
	}
	return ok()
}

// validateChoice checks the shape of a selection, not its membership:
// a value outside the defined options is the free-text "other" override
// and counts as a selection like any other.
func validateChoice(q question.Question, v answer.Value) Result {
	if len(q.OptionValues()) == 0 {
		return fail(CodeMalformedQuestion)
	}
	switch v.Kind {
	case answer.KindMulti:
		if q.Kind == question.KindSingleChoice && nonEmptyCount(v.Multi) > 1 {
			return fail(CodeNotAnOption)
		}
		return ok()
	case answer.KindText:
		return ok()
	default:
		return fail(CodeNotAnOption)
	}
}

func nonEmptyCount(ss []string) int {
	n := 0
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	return n
}
