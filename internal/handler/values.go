package handler

import (
	"fmt"
	"math"
	"strconv"

	"leadform/internal/answer"
	"leadform/internal/question"
)

// valueFor converts a decoded JSON answer into the typed value for its
// question. Unknown shapes fall back to their string rendering so that
// validation, not decoding, decides whether the answer is acceptable.
func valueFor(q question.Question, raw any) answer.Value {
	if raw == nil {
		return answer.Nil()
	}
	switch q.Kind {
	case question.KindMultiChoice:
		return multiValue(raw)
	case question.KindFile, question.KindAudio:
		return mediaValue(raw)
	default:
		return answer.Text(scalarString(raw))
	}
}

func multiValue(raw any) answer.Value {
	switch v := raw.(type) {
	case []any:
		ss := make([]string, 0, len(v))
		for _, item := range v {
			ss = append(ss, scalarString(item))
		}
		return answer.Multi(ss)
	case []string:
		return answer.Multi(v)
	case string:
		return answer.Multi([]string{v})
	default:
		return answer.Multi([]string{scalarString(v)})
	}
}

func mediaValue(raw any) answer.Value {
	s, ok := raw.(string)
	if !ok {
		return answer.Nil()
	}
	if m, ok := answer.ParseTagged(s); ok {
		return answer.MediaOf(m)
	}
	return answer.Nil()
}

func scalarString(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
