// Package question holds the questionnaire's question model and the kind
// registry that normalizes the historical type names found in stored data
// into a single canonical enum. Downstream packages only ever compare
// against Kind constants, never against raw storage strings.
package question

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the canonical semantic type of a question.
type Kind string

const (
	KindText         Kind = "text"
	KindEmail        Kind = "email"
	KindPhone        Kind = "phone"
	KindURL          Kind = "url"
	KindRating       Kind = "rating"
	KindSingleChoice Kind = "single-choice"
	KindMultiChoice  Kind = "multi-choice"
	KindFile         Kind = "file"
	KindAudio        Kind = "audio"
)

var ErrUnknownKind = errors.New("question: unknown kind")

// synonyms maps every historical storage spelling to its canonical kind.
// The stored schema accumulated several names for the same concept
// (radio/single/single_choice/conditional all mean one-of-many), so the
// mapping is applied exactly once, at load time.
var synonyms = map[string]Kind{
	"text":      KindText,
	"string":    KindText,
	"free_text": KindText,
	"freetext":  KindText,

	"email": KindEmail,

	"phone":     KindPhone,
	"tel":       KindPhone,
	"telephone": KindPhone,

	"url":     KindURL,
	"link":    KindURL,
	"website": KindURL,

	"rating": KindRating,
	"scale":  KindRating,
	"stars":  KindRating,

	"radio":              KindSingleChoice,
	"single":             KindSingleChoice,
	"single_choice":      KindSingleChoice,
	"select":             KindSingleChoice,
	"conditional":        KindSingleChoice,
	"conditional_choice": KindSingleChoice,

	"checkbox":        KindMultiChoice,
	"multi":           KindMultiChoice,
	"multi_choice":    KindMultiChoice,
	"multiple_choice": KindMultiChoice,
	"multiselect":     KindMultiChoice,

	"file":     KindFile,
	"upload":   KindFile,
	"document": KindFile,

	"audio":     KindAudio,
	"voice":     KindAudio,
	"recording": KindAudio,
}

// Classify resolves a raw storage type name to its canonical kind.
// Matching is case-insensitive and treats "-", "_" and spaces as equal.
func Classify(raw string) (Kind, error) {
	key := strings.TrimSpace(strings.ToLower(raw))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if k, ok := synonyms[key]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
}

// RequiresOptions reports whether a kind needs a defined option list.
func RequiresOptions(k Kind) bool {
	return k == KindSingleChoice || k == KindMultiChoice
}

// IsMedia reports whether a kind is answered through the capture adapter.
func IsMedia(k Kind) bool {
	return k == KindFile || k == KindAudio
}
