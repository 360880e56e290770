// Package answer holds a respondent's in-progress answers: a keyed store of
// tagged values owned by exactly one response session. Media answers carry
// their capture lifecycle inside the value itself, so the store is the single
// source of truth for "is this upload done".
package answer

import "strings"

// ValueKind discriminates the answer value union.
type ValueKind int

const (
	KindNil   ValueKind = iota // skipped optional question
	KindText                   // text/email/phone/url/rating/single-choice
	KindMulti                  // multi-choice selections
	KindMedia                  // file/audio captures
)

// Stage is the media capture lifecycle.
type Stage int

const (
	StageIdle Stage = iota
	StageCapturing
	StageUploading
	StageResolved
	StageFailed
)

// Tag classifies a resolved media payload for downstream rendering.
// The serialized form "<Tag>:<url>" is stored in leads and must be
// preserved bit-for-bit.
type Tag string

const (
	TagFile  Tag = "File"
	TagImage Tag = "Image"
	TagAudio Tag = "Audio"
)

// Media is the lifecycle state of a file/audio answer.
type Media struct {
	Stage Stage
	Tag   Tag
	URL   string
	Code  string // failure code when Stage == StageFailed
}

// Tagged returns the wire form of a resolved media value, e.g. "Audio:<url>".
func (m Media) Tagged() string {
	if m.Stage != StageResolved {
		return ""
	}
	return string(m.Tag) + ":" + m.URL
}

// ParseTagged parses the wire form produced by Tagged back into a resolved
// Media. Returns false when s does not start with a known tag.
func ParseTagged(s string) (Media, bool) {
	for _, t := range []Tag{TagFile, TagImage, TagAudio} {
		prefix := string(t) + ":"
		if strings.HasPrefix(s, prefix) {
			return Media{Stage: StageResolved, Tag: t, URL: s[len(prefix):]}, true
		}
	}
	return Media{}, false
}

// TagForContentType picks the media tag from a MIME content type.
func TagForContentType(contentType string) Tag {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return TagImage
	case strings.HasPrefix(ct, "audio/"):
		return TagAudio
	default:
		return TagFile
	}
}

// Value is one answer. Exactly one of the payload fields is meaningful,
// selected by Kind.
type Value struct {
	Kind  ValueKind
	Text  string
	Multi []string
	Media Media
}

func Nil() Value               { return Value{Kind: KindNil} }
func Text(s string) Value      { return Value{Kind: KindText, Text: s} }
func Multi(ss []string) Value  { return Value{Kind: KindMulti, Multi: ss} }
func MediaOf(m Media) Value    { return Value{Kind: KindMedia, Media: m} }
func Uploading(t Tag) Value    { return MediaOf(Media{Stage: StageUploading, Tag: t}) }
func Capturing() Value         { return MediaOf(Media{Stage: StageCapturing, Tag: TagAudio}) }
func Resolved(t Tag, url string) Value {
	return MediaOf(Media{Stage: StageResolved, Tag: t, URL: url})
}

// Empty reports whether the value carries no confirmed answer. Media values
// that are not yet resolved count as empty: a still-running upload is "not
// yet answered", never a partial answer.
func (v Value) Empty() bool {
	switch v.Kind {
	case KindText:
		return strings.TrimSpace(v.Text) == ""
	case KindMulti:
		for _, s := range v.Multi {
			if strings.TrimSpace(s) != "" {
				return false
			}
		}
		return true
	case KindMedia:
		return v.Media.Stage != StageResolved
	default:
		return true
	}
}

// Wire returns the persisted form of the value: string, []string, tagged
// media string, or nil.
func (v Value) Wire() any {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindMulti:
		out := make([]string, len(v.Multi))
		copy(out, v.Multi)
		return out
	case KindMedia:
		if v.Media.Stage == StageResolved {
			return v.Media.Tagged()
		}
		return nil
	default:
		return nil
	}
}

// Display flattens the value for transcript and lead fields. Multi-select
// values join with ", ".
func (v Value) Display() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindMulti:
		return strings.Join(v.Multi, ", ")
	case KindMedia:
		return v.Media.Tagged()
	default:
		return ""
	}
}
