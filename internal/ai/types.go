package ai

import (
	"encoding/json"
	"strings"
)

// Category classifies what kind of note a capture is.
type Category string

const (
	CategoryText  Category = "text"
	CategoryAudio Category = "audio"
	CategoryImage Category = "image"
	CategoryLink  Category = "link"
	CategoryTask  Category = "task"
)

// ParseCategory maps s to a known category, defaulting to CategoryText.
func ParseCategory(s string) Category {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryText, CategoryAudio, CategoryImage, CategoryLink, CategoryTask:
		return c
	default:
		return CategoryText
	}
}

func (c Category) String() string { return string(c) }

// Intent is the action the model thinks the user implied.
// IntentNone is the zero value and means no external action.
type Intent string

const (
	IntentNone     Intent = ""
	IntentInfo     Intent = "info"
	IntentCalendar Intent = "calendar"
	IntentAlarm    Intent = "alarm"
	IntentMessage  Intent = "message"
)

// ParseIntent maps s to an actionable intent. "info", empty and unknown
// values all become IntentNone.
func ParseIntent(s string) Intent {
	switch i := Intent(strings.ToLower(strings.TrimSpace(s))); i {
	case IntentCalendar, IntentAlarm, IntentMessage:
		return i
	default:
		return IntentNone
	}
}

// Actionable reports whether the intent asks for an external dispatch.
func (i Intent) Actionable() bool {
	return i != IntentNone && i != IntentInfo
}

func (i Intent) String() string {
	if i == IntentNone {
		return "none"
	}
	return string(i)
}

// Result is the structured outcome of one AI round-trip.
type Result struct {
	Title          string            `json:"title"`
	RefinedContent string            `json:"refined_content"`
	Summary        string            `json:"summary"`
	Tags           []string          `json:"tags"`
	Category       Category          `json:"category"`
	Intent         Intent            `json:"intent,omitempty"`
	IntentPayload  map[string]string `json:"intent_payload,omitempty"`
}

// TagString joins tags the way they are stored on a note.
func (r Result) TagString() string {
	return strings.Join(r.Tags, ",")
}

// PayloadText serializes the intent payload for persistence.
// Returns "" when there is no payload.
func (r Result) PayloadText() string {
	return EncodePayload(r.IntentPayload)
}

// Clone returns a deep copy so cached results can't be mutated by callers.
func (r Result) Clone() Result {
	out := r
	if r.Tags != nil {
		out.Tags = append([]string(nil), r.Tags...)
	}
	if r.IntentPayload != nil {
		out.IntentPayload = make(map[string]string, len(r.IntentPayload))
		for k, v := range r.IntentPayload {
			out.IntentPayload[k] = v
		}
	}
	return out
}

// EncodePayload serializes an intent payload as JSON text, or "" if empty.
func EncodePayload(p map[string]string) string {
	if len(p) == 0 {
		return ""
	}
	b, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(b)
}

// DecodePayload is the inverse of EncodePayload. Text that is not a JSON
// object (older notes stored a bare string) is kept under "raw_text".
func DecodePayload(s string) map[string]string {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return nil
	}
	var raw json.RawMessage = []byte(s)
	if !json.Valid(raw) {
		return map[string]string{"raw_text": s}
	}
	return decodePayload(raw)
}

// SplitTags splits a comma-separated tag string, trimming blanks.
// Full-width commas are treated as separators too.
func SplitTags(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '，' })
	var tags []string
	for _, f := range fields {
		if t := strings.TrimSpace(f); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Take returns the first n characters (runes) of s.
func Take(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for idx := range s {
		if i == n {
			return s[:idx]
		}
		i++
	}
	return s
}
