package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyPayload is wrapped by ParseError when there was nothing to decode.
var ErrEmptyPayload = errors.New("empty payload")

// ErrNotObject is wrapped by ParseError when the payload is valid JSON but
// not an object.
var ErrNotObject = errors.New("payload is not a JSON object")

// ParseError reports a payload that could not be decoded.
type ParseError struct {
	Payload string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing AI payload: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Wire field names. The remote model uses snake_case for refined_content
// but camelCase for intentPayload; both spellings are accepted for each.
var (
	titleKeys    = []string{"title"}
	refinedKeys  = []string{"refined_content", "refinedContent"}
	summaryKeys  = []string{"summary"}
	tagsKeys     = []string{"tags"}
	categoryKeys = []string{"category"}
	intentKeys   = []string{"intent"}
	payloadKeys  = []string{"intentPayload", "intent_payload"}
)

// Parse decodes an extracted payload into a Result.
//
// Every field is optional. Missing or wrongly-typed fields take their
// default (empty strings, no tags, CategoryText, IntentNone, nil payload);
// a well-formed object with none of the known fields is therefore a valid,
// all-default Result. Unknown fields are ignored. Only a payload that is
// not a JSON object yields a *ParseError.
//
// RefinedContent is left empty when absent: substituting the original text
// is the caller's job since the parser never sees it.
func Parse(payload string) (Result, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return Result{}, &ParseError{Payload: payload, Err: ErrEmptyPayload}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			err = ErrNotObject
		}
		return Result{}, &ParseError{Payload: payload, Err: err}
	}
	if fields == nil {
		// literal null
		return Result{}, &ParseError{Payload: payload, Err: ErrNotObject}
	}

	r := Result{
		Title:          stringField(fields, titleKeys),
		RefinedContent: stringField(fields, refinedKeys),
		Summary:        stringField(fields, summaryKeys),
		Tags:           tagsField(fields, tagsKeys),
		Category:       ParseCategory(stringField(fields, categoryKeys)),
		Intent:         ParseIntent(stringField(fields, intentKeys)),
	}
	if raw, ok := lookup(fields, payloadKeys); ok {
		r.IntentPayload = decodePayload(raw)
	}
	return r, nil
}

func lookup(fields map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			return v, true
		}
	}
	return nil, false
}

// stringField returns the trimmed string value of the first present key,
// or "" if it is absent or not a string.
func stringField(fields map[string]json.RawMessage, keys []string) string {
	raw, ok := lookup(fields, keys)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// tagsField accepts "a,b" or ["a","b"]. Anything else is no tags.
func tagsField(fields map[string]json.RawMessage, keys []string) []string {
	raw, ok := lookup(fields, keys)
	if !ok {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return SplitTags(s)
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	var tags []string
	for _, item := range list {
		var t string
		if err := json.Unmarshal(item, &t); err != nil {
			continue
		}
		tags = append(tags, SplitTags(t)...)
	}
	return tags
}

// decodePayload turns the intentPayload value into a flat string map.
// Objects keep string values as-is, other scalars as their JSON text and
// nested values as compact JSON; nulls are dropped. A bare string becomes
// {"raw_text": s}. Anything else, or an empty result, is nil.
func decodePayload(raw json.RawMessage) map[string]string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s = strings.TrimSpace(s); s == "" {
			return nil
		}
		return map[string]string{"raw_text": s}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || len(obj) == 0 {
		return nil
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		v = bytes.TrimSpace(v)
		if len(v) == 0 || string(v) == "null" {
			continue
		}
		var str string
		if err := json.Unmarshal(v, &str); err == nil {
			if str = strings.TrimSpace(str); str != "" {
				out[k] = str
			}
			continue
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, v); err != nil {
			continue
		}
		out[k] = buf.String()
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
