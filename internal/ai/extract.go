package ai

import (
	"regexp"
	"strings"
)

// payloadRe matches from the first '{' to the last '}' in the text.
// The (?s) flag lets . cross newlines. Prose that contains a stray brace
// before the real payload, or several JSON objects in one reply, will be
// over-captured; the parser then fails and the caller falls back.
var payloadRe = regexp.MustCompile(`(?s)\{.*\}`)

// Extract isolates the structured payload inside a model reply.
//
// If a brace-delimited region exists it is returned as-is with found=true.
// Otherwise a leading ```json or ``` fence and a trailing ``` fence are
// stripped and the trimmed remainder is returned with found=false (an
// extraction miss; the parser still gets a chance at it).
func Extract(raw string) (payload string, found bool) {
	if m := payloadRe.FindString(raw); m != "" {
		return m, true
	}
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s), false
}
