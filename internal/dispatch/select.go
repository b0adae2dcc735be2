package dispatch

import (
	"strconv"
	"strings"
	"unicode"

	"aibomm/capsule/internal/ai"
)

// DefaultAlarmMinutes is used when the payload carries no usable duration.
const DefaultAlarmMinutes = 20

// LabelLimit bounds alarm labels and calendar titles, in characters.
const LabelLimit = 20

// Kind is the external action a dispatch request asks for.
type Kind string

const (
	KindNone     Kind = "none"
	KindAlarm    Kind = "alarm"
	KindCalendar Kind = "calendar"
	KindMessage  Kind = "message"
)

type AlarmArgs struct {
	Minutes int    `json:"minutes"`
	Label   string `json:"label"`
}

type CalendarArgs struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Time        string `json:"time,omitempty"`
	Location    string `json:"location,omitempty"`
}

// MessageArgs leaves the recipient to the user; Contact is only a hint.
type MessageArgs struct {
	Body    string `json:"body"`
	Contact string `json:"contact,omitempty"`
}

// Request is the action a collaborator should perform. Exactly one of the
// argument pointers is set, matching Kind; none for KindNone.
type Request struct {
	Kind     Kind          `json:"kind"`
	Alarm    *AlarmArgs    `json:"alarm,omitempty"`
	Calendar *CalendarArgs `json:"calendar,omitempty"`
	Message  *MessageArgs  `json:"message,omitempty"`
}

// durationKeys are the payload keys searched, in order, for an alarm
// duration hint. "time" is left out: it carries an ISO timestamp, whose
// leading digits are a year, not minutes.
var durationKeys = []string{"duration", "raw_text", "message"}

// Select computes the dispatch request for an intent. It cannot fail:
// missing payload values fall back to defaults.
func Select(intent ai.Intent, payload map[string]string, noteText string) Request {
	switch intent {
	case ai.IntentAlarm:
		return Request{Kind: KindAlarm, Alarm: &AlarmArgs{
			Minutes: alarmMinutes(payload),
			Label:   ai.Take(noteText, LabelLimit),
		}}
	case ai.IntentCalendar:
		return Request{Kind: KindCalendar, Calendar: &CalendarArgs{
			Title:       ai.Take(noteText, LabelLimit),
			Description: noteText,
			Time:        strings.TrimSpace(payload["time"]),
			Location:    strings.TrimSpace(payload["location"]),
		}}
	case ai.IntentMessage:
		return Request{Kind: KindMessage, Message: &MessageArgs{
			Body:    noteText,
			Contact: strings.TrimSpace(payload["contact"]),
		}}
	default:
		return Request{Kind: KindNone}
	}
}

// alarmMinutes returns the first run of digits found in the payload's
// duration hints, or DefaultAlarmMinutes.
func alarmMinutes(payload map[string]string) int {
	for _, k := range durationKeys {
		if n, ok := firstNumber(payload[k]); ok {
			return n
		}
	}
	return DefaultAlarmMinutes
}

func firstNumber(s string) (int, bool) {
	start := strings.IndexFunc(s, isDigit)
	if start < 0 {
		return 0, false
	}
	end := strings.IndexFunc(s[start:], func(r rune) bool { return !isDigit(r) })
	digits := s[start:]
	if end >= 0 {
		digits = s[start : start+end]
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// isDigit accepts ASCII digits only; strconv cannot parse other scripts.
func isDigit(r rune) bool {
	return r < unicode.MaxASCII && unicode.IsDigit(r)
}
