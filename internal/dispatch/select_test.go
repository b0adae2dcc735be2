package dispatch

import (
	"strings"
	"testing"

	"aibomm/capsule/internal/ai"
)

func TestSelect_AlarmMinutes(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]string
		want    int
	}{
		{"raw text duration", map[string]string{"raw_text": "remind me in 45 minutes"}, 45},
		{"nil payload", nil, DefaultAlarmMinutes},
		{"non numeric", map[string]string{"raw_text": "in a while"}, DefaultAlarmMinutes},
		{"first run only", map[string]string{"raw_text": "in 1 hour 30 minutes"}, 1},
		{"explicit duration wins", map[string]string{"duration": "15", "raw_text": "in 45 minutes"}, 15},
		{"message used when raw text has no digits", map[string]string{"raw_text": "soon", "message": "ping in 5"}, 5},
		{"zero skipped", map[string]string{"raw_text": "0 minutes", "message": "in 10"}, 10},
		{"iso time is not a duration", map[string]string{"time": "2026-10-16T07:30:00", "raw_text": "wake me up tomorrow morning"}, DefaultAlarmMinutes},
		{"iso time alone", map[string]string{"time": "07:30"}, DefaultAlarmMinutes},
		{"overflow ignored", map[string]string{"raw_text": "99999999999999999999"}, DefaultAlarmMinutes},
		{"full-width digits ignored", map[string]string{"raw_text": "４５分钟"}, DefaultAlarmMinutes},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := Select(ai.IntentAlarm, tt.payload, "wake up")
			if req.Kind != KindAlarm || req.Alarm == nil {
				t.Fatalf("request = %+v", req)
			}
			if req.Alarm.Minutes != tt.want {
				t.Errorf("Minutes = %d, want %d", req.Alarm.Minutes, tt.want)
			}
		})
	}
}

func TestSelect_AlarmLabel(t *testing.T) {
	text := strings.Repeat("x", 30)
	req := Select(ai.IntentAlarm, nil, text)
	if req.Alarm.Label != strings.Repeat("x", 20) {
		t.Errorf("Label = %q", req.Alarm.Label)
	}
}

func TestSelect_Calendar(t *testing.T) {
	text := "Team sync on Friday at 3pm in room 4"
	req := Select(ai.IntentCalendar, map[string]string{"time": "2026-10-16T15:00", "location": " room 4 "}, text)
	if req.Kind != KindCalendar || req.Calendar == nil {
		t.Fatalf("request = %+v", req)
	}
	want := CalendarArgs{Title: "Team sync on Friday ", Description: text, Time: "2026-10-16T15:00", Location: "room 4"}
	if *req.Calendar != want {
		t.Errorf("Calendar = %+v, want %+v", *req.Calendar, want)
	}
	if req.Alarm != nil || req.Message != nil {
		t.Error("only calendar args should be set")
	}
}

func TestSelect_Message(t *testing.T) {
	req := Select(ai.IntentMessage, map[string]string{"contact": "Mom"}, "Tell mom I'll be late")
	if req.Kind != KindMessage || req.Message == nil {
		t.Fatalf("request = %+v", req)
	}
	if req.Message.Body != "Tell mom I'll be late" || req.Message.Contact != "Mom" {
		t.Errorf("Message = %+v", *req.Message)
	}
}

func TestSelect_NoAction(t *testing.T) {
	for _, intent := range []ai.Intent{ai.IntentNone, ai.IntentInfo, ai.Intent("unknown")} {
		req := Select(intent, map[string]string{"raw_text": "5"}, "text")
		if req.Kind != KindNone || req.Alarm != nil || req.Calendar != nil || req.Message != nil {
			t.Errorf("Select(%q) = %+v, want none", intent, req)
		}
	}
}
