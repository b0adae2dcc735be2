package dispatch

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

type recordingHandler struct {
	got []Request
	err error
}

func (h *recordingHandler) Handle(ctx context.Context, req Request) error {
	h.got = append(h.got, req)
	return h.err
}

func TestDispatch_None(t *testing.T) {
	h := &recordingHandler{}
	n, err := Dispatch(context.Background(), h, Request{Kind: KindNone})
	if err != nil || n.Message != "" || n.Failed {
		t.Errorf("Dispatch(none) = %+v, %v", n, err)
	}
	if len(h.got) != 0 {
		t.Error("handler should not be called for KindNone")
	}
}

func TestDispatch_Success(t *testing.T) {
	h := &recordingHandler{}
	req := Request{Kind: KindAlarm, Alarm: &AlarmArgs{Minutes: 45, Label: "tea"}}
	n, err := Dispatch(context.Background(), h, req)
	if err != nil {
		t.Fatal(err)
	}
	if n.Failed || !strings.Contains(n.Message, "45 minutes") {
		t.Errorf("notice = %+v", n)
	}
	if len(h.got) != 1 || h.got[0].Alarm.Minutes != 45 {
		t.Errorf("handler got %+v", h.got)
	}
}

func TestDispatch_FailureBecomesNotice(t *testing.T) {
	h := &recordingHandler{err: errors.New("boom")}
	n, err := Dispatch(context.Background(), h, Request{Kind: KindMessage, Message: &MessageArgs{Body: "hi"}})
	var f *Failure
	if !errors.As(err, &f) || f.Kind != KindMessage {
		t.Fatalf("err = %v, want *Failure for message", err)
	}
	if !n.Failed || !strings.Contains(n.Message, "boom") {
		t.Errorf("notice = %+v", n)
	}
}

func TestDispatch_NilHandler(t *testing.T) {
	n, err := Dispatch(context.Background(), nil, Request{Kind: KindCalendar, Calendar: &CalendarArgs{}})
	if !errors.Is(err, ErrNoHandler) {
		t.Errorf("err = %v, want ErrNoHandler", err)
	}
	if !n.Failed || !strings.Contains(n.Message, "no application can handle calendar") {
		t.Errorf("notice = %+v", n)
	}
}

func TestCommandHandler_Unconfigured(t *testing.T) {
	h := NewCommandHandler("", "  ", "")
	err := h.Handle(context.Background(), Request{Kind: KindAlarm, Alarm: &AlarmArgs{}})
	if !errors.Is(err, ErrNoHandler) {
		t.Errorf("err = %v, want ErrNoHandler", err)
	}
}

func TestCommandHandler_MissingBinary(t *testing.T) {
	h := NewCommandHandler("/nonexistent/capsule-alarm", "", "")
	err := h.Handle(context.Background(), Request{Kind: KindAlarm, Alarm: &AlarmArgs{}})
	if !errors.Is(err, ErrNoHandler) {
		t.Errorf("err = %v, want ErrNoHandler", err)
	}
}

func TestCommandHandler_RunsCommandWithEnv(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	// The script fails unless the alarm minutes reach it through the env.
	script := filepath.Join(t.TempDir(), "alarm.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\ntest \"$CAPSULE_ALARM_MINUTES\" = 45\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	h := NewCommandHandler(script, "", "")
	if err := h.Handle(context.Background(), Request{Kind: KindAlarm, Alarm: &AlarmArgs{Minutes: 45}}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := h.Handle(context.Background(), Request{Kind: KindAlarm, Alarm: &AlarmArgs{Minutes: 5}})
	var f *Failure
	if !errors.As(err, &f) {
		t.Errorf("err = %v, want *Failure", err)
	}
	if errors.Is(err, ErrNoHandler) {
		t.Error("a failing command is not a missing handler")
	}
}

func TestRequestEnv(t *testing.T) {
	env := requestEnv(Request{Kind: KindCalendar, Calendar: &CalendarArgs{Title: "t", Description: "d", Location: "here"}})
	joined := strings.Join(env, "\n")
	for _, want := range []string{"CAPSULE_DISPATCH_KIND=calendar", "CAPSULE_EVENT_TITLE=t", "CAPSULE_EVENT_LOCATION=here"} {
		if !strings.Contains(joined, want) {
			t.Errorf("env missing %q: %v", want, env)
		}
	}
}
