package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// ErrNoHandler means nothing is installed that can perform the action.
var ErrNoHandler = errors.New("no application can handle this action")

// Failure reports that an external action could not be performed.
type Failure struct {
	Kind Kind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("dispatching %s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Handler performs dispatch requests against the host system.
type Handler interface {
	Handle(ctx context.Context, req Request) error
}

// Notice is the short, non-blocking message shown to the user after a
// dispatch attempt.
type Notice struct {
	Message string
	Failed  bool
}

// Dispatch hands req to h and turns the outcome into a Notice. A KindNone
// request is not dispatched and yields an empty notice. Failures never
// propagate: they only change the notice.
func Dispatch(ctx context.Context, h Handler, req Request) (Notice, error) {
	if req.Kind == KindNone {
		return Notice{}, nil
	}
	var err error
	if h == nil {
		err = &Failure{Kind: req.Kind, Err: ErrNoHandler}
	} else if herr := h.Handle(ctx, req); herr != nil {
		var f *Failure
		if errors.As(herr, &f) {
			err = f
		} else {
			err = &Failure{Kind: req.Kind, Err: herr}
		}
	}
	if err != nil {
		if errors.Is(err, ErrNoHandler) {
			return Notice{Message: fmt.Sprintf("Dispatch failed: no application can handle %s", req.Kind), Failed: true}, err
		}
		return Notice{Message: fmt.Sprintf("Dispatch failed: %v", err), Failed: true}, err
	}
	return Notice{Message: successMessage(req)}, nil
}

func successMessage(req Request) string {
	switch req.Kind {
	case KindAlarm:
		return fmt.Sprintf("Alarm set for %d minutes from now", req.Alarm.Minutes)
	case KindCalendar:
		return "Opening calendar to add the event..."
	case KindMessage:
		return "Opening messages..."
	default:
		return ""
	}
}

// CommandHandler runs one configured external command per kind. Request
// arguments are passed as CAPSULE_* environment variables; the command
// line itself is split on whitespace. A kind with no command fails with
// ErrNoHandler.
type CommandHandler struct {
	Commands map[Kind]string
}

// NewCommandHandler builds a handler from per-kind command lines. Empty
// entries are dropped.
func NewCommandHandler(alarm, calendar, message string) *CommandHandler {
	cmds := map[Kind]string{}
	for k, v := range map[Kind]string{KindAlarm: alarm, KindCalendar: calendar, KindMessage: message} {
		if strings.TrimSpace(v) != "" {
			cmds[k] = v
		}
	}
	return &CommandHandler{Commands: cmds}
}

func (h *CommandHandler) Handle(ctx context.Context, req Request) error {
	line := strings.Fields(h.Commands[req.Kind])
	if len(line) == 0 {
		return &Failure{Kind: req.Kind, Err: ErrNoHandler}
	}
	binary, err := exec.LookPath(line[0])
	if err != nil {
		return &Failure{Kind: req.Kind, Err: fmt.Errorf("%w: %v", ErrNoHandler, err)}
	}

	cmd := exec.CommandContext(ctx, binary, line[1:]...)
	cmd.Env = append(os.Environ(), requestEnv(req)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &Failure{Kind: req.Kind, Err: fmt.Errorf("%w (output: %s)", err, strings.TrimSpace(string(out)))}
	}
	return nil
}

func requestEnv(req Request) []string {
	env := []string{"CAPSULE_DISPATCH_KIND=" + string(req.Kind)}
	switch {
	case req.Alarm != nil:
		env = append(env,
			"CAPSULE_ALARM_MINUTES="+strconv.Itoa(req.Alarm.Minutes),
			"CAPSULE_ALARM_LABEL="+req.Alarm.Label,
		)
	case req.Calendar != nil:
		env = append(env,
			"CAPSULE_EVENT_TITLE="+req.Calendar.Title,
			"CAPSULE_EVENT_DESCRIPTION="+req.Calendar.Description,
			"CAPSULE_EVENT_TIME="+req.Calendar.Time,
			"CAPSULE_EVENT_LOCATION="+req.Calendar.Location,
		)
	case req.Message != nil:
		env = append(env,
			"CAPSULE_MESSAGE_BODY="+req.Message.Body,
			"CAPSULE_MESSAGE_CONTACT="+req.Message.Contact,
		)
	}
	return env
}
