package capture

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"aibomm/capsule/internal/ai"
	"aibomm/capsule/internal/logger"
)

var (
	// ErrBusy is returned when an AI round-trip is already in flight.
	ErrBusy = errors.New("an AI round-trip is already in progress")
	// ErrClosed is returned for operations on a closed session, including
	// a round-trip whose session closed while it was in flight.
	ErrClosed = errors.New("capture session closed")
	// ErrEmptyText is returned when there is no text to process or save.
	ErrEmptyText = errors.New("note text is empty")
)

// Processor produces an AI result for note text. *ai.Processor satisfies it.
type Processor interface {
	Process(ctx context.Context, text string) ai.Processed
}

// Draft is the whole-note record a session hands to storage on save.
type Draft struct {
	Title         string
	Content       string
	Summary       string
	Tags          string
	Category      ai.Category
	AIProcessed   bool
	Intent        ai.Intent
	IntentPayload string
}

// Session owns the EditState of one capture or edit screen. All state
// changes go through the transition functions under a single lock; at most
// one AI round-trip runs at a time.
type Session struct {
	ID string

	mu         sync.Mutex
	state      EditState
	field      Field
	processing bool
	closed     bool

	proc   Processor
	ctx    context.Context
	cancel context.CancelFunc
	log    *logger.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithField selects which result field replaces the text on merge.
func WithField(f Field) Option {
	return func(s *Session) { s.field = f }
}

// WithLogger attaches a logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithState starts the session from an existing state instead of a clean
// one, e.g. when editing a stored note.
func WithState(st EditState) Option {
	return func(s *Session) { s.state = st.clone() }
}

// NewSession opens a session on initial text. The session is cancelled
// when parent is cancelled or Close is called.
func NewSession(parent context.Context, proc Processor, initial string, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		ID:     uuid.NewString(),
		state:  NewEditState(initial),
		proc:   proc,
		ctx:    ctx,
		cancel: cancel,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("session", s.ID[:8])
	return s
}

// State returns a copy of the current state.
func (s *Session) State() EditState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Processing reports whether an AI round-trip is in flight.
func (s *Session) Processing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processing
}

func (s *Session) update(fn func(EditState) EditState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.state = fn(s.state)
	return nil
}

// Edit replaces the text with a user edit.
func (s *Session) Edit(text string) error {
	return s.update(func(st EditState) EditState { return Edit(st, text) })
}

// AppendText appends dictated or typed text.
func (s *Session) AppendText(text string) error {
	return s.update(func(st EditState) EditState { return AppendText(st, text) })
}

// AddTag adds a user tag.
func (s *Session) AddTag(tag string) error {
	return s.update(func(st EditState) EditState { return AddTag(st, tag) })
}

// SetCategory sets the capture category.
func (s *Session) SetCategory(c ai.Category) error {
	return s.update(func(st EditState) EditState { return SetCategory(st, c) })
}

// AttachImage marks the capture as an image note. With no text yet, the
// text becomes a reference to the image.
func (s *Session) AttachImage(name string) error {
	return s.update(func(st EditState) EditState {
		st = SetCategory(st, ai.CategoryImage)
		if strings.TrimSpace(st.CurrentText) == "" {
			st = Edit(st, "Image: "+name)
		}
		return st
	})
}

// Undo reverts the last AI merge. It reports whether anything was undone.
func (s *Session) Undo() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	if s.state.Phase() == PhaseClean {
		return false, nil
	}
	s.state = Undo(s.state)
	s.log.Debug("ai change undone")
	return true, nil
}

// RunAI performs one AI round-trip on the current text and merges the
// result. It blocks until the round-trip finishes or the session closes.
//
// Returns ErrBusy if another round-trip is in flight and ErrEmptyText for
// blank text. If the session is closed while waiting, the result is
// discarded and ErrClosed returned. Otherwise the merge always happens,
// with the fallback result when the model could not be used.
func (s *Session) RunAI() (ai.Processed, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ai.Processed{}, ErrClosed
	}
	if s.processing {
		s.mu.Unlock()
		return ai.Processed{}, ErrBusy
	}
	text := s.state.CurrentText
	if strings.TrimSpace(text) == "" {
		s.mu.Unlock()
		return ai.Processed{}, ErrEmptyText
	}
	s.processing = true
	ctx := s.ctx
	s.mu.Unlock()

	p := s.proc.Process(ctx, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.processing = false
	if s.closed || ctx.Err() != nil {
		s.closed = true
		s.log.Debug("discarding ai result for closed session", "source", p.Source.String())
		return ai.Processed{}, ErrClosed
	}
	s.state = Apply(s.state, p.Result, s.field)
	s.log.Debug("ai result applied", "source", p.Source.String(), "intent", p.Result.Intent.String())
	return p, nil
}

// Draft returns the note record to persist. The title is the first
// ai.TitleLimit characters of the text for AI-processed notes and the
// whole text otherwise.
func (s *Session) Draft() (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return draftFrom(s.state)
}

func draftFrom(st EditState) (Draft, error) {
	text := st.CurrentText
	if strings.TrimSpace(text) == "" {
		return Draft{}, ErrEmptyText
	}
	title := strings.TrimSpace(text)
	if st.AIProcessed {
		title = strings.TrimSpace(ai.Take(text, ai.TitleLimit))
	}
	category := st.Category
	if category == "" {
		category = ai.CategoryText
	}
	return Draft{
		Title:         title,
		Content:       text,
		Summary:       st.Summary,
		Tags:          st.TagString(),
		Category:      category,
		AIProcessed:   st.AIProcessed,
		Intent:        st.Intent,
		IntentPayload: ai.EncodePayload(st.IntentPayload),
	}, nil
}

// Close cancels any in-flight round-trip and makes later calls fail with
// ErrClosed. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
}
