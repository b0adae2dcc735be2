package ai

import (
	"context"
	"errors"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"aibomm/capsule/internal/logger"
)

// ErrDisabled is the fallback reason when no completer is configured
// (typically a missing API key).
var ErrDisabled = errors.New("AI processing disabled")

// Completer performs one chat round-trip and returns the raw reply text.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Source says which path produced a Processed result.
type Source int

const (
	SourceModel    Source = iota // interpreted from the model reply
	SourceCache                  // replayed from an earlier model reply
	SourceFallback               // synthesized locally
)

func (s Source) String() string {
	switch s {
	case SourceModel:
		return "model"
	case SourceCache:
		return "cache"
	default:
		return "fallback"
	}
}

// Processed is what a caller gets back from Process: always a displayable
// Result, plus where it came from and, for fallbacks, why.
type Processed struct {
	Result Result
	Source Source
	Reason error
}

// Interpret runs extraction and parsing on a raw reply and fills the
// caller-side defaults from the original note text: RefinedContent falls
// back to original and Title to the derived fallback title.
func Interpret(raw, original string) (Result, error) {
	payload, _ := Extract(raw)
	r, err := Parse(payload)
	if err != nil {
		return Result{}, err
	}
	return withDefaults(r, original), nil
}

func withDefaults(r Result, original string) Result {
	if strings.TrimSpace(r.RefinedContent) == "" {
		r.RefinedContent = original
	}
	if r.Title == "" {
		r.Title = FallbackTitle(r.RefinedContent)
	}
	return r
}

// Processor turns note text into a Result, absorbing transport, extraction
// and parse failures into the fallback.
type Processor struct {
	completer Completer
	cache     *lru.Cache[string, Result]
	log       *logger.Logger
}

// NewProcessor builds a Processor. completer may be nil, in which case every
// call falls back. cacheSize <= 0 disables the result cache.
func NewProcessor(completer Completer, cacheSize int, log *logger.Logger) (*Processor, error) {
	if log == nil {
		log = logger.Nop()
	}
	p := &Processor{completer: completer, log: log}
	if cacheSize > 0 {
		c, err := lru.New[string, Result](cacheSize)
		if err != nil {
			return nil, err
		}
		p.cache = c
	}
	return p, nil
}

// Process performs one AI round-trip for text. It never returns an error:
// on any failure the Result is Fallback(text, reason) and Reason says why.
func (p *Processor) Process(ctx context.Context, text string) Processed {
	if p.cache != nil {
		if r, ok := p.cache.Get(text); ok {
			p.log.Debug("ai result from cache", "chars", len(text))
			return Processed{Result: r.Clone(), Source: SourceCache}
		}
	}

	if p.completer == nil {
		return p.fallback(text, ErrDisabled)
	}

	raw, err := p.completer.Complete(ctx, BuildMessages(text))
	if err != nil {
		var te *TransportError
		if !errors.As(err, &te) {
			err = &TransportError{Err: err}
		}
		return p.fallback(text, err)
	}
	p.log.Debug("raw ai response", "response", raw)

	payload, found := Extract(raw)
	if !found {
		p.log.Debug("no brace-delimited payload in ai response")
	}
	p.log.Debug("cleaned ai payload", "payload", payload)

	r, err := Parse(payload)
	if err != nil {
		return p.fallback(text, err)
	}
	r = withDefaults(r, text)
	if p.cache != nil {
		p.cache.Add(text, r.Clone())
	}
	return Processed{Result: r, Source: SourceModel}
}

func (p *Processor) fallback(text string, reason error) Processed {
	p.log.Warn("ai processing fell back", "reason", reason.Error())
	return Processed{Result: Fallback(text, reason), Source: SourceFallback, Reason: reason}
}
