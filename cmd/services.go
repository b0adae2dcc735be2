package cmd

import (
	"context"
	"fmt"
	"io"

	"aibomm/capsule/internal/ai"
	"aibomm/capsule/internal/capture"
	"aibomm/capsule/internal/config"
	"aibomm/capsule/internal/db"
	"aibomm/capsule/internal/dispatch"
	"aibomm/capsule/internal/logger"
)

// newProcessor wires the chat-completions client into an ai.Processor.
// Without an API key the processor has no completer and always falls back.
func newProcessor(cfg config.AIConfig, log *logger.Logger) (*ai.Processor, error) {
	var completer ai.Completer
	if cfg.Enabled() {
		completer = ai.NewClient(ai.ClientConfig{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		}, log.With("component", "ai"))
	} else {
		log.Debug("no API key configured, AI round-trips will fall back")
	}
	return ai.NewProcessor(completer, cfg.CacheSize, log.With("component", "processor"))
}

func newDispatcher(cfg config.DispatchConfig) dispatch.Handler {
	return dispatch.NewCommandHandler(cfg.AlarmCmd, cfg.CalendarCmd, cfg.MessageCmd)
}

// dispatchIntent selects and performs the action for an AI result and
// prints the notice. Failures only show up in the notice.
func dispatchIntent(ctx context.Context, w io.Writer, h dispatch.Handler, r ai.Result, noteText string) {
	req := dispatch.Select(r.Intent, r.IntentPayload, noteText)
	notice, err := dispatch.Dispatch(ctx, h, req)
	if err != nil {
		appLog.Warn("dispatch failed", "kind", string(req.Kind), "error", err.Error())
	}
	if notice.Message != "" {
		fmt.Fprintf(w, "[dispatch] %s\n", notice.Message)
	}
}

// noteInput maps a session draft onto the store's write record. refined is
// the refined text of the last merged AI result, if any.
func noteInput(d capture.Draft, refined string) db.NoteInput {
	in := db.NoteInput{
		Title:         d.Title,
		Content:       d.Content,
		Summary:       d.Summary,
		Tags:          d.Tags,
		Category:      d.Category.String(),
		IsAIProcessed: d.AIProcessed,
		Intent:        string(d.Intent),
		IntentPayload: d.IntentPayload,
	}
	if d.AIProcessed {
		in.RefinedText = refined
	}
	return in
}

// stateFromNote rebuilds a clean EditState from a stored note so it can be
// reopened in a session.
func stateFromNote(n *db.Note) capture.EditState {
	st := capture.NewEditState(n.Content)
	st.Summary = deref(n.Summary)
	st.Tags = ai.SplitTags(n.Tags)
	st.Category = ai.ParseCategory(n.Category)
	st.Intent = ai.ParseIntent(deref(n.Intent))
	st.IntentPayload = ai.DecodePayload(deref(n.IntentPayload))
	st.AIProcessed = n.IsAIProcessed
	return st
}

// reportProcessed prints where an AI result came from and how long it took.
func reportProcessed(w io.Writer, p ai.Processed, elapsed string) {
	switch p.Source {
	case ai.SourceFallback:
		fmt.Fprintf(w, "[ai] fallback (%v) in %s\n", p.Reason, elapsed)
	default:
		fmt.Fprintf(w, "[ai] %s result in %s\n", p.Source, elapsed)
	}
	r := p.Result
	fmt.Fprintf(w, "  title:    %s\n", r.Title)
	if r.Summary != "" {
		fmt.Fprintf(w, "  summary:  %s\n", r.Summary)
	}
	if len(r.Tags) > 0 {
		fmt.Fprintf(w, "  tags:     %s\n", r.TagString())
	}
	fmt.Fprintf(w, "  category: %s\n", r.Category)
	fmt.Fprintf(w, "  intent:   %s %s\n", r.Intent, r.PayloadText())
}
