package capture

import (
	"strings"

	"aibomm/capsule/internal/ai"
)

// Field selects which part of an AI result replaces the edited text.
type Field int

const (
	FieldRefined Field = iota // refined_content (default)
	FieldSummary              // summary, or refined_content when the summary is blank
)

// Phase is the reconciliation state of an EditState.
type Phase int

const (
	PhaseClean     Phase = iota // no AI change pending undo
	PhaseAIApplied              // an AI result is applied and can be undone
)

func (p Phase) String() string {
	if p == PhaseAIApplied {
		return "ai-applied"
	}
	return "clean"
}

// EditState is the in-progress state of one capture/edit session.
// It is a value: transitions return a new EditState and never mutate
// their input, so a half-applied result is never observable.
type EditState struct {
	CurrentText string
	// OriginalText holds the text as it was right before the last AI
	// merge. nil means there is nothing to undo.
	OriginalText *string

	Summary       string
	Tags          []string
	Category      ai.Category
	Intent        ai.Intent
	IntentPayload map[string]string
	AIProcessed   bool

	// Tags and category chosen by the user before the last AI merge;
	// Undo puts them back.
	priorTags     []string
	priorCategory ai.Category
}

// NewEditState starts a clean session on text.
func NewEditState(text string) EditState {
	return EditState{CurrentText: text, Category: ai.CategoryText}
}

// Phase reports whether an undoable AI change is pending.
func (s EditState) Phase() Phase {
	if s.OriginalText != nil {
		return PhaseAIApplied
	}
	return PhaseClean
}

// TagString joins tags the way they are stored on a note.
func (s EditState) TagString() string {
	return strings.Join(s.Tags, ",")
}

// clone copies the reference-typed fields so the result shares nothing
// with s.
func (s EditState) clone() EditState {
	out := s
	if s.OriginalText != nil {
		v := *s.OriginalText
		out.OriginalText = &v
	}
	out.Tags = copyStrings(s.Tags)
	out.priorTags = copyStrings(s.priorTags)
	if s.IntentPayload != nil {
		out.IntentPayload = make(map[string]string, len(s.IntentPayload))
		for k, v := range s.IntentPayload {
			out.IntentPayload[k] = v
		}
	}
	return out
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

// Apply merges an AI result into s.
//
// The current text is snapshotted into OriginalText before being replaced
// by the selected field. Applying on top of an earlier AI result snapshots
// the already-modified text: the last AI action wins and the earlier
// pre-AI text is no longer reachable by Undo.
func Apply(s EditState, r ai.Result, field Field) EditState {
	out := s.clone()

	snapshot := s.CurrentText
	out.OriginalText = &snapshot
	if s.Phase() == PhaseClean {
		out.priorTags = copyStrings(s.Tags)
		out.priorCategory = s.Category
	}

	out.CurrentText = selectText(r, field, s.CurrentText)
	out.Summary = r.Summary
	out.Tags = copyStrings(r.Tags)
	out.Category = r.Category
	if out.Category == "" {
		out.Category = ai.CategoryText
	}
	out.Intent = r.Intent
	out.IntentPayload = r.Clone().IntentPayload
	out.AIProcessed = true
	return out
}

func selectText(r ai.Result, field Field, current string) string {
	if field == FieldSummary && strings.TrimSpace(r.Summary) != "" {
		return r.Summary
	}
	if strings.TrimSpace(r.RefinedContent) != "" {
		return r.RefinedContent
	}
	return current
}

// Undo reverts the last AI merge: the text returns to OriginalText, the AI
// fields are cleared and the user's own tags and category come back.
// On a clean state it returns s unchanged.
func Undo(s EditState) EditState {
	if s.Phase() == PhaseClean {
		return s
	}
	out := s.clone()
	out.CurrentText = *s.OriginalText
	out.OriginalText = nil
	out.Summary = ""
	out.Tags = copyStrings(s.priorTags)
	out.Category = s.priorCategory
	if out.Category == "" {
		out.Category = ai.CategoryText
	}
	out.Intent = ai.IntentNone
	out.IntentPayload = nil
	out.AIProcessed = false
	out.priorTags = nil
	out.priorCategory = ""
	return out
}

// Edit replaces the text with a user edit. A pending AI undo stays
// available.
func Edit(s EditState, text string) EditState {
	out := s.clone()
	out.CurrentText = text
	return out
}

// AppendText adds spoken or typed text after the current text,
// separated by a space.
func AppendText(s EditState, text string) EditState {
	text = strings.TrimSpace(text)
	if text == "" {
		return s
	}
	if strings.TrimSpace(s.CurrentText) == "" {
		return Edit(s, text)
	}
	return Edit(s, s.CurrentText+" "+text)
}

// AddTag appends a user tag. Blank and duplicate tags are ignored.
func AddTag(s EditState, tag string) EditState {
	out := s.clone()
	for _, t := range ai.SplitTags(tag) {
		if !contains(out.Tags, t) {
			out.Tags = append(out.Tags, t)
		}
	}
	return out
}

// SetCategory records the capture category chosen by the user.
func SetCategory(s EditState, c ai.Category) EditState {
	out := s.clone()
	out.Category = c
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
