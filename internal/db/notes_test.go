package db

import (
	"errors"
	"testing"
	"time"
)

// setupTestDB opens an in-memory database with the real schema and a
// controllable clock starting at a fixed instant.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })

	clock := time.UnixMilli(1_700_000_000_000)
	d.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return d
}

func mustCreate(t *testing.T, d *DB, in NoteInput) *Note {
	t.Helper()
	n, err := d.CreateNote(in)
	if err != nil {
		t.Fatalf("CreateNote(%q): %v", in.Title, err)
	}
	return n
}

func TestCreateNote_Defaults(t *testing.T) {
	d := setupTestDB(t)
	n := mustCreate(t, d, NoteInput{Title: "  Buy milk  ", Content: "Buy milk"})

	if n.ID == "" {
		t.Fatal("expected generated ID")
	}
	if n.Title != "Buy milk" {
		t.Errorf("title = %q, want trimmed", n.Title)
	}
	if n.Category != "text" {
		t.Errorf("category = %q, want text", n.Category)
	}
	if n.IsDone || n.IsAIProcessed {
		t.Errorf("unexpected flags: done=%v ai=%v", n.IsDone, n.IsAIProcessed)
	}
	if n.RefinedText != nil || n.Summary != nil || n.Intent != nil || n.IntentPayload != nil {
		t.Errorf("optional fields should be NULL: %+v", n)
	}
	if n.CreatedAt != n.UpdatedAt {
		t.Errorf("created %d != updated %d", n.CreatedAt, n.UpdatedAt)
	}
}

func TestCreateNote_EmptyTitle(t *testing.T) {
	d := setupTestDB(t)
	if _, err := d.CreateNote(NoteInput{Title: "   "}); err == nil {
		t.Fatal("expected error for empty title")
	}
}

func TestCreateNote_AIFields(t *testing.T) {
	d := setupTestDB(t)
	n := mustCreate(t, d, NoteInput{
		Title:         "Dentist",
		Content:       "Dentist appointment Friday 3pm.",
		RefinedText:   "Dentist appointment Friday 3pm.",
		Summary:       "Dentist appt",
		Tags:          "health,appointment",
		Category:      "task",
		IsAIProcessed: true,
		Intent:        "calendar",
		IntentPayload: `{"time":"Friday 3pm"}`,
	})

	got, err := d.GetNote(n.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsAIProcessed || got.Category != "task" || got.Tags != "health,appointment" {
		t.Errorf("unexpected note: %+v", got)
	}
	if got.Intent == nil || *got.Intent != "calendar" {
		t.Errorf("intent = %v", got.Intent)
	}
	if got.IntentPayload == nil || *got.IntentPayload != `{"time":"Friday 3pm"}` {
		t.Errorf("payload = %v", got.IntentPayload)
	}
	if got.Summary == nil || *got.Summary != "Dentist appt" {
		t.Errorf("summary = %v", got.Summary)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	d := setupTestDB(t)
	if _, err := d.GetNote("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateNote(t *testing.T) {
	d := setupTestDB(t)
	n := mustCreate(t, d, NoteInput{Title: "Old", Content: "old", Intent: "alarm"})

	got, err := d.UpdateNote(n.ID, NoteInput{Title: "New", Content: "new", Tags: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "New" || got.Content != "new" || got.Tags != "x" {
		t.Errorf("update not applied: %+v", got)
	}
	if got.Intent != nil {
		t.Errorf("intent should be cleared, got %q", *got.Intent)
	}
	if got.UpdatedAt <= n.UpdatedAt {
		t.Errorf("updated_at not advanced: %d <= %d", got.UpdatedAt, n.UpdatedAt)
	}
	if got.CreatedAt != n.CreatedAt {
		t.Errorf("created_at changed: %d -> %d", n.CreatedAt, got.CreatedAt)
	}

	if _, err := d.UpdateNote("missing", NoteInput{Title: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing: err = %v, want ErrNotFound", err)
	}
}

func TestToggleNote(t *testing.T) {
	d := setupTestDB(t)
	n := mustCreate(t, d, NoteInput{Title: "Task"})

	got, err := d.ToggleNote(n.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsDone {
		t.Error("expected done after first toggle")
	}
	got, err = d.ToggleNote(n.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.IsDone {
		t.Error("expected open after second toggle")
	}

	if _, err := d.ToggleNote("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteNote(t *testing.T) {
	d := setupTestDB(t)
	n := mustCreate(t, d, NoteInput{Title: "Gone"})

	if err := d.DeleteNote(n.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := d.GetNote(n.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete: err = %v", err)
	}
	if err := d.DeleteNote(n.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestAllNotes_Ordering(t *testing.T) {
	d := setupTestDB(t)
	a := mustCreate(t, d, NoteInput{Title: "A"})
	b := mustCreate(t, d, NoteInput{Title: "B"})
	c := mustCreate(t, d, NoteInput{Title: "C"})

	// Mark B done; it should sink below the open notes regardless of recency.
	if _, err := d.ToggleNote(b.ID); err != nil {
		t.Fatal(err)
	}
	// Touch A so it becomes the most recent open note.
	if _, err := d.UpdateNote(a.ID, NoteInput{Title: "A"}); err != nil {
		t.Fatal(err)
	}

	notes, err := d.AllNotes()
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, n := range notes {
		ids = append(ids, n.ID)
	}
	want := []string{a.ID, c.ID, b.ID}
	if len(ids) != len(want) {
		t.Fatalf("got %d notes, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("position %d: got %s, want %s", i, ids[i], want[i])
		}
	}
}

func TestLatestTitle(t *testing.T) {
	d := setupTestDB(t)
	if _, err := d.LatestTitle(); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty db: err = %v, want ErrNotFound", err)
	}

	first := mustCreate(t, d, NoteInput{Title: "First"})
	mustCreate(t, d, NoteInput{Title: "Second"})
	if got, _ := d.LatestTitle(); got != "Second" {
		t.Errorf("latest = %q, want Second", got)
	}

	if _, err := d.UpdateNote(first.ID, NoteInput{Title: "First again"}); err != nil {
		t.Fatal(err)
	}
	if got, _ := d.LatestTitle(); got != "First again" {
		t.Errorf("latest = %q, want First again", got)
	}
}

func TestSearchByIDPrefix(t *testing.T) {
	d := setupTestDB(t)
	n := mustCreate(t, d, NoteInput{Title: "Target"})
	mustCreate(t, d, NoteInput{Title: "Other"})

	got, err := d.SearchByIDPrefix(n.ID[:8], 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != n.ID {
		t.Errorf("prefix search = %+v", got)
	}
}
