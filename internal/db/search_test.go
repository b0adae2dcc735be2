package db

import "testing"

func TestBuildFTSQuery_StopwordRemoval(t *testing.T) {
	got := BuildFTSQuery("Buy the milk for a party")
	want := `"Buy" OR "milk" OR "party"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildFTSQuery_ShortWords(t *testing.T) {
	got := BuildFTSQuery("go do run fast")
	want := `"run" OR "fast"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildFTSQuery_PunctuationTrimming(t *testing.T) {
	got := BuildFTSQuery("(dentist), appointment!")
	want := `"dentist" OR "appointment"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildFTSQuery_OperatorsAreQuoted(t *testing.T) {
	got := BuildFTSQuery("milk NOT bread")
	want := `"milk" OR "NOT" OR "bread"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildFTSQuery_AllStopwords(t *testing.T) {
	got := BuildFTSQuery("the a an in on at")
	if got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestBuildFTSQuery_Empty(t *testing.T) {
	got := BuildFTSQuery("")
	if got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestSearchNotes(t *testing.T) {
	d := setupTestDB(t)
	mustCreate(t, d, NoteInput{Title: "Dentist", Content: "Dentist appointment Friday", Tags: "health"})
	mustCreate(t, d, NoteInput{Title: "Groceries", Content: "milk, eggs, bread", Tags: "errand"})

	got, err := d.SearchNotes("dentist")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "Dentist" {
		t.Errorf("search dentist = %+v", got)
	}

	got, err = d.SearchNotes("errand")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "Groceries" {
		t.Errorf("search by tag = %+v", got)
	}

	got, err = d.SearchNotes("the a")
	if err != nil || got == nil || len(got) != 0 {
		t.Errorf("stopword-only search = %v, %v; want empty slice", got, err)
	}
}

func TestSearchNotes_FollowsUpdatesAndDeletes(t *testing.T) {
	d := setupTestDB(t)
	n := mustCreate(t, d, NoteInput{Title: "Draft", Content: "walrus"})

	if _, err := d.UpdateNote(n.ID, NoteInput{Title: "Draft", Content: "penguin"}); err != nil {
		t.Fatal(err)
	}
	if got, _ := d.SearchNotes("walrus"); len(got) != 0 {
		t.Errorf("old content still indexed: %+v", got)
	}
	if got, _ := d.SearchNotes("penguin"); len(got) != 1 {
		t.Errorf("new content not indexed: %+v", got)
	}

	if err := d.DeleteNote(n.ID); err != nil {
		t.Fatal(err)
	}
	if got, _ := d.SearchNotes("penguin"); len(got) != 0 {
		t.Errorf("deleted note still indexed: %+v", got)
	}
}
