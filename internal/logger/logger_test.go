package logger

import "testing"

func TestSanitizeKVs(t *testing.T) {
	got := sanitizeKVs([]interface{}{"api_key", "sk-123", "model", "m1", "Authorization", "Bearer x", "dangling"})
	want := []interface{}{"api_key", "[REDACTED]", "model", "m1", "Authorization", "[REDACTED]", "dangling"}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSanitizeKVs_Empty(t *testing.T) {
	if got := sanitizeKVs(nil); len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{"", "console", "json"} {
		l, err := New(format, true)
		if err != nil {
			t.Fatalf("New(%q): %v", format, err)
		}
		l.Debug("hello", "k", "v")
	}
}

func TestNopDoesNotPanic(t *testing.T) {
	l := Nop().With("session", "abc")
	l.Info("ignored", "token", "t")
	l.Sync()
}
