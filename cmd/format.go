package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"aibomm/capsule/internal/db"
)

// formatDurationShort formats a duration into a compact human-readable string.
//
//	<1s  -> "0.Xs"
//	<1m  -> "X.Xs"
//	<1h  -> "XmYs"
//	else -> "XhYm"
func formatDurationShort(d time.Duration) string {
	ms := d.Milliseconds()
	switch {
	case ms < 1000:
		return fmt.Sprintf("0.%ds", ms/100)
	case ms < 60000:
		return fmt.Sprintf("%d.%ds", ms/1000, (ms%1000)/100)
	case ms < 3600000:
		return fmt.Sprintf("%dm%ds", ms/60000, (ms%60000)/1000)
	default:
		return fmt.Sprintf("%dh%dm", ms/3600000, (ms%3600000)/60000)
	}
}

// truncateMiddle shortens a string by replacing the middle with "..." if it
// exceeds maxLen runes. Keeps roughly equal portions from start and end.
func truncateMiddle(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	available := maxLen - 3
	firstHalf := (available + 1) / 2
	lastHalf := available / 2
	return string(r[:firstHalf]) + "..." + string(r[len(r)-lastHalf:])
}

// relativeTime renders a Unix-millis timestamp as "3 minutes ago".
func relativeTime(ms int64) string {
	return humanize.Time(time.UnixMilli(ms))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// printNoteLine writes the one-line list form of a note.
func printNoteLine(w io.Writer, n db.Note) {
	mark := "[ ]"
	if n.IsDone {
		mark = "[x]"
	}
	ai := ""
	if n.IsAIProcessed {
		ai = " *"
	}
	tags := ""
	if n.Tags != "" {
		tags = "  #" + strings.ReplaceAll(n.Tags, ",", " #")
	}
	fmt.Fprintf(w, "  %s %s %s%s  (%s, %s)%s\n",
		mark, shortID(n.ID), truncateMiddle(singleLine(n.Title), 60), ai,
		n.Category, relativeTime(n.UpdatedAt), tags)
}

// printNoteDetail writes every stored field of a note.
func printNoteDetail(w io.Writer, n *db.Note) {
	status := "open"
	if n.IsDone {
		status = "done"
	}
	fmt.Fprintf(w, "%s  %s\n", n.ID, n.Title)
	fmt.Fprintf(w, "  status:   %s\n", status)
	fmt.Fprintf(w, "  category: %s\n", n.Category)
	if n.Tags != "" {
		fmt.Fprintf(w, "  tags:     %s\n", n.Tags)
	}
	if n.IsAIProcessed {
		fmt.Fprintf(w, "  ai:       processed\n")
	}
	if s := deref(n.Summary); s != "" {
		fmt.Fprintf(w, "  summary:  %s\n", s)
	}
	if intent := deref(n.Intent); intent != "" {
		fmt.Fprintf(w, "  intent:   %s %s\n", intent, deref(n.IntentPayload))
	}
	fmt.Fprintf(w, "  created:  %s\n", relativeTime(n.CreatedAt))
	fmt.Fprintf(w, "  updated:  %s\n", relativeTime(n.UpdatedAt))
	fmt.Fprintf(w, "\n%s\n", n.Content)
	if r := deref(n.RefinedText); r != "" && r != n.Content {
		fmt.Fprintf(w, "\nRefined:\n%s\n", r)
	}
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
