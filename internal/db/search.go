package db

import (
	"strings"
	"unicode"
)

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "of": true, "is": true,
	"it": true, "and": true, "or": true, "with": true, "from": true,
	"by": true, "this": true, "that": true, "as": true, "be": true,
}

// BuildFTSQuery preprocesses a natural language query for FTS5.
// Splits on whitespace, removes stopwords and words < 3 bytes, trims
// punctuation, quotes each term and joins with " OR ".
func BuildFTSQuery(query string) string {
	words := strings.Fields(query)
	var filtered []string
	for _, w := range words {
		// Trim non-letter/digit chars from both ends
		trimmed := strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
		})
		if len(trimmed) < 3 {
			continue
		}
		if stopwords[strings.ToLower(trimmed)] {
			continue
		}
		filtered = append(filtered, `"`+strings.ReplaceAll(trimmed, `"`, `""`)+`"`)
	}
	return strings.Join(filtered, " OR ")
}

// SearchNotes performs FTS5 search over title, content and tags.
// Returns an empty slice if the preprocessed query is empty.
func (d *DB) SearchNotes(query string) ([]Note, error) {
	ftsQuery := BuildFTSQuery(query)
	if ftsQuery == "" {
		return []Note{}, nil
	}

	rows, err := d.conn.Query(`
		SELECT n.id, n.title, n.content, n.refined_text, n.summary, n.tags, n.is_done,
		       n.is_ai_processed, n.category, n.intent, n.intent_payload, n.created_at, n.updated_at
		FROM notes n
		JOIN notes_fts fts ON n.rowid = fts.rowid
		WHERE notes_fts MATCH ?1
		ORDER BY rank
	`, ftsQuery)
	if err != nil {
		return nil, err
	}
	notes, err := scanNotes(rows)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []Note{}
	}
	return notes, nil
}
