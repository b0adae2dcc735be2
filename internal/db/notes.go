package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const noteColumns = `id, title, content, refined_text, summary, tags, is_done,
	is_ai_processed, category, intent, intent_payload, created_at, updated_at`

// scanNote scans a row into a Note. The row must have noteColumns in order.
func scanNote(scanner interface{ Scan(dest ...any) error }) (Note, error) {
	var n Note
	err := scanner.Scan(
		&n.ID, &n.Title, &n.Content, &n.RefinedText, &n.Summary, &n.Tags, &n.IsDone,
		&n.IsAIProcessed, &n.Category, &n.Intent, &n.IntentPayload, &n.CreatedAt, &n.UpdatedAt,
	)
	return n, err
}

func scanNotes(rows *sql.Rows) ([]Note, error) {
	defer rows.Close()
	var notes []Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// nullable maps "" to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func normalizeInput(in NoteInput) (NoteInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return in, fmt.Errorf("note title is empty")
	}
	if in.Category == "" {
		in.Category = "text"
	}
	return in, nil
}

// CreateNote inserts a new note and returns it. CreatedAt and UpdatedAt are
// both set to the current time.
func (d *DB) CreateNote(in NoteInput) (*Note, error) {
	in, err := normalizeInput(in)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	now := d.nowMillis()
	_, err = d.conn.Exec(`
		INSERT INTO notes (`+noteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?, ?)
	`, id, in.Title, in.Content, nullable(in.RefinedText), nullable(in.Summary), in.Tags,
		in.IsAIProcessed, in.Category, nullable(in.Intent), nullable(in.IntentPayload), now, now)
	if err != nil {
		return nil, fmt.Errorf("creating note: %w", err)
	}
	return d.GetNote(id)
}

// GetNote returns a single note by ID, or ErrNotFound.
func (d *DB) GetNote(id string) (*Note, error) {
	row := d.conn.QueryRow(`SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// UpdateNote overwrites the writable fields of a note in one statement and
// refreshes UpdatedAt. IsDone and CreatedAt are left alone.
func (d *DB) UpdateNote(id string, in NoteInput) (*Note, error) {
	in, err := normalizeInput(in)
	if err != nil {
		return nil, err
	}
	res, err := d.conn.Exec(`
		UPDATE notes SET title = ?, content = ?, refined_text = ?, summary = ?, tags = ?,
		       is_ai_processed = ?, category = ?, intent = ?, intent_payload = ?, updated_at = ?
		WHERE id = ?
	`, in.Title, in.Content, nullable(in.RefinedText), nullable(in.Summary), in.Tags,
		in.IsAIProcessed, in.Category, nullable(in.Intent), nullable(in.IntentPayload), d.nowMillis(), id)
	if err != nil {
		return nil, fmt.Errorf("updating note %s: %w", id, err)
	}
	if err := requireOneRow(res); err != nil {
		return nil, err
	}
	return d.GetNote(id)
}

// ToggleNote flips the done flag of a note and returns the updated note.
func (d *DB) ToggleNote(id string) (*Note, error) {
	res, err := d.conn.Exec(`
		UPDATE notes SET is_done = NOT is_done, updated_at = ? WHERE id = ?
	`, d.nowMillis(), id)
	if err != nil {
		return nil, fmt.Errorf("toggling note %s: %w", id, err)
	}
	if err := requireOneRow(res); err != nil {
		return nil, err
	}
	return d.GetNote(id)
}

// DeleteNote removes a note.
func (d *DB) DeleteNote(id string) error {
	res, err := d.conn.Exec(`DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting note %s: %w", id, err)
	}
	return requireOneRow(res)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AllNotes returns all notes, open ones first, most recently updated first.
func (d *DB) AllNotes() ([]Note, error) {
	rows, err := d.conn.Query(`
		SELECT ` + noteColumns + `
		FROM notes ORDER BY is_done ASC, updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	return scanNotes(rows)
}

// LatestTitle returns the title of the most recently updated note, or
// ErrNotFound when there are no notes.
func (d *DB) LatestTitle() (string, error) {
	var title string
	err := d.conn.QueryRow(`SELECT title FROM notes ORDER BY updated_at DESC LIMIT 1`).Scan(&title)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return title, err
}

// SearchByIDPrefix finds notes whose ID starts with the given prefix.
func (d *DB) SearchByIDPrefix(prefix string, limit int) ([]Note, error) {
	rows, err := d.conn.Query(`
		SELECT `+noteColumns+`
		FROM notes WHERE id LIKE ? LIMIT ?
	`, prefix+"%", limit)
	if err != nil {
		return nil, err
	}
	return scanNotes(rows)
}
