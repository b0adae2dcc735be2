package db

import "fmt"

// schema creates the notes table and an external-content FTS5 index over
// title, content and tags, kept in sync by triggers.
const schema = `
CREATE TABLE IF NOT EXISTS notes (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	refined_text TEXT,
	summary TEXT,
	tags TEXT NOT NULL DEFAULT '',
	is_done INTEGER NOT NULL DEFAULT 0,
	is_ai_processed INTEGER NOT NULL DEFAULT 0,
	category TEXT NOT NULL DEFAULT 'text',
	intent TEXT,
	intent_payload TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_order ON notes(is_done, updated_at DESC);

CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
	title, content, tags,
	content='notes', content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS notes_ai AFTER INSERT ON notes BEGIN
	INSERT INTO notes_fts(rowid, title, content, tags)
	VALUES (new.rowid, new.title, new.content, new.tags);
END;

CREATE TRIGGER IF NOT EXISTS notes_ad AFTER DELETE ON notes BEGIN
	INSERT INTO notes_fts(notes_fts, rowid, title, content, tags)
	VALUES ('delete', old.rowid, old.title, old.content, old.tags);
END;

CREATE TRIGGER IF NOT EXISTS notes_au AFTER UPDATE ON notes BEGIN
	INSERT INTO notes_fts(notes_fts, rowid, title, content, tags)
	VALUES ('delete', old.rowid, old.title, old.content, old.tags);
	INSERT INTO notes_fts(rowid, title, content, tags)
	VALUES (new.rowid, new.title, new.content, new.tags);
END;
`

func (d *DB) ensureSchema() error {
	if _, err := d.conn.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
