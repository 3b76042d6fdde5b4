// CLAUDE:SUMMARY Relational SQLite store for professors, course entities, review metadata and the ingest audit log.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store manages the relational catalog database: professors, courses, review
// metadata and the ingest audit log. Courses carry a unique normalized_key so
// two entities can never resolve to the same comparison key at rest.
type Store struct {
	db *sql.DB
}

const ddl = `
CREATE TABLE IF NOT EXISTS professors (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	full_name   TEXT NOT NULL,
	clean_name  TEXT NOT NULL,
	slug        TEXT NOT NULL UNIQUE,
	source_url  TEXT,
	active      INTEGER NOT NULL DEFAULT 1,
	created_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS courses (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	name            TEXT NOT NULL,
	normalized_key  TEXT NOT NULL UNIQUE,
	review_count    INTEGER NOT NULL DEFAULT 0,
	created_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS reviews (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	professor_id    INTEGER NOT NULL REFERENCES professors(id) ON DELETE CASCADE,
	course_id       INTEGER REFERENCES courses(id) ON DELETE SET NULL,
	review_date     TEXT NOT NULL,
	quality         REAL,
	ease            REAL,
	attendance      TEXT,
	grade_received  TEXT,
	interest        TEXT,
	has_comment     INTEGER NOT NULL DEFAULT 0,
	comment_length  INTEGER NOT NULL DEFAULT 0,
	opinion_id      TEXT UNIQUE,
	source          TEXT NOT NULL DEFAULT 'misprofesores.com',
	extracted_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reviews_course ON reviews(course_id);
CREATE INDEX IF NOT EXISTS idx_reviews_professor ON reviews(professor_id);

CREATE TABLE IF NOT EXISTS ingest_log (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	professor_id   INTEGER REFERENCES professors(id) ON DELETE SET NULL,
	status         TEXT NOT NULL,
	reviews_found  INTEGER NOT NULL DEFAULT 0,
	reviews_new    INTEGER NOT NULL DEFAULT 0,
	opinions_new   INTEGER NOT NULL DEFAULT 0,
	error_message  TEXT,
	source_file    TEXT,
	duration_ms    INTEGER,
	created_at     INTEGER NOT NULL
);
`

// Open opens (or creates) the relational database at path and ensures the
// schema exists. WAL mode and a busy timeout keep concurrent readers happy;
// foreign keys are enforced so the merge invariants hold at the SQL level too.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
