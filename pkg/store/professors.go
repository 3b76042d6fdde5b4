// CLAUDE:SUMMARY Professor upsert keyed by slug, plus the ingest audit log.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Professor is the master record for one professor.
type Professor struct {
	ID        int64  `json:"id"`
	FullName  string `json:"full_name"`
	CleanName string `json:"clean_name"`
	Slug      string `json:"slug"`
	SourceURL string `json:"source_url,omitempty"`
}

// ProfessorBySlug returns the professor owning slug, or nil when absent.
func (s *Store) ProfessorBySlug(ctx context.Context, slug string) (*Professor, error) {
	var p Professor
	var url sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, full_name, clean_name, slug, source_url FROM professors WHERE slug = ?`, slug).
		Scan(&p.ID, &p.FullName, &p.CleanName, &p.Slug, &url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("professor by slug %q: %w", slug, err)
	}
	p.SourceURL = url.String
	return &p, nil
}

// UpsertProfessor creates the professor when the slug is new, otherwise
// returns the existing row, backfilling source_url if it was empty.
func (s *Store) UpsertProfessor(ctx context.Context, fullName, cleanName, slug, sourceURL string) (*Professor, error) {
	existing, err := s.ProfessorBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if sourceURL != "" && existing.SourceURL == "" {
			if _, err := s.db.ExecContext(ctx,
				`UPDATE professors SET source_url = ? WHERE id = ?`, sourceURL, existing.ID); err != nil {
				return nil, fmt.Errorf("backfill professor url: %w", err)
			}
			existing.SourceURL = sourceURL
		}
		return existing, nil
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO professors (full_name, clean_name, slug, source_url, created_at) VALUES (?, ?, ?, ?, ?)`,
		fullName, cleanName, slug, sourceURL, time.Now().Unix()); err != nil {
		return nil, fmt.Errorf("create professor %q: %w", slug, err)
	}
	return s.ProfessorBySlug(ctx, slug)
}

// LogIngest records one ingest run in the audit log.
func (s *Store) LogIngest(ctx context.Context, professorID int64, status string, found, newReviews, newOpinions int, errMsg, sourceFile string, duration time.Duration) error {
	var pid any
	if professorID > 0 {
		pid = professorID
	}
	var msg any
	if errMsg != "" {
		msg = errMsg
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_log (professor_id, status, reviews_found, reviews_new, opinions_new, error_message, source_file, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pid, status, found, newReviews, newOpinions, msg, sourceFile, duration.Milliseconds(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("log ingest: %w", err)
	}
	return nil
}
