// CLAUDE:SUMMARY Course entity operations: key lookup, create-or-fetch, rename, and the atomic per-group merge transaction.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hazyhaar/curso-registry/pkg/catalog"
)

// Course is one row of the persisted course catalog.
type Course struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	NormalizedKey string `json:"normalized_key"`
	ReviewCount   int64  `json:"review_count"`
}

// CourseByKey looks a course up by its comparison key.
func (s *Store) CourseByKey(ctx context.Context, key string) (*Course, error) {
	var c Course
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, normalized_key, review_count FROM courses WHERE normalized_key = ?`, key).
		Scan(&c.ID, &c.Name, &c.NormalizedKey, &c.ReviewCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("course by key %q: %w", key, err)
	}
	return &c, nil
}

// GetOrCreateCourse resolves a display name to its course entity, creating it
// when no entity owns the comparison key yet. The INSERT races safely against
// concurrent ingesters: the unique constraint on normalized_key makes the
// loser of the race re-read the winner's row.
func (s *Store) GetOrCreateCourse(ctx context.Context, name string) (*Course, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("empty course name")
	}
	key := catalog.NormalizeKey(name)

	if c, err := s.CourseByKey(ctx, key); err != nil || c != nil {
		return c, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO courses (name, normalized_key, created_at) VALUES (?, ?, ?)`,
		name, key, time.Now().Unix())
	if err != nil {
		return nil, fmt.Errorf("create course %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Lost the insert race; the key now exists.
		return s.CourseByKey(ctx, key)
	}
	return s.CourseByKey(ctx, key)
}

// ListCourses returns every course entity ordered by id (stable, reproducible
// input for reconciliation).
func (s *Store) ListCourses(ctx context.Context) ([]Course, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, normalized_key, review_count FROM courses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Name, &c.NormalizedKey, &c.ReviewCount); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// CourseCount returns the number of course entities.
func (s *Store) CourseCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return n, nil
}

// MergeGroup collapses one duplicate group into its master inside a single
// transaction: rename the master to the canonical name when needed, re-point
// every review of the losing entities to the master, then delete the losers.
// Either all steps commit or none do, so a review can never be left pointing
// at a deleted course. Returns the number of reassigned reviews and whether
// the master was renamed.
func (s *Store) MergeGroup(ctx context.Context, masterID int64, canonical string, loserIDs []int64) (reassigned int64, renamed bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("begin merge tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var currentName string
	if err = tx.QueryRowContext(ctx, `SELECT name FROM courses WHERE id = ?`, masterID).Scan(&currentName); err != nil {
		return 0, false, fmt.Errorf("load master %d: %w", masterID, err)
	}

	for _, loserID := range loserIDs {
		res, execErr := tx.ExecContext(ctx,
			`UPDATE reviews SET course_id = ? WHERE course_id = ?`, masterID, loserID)
		if execErr != nil {
			err = fmt.Errorf("reassign reviews %d -> %d: %w", loserID, masterID, execErr)
			return 0, false, err
		}
		n, _ := res.RowsAffected()
		reassigned += n

		if _, execErr := tx.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, loserID); execErr != nil {
			err = fmt.Errorf("delete merged course %d: %w", loserID, execErr)
			return 0, false, err
		}
	}

	// Rename after the losers are gone: one of them may still have owned the
	// canonical comparison key, and normalized_key is unique.
	if currentName != canonical {
		if _, err = tx.ExecContext(ctx,
			`UPDATE courses SET name = ?, normalized_key = ? WHERE id = ?`,
			canonical, catalog.NormalizeKey(canonical), masterID); err != nil {
			return 0, false, fmt.Errorf("rename master %d to %q: %w", masterID, canonical, err)
		}
		renamed = true
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE courses SET review_count = (SELECT COUNT(*) FROM reviews WHERE course_id = ?) WHERE id = ?`,
		masterID, masterID); err != nil {
		return 0, false, fmt.Errorf("refresh review_count for %d: %w", masterID, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit merge for %d: %w", masterID, err)
	}
	return reassigned, renamed, nil
}

// RenameCourse updates a course's display name and recomputes its comparison key.
func (s *Store) RenameCourse(ctx context.Context, id int64, name string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE courses SET name = ?, normalized_key = ? WHERE id = ?`,
		name, catalog.NormalizeKey(name), id)
	if err != nil {
		return fmt.Errorf("rename course %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("course %d not found", id)
	}
	return nil
}
