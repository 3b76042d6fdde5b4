// CLAUDE:SUMMARY Review metadata rows: insert with dedupe, opinion-document linkage, dangling-reference queries.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Review is the structured metadata of one scraped review. The free-text
// comment lives in the opinions document store, linked through OpinionID.
type Review struct {
	ID            int64
	ProfessorID   int64
	CourseID      sql.NullInt64
	ReviewDate    string // ISO date
	Quality       sql.NullFloat64
	Ease          sql.NullFloat64
	Attendance    string
	GradeReceived string
	Interest      string
	HasComment    bool
	CommentLength int
	OpinionID     sql.NullString
}

// ReviewExists reports whether an equivalent review is already stored.
// Dedupe criterion: same professor, date, quality and course.
func (s *Store) ReviewExists(ctx context.Context, professorID int64, date string, quality sql.NullFloat64, courseID sql.NullInt64) (bool, error) {
	q := `SELECT 1 FROM reviews WHERE professor_id = ? AND review_date = ? AND quality IS ? AND course_id IS ?`
	var one int
	err := s.db.QueryRowContext(ctx, q, professorID, date, quality, courseID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("review exists: %w", err)
	}
	return true, nil
}

// InsertReview stores one review row and bumps the course's review_count.
func (s *Store) InsertReview(ctx context.Context, r *Review) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reviews (professor_id, course_id, review_date, quality, ease, attendance, grade_received, interest, has_comment, comment_length, opinion_id, extracted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ProfessorID, r.CourseID, r.ReviewDate, r.Quality, r.Ease, r.Attendance,
		r.GradeReceived, r.Interest, r.HasComment, r.CommentLength, r.OpinionID, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("insert review: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("review id: %w", err)
	}
	if r.CourseID.Valid {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE courses SET review_count = review_count + 1 WHERE id = ?`, r.CourseID.Int64); err != nil {
			return id, fmt.Errorf("bump review_count: %w", err)
		}
	}
	return id, nil
}

// LinkOpinion attaches a document-store opinion id to a review row. This is
// the second phase of the cross-store write; the repair job reconciles rows
// where the first phase succeeded and this one did not.
func (s *Store) LinkOpinion(ctx context.Context, reviewID int64, opinionID string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE reviews SET opinion_id = ?, has_comment = 1 WHERE id = ?`, opinionID, reviewID); err != nil {
		return fmt.Errorf("link opinion %s to review %d: %w", opinionID, reviewID, err)
	}
	return nil
}

// ReviewCountByCourse returns the number of reviews referencing the course.
func (s *Store) ReviewCountByCourse(ctx context.Context, courseID int64) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE course_id = ?`, courseID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count reviews for course %d: %w", courseID, err)
	}
	return n, nil
}

// HasReview reports whether a review row with this id exists.
func (s *Store) HasReview(ctx context.Context, reviewID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM reviews WHERE id = ?`, reviewID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has review %d: %w", reviewID, err)
	}
	return true, nil
}

// DanglingCourseRefs returns review ids whose course_id points at a course
// that no longer exists. Must always come back empty after a merge run.
func (s *Store) DanglingCourseRefs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id FROM reviews r WHERE r.course_id IS NOT NULL
		   AND NOT EXISTS (SELECT 1 FROM courses c WHERE c.id = r.course_id)`)
	if err != nil {
		return nil, fmt.Errorf("dangling course refs: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan dangling ref: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// OpinionRefs returns every non-null opinion id with its review id, for the
// cross-store repair job.
func (s *Store) OpinionRefs(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT opinion_id, id FROM reviews WHERE opinion_id IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("opinion refs: %w", err)
	}
	defer rows.Close()

	refs := make(map[string]int64)
	for rows.Next() {
		var opinionID string
		var reviewID int64
		if err := rows.Scan(&opinionID, &reviewID); err != nil {
			return nil, fmt.Errorf("scan opinion ref: %w", err)
		}
		refs[opinionID] = reviewID
	}
	return refs, rows.Err()
}

// ClearOpinionRef nulls a review's opinion link (repair path when the
// document vanished from the document store).
func (s *Store) ClearOpinionRef(ctx context.Context, reviewID int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE reviews SET opinion_id = NULL WHERE id = ?`, reviewID); err != nil {
		return fmt.Errorf("clear opinion ref of review %d: %w", reviewID, err)
	}
	return nil
}
