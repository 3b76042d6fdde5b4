// CLAUDE:SUMMARY Document store for free-text opinions: JSON bodies in a dedicated SQLite file, cross-referenced by review id.
package opinions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Doc is one opinion document: the free-text comment of a review together
// with denormalized context for standalone analysis. Sentiment fields are
// placeholders until an analysis pass fills them in.
type Doc struct {
	ID              string     `json:"id"`
	ReviewID        int64      `json:"review_id"`
	ProfessorID     int64      `json:"professor_id"`
	ProfessorSlug   string     `json:"professor_slug"`
	Course          string     `json:"course"`            // raw name as scraped
	CourseCanonical string     `json:"course_canonical"`  // normalized name
	Comment         string     `json:"comment"`
	WordCount       int        `json:"word_count"`
	Language        string     `json:"language"`
	Sentiment       *Sentiment `json:"sentiment,omitempty"`
	Source          string     `json:"source"`
	ExtractedAt     time.Time  `json:"extracted_at"`
}

// Sentiment is the (deferred) analysis block carried in the document body.
type Sentiment struct {
	Analyzed       bool    `json:"analyzed"`
	Classification string  `json:"classification,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
}

// Store is the opinions document store. It lives in its own SQLite file so
// the relational catalog and the document corpus can be backed up, rebuilt
// and analyzed independently, linked only by opinion ids.
type Store struct {
	db *sql.DB
}

const ddl = `
CREATE TABLE IF NOT EXISTS opinions (
	id                TEXT PRIMARY KEY,
	review_id         INTEGER NOT NULL,
	professor_id      INTEGER NOT NULL,
	professor_slug    TEXT NOT NULL,
	course            TEXT,
	course_canonical  TEXT,
	comment           TEXT NOT NULL,
	doc               TEXT NOT NULL,
	inserted_at       INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_opinions_course ON opinions(course_canonical);
CREATE INDEX IF NOT EXISTS idx_opinions_professor ON opinions(professor_id);
`

// Open opens (or creates) the document store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open opinions db: %w", err)
	}
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create opinions schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert stores a new opinion document and returns its generated id. When an
// identical comment by the same professor already exists, the existing id is
// returned instead (scrapes overlap between runs).
func (s *Store) Insert(ctx context.Context, doc *Doc) (string, error) {
	if existing, err := s.findDuplicate(ctx, doc.ProfessorID, doc.Comment); err != nil {
		return "", err
	} else if existing != "" {
		return existing, nil
	}

	doc.ID = uuid.NewString()
	if doc.ExtractedAt.IsZero() {
		doc.ExtractedAt = time.Now()
	}
	if doc.WordCount == 0 {
		doc.WordCount = len(strings.Fields(doc.Comment))
	}
	if doc.Sentiment == nil {
		doc.Sentiment = &Sentiment{}
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal opinion doc: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO opinions (id, review_id, professor_id, professor_slug, course, course_canonical, comment, doc, inserted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.ReviewID, doc.ProfessorID, doc.ProfessorSlug, doc.Course,
		doc.CourseCanonical, doc.Comment, string(body), time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("insert opinion: %w", err)
	}
	return doc.ID, nil
}

func (s *Store) findDuplicate(ctx context.Context, professorID int64, comment string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM opinions WHERE professor_id = ? AND comment = ?`, professorID, comment).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("opinion duplicate check: %w", err)
	}
	return id, nil
}

// Get fetches one document by id, decoding the stored JSON body.
func (s *Store) Get(ctx context.Context, id string) (*Doc, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM opinions WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get opinion %s: %w", id, err)
	}
	var doc Doc
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("decode opinion %s: %w", id, err)
	}
	return &doc, nil
}

// RenameCourse rewrites course_canonical for every document carrying the old
// name (the document-store side of a catalog merge) and patches the stored
// JSON body so the two never disagree. Returns the number of updated docs.
func (s *Store) RenameCourse(ctx context.Context, oldName, newName string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE opinions
		   SET course_canonical = ?,
		       doc = json_set(doc, '$.course_canonical', ?)
		 WHERE course_canonical = ?`,
		newName, newName, oldName)
	if err != nil {
		return 0, fmt.Errorf("rename course %q -> %q: %w", oldName, newName, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// CourseCount is one distinct canonical course name with its document count.
type CourseCount struct {
	Course string `json:"course"`
	Count  int64  `json:"count"`
}

// DistinctCourses groups documents by canonical course name, most opinions
// first (ties by name for a stable listing).
func (s *Store) DistinctCourses(ctx context.Context) ([]CourseCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT course_canonical, COUNT(*) FROM opinions
		 WHERE course_canonical IS NOT NULL AND course_canonical != ''
		 GROUP BY course_canonical ORDER BY COUNT(*) DESC, course_canonical`)
	if err != nil {
		return nil, fmt.Errorf("distinct courses: %w", err)
	}
	defer rows.Close()

	var counts []CourseCount
	for rows.Next() {
		var cc CourseCount
		if err := rows.Scan(&cc.Course, &cc.Count); err != nil {
			return nil, fmt.Errorf("scan course count: %w", err)
		}
		counts = append(counts, cc)
	}
	return counts, rows.Err()
}

// AllIDs returns every document id with its review id, for the repair job.
func (s *Store) AllIDs(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, review_id FROM opinions`)
	if err != nil {
		return nil, fmt.Errorf("list opinion ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]int64)
	for rows.Next() {
		var id string
		var reviewID int64
		if err := rows.Scan(&id, &reviewID); err != nil {
			return nil, fmt.Errorf("scan opinion id: %w", err)
		}
		ids[id] = reviewID
	}
	return ids, rows.Err()
}

// Delete removes one document (repair path for orphans).
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM opinions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete opinion %s: %w", id, err)
	}
	return nil
}

// Count returns the total number of documents.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM opinions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count opinions: %w", err)
	}
	return n, nil
}
