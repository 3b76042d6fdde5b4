// CLAUDE:SUMMARY Ingest pipeline: professor dump files into the relational store, valid comments into the opinions document store.
package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hazyhaar/curso-registry/pkg/catalog"
	"github.com/hazyhaar/curso-registry/pkg/opinions"
	"github.com/hazyhaar/curso-registry/pkg/store"
)

// Placeholder comments the review site emits for moderated or pending text.
var invalidComments = map[string]bool{
	"[Comentario esperando revisión]": true,
	"[Comentario bloqueado]":          true,
}

// ValidComment reports whether a scraped comment carries analyzable text.
func ValidComment(comment string) bool {
	if strings.TrimSpace(comment) == "" {
		return false
	}
	return !invalidComments[comment]
}

// Ingester loads scraped professor dumps into both stores, normalizing course
// names on the way in so new reviews land on canonical course entities.
type Ingester struct {
	store      *store.Store
	docs       *opinions.Store // nil = skip opinion documents
	normalizer *catalog.Normalizer
	logger     *slog.Logger
	source     string
}

// New wires an ingester. docs may be nil to ingest metadata only.
func New(st *store.Store, docs *opinions.Store, n *catalog.Normalizer, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{store: st, docs: docs, normalizer: n, logger: logger, source: "misprofesores.com"}
}

// FileResult summarizes the ingest of one dump file.
type FileResult struct {
	File           string `json:"file"`
	Professor      string `json:"professor"`
	ReviewsFound   int    `json:"reviews_found"`
	ReviewsNew     int    `json:"reviews_new"`
	Duplicates     int    `json:"duplicates"`
	OpinionsNew    int    `json:"opinions_new"`
	CoursesSkipped int    `json:"courses_skipped"` // sentinel course names
}

// RunDir ingests every *.json file under dir, in name order. A file that fails
// is logged and counted but does not stop the run.
func (g *Ingester) RunDir(ctx context.Context, dir string) ([]FileResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dump dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	var results []FileResult
	var failed int
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := g.IngestFile(ctx, path)
		if err != nil {
			failed++
			g.logger.Error("ingest failed", "file", path, "error", err)
			continue
		}
		results = append(results, *res)
	}

	g.logger.Info("ingest run finished", "files", len(files), "ok", len(results), "failed", failed)
	return results, nil
}

// IngestFile loads one professor dump into the stores and records the run in
// the ingest log.
func (g *Ingester) IngestFile(ctx context.Context, path string) (*FileResult, error) {
	start := time.Now()

	dump, err := ReadDump(path)
	if err != nil {
		g.logAttempt(ctx, 0, "error", nil, err.Error(), path, start)
		return nil, err
	}

	clean := CleanProfessorName(dump.Name)
	prof, err := g.store.UpsertProfessor(ctx, dump.Name, clean, Slugify(clean), dump.SourceURL)
	if err != nil {
		g.logAttempt(ctx, 0, "error", nil, err.Error(), path, start)
		return nil, err
	}

	res := &FileResult{
		File:         filepath.Base(path),
		Professor:    clean,
		ReviewsFound: len(dump.Reviews),
	}

	for i := range dump.Reviews {
		if err := g.ingestReview(ctx, prof, &dump.Reviews[i], res); err != nil {
			g.logAttempt(ctx, prof.ID, "error", res, err.Error(), path, start)
			return nil, fmt.Errorf("review %d of %s: %w", i, path, err)
		}
	}

	g.logAttempt(ctx, prof.ID, "exito", res, "", path, start)
	g.logger.Info("professor ingested",
		"professor", clean,
		"reviews_found", res.ReviewsFound,
		"reviews_new", res.ReviewsNew,
		"opinions_new", res.OpinionsNew,
	)
	return res, nil
}

func (g *Ingester) ingestReview(ctx context.Context, prof *store.Professor, rd *ReviewDump, res *FileResult) error {
	// Sentinel course names never create a course entity; the review keeps
	// a NULL course reference.
	var courseID sql.NullInt64
	var canonical string
	rawCourse := strings.TrimSpace(rd.Course)
	switch {
	case rawCourse == "" || catalog.IsSentinel(rawCourse):
		if rawCourse != "" {
			res.CoursesSkipped++
		}
	default:
		norm := g.normalizer.Normalize(rawCourse)
		canonical = norm.Canonical
		course, err := g.store.GetOrCreateCourse(ctx, canonical)
		if err != nil {
			return err
		}
		courseID = sql.NullInt64{Int64: course.ID, Valid: true}
	}

	date := rd.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	quality := nullFloat(rd.Overall)

	exists, err := g.store.ReviewExists(ctx, prof.ID, date, quality, courseID)
	if err != nil {
		return err
	}
	if exists {
		res.Duplicates++
		return nil
	}

	hasComment := ValidComment(rd.Comment)
	review := &store.Review{
		ProfessorID:   prof.ID,
		CourseID:      courseID,
		ReviewDate:    date,
		Quality:       quality,
		Ease:          nullFloat(rd.Ease),
		Attendance:    rd.Attendance,
		GradeReceived: rd.GradeReceived,
		Interest:      rd.Interest,
		HasComment:    hasComment,
	}
	if hasComment {
		review.CommentLength = len(rd.Comment)
	}

	reviewID, err := g.store.InsertReview(ctx, review)
	if err != nil {
		return err
	}
	res.ReviewsNew++

	if !hasComment || g.docs == nil {
		return nil
	}

	// Cross-store write, phase one: the document. Phase two links it back;
	// the repair job reconciles the gap if the process dies in between.
	docID, err := g.docs.Insert(ctx, &opinions.Doc{
		ReviewID:        reviewID,
		ProfessorID:     prof.ID,
		ProfessorSlug:   prof.Slug,
		Course:          rawCourse,
		CourseCanonical: canonical,
		Comment:         rd.Comment,
		Language:        "es",
		Source:          g.source,
	})
	if err != nil {
		return err
	}
	if err := g.store.LinkOpinion(ctx, reviewID, docID); err != nil {
		return err
	}
	res.OpinionsNew++
	return nil
}

func (g *Ingester) logAttempt(ctx context.Context, profID int64, status string, res *FileResult, errMsg, path string, start time.Time) {
	found, newReviews, newOpinions := 0, 0, 0
	if res != nil {
		found, newReviews, newOpinions = res.ReviewsFound, res.ReviewsNew, res.OpinionsNew
	}
	if err := g.store.LogIngest(ctx, profID, status, found, newReviews, newOpinions, errMsg, filepath.Base(path), time.Since(start)); err != nil {
		g.logger.Error("ingest log write failed", "file", path, "error", err)
	}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
