package reconcile

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/hazyhaar/curso-registry/pkg/catalog"
	"github.com/hazyhaar/curso-registry/pkg/opinions"
	"github.com/hazyhaar/curso-registry/pkg/store"
)

var officialNames = []string{
	"Probabilidad y Estadística",
	"Programación Orientada a Objetos",
	"Cálculo Diferencial",
	"Estructura de Datos",
}

type fixture struct {
	store      *store.Store
	docs       *opinions.Store
	normalizer *catalog.Normalizer
	rec        *Reconciler
}

func newFixture(t *testing.T, aliases map[string]string) *fixture {
	t.Helper()
	dir := t.TempDir()

	st, err := store.Open(filepath.Join(dir, "registry.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	docs, err := opinions.Open(filepath.Join(dir, "opinions.db"))
	if err != nil {
		t.Fatalf("open opinions: %v", err)
	}
	t.Cleanup(func() { docs.Close() })

	n, err := catalog.NewNormalizer(catalog.FromNames(officialNames), catalog.NewAliasMap(aliases), nil, 0)
	if err != nil {
		t.Fatalf("normalizer: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		store:      st,
		docs:       docs,
		normalizer: n,
		rec:        New(st, docs, n, logger),
	}
}

func (f *fixture) addCourse(t *testing.T, name string, reviews int, profID int64) *store.Course {
	t.Helper()
	ctx := context.Background()
	c, err := f.store.GetOrCreateCourse(ctx, name)
	if err != nil {
		t.Fatalf("GetOrCreateCourse(%q): %v", name, err)
	}
	for i := 0; i < reviews; i++ {
		_, err := f.store.InsertReview(ctx, &store.Review{
			ProfessorID: profID,
			CourseID:    sql.NullInt64{Int64: c.ID, Valid: true},
			ReviewDate:  "2024-01-0" + string(rune('1'+i)),
			Quality:     sql.NullFloat64{Float64: 8, Valid: true},
		})
		if err != nil {
			t.Fatalf("InsertReview: %v", err)
		}
	}
	return c
}

func TestRunMergesAccentVariants(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	master := f.addCourse(t, "Probabilidad y Estadística", 1, 1)
	f.addCourse(t, "Proba y Estadistica", 2, 1)

	docID, err := f.docs.Insert(ctx, &opinions.Doc{
		ReviewID: 1, ProfessorID: 1,
		Course: "Proba y Estadistica", CourseCanonical: "Proba y Estadistica",
		Comment: "buena clase",
	})
	if err != nil {
		t.Fatalf("docs.Insert: %v", err)
	}

	report, err := f.rec.Run(ctx, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Failures) != 0 {
		t.Fatalf("failures: %+v", report.Failures)
	}
	if report.CoursesMerged != 1 {
		t.Fatalf("CoursesMerged = %d, want 1", report.CoursesMerged)
	}
	if report.ReviewsReassigned != 2 {
		t.Errorf("ReviewsReassigned = %d, want 2", report.ReviewsReassigned)
	}

	courses, _ := f.store.ListCourses(ctx)
	if len(courses) != 1 {
		t.Fatalf("%d courses survive, want 1", len(courses))
	}
	// The entity already named canonically wins even with fewer reviews.
	if courses[0].ID != master.ID {
		t.Errorf("master id = %d, want %d", courses[0].ID, master.ID)
	}
	if courses[0].ReviewCount != 3 {
		t.Errorf("review_count = %d, want 3", courses[0].ReviewCount)
	}

	if dangling, _ := f.store.DanglingCourseRefs(ctx); len(dangling) != 0 {
		t.Fatalf("dangling refs: %v", dangling)
	}

	doc, err := f.docs.Get(ctx, docID)
	if err != nil || doc == nil {
		t.Fatalf("docs.Get: doc=%v err=%v", doc, err)
	}
	if doc.CourseCanonical != "Probabilidad y Estadística" {
		t.Errorf("doc not propagated: %q", doc.CourseCanonical)
	}
}

func TestRunConverges(t *testing.T) {
	f := newFixture(t, map[string]string{"POO": "Programación Orientada a Objetos"})
	ctx := context.Background()

	f.addCourse(t, "Proba y Estadistica", 1, 1)
	f.addCourse(t, "probabilidad y estadistica", 2, 1)
	f.addCourse(t, "POO", 2, 2)
	f.addCourse(t, "Cálculo Diferencial", 1, 2)

	first, err := f.rec.Run(ctx, false)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if len(first.Groups) == 0 {
		t.Fatal("first run should change something")
	}

	second, err := f.rec.Run(ctx, false)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(second.Groups) != 0 || second.CoursesMerged != 0 || second.CoursesRenamed != 0 {
		t.Fatalf("second run not a fixed point: %+v", second)
	}
}

func TestRunMasterByReviewCount(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	// No member carries the canonical name exactly; the busiest entity wins.
	f.addCourse(t, "estructura de datos", 1, 1)
	big := f.addCourse(t, "Estructura de Datos I", 0, 1)
	for i := 0; i < 3; i++ {
		_, err := f.store.InsertReview(ctx, &store.Review{
			ProfessorID: 2,
			CourseID:    sql.NullInt64{Int64: big.ID, Valid: true},
			ReviewDate:  "2024-02-0" + string(rune('1'+i)),
		})
		if err != nil {
			t.Fatalf("InsertReview: %v", err)
		}
	}

	// "estructura de datos" is an exact key match for the canonical name, so
	// its display name gets fixed up; both normalize to the same canonical.
	report, err := f.rec.Run(ctx, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Failures) != 0 {
		t.Fatalf("failures: %+v", report.Failures)
	}

	courses, _ := f.store.ListCourses(ctx)
	if len(courses) != 1 {
		t.Fatalf("%d courses survive, want 1", len(courses))
	}
	if courses[0].ID != big.ID {
		t.Errorf("survivor id = %d, want busiest %d", courses[0].ID, big.ID)
	}
	if courses[0].Name != "Estructura de Datos" {
		t.Errorf("survivor name = %q", courses[0].Name)
	}
	if courses[0].ReviewCount != 4 {
		t.Errorf("review_count = %d, want 4", courses[0].ReviewCount)
	}
}

// flakyStore fails the merge of one canonical group and passes everything
// else through to the real store.
type flakyStore struct {
	*store.Store
	failCanonical string
}

func (f *flakyStore) MergeGroup(ctx context.Context, masterID int64, canonical string, loserIDs []int64) (int64, bool, error) {
	if canonical == f.failCanonical {
		return 0, false, errors.New("merge interrupted")
	}
	return f.Store.MergeGroup(ctx, masterID, canonical, loserIDs)
}

func TestRunIsolatesGroupFailure(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.addCourse(t, "Probabilidad y Estadística", 1, 1)
	f.addCourse(t, "Proba y Estadistica", 2, 1)
	f.addCourse(t, "Estructura de Datos", 1, 2)
	f.addCourse(t, "estructura de datos I", 1, 2)

	rec := New(&flakyStore{Store: f.store, failCanonical: "Probabilidad y Estadística"},
		f.docs, f.normalizer, slog.New(slog.NewTextHandler(io.Discard, nil)))

	report, err := rec.Run(ctx, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(report.Failures) != 1 {
		t.Fatalf("failures = %+v, want one", report.Failures)
	}
	if report.Failures[0].Canonical != "Probabilidad y Estadística" {
		t.Errorf("failed canonical = %q", report.Failures[0].Canonical)
	}
	// Only the healthy group counts toward the totals.
	if report.CoursesMerged != 1 || report.ReviewsReassigned != 1 {
		t.Errorf("totals: merged=%d reassigned=%d, want 1/1", report.CoursesMerged, report.ReviewsReassigned)
	}

	courses, _ := f.store.ListCourses(ctx)
	names := map[string]int64{}
	for _, c := range courses {
		names[c.Name] = c.ReviewCount
	}
	// The failed group keeps both entities and their reviews.
	if len(courses) != 3 {
		t.Fatalf("courses = %v, want 3 (failed pair intact, healthy pair merged)", names)
	}
	if names["Probabilidad y Estadística"] != 1 || names["Proba y Estadistica"] != 2 {
		t.Errorf("failed group mutated: %v", names)
	}
	if names["Estructura de Datos"] != 2 {
		t.Errorf("healthy group not merged: %v", names)
	}

	if dangling, _ := f.store.DanglingCourseRefs(ctx); len(dangling) != 0 {
		t.Fatalf("dangling refs: %v", dangling)
	}

	// A later clean run finishes the interrupted group.
	report, err = f.rec.Run(ctx, false)
	if err != nil {
		t.Fatalf("retry Run: %v", err)
	}
	if len(report.Failures) != 0 || report.CoursesMerged != 1 {
		t.Fatalf("retry report = %+v", report)
	}
	if n, _ := f.store.CourseCount(ctx); n != 2 {
		t.Fatalf("CourseCount after retry = %d, want 2", n)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.addCourse(t, "Proba y Estadistica", 2, 1)
	f.addCourse(t, "Probabilidad y Estadística", 1, 1)

	report, err := f.rec.Run(ctx, true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.DryRun {
		t.Error("report should be flagged dry-run")
	}
	if report.CoursesMerged != 1 || report.ReviewsReassigned != 2 {
		t.Errorf("dry-run plan wrong: merged=%d reassigned=%d", report.CoursesMerged, report.ReviewsReassigned)
	}

	courses, _ := f.store.ListCourses(ctx)
	if len(courses) != 2 {
		t.Fatalf("dry run mutated the store: %d courses", len(courses))
	}
}

func TestRunLeavesUnmatchedCoursesAlone(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.addCourse(t, "Seminario de Titulación Especial", 1, 1)

	report, err := f.rec.Run(ctx, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Groups) != 0 {
		t.Fatalf("unmatched singleton should not change: %+v", report.Groups)
	}

	courses, _ := f.store.ListCourses(ctx)
	if len(courses) != 1 || courses[0].Name != "Seminario de Titulación Especial" {
		t.Fatalf("course mutated: %+v", courses)
	}
}

func TestRepairFixesDrift(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	c := f.addCourse(t, "Cálculo Diferencial", 0, 1)

	mkReview := func(date string) int64 {
		id, err := f.store.InsertReview(ctx, &store.Review{
			ProfessorID: 1,
			CourseID:    sql.NullInt64{Int64: c.ID, Valid: true},
			ReviewDate:  date,
		})
		if err != nil {
			t.Fatalf("InsertReview: %v", err)
		}
		return id
	}

	// Dangling link: review points at a doc that is gone.
	r1 := mkReview("2024-01-01")
	if err := f.store.LinkOpinion(ctx, r1, "vanished-doc"); err != nil {
		t.Fatalf("LinkOpinion: %v", err)
	}

	// Unlinked doc: phase two of the ingest write never ran.
	r2 := mkReview("2024-01-02")
	unlinked, err := f.docs.Insert(ctx, &opinions.Doc{ReviewID: r2, ProfessorID: 1, Comment: "sin enlace"})
	if err != nil {
		t.Fatalf("docs.Insert: %v", err)
	}

	// Orphan doc: its review does not exist at all.
	orphan, err := f.docs.Insert(ctx, &opinions.Doc{ReviewID: 99999, ProfessorID: 2, Comment: "huérfano"})
	if err != nil {
		t.Fatalf("docs.Insert: %v", err)
	}

	dry, err := f.rec.Repair(ctx, true)
	if err != nil {
		t.Fatalf("Repair dry: %v", err)
	}
	if len(dry.DanglingLinks) != 1 || dry.DocsRelinked != 1 || len(dry.OrphanDocs) != 1 {
		t.Fatalf("dry report = %+v", dry)
	}
	if dry.LinksCleared != 0 || dry.DocsDeleted != 0 {
		t.Fatalf("dry run fixed something: %+v", dry)
	}

	report, err := f.rec.Repair(ctx, false)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if report.LinksCleared != 1 || report.DocsRelinked != 1 || report.DocsDeleted != 1 {
		t.Fatalf("report = %+v", report)
	}

	// Clean after repair.
	clean, err := f.rec.Repair(ctx, true)
	if err != nil {
		t.Fatalf("Repair verify: %v", err)
	}
	if len(clean.DanglingLinks)+len(clean.OrphanDocs)+clean.DocsRelinked != 0 {
		t.Fatalf("drift remains: %+v", clean)
	}

	refs, _ := f.store.OpinionRefs(ctx)
	if refs[unlinked] != r2 {
		t.Errorf("doc %s not relinked to review %d: %v", unlinked, r2, refs)
	}
	if doc, _ := f.docs.Get(ctx, orphan); doc != nil {
		t.Error("orphan doc survived repair")
	}
}
