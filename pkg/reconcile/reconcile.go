// CLAUDE:SUMMARY Catalog reconciliation: group course entities by canonical identity, merge duplicates atomically, propagate renames to the document store.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/hazyhaar/curso-registry/pkg/catalog"
	"github.com/hazyhaar/curso-registry/pkg/opinions"
	"github.com/hazyhaar/curso-registry/pkg/store"
)

// Store is the relational-store surface the reconciler and the repair job
// drive. *store.Store implements it.
type Store interface {
	ListCourses(ctx context.Context) ([]store.Course, error)
	MergeGroup(ctx context.Context, masterID int64, canonical string, loserIDs []int64) (reassigned int64, renamed bool, err error)
	DanglingCourseRefs(ctx context.Context) ([]int64, error)
	OpinionRefs(ctx context.Context) (map[string]int64, error)
	HasReview(ctx context.Context, reviewID int64) (bool, error)
	LinkOpinion(ctx context.Context, reviewID int64, opinionID string) error
	ClearOpinionRef(ctx context.Context, reviewID int64) error
}

// Reconciler collapses duplicate course entities that the normalization
// engine now considers equivalent. Each group merges in its own transaction,
// so a failed group rolls back cleanly while the rest of the run continues.
type Reconciler struct {
	store      Store
	docs       *opinions.Store // nil = relational store only
	normalizer *catalog.Normalizer
	logger     *slog.Logger
}

// New wires a reconciler. docs may be nil when no document store is attached.
func New(st Store, docs *opinions.Store, n *catalog.Normalizer, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: st, docs: docs, normalizer: n, logger: logger}
}

// GroupMerge describes what happened (or would happen) to one duplicate group.
type GroupMerge struct {
	Canonical         string   `json:"canonical"`
	MasterID          int64    `json:"master_id"`
	MasterName        string   `json:"master_name"`
	MergedIDs         []int64  `json:"merged_ids,omitempty"`
	MergedNames       []string `json:"merged_names,omitempty"`
	Renamed           bool     `json:"renamed"`
	ReviewsReassigned int64    `json:"reviews_reassigned"`
	DocsUpdated       int64    `json:"docs_updated"`
}

// GroupFailure records a group whose merge rolled back.
type GroupFailure struct {
	Canonical string `json:"canonical"`
	Error     string `json:"error"`
}

// Report is the audit output of one reconciliation run.
type Report struct {
	DryRun            bool           `json:"dry_run"`
	CoursesScanned    int            `json:"courses_scanned"`
	Groups            []GroupMerge   `json:"groups,omitempty"`
	Failures          []GroupFailure `json:"failures,omitempty"`
	CoursesMerged     int            `json:"courses_merged"`
	CoursesRenamed    int            `json:"courses_renamed"`
	ReviewsReassigned int64          `json:"reviews_reassigned"`
	DocsUpdated       int64          `json:"docs_updated"`
}

// Run performs one reconciliation pass. With dryRun it computes the full
// report without touching either store. Group failures do not abort the run;
// they are collected and the caller decides based on len(report.Failures).
// Running twice in a row converges: the second pass reports no changes.
func (r *Reconciler) Run(ctx context.Context, dryRun bool) (*Report, error) {
	courses, err := r.store.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	report := &Report{DryRun: dryRun, CoursesScanned: len(courses)}

	// Group every entity by its canonical identity, matched or not, so
	// pre-existing accidental duplicates collapse too. Courses arrive ordered
	// by id, which keeps groups and merges reproducible.
	groups := make(map[string][]store.Course)
	var order []string
	for _, c := range courses {
		res := r.normalizer.Normalize(c.Name)
		if _, seen := groups[res.Canonical]; !seen {
			order = append(order, res.Canonical)
		}
		groups[res.Canonical] = append(groups[res.Canonical], c)
	}
	sort.Strings(order)

	for _, canonical := range order {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		members := groups[canonical]
		master := selectMaster(members, canonical)

		var losers []store.Course
		for _, m := range members {
			if m.ID != master.ID {
				losers = append(losers, m)
			}
		}
		if len(losers) == 0 && master.Name == canonical {
			continue // already converged
		}

		merge := GroupMerge{
			Canonical:  canonical,
			MasterID:   master.ID,
			MasterName: master.Name,
			Renamed:    master.Name != canonical,
		}
		loserIDs := make([]int64, len(losers))
		for i, l := range losers {
			loserIDs[i] = l.ID
			merge.MergedIDs = append(merge.MergedIDs, l.ID)
			merge.MergedNames = append(merge.MergedNames, l.Name)
		}

		if dryRun {
			for _, l := range losers {
				merge.ReviewsReassigned += l.ReviewCount
			}
			r.accumulate(report, merge)
			continue
		}

		reassigned, renamed, err := r.store.MergeGroup(ctx, master.ID, canonical, loserIDs)
		if err != nil {
			r.logger.Error("group merge rolled back", "canonical", canonical, "master", master.ID, "error", err)
			report.Failures = append(report.Failures, GroupFailure{Canonical: canonical, Error: err.Error()})
			continue
		}
		merge.ReviewsReassigned = reassigned
		merge.Renamed = renamed

		merge.DocsUpdated = r.propagateToDocs(ctx, canonical, master, losers)

		r.logger.Info("group merged",
			"canonical", canonical,
			"master", master.ID,
			"merged", len(loserIDs),
			"reviews_reassigned", reassigned,
		)
		r.accumulate(report, merge)
	}

	r.logger.Info("reconciliation finished",
		"scanned", report.CoursesScanned,
		"merged", report.CoursesMerged,
		"renamed", report.CoursesRenamed,
		"failures", len(report.Failures),
		"dry_run", dryRun,
	)
	return report, nil
}

// propagateToDocs pushes the group's renames into the document store. This is
// the second phase of the cross-store write: a failure here is logged and
// left to the repair job rather than rolling back the relational merge.
func (r *Reconciler) propagateToDocs(ctx context.Context, canonical string, master store.Course, losers []store.Course) int64 {
	if r.docs == nil {
		return 0
	}
	oldNames := make([]string, 0, len(losers)+1)
	if master.Name != canonical {
		oldNames = append(oldNames, master.Name)
	}
	for _, l := range losers {
		if l.Name != canonical {
			oldNames = append(oldNames, l.Name)
		}
	}

	var updated int64
	for _, old := range oldNames {
		n, err := r.docs.RenameCourse(ctx, old, canonical)
		if err != nil {
			r.logger.Error("document store rename failed, run repair",
				"from", old, "to", canonical, "error", err)
			continue
		}
		updated += n
	}
	return updated
}

func (r *Reconciler) accumulate(report *Report, merge GroupMerge) {
	report.Groups = append(report.Groups, merge)
	report.CoursesMerged += len(merge.MergedIDs)
	if merge.Renamed {
		report.CoursesRenamed++
	}
	report.ReviewsReassigned += merge.ReviewsReassigned
	report.DocsUpdated += merge.DocsUpdated
}

// selectMaster picks the surviving record for a group: an entity already
// carrying the canonical display name wins outright; otherwise the one with
// the most reviews survives, lowest id breaking ties.
func selectMaster(members []store.Course, canonical string) store.Course {
	for _, m := range members {
		if m.Name == canonical {
			return m
		}
	}
	master := members[0]
	for _, m := range members[1:] {
		if m.ReviewCount > master.ReviewCount ||
			(m.ReviewCount == master.ReviewCount && m.ID < master.ID) {
			master = m
		}
	}
	return master
}
