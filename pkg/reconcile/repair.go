// CLAUDE:SUMMARY Cross-store consistency repair: find and fix dangling opinion links, unlinked documents and orphan documents.
package reconcile

import (
	"context"
	"fmt"
)

// RepairReport summarizes one cross-store consistency pass.
type RepairReport struct {
	DryRun          bool     `json:"dry_run"`
	DanglingLinks   []int64  `json:"dangling_links,omitempty"` // review ids pointing at missing documents
	OrphanDocs      []string `json:"orphan_docs,omitempty"`    // document ids no review points back to
	DanglingCourses []int64  `json:"dangling_courses,omitempty"`
	LinksCleared    int      `json:"links_cleared"`
	DocsRelinked    int      `json:"docs_relinked"`
	DocsDeleted     int      `json:"docs_deleted"`
}

// Repair scans both stores for the inconsistencies the two-phase ingest and
// merge writes can leave behind, and fixes them unless dryRun is set.
//
// Three shapes exist:
//   - a review carries an opinion_id whose document is gone: the link is cleared;
//   - a document's review still exists but never got its link (phase two of the
//     ingest write failed): the link is restored;
//   - a document's review is gone entirely: the document is deleted.
//
// A review whose course_id points at a deleted course would be a merge bug, not
// a repairable drift; it is reported but never fixed silently.
func (r *Reconciler) Repair(ctx context.Context, dryRun bool) (*RepairReport, error) {
	report := &RepairReport{DryRun: dryRun}

	if ids, err := r.store.DanglingCourseRefs(ctx); err != nil {
		return nil, fmt.Errorf("repair: %w", err)
	} else if len(ids) > 0 {
		report.DanglingCourses = ids
		r.logger.Error("reviews reference deleted courses", "count", len(ids))
	}

	if r.docs == nil {
		return report, nil
	}

	refs, err := r.store.OpinionRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("repair: %w", err)
	}
	docs, err := r.docs.AllIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("repair: %w", err)
	}

	for opinionID, reviewID := range refs {
		if _, ok := docs[opinionID]; ok {
			continue
		}
		report.DanglingLinks = append(report.DanglingLinks, reviewID)
		if dryRun {
			continue
		}
		if err := r.store.ClearOpinionRef(ctx, reviewID); err != nil {
			return report, fmt.Errorf("repair: %w", err)
		}
		report.LinksCleared++
	}

	for docID, reviewID := range docs {
		if _, linked := refs[docID]; linked {
			continue
		}
		exists, err := r.store.HasReview(ctx, reviewID)
		if err != nil {
			return report, fmt.Errorf("repair: %w", err)
		}
		if exists {
			// Review exists but the link never landed; restore it.
			if !dryRun {
				if err := r.store.LinkOpinion(ctx, reviewID, docID); err != nil {
					return report, fmt.Errorf("repair: %w", err)
				}
			}
			report.DocsRelinked++
			continue
		}
		report.OrphanDocs = append(report.OrphanDocs, docID)
		if dryRun {
			continue
		}
		if err := r.docs.Delete(ctx, docID); err != nil {
			return report, fmt.Errorf("repair: %w", err)
		}
		report.DocsDeleted++
	}

	r.logger.Info("repair finished",
		"dangling_links", len(report.DanglingLinks),
		"relinked", report.DocsRelinked,
		"orphans_deleted", report.DocsDeleted,
		"dry_run", dryRun,
	)
	return report, nil
}
