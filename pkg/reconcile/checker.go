package reconcile

import (
	"context"
	"log/slog"
	"time"
)

// Checker periodically scans both stores for consistency drift and logs what
// it finds. It never repairs on its own; fixing is an explicit operator action.
type Checker struct {
	reconciler *Reconciler
	logger     *slog.Logger
	interval   time.Duration
}

// NewChecker creates a Checker that scans every interval.
func NewChecker(r *Reconciler, logger *slog.Logger, interval time.Duration) *Checker {
	return &Checker{reconciler: r, logger: logger, interval: interval}
}

// Start runs an immediate scan then repeats every interval until ctx is cancelled.
func (c *Checker) Start(ctx context.Context) {
	c.CheckOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckOnce(ctx)
		}
	}
}

// CheckOnce performs one dry-run repair scan and logs any drift.
func (c *Checker) CheckOnce(ctx context.Context) {
	report, err := c.reconciler.Repair(ctx, true)
	if err != nil {
		c.logger.Error("consistency check failed", "error", err)
		return
	}

	drift := len(report.DanglingLinks) + len(report.OrphanDocs) +
		len(report.DanglingCourses) + report.DocsRelinked
	if drift == 0 {
		c.logger.Info("consistency check clean")
		return
	}
	c.logger.Warn("consistency drift detected, run the repair command",
		"dangling_links", len(report.DanglingLinks),
		"unlinked_docs", report.DocsRelinked,
		"orphan_docs", len(report.OrphanDocs),
		"dangling_courses", len(report.DanglingCourses),
	)
}
