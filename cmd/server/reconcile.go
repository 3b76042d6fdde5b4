// CLAUDE:SUMMARY CLI subcommand that merges duplicate course entities, with a dry-run report mode.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/hazyhaar/curso-registry/pkg/reconcile"
)

func cmdReconcile(args []string) {
	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	dryRun := fs.Bool("dry-run", false, "report what would merge without writing")
	jsonOut := fs.Bool("json", false, "print the full report as JSON")
	fs.Parse(args)

	logger := newLogger()
	cfg := loadConfig(*cfgPath, logger)

	env := openEnv(cfg, logger)
	defer env.close()

	rec := reconcile.New(env.store, env.docs, env.normalizer, logger)
	report, err := rec.Run(context.Background(), *dryRun)
	if err != nil {
		logger.Error("reconciliation failed", "error", err)
		os.Exit(1)
	}

	if *jsonOut {
		json.NewEncoder(os.Stdout).Encode(report)
	} else {
		printReport(report)
	}
	if len(report.Failures) > 0 {
		os.Exit(1)
	}
}

func printReport(r *reconcile.Report) {
	verb := "merged"
	if r.DryRun {
		verb = "would merge"
	}
	fmt.Printf("%d courses scanned, %s %d into %d groups (%d renamed, %d reviews reassigned, %d docs updated)\n",
		r.CoursesScanned, verb, r.CoursesMerged, len(r.Groups), r.CoursesRenamed, r.ReviewsReassigned, r.DocsUpdated)
	for _, g := range r.Groups {
		if len(g.MergedNames) > 0 {
			fmt.Printf("  %q <- %q\n", g.Canonical, g.MergedNames)
		} else {
			fmt.Printf("  %q (renamed from %q)\n", g.Canonical, g.MasterName)
		}
	}
	for _, f := range r.Failures {
		fmt.Printf("  FAILED %q: %s\n", f.Canonical, f.Error)
	}
}
