// CLAUDE:SUMMARY CLI subcommand that scans and fixes cross-store consistency drift.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/hazyhaar/curso-registry/pkg/reconcile"
)

func cmdRepair(args []string) {
	fs := flag.NewFlagSet("repair", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	dryRun := fs.Bool("dry-run", false, "report drift without fixing it")
	jsonOut := fs.Bool("json", false, "print the full report as JSON")
	fs.Parse(args)

	logger := newLogger()
	cfg := loadConfig(*cfgPath, logger)

	env := openEnv(cfg, logger)
	defer env.close()

	rec := reconcile.New(env.store, env.docs, env.normalizer, logger)
	report, err := rec.Repair(context.Background(), *dryRun)
	if err != nil {
		logger.Error("repair failed", "error", err)
		os.Exit(1)
	}

	if *jsonOut {
		json.NewEncoder(os.Stdout).Encode(report)
		return
	}
	fmt.Printf("dangling links: %d (cleared %d), unlinked docs relinked: %d, orphan docs: %d (deleted %d)\n",
		len(report.DanglingLinks), report.LinksCleared, report.DocsRelinked,
		len(report.OrphanDocs), report.DocsDeleted)
	if len(report.DanglingCourses) > 0 {
		fmt.Printf("WARNING: %d reviews reference deleted courses: %v\n",
			len(report.DanglingCourses), report.DanglingCourses)
	}
}
