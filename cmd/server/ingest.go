// CLAUDE:SUMMARY CLI subcommand that loads scraped professor dump files into the relational and document stores.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/hazyhaar/curso-registry/pkg/ingest"
)

func cmdIngest(args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	dir := fs.String("dir", "", "directory of professor dump JSON files")
	file := fs.String("file", "", "single dump file to ingest")
	fs.Parse(args)

	if *dir == "" && *file == "" {
		fmt.Fprintln(os.Stderr, "either --dir or --file is required")
		fs.Usage()
		os.Exit(1)
	}

	logger := newLogger()
	cfg := loadConfig(*cfgPath, logger)

	env := openEnv(cfg, logger)
	defer env.close()

	ing := ingest.New(env.store, env.docs, env.normalizer, logger)
	ctx := context.Background()

	if *file != "" {
		res, err := ing.IngestFile(ctx, *file)
		if err != nil {
			logger.Error("ingest failed", "file", *file, "error", err)
			os.Exit(1)
		}
		fmt.Printf("%s: %d reviews (%d new, %d duplicate), %d opinions\n",
			res.Professor, res.ReviewsFound, res.ReviewsNew, res.Duplicates, res.OpinionsNew)
		return
	}

	results, err := ing.RunDir(ctx, *dir)
	if err != nil {
		logger.Error("ingest run failed", "dir", *dir, "error", err)
		os.Exit(1)
	}
	var found, created, dup, ops int
	for _, r := range results {
		found += r.ReviewsFound
		created += r.ReviewsNew
		dup += r.Duplicates
		ops += r.OpinionsNew
	}
	fmt.Printf("%d professors: %d reviews (%d new, %d duplicate), %d opinions\n",
		len(results), found, created, dup, ops)
}
