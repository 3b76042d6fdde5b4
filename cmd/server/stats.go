// CLAUDE:SUMMARY CLI subcommand that reports course catalog and opinion corpus statistics.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
)

func cmdStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	top := fs.Int("top", 10, "number of courses to list per section")
	fs.Parse(args)

	logger := newLogger()
	cfg := loadConfig(*cfgPath, logger)

	env := openEnv(cfg, logger)
	defer env.close()

	ctx := context.Background()

	courses, err := env.store.ListCourses(ctx)
	if err != nil {
		logger.Error("list courses", "error", err)
		os.Exit(1)
	}
	sort.Slice(courses, func(i, j int) bool {
		if courses[i].ReviewCount != courses[j].ReviewCount {
			return courses[i].ReviewCount > courses[j].ReviewCount
		}
		return courses[i].Name < courses[j].Name
	})
	var totalReviews int64
	for _, c := range courses {
		totalReviews += c.ReviewCount
	}

	fmt.Printf("%d course entities, %d reviews\n", len(courses), totalReviews)
	for i, c := range courses {
		if i == *top {
			break
		}
		fmt.Printf("  %5d  %s\n", c.ReviewCount, c.Name)
	}

	if env.docs == nil {
		return
	}
	counts, err := env.docs.DistinctCourses(ctx)
	if err != nil {
		logger.Error("distinct courses", "error", err)
		os.Exit(1)
	}
	totalDocs, err := env.docs.Count(ctx)
	if err != nil {
		logger.Error("count opinions", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%d opinion documents across %d courses\n", totalDocs, len(counts))
	for i, cc := range counts {
		if i == *top {
			break
		}
		fmt.Printf("  %5d  %s\n", cc.Count, cc.Course)
	}
}
