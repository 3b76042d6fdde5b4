// CLAUDE:SUMMARY Entry point: serve, ingest, reconcile and repair subcommands sharing one YAML config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/curso-registry/pkg/api"
	"github.com/hazyhaar/curso-registry/pkg/catalog"
	"github.com/hazyhaar/curso-registry/pkg/opinions"
	"github.com/hazyhaar/curso-registry/pkg/reconcile"
	"github.com/hazyhaar/curso-registry/pkg/store"
)

type config struct {
	Addr          string `yaml:"addr"`
	CatalogPath   string `yaml:"catalog_path"`
	AliasPath     string `yaml:"alias_path"`
	DBPath        string `yaml:"db_path"`
	OpinionsPath  string `yaml:"opinions_db_path"`
	CacheSize     int    `yaml:"cache_size"`
	CheckInterval string `yaml:"check_interval"`
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "ingest":
		cmdIngest(os.Args[2:])
	case "reconcile":
		cmdReconcile(os.Args[2:])
	case "repair":
		cmdRepair(os.Args[2:])
	case "stats":
		cmdStats(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: curso-registry <command>

Commands:
  serve      Start the HTTP and MCP server
  ingest     Load scraped professor dumps into the stores
  reconcile  Merge duplicate course entities
  repair     Fix cross-store consistency drift
  stats      Report catalog and opinion corpus statistics
`)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	logger := newLogger()
	cfg := loadConfig(*cfgPath, logger)

	env := openEnv(cfg, logger)
	defer env.close()

	router := api.NewRouter(env.normalizer, env.catalog)

	mcpSrv := server.NewMCPServer("curso-registry", "1.0.0", server.WithToolCapabilities(true))
	api.RegisterMCPTools(mcpSrv, env.normalizer, env.catalog)

	mux := http.NewServeMux()
	mux.Handle("/mcp", server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true)))
	mux.Handle("/", router)

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background consistency checker over both stores.
	if interval := parseInterval(cfg.CheckInterval, logger); interval > 0 {
		checker := reconcile.NewChecker(
			reconcile.New(env.store, env.docs, env.normalizer, logger), logger, interval)
		go checker.Start(ctx)
	}

	go func() {
		logger.Info("curso-registry listening", "addr", cfg.Addr, "catalog", env.catalog.Len())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	srv.Shutdown(context.Background())
}

// env bundles the shared wiring every subcommand needs.
type env struct {
	catalog    *catalog.Catalog
	normalizer *catalog.Normalizer
	store      *store.Store
	docs       *opinions.Store
}

func (e *env) close() {
	if e.docs != nil {
		e.docs.Close()
	}
	if e.store != nil {
		e.store.Close()
	}
}

// openEnv loads the catalog and opens both stores. A missing catalog file is
// not fatal: normalization degrades to pass-through until the file appears
// and the process restarts.
func openEnv(cfg config, logger *slog.Logger) *env {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		if errors.Is(err, catalog.ErrUnavailable) {
			logger.Warn("official catalog unavailable, names pass through unchanged", "path", cfg.CatalogPath)
		} else {
			logger.Error("load catalog", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("catalog loaded", "courses", cat.Len(), "path", cfg.CatalogPath)
	}

	aliases, err := catalog.LoadAliases(cfg.AliasPath)
	if err != nil {
		logger.Error("load aliases", "error", err)
		os.Exit(1)
	}

	normalizer, err := catalog.NewNormalizer(cat, aliases, nil, cfg.CacheSize)
	if err != nil {
		logger.Error("build normalizer", "error", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(1)
	}

	var docs *opinions.Store
	if cfg.OpinionsPath != "" {
		docs, err = opinions.Open(cfg.OpinionsPath)
		if err != nil {
			logger.Error("open opinions store", "error", err)
			os.Exit(1)
		}
	}

	return &env{catalog: cat, normalizer: normalizer, store: st, docs: docs}
}

func parseInterval(s string, logger *slog.Logger) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		logger.Error("invalid check_interval", "value", s, "error", err)
		os.Exit(1)
	}
	return d
}

func loadConfig(path string, logger *slog.Logger) config {
	cfg := config{
		Addr:          ":8430",
		CatalogPath:   "data/materias.txt",
		AliasPath:     "data/aliases.yaml",
		DBPath:        "data/registry.db",
		OpinionsPath:  "data/opinions.db",
		CacheSize:     catalog.DefaultCacheSize,
		CheckInterval: "10m",
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("no config file, using defaults", "path", path)
			return cfg
		}
		logger.Error("read config", "error", err)
		os.Exit(1)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logger.Error("parse config", "error", err)
		os.Exit(1)
	}
	return cfg
}
