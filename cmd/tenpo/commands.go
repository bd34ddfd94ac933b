package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/tenpo/internal/cli"
	"github.com/hyperjump/tenpo/internal/models"
	"github.com/hyperjump/tenpo/internal/server"
	"github.com/hyperjump/tenpo/internal/storage"
	"github.com/hyperjump/tenpo/internal/watcher"
)

func runServer(args []string) {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (catalog imports, watcher events, etc.)")
	_ = fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := openEnv(ctx, *configPath, *debug)
	if err != nil {
		fatalf("%v", err)
	}
	defer e.close()
	logger, cfg := e.logger, e.cfg
	logger.Info("config loaded",
		zap.String("config_path", e.configPath),
		zap.Bool("debug", e.debug),
		zap.String("candidate_source", e.components.Engine.SourceName()))

	idx := e.components.Indexer
	exts := cfg.Watch.Extensions
	watchSvc := watcher.NewWatcher(
		cfg.Watch.Directories,
		watcher.Options{
			Extensions: exts,
			Recursive:  cfg.Watch.RecursiveOrDefault(),
			Debounce:   cfg.Watch.Debounce,
		},
		watcher.Handler{
			Changed: func(ctx context.Context, path string) error {
				return idx.IndexFile(ctx, path, exts)
			},
			Removed: idx.DeleteSource,
		},
		watcher.WithLogger(logger),
	)
	if err := watchSvc.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	defer watchSvc.Stop()
	go watchSvc.SyncExistingFiles()

	srv := server.NewServer(
		e.components.Engine,
		idx,
		e.components.Storage,
		cfg,
		server.WithLogger(logger),
		server.WithWatch(watchSvc, e.configPath),
		server.WithKeywordIndex(e.components.KeywordIndex),
	)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", zap.Error(err))
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
}

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: tenpo search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Products are matched on name, description and category, then ranked by name
match, word overlap, description match and edit distance to the name.

Examples:
  tenpo search running shoes
  tenpo search --limit 3 --output compact shoe
  tenpo search --server "" --output json "rain jacket"   # no server running
`)
}

func runSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct storage mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = search the local database directly)")
	limit := fs.Int("limit", 0, "maximum number of products (0 = configured result limit)")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(argsReorder(args))

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}
	query := &models.SearchQuery{Query: queryStr, Limit: *limit}
	ctx := context.Background()

	var response *models.SearchResponse
	if *serverURL != "" {
		response, err = newAPIClient(*serverURL).search(ctx, query)
	} else {
		var e *env
		e, err = openEnv(ctx, *configPath, *debug)
		if err != nil {
			fatalf("%v", err)
		}
		defer e.close()
		response, err = e.components.Engine.Search(ctx, query)
	}
	if err != nil {
		fatalf("Search failed: %v", err)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(argsReorder(args))

	if fs.NArg() < 1 {
		fmt.Println("Usage: tenpo import [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)
	info, err := os.Stat(path)
	if err != nil {
		fatalf("Failed to stat path: %v", err)
	}

	ctx := context.Background()
	e, err := openEnv(ctx, *configPath, *debug)
	if err != nil {
		fatalf("%v", err)
	}
	defer e.close()

	if info.IsDir() {
		n, err := e.components.Indexer.IndexDirectory(ctx, path, e.cfg.Watch.Extensions)
		if err != nil {
			fatalf("Importing directory failed after %d file(s): %v", n, err)
		}
		fmt.Printf("Imported %d catalog file(s) from %s\n", n, path)
		return
	}
	// A single file is imported whatever the watch extensions say.
	stats, err := e.components.Indexer.ImportFile(ctx, path, nil)
	if err != nil {
		fatalf("Import failed: %v", err)
	}
	if stats.Skipped {
		fmt.Printf("%s is unchanged since the last import\n", stats.Path)
		return
	}
	fmt.Printf("Imported %d product(s) from %s (%d removed, %d invalid)\n",
		stats.Imported, stats.Path, stats.Removed, stats.Invalid)
}

func runDelete(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct storage mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	_ = fs.Parse(argsReorder(args))

	if fs.NArg() < 1 {
		fmt.Println("Usage: tenpo delete [flags] <product-id>")
		os.Exit(1)
	}
	id := fs.Arg(0)
	ctx := context.Background()

	var err error
	if *serverURL != "" {
		err = newAPIClient(*serverURL).deleteProduct(ctx, id)
	} else {
		var e *env
		e, err = openEnv(ctx, *configPath, false)
		if err != nil {
			fatalf("%v", err)
		}
		defer e.close()
		err = e.components.Indexer.DeleteProduct(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			err = fmt.Errorf("product %s not found", id)
		}
	}
	if err != nil {
		fatalf("Deletion failed: %v", err)
	}
	fmt.Printf("Product deleted: %s\n", id)
}

func runCategories(args []string) {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct storage mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}
	ctx := context.Background()
	var stats []*models.CategoryStats
	if *serverURL != "" {
		stats, err = newAPIClient(*serverURL).categories(ctx)
	} else {
		var e *env
		e, err = openEnv(ctx, *configPath, false)
		if err != nil {
			fatalf("%v", err)
		}
		defer e.close()
		stats, err = e.components.Engine.Categories(ctx)
	}
	if err != nil {
		fatalf("Listing categories failed: %v", err)
	}
	if err := cli.WriteCategories(os.Stdout, stats, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

// statusConfig is the configuration summary in a status response.
type statusConfig struct {
	DatabasePath    string `json:"database_path,omitempty"`
	BleveIndexPath  string `json:"bleve_index_path,omitempty"`
	CandidateLimit  int    `json:"candidate_limit"`
	ResultLimit     int    `json:"result_limit"`
	SuggestionLimit int    `json:"suggestion_limit"`
	CacheTTL        string `json:"cache_ttl"`
}

// statusResponse is the shape of GET /api/v1/status.
type statusResponse struct {
	Products        int64         `json:"products"`
	Categories      int64         `json:"categories"`
	CandidateSource string        `json:"candidate_source"`
	IndexedProducts *uint64       `json:"indexed_products,omitempty"`
	DiskUsageBytes  *int64        `json:"disk_usage_bytes,omitempty"`
	Config          *statusConfig `json:"config,omitempty"`
}

func localStatus(ctx context.Context, e *env) (*statusResponse, error) {
	c := e.components
	products, err := c.Storage.CountProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	categories, err := c.Storage.CountCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}
	rc := c.Engine.RankingConfig()
	st := e.cfg.Storage
	s := &statusResponse{
		Products:        products,
		Categories:      categories,
		CandidateSource: c.Engine.SourceName(),
		Config: &statusConfig{
			DatabasePath:    st.DatabasePath,
			BleveIndexPath:  st.BleveIndexPath,
			CandidateLimit:  e.cfg.Search.CandidateLimit,
			ResultLimit:     rc.ResultLimit,
			SuggestionLimit: rc.SuggestionLimit,
			CacheTTL:        e.cfg.Search.CacheTTL.String(),
		},
	}
	if n, err := c.KeywordIndex.DocCount(); err == nil {
		s.IndexedProducts = &n
	}
	paths := append(storage.DatabaseFiles(st.DatabasePath), st.BleveIndexPath)
	if diskBytes, err := storage.DiskUsageBytes(paths...); err == nil {
		s.DiskUsageBytes = &diskBytes
	}
	return s, nil
}

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct storage mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	ctx := context.Background()
	var (
		status *statusResponse
		err    error
	)
	if *serverURL != "" {
		status, err = newAPIClient(*serverURL).status(ctx)
	} else {
		var e *env
		e, err = openEnv(ctx, *configPath, false)
		if err != nil {
			fatalf("%v", err)
		}
		defer e.close()
		status, err = localStatus(ctx, e)
	}
	if err != nil {
		fatalf("Status failed: %v", err)
	}
	if err := writeStatus(os.Stdout, status, *outputFormat); err != nil {
		fatalf("%v", err)
	}
}

func writeStatus(w io.Writer, status *statusResponse, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	case "text", "":
	default:
		return fmt.Errorf("unknown output format %q; use text or json", format)
	}
	fmt.Fprintf(w, "products:           %d   # stored products\n", status.Products)
	fmt.Fprintf(w, "categories:         %d\n", status.Categories)
	if status.IndexedProducts != nil {
		fmt.Fprintf(w, "indexed_products:   %d   # documents in the keyword index\n", *status.IndexedProducts)
	}
	fmt.Fprintf(w, "candidate_source:   %s\n", status.CandidateSource)
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # database + keyword index on disk\n", *status.DiskUsageBytes)
	}
	if c := status.Config; c != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		fmt.Fprintf(w, "candidate_limit:    %d\n", c.CandidateLimit)
		fmt.Fprintf(w, "result_limit:       %d\n", c.ResultLimit)
		fmt.Fprintf(w, "suggestion_limit:   %d\n", c.SuggestionLimit)
		fmt.Fprintf(w, "cache_ttl:          %s\n", c.CacheTTL)
		if c.DatabasePath != "" {
			fmt.Fprintf(w, "database_path:      %s\n", c.DatabasePath)
		}
		if c.BleveIndexPath != "" {
			fmt.Fprintf(w, "bleve_index_path:   %s\n", c.BleveIndexPath)
		}
	}
	return nil
}

func runWatch(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: tenpo watch <add|remove|list> [path]")
		fmt.Println("  tenpo watch add <path>     Add directory to watch")
		fmt.Println("  tenpo watch remove <path>  Remove directory from watch")
		fmt.Println("  tenpo watch list           List watched directories")
		os.Exit(1)
	}
	sub := args[0]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	syncExisting := fs.Bool("sync", true, "import catalogs already in the directory (add only)")
	_ = fs.Parse(argsReorder(args[1:]))

	client := newAPIClient(*serverURL)
	ctx := context.Background()
	switch sub {
	case "add", "remove":
		if fs.NArg() < 1 {
			fmt.Printf("Usage: tenpo watch %s <path>\n", sub)
			os.Exit(1)
		}
		path, err := filepath.Abs(fs.Arg(0))
		if err != nil {
			fatalf("Invalid path: %v", err)
		}
		if sub == "add" {
			if err := client.addWatchDirectory(ctx, path, *syncExisting); err != nil {
				fatalf("Add failed: %v", err)
			}
			fmt.Printf("Added: %s\n", path)
			return
		}
		if err := client.removeWatchDirectory(ctx, path); err != nil {
			fatalf("Remove failed: %v", err)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		dirs, err := client.watchDirectories(ctx)
		if err != nil {
			fatalf("List failed: %v", err)
		}
		for _, d := range dirs {
			fmt.Println(d)
		}
	default:
		fatalf("Unknown watch subcommand: %s", sub)
	}
}
