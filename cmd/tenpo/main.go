// Package main is the tenpo CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/tenpo/internal/config"
	"github.com/hyperjump/tenpo/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/tenpo/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default and ./config.yaml
// exists, that file is used instead so a checkout can run with its own config.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// env is what every local (non-HTTP) command needs.
type env struct {
	cfg        *config.Config
	configPath string
	logger     *zap.Logger
	debug      bool
	components *Components
}

func (e *env) close() {
	if e.components != nil {
		e.components.Close()
	}
	_ = e.logger.Sync()
}

// openEnv loads config, builds the logger, and opens storage and indices.
func openEnv(ctx context.Context, configPath string, debugFlag bool) (*env, error) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	debug := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	components, err := initializeComponents(ctx, cfg, logger, debug)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return &env{cfg: cfg, configPath: resolved, logger: logger, debug: debug, components: components}, nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// argsReorder moves any flags (and their values) that appear after positional
// arguments to the front, since the flag package stops at the first positional.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command, args := os.Args[1], os.Args[2:]
	switch command {
	case "server":
		runServer(args)
	case "search":
		runSearch(args)
	case "import":
		runImport(args)
	case "delete":
		runDelete(args)
	case "categories":
		runCategories(args)
	case "status":
		runStatus(args)
	case "watch":
		runWatch(args)
	case "version", "--version", "-v":
		fmt.Printf("tenpo version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tenpo - storefront product search

Usage:
  tenpo server [flags]                 Start the HTTP server
  tenpo search [flags] <query>         Search products
  tenpo import [flags] <file-or-dir>   Import catalog files (.yaml, .yml, .json, .xlsx)
  tenpo delete [flags] <product-id>    Delete a product
  tenpo categories [flags]             List categories with product counts
  tenpo status [flags]                 Show storage and index status
  tenpo watch <add|remove|list>        Manage watched catalog directories
  tenpo version                        Show version
  tenpo help                           Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/tenpo/config.yaml,
                     or ./config.yaml when present)
  --debug            Enable debug logging

Search Flags:
  --server string    Server URL (default: http://localhost:8080). Use --server "" to
                     search the local database directly.
  --limit int        Maximum number of products (default and cap: ranking.result_limit)
  --output string    text, compact or json (default: text)

Categories, Status, Delete Flags:
  --server string    Server URL (default: http://localhost:8080); "" for direct storage
  --output string    text or json (categories, status)

Watch Flags:
  --server string    Server URL (default: http://localhost:8080)
  --sync             Import existing catalogs when adding (default: true)

import opens the database and keyword index directly; stop the server first, or
drop the file into a watched directory instead.

Examples:
  tenpo server
  tenpo search running shoes
  tenpo search --output json --limit 5 "rain jacket"
  tenpo import ./catalog/spring.yaml
  tenpo import ./catalog
  tenpo delete 6f1c2a9e-8d7b-4c55-9a61-0c1f0b2d3e4f
  tenpo categories
  tenpo status --output json
  tenpo watch add ./catalog
  tenpo watch list`)
}
