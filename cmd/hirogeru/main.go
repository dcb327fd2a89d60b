// Package main is the Hirogeru CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/hirogeru/internal/cli"
	"github.com/hyperjump/hirogeru/internal/config"
	"github.com/hyperjump/hirogeru/internal/expansion"
	"github.com/hyperjump/hirogeru/internal/models"
	"github.com/hyperjump/hirogeru/internal/retrieval"
	"github.com/hyperjump/hirogeru/internal/server"
	"github.com/hyperjump/hirogeru/internal/storage"
	"github.com/hyperjump/hirogeru/internal/watcher"
	"github.com/hyperjump/hirogeru/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/hirogeru/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "hirogeru server" from the project dir picks up the
// project's config. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
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

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "expand":
		runExpand()
	case "add":
		runAdd()
	case "delete":
		runDelete()
	case "rebuild":
		runRebuild()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("hirogeru version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (watch events, expansion internals)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(
		components.Expander,
		components.Retriever,
		components.Storage,
		&cfg.Server,
		logger,
	)
	if err := srv.RebuildCorpus(context.Background()); err != nil {
		logger.Fatal("Failed to build corpus statistics", zap.Error(err))
	}

	var watchSvc *watcher.Watcher
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if len(cfg.Watch.Directories) > 0 {
		ingestor := watcher.NewIngestor(components.Storage, components.Retriever, srv.RebuildCorpus, logger)
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc = watcher.New(
			cfg.Watch.Directories,
			cfg.Watch.Extensions,
			cfg.Watch.RecursiveOrDefault(),
			func(path string) {
				if err := ingestor.Ingest(context.Background(), path); err != nil {
					logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
				}
			},
			func(path string) {
				if err := ingestor.Drop(context.Background(), path); err != nil {
					logger.Warn("watch drop failed", zap.String("path", path), zap.Error(err))
				}
			},
			watchOpts...,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		watchSvc.SyncExistingFiles()
	}

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	if watchSvc != nil {
		watchSvc.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// expandArgsReorder moves any flags (and their values) that appear after the
// query to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument, so
// "hirogeru expand \"query\" -top-k 10" would otherwise leave -top-k unparsed.
func expandArgsReorder(args []string) []string {
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

func printExpandUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: hirogeru expand [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  hirogeru expand machine learning
  hirogeru expand "machine learning"            # same as above
  hirogeru expand --top-k 10 quicksort          # wider pseudo-relevant window
  hirogeru expand --rerun quicksort             # also retrieve with expanded query
  hirogeru expand --output compact quicksort    # expanded query only, for pipelines
`)
}

func runExpand() {
	expandArgs := expandArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("expand", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	topK := fs.Int("top-k", 0, "pseudo-relevant window size (0 = use configured default)")
	rerun := fs.Bool("rerun", false, "retrieve again with the expanded query and show results")
	rerunLimit := fs.Int("rerun-limit", 10, "number of results for the expanded-query retrieval")
	outputFormat := fs.String("output", "text", "output format: text, compact (expanded query only), or json")
	fs.Usage = func() { printExpandUsage(fs) }
	_ = fs.Parse(expandArgs)

	if fs.NArg() < 1 {
		printExpandUsage(fs)
		os.Exit(1)
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		printExpandUsage(fs)
		os.Exit(1)
	}

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	req := &models.ExpansionRequest{
		Query:      query,
		TopK:       *topK,
		Rerun:      *rerun,
		RerunLimit: *rerunLimit,
	}

	var response *models.ExpansionResponse
	if *serverURL != "" {
		// Use HTTP API when server is running (avoids Bleve/SQLite lock conflict).
		response, err = expandViaHTTP(*serverURL, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Expansion failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		response, err = expandDirect(*configPath, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Expansion failed: %v\n", err)
			os.Exit(1)
		}
	}

	if err := cli.WriteExpansion(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func expandViaHTTP(serverURL string, req *models.ExpansionRequest) (*models.ExpansionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/expand", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.ExpansionResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

// expandDirect runs the expansion loop against local storage, for use when
// the server is not running.
func expandDirect(configPath string, req *models.ExpansionRequest) (*models.ExpansionResponse, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, err
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer components.Close()

	srv := server.NewServer(components.Expander, components.Retriever, components.Storage, &cfg.Server, logger)
	ctx := context.Background()
	if err := srv.RebuildCorpus(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return srv.Expand(ctx, req)
}

func runAdd() {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: hirogeru add [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat path: %v\n", err)
		os.Exit(1)
	}

	var paths []string
	if info.IsDir() {
		exts := []string{".txt", ".md"}
		if cfg, _, cfgErr := loadConfig(*configPath); cfgErr == nil && len(cfg.Watch.Extensions) > 0 {
			exts = cfg.Watch.Extensions
		}
		filepath.WalkDir(path, func(p string, d os.DirEntry, walkErr error) error {
			if walkErr != nil || d.IsDir() {
				return walkErr
			}
			for _, e := range exts {
				if strings.EqualFold(filepath.Ext(p), e) {
					paths = append(paths, p)
					break
				}
			}
			return nil
		})
		if len(paths) == 0 {
			fmt.Printf("No matching files under %s\n", path)
			os.Exit(1)
		}
	} else {
		paths = []string{path}
	}

	if *serverURL != "" {
		for _, p := range paths {
			if err := addViaHTTP(*serverURL, p); err != nil {
				fmt.Fprintf(os.Stderr, "Add failed for %s: %v\n", p, err)
				os.Exit(1)
			}
		}
		fmt.Printf("Added %d material(s)\n", len(paths))
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	// Corpus statistics live in server memory, so no rebuild callback here;
	// the server rebuilds on startup and on its own mutations.
	ingestor := watcher.NewIngestor(components.Storage, components.Retriever, nil, logger)
	ctx := context.Background()
	for _, p := range paths {
		if err := ingestor.Ingest(ctx, p); err != nil {
			fmt.Fprintf(os.Stderr, "Add failed for %s: %v\n", p, err)
			os.Exit(1)
		}
	}
	fmt.Printf("Added %d material(s)\n", len(paths))
}

func addViaHTTP(serverURL, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return err
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return fmt.Errorf("file is empty")
	}
	base := filepath.Base(abs)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	body, _ := json.Marshal(models.MaterialInput{
		Title:    title,
		Content:  content,
		Metadata: map[string]interface{}{"source_path": abs},
	})
	resp, err := http.Post(serverURL+"/api/v1/materials", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	return nil
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: hirogeru delete [flags] <material-id>")
		os.Exit(1)
	}
	id := fs.Arg(0)

	req, _ := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/materials/"+id, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Printf("Delete failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	fmt.Printf("Material deleted: %s\n", id)
}

func runRebuild() {
	fs := flag.NewFlagSet("rebuild", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Post(*serverURL+"/api/v1/corpus/rebuild", "application/json", nil)
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Printf("Rebuild failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var stats expansion.CorpusStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		fmt.Printf("Parse failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Corpus rebuilt: %d document(s), %d unique term(s)\n", stats.Size, stats.UniqueTerms)
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Materials     int64  `json:"materials"`
	Indexed       uint64 `json:"indexed"`
	CorpusSize    int    `json:"corpus_size"`
	CorpusTerms   int    `json:"corpus_terms"`
	Algorithm     string `json:"algorithm"`
	TermWeighting string `json:"term_weighting"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		ctx := context.Background()
		materials, err := components.Storage.ListAllMaterials(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "List materials failed: %v\n", err)
			os.Exit(1)
		}
		components.Expander.InitializeCorpus(materials)
		indexed, _ := components.Retriever.Count()
		stats := components.Expander.GetCorpusStats()
		expCfg := components.Expander.Config()
		status = statusResponse{
			Materials:     int64(len(materials)),
			Indexed:       indexed,
			CorpusSize:    stats.Size,
			CorpusTerms:   stats.UniqueTerms,
			Algorithm:     string(expCfg.Algorithm),
			TermWeighting: string(expCfg.TermWeighting),
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("materials:       %d   # stored course materials\n", status.Materials)
		fmt.Printf("indexed:         %d   # documents in the retrieval index\n", status.Indexed)
		fmt.Printf("corpus_size:     %d   # documents in corpus statistics\n", status.CorpusSize)
		fmt.Printf("corpus_terms:    %d   # unique terms in corpus statistics\n", status.CorpusTerms)
		fmt.Printf("algorithm:       %s\n", status.Algorithm)
		fmt.Printf("term_weighting:  %s\n", status.TermWeighting)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// Components holds initialized services.
type Components struct {
	Storage   storage.Storage
	Retriever retrieval.Retriever
	Expander  *expansion.Expander
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Retriever != nil {
		_ = c.Retriever.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	retriever, err := retrieval.NewBleveRetriever(cfg.Storage.BleveIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize retrieval index: %w", err)
	}

	expander, err := expansion.NewExpander(cfg.Expansion, logger)
	if err != nil {
		_ = store.Close()
		_ = retriever.Close()
		return nil, fmt.Errorf("failed to initialize expander: %w", err)
	}

	return &Components{
		Storage:   store,
		Retriever: retriever,
		Expander:  expander,
	}, nil
}

func printUsage() {
	fmt.Println(`hirogeru - Pseudo-relevance feedback query expansion for course materials

Usage:
  hirogeru server [flags]           Start the HTTP server
  hirogeru expand [flags] <query>   Expand a query with related terms
  hirogeru add [flags] <path>       Add a material file or directory
  hirogeru delete [flags] <id>      Delete a material
  hirogeru rebuild [flags]          Rebuild corpus statistics
  hirogeru status [flags]           Show store/index/corpus status
  hirogeru version                  Show version
  hirogeru help                     Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/hirogeru/config.yaml)
  --debug            Enable debug logging (watch events, expansion internals)

Expand Flags:
  --config string       Config file path (for direct mode)
  --server string       Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage when server is not running.
  --top-k int           Pseudo-relevant window size (0 = configured default)
  --rerun               Retrieve again with the expanded query and show results
  --rerun-limit int     Number of results for the expanded-query retrieval (default: 10)
  --output string       Output format: text, compact, or json (default: text)

Add Flags:
  --config string    Config file path (for direct mode; also supplies directory extensions)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.

Status Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text or json (default: text)

Examples:
  hirogeru server
  hirogeru expand "machine learning"
  hirogeru expand --top-k 10 --rerun quicksort
  hirogeru expand --output compact quicksort
  hirogeru add notes/sorting.md
  hirogeru add notes/
  hirogeru delete material:3f2a...
  hirogeru rebuild
  hirogeru status --output json`)
}
