// Package main is the fastcos CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/hyperjump/fastcos/internal/cli"
	"github.com/hyperjump/fastcos/internal/codec"
	"github.com/hyperjump/fastcos/internal/config"
	"github.com/hyperjump/fastcos/internal/engine"
	"github.com/hyperjump/fastcos/internal/keyword"
	"github.com/hyperjump/fastcos/internal/metrics"
	"github.com/hyperjump/fastcos/internal/models"
	"github.com/hyperjump/fastcos/internal/scoring"
	"github.com/hyperjump/fastcos/internal/search"
	"github.com/hyperjump/fastcos/internal/server"
	"github.com/hyperjump/fastcos/internal/storage"
	"github.com/hyperjump/fastcos/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/fastcos/config.yaml"
	defaultServerURL  = "http://localhost:9200"
)

// loadConfig loads config from path. When path is the default and config.yaml exists in
// the current directory, that file is used instead. Without any file the defaults apply.
// Returns the config and the path that was actually loaded.
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
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
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
	case "index":
		runIndex()
	case "search":
		runSearch()
	case "delete":
		runDelete()
	case "status":
		runStatus()
	case "encode":
		runEncode()
	case "score":
		runScore()
	case "version", "--version", "-v":
		fmt.Printf("fastcos version %s\n", version)
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
	debug := fs.Bool("debug", false, "enable debug logging (per-document scoring diagnostics)")
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
		zap.String("byte_order", cfg.Scoring.ByteOrder),
		zap.String("default_mode", cfg.Scoring.DefaultMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(
		components.Engine,
		components.Storage,
		&cfg.Server,
		logger,
		server.WithMetrics(components.Registry),
		server.WithSettings(cfg),
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// readIndexRequest reads a JSON document batch, either {"documents": [...]} or a bare array.
func readIndexRequest(r io.Reader) (*models.IndexRequest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var req models.IndexRequest
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &req.Documents)
	} else {
		err = json.Unmarshal(trimmed, &req)
	}
	if err != nil {
		return nil, fmt.Errorf("parse documents: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = write to storage directly)")
	file := fs.String("file", "-", "JSON file with the documents of the segment (- reads stdin)")
	_ = fs.Parse(os.Args[2:])

	in, err := openInput(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open documents: %v\n", err)
		os.Exit(1)
	}
	req, err := readIndexRequest(in)
	_ = in.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid documents: %v\n", err)
		os.Exit(1)
	}

	var seg *models.Segment
	if *serverURL != "" {
		seg, err = indexViaHTTP(*serverURL, req)
	} else {
		err = withComponents(*configPath, func(c *Components) error {
			var indexErr error
			seg, indexErr = c.Engine.Index(context.Background(), req.Documents)
			return indexErr
		})
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Indexing failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Segment indexed: %s (%d documents)\n", seg.ID, seg.DocCount)
}

func indexViaHTTP(serverURL string, req *models.IndexRequest) (*models.Segment, error) {
	var seg models.Segment
	if err := postJSON(serverURL+"/api/v1/segments", req, http.StatusCreated, &seg); err != nil {
		return nil, err
	}
	return &seg, nil
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: fastcos search [flags] [query]\n\n")
	fmt.Fprintf(fs.Output(), "The query is matched against document names; without a query every document is scored.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  fastcos search -field embedding -vector 0.1,0.2,0.3
  fastcos search -field embedding -vector 0.1,0.2,0.3 -mode unit_cosine red shoes
  fastcos search -field embedding -encoded P/AAAAAAAAA= -explain
  fastcos search -fuzziness 1 -field embedding -vector 1,0 shoos
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
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

// parseVectorArg parses a comma separated list of numbers such as "0.1,0.2".
func parseVectorArg(s string) ([]float64, error) {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return nil, fmt.Errorf("vector is empty")
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("vector element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// buildScriptParams assembles the fast_cosine params from command line flags.
// Exactly one of vectorArg and encoded must be set.
func buildScriptParams(field, vectorArg, encoded, mode string) (map[string]interface{}, error) {
	if field == "" {
		return nil, fmt.Errorf("-field is required")
	}
	params := map[string]interface{}{scoring.ParamField: field}
	switch {
	case vectorArg != "" && encoded != "":
		return nil, fmt.Errorf("use either -vector or -encoded, not both")
	case vectorArg != "":
		v, err := parseVectorArg(vectorArg)
		if err != nil {
			return nil, err
		}
		params[scoring.ParamVector] = v
	case encoded != "":
		params[scoring.ParamEncodedVector] = encoded
	default:
		return nil, fmt.Errorf("one of -vector or -encoded is required")
	}
	if mode != "" {
		params[scoring.ParamMode] = mode
	}
	return params, nil
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage when server is not running)")
	limit := fs.Int("limit", 0, "number of results (0 = server default)")
	field := fs.String("field", "", "binary doc-value field holding the document vectors")
	vectorArg := fs.String("vector", "", "query vector as comma separated numbers")
	encoded := fs.String("encoded", "", "query vector as base64 encoded raw doubles")
	mode := fs.String("mode", "", "similarity: cosine, unit_cosine or dot (default from config)")
	source := fs.String("script", engine.SourceStaysense, "script source")
	explain := fs.Bool("explain", false, "include score explanations")
	fuzziness := fs.Int("fuzziness", 0, "edit distance allowed per query term (0-2)")
	outputFormat := fs.String("output", "text", "output format: text (human-readable), compact (one result per line), or json (parseable)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgs)

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	params, err := buildScriptParams(*field, *vectorArg, *encoded, *mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n\n", err)
		printSearchUsage(fs)
		os.Exit(1)
	}

	req := &models.SearchRequest{
		Query:     buildSearchQuery(fs.Args()),
		Fuzziness: *fuzziness,
		Limit:     *limit,
		Explain:   *explain,
		Script: models.Script{
			Lang:   engine.LangFastCosine,
			Source: *source,
			Params: params,
		},
	}

	var response *models.SearchResponse
	if *serverURL != "" {
		// Use HTTP API when server is running (avoids Bleve/SQLite lock conflict).
		response, err = searchViaHTTP(*serverURL, req)
	} else {
		err = withComponents(*configPath, func(c *Components) error {
			var searchErr error
			response, searchErr = c.Engine.Search(context.Background(), req)
			return searchErr
		})
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, req *models.SearchRequest) (*models.SearchResponse, error) {
	var response models.SearchResponse
	if err := postJSON(serverURL+"/api/v1/search", req, http.StatusOK, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func postJSON(target string, body interface{}, wantStatus int, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := http.Post(target, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, wantStatus, out)
}

func decodeResponse(resp *http.Response, wantStatus int, out interface{}) error {
	if resp.StatusCode != wantStatus {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: fastcos delete [flags] <segment-id>")
		os.Exit(1)
	}
	segment := fs.Arg(0)

	var err error
	if *serverURL != "" {
		err = deleteViaHTTP(*serverURL, segment)
	} else {
		err = withComponents(*configPath, func(c *Components) error {
			return c.Engine.DeleteSegment(context.Background(), segment)
		})
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Deletion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Segment deleted: %s\n", segment)
}

func deleteViaHTTP(serverURL, segment string) error {
	req, err := http.NewRequest(http.MethodDelete, serverURL+"/api/v1/segments/"+url.PathEscape(segment), nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, http.StatusOK, nil)
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Documents int64                  `json:"documents"`
	Segments  int                    `json:"segments"`
	Config    map[string]interface{} `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	var err error
	if *serverURL != "" {
		resp, getErr := http.Get(*serverURL + "/api/v1/status")
		if getErr != nil {
			err = fmt.Errorf("request failed: %w", getErr)
		} else {
			err = decodeResponse(resp, http.StatusOK, &status)
			resp.Body.Close()
		}
	} else {
		err = withComponents(*configPath, func(c *Components) error {
			ctx := context.Background()
			docs, countErr := c.Storage.CountDocuments(ctx)
			if countErr != nil {
				return countErr
			}
			segs, listErr := c.Storage.ListSegments(ctx)
			if listErr != nil {
				return listErr
			}
			status = statusResponse{Documents: docs, Segments: len(segs)}
			return nil
		})
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "json":
		if err := cli.WriteJSON(os.Stdout, status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		writeStatusText(os.Stdout, &status)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func writeStatusText(w io.Writer, status *statusResponse) {
	fmt.Fprintf(w, "documents:  %d   # documents across all segments\n", status.Documents)
	fmt.Fprintf(w, "segments:   %d\n", status.Segments)
	if len(status.Config) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# configuration")
	for _, key := range []string{"default_mode", "byte_order", "query_cache_size", "max_dimensions", "max_candidates", "database_path", "bleve_index_path"} {
		if v, ok := status.Config[key]; ok {
			fmt.Fprintf(w, "%-18s %v\n", key+":", v)
		}
	}
}

func runEncode() {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	byteOrder := fs.String("byte-order", "big", "byte order of the encoded doubles: big or little")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: fastcos encode [-byte-order big|little] <v1> <v2> ... | <v1,v2,...>")
		os.Exit(1)
	}
	c, err := codec.ForByteOrder(*byteOrder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	v, err := parseVectorArg(strings.Join(fs.Args(), ","))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid vector: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(c.FormatBase64Vector(v))
}

func runScore() {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	file := fs.String("file", "-", "JSON file with the documents to score (- reads stdin)")
	byteOrder := fs.String("byte-order", "big", "byte order of encoded vectors: big or little")
	field := fs.String("field", "", "vector field of the documents")
	vectorArg := fs.String("vector", "", "query vector as comma separated numbers")
	encoded := fs.String("encoded", "", "query vector as base64 encoded raw doubles")
	mode := fs.String("mode", "", "similarity: cosine, unit_cosine or dot (default cosine)")
	limit := fs.Int("limit", 10, "number of results (0 = all)")
	explain := fs.Bool("explain", false, "include score explanations")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	c, err := codec.ForByteOrder(*byteOrder)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	params, err := buildScriptParams(*field, *vectorArg, *encoded, *mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := utils.NewConsoleLogger(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	in, err := openInput(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open documents: %v\n", err)
		os.Exit(1)
	}
	req, err := readIndexRequest(in)
	_ = in.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid documents: %v\n", err)
		os.Exit(1)
	}

	scripts := engine.NewRegistry(engine.NewFastCosine(&scoring.Compiler{Codec: c, Logger: logger}))
	factory, err := scripts.Compile(engine.LangFastCosine, engine.SourceStaysense, engine.ContextScore, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid script: %v\n", err)
		os.Exit(1)
	}
	start := time.Now()
	response, err := search.ScoreDocuments(factory, req.Documents, c, *explain, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scoring failed: %v\n", err)
		os.Exit(1)
	}
	response.QueryTime = time.Since(start).Milliseconds()
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Storage  storage.Storage
	Names    keyword.NameIndex
	Scripts  *engine.Registry
	Engine   *search.Engine
	Registry *prometheus.Registry
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Names != nil {
		_ = c.Names.Close()
	}
}

// withComponents loads config, opens storage and indexes, and runs fn against them.
func withComponents(configPath string, fn func(*Components) error) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := utils.NewConsoleLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()
	return fn(components)
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c, err := cfg.Scoring.Codec()
	if err != nil {
		return nil, err
	}
	mode, err := cfg.Scoring.Mode()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	names, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize name index: %w", err)
	}

	compiler := &scoring.Compiler{
		Codec:         c,
		DefaultMode:   mode,
		Logger:        logger,
		MaxDimensions: cfg.Scoring.MaxDimensions,
	}
	if cfg.Scoring.QueryCacheSize > 0 {
		compiler.Cache = scoring.NewQueryCache(cfg.Scoring.QueryCacheSize)
	}
	scripts := engine.NewRegistry(engine.NewFastCosine(compiler))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	searchMetrics := metrics.NewSearchMetrics(reg)
	if segs, err := store.ListSegments(context.Background()); err == nil {
		searchMetrics.SetSegments(len(segs))
	}

	eng := search.NewEngine(store, names, scripts, c, &cfg.Search,
		search.WithLogger(logger),
		search.WithMetrics(searchMetrics),
	)
	logger.Info("engine initialized",
		zap.Strings("langs", scripts.Langs()),
		zap.String("database_path", cfg.Storage.DatabasePath),
		zap.String("bleve_index_path", cfg.Storage.BleveIndexPath),
	)

	return &Components{
		Storage:  store,
		Names:    names,
		Scripts:  scripts,
		Engine:   eng,
		Registry: reg,
	}, nil
}

func printUsage() {
	fmt.Println(`fastcos - Vector similarity scoring engine

Usage:
  fastcos server [flags]            Start the HTTP server
  fastcos index [flags]             Index a JSON batch of documents as one segment
  fastcos search [flags] [query]    Search documents by name and rank them by vector similarity
  fastcos delete [flags] <segment>  Delete a segment
  fastcos status [flags]            Show document and segment counts
  fastcos encode [flags] <values>   Print the encoded_vector form of a vector
  fastcos score [flags]             Score a JSON file of documents without storage
  fastcos version                   Show version
  fastcos help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/fastcos/config.yaml)
  --debug            Enable debug logging

Index Flags:
  --file string      Documents file, {"documents": [...]} or a bare array (default: stdin)
  --server string    Server URL (default: http://localhost:9200). Use --server "" to write to storage directly.
  --config string    Config file path (direct mode)

Search Flags:
  --field string     Vector field (required)
  --vector string    Query vector, e.g. 0.1,0.2,0.3
  --encoded string   Query vector as base64 raw doubles
  --mode string      cosine, unit_cosine or dot
  --limit int        Number of results
  --fuzziness int    Typo tolerance for the name query (0-2)
  --explain          Include score explanations
  --output string    text, compact or json (default: text)
  --server string    Server URL (default: http://localhost:9200). Use --server "" for direct storage.

Examples:
  fastcos server
  fastcos index --file docs.json
  fastcos search --field embedding --vector 0.2,0.1
  fastcos search --field embedding --vector 0.2,0.1 --mode unit_cosine --explain red shoes
  fastcos delete 3f2a9c1e-6b7d-4e3a-9f0c-2d8b1a7e5c44
  fastcos encode 0.2 0.1
  fastcos score --file docs.json --field embedding --vector 0.2,0.1
  fastcos status --output json`)
}
