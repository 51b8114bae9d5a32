// Package main is the gunggeum CLI entry point.
package main

import (
	"bytes"
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
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/gunggeum/internal/cli"
	"github.com/hyperjump/gunggeum/internal/config"
	"github.com/hyperjump/gunggeum/internal/models"
	"github.com/hyperjump/gunggeum/internal/searchlog"
	"github.com/hyperjump/gunggeum/internal/server"
	"github.com/hyperjump/gunggeum/internal/watcher"
	"github.com/hyperjump/gunggeum/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/gunggeum/config.yaml"
	defaultServerURL  = "http://localhost:3001"
)

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory takes precedence; when neither exists the built-in defaults
// plus environment are used. Returns the path actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			cfg := &config.Config{}
			config.ApplyEnv(cfg)
			config.ApplyDefaults(cfg)
			if err := cfg.Validate(); err != nil {
				return nil, "", err
			}
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
	// A missing .env is normal in production.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "ask":
		runAsk()
	case "logs":
		runLogs()
	case "version", "--version", "-v":
		fmt.Printf("gunggeum version %s\n", version)
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
	debug := fs.Bool("debug", false, "enable debug logging")
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
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("limits_store", cfg.Limits.Store),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := initializeComponents(ctx, cfg, logger, true)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()
	logger = components.Logger

	if cfg.Guard.BannedWordsPath != "" && cfg.Guard.WatchOrDefault() {
		words := components.Words
		watchSvc := watcher.NewWatcher(
			[]string{cfg.Guard.BannedWordsPath},
			func(path string) {
				if err := words.Reload(); err != nil {
					logger.Warn("banned word reload failed", zap.String("path", path), zap.Error(err))
				}
			},
			watcher.WithLogger(logger),
		)
		if err := watchSvc.Start(ctx); err != nil {
			logger.Warn("banned word watcher disabled", zap.Error(err))
		} else {
			defer watchSvc.Stop()
		}
	}

	srv := server.NewServer(components.Engine, cfg.Server, logger,
		server.WithMetrics(components.Metrics),
		server.WithBurstLimiter(components.Burst),
		server.WithLogs(cfg.Logs, components.Location),
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// buildQuery joins all positional args with spaces so multi-word queries work the
// same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after the positional
// arguments to the front so that flag.Parse() sees them.
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

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: gunggeum search [flags] <query>\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  gunggeum search 이순신 장군
  gunggeum search --output json "공룡은 왜 멸종했어?"
  gunggeum search --server "" 고래        # run the pipeline in-process
`)
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (in-process mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = run the pipeline in-process)")
	userID := fs.String("user", "cli", "caller id sent as x-user-id")
	outputFormat := fs.String("output", "text", "output format: text or json")
	preview := fs.Int("preview", 300, "characters of source text to show in text output (0 = none)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(argsReorder(os.Args[2:]))

	query := buildQuery(fs.Args())
	if query == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	req := models.SearchRequest{RawQuery: query, CallerID: *userID}
	var outcome *models.SearchOutcome
	if *serverURL != "" {
		outcome, err = searchViaHTTP(context.Background(), *serverURL, req)
	} else {
		outcome, err = withComponents(*configPath, func(ctx context.Context, c *Components) (*models.SearchOutcome, error) {
			return c.Engine.Search(ctx, req)
		})
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchOutcome(os.Stdout, outcome, format, *preview); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (in-process mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = answer in-process)")
	contextFile := fs.String("context-file", "", "file holding the text the question is about (- for stdin)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	question := buildQuery(fs.Args())
	if question == "" || *contextFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: gunggeum ask --context-file <file> <question>")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	contextText, err := readContext(*contextFile, os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read context: %v\n", err)
		os.Exit(1)
	}

	req := models.QuestionRequest{Context: contextText, Question: question}
	var resp *models.QuestionResponse
	if *serverURL != "" {
		resp, err = askViaHTTP(context.Background(), *serverURL, req)
	} else {
		resp, err = withComponents(*configPath, func(ctx context.Context, c *Components) (*models.QuestionResponse, error) {
			return c.Engine.Answer(ctx, req)
		})
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Question failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteAnswer(os.Stdout, resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runLogs() {
	fs := flag.NewFlagSet("logs", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	lines := fs.Int("lines", 0, "number of trailing lines (default from config)")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: gunggeum logs [--lines n] <search|error> [YYYY-MM-DD]")
		os.Exit(1)
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	loc, err := time.LoadLocation(cfg.Limits.Timezone)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid timezone: %v\n", err)
		os.Exit(1)
	}
	n := cfg.Logs.TailLines
	if *lines > 0 {
		n = *lines
	}
	out, err := searchlog.Tail(cfg.Logs.Dir, fs.Arg(0), logDate(fs.Arg(1), time.Now(), loc), n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read logs: %v\n", err)
		os.Exit(1)
	}
	_ = cli.WriteLogLines(os.Stdout, out)
}

// logDate returns arg, or today's date in loc when arg is empty.
func logDate(arg string, now time.Time, loc *time.Location) string {
	if arg != "" && arg != "today" {
		return arg
	}
	return now.In(loc).Format(searchlog.DateLayout)
}

func readContext(path string, stdin io.Reader) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// withComponents runs fn against an in-process pipeline built from the config at path.
func withComponents[T any](path string, fn func(context.Context, *Components) (T, error)) (T, error) {
	var zero T
	cfg, _, err := loadConfig(path)
	if err != nil {
		return zero, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return zero, fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger, false)
	if err != nil {
		return zero, err
	}
	defer components.Close()
	return fn(ctx, components)
}

// apiError is a non-200 reply from the server. Message is the user-facing text.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

var httpClient = &http.Client{Timeout: 2 * time.Minute}

func searchViaHTTP(ctx context.Context, serverURL string, req models.SearchRequest) (*models.SearchOutcome, error) {
	var out models.SearchOutcome
	headers := map[string]string{"x-user-id": req.CallerID}
	if err := postJSON(ctx, serverURL+"/search", req, headers, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func askViaHTTP(ctx context.Context, serverURL string, req models.QuestionRequest) (*models.QuestionResponse, error) {
	var out models.QuestionResponse
	if err := postJSON(ctx, serverURL+"/question", req, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func postJSON(ctx context.Context, url string, body any, headers map[string]string, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		if v != "" {
			httpReq.Header.Set(k, v)
		}
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var e models.ErrorResponse
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(b, &e) != nil {
			e.Message = strings.TrimSpace(string(b))
		}
		return &apiError{Status: resp.StatusCode, Message: e.Message}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func printUsage() {
	fmt.Println(`gunggeum - kid-friendly topic explainer

Usage:
  gunggeum server [flags]                          Start the HTTP server
  gunggeum search [flags] <query>                  Explain a topic
  gunggeum ask --context-file <file> <question>    Ask a follow-up question
  gunggeum logs [--lines n] <search|error> [date]  Show the daily audit log
  gunggeum version                                 Show version
  gunggeum help                                    Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/gunggeum/config.yaml)
  --debug            Enable debug logging

Search / Ask Flags:
  --config string    Config file path (in-process mode)
  --server string    Server URL (default: http://localhost:3001). Use --server "" to run in-process.
  --output string    Output format: text or json (default: text)
  --user string      Caller id for limits (search only, default: cli)
  --preview int      Characters of source text to show (search only, default: 300)

Environment:
  OPENAI_API_KEY, GEMINI_API_KEY, SERPER_API_KEY, LOG_SECRET, REDIS_URL, PORT
  (read from .env in the working directory when present)

Examples:
  gunggeum server
  gunggeum search 이순신
  gunggeum search --output json "화산은 왜 폭발해?"
  gunggeum ask --context-file source.txt 거북선은 어떻게 생겼어?
  gunggeum logs error 2025-05-01`)
}
