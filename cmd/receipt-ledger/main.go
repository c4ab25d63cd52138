package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/receipt-ledger/internal/receipt"
	"github.com/zombor/receipt-ledger/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("receipt-ledger")
	var (
		port            = fs.IntLong("port", 8080, "HTTP server port")
		extractorType   = fs.StringLong("extractor", "gemini", "Extractor type: 'gemini' or 'ollama'")
		geminiKey       = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel     = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL       = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel     = fs.StringLong("ollama-model", "qwen2.5vl", "Ollama vision model name (e.g., qwen2.5vl, llama3.2-vision)")
		promptDir       = fs.StringLong("prompt-dir", "", "Directory with system.md, task.txt and optional schema.json (default: embedded ja-v1)")
		strictSchema    = fs.BoolLong("strict-schema", "Reject model output that does not match the response schema")
		extractTimeout  = fs.DurationLong("extract-timeout", 5*time.Minute, "Upper bound on a single model call")
		resultTTL       = fs.DurationLong("result-ttl", time.Hour, "How long analyses stay available for export")
		resultCacheSize = fs.IntLong("result-cache-size", 100, "Maximum number of analyses kept in memory")
		xlsxTemplate    = fs.StringLong("xlsx-template", "", "Expense report workbook to fill on xlsx export (default: blank workbook)")
		authUser        = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass        = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		logLevel        = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		showVersion     = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_LEDGER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid log level %q\n", *logLevel)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Initialize extractor based on type
	apiKey := *geminiKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	extractor, err := scanning.NewExtractor(scanning.ExtractorConfig{
		Kind:        *extractorType,
		GeminiKey:   apiKey,
		GeminiModel: *geminiModel,
		OllamaURL:   *ollamaURL,
		OllamaModel: *ollamaModel,
	})
	if err != nil {
		slog.Error("Failed to initialize extractor", "error", err)
		os.Exit(1)
	}
	defer extractor.Close()

	opts, err := receipt.LoadOptions(*promptDir, *strictSchema, *extractTimeout, *xlsxTemplate)
	if err != nil {
		slog.Error("Failed to configure analysis", "error", err)
		os.Exit(1)
	}

	// Initialize service
	store := receipt.NewMemoryStore(*resultCacheSize, *resultTTL)
	receiptService := receipt.NewService(extractor, store, opts)

	// Initialize server
	basicAuth := receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := receipt.NewServer(receiptService, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started",
		"address", fmt.Sprintf("http://localhost%s", addr),
		"version", version,
		"instructions", opts.Instructions.Version,
		"strict_schema", *strictSchema,
	)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
