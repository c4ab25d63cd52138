package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/receipt-ledger/internal/export"
	"github.com/zombor/receipt-ledger/internal/receipt"
	"github.com/zombor/receipt-ledger/internal/scanning"
)

func main() {
	fs := ff.NewFlagSet("receipt-scan")
	var (
		outDir         = fs.StringLong("out-dir", ".", "Directory the exports are written to")
		formats        = fs.StringLong("format", "json,csv", "Comma separated export formats: json, csv, xlsx")
		extractorType  = fs.StringLong("extractor", "gemini", "Extractor type: 'gemini' or 'ollama'")
		geminiKey      = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel    = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL      = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel    = fs.StringLong("ollama-model", "qwen2.5vl", "Ollama vision model name")
		promptDir      = fs.StringLong("prompt-dir", "", "Directory with system.md, task.txt and optional schema.json (default: embedded ja-v1)")
		strictSchema   = fs.BoolLong("strict-schema", "Reject model output that does not match the response schema")
		extractTimeout = fs.DurationLong("extract-timeout", 5*time.Minute, "Upper bound on the model call")
		xlsxTemplate   = fs.StringLong("xlsx-template", "", "Expense report workbook to fill (default: blank workbook)")
		logLevel       = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_LEDGER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	args := fs.GetArgs()
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "usage: receipt-scan [flags] <document.pdf>\n")
		os.Exit(1)
	}
	path := args[0]

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid log level %q\n", *logLevel)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	selected := strings.Split(*formats, ",")
	for i, format := range selected {
		selected[i] = strings.ToLower(strings.TrimSpace(format))
		if !slices.Contains(receipt.Formats, selected[i]) {
			slog.Error("Invalid export format", "format", format, "valid", strings.Join(receipt.Formats, ", "))
			os.Exit(1)
		}
	}

	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		slog.Error("Only PDF documents can be analyzed", "path", path)
		os.Exit(1)
	}

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

	storage, err := receipt.NewLocalStorage(*outDir)
	if err != nil {
		slog.Error("Failed to initialize output directory", "error", err)
		os.Exit(1)
	}

	if err := run(path, extractor, opts, storage, selected); err != nil {
		slog.Error("Analysis failed", "path", path, "error", err)
		os.Exit(1)
	}
}

func run(path string, extractor scanning.Extractor, opts receipt.Options, storage receipt.Storage, formats []string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	service := receipt.NewService(extractor, receipt.NewMemoryStore(1, 0), opts)
	result, err := service.Analyze(context.Background(), filepath.Base(path), f, "application/pdf")
	if err != nil {
		return err
	}

	slog.Info("Summary",
		"receipts", result.Summary.Count,
		"success", result.Summary.SuccessCount,
		"total", export.FormatYen(result.Summary.TotalAmount),
		"total_10_percent", export.FormatYen(result.Summary.Total10Percent),
		"total_8_percent", export.FormatYen(result.Summary.Total8Percent),
		"total_non_invoice", export.FormatYen(result.Summary.TotalNonInvoice),
	)

	paths, err := receipt.SaveArtifacts(storage, result, formats, opts.XLSXTemplate, time.Now())
	for _, p := range paths {
		slog.Info("Wrote export", "path", p)
	}
	return err
}
