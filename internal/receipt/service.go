package receipt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/receipt-ledger/internal/scanning"
)

// defaultExtractTimeout bounds a single model call when none is configured
const defaultExtractTimeout = 5 * time.Minute

// IDGenerator generates unique IDs for analyses
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Options tune the analysis pipeline
type Options struct {
	// Instructions sent with every document; the embedded default when empty
	Instructions scanning.InstructionSet
	// Validator rejects model output that does not match the schema; nil disables strict mode
	Validator *scanning.SchemaValidator
	// ExtractTimeout bounds the model call
	ExtractTimeout time.Duration
	// XLSXTemplate is the expense report workbook to fill; a blank workbook when empty
	XLSXTemplate string
}

// Service runs documents through the analysis pipeline and keeps the results
type Service struct {
	extractor   scanning.Extractor
	store       ResultStore
	options     Options
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(extractor scanning.Extractor, store ResultStore, opts Options) *Service {
	return NewServiceWithDeps(extractor, store, opts, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(extractor scanning.Extractor, store ResultStore, opts Options, idGen IDGenerator, timeSrc TimeSource) *Service {
	if opts.Instructions.System == "" {
		opts.Instructions = scanning.DefaultInstructionSet()
	}
	if opts.ExtractTimeout <= 0 {
		opts.ExtractTimeout = defaultExtractTimeout
	}

	return &Service{
		extractor:   extractor,
		store:       store,
		options:     opts,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// sanitizeFilename cleans up a filename for display and downloads
func sanitizeFilename(filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	// Keep letters and digits of any script
	reg := regexp.MustCompile(`[^\p{L}\p{N}\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	runes := []rune(base)
	if len(runes) > 50 {
		base = string(runes[:50])
	}

	if base == "" {
		base = "document"
	}

	return base + ext
}

// Analyze encodes the document read from r and runs it through the pipeline
func (s *Service) Analyze(ctx context.Context, filename string, r io.Reader, mimeType string) (*AnalysisResult, error) {
	doc, err := scanning.EncodeDocument(r, mimeType)
	if err != nil {
		slog.Error("Failed to read document", "filename", filename, "error", err)
		analysesTotal.WithLabelValues(outcomeLabel(err)).Inc()
		return nil, fmt.Errorf("analyzing %s: %w", filename, err)
	}
	return s.AnalyzeDocument(ctx, filename, doc)
}

// AnalyzeDocument extracts, normalizes and summarizes an encoded document.
// The result is stored only when every step succeeds.
func (s *Service) AnalyzeDocument(ctx context.Context, filename string, doc scanning.Document) (*AnalysisResult, error) {
	result, err := s.analyze(ctx, filename, doc)
	analysesTotal.WithLabelValues(outcomeLabel(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("analyzing %s: %w", filename, err)
	}
	return result, nil
}

func (s *Service) analyze(ctx context.Context, filename string, doc scanning.Document) (*AnalysisResult, error) {
	instructions := s.options.Instructions
	start := s.timeSource.Now()

	text, err := s.extract(ctx, doc, instructions)
	if err != nil {
		slog.Error("Failed to extract receipts",
			"filename", filename,
			"content_type", doc.MimeType,
			"pages", doc.Pages,
			"instructions", instructions.Version,
			"error", err,
		)
		return nil, err
	}
	extractDuration.Observe(s.timeSource.Now().Sub(start).Seconds())

	if s.options.Validator != nil {
		if err := s.options.Validator.Validate(text); err != nil {
			logNormalizationFailure(filename, err)
			return nil, err
		}
	}

	records, err := scanning.ParseReceipts(text)
	if err != nil {
		logNormalizationFailure(filename, err)
		return nil, err
	}
	if records == nil {
		records = []scanning.ReceiptRecord{}
	}

	result := &AnalysisResult{
		ID:        s.idGenerator.Generate(),
		Filename:  sanitizeFilename(filename),
		Timestamp: s.timeSource.Now(),
		Pages:     doc.Pages,
		Version:   instructions.Version,
		Data:      records,
		Summary:   Summarize(records),
	}

	if err := s.store.Save(result); err != nil {
		return nil, fmt.Errorf("saving analysis: %w", err)
	}

	for _, r := range records {
		recordsTotal.WithLabelValues(string(r.Status)).Inc()
	}
	if len(result.Summary.UnreconciledIDs) > 0 {
		slog.Warn("Receipt amounts do not add up",
			"analysis_id", result.ID,
			"receipt_ids", result.Summary.UnreconciledIDs,
		)
	}
	slog.Info("Analyzed document",
		"analysis_id", result.ID,
		"filename", result.Filename,
		"records", result.Summary.Count,
		"success", result.Summary.SuccessCount,
	)

	return result, nil
}

// extract runs the model call to completion even if the caller goes away,
// bounded by the configured timeout
func (s *Service) extract(ctx context.Context, doc scanning.Document, instructions scanning.InstructionSet) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.options.ExtractTimeout)
	defer cancel()

	text, err := s.extractor.Extract(ctx, doc, instructions)
	if err != nil {
		var readErr *scanning.ReadError
		var extractErr *scanning.ExtractionError
		if errors.As(err, &readErr) || errors.As(err, &extractErr) {
			return "", err
		}
		return "", &scanning.ExtractionError{Err: err}
	}
	return text, nil
}

// GetAnalysis retrieves a stored analysis by ID
func (s *Service) GetAnalysis(id string) (*AnalysisResult, error) {
	result, err := s.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("getting analysis: %w", err)
	}
	return result, nil
}

// DeleteAnalysis discards a stored analysis
func (s *Service) DeleteAnalysis(id string) error {
	if err := s.store.Delete(id); err != nil {
		return fmt.Errorf("deleting analysis: %w", err)
	}
	return nil
}

// logNormalizationFailure records the raw model output; it never leaves the server
func logNormalizationFailure(filename string, err error) {
	var normErr *scanning.NormalizationError
	raw := ""
	if errors.As(err, &normErr) {
		raw = normErr.Raw
	}
	slog.Error("Failed to normalize model response",
		"filename", filename,
		"error", err,
		"raw", raw,
	)
}

func outcomeLabel(err error) string {
	var (
		readErr    *scanning.ReadError
		extractErr *scanning.ExtractionError
		normErr    *scanning.NormalizationError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &readErr):
		return "read_error"
	case errors.As(err, &extractErr):
		return "extraction_error"
	case errors.As(err, &normErr):
		return "normalization_error"
	default:
		return "internal_error"
	}
}
