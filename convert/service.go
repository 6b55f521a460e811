// Package convert runs documents through extraction and Markdown assembly,
// alone or in bounded-concurrency batches, and exposes the conversion over
// HTTP (chi) and MCP.
//
// Usage:
//
//	svc := convert.NewService(convert.Options{Extractor: docpipe.New(docpipe.Config{})})
//	res, err := svc.Convert(ctx, convert.Item{Filename: "ley.pdf", Data: data})
//	fmt.Println(res.Markdown)
package convert

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/legaldoc/docpipe"
	"github.com/hazyhaar/legaldoc/kit"
	"github.com/hazyhaar/legaldoc/markdown"
)

// Default batch limits.
const (
	DefaultMaxBatch    = 5
	DefaultConcurrency = 2
)

// Extractor turns document bytes into text. *docpipe.Pipeline implements it.
type Extractor interface {
	Extract(ctx context.Context, data []byte, filename string) (*docpipe.Result, error)
}

// Item is one document to convert.
type Item struct {
	Filename string
	Data     []byte
}

// Result is one converted document.
type Result struct {
	ID          string               `json:"id"`
	Filename    string               `json:"filename"`
	Format      docpipe.Format       `json:"format"`
	Markdown    string               `json:"markdown"`
	Chunks      int                  `json:"chunks"`
	Diagnostics *docpipe.Diagnostics `json:"diagnostics"`
}

// Options configures a Service.
type Options struct {
	Extractor   Extractor          // required
	Assembler   markdown.Assembler // chunking and numbering of the output
	MaxBatch    int                // default: 5
	Concurrency int                // default: 2
	Metrics     *Metrics           // nil records nothing
	Logger      *slog.Logger
}

// Service converts documents. It is safe for concurrent use.
type Service struct {
	extractor   Extractor
	assembler   markdown.Assembler
	maxBatch    int
	concurrency int
	metrics     *Metrics
	logger      *slog.Logger
}

// NewService creates a Service.
func NewService(opts Options) *Service {
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = DefaultMaxBatch
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		extractor:   opts.Extractor,
		assembler:   opts.Assembler,
		maxBatch:    opts.MaxBatch,
		concurrency: opts.Concurrency,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
	}
}

// NewFromConfig builds the extraction pipeline, OCR runner, assembler and
// metrics described by cfg.
func NewFromConfig(cfg *Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return NewService(Options{
		Extractor:   cfg.NewPipeline(logger),
		Assembler:   markdown.Assembler{Chunk: cfg.Chunk, Numbered: cfg.Numbered},
		MaxBatch:    cfg.MaxBatch,
		Concurrency: cfg.Concurrency,
		Metrics:     NewMetrics(),
		Logger:      logger,
	})
}

// Metrics returns the service metrics, or nil.
func (s *Service) Metrics() *Metrics { return s.metrics }

// MaxBatch returns the largest accepted batch.
func (s *Service) MaxBatch() int { return s.maxBatch }

// Convert extracts item and assembles its Markdown.
func (s *Service) Convert(ctx context.Context, item Item) (*Result, error) {
	id := uuid.NewString()
	logger := kit.Logger(ctx, s.logger).With("conversion_id", id, "filename", item.Filename)
	start := time.Now()
	logger.Info("conversion started", "bytes", len(item.Data))

	ext, err := s.extractor.Extract(ctx, item.Data, item.Filename)
	if err != nil {
		format, _ := docpipe.Detect(item.Filename)
		s.metrics.observeConversion(string(format), outcomeFor(err), time.Since(start))
		logger.Warn("conversion failed", "error", err, "duration", time.Since(start))
		return nil, err
	}

	doc := s.assembler.Build(ext.Text, item.Filename)
	diag := ext.Diagnostics
	res := &Result{
		ID:          id,
		Filename:    item.Filename,
		Format:      ext.Format,
		Markdown:    doc.Markdown,
		Chunks:      len(doc.Chunks),
		Diagnostics: &diag,
	}

	elapsed := time.Since(start)
	s.metrics.observeConversion(string(ext.Format), OutcomeOK, elapsed)
	s.metrics.observeExtraction(diag, res.Chunks)
	logger.Info("conversion finished",
		"format", ext.Format,
		"parser", diag.Parser,
		"ocr_used", diag.OCRUsed,
		"chunks", res.Chunks,
		"notes", len(diag.Notes),
		"duration", elapsed)
	return res, nil
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, docpipe.ErrUnsupportedFormat):
		return OutcomeUnsupported
	case errors.Is(err, docpipe.ErrExtractionFailed):
		return OutcomeFailed
	default:
		return OutcomeError
	}
}
