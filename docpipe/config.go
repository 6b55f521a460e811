package docpipe

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/legaldoc/ocr"
)

// PDF native reader names.
const (
	ReaderPdfcpu     = "pdfcpu"
	ReaderLedongthuc = "ledongthuc"
)

// HTML extraction modes.
const (
	HTMLModeText     = "text"
	HTMLModeMarkdown = "markdown"
)

// OCRRunner recognizes the text of a whole PDF. *ocr.Runner implements it.
type OCRRunner interface {
	Run(ctx context.Context, pdf []byte) ocr.Result
}

// Config configures the document pipeline.
type Config struct {
	// MaxFileSize is the maximum document size to process (default: 100 MB).
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// PDFReader selects the native PDF text reader: "pdfcpu" (default) or "ledongthuc".
	PDFReader string `json:"pdf_reader" yaml:"pdf_reader"`

	// PageMarkers prefixes each native PDF page with "=== Página N ===".
	PageMarkers bool `json:"page_markers" yaml:"page_markers"`

	// HTMLMode is "text" (default, visible text) or "markdown".
	HTMLMode string `json:"html_mode" yaml:"html_mode"`

	// MinChars is the OCR threshold for PDFs with an unknown page count (default: 200).
	MinChars int `json:"min_chars" yaml:"min_chars"`

	// MinCharsPerPage is the average OCR threshold per page (default: 80).
	MinCharsPerPage int `json:"min_chars_per_page" yaml:"min_chars_per_page"`

	// DisableOCR turns the OCR step into a no-op that only records a note.
	DisableOCR bool `json:"disable_ocr" yaml:"disable_ocr"`

	// OCR runs the fallback. Default: ocr.NewRunner over the pdftoppm and
	// tesseract binaries found in PATH.
	OCR OCRRunner `json:"-" yaml:"-"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.PDFReader == "" {
		c.PDFReader = ReaderPdfcpu
	}
	if c.HTMLMode == "" {
		c.HTMLMode = HTMLModeText
	}
	if c.MinChars <= 0 {
		c.MinChars = 200
	}
	if c.MinCharsPerPage <= 0 {
		c.MinCharsPerPage = 80
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.OCR == nil {
		c.OCR = ocr.NewRunner(ocr.NewExec(ocr.ExecConfig{}), ocr.Options{Logger: c.Logger})
	}
}

// Validate reports unknown reader or HTML mode names.
func (c Config) Validate() error {
	switch c.PDFReader {
	case "", ReaderPdfcpu, ReaderLedongthuc:
	default:
		return fmt.Errorf("docpipe: unknown pdf_reader %q", c.PDFReader)
	}
	switch c.HTMLMode {
	case "", HTMLModeText, HTMLModeMarkdown:
	default:
		return fmt.Errorf("docpipe: unknown html_mode %q", c.HTMLMode)
	}
	return nil
}
