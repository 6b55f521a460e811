// Package docpipe turns document bytes into plain text with extraction
// diagnostics.
//
// Supported formats:
//   - .txt, .md   : decoded as UTF-8, invalid bytes replaced
//   - .html, .htm : visible text (x/net/html + goquery) or Markdown
//   - .docx       : Microsoft Word (archive/zip → word/document.xml)
//   - .pdf        : native text layer (pdfcpu or ledongthuc/pdf) with OCR fallback
//
// The format is chosen by filename suffix only. An unknown suffix is an
// error, never a plain-text fallback.
//
// Usage:
//
//	pipe := docpipe.New(docpipe.Config{})
//	res, err := pipe.Extract(ctx, data, "contrato.pdf")
//	fmt.Println(res.Diagnostics.Parser, len(res.Text))
package docpipe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Pipeline is the document extraction engine.
// A Pipeline is safe for concurrent use; each Extract call owns its state.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
	reader NativeReader
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{
		cfg:    cfg,
		logger: cfg.Logger,
		reader: newNativeReader(cfg.PDFReader),
	}
}

var suffixes = map[string]Format{
	".pdf":  FormatPDF,
	".docx": FormatDocx,
	".txt":  FormatTXT,
	".md":   FormatMD,
	".html": FormatHTML,
	".htm":  FormatHTML,
}

// SupportedSuffixes returns the accepted filename suffixes in display order.
func SupportedSuffixes() []string {
	return []string{".pdf", ".docx", ".txt", ".md", ".html", ".htm"}
}

// SupportedFormats returns all supported formats.
func SupportedFormats() []Format {
	return []Format{FormatPDF, FormatDocx, FormatTXT, FormatMD, FormatHTML}
}

// Detect returns the document format for a filename, based on its final
// suffix, case-insensitive.
func Detect(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if f, ok := suffixes[ext]; ok {
		return f, nil
	}
	return "", &FormatError{Filename: filename, Ext: ext}
}

// Extract converts document bytes to text. filename is only used to pick
// the format.
func (p *Pipeline) Extract(ctx context.Context, data []byte, filename string) (*Result, error) {
	format, err := Detect(filename)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > p.cfg.MaxFileSize {
		return nil, extractionFailed(format, nil,
			"Archivo demasiado grande: %d bytes (máximo %d)", len(data), p.cfg.MaxFileSize)
	}

	p.logger.Debug("extracting document", "filename", filename, "format", format, "bytes", len(data))

	var res *Result
	switch format {
	case FormatTXT, FormatMD:
		res = extractPlain(data)
	case FormatHTML:
		res, err = p.extractHTML(data)
	case FormatDocx:
		res, err = extractDocx(data)
	case FormatPDF:
		res, err = p.extractPDF(ctx, data)
	default:
		return nil, fmt.Errorf("docpipe: no extractor for format %s", format)
	}
	if err != nil {
		p.logger.Debug("extraction failed", "filename", filename, "format", format, "error", err)
		return nil, err
	}

	res.Format = format
	res.Diagnostics = res.Diagnostics.clone()
	return res, nil
}

// ExtractFile reads path and extracts it. The size limit is checked before
// the file is read.
func (p *Pipeline) ExtractFile(ctx context.Context, path string) (*Result, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > p.cfg.MaxFileSize {
		return nil, extractionFailed(format, nil,
			"Archivo demasiado grande: %d bytes (máximo %d)", info.Size(), p.cfg.MaxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return p.Extract(ctx, data, filepath.Base(path))
}
