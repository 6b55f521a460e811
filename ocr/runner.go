package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options configures a Runner.
type Options struct {
	// Languages is the per-page fallback chain, tried in order
	// (default: spa, eng). The first language producing text wins.
	Languages []string `json:"languages" yaml:"languages"`

	// DPI is the rasterization resolution (default: 300).
	DPI int `json:"dpi" yaml:"dpi"`

	// PSM is the tesseract page segmentation mode (default: 6, single block).
	PSM int `json:"psm" yaml:"psm"`

	// ScratchDir is the parent of per-run scratch directories
	// (default: os.TempDir()).
	ScratchDir string `json:"scratch_dir" yaml:"scratch_dir"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (o *Options) defaults() {
	if len(o.Languages) == 0 {
		o.Languages = []string{"spa", "eng"}
	}
	if o.DPI <= 0 {
		o.DPI = 300
	}
	if o.PSM <= 0 {
		o.PSM = 6
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Result is the outcome of one OCR pass over a PDF.
type Result struct {
	Text     string   `json:"text"`
	Language string   `json:"language,omitempty"` // last language that produced text
	Pages    int      `json:"pages"`              // rasterized page count
	Notes    []string `json:"notes,omitempty"`
}

func (r *Result) note(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// Runner performs OCR over whole PDFs with an Engine.
// A Runner holds no per-document state and is safe for concurrent use.
type Runner struct {
	engine Engine
	opts   Options
	logger *slog.Logger
}

// NewRunner creates a Runner on top of engine.
func NewRunner(engine Engine, opts Options) *Runner {
	opts.defaults()
	return &Runner{
		engine: engine,
		opts:   opts,
		logger: opts.Logger,
	}
}

// Languages returns the configured fallback chain.
func (r *Runner) Languages() []string {
	return append([]string(nil), r.opts.Languages...)
}

// Run rasterizes pdf and recognizes every page in order. It never returns an
// error and never panics: unavailable tooling, rasterizer failures, engine
// panics and per-page failures are recorded as notes and the text recovered
// so far is returned.
//
// The scratch directory holding the PDF copy and page images belongs to this
// call and is removed before Run returns, whatever the outcome.
func (r *Runner) Run(ctx context.Context, pdf []byte) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res.note("OCR interrumpido: panic: %v", p)
			r.logger.Error("ocr engine panic", "panic", p)
		}
	}()

	if err := r.engine.Available(ctx); err != nil {
		res.note("herramientas de OCR no disponibles: %v", err)
		return res
	}

	dir, err := os.MkdirTemp(r.opts.ScratchDir, "legaldoc-ocr-*")
	if err != nil {
		res.note("no se pudo crear el directorio temporal de OCR: %v", err)
		return res
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			r.logger.Warn("ocr scratch cleanup failed", "dir", dir, "error", err)
		}
	}()

	pdfPath := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(pdfPath, pdf, 0o600); err != nil {
		res.note("no se pudo escribir el PDF temporal: %v", err)
		return res
	}

	pages, err := r.engine.Rasterize(ctx, pdfPath, dir, r.opts.DPI)
	if err != nil {
		res.note("rasterización fallida: %v", err)
		return res
	}
	res.Pages = len(pages)
	if len(pages) == 0 {
		res.note("el rasterizador no produjo ninguna página")
		return res
	}

	texts := make([]string, 0, len(pages))
	for i, image := range pages {
		text, lang := r.recognizePage(ctx, i+1, image, &res)
		if text == "" {
			continue
		}
		texts = append(texts, text)
		res.Language = lang
	}

	res.Text = strings.TrimSpace(strings.Join(texts, "\n\n"))
	if res.Text == "" {
		res.note("OCR sin resultados en %d página(s)", len(pages))
	}
	r.logger.Debug("ocr run finished",
		"pages", len(pages), "pages_with_text", len(texts), "language", res.Language)
	return res
}

// recognizePage walks the language chain for one page and returns the first
// non-empty text with the language that produced it.
func (r *Runner) recognizePage(ctx context.Context, page int, image string, res *Result) (string, string) {
	for _, lang := range r.opts.Languages {
		text, err := r.recognize(ctx, image, lang)
		if err != nil {
			res.note("página %d (%s): %v", page, lang, err)
			r.logger.Warn("ocr page failed", "page", page, "lang", lang, "error", err)
			continue
		}
		if text != "" {
			return text, lang
		}
	}
	return "", ""
}

// recognize converts an engine panic into an error so that one bad page
// cannot abort the document.
func (r *Runner) recognize(ctx context.Context, image, lang string) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	text, err = r.engine.Recognize(ctx, image, lang, r.opts.PSM)
	return strings.TrimSpace(text), err
}
