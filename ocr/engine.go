// Package ocr drives external OCR tooling for scanned or low-text PDFs.
//
// The pipeline never links an OCR engine in-process. An Engine rasterizes the
// PDF into page images and recognizes each image; the Exec implementation
// shells out to pdftoppm (Poppler) and tesseract. Runner orchestrates one OCR
// pass over a PDF: availability check, scratch directory, per-page language
// fallback chain and note accumulation.
//
// Usage:
//
//	runner := ocr.NewRunner(ocr.NewExec(ocr.ExecConfig{}), ocr.Options{})
//	res := runner.Run(ctx, pdfBytes)
//	fmt.Println(res.Text, res.Language, res.Notes)
package ocr

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks github.com/hazyhaar/legaldoc/ocr Engine

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by Engine.Available when the rasterizer or the
// OCR engine cannot be invoked. Runner folds it into a note; it is never
// surfaced to pipeline callers as an error.
var ErrUnavailable = errors.New("ocr: tooling unavailable")

// Engine is the capability the OCR orchestration depends on.
type Engine interface {
	// Available reports whether both the rasterizer and the OCR engine are
	// present and invocable. A nil error means both are usable.
	Available(ctx context.Context) error

	// Rasterize renders every page of the PDF at pdfPath into grayscale images
	// under outDir and returns their paths in page order.
	Rasterize(ctx context.Context, pdfPath, outDir string, dpi int) ([]string, error)

	// Recognize runs OCR on one page image with the given language code and
	// page segmentation mode and returns the recognized text.
	Recognize(ctx context.Context, imagePath, lang string, psm int) (string, error)
}
