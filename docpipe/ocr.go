package docpipe

import (
	"context"
	"unicode/utf8"
)

// Default OCR decision thresholds.
const (
	DefaultMinChars        = 200
	DefaultMinCharsPerPage = 80
)

// ocrDirectFailure is returned when neither the text layer nor OCR yields text.
const ocrDirectFailure = "No se pudo extraer texto del PDF. Verifique el archivo o instale las herramientas de OCR (tesseract, pdftoppm)."

// ShouldOCR reports whether native text is too thin to trust, with the
// default thresholds. Lengths are counted in Unicode code points.
func ShouldOCR(extracted string, pageCount int) bool {
	return shouldOCR(extracted, pageCount, DefaultMinChars, DefaultMinCharsPerPage)
}

func shouldOCR(extracted string, pageCount, minChars, minCharsPerPage int) bool {
	if extracted == "" {
		return true
	}
	n := utf8.RuneCountInString(extracted)
	if pageCount <= 0 {
		return n < minChars
	}
	return float64(n)/float64(pageCount) < float64(minCharsPerPage)
}

// extractPDF reads the native text layer and falls back to OCR when the
// reader fails or the text is too thin:
//
//	native error           → OCR only; empty OCR is an extraction failure
//	enough native text     → native text
//	thin native text       → native text + OCR text when OCR yields any
//	thin text, empty OCR   → native text with a note; fails only if both are empty
func (p *Pipeline) extractPDF(ctx context.Context, data []byte) (*Result, error) {
	res := &Result{Diagnostics: Diagnostics{Parser: ParserNative}}
	diag := &res.Diagnostics

	native, err := p.reader.Read(data)
	if err != nil {
		p.logger.Warn("native pdf read failed, trying OCR", "reader", p.cfg.PDFReader, "error", err)
		diag.Note("lectura nativa del PDF fallida (%s): %v", p.cfg.PDFReader, err)
		return p.ocrDirect(ctx, data, res)
	}

	plain := native.Text(false)
	pageCount := len(native.Pages)
	q := measureQuality(plain, pageCount, native.HasImages)
	diag.Quality = q
	if plain != "" && q.NeedsOCR() {
		diag.Note("calidad baja del texto nativo (imprimibles %.2f, %.0f caracteres/página)", q.PrintableRatio, q.CharsPerPage)
	}
	if q.HasVisualGap() {
		diag.Note("el texto remite a %d figura(s) o tabla(s) incluidas como imagen", q.VisualRefCount)
	}

	extracted := plain
	if p.cfg.PageMarkers {
		extracted = native.Text(true)
	}

	if !shouldOCR(plain, pageCount, p.cfg.MinChars, p.cfg.MinCharsPerPage) {
		res.Text = extracted
		return res, nil
	}

	p.logger.Debug("native text below OCR threshold",
		"chars", utf8.RuneCountInString(plain), "pages", pageCount)
	diag.Note("texto nativo insuficiente (%d caracteres, %d página(s)); se intentó OCR",
		utf8.RuneCountInString(plain), pageCount)
	return p.ocrSupplement(ctx, data, res, plain, extracted)
}

func (p *Pipeline) ocrSupplement(ctx context.Context, data []byte, res *Result, plain, extracted string) (*Result, error) {
	text, lang := p.runOCR(ctx, data, &res.Diagnostics)
	if text == "" {
		if plain == "" {
			return nil, ocrFailure(res)
		}
		res.Diagnostics.Note("OCR sin texto; se conserva el texto nativo")
		res.Text = extracted
		return res, nil
	}

	res.Diagnostics.OCRUsed = true
	res.Diagnostics.OCRLanguage = lang
	if plain == "" {
		res.Text = text
	} else {
		res.Text = extracted + "\n\n" + text
	}
	return res, nil
}

func (p *Pipeline) ocrDirect(ctx context.Context, data []byte, res *Result) (*Result, error) {
	text, lang := p.runOCR(ctx, data, &res.Diagnostics)
	if text == "" {
		return nil, ocrFailure(res)
	}
	res.Diagnostics.Parser = ParserOCR
	res.Diagnostics.OCRUsed = true
	res.Diagnostics.OCRLanguage = lang
	res.Text = text
	return res, nil
}

func ocrFailure(res *Result) *ExtractionError {
	e := extractionFailed(FormatPDF, nil, ocrDirectFailure)
	e.Notes = append([]string(nil), res.Diagnostics.Notes...)
	return e
}

// runOCR runs the configured OCR and folds its notes into diag. It never
// fails: missing tooling and page errors only leave notes.
func (p *Pipeline) runOCR(ctx context.Context, data []byte, diag *Diagnostics) (string, string) {
	if p.cfg.DisableOCR {
		diag.Note("OCR deshabilitado")
		return "", ""
	}
	diag.OCRAttempted = true
	out := p.cfg.OCR.Run(ctx, data)
	for _, n := range out.Notes {
		diag.Note("%s", n)
	}
	p.logger.Debug("ocr finished", "pages", out.Pages, "chars", utf8.RuneCountInString(out.Text), "language", out.Language)
	return out.Text, out.Language
}
