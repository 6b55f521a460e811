package docpipe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/hazyhaar/legaldoc/ocr"
	"github.com/hazyhaar/legaldoc/ocr/mocks"
)

// stubOCR returns a fixed result and counts its calls.
type stubOCR struct {
	result ocr.Result
	calls  int
}

func (s *stubOCR) Run(_ context.Context, _ []byte) ocr.Result {
	s.calls++
	return s.result
}

// fakeReader returns a fixed native text layer.
type fakeReader struct {
	nt  *NativeText
	err error
}

func (f fakeReader) Read([]byte) (*NativeText, error) { return f.nt, f.err }

func pdfPipeline(cfg Config, reader NativeReader) *Pipeline {
	p := newTestPipeline(cfg)
	p.reader = reader
	return p
}

func hasNote(d Diagnostics, substr string) bool {
	for _, n := range d.Notes {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}

func TestShouldOCR(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		pages int
		want  bool
	}{
		{"empty", "", 3, true},
		{"70 per page", strings.Repeat("a", 700), 10, true},
		{"90 per page", strings.Repeat("a", 900), 10, false},
		{"exactly 80 per page", strings.Repeat("a", 800), 10, false},
		{"unknown pages short", strings.Repeat("a", 199), 0, true},
		{"unknown pages long", strings.Repeat("a", 200), 0, false},
		{"runes not bytes", strings.Repeat("ñ", 90), 1, false},
	}
	for _, tc := range cases {
		if got := ShouldOCR(tc.text, tc.pages); got != tc.want {
			t.Errorf("%s: ShouldOCR = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestShouldOCR_ConfiguredThresholds(t *testing.T) {
	pipe := pdfPipeline(Config{MinCharsPerPage: 5}, fakeReader{nt: &NativeText{Pages: []string{"Hola mundo"}}})
	stub := pipe.cfg.OCR.(*stubOCR)
	res, err := pipe.Extract(context.Background(), []byte("%PDF"), "a.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if stub.calls != 0 || res.Text != "Hola mundo" {
		t.Fatalf("calls = %d, text = %q", stub.calls, res.Text)
	}
}

func TestExtractPDF_NativeOnly(t *testing.T) {
	page := strings.Repeat("Texto nativo suficiente. ", 10)
	stub := &stubOCR{}
	pipe := pdfPipeline(Config{OCR: stub}, fakeReader{nt: &NativeText{Pages: []string{page, page}}})

	res, err := pipe.Extract(context.Background(), []byte("%PDF"), "ley.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if stub.calls != 0 {
		t.Errorf("OCR ran %d times, want 0", stub.calls)
	}
	d := res.Diagnostics
	if d.Parser != ParserNative || d.OCRUsed || d.OCRAttempted {
		t.Errorf("diagnostics = %+v", d)
	}
	if d.Quality == nil || d.Quality.PageCount != 2 {
		t.Errorf("quality = %+v", d.Quality)
	}
	if res.Format != FormatPDF {
		t.Errorf("format = %q", res.Format)
	}
}

func TestExtractPDF_OCRUnavailableKeepsNativeText(t *testing.T) {
	// WHAT: A 2-page PDF with 11 chars/page triggers OCR; with no OCR tooling
	// the native text is returned with ocrUsed=false and a note.
	// WHY: OCR unavailability never blocks a non-empty native result.
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	engine.EXPECT().Available(gomock.Any()).Return(fmt.Errorf("%w: tesseract not found", ocr.ErrUnavailable))

	runner := ocr.NewRunner(engine, ocr.Options{ScratchDir: t.TempDir()})
	pipe := pdfPipeline(Config{OCR: runner}, fakeReader{nt: &NativeText{Pages: []string{"Hola\n\nMundo", "Hola\n\nMundo"}}})

	res, err := pipe.Extract(context.Background(), []byte("%PDF"), "escaneado.pdf")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Text != "Hola\n\nMundo\n\nHola\n\nMundo" {
		t.Errorf("text = %q", res.Text)
	}
	d := res.Diagnostics
	if d.OCRUsed || d.Parser != ParserNative {
		t.Errorf("diagnostics = %+v", d)
	}
	if !hasNote(d, "no disponibles") {
		t.Errorf("notes = %v, want unavailable tooling note", d.Notes)
	}
}

func TestExtractPDF_OCRSupplement(t *testing.T) {
	stub := &stubOCR{result: ocr.Result{Text: "Texto escaneado", Language: "spa", Pages: 1}}
	pipe := pdfPipeline(Config{OCR: stub}, fakeReader{nt: &NativeText{Pages: []string{"Encabezado"}}})

	res, err := pipe.Extract(context.Background(), []byte("%PDF"), "a.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "Encabezado\n\nTexto escaneado" {
		t.Errorf("text = %q", res.Text)
	}
	d := res.Diagnostics
	if d.Parser != ParserNative || !d.OCRUsed || d.OCRLanguage != "spa" {
		t.Errorf("diagnostics = %+v", d)
	}
}

func TestExtractPDF_EmptyNativeUsesOCROnly(t *testing.T) {
	stub := &stubOCR{result: ocr.Result{Text: "Solo OCR", Language: "eng"}}
	pipe := pdfPipeline(Config{OCR: stub}, fakeReader{nt: &NativeText{Pages: []string{"", ""}, HasImages: true}})

	res, err := pipe.Extract(context.Background(), []byte("%PDF"), "a.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "Solo OCR" || !res.Diagnostics.OCRUsed {
		t.Errorf("result = %+v", res)
	}
}

func TestExtractPDF_EmptyNativeAndEmptyOCRFails(t *testing.T) {
	stub := &stubOCR{result: ocr.Result{Notes: []string{"OCR sin resultados en 2 página(s)"}}}
	pipe := pdfPipeline(Config{OCR: stub}, fakeReader{nt: &NativeText{Pages: []string{"", ""}}})

	_, err := pipe.Extract(context.Background(), []byte("%PDF"), "a.pdf")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("err = %v, want ErrExtractionFailed", err)
	}
	var ee *ExtractionError
	if !errors.As(err, &ee) || len(ee.Notes) == 0 {
		t.Errorf("expected notes on the extraction error, got %+v", ee)
	}
}

func TestExtractPDF_ReaderFailureGoesToOCR(t *testing.T) {
	// WHAT: A corrupt text layer is recognized by OCR directly.
	stub := &stubOCR{result: ocr.Result{Text: "Reconocido", Language: "spa"}}
	pipe := pdfPipeline(Config{OCR: stub}, fakeReader{err: errors.New("xref roto")})

	res, err := pipe.Extract(context.Background(), []byte("%PDF"), "a.pdf")
	if err != nil {
		t.Fatal(err)
	}
	d := res.Diagnostics
	if res.Text != "Reconocido" || d.Parser != ParserOCR || !d.OCRUsed || d.OCRLanguage != "spa" {
		t.Errorf("result = %+v", res)
	}
	if !hasNote(d, "xref roto") {
		t.Errorf("notes = %v, want reader error note", d.Notes)
	}
}

func TestExtractPDF_ReaderFailureAndNoOCRFails(t *testing.T) {
	pipe := pdfPipeline(Config{OCR: &stubOCR{}}, fakeReader{err: errors.New("xref roto")})

	_, err := pipe.Extract(context.Background(), []byte("%PDF"), "a.pdf")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("err = %v, want ErrExtractionFailed", err)
	}
	if !strings.Contains(err.Error(), "instale las herramientas de OCR") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestExtractPDF_OCRDisabled(t *testing.T) {
	stub := &stubOCR{result: ocr.Result{Text: "no debe usarse"}}
	pipe := pdfPipeline(Config{OCR: stub, DisableOCR: true}, fakeReader{nt: &NativeText{Pages: []string{"Poco"}}})

	res, err := pipe.Extract(context.Background(), []byte("%PDF"), "a.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if stub.calls != 0 {
		t.Errorf("OCR ran %d times with OCR disabled", stub.calls)
	}
	if res.Text != "Poco" || !hasNote(res.Diagnostics, "OCR deshabilitado") {
		t.Errorf("result = %+v", res)
	}
}

func TestExtractPDF_PageMarkers(t *testing.T) {
	page := strings.Repeat("Contenido de la página. ", 10)
	pipe := pdfPipeline(Config{PageMarkers: true}, fakeReader{nt: &NativeText{Pages: []string{page, page}}})

	res, err := pipe.Extract(context.Background(), []byte("%PDF"), "a.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(res.Text, "=== Página 1 ===\n\n") || !strings.Contains(res.Text, "=== Página 2 ===") {
		t.Errorf("text = %q", res.Text)
	}
}

func TestExtractPDF_ScratchCleanedThroughPipeline(t *testing.T) {
	// WHAT: A full OCR pass through the pipeline leaves no scratch files.
	// WHY: Rasterized pages must never leak past one extraction.
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	engine.EXPECT().Available(gomock.Any()).Return(nil)
	engine.EXPECT().Rasterize(gomock.Any(), gomock.Any(), gomock.Any(), 300).
		DoAndReturn(func(_ context.Context, _, outDir string, _ int) ([]string, error) {
			p := outDir + "/page-1.png"
			return []string{p}, os.WriteFile(p, []byte("png"), 0o600)
		})
	engine.EXPECT().Recognize(gomock.Any(), gomock.Any(), "spa", 6).Return("Texto OCR", nil)

	scratch := t.TempDir()
	runner := ocr.NewRunner(engine, ocr.Options{ScratchDir: scratch})
	pipe := pdfPipeline(Config{OCR: runner}, fakeReader{nt: &NativeText{Pages: []string{""}}})

	res, err := pipe.Extract(context.Background(), []byte("%PDF"), "a.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "Texto OCR" || res.Diagnostics.OCRLanguage != "spa" {
		t.Errorf("result = %+v", res)
	}
	entries, err := os.ReadDir(scratch)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("scratch not cleaned: %d entries", len(entries))
	}
}

func TestExtract_DiagnosticsAreCopies(t *testing.T) {
	// WHAT: Callers receive diagnostics that share nothing with the pipeline.
	stub := &stubOCR{result: ocr.Result{Notes: []string{"nota"}}}
	pipe := pdfPipeline(Config{OCR: stub}, fakeReader{nt: &NativeText{Pages: []string{"Poco"}}})

	a, err := pipe.Extract(context.Background(), []byte("%PDF"), "a.pdf")
	if err != nil {
		t.Fatal(err)
	}
	b, err := pipe.Extract(context.Background(), []byte("%PDF"), "a.pdf")
	if err != nil {
		t.Fatal(err)
	}
	a.Diagnostics.Notes[0] = "cambiada"
	if b.Diagnostics.Notes[0] == "cambiada" {
		t.Fatal("diagnostics notes shared between results")
	}
}
