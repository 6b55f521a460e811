package docpipe

import "fmt"

// Format identifies a document type.
type Format string

const (
	FormatTXT  Format = "txt"
	FormatMD   Format = "md"
	FormatHTML Format = "html"
	FormatDocx Format = "docx"
	FormatPDF  Format = "pdf"
)

// Parser identifies which extraction path produced the text.
type Parser string

const (
	ParserNative Parser = "native" // document text layer
	ParserOCR    Parser = "ocr"    // rasterized pages only
	ParserPlain  Parser = "plain"  // decoded as text
)

// Diagnostics describes how a document was extracted.
// Notes are appended while one extraction runs and never change afterwards.
type Diagnostics struct {
	Parser       Parser             `json:"parser"`
	OCRUsed      bool               `json:"ocr_used"`
	OCRAttempted bool               `json:"ocr_attempted,omitempty"`
	OCRLanguage  string             `json:"ocr_language,omitempty"`
	Notes        []string           `json:"notes,omitempty"`
	Quality      *ExtractionQuality `json:"quality,omitempty"` // PDF only
}

// Note appends a formatted note.
func (d *Diagnostics) Note(format string, args ...any) {
	d.Notes = append(d.Notes, fmt.Sprintf(format, args...))
}

// clone returns a copy that shares no slices or pointers with d.
func (d Diagnostics) clone() Diagnostics {
	if d.Notes != nil {
		d.Notes = append([]string(nil), d.Notes...)
	}
	if d.Quality != nil {
		q := *d.Quality
		d.Quality = &q
	}
	return d
}

// Result is the outcome of a successful extraction.
type Result struct {
	Format      Format      `json:"format"`
	Text        string      `json:"text"`
	Diagnostics Diagnostics `json:"diagnostics"`
}
