package docpipe

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ExtractionQuality captures metrics about the native text layer of a PDF.
type ExtractionQuality struct {
	PageCount       int     `json:"page_count"`
	CharsPerPage    float64 `json:"chars_per_page"`
	PrintableRatio  float64 `json:"printable_ratio"`
	WordlikeRatio   float64 `json:"wordlike_ratio"`
	HasImageStreams bool    `json:"has_image_streams"`
	VisualRefCount  int     `json:"visual_ref_count"`
}

// measureQuality computes the metrics for text read from pageCount pages.
func measureQuality(text string, pageCount int, hasImages bool) *ExtractionQuality {
	q := &ExtractionQuality{
		PageCount:       pageCount,
		PrintableRatio:  computePrintableRatio(text),
		WordlikeRatio:   computeWordlikeRatio(text),
		HasImageStreams: hasImages,
		VisualRefCount:  countVisualRefs(text),
	}
	if pageCount > 0 {
		q.CharsPerPage = float64(utf8.RuneCountInString(text)) / float64(pageCount)
	}
	return q
}

// NeedsOCR reports an image-heavy PDF with almost no text, or a text layer
// that is mostly garbage.
func (q *ExtractionQuality) NeedsOCR() bool {
	return (q.CharsPerPage < 50 && q.HasImageStreams) || q.PrintableRatio < 0.85
}

// HasVisualGap reports text that refers to figures or tables in a PDF that
// carries images.
func (q *ExtractionQuality) HasVisualGap() bool {
	return q.VisualRefCount > 0 && q.HasImageStreams
}

// computePrintableRatio returns the ratio of printable characters in text.
// Excludes PUA U+E000-U+F8FF, control chars < U+0020 (except \n\r\t), U+FFFD.
func computePrintableRatio(text string) float64 {
	if len(text) == 0 {
		return 1.0
	}
	total := 0
	printable := 0
	for _, r := range text {
		total++
		if isGarbageRune(r) {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(printable) / float64(total)
}

func isGarbageRune(r rune) bool {
	// Private Use Area
	if r >= 0xE000 && r <= 0xF8FF {
		return true
	}
	// Replacement character
	if r == 0xFFFD {
		return true
	}
	// Control chars except whitespace
	if r < 0x0020 && r != '\n' && r != '\r' && r != '\t' {
		return true
	}
	return false
}

// computeWordlikeRatio returns the ratio of word-like tokens (length 2-15) to total tokens.
func computeWordlikeRatio(text string) float64 {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	wordlike := 0
	for _, f := range fields {
		n := len([]rune(f))
		if n >= 2 && n <= 15 {
			wordlike++
		}
	}
	return float64(wordlike) / float64(len(fields))
}

var visualRefPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(v[ée]ase|ver|cf\.?|see)\s+(la\s+|el\s+)?(figura|fig\.?|tabla|cuadro|gr[áa]fico|diagrama|esquema|imagen|ilustraci[óo]n|figure|table)\s*(n[.º°]\s*)?\d`),
	regexp.MustCompile(`(?i)\b(figura|fig\.|tabla|cuadro|gr[áa]fico|figure|table)\s+(n[.º°]\s*)?\d+`),
}

// countVisualRefs counts references to figures, tables, and diagrams in text.
func countVisualRefs(text string) int {
	count := 0
	for _, pat := range visualRefPatterns {
		matches := pat.FindAllString(text, -1)
		count += len(matches)
	}
	return count
}
