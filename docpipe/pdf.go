package docpipe

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
)

// NativeText is the text layer of a PDF, one entry per page.
type NativeText struct {
	Pages     []string
	HasImages bool
}

// Text joins the non-empty pages with blank lines. With markers, every page
// is introduced by "=== Página N ===" and a blank line, empty pages included.
func (n *NativeText) Text(markers bool) string {
	var parts []string
	for i, page := range n.Pages {
		page = strings.TrimSpace(page)
		if markers {
			parts = append(parts, fmt.Sprintf("=== Página %d ===\n\n%s", i+1, page))
			continue
		}
		if page != "" {
			parts = append(parts, page)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

// NativeReader reads the embedded text layer of a PDF without rasterizing.
type NativeReader interface {
	Read(data []byte) (*NativeText, error)
}

func newNativeReader(name string) NativeReader {
	if name == ReaderLedongthuc {
		return ledongthucReader{}
	}
	return pdfcpuReader{}
}

// --- pdfcpu ---

type pdfcpuReader struct{}

// Read parses the PDF with pdfcpu and decodes the text operators of every
// page content stream.
func (pdfcpuReader) Read(data []byte) (nt *NativeText, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("pdfcpu panic: %v", p)
		}
	}()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	nt = &NativeText{
		Pages:     make([]string, 0, ctx.PageCount),
		HasImages: detectImageStreams(ctx),
	}
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		nt.Pages = append(nt.Pages, extractPageText(ctx, pageNr))
	}
	return nt, nil
}

// extractPageText extracts text from a single PDF page via its content stream.
func extractPageText(ctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil || r == nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return extractTextFromStream(data)
}

// detectImageStreams checks if the PDF contains image XObjects.
func detectImageStreams(ctx *model.Context) bool {
	if ctx.Optimize != nil {
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
				return true
			}
		}
	}
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}
	return false
}

// tjSpaceThreshold is the TJ adjustment, in thousandths of an em, below
// which a kerning gap reads as a word break.
const tjSpaceThreshold = -200

// extractTextFromStream interprets the text-showing operators of a content
// stream. Vertical moves (T*, ', ", non-zero Td/TD offsets, a new Tm line)
// and ET end a line.
func extractTextFromStream(data []byte) string {
	var sb strings.Builder
	lx := contentLexer{data: data}
	var operands []contentToken
	var lastTmY float64
	haveTm := false

	for {
		tok := lx.next()
		switch tok.kind {
		case tokEOF:
			return cleanPDFText(sb.String())
		case tokOperator:
		default:
			operands = append(operands, tok)
			continue
		}

		switch tok.text {
		case "Tj":
			writeLastString(&sb, operands)

		case "TJ":
			if n := len(operands); n > 0 && operands[n-1].kind == tokArray {
				for _, item := range operands[n-1].items {
					if item.kind == tokString {
						sb.WriteString(decodePDFTextString(item.str))
					} else if f, ok := item.number(); ok && f < tjSpaceThreshold {
						writeSpace(&sb)
					}
				}
			}

		case "'", `"`:
			sb.WriteByte('\n')
			writeLastString(&sb, operands)

		case "Td", "TD":
			if ty, ok := operandNumber(operands, 1, 2); ok && ty != 0 {
				sb.WriteByte('\n')
			} else if sb.Len() > 0 {
				writeSpace(&sb)
			}

		case "Tm":
			if y, ok := operandNumber(operands, 5, 6); ok {
				if haveTm && y != lastTmY {
					sb.WriteByte('\n')
				} else if sb.Len() > 0 {
					writeSpace(&sb)
				}
				lastTmY, haveTm = y, true
			}

		case "T*", "ET":
			sb.WriteByte('\n')

		case "ID":
			lx.skipInlineImage()
		}
		operands = operands[:0]
	}
}

func writeLastString(sb *strings.Builder, operands []contentToken) {
	if n := len(operands); n > 0 && operands[n-1].kind == tokString {
		sb.WriteString(decodePDFTextString(operands[n-1].str))
	}
}

func writeSpace(sb *strings.Builder) {
	s := sb.String()
	if s != "" && !strings.HasSuffix(s, " ") && !strings.HasSuffix(s, "\n") {
		sb.WriteByte(' ')
	}
}

// operandNumber returns operand i of an operator that takes want operands.
func operandNumber(operands []contentToken, i, want int) (float64, bool) {
	if len(operands) < want {
		return 0, false
	}
	return operands[len(operands)-want+i].number()
}

// decodePDFString handles PDF literal string escapes.
func decodePDFString(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			out = append(out, raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'b', 'f':
			// dropped
		case '\\', '(', ')':
			out = append(out, raw[i])
		default:
			// Octal escape (e.g. \040 for space).
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for k := 0; k < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; k++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				out = append(out, byte(val))
			} else {
				out = append(out, raw[i])
			}
		}
	}
	return out
}

// decodePDFTextString decodes a string operand: UTF-16BE when it starts with
// a byte-order mark, Windows-1252 otherwise.
func decodePDFTextString(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		s, err := xunicode.UTF16(xunicode.BigEndian, xunicode.ExpectBOM).NewDecoder().Bytes(b)
		if err == nil {
			return string(s)
		}
	}
	s, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD")
	}
	return string(s)
}

// cleanPDFText collapses horizontal whitespace, drops non-printable runes and
// keeps line breaks.
func cleanPDFText(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		var sb strings.Builder
		prevSpace := false
		for _, r := range line {
			switch {
			case unicode.IsSpace(r):
				if !prevSpace && sb.Len() > 0 {
					sb.WriteByte(' ')
					prevSpace = true
				}
			case unicode.IsPrint(r):
				sb.WriteRune(r)
				prevSpace = false
			}
		}
		out = append(out, strings.TrimSpace(sb.String()))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// --- ledongthuc/pdf ---

type ledongthucReader struct{}

// Read extracts the plain text of every page with ledongthuc/pdf.
func (ledongthucReader) Read(data []byte) (nt *NativeText, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("pdf reader panic: %v", p)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	nt = &NativeText{Pages: make([]string, 0, r.NumPage())}
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			nt.Pages = append(nt.Pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			nt.Pages = append(nt.Pages, "")
			continue
		}
		nt.Pages = append(nt.Pages, strings.TrimSpace(text))
	}
	return nt, nil
}
