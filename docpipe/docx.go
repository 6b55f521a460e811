package docpipe

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxXMLDepth bounds element nesting in word/document.xml.
const maxXMLDepth = 256

// maxDocumentXML bounds the uncompressed size of word/document.xml.
const maxDocumentXML = 256 << 20

// extractDocx reads word/document.xml from the zip container and returns the
// non-blank paragraphs joined with blank lines.
func extractDocx(data []byte) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, extractionFailed(FormatDocx, err, "El archivo DOCX no es un contenedor válido")
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, extractionFailed(FormatDocx, nil, "El archivo DOCX no contiene word/document.xml")
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, extractionFailed(FormatDocx, err, "No se pudo abrir word/document.xml")
	}
	defer rc.Close()

	paragraphs, err := docxParagraphs(io.LimitReader(rc, maxDocumentXML))
	if err != nil {
		return nil, extractionFailed(FormatDocx, err, "El XML del documento DOCX está dañado")
	}

	return &Result{
		Text:        strings.TrimSpace(strings.Join(paragraphs, "\n\n")),
		Diagnostics: Diagnostics{Parser: ParserPlain},
	}, nil
}

// docxParagraphs collects the text runs of every w:p, in document order.
// w:tab becomes a tab and w:br/w:cr a newline; tab stops declared in
// paragraph properties are ignored. A paragraph nested in a text box
// (w:txbxContent) is emitted when it closes and the enclosing paragraph
// resumes after it. mc:Fallback repeats the text box of mc:Choice and is
// skipped.
func docxParagraphs(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)
	var (
		paragraphs []string
		open       []*strings.Builder // innermost last
		inText     bool
		inProps    bool
		depth      int
		skipDepth  int // depth of the mc:Fallback being skipped, 0 if none
	)

	current := func() *strings.Builder {
		if len(open) == 0 {
			return nil
		}
		return open[len(open)-1]
	}

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth > maxXMLDepth {
				return nil, fmt.Errorf("xml nesting depth exceeds %d", maxXMLDepth)
			}
			if skipDepth > 0 {
				continue
			}
			switch t.Name.Local {
			case "Fallback":
				skipDepth = depth
			case "p":
				open = append(open, &strings.Builder{})
			case "pPr":
				inProps = true
			case "t":
				inText = current() != nil
			case "tab":
				if b := current(); b != nil && !inProps {
					b.WriteByte('\t')
				}
			case "br", "cr":
				if b := current(); b != nil {
					b.WriteByte('\n')
				}
			}

		case xml.CharData:
			if inText && skipDepth == 0 {
				current().Write(t)
			}

		case xml.EndElement:
			depth--
			if skipDepth > 0 {
				if depth < skipDepth {
					skipDepth = 0
				}
				continue
			}
			switch t.Name.Local {
			case "pPr":
				inProps = false
			case "t":
				inText = false
			case "p":
				if b := current(); b != nil {
					open = open[:len(open)-1]
					if text := strings.TrimSpace(b.String()); text != "" {
						paragraphs = append(paragraphs, text)
					}
				}
			}
		}
	}
	return paragraphs, nil
}
