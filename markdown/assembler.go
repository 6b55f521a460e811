// Package markdown assembles segmented, chunked document text into the
// normalized Markdown deliverable and renders sanitized HTML previews of it.
//
// Output layout:
//
//	# Documento jurídico convertido
//
//	- Fuente: `contrato.pdf`
//	- Fecha de conversión: 2026-01-02 15:04 UTC
//	- Total de chunks: 2
//
//	## Chunk 1
//
//	**Sección:** ARTÍCULO 1
//
//	...
//
//	---
//
// Unnumbered output drops the "## Chunk N" and "**Sección:**" lines and
// starts each block with the bare section title.
package markdown

import (
	"fmt"
	"strings"
	"time"

	"github.com/hazyhaar/legaldoc/chunk"
)

// Title is the first line of every assembled document.
const Title = "# Documento jurídico convertido"

const timeLayout = "2006-01-02 15:04 UTC"

// Assembler turns extracted text into the final Markdown document.
// The zero value numbers nothing and uses the default chunk options.
type Assembler struct {
	Chunk    chunk.Options
	Numbered bool
	Now      func() time.Time // defaults to time.Now
}

// Result is the assembled document and the chunks it is made of.
type Result struct {
	Markdown string        `json:"markdown"`
	Chunks   []chunk.Chunk `json:"chunks"`
}

// Build segments text into sections, chunks every section and renders the
// header followed by one block per chunk.
func (a Assembler) Build(text, sourceName string) Result {
	chunks := a.Chunks(text)

	blocks := make([]string, 0, len(chunks))
	for _, c := range chunks {
		blocks = append(blocks, a.render(c))
	}

	out := a.header(sourceName, len(chunks)) + "\n\n" + strings.Join(blocks, "\n\n")
	return Result{
		Markdown: strings.TrimSpace(out),
		Chunks:   chunks,
	}
}

// Chunks returns the flat chunk list of text in section order. Ordinals are
// 1-based across the whole document when the assembler is numbered.
func (a Assembler) Chunks(text string) []chunk.Chunk {
	var out []chunk.Chunk
	for _, s := range chunk.SplitSections(text) {
		for _, body := range s.Chunks(a.Chunk) {
			c := chunk.Chunk{Section: s.Title, Text: body}
			if a.Numbered {
				c.Ordinal = len(out) + 1
			}
			out = append(out, c)
		}
	}
	return out
}

func (a Assembler) header(sourceName string, total int) string {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	return strings.Join([]string{
		Title,
		"",
		fmt.Sprintf("- Fuente: `%s`", sourceName),
		"- Fecha de conversión: " + now().UTC().Format(timeLayout),
		fmt.Sprintf("- Total de chunks: %d", total),
	}, "\n")
}

func (a Assembler) render(c chunk.Chunk) string {
	if a.Numbered {
		return strings.Join([]string{
			fmt.Sprintf("## Chunk %d", c.Ordinal),
			"",
			"**Sección:** " + c.Section,
			"",
			c.Text,
			"",
			"---",
		}, "\n")
	}
	return c.Section + "\n\n" + c.Text + "\n\n---"
}
