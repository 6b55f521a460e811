package markdown

import (
	"strings"
	"testing"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/hazyhaar/legaldoc/chunk"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 9, 14, 5, 59, 0, time.FixedZone("CLT", -3*3600))
}

const twoArticles = "ARTÍCULO 1\nLas partes acuerdan.\n\nARTÍCULO 2\nEl plazo es de un año."

func TestBuild_Numbered(t *testing.T) {
	a := Assembler{Numbered: true, Now: fixedClock}
	res := a.Build(twoArticles, "contrato.pdf")

	want := strings.Join([]string{
		"# Documento jurídico convertido",
		"",
		"- Fuente: `contrato.pdf`",
		"- Fecha de conversión: 2026-03-09 17:05 UTC",
		"- Total de chunks: 2",
		"",
		"## Chunk 1",
		"",
		"**Sección:** ARTÍCULO 1",
		"",
		"Las partes acuerdan.",
		"",
		"---",
		"",
		"## Chunk 2",
		"",
		"**Sección:** ARTÍCULO 2",
		"",
		"El plazo es de un año.",
		"",
		"---",
	}, "\n")
	if res.Markdown != want {
		t.Fatalf("markdown =\n%s\nwant\n%s", res.Markdown, want)
	}
	if len(res.Chunks) != 2 || res.Chunks[1].Ordinal != 2 || res.Chunks[1].Section != "ARTÍCULO 2" {
		t.Errorf("chunks = %+v", res.Chunks)
	}
}

func TestBuild_Unnumbered(t *testing.T) {
	a := Assembler{Now: fixedClock}
	res := a.Build(twoArticles, "contrato.txt")

	if !strings.Contains(res.Markdown, "\n\nARTÍCULO 1\n\nLas partes acuerdan.\n\n---\n\nARTÍCULO 2\n\n") {
		t.Errorf("markdown = %q", res.Markdown)
	}
	if strings.Contains(res.Markdown, "## Chunk") || strings.Contains(res.Markdown, "**Sección:**") {
		t.Errorf("unnumbered output has numbered markup: %q", res.Markdown)
	}
	for _, c := range res.Chunks {
		if c.Ordinal != 0 {
			t.Errorf("unnumbered chunk has ordinal %d", c.Ordinal)
		}
	}
}

func TestBuild_NoChunks(t *testing.T) {
	// WHAT: Blank input yields a header-only document reporting zero chunks.
	// WHY: The trailing blank separator must be trimmed away.
	res := Assembler{Numbered: true, Now: fixedClock}.Build("  \n\n ", "vacio.txt")
	if !strings.HasSuffix(res.Markdown, "- Total de chunks: 0") {
		t.Errorf("markdown = %q", res.Markdown)
	}
	if len(res.Chunks) != 0 {
		t.Errorf("chunks = %d, want 0", len(res.Chunks))
	}
}

func TestBuild_DefaultTitle(t *testing.T) {
	res := Assembler{Numbered: true, Now: fixedClock}.Build("Texto sin encabezado.", "a.txt")
	if len(res.Chunks) != 1 || res.Chunks[0].Section != chunk.DefaultTitle {
		t.Fatalf("chunks = %+v", res.Chunks)
	}
	if !strings.Contains(res.Markdown, "**Sección:** Documento") {
		t.Errorf("markdown = %q", res.Markdown)
	}
}

func TestBuild_ChunkStructure(t *testing.T) {
	// WHAT: The rendered document parses to one thematic break per chunk and
	// one level-2 heading per numbered chunk.
	// WHY: Downstream splitters rely on "---" and "## Chunk N" boundaries.
	var b strings.Builder
	b.WriteString("ARTÍCULO 5\n")
	for i := 0; i < 8; i++ {
		b.WriteString(strings.TrimSpace(strings.Repeat("palabra ", 50)))
		b.WriteString("\n\n")
	}
	a := Assembler{Numbered: true, Now: fixedClock, Chunk: chunk.Options{Mode: chunk.ModeWords, MaxWords: 350}}
	res := a.Build(b.String(), "ley.docx")
	if len(res.Chunks) != 2 {
		t.Fatalf("chunks = %d, want 2", len(res.Chunks))
	}

	source := []byte(res.Markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var breaks, h2 int
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.ThematicBreak:
			breaks++
		case *ast.Heading:
			if node.Level == 2 {
				h2++
			}
		}
		return ast.WalkContinue, nil
	})
	if breaks != 2 || h2 != 2 {
		t.Errorf("breaks = %d, h2 = %d, want 2 and 2", breaks, h2)
	}
}
