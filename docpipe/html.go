package docpipe

import (
	"bytes"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var hiddenStylePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)display\s*:\s*none`),
	regexp.MustCompile(`(?i)visibility\s*:\s*hidden`),
	regexp.MustCompile(`(?i)font-size\s*:\s*0(?:[^1-9.]|$)`),
	regexp.MustCompile(`(?i)opacity\s*:\s*0(?:[^.]|$)`),
	regexp.MustCompile(`(?i)position\s*:\s*absolute[^;]*-\d{4,}`),
}

func hasHiddenStyle(s *goquery.Selection) bool {
	style, ok := s.Attr("style")
	if !ok {
		return false
	}
	for _, pat := range hiddenStylePatterns {
		if pat.MatchString(style) {
			return true
		}
	}
	return false
}

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// extractHTML parses the DOM, drops script, style and hidden elements, and
// returns either the visible text (one trimmed line per paragraph, blank
// lines between) or its Markdown rendering.
func (p *Pipeline) extractHTML(data []byte) (*Result, error) {
	if !utf8.Valid(data) {
		return nil, extractionFailed(FormatHTML, nil, "El HTML no es texto UTF-8 válido")
	}
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, extractionFailed(FormatHTML, err, "No se pudo analizar el HTML")
	}

	doc := goquery.NewDocumentFromNode(root)
	doc.Find("script, style, noscript, template").Remove()
	doc.Find("[style]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return hasHiddenStyle(s)
	}).Remove()

	res := &Result{Diagnostics: Diagnostics{Parser: ParserPlain}}
	if p.cfg.HTMLMode == HTMLModeMarkdown {
		md, err := mdConverter.ConvertNode(root)
		if err != nil {
			return nil, extractionFailed(FormatHTML, err, "No se pudo convertir el HTML a Markdown")
		}
		res.Text = strings.TrimSpace(string(md))
		return res, nil
	}

	var sb strings.Builder
	collectText(doc.Selection, &sb)
	res.Text = joinNonBlankLines(sb.String())
	return res, nil
}

// collectText writes every text node under sel, one per line.
func collectText(sel *goquery.Selection, sb *strings.Builder) {
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			sb.WriteByte('\n')
		case html.ElementNode, html.DocumentNode:
			collectText(s, sb)
		}
	})
}

// joinNonBlankLines trims every line, drops the blank ones and joins the
// rest with blank lines.
func joinNonBlankLines(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n\n")
}
