// Package chunk segments normalized legal text into titled sections and
// splits each section into size-bounded chunks of whole paragraphs.
//
//	sections := chunk.SplitSections(text)
//	for _, s := range sections {
//		for _, c := range s.Chunks(chunk.Options{}) {
//			fmt.Println(s.Title, len(c))
//		}
//	}
package chunk

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// DefaultTitle is the title of the section that precedes the first heading.
const DefaultTitle = "Documento"

// maxCapsHeading is the longest all-caps line still treated as a heading.
const maxCapsHeading = 80

// Section is a titled span of document text delimited by headings.
// Body holds trimmed lines; "" marks a paragraph break and never repeats.
type Section struct {
	Title string   `json:"title"`
	Body  []string `json:"body"`
}

// headingPatterns are evaluated in order; first match wins.
var headingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(T[ÍI]TULO|CAP[ÍI]TULO|SECCI[ÓO]N|LIBRO)\b`),
	regexp.MustCompile(`(?i)^(ART[ÍI]CULO|ART\.)\s+\d+`),
	regexp.MustCompile(`(?i)^(DISPOSICIONES|CONSIDERANDO|RESUELVE|ANEXO)\b`),
}

// IsHeading reports whether a trimmed line opens a new section: a legal
// marker (título, capítulo, artículo N, resuelve, anexo...) or a short line
// whose letters are all upper-case.
func IsHeading(line string) bool {
	for _, re := range headingPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return utf8.RuneCountInString(line) <= maxCapsHeading && isUpper(line)
}

// isUpper requires at least one upper-case letter and no lower-case or
// title-case one, so numeric lines such as "1." are not headings. The
// ordinal indicators º and ª (Other_Lowercase) count as lower-case, which
// keeps "DECRETO Nº 123" in the body.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r), unicode.Is(unicode.Other_Lowercase, r), unicode.IsTitle(r):
			return false
		case unicode.IsUpper(r), unicode.Is(unicode.Other_Uppercase, r):
			cased = true
		}
	}
	return cased
}

// SplitSections splits text into sections at detected headings.
// Lines are split on any CR/LF combination, NFC-normalized and trimmed.
// A heading with no body before the next heading is superseded by it, and
// the trailing section is kept only when it has content.
func SplitSections(text string) []Section {
	var (
		sections []Section
		title    = DefaultTitle
		body     []string
	)

	for _, line := range splitLines(norm.NFC.String(text)) {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(body) > 0 && body[len(body)-1] != "" {
				body = append(body, "")
			}
			continue
		}
		if IsHeading(line) {
			if len(body) > 0 {
				sections = append(sections, Section{Title: title, Body: body})
			}
			title = line
			body = nil
			continue
		}
		body = append(body, line)
	}

	if len(body) > 0 {
		sections = append(sections, Section{Title: title, Body: body})
	}
	return sections
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// Paragraphs collapses consecutive body lines into paragraphs joined by
// single spaces; a blank line ends a paragraph.
func (s Section) Paragraphs() []string {
	var (
		paragraphs []string
		buf        []string
	)
	for _, line := range s.Body {
		if line == "" {
			if len(buf) > 0 {
				paragraphs = append(paragraphs, strings.Join(buf, " "))
				buf = nil
			}
			continue
		}
		buf = append(buf, line)
	}
	if len(buf) > 0 {
		paragraphs = append(paragraphs, strings.Join(buf, " "))
	}
	return paragraphs
}
