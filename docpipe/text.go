package docpipe

import "strings"

// extractPlain decodes txt and md documents. Invalid UTF-8 sequences become
// U+FFFD; nothing else is changed.
func extractPlain(data []byte) *Result {
	return &Result{
		Text:        strings.ToValidUTF8(string(data), "\uFFFD"),
		Diagnostics: Diagnostics{Parser: ParserPlain},
	}
}
