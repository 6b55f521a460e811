package markdown

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	renderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
	)

	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// previewPolicy allows user-generated-content markup only. Document text is
// untrusted: an HTML source converted in markdown mode can carry raw tags.
func previewPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowURLSchemes("http", "https", "mailto")
		p.RequireParseableURLs(true)
		policy = p
	})
	return policy
}

// Preview renders md to HTML and sanitizes the result.
func Preview(md string) ([]byte, error) {
	var buf bytes.Buffer
	if err := renderer.Convert([]byte(md), &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return previewPolicy().SanitizeBytes(buf.Bytes()), nil
}
