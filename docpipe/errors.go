package docpipe

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat is returned when a filename has no supported suffix.
var ErrUnsupportedFormat = errors.New("docpipe: unsupported format")

// ErrExtractionFailed is returned when a document of a supported format
// yields no usable text (malformed container, total OCR failure...).
var ErrExtractionFailed = errors.New("docpipe: extraction failed")

// FormatError reports an unsupported filename suffix.
// It matches ErrUnsupportedFormat with errors.Is.
type FormatError struct {
	Filename string
	Ext      string
}

func (e *FormatError) Error() string {
	ext := e.Ext
	if ext == "" {
		ext = "(ninguna)"
	}
	return fmt.Sprintf("Extensión no soportada: %s. Soportadas: %s", ext, strings.Join(SupportedSuffixes(), ", "))
}

func (e *FormatError) Unwrap() error { return ErrUnsupportedFormat }

// ExtractionError reports a document that could not be turned into text.
// Message is meant for the end user; Cause, when set, is the underlying
// reader error. It matches ErrExtractionFailed with errors.Is.
type ExtractionError struct {
	Format  Format
	Message string
	Cause   error
	Notes   []string // diagnostics gathered before the failure
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s: %v)", e.Message, e.Format, e.Cause)
	}
	return e.Message
}

func (e *ExtractionError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrExtractionFailed, e.Cause}
	}
	return []error{ErrExtractionFailed}
}

func extractionFailed(format Format, cause error, msg string, args ...any) *ExtractionError {
	return &ExtractionError{Format: format, Message: fmt.Sprintf(msg, args...), Cause: cause}
}
