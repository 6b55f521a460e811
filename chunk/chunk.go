package chunk

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Mode selects the unit chunks are bounded in.
type Mode string

const (
	// ModeChars bounds chunks in characters and seeds each new chunk with the
	// tail of the previous one.
	ModeChars Mode = "chars"
	// ModeWords bounds chunks in whitespace-delimited words, without overlap.
	ModeWords Mode = "words"
)

// Defaults.
const (
	DefaultMaxChars     = 3800
	DefaultOverlapChars = 400
	DefaultMaxWords     = 350
)

// paragraphSep joins paragraphs inside a chunk.
const paragraphSep = "\n\n"

// Options configures the chunker. Zero values take the defaults.
type Options struct {
	Mode         Mode `json:"mode" yaml:"mode"`
	MaxChars     int  `json:"max_chars" yaml:"max_chars"`
	OverlapChars int  `json:"overlap_chars" yaml:"overlap_chars"`
	MaxWords     int  `json:"max_words" yaml:"max_words"`
}

// WithDefaults returns o with zero fields replaced by defaults. A negative
// OverlapChars means "no overlap" and is normalized to 0.
func (o Options) WithDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeChars
	}
	if o.MaxChars == 0 {
		o.MaxChars = DefaultMaxChars
	}
	if o.OverlapChars == 0 {
		o.OverlapChars = DefaultOverlapChars
	}
	if o.OverlapChars < 0 {
		o.OverlapChars = 0
	}
	if o.MaxWords == 0 {
		o.MaxWords = DefaultMaxWords
	}
	return o
}

// Validate checks the options after defaults are applied.
func (o Options) Validate() error {
	o = o.WithDefaults()
	switch o.Mode {
	case ModeChars:
		if o.MaxChars < 0 {
			return fmt.Errorf("chunk: max_chars must be > 0")
		}
		if o.OverlapChars >= o.MaxChars {
			return fmt.Errorf("chunk: overlap_chars (%d) must be smaller than max_chars (%d)", o.OverlapChars, o.MaxChars)
		}
	case ModeWords:
		if o.MaxWords < 0 {
			return fmt.Errorf("chunk: max_words must be > 0")
		}
	default:
		return fmt.Errorf("chunk: unknown mode %q (use %s or %s)", o.Mode, ModeChars, ModeWords)
	}
	return nil
}

// Chunk is one bounded span of a section's text.
type Chunk struct {
	Section string `json:"section"`
	Ordinal int    `json:"ordinal,omitempty"` // 1-based global position, 0 when unnumbered
	Text    string `json:"text"`
}

// Chunks splits the section into chunks of whole paragraphs in input order.
// A paragraph longer than the maximum on its own is emitted whole.
func (s Section) Chunks(opts Options) []string {
	opts = opts.WithDefaults()
	paragraphs := s.Paragraphs()
	if opts.Mode == ModeWords {
		return chunkWords(paragraphs, opts.MaxWords)
	}
	return chunkChars(paragraphs, opts.MaxChars, opts.OverlapChars)
}

// chunkChars accumulates paragraphs while the joined length stays within
// maxChars. Closing a chunk seeds the next with its trailing overlap runes.
func chunkChars(paragraphs []string, maxChars, overlap int) []string {
	var (
		chunks  []string
		current []string
		size    int
	)
	for _, p := range paragraphs {
		plen := utf8.RuneCountInString(p)
		if len(current) > 0 && size+len(paragraphSep)+plen > maxChars {
			text := strings.TrimSpace(strings.Join(current, paragraphSep))
			chunks = append(chunks, text)

			current = current[:0:0]
			size = 0
			if seed := strings.TrimSpace(tailRunes(text, overlap)); seed != "" {
				current = append(current, seed)
				size = utf8.RuneCountInString(seed)
			}
		}
		if len(current) > 0 {
			size += len(paragraphSep)
		}
		current = append(current, p)
		size += plen
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.TrimSpace(strings.Join(current, paragraphSep)))
	}
	return chunks
}

// chunkWords accumulates paragraphs while the word count stays within
// maxWords. Chunks do not overlap.
func chunkWords(paragraphs []string, maxWords int) []string {
	var (
		chunks  []string
		current []string
		words   int
	)
	for _, p := range paragraphs {
		pw := CountWords(p)
		if len(current) > 0 && words+pw > maxWords {
			chunks = append(chunks, strings.TrimSpace(strings.Join(current, paragraphSep)))
			current = nil
			words = 0
		}
		current = append(current, p)
		words += pw
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.TrimSpace(strings.Join(current, paragraphSep)))
	}
	return chunks
}

// CountWords returns the number of whitespace-delimited tokens in s.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// CountChars returns the number of Unicode code points in s.
func CountChars(s string) int {
	return utf8.RuneCountInString(s)
}

// tailRunes returns the last n runes of s.
func tailRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := utf8.RuneCountInString(s)
	if count <= n {
		return s
	}
	skip := count - n
	for i := range s {
		if skip == 0 {
			return s[i:]
		}
		skip--
	}
	return ""
}
