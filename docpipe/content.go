package docpipe

import (
	"bytes"
	"strconv"
)

// Token kinds of a page content stream.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokOperator
	tokNumber
	tokString
	tokArray
	tokOther // names, dictionaries, procedure braces
)

type contentToken struct {
	kind  tokenKind
	text  string         // operator, number or name as written
	str   []byte         // decoded bytes of a string operand
	items []contentToken // elements of an array operand
}

func (t contentToken) number() (float64, bool) {
	if t.kind != tokNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(t.text, 64)
	return f, err == nil
}

// contentLexer splits a content stream into operands and operators. Line
// breaks carry no meaning: a whole text object may sit on one line.
type contentLexer struct {
	data []byte
	pos  int
}

func isPDFSpace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isPDFDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (lx *contentLexer) skipSpaceAndComments() {
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		switch {
		case isPDFSpace(c):
			lx.pos++
		case c == '%':
			for lx.pos < len(lx.data) && lx.data[lx.pos] != '\n' && lx.data[lx.pos] != '\r' {
				lx.pos++
			}
		default:
			return
		}
	}
}

// regular reads a run of regular characters.
func (lx *contentLexer) regular() string {
	start := lx.pos
	for lx.pos < len(lx.data) && !isPDFSpace(lx.data[lx.pos]) && !isPDFDelimiter(lx.data[lx.pos]) {
		lx.pos++
	}
	return string(lx.data[start:lx.pos])
}

func (lx *contentLexer) next() contentToken {
	lx.skipSpaceAndComments()
	if lx.pos >= len(lx.data) {
		return contentToken{kind: tokEOF}
	}

	c := lx.data[lx.pos]
	switch {
	case c == '(':
		return contentToken{kind: tokString, str: lx.literalString()}
	case c == '<':
		if lx.pos+1 < len(lx.data) && lx.data[lx.pos+1] == '<' {
			lx.pos += 2
			return contentToken{kind: tokOther, text: "<<"}
		}
		return contentToken{kind: tokString, str: lx.hexString()}
	case c == '>':
		lx.pos++
		if lx.pos < len(lx.data) && lx.data[lx.pos] == '>' {
			lx.pos++
		}
		return contentToken{kind: tokOther, text: ">>"}
	case c == '[':
		lx.pos++
		return lx.array()
	case c == ']', c == ')', c == '{', c == '}':
		lx.pos++
		return contentToken{kind: tokOther, text: string(c)}
	case c == '/':
		lx.pos++
		return contentToken{kind: tokOther, text: "/" + lx.regular()}
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		return contentToken{kind: tokNumber, text: lx.regular()}
	default:
		return contentToken{kind: tokOperator, text: lx.regular()}
	}
}

// array reads the elements up to the closing bracket.
func (lx *contentLexer) array() contentToken {
	arr := contentToken{kind: tokArray}
	for {
		lx.skipSpaceAndComments()
		if lx.pos >= len(lx.data) {
			return arr
		}
		if lx.data[lx.pos] == ']' {
			lx.pos++
			return arr
		}
		arr.items = append(arr.items, lx.next())
	}
}

// literalString reads a parenthesized string, balanced parentheses and
// escapes included, and decodes its escapes.
func (lx *contentLexer) literalString() []byte {
	lx.pos++ // (
	start := lx.pos
	depth := 1
	for lx.pos < len(lx.data) {
		switch lx.data[lx.pos] {
		case '\\':
			lx.pos++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				raw := lx.data[start:lx.pos]
				lx.pos++
				return decodePDFString(raw)
			}
		}
		lx.pos++
	}
	return decodePDFString(lx.data[start:min(lx.pos, len(lx.data))])
}

// hexString reads <48656C6C6F>. An odd final digit counts as followed by 0.
func (lx *contentLexer) hexString() []byte {
	lx.pos++ // <
	var out []byte
	var hi byte
	half := false
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		lx.pos++
		if c == '>' {
			break
		}
		v, ok := hexValue(c)
		if !ok {
			continue
		}
		if half {
			out = append(out, hi<<4|v)
		} else {
			hi = v
		}
		half = !half
	}
	if half {
		out = append(out, hi<<4)
	}
	return out
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// skipInlineImage moves past the binary data that follows an ID operator,
// up to and including the EI operator.
func (lx *contentLexer) skipInlineImage() {
	for lx.pos < len(lx.data) {
		i := bytes.Index(lx.data[lx.pos:], []byte("EI"))
		if i < 0 {
			lx.pos = len(lx.data)
			return
		}
		at := lx.pos + i
		lx.pos = at + 2
		before := at == 0 || isPDFSpace(lx.data[at-1])
		after := lx.pos >= len(lx.data) || isPDFSpace(lx.data[lx.pos])
		if before && after {
			return
		}
	}
}
