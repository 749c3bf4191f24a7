// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfcodec

import (
	"bytes"
	"strings"
)

// showOperators are the content stream operators that paint text.
var showOperators = map[string]bool{"Tj": true, "TJ": true, "'": true, `"`: true}

// contentText returns the strings painted by the text-showing operators of
// a decoded content stream, one space between operations. The stream is
// tokenized on PDF whitespace and delimiters, so line layout does not
// matter. Font encodings are not interpreted; this is enough for a
// substring filter on simply encoded documents.
func contentText(stream []byte) string {
	s := scanner{data: stream}
	var (
		parts   []string
		operand strings.Builder
		inArray bool
	)
	for {
		tok, kind := s.next()
		switch kind {
		case tokEOF:
			return strings.Join(parts, " ")
		case tokString:
			operand.WriteString(tok)
		case tokArrayStart:
			inArray = true
		case tokArrayEnd:
			inArray = false
		case tokOperand:
			// numbers, names, and dictionaries keep the pending strings
		case tokOperator:
			if inArray {
				continue
			}
			if showOperators[tok] && operand.Len() > 0 {
				parts = append(parts, operand.String())
			}
			operand.Reset()
			if tok == "ID" {
				s.skipInlineImage()
			}
		}
	}
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokString
	tokArrayStart
	tokArrayEnd
	tokOperand
	tokOperator
)

// scanner splits a content stream into tokens.
type scanner struct {
	data []byte
	pos  int
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (s *scanner) next() (string, tokenKind) {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		switch {
		case isSpace(c):
			s.pos++
		case c == '%':
			for s.pos < len(s.data) && s.data[s.pos] != '\r' && s.data[s.pos] != '\n' {
				s.pos++
			}
		case c == '(':
			return s.literal(), tokString
		case c == '<':
			if s.pos+1 < len(s.data) && s.data[s.pos+1] == '<' {
				s.pos += 2
				return "<<", tokOperand
			}
			return s.hex(), tokString
		case c == '>':
			s.pos++
			if s.pos < len(s.data) && s.data[s.pos] == '>' {
				s.pos++
			}
			return ">>", tokOperand
		case c == '[':
			s.pos++
			return "[", tokArrayStart
		case c == ']':
			s.pos++
			return "]", tokArrayEnd
		case c == '/':
			s.pos++
			return "/" + s.regular(), tokOperand
		case c == ')' || c == '{' || c == '}':
			s.pos++
		default:
			tok := s.regular()
			if isNumber(tok) {
				return tok, tokOperand
			}
			return tok, tokOperator
		}
	}
	return "", tokEOF
}

// regular consumes a run of regular characters.
func (s *scanner) regular() string {
	start := s.pos
	for s.pos < len(s.data) && !isSpace(s.data[s.pos]) && !isDelimiter(s.data[s.pos]) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

func isNumber(tok string) bool {
	if tok == "" {
		return false
	}
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		if (c < '0' || c > '9') && c != '.' && c != '-' && c != '+' {
			return false
		}
	}
	return true
}

// literal consumes a balanced (...) string and returns it unescaped.
func (s *scanner) literal() string {
	s.pos++
	start, depth := s.pos, 1
	for s.pos < len(s.data) {
		switch s.data[s.pos] {
		case '\\':
			s.pos++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				raw := s.data[start:s.pos]
				s.pos++
				return unescape(raw)
			}
		}
		s.pos++
	}
	return unescape(s.data[start:])
}

// hex consumes a <...> string and returns its decoded bytes.
func (s *scanner) hex() string {
	s.pos++
	var digits []byte
	for s.pos < len(s.data) && s.data[s.pos] != '>' {
		if c := s.data[s.pos]; !isSpace(c) {
			digits = append(digits, c)
		}
		s.pos++
	}
	s.pos++
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, 0, len(digits)/2)
	for i := 0; i+1 < len(digits); i += 2 {
		hi, ok1 := hexValue(digits[i])
		lo, ok2 := hexValue(digits[i+1])
		if !ok1 || !ok2 {
			return string(out)
		}
		out = append(out, hi<<4|lo)
	}
	return string(out)
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

// skipInlineImage moves past the binary data of an inline image, up to and
// including the EI operator.
func (s *scanner) skipInlineImage() {
	rest := s.data[s.pos:]
	for i := 0; i+2 <= len(rest); i++ {
		if !bytes.HasPrefix(rest[i:], []byte("EI")) {
			continue
		}
		before := i == 0 || isSpace(rest[i-1])
		after := i+2 == len(rest) || isSpace(rest[i+2])
		if before && after {
			s.pos += i + 2
			return
		}
	}
	s.pos = len(s.data)
}

// unescape resolves the backslash escapes of a PDF literal string.
func unescape(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 == len(raw) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch c = raw[i]; c {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case '\r':
			if i+1 < len(raw) && raw[i+1] == '\n' {
				i++
			}
		case '\n':
		case '0', '1', '2', '3', '4', '5', '6', '7':
			v := int(c - '0')
			for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
				i++
				v = v*8 + int(raw[i]-'0')
			}
			sb.WriteByte(byte(v))
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
