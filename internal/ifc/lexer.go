// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ifc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf16"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokKeyword
	tokInstance
	tokString
	tokEnum
	tokInteger
	tokReal
	tokBinary
	tokDollar
	tokStar
	tokLParen
	tokRParen
	tokComma
	tokSemicolon
	tokEquals
)

var tokenNames = map[tokenKind]string{
	tokEOF:       "end of file",
	tokKeyword:   "keyword",
	tokInstance:  "instance name",
	tokString:    "string",
	tokEnum:      "enumeration",
	tokInteger:   "integer",
	tokReal:      "real",
	tokBinary:    "binary",
	tokDollar:    "'$'",
	tokStar:      "'*'",
	tokLParen:    "'('",
	tokRParen:    "')'",
	tokComma:     "','",
	tokSemicolon: "';'",
	tokEquals:    "'='",
}

func (k tokenKind) String() string { return tokenNames[k] }

type token struct {
	kind tokenKind
	text string
	line int
}

// SyntaxError reports malformed STEP input.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("ifc: line %d: %s", e.Line, e.Msg)
}

// scanner splits a STEP physical file into tokens. It reads from a
// buffered stream so large models are never held as one byte slice.
type scanner struct {
	r      *bufio.Reader
	line   int
	peeked *token
	buf    []byte
	// eof is set once a read hits the end of the input.
	eof bool
}

func newScanner(r io.Reader) *scanner {
	return &scanner{r: bufio.NewReaderSize(r, 64*1024), line: 1}
}

func (s *scanner) errorf(format string, args ...any) error {
	return &SyntaxError{Line: s.line, Msg: fmt.Sprintf(format, args...)}
}

func (s *scanner) readByte() (byte, error) {
	c, err := s.r.ReadByte()
	if err == nil && c == '\n' {
		s.line++
	}
	if errors.Is(err, io.EOF) {
		s.eof = true
	}
	return c, err
}

func (s *scanner) unreadByte(c byte) {
	_ = s.r.UnreadByte()
	if c == '\n' {
		s.line--
	}
}

func (s *scanner) peek() (token, error) {
	if s.peeked == nil {
		t, err := s.scan()
		if err != nil {
			return token{}, err
		}
		s.peeked = &t
	}
	return *s.peeked, nil
}

func (s *scanner) next() (token, error) {
	if s.peeked != nil {
		t := *s.peeked
		s.peeked = nil
		return t, nil
	}
	return s.scan()
}

func (s *scanner) scan() (token, error) {
	if err := s.skipSpace(); err != nil {
		if errors.Is(err, io.EOF) {
			return token{kind: tokEOF, line: s.line}, nil
		}
		return token{}, err
	}
	c, err := s.readByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return token{kind: tokEOF, line: s.line}, nil
		}
		return token{}, err
	}
	line := s.line
	switch {
	case c == '(':
		return token{kind: tokLParen, line: line}, nil
	case c == ')':
		return token{kind: tokRParen, line: line}, nil
	case c == ',':
		return token{kind: tokComma, line: line}, nil
	case c == ';':
		return token{kind: tokSemicolon, line: line}, nil
	case c == '=':
		return token{kind: tokEquals, line: line}, nil
	case c == '$':
		return token{kind: tokDollar, line: line}, nil
	case c == '*':
		return token{kind: tokStar, line: line}, nil
	case c == '#':
		digits, err := s.readWhile(isDigit)
		if err != nil {
			return token{}, err
		}
		if digits == "" {
			return token{}, s.errorf("expected digits after '#'")
		}
		return token{kind: tokInstance, text: digits, line: line}, nil
	case c == '\'':
		text, err := s.readString()
		if err != nil {
			return token{}, err
		}
		return token{kind: tokString, text: text, line: line}, nil
	case c == '"':
		text, err := s.readUntil('"')
		if err != nil {
			return token{}, err
		}
		return token{kind: tokBinary, text: text, line: line}, nil
	case c == '.':
		name, err := s.readWhile(isKeywordChar)
		if err != nil {
			return token{}, err
		}
		end, err := s.readByte()
		if err != nil || end != '.' {
			return token{}, s.errorf("unterminated enumeration .%s", name)
		}
		return token{kind: tokEnum, text: name, line: line}, nil
	case isDigit(c) || c == '-' || c == '+':
		return s.readNumber(c, line)
	case isKeywordStart(c):
		rest, err := s.readWhile(isKeywordChar)
		if err != nil {
			return token{}, err
		}
		return token{kind: tokKeyword, text: strings.ToUpper(string(c) + rest), line: line}, nil
	}
	return token{}, s.errorf("unexpected character %q", c)
}

// skipSpace consumes whitespace and /* */ comments.
func (s *scanner) skipSpace() error {
	for {
		c, err := s.readByte()
		if err != nil {
			return err
		}
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			continue
		}
		if c == '/' {
			n, err := s.readByte()
			if err != nil {
				return s.errorf("unexpected '/'")
			}
			if n != '*' {
				return s.errorf("unexpected '/'")
			}
			if err := s.skipComment(); err != nil {
				return err
			}
			continue
		}
		s.unreadByte(c)
		return nil
	}
}

func (s *scanner) skipComment() error {
	start := s.line
	var prev byte
	for {
		c, err := s.readByte()
		if err != nil {
			return &SyntaxError{Line: start, Msg: "unterminated comment"}
		}
		if prev == '*' && c == '/' {
			return nil
		}
		prev = c
	}
}

func (s *scanner) readWhile(ok func(byte) bool) (string, error) {
	s.buf = s.buf[:0]
	for {
		c, err := s.readByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return string(s.buf), nil
			}
			return "", err
		}
		if !ok(c) {
			s.unreadByte(c)
			return string(s.buf), nil
		}
		s.buf = append(s.buf, c)
	}
}

func (s *scanner) readUntil(end byte) (string, error) {
	start := s.line
	s.buf = s.buf[:0]
	for {
		c, err := s.readByte()
		if err != nil {
			return "", &SyntaxError{Line: start, Msg: "unterminated literal"}
		}
		if c == end {
			return string(s.buf), nil
		}
		s.buf = append(s.buf, c)
	}
}

// readString reads a quoted string body. A doubled quote stands for one
// quote character; control directives are decoded afterwards.
func (s *scanner) readString() (string, error) {
	start := s.line
	s.buf = s.buf[:0]
	for {
		c, err := s.readByte()
		if err != nil {
			return "", &SyntaxError{Line: start, Msg: "unterminated string"}
		}
		if c == '\'' {
			n, err := s.readByte()
			if err == nil && n == '\'' {
				s.buf = append(s.buf, '\'')
				continue
			}
			if err == nil {
				s.unreadByte(n)
			}
			return decodeString(string(s.buf)), nil
		}
		s.buf = append(s.buf, c)
	}
}

func (s *scanner) readNumber(first byte, line int) (token, error) {
	text := []byte{first}
	intPart, err := s.readWhile(isDigit)
	if err != nil {
		return token{}, err
	}
	text = append(text, intPart...)
	if !isDigit(first) && intPart == "" {
		return token{}, s.errorf("expected digits after %q", first)
	}
	kind := tokInteger

	c, err := s.readByte()
	if err == nil && c == '.' {
		kind = tokReal
		frac, err := s.readWhile(isDigit)
		if err != nil {
			return token{}, err
		}
		text = append(text, '.')
		text = append(text, frac...)
		c, err = s.readByte()
		if err != nil {
			return token{kind: kind, text: string(text), line: line}, nil
		}
	} else if err != nil {
		return token{kind: kind, text: string(text), line: line}, nil
	}

	if c == 'E' || c == 'e' {
		kind = tokReal
		text = append(text, 'E')
		sign, err := s.readByte()
		if err != nil {
			return token{}, s.errorf("malformed exponent in %s", text)
		}
		if sign == '+' || sign == '-' {
			text = append(text, sign)
		} else {
			s.unreadByte(sign)
		}
		exp, err := s.readWhile(isDigit)
		if err != nil {
			return token{}, err
		}
		if exp == "" {
			return token{}, s.errorf("malformed exponent in %s", text)
		}
		text = append(text, exp...)
	} else {
		s.unreadByte(c)
	}
	return token{kind: kind, text: string(text), line: line}, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isKeywordStart(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '_' || c == '!'
}

func isKeywordChar(c byte) bool {
	return isKeywordStart(c) || isDigit(c) || c == '-'
}

// decodeString expands the control directives of ISO 10303-21 strings:
// \\ (backslash), \S\c (upper half of ISO 8859-1), \X\hh (one ISO 8859-1
// byte), \X2\...\X0\ (UTF-16 code units) and \X4\...\X0\ (UCS-4). \P?\
// code page switches are dropped. Bytes outside directives pass through,
// so files that embed raw UTF-8 keep their text.
func decodeString(raw string) string {
	if !strings.Contains(raw, `\`) {
		return raw
	}
	var b strings.Builder
	for i := 0; i < len(raw); {
		c := raw[i]
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}
		rest := raw[i:]
		switch {
		case strings.HasPrefix(rest, `\\`):
			b.WriteByte('\\')
			i += 2
		case strings.HasPrefix(rest, `\S\`) && len(rest) >= 4:
			b.WriteRune(rune(rest[3]) + 128)
			i += 4
		case strings.HasPrefix(rest, `\P`) && len(rest) >= 4 && rest[3] == '\\':
			i += 4
		case strings.HasPrefix(rest, `\X2\`), strings.HasPrefix(rest, `\X4\`):
			width := 4
			if rest[2] == '4' {
				width = 8
			}
			end := strings.Index(rest[4:], `\X0\`)
			if end < 0 {
				b.WriteByte(c)
				i++
				continue
			}
			b.WriteString(decodeHexRun(rest[4:4+end], width))
			i += 4 + end + 4
		case strings.HasPrefix(rest, `\X\`) && len(rest) >= 5:
			n, err := strconv.ParseUint(rest[3:5], 16, 8)
			if err != nil {
				b.WriteByte(c)
				i++
				continue
			}
			b.WriteRune(rune(n))
			i += 5
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

func decodeHexRun(hex string, width int) string {
	if width == 8 {
		var b strings.Builder
		for j := 0; j+8 <= len(hex); j += 8 {
			n, err := strconv.ParseUint(hex[j:j+8], 16, 32)
			if err != nil {
				continue
			}
			b.WriteRune(rune(n))
		}
		return b.String()
	}
	units := make([]uint16, 0, len(hex)/4)
	for j := 0; j+4 <= len(hex); j += 4 {
		n, err := strconv.ParseUint(hex[j:j+4], 16, 16)
		if err != nil {
			continue
		}
		units = append(units, uint16(n))
	}
	return string(utf16.Decode(units))
}
