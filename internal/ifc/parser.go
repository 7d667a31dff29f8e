// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ifc

import (
	"fmt"
	"io"
	"os"
	"strconv"
)

// Open parses the STEP file at path.
func Open(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

// Parse reads a STEP physical file from r. The header must be followed by
// a DATA section. Input that ends inside the DATA section, with or without
// a partial instance, yields every complete instance before the cut and a
// model that reports Truncated. A missing END-ISO-10303-21 trailer alone is
// not a truncation.
func Parse(r io.Reader) (*Model, error) {
	p := &parser{s: newScanner(r), m: newModel()}
	if err := p.parse(); err != nil {
		return nil, err
	}
	p.m.finish()
	return p.m, nil
}

type parser struct {
	s       *scanner
	m       *Model
	hasData bool
}

func (p *parser) expect(kind tokenKind) (token, error) {
	t, err := p.s.next()
	if err != nil {
		return token{}, err
	}
	if t.kind != kind {
		return token{}, &SyntaxError{Line: t.line, Msg: fmt.Sprintf("expected %s, found %s", kind, describe(t))}
	}
	return t, nil
}

func describe(t token) string {
	if t.text != "" {
		return fmt.Sprintf("%s %q", t.kind, t.text)
	}
	return t.kind.String()
}

func (p *parser) parse() error {
	t, err := p.expect(tokKeyword)
	if err != nil {
		return err
	}
	if t.text != "ISO-10303-21" {
		return &SyntaxError{Line: t.line, Msg: fmt.Sprintf("not a STEP file: starts with %q", t.text)}
	}
	if _, err := p.expect(tokSemicolon); err != nil {
		return err
	}

	for {
		t, err := p.s.next()
		if err != nil {
			return err
		}
		switch {
		case t.kind == tokEOF:
			if !p.hasData {
				return &SyntaxError{Line: t.line, Msg: "missing DATA section"}
			}
			return nil
		case t.kind == tokKeyword && t.text == "END-ISO-10303-21":
			if !p.hasData {
				return &SyntaxError{Line: t.line, Msg: "missing DATA section"}
			}
			return nil
		case t.kind == tokKeyword && t.text == "HEADER":
			if _, err := p.expect(tokSemicolon); err != nil {
				return err
			}
			if err := p.parseHeader(); err != nil {
				return err
			}
		case t.kind == tokKeyword && t.text == "DATA":
			if err := p.skipSectionParams(); err != nil {
				return err
			}
			if err := p.parseData(); err != nil {
				return err
			}
			p.hasData = true
			if p.m.truncated {
				return nil
			}
		case t.kind == tokKeyword:
			// ANCHOR, REFERENCE and SIGNATURE sections carry nothing we use.
			if err := p.skipSection(); err != nil {
				return err
			}
		default:
			return &SyntaxError{Line: t.line, Msg: fmt.Sprintf("unexpected %s between sections", describe(t))}
		}
	}
}

// skipSectionParams consumes the optional DATA('name',('schema')) parameters
// of edition 3 files, then the terminating semicolon.
func (p *parser) skipSectionParams() error {
	t, err := p.s.peek()
	if err != nil {
		return err
	}
	if t.kind == tokLParen {
		p.s.next()
		if _, err := p.parseList(); err != nil {
			return err
		}
	}
	_, err = p.expect(tokSemicolon)
	return err
}

func (p *parser) skipSection() error {
	for {
		t, err := p.s.next()
		if err != nil {
			return err
		}
		switch {
		case t.kind == tokEOF:
			return &SyntaxError{Line: t.line, Msg: "unterminated section"}
		case t.kind == tokKeyword && t.text == "ENDSEC":
			_, err := p.expect(tokSemicolon)
			return err
		}
	}
}

func (p *parser) parseHeader() error {
	for {
		t, err := p.expect(tokKeyword)
		if err != nil {
			return err
		}
		if t.text == "ENDSEC" {
			_, err := p.expect(tokSemicolon)
			return err
		}
		if _, err := p.expect(tokLParen); err != nil {
			return err
		}
		args, err := p.parseList()
		if err != nil {
			return err
		}
		if _, err := p.expect(tokSemicolon); err != nil {
			return err
		}
		p.m.header.set(t.text, args)
	}
}

// parseData reads instances up to ENDSEC. Hitting the end of the input
// first marks the model truncated and keeps what was read.
func (p *parser) parseData() error {
	for {
		done, err := p.parseDataItem()
		if err != nil {
			if p.s.eof {
				p.m.truncated = true
				return nil
			}
			return err
		}
		if done {
			return nil
		}
	}
}

func (p *parser) parseDataItem() (done bool, err error) {
	t, err := p.s.next()
	if err != nil {
		return false, err
	}
	if t.kind == tokEOF {
		p.m.truncated = true
		return true, nil
	}
	if t.kind == tokKeyword && t.text == "ENDSEC" {
		_, err := p.expect(tokSemicolon)
		return true, err
	}
	if t.kind != tokInstance {
		return false, &SyntaxError{Line: t.line, Msg: fmt.Sprintf("expected instance name, found %s", describe(t))}
	}
	id, err := strconv.Atoi(t.text)
	if err != nil {
		return false, &SyntaxError{Line: t.line, Msg: fmt.Sprintf("bad instance name #%s", t.text)}
	}
	if _, err := p.expect(tokEquals); err != nil {
		return false, err
	}

	e, err := p.parseInstance(id)
	if err != nil {
		return false, err
	}
	if _, err := p.expect(tokSemicolon); err != nil {
		return false, err
	}
	if err := p.m.add(e); err != nil {
		return false, &SyntaxError{Line: t.line, Msg: err.Error()}
	}
	return false, nil
}

// parseInstance reads the right-hand side of "#id =". Simple instances are
// TYPE(args); complex instances are (TYPEA(args)TYPEB(args)...), recorded
// under the first partial type with all arguments concatenated.
func (p *parser) parseInstance(id int) (*Entity, error) {
	t, err := p.s.next()
	if err != nil {
		return nil, err
	}
	switch t.kind {
	case tokKeyword:
		if _, err := p.expect(tokLParen); err != nil {
			return nil, err
		}
		args, err := p.parseList()
		if err != nil {
			return nil, err
		}
		return &Entity{ID: id, Type: t.text, Args: args}, nil
	case tokLParen:
		e := &Entity{ID: id}
		for {
			part, err := p.s.next()
			if err != nil {
				return nil, err
			}
			if part.kind == tokRParen {
				break
			}
			if part.kind != tokKeyword {
				return nil, &SyntaxError{Line: part.line, Msg: fmt.Sprintf("expected partial entity, found %s", describe(part))}
			}
			if _, err := p.expect(tokLParen); err != nil {
				return nil, err
			}
			args, err := p.parseList()
			if err != nil {
				return nil, err
			}
			if e.Type == "" {
				e.Type = part.text
			}
			e.Args = append(e.Args, args...)
			e.Complex = append(e.Complex, part.text)
		}
		if e.Type == "" {
			return nil, &SyntaxError{Line: t.line, Msg: fmt.Sprintf("empty complex instance #%d", id)}
		}
		return e, nil
	}
	return nil, &SyntaxError{Line: t.line, Msg: fmt.Sprintf("expected entity type, found %s", describe(t))}
}

// parseList reads values up to and including the closing parenthesis.
// The opening parenthesis has already been consumed.
func (p *parser) parseList() ([]Value, error) {
	var items []Value
	t, err := p.s.peek()
	if err != nil {
		return nil, err
	}
	if t.kind == tokRParen {
		p.s.next()
		return items, nil
	}
	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		items = append(items, v)

		sep, err := p.s.next()
		if err != nil {
			return nil, err
		}
		switch sep.kind {
		case tokComma:
			continue
		case tokRParen:
			return items, nil
		default:
			return nil, &SyntaxError{Line: sep.line, Msg: fmt.Sprintf("expected ',' or ')', found %s", describe(sep))}
		}
	}
}

func (p *parser) parseValue() (Value, error) {
	t, err := p.s.next()
	if err != nil {
		return Value{}, err
	}
	switch t.kind {
	case tokDollar:
		return Value{Kind: KindUnset}, nil
	case tokStar:
		return Value{Kind: KindDerived}, nil
	case tokString:
		return Value{Kind: KindString, Str: t.text}, nil
	case tokBinary:
		return Value{Kind: KindBinary, Str: t.text}, nil
	case tokEnum:
		return Value{Kind: KindEnum, Str: t.text}, nil
	case tokInteger:
		n, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return Value{}, &SyntaxError{Line: t.line, Msg: fmt.Sprintf("bad integer %s", t.text)}
		}
		return Value{Kind: KindInteger, Int: n}, nil
	case tokReal:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return Value{}, &SyntaxError{Line: t.line, Msg: fmt.Sprintf("bad real %s", t.text)}
		}
		return Value{Kind: KindReal, Real: f}, nil
	case tokInstance:
		n, err := strconv.Atoi(t.text)
		if err != nil {
			return Value{}, &SyntaxError{Line: t.line, Msg: fmt.Sprintf("bad reference #%s", t.text)}
		}
		return Value{Kind: KindRef, Ref: n}, nil
	case tokLParen:
		items, err := p.parseList()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindList, List: items}, nil
	case tokKeyword:
		if _, err := p.expect(tokLParen); err != nil {
			return Value{}, err
		}
		items, err := p.parseList()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindTyped, Str: t.text, List: items}, nil
	}
	return Value{}, &SyntaxError{Line: t.line, Msg: fmt.Sprintf("unexpected %s", describe(t))}
}
