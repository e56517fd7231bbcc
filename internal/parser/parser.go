// Package parser implements the recursive-descent parser described in
// spec §4.P: text in, a value.Value tree out, or a structured
// ParseError carrying a byte offset, line, and column.
package parser

import (
	"fmt"
	"strconv"

	"github.com/sxslang/sxs/internal/lexsxs"
	"github.com/sxslang/sxs/internal/token"
	"github.com/sxslang/sxs/internal/value"
)

// ParseError is the structured error spec §4.P requires: message plus
// the exact textual position the lexer had reached.
type ParseError struct {
	Message string
	Offset  int
	Line    int
	Column  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

func errAt(tok *token.Token, format string, args ...any) *ParseError {
	return &ParseError{
		Message: fmt.Sprintf(format, args...),
		Offset:  tok.Offset,
		Line:    tok.Line,
		Column:  tok.Column,
	}
}

// Parser consumes a lexsxs.Lexer and builds value.Value trees on one
// shared value.Builder, so that a whole parse (and everything appended
// to it later by the evaluator) lives in one store.
type Parser struct {
	lx *lexsxs.Lexer
	b  *value.Builder
}

// New creates a Parser reading tokens from lx and constructing values
// on b.
func New(lx *lexsxs.Lexer, b *value.Builder) *Parser {
	return &Parser{lx: lx, b: b}
}

// NewFromString is a convenience constructor for a fresh lexer and a
// fresh builder over a new store.
func NewFromString(src string) *Parser {
	return New(lexsxs.NewFromString(src), value.NewBuilder())
}

// Builder exposes the shared builder, e.g. so a caller can inspect the
// resulting store after ParseOne/ParseAll.
func (p *Parser) Builder() *value.Builder { return p.b }

// ParseOne parses exactly one top-level form and returns it. At EOF it
// returns value.None with ok=false and a nil error.
func (p *Parser) ParseOne() (value.Value, bool, error) {
	tok, err := p.lx.Peek()
	if err != nil {
		return value.Value{}, false, err
	}
	if tok.Kind == token.EOF {
		return value.Value{}, false, nil
	}
	v, err := p.parseForm()
	if err != nil {
		return value.Value{}, false, err
	}
	return v, true, nil
}

// ParseAll parses every top-level form in the input, returning them as
// a slice of sibling values sharing one store.
func (p *Parser) ParseAll() ([]value.Value, error) {
	var out []value.Value
	for {
		v, ok, err := p.ParseOne()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

func (p *Parser) parseForm() (value.Value, error) {
	tok, err := p.lx.Next()
	if err != nil {
		return value.Value{}, err
	}

	switch tok.Kind {
	case token.INT:
		n, perr := strconv.ParseInt(tok.Text, 10, 64)
		if perr != nil {
			return value.Value{}, errAt(tok, "malformed integer literal %q", tok.Text)
		}
		return p.b.Int(n), nil

	case token.REAL:
		f, perr := strconv.ParseFloat(tok.Text, 64)
		if perr != nil {
			return value.Value{}, errAt(tok, "malformed real literal %q", tok.Text)
		}
		return p.b.Real(f), nil

	case token.DQSTRING:
		return p.b.String(tok.Text), nil

	case token.SYMBOL:
		return p.b.Symbol(tok.Text), nil

	case token.TYPESYMBOL:
		return p.b.Symbol(":" + tok.Text), nil

	case token.QUOTE:
		inner, err := p.parseForm()
		if err != nil {
			return value.Value{}, err
		}
		return p.b.Some(inner), nil

	case token.DATUM:
		return p.parseWrapped(tok, p.b.Datum)

	case token.ERRORMARK:
		return p.parseWrapped(tok, p.b.Error)

	case token.LPAREN:
		return p.parseList(tok, token.RPAREN, p.b.ParenList)

	case token.LBRACKET:
		return p.parseList(tok, token.RBRACKET, p.b.BracketList)

	case token.LBRACE:
		return p.parseList(tok, token.RBRACE, p.b.BraceList)

	case token.RPAREN, token.RBRACKET, token.RBRACE:
		return value.Value{}, errAt(tok, "unexpected %s with no matching opener", tok.Kind)

	case token.EOF:
		return value.Value{}, errAt(tok, "unexpected end of input")

	default:
		return value.Value{}, errAt(tok, "unexpected token %s", tok.Kind)
	}
}

// parseWrapped handles `#(` and `@(` forms: a required '(' followed by
// the wrapped form(s) and a closing ')'. Zero or one forms inside wrap
// directly; more than one form is wrapped as a PAREN_LIST so the
// wrapper always carries a single child, matching value.Value.Inner's
// single-child contract.
func (p *Parser) parseWrapped(marker *token.Token, wrap func(value.Value) value.Value) (value.Value, error) {
	open, err := p.lx.Next()
	if err != nil {
		return value.Value{}, err
	}
	if open.Kind != token.LPAREN {
		return value.Value{}, errAt(open, "expected '(' after %s", marker.Kind)
	}

	var items []value.Value
	for {
		tok, err := p.lx.Peek()
		if err != nil {
			return value.Value{}, err
		}
		if tok.Kind == token.RPAREN {
			p.lx.Next()
			break
		}
		if tok.Kind == token.EOF {
			return value.Value{}, errAt(tok, "unterminated %s form", marker.Kind)
		}
		v, err := p.parseForm()
		if err != nil {
			return value.Value{}, err
		}
		items = append(items, v)
	}

	switch len(items) {
	case 0:
		return wrap(p.b.None()), nil
	case 1:
		return wrap(items[0]), nil
	default:
		return wrap(p.b.ParenList(items...)), nil
	}
}

func (p *Parser) parseList(open *token.Token, closeKind token.Kind, build func(...value.Value) value.Value) (value.Value, error) {
	var items []value.Value
	for {
		tok, err := p.lx.Peek()
		if err != nil {
			return value.Value{}, err
		}
		if tok.Kind == closeKind {
			p.lx.Next()
			return build(items...), nil
		}
		if tok.Kind == token.EOF {
			return value.Value{}, errAt(tok, "unterminated list opened at line %d, column %d", open.Line, open.Column)
		}
		if tok.Kind == token.RPAREN || tok.Kind == token.RBRACKET || tok.Kind == token.RBRACE {
			return value.Value{}, errAt(tok, "mismatched closing %s", tok.Kind)
		}
		v, err := p.parseForm()
		if err != nil {
			return value.Value{}, err
		}
		items = append(items, v)
	}
}
