// Package parser builds syntax trees for directive bodies. Expressions are
// parsed with precedence climbing; statements with plain recursive descent.
package parser

import (
	"errors"
	"fmt"

	"github.com/vk/burstmd/internal/script/ast"
	"github.com/vk/burstmd/internal/script/lexer"
)

// Error is a syntax error located relative to the start of the directive body.
type Error struct {
	Line    int
	Column  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// ParseExpression parses src as a single expression, as found inside an
// interpolation directive.
func ParseExpression(src string) (ast.Expression, error) {
	p, err := newParser(lexer.New(src))
	if err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.cur().Is(";") {
		p.next()
	}
	if !p.at(lexer.EOF) {
		return nil, p.unexpected()
	}
	return expr, nil
}

// ParseProgram parses src as a statement list, as found inside an execution
// directive.
func ParseProgram(src string) (*ast.Program, error) {
	p, err := newParser(lexer.New(src))
	if err != nil {
		return nil, err
	}
	prog := &ast.Program{Pos: p.pos(p.cur())}
	for !p.at(lexer.EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Body = append(prog.Body, stmt)
	}
	return prog, nil
}

type parser struct {
	toks []lexer.Token
	i    int
}

func newParser(lx *lexer.Lexer) (*parser, error) {
	toks, err := lx.All()
	if err != nil {
		var le *lexer.Error
		if errors.As(err, &le) {
			return nil, &Error{Line: le.Line, Column: le.Column, Message: le.Message}
		}
		return nil, err
	}
	return &parser{toks: toks}, nil
}

func (p *parser) cur() lexer.Token { return p.toks[p.i] }

func (p *parser) peek(n int) lexer.Token {
	if p.i+n < len(p.toks) {
		return p.toks[p.i+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() lexer.Token {
	t := p.toks[p.i]
	if p.i < len(p.toks)-1 {
		p.i++
	}
	return t
}

func (p *parser) prev() lexer.Token {
	if p.i == 0 {
		return p.toks[0]
	}
	return p.toks[p.i-1]
}

func (p *parser) at(k lexer.Kind) bool { return p.cur().Kind == k }

func (p *parser) is(s string) bool { return p.cur().Is(s) }

func (p *parser) accept(s string) bool {
	if p.is(s) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(s string) (lexer.Token, error) {
	if !p.is(s) {
		return lexer.Token{}, p.errorf(p.cur(), "expected %q, found %s", s, p.cur())
	}
	return p.next(), nil
}

func (p *parser) errorf(t lexer.Token, format string, args ...any) error {
	return &Error{Line: t.Line, Column: t.Column, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) unexpected() error {
	return p.errorf(p.cur(), "unexpected %s", p.cur())
}

// pos starts a node location at t; finish fills in its length once the
// node's last token has been consumed.
func (p *parser) pos(t lexer.Token) ast.Pos {
	return ast.Pos{Location: ast.Location{Line: t.Line, Column: t.Column, Length: t.End - t.Offset}}
}

func (p *parser) span(start lexer.Token) ast.Pos {
	pos := p.pos(start)
	if end := p.prev().End; end > start.Offset {
		pos.Location.Length = end - start.Offset
	}
	return pos
}

// identName accepts identifiers and, after a dot or as an object key,
// keywords.
func (p *parser) identName() (string, bool) {
	t := p.cur()
	if t.Kind == lexer.Ident || t.Kind == lexer.Keyword {
		p.next()
		return t.Text, true
	}
	return "", false
}

func (p *parser) ident() (string, error) {
	t := p.cur()
	if t.Kind != lexer.Ident {
		return "", p.errorf(t, "expected identifier, found %s", t)
	}
	p.next()
	return t.Text, nil
}

// consumeSemicolon applies automatic semicolon insertion: a statement ends
// at `;`, before `}`, at end of input, or at a line break.
func (p *parser) consumeSemicolon() error {
	if p.accept(";") {
		return nil
	}
	if p.is("}") || p.at(lexer.EOF) || p.cur().NewlineBefore {
		return nil
	}
	return p.unexpected()
}
