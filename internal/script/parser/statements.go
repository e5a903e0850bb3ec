package parser

import (
	"github.com/vk/burstmd/internal/script/ast"
	"github.com/vk/burstmd/internal/script/lexer"
)

func (p *parser) parseStatement() (ast.Statement, error) {
	t := p.cur()
	if t.Kind == lexer.Keyword {
		switch t.Text {
		case "let", "const", "var":
			decl, err := p.parseDeclaration()
			if err != nil {
				return nil, err
			}
			return decl, p.consumeSemicolon()
		case "if":
			return p.parseIf()
		case "for":
			return p.parseFor()
		case "while":
			return p.parseWhile()
		case "do":
			return p.parseDoWhile()
		case "return":
			p.next()
			ret := &ast.Return{}
			if !p.is(";") && !p.is("}") && !p.at(lexer.EOF) && !p.cur().NewlineBefore {
				arg, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				ret.Argument = arg
			}
			ret.Pos = p.span(t)
			return ret, p.consumeSemicolon()
		case "break":
			p.next()
			return &ast.Break{Pos: p.span(t)}, p.consumeSemicolon()
		case "continue":
			p.next()
			return &ast.Continue{Pos: p.span(t)}, p.consumeSemicolon()
		case "function":
			return p.parseFunctionDeclaration(t)
		case "async":
			if p.peek(1).Is("function") {
				p.next()
				return p.parseFunctionDeclaration(t)
			}
		}
	}
	switch {
	case t.Is("{"):
		return p.parseBlock()
	case t.Is(";"):
		p.next()
		return &ast.Empty{Pos: p.span(t)}, nil
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	stmt := &ast.ExpressionStatement{Pos: p.span(t), Expression: expr}
	return stmt, p.consumeSemicolon()
}

func (p *parser) parseDeclaration() (*ast.VariableDeclaration, error) {
	t := p.next()
	decl := &ast.VariableDeclaration{Kind: t.Text}
	for {
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		d := ast.Declarator{Name: name}
		if p.accept("=") {
			init, err := p.parseAssign()
			if err != nil {
				return nil, err
			}
			d.Init = init
		} else if t.Text == "const" {
			return nil, p.errorf(p.cur(), "missing initializer in const declaration of %q", name)
		}
		decl.Declarations = append(decl.Declarations, d)
		if !p.accept(",") {
			break
		}
	}
	decl.Pos = p.span(t)
	return decl, nil
}

func (p *parser) parseBlock() (*ast.Block, error) {
	t, err := p.expect("{")
	if err != nil {
		return nil, err
	}
	blk := &ast.Block{}
	for !p.is("}") {
		if p.at(lexer.EOF) {
			return nil, p.errorf(t, "unterminated block")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		blk.Body = append(blk.Body, stmt)
	}
	p.next()
	blk.Pos = p.span(t)
	return blk, nil
}

func (p *parser) parseParenExpr() (ast.Expression, error) {
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *parser) parseIf() (ast.Statement, error) {
	t := p.next()
	test, err := p.parseParenExpr()
	if err != nil {
		return nil, err
	}
	cons, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	stmt := &ast.If{Test: test, Consequent: cons}
	if p.accept("else") {
		alt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmt.Alternate = alt
	}
	stmt.Pos = p.span(t)
	return stmt, nil
}

func (p *parser) parseWhile() (ast.Statement, error) {
	t := p.next()
	test, err := p.parseParenExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.While{Pos: p.span(t), Test: test, Body: body}, nil
}

func (p *parser) parseDoWhile() (ast.Statement, error) {
	t := p.next()
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect("while"); err != nil {
		return nil, err
	}
	test, err := p.parseParenExpr()
	if err != nil {
		return nil, err
	}
	p.accept(";")
	return &ast.While{Pos: p.span(t), Test: test, Body: body, DoWhile: true}, nil
}

func (p *parser) parseFor() (ast.Statement, error) {
	t := p.next()
	if _, err := p.expect("("); err != nil {
		return nil, err
	}

	// for (const x of xs) / for (k in obj)
	kind := ""
	off := 0
	if c := p.cur(); c.Is("let") || c.Is("const") || c.Is("var") {
		kind = c.Text
		off = 1
	}
	if p.peek(off).Kind == lexer.Ident {
		if after := p.peek(off + 1); after.Is("in") || (after.Kind == lexer.Ident && after.Text == "of") {
			p.i += off
			name, _ := p.ident()
			in := p.next().Text == "in"
			iter, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(")"); err != nil {
				return nil, err
			}
			body, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			return &ast.ForOf{Pos: p.span(t), Kind: kind, Name: name, Iterable: iter, In: in, Body: body}, nil
		}
	}

	loop := &ast.For{}
	if !p.is(";") {
		if kind != "" {
			decl, err := p.parseDeclaration()
			if err != nil {
				return nil, err
			}
			loop.Init = decl
		} else {
			it := p.cur()
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			loop.Init = &ast.ExpressionStatement{Pos: p.span(it), Expression: expr}
		}
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	if !p.is(";") {
		test, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		loop.Test = test
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	if !p.is(")") {
		upd, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		loop.Update = upd
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	loop.Body = body
	loop.Pos = p.span(t)
	return loop, nil
}

func (p *parser) parseFunctionDeclaration(start lexer.Token) (ast.Statement, error) {
	p.next() // function
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDeclaration{Pos: p.span(start), Name: name, Parameters: params, Body: body}, nil
}

// parseParams reads a parenthesized formal parameter list.
func (p *parser) parseParams() ([]ast.Param, error) {
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	var params []ast.Param
	for !p.is(")") {
		var prm ast.Param
		if p.accept("...") {
			prm.Rest = true
		}
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		prm.Name = name
		if p.accept("=") {
			def, err := p.parseAssign()
			if err != nil {
				return nil, err
			}
			prm.Default = def
		}
		params = append(params, prm)
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	return params, nil
}
