package parser

import (
	"github.com/vk/burstmd/internal/script/ast"
	"github.com/vk/burstmd/internal/script/lexer"
)

// Binding powers of the binary operators. Higher binds tighter.
var binaryPrec = map[string]int{
	"??": 1,
	"||": 2,
	"&&": 3,
	"|":  4,
	"^":  5,
	"&":  6,
	"==": 7, "!=": 7, "===": 7, "!==": 7,
	"<": 8, ">": 8, "<=": 8, ">=": 8, "in": 8, "instanceof": 8,
	"<<": 9, ">>": 9, ">>>": 9,
	"+": 10, "-": 10,
	"*": 11, "/": 11, "%": 11,
	"**": 12,
}

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true, "**=": true,
	"<<=": true, ">>=": true, ">>>=": true, "&=": true, "|=": true, "^=": true,
	"&&=": true, "||=": true, "??=": true,
}

// parseExpression parses a comma separated sequence.
func (p *parser) parseExpression() (ast.Expression, error) {
	t := p.cur()
	first, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	if !p.is(",") {
		return first, nil
	}
	seq := &ast.Sequence{Expressions: []ast.Expression{first}}
	for p.accept(",") {
		e, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		seq.Expressions = append(seq.Expressions, e)
	}
	seq.Pos = p.span(t)
	return seq, nil
}

func (p *parser) parseAssign() (ast.Expression, error) {
	t := p.cur()
	if t.Is("async") && (p.peek(1).Kind == lexer.Ident || p.peek(1).Is("(")) && !p.peek(1).NewlineBefore {
		p.next()
		t = p.cur()
	}
	if p.isArrowStart() {
		return p.parseArrow()
	}

	left, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	op := p.cur()
	if op.Kind != lexer.Punct || !assignOps[op.Text] {
		return left, nil
	}
	switch left.(type) {
	case *ast.Variable, *ast.PropertyAccess, *ast.IndexAccess:
	default:
		return nil, p.errorf(op, "invalid assignment target")
	}
	p.next()
	right, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	return &ast.Assignment{Pos: p.span(t), Operator: op.Text, Target: left, Value: right}, nil
}

// isArrowStart looks ahead for `x =>` or `( ... ) =>`.
func (p *parser) isArrowStart() bool {
	t := p.cur()
	if t.Kind == lexer.Ident {
		return p.peek(1).Is("=>")
	}
	if !t.Is("(") {
		return false
	}
	depth := 0
	for j := p.i; j < len(p.toks); j++ {
		tok := p.toks[j]
		switch {
		case tok.Is("(") || tok.Is("[") || tok.Is("{"):
			depth++
		case tok.Is(")") || tok.Is("]") || tok.Is("}"):
			depth--
			if depth == 0 {
				return j+1 < len(p.toks) && p.toks[j+1].Is("=>")
			}
		case tok.Kind == lexer.EOF:
			return false
		}
	}
	return false
}

func (p *parser) parseArrow() (ast.Expression, error) {
	t := p.cur()
	fn := &ast.ArrowFunction{}
	if t.Kind == lexer.Ident {
		p.next()
		fn.Parameters = []ast.Param{{Name: t.Text}}
	} else {
		params, err := p.parseParams()
		if err != nil {
			return nil, err
		}
		fn.Parameters = params
	}
	if _, err := p.expect("=>"); err != nil {
		return nil, err
	}
	if p.is("{") {
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		fn.Body = body
	} else {
		body, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		fn.ExprBody = body
		fn.IsExpressionBody = true
	}
	fn.Pos = p.span(t)
	return fn, nil
}

func (p *parser) parseConditional() (ast.Expression, error) {
	t := p.cur()
	test, err := p.parseBinary(1)
	if err != nil {
		return nil, err
	}
	if !p.accept("?") {
		return test, nil
	}
	cons, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(":"); err != nil {
		return nil, err
	}
	alt, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	return &ast.Conditional{Pos: p.span(t), Test: test, Consequent: cons, Alternate: alt}, nil
}

func (p *parser) binaryOp() (string, int) {
	t := p.cur()
	if t.Kind != lexer.Punct && !(t.Kind == lexer.Keyword && (t.Text == "in" || t.Text == "instanceof")) {
		return "", 0
	}
	return t.Text, binaryPrec[t.Text]
}

func (p *parser) parseBinary(minPrec int) (ast.Expression, error) {
	t := p.cur()
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, prec := p.binaryOp()
		if prec == 0 || prec < minPrec {
			return left, nil
		}
		p.next()
		next := prec + 1
		if op == "**" {
			next = prec
		}
		right, err := p.parseBinary(next)
		if err != nil {
			return nil, err
		}
		pos := p.span(t)
		switch op {
		case "&&":
			left = &ast.LogicalAnd{Pos: pos, Left: left, Right: right}
		case "||":
			left = &ast.LogicalOr{Pos: pos, Left: left, Right: right}
		case "??":
			left = &ast.NullishCoalescing{Pos: pos, Left: left, Right: right}
		case "instanceof":
			left = &ast.Instanceof{Pos: pos, Left: left, Right: right}
		default:
			left = &ast.Binary{Pos: pos, Operator: op, Left: left, Right: right}
		}
	}
}

func (p *parser) parseUnary() (ast.Expression, error) {
	t := p.cur()
	switch {
	case t.Is("!") || t.Is("-") || t.Is("+") || t.Is("~") || t.Is("void") || t.Is("delete"):
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Pos: p.span(t), Operator: t.Text, Operand: operand}, nil
	case t.Is("typeof"):
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Typeof{Pos: p.span(t), Operand: operand}, nil
	case t.Is("await"):
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Await{Pos: p.span(t), Operand: operand}, nil
	case t.Is("++") || t.Is("--"):
		p.next()
		target, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if !isTarget(target) {
			return nil, p.errorf(t, "invalid %s operand", t.Text)
		}
		return &ast.Update{Pos: p.span(t), Operator: t.Text, Prefix: true, Target: target}, nil
	}
	return p.parsePostfix()
}

func isTarget(e ast.Expression) bool {
	switch e.(type) {
	case *ast.Variable, *ast.PropertyAccess, *ast.IndexAccess:
		return true
	}
	return false
}

func (p *parser) parsePostfix() (ast.Expression, error) {
	t := p.cur()
	expr, err := p.parseCallMember(true)
	if err != nil {
		return nil, err
	}
	if op := p.cur(); (op.Is("++") || op.Is("--")) && !op.NewlineBefore {
		if !isTarget(expr) {
			return nil, p.errorf(op, "invalid %s operand", op.Text)
		}
		p.next()
		return &ast.Update{Pos: p.span(t), Operator: op.Text, Target: expr}, nil
	}
	return expr, nil
}

// parseCallMember parses a primary expression followed by any chain of
// member accesses and, when calls is set, call suffixes.
func (p *parser) parseCallMember(calls bool) (ast.Expression, error) {
	t := p.cur()
	var expr ast.Expression
	var err error
	if t.Is("new") {
		expr, err = p.parseNew()
	} else {
		expr, err = p.parsePrimary()
	}
	if err != nil {
		return nil, err
	}

	for {
		c := p.cur()
		switch {
		case c.Is("."), c.Is("?."):
			optional := c.Is("?.")
			p.next()
			if optional && p.is("(") && calls {
				args, err := p.parseArguments()
				if err != nil {
					return nil, err
				}
				expr = &ast.Call{Pos: p.span(t), Callee: expr, Arguments: args, Optional: true}
				continue
			}
			if optional && p.is("[") {
				idx, err := p.parseIndex()
				if err != nil {
					return nil, err
				}
				expr = &ast.IndexAccess{Pos: p.span(t), Object: expr, Index: idx, Optional: true}
				continue
			}
			name, ok := p.identName()
			if !ok {
				return nil, p.errorf(p.cur(), "expected property name, found %s", p.cur())
			}
			if calls && p.is("(") {
				args, err := p.parseArguments()
				if err != nil {
					return nil, err
				}
				expr = &ast.MethodCall{Pos: p.span(t), Receiver: expr, Method: name, Arguments: args, Optional: optional}
				continue
			}
			expr = &ast.PropertyAccess{Pos: p.span(t), Object: expr, Name: name, Optional: optional}
		case c.Is("["):
			idx, err := p.parseIndex()
			if err != nil {
				return nil, err
			}
			expr = &ast.IndexAccess{Pos: p.span(t), Object: expr, Index: idx}
		case c.Is("(") && calls:
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			expr = &ast.Call{Pos: p.span(t), Callee: expr, Arguments: args}
		default:
			return expr, nil
		}
	}
}

func (p *parser) parseIndex() (ast.Expression, error) {
	p.next() // [
	idx, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect("]"); err != nil {
		return nil, err
	}
	return idx, nil
}

func (p *parser) parseNew() (ast.Expression, error) {
	t := p.next()
	callee, err := p.parseCallMember(false)
	if err != nil {
		return nil, err
	}
	n := &ast.New{Callee: callee}
	if p.is("(") {
		args, err := p.parseArguments()
		if err != nil {
			return nil, err
		}
		n.Arguments = args
	}
	n.Pos = p.span(t)
	return n, nil
}

func (p *parser) parseArguments() ([]ast.Expression, error) {
	p.next() // (
	var args []ast.Expression
	for !p.is(")") {
		arg, err := p.parseElement()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	return args, nil
}

// parseElement parses an argument or array element, which may be spread.
func (p *parser) parseElement() (ast.Expression, error) {
	t := p.cur()
	if p.accept("...") {
		operand, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return &ast.Spread{Pos: p.span(t), Operand: operand}, nil
	}
	return p.parseAssign()
}

func (p *parser) parsePrimary() (ast.Expression, error) {
	t := p.cur()
	switch t.Kind {
	case lexer.Number:
		p.next()
		return &ast.NumberLiteral{Pos: p.span(t), Value: t.Num}, nil
	case lexer.String:
		p.next()
		return &ast.StringLiteral{Pos: p.span(t), Value: t.Text}, nil
	case lexer.Template:
		return p.parseTemplate()
	case lexer.Ident:
		p.next()
		if t.Text == "undefined" {
			return &ast.UndefinedLiteral{Pos: p.span(t)}, nil
		}
		return &ast.Variable{Pos: p.span(t), Name: t.Text}, nil
	case lexer.Keyword:
		switch t.Text {
		case "true", "false":
			p.next()
			return &ast.BooleanLiteral{Pos: p.span(t), Value: t.Text == "true"}, nil
		case "null":
			p.next()
			return &ast.NullLiteral{Pos: p.span(t)}, nil
		case "function":
			return p.parseFunctionExpression()
		case "async":
			if p.peek(1).Is("function") {
				p.next()
				return p.parseFunctionExpression()
			}
		}
	case lexer.Punct:
		switch t.Text {
		case "(":
			p.next()
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(")"); err != nil {
				return nil, err
			}
			return expr, nil
		case "[":
			return p.parseArrayLiteral()
		case "{":
			return p.parseObjectLiteral()
		}
	}
	return nil, p.unexpected()
}

func (p *parser) parseFunctionExpression() (ast.Expression, error) {
	t := p.next() // function
	fn := &ast.FunctionExpression{}
	if p.at(lexer.Ident) {
		fn.Name = p.next().Text
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	fn.Parameters, fn.Body = params, body
	fn.Pos = p.span(t)
	return fn, nil
}

func (p *parser) parseArrayLiteral() (ast.Expression, error) {
	t := p.next() // [
	arr := &ast.ArrayLiteral{}
	for !p.is("]") {
		if p.is(",") {
			p.next()
			arr.Elements = append(arr.Elements, &ast.UndefinedLiteral{Pos: p.span(p.prev())})
			continue
		}
		el, err := p.parseElement()
		if err != nil {
			return nil, err
		}
		arr.Elements = append(arr.Elements, el)
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect("]"); err != nil {
		return nil, err
	}
	arr.Pos = p.span(t)
	return arr, nil
}

func (p *parser) parseObjectLiteral() (ast.Expression, error) {
	t := p.next() // {
	obj := &ast.ObjectLiteral{}
props:
	for !p.is("}") {
		kt := p.cur()
		var prop ast.Property
		switch {
		case p.accept("..."):
			operand, err := p.parseAssign()
			if err != nil {
				return nil, err
			}
			prop.Value = &ast.Spread{Pos: p.span(kt), Operand: operand}
			obj.Properties = append(obj.Properties, prop)
			if !p.accept(",") {
				break props
			}
			continue
		case kt.Is("["):
			key, err := p.parseIndex()
			if err != nil {
				return nil, err
			}
			prop.KeyExpr = key
		case kt.Kind == lexer.String || kt.Kind == lexer.Number:
			p.next()
			prop.Key = kt.Text
		default:
			name, ok := p.identName()
			if !ok {
				return nil, p.unexpected()
			}
			prop.Key = name
		}

		switch {
		case p.accept(":"):
			v, err := p.parseAssign()
			if err != nil {
				return nil, err
			}
			prop.Value = v
		case p.is("("):
			params, err := p.parseParams()
			if err != nil {
				return nil, err
			}
			body, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			prop.Value = &ast.FunctionExpression{Pos: p.span(kt), Name: prop.Key, Parameters: params, Body: body}
		case kt.Kind == lexer.Ident:
			prop.Value = &ast.Variable{Pos: p.span(kt), Name: kt.Text}
		default:
			return nil, p.errorf(p.cur(), "expected \":\" after property key")
		}
		obj.Properties = append(obj.Properties, prop)
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect("}"); err != nil {
		return nil, err
	}
	obj.Pos = p.span(t)
	return obj, nil
}

func (p *parser) parseTemplate() (ast.Expression, error) {
	t := p.next()
	tpl := &ast.TemplateLiteral{Quasis: t.Quasis}
	for i, src := range t.Exprs {
		sub, err := newParser(lexer.NewAt(src, t.ExprPos[i]))
		if err != nil {
			return nil, err
		}
		expr, err := sub.parseExpression()
		if err != nil {
			return nil, err
		}
		if !sub.at(lexer.EOF) {
			return nil, sub.unexpected()
		}
		tpl.Exprs = append(tpl.Exprs, expr)
	}
	tpl.Pos = p.span(t)
	return tpl, nil
}
