package parser

import (
	"github.com/lykia-rs/lykiadb/ast"
	"github.com/lykia-rs/lykiadb/token"
)

// Expression grammar, precedence low to high: assignment, logical or,
// logical and, equality, comparison, SQL range and predicate, term,
// factor, unary, call, primary.

func (p *Parser) expression() (ast.Expr, error) {
	if p.matchNext(token.Fun) {
		return p.funDeclaration()
	}
	return p.assignment()
}

func (p *Parser) funDeclaration() (ast.Expr, error) {
	funTok := p.peekBW(1)

	var name *ast.Identifier
	if p.isIdent(0, false) {
		tok := p.advance()
		ident := p.plainIdentifier(tok)
		name = &ident
	}

	if _, err := p.expected(token.LeftParen); err != nil {
		return nil, err
	}
	var parameters []ast.Identifier
	if !p.cmpTok(token.RightParen) {
		tok, err := p.expectedIdent(true)
		if err != nil {
			return nil, err
		}
		parameters = append(parameters, p.plainIdentifier(tok))
		for p.matchNext(token.Comma) {
			tok, err := p.expectedIdent(true)
			if err != nil {
				return nil, err
			}
			parameters = append(parameters, p.plainIdentifier(tok))
		}
	}
	if _, err := p.expected(token.RightParen); err != nil {
		return nil, err
	}
	if _, err := p.expected(token.LeftBrace); err != nil {
		return nil, err
	}
	blockStmt, err := p.block()
	if err != nil {
		return nil, err
	}

	body := []ast.Stmt{blockStmt}
	if block, ok := blockStmt.(*ast.Block); ok {
		body = block.Body
	}

	return p.arena.AllocExpr(&ast.Function{
		Name:       name,
		Parameters: parameters,
		Body:       body,
		Span:       funTok.Span.Merge(blockStmt.GetSpan()),
	}), nil
}

func (p *Parser) assignment() (ast.Expr, error) {
	expr, err := p.or()
	if err != nil {
		return nil, err
	}

	if p.matchNext(token.Equal) {
		value, err := p.assignment()
		if err != nil {
			return nil, err
		}
		switch target := expr.(type) {
		case *ast.Variable:
			return p.arena.AllocExpr(&ast.Assignment{
				Dst:  target.Name,
				Expr: value,
				Span: target.Span.Merge(value.GetSpan()),
			}), nil
		case *ast.Get:
			return p.arena.AllocExpr(&ast.Set{
				Object: target.Object,
				Name:   target.Name,
				Value:  value,
				Span:   target.Span.Merge(value.GetSpan()),
			}), nil
		default:
			return nil, ErrInvalidAssignmentTarget.New(expr.GetSpan())
		}
	}
	return expr, nil
}

func (p *Parser) or() (ast.Expr, error) {
	expr, err := p.and()
	if err != nil {
		return nil, err
	}
	operator := token.LogicalOr
	if p.inSelectDepth > 0 {
		operator = token.Or
	}
	for p.matchNext(operator) {
		op := p.peekBW(1)
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		expr = p.arena.AllocExpr(&ast.Logical{
			Left:      expr,
			Operation: p.tokTypeToOp(op.Type),
			Right:     right,
			Span:      expr.GetSpan().Merge(right.GetSpan()),
		})
	}
	return expr, nil
}

func (p *Parser) and() (ast.Expr, error) {
	expr, err := p.equality()
	if err != nil {
		return nil, err
	}
	operator := token.LogicalAnd
	if p.inSelectDepth > 0 {
		operator = token.And
	}
	for p.matchNext(operator) {
		op := p.peekBW(1)
		right, err := p.equality()
		if err != nil {
			return nil, err
		}
		expr = p.arena.AllocExpr(&ast.Logical{
			Left:      expr,
			Operation: p.tokTypeToOp(op.Type),
			Right:     right,
			Span:      expr.GetSpan().Merge(right.GetSpan()),
		})
	}
	return expr, nil
}

// binary parses a left-associative run of the given operator tokens over
// the next-tighter level.
func (p *Parser) binary(operators []token.Type, next func() (ast.Expr, error)) (ast.Expr, error) {
	expr, err := next()
	if err != nil {
		return nil, err
	}
	for p.matchNextOneOf(operators...) {
		op := p.peekBW(1)
		right, err := next()
		if err != nil {
			return nil, err
		}
		expr = p.arena.AllocExpr(&ast.Binary{
			Left:      expr,
			Operation: p.tokTypeToOp(op.Type),
			Right:     right,
			Span:      expr.GetSpan().Merge(right.GetSpan()),
		})
	}
	return expr, nil
}

func (p *Parser) equality() (ast.Expr, error) {
	if p.inSelectDepth > 0 {
		return p.binary([]token.Type{token.BangEqual, token.Equal}, p.comparison)
	}
	return p.binary([]token.Type{token.BangEqual, token.EqualEqual}, p.comparison)
}

func (p *Parser) comparison() (ast.Expr, error) {
	return p.binary([]token.Type{
		token.Greater, token.GreaterEqual, token.Less, token.LessEqual,
	}, p.cmpAdvanced)
}

// cmpAdvanced handles the SQL predicate forms that follow a comparison
// operand: IS, IS NOT, IN, NOT IN, LIKE, NOT LIKE, BETWEEN, NOT BETWEEN.
func (p *Parser) cmpAdvanced() (ast.Expr, error) {
	expr, err := p.term()
	if err != nil {
		return nil, err
	}

	conjTokens := []token.Type{token.Is, token.Not, token.In, token.Between, token.Like}

	var first, second token.Type
	hasFirst := p.matchNextOneOf(conjTokens...)
	if hasFirst {
		first = p.peekBW(1).Type
		if p.matchNextOneOf(conjTokens...) {
			second = p.peekBW(1).Type
		}
	}
	if !hasFirst {
		return expr, nil
	}

	var operation ast.Operation
	hasOperation := true
	switch {
	case first == token.Is && second == 0:
		operation = ast.Is
	case first == token.Is && second == token.Not:
		operation = ast.IsNot
	case first == token.In && second == 0:
		operation = ast.In
	case first == token.Not && second == token.In:
		operation = ast.NotIn
	case first == token.Like && second == 0:
		operation = ast.Like
	case first == token.Not && second == token.Like:
		operation = ast.NotLike
	default:
		hasOperation = false
	}

	if hasOperation {
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		return p.arena.AllocExpr(&ast.Binary{
			Left:      expr,
			Operation: operation,
			Right:     right,
			Span:      expr.GetSpan().Merge(right.GetSpan()),
		}), nil
	}

	switch {
	case first == token.Between && second == 0:
		return p.cmpBetween(expr, ast.RangeBetween)
	case first == token.Not && second == token.Between:
		return p.cmpBetween(expr, ast.RangeNotBetween)
	}
	return nil, ErrUnexpectedToken.New(p.peekBW(1).Type, p.peekBW(1).Span)
}

func (p *Parser) cmpBetween(subject ast.Expr, kind ast.RangeKind) (ast.Expr, error) {
	lower, err := p.term()
	if err != nil {
		return nil, err
	}
	if _, err := p.expected(token.And); err != nil {
		return nil, err
	}
	upper, err := p.term()
	if err != nil {
		return nil, err
	}
	return p.arena.AllocExpr(&ast.Between{
		Subject: subject,
		Lower:   lower,
		Upper:   upper,
		Kind:    kind,
		Span:    subject.GetSpan().Merge(upper.GetSpan()),
	}), nil
}

func (p *Parser) term() (ast.Expr, error) {
	return p.binary([]token.Type{token.Plus, token.Minus}, p.factor)
}

func (p *Parser) factor() (ast.Expr, error) {
	return p.binary([]token.Type{token.Star, token.Slash}, p.unary)
}

func (p *Parser) unary() (ast.Expr, error) {
	if p.matchNextOneOf(token.Minus, token.Bang) {
		op := p.peekBW(1)
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return p.arena.AllocExpr(&ast.Unary{
			Operation: p.tokTypeToOp(op.Type),
			Expr:      operand,
			Span:      op.Span.Merge(operand.GetSpan()),
		}), nil
	}
	return p.sqlInsert()
}

func (p *Parser) call() (ast.Expr, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}

	if variable, ok := expr.(*ast.Variable); ok && variable.Name.Kind == ast.IdentifierSymbol {
		next := p.peekFW(0).Type
		if next != token.LeftParen && next != token.DoubleColon {
			// A bare symbol identifier inside SELECT is row navigation, not a
			// variable read.
			head := variable.Name
			var tail []ast.Identifier
			for p.matchNext(token.Dot) {
				tok, err := p.expectedIdent(false)
				if err != nil {
					return nil, err
				}
				tail = append(tail, p.plainIdentifier(tok))
			}
			span := variable.Span
			if len(tail) > 0 {
				span = span.Merge(tail[len(tail)-1].Span)
			}
			return p.arena.AllocExpr(&ast.FieldPath{
				Head: head,
				Tail: tail,
				Span: span,
			}), nil
		}
		return p.expectGetPath(expr, token.DoubleColon)
	}

	return p.expectGetPath(expr, token.Dot)
}

func (p *Parser) expectGetPath(initial ast.Expr, accessor token.Type) (ast.Expr, error) {
	expr := initial
	for {
		switch {
		case p.matchNext(token.LeftParen):
			finished, err := p.finishCall(expr)
			if err != nil {
				return nil, err
			}
			expr = finished
		case p.matchNext(accessor):
			tok, err := p.expectedIdent(false)
			if err != nil {
				return nil, err
			}
			expr = p.arena.AllocExpr(&ast.Get{
				Object: expr,
				Name:   p.plainIdentifier(tok),
				Span:   expr.GetSpan().Merge(tok.Span),
			})
		default:
			return expr, nil
		}
	}
}

func (p *Parser) finishCall(callee ast.Expr) (ast.Expr, error) {
	var arguments []ast.Expr
	// a lone '*' argument, as in count(*)
	if p.cmpTok(token.Star) && p.peekFW(1).Type == token.RightParen {
		star := p.advance()
		arguments = append(arguments, p.arena.AllocExpr(&ast.Variable{
			Name: ast.Identifier{Name: "*", Kind: ast.IdentifierSymbol, Span: star.Span},
			Span: star.Span,
		}))
	} else if !p.cmpTok(token.RightParen) {
		arg, err := p.expression()
		if err != nil {
			return nil, err
		}
		arguments = append(arguments, arg)
		for p.matchNext(token.Comma) {
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			arguments = append(arguments, arg)
		}
	}
	paren, err := p.expected(token.RightParen)
	if err != nil {
		return nil, err
	}
	return p.arena.AllocExpr(&ast.Call{
		Callee: callee,
		Args:   arguments,
		Span:   callee.GetSpan().Merge(paren.Span),
	}), nil
}

func (p *Parser) objectLiteral(opening token.Item) (ast.Expr, error) {
	literal := ast.Object{}
	p.inObjectDepth++
	defer func() { p.inObjectDepth-- }()

	for !p.cmpTok(token.RightBrace) {
		var key string
		switch {
		case p.isIdent(0, false):
			key = p.advance().Text
		case p.cmpTok(token.Str):
			key = p.advance().Text
		case p.cmpTok(token.Num):
			key = ast.CanonicalNumber(p.advance().NumVal)
		default:
			tok := p.peekFW(0)
			return nil, ErrUnexpectedToken.New(tok.Type, tok.Span)
		}

		if _, err := p.expected(token.Colon); err != nil {
			return nil, err
		}
		value, err := p.expression()
		if err != nil {
			return nil, err
		}
		literal[key] = value
		if !p.matchNext(token.Comma) {
			break
		}
	}
	closing, err := p.expected(token.RightBrace)
	if err != nil {
		return nil, err
	}
	return p.arena.AllocExpr(&ast.Literal{
		Value: literal,
		Span:  opening.Span.Merge(closing.Span),
	}), nil
}

func (p *Parser) arrayLiteral(opening token.Item) (ast.Expr, error) {
	literal := ast.Array{}
	p.inArrayDepth++
	defer func() { p.inArrayDepth-- }()

	for !p.cmpTok(token.RightBracket) {
		value, err := p.expression()
		if err != nil {
			return nil, err
		}
		literal = append(literal, value)
		if !p.matchNext(token.Comma) {
			break
		}
	}
	closing, err := p.expected(token.RightBracket)
	if err != nil {
		return nil, err
	}
	return p.arena.AllocExpr(&ast.Literal{
		Value: literal,
		Span:  opening.Span.Merge(closing.Span),
	}), nil
}

func (p *Parser) primary() (ast.Expr, error) {
	tok := p.peekFW(0)
	if tok.Type == token.Eof {
		return nil, ErrUnexpectedToken.New(tok.Type, tok.Span)
	}
	p.current++
	switch tok.Type {
	case token.LeftBrace:
		return p.objectLiteral(tok)
	case token.LeftBracket:
		return p.arrayLiteral(tok)
	case token.LeftParen:
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expected(token.RightParen); err != nil {
			return nil, err
		}
		return p.arena.AllocExpr(&ast.Grouping{Expr: expr, Span: expr.GetSpan()}), nil
	case token.True:
		return p.arena.AllocExpr(&ast.Literal{Value: ast.Bool(true), Raw: "true", Span: tok.Span}), nil
	case token.False:
		return p.arena.AllocExpr(&ast.Literal{Value: ast.Bool(false), Raw: "false", Span: tok.Span}), nil
	case token.Undefined:
		return p.arena.AllocExpr(&ast.Literal{Value: ast.Undefined{}, Raw: "undefined", Span: tok.Span}), nil
	case token.Str:
		return p.arena.AllocExpr(&ast.Literal{Value: ast.Str(tok.Text), Raw: tok.Lexeme, Span: tok.Span}), nil
	case token.Num:
		return p.arena.AllocExpr(&ast.Literal{Value: ast.Num(tok.NumVal), Raw: tok.Lexeme, Span: tok.Span}), nil
	case token.Identifier:
		return p.arena.AllocExpr(&ast.Variable{Name: p.exprIdentifier(tok), Span: tok.Span}), nil
	}
	return nil, ErrUnexpectedToken.New(tok.Type, tok.Span)
}
