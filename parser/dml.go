package parser

import (
	"github.com/lykia-rs/lykiadb/ast"
	"github.com/lykia-rs/lykiadb/token"
)

// INSERT, UPDATE, and DELETE share the SELECT expression engine; the
// select depth is raised for the whole command so predicates use SQL
// operator semantics.

func (p *Parser) sqlInsert() (ast.Expr, error) {
	if !p.cmpTok(token.Insert) {
		return p.sqlUpdate()
	}
	insertTok := p.advance()
	p.inSelectDepth++
	defer func() { p.inSelectDepth-- }()

	if _, err := p.expected(token.Into); err != nil {
		return nil, err
	}
	collection, err := p.sqlCollectionIdentifier()
	if err != nil {
		return nil, err
	}
	if collection == nil {
		tok := p.peekFW(0)
		return nil, ErrUnexpectedToken.New(tok.Type, tok.Span)
	}

	var values ast.SqlValues
	switch {
	case p.cmpTok(token.Select):
		query, err := p.sqlSelectInner()
		if err != nil {
			return nil, err
		}
		values = &ast.ValuesSelect{Select: *query}
	case p.matchNext(token.Values):
		if _, err := p.expected(token.LeftParen); err != nil {
			return nil, err
		}
		var list []ast.Expr
		for {
			value, err := p.expression()
			if err != nil {
				return nil, err
			}
			list = append(list, value)
			if !p.matchNext(token.Comma) {
				break
			}
		}
		if _, err := p.expected(token.RightParen); err != nil {
			return nil, err
		}
		values = &ast.ValuesList{Values: list}
	default:
		tok := p.peekFW(0)
		return nil, ErrUnexpectedToken.New(tok.Type, tok.Span)
	}

	return p.arena.AllocExpr(&ast.Insert{
		Command: ast.SqlInsert{Collection: *collection, Values: values},
		Span:    insertTok.Span.Merge(p.peekBW(1).Span),
	}), nil
}

func (p *Parser) sqlUpdate() (ast.Expr, error) {
	if !p.cmpTok(token.Update) {
		return p.sqlDelete()
	}
	updateTok := p.advance()
	p.inSelectDepth++
	defer func() { p.inSelectDepth-- }()

	collection, err := p.sqlCollectionIdentifier()
	if err != nil {
		return nil, err
	}
	if collection == nil {
		tok := p.peekFW(0)
		return nil, ErrUnexpectedToken.New(tok.Type, tok.Span)
	}

	if _, err := p.expected(token.Set); err != nil {
		return nil, err
	}

	var assignments []ast.SqlAssignment
	for {
		fieldTok, err := p.expectedIdent(false)
		if err != nil {
			return nil, err
		}
		if _, err := p.expected(token.Equal); err != nil {
			return nil, err
		}
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, ast.SqlAssignment{
			Field: p.plainIdentifier(fieldTok),
			Expr:  expr,
		})
		if !p.matchNext(token.Comma) {
			break
		}
	}

	var where ast.Expr
	if p.matchNext(token.Where) {
		where, err = p.expression()
		if err != nil {
			return nil, err
		}
	}

	return p.arena.AllocExpr(&ast.Update{
		Command: ast.SqlUpdate{
			Collection:  *collection,
			Assignments: assignments,
			Where:       where,
		},
		Span: updateTok.Span.Merge(p.peekBW(1).Span),
	}), nil
}

func (p *Parser) sqlDelete() (ast.Expr, error) {
	if !p.cmpTok(token.Delete) {
		return p.sqlSelect()
	}
	deleteTok := p.advance()
	p.inSelectDepth++
	defer func() { p.inSelectDepth-- }()

	if _, err := p.expected(token.From); err != nil {
		return nil, err
	}
	collection, err := p.sqlCollectionIdentifier()
	if err != nil {
		return nil, err
	}
	if collection == nil {
		tok := p.peekFW(0)
		return nil, ErrUnexpectedToken.New(tok.Type, tok.Span)
	}

	var where ast.Expr
	if p.matchNext(token.Where) {
		where, err = p.expression()
		if err != nil {
			return nil, err
		}
	}

	return p.arena.AllocExpr(&ast.Delete{
		Command: ast.SqlDelete{Collection: *collection, Where: where},
		Span:    deleteTok.Span.Merge(p.peekBW(1).Span),
	}), nil
}
