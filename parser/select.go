package parser

import (
	"github.com/lykia-rs/lykiadb/ast"
	"github.com/lykia-rs/lykiadb/token"
)

func (p *Parser) sqlSelect() (ast.Expr, error) {
	if !p.cmpTok(token.Select) {
		return p.call()
	}
	selectTok := p.peekFW(0)

	query, err := p.sqlSelectInner()
	if err != nil {
		return nil, err
	}

	return p.arena.AllocExpr(&ast.Select{
		Query: *query,
		Span:  selectTok.Span.Merge(p.peekBW(1).Span),
	}), nil
}

func (p *Parser) sqlSelectInner() (*ast.SqlSelect, error) {
	p.inSelectDepth++
	defer func() { p.inSelectDepth-- }()

	core, err := p.sqlSelectCore()
	if err != nil {
		return nil, err
	}

	var orderBy []ast.SqlOrderByClause
	if p.matchNext(token.Order) {
		if _, err := p.expected(token.By); err != nil {
			return nil, err
		}
		for {
			expr, err := p.expression()
			if err != nil {
				return nil, err
			}
			ordering := ast.Asc
			if p.matchNext(token.Desc) {
				ordering = ast.Desc
			} else {
				p.matchNext(token.Asc)
			}
			orderBy = append(orderBy, ast.SqlOrderByClause{Expr: expr, Ordering: ordering})
			if !p.matchNext(token.Comma) {
				break
			}
		}
	}

	var limit *ast.SqlLimitClause
	if p.matchNext(token.Limit) {
		first, err := p.expression()
		if err != nil {
			return nil, err
		}
		var second ast.Expr
		reversed := false
		if p.matchNext(token.Offset) {
			second, err = p.expression()
			if err != nil {
				return nil, err
			}
		} else if p.matchNext(token.Comma) {
			// LIMIT a, b reads the offset first and the count second
			second, err = p.expression()
			if err != nil {
				return nil, err
			}
			reversed = true
		}

		if second != nil && reversed {
			limit = &ast.SqlLimitClause{Count: second, Offset: first}
		} else {
			limit = &ast.SqlLimitClause{Count: first, Offset: second}
		}
	}

	return &ast.SqlSelect{Core: core, OrderBy: orderBy, Limit: limit}, nil
}

func (p *Parser) sqlSelectCore() (*ast.SqlSelectCore, error) {
	selectTok, err := p.expected(token.Select)
	if err != nil {
		return nil, err
	}

	distinct := ast.ImplicitAll
	if p.matchNext(token.Distinct) {
		distinct = ast.Distinct
	} else if p.matchNext(token.All) {
		distinct = ast.All
	}

	projection, err := p.sqlSelectProjection()
	if err != nil {
		return nil, err
	}
	from, err := p.sqlSelectFrom()
	if err != nil {
		return nil, err
	}

	var where ast.Expr
	if p.matchNext(token.Where) {
		where, err = p.expression()
		if err != nil {
			return nil, err
		}
	}

	var groupBy []ast.Expr
	if p.matchNext(token.Group) {
		if _, err := p.expected(token.By); err != nil {
			return nil, err
		}
		for {
			key, err := p.expression()
			if err != nil {
				return nil, err
			}
			groupBy = append(groupBy, key)
			if !p.matchNext(token.Comma) {
				break
			}
		}
	}

	var having ast.Expr
	if p.matchNext(token.Having) {
		having, err = p.expression()
		if err != nil {
			return nil, err
		}
	}

	var compound *ast.SqlSelectCompound
	if p.matchNextOneOf(token.Union, token.Intersect, token.Except) {
		op := p.peekBW(1)
		var operator ast.SqlCompoundOperator
		switch op.Type {
		case token.Union:
			operator = ast.Union
			if p.matchNext(token.All) {
				operator = ast.UnionAll
			}
		case token.Intersect:
			operator = ast.Intersect
		case token.Except:
			operator = ast.Except
		}
		right, err := p.sqlSelectCore()
		if err != nil {
			return nil, err
		}
		compound = &ast.SqlSelectCompound{Operator: operator, Core: right}
	}

	return &ast.SqlSelectCore{
		Distinct:   distinct,
		Projection: projection,
		From:       from,
		Where:      where,
		GroupBy:    groupBy,
		Having:     having,
		Compound:   compound,
		Span:       selectTok.Span.Merge(p.peekBW(1).Span),
	}, nil
}

func (p *Parser) sqlSelectProjection() ([]ast.SqlProjection, error) {
	var projections []ast.SqlProjection
	for {
		switch {
		case p.matchNext(token.Star):
			projections = append(projections, &ast.ProjectionAll{})
		case p.isIdent(0, false) && p.peekFW(1).Type == token.Dot && p.peekFW(2).Type == token.Star:
			collectionTok := p.advance()
			p.advance() // .
			p.advance() // *
			collection := p.plainIdentifier(collectionTok)
			projections = append(projections, &ast.ProjectionAll{Collection: &collection})
		default:
			expr, err := p.expression()
			if err != nil {
				return nil, err
			}
			alias, err := p.sqlOptionalAlias()
			if err != nil {
				return nil, err
			}
			projections = append(projections, &ast.ProjectionExpr{Expr: expr, Alias: alias})
		}
		if !p.matchNext(token.Comma) {
			break
		}
	}
	return projections, nil
}

// sqlOptionalAlias matches "AS name" or a bare trailing name.
func (p *Parser) sqlOptionalAlias() (*ast.Identifier, error) {
	if p.matchNext(token.As) {
		tok, err := p.expectedIdent(false)
		if err != nil {
			return nil, err
		}
		alias := p.plainIdentifier(tok)
		return &alias, nil
	}
	if p.isIdent(0, false) {
		alias := p.plainIdentifier(p.advance())
		return &alias, nil
	}
	return nil, nil
}

func (p *Parser) sqlSelectFrom() (ast.SqlFrom, error) {
	if !p.matchNext(token.From) {
		return nil, nil
	}
	return p.sqlFromGroup()
}

// sqlFromGroup parses a comma-separated group of source terms, folding
// join keywords into left-associative join trees.
func (p *Parser) sqlFromGroup() (ast.SqlFrom, error) {
	var group []ast.SqlFrom

	for {
		left, err := p.sqlFromSource()
		if err != nil {
			return nil, err
		}
		group = append(group, left)
		for p.matchNextOneOf(token.Left, token.Right, token.Inner, token.Join) {
			peek := p.peekBW(1)
			var joinType ast.SqlJoinType
			switch peek.Type {
			case token.Inner:
				if _, err := p.expected(token.Join); err != nil {
					return nil, err
				}
				joinType = ast.JoinInner
			case token.Left:
				p.matchNext(token.Outer)
				if _, err := p.expected(token.Join); err != nil {
					return nil, err
				}
				joinType = ast.JoinLeft
			case token.Right:
				p.matchNext(token.Outer)
				if _, err := p.expected(token.Join); err != nil {
					return nil, err
				}
				joinType = ast.JoinRight
			default:
				joinType = ast.JoinInner
			}
			right, err := p.sqlFromSource()
			if err != nil {
				return nil, err
			}
			var constraint ast.Expr
			if p.matchNext(token.On) {
				constraint, err = p.expression()
				if err != nil {
					return nil, err
				}
			}
			leftPopped := group[len(group)-1]
			group[len(group)-1] = &ast.FromJoin{
				Left:       leftPopped,
				Right:      right,
				JoinType:   joinType,
				Constraint: constraint,
			}
		}
		if !p.matchNext(token.Comma) {
			break
		}
	}

	return &ast.FromGroup{Values: group}, nil
}

// sqlFromSource parses a single source term: a parenthesized subquery with
// its required alias, a parenthesized group, or a collection identifier.
func (p *Parser) sqlFromSource() (ast.SqlFrom, error) {
	if p.matchNext(token.LeftParen) {
		if p.cmpTok(token.Select) {
			subquery, err := p.sqlSelect()
			if err != nil {
				return nil, err
			}
			if _, err := p.expected(token.RightParen); err != nil {
				return nil, err
			}
			alias, err := p.sqlOptionalAlias()
			if err != nil {
				return nil, err
			}
			if alias == nil {
				return nil, ErrMissingToken.New(token.Identifier, p.peekFW(0).Span)
			}
			return &ast.FromSelect{Subquery: subquery.(*ast.Select), Alias: alias}, nil
		}
		group, err := p.sqlFromGroup()
		if err != nil {
			return nil, err
		}
		if _, err := p.expected(token.RightParen); err != nil {
			return nil, err
		}
		return group, nil
	}
	collection, err := p.sqlCollectionIdentifier()
	if err != nil {
		return nil, err
	}
	if collection == nil {
		tok := p.peekFW(0)
		return nil, ErrUnexpectedToken.New(tok.Type, tok.Span)
	}
	return collection, nil
}

// sqlCollectionIdentifier parses "ns.name" or "name" with an optional
// alias, returning nil when the current token is not an identifier.
func (p *Parser) sqlCollectionIdentifier() (*ast.SqlCollectionIdentifier, error) {
	if !p.isIdent(0, false) {
		return nil, nil
	}
	if p.peekFW(1).Type == token.Dot && p.isIdent(2, false) {
		namespaceTok := p.advance()
		p.advance() // .
		nameTok := p.advance()
		namespace := p.plainIdentifier(namespaceTok)
		alias, err := p.sqlOptionalAlias()
		if err != nil {
			return nil, err
		}
		return &ast.SqlCollectionIdentifier{
			Namespace: &namespace,
			Name:      p.plainIdentifier(nameTok),
			Alias:     alias,
		}, nil
	}
	nameTok := p.advance()
	alias, err := p.sqlOptionalAlias()
	if err != nil {
		return nil, err
	}
	return &ast.SqlCollectionIdentifier{
		Name:  p.plainIdentifier(nameTok),
		Alias: alias,
	}, nil
}
