// Package parser provides the hand-written recursive descent parser that
// produces a shared AST for the scripting language and the embedded SQL
// sublanguage. Expression precedence is re-used inside SQL predicates
// while operator behavior adapts to SQL semantics: "=" means equality and
// AND/OR are keywords whenever the parser is inside a SELECT context.
package parser

import (
	"gopkg.in/src-d/go-errors.v1"

	"github.com/lykia-rs/lykiadb/ast"
	"github.com/lykia-rs/lykiadb/lexer"
	"github.com/lykia-rs/lykiadb/token"
)

var (
	// ErrNoTokens is returned for empty input.
	ErrNoTokens = errors.NewKind("no tokens to parse")
	// ErrUnexpectedToken is returned at the first token that fits no rule.
	ErrUnexpectedToken = errors.NewKind("unexpected token %s at %s")
	// ErrMissingToken is returned when a specific token was required.
	ErrMissingToken = errors.NewKind("missing token: expected %s at %s")
	// ErrInvalidAssignmentTarget is returned when the left side of an
	// assignment is neither a variable nor a property access.
	ErrInvalidAssignmentTarget = errors.NewKind("invalid assignment target at %s")
)

// Parser is a recursive descent parser over a scanned token sequence.
//
// Three counters modify precedence and keyword interpretation: the select,
// array, and object depths are incremented on entry to the corresponding
// syntactic context and decremented on exit.
type Parser struct {
	tokens  []token.Item
	current int
	arena   *ast.Arena

	inSelectDepth int
	inArrayDepth  int
	inObjectDepth int
}

// Parse parses a token sequence into a resolved-ready Program.
func Parse(tokens []token.Item) (*Program, error) {
	if len(tokens) == 0 || tokens[0].Type == token.Eof {
		return nil, ErrNoTokens.New()
	}
	p := &Parser{
		tokens: tokens,
		arena:  ast.NewArena(),
	}
	root, err := p.program()
	if err != nil {
		return nil, err
	}
	return newProgram(root, p.arena), nil
}

// Source scans, parses, and resolves source text in one step.
func Source(input string) (*Program, error) {
	tokens, err := lexer.Scan(input)
	if err != nil {
		return nil, err
	}
	program, err := Parse(tokens)
	if err != nil {
		return nil, err
	}
	Resolve(program)
	return program, nil
}

func (p *Parser) program() (*ast.Program, error) {
	var statements []ast.Stmt
	for !p.isAtEnd() {
		stmt, err := p.declaration()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}
	if _, err := p.expected(token.Eof); err != nil {
		return nil, err
	}
	span := token.Span{}
	if len(statements) > 0 {
		span = statements[0].GetSpan().Merge(statements[len(statements)-1].GetSpan())
	}
	root := p.arena.AllocStmt(&ast.Program{Body: statements, Span: span})
	return root.(*ast.Program), nil
}

func (p *Parser) declaration() (ast.Stmt, error) {
	if p.matchNext(token.Var) {
		return p.varDeclaration()
	}
	return p.statement()
}

func (p *Parser) statement() (ast.Stmt, error) {
	switch {
	case p.matchNext(token.If):
		return p.ifStatement()
	case p.matchNext(token.While):
		return p.whileStatement()
	case p.matchNext(token.For):
		return p.forStatement()
	case p.matchNext(token.Loop):
		return p.loopStatement()
	case p.matchNext(token.Break):
		return p.breakStatement()
	case p.matchNext(token.Continue):
		return p.continueStatement()
	case p.matchNext(token.Return):
		return p.returnStatement()
	case p.matchNext(token.Explain):
		return p.explainStatement()
	}
	// A leading "{" opens a block unless three-token lookahead reveals an
	// object literal.
	if p.looksLikeObjectLiteral() {
		return p.expressionStatement()
	}
	if p.matchNext(token.LeftBrace) {
		return p.block()
	}
	return p.expressionStatement()
}

func (p *Parser) looksLikeObjectLiteral() bool {
	if p.peekFW(0).Type != token.LeftBrace {
		return false
	}
	second := p.peekFW(1)
	third := p.peekFW(2)
	if second.Type == token.RightBrace {
		return true
	}
	keyLike := (second.Type == token.Identifier && !second.Dollar) ||
		second.Type == token.Str || second.Type == token.Num
	return keyLike && third.Type == token.Colon
}

func (p *Parser) ifStatement() (ast.Stmt, error) {
	ifTok := p.peekBW(1)
	if _, err := p.expected(token.LeftParen); err != nil {
		return nil, err
	}
	condition, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expected(token.RightParen); err != nil {
		return nil, err
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	var elseBody ast.Stmt
	if p.matchNext(token.Else) {
		elseBody, err = p.statement()
		if err != nil {
			return nil, err
		}
	}
	span := ifTok.Span.Merge(body.GetSpan())
	if elseBody != nil {
		span = ifTok.Span.Merge(elseBody.GetSpan())
	}
	return p.arena.AllocStmt(&ast.If{
		Condition: condition,
		Body:      body,
		ElseBody:  elseBody,
		Span:      span,
	}), nil
}

func (p *Parser) whileStatement() (ast.Stmt, error) {
	whileTok := p.peekBW(1)
	if _, err := p.expected(token.LeftParen); err != nil {
		return nil, err
	}
	condition, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expected(token.RightParen); err != nil {
		return nil, err
	}
	if _, err := p.expected(token.LeftBrace); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	p.matchNext(token.Semicolon)
	return p.arena.AllocStmt(&ast.Loop{
		Condition: condition,
		Body:      body,
		Span:      whileTok.Span.Merge(body.GetSpan()),
	}), nil
}

func (p *Parser) loopStatement() (ast.Stmt, error) {
	loopTok := p.peekBW(1)
	if _, err := p.expected(token.LeftBrace); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	p.matchNext(token.Semicolon)
	return p.arena.AllocStmt(&ast.Loop{
		Body: body,
		Span: loopTok.Span.Merge(body.GetSpan()),
	}), nil
}

// forStatement lowers "for (init; cond; post) { body }" to a Block wrapping
// a Loop when an initializer is present, and to a bare Loop otherwise.
func (p *Parser) forStatement() (ast.Stmt, error) {
	forTok := p.peekBW(1)
	if _, err := p.expected(token.LeftParen); err != nil {
		return nil, err
	}

	var initializer ast.Stmt
	if !p.matchNext(token.Semicolon) {
		var err error
		initializer, err = p.declaration()
		if err != nil {
			return nil, err
		}
	}

	var condition ast.Expr
	if !p.matchNext(token.Semicolon) {
		var err error
		condition, err = p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expected(token.Semicolon); err != nil {
			return nil, err
		}
	}

	var post ast.Stmt
	if !p.matchNext(token.RightParen) {
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expected(token.RightParen); err != nil {
			return nil, err
		}
		post = p.arena.AllocStmt(&ast.Expression{Expr: expr, Span: expr.GetSpan()})
	}

	if _, err := p.expected(token.LeftBrace); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	p.matchNext(token.Semicolon)

	span := forTok.Span.Merge(body.GetSpan())
	loop := p.arena.AllocStmt(&ast.Loop{
		Condition: condition,
		Body:      body,
		Post:      post,
		Span:      span,
	})
	if initializer == nil {
		return loop, nil
	}
	return p.arena.AllocStmt(&ast.Block{
		Body: []ast.Stmt{initializer, loop},
		Span: span,
	}), nil
}

func (p *Parser) block() (ast.Stmt, error) {
	openingBrace := p.peekBW(1)
	var statements []ast.Stmt
	for !p.cmpTok(token.RightBrace) && !p.isAtEnd() {
		stmt, err := p.declaration()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}
	closingBrace := p.peekFW(0)
	if _, err := p.expected(token.RightBrace); err != nil {
		return nil, err
	}
	return p.arena.AllocStmt(&ast.Block{
		Body: statements,
		Span: openingBrace.Span.Merge(closingBrace.Span),
	}), nil
}

func (p *Parser) breakStatement() (ast.Stmt, error) {
	tok := p.peekBW(1)
	if _, err := p.expected(token.Semicolon); err != nil {
		return nil, err
	}
	return p.arena.AllocStmt(&ast.Break{Span: tok.Span}), nil
}

func (p *Parser) continueStatement() (ast.Stmt, error) {
	tok := p.peekBW(1)
	if _, err := p.expected(token.Semicolon); err != nil {
		return nil, err
	}
	return p.arena.AllocStmt(&ast.Continue{Span: tok.Span}), nil
}

func (p *Parser) returnStatement() (ast.Stmt, error) {
	retTok := p.peekBW(1)
	var expr ast.Expr
	if !p.cmpTok(token.Semicolon) {
		var err error
		expr, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expected(token.Semicolon); err != nil {
		return nil, err
	}
	span := retTok.Span
	if expr != nil {
		span = span.Merge(expr.GetSpan())
	}
	return p.arena.AllocStmt(&ast.Return{Expr: expr, Span: span}), nil
}

func (p *Parser) explainStatement() (ast.Stmt, error) {
	explainTok := p.peekBW(1)
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expected(token.Semicolon); err != nil {
		return nil, err
	}
	return p.arena.AllocStmt(&ast.Explain{
		Expr: expr,
		Span: explainTok.Span.Merge(expr.GetSpan()),
	}), nil
}

func (p *Parser) expressionStatement() (ast.Stmt, error) {
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	// a function literal statement may omit its terminator
	if _, isFunction := expr.(*ast.Function); isFunction {
		p.matchNext(token.Semicolon)
	} else if _, err := p.expected(token.Semicolon); err != nil {
		return nil, err
	}
	return p.arena.AllocStmt(&ast.Expression{Expr: expr, Span: expr.GetSpan()}), nil
}

func (p *Parser) varDeclaration() (ast.Stmt, error) {
	varTok := p.peekBW(1)
	identTok, err := p.expectedIdent(true)
	if err != nil {
		return nil, err
	}
	ident := identTok
	var expr ast.Expr
	if p.matchNext(token.Equal) {
		expr, err = p.expression()
		if err != nil {
			return nil, err
		}
	} else {
		expr = p.arena.AllocExpr(&ast.Literal{
			Value: ast.Undefined{},
			Raw:   "undefined",
			Span:  varTok.Span.Merge(ident.Span),
		})
	}
	if _, err := p.expected(token.Semicolon); err != nil {
		return nil, err
	}
	return p.arena.AllocStmt(&ast.Declaration{
		Dst:  p.plainIdentifier(ident),
		Expr: expr,
		Span: varTok.Span.Merge(expr.GetSpan()),
	}), nil
}

// Token navigation.

func (p *Parser) advance() token.Item {
	if !p.isAtEnd() {
		p.current++
	}
	return p.peekBW(1)
}

func (p *Parser) isAtEnd() bool {
	return p.cmpTok(token.Eof)
}

func (p *Parser) peekBW(offset int) token.Item {
	return p.tokens[p.current-offset]
}

func (p *Parser) peekFW(offset int) token.Item {
	if p.current+offset >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+offset]
}

func (p *Parser) cmpTok(t token.Type) bool {
	return p.peekFW(0).Type == t
}

func (p *Parser) isIdent(offset int, dollar bool) bool {
	tok := p.peekFW(offset)
	return tok.Type == token.Identifier && tok.Dollar == dollar
}

func (p *Parser) matchNext(t token.Type) bool {
	if p.cmpTok(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) matchNextOneOf(types ...token.Type) bool {
	for _, t := range types {
		if p.cmpTok(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) expected(t token.Type) (token.Item, error) {
	if p.cmpTok(t) {
		return p.advance(), nil
	}
	return token.Item{}, ErrMissingToken.New(t, p.peekFW(0).Span)
}

func (p *Parser) expectedIdent(dollar bool) (token.Item, error) {
	if p.isIdent(0, dollar) {
		return p.advance(), nil
	}
	return token.Item{}, ErrMissingToken.New(token.Identifier, p.peekFW(0).Span)
}

// plainIdentifier lifts a token to an identifier in a structural position
// (declaration target, collection name, alias, property name): the kind is
// Variable for '$'-prefixed names and Plain otherwise.
func (p *Parser) plainIdentifier(tok token.Item) ast.Identifier {
	kind := ast.IdentifierPlain
	if tok.Dollar {
		kind = ast.IdentifierVariable
	}
	return ast.Identifier{Name: tok.Text, Kind: kind, Span: tok.Span}
}

// exprIdentifier lifts a token to an identifier in expression position:
// inside a SELECT context a non-'$' name is a Symbol (collection/field).
func (p *Parser) exprIdentifier(tok token.Item) ast.Identifier {
	switch {
	case tok.Dollar:
		return ast.Identifier{Name: tok.Text, Kind: ast.IdentifierVariable, Span: tok.Span}
	case p.inSelectDepth > 0:
		return ast.Identifier{Name: tok.Text, Kind: ast.IdentifierSymbol, Span: tok.Span}
	default:
		return ast.Identifier{Name: tok.Text, Kind: ast.IdentifierPlain, Span: tok.Span}
	}
}

func (p *Parser) tokTypeToOp(t token.Type) ast.Operation {
	switch t {
	case token.Plus:
		return ast.Add
	case token.Minus:
		return ast.Subtract
	case token.Star:
		return ast.Multiply
	case token.Slash:
		return ast.Divide
	case token.EqualEqual:
		return ast.IsEqual
	case token.Equal:
		// only reachable inside a SELECT context
		return ast.IsEqual
	case token.BangEqual:
		return ast.IsNotEqual
	case token.Greater:
		return ast.Greater
	case token.GreaterEqual:
		return ast.GreaterEqual
	case token.Less:
		return ast.Less
	case token.LessEqual:
		return ast.LessEqual
	case token.Bang:
		return ast.Not
	case token.LogicalAnd, token.And:
		return ast.And
	case token.LogicalOr, token.Or:
		return ast.Or
	}
	return ast.Not
}
