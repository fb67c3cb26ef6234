package ast

import "github.com/lykia-rs/lykiadb/token"

// SqlSelect is a full SELECT: one or more cores chained by compound
// operators, then ordering and limiting applied to the combined result.
type SqlSelect struct {
	Core    *SqlSelectCore
	OrderBy []SqlOrderByClause
	Limit   *SqlLimitClause
}

// SqlSelectCore is a single SELECT core (projection through HAVING) with an
// optional compound continuation.
type SqlSelectCore struct {
	Distinct   SqlDistinct
	Projection []SqlProjection
	From       SqlFrom
	Where      Expr
	GroupBy    []Expr
	Having     Expr
	Compound   *SqlSelectCompound
	Span       token.Span
}

// SqlCompoundOperator chains SELECT cores.
type SqlCompoundOperator int

const (
	Union SqlCompoundOperator = iota
	UnionAll
	Intersect
	Except
)

func (o SqlCompoundOperator) String() string {
	switch o {
	case UnionAll:
		return "UnionAll"
	case Intersect:
		return "Intersect"
	case Except:
		return "Except"
	default:
		return "Union"
	}
}

// SqlSelectCompound is a compound continuation of a SELECT core.
type SqlSelectCompound struct {
	Operator SqlCompoundOperator
	Core     *SqlSelectCore
}

// SqlDistinct is the distinct modifier of a SELECT core.
type SqlDistinct int

const (
	ImplicitAll SqlDistinct = iota
	All
	Distinct
)

func (d SqlDistinct) String() string {
	switch d {
	case All:
		return "All"
	case Distinct:
		return "Distinct"
	default:
		return "ImplicitAll"
	}
}

// SqlProjection is a single projection term.
type SqlProjection interface {
	sqlProjection()
}

// ProjectionAll is `*` or `collection.*`.
type ProjectionAll struct {
	Collection *Identifier
}

// ProjectionExpr is an expression projection with an optional alias.
type ProjectionExpr struct {
	Expr  Expr
	Alias *Identifier
}

func (*ProjectionAll) sqlProjection()  {}
func (*ProjectionExpr) sqlProjection() {}

// SqlFrom is a source term in the FROM clause.
type SqlFrom interface {
	sqlFrom()
}

// FromGroup is a comma-separated group of sources.
type FromGroup struct {
	Values []SqlFrom
}

// FromJoin is a join tree node. Constraint is the optional ON expression.
type FromJoin struct {
	Left       SqlFrom
	Right      SqlFrom
	JoinType   SqlJoinType
	Constraint Expr
}

// FromSelect is a parenthesized subquery source with its required alias.
type FromSelect struct {
	Subquery *Select
	Alias    *Identifier
}

func (*FromGroup) sqlFrom()               {}
func (*FromJoin) sqlFrom()                {}
func (*FromSelect) sqlFrom()              {}
func (*SqlCollectionIdentifier) sqlFrom() {}

// SqlJoinType distinguishes join flavors.
type SqlJoinType int

const (
	JoinInner SqlJoinType = iota
	JoinLeft
	JoinRight
)

func (j SqlJoinType) String() string {
	switch j {
	case JoinLeft:
		return "Left"
	case JoinRight:
		return "Right"
	default:
		return "Inner"
	}
}

// SqlCollectionIdentifier names a collection, optionally namespaced and
// aliased.
type SqlCollectionIdentifier struct {
	Namespace *Identifier
	Name      Identifier
	Alias     *Identifier
}

// Binding returns the name this collection is reachable by: the alias if
// present, the bare name otherwise.
func (c *SqlCollectionIdentifier) Binding() string {
	if c.Alias != nil {
		return c.Alias.Name
	}
	return c.Name.Name
}

// SqlOrdering is the direction of an ORDER BY key.
type SqlOrdering int

const (
	Asc SqlOrdering = iota
	Desc
)

func (o SqlOrdering) String() string {
	if o == Desc {
		return "Desc"
	}
	return "Asc"
}

// SqlOrderByClause is a single ORDER BY key.
type SqlOrderByClause struct {
	Expr     Expr
	Ordering SqlOrdering
}

// SqlLimitClause is LIMIT with an optional OFFSET.
type SqlLimitClause struct {
	Count  Expr
	Offset Expr
}

// SqlValues is the value source of an INSERT.
type SqlValues interface {
	sqlValues()
}

// ValuesList is INSERT ... VALUES (expr, ...), one document per expression.
type ValuesList struct {
	Values []Expr
}

// ValuesSelect is INSERT ... SELECT.
type ValuesSelect struct {
	Select SqlSelect
}

func (*ValuesList) sqlValues()   {}
func (*ValuesSelect) sqlValues() {}

// SqlInsert is an INSERT command.
type SqlInsert struct {
	Collection SqlCollectionIdentifier
	Values     SqlValues
}

// SqlAssignment is a single SET field = expr pair.
type SqlAssignment struct {
	Field Identifier
	Expr  Expr
}

// SqlUpdate is an UPDATE command.
type SqlUpdate struct {
	Collection  SqlCollectionIdentifier
	Assignments []SqlAssignment
	Where       Expr
}

// SqlDelete is a DELETE command.
type SqlDelete struct {
	Collection SqlCollectionIdentifier
	Where      Expr
}
