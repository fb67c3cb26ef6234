// Package plan lowers parsed queries into dataflow graphs of operators
// and executes them over in-memory collections. A SELECT becomes
// Source, Filter, Aggregate, Projection, post-projection Filter, Compound,
// Order, Offset, Limit, leaves first; INSERT, UPDATE, and DELETE become
// single mutation nodes.
package plan

import (
	"github.com/lykia-rs/lykiadb/ast"
	"github.com/lykia-rs/lykiadb/value"
)

// Evaluator evaluates expressions on behalf of the planner and executor.
// The interpreter implements it: Eval runs an expression against the host
// environment, EvalRow additionally activates an execution row whose
// fields shadow host variables.
type Evaluator interface {
	Eval(e ast.Expr) (value.Value, error)
	EvalRow(e ast.Expr, row *Row) (value.Value, error)
}

// Node is a dataflow operator.
type Node interface {
	node()
}

// IntermediateExpr is the planner's opaque wrapper around an expression.
// The reducer does not rewrite expressions; the executor evaluates them
// with the current row binding.
type IntermediateExpr struct {
	Expr ast.Expr
}

// Subquery pairs a SELECT expression found inside a clause with its
// lowered plan. The executor binds the materialized result under the
// expression's structural signature before evaluating the clause.
type Subquery struct {
	Select *ast.Select
	Node   Node
}

// AggregateExpr is a lifted aggregate call with its structural signature.
type AggregateExpr struct {
	Call *ast.Call
	Sig  uint64
}

// OrderKey is a single ordering key.
type OrderKey struct {
	Expr     IntermediateExpr
	Ordering ast.SqlOrdering
}

// Nothing is the source of a FROM-less select: exactly one empty row.
type Nothing struct{}

// Scan reads a collection.
type Scan struct {
	Collection ast.SqlCollectionIdentifier
}

// SubqueryScan reads the materialized result of an inner plan under an
// alias.
type SubqueryScan struct {
	Source Node
	Alias  string
}

// CrossJoin is the product of two sources.
type CrossJoin struct {
	Left  Node
	Right Node
}

// Join combines two sources under a join type and optional constraint.
type Join struct {
	Left       Node
	Right      Node
	JoinType   ast.SqlJoinType
	Constraint *IntermediateExpr
	Subqueries []Subquery
}

// Filter keeps rows whose predicate is truthy.
type Filter struct {
	Source     Node
	Predicate  IntermediateExpr
	Subqueries []Subquery
}

// Aggregate groups its input by the group-by key tuple and runs each
// aggregate's state machine per group.
type Aggregate struct {
	Source     Node
	GroupBy    []IntermediateExpr
	Aggregates []AggregateExpr
}

// Projection evaluates the original projection terms per row. Distinct
// dedupes the projected rows.
type Projection struct {
	Source   Node
	Fields   []ast.SqlProjection
	Distinct bool
}

// Compound combines a core's rows with the rows of its continuation.
type Compound struct {
	Source   Node
	Operator ast.SqlCompoundOperator
	Right    Node
}

// Order sorts rows by its keys.
type Order struct {
	Source Node
	Keys   []OrderKey
}

// Offset drops the first N rows.
type Offset struct {
	Source Node
	N      int
}

// Limit keeps the first N rows.
type Limit struct {
	Source Node
	N      int
}

// InsertNode appends evaluated documents, or a subplan's rows, to a
// collection.
type InsertNode struct {
	Collection ast.SqlCollectionIdentifier
	Values     []IntermediateExpr
	Source     Node
}

// UpdateNode applies SET assignments to matching documents in place.
type UpdateNode struct {
	Collection  ast.SqlCollectionIdentifier
	Assignments []ast.SqlAssignment
	Where       *IntermediateExpr
}

// DeleteNode removes matching documents.
type DeleteNode struct {
	Collection ast.SqlCollectionIdentifier
	Where      *IntermediateExpr
}

func (*Nothing) node()      {}
func (*Scan) node()         {}
func (*SubqueryScan) node() {}
func (*CrossJoin) node()    {}
func (*Join) node()         {}
func (*Filter) node()       {}
func (*Aggregate) node()    {}
func (*Projection) node()   {}
func (*Compound) node()     {}
func (*Order) node()        {}
func (*Offset) node()       {}
func (*Limit) node()        {}
func (*InsertNode) node()   {}
func (*UpdateNode) node()   {}
func (*DeleteNode) node()   {}

// IsMutation reports whether a plan mutates collections instead of
// producing rows.
func IsMutation(n Node) bool {
	switch n.(type) {
	case *InsertNode, *UpdateNode, *DeleteNode:
		return true
	}
	return false
}
