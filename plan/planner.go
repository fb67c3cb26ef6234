package plan

import (
	"math"

	"gopkg.in/src-d/go-errors.v1"

	"github.com/lykia-rs/lykiadb/ast"
	"github.com/lykia-rs/lykiadb/value"
)

var (
	// ErrHavingWithoutAggregation rejects HAVING on a core with neither
	// aggregates nor group-by keys.
	ErrHavingWithoutAggregation = errors.NewKind("HAVING without aggregation is not allowed at %s")
	// ErrSelectAllWithAggregation rejects * projections combined with
	// aggregation or grouping.
	ErrSelectAllWithAggregation = errors.NewKind("SELECT * with aggregation is not allowed at %s")
	// ErrSubqueryNotAllowed rejects subqueries in clauses that forbid them.
	ErrSubqueryNotAllowed = errors.NewKind("subquery is not allowed in %s at %s")
	// ErrAggregateNotAllowed rejects aggregate calls in clauses that forbid
	// them.
	ErrAggregateNotAllowed = errors.NewKind("aggregate is not allowed in %s at %s")
	// ErrInvalidLimit rejects LIMIT/OFFSET expressions that do not evaluate
	// to numbers.
	ErrInvalidLimit = errors.NewKind("LIMIT and OFFSET must evaluate to numbers at %s")
	// ErrUnknownCollection rejects a qualified star whose collection is not
	// reachable through FROM.
	ErrUnknownCollection = errors.NewKind("collection '%s' is not reachable through FROM at %s")
	// ErrNotPlannable is an internal guard for non-query expressions.
	ErrNotPlannable = errors.NewKind("expression cannot be planned")
)

// InClause tags every expression compilation site, purely for error
// messages.
type InClause int

const (
	InWhere InClause = iota
	InProjection
	InHaving
	InGroupBy
	InOrderBy
	InJoinOn
)

func (c InClause) String() string {
	switch c {
	case InProjection:
		return "SELECT"
	case InHaving:
		return "HAVING"
	case InGroupBy:
		return "GROUP BY"
	case InOrderBy:
		return "ORDER BY"
	case InJoinOn:
		return "JOIN ON"
	default:
		return "WHERE"
	}
}

// Planner lowers query expressions into dataflow plans.
type Planner struct {
	ev Evaluator
}

// NewPlanner creates a planner over an expression evaluator.
func NewPlanner(ev Evaluator) *Planner {
	return &Planner{ev: ev}
}

// Build dispatches on the query expression kind.
func (p *Planner) Build(e ast.Expr) (Node, error) {
	switch n := e.(type) {
	case *ast.Select:
		return p.buildSelect(&n.Query)
	case *ast.Insert:
		return p.buildInsert(&n.Command)
	case *ast.Update:
		return p.buildUpdate(&n.Command)
	case *ast.Delete:
		return p.buildDelete(&n.Command)
	}
	return nil, ErrNotPlannable.New()
}

// buildExpr compiles an expression for a clause: it validates aggregate
// placement, collects nested SELECTs (each lowered to a plan of its own),
// and wraps the original expression unrewritten.
func (p *Planner) buildExpr(
	e ast.Expr,
	clause InClause,
	scope *Scope,
	allowSubqueries bool,
	allowAggregates bool,
) (IntermediateExpr, []Subquery, error) {
	if !allowAggregates {
		if err := preventAggregatesIn(e, clause); err != nil {
			return IntermediateExpr{}, nil, err
		}
	}

	var selects []*ast.Select
	var walkErr error
	ast.WalkExpr(e, func(child ast.Expr) bool {
		if walkErr != nil {
			return false
		}
		if sel, ok := child.(*ast.Select); ok {
			if !allowSubqueries {
				walkErr = ErrSubqueryNotAllowed.New(clause, sel.GetSpan())
				return false
			}
			selects = append(selects, sel)
			return false
		}
		return true
	})
	if walkErr != nil {
		return IntermediateExpr{}, nil, walkErr
	}

	subqueries := make([]Subquery, 0, len(selects))
	for _, sel := range selects {
		inner, err := p.buildSelect(&sel.Query)
		if err != nil {
			return IntermediateExpr{}, nil, err
		}
		subqueries = append(subqueries, Subquery{Select: sel, Node: inner})
	}

	return IntermediateExpr{Expr: e}, subqueries, nil
}

func (p *Planner) buildFrom(from ast.SqlFrom, scope *Scope) (Node, error) {
	switch f := from.(type) {
	case *ast.FromGroup:
		var node Node
		for _, source := range f.Values {
			built, err := p.buildFrom(source, scope)
			if err != nil {
				return nil, err
			}
			if node == nil {
				node = built
			} else {
				node = &CrossJoin{Left: node, Right: built}
			}
		}
		if node == nil {
			return &Nothing{}, nil
		}
		return node, nil
	case *ast.FromJoin:
		left, err := p.buildFrom(f.Left, scope)
		if err != nil {
			return nil, err
		}
		right, err := p.buildFrom(f.Right, scope)
		if err != nil {
			return nil, err
		}
		join := &Join{Left: left, Right: right, JoinType: f.JoinType}
		if f.Constraint != nil {
			constraint, subqueries, err := p.buildExpr(f.Constraint, InJoinOn, scope, true, false)
			if err != nil {
				return nil, err
			}
			join.Constraint = &constraint
			join.Subqueries = subqueries
		}
		return join, nil
	case *ast.FromSelect:
		inner, err := p.buildSelect(&f.Subquery.Query)
		if err != nil {
			return nil, err
		}
		scope.Define(f.Alias.Name)
		return &SubqueryScan{Source: inner, Alias: f.Alias.Name}, nil
	case *ast.SqlCollectionIdentifier:
		scope.Define(f.Binding())
		return &Scan{Collection: *f}, nil
	}
	return &Nothing{}, nil
}

func (p *Planner) buildSelectCore(core *ast.SqlSelectCore) (Node, error) {
	var node Node = &Nothing{}
	coreScope := NewScope()

	if core.From != nil {
		built, err := p.buildFrom(core.From, coreScope)
		if err != nil {
			return nil, err
		}
		node = built
	}

	if core.Where != nil {
		predicate, subqueries, err := p.buildExpr(core.Where, InWhere, coreScope, true, false)
		if err != nil {
			return nil, err
		}
		node = &Filter{Source: node, Predicate: predicate, Subqueries: subqueries}
	}

	aggregates := collectAggregates(core)

	var groupBy []IntermediateExpr
	for _, key := range core.GroupBy {
		compiled, _, err := p.buildExpr(key, InGroupBy, coreScope, false, false)
		if err != nil {
			return nil, err
		}
		groupBy = append(groupBy, compiled)
	}

	if len(aggregates) > 0 || len(groupBy) > 0 {
		for _, projection := range core.Projection {
			if _, ok := projection.(*ast.ProjectionAll); ok {
				return nil, ErrSelectAllWithAggregation.New(core.Span)
			}
		}
		node = &Aggregate{Source: node, GroupBy: groupBy, Aggregates: aggregates}
	} else if core.Having != nil {
		// fail fast on HAVING without aggregation
		return nil, ErrHavingWithoutAggregation.New(core.Having.GetSpan())
	}

	if !isSelectAllOnly(core.Projection) {
		for _, projection := range core.Projection {
			if all, ok := projection.(*ast.ProjectionAll); ok && all.Collection != nil {
				// a qualified star must name a source reachable through FROM
				if !coreScope.Has(all.Collection.Name) {
					return nil, ErrUnknownCollection.New(all.Collection.Name, all.Collection.Span)
				}
			}
			if proj, ok := projection.(*ast.ProjectionExpr); ok {
				// compilation validates placement; the original projection
				// terms are preserved for display and execution
				if _, _, err := p.buildExpr(proj.Expr, InProjection, coreScope, false, true); err != nil {
					return nil, err
				}
			}
		}
		node = &Projection{
			Source:   node,
			Fields:   core.Projection,
			Distinct: core.Distinct == ast.Distinct,
		}
	}

	if core.Having != nil && (len(aggregates) > 0 || len(groupBy) > 0) {
		predicate, subqueries, err := p.buildExpr(core.Having, InHaving, coreScope, true, true)
		if err != nil {
			return nil, err
		}
		node = &Filter{Source: node, Predicate: predicate, Subqueries: subqueries}
	}

	if core.Compound != nil {
		right, err := p.buildSelectCore(core.Compound.Core)
		if err != nil {
			return nil, err
		}
		node = &Compound{Source: node, Operator: core.Compound.Operator, Right: right}
	}
	return node, nil
}

func isSelectAllOnly(projection []ast.SqlProjection) bool {
	if len(projection) != 1 {
		return false
	}
	all, ok := projection[0].(*ast.ProjectionAll)
	return ok && all.Collection == nil
}

func (p *Planner) buildSelect(query *ast.SqlSelect) (Node, error) {
	node, err := p.buildSelectCore(query.Core)
	if err != nil {
		return nil, err
	}
	rootScope := NewScope()

	if len(query.OrderBy) > 0 {
		var keys []OrderKey
		for _, key := range query.OrderBy {
			compiled, _, err := p.buildExpr(key.Expr, InOrderBy, rootScope, false, true)
			if err != nil {
				return nil, err
			}
			keys = append(keys, OrderKey{Expr: compiled, Ordering: key.Ordering})
		}
		node = &Order{Source: node, Keys: keys}
	}

	if query.Limit != nil {
		if query.Limit.Offset != nil {
			offset, err := p.evalConstantCount(query.Limit.Offset)
			if err != nil {
				return nil, err
			}
			node = &Offset{Source: node, N: offset}
		}
		count, err := p.evalConstantCount(query.Limit.Count)
		if err != nil {
			return nil, err
		}
		node = &Limit{Source: node, N: count}
	}

	return node, nil
}

// evalConstantCount eagerly evaluates a LIMIT or OFFSET expression.
func (p *Planner) evalConstantCount(e ast.Expr) (int, error) {
	evaluated, err := p.ev.Eval(e)
	if err != nil {
		return 0, err
	}
	n, ok := value.AsNumber(evaluated)
	if !ok {
		return 0, ErrInvalidLimit.New(e.GetSpan())
	}
	return int(math.Floor(n)), nil
}

func (p *Planner) buildInsert(cmd *ast.SqlInsert) (Node, error) {
	node := &InsertNode{Collection: cmd.Collection}
	switch values := cmd.Values.(type) {
	case *ast.ValuesList:
		for _, e := range values.Values {
			node.Values = append(node.Values, IntermediateExpr{Expr: e})
		}
	case *ast.ValuesSelect:
		source, err := p.buildSelect(&values.Select)
		if err != nil {
			return nil, err
		}
		node.Source = source
	}
	return node, nil
}

func (p *Planner) buildUpdate(cmd *ast.SqlUpdate) (Node, error) {
	node := &UpdateNode{Collection: cmd.Collection, Assignments: cmd.Assignments}
	if cmd.Where != nil {
		where, _, err := p.buildExpr(cmd.Where, InWhere, NewScope(), false, false)
		if err != nil {
			return nil, err
		}
		node.Where = &where
	}
	return node, nil
}

func (p *Planner) buildDelete(cmd *ast.SqlDelete) (Node, error) {
	node := &DeleteNode{Collection: cmd.Collection, Where: nil}
	if cmd.Where != nil {
		where, _, err := p.buildExpr(cmd.Where, InWhere, NewScope(), false, false)
		if err != nil {
			return nil, err
		}
		node.Where = &where
	}
	return node, nil
}
