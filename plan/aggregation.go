package plan

import (
	"strings"

	"github.com/mitchellh/hashstructure"

	"github.com/lykia-rs/lykiadb/ast"
)

// Aggregates is the single registry of aggregate names, consulted by both
// aggregate collection and the checks that forbid aggregates in a clause,
// so the two can never disagree.
var Aggregates = map[string]bool{
	"count": true,
	"sum":   true,
	"avg":   true,
	"min":   true,
	"max":   true,
}

// IsAggregateName reports whether a callee name is a registered aggregate.
func IsAggregateName(name string) bool {
	return Aggregates[strings.ToLower(name)]
}

// aggregateCall returns the aggregate name when e is a call whose callee
// identifier names a registered aggregate.
func aggregateCall(e ast.Expr) (string, *ast.Call, bool) {
	call, ok := e.(*ast.Call)
	if !ok {
		return "", nil, false
	}
	var name string
	switch callee := call.Callee.(type) {
	case *ast.Variable:
		name = callee.Name.Name
	case *ast.FieldPath:
		if len(callee.Tail) != 0 {
			return "", nil, false
		}
		name = callee.Head.Name
	default:
		return "", nil, false
	}
	if !IsAggregateName(name) {
		return "", nil, false
	}
	return strings.ToLower(name), call, true
}

// Signature computes the canonical structural signature of an expression:
// a hash over its JSON form, which excludes spans and ids. Textually equal
// expressions share a signature.
func Signature(e ast.Expr) uint64 {
	sig, err := hashstructure.Hash(ast.ToJSON(e), nil)
	if err != nil {
		return 0
	}
	return sig
}

// collectAggregates scans a core's projection and HAVING clause for
// aggregate calls, deduplicated by structural signature.
func collectAggregates(core *ast.SqlSelectCore) []AggregateExpr {
	var out []AggregateExpr
	seen := map[uint64]bool{}

	lift := func(e ast.Expr) {
		ast.WalkExpr(e, func(child ast.Expr) bool {
			if _, ok := child.(*ast.Select); ok {
				return false
			}
			if _, call, ok := aggregateCall(child); ok {
				sig := Signature(call)
				if !seen[sig] {
					seen[sig] = true
					out = append(out, AggregateExpr{Call: call, Sig: sig})
				}
			}
			return true
		})
	}

	for _, projection := range core.Projection {
		if p, ok := projection.(*ast.ProjectionExpr); ok {
			lift(p.Expr)
		}
	}
	if core.Having != nil {
		lift(core.Having)
	}
	return out
}

// preventAggregatesIn rejects any aggregate call in an expression compiled
// for a clause that does not accept aggregates. Nested subqueries are not
// descended into; their clauses validate themselves.
func preventAggregatesIn(e ast.Expr, clause InClause) error {
	var found *ast.Call
	ast.WalkExpr(e, func(child ast.Expr) bool {
		if found != nil {
			return false
		}
		if _, ok := child.(*ast.Select); ok {
			return false
		}
		if _, call, ok := aggregateCall(child); ok {
			found = call
			return false
		}
		return true
	})
	if found != nil {
		return ErrAggregateNotAllowed.New(clause, found.GetSpan())
	}
	return nil
}
