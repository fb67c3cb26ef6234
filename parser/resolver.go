package parser

import (
	"strings"

	"github.com/lykia-rs/lykiadb/ast"
)

// Resolve pre-computes lexical distances from variable references to their
// declaring scopes. References that resolve to no frame get no entry; the
// runtime falls back to the root frame for those, so use-before-definition
// is a runtime error, not a resolve error.
func Resolve(program *Program) {
	r := &resolver{program: program}
	r.beginScope()
	for _, stmt := range program.Root.Body {
		r.stmt(stmt)
	}
	r.endScope()
}

type resolver struct {
	program *Program
	scopes  []map[string]bool
}

func (r *resolver) beginScope() {
	r.scopes = append(r.scopes, map[string]bool{})
}

func (r *resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *resolver) declare(name string) {
	if len(r.scopes) == 0 {
		return
	}
	r.scopes[len(r.scopes)-1][name] = true
}

// resolveLocal searches the scope stack innermost outward and records the
// distance when the name is found.
func (r *resolver) resolveLocal(e ast.Expr, name string) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if r.scopes[i][name] {
			r.program.distances[e.ExprID()] = len(r.scopes) - 1 - i
			return
		}
	}
}

func (r *resolver) stmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Program:
		for _, stmt := range n.Body {
			r.stmt(stmt)
		}
	case *ast.Expression:
		r.expr(n.Expr)
	case *ast.Declaration:
		r.expr(n.Expr)
		r.declare(n.Dst.Name)
	case *ast.Block:
		r.beginScope()
		for _, stmt := range n.Body {
			r.stmt(stmt)
		}
		r.endScope()
	case *ast.If:
		r.expr(n.Condition)
		r.stmt(n.Body)
		if n.ElseBody != nil {
			r.stmt(n.ElseBody)
		}
	case *ast.Loop:
		if n.Condition != nil {
			r.expr(n.Condition)
		}
		r.stmt(n.Body)
		if n.Post != nil {
			r.stmt(n.Post)
		}
	case *ast.Return:
		if n.Expr != nil {
			r.expr(n.Expr)
		}
	case *ast.Explain:
		r.expr(n.Expr)
	}
}

func (r *resolver) expr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.Literal:
		switch v := n.Value.(type) {
		case ast.Object:
			for _, value := range v {
				r.expr(value)
			}
		case ast.Array:
			for _, value := range v {
				r.expr(value)
			}
		}
	case *ast.Variable:
		r.resolveLocal(n, n.Name.Name)
	case *ast.Grouping:
		r.expr(n.Expr)
	case *ast.Unary:
		r.expr(n.Expr)
	case *ast.Binary:
		r.expr(n.Left)
		r.expr(n.Right)
	case *ast.Logical:
		r.expr(n.Left)
		r.expr(n.Right)
	case *ast.Assignment:
		r.expr(n.Expr)
		r.resolveLocal(n, n.Dst.Name)
	case *ast.Call:
		r.expr(n.Callee)
		for _, arg := range n.Args {
			r.expr(arg)
		}
	case *ast.Function:
		// A named function literal defines its name in the surrounding
		// frame; parameters and body share one fresh frame.
		if n.Name != nil {
			r.declare(n.Name.Name)
		}
		r.beginScope()
		for _, param := range n.Parameters {
			r.declare(param.Name)
		}
		for _, stmt := range n.Body {
			r.stmt(stmt)
		}
		r.endScope()
	case *ast.Get:
		r.expr(n.Object)
	case *ast.Set:
		r.expr(n.Object)
		r.expr(n.Value)
	case *ast.FieldPath:
		// only '$'-prefixed heads refer to host variables; bare heads are
		// row fields resolved during query execution
		if strings.HasPrefix(n.Head.Name, "$") {
			r.resolveLocal(n, n.Head.Name)
		}
	case *ast.Between:
		r.expr(n.Subject)
		r.expr(n.Lower)
		r.expr(n.Upper)
	case *ast.Select:
		r.sqlSelect(&n.Query)
	case *ast.Insert:
		switch values := n.Command.Values.(type) {
		case *ast.ValuesList:
			for _, value := range values.Values {
				r.expr(value)
			}
		case *ast.ValuesSelect:
			r.sqlSelect(&values.Select)
		}
	case *ast.Update:
		for _, assignment := range n.Command.Assignments {
			r.expr(assignment.Expr)
		}
		if n.Command.Where != nil {
			r.expr(n.Command.Where)
		}
	case *ast.Delete:
		if n.Command.Where != nil {
			r.expr(n.Command.Where)
		}
	}
}

func (r *resolver) sqlSelect(q *ast.SqlSelect) {
	for core := q.Core; core != nil; {
		r.sqlCore(core)
		if core.Compound == nil {
			break
		}
		core = core.Compound.Core
	}
	for _, key := range q.OrderBy {
		r.expr(key.Expr)
	}
	if q.Limit != nil {
		r.expr(q.Limit.Count)
		if q.Limit.Offset != nil {
			r.expr(q.Limit.Offset)
		}
	}
}

func (r *resolver) sqlCore(core *ast.SqlSelectCore) {
	for _, projection := range core.Projection {
		if p, ok := projection.(*ast.ProjectionExpr); ok {
			r.expr(p.Expr)
		}
	}
	r.sqlFrom(core.From)
	if core.Where != nil {
		r.expr(core.Where)
	}
	for _, key := range core.GroupBy {
		r.expr(key)
	}
	if core.Having != nil {
		r.expr(core.Having)
	}
}

func (r *resolver) sqlFrom(from ast.SqlFrom) {
	switch f := from.(type) {
	case *ast.FromGroup:
		for _, value := range f.Values {
			r.sqlFrom(value)
		}
	case *ast.FromJoin:
		r.sqlFrom(f.Left)
		r.sqlFrom(f.Right)
		if f.Constraint != nil {
			r.expr(f.Constraint)
		}
	case *ast.FromSelect:
		r.expr(f.Subquery)
	}
}
