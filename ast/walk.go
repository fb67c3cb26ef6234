package ast

// WalkExpr visits e and its descendant expressions in pre-order. Returning
// false from visit skips the node's children; for Select/Insert/Update/
// Delete nodes the children are the expressions embedded in their SQL
// clauses.
func WalkExpr(e Expr, visit func(Expr) bool) {
	if e == nil || !visit(e) {
		return
	}
	switch n := e.(type) {
	case *Grouping:
		WalkExpr(n.Expr, visit)
	case *Unary:
		WalkExpr(n.Expr, visit)
	case *Binary:
		WalkExpr(n.Left, visit)
		WalkExpr(n.Right, visit)
	case *Logical:
		WalkExpr(n.Left, visit)
		WalkExpr(n.Right, visit)
	case *Assignment:
		WalkExpr(n.Expr, visit)
	case *Call:
		WalkExpr(n.Callee, visit)
		for _, arg := range n.Args {
			WalkExpr(arg, visit)
		}
	case *Function:
		for _, stmt := range n.Body {
			walkStmtExprs(stmt, visit)
		}
	case *Get:
		WalkExpr(n.Object, visit)
	case *Set:
		WalkExpr(n.Object, visit)
		WalkExpr(n.Value, visit)
	case *Between:
		WalkExpr(n.Subject, visit)
		WalkExpr(n.Lower, visit)
		WalkExpr(n.Upper, visit)
	case *Literal:
		switch v := n.Value.(type) {
		case Object:
			for _, e := range v {
				WalkExpr(e, visit)
			}
		case Array:
			for _, e := range v {
				WalkExpr(e, visit)
			}
		}
	case *Select:
		walkSelect(&n.Query, visit)
	case *Insert:
		switch values := n.Command.Values.(type) {
		case *ValuesList:
			for _, e := range values.Values {
				WalkExpr(e, visit)
			}
		case *ValuesSelect:
			walkSelect(&values.Select, visit)
		}
	case *Update:
		for _, assignment := range n.Command.Assignments {
			WalkExpr(assignment.Expr, visit)
		}
		WalkExpr(n.Command.Where, visit)
	case *Delete:
		WalkExpr(n.Command.Where, visit)
	}
}

func walkSelect(q *SqlSelect, visit func(Expr) bool) {
	for core := q.Core; core != nil; {
		walkCore(core, visit)
		if core.Compound == nil {
			break
		}
		core = core.Compound.Core
	}
	for _, key := range q.OrderBy {
		WalkExpr(key.Expr, visit)
	}
	if q.Limit != nil {
		WalkExpr(q.Limit.Count, visit)
		WalkExpr(q.Limit.Offset, visit)
	}
}

func walkCore(core *SqlSelectCore, visit func(Expr) bool) {
	for _, projection := range core.Projection {
		if p, ok := projection.(*ProjectionExpr); ok {
			WalkExpr(p.Expr, visit)
		}
	}
	walkFrom(core.From, visit)
	WalkExpr(core.Where, visit)
	for _, key := range core.GroupBy {
		WalkExpr(key, visit)
	}
	WalkExpr(core.Having, visit)
}

func walkFrom(from SqlFrom, visit func(Expr) bool) {
	switch f := from.(type) {
	case *FromGroup:
		for _, v := range f.Values {
			walkFrom(v, visit)
		}
	case *FromJoin:
		walkFrom(f.Left, visit)
		walkFrom(f.Right, visit)
		WalkExpr(f.Constraint, visit)
	case *FromSelect:
		WalkExpr(f.Subquery, visit)
	}
}

func walkStmtExprs(s Stmt, visit func(Expr) bool) {
	switch n := s.(type) {
	case *Program:
		for _, stmt := range n.Body {
			walkStmtExprs(stmt, visit)
		}
	case *Expression:
		WalkExpr(n.Expr, visit)
	case *Declaration:
		WalkExpr(n.Expr, visit)
	case *Block:
		for _, stmt := range n.Body {
			walkStmtExprs(stmt, visit)
		}
	case *If:
		WalkExpr(n.Condition, visit)
		walkStmtExprs(n.Body, visit)
		if n.ElseBody != nil {
			walkStmtExprs(n.ElseBody, visit)
		}
	case *Loop:
		WalkExpr(n.Condition, visit)
		walkStmtExprs(n.Body, visit)
		if n.Post != nil {
			walkStmtExprs(n.Post, visit)
		}
	case *Return:
		WalkExpr(n.Expr, visit)
	case *Explain:
		WalkExpr(n.Expr, visit)
	}
}
