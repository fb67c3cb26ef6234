package ast

import "strconv"

// ToJSON converts a node to the canonical JSON form used by snapshot
// tests. Each node maps to {"@type": "<Category>::<Variant>", ...fields};
// spans and ids are omitted.
func ToJSON(n Node) any {
	switch v := n.(type) {
	case Stmt:
		return stmtJSON(v)
	case Expr:
		return exprJSON(v)
	}
	return nil
}

func stmtJSON(s Stmt) any {
	switch n := s.(type) {
	case *Program:
		return map[string]any{"@type": "Stmt::Program", "body": stmtsJSON(n.Body)}
	case *Expression:
		return map[string]any{"@type": "Stmt::Expression", "expr": exprJSON(n.Expr)}
	case *Declaration:
		return map[string]any{"@type": "Stmt::Declaration", "dst": identJSON(&n.Dst), "expr": exprJSON(n.Expr)}
	case *Block:
		return map[string]any{"@type": "Stmt::Block", "body": stmtsJSON(n.Body)}
	case *If:
		out := map[string]any{"@type": "Stmt::If", "condition": exprJSON(n.Condition), "body": stmtJSON(n.Body)}
		if n.ElseBody != nil {
			out["else_body"] = stmtJSON(n.ElseBody)
		} else {
			out["else_body"] = nil
		}
		return out
	case *Loop:
		out := map[string]any{"@type": "Stmt::Loop", "body": stmtJSON(n.Body)}
		out["condition"] = exprJSON(n.Condition)
		if n.Post != nil {
			out["post"] = stmtJSON(n.Post)
		} else {
			out["post"] = nil
		}
		return out
	case *Break:
		return map[string]any{"@type": "Stmt::Break"}
	case *Continue:
		return map[string]any{"@type": "Stmt::Continue"}
	case *Return:
		return map[string]any{"@type": "Stmt::Return", "expr": exprJSON(n.Expr)}
	case *Explain:
		return map[string]any{"@type": "Stmt::Explain", "expr": exprJSON(n.Expr)}
	}
	return nil
}

func stmtsJSON(stmts []Stmt) []any {
	out := make([]any, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, stmtJSON(s))
	}
	return out
}

func exprJSON(e Expr) any {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *Literal:
		return map[string]any{"@type": "Expr::Literal", "value": literalJSON(n.Value), "raw": n.Raw}
	case *Variable:
		return map[string]any{"@type": "Expr::Variable", "name": identJSON(&n.Name)}
	case *Grouping:
		return map[string]any{"@type": "Expr::Grouping", "expr": exprJSON(n.Expr)}
	case *Unary:
		return map[string]any{"@type": "Expr::Unary", "operation": opJSON(n.Operation), "expr": exprJSON(n.Expr)}
	case *Binary:
		return map[string]any{
			"@type": "Expr::Binary", "operation": opJSON(n.Operation),
			"left": exprJSON(n.Left), "right": exprJSON(n.Right),
		}
	case *Logical:
		return map[string]any{
			"@type": "Expr::Logical", "operation": opJSON(n.Operation),
			"left": exprJSON(n.Left), "right": exprJSON(n.Right),
		}
	case *Assignment:
		return map[string]any{"@type": "Expr::Assignment", "dst": identJSON(&n.Dst), "expr": exprJSON(n.Expr)}
	case *Call:
		args := make([]any, 0, len(n.Args))
		for _, arg := range n.Args {
			args = append(args, exprJSON(arg))
		}
		return map[string]any{"@type": "Expr::Call", "callee": exprJSON(n.Callee), "args": args}
	case *Function:
		params := make([]any, 0, len(n.Parameters))
		for i := range n.Parameters {
			params = append(params, identJSON(&n.Parameters[i]))
		}
		out := map[string]any{"@type": "Expr::Function", "parameters": params, "body": stmtsJSON(n.Body)}
		if n.Name != nil {
			out["name"] = identJSON(n.Name)
		} else {
			out["name"] = nil
		}
		return out
	case *Get:
		return map[string]any{"@type": "Expr::Get", "object": exprJSON(n.Object), "name": identJSON(&n.Name)}
	case *Set:
		return map[string]any{
			"@type": "Expr::Set", "object": exprJSON(n.Object),
			"name": identJSON(&n.Name), "value": exprJSON(n.Value),
		}
	case *FieldPath:
		tail := make([]any, 0, len(n.Tail))
		for i := range n.Tail {
			tail = append(tail, identJSON(&n.Tail[i]))
		}
		return map[string]any{"@type": "Expr::FieldPath", "head": identJSON(&n.Head), "tail": tail}
	case *Between:
		kind := "Between"
		if n.Kind == RangeNotBetween {
			kind = "NotBetween"
		}
		return map[string]any{
			"@type": "Expr::Between", "kind": kind, "subject": exprJSON(n.Subject),
			"lower": exprJSON(n.Lower), "upper": exprJSON(n.Upper),
		}
	case *Select:
		return map[string]any{"@type": "Expr::Select", "query": selectJSON(&n.Query)}
	case *Insert:
		return map[string]any{"@type": "Expr::Insert", "command": insertJSON(&n.Command)}
	case *Update:
		return map[string]any{"@type": "Expr::Update", "command": updateJSON(&n.Command)}
	case *Delete:
		return map[string]any{"@type": "Expr::Delete", "command": deleteJSON(&n.Command)}
	}
	return nil
}

func literalJSON(v LiteralValue) any {
	switch lit := v.(type) {
	case Str:
		return map[string]any{"Str": string(lit)}
	case Num:
		return map[string]any{"Num": float64(lit)}
	case Bool:
		return map[string]any{"Bool": bool(lit)}
	case Undefined:
		return nil
	case Object:
		fields := make(map[string]any, len(lit))
		for k, e := range lit {
			fields[k] = exprJSON(e)
		}
		return map[string]any{"Object": fields}
	case Array:
		elems := make([]any, 0, len(lit))
		for _, e := range lit {
			elems = append(elems, exprJSON(e))
		}
		return map[string]any{"Array": elems}
	}
	return nil
}

func identJSON(id *Identifier) any {
	return map[string]any{
		"@type": "Identifier",
		"kind":  "IdentifierKind::" + id.Kind.String(),
		"name":  id.Name,
	}
}

func opJSON(op Operation) string {
	return "Operation::" + op.String()
}

func selectJSON(q *SqlSelect) any {
	out := map[string]any{"@type": "SqlSelect", "core": coreJSON(q.Core)}
	if q.OrderBy != nil {
		keys := make([]any, 0, len(q.OrderBy))
		for _, key := range q.OrderBy {
			keys = append(keys, map[string]any{
				"@type":    "SqlOrderByClause",
				"expr":     exprJSON(key.Expr),
				"ordering": "SqlOrdering::" + key.Ordering.String(),
			})
		}
		out["order_by"] = keys
	} else {
		out["order_by"] = nil
	}
	if q.Limit != nil {
		out["limit"] = map[string]any{
			"@type":  "SqlLimitClause",
			"count":  exprJSON(q.Limit.Count),
			"offset": exprJSON(q.Limit.Offset),
		}
	} else {
		out["limit"] = nil
	}
	return out
}

func coreJSON(core *SqlSelectCore) any {
	out := map[string]any{
		"@type":    "SqlSelectCore",
		"distinct": map[string]any{"@type": "SqlDistinct::" + core.Distinct.String()},
	}
	projections := make([]any, 0, len(core.Projection))
	for _, p := range core.Projection {
		projections = append(projections, projectionJSON(p))
	}
	out["projection"] = projections
	if core.From != nil {
		out["from"] = fromJSON(core.From)
	} else {
		out["from"] = nil
	}
	out["where"] = exprJSON(core.Where)
	if core.GroupBy != nil {
		keys := make([]any, 0, len(core.GroupBy))
		for _, key := range core.GroupBy {
			keys = append(keys, exprJSON(key))
		}
		out["group_by"] = keys
	} else {
		out["group_by"] = nil
	}
	out["having"] = exprJSON(core.Having)
	if core.Compound != nil {
		out["compound"] = map[string]any{
			"@type":    "SqlSelectCompound",
			"operator": "SqlCompoundOperator::" + core.Compound.Operator.String(),
			"core":     coreJSON(core.Compound.Core),
		}
	} else {
		out["compound"] = nil
	}
	return out
}

func projectionJSON(p SqlProjection) any {
	switch proj := p.(type) {
	case *ProjectionAll:
		out := map[string]any{"@type": "SqlProjection::All"}
		if proj.Collection != nil {
			out["collection"] = identJSON(proj.Collection)
		} else {
			out["collection"] = nil
		}
		return out
	case *ProjectionExpr:
		out := map[string]any{"@type": "SqlProjection::Expr", "expr": exprJSON(proj.Expr)}
		if proj.Alias != nil {
			out["alias"] = identJSON(proj.Alias)
		} else {
			out["alias"] = nil
		}
		return out
	}
	return nil
}

func fromJSON(from SqlFrom) any {
	switch f := from.(type) {
	case *FromGroup:
		values := make([]any, 0, len(f.Values))
		for _, v := range f.Values {
			values = append(values, fromJSON(v))
		}
		return map[string]any{"@type": "SqlFrom::Group", "values": values}
	case *FromJoin:
		out := map[string]any{
			"@type":     "SqlFrom::Join",
			"left":      fromJSON(f.Left),
			"right":     fromJSON(f.Right),
			"join_type": "SqlJoinType::" + f.JoinType.String(),
		}
		out["constraint"] = exprJSON(f.Constraint)
		return out
	case *FromSelect:
		out := map[string]any{"@type": "SqlFrom::Select", "subquery": exprJSON(f.Subquery)}
		if f.Alias != nil {
			out["alias"] = identJSON(f.Alias)
		} else {
			out["alias"] = nil
		}
		return out
	case *SqlCollectionIdentifier:
		return collectionJSON(f)
	}
	return nil
}

func collectionJSON(c *SqlCollectionIdentifier) any {
	out := map[string]any{"@type": "SqlCollectionIdentifier", "name": identJSON(&c.Name)}
	if c.Namespace != nil {
		out["namespace"] = identJSON(c.Namespace)
	} else {
		out["namespace"] = nil
	}
	if c.Alias != nil {
		out["alias"] = identJSON(c.Alias)
	} else {
		out["alias"] = nil
	}
	return out
}

func insertJSON(cmd *SqlInsert) any {
	out := map[string]any{"@type": "SqlInsert", "collection": collectionJSON(&cmd.Collection)}
	switch values := cmd.Values.(type) {
	case *ValuesList:
		elems := make([]any, 0, len(values.Values))
		for _, e := range values.Values {
			elems = append(elems, exprJSON(e))
		}
		out["values"] = map[string]any{"@type": "SqlValues::Values", "values": elems}
	case *ValuesSelect:
		out["values"] = map[string]any{"@type": "SqlValues::Select", "select": selectJSON(&values.Select)}
	}
	return out
}

func updateJSON(cmd *SqlUpdate) any {
	assignments := make([]any, 0, len(cmd.Assignments))
	for i := range cmd.Assignments {
		assignments = append(assignments, map[string]any{
			"@type": "SqlAssignment",
			"field": identJSON(&cmd.Assignments[i].Field),
			"expr":  exprJSON(cmd.Assignments[i].Expr),
		})
	}
	return map[string]any{
		"@type":       "SqlUpdate",
		"collection":  collectionJSON(&cmd.Collection),
		"assignments": assignments,
		"where":       exprJSON(cmd.Where),
	}
}

func deleteJSON(cmd *SqlDelete) any {
	return map[string]any{
		"@type":      "SqlDelete",
		"collection": collectionJSON(&cmd.Collection),
		"where":      exprJSON(cmd.Where),
	}
}

// CanonicalNumber renders a numeric object key to its canonical decimal
// form, matching how numeric literals print.
func CanonicalNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
