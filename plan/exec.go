package plan

import (
	"sort"

	"gopkg.in/src-d/go-errors.v1"

	"github.com/lykia-rs/lykiadb/ast"
	"github.com/lykia-rs/lykiadb/format"
	"github.com/lykia-rs/lykiadb/memory"
	"github.com/lykia-rs/lykiadb/value"
)

var (
	// ErrNotAnObject rejects INSERT values that do not evaluate to objects.
	ErrNotAnObject = errors.NewKind("INSERT requires object values, got %s")
	// ErrNoRows is an internal guard for executing a mutation plan through
	// the row interface or vice versa.
	ErrNoRows = errors.NewKind("plan does not produce rows")
)

// Executor runs a plan over in-memory collections, materializing rows.
type Executor struct {
	ev Evaluator
	db *memory.Database
}

// NewExecutor creates an executor bound to an evaluator and a database.
func NewExecutor(ev Evaluator, db *memory.Database) *Executor {
	return &Executor{ev: ev, db: db}
}

// Execute materializes the rows of a query plan.
func (x *Executor) Execute(n Node) ([]*Row, error) {
	switch node := n.(type) {
	case *Nothing:
		return []*Row{NewRow()}, nil
	case *Scan:
		return x.executeScan(node)
	case *SubqueryScan:
		return x.executeSubqueryScan(node)
	case *CrossJoin:
		return x.executeCrossJoin(node)
	case *Join:
		return x.executeJoin(node)
	case *Filter:
		return x.executeFilter(node)
	case *Aggregate:
		return x.executeAggregate(node)
	case *Projection:
		return x.executeProjection(node)
	case *Compound:
		return x.executeCompound(node)
	case *Order:
		return x.executeOrder(node)
	case *Offset:
		rows, err := x.Execute(node.Source)
		if err != nil {
			return nil, err
		}
		if node.N >= len(rows) {
			return nil, nil
		}
		return rows[node.N:], nil
	case *Limit:
		rows, err := x.Execute(node.Source)
		if err != nil {
			return nil, err
		}
		if node.N < len(rows) {
			rows = rows[:node.N]
		}
		return rows, nil
	}
	return nil, ErrNoRows.New()
}

// ExecuteMutation runs a mutation plan and returns the affected row count.
func (x *Executor) ExecuteMutation(n Node) (int, error) {
	switch node := n.(type) {
	case *InsertNode:
		return x.executeInsert(node)
	case *UpdateNode:
		return x.executeUpdate(node)
	case *DeleteNode:
		return x.executeDelete(node)
	}
	return 0, ErrNoRows.New()
}

func namespaceOf(c *ast.SqlCollectionIdentifier) string {
	if c.Namespace != nil {
		return c.Namespace.Name
	}
	return ""
}

func (x *Executor) executeScan(node *Scan) ([]*Row, error) {
	docs := x.db.Collection(namespaceOf(&node.Collection), node.Collection.Name.Name)
	binding := node.Collection.Binding()
	rows := make([]*Row, 0, len(docs))
	for _, doc := range docs {
		row := NewRow()
		row.BindSource(binding, doc)
		rows = append(rows, row)
	}
	return rows, nil
}

func (x *Executor) executeSubqueryScan(node *SubqueryScan) ([]*Row, error) {
	inner, err := x.Execute(node.Source)
	if err != nil {
		return nil, err
	}
	rows := make([]*Row, 0, len(inner))
	for _, innerRow := range inner {
		row := NewRow()
		row.BindSource(node.Alias, innerRow.AsObject())
		rows = append(rows, row)
	}
	return rows, nil
}

func mergeRows(left, right *Row) *Row {
	merged := left.Clone()
	for name, v := range right.fields {
		if right.contains(name) {
			merged.SetField(name, v)
		} else {
			merged.Bind(name, v)
		}
	}
	for sig, v := range right.sigs {
		merged.sigs[sig] = v
	}
	return merged
}

func (x *Executor) executeCrossJoin(node *CrossJoin) ([]*Row, error) {
	left, err := x.Execute(node.Left)
	if err != nil {
		return nil, err
	}
	right, err := x.Execute(node.Right)
	if err != nil {
		return nil, err
	}
	var rows []*Row
	for _, l := range left {
		for _, r := range right {
			rows = append(rows, mergeRows(l, r))
		}
	}
	return rows, nil
}

func (x *Executor) executeJoin(node *Join) ([]*Row, error) {
	left, err := x.Execute(node.Left)
	if err != nil {
		return nil, err
	}
	right, err := x.Execute(node.Right)
	if err != nil {
		return nil, err
	}

	outer, inner := left, right
	if node.JoinType == ast.JoinRight {
		outer, inner = right, left
	}

	var rows []*Row
	for _, outerRow := range outer {
		matched := false
		for _, innerRow := range inner {
			merged := mergeRows(outerRow, innerRow)
			if node.JoinType == ast.JoinRight {
				merged = mergeRows(innerRow, outerRow)
			}
			keep := true
			if node.Constraint != nil {
				evaluated, err := x.ev.EvalRow(node.Constraint.Expr, merged)
				if err != nil {
					return nil, err
				}
				keep = evaluated.Truthy()
			}
			if keep {
				matched = true
				rows = append(rows, merged)
			}
		}
		if !matched && node.JoinType != ast.JoinInner {
			rows = append(rows, outerRow.Clone())
		}
	}
	return rows, nil
}

// bindSubqueries materializes each attached subquery once and binds the
// result under the subquery expression's structural signature.
func (x *Executor) bindSubqueries(subqueries []Subquery, rows []*Row) error {
	for _, subquery := range subqueries {
		inner, err := x.Execute(subquery.Node)
		if err != nil {
			return err
		}
		// single-column results unwrap to their values so that IN and
		// comparisons see scalars instead of row objects
		singleColumn := len(inner) > 0
		for _, innerRow := range inner {
			if len(innerRow.FieldNames()) != 1 {
				singleColumn = false
				break
			}
		}
		items := make([]value.Value, 0, len(inner))
		for _, innerRow := range inner {
			if singleColumn {
				v, _ := innerRow.Get(innerRow.FieldNames()[0])
				items = append(items, v)
			} else {
				items = append(items, innerRow.AsObject())
			}
		}
		result := value.NewArray(items...)
		sig := Signature(subquery.Select)
		for _, row := range rows {
			row.SetSig(sig, result)
		}
	}
	return nil
}

func (x *Executor) executeFilter(node *Filter) ([]*Row, error) {
	rows, err := x.Execute(node.Source)
	if err != nil {
		return nil, err
	}
	if err := x.bindSubqueries(node.Subqueries, rows); err != nil {
		return nil, err
	}
	var kept []*Row
	for _, row := range rows {
		evaluated, err := x.ev.EvalRow(node.Predicate.Expr, row)
		if err != nil {
			return nil, err
		}
		if evaluated.Truthy() {
			kept = append(kept, row)
		}
	}
	return kept, nil
}

func (x *Executor) executeAggregate(node *Aggregate) ([]*Row, error) {
	rows, err := x.Execute(node.Source)
	if err != nil {
		return nil, err
	}

	type group struct {
		key    []value.Value
		member []*Row
	}
	var groups []*group
	index := map[string]*group{}

	for _, row := range rows {
		keyValues := make([]value.Value, 0, len(node.GroupBy))
		keyText := ""
		for _, keyExpr := range node.GroupBy {
			evaluated, err := x.ev.EvalRow(keyExpr.Expr, row)
			if err != nil {
				return nil, err
			}
			keyValues = append(keyValues, evaluated)
			keyText += value.Format(evaluated) + "\x00"
		}
		g, ok := index[keyText]
		if !ok {
			g = &group{key: keyValues}
			index[keyText] = g
			groups = append(groups, g)
		}
		g.member = append(g.member, row)
	}

	// an aggregation without grouping still emits one row over all input
	if len(node.GroupBy) == 0 && len(groups) == 0 {
		groups = append(groups, &group{})
	}

	out := make([]*Row, 0, len(groups))
	for _, g := range groups {
		row := NewRow()
		for i, keyExpr := range node.GroupBy {
			row.SetField(fieldNameFor(keyExpr.Expr), g.key[i])
		}
		for _, agg := range node.Aggregates {
			evaluated, err := x.computeAggregate(agg, g.member)
			if err != nil {
				return nil, err
			}
			row.SetSig(agg.Sig, evaluated)
		}
		out = append(out, row)
	}
	return out, nil
}

func isStarArg(call *ast.Call) bool {
	if len(call.Args) == 0 {
		return true
	}
	if v, ok := call.Args[0].(*ast.Variable); ok && v.Name.Name == "*" {
		return true
	}
	if fp, ok := call.Args[0].(*ast.FieldPath); ok && fp.Head.Name == "*" {
		return true
	}
	return false
}

func (x *Executor) computeAggregate(agg AggregateExpr, rows []*Row) (value.Value, error) {
	name, call, ok := aggregateCall(agg.Call)
	if !ok {
		return value.Undefined{}, nil
	}

	if name == "count" && isStarArg(call) {
		return value.Num(len(rows)), nil
	}

	var arg ast.Expr
	if len(call.Args) > 0 {
		arg = call.Args[0]
	}

	count := 0
	sum := 0.0
	numeric := 0
	var best value.Value
	for _, row := range rows {
		var evaluated value.Value = value.Undefined{}
		if arg != nil {
			var err error
			evaluated, err = x.ev.EvalRow(arg, row)
			if err != nil {
				return nil, err
			}
		}
		if _, undefined := evaluated.(value.Undefined); undefined {
			continue
		}
		count++
		if n, ok := value.AsNumber(evaluated); ok {
			numeric++
			sum += n
		}
		switch name {
		case "min":
			if best == nil {
				best = evaluated
			} else if cmp, ok := value.Compare(evaluated, best); ok && cmp < 0 {
				best = evaluated
			}
		case "max":
			if best == nil {
				best = evaluated
			} else if cmp, ok := value.Compare(evaluated, best); ok && cmp > 0 {
				best = evaluated
			}
		}
	}

	switch name {
	case "count":
		return value.Num(count), nil
	case "sum":
		return value.Num(sum), nil
	case "avg":
		if numeric == 0 {
			return value.Undefined{}, nil
		}
		return value.Num(sum / float64(numeric)), nil
	case "min", "max":
		if best == nil {
			return value.Undefined{}, nil
		}
		return best, nil
	}
	return value.Undefined{}, nil
}

// fieldNameFor derives the output field name of an expression: the last
// path segment for navigations, the canonical SQL text otherwise.
func fieldNameFor(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.FieldPath:
		if len(n.Tail) > 0 {
			return n.Tail[len(n.Tail)-1].Name
		}
		return n.Head.Name
	case *ast.Variable:
		return n.Name.Name
	case *ast.Get:
		return n.Name.Name
	case *ast.Grouping:
		return fieldNameFor(n.Expr)
	}
	return format.SQLExpr(e)
}

func (x *Executor) executeProjection(node *Projection) ([]*Row, error) {
	rows, err := x.Execute(node.Source)
	if err != nil {
		return nil, err
	}
	out := make([]*Row, 0, len(rows))
	for _, row := range rows {
		projected := NewRow()
		for sig, v := range row.sigs {
			projected.sigs[sig] = v
		}
		for _, field := range node.Fields {
			switch proj := field.(type) {
			case *ast.ProjectionAll:
				if proj.Collection != nil {
					bound, ok := row.Get(proj.Collection.Name)
					if obj, isObj := bound.(*value.Object); ok && isObj {
						for _, key := range obj.Keys() {
							v, _ := obj.Get(key)
							projected.SetField(key, v)
						}
					}
					continue
				}
				for _, name := range row.FieldNames() {
					v, _ := row.Get(name)
					projected.SetField(name, v)
				}
			case *ast.ProjectionExpr:
				evaluated, err := x.ev.EvalRow(proj.Expr, row)
				if err != nil {
					return nil, err
				}
				name := fieldNameFor(proj.Expr)
				if proj.Alias != nil {
					name = proj.Alias.Name
				}
				projected.SetField(name, evaluated)
			}
		}
		out = append(out, projected)
	}
	if node.Distinct {
		out = dedupeRows(out)
	}
	return out, nil
}

func rowSignature(row *Row) string {
	return value.Format(row.AsObject())
}

func dedupeRows(rows []*Row) []*Row {
	seen := map[string]bool{}
	var out []*Row
	for _, row := range rows {
		sig := rowSignature(row)
		if !seen[sig] {
			seen[sig] = true
			out = append(out, row)
		}
	}
	return out
}

func (x *Executor) executeCompound(node *Compound) ([]*Row, error) {
	left, err := x.Execute(node.Source)
	if err != nil {
		return nil, err
	}
	right, err := x.Execute(node.Right)
	if err != nil {
		return nil, err
	}

	switch node.Operator {
	case ast.UnionAll:
		return append(left, right...), nil
	case ast.Union:
		return dedupeRows(append(left, right...)), nil
	case ast.Intersect:
		rightSigs := map[string]bool{}
		for _, row := range right {
			rightSigs[rowSignature(row)] = true
		}
		var out []*Row
		for _, row := range left {
			if rightSigs[rowSignature(row)] {
				out = append(out, row)
			}
		}
		return dedupeRows(out), nil
	case ast.Except:
		rightSigs := map[string]bool{}
		for _, row := range right {
			rightSigs[rowSignature(row)] = true
		}
		var out []*Row
		for _, row := range left {
			if !rightSigs[rowSignature(row)] {
				out = append(out, row)
			}
		}
		return dedupeRows(out), nil
	}
	return left, nil
}

func (x *Executor) executeOrder(node *Order) ([]*Row, error) {
	rows, err := x.Execute(node.Source)
	if err != nil {
		return nil, err
	}

	keyed := make([][]value.Value, len(rows))
	for i, row := range rows {
		keys := make([]value.Value, 0, len(node.Keys))
		for _, key := range node.Keys {
			evaluated, err := x.ev.EvalRow(key.Expr.Expr, row)
			if err != nil {
				return nil, err
			}
			keys = append(keys, evaluated)
		}
		keyed[i] = keys
	}

	indices := make([]int, len(rows))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		for k, key := range node.Keys {
			left, right := keyed[indices[a]][k], keyed[indices[b]][k]
			cmp, ok := value.Compare(left, right)
			if !ok {
				// an undefined key sorts after a defined one regardless of
				// direction; other incomparable pairs tie on this key
				_, leftUndefined := left.(value.Undefined)
				_, rightUndefined := right.(value.Undefined)
				if leftUndefined != rightUndefined {
					return rightUndefined
				}
				continue
			}
			if cmp == 0 {
				continue
			}
			if key.Ordering == ast.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	out := make([]*Row, len(rows))
	for i, idx := range indices {
		out[i] = rows[idx]
	}
	return out, nil
}

func (x *Executor) executeInsert(node *InsertNode) (int, error) {
	namespace := namespaceOf(&node.Collection)
	name := node.Collection.Name.Name

	var docs []*value.Object
	if node.Source != nil {
		rows, err := x.Execute(node.Source)
		if err != nil {
			return 0, err
		}
		for _, row := range rows {
			docs = append(docs, row.AsObject())
		}
	}
	for _, intermediate := range node.Values {
		evaluated, err := x.ev.Eval(intermediate.Expr)
		if err != nil {
			return 0, err
		}
		obj, ok := evaluated.(*value.Object)
		if !ok {
			return 0, ErrNotAnObject.New(value.Format(evaluated))
		}
		docs = append(docs, obj)
	}

	for _, doc := range docs {
		x.db.Insert(namespace, name, doc)
	}
	return len(docs), nil
}

func (x *Executor) executeUpdate(node *UpdateNode) (int, error) {
	namespace := namespaceOf(&node.Collection)
	name := node.Collection.Name.Name
	binding := node.Collection.Binding()

	affected := 0
	for _, doc := range x.db.Collection(namespace, name) {
		row := NewRow()
		row.BindSource(binding, doc)
		if node.Where != nil {
			evaluated, err := x.ev.EvalRow(node.Where.Expr, row)
			if err != nil {
				return 0, err
			}
			if !evaluated.Truthy() {
				continue
			}
		}
		// evaluate every assignment against the pre-update row, then apply
		updates := make([]value.Value, len(node.Assignments))
		for i, assignment := range node.Assignments {
			evaluated, err := x.ev.EvalRow(assignment.Expr, row)
			if err != nil {
				return 0, err
			}
			updates[i] = evaluated
		}
		for i, assignment := range node.Assignments {
			doc.Set(assignment.Field.Name, updates[i])
		}
		affected++
	}
	return affected, nil
}

func (x *Executor) executeDelete(node *DeleteNode) (int, error) {
	namespace := namespaceOf(&node.Collection)
	name := node.Collection.Name.Name
	binding := node.Collection.Binding()

	docs := x.db.Collection(namespace, name)
	var kept []*value.Object
	for _, doc := range docs {
		remove := true
		if node.Where != nil {
			row := NewRow()
			row.BindSource(binding, doc)
			evaluated, err := x.ev.EvalRow(node.Where.Expr, row)
			if err != nil {
				return 0, err
			}
			remove = evaluated.Truthy()
		}
		if !remove {
			kept = append(kept, doc)
		}
	}
	x.db.Replace(namespace, name, kept)
	return len(docs) - len(kept), nil
}
