// Package format renders an AST back to parseable source text. The printer
// is faithful: parsing its output yields a structurally identical tree,
// which the test suite uses for round-trip checks.
package format

import (
	"sort"
	"strconv"
	"strings"

	"github.com/lykia-rs/lykiadb/ast"
	"github.com/lykia-rs/lykiadb/token"
)

// Program renders a whole program.
func Program(p *ast.Program) string {
	var pr printer
	for _, stmt := range p.Body {
		pr.stmt(stmt)
		pr.write("\n")
	}
	return strings.TrimRight(pr.sb.String(), "\n") + "\n"
}

// Stmt renders a single statement.
func Stmt(s ast.Stmt) string {
	var pr printer
	pr.stmt(s)
	return pr.sb.String()
}

// Expr renders a single expression.
func Expr(e ast.Expr) string {
	var pr printer
	pr.expr(e)
	return pr.sb.String()
}

// SQLExpr renders an expression in SQL context: equality prints "=" and
// logical operators print as keywords.
func SQLExpr(e ast.Expr) string {
	var pr printer
	pr.sqlDepth++
	pr.expr(e)
	return pr.sb.String()
}

type printer struct {
	sb       strings.Builder
	indent   int
	sqlDepth int
}

func (p *printer) write(parts ...string) {
	for _, part := range parts {
		p.sb.WriteString(part)
	}
}

func (p *printer) pad() {
	p.write(strings.Repeat("  ", p.indent))
}

func (p *printer) stmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Program:
		for _, stmt := range n.Body {
			p.stmt(stmt)
			p.write("\n")
		}
	case *ast.Expression:
		p.pad()
		p.expr(n.Expr)
		p.write(";")
	case *ast.Declaration:
		p.pad()
		p.write("var ", identText(n.Dst))
		if n.Expr != nil {
			if lit, ok := n.Expr.(*ast.Literal); !ok || lit.Raw != "undefined" {
				p.write(" = ")
				p.expr(n.Expr)
			}
		}
		p.write(";")
	case *ast.Block:
		p.pad()
		p.block(n.Body)
	case *ast.If:
		p.pad()
		p.write("if (")
		p.expr(n.Condition)
		p.write(") ")
		p.inlineStmt(n.Body)
		if n.ElseBody != nil {
			p.write(" else ")
			p.inlineStmt(n.ElseBody)
		}
	case *ast.Loop:
		p.pad()
		p.loop(n)
	case *ast.Break:
		p.pad()
		p.write("break;")
	case *ast.Continue:
		p.pad()
		p.write("continue;")
	case *ast.Return:
		p.pad()
		p.write("return")
		if n.Expr != nil {
			p.write(" ")
			p.expr(n.Expr)
		}
		p.write(";")
	case *ast.Explain:
		p.pad()
		p.write("EXPLAIN ")
		p.expr(n.Expr)
		p.write(";")
	}
}

// inlineStmt renders a statement without its leading indentation, used for
// if/else branches that follow on the same line.
func (p *printer) inlineStmt(s ast.Stmt) {
	if block, ok := s.(*ast.Block); ok {
		p.block(block.Body)
		return
	}
	var inner printer
	inner.indent = p.indent
	inner.sqlDepth = p.sqlDepth
	inner.stmt(s)
	p.write(strings.TrimLeft(inner.sb.String(), " "))
}

func (p *printer) block(body []ast.Stmt) {
	p.write("{\n")
	p.indent++
	for _, stmt := range body {
		p.stmt(stmt)
		p.write("\n")
	}
	p.indent--
	p.pad()
	p.write("}")
}

func (p *printer) loop(n *ast.Loop) {
	switch {
	case n.Condition == nil && n.Post == nil:
		p.write("loop ")
	case n.Post == nil:
		p.write("while (")
		p.expr(n.Condition)
		p.write(") ")
	default:
		p.write("for (; ")
		if n.Condition != nil {
			p.expr(n.Condition)
		}
		p.write("; ")
		if post, ok := n.Post.(*ast.Expression); ok {
			p.expr(post.Expr)
		}
		p.write(") ")
	}
	p.inlineStmt(n.Body)
}

func (p *printer) expr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.Literal:
		p.literal(n)
	case *ast.Variable:
		p.write(identText(n.Name))
	case *ast.Grouping:
		p.write("(")
		p.expr(n.Expr)
		p.write(")")
	case *ast.Unary:
		p.write(n.Operation.Symbol(p.sqlDepth > 0))
		p.expr(n.Expr)
	case *ast.Binary:
		p.expr(n.Left)
		p.write(" ", n.Operation.Symbol(p.sqlDepth > 0), " ")
		p.expr(n.Right)
	case *ast.Logical:
		p.expr(n.Left)
		p.write(" ", n.Operation.Symbol(p.sqlDepth > 0), " ")
		p.expr(n.Right)
	case *ast.Assignment:
		p.write(identText(n.Dst), " = ")
		p.expr(n.Expr)
	case *ast.Call:
		p.expr(n.Callee)
		p.write("(")
		for i, arg := range n.Args {
			if i > 0 {
				p.write(", ")
			}
			p.expr(arg)
		}
		p.write(")")
	case *ast.Function:
		p.write("function")
		if n.Name != nil {
			p.write(" ", identText(*n.Name))
		}
		p.write("(")
		for i, param := range n.Parameters {
			if i > 0 {
				p.write(", ")
			}
			p.write(identText(param))
		}
		p.write(") ")
		p.block(n.Body)
	case *ast.Get:
		p.expr(n.Object)
		if object, ok := n.Object.(*ast.Variable); ok && object.Name.Kind == ast.IdentifierSymbol {
			p.write("::")
		} else {
			p.write(".")
		}
		p.write(n.Name.Name)
	case *ast.Set:
		p.expr(n.Object)
		p.write(".", n.Name.Name, " = ")
		p.expr(n.Value)
	case *ast.FieldPath:
		p.write(identText(n.Head))
		for _, segment := range n.Tail {
			p.write(".", segment.Name)
		}
	case *ast.Between:
		p.expr(n.Subject)
		if n.Kind == ast.RangeNotBetween {
			p.write(" NOT BETWEEN ")
		} else {
			p.write(" BETWEEN ")
		}
		p.expr(n.Lower)
		p.write(" AND ")
		p.expr(n.Upper)
	case *ast.Select:
		p.sqlSelect(&n.Query)
	case *ast.Insert:
		p.sqlInsert(&n.Command)
	case *ast.Update:
		p.sqlUpdate(&n.Command)
	case *ast.Delete:
		p.sqlDelete(&n.Command)
	}
}

func (p *printer) literal(n *ast.Literal) {
	switch v := n.Value.(type) {
	case ast.Str:
		p.write(quote(string(v)))
	case ast.Num:
		p.write(formatNumber(float64(v)))
	case ast.Bool:
		if v {
			p.write("true")
		} else {
			p.write("false")
		}
	case ast.Undefined:
		p.write("undefined")
	case ast.Object:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		p.write("{")
		for i, k := range keys {
			if i > 0 {
				p.write(", ")
			}
			p.write(objectKey(k), ": ")
			p.expr(v[k])
		}
		p.write("}")
	case ast.Array:
		p.write("[")
		for i, elem := range v {
			if i > 0 {
				p.write(", ")
			}
			p.expr(elem)
		}
		p.write("]")
	}
}

func (p *printer) sqlSelect(q *ast.SqlSelect) {
	p.sqlDepth++
	defer func() { p.sqlDepth-- }()

	p.sqlCore(q.Core)
	if len(q.OrderBy) > 0 {
		p.write(" ORDER BY ")
		for i, key := range q.OrderBy {
			if i > 0 {
				p.write(", ")
			}
			p.expr(key.Expr)
			if key.Ordering == ast.Desc {
				p.write(" DESC")
			} else {
				p.write(" ASC")
			}
		}
	}
	if q.Limit != nil {
		p.write(" LIMIT ")
		p.expr(q.Limit.Count)
		if q.Limit.Offset != nil {
			p.write(" OFFSET ")
			p.expr(q.Limit.Offset)
		}
	}
}

func (p *printer) sqlCore(core *ast.SqlSelectCore) {
	p.write("SELECT ")
	switch core.Distinct {
	case ast.Distinct:
		p.write("DISTINCT ")
	case ast.All:
		p.write("ALL ")
	}
	for i, projection := range core.Projection {
		if i > 0 {
			p.write(", ")
		}
		switch proj := projection.(type) {
		case *ast.ProjectionAll:
			if proj.Collection != nil {
				p.write(proj.Collection.Name, ".")
			}
			p.write("*")
		case *ast.ProjectionExpr:
			p.expr(proj.Expr)
			if proj.Alias != nil {
				p.write(" AS ", proj.Alias.Name)
			}
		}
	}
	if core.From != nil {
		p.write(" FROM ")
		p.sqlFrom(core.From)
	}
	if core.Where != nil {
		p.write(" WHERE ")
		p.expr(core.Where)
	}
	if len(core.GroupBy) > 0 {
		p.write(" GROUP BY ")
		for i, key := range core.GroupBy {
			if i > 0 {
				p.write(", ")
			}
			p.expr(key)
		}
	}
	if core.Having != nil {
		p.write(" HAVING ")
		p.expr(core.Having)
	}
	if core.Compound != nil {
		switch core.Compound.Operator {
		case ast.UnionAll:
			p.write(" UNION ALL ")
		case ast.Intersect:
			p.write(" INTERSECT ")
		case ast.Except:
			p.write(" EXCEPT ")
		default:
			p.write(" UNION ")
		}
		p.sqlCore(core.Compound.Core)
	}
}

func (p *printer) sqlFrom(from ast.SqlFrom) {
	switch f := from.(type) {
	case *ast.FromGroup:
		for i, v := range f.Values {
			if i > 0 {
				p.write(", ")
			}
			p.sqlFrom(v)
		}
	case *ast.FromJoin:
		p.sqlFrom(f.Left)
		switch f.JoinType {
		case ast.JoinLeft:
			p.write(" LEFT JOIN ")
		case ast.JoinRight:
			p.write(" RIGHT JOIN ")
		default:
			p.write(" INNER JOIN ")
		}
		p.sqlFrom(f.Right)
		if f.Constraint != nil {
			p.write(" ON ")
			p.expr(f.Constraint)
		}
	case *ast.FromSelect:
		p.write("(")
		p.expr(f.Subquery)
		p.write(")")
		if f.Alias != nil {
			p.write(" AS ", f.Alias.Name)
		}
	case *ast.SqlCollectionIdentifier:
		p.collection(f)
	}
}

func (p *printer) collection(c *ast.SqlCollectionIdentifier) {
	if c.Namespace != nil {
		p.write(c.Namespace.Name, ".")
	}
	p.write(c.Name.Name)
	if c.Alias != nil {
		p.write(" AS ", c.Alias.Name)
	}
}

func (p *printer) sqlInsert(cmd *ast.SqlInsert) {
	p.sqlDepth++
	defer func() { p.sqlDepth-- }()
	p.write("INSERT INTO ")
	p.collection(&cmd.Collection)
	switch values := cmd.Values.(type) {
	case *ast.ValuesList:
		p.write(" VALUES (")
		for i, e := range values.Values {
			if i > 0 {
				p.write(", ")
			}
			p.expr(e)
		}
		p.write(")")
	case *ast.ValuesSelect:
		p.write(" ")
		p.sqlSelect(&values.Select)
	}
}

func (p *printer) sqlUpdate(cmd *ast.SqlUpdate) {
	p.sqlDepth++
	defer func() { p.sqlDepth-- }()
	p.write("UPDATE ")
	p.collection(&cmd.Collection)
	p.write(" SET ")
	for i, assignment := range cmd.Assignments {
		if i > 0 {
			p.write(", ")
		}
		p.write(assignment.Field.Name, " = ")
		p.expr(assignment.Expr)
	}
	if cmd.Where != nil {
		p.write(" WHERE ")
		p.expr(cmd.Where)
	}
}

func (p *printer) sqlDelete(cmd *ast.SqlDelete) {
	p.sqlDepth++
	defer func() { p.sqlDepth-- }()
	p.write("DELETE FROM ")
	p.collection(&cmd.Collection)
	if cmd.Where != nil {
		p.write(" WHERE ")
		p.expr(cmd.Where)
	}
}

// identText renders an identifier reference, escaping names that would
// otherwise scan as keywords.
func identText(id ast.Identifier) string {
	name := id.Name
	if strings.HasPrefix(name, "$") {
		// a '$'-prefixed name never scans as a keyword
		return name
	}
	if _, isKeyword := token.LookupKeyword(name, strings.ToUpper(name)); isKeyword {
		return "\\" + name
	}
	return name
}

func objectKey(k string) string {
	if _, err := strconv.ParseFloat(k, 64); err == nil {
		return k
	}
	for i := 0; i < len(k); i++ {
		ch := k[i]
		alpha := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
		if i == 0 && !alpha {
			return quote(k)
		}
		if !alpha && !(ch >= '0' && ch <= '9') {
			return quote(k)
		}
	}
	if _, isKeyword := token.LookupKeyword(k, strings.ToUpper(k)); isKeyword {
		return quote(k)
	}
	return k
}

func quote(s string) string {
	for _, q := range []string{"\"", "'", "`"} {
		if !strings.Contains(s, q) {
			return q + s + q
		}
	}
	return "\"" + s + "\""
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
