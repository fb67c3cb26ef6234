package plan

import (
	"strconv"
	"strings"

	"github.com/lykia-rs/lykiadb/ast"
	"github.com/lykia-rs/lykiadb/format"
)

// Explain renders a plan as an indented one-node-per-line tree, children
// indented below their consumers.
func Explain(n Node) string {
	var sb strings.Builder
	explainNode(&sb, n, 0)
	return strings.TrimRight(sb.String(), "\n")
}

func explainNode(sb *strings.Builder, n Node, depth int) {
	pad := strings.Repeat("  ", depth)
	line := func(parts ...string) {
		sb.WriteString(pad)
		for _, part := range parts {
			sb.WriteString(part)
		}
		sb.WriteString("\n")
	}

	switch node := n.(type) {
	case *Nothing:
		line("nothing")
	case *Scan:
		line("scan [", collectionLabel(&node.Collection), "]")
	case *SubqueryScan:
		line("subquery scan [as ", node.Alias, "]")
		explainNode(sb, node.Source, depth+1)
	case *CrossJoin:
		line("cross join")
		explainNode(sb, node.Left, depth+1)
		explainNode(sb, node.Right, depth+1)
	case *Join:
		label := strings.ToLower(node.JoinType.String()) + " join"
		if node.Constraint != nil {
			label += " (" + format.SQLExpr(node.Constraint.Expr) + ")"
		}
		line(label)
		explainNode(sb, node.Left, depth+1)
		explainNode(sb, node.Right, depth+1)
	case *Filter:
		line("filter (", format.SQLExpr(node.Predicate.Expr), ")")
		for _, subquery := range node.Subqueries {
			line("  subquery:")
			explainNode(sb, subquery.Node, depth+2)
		}
		explainNode(sb, node.Source, depth+1)
	case *Aggregate:
		parts := make([]string, 0, len(node.Aggregates))
		for _, agg := range node.Aggregates {
			parts = append(parts, format.SQLExpr(agg.Call))
		}
		label := "aggregate [" + strings.Join(parts, ", ") + "]"
		if len(node.GroupBy) > 0 {
			keys := make([]string, 0, len(node.GroupBy))
			for _, key := range node.GroupBy {
				keys = append(keys, format.SQLExpr(key.Expr))
			}
			label += " group by [" + strings.Join(keys, ", ") + "]"
		}
		line(label)
		explainNode(sb, node.Source, depth+1)
	case *Projection:
		parts := make([]string, 0, len(node.Fields))
		for _, field := range node.Fields {
			switch proj := field.(type) {
			case *ast.ProjectionAll:
				if proj.Collection != nil {
					parts = append(parts, proj.Collection.Name+".*")
				} else {
					parts = append(parts, "*")
				}
			case *ast.ProjectionExpr:
				label := format.SQLExpr(proj.Expr)
				if proj.Alias != nil {
					label += " as " + proj.Alias.Name
				}
				parts = append(parts, label)
			}
		}
		label := "project [" + strings.Join(parts, ", ") + "]"
		if node.Distinct {
			label = "distinct " + label
		}
		line(label)
		explainNode(sb, node.Source, depth+1)
	case *Compound:
		switch node.Operator {
		case ast.UnionAll:
			line("union all")
		case ast.Intersect:
			line("intersect")
		case ast.Except:
			line("except")
		default:
			line("union")
		}
		explainNode(sb, node.Source, depth+1)
		explainNode(sb, node.Right, depth+1)
	case *Order:
		keys := make([]string, 0, len(node.Keys))
		for _, key := range node.Keys {
			keys = append(keys, format.SQLExpr(key.Expr.Expr)+" "+strings.ToLower(key.Ordering.String()))
		}
		line("order by [", strings.Join(keys, ", "), "]")
		explainNode(sb, node.Source, depth+1)
	case *Offset:
		line("offset ", strconv.Itoa(node.N))
		explainNode(sb, node.Source, depth+1)
	case *Limit:
		line("limit ", strconv.Itoa(node.N))
		explainNode(sb, node.Source, depth+1)
	case *InsertNode:
		line("insert [", collectionLabel(&node.Collection), "]")
		if node.Source != nil {
			explainNode(sb, node.Source, depth+1)
		}
	case *UpdateNode:
		label := "update [" + collectionLabel(&node.Collection) + "]"
		if node.Where != nil {
			label += " where (" + format.SQLExpr(node.Where.Expr) + ")"
		}
		line(label)
	case *DeleteNode:
		label := "delete [" + collectionLabel(&node.Collection) + "]"
		if node.Where != nil {
			label += " where (" + format.SQLExpr(node.Where.Expr) + ")"
		}
		line(label)
	}
}

func collectionLabel(c *ast.SqlCollectionIdentifier) string {
	label := c.Name.Name
	if c.Namespace != nil {
		label = c.Namespace.Name + "." + label
	}
	if c.Alias != nil {
		label += " as " + c.Alias.Name
	}
	return label
}
