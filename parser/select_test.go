package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lykia-rs/lykiadb/ast"
)

func selectExpr(t *testing.T, input string) *ast.Select {
	t.Helper()
	expr := firstExpr(t, parse(t, input))
	sel, ok := expr.(*ast.Select)
	require.True(t, ok, "expression is %T", expr)
	return sel
}

func TestSelectPlain(t *testing.T) {
	program := parse(t, "SELECT * from users;")
	assertJSON(t, program.Root, `{
		"@type": "Stmt::Program",
		"body": [
			{
				"@type": "Stmt::Expression",
				"expr": {
					"@type": "Expr::Select",
					"query": {
						"@type": "SqlSelect",
						"core": {
							"@type": "SqlSelectCore",
							"compound": null,
							"distinct": {"@type": "SqlDistinct::ImplicitAll"},
							"from": {
								"@type": "SqlFrom::Group",
								"values": [
									{
										"@type": "SqlCollectionIdentifier",
										"alias": null,
										"name": {
											"@type": "Identifier",
											"kind": "IdentifierKind::Plain",
											"name": "users"
										},
										"namespace": null
									}
								]
							},
							"group_by": null,
							"having": null,
							"projection": [
								{"@type": "SqlProjection::All", "collection": null}
							],
							"where": null
						},
						"limit": null,
						"order_by": null
					}
				}
			}
		]
	}`)
}

func TestSelectWhereFieldPath(t *testing.T) {
	sel := selectExpr(t, "SELECT * FROM users WHERE id = 1;")
	where, ok := sel.Query.Core.Where.(*ast.Binary)
	require.True(t, ok)
	require.Equal(t, ast.IsEqual, where.Operation)
	path, ok := where.Left.(*ast.FieldPath)
	require.True(t, ok)
	require.Equal(t, "id", path.Head.Name)
	require.Equal(t, ast.IdentifierSymbol, path.Head.Kind)
	require.Empty(t, path.Tail)
	lit, ok := where.Right.(*ast.Literal)
	require.True(t, ok)
	require.Equal(t, ast.Num(1), lit.Value)
}

func TestSelectFieldPathWithTail(t *testing.T) {
	sel := selectExpr(t, "SELECT u.profile.name FROM users u;")
	proj, ok := sel.Query.Core.Projection[0].(*ast.ProjectionExpr)
	require.True(t, ok)
	path, ok := proj.Expr.(*ast.FieldPath)
	require.True(t, ok)
	require.Equal(t, "u", path.Head.Name)
	require.Len(t, path.Tail, 2)
	require.Equal(t, "profile", path.Tail[0].Name)
	require.Equal(t, "name", path.Tail[1].Name)
}

func TestSelectProjections(t *testing.T) {
	sel := selectExpr(t, "SELECT users.*, name AS n, upper(name) FROM users;")
	require.Len(t, sel.Query.Core.Projection, 3)

	all, ok := sel.Query.Core.Projection[0].(*ast.ProjectionAll)
	require.True(t, ok)
	require.NotNil(t, all.Collection)
	require.Equal(t, "users", all.Collection.Name)

	aliased, ok := sel.Query.Core.Projection[1].(*ast.ProjectionExpr)
	require.True(t, ok)
	require.Equal(t, "n", aliased.Alias.Name)

	call, ok := sel.Query.Core.Projection[2].(*ast.ProjectionExpr)
	require.True(t, ok)
	_, ok = call.Expr.(*ast.Call)
	require.True(t, ok)
}

func TestSelectDistinct(t *testing.T) {
	require.Equal(t, ast.Distinct, selectExpr(t, "SELECT DISTINCT name FROM users;").Query.Core.Distinct)
	require.Equal(t, ast.All, selectExpr(t, "SELECT ALL name FROM users;").Query.Core.Distinct)
	require.Equal(t, ast.ImplicitAll, selectExpr(t, "SELECT name FROM users;").Query.Core.Distinct)
}

func TestSelectSQLOperators(t *testing.T) {
	sel := selectExpr(t, `SELECT * FROM users WHERE age > 18 AND name != "x" OR active = true;`)
	or, ok := sel.Query.Core.Where.(*ast.Logical)
	require.True(t, ok)
	require.Equal(t, ast.Or, or.Operation)
	and, ok := or.Left.(*ast.Logical)
	require.True(t, ok)
	require.Equal(t, ast.And, and.Operation)
}

func TestSelectBetween(t *testing.T) {
	sel := selectExpr(t, "SELECT * FROM users WHERE age BETWEEN 18 AND 30;")
	between, ok := sel.Query.Core.Where.(*ast.Between)
	require.True(t, ok)
	require.Equal(t, ast.RangeBetween, between.Kind)
	path, ok := between.Subject.(*ast.FieldPath)
	require.True(t, ok)
	require.Equal(t, "age", path.Head.Name)
	require.Equal(t, ast.Num(18), between.Lower.(*ast.Literal).Value)
	require.Equal(t, ast.Num(30), between.Upper.(*ast.Literal).Value)

	sel = selectExpr(t, "SELECT * FROM users WHERE age NOT BETWEEN 18 AND 30;")
	between = sel.Query.Core.Where.(*ast.Between)
	require.Equal(t, ast.RangeNotBetween, between.Kind)
}

func TestSelectPredicates(t *testing.T) {
	tests := []struct {
		input     string
		operation ast.Operation
	}{
		{"SELECT * FROM users WHERE a IS b;", ast.Is},
		{"SELECT * FROM users WHERE a IS NOT b;", ast.IsNot},
		{"SELECT * FROM users WHERE a IN b;", ast.In},
		{"SELECT * FROM users WHERE a NOT IN b;", ast.NotIn},
		{"SELECT * FROM users WHERE a LIKE b;", ast.Like},
		{"SELECT * FROM users WHERE a NOT LIKE b;", ast.NotLike},
	}
	for _, test := range tests {
		sel := selectExpr(t, test.input)
		binary, ok := sel.Query.Core.Where.(*ast.Binary)
		require.True(t, ok, "input: %q", test.input)
		require.Equal(t, test.operation, binary.Operation, "input: %q", test.input)
	}
}

func TestSelectGroupByHaving(t *testing.T) {
	sel := selectExpr(t, "SELECT category, avg(price) FROM items GROUP BY category HAVING avg(price) > 5;")
	require.Len(t, sel.Query.Core.GroupBy, 1)
	require.NotNil(t, sel.Query.Core.Having)
}

func TestSelectJoins(t *testing.T) {
	sel := selectExpr(t, "SELECT * FROM users u JOIN orders o ON u.id = o.user_id;")
	group, ok := sel.Query.Core.From.(*ast.FromGroup)
	require.True(t, ok)
	join, ok := group.Values[0].(*ast.FromJoin)
	require.True(t, ok)
	require.Equal(t, ast.JoinInner, join.JoinType)
	require.NotNil(t, join.Constraint)

	sel = selectExpr(t, "SELECT * FROM a LEFT JOIN b ON x = y;")
	join = sel.Query.Core.From.(*ast.FromGroup).Values[0].(*ast.FromJoin)
	require.Equal(t, ast.JoinLeft, join.JoinType)

	sel = selectExpr(t, "SELECT * FROM a RIGHT OUTER JOIN b ON x = y;")
	join = sel.Query.Core.From.(*ast.FromGroup).Values[0].(*ast.FromJoin)
	require.Equal(t, ast.JoinRight, join.JoinType)

	// JOIN a JOIN b is left-associative
	sel = selectExpr(t, "SELECT * FROM a JOIN b JOIN c;")
	join = sel.Query.Core.From.(*ast.FromGroup).Values[0].(*ast.FromJoin)
	_, ok = join.Left.(*ast.FromJoin)
	require.True(t, ok)
}

func TestSelectSubquerySourceRequiresAlias(t *testing.T) {
	sel := selectExpr(t, "SELECT * FROM (SELECT * FROM users) AS u;")
	group := sel.Query.Core.From.(*ast.FromGroup)
	subquery, ok := group.Values[0].(*ast.FromSelect)
	require.True(t, ok)
	require.Equal(t, "u", subquery.Alias.Name)

	err := parseErr(t, "SELECT * FROM (SELECT * FROM users);")
	require.True(t, ErrMissingToken.Is(err))
}

func TestSelectNamespacedCollection(t *testing.T) {
	sel := selectExpr(t, "SELECT * FROM app.users AS u;")
	group := sel.Query.Core.From.(*ast.FromGroup)
	collection, ok := group.Values[0].(*ast.SqlCollectionIdentifier)
	require.True(t, ok)
	require.Equal(t, "app", collection.Namespace.Name)
	require.Equal(t, "users", collection.Name.Name)
	require.Equal(t, "u", collection.Alias.Name)
	require.Equal(t, "u", collection.Binding())
}

func TestSelectCompound(t *testing.T) {
	sel := selectExpr(t, "SELECT name FROM a UNION SELECT name FROM b INTERSECT SELECT name FROM c;")
	core := sel.Query.Core
	require.NotNil(t, core.Compound)
	require.Equal(t, ast.Union, core.Compound.Operator)
	require.NotNil(t, core.Compound.Core.Compound)
	require.Equal(t, ast.Intersect, core.Compound.Core.Compound.Operator)

	sel = selectExpr(t, "SELECT name FROM a UNION ALL SELECT name FROM b;")
	require.Equal(t, ast.UnionAll, sel.Query.Core.Compound.Operator)

	sel = selectExpr(t, "SELECT name FROM a EXCEPT SELECT name FROM b;")
	require.Equal(t, ast.Except, sel.Query.Core.Compound.Operator)
}

func TestSelectOrderBy(t *testing.T) {
	sel := selectExpr(t, "SELECT * FROM users ORDER BY age DESC, name;")
	require.Len(t, sel.Query.OrderBy, 2)
	require.Equal(t, ast.Desc, sel.Query.OrderBy[0].Ordering)
	require.Equal(t, ast.Asc, sel.Query.OrderBy[1].Ordering)
}

func TestSelectLimitOffset(t *testing.T) {
	sel := selectExpr(t, "SELECT * FROM users LIMIT 5;")
	require.NotNil(t, sel.Query.Limit)
	require.Equal(t, ast.Num(5), sel.Query.Limit.Count.(*ast.Literal).Value)
	require.Nil(t, sel.Query.Limit.Offset)

	sel = selectExpr(t, "SELECT * FROM users LIMIT 5 OFFSET 10;")
	require.Equal(t, ast.Num(5), sel.Query.Limit.Count.(*ast.Literal).Value)
	require.Equal(t, ast.Num(10), sel.Query.Limit.Offset.(*ast.Literal).Value)

	// LIMIT a, b takes the offset first and the count second
	sel = selectExpr(t, "SELECT * FROM users LIMIT 10, 5;")
	require.Equal(t, ast.Num(5), sel.Query.Limit.Count.(*ast.Literal).Value)
	require.Equal(t, ast.Num(10), sel.Query.Limit.Offset.(*ast.Literal).Value)
}

func TestSelectCountStar(t *testing.T) {
	sel := selectExpr(t, "SELECT count(*) FROM users;")
	proj := sel.Query.Core.Projection[0].(*ast.ProjectionExpr)
	call, ok := proj.Expr.(*ast.Call)
	require.True(t, ok)
	require.Len(t, call.Args, 1)
	star, ok := call.Args[0].(*ast.Variable)
	require.True(t, ok)
	require.Equal(t, "*", star.Name.Name)
}

func TestSelectWithoutFrom(t *testing.T) {
	sel := selectExpr(t, "SELECT 1;")
	require.Nil(t, sel.Query.Core.From)
}

func TestParseInsert(t *testing.T) {
	program := parse(t, `INSERT INTO users VALUES ({name: "a"}, {name: "b"});`)
	insert, ok := firstExpr(t, program).(*ast.Insert)
	require.True(t, ok)
	require.Equal(t, "users", insert.Command.Collection.Name.Name)
	values, ok := insert.Command.Values.(*ast.ValuesList)
	require.True(t, ok)
	require.Len(t, values.Values, 2)
}

func TestParseInsertSelect(t *testing.T) {
	program := parse(t, "INSERT INTO archive SELECT * FROM users WHERE age > 90;")
	insert := firstExpr(t, program).(*ast.Insert)
	_, ok := insert.Command.Values.(*ast.ValuesSelect)
	require.True(t, ok)
}

func TestParseUpdate(t *testing.T) {
	program := parse(t, "UPDATE users SET age = age + 1, active = false WHERE age < 100;")
	update, ok := firstExpr(t, program).(*ast.Update)
	require.True(t, ok)
	require.Len(t, update.Command.Assignments, 2)
	require.Equal(t, "age", update.Command.Assignments[0].Field.Name)
	require.NotNil(t, update.Command.Where)
}

func TestParseDelete(t *testing.T) {
	program := parse(t, "DELETE FROM users WHERE age > 100;")
	del, ok := firstExpr(t, program).(*ast.Delete)
	require.True(t, ok)
	require.Equal(t, "users", del.Command.Collection.Name.Name)
	require.NotNil(t, del.Command.Where)

	program = parse(t, "DELETE FROM users;")
	del = firstExpr(t, program).(*ast.Delete)
	require.Nil(t, del.Command.Where)
}

func TestParseExplain(t *testing.T) {
	program := parse(t, "EXPLAIN SELECT * FROM users;")
	explain, ok := program.Root.Body[0].(*ast.Explain)
	require.True(t, ok)
	_, ok = explain.Expr.(*ast.Select)
	require.True(t, ok)
}
