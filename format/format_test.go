package format

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lykia-rs/lykiadb/ast"
	"github.com/lykia-rs/lykiadb/parser"
)

func normalize(t *testing.T, node ast.Node) any {
	t.Helper()
	raw, err := json.Marshal(ast.ToJSON(node))
	require.NoError(t, err)
	var out any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

// assertRoundTrip checks that printing a parsed program and re-parsing the
// output yields a structurally identical tree.
func assertRoundTrip(t *testing.T, source string) {
	t.Helper()
	first, err := parser.Source(source)
	require.NoError(t, err, "source: %s", source)

	printed := Program(first.Root)
	second, err := parser.Source(printed)
	require.NoError(t, err, "printed: %s", printed)

	require.Equal(t, normalize(t, first.Root), normalize(t, second.Root),
		"source: %s\nprinted: %s", source, printed)
}

func TestRoundTripScript(t *testing.T) {
	sources := []string{
		"var $x = (5 + 2) * 4;",
		"var $x;",
		`var $name = "ada";`,
		"1 + 2 * 3 - 4 / 5;",
		"!true;",
		"-5;",
		"$x = $y;",
		"true && false || true;",
		"if ($x > 1) { out($x); } else { out(0); }",
		"while ($i < 5) { $i = $i + 1; }",
		"loop { break; }",
		"for (; $i < 5; $i = $i + 1) { continue; }",
		"function add($a, $b) { return $a + $b; };",
		"var $f = function($a) { return $a; };",
		"out(1, 2, 3);",
		"$obj.field;",
		"$obj.field = 5;",
		"[1, 2, [3]];",
		`{ a: 1, b: "two", 2.5: true };`,
		"{};",
		"5 between 1 and 10;",
		"5 not between 1 and 10;",
		`"a" in "abc";`,
		"return;",
	}
	for _, source := range sources {
		assertRoundTrip(t, source)
	}
}

func TestRoundTripSQL(t *testing.T) {
	sources := []string{
		"SELECT * FROM users;",
		"SELECT users.* FROM users;",
		"SELECT DISTINCT name FROM users;",
		"SELECT ALL name FROM users;",
		"SELECT name AS n, age FROM users;",
		"SELECT * FROM users WHERE id = 1;",
		`SELECT * FROM users WHERE age > 18 AND name != "x" OR active = true;`,
		"SELECT * FROM users WHERE age BETWEEN 18 AND 30;",
		"SELECT * FROM users WHERE age NOT BETWEEN 18 AND 30;",
		"SELECT * FROM users WHERE a IS b;",
		"SELECT * FROM users WHERE a IS NOT b;",
		"SELECT * FROM users WHERE id IN (SELECT user_id FROM admins);",
		"SELECT * FROM app.users AS u;",
		"SELECT u.name FROM users AS u;",
		"SELECT u.profile.name FROM users AS u;",
		"SELECT * FROM users AS u INNER JOIN orders AS o ON u.id = o.user_id;",
		"SELECT * FROM a LEFT JOIN b ON x = y;",
		"SELECT * FROM a RIGHT JOIN b ON x = y;",
		"SELECT * FROM a, b;",
		"SELECT * FROM (SELECT * FROM users) AS u;",
		"SELECT category, avg(price) AS mean FROM items GROUP BY category HAVING avg(price) > 5;",
		"SELECT count(*) FROM users;",
		"SELECT name FROM a UNION SELECT name FROM b;",
		"SELECT name FROM a UNION ALL SELECT name FROM b;",
		"SELECT name FROM a INTERSECT SELECT name FROM b;",
		"SELECT name FROM a EXCEPT SELECT name FROM b;",
		"SELECT * FROM users ORDER BY age DESC, name ASC;",
		"SELECT * FROM users LIMIT 5;",
		"SELECT * FROM users LIMIT 5 OFFSET 10;",
		`INSERT INTO users VALUES ({ name: "a" });`,
		"INSERT INTO archive SELECT * FROM users WHERE age > 90;",
		"UPDATE users SET age = age + 1 WHERE age < 100;",
		"DELETE FROM users WHERE age > 100;",
		"EXPLAIN SELECT * FROM users;",
	}
	for _, source := range sources {
		assertRoundTrip(t, source)
	}
}

func TestRoundTripEscapedIdentifiers(t *testing.T) {
	assertRoundTrip(t, `var $\for = 1; $\for;`)
}

func TestSQLExprRendering(t *testing.T) {
	program, err := parser.Source("SELECT * FROM users WHERE age > 30;")
	require.NoError(t, err)
	sel := program.Root.Body[0].(*ast.Expression).Expr.(*ast.Select)
	require.Equal(t, "age > 30", SQLExpr(sel.Query.Core.Where))
}

func TestExprRendering(t *testing.T) {
	program, err := parser.Source("1 == 2 && $x;")
	require.NoError(t, err)
	expr := program.Root.Body[0].(*ast.Expression).Expr
	require.Equal(t, "1 == 2 && $x", Expr(expr))
}
