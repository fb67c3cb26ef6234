package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lykia-rs/lykiadb/ast"
)

func resolve(t *testing.T, input string) *Program {
	t.Helper()
	program := parse(t, input)
	Resolve(program)
	return program
}

func distanceOf(t *testing.T, program *Program, e ast.Expr) int {
	t.Helper()
	d, ok := program.Distance(e)
	require.True(t, ok, "no distance recorded")
	return d
}

func TestResolveTopLevel(t *testing.T) {
	program := resolve(t, "var $x = 1; $x;")
	ref := program.Root.Body[1].(*ast.Expression).Expr
	require.Equal(t, 0, distanceOf(t, program, ref))
}

func TestResolveBlockDistance(t *testing.T) {
	program := resolve(t, "var $x = 1; { { $x; } }")
	outer := program.Root.Body[1].(*ast.Block)
	inner := outer.Body[0].(*ast.Block)
	ref := inner.Body[0].(*ast.Expression).Expr
	require.Equal(t, 2, distanceOf(t, program, ref))
}

func TestResolveShadowing(t *testing.T) {
	program := resolve(t, "var $x = 1; { var $x = 2; $x; }")
	block := program.Root.Body[1].(*ast.Block)
	ref := block.Body[1].(*ast.Expression).Expr
	require.Equal(t, 0, distanceOf(t, program, ref))
}

func TestResolveFunctionCapture(t *testing.T) {
	program := resolve(t, "var $n = 0; function inc() { $n = $n + 1; };")
	fnStmt := program.Root.Body[1].(*ast.Expression)
	fn := fnStmt.Expr.(*ast.Function)
	assignment := fn.Body[0].(*ast.Expression).Expr.(*ast.Assignment)
	// one function frame between the reference and the declaration
	require.Equal(t, 1, distanceOf(t, program, assignment))
}

func TestResolveParameters(t *testing.T) {
	program := resolve(t, "function id($a) { return $a; };")
	fn := program.Root.Body[0].(*ast.Expression).Expr.(*ast.Function)
	ret := fn.Body[0].(*ast.Return)
	require.Equal(t, 0, distanceOf(t, program, ret.Expr))
}

func TestUnresolvedGetsNoEntry(t *testing.T) {
	program := resolve(t, "out(1);")
	call := program.Root.Body[0].(*ast.Expression).Expr.(*ast.Call)
	_, ok := program.Distance(call.Callee)
	require.False(t, ok)
}

func TestResolveDollarFieldPathInQuery(t *testing.T) {
	program := resolve(t, "var $min = 18; SELECT * FROM users WHERE age > $min;")
	sel := program.Root.Body[1].(*ast.Expression).Expr.(*ast.Select)
	where := sel.Query.Core.Where.(*ast.Binary)
	require.Equal(t, 0, distanceOf(t, program, where.Right))

	// bare field heads resolve against rows, not frames
	_, ok := program.Distance(where.Left)
	require.False(t, ok)
}
