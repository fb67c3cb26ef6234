package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lykia-rs/lykiadb/ast"
)

func TestAddition(t *testing.T) {
	tests := []struct {
		left, right Value
		expected    Value
	}{
		{Num(1), Num(2), Num(3)},
		{Bool(true), Bool(true), Num(2)},
		{Num(1), Bool(true), Num(2)},
		{Str("a"), Str("b"), Str("ab")},
		{Str("a"), Num(1), Str("a1")},
		{Num(1.5), Str("a"), Str("1.5a")},
		{Str("a"), Bool(true), Str("atrue")},
		{Str("v="), Undefined{}, Str("v=undefined")},
		{Undefined{}, Num(1), Undefined{}},
		{NewArray(), Num(1), Undefined{}},
	}
	for _, test := range tests {
		require.Equal(t, test.expected, Add(test.left, test.right),
			"%s + %s", Format(test.left), Format(test.right))
	}
}

func TestSubtractionAndMultiplication(t *testing.T) {
	require.Equal(t, Num(1), Subtract(Num(3), Num(2)))
	require.Equal(t, Num(2), Subtract(Str("3"), Num(1)))
	require.Equal(t, Num(6), Multiply(Num(3), Num(2)))
	require.Equal(t, Num(3), Multiply(Str("3"), Bool(true)))
	require.Equal(t, Undefined{}, Subtract(Str("abc"), Num(1)))
	require.Equal(t, Undefined{}, Multiply(NewObject(), Num(1)))
	require.Equal(t, Undefined{}, Subtract(Undefined{}, Num(1)))
}

func TestDivision(t *testing.T) {
	require.Equal(t, Num(2), Divide(Num(6), Num(3)))
	require.Equal(t, Undefined{}, Divide(Num(0), Num(0)))
	require.Equal(t, Undefined{}, Divide(Undefined{}, Num(1)))
	require.Equal(t, Undefined{}, Divide(Num(1), Undefined{}))
	require.Equal(t, Undefined{}, Divide(Str("abc"), Num(1)))

	// non-zero over zero follows IEEE-754
	result := Divide(Num(1), Num(0))
	require.Equal(t, Num(math.Inf(1)), result)
	result = Divide(Num(-1), Num(0))
	require.Equal(t, Num(math.Inf(-1)), result)
}

func TestIsIn(t *testing.T) {
	require.Equal(t, Bool(true), IsIn(Str("a"), Str("a")))
	require.Equal(t, Bool(true), IsIn(Str("ell"), Str("hello")))
	require.Equal(t, Bool(false), IsIn(Str("x"), Str("hello")))

	arr := NewArray(Num(1), Str("two"))
	require.Equal(t, Bool(true), IsIn(Num(1), arr))
	require.Equal(t, Bool(true), IsIn(Str("two"), arr))
	require.Equal(t, Bool(false), IsIn(Num(3), arr))

	obj := NewObject()
	obj.Set("key", Num(1))
	require.Equal(t, Bool(true), IsIn(Str("key"), obj))
	require.Equal(t, Bool(false), IsIn(Str("other"), obj))

	require.Equal(t, Bool(false), IsIn(Num(1), Num(1)))
}

func TestEvalBinaryComparisonsReturnBool(t *testing.T) {
	operations := []ast.Operation{
		ast.IsEqual, ast.IsNotEqual, ast.Is, ast.IsNot,
		ast.Less, ast.LessEqual, ast.Greater, ast.GreaterEqual,
	}
	operands := []Value{
		Num(1), Str("a"), Bool(true), Undefined{}, NewArray(), NewObject(),
	}
	for _, op := range operations {
		for _, left := range operands {
			for _, right := range operands {
				result := EvalBinary(left, right, op)
				_, ok := result.(Bool)
				require.True(t, ok, "%s %s %s returned %T",
					Format(left), op, Format(right), result)
			}
		}
	}
}

func TestEvalBinaryComparisonsWithUndefinedAreFalse(t *testing.T) {
	for _, op := range []ast.Operation{ast.Less, ast.LessEqual, ast.Greater, ast.GreaterEqual} {
		require.Equal(t, Bool(false), EvalBinary(Undefined{}, Num(1), op))
		require.Equal(t, Bool(false), EvalBinary(Num(1), Undefined{}, op))
	}
}

func TestEvalBinaryArithmetic(t *testing.T) {
	require.Equal(t, Num(7), EvalBinary(Num(3), Num(4), ast.Add))
	require.Equal(t, Num(-1), EvalBinary(Num(3), Num(4), ast.Subtract))
	require.Equal(t, Num(12), EvalBinary(Num(3), Num(4), ast.Multiply))
	require.Equal(t, Num(0.75), EvalBinary(Num(3), Num(4), ast.Divide))
}

func TestEvalBinaryLikeIsUndefined(t *testing.T) {
	require.Equal(t, Undefined{}, EvalBinary(Str("a"), Str("a%"), ast.Like))
	require.Equal(t, Undefined{}, EvalBinary(Str("a"), Str("a%"), ast.NotLike))
}

// Properties from the contract: v + 0 = v for numbers, v + "" is the
// string form of v for all v.
func TestAdditionIdentities(t *testing.T) {
	for _, v := range []Value{Num(0), Num(1), Num(-3.5), Num(1e10)} {
		require.Equal(t, v, Add(v, Num(0)))
	}
	for _, v := range []Value{Num(1.5), Str("x"), Bool(true), Undefined{}, NewArray(Num(1))} {
		require.Equal(t, Str(Format(v)), Add(v, Str("")))
	}
}
