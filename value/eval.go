package value

import (
	"math"
	"strconv"
	"strings"

	"github.com/lykia-rs/lykiadb/ast"
)

// Equals implements value equality. Undefined is reflexive but never equal
// to anything else. Strings compare to numbers via numeric parse; strings
// and numbers compare to booleans via truthiness. Arrays and objects never
// compare equal, not even to themselves: identity is not meaningful in the
// value domain. NaN is never equal to anything.
func Equals(left, right Value) bool {
	switch l := left.(type) {
	case Undefined:
		_, ok := right.(Undefined)
		return ok
	case Str:
		switch r := right.(type) {
		case Str:
			return l == r
		case Num:
			return eqStrNum(l, float64(r))
		case Bool:
			return l.Truthy() == bool(r)
		}
	case Num:
		switch r := right.(type) {
		case Num:
			return l == r
		case Str:
			return eqStrNum(r, float64(l))
		case Bool:
			return l.Truthy() == bool(r)
		}
	case Bool:
		switch r := right.(type) {
		case Bool:
			return l == r
		case Str:
			return r.Truthy() == bool(l)
		case Num:
			return r.Truthy() == bool(l)
		}
	}
	return false
}

func eqStrNum(s Str, n float64) bool {
	parsed, err := strconv.ParseFloat(string(s), 64)
	return err == nil && parsed == n
}

// Compare implements the partial order over values. The second result is
// false for incomparable pairs: any comparison involving a single
// Undefined operand, arrays, objects, callables, or non-numeric strings
// against numbers.
func Compare(left, right Value) (int, bool) {
	switch l := left.(type) {
	case Undefined:
		if _, ok := right.(Undefined); ok {
			return 0, true
		}
	case Str:
		switch r := right.(type) {
		case Str:
			return strings.Compare(string(l), string(r)), true
		case Num:
			if parsed, err := strconv.ParseFloat(string(l), 64); err == nil {
				return cmpFloat(parsed, float64(r))
			}
		case Bool:
			return cmpStrBool(l, bool(r), false)
		}
	case Num:
		switch r := right.(type) {
		case Num:
			return cmpFloat(float64(l), float64(r))
		case Str:
			if parsed, err := strconv.ParseFloat(string(r), 64); err == nil {
				return cmpFloat(float64(l), parsed)
			}
		case Bool:
			return cmpFloat(float64(l), boolToNum(bool(r)))
		}
	case Bool:
		switch r := right.(type) {
		case Bool:
			return cmpBool(bool(l), bool(r)), true
		case Str:
			return cmpStrBool(r, bool(l), true)
		case Num:
			return cmpFloat(boolToNum(bool(l)), float64(r))
		}
	}
	return 0, false
}

func cmpFloat(a, b float64) (int, bool) {
	if math.IsNaN(a) || math.IsNaN(b) {
		return 0, false
	}
	switch {
	case a < b:
		return -1, true
	case a > b:
		return 1, true
	}
	return 0, true
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case b:
		return -1
	}
	return 1
}

// cmpStrBool compares a string against a boolean: numerically when the
// string parses, by truthiness otherwise. flip reverses the result for the
// bool-on-the-left orientation.
func cmpStrBool(s Str, b bool, flip bool) (int, bool) {
	var result int
	if parsed, err := strconv.ParseFloat(string(s), 64); err == nil {
		cmp, ok := cmpFloat(parsed, boolToNum(b))
		if !ok {
			return 0, false
		}
		result = cmp
	} else {
		result = cmpBool(s.Truthy(), b)
	}
	if flip {
		result = -result
	}
	return result, true
}

func boolToNum(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Add implements '+'. Any string operand turns the operation into
// concatenation of canonical string forms; otherwise both sides coerce to
// numbers, and failure yields undefined.
func Add(left, right Value) Value {
	_, leftStr := left.(Str)
	_, rightStr := right.(Str)
	if leftStr || rightStr {
		return Str(Format(left) + Format(right))
	}
	a, aok := AsNumber(left)
	b, bok := AsNumber(right)
	if aok && bok {
		return Num(a + b)
	}
	return Undefined{}
}

// Subtract implements '-' with numeric coercion on both sides.
func Subtract(left, right Value) Value {
	a, aok := AsNumber(left)
	b, bok := AsNumber(right)
	if aok && bok {
		return Num(a - b)
	}
	return Undefined{}
}

// Multiply implements '*' with numeric coercion on both sides.
func Multiply(left, right Value) Value {
	a, aok := AsNumber(left)
	b, bok := AsNumber(right)
	if aok && bok {
		return Num(a * b)
	}
	return Undefined{}
}

// Divide implements '/'. 0/0 is undefined; division of a non-zero number
// by zero follows IEEE-754 and yields a signed infinity.
func Divide(left, right Value) Value {
	if _, ok := left.(Undefined); ok {
		return Undefined{}
	}
	if _, ok := right.(Undefined); ok {
		return Undefined{}
	}
	a, aok := AsNumber(left)
	b, bok := AsNumber(right)
	if !aok || !bok {
		return Undefined{}
	}
	if a == 0 && b == 0 {
		return Undefined{}
	}
	return Num(a / b)
}

// IsIn implements the IN operator: substring for string pairs, membership
// for arrays, key existence for objects, false otherwise.
func IsIn(left, right Value) Bool {
	switch r := right.(type) {
	case Str:
		if l, ok := left.(Str); ok {
			return Bool(strings.Contains(string(r), string(l)))
		}
	case *Array:
		return Bool(r.Contains(left))
	case *Object:
		if l, ok := left.(Str); ok {
			return Bool(r.Has(string(l)))
		}
	}
	return false
}

// EvalBinary applies a binary operation to two evaluated operands.
// Comparison operators always return a Bool; arithmetic failures surface
// as undefined rather than errors.
func EvalBinary(left, right Value, operation ast.Operation) Value {
	switch operation {
	case ast.Is, ast.IsEqual:
		return Bool(Equals(left, right))
	case ast.IsNot, ast.IsNotEqual:
		return Bool(!Equals(left, right))
	case ast.Less:
		cmp, ok := Compare(left, right)
		return Bool(ok && cmp < 0)
	case ast.LessEqual:
		cmp, ok := Compare(left, right)
		return Bool(ok && cmp <= 0)
	case ast.Greater:
		cmp, ok := Compare(left, right)
		return Bool(ok && cmp > 0)
	case ast.GreaterEqual:
		cmp, ok := Compare(left, right)
		return Bool(ok && cmp >= 0)
	case ast.Add:
		return Add(left, right)
	case ast.Subtract:
		return Subtract(left, right)
	case ast.Multiply:
		return Multiply(left, right)
	case ast.Divide:
		return Divide(left, right)
	case ast.In:
		return IsIn(left, right)
	case ast.NotIn:
		return Bool(!IsIn(left, right))
	}
	// TODO: implement LIKE pattern matching
	return Undefined{}
}
