package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWalkExprVisitsChildren(t *testing.T) {
	// (1 + 2) * x
	expr := &Binary{
		Operation: Multiply,
		Left: &Grouping{Expr: &Binary{
			Operation: Add,
			Left:      &Literal{Value: Num(1)},
			Right:     &Literal{Value: Num(2)},
		}},
		Right: &Variable{Name: Identifier{Name: "x"}},
	}

	var visited int
	WalkExpr(expr, func(Expr) bool {
		visited++
		return true
	})
	require.Equal(t, 6, visited)
}

func TestWalkExprStopsDescent(t *testing.T) {
	expr := &Binary{
		Operation: Add,
		Left:      &Grouping{Expr: &Literal{Value: Num(1)}},
		Right:     &Literal{Value: Num(2)},
	}
	var visited int
	WalkExpr(expr, func(e Expr) bool {
		visited++
		_, grouping := e.(*Grouping)
		return !grouping
	})
	// the grouping's child is skipped
	require.Equal(t, 3, visited)
}

func TestWalkExprDescendsIntoSelectClauses(t *testing.T) {
	where := &Binary{
		Operation: IsEqual,
		Left:      &FieldPath{Head: Identifier{Name: "id"}},
		Right:     &Literal{Value: Num(1)},
	}
	sel := &Select{Query: SqlSelect{Core: &SqlSelectCore{
		Projection: []SqlProjection{&ProjectionAll{}},
		Where:      where,
	}}}

	var sawWhere bool
	WalkExpr(sel, func(e Expr) bool {
		if e == Expr(where) {
			sawWhere = true
		}
		return true
	})
	require.True(t, sawWhere)
}

func TestArena(t *testing.T) {
	arena := NewArena()
	first := arena.AllocExpr(&Literal{Value: Num(1)})
	second := arena.AllocExpr(&Literal{Value: Num(2)})
	require.Equal(t, 0, first.ExprID())
	require.Equal(t, 1, second.ExprID())
	require.Equal(t, first, arena.Expression(0))
	require.Nil(t, arena.Expression(99))

	stmt := arena.AllocStmt(&Break{})
	require.Equal(t, 0, stmt.StmtID())
	require.Equal(t, 1, arena.StmtCount())
	require.Equal(t, 2, arena.ExprCount())
}

func TestToJSONLiterals(t *testing.T) {
	require.Equal(t,
		map[string]any{"@type": "Expr::Literal", "value": map[string]any{"Num": 1.0}, "raw": "1"},
		ToJSON(&Literal{Value: Num(1), Raw: "1"}))
	require.Equal(t,
		map[string]any{"@type": "Expr::Literal", "value": nil, "raw": "undefined"},
		ToJSON(&Literal{Value: Undefined{}, Raw: "undefined"}))
}
