// Package ast defines the abstract syntax tree shared by the scripting
// language and the embedded SQL sublanguage. Nodes are allocated through an
// Arena that hands out stable integer ids, so downstream phases (resolver,
// planner) can name nodes without owning them.
package ast

import "github.com/lykia-rs/lykiadb/token"

// Node is the base interface for all AST nodes.
type Node interface {
	GetSpan() token.Span
}

// Stmt represents a statement.
type Stmt interface {
	Node
	StmtID() int
	stmtNode()
}

// Expr represents an expression.
type Expr interface {
	Node
	ExprID() int
	exprNode()
}

// IdentifierKind classifies how an identifier is used. The tokenizer only
// records the '$' prefix; the parser lifts that to a kind based on
// syntactic context.
type IdentifierKind int

const (
	// IdentifierPlain is a generic script identifier.
	IdentifierPlain IdentifierKind = iota
	// IdentifierSymbol appears in SQL identifier context (collection or field).
	IdentifierSymbol
	// IdentifierVariable is a '$'-prefixed user variable.
	IdentifierVariable
)

func (k IdentifierKind) String() string {
	switch k {
	case IdentifierSymbol:
		return "Symbol"
	case IdentifierVariable:
		return "Variable"
	default:
		return "Plain"
	}
}

// Identifier is a named reference with its syntactic kind.
type Identifier struct {
	Name string
	Kind IdentifierKind
	Span token.Span
}

// Operation enumerates binary, logical, and unary operators.
type Operation int

const (
	Add Operation = iota
	Subtract
	Multiply
	Divide
	IsEqual
	IsNotEqual
	Is
	IsNot
	In
	NotIn
	Like
	NotLike
	Less
	LessEqual
	Greater
	GreaterEqual
	And
	Or
	Not
)

var operationNames = [...]string{
	Add:          "Add",
	Subtract:     "Subtract",
	Multiply:     "Multiply",
	Divide:       "Divide",
	IsEqual:      "IsEqual",
	IsNotEqual:   "IsNotEqual",
	Is:           "Is",
	IsNot:        "IsNot",
	In:           "In",
	NotIn:        "NotIn",
	Like:         "Like",
	NotLike:      "NotLike",
	Less:         "Less",
	LessEqual:    "LessEqual",
	Greater:      "Greater",
	GreaterEqual: "GreaterEqual",
	And:          "And",
	Or:           "Or",
	Not:          "Not",
}

func (o Operation) String() string {
	if int(o) < len(operationNames) {
		return operationNames[o]
	}
	return "UNKNOWN"
}

// Symbol returns the operator's source form for the given context: SQL
// predicates spell equality "=" and logical operators as keywords.
func (o Operation) Symbol(sql bool) string {
	switch o {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	case IsEqual:
		if sql {
			return "="
		}
		return "=="
	case IsNotEqual:
		return "!="
	case Is:
		return "IS"
	case IsNot:
		return "IS NOT"
	case In:
		return "IN"
	case NotIn:
		return "NOT IN"
	case Like:
		return "LIKE"
	case NotLike:
		return "NOT LIKE"
	case Less:
		return "<"
	case LessEqual:
		return "<="
	case Greater:
		return ">"
	case GreaterEqual:
		return ">="
	case And:
		if sql {
			return "AND"
		}
		return "&&"
	case Or:
		if sql {
			return "OR"
		}
		return "||"
	case Not:
		return "!"
	}
	return "?"
}

// RangeKind distinguishes BETWEEN from NOT BETWEEN.
type RangeKind int

const (
	RangeBetween RangeKind = iota
	RangeNotBetween
)
