package ast

import "github.com/lykia-rs/lykiadb/token"

// Program is the root statement of a parsed source.
type Program struct {
	ID   int
	Span token.Span
	Body []Stmt
}

func (*Program) stmtNode()             {}
func (s *Program) GetSpan() token.Span { return s.Span }
func (s *Program) StmtID() int         { return s.ID }
func (s *Program) setStmtID(id int)    { s.ID = id }

// Expression is an expression statement.
type Expression struct {
	ID   int
	Span token.Span
	Expr Expr
}

func (*Expression) stmtNode()             {}
func (s *Expression) GetSpan() token.Span { return s.Span }
func (s *Expression) StmtID() int         { return s.ID }
func (s *Expression) setStmtID(id int)    { s.ID = id }

// Declaration is a var declaration. A declaration without an initializer
// binds undefined.
type Declaration struct {
	ID   int
	Span token.Span
	Dst  Identifier
	Expr Expr
}

func (*Declaration) stmtNode()             {}
func (s *Declaration) GetSpan() token.Span { return s.Span }
func (s *Declaration) StmtID() int         { return s.ID }
func (s *Declaration) setStmtID(id int)    { s.ID = id }

// Block is a braced statement list introducing a new scope.
type Block struct {
	ID   int
	Span token.Span
	Body []Stmt
}

func (*Block) stmtNode()             {}
func (s *Block) GetSpan() token.Span { return s.Span }
func (s *Block) StmtID() int         { return s.ID }
func (s *Block) setStmtID(id int)    { s.ID = id }

// If is a conditional statement.
type If struct {
	ID        int
	Span      token.Span
	Condition Expr
	Body      Stmt
	ElseBody  Stmt
}

func (*If) stmtNode()             {}
func (s *If) GetSpan() token.Span { return s.Span }
func (s *If) StmtID() int         { return s.ID }
func (s *If) setStmtID(id int)    { s.ID = id }

// Loop is the common lowering of while, for, and loop statements.
// Condition and Post are optional.
type Loop struct {
	ID        int
	Span      token.Span
	Condition Expr
	Body      Stmt
	Post      Stmt
}

func (*Loop) stmtNode()             {}
func (s *Loop) GetSpan() token.Span { return s.Span }
func (s *Loop) StmtID() int         { return s.ID }
func (s *Loop) setStmtID(id int)    { s.ID = id }

// Break exits the innermost loop.
type Break struct {
	ID   int
	Span token.Span
}

func (*Break) stmtNode()             {}
func (s *Break) GetSpan() token.Span { return s.Span }
func (s *Break) StmtID() int         { return s.ID }
func (s *Break) setStmtID(id int)    { s.ID = id }

// Continue skips to the next iteration of the innermost loop.
type Continue struct {
	ID   int
	Span token.Span
}

func (*Continue) stmtNode()             {}
func (s *Continue) GetSpan() token.Span { return s.Span }
func (s *Continue) StmtID() int         { return s.ID }
func (s *Continue) setStmtID(id int)    { s.ID = id }

// Return unwinds to the nearest user-function call site.
type Return struct {
	ID   int
	Span token.Span
	Expr Expr
}

func (*Return) stmtNode()             {}
func (s *Return) GetSpan() token.Span { return s.Span }
func (s *Return) StmtID() int         { return s.ID }
func (s *Return) setStmtID(id int)    { s.ID = id }

// Explain renders the plan of a SELECT target instead of executing it.
type Explain struct {
	ID   int
	Span token.Span
	Expr Expr
}

func (*Explain) stmtNode()             {}
func (s *Explain) GetSpan() token.Span { return s.Span }
func (s *Explain) StmtID() int         { return s.ID }
func (s *Explain) setStmtID(id int)    { s.ID = id }
