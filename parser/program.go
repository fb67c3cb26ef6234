package parser

import "github.com/lykia-rs/lykiadb/ast"

// Program is a parsed source: the root statement, the arena owning every
// node, and the scope distances computed by the resolver. A program is
// immutable after resolution; the interpreter only borrows it.
type Program struct {
	Root  *ast.Program
	Arena *ast.Arena

	// distances maps an expression id to the number of parent frames to
	// skip when resolving the identifier inside it. Expressions without an
	// entry resolve against the root frame.
	distances map[int]int
}

func newProgram(root *ast.Program, arena *ast.Arena) *Program {
	return &Program{
		Root:      root,
		Arena:     arena,
		distances: make(map[int]int),
	}
}

// Distance returns the recorded scope distance for an expression.
func (p *Program) Distance(e ast.Expr) (int, bool) {
	d, ok := p.distances[e.ExprID()]
	return d, ok
}
