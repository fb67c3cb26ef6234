package interpreter

import (
	"github.com/lykia-rs/lykiadb/ast"
	"github.com/lykia-rs/lykiadb/value"
)

// NativeFn is a host function injected into the root environment.
type NativeFn func(i *Interpreter, args []value.Value) (value.Value, error)

// UserFunction is a function literal closed over the frame active at its
// evaluation.
type UserFunction struct {
	Name       string
	Parameters []Symbol
	Body       []ast.Stmt
	Closure    *EnvironmentFrame
}

// Callable is the callable value kind: either a native host function or a
// user-defined function. Aggregates are callables flagged as such; inside
// query execution their calls short-circuit to pre-computed row values.
type Callable struct {
	Name      string
	Aggregate bool
	Native    NativeFn
	Function  *UserFunction
}

// Truthy reports true: any callable is truthy.
func (c *Callable) Truthy() bool { return true }

func (c *Callable) String() string {
	return "<callable " + c.Name + ">"
}
