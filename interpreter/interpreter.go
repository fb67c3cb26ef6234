// Package interpreter implements the tree-walking evaluator: the
// environment chain, closures, loop control flow, and the bridge into the
// query planner and executor.
package interpreter

import (
	"gopkg.in/src-d/go-errors.v1"

	"github.com/lykia-rs/lykiadb/ast"
	"github.com/lykia-rs/lykiadb/memory"
	"github.com/lykia-rs/lykiadb/parser"
	"github.com/lykia-rs/lykiadb/plan"
	"github.com/lykia-rs/lykiadb/value"
)

var (
	// ErrNotCallable is returned when a call target is not a callable.
	ErrNotCallable = errors.NewKind("expression is not callable at %s")
	// ErrPropertyNotFound is returned for missing object properties.
	ErrPropertyNotFound = errors.NewKind("property '%s' was not found at %s")
	// ErrInvalidPropertyAccess is returned for property access on
	// non-objects.
	ErrInvalidPropertyAccess = errors.NewKind("cannot access properties of %s at %s")
	// ErrInvalidRangeExpression is returned for BETWEEN over non-numbers.
	ErrInvalidRangeExpression = errors.NewKind("range bounds must be numbers at %s")
	// ErrUnexpectedStatement is returned for break or continue outside any
	// loop and similar internal consistency problems.
	ErrUnexpectedStatement = errors.NewKind("unexpected statement at %s")
	// ErrInvalidExplainTarget is returned when EXPLAIN targets anything but
	// a SELECT.
	ErrInvalidExplainTarget = errors.NewKind("EXPLAIN expects a SELECT at %s")
	// ErrAggregateValueNotFound signals a planner/executor mismatch: an
	// aggregate call had no pre-computed value in the execution row.
	ErrAggregateValueNotFound = errors.NewKind("aggregate value was not found in the execution row")
)

// returnHalt unwinds a return statement to the nearest user-function call
// site through the error channel, without being an error.
type returnHalt struct {
	v value.Value
}

func (returnHalt) Error() string { return "return" }

// Interpreter evaluates a resolved program. A single interpreter evaluates
// one program at a time; a multi-threaded host must serialize access.
type Interpreter struct {
	env     *EnvironmentFrame
	rootEnv *EnvironmentFrame

	program *parser.Program
	output  *Output
	db      *memory.Database

	loopStack loopStack
	execRow   *plan.Row
	echoPlan  bool
}

// New creates an interpreter. The output sink and database are optional;
// withStdlib injects the host functions into the root frame.
func New(out *Output, db *memory.Database, withStdlib bool) *Interpreter {
	rootEnv := NewEnvironmentFrame(nil)
	if withStdlib {
		if out == nil {
			out = NewOutput()
		}
		for name, callable := range Stdlib(out) {
			rootEnv.Define(Intern(name), callable)
		}
	}
	if db == nil {
		db = memory.New()
	}
	return &Interpreter{
		env:      rootEnv,
		rootEnv:  rootEnv,
		output:   out,
		db:       db,
		echoPlan: true,
	}
}

// SetEchoPlan controls whether query evaluation writes the plan's textual
// form to the output sink.
func (i *Interpreter) SetEchoPlan(echo bool) {
	i.echoPlan = echo
}

// Output returns the output sink, if any.
func (i *Interpreter) Output() *Output { return i.output }

// Database returns the backing document store.
func (i *Interpreter) Database() *memory.Database { return i.db }

// Run processes and interprets source text.
func (i *Interpreter) Run(source string) (value.Value, error) {
	program, err := parser.Source(source)
	if err != nil {
		return nil, err
	}
	return i.Interpret(program)
}

// Interpret evaluates a resolved program and returns the value of its last
// top-level statement.
func (i *Interpreter) Interpret(program *parser.Program) (value.Value, error) {
	i.program = program
	result, err := i.visitStmt(program.Root)
	if err != nil {
		if halt, ok := err.(returnHalt); ok {
			return halt.v, nil
		}
		return nil, err
	}
	return result, nil
}

// Eval evaluates a single expression against the current environment. It
// is also the planner's constant evaluator.
func (i *Interpreter) Eval(e ast.Expr) (value.Value, error) {
	return i.visitExpr(e)
}

// EvalRow evaluates an expression with an execution row active; row fields
// shadow environment reads for the duration.
func (i *Interpreter) EvalRow(e ast.Expr, row *plan.Row) (value.Value, error) {
	previous := i.execRow
	i.execRow = row
	defer func() { i.execRow = previous }()
	return i.visitExpr(e)
}

func (i *Interpreter) lookUpVariable(name string, e ast.Expr) (value.Value, error) {
	if i.execRow != nil {
		if v, ok := i.execRow.Get(name); ok {
			return v, nil
		}
	}
	sym := Intern(name)
	if i.program != nil {
		if distance, ok := i.program.Distance(e); ok {
			return i.env.ReadAt(distance, name, sym)
		}
	}
	return i.rootEnv.Read(name, sym)
}

func (i *Interpreter) executeBlock(statements []ast.Stmt, env *EnvironmentFrame) (value.Value, error) {
	previous := i.env
	i.env = env
	defer func() { i.env = previous }()

	var result value.Value = value.Undefined{}
	for _, statement := range statements {
		var err error
		result, err = i.visitStmt(statement)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// userFnCall binds arguments by position into a fresh frame parented to
// the closure and executes the body. Missing arguments bind to undefined.
func (i *Interpreter) userFnCall(fn *UserFunction, arguments []value.Value) (value.Value, error) {
	fnEnv := NewEnvironmentFrame(fn.Closure)
	for idx, param := range fn.Parameters {
		if idx < len(arguments) {
			fnEnv.Define(param, arguments[idx])
		} else {
			fnEnv.Define(param, value.Undefined{})
		}
	}
	return i.executeBlock(fn.Body, fnEnv)
}

func (i *Interpreter) literalValue(n *ast.Literal) (value.Value, error) {
	switch v := n.Value.(type) {
	case ast.Str:
		return value.Str(v), nil
	case ast.Num:
		return value.Num(v), nil
	case ast.Bool:
		return value.Bool(v), nil
	case ast.Undefined:
		return value.Undefined{}, nil
	case ast.Object:
		obj := value.NewObject()
		for key, expr := range v {
			evaluated, err := i.visitExpr(expr)
			if err != nil {
				return nil, err
			}
			obj.Set(key, evaluated)
		}
		return obj, nil
	case ast.Array:
		items := make([]value.Value, 0, len(v))
		for _, expr := range v {
			evaluated, err := i.visitExpr(expr)
			if err != nil {
				return nil, err
			}
			items = append(items, evaluated)
		}
		return value.NewArray(items...), nil
	}
	return value.Undefined{}, nil
}

func (i *Interpreter) visitExpr(e ast.Expr) (value.Value, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return i.literalValue(n)
	case *ast.Variable:
		return i.lookUpVariable(n.Name.Name, n)
	case *ast.Grouping:
		return i.visitExpr(n.Expr)
	case *ast.Unary:
		return i.evalUnary(n)
	case *ast.Binary:
		left, err := i.visitExpr(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := i.visitExpr(n.Right)
		if err != nil {
			return nil, err
		}
		return value.EvalBinary(left, right, n.Operation), nil
	case *ast.Logical:
		left, err := i.visitExpr(n.Left)
		if err != nil {
			return nil, err
		}
		isTrue := left.Truthy()
		if (n.Operation == ast.Or && isTrue) || (n.Operation == ast.And && !isTrue) {
			return value.Bool(isTrue), nil
		}
		right, err := i.visitExpr(n.Right)
		if err != nil {
			return nil, err
		}
		return value.Bool(right.Truthy()), nil
	case *ast.Assignment:
		evaluated, err := i.visitExpr(n.Expr)
		if err != nil {
			return nil, err
		}
		sym := Intern(n.Dst.Name)
		distance, resolved := 0, false
		if i.program != nil {
			distance, resolved = i.program.Distance(n)
		}
		if resolved {
			err = i.env.AssignAt(distance, n.Dst.Name, sym, evaluated)
		} else {
			err = i.rootEnv.Assign(n.Dst.Name, sym, evaluated)
		}
		if err != nil {
			return nil, err
		}
		return evaluated, nil
	case *ast.Call:
		return i.evalCall(n)
	case *ast.Function:
		return i.evalFunctionLiteral(n)
	case *ast.Between:
		return i.evalBetween(n)
	case *ast.Get:
		object, err := i.visitExpr(n.Object)
		if err != nil {
			return nil, err
		}
		obj, ok := object.(*value.Object)
		if !ok {
			return nil, ErrInvalidPropertyAccess.New(value.Format(object), n.Span)
		}
		v, found := obj.Get(n.Name.Name)
		if !found {
			return nil, ErrPropertyNotFound.New(n.Name.Name, n.Span)
		}
		return v, nil
	case *ast.Set:
		object, err := i.visitExpr(n.Object)
		if err != nil {
			return nil, err
		}
		obj, ok := object.(*value.Object)
		if !ok {
			return nil, ErrInvalidPropertyAccess.New(value.Format(object), n.Span)
		}
		evaluated, err := i.visitExpr(n.Value)
		if err != nil {
			return nil, err
		}
		obj.Set(n.Name.Name, evaluated)
		return evaluated, nil
	case *ast.FieldPath:
		current, err := i.lookUpVariable(n.Head.Name, n)
		if err != nil {
			return nil, err
		}
		for _, segment := range n.Tail {
			obj, ok := current.(*value.Object)
			if !ok {
				return nil, ErrInvalidPropertyAccess.New(value.Format(current), n.Span)
			}
			v, found := obj.Get(segment.Name)
			if !found {
				return nil, ErrPropertyNotFound.New(segment.Name, n.Span)
			}
			current = v
		}
		return current, nil
	case *ast.Select:
		if i.execRow != nil {
			if v, ok := i.execRow.Sig(plan.Signature(n)); ok {
				return v, nil
			}
		}
		return i.runQuery(n)
	case *ast.Insert:
		return i.runQuery(n)
	case *ast.Update:
		return i.runQuery(n)
	case *ast.Delete:
		return i.runQuery(n)
	}
	return value.Undefined{}, nil
}

func (i *Interpreter) evalUnary(n *ast.Unary) (value.Value, error) {
	evaluated, err := i.visitExpr(n.Expr)
	if err != nil {
		return nil, err
	}
	if n.Operation == ast.Subtract {
		if num, ok := value.AsNumber(evaluated); ok {
			return value.Num(-num), nil
		}
		return value.Undefined{}, nil
	}
	return value.Bool(!evaluated.Truthy()), nil
}

func (i *Interpreter) evalBetween(n *ast.Between) (value.Value, error) {
	subject, err := i.visitExpr(n.Subject)
	if err != nil {
		return nil, err
	}
	lower, err := i.visitExpr(n.Lower)
	if err != nil {
		return nil, err
	}
	upper, err := i.visitExpr(n.Upper)
	if err != nil {
		return nil, err
	}

	subjectNum, sok := subject.(value.Num)
	lowerNum, lok := lower.(value.Num)
	upperNum, uok := upper.(value.Num)
	if !sok || !lok || !uok {
		return nil, ErrInvalidRangeExpression.New(n.Span)
	}

	minNum, maxNum := lowerNum, upperNum
	if minNum > maxNum {
		minNum, maxNum = maxNum, minNum
	}
	inside := minNum <= subjectNum && subjectNum <= maxNum
	if n.Kind == ast.RangeNotBetween {
		return value.Bool(!inside), nil
	}
	return value.Bool(inside), nil
}

func (i *Interpreter) evalCall(n *ast.Call) (value.Value, error) {
	callee, err := i.visitExpr(n.Callee)
	if err != nil {
		return nil, err
	}
	callable, ok := callee.(*Callable)
	if !ok {
		return nil, ErrNotCallable.New(n.Callee.GetSpan())
	}

	// during query execution an aggregate call resolves to the row's
	// pre-computed value by structural signature
	if i.execRow != nil && callable.Aggregate {
		if v, found := i.execRow.Sig(plan.Signature(n)); found {
			return v, nil
		}
		return nil, ErrAggregateValueNotFound.New()
	}

	arguments := make([]value.Value, 0, len(n.Args))
	for _, arg := range n.Args {
		evaluated, err := i.visitExpr(arg)
		if err != nil {
			return nil, err
		}
		arguments = append(arguments, evaluated)
	}

	i.loopStack.pushFn()
	var result value.Value
	if callable.Native != nil {
		result, err = callable.Native(i, arguments)
	} else {
		result, err = i.userFnCall(callable.Function, arguments)
	}
	i.loopStack.popFn()

	if err != nil {
		if halt, ok := err.(returnHalt); ok {
			return halt.v, nil
		}
		return nil, err
	}
	return result, nil
}

func (i *Interpreter) evalFunctionLiteral(n *ast.Function) (value.Value, error) {
	fnName := "<anonymous>"
	if n.Name != nil {
		fnName = n.Name.Name
	}
	parameters := make([]Symbol, 0, len(n.Parameters))
	for _, param := range n.Parameters {
		parameters = append(parameters, Intern(param.Name))
	}
	callable := &Callable{
		Name: fnName,
		Function: &UserFunction{
			Name:       fnName,
			Parameters: parameters,
			Body:       n.Body,
			Closure:    i.env,
		},
	}
	if n.Name != nil {
		i.env.Define(Intern(n.Name.Name), callable)
	}
	return callable, nil
}

func (i *Interpreter) runQuery(e ast.Expr) (value.Value, error) {
	planner := plan.NewPlanner(i)
	node, err := planner.Build(e)
	if err != nil {
		return nil, err
	}
	if i.echoPlan && i.output != nil {
		i.output.Push(value.Str(plan.Explain(node)))
	}

	executor := plan.NewExecutor(i, i.db)
	if plan.IsMutation(node) {
		affected, err := executor.ExecuteMutation(node)
		if err != nil {
			return nil, err
		}
		return value.Num(affected), nil
	}

	rows, err := executor.Execute(node)
	if err != nil {
		return nil, err
	}
	items := make([]value.Value, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.AsObject())
	}
	return value.NewArray(items...), nil
}

func (i *Interpreter) visitStmt(s ast.Stmt) (value.Value, error) {
	if last, ok := i.loopStack.lastLoop(); ok && last != loopGo {
		return value.Undefined{}, nil
	}

	switch n := s.(type) {
	case *ast.Program:
		return i.executeBlock(n.Body, i.env)
	case *ast.Expression:
		return i.visitExpr(n.Expr)
	case *ast.Declaration:
		evaluated, err := i.visitExpr(n.Expr)
		if err != nil {
			return nil, err
		}
		i.env.Define(Intern(n.Dst.Name), evaluated)
	case *ast.Block:
		return i.executeBlock(n.Body, NewEnvironmentFrame(i.env))
	case *ast.If:
		condition, err := i.visitExpr(n.Condition)
		if err != nil {
			return nil, err
		}
		if condition.Truthy() {
			if _, err := i.visitStmt(n.Body); err != nil {
				return nil, err
			}
		} else if n.ElseBody != nil {
			if _, err := i.visitStmt(n.ElseBody); err != nil {
				return nil, err
			}
		}
	case *ast.Loop:
		i.loopStack.pushLoop(loopGo)
		for !i.loopStack.isLoopAt(loopBroken) {
			if n.Condition != nil {
				condition, err := i.visitExpr(n.Condition)
				if err != nil {
					i.loopStack.popLoop()
					return nil, err
				}
				if !condition.Truthy() {
					break
				}
			}
			if _, err := i.visitStmt(n.Body); err != nil {
				i.loopStack.popLoop()
				return nil, err
			}
			from := loopContinue
			i.loopStack.setLoopState(loopGo, &from)
			if n.Post != nil {
				if _, err := i.visitStmt(n.Post); err != nil {
					i.loopStack.popLoop()
					return nil, err
				}
			}
		}
		i.loopStack.popLoop()
	case *ast.Break:
		if !i.loopStack.setLoopState(loopBroken, nil) {
			return nil, ErrUnexpectedStatement.New(n.Span)
		}
	case *ast.Continue:
		if !i.loopStack.setLoopState(loopContinue, nil) {
			return nil, ErrUnexpectedStatement.New(n.Span)
		}
	case *ast.Return:
		if n.Expr != nil {
			evaluated, err := i.visitExpr(n.Expr)
			if err != nil {
				return nil, err
			}
			return nil, returnHalt{v: evaluated}
		}
		return nil, returnHalt{v: value.Undefined{}}
	case *ast.Explain:
		target, ok := n.Expr.(*ast.Select)
		if !ok {
			return nil, ErrInvalidExplainTarget.New(n.Span)
		}
		planner := plan.NewPlanner(i)
		node, err := planner.Build(target)
		if err != nil {
			return nil, err
		}
		text := plan.Explain(node)
		if i.output != nil {
			i.output.Push(value.Str(text))
		}
		return nil, returnHalt{v: value.Str(text)}
	}
	return value.Undefined{}, nil
}
