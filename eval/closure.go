package eval

import "github.com/flomesh-io/pjs/value"

// Closure is what a user FunctionLiteral's evaluated Function value stores
// in its Callable.Closure field (spec.md §4.3: "At eval time it constructs
// a Function object binding the Method to the current Scope — this is how
// closures work"). NewScope and Run are supplied by
// ast.FunctionLiteral.Eval, which closes over its own AST body and
// FrameShape so eval need not import ast (avoiding an import cycle: ast
// already imports eval for Context/Scope). Context.Call allocates the
// frame via NewScope, fills its leading argument slots, pushes the call
// frame, then invokes Run — centralising frame bookkeeping in one place
// instead of splitting it between eval and ast.
type Closure struct {
	Lexical  *Scope
	Name     string
	NewScope func() *Scope
	Run      func(ctx *Context, scope *Scope, args []value.Value) (value.Value, error)
}
