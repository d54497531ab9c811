package builtin

import (
	"github.com/flomesh-io/pjs/ast"
	"github.com/flomesh-io/pjs/value"
)

// newFunctionClass builds the Function class every Function object (a user
// FunctionLiteral's closure, per ast.FunctionLiteral.Eval, or a bound
// builtin method) belongs to. PJS has no `this`-binding rules to honour
// (spec.md §1's non-goals), so call/apply/bind's leading "thisArg"
// parameter is accepted for call-site compatibility but never threaded
// through to the invoked function.
func newFunctionClass(pool *value.StringPool, objectClass *value.Class) *value.Class {
	c := value.NewClass("Function", objectClass)
	c.AddField(&value.Field{
		Name: pool.Intern("name"),
		Kind: value.AccessorField,
		Get:  functionNameGet,
	})
	for name, fn := range map[string]value.Native{
		"call":  functionCall,
		"apply": functionApply,
		"bind":  functionBind,
	} {
		c.AddField(&value.Field{Name: pool.Intern(name), Kind: value.MethodField, Fn: fn})
	}
	return c
}

func callableOf(recv *value.Obj) *value.Callable {
	if recv == nil {
		return nil
	}
	c, _ := recv.Native.(*value.Callable)
	return c
}

func functionNameGet(ctx value.Context, recv *value.Obj) (value.Value, error) {
	if c := callableOf(recv); c != nil {
		return ctx.NewString(c.Name), nil
	}
	return ctx.NewString(""), nil
}

func functionCall(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	var rest []value.Value
	if len(args) > 1 {
		rest = args[1:]
	}
	return ctx.Call(value.ObjValue(recv), nil, rest)
}

func functionApply(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	var rest []value.Value
	if len(args) > 1 {
		rest = ast.ArrayBackingOf(args[1])
	}
	return ctx.Call(value.ObjValue(recv), nil, rest)
}

// functionBind returns a new Function that, when called, invokes recv with
// args[1:] prepended to whatever arguments the bound call site supplies.
func functionBind(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	var bound []value.Value
	if len(args) > 1 {
		bound = append([]value.Value{}, args[1:]...)
	}
	target := recv
	name := ""
	if c := callableOf(recv); c != nil {
		name = "bound " + c.Name
	}
	out := ctx.NewObject(ctx.Registry().FunctionClass)
	out.Native = &value.Callable{
		Name: name,
		Fn: func(ctx value.Context, _ *value.Obj, callArgs []value.Value) (value.Value, error) {
			return ctx.Call(value.ObjValue(target), nil, append(append([]value.Value{}, bound...), callArgs...))
		},
	}
	return value.ObjValue(out), nil
}
