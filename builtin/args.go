package builtin

import (
	"github.com/flomesh-io/pjs/eval"
	"github.com/flomesh-io/pjs/value"
)

// unpack adapts a Native method's value.Context to eval.NewArgs's
// declarative argument unpacking (spec.md §4.7's arguments()/try_arguments()
// contract). Every Runtime-constructed call passes the concrete
// *eval.Context this package's Native bodies are written against.
func unpack(ctx value.Context, argv []value.Value) *eval.Args {
	ec, _ := ctx.(*eval.Context)
	return eval.NewArgs(ec, argv)
}
