package eval

import "github.com/flomesh-io/pjs/value"

// Args wraps a builtin call's argument slice with the declarative, typed
// unpacking helpers spec.md §4.7 describes: "Helpers parse typed argument
// lists declaratively: arguments(n_required, &a, &b, ...) fails with
// 'requires N arguments' or 'argument #K expects T' if types mismatch;
// try_arguments(...) is silent." Grounded on the (caller, args) pattern
// used throughout cuelang.org/go/internal/core/adt builtin implementations
// for unpacking *adt.CallContext argument lists into typed Go locals.
type Args struct {
	ctx  *Context
	argv []value.Value
}

// NewArgs wraps argv for one builtin call.
func NewArgs(ctx *Context, argv []value.Value) *Args {
	return &Args{ctx: ctx, argv: argv}
}

func (a *Args) Len() int { return len(a.argv) }

func (a *Args) At(i int) value.Value {
	if i < 0 || i >= len(a.argv) {
		return value.UndefinedValue
	}
	return a.argv[i]
}

// Required enforces that at least n arguments were passed, throwing
// "requires N arguments" through the Context otherwise (spec.md §4.7).
func (a *Args) Required(n int) error {
	if len(a.argv) < n {
		return a.ctx.Throwf("requires %d arguments", n)
	}
	return nil
}

// Number unpacks argument i as a float64, throwing "argument #K expects
// number" on a type mismatch.
func (a *Args) Number(i int, out *float64) error {
	v := a.At(i)
	if v.Kind() != value.Number {
		return a.ctx.Throwf("argument #%d expects number", i+1)
	}
	*out = v.AsNumber()
	return nil
}

// String unpacks argument i as a string, throwing "argument #K expects
// string" on a type mismatch.
func (a *Args) String(i int, out *string) error {
	v := a.At(i)
	if v.Kind() != value.String {
		return a.ctx.Throwf("argument #%d expects string", i+1)
	}
	*out = v.AsStr().String()
	return nil
}

// Bool unpacks argument i as a boolean, throwing "argument #K expects
// boolean" on a type mismatch.
func (a *Args) Bool(i int, out *bool) error {
	v := a.At(i)
	if v.Kind() != value.Boolean {
		return a.ctx.Throwf("argument #%d expects boolean", i+1)
	}
	*out = v.AsBool()
	return nil
}

// Object unpacks argument i as an Object, throwing "argument #K expects
// object" if it isn't one (null and non-objects both fail: callers that
// accept null explicitly check Kind() themselves first).
func (a *Args) Object(i int, out **value.Obj) error {
	v := a.At(i)
	if v.Kind() != value.Object || v.AsObject() == nil {
		return a.ctx.Throwf("argument #%d expects object", i+1)
	}
	*out = v.AsObject()
	return nil
}

// Value unpacks argument i as-is, with no type check: used for arguments
// a builtin accepts in any type (e.g. Array.prototype.push).
func (a *Args) Value(i int, out *value.Value) {
	*out = a.At(i)
}

// TryNumber is the "silent" counterpart spec.md §4.7 calls try_arguments:
// it reports success/failure via the bool return instead of throwing,
// for optional trailing arguments a builtin treats as absent on mismatch
// rather than as an error (e.g. Array.prototype.slice's optional end).
func (a *Args) TryNumber(i int) (float64, bool) {
	v := a.At(i)
	if v.Kind() != value.Number {
		return 0, false
	}
	return v.AsNumber(), true
}

func (a *Args) TryString(i int) (string, bool) {
	v := a.At(i)
	if v.Kind() != value.String {
		return "", false
	}
	return v.AsStr().String(), true
}

func (a *Args) TryBool(i int) (bool, bool) {
	v := a.At(i)
	if v.Kind() != value.Boolean {
		return false, false
	}
	return v.AsBool(), true
}

func (a *Args) TryObject(i int) (*value.Obj, bool) {
	v := a.At(i)
	if v.Kind() != value.Object || v.AsObject() == nil {
		return nil, false
	}
	return v.AsObject(), true
}
