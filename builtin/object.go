package builtin

import "github.com/flomesh-io/pjs/value"

// newObjectClass builds the root of every other class's superclass chain
// (spec.md §3: "classes ... form a single-rooted tree"). Grounded on
// cuelang.org/go/internal/core/adt's baseValue, the zero-field supertype
// every concrete CUE value kind embeds.
func newObjectClass(pool *value.StringPool) *value.Class {
	c := value.NewClass("Object", nil)
	c.AddField(&value.Field{
		Name: pool.Intern("toString"),
		Kind: value.MethodField,
		Fn:   objectToString,
	})
	c.AddField(&value.Field{
		Name: pool.Intern("valueOf"),
		Kind: value.MethodField,
		Fn:   objectValueOf,
	})
	c.AddField(&value.Field{
		Name: pool.Intern("hasOwnProperty"),
		Kind: value.MethodField,
		Fn:   objectHasOwnProperty,
	})
	return c
}

func objectToString(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	if recv == nil {
		return ctx.NewString("[object Object]"), nil
	}
	return ctx.NewString("[object " + recv.Class.Name + "]"), nil
}

func objectValueOf(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	return value.ObjValue(recv), nil
}

// objectHasOwnProperty checks the field table and the overflow map (spec.md
// §3: Overflow holds properties added outside the frozen class shape). The
// field table includes the fields a class copies from its superclass, so
// inherited fields such as toString also count as "own" here.
func objectHasOwnProperty(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	a := unpack(ctx, args)
	var name string
	if err := a.String(0, &name); err != nil {
		return value.UndefinedValue, err
	}
	if recv == nil {
		return value.Bool(false), nil
	}
	key := ctx.Intern(name)
	if _, _, ok := recv.Class.FindField(key); ok {
		return value.Bool(true), nil
	}
	_, ok := recv.Overflow[key]
	return value.Bool(ok), nil
}
