package builtin

import "github.com/flomesh-io/pjs/value"

// newBooleanClass builds the autoboxed Boolean wrapper class (spec.md
// §12.4): thin compared to String/Number since ECMAScript's
// Boolean.prototype is itself thin.
func newBooleanClass(pool *value.StringPool, objectClass *value.Class) *value.Class {
	c := value.NewClass("Boolean", objectClass)
	for name, fn := range map[string]value.Native{
		"toString": booleanToString,
		"valueOf":  booleanValueOf,
	} {
		c.AddField(&value.Field{Name: pool.Intern(name), Kind: value.MethodField, Fn: fn})
	}
	return c
}

func boolOf(recv *value.Obj) bool {
	if recv == nil {
		return false
	}
	b, ok := recv.Native.(*value.Boxed)
	if !ok {
		return false
	}
	return value.ToBoolean(b.V)
}

func booleanToString(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	if boolOf(recv) {
		return ctx.NewString("true"), nil
	}
	return ctx.NewString("false"), nil
}

func booleanValueOf(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	return value.Bool(boolOf(recv)), nil
}
