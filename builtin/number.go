package builtin

import (
	"fmt"
	"math"

	"github.com/flomesh-io/pjs/value"
)

func nan() float64 { return math.NaN() }

// newNumberClass builds the autoboxed Number wrapper class. A Number
// instance's Native field holds either a *value.Boxed (a plain autoboxed
// float64 primitive, spec.md §12.4) or a *value.Int (the arbitrary-precision
// BigInt-like type spec.md §4.3/SPEC_FULL.md §11 describes, boxed by
// ast.boxInt using this same class so `typeof` and property/method access
// see one "number"-shaped class regardless of which Native payload backs a
// given instance).
func newNumberClass(pool *value.StringPool, objectClass *value.Class) *value.Class {
	c := value.NewClass("Number", objectClass)
	for name, fn := range map[string]value.Native{
		"toString": numberToString,
		"valueOf":  numberValueOf,
		"toFixed":  numberToFixed,
	} {
		c.AddField(&value.Field{Name: pool.Intern(name), Kind: value.MethodField, Fn: fn})
	}
	return c
}

// numberOf reports the numeric value a Number instance boxes and whether it
// is the arbitrary-precision Int payload rather than a plain float64.
func numberOf(recv *value.Obj) (float64, *value.Int) {
	if recv == nil {
		return nan(), nil
	}
	switch n := recv.Native.(type) {
	case *value.Int:
		return n.Float64(), n
	case *value.Boxed:
		return value.ToNumber(n.V, nil), nil
	default:
		return nan(), nil
	}
}

func numberToString(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	if _, i := numberOf(recv); i != nil {
		return ctx.NewString(i.String()), nil
	}
	f, _ := numberOf(recv)
	return ctx.NewString(toStringValue(ctx, value.Num(f))), nil
}

func numberValueOf(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	f, i := numberOf(recv)
	if i != nil {
		return value.ObjValue(recv), nil // bigint-like values stay boxed
	}
	return value.Num(f), nil
}

func numberToFixed(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	f, _ := numberOf(recv)
	a := unpack(ctx, args)
	digits, _ := a.TryNumber(0)
	return ctx.NewString(fmt.Sprintf("%.*f", int(digits), f)), nil
}
