// Package builtin implements spec.md §4.8's Class Registry contents: the
// concrete Object/Array/String/Number/Boolean/Function classes a Runtime
// wires into a fresh value.Registry at startup (SPEC_FULL.md §9, Component
// 9). Grounded on cuelang.org/go/internal/core/adt's builtin packages
// (internal/core/adt/builtin.go, pkg/*builtins.go), which register a fixed
// table of named, typed-argument CUE builtins against a shared runtime the
// same way this package registers named Fields against a value.Registry.
package builtin

import "github.com/flomesh-io/pjs/value"

// numberCoercer/stringCoercer let builtin method bodies reach eval.Context's
// valueOf/toString-aware ToNumber/ToStringValue without builtin importing
// eval directly: the concrete *eval.Context satisfies these structurally.
// Falling back to the zero-dispatch value.ToNumber/ToStringValue keeps this
// package usable against any value.Context, including a future lightweight
// test double that doesn't implement method dispatch.
type numberCoercer interface{ ToNumber(value.Value) float64 }
type stringCoercer interface{ ToStringValue(value.Value) string }

func toNumber(ctx value.Context, v value.Value) float64 {
	if nc, ok := ctx.(numberCoercer); ok {
		return nc.ToNumber(v)
	}
	return value.ToNumber(v, nil)
}

func toStringValue(ctx value.Context, v value.Value) string {
	if sc, ok := ctx.(stringCoercer); ok {
		return sc.ToStringValue(v)
	}
	return value.ToStringValue(v, nil)
}

// unboxed returns the primitive Value a String/Number/Boolean wrapper
// object holds (spec.md §12.4 autoboxing), or v itself if it isn't one of
// this package's boxes.
func unboxed(v value.Value) value.Value {
	if v.Kind() != value.Object || v.AsObject() == nil {
		return v
	}
	if b, ok := v.AsObject().Native.(*value.Boxed); ok {
		return b.V
	}
	return v
}
