package builtin

import (
	"strings"

	"github.com/flomesh-io/pjs/value"
)

// newStringClass builds the autoboxed String wrapper class spec.md §12.4
// requires: a transient Object ast.autobox allocates around a String Value
// so `.length`/`.split`/... can dispatch through the ordinary field table.
// Grounded on cuelang.org/go/cue/literal's string-handling helpers (this
// engine's literal package already backs ToStringValue/ToNumber); the
// per-method bodies mirror the subset of ECMAScript's String.prototype the
// original implementation's src/pjs/*.cpp string builtins cover.
func newStringClass(pool *value.StringPool, objectClass *value.Class) *value.Class {
	c := value.NewClass("String", objectClass)
	c.Geti = stringGeti
	c.AddField(&value.Field{
		Name: pool.Intern("length"),
		Kind: value.AccessorField,
		Get:  stringLengthGet,
	})
	for name, fn := range map[string]value.Native{
		"charAt":      stringCharAt,
		"charCodeAt":  stringCharCodeAt,
		"indexOf":     stringIndexOf,
		"includes":    stringIncludes,
		"startsWith":  stringStartsWith,
		"endsWith":    stringEndsWith,
		"slice":       stringSlice,
		"substring":   stringSlice,
		"split":       stringSplit,
		"toUpperCase": stringToUpperCase,
		"toLowerCase": stringToLowerCase,
		"trim":        stringTrim,
		"replace":     stringReplace,
		"repeat":      stringRepeat,
		"concat":      stringConcat,
		"toString":    stringToString,
		"valueOf":     stringToString,
	} {
		c.AddField(&value.Field{Name: pool.Intern(name), Kind: value.MethodField, Fn: fn})
	}
	return c
}

func strOf(recv *value.Obj) string {
	if recv == nil {
		return ""
	}
	if b, ok := recv.Native.(*value.Boxed); ok {
		return value.ToStringValue(b.V, nil)
	}
	return ""
}

func runesOf(recv *value.Obj) []rune { return []rune(strOf(recv)) }

func stringGeti(ctx value.Context, recv *value.Obj, index int) (value.Value, error) {
	rs := runesOf(recv)
	if index < 0 || index >= len(rs) {
		return value.UndefinedValue, nil
	}
	return ctx.NewString(string(rs[index])), nil
}

func stringLengthGet(ctx value.Context, recv *value.Obj) (value.Value, error) {
	return value.Num(float64(len(runesOf(recv)))), nil
}

func stringCharAt(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	rs := runesOf(recv)
	a := unpack(ctx, args)
	n, _ := a.TryNumber(0)
	i := int(n)
	if i < 0 || i >= len(rs) {
		return ctx.NewString(""), nil
	}
	return ctx.NewString(string(rs[i])), nil
}

func stringCharCodeAt(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	rs := runesOf(recv)
	a := unpack(ctx, args)
	n, _ := a.TryNumber(0)
	i := int(n)
	if i < 0 || i >= len(rs) {
		return value.Num(nan()), nil
	}
	return value.Num(float64(rs[i])), nil
}

func stringIndexOf(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	a := unpack(ctx, args)
	var sub string
	if err := a.String(0, &sub); err != nil {
		return value.UndefinedValue, err
	}
	return value.Num(float64(strings.Index(strOf(recv), sub))), nil
}

func stringIncludes(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	a := unpack(ctx, args)
	var sub string
	if err := a.String(0, &sub); err != nil {
		return value.UndefinedValue, err
	}
	return value.Bool(strings.Contains(strOf(recv), sub)), nil
}

func stringStartsWith(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	a := unpack(ctx, args)
	var sub string
	if err := a.String(0, &sub); err != nil {
		return value.UndefinedValue, err
	}
	return value.Bool(strings.HasPrefix(strOf(recv), sub)), nil
}

func stringEndsWith(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	a := unpack(ctx, args)
	var sub string
	if err := a.String(0, &sub); err != nil {
		return value.UndefinedValue, err
	}
	return value.Bool(strings.HasSuffix(strOf(recv), sub)), nil
}

func stringSlice(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	rs := runesOf(recv)
	a := unpack(ctx, args)
	start, _ := a.TryNumber(0)
	end, hasEnd := a.TryNumber(1)
	s, e := clampRange(len(rs), start, end, hasEnd)
	return ctx.NewString(string(rs[s:e])), nil
}

func stringSplit(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	s := strOf(recv)
	a := unpack(ctx, args)
	sep, hasSep := a.TryString(0)
	var parts []string
	switch {
	case !hasSep:
		parts = []string{s}
	case sep == "":
		for _, r := range s {
			parts = append(parts, string(r))
		}
	default:
		parts = strings.Split(s, sep)
	}
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = ctx.NewString(p)
	}
	return newArray(ctx, out), nil
}

func stringToUpperCase(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	return ctx.NewString(strings.ToUpper(strOf(recv))), nil
}

func stringToLowerCase(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	return ctx.NewString(strings.ToLower(strOf(recv))), nil
}

func stringTrim(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	return ctx.NewString(strings.TrimSpace(strOf(recv))), nil
}

// stringReplace replaces only the first occurrence, matching
// String.prototype.replace's non-global default (spec.md §1's non-goal on
// regular expressions rules out the /g-flag/pattern overload entirely).
func stringReplace(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	a := unpack(ctx, args)
	var from, to string
	if err := a.String(0, &from); err != nil {
		return value.UndefinedValue, err
	}
	if err := a.String(1, &to); err != nil {
		return value.UndefinedValue, err
	}
	return ctx.NewString(strings.Replace(strOf(recv), from, to, 1)), nil
}

func stringRepeat(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	a := unpack(ctx, args)
	var n float64
	if err := a.Number(0, &n); err != nil {
		return value.UndefinedValue, err
	}
	if n < 0 {
		return value.UndefinedValue, ctx.Throwf("invalid count value")
	}
	return ctx.NewString(strings.Repeat(strOf(recv), int(n))), nil
}

func stringConcat(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	var b strings.Builder
	b.WriteString(strOf(recv))
	for _, a := range args {
		b.WriteString(toStringValue(ctx, a))
	}
	return ctx.NewString(b.String()), nil
}

func stringToString(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	return ctx.NewString(strOf(recv)), nil
}
