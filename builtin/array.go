package builtin

import (
	"strings"

	"github.com/flomesh-io/pjs/ast"
	"github.com/flomesh-io/pjs/value"
)

// newArrayClass builds the Array class spec.md §8 Property 7 exercises: a
// dense, growable Value slice (ast.ArrayBacking, stashed in the Native
// field by ast.ArrayLit.Eval and by this class's own methods) addressed
// through Geti/Seti/Len rather than the ordinary field table, so
// `a[10] = 1` on a 3-element array grows it with holes that read back as
// undefined (spec.md §3's Empty sentinel) instead of panicking or
// allocating a sparse map. Grounded on how cuelang.org/go/internal/core/adt
// represents a CUE list as a single ordered Arcs slice addressed by
// integer index rather than by the same field-table path struct fields use.
func newArrayClass(pool *value.StringPool, objectClass *value.Class) *value.Class {
	c := value.NewClass("Array", objectClass)
	c.Geti = arrayGeti
	c.Seti = arraySeti
	c.Len = arrayLen
	c.AddField(&value.Field{
		Name:  pool.Intern("length"),
		Kind:  value.AccessorField,
		Flags: value.Writable,
		Get:   arrayLengthGet,
		Set:   arrayLengthSet,
	})
	for name, fn := range map[string]value.Native{
		"push":        arrayPush,
		"pop":         arrayPop,
		"shift":       arrayShift,
		"unshift":     arrayUnshift,
		"slice":       arraySlice,
		"splice":      arraySplice,
		"indexOf":     arrayIndexOf,
		"includes":    arrayIncludes,
		"join":        arrayJoin,
		"concat":      arrayConcat,
		"reverse":     arrayReverse,
		"forEach":     arrayForEach,
		"map":         arrayMap,
		"filter":      arrayFilter,
		"reduce":      arrayReduce,
		"find":        arrayFind,
		"findIndex":   arrayFindIndex,
		"some":        arraySome,
		"every":       arrayEvery,
		"toString":    arrayToString,
	} {
		c.AddField(&value.Field{Name: pool.Intern(name), Kind: value.MethodField, Fn: fn})
	}
	return c
}

// backing returns o's mutable element slice, lazily installing an empty one
// (a builtin-constructed Array, e.g. the receiver of a future `new Array()`,
// may reach here before ast.ArrayLit.Eval ever calls SetArrayBacking).
func backing(o *value.Obj) *ast.ArrayBacking {
	if b, ok := o.Native.(*ast.ArrayBacking); ok {
		return b
	}
	b := &ast.ArrayBacking{}
	o.Native = b
	return b
}

func items(recv *value.Obj) []value.Value {
	if recv == nil {
		return nil
	}
	return backing(recv).Items
}

func arrayGeti(ctx value.Context, recv *value.Obj, index int) (value.Value, error) {
	it := items(recv)
	if index < 0 || index >= len(it) {
		return value.UndefinedValue, nil
	}
	v := it[index]
	if v.IsEmpty() {
		return value.UndefinedValue, nil
	}
	return v, nil
}

func arraySeti(ctx value.Context, recv *value.Obj, index int, v value.Value) error {
	if index < 0 {
		return ctx.Throwf("invalid array index %d", index)
	}
	b := backing(recv)
	if index >= len(b.Items) {
		grown := make([]value.Value, index+1)
		copy(grown, b.Items)
		for i := len(b.Items); i < index; i++ {
			grown[i] = value.EmptyValue
		}
		b.Items = grown
	}
	b.Items[index] = v
	return nil
}

func arrayLen(recv *value.Obj) int { return len(items(recv)) }

func arrayLengthGet(ctx value.Context, recv *value.Obj) (value.Value, error) {
	return value.Num(float64(len(items(recv)))), nil
}

// arrayLengthSet implements spec.md §8 Property 7's shrink/grow halves:
// assigning a smaller length truncates (dropping trailing elements);
// assigning a larger one pads with holes.
func arrayLengthSet(ctx value.Context, recv *value.Obj, v value.Value) error {
	n := int(toNumber(ctx, v))
	if n < 0 {
		return ctx.Throwf("invalid array length")
	}
	b := backing(recv)
	switch {
	case n < len(b.Items):
		b.Items = b.Items[:n]
	case n > len(b.Items):
		grown := make([]value.Value, n)
		copy(grown, b.Items)
		for i := len(b.Items); i < n; i++ {
			grown[i] = value.EmptyValue
		}
		b.Items = grown
	}
	return nil
}

func newArray(ctx value.Context, items []value.Value) value.Value {
	o := ctx.NewObject(ctx.Registry().ArrayClass)
	ast.SetArrayBacking(o, items)
	return value.ObjValue(o)
}

func filled(v value.Value) value.Value {
	if v.IsEmpty() {
		return value.UndefinedValue
	}
	return v
}

func arrayPush(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	b := backing(recv)
	b.Items = append(b.Items, args...)
	return value.Num(float64(len(b.Items))), nil
}

func arrayPop(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	b := backing(recv)
	if len(b.Items) == 0 {
		return value.UndefinedValue, nil
	}
	last := b.Items[len(b.Items)-1]
	b.Items = b.Items[:len(b.Items)-1]
	return filled(last), nil
}

func arrayShift(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	b := backing(recv)
	if len(b.Items) == 0 {
		return value.UndefinedValue, nil
	}
	first := b.Items[0]
	b.Items = b.Items[1:]
	return filled(first), nil
}

func arrayUnshift(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	b := backing(recv)
	b.Items = append(append([]value.Value{}, args...), b.Items...)
	return value.Num(float64(len(b.Items))), nil
}

// clampRange resolves a (possibly negative, possibly omitted) start/end
// pair against length, per the slice-index convention shared by slice and
// splice.
func clampRange(n int, start, end float64, hasEnd bool) (int, int) {
	if !hasEnd {
		end = float64(n)
	}
	s, e := int(start), int(end)
	if start < 0 {
		s = n + int(start)
	}
	if end < 0 {
		e = n + int(end)
	}
	if s < 0 {
		s = 0
	}
	if e > n {
		e = n
	}
	if s > n {
		s = n
	}
	if e < s {
		e = s
	}
	return s, e
}

func arraySlice(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	it := items(recv)
	a := unpack(ctx, args)
	start, _ := a.TryNumber(0)
	end, hasEnd := a.TryNumber(1)
	s, e := clampRange(len(it), start, end, hasEnd)
	out := make([]value.Value, e-s)
	copy(out, it[s:e])
	return newArray(ctx, out), nil
}

func arraySplice(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	b := backing(recv)
	a := unpack(ctx, args)
	start, _ := a.TryNumber(0)
	s, _ := clampRange(len(b.Items), start, 0, false)
	deleteCount := len(b.Items) - s
	if n, ok := a.TryNumber(1); ok {
		deleteCount = int(n)
		if deleteCount < 0 {
			deleteCount = 0
		}
		if s+deleteCount > len(b.Items) {
			deleteCount = len(b.Items) - s
		}
	}
	removed := make([]value.Value, deleteCount)
	copy(removed, b.Items[s:s+deleteCount])

	inserts := args
	if len(inserts) > 2 {
		inserts = inserts[2:]
	} else {
		inserts = nil
	}
	tail := append([]value.Value{}, b.Items[s+deleteCount:]...)
	b.Items = append(append(b.Items[:s:s], inserts...), tail...)
	return newArray(ctx, removed), nil
}

func arrayIndexOf(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	it := items(recv)
	if len(args) == 0 {
		return value.Num(-1), nil
	}
	target := args[0]
	for i, v := range it {
		if value.Identity(v, target) {
			return value.Num(float64(i)), nil
		}
	}
	return value.Num(-1), nil
}

func arrayIncludes(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	v, err := arrayIndexOf(ctx, recv, args)
	if err != nil {
		return value.UndefinedValue, err
	}
	return value.Bool(v.AsNumber() >= 0), nil
}

func arrayJoin(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	it := items(recv)
	sep := ","
	a := unpack(ctx, args)
	if s, ok := a.TryString(0); ok {
		sep = s
	}
	parts := make([]string, len(it))
	for i, v := range it {
		if v.IsEmpty() || v.IsNullish() {
			parts[i] = ""
			continue
		}
		parts[i] = toStringValue(ctx, v)
	}
	return ctx.NewString(strings.Join(parts, sep)), nil
}

func arrayToString(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	return arrayJoin(ctx, recv, nil)
}

func arrayConcat(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	out := append([]value.Value{}, items(recv)...)
	for _, a := range args {
		if other := ast.ArrayBackingOf(a); other != nil {
			out = append(out, other...)
			continue
		}
		out = append(out, a)
	}
	return newArray(ctx, out), nil
}

func arrayReverse(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	b := backing(recv)
	for i, j := 0, len(b.Items)-1; i < j; i, j = i+1, j-1 {
		b.Items[i], b.Items[j] = b.Items[j], b.Items[i]
	}
	return value.ObjValue(recv), nil
}

func callback(ctx value.Context, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.UndefinedValue, ctx.Throwf("requires 1 arguments")
	}
	return args[0], nil
}

func arrayForEach(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	fn, err := callback(ctx, args)
	if err != nil {
		return value.UndefinedValue, err
	}
	for i, v := range items(recv) {
		if _, err := ctx.Call(fn, nil, []value.Value{filled(v), value.Num(float64(i)), value.ObjValue(recv)}); err != nil {
			return value.UndefinedValue, err
		}
	}
	return value.UndefinedValue, nil
}

func arrayMap(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	fn, err := callback(ctx, args)
	if err != nil {
		return value.UndefinedValue, err
	}
	it := items(recv)
	out := make([]value.Value, len(it))
	for i, v := range it {
		r, err := ctx.Call(fn, nil, []value.Value{filled(v), value.Num(float64(i)), value.ObjValue(recv)})
		if err != nil {
			return value.UndefinedValue, err
		}
		out[i] = r
	}
	return newArray(ctx, out), nil
}

func arrayFilter(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	fn, err := callback(ctx, args)
	if err != nil {
		return value.UndefinedValue, err
	}
	var out []value.Value
	for i, v := range items(recv) {
		r, err := ctx.Call(fn, nil, []value.Value{filled(v), value.Num(float64(i)), value.ObjValue(recv)})
		if err != nil {
			return value.UndefinedValue, err
		}
		if value.ToBoolean(r) {
			out = append(out, filled(v))
		}
	}
	return newArray(ctx, out), nil
}

func arrayReduce(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	fn, err := callback(ctx, args)
	if err != nil {
		return value.UndefinedValue, err
	}
	it := items(recv)
	i := 0
	var acc value.Value
	if len(args) > 1 {
		acc = args[1]
	} else {
		if len(it) == 0 {
			return value.UndefinedValue, ctx.Throwf("reduce of empty array with no initial value")
		}
		acc = filled(it[0])
		i = 1
	}
	for ; i < len(it); i++ {
		acc, err = ctx.Call(fn, nil, []value.Value{acc, filled(it[i]), value.Num(float64(i)), value.ObjValue(recv)})
		if err != nil {
			return value.UndefinedValue, err
		}
	}
	return acc, nil
}

func arrayFind(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	fn, err := callback(ctx, args)
	if err != nil {
		return value.UndefinedValue, err
	}
	for i, v := range items(recv) {
		r, err := ctx.Call(fn, nil, []value.Value{filled(v), value.Num(float64(i)), value.ObjValue(recv)})
		if err != nil {
			return value.UndefinedValue, err
		}
		if value.ToBoolean(r) {
			return filled(v), nil
		}
	}
	return value.UndefinedValue, nil
}

func arrayFindIndex(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	fn, err := callback(ctx, args)
	if err != nil {
		return value.UndefinedValue, err
	}
	for i, v := range items(recv) {
		r, err := ctx.Call(fn, nil, []value.Value{filled(v), value.Num(float64(i)), value.ObjValue(recv)})
		if err != nil {
			return value.UndefinedValue, err
		}
		if value.ToBoolean(r) {
			return value.Num(float64(i)), nil
		}
	}
	return value.Num(-1), nil
}

func arraySome(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	fn, err := callback(ctx, args)
	if err != nil {
		return value.UndefinedValue, err
	}
	for i, v := range items(recv) {
		r, err := ctx.Call(fn, nil, []value.Value{filled(v), value.Num(float64(i)), value.ObjValue(recv)})
		if err != nil {
			return value.UndefinedValue, err
		}
		if value.ToBoolean(r) {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

func arrayEvery(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
	fn, err := callback(ctx, args)
	if err != nil {
		return value.UndefinedValue, err
	}
	for i, v := range items(recv) {
		r, err := ctx.Call(fn, nil, []value.Value{filled(v), value.Num(float64(i)), value.ObjValue(recv)})
		if err != nil {
			return value.UndefinedValue, err
		}
		if !value.ToBoolean(r) {
			return value.Bool(false), nil
		}
	}
	return value.Bool(true), nil
}
