package builtin

import (
	"testing"

	"github.com/flomesh-io/pjs/ast"
	"github.com/flomesh-io/pjs/eval"
	"github.com/flomesh-io/pjs/value"
)

func newTestContext(t *testing.T) (*eval.Context, *value.Registry, *value.StringPool) {
	t.Helper()
	pool := value.NewStringPool()
	reg := value.NewRegistry(pool)
	Register(reg, pool)
	globals := value.NewObj(pool, reg.ObjectClass)
	ctx := eval.NewContext(reg, pool, globals, nil, eval.Options{})
	return ctx, reg, pool
}

func newArrayObj(ctx *eval.Context, reg *value.Registry, items ...value.Value) *value.Obj {
	o := ctx.NewObject(reg.ArrayClass)
	ast.SetArrayBacking(o, items)
	return o
}

// nativeFunc wraps a plain Go func as a callable Function Value, bypassing
// the evaluator's closure machinery (eval.Context.Call dispatches Callable.Fn
// directly when Closure is nil) so builtin methods can be exercised without
// parsing a script.
func nativeFunc(ctx *eval.Context, reg *value.Registry, fn value.Native) value.Value {
	o := ctx.NewObject(reg.FunctionClass)
	o.Native = &value.Callable{Fn: fn}
	return value.ObjValue(o)
}

// TestArrayHolesGrowAndRead exercises spec §8 Testable Property 7:
// assigning past an array's current length grows it with holes that read
// back as undefined, and shrinking length truncates.
func TestArrayHolesGrowAndRead(t *testing.T) {
	ctx, reg, _ := newTestContext(t)
	arr := newArrayObj(ctx, reg, value.Num(1), value.Num(2), value.Num(3))

	if err := reg.ArrayClass.Seti(ctx, arr, 5, value.Num(99)); err != nil {
		t.Fatalf("Seti(5): %v", err)
	}
	if got := reg.ArrayClass.Len(arr); got != 6 {
		t.Fatalf("Len() after Seti(5) = %d, want 6", got)
	}
	// indices 3 and 4 are holes.
	for _, i := range []int{3, 4} {
		v, err := reg.ArrayClass.Geti(ctx, arr, i)
		if err != nil {
			t.Fatalf("Geti(%d): %v", i, err)
		}
		if v.Kind() != value.Undefined {
			t.Errorf("Geti(%d) = %v, want Undefined", i, v)
		}
	}
	v, err := reg.ArrayClass.Geti(ctx, arr, 5)
	if err != nil || v.AsNumber() != 99 {
		t.Errorf("Geti(5) = %v, %v, want 99", v, err)
	}

	// Shrinking via the length accessor truncates trailing elements.
	lengthField, _, ok := reg.ArrayClass.FindField(ctx.Intern("length"))
	if !ok {
		t.Fatal("Array class has no length field")
	}
	if err := lengthField.Set(ctx, arr, value.Num(2)); err != nil {
		t.Fatalf("set length: %v", err)
	}
	if got := reg.ArrayClass.Len(arr); got != 2 {
		t.Errorf("Len() after shrink = %d, want 2", got)
	}
}

// TestArrayGetiOutOfRange confirms a negative or too-large index reads as
// undefined rather than panicking.
func TestArrayGetiOutOfRange(t *testing.T) {
	ctx, reg, _ := newTestContext(t)
	arr := newArrayObj(ctx, reg, value.Num(1))

	for _, i := range []int{-1, 5} {
		v, err := reg.ArrayClass.Geti(ctx, arr, i)
		if err != nil {
			t.Fatalf("Geti(%d): %v", i, err)
		}
		if v.Kind() != value.Undefined {
			t.Errorf("Geti(%d) = %v, want Undefined", i, v)
		}
	}
}

// TestArrayFilterReduceChain exercises end-to-end scenario 5:
// [1,2,3,4].filter(n => n % 2).reduce((s, n) => s + n, 0) === 4 (2 + ... wait,
// odd numbers 1 and 3 sum to 4).
func TestArrayFilterReduceChain(t *testing.T) {
	ctx, reg, _ := newTestContext(t)
	arr := newArrayObj(ctx, reg, value.Num(1), value.Num(2), value.Num(3), value.Num(4))

	isOdd := nativeFunc(ctx, reg, func(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
		n := args[0].AsNumber()
		return value.Bool(int64(n)%2 != 0), nil
	})
	filtered, err := arrayFilter(ctx, arr, []value.Value{isOdd})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	filteredObj := filtered.AsObject()
	if got := reg.ArrayClass.Len(filteredObj); got != 2 {
		t.Fatalf("filtered length = %d, want 2", got)
	}

	sum := nativeFunc(ctx, reg, func(ctx value.Context, recv *value.Obj, args []value.Value) (value.Value, error) {
		return value.Num(args[0].AsNumber() + args[1].AsNumber()), nil
	})
	result, err := arrayReduce(ctx, filteredObj, []value.Value{sum, value.Num(0)})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if result.AsNumber() != 4 {
		t.Errorf("filter+reduce result = %v, want 4", result.AsNumber())
	}
}

// TestArrayPushPopShiftUnshift exercises the mutating deque methods.
func TestArrayPushPopShiftUnshift(t *testing.T) {
	ctx, reg, _ := newTestContext(t)
	arr := newArrayObj(ctx, reg)

	if _, err := arrayPush(ctx, arr, []value.Value{value.Num(1), value.Num(2)}); err != nil {
		t.Fatalf("push: %v", err)
	}
	if got := reg.ArrayClass.Len(arr); got != 2 {
		t.Fatalf("length after push = %d, want 2", got)
	}

	if _, err := arrayUnshift(ctx, arr, []value.Value{value.Num(0)}); err != nil {
		t.Fatalf("unshift: %v", err)
	}
	v, _ := reg.ArrayClass.Geti(ctx, arr, 0)
	if v.AsNumber() != 0 {
		t.Errorf("after unshift, index 0 = %v, want 0", v.AsNumber())
	}

	popped, err := arrayPop(ctx, arr, nil)
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if popped.AsNumber() != 2 {
		t.Errorf("pop() = %v, want 2", popped.AsNumber())
	}

	shifted, err := arrayShift(ctx, arr, nil)
	if err != nil {
		t.Fatalf("shift: %v", err)
	}
	if shifted.AsNumber() != 0 {
		t.Errorf("shift() = %v, want 0", shifted.AsNumber())
	}
}

// TestArrayJoinAndConcat exercises join/concat, which end-to-end scenario 6
// relies on after a String.prototype.split/map chain.
func TestArrayJoinAndConcat(t *testing.T) {
	ctx, reg, _ := newTestContext(t)
	a := newArrayObj(ctx, reg, ctx.NewString("a"), ctx.NewString("b"))
	b := newArrayObj(ctx, reg, ctx.NewString("c"))

	joined, err := arrayJoin(ctx, a, []value.Value{ctx.NewString("-")})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if joined.AsStr().String() != "a-b" {
		t.Errorf("join = %q, want %q", joined.AsStr().String(), "a-b")
	}

	concatenated, err := arrayConcat(ctx, a, []value.Value{value.ObjValue(b)})
	if err != nil {
		t.Fatalf("concat: %v", err)
	}
	if got := reg.ArrayClass.Len(concatenated.AsObject()); got != 3 {
		t.Errorf("concat length = %d, want 3", got)
	}
}
