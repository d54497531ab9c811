package pjs

import (
	"testing"

	"github.com/flomesh-io/pjs/module"
	"github.com/flomesh-io/pjs/value"
)

// run compiles and executes a single-file script through the public
// Runtime surface and fails the test on any compile/link/execute error,
// reporting Details() the way cmd/pjs would.
func run(t *testing.T, rt *Runtime, src string) value.Value {
	t.Helper()
	m, err := rt.Compile("test.pjs", []byte(src))
	if err != nil {
		t.Fatalf("compile: %v\n%s", err, rt.Details())
	}
	result, err := rt.Execute(m)
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, rt.Details())
	}
	return result
}

// TestClosureOverReassignableLocal exercises end-to-end scenario 1
// (spec.md §8): a closure returned after its enclosing call completes
// still reads and mutates its captured local by reference.
func TestClosureOverReassignableLocal(t *testing.T) {
	rt := New()
	result := run(t, rt, `(() => { let x = 1; return () => ++x; })()()`)
	if result.Kind() != value.Number || result.AsNumber() != 2 {
		t.Fatalf("result = %v, want Number(2)", result)
	}
}

// TestDefaultParamsAndDestructuring exercises end-to-end scenario 2:
// default parameters plus an object-destructuring parameter that itself
// defaults to an empty object.
func TestDefaultParamsAndDestructuring(t *testing.T) {
	rt := New()
	result := run(t, rt, `function f(a,b=10,{c=20}={}) { return a+b+c; } f(1)`)
	if result.Kind() != value.Number || result.AsNumber() != 31 {
		t.Fatalf("result = %v, want Number(31)", result)
	}
}

// TestLiveBindingModuleExports exercises end-to-end scenario 3 through the
// public Runtime API: module A exports a mutable binding and a function
// that mutates it; module B imports both and observes the live value
// after calling the mutator twice (spec.md §4.6).
func TestLiveBindingModuleExports(t *testing.T) {
	sources := map[string]string{
		"a.pjs": "export let x = 1; export function bump(){ x++; }",
		"b.pjs": "import {x, bump} from 'a'; bump(); bump(); x",
	}
	var rt *Runtime
	resolve := func(importer *module.Module, path string) (*module.Module, error) {
		src, ok := sources[path+".pjs"]
		if !ok {
			return nil, nil
		}
		return rt.Compile(path+".pjs", []byte(src))
	}
	rt = New(WithModuleResolver(resolve))

	m, err := rt.Compile("b.pjs", []byte(sources["b.pjs"]))
	if err != nil {
		t.Fatalf("compile: %v\n%s", err, rt.Details())
	}
	result, err := rt.Execute(m)
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, rt.Details())
	}
	if result.Kind() != value.Number || result.AsNumber() != 3 {
		t.Fatalf("result = %v, want Number(3)", result)
	}
}

// TestTryCatchFinally exercises end-to-end scenario 4: a thrown object is
// caught via the catch-binding's single-argument function scope, and the
// finally block runs without altering the result.
func TestTryCatchFinally(t *testing.T) {
	rt := New()
	result := run(t, rt, `try { throw {code:42}; } catch(e) { e.code } finally { /* no effect */ }`)
	if result.Kind() != value.Number || result.AsNumber() != 42 {
		t.Fatalf("result = %v, want Number(42)", result)
	}
}

// TestArrayFilterReduceEndToEnd exercises end-to-end scenario 5 through a
// fully parsed script (builtin/array_test.go covers the same methods
// against native Go callbacks instead of parsed arrow functions).
func TestArrayFilterReduceEndToEnd(t *testing.T) {
	rt := New()
	result := run(t, rt, `[1,2,3,4].filter(n => n%2).reduce((s,n)=>s+n, 0)`)
	if result.Kind() != value.Number || result.AsNumber() != 4 {
		t.Fatalf("result = %v, want Number(4)", result)
	}
}

// TestStringSplitMapJoinEndToEnd exercises end-to-end scenario 6: String
// autoboxing lets `.split`/`.toUpperCase` dispatch through the class
// registry on a primitive string value.
func TestStringSplitMapJoinEndToEnd(t *testing.T) {
	rt := New()
	result := run(t, rt, `'a.b.c'.split('.').map(s => s.toUpperCase()).join('-')`)
	if result.Kind() != value.String || result.AsStr().String() != "A-B-C" {
		t.Fatalf("result = %v, want String(\"A-B-C\")", result)
	}
	if got := rt.Inspect(result); got != `"A-B-C"` {
		t.Errorf("Inspect(result) = %q, want %q", got, `"A-B-C"`)
	}
}

// TestRuntimeErrorSurface exercises the Ok/Error/Where/Details surface
// spec.md §6 promises for a failing script.
func TestRuntimeErrorSurface(t *testing.T) {
	rt := New()
	m, err := rt.Compile("test.pjs", []byte(`undefinedFn()`))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	_, err = rt.Execute(m)
	if err == nil {
		t.Fatal("expected execute error for calling an undefined function")
	}
	if rt.Ok() {
		t.Fatal("Ok() = true after a failing Execute")
	}
	if info := rt.Error(); info == nil || info.Message == "" {
		t.Fatalf("Error() = %+v, want a populated ErrorInfo", info)
	}
	if _, ok := rt.Where(); !ok {
		t.Errorf("Where() reported no position for a runtime error")
	}
	if rt.Details() == "" {
		t.Errorf("Details() is empty after a failing Execute")
	}
}

// TestSetFiberSeedsHostOwnedVariable exercises spec.md §3's host-owned
// "$"-prefixed fiber variables: a host seeds one via SetFiber before
// Execute, and the script both reads and mutates it in place.
func TestSetFiberSeedsHostOwnedVariable(t *testing.T) {
	rt := New()
	m, err := rt.Compile("test.pjs", []byte(`$count = $count + 1; $count`))
	if err != nil {
		t.Fatalf("compile: %v\n%s", err, rt.Details())
	}
	if !rt.SetFiber(m, "$count", value.Num(41)) {
		t.Fatal("SetFiber($count) reported false for a name the script declares")
	}
	if rt.SetFiber(m, "$nope", value.Num(0)) {
		t.Error("SetFiber($nope) reported true for an undeclared fiber name")
	}
	result, err := rt.Execute(m)
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, rt.Details())
	}
	if result.Kind() != value.Number || result.AsNumber() != 42 {
		t.Fatalf("result = %v, want Number(42)", result)
	}
}
