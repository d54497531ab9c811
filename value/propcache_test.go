package value

import "testing"

// TestPropertyCacheHitMiss exercises spec §8 Testable Property 5: a
// PropertyCache hits only when both the class and interned key match the
// last Store, and a class change at the same call site misses rather than
// returning a stale index.
func TestPropertyCacheHitMiss(t *testing.T) {
	pool := NewStringPool()
	keyX := pool.Intern("x")
	keyY := pool.Intern("y")

	classA := NewClass("A", nil)
	classA.AddField(&Field{Name: keyX, Kind: VariableField, Flags: Writable})
	classA.Freeze(pool)

	classB := NewClass("B", nil)
	classB.AddField(&Field{Name: keyX, Kind: VariableField, Flags: Writable})
	classB.Freeze(pool)

	var cache PropertyCache

	if _, _, ok := cache.Lookup(classA, keyX); ok {
		t.Fatalf("empty cache hit unexpectedly")
	}

	cache.Store(classA, keyX, 0, VariableField)
	idx, kind, ok := cache.Lookup(classA, keyX)
	if !ok || idx != 0 || kind != VariableField {
		t.Fatalf("Lookup after Store = (%d, %v, %v), want (0, VariableField, true)", idx, kind, ok)
	}

	// Same class, different key: miss.
	if _, _, ok := cache.Lookup(classA, keyY); ok {
		t.Errorf("Lookup with different key hit unexpectedly")
	}

	// Different class (even with an identically-named field at the same
	// slot), same key: miss — a stale cache must not silently serve a
	// different class's field.
	if _, _, ok := cache.Lookup(classB, keyX); ok {
		t.Errorf("Lookup with different class hit unexpectedly")
	}

	// Storing for the new class overwrites the old entry.
	cache.Store(classB, keyX, 0, VariableField)
	if _, _, ok := cache.Lookup(classA, keyX); ok {
		t.Errorf("old (classA, keyX) entry still hit after Store(classB, ...)")
	}
	if idx, _, ok := cache.Lookup(classB, keyX); !ok || idx != 0 {
		t.Errorf("Lookup(classB, keyX) = (%d, _, %v), want (0, _, true)", idx, ok)
	}
}

// TestClassFieldInheritance exercises spec.md §3's "fields inherited from
// super are prepended in super's own slot order" invariant.
func TestClassFieldInheritance(t *testing.T) {
	pool := NewStringPool()
	base := NewClass("Base", nil)
	base.AddField(&Field{Name: pool.Intern("a"), Kind: VariableField})
	base.Freeze(pool)

	derived := NewClass("Derived", base)
	derived.AddField(&Field{Name: pool.Intern("b"), Kind: VariableField})
	derived.Freeze(pool)

	if got := derived.FieldCount(); got != 2 {
		t.Fatalf("derived.FieldCount() = %d, want 2", got)
	}
	if _, i, ok := derived.FindField(pool.Intern("a")); !ok || i != 0 {
		t.Errorf("FindField(a) = (%d, %v), want (0, true)", i, ok)
	}
	if _, i, ok := derived.FindField(pool.Intern("b")); !ok || i != 1 {
		t.Errorf("FindField(b) = (%d, %v), want (1, true)", i, ok)
	}
	if !derived.IsInstance(base) {
		t.Errorf("derived.IsInstance(base) = false, want true")
	}
	if base.IsInstance(derived) {
		t.Errorf("base.IsInstance(derived) = true, want false")
	}
}

// TestObjGetSetOverflow exercises Obj.Get/Set's overflow path for keys not
// present in the frozen class shape (spec.md §3: "dynamically added
// properties live in an overflow table").
func TestObjGetSetOverflow(t *testing.T) {
	pool := NewStringPool()
	class := NewClass("Plain", nil)
	class.Freeze(pool)

	reg := NewRegistry(pool)
	reg.Register(class)
	fn := NewClass("Function", nil)
	fn.Freeze(pool)
	reg.Register(fn)
	reg.FunctionClass = fn

	o := NewObj(pool, class)
	ctx := &fakeCtx{reg: reg, pool: pool}

	key := pool.Intern("extra")
	if err := o.Set(ctx, key, Num(42)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := o.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Get after Set = (%v, %v, %v)", v, ok, err)
	}
	if v.Kind() != Number || v.AsNumber() != 42 {
		t.Errorf("Get(extra) = %v, want Number(42)", v)
	}
}

// fakeCtx is a minimal Context for tests that don't need a real evaluator.
type fakeCtx struct {
	reg  *Registry
	pool *StringPool
}

func (c *fakeCtx) Intern(s string) *Str        { return c.pool.Intern(s) }
func (c *fakeCtx) NewString(s string) Value     { return StrValue(c.pool.Intern(s)) }
func (c *fakeCtx) NewObject(cl *Class) *Obj      { return NewObj(c.pool, cl) }
func (c *fakeCtx) Call(fn Value, recv *Obj, args []Value) (Value, error) {
	return UndefinedValue, nil
}
func (c *fakeCtx) Throw(v Value) error                            { return nil }
func (c *fakeCtx) Throwf(format string, args ...interface{}) error { return nil }
func (c *fakeCtx) Registry() *Registry                             { return c.reg }
