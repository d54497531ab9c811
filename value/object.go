package value

// FieldKind distinguishes the three shapes spec.md §3 allows for a Class's
// named fields.
type FieldKind uint8

const (
	// VariableField is a plain data slot with a default value and option
	// bits (Enumerable/Writable/Configurable).
	VariableField FieldKind = iota
	// AccessorField is a getter/setter pair.
	AccessorField
	// MethodField is a fixed callable, optionally usable as a constructor.
	MethodField
)

// Field option bits, spec.md §3.
const (
	Enumerable = 1 << iota
	Writable
	Configurable
)

// Getter/Setter are invoked with the live Context so builtins can throw,
// allocate, or call back into user code (e.g. Array.prototype.forEach's
// callback).
type Getter func(ctx Context, recv *Obj) (Value, error)
type Setter func(ctx Context, recv *Obj, v Value) error

// Native is the signature every builtin method, function and constructor
// body has. recv is nil for free functions.
type Native func(ctx Context, recv *Obj, args []Value) (Value, error)

// Context is the minimal surface value-level code (builtins, coercions)
// needs from the evaluator, kept here as an interface so this package never
// imports eval: eval.Context implements it. Mirrors spec.md §4.7's
// Context/arguments()/backtrace contract.
type Context interface {
	// Intern returns the pool-unique handle for s.
	Intern(s string) *Str
	// NewString builds a String Value already holding one reference.
	NewString(s string) Value
	// NewObject allocates a zero-initialized instance of class c.
	NewObject(c *Class) *Obj
	// Call invokes a callable Value (a Function object) with the given
	// receiver and arguments.
	Call(fn Value, recv *Obj, args []Value) (Value, error)
	// Throw builds a Thrown-kind error carrying v as its payload.
	Throw(v Value) error
	// Throwf builds a Runtime-kind error with a formatted message, boxed
	// as a thrown Error-like value the same way a native TypeError would be.
	Throwf(format string, args ...interface{}) error
	// Registry exposes the live class registry so builtins can look up
	// sibling classes (e.g. Array's "constructor" field referencing the
	// Array class itself).
	Registry() *Registry
}

// Field is one named member of a Class.
type Field struct {
	Name  *Str
	Kind  FieldKind
	Flags int // Enumerable|Writable|Configurable, VariableField only

	// VariableField
	Default Value

	// AccessorField
	Get Getter
	Set Setter

	// MethodField
	Fn   Native
	Ctor *Class // non-nil if `new F(...)` should allocate this class
}

// Class is the named shape metadata spec.md §3 describes: a frozen,
// ordered field list plus optional indexed accessors and superclass.
type Class struct {
	Name    string
	Super   *Class
	Fields  []*Field
	index   map[*Str]int // Name -> slot in Fields, built once at Freeze
	Ctor    Native       // class-level constructor body, if any
	CtorLen int          // declared parameter count, for arity errors

	// Geti/Seti enable the numeric-key fast path Property nodes use
	// (spec.md §4.3): when set, a Property access whose key coerces to a
	// finite number dispatches here instead of the field table.
	Geti func(ctx Context, recv *Obj, index int) (Value, error)
	Seti func(ctx Context, recv *Obj, index int, v Value) error
	Len  func(recv *Obj) int // backing length, used by for-in/indexed ops

	frozen bool
}

// NewClass creates a class. Fields inherited from super are prepended in
// super's own slot order (spec.md §3's inheritance invariant); call
// AddField to append this class's own fields, then Freeze.
func NewClass(name string, super *Class) *Class {
	c := &Class{Name: name, Super: super}
	if super != nil {
		c.Fields = append(c.Fields, super.Fields...)
	}
	return c
}

// AddField appends f to c. Must be called before Freeze.
func (c *Class) AddField(f *Field) {
	if c.frozen {
		panic("value: AddField on frozen Class " + c.Name)
	}
	c.Fields = append(c.Fields, f)
}

// Freeze finalizes the field list (spec.md §3: "field list is frozen after
// creation") and builds the name index.
func (c *Class) Freeze(pool *StringPool) {
	c.index = make(map[*Str]int, len(c.Fields))
	for i, f := range c.Fields {
		if f.Name != nil {
			c.index[pool.Intern(f.Name.String())] = i
		}
	}
	c.frozen = true
}

// FindField looks up key by interned identity, O(1) via the class's index
// map (spec.md §3 permits either O(1) or O(log n); this implementation
// chooses the hash-map form).
func (c *Class) FindField(key *Str) (*Field, int, bool) {
	if i, ok := c.index[key]; ok {
		return c.Fields[i], i, true
	}
	return nil, -1, false
}

// IsInstance reports whether c is v or a (possibly indirect) subclass of v,
// walking the superclass chain spec.md §4.8 requires `instanceof` to use.
func (c *Class) IsInstance(v *Class) bool {
	for k := c; k != nil; k = k.Super {
		if k == v {
			return true
		}
	}
	return false
}

// FieldCount returns the frozen field-slot count, i.e. Obj.Slots' length
// for an instance of c.
func (c *Class) FieldCount() int { return len(c.Fields) }

// Obj is a handle to (class_ref, fixed slots, hashtable overflow) per
// spec.md §3. It is refcounted; Release frees its slot and overflow values
// once the count reaches zero. The owning class is not notified and keeps no
// live-object count.
type Obj struct {
	Class    *Class
	Slots    []Value
	Overflow map[*Str]Value
	refs     int32

	// Native is an escape hatch for engine-internal payloads that don't fit
	// the slot/overflow model: a Function's bound closure record, an
	// Array's contiguous backing store, a boxed primitive's wrapped Value,
	// a host Fiber token. Exactly one concrete engine type is ever stored
	// here per Class; builtins type-assert it themselves.
	Native interface{}

	pool *StringPool
}

// NewObj allocates a zero-initialized instance of c: every VariableField
// slot gets its class-declared Default.
func NewObj(pool *StringPool, c *Class) *Obj {
	o := &Obj{Class: c, Slots: make([]Value, len(c.Fields)), refs: 1, pool: pool}
	for i, f := range c.Fields {
		if f.Kind == VariableField {
			o.Slots[i] = f.Default
		}
	}
	return o
}

func (o *Obj) Retain() {
	if o != nil {
		o.refs++
	}
}

// Release drops one reference, releasing slot/overflow values once refs
// reaches zero (spec.md §3); no per-class live-object count is kept or
// updated. It does not recursively free cyclic structures (spec.md
// §5/§9 accept this as a documented hazard).
func (o *Obj) Release() {
	if o == nil {
		return
	}
	o.refs--
	if o.refs > 0 {
		return
	}
	for _, v := range o.Slots {
		v.Release(o.pool)
	}
	for _, v := range o.Overflow {
		v.Release(o.pool)
	}
	o.Slots = nil
	o.Overflow = nil
}

// RefCount reports the current reference count, for tests and diagnostics.
func (o *Obj) RefCount() int32 { return o.refs }

// Get performs a named property read honoring the class field table: a
// VariableField returns its slot, an AccessorField invokes Get, and a
// MethodField is bound into a callable Function Value. Overflow entries
// (properties added dynamically, outside the frozen class shape) are
// checked when key has no matching field.
func (o *Obj) Get(ctx Context, key *Str) (Value, bool, error) {
	if f, i, ok := o.Class.FindField(key); ok {
		switch f.Kind {
		case VariableField:
			return o.Slots[i], true, nil
		case AccessorField:
			if f.Get == nil {
				return UndefinedValue, true, nil
			}
			v, err := f.Get(ctx, o)
			return v, true, err
		case MethodField:
			fn := NewObj(ctx.Registry().pool, ctx.Registry().FunctionClass)
			fn.Native = &Callable{Fn: f.Fn, Recv: o, Ctor: f.Ctor, Name: key.String()}
			return ObjValue(fn), true, nil
		}
	}
	if v, ok := o.Overflow[key]; ok {
		return v, true, nil
	}
	return UndefinedValue, false, nil
}

// Set performs a named property write: a Writable VariableField slot is
// overwritten in place, an AccessorField invokes Set, otherwise the key is
// (created or updated) in the overflow map.
func (o *Obj) Set(ctx Context, key *Str, v Value) error {
	if f, i, ok := o.Class.FindField(key); ok {
		switch f.Kind {
		case VariableField:
			if f.Flags&Writable == 0 {
				return nil
			}
			old := o.Slots[i]
			o.Slots[i] = v.Retain(o.pool)
			old.Release(o.pool)
			return nil
		case AccessorField:
			if f.Set == nil {
				return nil
			}
			return f.Set(ctx, o, v)
		case MethodField:
			return nil // methods are not assignable
		}
	}
	if o.Overflow == nil {
		o.Overflow = make(map[*Str]Value, 4)
	}
	if old, ok := o.Overflow[key]; ok {
		old.Release(o.pool)
	}
	o.Overflow[key] = v.Retain(o.pool)
	return nil
}

// Boxed is the Native payload of an autoboxed String/Number/Boolean wrapper
// object (spec.md §12.4): V holds the original primitive Value so builtin
// prototype methods (String.prototype.split, Number.prototype.toString, ...)
// can recover it.
type Boxed struct {
	V Value
}

// Callable is what a "Function" class instance's Native field holds: either
// a builtin method/constructor bound to a receiver, or (via Closure) an
// evaluator-owned user function literal.
type Callable struct {
	Fn      Native
	Recv    *Obj
	Ctor    *Class
	Name    string
	Closure interface{} // *eval.Closure for user-defined FunctionLiterals
}
