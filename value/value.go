// Package value implements the PJS dynamic value model: the interned
// string pool (intern.go), the Value tagged union and its coercions and
// equality relations (this file, coerce.go), and the object/class registry
// that spec.md §3-4.8 groups as a separate component but which must live
// alongside Value here to avoid an import cycle (a Value can hold an
// Object, and an Object's fields hold Values).
package value

import "math"

// Kind tags which variant a Value holds.
type Kind uint8

const (
	// Empty is the internal-only hole/deleted sentinel (spec.md §3); hosts
	// never observe it directly, but it fills unset array slots and
	// tombstoned object fields.
	Empty Kind = iota
	Undefined
	Null
	Boolean
	Number
	String
	Object
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Undefined:
		return "undefined"
	case Null:
		return "object" // typeof null === "object"
	case Boolean:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Value is the tagged union every PJS expression evaluates to. It has copy
// semantics: Retain/Release adjust the refcounts of the String/Object
// payload it carries, mirroring spec.md §3's "refcount-adjust on
// construct/destruct" rule.
type Value struct {
	kind Kind
	num  float64
	b    bool
	str  *Str
	obj  *Obj
}

// UndefinedValue, NullValue and the EmptyValue sentinel are stateless and
// never need releasing.
var (
	UndefinedValue = Value{kind: Undefined}
	NullValue      = Value{kind: Null}
	EmptyValue     = Value{kind: Empty}
)

func Bool(b bool) Value   { return Value{kind: Boolean, b: b} }
func Num(n float64) Value { return Value{kind: Number, num: n} }

// StrValue wraps an already-interned string handle. Callers that hold a fresh
// reference (e.g. from StringPool.Intern) transfer ownership of it to the
// returned Value.
func StrValue(h *Str) Value { return Value{kind: String, str: h} }

// ObjValue wraps an object handle (a live reference the caller holds).
func ObjValue(o *Obj) Value {
	if o == nil {
		return NullValue
	}
	return Value{kind: Object, obj: o}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsUndefined() bool { return v.kind == Undefined }
func (v Value) IsNull() bool      { return v.kind == Null }
func (v Value) IsNullish() bool   { return v.kind == Undefined || v.kind == Null }
func (v Value) IsEmpty() bool     { return v.kind == Empty }

func (v Value) AsBool() bool     { return v.b }
func (v Value) AsNumber() float64 { return v.num }
func (v Value) AsStr() *Str      { return v.str }
func (v Value) AsObject() *Obj   { return v.obj }

// Retain bumps the refcount of the payload Value holds, if any, and
// returns v unchanged, matching spec.md §3's "copy semantics".
func (v Value) Retain(pool *StringPool) Value {
	switch v.kind {
	case String:
		pool.Retain(v.str)
	case Object:
		v.obj.Retain()
	}
	return v
}

// Release drops one reference from the payload Value holds, if any.
func (v Value) Release(pool *StringPool) {
	switch v.kind {
	case String:
		pool.Release(v.str)
	case Object:
		v.obj.Release()
	}
}

// Identity implements spec.md §3's identity relation (used by ===): same
// variant and same bit pattern; NaN === NaN is true under this relation
// because it compares the float64 bit pattern, not IEEE ordering.
func Identity(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Undefined, Null, Empty:
		return true
	case Boolean:
		return a.b == b.b
	case Number:
		return math.Float64bits(a.num) == math.Float64bits(b.num)
	case String:
		return a.str == b.str
	case Object:
		return a.obj == b.obj
	default:
		return false
	}
}

// LooseEqual implements spec.md §3's loose-equality relation: same-type
// compare with NaN != NaN, extended per spec.md §8 Testable Property 2 so
// that null == undefined and no other cross-type pair is ever equal (no
// implicit conversion).
func LooseEqual(a, b Value) bool {
	if a.IsNullish() && b.IsNullish() {
		return true
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Undefined, Null, Empty:
		return true
	case Boolean:
		return a.b == b.b
	case Number:
		return a.num == b.num // NaN != NaN falls out of IEEE-754 ==
	case String:
		return a.str == b.str || a.str.String() == b.str.String()
	case Object:
		return a.obj == b.obj
	default:
		return false
	}
}
