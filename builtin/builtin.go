package builtin

import "github.com/flomesh-io/pjs/value"

// Register builds every concrete class spec.md §4.8's Class Registry needs
// pre-populated with (SPEC_FULL.md §9, Component 9) and installs them both
// under reg's name-indexed lookup table and its ObjectClass/ArrayClass/...
// fast-path fields, which ast's ArrayLit/ObjectLit/autobox/boxInt read
// directly. Object must exist first since every other class's Super chain
// terminates there.
func Register(reg *value.Registry, pool *value.StringPool) {
	object := newObjectClass(pool)
	array := newArrayClass(pool, object)
	str := newStringClass(pool, object)
	num := newNumberClass(pool, object)
	boolean := newBooleanClass(pool, object)
	fn := newFunctionClass(pool, object)

	reg.Register(object)
	reg.Register(array)
	reg.Register(str)
	reg.Register(num)
	reg.Register(boolean)
	reg.Register(fn)

	reg.ObjectClass = object
	reg.ArrayClass = array
	reg.StringClass = str
	reg.NumberClass = num
	reg.BooleanClass = boolean
	reg.FunctionClass = fn
}
