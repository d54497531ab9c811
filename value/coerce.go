package value

import (
	"math"

	"github.com/flomesh-io/pjs/literal"
)

// ToBoolean implements spec.md §3's to_boolean column.
func ToBoolean(v Value) bool {
	switch v.kind {
	case Undefined, Null, Empty:
		return false
	case Boolean:
		return v.b
	case Number:
		return v.num != 0 && !math.IsNaN(v.num)
	case String:
		return v.str != nil && len(v.str.String()) > 0
	case Object:
		return v.obj != nil
	default:
		return false
	}
}

// ToNumber implements spec.md §3's to_number column. For Object it defers
// to valueOf, supplied by the caller (the class registry, not this
// package, knows how to dispatch a method); pass nil when no such
// dispatcher is available and boxed objects coerce to NaN.
func ToNumber(v Value, valueOf func(*Obj) Value) float64 {
	switch v.kind {
	case Undefined, Empty:
		return math.NaN()
	case Null:
		return 0
	case Boolean:
		if v.b {
			return 1
		}
		return 0
	case Number:
		return v.num
	case String:
		s := v.str.String()
		if s == "" {
			return 0
		}
		n, err := literal.ParseNumber(s)
		if err != nil {
			return math.NaN()
		}
		return n
	case Object:
		if v.obj == nil {
			return 0
		}
		if valueOf != nil {
			return ToNumber(valueOf(v.obj), valueOf)
		}
		return math.NaN()
	default:
		return math.NaN()
	}
}

// ToStringValue implements spec.md §3's to_string column for the
// primitive kinds. toString, if non-nil, is invoked for Object (the
// registry dispatches a class's "toString" method); a nil toString yields
// "[object Object]" for any non-null object, matching the fallback the
// original engine's Object.prototype.toString provides.
func ToStringValue(v Value, toString func(*Obj) string) string {
	switch v.kind {
	case Undefined:
		return "undefined"
	case Null:
		return "null"
	case Boolean:
		if v.b {
			return "true"
		}
		return "false"
	case Number:
		return literal.FormatNumber(v.num)
	case String:
		return v.str.String()
	case Object:
		if v.obj == nil {
			return "null"
		}
		if toString != nil {
			return toString(v.obj)
		}
		return "[object Object]"
	default:
		return ""
	}
}

// ToObject implements spec.md §3's to_object column. box is supplied by the
// caller (the registry knows how to allocate a Boolean/Number/String box);
// Undefined and Null box to nil (the "null" object per the coercion table).
func ToObject(v Value, box func(Value) *Obj) *Obj {
	switch v.kind {
	case Undefined, Null:
		return nil
	case Object:
		return v.obj
	default:
		if box == nil {
			return nil
		}
		return box(v)
	}
}
