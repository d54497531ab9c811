package eval

import "github.com/flomesh-io/pjs/value"

// ToNumber dispatches value.ToNumber with an Object valueOf callback that
// looks up and calls a "valueOf" method through this Context, matching
// spec.md §3's "via value_of recursion" row for Object.
func (c *Context) ToNumber(v value.Value) float64 {
	return value.ToNumber(v, c.valueOf)
}

// ToStringValue dispatches value.ToStringValue with a toString callback
// that looks up and calls a "toString" method through this Context.
func (c *Context) ToStringValue(v value.Value) string {
	return value.ToStringValue(v, c.toString)
}

func (c *Context) valueOf(o *value.Obj) value.Value {
	return c.dispatchConversion(o, "valueOf")
}

func (c *Context) toString(o *value.Obj) string {
	v := c.dispatchConversion(o, "toString")
	if v.Kind() == value.String {
		return v.AsStr().String()
	}
	return "[object " + o.Class.Name + "]"
}

// dispatchConversion looks up method on o and calls it with no arguments,
// falling back to o itself (valueOf's ECMAScript default) when the method
// is absent or errors.
func (c *Context) dispatchConversion(o *value.Obj, method string) value.Value {
	if o == nil {
		return value.UndefinedValue
	}
	fn, found, err := o.Get(c, c.Intern(method))
	if err != nil || !found || fn.Kind() != value.Object {
		return value.ObjValue(o)
	}
	result, err := c.Call(fn, o, nil)
	if err != nil {
		return value.ObjValue(o)
	}
	return result
}
