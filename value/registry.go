package value

// Registry is the process-/Runtime-wide Class Registry spec.md §4.8
// requires: host code declares classes once at startup; eval consults it
// for property access, instanceof and typeof. Per spec.md §5 the field
// list of each Class is append-only during startup and read-only after,
// so lookups here need no locking once the Runtime starts executing.
type Registry struct {
	pool    *StringPool
	classes map[string]*Class

	// ObjectClass, FunctionClass, ArrayClass etc. are populated by the
	// builtin package at Runtime construction and consulted by the
	// evaluator for autoboxing and typeof/instanceof fast paths.
	ObjectClass  *Class
	FunctionClass *Class
	ArrayClass   *Class
	StringClass  *Class
	NumberClass  *Class
	BooleanClass *Class
}

// NewRegistry creates an empty registry bound to pool.
func NewRegistry(pool *StringPool) *Registry {
	return &Registry{pool: pool, classes: make(map[string]*Class, 16)}
}

// Register adds c under its own Name, freezing it first if the caller
// hasn't already. Panics on a duplicate name: registration only happens at
// host-startup wiring time, so a collision is a programming error, not a
// runtime condition to recover from.
func (r *Registry) Register(c *Class) {
	if !c.frozen {
		c.Freeze(r.pool)
	}
	if _, dup := r.classes[c.Name]; dup {
		panic("value: duplicate class registration: " + c.Name)
	}
	r.classes[c.Name] = c
}

// Lookup finds a registered class by name.
func (r *Registry) Lookup(name string) (*Class, bool) {
	c, ok := r.classes[name]
	return c, ok
}

// Pool returns the registry's string pool, so code holding only a Registry
// can still intern/box values.
func (r *Registry) Pool() *StringPool { return r.pool }

// TypeOf implements spec.md §4.8's typeof contract.
func TypeOf(v Value, r *Registry) string {
	switch v.Kind() {
	case Undefined:
		return "undefined"
	case Null, Object:
		if v.Kind() == Object {
			if o := v.AsObject(); o != nil {
				if r != nil && r.FunctionClass != nil && o.Class.IsInstance(r.FunctionClass) {
					return "function"
				}
				if _, ok := o.Native.(*Callable); ok {
					return "function"
				}
			}
		}
		return "object"
	case Boolean:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	default:
		return "undefined"
	}
}
