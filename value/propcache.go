package value

// PropertyCache is the single-slot memoisation spec.md §4.3/§4.8/§9
// attaches to each `obj.key`/`obj[key]` call site: it remembers the last
// (class, field-index) pairing so repeated accesses on a monomorphic call
// site (the overwhelming common case in a tight loop) skip the class's
// field-name lookup entirely. A stale cache (class changed since last hit)
// simply misses and re-resolves — spec.md §5 calls cache updates
// idempotent, so no locking is required even if two Contexts in the same
// Instance happened to race (which spec.md §5 says never happens: Objects
// are never shared across Instances on a hot path).
type PropertyCache struct {
	class *Class
	key   *Str
	index int
	kind  FieldKind
	valid bool
}

// Lookup returns the cached field index for (class, key) if the cache is
// still valid for that pair.
func (c *PropertyCache) Lookup(class *Class, key *Str) (index int, kind FieldKind, ok bool) {
	if c.valid && c.class == class && c.key == key {
		return c.index, c.kind, true
	}
	return 0, 0, false
}

// Store memoises (class, key) -> (index, kind), overwriting whatever the
// cache held before.
func (c *PropertyCache) Store(class *Class, key *Str, index int, kind FieldKind) {
	c.class, c.key, c.index, c.kind, c.valid = class, key, index, kind, true
}
