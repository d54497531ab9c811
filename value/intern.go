package value

import "sync"

// Str is an interned, reference-counted UTF-8 string handle. Equality is by
// handle identity (spec.md §3): two Strs compare equal with == iff they
// were interned from byte-identical content.
type Str struct {
	pool    *StringPool
	content string
	refs    int
}

// String returns the decoded Go string.
func (s *Str) String() string {
	if s == nil {
		return ""
	}
	return s.content
}

// StringPool is the process-wide (or, for tests, per-Runtime) interning
// table described by spec.md §3: a map from content to a unique
// refcounted handle, with permanently pinned sentinels for the handful of
// strings the evaluator manufactures constantly.
type StringPool struct {
	mu      sync.Mutex
	entries map[string]*Str
}

// NewStringPool creates an empty pool and pins the sentinel strings spec.md
// §3 requires: "", "NaN", "Infinity", "-Infinity", "undefined", "null",
// "true", "false".
func NewStringPool() *StringPool {
	p := &StringPool{entries: make(map[string]*Str, 64)}
	for _, s := range []string{"", "NaN", "Infinity", "-Infinity", "undefined", "null", "true", "false"} {
		h := p.intern(s)
		h.refs = 1 << 30 // pinned: never reaches zero through ordinary Release calls
	}
	return p
}

// Intern returns the unique handle for s, creating it if this is the first
// time s has been seen. The caller owns one reference on the result.
func (p *StringPool) Intern(s string) *Str {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.intern(s)
}

func (p *StringPool) intern(s string) *Str {
	if h, ok := p.entries[s]; ok {
		h.refs++
		return h
	}
	h := &Str{pool: p, content: s}
	h.refs = 1
	p.entries[s] = h
	return h
}

// Retain adds one reference to h (Value copy construction).
func (p *StringPool) Retain(h *Str) *Str {
	if h == nil {
		return nil
	}
	p.mu.Lock()
	h.refs++
	p.mu.Unlock()
	return h
}

// Release drops one reference to h, removing it from the pool once its
// count reaches zero (spec.md §3's lifecycle), unless h is one of the
// pinned sentinels created by NewStringPool.
func (p *StringPool) Release(h *Str) {
	if h == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	h.refs--
	if h.refs <= 0 {
		delete(p.entries, h.content)
	}
}

// Len reports how many distinct strings are currently interned, for tests.
func (p *StringPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
