package eval

import "github.com/flomesh-io/pjs/value"

// SlotDesc describes one slot of a compile-time Tree::Scope (spec.md §3,
// §4.5): its name (for diagnostics) and whether resolve() ever found it
// accessed from below its defining function scope, which marks it a
// closure slot that must survive Scope.Clear.
type SlotDesc struct {
	Name      string
	IsClosure bool
}

// FrameShape is the runtime-allocation blueprint an ast.Tree (compile-time
// scope) produces once declare() finishes with it: how many leading slots
// are arguments, and the full ordered slot descriptor list (spec.md §3's
// "Tree::Scope ... Produces a runtime Scope on demand").
type FrameShape struct {
	ArgCount int
	Slots    []SlotDesc
}

// Scope is the runtime frame spec.md §3 describes: an array of Values
// sized to argc+locals, a back-pointer to the lexically enclosing Scope
// captured at function-literal creation time, and a pointer to the
// FrameShape that allocated it (so Clear knows which slots are closures).
type Scope struct {
	Parent *Scope
	Shape  *FrameShape
	Slots  []value.Value
}

// NewScope allocates a fresh frame for shape, chained to parent (the
// lexical scope in effect where the function literal was created, or nil
// for a module's top-level scope). Argument slots are left as Undefined;
// the caller fills argc of them before running initializers.
func NewScope(shape *FrameShape, parent *Scope) *Scope {
	s := &Scope{Parent: parent, Shape: shape, Slots: make([]value.Value, len(shape.Slots))}
	for i := range s.Slots {
		s.Slots[i] = value.UndefinedValue
	}
	return s
}

// Clear resets every non-closure slot to Undefined on normal return
// (spec.md §3, §4.5): closure slots are left untouched because a Function
// value created during this call may still reference this very Scope.
func (s *Scope) Clear() {
	for i, d := range s.Shape.Slots {
		if !d.IsClosure {
			s.Slots[i] = value.UndefinedValue
		}
	}
}

// At walks up `level` enclosing scopes (the function-boundary count
// Identifier.resolve recorded) and returns the slot at index.
func (s *Scope) At(level, index int) value.Value {
	t := s
	for ; level > 0; level-- {
		t = t.Parent
	}
	return t.Slots[index]
}

// SetAt is the write counterpart of At.
func (s *Scope) SetAt(level, index int, v value.Value) {
	t := s
	for ; level > 0; level-- {
		t = t.Parent
	}
	t.Slots[index] = v
}
