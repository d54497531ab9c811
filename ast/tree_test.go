package ast

import (
	"testing"

	"github.com/flomesh-io/pjs/token"
)

type fakeModule struct {
	fiberNames []string
	fiberIndex map[string]int
}

func (m *fakeModule) ID() string { return "test" }

func (m *fakeModule) ResolveName(name string) (Binding, bool) { return Binding{}, false }

func (m *fakeModule) DeclareFiber(name string) int {
	if m.fiberIndex == nil {
		m.fiberIndex = make(map[string]int)
	}
	if i, ok := m.fiberIndex[name]; ok {
		return i
	}
	i := len(m.fiberNames)
	m.fiberNames = append(m.fiberNames, name)
	m.fiberIndex[name] = i
	return i
}

// TestTreeSlotStability exercises spec §8 Testable Property 3: repeated
// Declare calls for the same name in the same frame return the same slot
// index, and hoisting climbs past purely-lexical (Block) scopes to the
// nearest frame-owning ancestor.
func TestTreeSlotStability(t *testing.T) {
	mod := NewTree(ModuleScopeKind, nil, token.NoPos)
	mod.Module = &fakeModule{}

	fn := NewTree(FunctionScopeKind, mod, token.NoPos)
	argIdx := fn.DeclareArg("a")
	if argIdx != 0 {
		t.Fatalf("DeclareArg(a) = %d, want 0", argIdx)
	}

	block := NewTree(BlockScopeKind, fn, token.NoPos)
	bIdx := block.Declare("b")
	if bIdx != 1 {
		t.Fatalf("Declare(b) from block = %d, want 1 (hoisted into fn's frame after 1 arg)", bIdx)
	}

	// Re-declaring "a" (e.g. a second `var a` in the same frame) must
	// return the already-assigned slot, not a new one (spec §9 Open
	// Question 2: the later initializer wins silently).
	if again := fn.Declare("a"); again != argIdx {
		t.Errorf("re-Declare(a) = %d, want %d (stable slot)", again, argIdx)
	}
	if again := block.Declare("b"); again != bIdx {
		t.Errorf("re-Declare(b) via block = %d, want %d (stable slot)", again, bIdx)
	}
}

// TestResolveNameClosureMarking exercises spec §4.5's closure-slot
// detection: a name resolved from inside a nested function scope that is
// declared in an enclosing function must be marked isClosure on the
// declaring Tree, and the resolved level must count function-boundary
// crossings.
func TestResolveNameClosureMarking(t *testing.T) {
	mod := NewTree(ModuleScopeKind, nil, token.NoPos)
	mod.Module = &fakeModule{}

	outer := NewTree(FunctionScopeKind, mod, token.NoPos)
	outer.DeclareArg("x")

	inner := NewTree(FunctionScopeKind, outer, token.NoPos)

	r := resolveName(inner, "x")
	if r.kind != localIdent {
		t.Fatalf("kind = %v, want localIdent", r.kind)
	}
	if r.level != 1 {
		t.Errorf("level = %d, want 1 (one function boundary crossed)", r.level)
	}
	if r.index != 0 {
		t.Errorf("index = %d, want 0", r.index)
	}
	if !outer.slots[0].isClosure {
		t.Errorf("outer's slot 0 (x) not marked isClosure after capture from inner")
	}
}

// TestResolveNameWithinSameFrame confirms a name resolved from the same
// frame that declares it is not falsely marked as a closure.
func TestResolveNameWithinSameFrame(t *testing.T) {
	mod := NewTree(ModuleScopeKind, nil, token.NoPos)
	mod.Module = &fakeModule{}

	fn := NewTree(FunctionScopeKind, mod, token.NoPos)
	fn.DeclareArg("x")
	block := NewTree(BlockScopeKind, fn, token.NoPos)

	r := resolveName(block, "x")
	if r.kind != localIdent || r.level != 0 || r.index != 0 {
		t.Fatalf("resolveName(block, x) = %+v, want {localIdent level:0 index:0}", r)
	}
	if fn.slots[0].isClosure {
		t.Errorf("slot wrongly marked isClosure for a same-frame reference")
	}
}

// TestResolveNameFiberVariable exercises "$"-prefixed fiber variables
// bypassing frame slots entirely (spec.md §3/§4.4).
func TestResolveNameFiberVariable(t *testing.T) {
	fm := &fakeModule{}
	mod := NewTree(ModuleScopeKind, nil, token.NoPos)
	mod.Module = fm

	fn := NewTree(FunctionScopeKind, mod, token.NoPos)

	r1 := resolveName(fn, "$session")
	if r1.kind != fiberIdent || r1.index != 0 {
		t.Fatalf("resolveName($session) = %+v, want {fiberIdent index:0}", r1)
	}
	r2 := resolveName(fn, "$session")
	if r2.index != r1.index {
		t.Errorf("second resolveName($session) index = %d, want %d (stable)", r2.index, r1.index)
	}
	if len(fm.fiberNames) != 1 {
		t.Errorf("fakeModule recorded %d fiber names, want 1", len(fm.fiberNames))
	}
}

// TestResolveNameGlobalFallback confirms an undeclared, non-fiber,
// non-imported/exported name falls back to a global-object lookup.
func TestResolveNameGlobalFallback(t *testing.T) {
	mod := NewTree(ModuleScopeKind, nil, token.NoPos)
	mod.Module = &fakeModule{}

	r := resolveName(mod, "console")
	if r.kind != globalIdent || r.key != "console" {
		t.Fatalf("resolveName(console) = %+v, want {globalIdent key:console}", r)
	}
}
